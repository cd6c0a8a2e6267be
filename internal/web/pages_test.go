package web

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	gomponents "maragu.dev/gomponents"

	"github.com/wayfarer-app/wayfarer/internal/auth"
	"github.com/wayfarer-app/wayfarer/internal/tours"
)

func render(t *testing.T, node gomponents.Node) string {
	t.Helper()
	var sb strings.Builder
	require.NoError(t, node.Render(&sb))
	return sb.String()
}

func TestOverviewPage(t *testing.T) {
	page := render(t, overviewPage(nil, []tours.Tour{
		{Name: "The Forest Hiker", Slug: "the-forest-hiker", Difficulty: "easy", Duration: 5, Price: 497, Summary: "Breathtaking hike"},
		{Name: "The Sea Explorer", Slug: "the-sea-explorer", Difficulty: "medium", Duration: 7, Price: 1497},
	}))

	assert.Contains(t, page, "The Forest Hiker")
	assert.Contains(t, page, `href="/tours/the-sea-explorer"`)
	assert.Contains(t, page, "$497 per person")
	assert.Contains(t, page, "Log in", "anonymous visitors see the login link")
	assert.NotContains(t, page, "My bookings")
}

func TestOverviewPagePersonalisesNav(t *testing.T) {
	principal := &auth.Principal{ID: 7, Name: "Ada", Email: "ada@example.com", Role: auth.RoleUser}
	page := render(t, overviewPage(principal, nil))

	assert.Contains(t, page, "Ada")
	assert.Contains(t, page, "My bookings")
}

func TestTourPageBookingForm(t *testing.T) {
	tour := &tours.Tour{ID: 12, Name: "The Forest Hiker", Slug: "the-forest-hiker", Duration: 5, MaxGroupSize: 10, Difficulty: "easy", Price: 497}

	anonymous := render(t, tourPage(nil, tour, nil))
	assert.Contains(t, anonymous, "Log in to book this tour")
	assert.NotContains(t, anonymous, "/tours/the-forest-hiker/book")

	principal := &auth.Principal{ID: 7, Name: "Ada", Role: auth.RoleUser}
	signedIn := render(t, tourPage(principal, tour, nil))
	assert.Contains(t, signedIn, `action="/tours/the-forest-hiker/book"`)
	assert.Contains(t, signedIn, "Book tour now!")
}

func TestLoginPageShowsError(t *testing.T) {
	plain := render(t, loginPage(""))
	assert.NotContains(t, plain, `class="error"`)

	withErr := render(t, loginPage("Incorrect email or password"))
	assert.Contains(t, withErr, "Incorrect email or password")
	assert.Contains(t, withErr, `name="email"`)
	assert.Contains(t, withErr, `name="password"`)
}

func TestErrorPage(t *testing.T) {
	page := render(t, errorPage(nil, "Not found", "No tour with that name."))
	assert.Contains(t, page, "No tour with that name.")
	assert.Contains(t, page, "Back to all tours")
}
