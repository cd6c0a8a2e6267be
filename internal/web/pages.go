package web

import (
	"fmt"
	"time"

	gomponents "maragu.dev/gomponents"
	html "maragu.dev/gomponents/html"

	"github.com/wayfarer-app/wayfarer/internal/auth"
	"github.com/wayfarer-app/wayfarer/internal/bookings"
	"github.com/wayfarer-app/wayfarer/internal/reviews"
	"github.com/wayfarer-app/wayfarer/internal/tours"
)

func appPage(title string, principal *auth.Principal, body ...gomponents.Node) gomponents.Node {
	var account gomponents.Node
	if principal != nil {
		account = html.Div(
			html.Class("nav-account"),
			html.A(html.Href("/me"), gomponents.Text(principal.Name)),
			html.A(html.Href("/my-bookings"), gomponents.Text("My bookings")),
		)
	} else {
		account = html.Div(
			html.Class("nav-account"),
			html.A(html.Href("/login"), gomponents.Text("Log in")),
		)
	}

	return html.HTML(
		html.Lang("en"),
		html.Head(
			html.Meta(html.Charset("utf-8")),
			html.Meta(html.Name("viewport"), html.Content("width=device-width, initial-scale=1")),
			html.TitleEl(gomponents.Text(title+" | Wayfarer")),
			html.Link(html.Rel("stylesheet"), html.Href("/static/app.css")),
		),
		html.Body(
			html.Header(
				html.Class("topbar"),
				html.A(html.Href("/"), html.Strong(gomponents.Text("Wayfarer"))),
				account,
			),
			html.Main(
				html.Class("layout"),
				html.H1(html.Class("page-title"), gomponents.Text(title)),
				gomponents.Group(body),
			),
		),
	)
}

func overviewPage(principal *auth.Principal, list []tours.Tour) gomponents.Node {
	cards := make([]gomponents.Node, 0, len(list))
	for _, t := range list {
		cards = append(cards, tourCard(t))
	}
	return appPage("All Tours", principal,
		html.Div(html.Class("card-grid"), gomponents.Group(cards)),
	)
}

func tourCard(t tours.Tour) gomponents.Node {
	return html.Div(
		html.Class("card"),
		html.H3(html.A(html.Href("/tours/"+t.Slug), gomponents.Text(t.Name))),
		html.P(html.Class("muted"), gomponents.Text(fmt.Sprintf("%s · %d days", t.Difficulty, t.Duration))),
		html.P(gomponents.Text(t.Summary)),
		html.P(html.Class("price"), gomponents.Text(fmt.Sprintf("$%.0f per person", t.Price))),
		html.P(html.Class("muted"), gomponents.Text(fmt.Sprintf("%.1f rating (%d)", t.RatingsAverage, t.RatingsQuantity))),
	)
}

func tourPage(principal *auth.Principal, t *tours.Tour, tourReviews []reviews.Review) gomponents.Node {
	reviewNodes := make([]gomponents.Node, 0, len(tourReviews))
	for _, rv := range tourReviews {
		reviewNodes = append(reviewNodes, html.Div(
			html.Class("review"),
			html.P(html.Strong(gomponents.Text(rv.UserName)), gomponents.Text(fmt.Sprintf(" · %d/5", rv.Rating))),
			html.P(gomponents.Text(rv.Review)),
		))
	}

	var booking gomponents.Node
	if principal != nil {
		booking = html.Form(
			html.Method("post"),
			html.Action("/tours/"+t.Slug+"/book"),
			html.Button(html.Type("submit"), html.Class("btn btn-primary"), gomponents.Text("Book tour now!")),
		)
	} else {
		booking = html.P(html.A(html.Href("/login"), gomponents.Text("Log in to book this tour")))
	}

	return appPage(t.Name, principal,
		html.P(html.Class("muted"), gomponents.Text(fmt.Sprintf("%d days · up to %d people · %s", t.Duration, t.MaxGroupSize, t.Difficulty))),
		html.P(gomponents.Text(t.Description)),
		html.P(html.Class("price"), gomponents.Text(fmt.Sprintf("$%.0f per person", t.Price))),
		booking,
		html.H2(gomponents.Text("Reviews")),
		html.Div(html.Class("reviews"), gomponents.Group(reviewNodes)),
	)
}

func loginPage(errMsg string) gomponents.Node {
	content := []gomponents.Node{
		html.H2(gomponents.Text("Log into your account")),
		html.Form(
			html.Method("post"),
			html.Action("/login"),
			html.Class("login-form"),
			html.Label(gomponents.Text("Email address")),
			html.Input(html.Type("email"), html.Name("email"), html.Required()),
			html.Label(gomponents.Text("Password")),
			html.Input(html.Type("password"), html.Name("password"), html.Required()),
			html.Button(html.Type("submit"), html.Class("btn btn-primary"), gomponents.Text("Log in")),
		),
	}
	if errMsg != "" {
		content = append([]gomponents.Node{html.P(html.Class("error"), gomponents.Text(errMsg))}, content...)
	}
	return appPage("Log in", nil, content...)
}

func accountPage(principal *auth.Principal) gomponents.Node {
	return appPage("Your account", principal,
		html.Div(
			html.Class("account"),
			html.P(html.Strong(gomponents.Text("Name: ")), gomponents.Text(principal.Name)),
			html.P(html.Strong(gomponents.Text("Email: ")), gomponents.Text(principal.Email)),
			html.P(html.Strong(gomponents.Text("Role: ")), gomponents.Text(string(principal.Role))),
			html.Form(
				html.Method("post"),
				html.Action("/logout"),
				html.Button(html.Type("submit"), html.Class("secondary"), gomponents.Text("Log out")),
			),
		),
	)
}

func bookingsPage(principal *auth.Principal, list []bookings.Booking) gomponents.Node {
	rows := make([]gomponents.Node, 0, len(list))
	for _, b := range list {
		rows = append(rows, html.Tr(
			html.Td(gomponents.Text(b.TourName)),
			html.Td(gomponents.Text(fmt.Sprintf("$%.2f", float64(b.PriceCents)/100))),
			html.Td(gomponents.Text(string(b.Status))),
			html.Td(gomponents.Text(b.CreatedAt.Format(time.RFC3339))),
		))
	}
	return appPage("My bookings", principal,
		html.Table(
			html.Class("bookings"),
			html.THead(html.Tr(
				html.Th(gomponents.Text("Tour")),
				html.Th(gomponents.Text("Price")),
				html.Th(gomponents.Text("Status")),
				html.Th(gomponents.Text("Booked at")),
			)),
			html.TBody(gomponents.Group(rows)),
		),
	)
}

func errorPage(principal *auth.Principal, title, message string) gomponents.Node {
	return appPage(title, principal,
		html.P(gomponents.Text(message)),
		html.P(html.A(html.Href("/"), gomponents.Text("Back to all tours"))),
	)
}
