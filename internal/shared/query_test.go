package shared

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var tourColumns = map[string]string{
	"price":          "price",
	"duration":       "duration",
	"difficulty":     "difficulty",
	"ratingsAverage": "ratings_average",
	"createdAt":      "created_at",
}

func TestParseListQueryFilters(t *testing.T) {
	values, err := url.ParseQuery("duration[gte]=5&price[lt]=1500&difficulty=easy")
	require.NoError(t, err)

	q := ParseListQuery(values, tourColumns, "created_at", true)
	where, _, args := q.Clauses(1)

	assert.Contains(t, where, "duration >= $")
	assert.Contains(t, where, "price < $")
	assert.Contains(t, where, "difficulty = $")
	assert.Len(t, args, 3)
}

func TestParseListQueryDropsUnknownFieldsAndOps(t *testing.T) {
	values, err := url.ParseQuery("password[gte]=x&price[regex]=1&price[gte]=500")
	require.NoError(t, err)

	q := ParseListQuery(values, tourColumns, "", false)
	where, _, args := q.Clauses(1)

	assert.Equal(t, "price >= $1", where)
	assert.Equal(t, []any{"500"}, args)
}

func TestParseListQuerySort(t *testing.T) {
	values, err := url.ParseQuery("sort=price,-ratingsAverage")
	require.NoError(t, err)

	q := ParseListQuery(values, tourColumns, "created_at", true)
	_, order, _ := q.Clauses(1)

	assert.Equal(t, "price ASC, ratings_average DESC", order)
}

func TestParseListQueryDefaultSort(t *testing.T) {
	q := ParseListQuery(url.Values{}, tourColumns, "created_at", true)
	_, order, _ := q.Clauses(1)
	assert.Equal(t, "created_at DESC", order)
}

func TestParseListQueryPagination(t *testing.T) {
	values, err := url.ParseQuery("page=3&size=10")
	require.NoError(t, err)

	q := ParseListQuery(values, tourColumns, "", false)
	assert.Equal(t, 3, q.Page())
	assert.Equal(t, 10, q.Size())
	assert.Equal(t, 20, q.Offset())
}

func TestParseListQueryIgnoresBadPagination(t *testing.T) {
	values, err := url.ParseQuery("page=abc&size=-5")
	require.NoError(t, err)

	q := ParseListQuery(values, tourColumns, "", false)
	assert.Equal(t, 1, q.Page())
	assert.Equal(t, 100, q.Size())
}

func TestListQueryBuilderIsImmutable(t *testing.T) {
	base := NewListQuery().WithFilter("price", OpGte, 100)

	a := base.WithFilter("duration", OpLt, 10)
	b := base.WithSort("price", false)

	whereBase, orderBase, _ := base.Clauses(1)
	assert.Equal(t, "price >= $1", whereBase)
	assert.Empty(t, orderBase)

	whereA, _, _ := a.Clauses(1)
	assert.Equal(t, "price >= $1 AND duration < $2", whereA)

	_, orderB, _ := b.Clauses(1)
	assert.Equal(t, "price ASC", orderB)
}

func TestClausesArgNumbering(t *testing.T) {
	q := NewListQuery().
		WithFilter("price", OpGt, 100).
		WithFilter("duration", OpLte, 14)

	where, _, args := q.Clauses(3)
	assert.Equal(t, "price > $3 AND duration <= $4", where)
	assert.Equal(t, []any{100, 14}, args)
}
