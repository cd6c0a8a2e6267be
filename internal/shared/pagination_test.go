package shared

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewPagination(t *testing.T) {
	p := NewPagination(2, 10, 45)
	assert.Equal(t, 2, p.Page)
	assert.Equal(t, 10, p.Size)
	assert.Equal(t, 45, p.Total)
	assert.Equal(t, 5, p.TotalPages)
}

func TestNewPaginationBeyondLastPage(t *testing.T) {
	// A page past the end keeps honest totals; the rows are simply empty.
	p := NewPagination(9, 10, 45)
	assert.Equal(t, 9, p.Page)
	assert.Equal(t, 5, p.TotalPages)
	assert.Equal(t, 45, p.Total)
}

func TestNewPaginationDefaults(t *testing.T) {
	p := NewPagination(0, 0, 0)
	assert.Equal(t, 1, p.Page)
	assert.Equal(t, 100, p.Size)
	assert.Equal(t, 0, p.TotalPages)
}
