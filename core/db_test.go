package core

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPage(t *testing.T) {
	tests := []struct {
		name       string
		page       Page
		n          int
		wantStart  int
		wantEnd    int
		wantPages  int
		wantNumber int
	}{
		{name: "defaults", page: NewPage(0, 0), n: 25, wantStart: 0, wantEnd: 10, wantPages: 3, wantNumber: 1},
		{name: "last page", page: NewPage(3, 10), n: 25, wantStart: 20, wantEnd: 25, wantPages: 3, wantNumber: 3},
		{name: "beyond last page", page: NewPage(5, 10), n: 25, wantStart: 25, wantEnd: 25, wantPages: 3, wantNumber: 5},
		{name: "limit capped", page: NewPage(1, 1000), n: 250, wantStart: 0, wantEnd: MaxPageLimit, wantPages: 3, wantNumber: 1},
		{name: "empty", page: NewPage(1, 10), n: 0, wantStart: 0, wantEnd: 0, wantPages: 0, wantNumber: 1},
		{name: "unpaged", page: Unpaged(), n: 25, wantStart: 0, wantEnd: 25, wantPages: 0, wantNumber: 1},
		{name: "huge page number", page: NewPage(math.MaxInt64, 10), n: 25, wantStart: 25, wantEnd: 25, wantPages: 3, wantNumber: math.MaxInt64},
		{name: "uncleaned huge page", page: Page{Number: math.MaxInt64, Limit: math.MaxInt64}, n: 25, wantStart: 25, wantEnd: 25, wantPages: 1, wantNumber: math.MaxInt64},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			start, end := tt.page.Bounds(tt.n)
			assert.Equal(t, tt.wantStart, start)
			assert.Equal(t, tt.wantEnd, end)
			assert.Equal(t, tt.wantPages, tt.page.TotalPages(tt.n))
			assert.Equal(t, tt.wantNumber, tt.page.Number)
			assert.GreaterOrEqual(t, tt.page.Offset(), 0)
		})
	}
}

func TestCleanOrderings(t *testing.T) {
	got := CleanOrderings(
		[]DBOrdering{{Field: "name", Ascending: true}, {Field: "password"}, {Field: "created"}},
		map[string]string{"name": "first_name", "created": "created_at"},
	)
	assert.Equal(t, []DBOrdering{{Field: "first_name", Ascending: true}, {Field: "created_at"}}, got)
	assert.Equal(t, "first_name ASC", got[0].String())
	assert.Equal(t, "created_at DESC", got[1].String())
}

func TestCleanStrings(t *testing.T) {
	assert.Equal(t, "hello world", CleanString("  Hello World ", true))
	assert.Equal(t, []string{"maths", "physics"}, CleanStrings([]string{" Maths", "", "  ", "PHYSICS"}, true))
	assert.Nil(t, CleanStrings(nil))
	assert.True(t, ContainsFold("Computer Science", "SCIENCE"))
}
