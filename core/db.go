package core

import "math"

const (
	DefaultPageLimit = 10
	MaxPageLimit     = 100
)

type DBOrdering struct {
	Field     string
	Ascending bool
}

func (ord DBOrdering) String() string {
	direction := "DESC"
	if ord.Ascending {
		direction = "ASC"
	}
	return ord.Field + " " + direction
}

// CleanOrderings drops the orderings whose field is not in `allowed` ({json name: column}) and maps the rest to
// their column names.
func CleanOrderings(orderings []DBOrdering, allowed map[string]string) []DBOrdering {
	cleaned := make([]DBOrdering, 0, len(orderings))
	for _, ord := range orderings {
		if col, ok := allowed[ord.Field]; ok {
			cleaned = append(cleaned, DBOrdering{Field: col, Ascending: ord.Ascending})
		}
	}
	return cleaned
}

// Page is a 1-based page request.
type Page struct {
	Number int `query:"page"`
	Limit  int `query:"limit"`
}

// Unpaged requests every item at once; repositories skip LIMIT/OFFSET for it.
func Unpaged() Page { return Page{Number: 1} }

func (p Page) IsUnpaged() bool { return p.Limit == 0 }

func NewPage(number, limit int) Page {
	p := Page{Number: number, Limit: limit}
	p.Clean()
	return p
}

func (p *Page) Clean() {
	if p.Number < 1 {
		p.Number = 1
	}
	if p.Limit < 1 {
		p.Limit = DefaultPageLimit
	}
	if p.Limit > MaxPageLimit {
		p.Limit = MaxPageLimit
	}
}

// maxOffset bounds Offset so that huge page numbers cannot overflow it.
const maxOffset = math.MaxInt32

func (p Page) Offset() int {
	if p.Number < 1 || p.Limit < 1 {
		return 0
	}
	if p.Number-1 > maxOffset/p.Limit {
		return maxOffset
	}
	return (p.Number - 1) * p.Limit
}

// Bounds returns the [start, end) slice bounds of this page within a list of n items.
func (p Page) Bounds(n int) (int, int) {
	if p.IsUnpaged() {
		return 0, n
	}
	start := p.Offset()
	if start > n {
		start = n
	}
	end := n
	if p.Limit < n-start {
		end = start + p.Limit
	}
	return start, end
}

func (p Page) TotalPages(total int) int {
	if p.Limit < 1 {
		return 0
	}
	return int(math.Ceil(float64(total) / float64(p.Limit)))
}
