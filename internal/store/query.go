package store

// Page size bounds for list queries.
const (
	DefaultPageLimit = 10
	MaxPageLimit     = 100
)

// PageQuery selects one page of a list. Page is 1-based.
type PageQuery struct {
	Page  int
	Limit int
}

func (p *PageQuery) normalize() {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.Limit < 1 {
		p.Limit = DefaultPageLimit
	}
	if p.Limit > MaxPageLimit {
		p.Limit = MaxPageLimit
	}
}

func (p PageQuery) offset() int {
	return (p.Page - 1) * p.Limit
}
