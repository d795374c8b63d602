package model

import "strings"

const (
	Highest = "highest"
	Lowest  = "lowest"
)

// Criterion selects one format: either a symbolic quality or an explicit id.
type Criterion struct {
	Symbol string
	ID     string
}

// ParseCriterion reads the quality parameter of a download request. An empty
// value means highest.
func ParseCriterion(s string) Criterion {
	s = strings.TrimSpace(s)
	switch strings.ToLower(s) {
	case "", Highest:
		return Criterion{Symbol: Highest}
	case Lowest:
		return Criterion{Symbol: Lowest}
	}
	return Criterion{ID: s}
}

func (c Criterion) IsSymbolic() bool {
	return c.Symbol != ""
}

func (c Criterion) String() string {
	if c.IsSymbolic() {
		return c.Symbol
	}
	return "id:" + c.ID
}
