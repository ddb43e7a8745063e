package pattern

import (
	"fmt"
	"sort"
)

// ErrUnknownPattern is returned by Get for identifiers not in the catalog.
var ErrUnknownPattern = fmt.Errorf("unknown pattern")

// Catalog is a read-only registry of question patterns.
// Built once at startup; safe for concurrent readers.
type Catalog struct {
	byID  map[ID]*Pattern
	order []ID
}

// NewCatalog builds a catalog from the built-in pattern set.
func NewCatalog() *Catalog {
	return NewCatalogFrom(builtinPatterns())
}

// NewCatalogFrom builds a catalog from an explicit pattern list.
// Used by tests to work with a reduced or synthetic catalog.
func NewCatalogFrom(patterns []Pattern) *Catalog {
	c := &Catalog{byID: make(map[ID]*Pattern, len(patterns))}
	for i := range patterns {
		p := patterns[i]
		c.byID[p.ID] = &p
		c.order = append(c.order, p.ID)
	}
	return c
}

// Get returns the pattern for id.
func (c *Catalog) Get(id ID) (*Pattern, error) {
	p, ok := c.byID[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownPattern, id)
	}
	return p, nil
}

// All returns every pattern in load order.
func (c *Catalog) All() []*Pattern {
	out := make([]*Pattern, 0, len(c.order))
	for _, id := range c.order {
		out = append(out, c.byID[id])
	}
	return out
}

// ForContext returns the patterns applicable to a category that the given
// expertise tier is eligible for, sorted by ID for stable output.
func (c *Catalog) ForContext(category Category, expertise ExpertiseTier) []*Pattern {
	var out []*Pattern
	for _, id := range c.order {
		p := c.byID[id]
		if p.AppliesTo(category) && expertise >= p.MinExpertise {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Len returns the number of patterns in the catalog.
func (c *Catalog) Len() int { return len(c.byID) }
