// Package catalog is the static illustration catalog: a process-wide,
// read-only mapping from symbolic key to displayable asset metadata. It is
// loaded once at startup and safely shared across sessions without locking.
package catalog

type Asset struct {
	Key         string
	URL         string
	Description string
	Topics      []string
}

type Catalog struct {
	byKey map[string]Asset
	order []string
}

// New builds a catalog from the given assets. Declaration order is preserved
// for Keys, which callers use to enumerate valid keys in error messages.
func New(assets ...Asset) *Catalog {
	c := &Catalog{byKey: make(map[string]Asset, len(assets))}
	for _, a := range assets {
		if a.Key == "" {
			continue
		}
		if _, exists := c.byKey[a.Key]; exists {
			continue
		}
		c.byKey[a.Key] = a
		c.order = append(c.order, a.Key)
	}
	return c
}

// Default returns the built-in illustration set.
func Default() *Catalog {
	return New(
		Asset{
			Key:         "pythagoras",
			URL:         "https://upload.wikimedia.org/wikipedia/commons/thumb/d/d2/Pythagorean.svg/512px-Pythagorean.svg.png",
			Description: "Pythagorean theorem diagram showing a² + b² = c²",
			Topics:      []string{"mathematics", "geometry", "pythagoras", "triangle", "theorem"},
		},
		Asset{
			Key:         "trigonometry",
			URL:         "https://upload.wikimedia.org/wikipedia/commons/thumb/7/7e/Trigonometry_triangle.svg/800px-Trigonometry_triangle.svg.png",
			Description: "A trigonometry triangle is a right-angled triangle used as the fundamental scaffold for defining sine, cosine, and tangent",
			Topics:      []string{"mathematics", "geometry", "trigonometry", "triangle"},
		},
	)
}

// Resolve looks up an asset by key. An unknown key reports false; it is a
// defined miss, not an error.
func (c *Catalog) Resolve(key string) (Asset, bool) {
	if c == nil {
		return Asset{}, false
	}
	a, ok := c.byKey[key]
	return a, ok
}

// Keys returns the catalog keys in declaration order.
func (c *Catalog) Keys() []string {
	if c == nil {
		return nil
	}
	out := make([]string, len(c.order))
	copy(out, c.order)
	return out
}
