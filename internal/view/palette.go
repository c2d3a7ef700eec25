package view

import (
	"fmt"
	"math/rand/v2"

	"expensetracker/internal/cache"
)

const defaultPaletteSize = 256

// Palette hands out a random color per category and remembers it. The
// mapping is bounded; a category evicted for space gets a fresh color the
// next time it is seen.
type Palette struct {
	colors *cache.LRU[string]
	rng    *rand.Rand
}

// NewPalette returns a palette backed by a time-seeded generator.
func NewPalette(size int) *Palette {
	return NewPaletteWithSource(size, rand.NewPCG(rand.Uint64(), rand.Uint64()))
}

// NewPaletteWithSource is NewPalette with an explicit random source.
func NewPaletteWithSource(size int, src rand.Source) *Palette {
	if size <= 0 {
		size = defaultPaletteSize
	}
	return &Palette{
		colors: cache.NewLRU[string](size),
		rng:    rand.New(src),
	}
}

// Color returns the "#rrggbb" color assigned to category.
func (p *Palette) Color(category string) string {
	// rng is only touched inside GetOrSet, which holds the cache lock.
	return p.colors.GetOrSet(category, func() string {
		return fmt.Sprintf("#%06x", p.rng.IntN(0x1000000))
	})
}

// OnEvict registers fn to run whenever a category loses its color for space.
func (p *Palette) OnEvict(fn func(category string)) {
	p.colors.OnEvict(fn)
}

// Len reports how many categories currently have a color.
func (p *Palette) Len() int { return p.colors.Len() }
