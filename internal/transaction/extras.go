package transaction

import (
	"github.com/ginjaninja78/conciliador/internal/grid"
)

// Extras is an immutable ordered mapping of field name to value. Values are
// Text or Number cells; use NewExtrasBuilder to create one.
type Extras struct {
	keys   []string
	values map[string]grid.Cell
}

// Len returns the number of fields.
func (e Extras) Len() int { return len(e.keys) }

// Keys returns the field names in insertion order.
func (e Extras) Keys() []string {
	out := make([]string, len(e.keys))
	copy(out, e.keys)
	return out
}

// Get returns the value for name.
func (e Extras) Get(name string) (grid.Cell, bool) {
	v, ok := e.values[name]
	return v, ok
}

// ExtrasBuilder accumulates extras before freezing them.
type ExtrasBuilder struct {
	keys   []string
	values map[string]grid.Cell
}

// NewExtrasBuilder creates an empty builder.
func NewExtrasBuilder() *ExtrasBuilder {
	return &ExtrasBuilder{values: make(map[string]grid.Cell)}
}

// Set stores a value, coercing it to Text or Number:
// dates become DD/MM/YYYY text and empty cells become empty text.
// Setting an existing name replaces the value but keeps its position.
func (b *ExtrasBuilder) Set(name string, cell grid.Cell) *ExtrasBuilder {
	switch cell.Kind() {
	case grid.KindNumber, grid.KindText:
	default:
		cell = grid.Text(cell.String())
	}

	if _, exists := b.values[name]; !exists {
		b.keys = append(b.keys, name)
	}
	b.values[name] = cell
	return b
}

// Build freezes the builder into an Extras value. The builder may be reused;
// later changes do not affect the returned Extras.
func (b *ExtrasBuilder) Build() Extras {
	keys := make([]string, len(b.keys))
	copy(keys, b.keys)

	values := make(map[string]grid.Cell, len(b.values))
	for k, v := range b.values {
		values[k] = v
	}

	return Extras{keys: keys, values: values}
}
