package di

import (
	"reflect"
)

// Config is the ordered binding list of a container. The first binding for a
// canonical type wins.
type Config struct {
	bindings []Binding
	index    map[reflect.Type]int
}

func NewConfig(bindings ...Binding) *Config {
	c := &Config{
		bindings: make([]Binding, len(bindings)),
		index:    make(map[reflect.Type]int, len(bindings)),
	}
	copy(c.bindings, bindings)

	for i, b := range c.bindings {
		if _, ok := c.index[b.requested]; !ok {
			c.index[b.requested] = i
		}
	}
	return c
}

// FindBinding returns the first binding whose requested type is t.
func (c *Config) FindBinding(t reflect.Type) (Binding, bool) {
	i, ok := c.index[t]
	if !ok {
		return Binding{}, false
	}
	return c.bindings[i], true
}

func (c *Config) Bindings() []Binding {
	b := make([]Binding, len(c.bindings))
	copy(b, c.bindings)
	return b
}

func (c *Config) Len() int {
	return len(c.bindings)
}
