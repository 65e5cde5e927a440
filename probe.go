package di

import (
	"reflect"
)

// argProbe stands in for one argument slot. accepts is the type check done
// while the arity is deduced; resolve realizes the argument.
type argProbe interface {
	accepts(t reflect.Type) bool
	resolve(site *CallSite) (reflect.Value, error)
}

// probe matches any parameter type and resolves it on its container.
type probe struct {
	c *Container
}

func (p probe) accepts(reflect.Type) bool {
	return true
}

func (p probe) resolve(site *CallSite) (reflect.Value, error) {
	return p.c.resolveSite(site)
}

// safeProbe refuses the constructed type itself, so a single-argument
// signature never turns into a copy of the target.
type safeProbe struct {
	probe
	target reflect.Type
}

func (p safeProbe) accepts(t reflect.Type) bool {
	return Canonical(t) != p.target
}

func probeFor(c *Container, target reflect.Type, arity, index int) argProbe {
	if arity == 1 {
		return safeProbe{probe: probe{c: c}, target: Canonical(target)}
	}
	return probe{c: c}
}
