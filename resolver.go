package di

import (
	"errors"
	"reflect"
)

var CallSiteResolverInstance = newCallSiteResolver()

var errNoCallSite = errors.New("the dependency has no call site")

// CallSiteResolver executes realized call sites.
type CallSiteResolver struct{}

func (r *CallSiteResolver) Resolve(site *CallSite) (reflect.Value, error) {
	if site == nil {
		return reflect.Value{}, errNoCallSite
	}

	site.owner.metrics.resolved(site.strategy)
	switch site.strategy {
	case CacheAliasingHandle:
		return r.visitAlias(site)
	default:
		return r.visitBinding(site)
	}
}

func (r *CallSiteResolver) visitBinding(site *CallSite) (reflect.Value, error) {
	return site.binding.resolve(site)
}

func (r *CallSiteResolver) visitAlias(site *CallSite) (reflect.Value, error) {
	return resolveAlias(site)
}

func newCallSiteResolver() *CallSiteResolver {
	return &CallSiteResolver{}
}
