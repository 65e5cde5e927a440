package di

import (
	"fmt"
	"reflect"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/dozm/di/v2/errorx"
	"github.com/dozm/di/v2/syncx"
)

// Container resolves requests against its bindings, delegating unbound types
// to its parent. Containers sharing a key share their instance slots.
type Container struct {
	key              string
	parent           *Container
	options          Options
	logger           *zap.Logger
	metrics          *Metrics
	config           *Config
	callSites        *CallSiteFactory
	engine           ContainerEngine
	realizedServices *syncx.Map[reflect.Type, ServiceAccessor]
}

// New builds a container from bindings, binding chains, a tag and options.
func New(entries ...Entry) (*Container, error) {
	b := &containerBuilder{options: DefaultOptions()}
	for i, e := range entries {
		if e == nil {
			return nil, errorx.NewArgumentNilError(fmt.Sprintf("entries[%d]", i))
		}
		e.configure(b)
	}
	return b.Build()
}

func MustNew(entries ...Entry) *Container {
	c, err := New(entries...)
	if err != nil {
		panic(err)
	}
	return c
}

// Child builds a container whose unbound requests resolve through c.
func (c *Container) Child(entries ...Entry) (*Container, error) {
	return New(append([]Entry{WithParent(c)}, entries...)...)
}

func (c *Container) Parent() *Container {
	return c.parent
}

// Key is the slot namespace of the container.
func (c *Container) Key() string {
	return c.key
}

func (c *Container) Config() *Config {
	return c.config
}

func (c *Container) Logger() *zap.Logger {
	return c.logger
}

// CallSite returns the plan for requested, building it on first use.
func (c *Container) CallSite(requested reflect.Type) (*CallSite, error) {
	return c.callSites.GetCallSite(requested, newCallSiteChain())
}

// Resolve returns an instance of t in the shape t asks for.
func (c *Container) Resolve(t reflect.Type) (any, error) {
	v, err := c.resolveValue(t)
	if err != nil {
		return nil, err
	}
	return v.Interface(), nil
}

func (c *Container) resolveValue(t reflect.Type) (result reflect.Value, err error) {
	defer func() {
		if p := recover(); p != nil {
			if e, ok := p.(error); ok {
				err = e
			} else {
				err = fmt.Errorf("%v", p)
			}
		}
	}()

	accessor, ok := c.realizedServices.Load(t)
	if !ok {
		accessor, err = c.createServiceAccessor(t)
		if err != nil {
			return
		}
		accessor, _ = c.realizedServices.LoadOrStore(t, accessor)
	}

	return accessor()
}

func (c *Container) resolveSite(site *CallSite) (reflect.Value, error) {
	return CallSiteResolverInstance.Resolve(site)
}

func (c *Container) createServiceAccessor(t reflect.Type) (ServiceAccessor, error) {
	site, err := c.CallSite(t)
	if err != nil {
		return nil, errors.Wrapf(err, "resolve '%v'", t)
	}
	return c.engine.RealizeService(site)
}

// GetOrCreate returns the singleton instance built by p, keyed by the
// canonical type p provides and p itself.
func (c *Container) GetOrCreate(p Provider) (any, error) {
	if p == nil {
		return nil, errorx.NewArgumentNilError("provider")
	}

	scope := Singleton
	if p.Kind() == ProviderReference {
		scope = Instance
	}

	canonical := Canonical(p.Provided())
	binding := Binding{requested: canonical, scope: scope, provider: p}
	site, err := c.callSites.plan(reflect.PointerTo(canonical), canonical, ShapePointer, UseBinding, binding, newCallSiteChain())
	if err != nil {
		return nil, err
	}

	v, err := c.resolveSite(site)
	if err != nil {
		return nil, err
	}
	return v.Interface(), nil
}

func (c *Container) validateBinding(v *CallSiteValidator, b Binding) error {
	var requested reflect.Type
	if b.scope.ProvidesReferences() {
		requested = reflect.PointerTo(b.requested)
	} else {
		requested = b.requested
	}

	site, err := c.CallSite(requested)
	if err != nil {
		return err
	}
	return v.ValidateCallSite(site)
}
