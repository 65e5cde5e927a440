package di

import (
	"reflect"
	"strings"

	"go.uber.org/zap"

	"github.com/dozm/di/v2/errorx"
	"github.com/dozm/di/v2/syncx"
)

// CallSite is the realized plan for one requested type: the binding it
// resolves through, the chosen strategy and the plans of its arguments.
type CallSite struct {
	requested reflect.Type
	canonical reflect.Type
	shape     Shape
	strategy  Strategy
	binding   Binding
	owner     *Container
	invoker   *invoker
	args      []*CallSite
	// target is the pointer plan behind an aliasing handle.
	target *CallSite
}

func (cs *CallSite) Requested() reflect.Type { return cs.requested }
func (cs *CallSite) Canonical() reflect.Type { return cs.canonical }
func (cs *CallSite) Shape() Shape            { return cs.shape }
func (cs *CallSite) Strategy() Strategy      { return cs.strategy }
func (cs *CallSite) Binding() Binding        { return cs.binding }

// Owner is the container whose slots the call site uses.
func (cs *CallSite) Owner() *Container { return cs.owner }

// instantiate returns a pointer to a new instance, or the external pointer of
// a reference provider.
func (cs *CallSite) instantiate() (reflect.Value, error) {
	if ref, ok := cs.binding.provider.(*referenceProvider); ok {
		return ref.reference(), nil
	}

	p, err := cs.invoker.create(cs.owner, cs.args)
	if err != nil {
		return reflect.Value{}, err
	}
	cs.owner.metrics.instanceCreated(cs.binding.scope.Name())
	return p, nil
}

type callSiteChain struct {
	items map[reflect.Type]int
	order []reflect.Type
}

func (c *callSiteChain) CheckCircularDependency(t reflect.Type) error {
	if _, ok := c.items[t]; ok {
		return c.createCircularDependencyError(t)
	}
	return nil
}

func (c *callSiteChain) Add(t reflect.Type) {
	c.items[t] = len(c.order)
	c.order = append(c.order, t)
}

func (c *callSiteChain) Remove(t reflect.Type) {
	if i, ok := c.items[t]; ok {
		delete(c.items, t)
		c.order = c.order[:i]
	}
}

func (c *callSiteChain) createCircularDependencyError(t reflect.Type) error {
	var sb strings.Builder
	sb.WriteString("a circular dependency was detected for the type '")
	sb.WriteString(t.String())
	sb.WriteString("': ")
	for _, item := range c.order[c.items[t]:] {
		sb.WriteString(item.String())
		sb.WriteString(" -> ")
	}
	sb.WriteString(t.String())

	return &errorx.CircularDependencyError{Message: sb.String()}
}

func newCallSiteChain() *callSiteChain {
	return &callSiteChain{items: make(map[reflect.Type]int)}
}

// CallSiteFactory plans requests for one container. Plans are built once per
// requested type and cached.
type CallSiteFactory struct {
	owner         *Container
	config        *Config
	callSiteCache *syncx.Map[reflect.Type, *CallSite]
}

func newCallSiteFactory(owner *Container, config *Config) *CallSiteFactory {
	return &CallSiteFactory{
		owner:         owner,
		config:        config,
		callSiteCache: syncx.NewMap[reflect.Type, *CallSite](),
	}
}

func (f *CallSiteFactory) GetCallSite(requested reflect.Type, chain *callSiteChain) (*CallSite, error) {
	if site, ok := f.callSiteCache.Load(requested); ok {
		return site, nil
	}

	site, err := f.createCallSite(requested, chain)
	if err != nil {
		return nil, err
	}

	// plans are deterministic, the first one stored wins
	site, _ = f.callSiteCache.LoadOrStore(requested, site)
	return site, nil
}

func (f *CallSiteFactory) createCallSite(requested reflect.Type, chain *callSiteChain) (*CallSite, error) {
	if requested == nil {
		return nil, errorx.NewArgumentNilError("requested")
	}

	canonical := Canonical(requested)
	if canonical.Kind() == reflect.Pointer {
		return nil, &errorx.RecursiveTypeError{Type: canonical}
	}
	binding, found := f.config.FindBinding(canonical)

	if !found && f.owner.parent != nil {
		f.owner.logger.Debug("delegating to parent",
			zap.Stringer("requested", requested),
			zap.Stringer("canonical", canonical))
		return f.owner.parent.callSites.GetCallSite(requested, chain)
	}
	if !found {
		binding = defaultBinding(canonical)
	}

	shape := ShapeOf(requested)
	strategy := selectStrategy(shape, found, binding.scope)
	return f.plan(requested, canonical, shape, strategy, binding, chain)
}

// plan builds the call site of a request once its binding and strategy are
// known.
func (f *CallSiteFactory) plan(requested, canonical reflect.Type, shape Shape, strategy Strategy, binding Binding, chain *callSiteChain) (*CallSite, error) {
	site := &CallSite{
		requested: requested,
		canonical: canonical,
		shape:     shape,
		strategy:  strategy,
		binding:   binding,
		owner:     f.owner,
	}

	switch strategy {
	case PromoteToSingleton:
		site.binding = binding.withScope(Singleton)
	case RelegateToTransient:
		site.binding = binding.withScope(Transient)
	case CacheAliasingHandle:
		elem := handleOf(requested).handleElem()
		target, err := f.GetCallSite(reflect.PointerTo(elem), chain)
		if err != nil {
			return nil, err
		}
		site.target = target
		site.binding = Binding{requested: canonical, scope: binding.scope, provider: &aliasProvider{elem: elem}}
		f.realized(site)
		return site, nil
	}

	if _, ref := site.binding.provider.(*referenceProvider); ref != (site.binding.scope == Instance) {
		return nil, &errorx.MalformedChainError{
			Requested: canonical,
			Message:   "the instance scope and a reference provider go together",
		}
	}
	if !site.binding.scope.Supports(shape) {
		return nil, unsupported(site.binding.scope, site)
	}

	if inv, ok := site.binding.provider.(invokable); ok {
		built := Canonical(site.binding.provider.Provided())
		if err := chain.CheckCircularDependency(built); err != nil {
			return nil, err
		}
		chain.Add(built)
		defer chain.Remove(built)

		var err error
		if site.invoker, err = inv.invoker(f.owner.options.MaxArity); err != nil {
			return nil, err
		}
		if site.args, err = f.createArgumentCallSites(site.invoker, chain); err != nil {
			return nil, err
		}
	}

	f.realized(site)
	return site, nil
}

func (f *CallSiteFactory) createArgumentCallSites(inv *invoker, chain *callSiteChain) ([]*CallSite, error) {
	sites := make([]*CallSite, len(inv.params))
	for i, t := range inv.params {
		cs, err := f.GetCallSite(t, chain)
		if err != nil {
			if inv.optional[i] {
				continue
			}
			return nil, err
		}
		sites[i] = cs
	}
	return sites, nil
}

func (f *CallSiteFactory) realized(site *CallSite) {
	f.owner.logger.Debug("call site realized",
		zap.Stringer("requested", site.requested),
		zap.Stringer("canonical", site.canonical),
		zap.Stringer("strategy", site.strategy),
		zap.String("scope", site.binding.scope.Name()),
		zap.Stringer("provider", site.binding.provider.Kind()))
}
