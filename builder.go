package di

import (
	"reflect"

	"github.com/pkg/errors"

	"github.com/dozm/di/v2/errorx"
	"github.com/dozm/di/v2/reflectx"
	"github.com/dozm/di/v2/syncx"
)

// Entry is anything New accepts: bindings, binding chains, tags and options.
type Entry interface {
	configure(cb *containerBuilder)
}

type containerBuilder struct {
	options  Options
	bindings []Binding
	errs     []error
}

func (b *containerBuilder) add(binding Binding, err error) {
	if err != nil {
		b.errs = append(b.errs, err)
		return
	}
	b.bindings = append(b.bindings, binding)
}

func (b *containerBuilder) Build() (*Container, error) {
	if len(b.errs) > 0 {
		return nil, aggregate(b.errs)
	}

	options := b.options
	options.inherit()

	metrics, err := newMetrics(options.Registerer)
	if err != nil {
		return nil, errors.Wrap(err, "register metrics")
	}

	config := NewConfig(b.bindings...)
	c := &Container{
		parent:           options.Parent,
		options:          options,
		logger:           options.Logger,
		metrics:          metrics,
		config:           config,
		realizedServices: syncx.NewMap[reflect.Type, ServiceAccessor](),
	}
	c.key = containerKey(&options, config)
	c.callSites = newCallSiteFactory(c, config)
	c.engine = newContainerEngine(c)

	if options.ValidateOnBuild {
		v := newCallSiteValidator()
		var errs []error
		for _, binding := range config.bindings {
			if err := c.validateBinding(v, binding); err != nil {
				errs = append(errs, err)
			}
		}
		if len(errs) > 0 {
			return nil, aggregate(errs)
		}
	}

	return c, nil
}

func aggregate(errs []error) error {
	if len(errs) == 1 {
		return errs[0]
	}
	return &errorx.AggregateError{Errors: errs}
}

// checkAssignable reports whether a binding of from may be provided by to.
func checkAssignable(from, to reflect.Type) error {
	if Canonical(to) == from || to.AssignableTo(from) || reflect.PointerTo(to).AssignableTo(from) {
		return nil
	}
	return &errorx.MalformedChainError{
		Requested: from,
		Message:   (&errorx.TypeIncompatibilityError{To: from, From: to}).Error(),
	}
}

func inScope(requested reflect.Type, scope Scope, provider Provider, err error) Scoped {
	switch {
	case err != nil:
	case scope == nil:
		err = &errorx.MalformedChainError{Requested: requested, Message: "nil scope"}
	case scope == Instance:
		err = &errorx.MalformedChainError{Requested: requested, Message: "the instance scope requires To"}
	}
	return Scoped{binding: Binding{requested: requested, scope: scope, provider: provider}, err: err}
}

// Bind starts a binding chain for the canonical form of From.
func Bind[From any]() Initial[From] {
	return Initial[From]{}
}

// Initial binds From to its own constructor in the transient scope.
type Initial[From any] struct{}

func (Initial[From]) requested() reflect.Type {
	return CanonicalOf[From]()
}

// To binds From to an object owned by the caller.
func (b Initial[From]) To(ref *From) External {
	return ToRef[From](b, ref)
}

func (b Initial[From]) In(scope Scope) Scoped {
	t := b.requested()
	return inScope(t, scope, ConstructorProvider(t), nil)
}

func (b Initial[From]) configure(cb *containerBuilder) {
	t := b.requested()
	cb.add(Binding{requested: t, scope: Transient, provider: ConstructorProvider(t)}, nil)
}

// As retargets a binding chain to the concrete type To.
func As[To, From any](b Initial[From]) Targeted[From, To] {
	return Targeted[From, To]{err: checkAssignable(b.requested(), reflectx.TypeOf[To]())}
}

type Targeted[From, To any] struct {
	err error
}

func (b Targeted[From, To]) provider() Provider {
	return ConstructorProvider(reflectx.TypeOf[To]())
}

// Via builds To with fn, which must return exactly To and an optional error.
func (b Targeted[From, To]) Via(fn any) ViaFactory[From, To] {
	if b.err != nil {
		return ViaFactory[From, To]{err: b.err}
	}
	p, err := newFactoryProvider(reflectx.TypeOf[To](), fn)
	if err != nil {
		return ViaFactory[From, To]{err: errors.Wrapf(err, "bind '%v'", CanonicalOf[From]())}
	}
	return ViaFactory[From, To]{provider: p}
}

func (b Targeted[From, To]) In(scope Scope) Scoped {
	return inScope(CanonicalOf[From](), scope, b.provider(), b.err)
}

func (b Targeted[From, To]) configure(cb *containerBuilder) {
	cb.add(Binding{requested: CanonicalOf[From](), scope: Transient, provider: b.provider()}, b.err)
}

type ViaFactory[From, To any] struct {
	provider Provider
	err      error
}

func (b ViaFactory[From, To]) In(scope Scope) Scoped {
	return inScope(CanonicalOf[From](), scope, b.provider, b.err)
}

func (b ViaFactory[From, To]) configure(cb *containerBuilder) {
	cb.add(Binding{requested: CanonicalOf[From](), scope: Transient, provider: b.provider}, b.err)
}

// ToRef binds From to an object of type To owned by the caller.
func ToRef[To, From any](b Initial[From], ref *To) External {
	from := b.requested()
	if ref == nil {
		return External{err: &errorx.MalformedChainError{Requested: from, Message: "nil reference"}}
	}
	if err := checkAssignable(from, reflectx.TypeOf[To]()); err != nil {
		return External{err: err}
	}
	return External{binding: Binding{
		requested: from,
		scope:     Instance,
		provider:  &referenceProvider{typ: reflectx.TypeOf[To](), ref: reflect.ValueOf(ref)},
	}}
}

// External is a terminal chain state bound to the instance scope.
type External struct {
	binding Binding
	err     error
}

func (b External) configure(cb *containerBuilder) {
	cb.add(b.binding, b.err)
}

// Scoped is a terminal chain state.
type Scoped struct {
	binding Binding
	err     error
}

func (b Scoped) configure(cb *containerBuilder) {
	cb.add(b.binding, b.err)
}
