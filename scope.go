package di

import (
	"reflect"

	"github.com/dozm/di/v2/errorx"
	"github.com/dozm/di/v2/reflectx"
)

// Scope is the lifetime policy of a binding. It decides which request shapes
// are served and how.
type Scope interface {
	Name() string
	// ProvidesReferences reports whether the scope hands out stable pointers.
	ProvidesReferences() bool
	Supports(shape Shape) bool
	resolve(site *CallSite) (reflect.Value, error)
}

var (
	// Transient creates a new instance for every request.
	Transient Scope = transientScope{}
	// Singleton creates one instance per slot and hands out pointers to it.
	Singleton Scope = singletonScope{}
	// Instance serves an externally owned object. Only reachable through To.
	Instance Scope = instanceScope{}
)

func unsupported(s Scope, site *CallSite) error {
	return &errorx.UnsupportedShapeError{
		Scope:     s.Name(),
		Shape:     site.shape.String(),
		Requested: site.requested,
	}
}

func convertTo(p reflect.Value, to reflect.Type) (reflect.Value, error) {
	v, ok := reflectx.Convert(p, to)
	if !ok {
		return reflect.Value{}, &errorx.TypeIncompatibilityError{To: to, From: p.Type()}
	}
	return v, nil
}

type transientScope struct{}

func (transientScope) Name() string             { return "transient" }
func (transientScope) ProvidesReferences() bool { return false }

func (transientScope) Supports(shape Shape) bool {
	return shape == ShapeValue || shape == ShapeUnique || shape == ShapeShared
}

func (s transientScope) resolve(site *CallSite) (reflect.Value, error) {
	switch site.shape {
	case ShapeValue:
		p, err := site.instantiate()
		if err != nil {
			return reflect.Value{}, err
		}
		return convertTo(p, site.requested)
	case ShapeUnique:
		return site.invoker.createUnique(site.owner, site.args, site.requested)
	case ShapeShared:
		return site.invoker.createShared(site.owner, site.args, site.requested)
	default:
		return reflect.Value{}, unsupported(s, site)
	}
}

type singletonScope struct{}

func (singletonScope) Name() string             { return "singleton" }
func (singletonScope) ProvidesReferences() bool { return true }

func (singletonScope) Supports(shape Shape) bool {
	return shape == ShapePointer || shape == ShapeShared || shape == ShapeWeak
}

func (s singletonScope) resolve(site *CallSite) (reflect.Value, error) {
	switch site.shape {
	case ShapePointer:
		slot, err := site.owner.slotFor(site)
		if err != nil {
			return reflect.Value{}, err
		}
		return slot.view(site.requested)
	case ShapeShared, ShapeWeak:
		return resolveAlias(site)
	default:
		return reflect.Value{}, unsupported(s, site)
	}
}

type instanceScope struct{}

func (instanceScope) Name() string             { return "instance" }
func (instanceScope) ProvidesReferences() bool { return true }

func (instanceScope) Supports(shape Shape) bool {
	return shape == ShapeValue || shape == ShapePointer
}

func (s instanceScope) resolve(site *CallSite) (reflect.Value, error) {
	ref, err := site.instantiate()
	if err != nil {
		return reflect.Value{}, err
	}

	switch site.shape {
	case ShapeValue:
		cp := reflect.New(ref.Type().Elem())
		cp.Elem().Set(ref.Elem())
		return convertTo(cp, site.requested)
	case ShapePointer:
		if rp, ok := site.binding.provider.(*referenceProvider); ok {
			return rp.view(site.requested)
		}
		p, ok := pointerTo(ref, site.requested.Elem())
		if !ok {
			return reflect.Value{}, &errorx.TypeIncompatibilityError{To: site.requested, From: ref.Type()}
		}
		return p, nil
	default:
		return reflect.Value{}, unsupported(s, site)
	}
}
