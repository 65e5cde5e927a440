package di

import (
	"fmt"
	"reflect"
	"sync"

	"github.com/dozm/di/v2/errorx"
	"github.com/dozm/di/v2/reflectx"
)

type ProviderKind byte

const (
	ProviderConstructor ProviderKind = iota
	ProviderFactory
	ProviderReference
	providerAlias
)

func (k ProviderKind) String() string {
	switch k {
	case ProviderConstructor:
		return "constructor"
	case ProviderFactory:
		return "factory"
	case ProviderReference:
		return "reference"
	case providerAlias:
		return "alias"
	default:
		return "unknown"
	}
}

// Provider is the terminal producer of instances.
type Provider interface {
	// Provided is the type the provider produces.
	Provided() reflect.Type
	Kind() ProviderKind
	identity() providerKey
}

// invokable providers build their instance through an invoker.
type invokable interface {
	invoker(maxArity int) (*invoker, error)
}

// providerKey identifies a provider for slot keying. Factories are told apart
// by their code pointer.
type providerKey struct {
	kind ProviderKind
	typ  reflect.Type
	fn   uintptr
}

type constructorProvider struct {
	typ reflect.Type
}

// ConstructorProvider builds t through aggregate construction of its
// injectable fields, or as its zero value for other concrete kinds.
func ConstructorProvider(t reflect.Type) Provider {
	return &constructorProvider{typ: t}
}

func (p *constructorProvider) Provided() reflect.Type { return p.typ }
func (p *constructorProvider) Kind() ProviderKind     { return ProviderConstructor }

func (p *constructorProvider) identity() providerKey {
	return providerKey{kind: ProviderConstructor, typ: p.typ}
}

func (p *constructorProvider) invoker(maxArity int) (*invoker, error) {
	return newConstructorInvoker(p.typ, maxArity)
}

type factoryProvider struct {
	typ      reflect.Type
	fn       reflect.Value
	hasError bool
}

// FactoryProvider wraps fn, a function returning its provided type and an
// optional error.
func FactoryProvider(fn any) (Provider, error) {
	return newFactoryProvider(nil, fn)
}

func newFactoryProvider(to reflect.Type, fn any) (*factoryProvider, error) {
	if fn == nil {
		return nil, errorx.NewArgumentNilError("factory")
	}

	fv := reflect.ValueOf(fn)
	ft := fv.Type()
	if ft.Kind() != reflect.Func {
		return nil, &errorx.FuncSignatureError{Message: fmt.Sprintf("the factory '%v' is not a function", ft)}
	}
	if fv.IsNil() {
		return nil, errorx.NewArgumentNilError("factory")
	}

	out := reflectx.GetOutParameters(ft)
	if len(out) == 0 || len(out) > 2 || (len(out) == 2 && !reflectx.IsErrorType(out[1])) {
		return nil, &errorx.FuncSignatureError{
			Message: fmt.Sprintf("the factory '%v' must return a value and an optional error", ft)}
	}
	if to == nil {
		to = out[0]
	}
	if out[0] != to {
		return nil, &errorx.FuncSignatureError{
			Message: fmt.Sprintf("the factory '%v' must return exactly '%v'", ft, to)}
	}

	return &factoryProvider{typ: to, fn: fv, hasError: len(out) == 2}, nil
}

func (p *factoryProvider) Provided() reflect.Type { return p.typ }
func (p *factoryProvider) Kind() ProviderKind     { return ProviderFactory }

func (p *factoryProvider) identity() providerKey {
	return providerKey{kind: ProviderFactory, typ: p.typ, fn: reflectx.FuncPointer(p.fn)}
}

func (p *factoryProvider) invoker(maxArity int) (*invoker, error) {
	return newFactoryInvoker(p.typ, p.fn, p.hasError, maxArity)
}

func (p *factoryProvider) String() string {
	return reflectx.GetFuncName(p.fn.Interface())
}

type referenceProvider struct {
	typ   reflect.Type
	ref   reflect.Value
	mu    sync.Mutex
	views map[reflect.Type]reflect.Value
}

// ReferenceProvider wraps ref, a non-nil pointer owned elsewhere. The owner
// must outlive every container using it.
func ReferenceProvider(ref any) (Provider, error) {
	v := reflect.ValueOf(ref)
	if ref == nil || v.Kind() != reflect.Pointer || v.IsNil() {
		return nil, errorx.NewArgumentNilError("reference")
	}
	return &referenceProvider{typ: v.Type().Elem(), ref: v}, nil
}

func (p *referenceProvider) Provided() reflect.Type { return p.typ }
func (p *referenceProvider) Kind() ProviderKind     { return ProviderReference }

func (p *referenceProvider) identity() providerKey {
	return providerKey{kind: ProviderReference, typ: p.typ}
}

func (p *referenceProvider) reference() reflect.Value {
	return p.ref
}

// view returns a stable pointer of type ptrType to the referenced object.
func (p *referenceProvider) view(ptrType reflect.Type) (reflect.Value, error) {
	if ptrType == p.ref.Type() {
		return p.ref, nil
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if v, ok := p.views[ptrType]; ok {
		return v, nil
	}
	v, ok := pointerTo(p.ref, ptrType.Elem())
	if !ok {
		return reflect.Value{}, &errorx.TypeIncompatibilityError{To: ptrType, From: p.ref.Type()}
	}
	if p.views == nil {
		p.views = make(map[reflect.Type]reflect.Value)
	}
	p.views[ptrType] = v
	return v, nil
}
