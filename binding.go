package di

import (
	"fmt"
	"reflect"

	"github.com/dozm/di/v2/errorx"
)

// Binding associates a canonical requested type with a scope and a provider.
type Binding struct {
	requested reflect.Type
	scope     Scope
	provider  Provider
}

// NewBinding returns a binding for the canonical form of requested.
func NewBinding(requested reflect.Type, scope Scope, provider Provider) Binding {
	return Binding{requested: Canonical(requested), scope: scope, provider: provider}
}

func defaultBinding(canonical reflect.Type) Binding {
	return Binding{requested: canonical, scope: Transient, provider: ConstructorProvider(canonical)}
}

func (b Binding) Requested() reflect.Type { return b.requested }
func (b Binding) Scope() Scope            { return b.scope }
func (b Binding) Provider() Provider      { return b.provider }

func (b Binding) withScope(s Scope) Binding {
	b.scope = s
	return b
}

func (b Binding) resolve(site *CallSite) (reflect.Value, error) {
	return b.scope.resolve(site)
}

func (b Binding) configure(cb *containerBuilder) {
	if b.requested == nil || b.scope == nil || b.provider == nil {
		cb.add(b, &errorx.MalformedChainError{Requested: b.requested, Message: "incomplete binding"})
		return
	}
	cb.add(b, nil)
}

func (b Binding) String() string {
	return fmt.Sprintf("Requested: %v Scope: %s Provider: %s<%v>",
		b.requested, b.scope.Name(), b.provider.Kind(), b.provider.Provided())
}

// signature identifies the binding within a container key.
func (b Binding) signature() string {
	id := b.provider.identity()
	return fmt.Sprintf("%d/%s/%d/%d/%x",
		typeID(b.requested), b.scope.Name(), id.kind, typeID(id.typ), id.fn)
}
