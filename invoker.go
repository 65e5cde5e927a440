package di

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/dozm/di/v2/errorx"
)

const (
	injectTag      = "inject"
	injectSkip     = "-"
	injectOptional = "optional"
)

// invoker builds one instance of target from a deduced number of arguments.
type invoker struct {
	target   reflect.Type
	instance reflect.Type
	factory  reflect.Value
	hasError bool
	arity    int
	params   []reflect.Type
	fields   []int
	optional []bool
}

// Params returns the argument types the invoker resolves, in order.
func (inv *invoker) Params() []reflect.Type {
	return inv.params
}

func (inv *invoker) Arity() int {
	return inv.arity
}

func instanceType(target reflect.Type) reflect.Type {
	if target.Kind() == reflect.Pointer {
		return target.Elem()
	}
	return target
}

func newConstructorInvoker(target reflect.Type, maxArity int) (*invoker, error) {
	inst := instanceType(target)
	if !constructible(inst) {
		return nil, &errorx.ArityUndeducibleError{Target: target, MaxArity: maxArity}
	}

	inv := &invoker{target: target, instance: inst}
	var params []reflect.Type
	if inst.Kind() == reflect.Struct {
		for i := 0; i < inst.NumField(); i++ {
			f := inst.Field(i)
			tag, _ := f.Tag.Lookup(injectTag)
			if !f.IsExported() || tag == injectSkip {
				continue
			}
			params = append(params, f.Type)
			inv.fields = append(inv.fields, i)
			inv.optional = append(inv.optional, hasTagOption(tag, injectOptional))
		}
	}

	k, err := searchArity(inst, params, maxArity, false)
	if err != nil {
		return nil, err
	}

	inv.arity = k
	inv.params = params[:k]
	inv.fields = inv.fields[:k]
	inv.optional = inv.optional[:k]
	return inv, nil
}

func newFactoryInvoker(target reflect.Type, fn reflect.Value, hasError bool, maxArity int) (*invoker, error) {
	ft := fn.Type()
	if ft.IsVariadic() {
		return nil, &errorx.ArityUndeducibleError{Target: target, MaxArity: maxArity}
	}

	params := make([]reflect.Type, ft.NumIn())
	for i := range params {
		params[i] = ft.In(i)
	}

	k, err := searchArity(target, params, maxArity, true)
	if err != nil {
		return nil, err
	}

	return &invoker{
		target:   target,
		instance: instanceType(target),
		factory:  fn,
		hasError: hasError,
		arity:    k,
		params:   params,
		optional: make([]bool, k),
	}, nil
}

func hasTagOption(tag, option string) bool {
	for _, s := range strings.Split(tag, ",") {
		if strings.TrimSpace(s) == option {
			return true
		}
	}
	return false
}

func (inv *invoker) args(c *Container, sites []*CallSite) ([]reflect.Value, error) {
	values := make([]reflect.Value, inv.arity)
	for i, site := range sites {
		v, err := probeFor(c, inv.instance, inv.arity, i).resolve(site)
		if err != nil {
			if !inv.optional[i] {
				return nil, errors.Wrapf(err, "resolve argument %d of '%v'", i, inv.target)
			}
			c.logger.Warn("optional dependency skipped",
				zap.Stringer("requested", inv.params[i]),
				zap.Stringer("provided", inv.target),
				zap.Error(err))
			v = reflect.Zero(inv.params[i])
		}
		values[i] = v
	}
	return values, nil
}

// create returns a pointer to a new instance of the invoker's instance type.
func (inv *invoker) create(c *Container, sites []*CallSite) (reflect.Value, error) {
	args, err := inv.args(c, sites)
	if err != nil {
		return reflect.Value{}, err
	}

	if !inv.factory.IsValid() {
		p := reflect.New(inv.instance)
		for i, idx := range inv.fields {
			p.Elem().Field(idx).Set(args[i])
		}
		return p, nil
	}

	out := inv.factory.Call(args)
	if inv.hasError && !out[1].IsNil() {
		return reflect.Value{}, out[1].Interface().(error)
	}

	result := out[0]
	if inv.target.Kind() == reflect.Pointer {
		if result.IsNil() {
			return reflect.Value{}, fmt.Errorf("the factory of '%v' returned nil", inv.target)
		}
		return result, nil
	}

	p := reflect.New(inv.instance)
	p.Elem().Set(result)
	return p, nil
}

func (inv *invoker) createShared(c *Container, sites []*CallSite, handleType reflect.Type) (reflect.Value, error) {
	p, err := inv.create(c, sites)
	if err != nil {
		return reflect.Value{}, err
	}

	h := handleOf(handleType)
	ptr, ok := pointerTo(p, h.handleElem())
	if !ok {
		return reflect.Value{}, &errorx.TypeIncompatibilityError{To: handleType, From: p.Type()}
	}

	inst := p.Interface()
	ctl := newControlBlock(func() { disposeInstance(inst) })
	return reflect.ValueOf(h.fromPointer(ptr, ctl)), nil
}

func (inv *invoker) createUnique(c *Container, sites []*CallSite, handleType reflect.Type) (reflect.Value, error) {
	p, err := inv.create(c, sites)
	if err != nil {
		return reflect.Value{}, err
	}

	h := handleOf(handleType)
	ptr, ok := pointerTo(p, h.handleElem())
	if !ok {
		return reflect.Value{}, &errorx.TypeIncompatibilityError{To: handleType, From: p.Type()}
	}
	return reflect.ValueOf(h.fromPointer(ptr, nil)), nil
}
