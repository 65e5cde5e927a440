package di

import (
	"reflect"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/dozm/di/v2/reflectx"
)

// Disposable instances are disposed when the last owning handle lets go of them.
type Disposable interface {
	Dispose()
}

// controlBlock is the reference count shared by a Shared handle and its
// clones and observed by Weak handles.
type controlBlock struct {
	refs    atomic.Int64
	deleter func()
	once    sync.Once
}

func newControlBlock(deleter func()) *controlBlock {
	cb := &controlBlock{deleter: deleter}
	cb.refs.Store(1)
	return cb
}

func (cb *controlBlock) acquire() bool {
	for {
		n := cb.refs.Load()
		if n <= 0 {
			return false
		}
		if cb.refs.CompareAndSwap(n, n+1) {
			return true
		}
	}
}

func (cb *controlBlock) release() {
	if cb.refs.Add(-1) == 0 {
		cb.once.Do(func() {
			if cb.deleter != nil {
				cb.deleter()
			}
		})
	}
}

// handle is implemented by Unique, Shared and Weak only.
type handle interface {
	handleShape() Shape
	handleElem() reflect.Type
	fromPointer(p reflect.Value, ctl *controlBlock) any
}

var (
	handleType    = reflectx.TypeOf[handle]()
	handlePkgPath = handleType.PkgPath()
)

// isHandle reports whether t is an instantiation of Unique, Shared or Weak.
// Types embedding a handle are not handles themselves.
func isHandle(t reflect.Type) bool {
	if t.Kind() != reflect.Struct || t.PkgPath() != handlePkgPath {
		return false
	}
	name := t.Name()
	return (strings.HasPrefix(name, "Unique[") ||
		strings.HasPrefix(name, "Shared[") ||
		strings.HasPrefix(name, "Weak[")) && t.Implements(handleType)
}

func handleOf(t reflect.Type) handle {
	return reflect.Zero(t).Interface().(handle)
}

// Unique is an exclusive-owner handle around a freshly created instance.
type Unique[T any] struct {
	ptr *T
}

func (u Unique[T]) Get() *T {
	return u.ptr
}

// Release hands the instance over to the caller and empties the handle.
func (u *Unique[T]) Release() *T {
	p := u.ptr
	u.ptr = nil
	return p
}

// Reset empties the handle and disposes the instance.
func (u *Unique[T]) Reset() {
	if p := u.Release(); p != nil {
		disposeInstance(p)
	}
}

func (Unique[T]) handleShape() Shape       { return ShapeUnique }
func (Unique[T]) handleElem() reflect.Type { return reflectx.TypeOf[T]() }

func (Unique[T]) fromPointer(p reflect.Value, _ *controlBlock) any {
	return Unique[T]{ptr: p.Interface().(*T)}
}

// Shared is a reference-counted handle. Copying the struct does not add an
// owner; use Clone for that.
type Shared[T any] struct {
	ptr *T
	ctl *controlBlock
}

func (s Shared[T]) Get() *T {
	return s.ptr
}

func (s Shared[T]) Valid() bool {
	return s.ctl != nil
}

func (s Shared[T]) UseCount() int64 {
	if s.ctl == nil {
		return 0
	}
	return s.ctl.refs.Load()
}

// Clone returns a new owner of the same instance.
func (s Shared[T]) Clone() Shared[T] {
	if s.ctl == nil || !s.ctl.acquire() {
		return Shared[T]{}
	}
	return s
}

// Reset gives up this owner. The deleter runs once the count drops to zero.
func (s *Shared[T]) Reset() {
	if s.ctl != nil {
		s.ctl.release()
	}
	s.ptr, s.ctl = nil, nil
}

// Weak returns an observer that does not keep the instance alive.
func (s Shared[T]) Weak() Weak[T] {
	return Weak[T]{ptr: s.ptr, ctl: s.ctl}
}

func (Shared[T]) handleShape() Shape       { return ShapeShared }
func (Shared[T]) handleElem() reflect.Type { return reflectx.TypeOf[T]() }

func (Shared[T]) fromPointer(p reflect.Value, ctl *controlBlock) any {
	return Shared[T]{ptr: p.Interface().(*T), ctl: ctl}
}

// Weak observes a Shared control block.
type Weak[T any] struct {
	ptr *T
	ctl *controlBlock
}

func (w Weak[T]) Expired() bool {
	return w.UseCount() == 0
}

func (w Weak[T]) UseCount() int64 {
	if w.ctl == nil {
		return 0
	}
	return w.ctl.refs.Load()
}

// Lock returns a new owner if the observed handle is still alive.
func (w Weak[T]) Lock() (Shared[T], bool) {
	if w.ctl == nil || !w.ctl.acquire() {
		return Shared[T]{}, false
	}
	return Shared[T]{ptr: w.ptr, ctl: w.ctl}, true
}

func (Weak[T]) handleShape() Shape       { return ShapeWeak }
func (Weak[T]) handleElem() reflect.Type { return reflectx.TypeOf[T]() }

func (Weak[T]) fromPointer(p reflect.Value, ctl *controlBlock) any {
	return Weak[T]{ptr: p.Interface().(*T), ctl: ctl}
}

// pointerTo returns a pointer of type *to for the instance p. A new cell is
// allocated when the element types differ, e.g. *Iface over *Impl.
func pointerTo(p reflect.Value, to reflect.Type) (reflect.Value, bool) {
	if p.Type().Elem() == to {
		return p, true
	}
	v, ok := reflectx.Convert(p, to)
	if !ok {
		return reflect.Value{}, false
	}
	cell := reflect.New(to)
	cell.Elem().Set(v)
	return cell, true
}

func disposeInstance(p any) {
	if d, ok := p.(Disposable); ok {
		d.Dispose()
		return
	}
	if v := reflect.ValueOf(p); v.Kind() == reflect.Pointer && !v.IsNil() {
		if d, ok := v.Elem().Interface().(Disposable); ok {
			d.Dispose()
		}
	}
}
