package di

import (
	"reflect"
	"sync"

	"go.uber.org/zap"

	"github.com/dozm/di/v2/reflectx"
	"github.com/dozm/di/v2/syncx"
)

// aliasProvider turns a stable pointer into a Shared or Weak handle that does
// not own it. Destroying the last handle never frees the instance.
type aliasProvider struct {
	elem reflect.Type
}

func (p *aliasProvider) Provided() reflect.Type { return p.elem }
func (p *aliasProvider) Kind() ProviderKind     { return providerAlias }

func (p *aliasProvider) identity() providerKey {
	return providerKey{kind: providerAlias, typ: p.elem}
}

type aliasSlot struct {
	mu  sync.Mutex
	ptr reflect.Value
	ctl *controlBlock
}

var aliasSlots = syncx.NewMap[ServiceCacheKey, *aliasSlot]()

func aliasKey(site *CallSite) ServiceCacheKey {
	elem := handleOf(site.requested).handleElem()
	return ServiceCacheKey{
		Container:   site.owner.key,
		ServiceType: elem,
		Provider:    (&aliasProvider{elem: elem}).identity(),
	}
}

// resolveAlias returns a Shared clone or a Weak observer of the cached
// aliasing handle, creating it from the target pointer on first use or after
// a reset.
func resolveAlias(site *CallSite) (reflect.Value, error) {
	s, _ := aliasSlots.LoadOrCreate(aliasKey(site), func(ServiceCacheKey) *aliasSlot {
		return &aliasSlot{}
	})

	s.mu.Lock()
	defer s.mu.Unlock()

	// the slot itself holds one reference until it is reset
	if s.ctl == nil || !s.ctl.acquire() {
		p, err := site.owner.resolveSite(site.target)
		if err != nil {
			return reflect.Value{}, err
		}
		s.ptr, s.ctl = p, newControlBlock(nil)
		s.ctl.acquire()
		site.owner.logger.Debug("aliasing handle created",
			zap.Stringer("requested", site.requested),
			zap.Stringer("canonical", site.canonical))
	}

	if site.shape != ShapeShared {
		s.ctl.release()
	}

	h := handleOf(site.requested)
	return reflect.ValueOf(h.fromPointer(s.ptr, s.ctl)), nil
}

func (s *aliasSlot) reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.ctl != nil {
		s.ctl.release()
	}
	s.ptr, s.ctl = reflect.Value{}, nil
}

// ResetShared drops the cached aliasing handle for T in c. Outstanding Weak
// handles expire once every Shared clone is reset. It reports whether a
// handle was cached.
func ResetShared[T any](c *Container) bool {
	site, err := c.callSites.GetCallSite(reflectx.TypeOf[Shared[T]](), newCallSiteChain())
	if err != nil || site.strategy != CacheAliasingHandle {
		return false
	}

	s, ok := aliasSlots.LoadAndDelete(aliasKey(site))
	if !ok {
		return false
	}
	s.reset()
	return true
}
