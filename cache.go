package di

import (
	"reflect"
	"sort"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/dozm/di/v2/errorx"
	"github.com/dozm/di/v2/syncx"
)

// ServiceCacheKey identifies a process-wide instance slot. Containers with the
// same key share their slots.
type ServiceCacheKey struct {
	Container   string
	ServiceType reflect.Type
	Provider    providerKey
}

type slot struct {
	mu    sync.Mutex
	inst  reflect.Value
	views map[reflect.Type]reflect.Value
}

// view returns a stable pointer of type ptrType to the slot instance.
func (s *slot) view(ptrType reflect.Type) (reflect.Value, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if ptrType == s.inst.Type() {
		return s.inst, nil
	}
	if v, ok := s.views[ptrType]; ok {
		return v, nil
	}

	v, ok := pointerTo(s.inst, ptrType.Elem())
	if !ok {
		return reflect.Value{}, &errorx.TypeIncompatibilityError{To: ptrType, From: s.inst.Type()}
	}
	if s.views == nil {
		s.views = make(map[reflect.Type]reflect.Value)
	}
	s.views[ptrType] = v
	return v, nil
}

var (
	singletonSlots   = syncx.NewMap[ServiceCacheKey, *slot]()
	singletonLockers = &syncx.LockMap{}
)

// slotFor returns the initialized slot of a singleton call site, creating the
// instance on first use. Failures leave the slot empty.
func (c *Container) slotFor(site *CallSite) (*slot, error) {
	key := ServiceCacheKey{
		Container:   site.owner.key,
		ServiceType: site.canonical,
		Provider:    site.binding.provider.identity(),
	}

	if s, ok := singletonSlots.Load(key); ok {
		return s, nil
	}

	locker := singletonLockers.LoadOrCreate(key)
	locker.Lock()
	defer locker.Unlock()

	if s, ok := singletonSlots.Load(key); ok {
		return s, nil
	}

	p, err := site.instantiate()
	if err != nil {
		return nil, err
	}

	s := &slot{inst: p}
	singletonSlots.Store(key, s)
	site.owner.logger.Debug("singleton created",
		zap.Stringer("canonical", site.canonical),
		zap.Stringer("provider", site.binding.provider.Kind()))
	return s, nil
}

var (
	typeIDs    = syncx.NewMap[reflect.Type, uint64]()
	nextTypeID atomic.Uint64
)

// typeID interns t. Type names are not unique across packages, ids are.
func typeID(t reflect.Type) uint64 {
	if t == nil {
		return 0
	}
	if id, ok := typeIDs.Load(t); ok {
		return id
	}
	id, _ := typeIDs.LoadOrStore(t, nextTypeID.Add(1))
	return id
}

// containerKey derives the slot namespace of a container from its tag, cache
// markers, parent and binding list.
func containerKey(options *Options, config *Config) string {
	var sb strings.Builder
	sb.WriteString("tag=")
	sb.WriteString(options.Tag.id)

	markers := make([]uint64, len(options.Markers))
	for i, m := range options.Markers {
		markers[i] = typeID(m)
	}
	sort.Slice(markers, func(i, j int) bool { return markers[i] < markers[j] })
	sb.WriteString(";markers=")
	for _, m := range markers {
		sb.WriteString(strconv.FormatUint(m, 10))
		sb.WriteByte(',')
	}

	if options.Parent != nil {
		sb.WriteString(";parent={")
		sb.WriteString(options.Parent.key)
		sb.WriteByte('}')
	}

	sb.WriteString(";bindings=")
	for _, b := range config.bindings {
		sb.WriteString(b.signature())
		sb.WriteByte(',')
	}
	return sb.String()
}
