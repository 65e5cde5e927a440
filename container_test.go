package di

import (
	"errors"
	"io"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dozm/di/v2/errorx"
	"github.com/dozm/di/v2/reflectx"
)

type (
	counted struct {
		Value  int
		Serial int32
	}
	singletonSubject struct{ Value int }
	siblingSubject   struct{ Value int }
	childSubject     struct{ Value int }
	firstMatch       struct{ Serial int32 }
)

// countingFactory returns a factory of T that counts its calls.
func countingFactory[T any](count *int32, build func(serial int32) T) func() T {
	return func() T {
		return build(atomic.AddInt32(count, 1))
	}
}

func TestContainer_SingletonReferenceIdentity(t *testing.T) {
	var count int32
	c := MustNew(NewTag(),
		As[counted](Bind[counted]()).Via(countingFactory(&count, func(n int32) counted {
			return counted{Serial: n}
		})).In(Singleton))

	a := Get[*counted](c)
	b := Get[*counted](c)

	require.Same(t, a, b)
	require.Equal(t, int32(1), count)
}

func TestContainer_TransientValueUniqueness(t *testing.T) {
	var count int32
	c := MustNew(NewTag(),
		As[counted](Bind[counted]()).Via(countingFactory(&count, func(n int32) counted {
			return counted{Serial: n}
		})))

	a := Get[counted](c)
	b := Get[counted](c)
	u1 := Get[Unique[counted]](c)
	u2 := Get[Unique[counted]](c)

	require.NotEqual(t, a.Serial, b.Serial)
	require.NotSame(t, u1.Get(), u2.Get())
	require.Equal(t, int32(4), count)
}

func TestContainer_PromotionFromTransient(t *testing.T) {
	var count int32
	c := MustNew(NewTag(),
		As[counted](Bind[counted]()).Via(countingFactory(&count, func(n int32) counted {
			return counted{Serial: n}
		})))

	a := Get[*counted](c)
	b := Get[*counted](c)
	require.Same(t, a, b)
	require.Equal(t, int32(1), count)

	v := Get[counted](c)
	require.Equal(t, int32(2), count)
	require.Equal(t, int32(2), v.Serial)
	require.Equal(t, int32(1), a.Serial)
}

func TestContainer_RelegationFromSingleton(t *testing.T) {
	var count int32
	c := MustNew(NewTag(),
		As[counted](Bind[counted]()).Via(countingFactory(&count, func(n int32) counted {
			return counted{Value: 7, Serial: n}
		})).In(Singleton))

	ref := Get[*counted](c)
	require.Equal(t, int32(1), count)
	ref.Value = 100

	v := Get[counted](c)
	require.Equal(t, int32(2), count)
	require.Equal(t, 7, v.Value)

	v.Value = 1
	require.Equal(t, 100, ref.Value)
	require.Same(t, ref, Get[*counted](c))
}

func TestContainer_AliasingHandleIdentity(t *testing.T) {
	c := MustNew(NewTag(), Bind[singletonSubject]().In(Singleton))

	h1 := Get[Shared[singletonSubject]](c)
	h2 := Get[Shared[singletonSubject]](c)
	ref := Get[*singletonSubject](c)

	require.Same(t, h1.Get(), h2.Get())
	require.Same(t, ref, h1.Get())

	w := Get[Weak[singletonSubject]](c)
	require.Same(t, ref, w.ptr)

	h1.Reset()
	h2.Reset()
	require.False(t, w.Expired())

	require.True(t, ResetShared[singletonSubject](c))
	require.True(t, w.Expired())
	require.False(t, ResetShared[singletonSubject](c))

	// a new aliasing handle wraps the same singleton
	h3 := Get[Shared[singletonSubject]](c)
	require.Same(t, ref, h3.Get())
}

func TestContainer_AliasingHandleDoesNotDispose(t *testing.T) {
	c := MustNew(NewTag(), Bind[disposableStruct]().In(Singleton))

	h := Get[Shared[disposableStruct]](c)
	h.Reset()
	ResetShared[disposableStruct](c)

	require.False(t, Get[*disposableStruct](c).Disposed)
}

func TestContainer_TransientSharedOwnsInstance(t *testing.T) {
	c := MustNew(NewTag(), Bind[disposableStruct]())

	h1 := Get[Shared[disposableStruct]](c)
	h2 := Get[Shared[disposableStruct]](c)
	require.NotSame(t, h1.Get(), h2.Get())

	obj := h1.Get()
	clone := h1.Clone()
	h1.Reset()
	require.False(t, obj.Disposed)
	clone.Reset()
	require.True(t, obj.Disposed)

	u := Get[Unique[disposableStruct]](c)
	p := u.Get()
	u.Reset()
	require.True(t, p.Disposed)
}

func siblingContainer() *Container {
	return MustNew(Bind[siblingSubject]().In(Singleton))
}

func TestContainer_SiblingsShareSlots(t *testing.T) {
	a := siblingContainer()
	b := siblingContainer()
	require.Equal(t, a.Key(), b.Key())
	require.Same(t, Get[*siblingSubject](a), Get[*siblingSubject](b))

	tagged1 := MustNew(Here(), Bind[siblingSubject]().In(Singleton))
	tagged2 := MustNew(Here(), Bind[siblingSubject]().In(Singleton))
	require.NotEqual(t, tagged1.Key(), tagged2.Key())
	require.NotSame(t, Get[*siblingSubject](tagged1), Get[*siblingSubject](tagged2))
	require.NotSame(t, Get[*siblingSubject](a), Get[*siblingSubject](tagged1))

	type marker struct{}
	marked := MustNew(WithCache[marker](), Bind[siblingSubject]().In(Singleton))
	require.NotSame(t, Get[*siblingSubject](a), Get[*siblingSubject](marked))

	uuid1 := MustNew(NewTag(), Bind[siblingSubject]().In(Singleton))
	uuid2 := MustNew(NewTag(), Bind[siblingSubject]().In(Singleton))
	require.NotSame(t, Get[*siblingSubject](uuid1), Get[*siblingSubject](uuid2))

	named1 := MustNew(NamedTag("sibling"), Bind[siblingSubject]().In(Singleton))
	named2 := MustNew(NamedTag("sibling"), Bind[siblingSubject]().In(Singleton))
	require.Same(t, Get[*siblingSubject](named1), Get[*siblingSubject](named2))
}

func TestContainer_HierarchyDelegation(t *testing.T) {
	parent := MustNew(NewTag(), Bind[childSubject]().In(Singleton))

	child, err := parent.Child()
	require.NoError(t, err)
	require.Same(t, parent, child.Parent())
	require.Same(t, Get[*childSubject](parent), Get[*childSubject](child))

	site, err := child.CallSite(reflectx.TypeOf[*childSubject]())
	require.NoError(t, err)
	require.Same(t, parent, site.Owner())

	rebound, err := parent.Child(Bind[childSubject]().In(Singleton))
	require.NoError(t, err)
	require.NotSame(t, Get[*childSubject](parent), Get[*childSubject](rebound))
}

func TestContainer_FirstMatchWins(t *testing.T) {
	var count int32
	factory := countingFactory(&count, func(n int32) firstMatch { return firstMatch{Serial: n} })
	c := MustNew(NewTag(),
		As[firstMatch](Bind[firstMatch]()).Via(factory),
		As[firstMatch](Bind[firstMatch]()).Via(factory).In(Singleton),
	)

	a := Get[firstMatch](c)
	b := Get[firstMatch](c)
	require.NotEqual(t, a.Serial, b.Serial)

	site, err := c.CallSite(reflectx.TypeOf[*firstMatch]())
	require.NoError(t, err)
	require.Equal(t, PromoteToSingleton, site.Strategy())
}

type (
	reader interface{ Read() string }
	fileReader struct{ Path string }
	service struct {
		Reader reader
		Config *serviceConfig
		Name   string `inject:"-"`
	}
	serviceConfig struct{ Root string }
)

func (r *fileReader) Read() string { return r.Path }

func TestContainer_InterfaceBindingAndAggregateConstruction(t *testing.T) {
	cfg := &serviceConfig{Root: "/etc"}
	c := MustNew(NewTag(),
		As[*fileReader](Bind[reader]()).Via(func(cfg *serviceConfig) *fileReader {
			return &fileReader{Path: cfg.Root + "/app"}
		}),
		Bind[serviceConfig]().To(cfg),
	)

	svc := Get[service](c)
	require.Equal(t, "/etc/app", svc.Reader.Read())
	require.Same(t, cfg, svc.Config)
	require.Empty(t, svc.Name)

	var r reader = Get[reader](c)
	require.Equal(t, "/etc/app", r.Read())

	p1 := Get[*reader](c)
	p2 := Get[*reader](c)
	require.Same(t, p1, p2)
}

func TestContainer_InstanceScope(t *testing.T) {
	ext := &counted{Value: 3}
	c := MustNew(NewTag(), Bind[counted]().To(ext))

	require.Same(t, ext, Get[*counted](c))

	v := Get[counted](c)
	v.Value = 9
	require.Equal(t, 3, ext.Value)

	h := Get[Shared[counted]](c)
	require.Same(t, ext, h.Get())
	h.Reset()

	var use *errorx.UnsupportedShapeError
	_, err := TryGet[Unique[counted]](c)
	require.True(t, errors.As(err, &use))
}

func TestContainer_InstanceScopeStableViews(t *testing.T) {
	ext := &fileReader{Path: "/var"}
	c := MustNew(NewTag(), ToRef[fileReader](Bind[reader](), ext))

	a := Get[*reader](c)
	b := Get[*reader](c)
	require.Same(t, a, b)
	require.Same(t, ext, (*a).(*fileReader))
	require.Same(t, ext, Get[*fileReader](MustNew(NewTag(), ToRef[fileReader](Bind[fileReader](), ext))))
}

func TestContainer_UnsupportedShape(t *testing.T) {
	c := MustNew(NewTag(), Bind[singletonSubject]().In(Singleton))

	_, err := TryGet[Unique[singletonSubject]](c)
	var use *errorx.UnsupportedShapeError
	require.True(t, errors.As(err, &use))
	require.Equal(t, "singleton", use.Scope)
	require.Equal(t, "unique", use.Shape)

	require.Panics(t, func() { Get[Unique[singletonSubject]](c) })
}

type (
	cycleA struct{ B *cycleB }
	cycleB struct {
		C cycleC
		N int
	}
	cycleC struct {
		A Shared[cycleA]
		N int
	}
)

func TestContainer_CircularDependency(t *testing.T) {
	c := MustNew(NewTag())

	_, err := TryGet[cycleA](c)
	var cde *errorx.CircularDependencyError
	require.True(t, errors.As(err, &cde))
	require.Contains(t, cde.Message, "cycleA")

	_, err = New(Here(), Bind[cycleA](), WithValidation())
	require.True(t, errors.As(err, &cde))
}

func TestContainer_ValidateOnBuild(t *testing.T) {
	_, err := New(Here(), WithValidation(),
		Bind[io.Reader](),
		As[*strings.Builder](Bind[io.Writer]()),
	)

	var aue *errorx.ArityUndeducibleError
	require.True(t, errors.As(err, &aue))

	_, err = New(Here(), WithValidation(),
		As[*strings.Builder](Bind[io.Writer]()).In(Singleton),
		As[*strings.Reader](Bind[io.Reader]()).Via(func() *strings.Reader { return strings.NewReader("") }),
	)
	require.NoError(t, err)
}

type optionalDeps struct {
	Reader io.Reader `inject:"optional"`
	Config *serviceConfig
}

func TestContainer_OptionalDependency(t *testing.T) {
	c := MustNew(NewTag())

	v := Get[optionalDeps](c)
	require.Nil(t, v.Reader)
	require.NotNil(t, v.Config)
}

func TestContainer_FactoryError(t *testing.T) {
	boom := errors.New("boom")
	var calls int32
	c := MustNew(NewTag(),
		As[*counted](Bind[counted]()).Via(func() (*counted, error) {
			if atomic.AddInt32(&calls, 1) == 1 {
				return nil, boom
			}
			return &counted{Value: 1}, nil
		}).In(Singleton))

	_, err := TryGet[*counted](c)
	require.ErrorIs(t, err, boom)

	// failures are not cached
	v, err := TryGet[*counted](c)
	require.NoError(t, err)
	require.Equal(t, 1, v.Value)
	require.Same(t, v, Get[*counted](c))
}

func TestContainer_ResolveSingletonConcurrently(t *testing.T) {
	var count int32
	c := MustNew(NewTag(),
		As[counted](Bind[counted]()).Via(countingFactory(&count, func(n int32) counted {
			return counted{Serial: n}
		})).In(Singleton))

	var wg sync.WaitGroup
	results := make([]*counted, 200)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = Get[*counted](c)
		}(i)
	}
	wg.Wait()

	require.Equal(t, int32(1), count)
	for _, r := range results {
		require.Same(t, results[0], r)
	}
}

func TestContainer_GetOrCreate(t *testing.T) {
	c := MustNew(NewTag())

	p, err := FactoryProvider(func() *counted { return &counted{Value: 5} })
	require.NoError(t, err)

	a, err := c.GetOrCreate(p)
	require.NoError(t, err)
	b, err := c.GetOrCreate(p)
	require.NoError(t, err)
	require.Same(t, a, b)
	require.Equal(t, 5, a.(*counted).Value)

	ext := &counted{}
	ref, err := ReferenceProvider(ext)
	require.NoError(t, err)
	r, err := c.GetOrCreate(ref)
	require.NoError(t, err)
	require.Same(t, ext, r)

	_, err = c.GetOrCreate(nil)
	require.Error(t, err)
}

func TestContainer_Invoke(t *testing.T) {
	c := MustNew(NewTag(), Bind[singletonSubject]().In(Singleton))

	results, err := Invoke(c, func(s *singletonSubject, v counted) int {
		s.Value = 42
		return v.Value
	})
	require.NoError(t, err)
	require.Equal(t, []any{0}, results)
	require.Equal(t, 42, Get[*singletonSubject](c).Value)

	_, err = Invoke(c, 1)
	require.Error(t, err)
}

func TestContainer_NilEntry(t *testing.T) {
	_, err := New(nil)
	var ane *errorx.ArgumentNilError
	require.True(t, errors.As(err, &ane))
}
