package di

import (
	"reflect"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/dozm/di/v2/reflectx"
)

// Container options.
type Options struct {
	// MaxArity bounds the arity search. Zero inherits from the parent or
	// falls back to DefaultMaxArity.
	MaxArity int
	// ValidateOnBuild plans every binding when the container is built.
	ValidateOnBuild bool
	// Logger defaults to the parent's logger, or a no-op logger.
	Logger *zap.Logger
	// Registerer enables the instance and resolution counters.
	Registerer prometheus.Registerer
	Tag        Tag
	// Markers are extra types mixed into the container key.
	Markers []reflect.Type
	Parent  *Container
}

// Get default container options.
func DefaultOptions() Options {
	return Options{}
}

func (o *Options) inherit() {
	if p := o.Parent; p != nil {
		if o.MaxArity == 0 {
			o.MaxArity = p.options.MaxArity
		}
		if o.Logger == nil {
			o.Logger = p.options.Logger
		}
		if o.Registerer == nil {
			o.Registerer = p.options.Registerer
		}
	}
	if o.MaxArity <= 0 {
		o.MaxArity = DefaultMaxArity
	}
	if o.Logger == nil {
		o.Logger = zap.NewNop()
	}
}

// Option is an Entry that only edits the container options.
type Option func(*Options)

func (f Option) configure(cb *containerBuilder) {
	f(&cb.options)
}

// ConfigureOptions returns an Entry that applies f to the container options.
func ConfigureOptions(f func(*Options)) Entry {
	return Option(f)
}

func WithParent(parent *Container) Entry {
	return Option(func(o *Options) { o.Parent = parent })
}

// WithCache separates the container's slots from containers without the
// marker M.
func WithCache[M any]() Entry {
	return Option(func(o *Options) { o.Markers = append(o.Markers, reflectx.TypeOf[M]()) })
}

func WithLogger(logger *zap.Logger) Entry {
	return Option(func(o *Options) { o.Logger = logger })
}

func WithRegisterer(reg prometheus.Registerer) Entry {
	return Option(func(o *Options) { o.Registerer = reg })
}

func WithMaxArity(n int) Entry {
	return Option(func(o *Options) { o.MaxArity = n })
}

func WithValidation() Entry {
	return Option(func(o *Options) { o.ValidateOnBuild = true })
}
