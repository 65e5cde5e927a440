package di

// Strategy is the resolution path chosen for a request.
type Strategy byte

const (
	// UseBinding resolves through the binding's own scope.
	UseBinding Strategy = iota
	// PromoteToSingleton serves a pointer request from a singleton slot.
	PromoteToSingleton
	// RelegateToTransient serves a value request with a fresh instance.
	RelegateToTransient
	// CacheAliasingHandle wraps a stable pointer in a non-owning handle.
	CacheAliasingHandle
)

func (s Strategy) String() string {
	switch s {
	case UseBinding:
		return "use-binding"
	case PromoteToSingleton:
		return "promote-to-singleton"
	case RelegateToTransient:
		return "relegate-to-transient"
	case CacheAliasingHandle:
		return "cache-aliasing-handle"
	default:
		return "unknown"
	}
}

// selectStrategy picks the resolution path for a request of the given shape.
// scope is ignored when no binding was found.
func selectStrategy(shape Shape, found bool, scope Scope) Strategy {
	switch shape {
	case ShapeUnique:
		return UseBinding
	case ShapeShared:
		if found && !scope.ProvidesReferences() {
			return UseBinding
		}
		return CacheAliasingHandle
	case ShapeWeak:
		return CacheAliasingHandle
	case ShapePointer:
		if found && scope.ProvidesReferences() {
			return UseBinding
		}
		return PromoteToSingleton
	default:
		if found && scope.Supports(ShapeValue) {
			return UseBinding
		}
		return RelegateToTransient
	}
}
