package di

import (
	"fmt"
	"reflect"

	"github.com/dozm/di/v2/syncx"
)

// CallSiteValidator walks realized call sites and checks that every required
// argument has a plan.
type CallSiteValidator struct {
	visited *syncx.Map[*CallSite, struct{}]
}

func (v *CallSiteValidator) ValidateCallSite(site *CallSite) error {
	return v.visitCallSite(site, nil)
}

func (v *CallSiteValidator) visitCallSite(site *CallSite, consumer *CallSite) error {
	if site == nil && consumer == nil {
		return errNoCallSite
	}
	if site == nil {
		return fmt.Errorf("'%v' has an argument without a call site", consumer.requested)
	}
	if _, seen := v.visited.LoadOrStore(site, struct{}{}); seen {
		return nil
	}

	switch site.strategy {
	case CacheAliasingHandle:
		return v.visitAlias(site)
	default:
		return v.visitBinding(site)
	}
}

func (v *CallSiteValidator) visitAlias(site *CallSite) error {
	if site.target == nil || site.target.shape != ShapePointer {
		return fmt.Errorf("the aliasing handle '%v' has no stable pointer", site.requested)
	}
	return v.visitCallSite(site.target, site)
}

func (v *CallSiteValidator) visitBinding(site *CallSite) error {
	if site.invoker == nil {
		return nil
	}
	for i, arg := range site.args {
		if arg == nil && site.invoker.optional[i] {
			continue
		}
		if err := v.visitCallSite(arg, site); err != nil {
			return err
		}
	}
	return nil
}

func (v *CallSiteValidator) Visited() []reflect.Type {
	var types []reflect.Type
	v.visited.Range(func(cs *CallSite, _ struct{}) bool {
		types = append(types, cs.requested)
		return true
	})
	return types
}

func newCallSiteValidator() *CallSiteValidator {
	return &CallSiteValidator{visited: syncx.NewMap[*CallSite, struct{}]()}
}
