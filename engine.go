package di

import "reflect"

type ServiceAccessor func() (reflect.Value, error)

type ContainerEngine interface {
	RealizeService(*CallSite) (ServiceAccessor, error)
}

type containerEngine struct {
	container *Container
}

func (engine *containerEngine) RealizeService(site *CallSite) (ServiceAccessor, error) {
	c := engine.container
	return func() (reflect.Value, error) {
		return c.resolveSite(site)
	}, nil
}

func newContainerEngine(c *Container) ContainerEngine {
	return &containerEngine{container: c}
}
