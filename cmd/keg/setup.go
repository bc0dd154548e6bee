package main

import (
	"errors"
	"runtime"

	"github.com/kegworks/keg/internal/prefix"
	"github.com/kegworks/keg/internal/service"
)

// serviceCleanup adapts the service registry for the installer: a package
// without a registered unit is nothing to clean up.
type serviceCleanup struct {
	registry *service.Registry
}

func (s *serviceCleanup) Unregister(name string) error {
	err := s.registry.Unregister(name)
	if errors.Is(err, service.ErrNotRegistered) {
		return nil
	}
	return err
}

func newServiceCleanup(p *prefix.Prefix) *serviceCleanup {
	return &serviceCleanup{registry: service.NewRegistry(p, runtime.GOOS)}
}

// resolvePrefix honors a --prefix flag over the environment.
func resolvePrefix(flagValue string) *prefix.Prefix {
	if flagValue != "" {
		return prefix.New(flagValue)
	}
	return prefix.Resolve()
}
