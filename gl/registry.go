package gl

import (
	"fmt"
	"sync"
)

// Factory creates a device for the given context options.
type Factory func(Options) (Device, error)

// Well-known driver names.
const (
	DriverOpenGL = "opengl"
	DriverTest   = "gltest"
)

// registry holds registered drivers.
var (
	registryMu sync.RWMutex
	drivers    = make(map[string]Factory)
	// Priority order for driver selection (first available wins).
	// A real GPU context beats the recording test device.
	driverPriority = []string{DriverOpenGL, DriverTest}
)

// Register registers a driver factory under the given name. This is
// typically called from init() functions in driver packages. Registering
// the same name twice replaces the earlier factory.
func Register(name string, factory Factory) {
	registryMu.Lock()
	defer registryMu.Unlock()
	drivers[name] = factory
}

// Unregister removes a driver from the registry. Useful in tests.
func Unregister(name string) {
	registryMu.Lock()
	defer registryMu.Unlock()
	delete(drivers, name)
}

// Available returns the registered driver names.
func Available() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()

	names := make([]string, 0, len(drivers))
	for name := range drivers {
		names = append(names, name)
	}
	return names
}

// IsRegistered reports whether a driver with the given name is registered.
func IsRegistered(name string) bool {
	registryMu.RLock()
	defer registryMu.RUnlock()
	_, ok := drivers[name]
	return ok
}

// OpenNamed opens a context on the named driver.
func OpenNamed(name string, opts Options) (Device, error) {
	registryMu.RLock()
	factory, ok := drivers[name]
	registryMu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownDriver, name)
	}
	return factory(opts)
}

// Open opens a context on the best available driver. Drivers are tried in
// priority order, then any remaining registrations; the first that opens
// successfully wins.
func Open(opts Options) (Device, error) {
	registryMu.RLock()
	defer registryMu.RUnlock()

	if len(drivers) == 0 {
		return nil, ErrNoDriver
	}

	var firstErr error
	tried := make(map[string]bool, len(drivers))
	for _, name := range driverPriority {
		factory, ok := drivers[name]
		if !ok {
			continue
		}
		tried[name] = true
		d, err := factory(opts)
		if err == nil {
			return d, nil
		}
		if firstErr == nil {
			firstErr = fmt.Errorf("driver %q: %w", name, err)
		}
	}

	// Fallback: any other registration.
	for name, factory := range drivers {
		if tried[name] {
			continue
		}
		d, err := factory(opts)
		if err == nil {
			return d, nil
		}
		if firstErr == nil {
			firstErr = fmt.Errorf("driver %q: %w", name, err)
		}
	}

	if firstErr != nil {
		return nil, fmt.Errorf("%w: %w", ErrNoDriver, firstErr)
	}
	return nil, ErrNoDriver
}
