package driver

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/johndauphine/tblprof/internal/apperrors"
	"github.com/johndauphine/tblprof/internal/dialect"
)

var (
	mu      sync.RWMutex
	drivers = make(map[string]Driver)
)

// Register makes a driver available by its name and aliases, and registers
// its dialect with the dialect package.
func Register(d Driver) {
	mu.Lock()
	defer mu.Unlock()

	drivers[strings.ToLower(d.Name())] = d
	for _, alias := range d.Aliases() {
		drivers[strings.ToLower(alias)] = d
	}
	dialect.Register(d.Dialect(), d.Aliases()...)
}

// Get returns the driver registered under name (or one of its aliases).
func Get(name string) (Driver, error) {
	mu.RLock()
	defer mu.RUnlock()

	d, ok := drivers[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return nil, fmt.Errorf("%w: unknown engine type %q (available: %s)",
			apperrors.ErrToolUnavailable, name, strings.Join(availableLocked(), ", "))
	}
	return d, nil
}

// GetDialect returns the dialect for the named driver, or nil.
func GetDialect(name string) dialect.Dialect {
	d, err := Get(name)
	if err != nil {
		return nil
	}
	return d.Dialect()
}

// Available returns the sorted primary names of all registered drivers.
func Available() []string {
	mu.RLock()
	defer mu.RUnlock()
	return availableLocked()
}

// Canonical returns the primary name for name, or name unchanged when unknown.
func Canonical(name string) string {
	d, err := Get(name)
	if err != nil {
		return name
	}
	return d.Name()
}

func availableLocked() []string {
	seen := make(map[string]bool)
	var names []string
	for _, d := range drivers {
		if !seen[d.Name()] {
			seen[d.Name()] = true
			names = append(names, d.Name())
		}
	}
	sort.Strings(names)
	return names
}
