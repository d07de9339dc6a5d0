package core

import (
	"fmt"
	"sort"
	"sync"
)

var (
	registry   = make(map[string]*AdapterDefinition)
	registryMu sync.RWMutex
)

// Register adds an adapter definition to the registry.
// Panics if an adapter with the same key is already registered.
func Register(def *AdapterDefinition) {
	registryMu.Lock()
	defer registryMu.Unlock()

	if _, exists := registry[def.Info.Key]; exists {
		panic(fmt.Sprintf("adapter already registered: %s", def.Info.Key))
	}

	registry[def.Info.Key] = def
}

// Get returns an adapter definition by key.
// Returns false if not found.
func Get(key string) (*AdapterDefinition, bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()

	def, ok := registry[key]
	return def, ok
}

// Lookup returns the adapter for key or an ADP001 FatalError.
func Lookup(key string) (*AdapterDefinition, error) {
	def, ok := Get(key)
	if !ok {
		return nil, &FatalError{
			Code:    "ADP001",
			Message: fmt.Sprintf("unknown adapter %q", key),
			Context: map[string]any{"adapter": key},
		}
	}
	return def, nil
}

// All returns all registered adapter definitions.
// Sorted by group then by key for consistent ordering.
func All() []*AdapterDefinition {
	registryMu.RLock()
	defer registryMu.RUnlock()

	result := make([]*AdapterDefinition, 0, len(registry))
	for _, def := range registry {
		result = append(result, def)
	}

	sort.Slice(result, func(i, j int) bool {
		if result[i].Info.Group != result[j].Info.Group {
			return result[i].Info.Group < result[j].Info.Group
		}
		return result[i].Info.Key < result[j].Info.Key
	})

	return result
}

// ByGroup returns all adapter definitions for a specific group.
// Sorted by key for consistent ordering.
func ByGroup(group string) []*AdapterDefinition {
	registryMu.RLock()
	defer registryMu.RUnlock()

	var result []*AdapterDefinition
	for _, def := range registry {
		if def.Info.Group == group {
			result = append(result, def)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].Info.Key < result[j].Info.Key
	})

	return result
}

// Groups returns all unique group names.
// Sorted alphabetically.
func Groups() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()

	seen := make(map[string]bool)
	for _, def := range registry {
		seen[def.Info.Group] = true
	}

	groups := make([]string, 0, len(seen))
	for g := range seen {
		groups = append(groups, g)
	}

	sort.Strings(groups)
	return groups
}

// AdapterCount returns the number of registered adapters.
func AdapterCount() int {
	registryMu.RLock()
	defer registryMu.RUnlock()
	return len(registry)
}

// Clear removes all registered adapters.
// Primarily useful for testing.
func Clear() {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry = make(map[string]*AdapterDefinition)
}
