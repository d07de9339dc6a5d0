// Package adapters registers every migration adapter with the core registry.
// Import this package for its side effects to make the adapters available.
package adapters

// This file exists to provide a single import point.
// Each adapter file uses init() to register its definitions.

func intPtr(n int) *int { return &n }
