// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package catalog

import "sync"

// LiveResolver is a resolver that rebuilds its index on demand.
//
// A scan session that rescans (TUI rescan key, watch mode) must
// resolve against current storage, not the storage of the first scan.
// Refresh swaps in a freshly built index; lookups between refreshes
// see a consistent snapshot.
//
// # Thread Safety
//
// Safe for concurrent lookups. Refresh may run concurrently with
// lookups; readers see either the old or the new snapshot, never a
// partial one.
type LiveResolver struct {
	catalog *Catalog

	mu    sync.RWMutex
	index *Index
}

// NewLiveResolver creates a resolver over the catalog. The index is
// empty until the first Refresh, so every populated slot resolves as
// broken; call Refresh before walking.
func NewLiveResolver(c *Catalog) *LiveResolver {
	return &LiveResolver{catalog: c}
}

// Refresh rebuilds the resolution index from current storage.
func (r *LiveResolver) Refresh() error {
	ix, _, err := r.catalog.BuildIndex()
	if err != nil {
		return err
	}
	r.mu.Lock()
	r.index = ix
	r.mu.Unlock()
	return nil
}

// snapshot returns the current index, which may be nil before the
// first Refresh.
func (r *LiveResolver) snapshot() *Index {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.index
}

// HasObject reports whether an object with the given id exists.
func (r *LiveResolver) HasObject(id string) bool {
	ix := r.snapshot()
	return ix != nil && ix.HasObject(id)
}

// HasType reports whether a type with the given name is registered.
func (r *LiveResolver) HasType(name string) bool {
	ix := r.snapshot()
	return ix != nil && ix.HasType(name)
}

// ObjectType returns the declared type name of an indexed object.
func (r *LiveResolver) ObjectType(id string) (string, bool) {
	ix := r.snapshot()
	if ix == nil {
		return "", false
	}
	return ix.ObjectType(id)
}

// MethodExists reports whether the named method is found on the
// registered type.
func (r *LiveResolver) MethodExists(typeName, method string) bool {
	ix := r.snapshot()
	return ix != nil && ix.MethodExists(typeName, method)
}
