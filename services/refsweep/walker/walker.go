// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package walker inspects one object's serialized surface for broken
// links.
//
// The walker traverses a heterogeneous, possibly-nested field bag and
// classifies every serialized reference slot it finds. The critical
// distinction is missing versus intentionally empty: a cleared slot
// (empty id, empty type name, empty callback target) is valid content
// and never a finding; a populated slot whose target cannot be
// resolved is a confirmed-broken reference.
//
// # Thread Safety
//
// An IndexWalker is read-only after construction and safe for
// concurrent use across goroutines as long as its Resolver is.
package walker

import (
	"fmt"

	"github.com/AleutianAI/RefSweep/services/refsweep/object"
)

// =============================================================================
// Finding Model
// =============================================================================

// BrokenKind classifies a confirmed-broken serialized slot.
type BrokenKind int

const (
	// BrokenMissingObject is a reference field pointing at an object
	// id that no longer exists in the project.
	BrokenMissingObject BrokenKind = iota

	// BrokenUnresolvableType is a component/behavior slot whose
	// backing type cannot be resolved.
	BrokenUnresolvableType

	// BrokenMissingCallbackTarget is a callback slot whose target
	// object is missing.
	BrokenMissingCallbackTarget

	// BrokenUnresolvableMethod is a callback slot whose target
	// resolves but whose named method cannot be found on the
	// resolved target's type.
	BrokenUnresolvableMethod
)

// String returns the human-readable name of the kind.
func (k BrokenKind) String() string {
	switch k {
	case BrokenMissingObject:
		return "missing object"
	case BrokenUnresolvableType:
		return "unresolvable type"
	case BrokenMissingCallbackTarget:
		return "missing callback target"
	case BrokenUnresolvableMethod:
		return "unresolvable method"
	default:
		return "unknown"
	}
}

// PropertyReference is an immutable record of one confirmed-broken
// serialized slot.
type PropertyReference struct {
	// OwnerID is the id of the object owning the broken slot.
	OwnerID string

	// OwnerName is the display name of the owning object.
	OwnerName string

	// FieldPath locates the slot within the owner's field bag,
	// dotted with [i] list indices, e.g. "events[2].handler".
	FieldPath string

	// Kind classifies what could not be resolved.
	Kind BrokenKind

	// Detail names the unresolvable target (object id, type name, or
	// "target.Method") for display.
	Detail string
}

// String renders the reference for logs and plain reports.
func (p PropertyReference) String() string {
	return fmt.Sprintf("%s.%s: %s (%s)", p.OwnerName, p.FieldPath, p.Kind, p.Detail)
}

// =============================================================================
// Walker
// =============================================================================

// Resolver answers existence questions against the project-wide index.
//
// The catalog's Index satisfies this interface.
type Resolver interface {
	// HasObject reports whether an object with the given id exists.
	HasObject(id string) bool

	// HasType reports whether a type with the given name is
	// registered.
	HasType(name string) bool

	// ObjectType returns the declared type name of an indexed object.
	ObjectType(id string) (string, bool)

	// MethodExists reports whether the named method is found on the
	// registered type.
	MethodExists(typeName, method string) bool
}

// Walker finds broken serialized links on a single object.
type Walker interface {
	// FindMissingReferences returns every confirmed-broken slot on
	// the node's own serialized surface, ordered lexicographically by
	// field path (list elements keep their index order). Children are
	// not visited; callers walk the hierarchy themselves.
	FindMissingReferences(n *object.Node) []PropertyReference
}

// Refresher is implemented by resolvers that can rebuild their index
// from current storage (the catalog's LiveResolver).
type Refresher interface {
	// Refresh rebuilds the resolution index.
	Refresh() error
}

// IndexWalker resolves serialized slots against a Resolver.
type IndexWalker struct {
	resolver Resolver
}

// NewIndexWalker creates a walker backed by the given resolver.
func NewIndexWalker(resolver Resolver) *IndexWalker {
	return &IndexWalker{resolver: resolver}
}

// Refresh forwards to the resolver when it supports refreshing, so a
// scan pass can rebuild the index before walking.
func (w *IndexWalker) Refresh() error {
	if r, ok := w.resolver.(Refresher); ok {
		return r.Refresh()
	}
	return nil
}

// FindMissingReferences implements Walker.
func (w *IndexWalker) FindMissingReferences(n *object.Node) []PropertyReference {
	if n == nil || len(n.Fields) == 0 {
		return nil
	}

	var found []PropertyReference
	// Field bags decode as map[string]any; iterate keys in sorted
	// order so repeated walks over unchanged input are identical.
	for _, key := range sortedKeys(n.Fields) {
		w.visitValue(n, key, n.Fields[key], &found)
	}
	return found
}

// visitValue classifies one field value, recursing into containers.
func (w *IndexWalker) visitValue(owner *object.Node, path string, value any, found *[]PropertyReference) {
	switch v := value.(type) {
	case map[string]any:
		if ref, ok := refSlot(v); ok {
			w.checkRef(owner, path, ref, found)
			return
		}
		if typeName, ok := typeSlot(v); ok {
			w.checkType(owner, path, typeName, found)
			return
		}
		if target, method, ok := callbackSlot(v); ok {
			w.checkCallback(owner, path, target, method, found)
			return
		}
		for _, key := range sortedKeys(v) {
			w.visitValue(owner, path+"."+key, v[key], found)
		}

	case map[any]any:
		// yaml.v3 decodes string-keyed maps as map[string]any, but
		// non-string keys fall back to map[any]any. Reference slots
		// always have string keys, so only recursion applies here.
		for _, key := range sortedAnyKeys(v) {
			w.visitValue(owner, fmt.Sprintf("%s.%v", path, key), v[key], found)
		}

	case []any:
		for i, elem := range v {
			w.visitValue(owner, fmt.Sprintf("%s[%d]", path, i), elem, found)
		}
	}
}

// checkRef classifies an object reference slot.
// An empty id is an intentionally cleared slot, not a finding.
func (w *IndexWalker) checkRef(owner *object.Node, path, id string, found *[]PropertyReference) {
	if id == "" {
		return
	}
	if w.resolver.HasObject(id) {
		return
	}
	*found = append(*found, PropertyReference{
		OwnerID:   owner.ID,
		OwnerName: owner.Name,
		FieldPath: path,
		Kind:      BrokenMissingObject,
		Detail:    id,
	})
}

// checkType classifies a type slot.
func (w *IndexWalker) checkType(owner *object.Node, path, typeName string, found *[]PropertyReference) {
	if typeName == "" {
		return
	}
	if w.resolver.HasType(typeName) {
		return
	}
	*found = append(*found, PropertyReference{
		OwnerID:   owner.ID,
		OwnerName: owner.Name,
		FieldPath: path,
		Kind:      BrokenUnresolvableType,
		Detail:    typeName,
	})
}

// checkCallback classifies a callback slot.
//
// Resolution is two-stage: the target object must exist, and the named
// method must be found on the target's registered type. A callback
// whose target type is itself unregistered reports the method as
// unresolvable, since nothing can be proven about its method set.
func (w *IndexWalker) checkCallback(owner *object.Node, path, target, method string, found *[]PropertyReference) {
	if target == "" {
		return
	}
	if !w.resolver.HasObject(target) {
		*found = append(*found, PropertyReference{
			OwnerID:   owner.ID,
			OwnerName: owner.Name,
			FieldPath: path,
			Kind:      BrokenMissingCallbackTarget,
			Detail:    target,
		})
		return
	}
	if method == "" {
		return
	}
	if typeName, ok := w.resolver.ObjectType(target); ok && w.resolver.MethodExists(typeName, method) {
		return
	}
	*found = append(*found, PropertyReference{
		OwnerID:   owner.ID,
		OwnerName: owner.Name,
		FieldPath: path,
		Kind:      BrokenUnresolvableMethod,
		Detail:    target + "." + method,
	})
}
