// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package object defines the serialized content data model for RefSweep.
//
// A project is a collection of storage items. A plain item holds one
// object; a composite item holds a tree of named sub-objects rooted at
// a single node. Objects carry a free-form field bag whose values may
// nest arbitrarily (maps, lists, scalars) and may contain serialized
// reference slots (see the walker package for slot semantics).
package object

import (
	"fmt"
	"strings"
)

// Serialized slot keys recognized inside a field bag.
//
// These keys mark a map value as a reference slot rather than plain
// data. They are chosen to be implausible as ordinary field names.
const (
	// KeyRef marks an object reference slot: {"$ref": "<object id>"}.
	// An empty id means the slot was intentionally cleared.
	KeyRef = "$ref"

	// KeyType marks a type slot: {"$type": "<type name>"}.
	KeyType = "$type"

	// KeyTarget marks the target half of a callback slot.
	KeyTarget = "$target"

	// KeyMethod marks the method half of a callback slot.
	KeyMethod = "$method"
)

// ItemKind distinguishes plain items from composites.
type ItemKind int

const (
	// KindAsset is a plain item holding exactly one object.
	KindAsset ItemKind = iota

	// KindComposite is a hierarchy-bearing item (a tree of nodes).
	KindComposite
)

// String returns the human-readable name of the kind.
func (k ItemKind) String() string {
	switch k {
	case KindAsset:
		return "asset"
	case KindComposite:
		return "composite"
	default:
		return "unknown"
	}
}

// StorageItem is an addressable unit of persisted content.
//
// Path is always project-relative with forward-slash separators,
// e.g. "Models/Char/char.graph.yaml".
type StorageItem struct {
	// Path is the project-relative storage path of the item.
	Path string

	// Name is the display name of the item (path base without the
	// catalog suffix).
	Name string

	// Kind records whether the item is plain or composite.
	Kind ItemKind
}

// DirSegments returns the ordered directory segments of the item path,
// excluding the final item-name segment.
//
// Example: "Models/Char/char.graph.yaml" -> ["Models", "Char"].
func (s StorageItem) DirSegments() []string {
	return DirSegments(s.Path)
}

// Node is one object in a content item.
//
// For a plain item the single object is represented as a Node with no
// children. For a composite item the root Node and its transitive
// Children form the hierarchy.
type Node struct {
	// ID is the project-unique object identifier.
	ID string `yaml:"id"`

	// Name is the display name of the object within its item.
	Name string `yaml:"name"`

	// Type is the declared type name of the object.
	Type string `yaml:"type"`

	// Fields is the serialized field bag. Values may nest.
	Fields map[string]any `yaml:"fields"`

	// Children are the named sub-objects (composites only).
	Children []*Node `yaml:"children"`
}

// Walk visits the node and every descendant in document order.
//
// The visit function receives each node exactly once. Traversal is
// depth-first, children in declaration order, so repeated walks over
// unchanged input yield the same sequence.
func (n *Node) Walk(visit func(*Node)) {
	if n == nil {
		return
	}
	visit(n)
	for _, child := range n.Children {
		child.Walk(visit)
	}
}

// Validate checks structural invariants of the node tree.
//
// Every node must have a non-empty ID; IDs must be unique within the
// tree. Field contents are not validated here: broken references are
// findings for the walker, not load errors.
func (n *Node) Validate() error {
	seen := make(map[string]bool)
	return n.validate(seen)
}

func (n *Node) validate(seen map[string]bool) error {
	if n == nil {
		return fmt.Errorf("nil node")
	}
	if n.ID == "" {
		return fmt.Errorf("node %q: empty id", n.Name)
	}
	if seen[n.ID] {
		return fmt.Errorf("node %q: duplicate id %s", n.Name, n.ID)
	}
	seen[n.ID] = true
	for _, child := range n.Children {
		if err := child.validate(seen); err != nil {
			return err
		}
	}
	return nil
}

// Item is a fully loaded content item.
type Item struct {
	// Storage identifies where the item came from.
	Storage StorageItem

	// Root is the single object (plain item) or the hierarchy root
	// (composite item).
	Root *Node

	// Origin tags how the item entered the project. Composites with an
	// origin matched by the scanner's exclusion policy are skipped:
	// they are generated from an external interchange format and
	// cannot be usefully edited in place.
	Origin string
}

// DirSegments splits a project-relative path into its directory
// segments, dropping the final (item name) segment.
//
// Empty segments produced by doubled or trailing slashes are dropped
// so that "a//b/item" and "a/b/item" group identically.
func DirSegments(path string) []string {
	parts := strings.Split(path, "/")
	if len(parts) == 0 {
		return nil
	}
	parts = parts[:len(parts)-1]
	segments := make([]string, 0, len(parts))
	for _, p := range parts {
		if p != "" {
			segments = append(segments, p)
		}
	}
	return segments
}

// DisplayName derives an item display name from a storage path by
// stripping the directory and the given suffix.
//
// Example: DisplayName("Models/char.item.yaml", ".item.yaml") -> "char".
func DisplayName(path, suffix string) string {
	base := path
	if i := strings.LastIndex(base, "/"); i >= 0 {
		base = base[i+1:]
	}
	return strings.TrimSuffix(base, suffix)
}
