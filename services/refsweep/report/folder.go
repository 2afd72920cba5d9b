// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package report

import (
	"fmt"
	"sort"

	"github.com/AleutianAI/RefSweep/services/refsweep/object"
)

// FolderNode is one node of the aggregate tree mirroring the storage
// path layout.
//
// Folders materialize lazily: a node exists only on the path to an
// actual finding, so a clean project yields a bare root. Subfolder
// iteration order is lexicographic by name and stable across runs for
// identical input.
//
// # Counting
//
// Count on a node equals the number of results transitively beneath
// it. Insert increments every node on the insertion path, root first,
// by exactly one, so no separate aggregation pass is needed and each
// insertion costs O(depth).
//
// # Thread Safety
//
// Not synchronized. The tree has exactly one writer (the scan
// orchestrator) and is read-only between scans.
type FolderNode struct {
	name       string
	subfolders map[string]*FolderNode
	names      []string // sorted subfolder names
	assets     []*AssetResult
	composites []*CompositeResult
	count      int
	visible    bool
}

// NewFolderNode creates an empty root node.
func NewFolderNode() *FolderNode {
	return &FolderNode{subfolders: make(map[string]*FolderNode)}
}

// Name returns the folder's path segment ("" for the root).
func (f *FolderNode) Name() string {
	return f.name
}

// Count returns the number of results transitively beneath the node.
func (f *FolderNode) Count() int {
	return f.count
}

// Visible returns the transient visibility flag. Defaults to false
// and is never persisted across sessions.
func (f *FolderNode) Visible() bool {
	return f.visible
}

// SetVisible sets this node's visibility without propagation.
// Ordinary single-node toggles never cascade.
func (f *FolderNode) SetVisible(v bool) {
	f.visible = v
}

// Assets returns the folder's asset results in current order
// (insertion order before a sort, display-name order after).
func (f *FolderNode) Assets() []*AssetResult {
	return f.assets
}

// Composites returns the folder's composite results in current order.
func (f *FolderNode) Composites() []*CompositeResult {
	return f.composites
}

// SubfolderNames returns the child folder names in lexicographic
// order. The returned slice is owned by the node; do not mutate.
func (f *FolderNode) SubfolderNames() []string {
	return f.names
}

// Subfolder returns the named child folder.
func (f *FolderNode) Subfolder(name string) (*FolderNode, bool) {
	child, ok := f.subfolders[name]
	return child, ok
}

// Insert places a result under the folder named by the item's path.
//
// The path is split into directory segments, dropping the final
// item-name segment. Walking from this node, every node on the path
// (this node first) has its count incremented by one; missing children
// are created lazily. The result lands on the terminal node's matching
// list.
func (f *FolderNode) Insert(result Result) error {
	switch result.(type) {
	case *AssetResult, *CompositeResult:
	default:
		return fmt.Errorf("insert %s: unsupported result type %T", result.Item().Path, result)
	}

	node := f
	node.count++
	for _, segment := range object.DirSegments(result.Item().Path) {
		node = node.child(segment)
		node.count++
	}

	switch r := result.(type) {
	case *AssetResult:
		node.assets = append(node.assets, r)
	case *CompositeResult:
		node.composites = append(node.composites, r)
	}
	return nil
}

// child returns the named subfolder, creating it if absent and keeping
// the name list sorted.
func (f *FolderNode) child(name string) *FolderNode {
	if existing, ok := f.subfolders[name]; ok {
		return existing
	}
	node := &FolderNode{name: name, subfolders: make(map[string]*FolderNode)}
	f.subfolders[name] = node
	i := sort.SearchStrings(f.names, name)
	f.names = append(f.names, "")
	copy(f.names[i+1:], f.names[i:])
	f.names[i] = name
	return node
}

// SortRecursively orders each node's asset and composite lists by item
// display name (ordinal comparison) and recurses into subfolders.
//
// Subfolder order needs no explicit sort since the name list is kept
// sorted on insert. Sorting is stable, so items sharing a display name
// keep their insertion order.
func (f *FolderNode) SortRecursively() {
	sort.SliceStable(f.assets, func(i, j int) bool {
		return f.assets[i].DisplayName() < f.assets[j].DisplayName()
	})
	sort.SliceStable(f.composites, func(i, j int) bool {
		return f.composites[i].DisplayName() < f.composites[j].DisplayName()
	})
	for _, name := range f.names {
		f.subfolders[name].SortRecursively()
	}
}

// SetVisibleRecursively sets this node's visibility and propagates the
// identical value depth-first to every composite result and every
// subfolder. This is the only cascading mutation the tree supports.
func (f *FolderNode) SetVisibleRecursively(v bool) {
	f.visible = v
	for _, c := range f.composites {
		c.SetVisible(v)
	}
	for _, name := range f.names {
		f.subfolders[name].SetVisibleRecursively(v)
	}
}

// Clear resets the node to the empty state: no subfolders, no results,
// count zero, visibility false. Idempotent and safe before first use.
func (f *FolderNode) Clear() {
	f.subfolders = make(map[string]*FolderNode)
	f.names = nil
	f.assets = nil
	f.composites = nil
	f.count = 0
	f.visible = false
}

// TotalFindings returns the number of broken links transitively
// beneath the node. Count tallies results; this tallies links.
func (f *FolderNode) TotalFindings() int {
	total := 0
	for _, a := range f.assets {
		total += a.FindingCount()
	}
	for _, c := range f.composites {
		total += c.FindingCount()
	}
	for _, name := range f.names {
		total += f.subfolders[name].TotalFindings()
	}
	return total
}
