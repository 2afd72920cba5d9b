// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package report holds scan results and aggregates them into a folder
// tree mirroring the storage path layout.
//
// The tree is rebuilt from empty on every scan. During a scan it is
// exclusively owned by the orchestrator; once the scan completes it is
// read-only and safe for concurrent read-only traversal by a renderer.
package report

import (
	"github.com/AleutianAI/RefSweep/services/refsweep/object"
	"github.com/AleutianAI/RefSweep/services/refsweep/walker"
)

// Result is a kept finding container placed in the folder tree.
type Result interface {
	// Item returns the storage item the result belongs to.
	Item() object.StorageItem

	// DisplayName returns the item display name used for sorting.
	DisplayName() string

	// FindingCount returns the number of broken links in the result.
	FindingCount() int
}

// =============================================================================
// Asset Result
// =============================================================================

// AssetResult wraps one plain storage item plus its broken-link list.
//
// Construction immediately invokes the walker; the caller decides
// retention based on HasFindings, so an empty result is simply dropped.
type AssetResult struct {
	item   object.StorageItem
	broken []walker.PropertyReference
}

// NewAssetResult walks the plain item's single object and retains the
// (possibly empty) broken-link list.
func NewAssetResult(item *object.Item, w walker.Walker) *AssetResult {
	return &AssetResult{
		item:   item.Storage,
		broken: w.FindMissingReferences(item.Root),
	}
}

// HasFindings reports whether the item has at least one broken link.
func (r *AssetResult) HasFindings() bool {
	return len(r.broken) > 0
}

// Item implements Result.
func (r *AssetResult) Item() object.StorageItem {
	return r.item
}

// DisplayName implements Result.
func (r *AssetResult) DisplayName() string {
	return r.item.Name
}

// FindingCount implements Result.
func (r *AssetResult) FindingCount() int {
	return len(r.broken)
}

// Broken returns the ordered broken-link list.
func (r *AssetResult) Broken() []walker.PropertyReference {
	return r.broken
}

// =============================================================================
// Composite Result
// =============================================================================

// NodeFindings pairs one node of a composite with its broken links.
type NodeFindings struct {
	// NodeID is the object id of the node.
	NodeID string

	// NodeName is the display name of the node.
	NodeName string

	// Broken is the node's ordered broken-link list, never empty:
	// clean nodes are not recorded.
	Broken []walker.PropertyReference
}

// CompositeResult wraps a hierarchy-bearing item plus per-node
// broken-link lists in document order.
//
// Visibility is transient UI state, defaults to false, and is the only
// result-level state a cascading visibility change touches.
type CompositeResult struct {
	item    object.StorageItem
	perNode []NodeFindings
	visible bool
}

// NewCompositeResult walks the root and every descendant node,
// retaining per-node broken-link lists for the non-empty nodes.
func NewCompositeResult(item *object.Item, w walker.Walker) *CompositeResult {
	result := &CompositeResult{item: item.Storage}
	item.Root.Walk(func(n *object.Node) {
		broken := w.FindMissingReferences(n)
		if len(broken) == 0 {
			return
		}
		result.perNode = append(result.perNode, NodeFindings{
			NodeID:   n.ID,
			NodeName: n.Name,
			Broken:   broken,
		})
	})
	return result
}

// HasFindings reports whether at least one node is non-empty.
func (r *CompositeResult) HasFindings() bool {
	return len(r.perNode) > 0
}

// Item implements Result.
func (r *CompositeResult) Item() object.StorageItem {
	return r.item
}

// DisplayName implements Result.
func (r *CompositeResult) DisplayName() string {
	return r.item.Name
}

// FindingCount implements Result.
func (r *CompositeResult) FindingCount() int {
	total := 0
	for _, nf := range r.perNode {
		total += len(nf.Broken)
	}
	return total
}

// PerNode returns the per-node findings in document order.
func (r *CompositeResult) PerNode() []NodeFindings {
	return r.perNode
}

// Visible returns the transient visibility flag.
func (r *CompositeResult) Visible() bool {
	return r.visible
}

// SetVisible sets the visibility flag without propagation.
func (r *CompositeResult) SetVisible(v bool) {
	r.visible = v
}
