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
	"reflect"
	"testing"

	"github.com/AleutianAI/RefSweep/services/refsweep/object"
	"github.com/AleutianAI/RefSweep/services/refsweep/walker"
)

// brokenWalker reports one missing-object finding per configured field.
type brokenWalker struct {
	fields []string
}

func (w *brokenWalker) FindMissingReferences(n *object.Node) []walker.PropertyReference {
	var refs []walker.PropertyReference
	for _, f := range w.fields {
		refs = append(refs, walker.PropertyReference{
			OwnerID:   n.ID,
			OwnerName: n.Name,
			FieldPath: f,
			Kind:      walker.BrokenMissingObject,
			Detail:    "obj-gone",
		})
	}
	return refs
}

// asset builds an AssetResult at the given path with n broken links.
func asset(t *testing.T, path string, n int) *AssetResult {
	t.Helper()
	fields := make([]string, n)
	for i := range fields {
		fields[i] = "field"
	}
	item := &object.Item{
		Storage: object.StorageItem{
			Path: path,
			Name: object.DisplayName(path, ".item.yaml"),
			Kind: object.KindAsset,
		},
		Root: &object.Node{ID: "obj-" + path, Name: path},
	}
	return NewAssetResult(item, &brokenWalker{fields: fields})
}

// composite builds a CompositeResult at the given path whose two nodes
// each carry one broken link.
func composite(t *testing.T, path string) *CompositeResult {
	t.Helper()
	item := &object.Item{
		Storage: object.StorageItem{
			Path: path,
			Name: object.DisplayName(path, ".graph.yaml"),
			Kind: object.KindComposite,
		},
		Root: &object.Node{
			ID: "obj-root", Name: "root",
			Children: []*object.Node{{ID: "obj-child", Name: "child"}},
		},
	}
	return NewCompositeResult(item, &brokenWalker{fields: []string{"link"}})
}

func mustInsert(t *testing.T, root *FolderNode, r Result) {
	t.Helper()
	if err := root.Insert(r); err != nil {
		t.Fatalf("insert: %v", err)
	}
}

func TestFolderNode_InsertCounting(t *testing.T) {
	root := NewFolderNode()

	mustInsert(t, root, asset(t, "Models/Characters/hero.item.yaml", 2))
	mustInsert(t, root, asset(t, "Models/props.item.yaml", 1))
	mustInsert(t, root, asset(t, "Scenes/arena.item.yaml", 1))

	if root.Count() != 3 {
		t.Errorf("root count = %d, want 3", root.Count())
	}

	models, ok := root.Subfolder("Models")
	if !ok {
		t.Fatal("Models subfolder missing")
	}
	if models.Count() != 2 {
		t.Errorf("Models count = %d, want 2", models.Count())
	}

	chars, ok := models.Subfolder("Characters")
	if !ok {
		t.Fatal("Characters subfolder missing")
	}
	if chars.Count() != 1 {
		t.Errorf("Characters count = %d, want 1", chars.Count())
	}

	scenes, ok := root.Subfolder("Scenes")
	if !ok {
		t.Fatal("Scenes subfolder missing")
	}
	if scenes.Count() != 1 {
		t.Errorf("Scenes count = %d, want 1", scenes.Count())
	}
}

func TestFolderNode_CountNeverBelowChild(t *testing.T) {
	root := NewFolderNode()
	paths := []string{
		"A/B/C/deep.item.yaml",
		"A/B/mid.item.yaml",
		"A/top.item.yaml",
		"other.item.yaml",
	}
	for _, p := range paths {
		mustInsert(t, root, asset(t, p, 1))
	}

	var check func(node *FolderNode)
	check = func(node *FolderNode) {
		sum := len(node.Assets()) + len(node.Composites())
		for _, name := range node.SubfolderNames() {
			child, _ := node.Subfolder(name)
			if node.Count() < child.Count() {
				t.Errorf("folder %q count %d below child %q count %d",
					node.Name(), node.Count(), child.Name(), child.Count())
			}
			sum += child.Count()
			check(child)
		}
		if node.Count() != sum {
			t.Errorf("folder %q count %d, children+own sum %d", node.Name(), node.Count(), sum)
		}
	}
	check(root)

	if root.Count() != 4 {
		t.Errorf("root count = %d, want 4", root.Count())
	}
}

func TestFolderNode_RootLevelItem(t *testing.T) {
	root := NewFolderNode()
	mustInsert(t, root, asset(t, "loose.item.yaml", 1))

	if root.Count() != 1 {
		t.Errorf("root count = %d, want 1", root.Count())
	}
	if len(root.SubfolderNames()) != 0 {
		t.Errorf("unexpected subfolders: %v", root.SubfolderNames())
	}
	if len(root.Assets()) != 1 {
		t.Errorf("asset not placed on root: %d", len(root.Assets()))
	}
}

func TestFolderNode_SubfolderOrderLexicographic(t *testing.T) {
	root := NewFolderNode()
	for _, p := range []string{
		"zeta/a.item.yaml",
		"Alpha/a.item.yaml",
		"beta/a.item.yaml",
		"Beta/a.item.yaml",
	} {
		mustInsert(t, root, asset(t, p, 1))
	}

	want := []string{"Alpha", "Beta", "beta", "zeta"}
	if !reflect.DeepEqual(root.SubfolderNames(), want) {
		t.Errorf("subfolder names = %v, want %v", root.SubfolderNames(), want)
	}
}

func TestFolderNode_InsertKeepsArrivalOrderUntilSort(t *testing.T) {
	root := NewFolderNode()
	mustInsert(t, root, asset(t, "zebra.item.yaml", 1))
	mustInsert(t, root, asset(t, "apple.item.yaml", 1))
	mustInsert(t, root, asset(t, "mango.item.yaml", 1))

	names := func() []string {
		out := make([]string, len(root.Assets()))
		for i, a := range root.Assets() {
			out[i] = a.DisplayName()
		}
		return out
	}

	if got := names(); !reflect.DeepEqual(got, []string{"zebra", "apple", "mango"}) {
		t.Errorf("pre-sort order = %v, want arrival order", got)
	}

	root.SortRecursively()
	if got := names(); !reflect.DeepEqual(got, []string{"apple", "mango", "zebra"}) {
		t.Errorf("post-sort order = %v, want display-name order", got)
	}
}

func TestFolderNode_SortRecursivelyDescends(t *testing.T) {
	root := NewFolderNode()
	mustInsert(t, root, asset(t, "Models/zebra.item.yaml", 1))
	mustInsert(t, root, asset(t, "Models/apple.item.yaml", 1))
	mustInsert(t, root, composite(t, "Models/scene_b.graph.yaml"))
	mustInsert(t, root, composite(t, "Models/scene_a.graph.yaml"))

	root.SortRecursively()

	models, _ := root.Subfolder("Models")
	if models.Assets()[0].DisplayName() != "apple" || models.Assets()[1].DisplayName() != "zebra" {
		t.Error("nested assets not sorted by display name")
	}
	if models.Composites()[0].DisplayName() != "scene_a" || models.Composites()[1].DisplayName() != "scene_b" {
		t.Error("nested composites not sorted by display name")
	}
}

func TestFolderNode_SetVisibleRecursively(t *testing.T) {
	root := NewFolderNode()
	mustInsert(t, root, composite(t, "rootscene.graph.yaml"))
	mustInsert(t, root, composite(t, "Models/scene.graph.yaml"))
	mustInsert(t, root, asset(t, "Models/Characters/hero.item.yaml", 1))
	mustInsert(t, root, composite(t, "Models/Characters/crowd.graph.yaml"))

	var checkAll func(node *FolderNode, want bool)
	checkAll = func(node *FolderNode, want bool) {
		if node.Visible() != want {
			t.Errorf("folder %q visible = %v, want %v", node.Name(), node.Visible(), want)
		}
		for _, c := range node.Composites() {
			if c.Visible() != want {
				t.Errorf("composite %q visible = %v, want %v", c.DisplayName(), c.Visible(), want)
			}
		}
		for _, name := range node.SubfolderNames() {
			child, _ := node.Subfolder(name)
			checkAll(child, want)
		}
	}

	checkAll(root, false)
	root.SetVisibleRecursively(true)
	checkAll(root, true)
	root.SetVisibleRecursively(false)
	checkAll(root, false)
}

func TestFolderNode_SetVisibleDoesNotCascade(t *testing.T) {
	root := NewFolderNode()
	mustInsert(t, root, composite(t, "Models/scene.graph.yaml"))

	root.SetVisible(true)

	models, _ := root.Subfolder("Models")
	if models.Visible() {
		t.Error("child folder became visible from a single-node toggle")
	}
	if models.Composites()[0].Visible() {
		t.Error("composite became visible from a single-node toggle")
	}
}

func TestFolderNode_Clear(t *testing.T) {
	root := NewFolderNode()
	mustInsert(t, root, asset(t, "Models/a.item.yaml", 2))
	mustInsert(t, root, composite(t, "Models/b.graph.yaml"))
	root.SetVisibleRecursively(true)

	root.Clear()

	if root.Count() != 0 {
		t.Errorf("count after clear = %d", root.Count())
	}
	if root.Visible() {
		t.Error("visible after clear")
	}
	if len(root.SubfolderNames()) != 0 || len(root.Assets()) != 0 || len(root.Composites()) != 0 {
		t.Error("contents survived clear")
	}

	// Idempotent, including on a never-used node.
	root.Clear()
	NewFolderNode().Clear()

	// The cleared tree accepts new insertions from scratch.
	mustInsert(t, root, asset(t, "Models/a.item.yaml", 1))
	if root.Count() != 1 {
		t.Errorf("count after reinsert = %d, want 1", root.Count())
	}
}

func TestFolderNode_TotalFindings(t *testing.T) {
	root := NewFolderNode()
	mustInsert(t, root, asset(t, "Models/a.item.yaml", 2))
	mustInsert(t, root, asset(t, "Models/Characters/b.item.yaml", 1))
	mustInsert(t, root, composite(t, "Scenes/c.graph.yaml")) // 2 nodes, 1 link each

	if got := root.TotalFindings(); got != 5 {
		t.Errorf("total findings = %d, want 5", got)
	}
	if root.Count() != 3 {
		t.Errorf("count = %d, want 3 result containers", root.Count())
	}
}

func TestFolderNode_InsertRejectsForeignResult(t *testing.T) {
	root := NewFolderNode()
	if err := root.Insert(fakeResult{}); err == nil {
		t.Fatal("expected error for unsupported result type")
	}
	if root.Count() != 0 {
		t.Errorf("count mutated on rejected insert: %d", root.Count())
	}
}

type fakeResult struct{}

func (fakeResult) Item() object.StorageItem { return object.StorageItem{Path: "x.item.yaml"} }
func (fakeResult) DisplayName() string      { return "x" }
func (fakeResult) FindingCount() int        { return 0 }

func TestCompositeResult_PerNode(t *testing.T) {
	c := composite(t, "Scenes/arena.graph.yaml")

	if !c.HasFindings() {
		t.Fatal("expected findings")
	}
	per := c.PerNode()
	if len(per) != 2 {
		t.Fatalf("per-node entries = %d, want 2", len(per))
	}
	// Document order: root before child.
	if per[0].NodeID != "obj-root" || per[1].NodeID != "obj-child" {
		t.Errorf("per-node order = %q, %q", per[0].NodeID, per[1].NodeID)
	}
	if c.FindingCount() != 2 {
		t.Errorf("finding count = %d, want 2", c.FindingCount())
	}
}

func TestAssetResult_CleanItemHasNoFindings(t *testing.T) {
	item := &object.Item{
		Storage: object.StorageItem{Path: "a.item.yaml", Name: "a", Kind: object.KindAsset},
		Root:    &object.Node{ID: "obj-a", Name: "a"},
	}
	r := NewAssetResult(item, &brokenWalker{})
	if r.HasFindings() {
		t.Error("clean item reported findings")
	}
	if r.FindingCount() != 0 {
		t.Errorf("finding count = %d", r.FindingCount())
	}
}
