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
	"strings"
	"testing"
)

func TestWritePlain(t *testing.T) {
	root := NewFolderNode()
	mustInsert(t, root, asset(t, "Models/hero.item.yaml", 1))
	mustInsert(t, root, composite(t, "Scenes/arena.graph.yaml"))
	root.SortRecursively()

	var b strings.Builder
	if err := WritePlain(&b, root, "Broken references"); err != nil {
		t.Fatalf("write plain: %v", err)
	}
	out := b.String()

	for _, want := range []string{
		"Broken references (2)",
		"Models/ (1)",
		"Scenes/ (1)",
		"hero",
		"arena",
		"root:",
		"child:",
		"missing object (obj-gone)",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("report missing %q:\n%s", want, out)
		}
	}
}

func TestWritePlain_EmptyTree(t *testing.T) {
	var b strings.Builder
	if err := WritePlain(&b, NewFolderNode(), "Broken references"); err != nil {
		t.Fatalf("write plain: %v", err)
	}
	if b.String() != "Broken references (0)\n" {
		t.Errorf("empty report = %q", b.String())
	}
}
