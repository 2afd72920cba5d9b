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
	"io"
	"strings"
)

// WritePlain renders the tree as an indented text report.
//
// Intended for non-TTY output (pipes, CI logs). Folders print their
// result count; assets print each broken link; composites print each
// non-empty node with its broken links.
func WritePlain(w io.Writer, root *FolderNode, label string) error {
	if _, err := fmt.Fprintf(w, "%s (%d)\n", label, root.Count()); err != nil {
		return err
	}
	return writeFolder(w, root, 1)
}

func writeFolder(w io.Writer, f *FolderNode, depth int) error {
	indent := strings.Repeat("  ", depth)

	for _, name := range f.SubfolderNames() {
		child, _ := f.Subfolder(name)
		if _, err := fmt.Fprintf(w, "%s%s/ (%d)\n", indent, name, child.Count()); err != nil {
			return err
		}
		if err := writeFolder(w, child, depth+1); err != nil {
			return err
		}
	}

	for _, a := range f.Assets() {
		if _, err := fmt.Fprintf(w, "%s%s\n", indent, a.DisplayName()); err != nil {
			return err
		}
		for _, p := range a.Broken() {
			if _, err := fmt.Fprintf(w, "%s  - %s\n", indent, p); err != nil {
				return err
			}
		}
	}

	for _, c := range f.Composites() {
		if _, err := fmt.Fprintf(w, "%s%s\n", indent, c.DisplayName()); err != nil {
			return err
		}
		for _, nf := range c.PerNode() {
			if _, err := fmt.Fprintf(w, "%s  %s:\n", indent, nf.NodeName); err != nil {
				return err
			}
			for _, p := range nf.Broken {
				if _, err := fmt.Fprintf(w, "%s    - %s\n", indent, p); err != nil {
					return err
				}
			}
		}
	}

	return nil
}
