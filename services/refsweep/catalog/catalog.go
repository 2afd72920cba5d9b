// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package catalog implements the storage index over a project directory.
//
// The catalog enumerates and loads serialized content items from a
// billy filesystem, so production code runs on osfs while tests run on
// memfs with identical behavior. It also builds the project-wide
// resolution index the walker uses to decide whether a serialized
// reference is broken.
//
// # Thread Safety
//
// A Catalog is read-only after construction and safe for concurrent
// use. Index building takes a consistent snapshot per call.
package catalog

import (
	"fmt"
	"sort"
	"strings"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/util"
	"gopkg.in/yaml.v3"

	"github.com/AleutianAI/RefSweep/services/refsweep/object"
)

// Default file suffixes understood by the catalog.
const (
	// DefaultItemSuffix marks plain single-object items.
	DefaultItemSuffix = ".item.yaml"

	// DefaultGraphSuffix marks composite (hierarchy-bearing) items.
	DefaultGraphSuffix = ".graph.yaml"

	// DefaultTypeSuffix marks type registry entries.
	DefaultTypeSuffix = ".type.yaml"
)

// Options configures Catalog behavior.
type Options struct {
	// ItemSuffixes are the file suffixes treated as plain items.
	// Default: [".item.yaml"]
	ItemSuffixes []string

	// GraphSuffixes are the file suffixes treated as composite items.
	// Default: [".graph.yaml"]
	GraphSuffixes []string

	// TypeSuffixes are the file suffixes treated as type registry
	// entries. Type entries are index-only: they are never scanned
	// and never appear in ListItemPaths.
	// Default: [".type.yaml"]
	TypeSuffixes []string
}

// DefaultOptions returns the default suffix mapping.
func DefaultOptions() Options {
	return Options{
		ItemSuffixes:  []string{DefaultItemSuffix},
		GraphSuffixes: []string{DefaultGraphSuffix},
		TypeSuffixes:  []string{DefaultTypeSuffix},
	}
}

// Option is a functional option for configuring a Catalog.
type Option func(*Options)

// WithItemSuffixes overrides the plain item suffixes.
func WithItemSuffixes(suffixes ...string) Option {
	return func(o *Options) {
		o.ItemSuffixes = suffixes
	}
}

// WithGraphSuffixes overrides the composite item suffixes.
func WithGraphSuffixes(suffixes ...string) Option {
	return func(o *Options) {
		o.GraphSuffixes = suffixes
	}
}

// WithTypeSuffixes overrides the type registry suffixes.
func WithTypeSuffixes(suffixes ...string) Option {
	return func(o *Options) {
		o.TypeSuffixes = suffixes
	}
}

// Catalog enumerates and loads content items from a project filesystem.
type Catalog struct {
	fs      billy.Filesystem
	options Options
}

// New creates a Catalog rooted at the given filesystem.
//
// The filesystem root is the project root; all returned paths are
// relative to it.
func New(fs billy.Filesystem, opts ...Option) *Catalog {
	options := DefaultOptions()
	for _, opt := range opts {
		opt(&options)
	}
	return &Catalog{fs: fs, options: options}
}

// ListItemPaths returns every scannable item path in the project.
//
// Paths are project-relative, forward-slash separated, and sorted so
// repeated scans over unchanged storage enumerate identically.
// Absolute paths and paths escaping the project root are filtered out
// before classification; type registry entries are excluded.
func (c *Catalog) ListItemPaths() ([]string, error) {
	var paths []string
	err := c.walkDir("", &paths)
	if err != nil {
		return nil, fmt.Errorf("list item paths: %w", err)
	}
	sort.Strings(paths)
	return paths, nil
}

// walkDir recursively collects item paths under dir.
func (c *Catalog) walkDir(dir string, paths *[]string) error {
	read := dir
	if read == "" {
		read = "."
	}
	entries, err := c.fs.ReadDir(read)
	if err != nil {
		return err
	}
	for _, entry := range entries {
		path := entry.Name()
		if dir != "" {
			path = dir + "/" + entry.Name()
		}
		if entry.IsDir() {
			if err := c.walkDir(path, paths); err != nil {
				return err
			}
			continue
		}
		if !c.inProject(path) {
			continue
		}
		if k := c.kindOf(path); k == kindItem || k == kindGraph {
			*paths = append(*paths, path)
		}
	}
	return nil
}

// inProject rejects absolute paths and parent-directory escapes.
func (c *Catalog) inProject(path string) bool {
	if path == "" || strings.HasPrefix(path, "/") {
		return false
	}
	for _, seg := range strings.Split(path, "/") {
		if seg == ".." {
			return false
		}
	}
	return true
}

type pathKind int

const (
	kindNone pathKind = iota
	kindItem
	kindGraph
	kindType
)

// kindOf classifies a path by its suffix. Type entries are recognized
// but never returned from ListItemPaths.
func (c *Catalog) kindOf(path string) pathKind {
	for _, s := range c.options.GraphSuffixes {
		if strings.HasSuffix(path, s) {
			return kindGraph
		}
	}
	for _, s := range c.options.ItemSuffixes {
		if strings.HasSuffix(path, s) {
			return kindItem
		}
	}
	for _, s := range c.options.TypeSuffixes {
		if strings.HasSuffix(path, s) {
			return kindType
		}
	}
	return kindNone
}

// suffixOf returns the matched catalog suffix for display-name
// stripping, or "" if none matched.
func (c *Catalog) suffixOf(path string) string {
	all := make([]string, 0, len(c.options.GraphSuffixes)+len(c.options.ItemSuffixes)+len(c.options.TypeSuffixes))
	all = append(all, c.options.GraphSuffixes...)
	all = append(all, c.options.ItemSuffixes...)
	all = append(all, c.options.TypeSuffixes...)
	for _, s := range all {
		if strings.HasSuffix(path, s) {
			return s
		}
	}
	return ""
}

// itemDocument is the on-disk shape of a plain item.
type itemDocument struct {
	ID     string         `yaml:"id"`
	Name   string         `yaml:"name"`
	Type   string         `yaml:"type"`
	Origin string         `yaml:"origin"`
	Fields map[string]any `yaml:"fields"`
}

// graphDocument is the on-disk shape of a composite item.
type graphDocument struct {
	Origin string       `yaml:"origin"`
	Root   *object.Node `yaml:"root"`
}

// Load reads and parses one item by project-relative path.
//
// # Outputs
//
//   - *object.Item: The loaded item, never nil on success.
//   - error: Non-nil for unreadable, unparseable, or structurally
//     invalid items. Callers that scan treat any load error as zero
//     findings for the path, never as fatal.
func (c *Catalog) Load(path string) (*object.Item, error) {
	if !c.inProject(path) {
		return nil, fmt.Errorf("load %s: path outside project", path)
	}

	data, err := util.ReadFile(c.fs, path)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}

	switch c.kindOf(path) {
	case kindItem:
		return c.loadItem(path, data)
	case kindGraph:
		return c.loadGraph(path, data)
	default:
		return nil, fmt.Errorf("load %s: not a content item", path)
	}
}

func (c *Catalog) loadItem(path string, data []byte) (*object.Item, error) {
	var doc itemDocument
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}

	root := &object.Node{
		ID:     doc.ID,
		Name:   doc.Name,
		Type:   doc.Type,
		Fields: doc.Fields,
	}
	if root.Name == "" {
		root.Name = object.DisplayName(path, c.suffixOf(path))
	}
	if err := root.Validate(); err != nil {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}

	return &object.Item{
		Storage: object.StorageItem{
			Path: path,
			Name: object.DisplayName(path, c.suffixOf(path)),
			Kind: object.KindAsset,
		},
		Root:   root,
		Origin: doc.Origin,
	}, nil
}

func (c *Catalog) loadGraph(path string, data []byte) (*object.Item, error) {
	var doc graphDocument
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}
	if doc.Root == nil {
		return nil, fmt.Errorf("load %s: composite has no root node", path)
	}
	if err := doc.Root.Validate(); err != nil {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}

	return &object.Item{
		Storage: object.StorageItem{
			Path: path,
			Name: object.DisplayName(path, c.suffixOf(path)),
			Kind: object.KindComposite,
		},
		Root:   doc.Root,
		Origin: doc.Origin,
	}, nil
}
