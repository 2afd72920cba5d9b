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

import (
	"fmt"
	"strings"

	"github.com/go-git/go-billy/v5/util"
	"gopkg.in/yaml.v3"

	"github.com/AleutianAI/RefSweep/services/refsweep/object"
)

// TypeInfo describes one entry in the project type registry.
type TypeInfo struct {
	// Name is the registered type name.
	Name string `yaml:"name"`

	// Methods are the callable method names exposed by the type.
	Methods []string `yaml:"methods"`
}

// HasMethod reports whether the type exposes the named method.
func (t TypeInfo) HasMethod(name string) bool {
	for _, m := range t.Methods {
		if m == name {
			return true
		}
	}
	return false
}

// Index is the project-wide resolution index.
//
// It answers the two questions the walker asks: does an object with
// this id exist anywhere in the project, and does a type with this
// name exist (and what methods does it expose).
//
// The index covers every loadable item, including composites an
// exclusion policy later skips during scanning: references INTO an
// excluded composite still resolve.
//
// # Thread Safety
//
// Read-only after BuildIndex returns; safe for concurrent lookups.
type Index struct {
	objects     map[string]bool
	objectTypes map[string]string
	types       map[string]TypeInfo
}

// HasObject reports whether an object with the given id exists.
func (ix *Index) HasObject(id string) bool {
	return ix.objects[id]
}

// ObjectType returns the declared type name of an indexed object.
// Used for method-level callback resolution.
func (ix *Index) ObjectType(id string) (string, bool) {
	t, ok := ix.objectTypes[id]
	return t, ok && t != ""
}

// ResolveType looks up a registered type by name.
func (ix *Index) ResolveType(name string) (TypeInfo, bool) {
	t, ok := ix.types[name]
	return t, ok
}

// HasType reports whether a type with the given name is registered.
func (ix *Index) HasType(name string) bool {
	_, ok := ix.types[name]
	return ok
}

// MethodExists reports whether the named method is found on the
// registered type. An unregistered type has no provable method set,
// so every method on it is unresolvable.
func (ix *Index) MethodExists(typeName, method string) bool {
	t, ok := ix.types[typeName]
	return ok && t.HasMethod(method)
}

// ObjectCount returns the number of indexed object ids.
func (ix *Index) ObjectCount() int {
	return len(ix.objects)
}

// TypeCount returns the number of registered types.
func (ix *Index) TypeCount() int {
	return len(ix.types)
}

// IndexStats summarizes an index build.
type IndexStats struct {
	// ItemsIndexed is the number of items whose objects were indexed.
	ItemsIndexed int

	// ItemsFailed is the number of items that failed to load.
	// Failures are absorbed: the ids they would have contributed are
	// simply absent, which surfaces downstream as broken references.
	ItemsFailed int

	// TypesRegistered is the number of type registry entries loaded.
	TypesRegistered int
}

// BuildIndex walks the whole project and builds the resolution index.
//
// Per-file failures are absorbed and counted in the returned stats;
// only an enumeration failure of the filesystem itself is an error.
func (c *Catalog) BuildIndex() (*Index, IndexStats, error) {
	ix := &Index{
		objects:     make(map[string]bool),
		objectTypes: make(map[string]string),
		types:       make(map[string]TypeInfo),
	}
	var stats IndexStats

	paths, err := c.ListItemPaths()
	if err != nil {
		return nil, stats, fmt.Errorf("build index: %w", err)
	}

	for _, path := range paths {
		item, err := c.Load(path)
		if err != nil {
			stats.ItemsFailed++
			continue
		}
		item.Root.Walk(func(n *object.Node) {
			ix.objects[n.ID] = true
			ix.objectTypes[n.ID] = n.Type
		})
		stats.ItemsIndexed++
	}

	typePaths, err := c.listTypePaths()
	if err != nil {
		return nil, stats, fmt.Errorf("build index: %w", err)
	}
	for _, path := range typePaths {
		info, err := c.loadType(path)
		if err != nil {
			stats.ItemsFailed++
			continue
		}
		ix.types[info.Name] = info
		stats.TypesRegistered++
	}

	return ix, stats, nil
}

// listTypePaths enumerates type registry entries, sorted.
func (c *Catalog) listTypePaths() ([]string, error) {
	var all []string
	if err := c.walkAll("", &all); err != nil {
		return nil, err
	}
	var paths []string
	for _, p := range all {
		if c.kindOf(p) == kindType {
			paths = append(paths, p)
		}
	}
	return paths, nil
}

// walkAll collects every file path under dir, project-filtered.
func (c *Catalog) walkAll(dir string, paths *[]string) error {
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
			if err := c.walkAll(path, paths); err != nil {
				return err
			}
			continue
		}
		if c.inProject(path) {
			*paths = append(*paths, path)
		}
	}
	return nil
}

// loadType parses one type registry entry.
func (c *Catalog) loadType(path string) (TypeInfo, error) {
	data, err := util.ReadFile(c.fs, path)
	if err != nil {
		return TypeInfo{}, fmt.Errorf("load type %s: %w", path, err)
	}
	var info TypeInfo
	if err := yaml.Unmarshal(data, &info); err != nil {
		return TypeInfo{}, fmt.Errorf("load type %s: %w", path, err)
	}
	if strings.TrimSpace(info.Name) == "" {
		return TypeInfo{}, fmt.Errorf("load type %s: empty type name", path)
	}
	return info, nil
}
