// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package walker

import (
	"fmt"
	"sort"

	"github.com/AleutianAI/RefSweep/services/refsweep/object"
)

// refSlot recognizes an object reference slot: {"$ref": "<id>"}.
func refSlot(m map[string]any) (string, bool) {
	v, ok := m[object.KeyRef]
	if !ok {
		return "", false
	}
	return asString(v), true
}

// typeSlot recognizes a type slot: {"$type": "<name>"}.
func typeSlot(m map[string]any) (string, bool) {
	v, ok := m[object.KeyType]
	if !ok {
		return "", false
	}
	return asString(v), true
}

// callbackSlot recognizes a callback slot:
// {"$target": "<id>", "$method": "<name>"}.
func callbackSlot(m map[string]any) (target, method string, ok bool) {
	t, hasTarget := m[object.KeyTarget]
	if !hasTarget {
		return "", "", false
	}
	return asString(t), asString(m[object.KeyMethod]), true
}

// asString coerces a decoded YAML scalar to a string.
// Non-string values in a slot position are formatted so they still
// fail resolution visibly rather than disappearing.
func asString(v any) string {
	switch s := v.(type) {
	case nil:
		return ""
	case string:
		return s
	default:
		return fmt.Sprintf("%v", s)
	}
}

// sortedKeys returns the map's keys in lexicographic order.
func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// sortedAnyKeys returns non-string map keys in stable formatted order.
func sortedAnyKeys(m map[any]any) []any {
	keys := make([]any, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		return fmt.Sprintf("%v", keys[i]) < fmt.Sprintf("%v", keys[j])
	})
	return keys
}
