// Package instance rebuilds nested row values from flat per-column updates.
package instance

import (
	"fmt"
	"sort"
	"strings"

	"github.com/arkilian/formstore/internal/elementpath"
	ferrors "github.com/arkilian/formstore/internal/errors"
	"github.com/arkilian/formstore/internal/schema"
	"github.com/arkilian/formstore/pkg/types"
)

// Instance is one row as nested trees: the data tree follows the schema and
// the metadata tree holds the instance metadata columns.
type Instance struct {
	Data     map[string]any
	Metadata map[string]any
}

// New returns an empty instance.
func New() *Instance {
	return &Instance{
		Data:     make(map[string]any),
		Metadata: make(map[string]any),
	}
}

// Update is the new value of one storage key. ElementPath is used only when
// the schema node carries none.
type Update struct {
	ElementPath string
	Value       any
}

// Reconstruct applies updates, keyed by storage key, to inst. Updates for
// nodes that are not units of retention are skipped: their values are part
// of an ancestor's serialized value. Keys are applied in sorted order.
func Reconstruct(m *schema.Model, inst *Instance, updates map[string]Update) error {
	keys := make([]string, 0, len(updates))
	for k := range updates {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, key := range keys {
		u := updates[key]
		n, ok := m.Node(key)
		if !ok {
			return ferrors.NewValueError(ferrors.CodeUnknownElementKey,
				fmt.Sprintf("no schema node for elementKey %q", key))
		}
		if !n.IsUnitOfRetention() {
			continue
		}

		path := n.ElementPath
		if path == "" {
			path = u.ElementPath
		}
		if n.ElementSet == types.ElementSetInstanceMetadata {
			if path == "" {
				path = key
			}
			if inst.Metadata == nil {
				inst.Metadata = make(map[string]any)
			}
			if err := SetElementPathValue(inst.Metadata, path, u.Value); err != nil {
				return err
			}
			continue
		}
		if inst.Data == nil {
			inst.Data = make(map[string]any)
		}
		if err := SetElementPathValue(inst.Data, path, u.Value); err != nil {
			return err
		}
	}
	return nil
}

// SetElementPathValue assigns value at the dot-separated path in tree,
// creating intermediate objects as needed.
func SetElementPathValue(tree map[string]any, path string, value any) error {
	segments := strings.Split(path, elementpath.Separator)
	e := tree
	for i, term := range segments {
		if term == "" {
			return ferrors.NewValueError(ferrors.CodeEmptyPathSegment,
				fmt.Sprintf("unexpected empty string in dot-separated variable name %q", path))
		}
		if i == len(segments)-1 {
			e[term] = value
			return nil
		}
		next, exists := e[term]
		if !exists || next == nil {
			child := make(map[string]any)
			e[term] = child
			e = child
			continue
		}
		child, ok := next.(map[string]any)
		if !ok {
			return ferrors.NewValueError(ferrors.CodeUnrecognizedShape,
				fmt.Sprintf("'%s' in %q is not an object", term, path))
		}
		e = child
	}
	return nil
}

// ElementPathValue returns the value at the dot-separated path in tree, or
// nil when any step is absent.
func ElementPathValue(tree map[string]any, path string) any {
	var v any = tree
	for _, term := range strings.Split(path, elementpath.Separator) {
		m, ok := v.(map[string]any)
		if !ok {
			return nil
		}
		v = m[term]
		if v == nil {
			return nil
		}
	}
	return v
}

// ResolvePair finds the most specific entry of values, keyed by element path
// in dot or underscore form, that covers path, then descends into that
// entry's composite value for the remaining segments. It returns the value
// found (nil when the descent runs out), the matched name and whether any
// entry matched.
func ResolvePair(values map[string]any, path string) (any, string, bool) {
	segments := elementpath.Split(path)
	for _, cand := range elementpath.Candidates(path) {
		v, ok := values[cand.Name]
		if !ok || v == nil {
			continue
		}
		for _, term := range segments[cand.Depth:] {
			m, isMap := v.(map[string]any)
			if !isMap {
				v = nil
				break
			}
			v = m[term]
			if v == nil {
				break
			}
		}
		return v, cand.Name, true
	}
	return nil, "", false
}
