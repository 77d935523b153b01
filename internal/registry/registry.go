// Package registry publishes flattened table models by table id.
//
// Definitions live in object storage at <prefix>/<tableID>/definition.yaml
// (or definition.json). Each load builds a new immutable Model and swaps it
// into a copy-on-write map, so readers never lock and never observe a model
// that is still being built. Publishers are serialized.
package registry

import (
	"context"
	"fmt"
	"path"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/arkilian/formstore/internal/elementpath"
	ferrors "github.com/arkilian/formstore/internal/errors"
	"github.com/arkilian/formstore/internal/schema"
	"github.com/arkilian/formstore/internal/storage"
	"go.uber.org/zap"
)

// Definition object names tried, in order, under each table directory.
var definitionNames = []string{"definition.yaml", "definition.json"}

// Entry is one published model.
type Entry struct {
	TableID     string
	Model       *schema.Model
	Fingerprint uint64
	ObjectPath  string
	ETag        string
	LoadedAt    time.Time
}

// Registry holds the current model of every loaded table.
type Registry struct {
	store  storage.ObjectStorage
	prefix string
	logger *zap.Logger

	mu      sync.Mutex // serializes publishers
	entries atomic.Pointer[map[string]*Entry]
}

// New creates a registry reading definitions from store under prefix.
func New(store storage.ObjectStorage, prefix string, logger *zap.Logger) *Registry {
	if logger == nil {
		logger = zap.NewNop()
	}
	r := &Registry{
		store:  store,
		prefix: strings.Trim(prefix, "/"),
		logger: logger,
	}
	empty := make(map[string]*Entry)
	r.entries.Store(&empty)
	return r
}

// Get returns the current model for tableID.
func (r *Registry) Get(tableID string) (*schema.Model, bool) {
	e, ok := r.Entry(tableID)
	if !ok {
		return nil, false
	}
	return e.Model, true
}

// Entry returns the current entry for tableID.
func (r *Registry) Entry(tableID string) (*Entry, bool) {
	e, ok := (*r.entries.Load())[tableID]
	return e, ok
}

// Tables returns the loaded table ids, sorted.
func (r *Registry) Tables() []string {
	m := *r.entries.Load()
	out := make([]string, 0, len(m))
	for id := range m {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// Load fetches and builds the definition of tableID, then publishes it.
// When the rebuilt model has the same fingerprint as the published one, the
// published model is kept and returned.
func (r *Registry) Load(ctx context.Context, tableID string) (*schema.Model, error) {
	if err := checkTableID(tableID); err != nil {
		return nil, err
	}

	data, objectPath, etag, err := r.fetch(ctx, tableID)
	if err != nil {
		return nil, err
	}
	return r.install(tableID, data, objectPath, etag)
}

// LoadAll loads every table that has a definition under the prefix and
// returns the ids loaded. A table that fails to build is logged and skipped;
// the first such error is returned with the ids that did load.
func (r *Registry) LoadAll(ctx context.Context) ([]string, error) {
	objects, err := r.store.ListObjects(ctx, r.prefix)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool)
	var ids []string
	for _, obj := range objects {
		rel := strings.TrimPrefix(strings.TrimPrefix(obj, r.prefix), "/")
		dir, name := path.Split(rel)
		dir = strings.Trim(dir, "/")
		if dir == "" || strings.Contains(dir, "/") || !isDefinitionName(name) || seen[dir] {
			continue
		}
		seen[dir] = true
		ids = append(ids, dir)
	}
	sort.Strings(ids)

	var firstErr error
	loaded := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, err := r.Load(ctx, id); err != nil {
			r.logger.Error("failed to load table definition",
				zap.String("tableID", id), zap.Error(err))
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		loaded = append(loaded, id)
	}
	return loaded, firstErr
}

// Publish validates a definition document, writes it to storage as
// definition.yaml and publishes the built model. An invalid definition is
// rejected before anything is written. expectedETag guards against
// concurrent writers; empty means the table must not exist yet.
func (r *Registry) Publish(ctx context.Context, tableID string, data []byte, expectedETag string) (*schema.Model, error) {
	if err := checkTableID(tableID); err != nil {
		return nil, err
	}
	if _, err := schema.DecodeAndBuild(data, schema.WithInstanceMetadata()); err != nil {
		return nil, err
	}

	objectPath := r.objectPath(tableID, definitionNames[0])
	etag, err := r.store.ConditionalPut(ctx, objectPath, data, expectedETag)
	if err != nil {
		return nil, err
	}
	return r.install(tableID, data, objectPath, etag)
}

// Remove unpublishes tableID. Storage is left untouched.
func (r *Registry) Remove(tableID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	cur := *r.entries.Load()
	if _, ok := cur[tableID]; !ok {
		return
	}
	next := make(map[string]*Entry, len(cur))
	for id, e := range cur {
		if id != tableID {
			next[id] = e
		}
	}
	r.entries.Store(&next)
	r.logger.Info("table definition removed", zap.String("tableID", tableID))
}

func (r *Registry) fetch(ctx context.Context, tableID string) ([]byte, string, string, error) {
	for _, name := range definitionNames {
		objectPath := r.objectPath(tableID, name)
		data, etag, err := r.store.Get(ctx, objectPath)
		if err == nil {
			return data, objectPath, etag, nil
		}
		if ferrors.GetCode(err) != ferrors.CodeObjectNotFound {
			return nil, "", "", err
		}
	}
	return nil, "", "", ferrors.NewStorageError(ferrors.CodeObjectNotFound,
		fmt.Sprintf("no definition for table %q", tableID), storage.ErrObjectNotFound)
}

func (r *Registry) install(tableID string, data []byte, objectPath, etag string) (*schema.Model, error) {
	m, err := schema.DecodeAndBuild(data, schema.WithInstanceMetadata())
	if err != nil {
		r.logger.Error("invalid table definition",
			zap.String("tableID", tableID),
			zap.String("object", objectPath),
			zap.Error(err))
		return nil, err
	}
	fp := m.Fingerprint()

	r.mu.Lock()
	defer r.mu.Unlock()

	cur := *r.entries.Load()
	unchanged := false
	if prev, ok := cur[tableID]; ok && prev.Fingerprint == fp {
		if prev.ETag == etag && prev.ObjectPath == objectPath {
			r.logger.Debug("table definition unchanged",
				zap.String("tableID", tableID),
				zap.Uint64("fingerprint", fp))
			return prev.Model, nil
		}
		// same model under a new object version
		m = prev.Model
		unchanged = true
	}

	next := make(map[string]*Entry, len(cur)+1)
	for id, e := range cur {
		next[id] = e
	}
	next[tableID] = &Entry{
		TableID:     tableID,
		Model:       m,
		Fingerprint: fp,
		ObjectPath:  objectPath,
		ETag:        etag,
		LoadedAt:    time.Now(),
	}
	r.entries.Store(&next)

	if unchanged {
		return m, nil
	}
	r.logger.Info("table definition published",
		zap.String("tableID", tableID),
		zap.String("object", objectPath),
		zap.Int("keys", m.Len()),
		zap.Uint64("fingerprint", fp))
	return m, nil
}

func (r *Registry) objectPath(tableID, name string) string {
	if r.prefix == "" {
		return path.Join(tableID, name)
	}
	return path.Join(r.prefix, tableID, name)
}

func isDefinitionName(name string) bool {
	for _, n := range definitionNames {
		if n == name {
			return true
		}
	}
	return false
}

// Table ids double as SQL table names, so they follow element name rules.
func checkTableID(tableID string) error {
	if !elementpath.IsValidName(tableID) {
		return ferrors.NewSchemaError(ferrors.CodeInvalidElementPath,
			fmt.Sprintf("invalid table id %q", tableID))
	}
	return nil
}
