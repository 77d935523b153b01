// Package rowstore stores form instances in SQLite, one table per model and
// one column per unit of retention.
//
// Values cross the package boundary in interface form. Each retained value
// is refined to element-type form and written in serialized form; reads run
// the same conversions in reverse and rebuild nested instances.
package rowstore

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/arkilian/formstore/internal/codec"
	"github.com/arkilian/formstore/internal/elementpath"
	ferrors "github.com/arkilian/formstore/internal/errors"
	"github.com/arkilian/formstore/internal/instance"
	"github.com/arkilian/formstore/internal/query/translate"
	"github.com/arkilian/formstore/internal/schema"
	"github.com/arkilian/formstore/pkg/types"
	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"
)

const (
	idKey        = "_id"
	savepointKey = "_savepoint_timestamp"
)

// Store is a SQLite-backed instance store.
type Store struct {
	db         *sql.DB
	codec      *codec.Codec
	translator *translate.Translator
	logger     *zap.Logger
}

// Query selects instances. Selection and OrderBy are written against element
// paths and translated to column names; Args bind the "?" placeholders of
// Selection.
type Query struct {
	Selection string
	Args      []any
	OrderBy   string
	Limit     int
}

// Open opens or creates the database at dbPath.
func Open(dbPath string, translator *translate.Translator, logger *zap.Logger) (*Store, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if translator == nil {
		translator = translate.New(logger, nil)
	}

	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, ferrors.NewStorageError(ferrors.CodeWriteFailed, "rowstore: failed to open database", err)
	}
	db.SetMaxOpenConns(1) // Single writer
	db.SetMaxIdleConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, ferrors.NewStorageError(ferrors.CodeWriteFailed, "rowstore: failed to open database", err)
	}

	return &Store{
		db:         db,
		codec:      codec.New(logger),
		translator: translator.StoredOnly(),
		logger:     logger,
	}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// EnsureTable creates the table for m, or adds the columns m retains that an
// existing table lacks. Columns are never dropped.
func (s *Store) EnsureTable(ctx context.Context, tableID string, m *schema.Model) error {
	if err := checkTable(tableID, m); err != nil {
		return err
	}

	existing, err := s.columns(ctx, tableID)
	if err != nil {
		return err
	}

	keys := m.RetainedKeys()
	if len(existing) == 0 {
		defs := make([]string, 0, len(keys))
		for _, key := range keys {
			n, _ := m.Node(key)
			def := quoteIdent(key) + " " + affinity(n)
			if key == idKey {
				def += " PRIMARY KEY NOT NULL"
			}
			defs = append(defs, def)
		}
		stmt := fmt.Sprintf("CREATE TABLE %s (%s)", quoteIdent(tableID), strings.Join(defs, ", "))
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return ferrors.NewStorageError(ferrors.CodeWriteFailed, "rowstore: failed to create table", err)
		}
		s.logger.Info("table created", zap.String("table", tableID), zap.Int("columns", len(keys)))
		return nil
	}

	for _, key := range keys {
		if existing[key] {
			continue
		}
		n, _ := m.Node(key)
		stmt := fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s %s", quoteIdent(tableID), quoteIdent(key), affinity(n))
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return ferrors.NewStorageError(ferrors.CodeWriteFailed, "rowstore: failed to add column", err)
		}
		s.logger.Info("column added", zap.String("table", tableID), zap.String("column", key))
	}
	return nil
}

// Insert writes inst as a new row and returns its id. A missing id is
// generated and a missing savepoint timestamp is set to now; both are
// recorded in inst.Metadata.
func (s *Store) Insert(ctx context.Context, tableID string, m *schema.Model, inst *instance.Instance) (string, error) {
	if err := checkTable(tableID, m); err != nil {
		return "", err
	}
	if inst.Metadata == nil {
		inst.Metadata = make(map[string]any)
	}
	if id, _ := inst.Metadata["id"].(string); id == "" {
		inst.Metadata["id"] = "uuid:" + uuid.NewString()
	}
	if _, ok := m.Node(savepointKey); ok && inst.Metadata["savepoint_timestamp"] == nil {
		inst.Metadata["savepoint_timestamp"] = codec.FormatTimestamp(time.Now())
	}

	keys := m.RetainedKeys()
	cols := make([]string, 0, len(keys))
	marks := make([]string, 0, len(keys))
	args := make([]any, 0, len(keys))
	for _, key := range keys {
		n, _ := m.Node(key)
		tree := inst.Data
		if n.ElementSet == types.ElementSetInstanceMetadata {
			tree = inst.Metadata
		}
		v, err := s.serialize(n, instance.ElementPathValue(tree, n.ElementPath))
		if err != nil {
			return "", err
		}
		cols = append(cols, quoteIdent(key))
		marks = append(marks, "?")
		args = append(args, v)
	}

	stmt := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		quoteIdent(tableID), strings.Join(cols, ", "), strings.Join(marks, ", "))
	if _, err := s.db.ExecContext(ctx, stmt, args...); err != nil {
		return "", ferrors.NewStorageError(ferrors.CodeWriteFailed, "rowstore: failed to insert row", err)
	}

	id := inst.Metadata["id"].(string)
	s.logger.Debug("row inserted", zap.String("table", tableID), zap.String("id", id))
	return id, nil
}

// Query returns the instances matching q, in interface form.
func (s *Store) Query(ctx context.Context, tableID string, m *schema.Model, q Query) ([]*instance.Instance, error) {
	if err := checkTable(tableID, m); err != nil {
		return nil, err
	}

	where, err := s.translator.Selection(m, q.Selection)
	if err != nil {
		return nil, err
	}
	orderBy, err := s.translator.OrderBy(m, q.OrderBy)
	if err != nil {
		return nil, err
	}

	keys := m.RetainedKeys()
	cols := make([]string, len(keys))
	for i, key := range keys {
		cols[i] = quoteIdent(key)
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "SELECT %s FROM %s", strings.Join(cols, ", "), quoteIdent(tableID))
	if where != "" {
		sb.WriteString(" WHERE ")
		sb.WriteString(where)
	}
	if orderBy != "" {
		sb.WriteString(" ORDER BY ")
		sb.WriteString(orderBy)
	}
	if q.Limit > 0 {
		fmt.Fprintf(&sb, " LIMIT %d", q.Limit)
	}

	rows, err := s.db.QueryContext(ctx, sb.String(), q.Args...)
	if err != nil {
		return nil, ferrors.NewStorageError(ferrors.CodeReadFailed, "rowstore: query failed", err)
	}
	defer rows.Close()

	var out []*instance.Instance
	for rows.Next() {
		raw := make([]any, len(keys))
		ptrs := make([]any, len(keys))
		for i := range raw {
			ptrs[i] = &raw[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, ferrors.NewStorageError(ferrors.CodeReadFailed, "rowstore: failed to scan row", err)
		}

		updates := make(map[string]instance.Update, len(keys))
		for i, key := range keys {
			n, _ := m.Node(key)
			v, err := s.deserialize(n, raw[i])
			if err != nil {
				return nil, err
			}
			if v == nil {
				continue
			}
			updates[key] = instance.Update{Value: v}
		}

		inst := instance.New()
		if err := instance.Reconstruct(m, inst, updates); err != nil {
			return nil, err
		}
		out = append(out, inst)
	}
	if err := rows.Err(); err != nil {
		return nil, ferrors.NewStorageError(ferrors.CodeReadFailed, "rowstore: query failed", err)
	}
	return out, nil
}

// Get returns the instance with the given id.
func (s *Store) Get(ctx context.Context, tableID string, m *schema.Model, id string) (*instance.Instance, error) {
	found, err := s.Query(ctx, tableID, m, Query{Selection: idKey + " = ?", Args: []any{id}, Limit: 1})
	if err != nil {
		return nil, err
	}
	if len(found) == 0 {
		return nil, ferrors.NewStorageError(ferrors.CodeObjectNotFound,
			fmt.Sprintf("rowstore: no row %q in %s", id, tableID), nil)
	}
	return found[0], nil
}

// Delete removes the rows matching selection and returns how many were removed.
func (s *Store) Delete(ctx context.Context, tableID string, m *schema.Model, selection string, args ...any) (int64, error) {
	if err := checkTable(tableID, m); err != nil {
		return 0, err
	}
	where, err := s.translator.Selection(m, selection)
	if err != nil {
		return 0, err
	}

	stmt := "DELETE FROM " + quoteIdent(tableID)
	if where != "" {
		stmt += " WHERE " + where
	}
	res, err := s.db.ExecContext(ctx, stmt, args...)
	if err != nil {
		return 0, ferrors.NewStorageError(ferrors.CodeWriteFailed, "rowstore: failed to delete rows", err)
	}
	return res.RowsAffected()
}

// serialize converts an interface-form value to what its column holds.
func (s *Store) serialize(n *types.Node, v any) (any, error) {
	canonical, err := s.codec.FromInterface(n, v)
	if err != nil {
		return nil, err
	}
	if canonical == nil {
		return nil, nil
	}
	return s.codec.ToSerialized(n, canonical)
}

// deserialize converts a scanned column value to interface form. SQLite's
// numeric affinities hand back int64 and float64; serialized form is text.
func (s *Store) deserialize(n *types.Node, raw any) (any, error) {
	var text any
	switch x := raw.(type) {
	case nil:
		return nil, nil
	case int64:
		text = strconv.FormatInt(x, 10)
	case float64:
		text = strconv.FormatFloat(x, 'g', -1, 64)
	case []byte:
		text = string(x)
	default:
		text = x
	}
	canonical, err := s.codec.FromSerialized(n, text)
	if err != nil {
		return nil, err
	}
	if canonical == nil {
		return nil, nil
	}
	return s.codec.ToInterface(n, canonical)
}

func (s *Store) columns(ctx context.Context, tableID string) (map[string]bool, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT name FROM pragma_table_info(?)", tableID)
	if err != nil {
		return nil, ferrors.NewStorageError(ferrors.CodeReadFailed, "rowstore: failed to read table info", err)
	}
	defer rows.Close()

	cols := make(map[string]bool)
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, ferrors.NewStorageError(ferrors.CodeReadFailed, "rowstore: failed to read table info", err)
		}
		cols[name] = true
	}
	return cols, rows.Err()
}

// affinity returns the column type for a retained node. Integer and number
// columns get numeric affinity so selections compare them numerically.
func affinity(n *types.Node) string {
	switch n.Kind {
	case types.KindInteger:
		return "INTEGER"
	case types.KindNumber:
		return "REAL"
	default:
		return "TEXT"
	}
}

func checkTable(tableID string, m *schema.Model) error {
	if !elementpath.IsValidName(tableID) {
		return ferrors.NewSchemaError(ferrors.CodeInvalidElementPath,
			fmt.Sprintf("rowstore: invalid table name %q", tableID))
	}
	if _, ok := m.Node(idKey); !ok {
		return ferrors.NewSchemaError(ferrors.CodeMalformedDefinition,
			"rowstore: model has no instance metadata columns")
	}
	return nil
}

func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}
