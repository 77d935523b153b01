// Package kvstore is the legacy key/value store of table properties.
//
// Every entry is addressed by table id, partition, aspect and key, carries
// the type tag of its value, and stores the value as Snappy-compressed text.
// Reads decode the text through the codec's key/value-store conversion.
package kvstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"

	"github.com/arkilian/formstore/internal/codec"
	ferrors "github.com/arkilian/formstore/internal/errors"
	"github.com/arkilian/formstore/pkg/types"
	"github.com/golang/snappy"
	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"
)

const createTableSQL = `
	CREATE TABLE IF NOT EXISTS kv_store (
		table_id TEXT NOT NULL,
		partition_name TEXT NOT NULL,
		aspect TEXT NOT NULL,
		entry_key TEXT NOT NULL,
		type TEXT NOT NULL,
		value BLOB,
		PRIMARY KEY (table_id, partition_name, aspect, entry_key)
	) WITHOUT ROWID
`

// Entry addresses one stored property.
type Entry struct {
	TableID   string
	Partition string
	Aspect    string
	Key       string
	Type      string
}

// Store is a SQLite-backed key/value store.
type Store struct {
	db     *sql.DB
	codec  *codec.Codec
	logger *zap.Logger
}

// Open opens or creates the store at dbPath.
func Open(ctx context.Context, dbPath string, logger *zap.Logger) (*Store, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, ferrors.NewStorageError(ferrors.CodeWriteFailed, "kvstore: failed to open database", err)
	}
	db.SetMaxOpenConns(1) // Single writer
	db.SetMaxIdleConns(1)

	if _, err := db.ExecContext(ctx, createTableSQL); err != nil {
		db.Close()
		return nil, ferrors.NewStorageError(ferrors.CodeWriteFailed, "kvstore: failed to create table", err)
	}

	return &Store{db: db, codec: codec.New(logger), logger: logger}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Put stores value under e. The value is written as text: strings as is,
// booleans as "true"/"false", numbers in their shortest decimal form, and
// byte slices verbatim. A nil value stores NULL. Empty text is rejected
// since it cannot be read back.
func (s *Store) Put(ctx context.Context, e Entry, value any) error {
	var blob []byte
	if value != nil {
		text, err := toStoredText(value)
		if err != nil {
			return err
		}
		if text == "" {
			return ferrors.NewValueError(ferrors.CodeEmptyString,
				fmt.Sprintf("kvstore: empty value for %s/%s/%s/%s", e.TableID, e.Partition, e.Aspect, e.Key))
		}
		blob = snappy.Encode(nil, []byte(text))
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO kv_store (table_id, partition_name, aspect, entry_key, type, value)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (table_id, partition_name, aspect, entry_key)
		DO UPDATE SET type = excluded.type, value = excluded.value`,
		e.TableID, e.Partition, e.Aspect, e.Key, e.Type, blob)
	if err != nil {
		return ferrors.NewStorageError(ferrors.CodeWriteFailed, "kvstore: failed to put entry", err)
	}
	return nil
}

// Get returns the element-type value stored under the address of e, decoded
// by the stored type tag, together with that tag. e.Type is ignored.
func (s *Store) Get(ctx context.Context, e Entry) (any, string, error) {
	var typeTag string
	var blob []byte
	err := s.db.QueryRowContext(ctx, `
		SELECT type, value FROM kv_store
		WHERE table_id = ? AND partition_name = ? AND aspect = ? AND entry_key = ?`,
		e.TableID, e.Partition, e.Aspect, e.Key).Scan(&typeTag, &blob)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, "", ferrors.NewStorageError(ferrors.CodeObjectNotFound,
			fmt.Sprintf("kvstore: no entry %s/%s/%s/%s", e.TableID, e.Partition, e.Aspect, e.Key), nil)
	}
	if err != nil {
		return nil, "", ferrors.NewStorageError(ferrors.CodeReadFailed, "kvstore: failed to get entry", err)
	}

	v, err := s.decode(typeTag, e.Key, blob)
	if err != nil {
		return nil, "", err
	}
	return v, typeTag, nil
}

// List returns the entries of a table partition and aspect with their
// decoded values. Empty partition or aspect match all.
func (s *Store) List(ctx context.Context, tableID, partition, aspect string) (map[Entry]any, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT partition_name, aspect, entry_key, type, value FROM kv_store
		WHERE table_id = ? AND (? = '' OR partition_name = ?) AND (? = '' OR aspect = ?)`,
		tableID, partition, partition, aspect, aspect)
	if err != nil {
		return nil, ferrors.NewStorageError(ferrors.CodeReadFailed, "kvstore: failed to list entries", err)
	}
	defer rows.Close()

	out := make(map[Entry]any)
	for rows.Next() {
		e := Entry{TableID: tableID}
		var blob []byte
		if err := rows.Scan(&e.Partition, &e.Aspect, &e.Key, &e.Type, &blob); err != nil {
			return nil, ferrors.NewStorageError(ferrors.CodeReadFailed, "kvstore: failed to scan entry", err)
		}
		v, err := s.decode(e.Type, e.Key, blob)
		if err != nil {
			s.logger.Warn("skipping undecodable entry",
				zap.String("tableID", tableID),
				zap.String("key", e.Key),
				zap.String("type", e.Type),
				zap.Error(err))
			continue
		}
		out[e] = v
	}
	if err := rows.Err(); err != nil {
		return nil, ferrors.NewStorageError(ferrors.CodeReadFailed, "kvstore: failed to list entries", err)
	}
	return out, nil
}

// Delete removes the entry at the address of e.
func (s *Store) Delete(ctx context.Context, e Entry) error {
	_, err := s.db.ExecContext(ctx, `
		DELETE FROM kv_store
		WHERE table_id = ? AND partition_name = ? AND aspect = ? AND entry_key = ?`,
		e.TableID, e.Partition, e.Aspect, e.Key)
	if err != nil {
		return ferrors.NewStorageError(ferrors.CodeWriteFailed, "kvstore: failed to delete entry", err)
	}
	return nil
}

func (s *Store) decode(typeTag, key string, blob []byte) (any, error) {
	n := types.NewLeaf(typeTag)
	n.ElementKey = key
	if blob == nil {
		return s.codec.FromKVStore(n, nil)
	}
	text, err := snappy.Decode(nil, blob)
	if err != nil {
		return nil, ferrors.NewStorageError(ferrors.CodeReadFailed, "kvstore: corrupt value", err)
	}
	return s.codec.FromKVStore(n, string(text))
}

func toStoredText(v any) (string, error) {
	switch x := v.(type) {
	case string:
		return x, nil
	case []byte:
		return string(x), nil
	case bool:
		return strconv.FormatBool(x), nil
	case int:
		return strconv.Itoa(x), nil
	case int64:
		return strconv.FormatInt(x, 10), nil
	case float64:
		return strconv.FormatFloat(x, 'g', -1, 64), nil
	}
	return "", ferrors.NewValueError(ferrors.CodeUnrecognizedShape,
		fmt.Sprintf("kvstore: unsupported value type %T", v))
}
