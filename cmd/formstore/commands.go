package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"strconv"
	"text/tabwriter"

	"github.com/arkilian/formstore/internal/config"
	ferrors "github.com/arkilian/formstore/internal/errors"
	"github.com/arkilian/formstore/internal/instance"
	"github.com/arkilian/formstore/internal/kvstore"
	"github.com/arkilian/formstore/internal/observability"
	"github.com/arkilian/formstore/internal/query/translate"
	"github.com/arkilian/formstore/internal/registry"
	"github.com/arkilian/formstore/internal/rowstore"
	"github.com/arkilian/formstore/internal/schema"
	"github.com/arkilian/formstore/internal/storage"
	"go.uber.org/zap"
)

var errUsage = errors.New("usage")

// env carries the components shared by commands. Fields are opened lazily.
type env struct {
	cfg        *config.Config
	logger     *zap.Logger
	out        io.Writer
	stats      *observability.TranslationStats
	translator *translate.Translator
	registry   *registry.Registry
}

func run(ctx context.Context, cfg *config.Config, logger *zap.Logger, args []string, out io.Writer) error {
	if len(args) == 0 {
		return errUsage
	}
	stats := observability.NewTranslationStats(cfg.Translation.StatsWindow)
	e := &env{
		cfg:        cfg,
		logger:     logger,
		out:        out,
		stats:      stats,
		translator: translate.New(logger, stats),
	}

	cmd, rest := args[0], args[1:]
	switch cmd {
	case "flatten":
		if len(rest) != 1 {
			return errUsage
		}
		return e.flatten(rest[0])
	case "publish":
		if len(rest) != 2 {
			return errUsage
		}
		return e.publish(ctx, rest[0], rest[1])
	case "tables":
		return e.tables(ctx)
	case "translate":
		if len(rest) != 2 {
			return errUsage
		}
		return e.translate(ctx, rest[0], rest[1])
	case "insert":
		if len(rest) != 2 {
			return errUsage
		}
		return e.insert(ctx, rest[0], rest[1])
	case "query":
		if len(rest) < 1 {
			return errUsage
		}
		q := rowstore.Query{}
		if len(rest) > 1 {
			q.Selection = rest[1]
		}
		if len(rest) > 2 {
			q.OrderBy = rest[2]
		}
		for _, a := range rest[min(len(rest), 3):] {
			q.Args = append(q.Args, a)
		}
		return e.query(ctx, rest[0], q)
	case "kv-put":
		if len(rest) != 6 {
			return errUsage
		}
		return e.kvPut(ctx, kvstore.Entry{
			TableID: rest[0], Partition: rest[1], Aspect: rest[2], Key: rest[3], Type: rest[4],
		}, rest[5])
	case "kv-get":
		if len(rest) != 4 {
			return errUsage
		}
		return e.kvGet(ctx, kvstore.Entry{TableID: rest[0], Partition: rest[1], Aspect: rest[2], Key: rest[3]})
	default:
		return errUsage
	}
}

func (e *env) flatten(file string) error {
	data, err := os.ReadFile(file)
	if err != nil {
		return fmt.Errorf("failed to read definition: %w", err)
	}
	m, err := schema.DecodeAndBuild(data, schema.WithInstanceMetadata())
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(e.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "KEY\tPATH\tTYPE\tELEMENT TYPE\tRETAINED\tCHILDREN")
	for _, key := range m.Keys() {
		n, _ := m.Node(key)
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%t\t%v\n",
			key, n.ElementPath, n.TypeTag, n.ElementType, n.IsUnitOfRetention(), n.ListChildElementKeys)
	}
	fmt.Fprintf(w, "\nfingerprint\t%016x\n", m.Fingerprint())
	return w.Flush()
}

func (e *env) publish(ctx context.Context, tableID, file string) error {
	data, err := os.ReadFile(file)
	if err != nil {
		return fmt.Errorf("failed to read definition: %w", err)
	}
	reg, err := e.openRegistry(ctx)
	if err != nil {
		return err
	}

	// Publish always writes definition.yaml, so only its etag guards the write.
	etag := ""
	if _, err := reg.Load(ctx, tableID); err == nil {
		cur, _ := reg.Entry(tableID)
		if path.Base(cur.ObjectPath) == "definition.yaml" {
			etag = cur.ETag
		}
	} else if ferrors.GetCode(err) != ferrors.CodeObjectNotFound {
		return err
	}

	m, err := reg.Publish(ctx, tableID, data, etag)
	if err != nil {
		return err
	}
	fmt.Fprintf(e.out, "published %s: %d keys, %d columns, fingerprint %016x\n",
		tableID, m.Len(), len(m.RetainedKeys()), m.Fingerprint())
	return nil
}

func (e *env) tables(ctx context.Context) error {
	reg, err := e.openRegistry(ctx)
	if err != nil {
		return err
	}
	loaded, err := reg.LoadAll(ctx)
	for _, id := range loaded {
		fmt.Fprintln(e.out, id)
	}
	return err
}

func (e *env) translate(ctx context.Context, tableID, expr string) error {
	m, err := e.model(ctx, tableID)
	if err != nil {
		return err
	}
	got, err := e.translator.Translate(m, expr)
	if err != nil {
		return err
	}
	fmt.Fprintln(e.out, got)
	return nil
}

func (e *env) insert(ctx context.Context, tableID, file string) error {
	data, err := os.ReadFile(file)
	if err != nil {
		return fmt.Errorf("failed to read instance: %w", err)
	}
	var doc struct {
		Data     map[string]any `json:"data"`
		Metadata map[string]any `json:"metadata"`
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("failed to parse instance: %w", err)
	}

	m, err := e.model(ctx, tableID)
	if err != nil {
		return err
	}
	rows, err := e.openRows(ctx, tableID, m)
	if err != nil {
		return err
	}
	defer rows.Close()

	id, err := rows.Insert(ctx, tableID, m, &instance.Instance{Data: doc.Data, Metadata: doc.Metadata})
	if err != nil {
		return err
	}
	fmt.Fprintln(e.out, id)
	return nil
}

func (e *env) query(ctx context.Context, tableID string, q rowstore.Query) error {
	m, err := e.model(ctx, tableID)
	if err != nil {
		return err
	}
	rows, err := e.openRows(ctx, tableID, m)
	if err != nil {
		return err
	}
	defer rows.Close()

	found, err := rows.Query(ctx, tableID, m, q)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(e.out)
	for _, inst := range found {
		if err := enc.Encode(map[string]any{"data": inst.Data, "metadata": inst.Metadata}); err != nil {
			return err
		}
	}
	return nil
}

func (e *env) kvPut(ctx context.Context, entry kvstore.Entry, value string) error {
	kv, err := e.openKV(ctx)
	if err != nil {
		return err
	}
	defer kv.Close()
	return kv.Put(ctx, entry, value)
}

func (e *env) kvGet(ctx context.Context, entry kvstore.Entry) error {
	kv, err := e.openKV(ctx)
	if err != nil {
		return err
	}
	defer kv.Close()

	v, typ, err := kv.Get(ctx, entry)
	if err != nil {
		return err
	}
	fmt.Fprintf(e.out, "%s\t%s\n", typ, formatValue(v))
	return nil
}

func (e *env) model(ctx context.Context, tableID string) (*schema.Model, error) {
	reg, err := e.openRegistry(ctx)
	if err != nil {
		return nil, err
	}
	return reg.Load(ctx, tableID)
}

func (e *env) openRegistry(ctx context.Context) (*registry.Registry, error) {
	if e.registry != nil {
		return e.registry, nil
	}
	store, err := openStorage(ctx, e.cfg)
	if err != nil {
		return nil, err
	}
	e.registry = registry.New(store, e.cfg.Definitions.Prefix, e.logger)
	return e.registry, nil
}

func (e *env) openRows(ctx context.Context, tableID string, m *schema.Model) (*rowstore.Store, error) {
	if err := e.cfg.EnsureDirectories(); err != nil {
		return nil, err
	}
	rows, err := rowstore.Open(e.cfg.Store.DatabasePath, e.translator, e.logger)
	if err != nil {
		return nil, err
	}
	if err := rows.EnsureTable(ctx, tableID, m); err != nil {
		rows.Close()
		return nil, err
	}
	return rows, nil
}

func (e *env) openKV(ctx context.Context) (*kvstore.Store, error) {
	if err := e.cfg.EnsureDirectories(); err != nil {
		return nil, err
	}
	return kvstore.Open(ctx, e.cfg.Store.KVDatabasePath, e.logger)
}

// openStorage creates the definition storage named by the configuration.
func openStorage(ctx context.Context, cfg *config.Config) (storage.ObjectStorage, error) {
	switch cfg.Storage.Type {
	case "s3":
		s3cfg := storage.DefaultS3Config()
		if cfg.Storage.S3.Region != "" {
			s3cfg.Region = cfg.Storage.S3.Region
		}
		s3cfg.Endpoint = cfg.Storage.S3.Endpoint
		s3cfg.UsePathStyle = cfg.Storage.S3.UsePathStyle
		return storage.NewS3Storage(ctx, cfg.Storage.S3.Bucket, s3cfg)
	default:
		return storage.NewLocalStorage(cfg.Storage.Path)
	}
}

func formatValue(v any) string {
	switch x := v.(type) {
	case nil:
		return "null"
	case string:
		return x
	case int64:
		return strconv.FormatInt(x, 10)
	case float64:
		return strconv.FormatFloat(x, 'g', -1, 64)
	case bool:
		return strconv.FormatBool(x)
	default:
		return fmt.Sprint(x)
	}
}
