// Package translate rewrites caller-authored selection and order-by strings,
// replacing element path tokens with the quoted storage keys they resolve to.
//
// Only identifier tokens are rewritten. Operators, literals and "?" bind
// placeholders are not valid element paths and pass through unchanged. A
// token that is a valid element path but resolves to no schema node fails the
// whole translation: the result is the empty string and a resolution error.
package translate

import (
	"fmt"
	"strings"

	"github.com/arkilian/formstore/internal/elementpath"
	ferrors "github.com/arkilian/formstore/internal/errors"
	"github.com/arkilian/formstore/internal/observability"
	"github.com/arkilian/formstore/internal/schema"
	"go.uber.org/zap"
)

// Translator translates expressions against a model. It is safe for
// concurrent use.
type Translator struct {
	logger *zap.Logger
	stats  *observability.TranslationStats

	// storedOnly rejects keys that have no column of their own
	storedOnly bool
}

// New creates a translator. stats may be nil.
func New(logger *zap.Logger, stats *observability.TranslationStats) *Translator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Translator{logger: logger, stats: stats}
}

// StoredOnly returns a translator that also fails when a path resolves to a
// node that is not a unit of retention. Such a node has no column, and a
// quoted name without a column is read by SQLite as a string literal.
func (t *Translator) StoredOnly() *Translator {
	c := *t
	c.storedOnly = true
	return &c
}

// Selection translates a where-clause body such as "visit.date > ?".
func (t *Translator) Selection(m *schema.Model, selection string) (string, error) {
	return t.Translate(m, selection)
}

// OrderBy translates an order-by clause body such as "visit.date DESC".
func (t *Translator) OrderBy(m *schema.Model, orderBy string) (string, error) {
	return t.Translate(m, orderBy)
}

// Translate splits expr on single spaces and substitutes each resolvable
// element path token with its quoted storage key. Tokens are re-joined with
// single spaces.
func (t *Translator) Translate(m *schema.Model, expr string) (string, error) {
	if expr == "" {
		return "", nil
	}
	tokens := strings.Split(expr, " ")
	out := make([]string, len(tokens))
	for i, tok := range tokens {
		if !elementpath.IsValid(tok) {
			out[i] = tok
			continue
		}
		key, ok := t.Resolve(m, tok)
		if !ok {
			t.logger.Error("unable to resolve element path in query expression",
				zap.String("elementPath", tok),
				zap.String("expression", expr))
			return "", ferrors.NewResolutionError(
				fmt.Sprintf("unable to resolve element path %q", tok)).
				WithDetails(map[string]interface{}{"elementPath": tok})
		}
		if t.storedOnly {
			if n, _ := m.Node(key); n == nil || !n.IsUnitOfRetention() {
				t.logger.Error("element path in query expression has no stored column",
					zap.String("elementPath", tok),
					zap.String("elementKey", key),
					zap.String("expression", expr))
				return "", ferrors.NewResolutionError(
					fmt.Sprintf("element path %q resolves to %q which is not stored in its own column", tok, key)).
					WithDetails(map[string]interface{}{"elementPath": tok, "elementKey": key})
			}
		}
		out[i] = quote(key)
	}
	return strings.Join(out, " "), nil
}

// Resolve returns the storage key for path, trying the longest leading
// segments first and, at each length, the dot form before the underscore
// form.
func (t *Translator) Resolve(m *schema.Model, path string) (string, bool) {
	for _, cand := range elementpath.Candidates(path) {
		if key, ok := m.KeyForPath(cand.Name); ok {
			if t.stats != nil {
				t.stats.RecordResolved(path, key)
			}
			return key, true
		}
	}
	if t.stats != nil {
		t.stats.RecordUnresolved(path)
	}
	return "", false
}

func quote(key string) string {
	return `"` + key + `"`
}
