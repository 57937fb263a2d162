package storage

import (
	"errors"
	"strings"
	"time"

	"github.com/evercore/timeline/pkg/types"
)

var (
	// ErrNotFound indicates that the requested record was not found.
	ErrNotFound = errors.New("record not found")

	// ErrInvalidInput indicates that the input parameters are invalid.
	ErrInvalidInput = errors.New("invalid input")
)

// MaxQueryResults bounds every predicate query. Queries that ask for more
// (or don't say) are capped here so a single broad query cannot dominate
// request latency.
const MaxQueryResults = 1000

// Op is a predicate comparison operator.
type Op string

const (
	// OpEqual matches when the field value equals the predicate value.
	OpEqual Op = "eq"

	// OpContains matches when the predicate value appears within a
	// sequence field. For scalar fields it degrades to equality, since
	// stores commonly hold both forms for the same field (e.g. a "to"
	// field that is a single address or a list of them).
	OpContains Op = "contains"
)

// Predicate is a single condition on a record field. Field is a dot path
// rooted at the record: "id", "type", "created_at", "data.companyId",
// "metadata.contactId", and so on.
//
// When Or is non-empty the predicate is a disjunction: it matches if any
// sub-predicate matches, and Field/Op/Value are ignored.
type Predicate struct {
	Field string
	Op    Op
	Value interface{}

	Or []Predicate
}

// Query is a workspace-scoped predicate query. Predicates in Where are
// combined conjunctively.
type Query struct {
	WorkspaceID string
	Where       []Predicate

	Limit          int
	OrderBy        string // only "created_at" is supported
	OrderDirection string // "asc" or "desc" (default: "desc")
}

// Normalize applies defaults and bounds to the query.
func (q *Query) Normalize() {
	if q.Limit <= 0 || q.Limit > MaxQueryResults {
		q.Limit = MaxQueryResults
	}
	if q.OrderBy != "created_at" {
		q.OrderBy = "created_at"
	}
	if q.OrderDirection != "asc" && q.OrderDirection != "desc" {
		q.OrderDirection = "desc"
	}
}

// Matches reports whether the record satisfies the predicate.
func (p *Predicate) Matches(record *types.Record) bool {
	if len(p.Or) > 0 {
		for i := range p.Or {
			if p.Or[i].Matches(record) {
				return true
			}
		}
		return false
	}

	value, ok := fieldValue(record, p.Field)
	if !ok {
		return false
	}

	switch p.Op {
	case OpContains:
		return containsValue(value, p.Value)
	default:
		return looseEqual(value, p.Value)
	}
}

// MatchesAll reports whether the record satisfies every predicate.
func MatchesAll(record *types.Record, where []Predicate) bool {
	for i := range where {
		if !where[i].Matches(record) {
			return false
		}
	}
	return true
}

// fieldValue resolves a dot-path field against a record. Top-level names
// address the record's fixed fields; "data." and "metadata." prefixes
// descend into the open maps, with further dots descending into nested
// maps.
func fieldValue(record *types.Record, path string) (interface{}, bool) {
	switch path {
	case "id":
		return record.ID, true
	case "type":
		return record.Type, true
	case "workspace_id":
		return record.WorkspaceID, true
	case "created_at":
		return record.CreatedAt, true
	}

	var root map[string]interface{}
	rest := path
	switch {
	case strings.HasPrefix(path, "data."):
		root, rest = record.Data, strings.TrimPrefix(path, "data.")
	case strings.HasPrefix(path, "metadata."):
		root, rest = record.Metadata, strings.TrimPrefix(path, "metadata.")
	default:
		return nil, false
	}

	return nestedValue(root, rest)
}

// nestedValue walks a dot path through nested string-keyed maps.
func nestedValue(m map[string]interface{}, path string) (interface{}, bool) {
	if m == nil {
		return nil, false
	}

	key, rest, nested := strings.Cut(path, ".")
	value, ok := m[key]
	if !ok {
		return nil, false
	}
	if !nested {
		return value, true
	}

	child, ok := value.(map[string]interface{})
	if !ok {
		return nil, false
	}
	return nestedValue(child, rest)
}

// containsValue reports whether want appears within a sequence field
// value, or equals a scalar field value.
func containsValue(fieldVal, want interface{}) bool {
	switch seq := fieldVal.(type) {
	case []interface{}:
		for _, item := range seq {
			if looseEqual(item, want) {
				return true
			}
		}
		return false
	case []string:
		for _, item := range seq {
			if looseEqual(item, want) {
				return true
			}
		}
		return false
	default:
		return looseEqual(fieldVal, want)
	}
}

// looseEqual compares two values with the coercions a JSON-backed store
// needs: numbers compare as float64 regardless of concrete type, strings
// compare case-insensitively (identifiers like email addresses are
// case-insensitive in practice), and times compare by instant.
func looseEqual(a, b interface{}) bool {
	if at, ok := a.(time.Time); ok {
		if bt, ok := b.(time.Time); ok {
			return at.Equal(bt)
		}
		return false
	}

	if as, ok := a.(string); ok {
		if bs, ok := b.(string); ok {
			return strings.EqualFold(as, bs)
		}
		return false
	}

	if af, ok := toFloat(a); ok {
		if bf, ok := toFloat(b); ok {
			return af == bf
		}
		return false
	}

	return a == b
}

func toFloat(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	default:
		return 0, false
	}
}
