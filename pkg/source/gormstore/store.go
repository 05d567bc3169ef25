// Package gormstore provides a PageSource backed by a GORM-managed table,
// using keyset pagination: the cursor encodes the sort and key values of the
// last row served, and each page fetches limit+1 rows so exhaustion is known
// without a count query.
package gormstore

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/windrose-labs/infiniscroll/pkg/source"
)

var (
	// ErrNilDB indicates no database handle was given.
	ErrNilDB = errors.New("gorm db cannot be nil")

	// ErrNilExtractor indicates no cursor extractor was given.
	ErrNilExtractor = errors.New("cursor extractor cannot be nil")

	// ErrBadColumn indicates a sort or filter name that is not a plain
	// column identifier.
	ErrBadColumn = errors.New("invalid column name")

	// ErrBadCursor indicates a continuation token that cannot be decoded.
	ErrBadCursor = errors.New("invalid cursor")
)

var columnPattern = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

var encoder = base64.RawURLEncoding

// Cursor is the keyset position after one row. Sort is the row's value in
// the active sort column; Key is its value in the unique key column.
type Cursor struct {
	Sort any `json:"s,omitempty"`
	Key  any `json:"k"`
}

// Config configures a table-backed source.
type Config[T any] struct {
	// KeyColumn is the unique tiebreak column. Defaults to "id".
	KeyColumn string

	// SearchColumn, when set, receives the Params.Search term as a
	// case-insensitive substring match. Empty disables search.
	SearchColumn string

	// DefaultSort is the ordering used when Params.Sort is empty, e.g.
	// "created_at desc". Defaults to the key column ascending.
	DefaultSort string

	// Extract returns the cursor values of a row. The Sort value must
	// come from the column the source orders by. Required.
	Extract func(row T) Cursor

	// Logger logs queries at debug level.
	Logger zerolog.Logger
}

// Source pages through one table.
type Source[T any] struct {
	db  *gorm.DB
	cfg Config[T]
}

// New validates the configuration and returns the source.
func New[T any](db *gorm.DB, cfg Config[T]) (*Source[T], error) {
	if db == nil {
		return nil, ErrNilDB
	}
	if cfg.Extract == nil {
		return nil, ErrNilExtractor
	}
	if cfg.KeyColumn == "" {
		cfg.KeyColumn = "id"
	}
	if !columnPattern.MatchString(cfg.KeyColumn) {
		return nil, fmt.Errorf("%w: %q", ErrBadColumn, cfg.KeyColumn)
	}

	return &Source[T]{db: db, cfg: cfg}, nil
}

// FetchPage implements source.PageSource.
func (s *Source[T]) FetchPage(ctx context.Context, cursor string, limit int, params source.Params) (source.Page[T], error) {
	sortCol, desc, err := s.ordering(params)
	if err != nil {
		return source.Page[T]{}, err
	}

	var model T
	q := s.db.WithContext(ctx).Model(&model)

	q, err = s.applyFilters(q, params)
	if err != nil {
		return source.Page[T]{}, err
	}

	if cursor != "" {
		q, err = s.applyCursor(q, cursor, sortCol, desc)
		if err != nil {
			return source.Page[T]{}, err
		}
	}

	q = q.Order(s.orderClause(sortCol, desc)).Limit(limit + 1)

	var rows []T
	if err := q.Find(&rows).Error; err != nil {
		return source.Page[T]{}, fmt.Errorf("query page: %w", err)
	}

	page := source.Page[T]{Items: rows}
	if len(rows) > limit {
		page.Items = rows[:limit]
		next, err := s.encodeCursor(page.Items[limit-1])
		if err != nil {
			return source.Page[T]{}, err
		}
		page.NextCursor = next
	}

	s.cfg.Logger.Debug().
		Str("cursor", cursor).
		Str("params", params.Key()).
		Int("rows", len(page.Items)).
		Bool("has_more", page.HasMore()).
		Msg("Page queried")

	return page, nil
}

// ordering resolves the active sort column and direction.
func (s *Source[T]) ordering(params source.Params) (string, bool, error) {
	orderBy := params.Sort
	if orderBy == "" {
		orderBy = s.cfg.DefaultSort
	}
	if orderBy == "" {
		return s.cfg.KeyColumn, false, nil
	}

	fields := strings.Fields(orderBy)
	col := fields[0]
	if !columnPattern.MatchString(col) {
		return "", false, fmt.Errorf("%w: %q", ErrBadColumn, col)
	}

	desc := false
	if len(fields) > 1 {
		switch strings.ToLower(fields[1]) {
		case "asc":
		case "desc":
			desc = true
		default:
			return "", false, fmt.Errorf("%w: %q", ErrBadColumn, orderBy)
		}
	}
	return col, desc, nil
}

func (s *Source[T]) orderClause(sortCol string, desc bool) string {
	dir := "ASC"
	if desc {
		dir = "DESC"
	}
	if sortCol == s.cfg.KeyColumn {
		return fmt.Sprintf("%s %s", s.cfg.KeyColumn, dir)
	}
	return fmt.Sprintf("%s %s, %s %s", sortCol, dir, s.cfg.KeyColumn, dir)
}

// applyFilters adds one equality condition per filter, in sorted name order
// so generated SQL is deterministic.
func (s *Source[T]) applyFilters(q *gorm.DB, params source.Params) (*gorm.DB, error) {
	names := make([]string, 0, len(params.Filters))
	for name := range params.Filters {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		if !columnPattern.MatchString(name) {
			return nil, fmt.Errorf("%w: %q", ErrBadColumn, name)
		}
		q = q.Where(fmt.Sprintf("%s = ?", name), params.Filters[name])
	}

	if params.Search != "" && s.cfg.SearchColumn != "" {
		q = q.Where(fmt.Sprintf("%s ILIKE ?", s.cfg.SearchColumn), "%"+params.Search+"%")
	}

	return q, nil
}

// applyCursor adds the keyset condition: all rows strictly after the cursor
// position in the active ordering.
func (s *Source[T]) applyCursor(q *gorm.DB, raw, sortCol string, desc bool) (*gorm.DB, error) {
	data, err := encoder.DecodeString(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadCursor, err)
	}
	var c Cursor
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadCursor, err)
	}

	op := ">"
	if desc {
		op = "<"
	}

	if sortCol == s.cfg.KeyColumn {
		return q.Where(fmt.Sprintf("%s %s ?", s.cfg.KeyColumn, op), c.Key), nil
	}
	return q.Where(
		fmt.Sprintf("(%s, %s) %s (?, ?)", sortCol, s.cfg.KeyColumn, op),
		c.Sort, c.Key,
	), nil
}

func (s *Source[T]) encodeCursor(last T) (string, error) {
	data, err := json.Marshal(s.cfg.Extract(last))
	if err != nil {
		return "", fmt.Errorf("marshal cursor: %w", err)
	}
	return encoder.EncodeToString(data), nil
}
