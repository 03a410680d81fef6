// Package sqlite stores node attributes in a SQLite database, one row per
// attribute with its declared type tag next to its text form.
package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"log/slog"

	"github.com/aretw0/introspection"
	"github.com/bmatcuk/doublestar/v4"
	"github.com/golang-migrate/migrate/v4"
	migratesqlite "github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"

	"github.com/aretw0/nodeattr/pkg/core"
	"github.com/aretw0/nodeattr/pkg/expr"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Type tags stored for values that are not scalars.
const (
	tagArray = "array"
	tagExpr  = "expr"
)

// Store is a SQLite attribute database holding any number of nodes.
type Store struct {
	db     *sqlx.DB
	dsn    string
	eval   *expr.Evaluator
	logger *slog.Logger
}

// Open opens the database at dsn and runs the embedded migrations.
func Open(dsn string, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	db, err := sqlx.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	// A single connection keeps ":memory:" databases shared and serializes writers.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	if err := runMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	logger.Debug("attribute database opened", "dsn", dsn)
	return &Store{db: db, dsn: dsn, eval: expr.New(), logger: logger}, nil
}

func runMigrations(db *sqlx.DB) error {
	driver, err := migratesqlite.WithInstance(db.DB, &migratesqlite.Config{})
	if err != nil {
		return fmt.Errorf("create migration driver: %w", err)
	}

	source, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("create migration source: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", source, "sqlite3", driver)
	if err != nil {
		return fmt.Errorf("create migrator: %w", err)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return err
	}
	return nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Nodes lists the IDs of nodes holding at least one attribute, filtered by
// a doublestar pattern ("" matches all).
func (s *Store) Nodes(ctx context.Context, pattern string) ([]string, error) {
	if pattern != "" && !doublestar.ValidatePattern(pattern) {
		return nil, fmt.Errorf("invalid pattern: %q", pattern)
	}

	var all []string
	if err := s.db.SelectContext(ctx, &all, "SELECT DISTINCT node FROM attributes ORDER BY node"); err != nil {
		return nil, fmt.Errorf("list nodes: %w", err)
	}
	if pattern == "" {
		return all, nil
	}

	ids := make([]string, 0, len(all))
	for _, id := range all {
		if ok, _ := doublestar.Match(pattern, id); ok {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

// Node returns the attribute store of one node. A node exists once it
// holds an attribute.
func (s *Store) Node(id string) *Node {
	return &Node{store: s, ID: id}
}

// StoreState is the observable state of the database.
type StoreState struct {
	DSN             string `json:"dsn"`
	OpenConnections int    `json:"open_connections"`
	InUse           int    `json:"in_use"`
}

// State implements introspection.Introspectable.
func (s *Store) State() any {
	stats := s.db.Stats()
	return StoreState{DSN: s.dsn, OpenConnections: stats.OpenConnections, InUse: stats.InUse}
}

// ComponentType implements introspection.Component.
func (s *Store) ComponentType() string {
	return "sqlite"
}

var (
	_ introspection.Introspectable = (*Store)(nil)
	_ introspection.Component      = (*Store)(nil)
)

type attrRow struct {
	DType string `db:"dtype"`
	Value string `db:"value"`
}

// Node is a node-scoped view of the database.
type Node struct {
	store *Store
	ID    string
}

var _ core.AttributeStore = (*Node)(nil)

// UserAttributeNames implements core.AttributeStore.
func (n *Node) UserAttributeNames(ctx context.Context) ([]string, error) {
	var names []string
	err := n.store.db.SelectContext(ctx, &names,
		"SELECT name FROM attributes WHERE node = ? AND name != ? ORDER BY name", n.ID, core.TitleName)
	if err != nil {
		return nil, fmt.Errorf("list attributes of %s: %w", n.ID, err)
	}
	return names, nil
}

// HasTitle implements core.AttributeStore.
func (n *Node) HasTitle(ctx context.Context) bool {
	var count int
	err := n.store.db.GetContext(ctx, &count,
		"SELECT COUNT(*) FROM attributes WHERE node = ? AND name = ?", n.ID, core.TitleName)
	return err == nil && count > 0
}

// Title implements core.AttributeStore.
func (n *Node) Title(ctx context.Context) (string, error) {
	v, err := n.Get(ctx, core.TitleName)
	if err != nil {
		return "", err
	}
	return core.FormatScalar(v), nil
}

// Get implements core.AttributeStore.
func (n *Node) Get(ctx context.Context, name string) (any, error) {
	var row attrRow
	err := n.store.db.GetContext(ctx, &row,
		"SELECT dtype, value FROM attributes WHERE node = ? AND name = ?", n.ID, name)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, core.ErrNotFound
		}
		return nil, fmt.Errorf("read %s.%s: %w", n.ID, name, err)
	}
	return n.store.decode(row)
}

// Set implements core.AttributeStore.
func (n *Node) Set(ctx context.Context, name string, value any) error {
	row, err := encode(value)
	if err != nil {
		return err
	}
	_, err = n.store.db.ExecContext(ctx, `
		INSERT INTO attributes (node, name, dtype, value) VALUES (?, ?, ?, ?)
		ON CONFLICT(node, name) DO UPDATE SET
			dtype = excluded.dtype,
			value = excluded.value,
			updated_at = CURRENT_TIMESTAMP`,
		n.ID, name, row.DType, row.Value)
	if err != nil {
		return fmt.Errorf("write %s.%s: %w", n.ID, name, err)
	}
	return nil
}

// Delete implements core.AttributeStore.
func (n *Node) Delete(ctx context.Context, name string) error {
	result, err := n.store.db.ExecContext(ctx,
		"DELETE FROM attributes WHERE node = ? AND name = ?", n.ID, name)
	if err != nil {
		return fmt.Errorf("delete %s.%s: %w", n.ID, name, err)
	}
	if affected, err := result.RowsAffected(); err == nil && affected == 0 {
		return core.ErrNotFound
	}
	return nil
}

// encode renders value as its type tag and text. Scalars use the
// normalized form the editor produces; arrays and other values are
// stored as expression literals.
func encode(value any) (attrRow, error) {
	dt, multi := core.TypeOf(value)
	switch {
	case multi:
		return attrRow{DType: tagArray, Value: expr.Literal(value)}, nil
	case dt == core.TypeExpr:
		return attrRow{DType: tagExpr, Value: expr.Literal(value)}, nil
	}

	text, ok := core.FormatValue(dt, core.FormatScalar(value))
	if !ok {
		return attrRow{}, fmt.Errorf("%w: cannot store %T", core.ErrTypeMismatch, value)
	}
	return attrRow{DType: dt.String(), Value: text}, nil
}

func (s *Store) decode(row attrRow) (any, error) {
	if row.DType == tagArray || row.DType == tagExpr {
		return s.eval.Eval(row.Value)
	}
	dt := core.ParseDataType(row.DType)
	if dt == core.TypeUnknown {
		return nil, fmt.Errorf("%w: unknown stored type %q", core.ErrTypeMismatch, row.DType)
	}
	return core.Construct(dt, row.Value)
}
