package repo

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
)

// Result is the minimal interface needed from a neo4j result.
type Result interface {
	Next(ctx context.Context) bool
	Record() *neo4j.Record
	Err() error
}

// Runner is the minimal interface needed from a neo4j session.
type Runner interface {
	Run(ctx context.Context, cypher string, params map[string]any) (Result, error)
	Close(ctx context.Context) error
}

// DefaultListLimit caps List when ListOpts.Limit is unset.
const DefaultListLimit = 1000

var identRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Neo4jRepo is a generic Neo4j-backed repository over nodes of one label.
type Neo4jRepo[T any, ID comparable] struct {
	driver     neo4j.DriverWithContext
	database   string
	label      string
	idKey      string
	toMap      func(T) map[string]any
	fromRecord func(*neo4j.Record) (T, error)
	newSession func(ctx context.Context, mode neo4j.AccessMode) Runner
}

// Neo4jOption configures a Neo4jRepo.
type Neo4jOption[T any, ID comparable] func(*Neo4jRepo[T, ID])

// WithIDKey sets the property name used as the ID (default "id").
func WithIDKey[T any, ID comparable](key string) Neo4jOption[T, ID] {
	return func(r *Neo4jRepo[T, ID]) { r.idKey = key }
}

// WithDatabase selects the Neo4j database (default: server default).
func WithDatabase[T any, ID comparable](db string) Neo4jOption[T, ID] {
	return func(r *Neo4jRepo[T, ID]) { r.database = db }
}

// WithSession replaces session creation, used to run against a fake.
func WithSession[T any, ID comparable](f func(ctx context.Context, mode neo4j.AccessMode) Runner) Neo4jOption[T, ID] {
	return func(r *Neo4jRepo[T, ID]) { r.newSession = f }
}

// NewNeo4jRepo creates a new Neo4j-backed repository. Records passed to
// fromRecord carry the node under key "n".
func NewNeo4jRepo[T any, ID comparable](
	driver neo4j.DriverWithContext,
	label string,
	toMap func(T) map[string]any,
	fromRecord func(*neo4j.Record) (T, error),
	opts ...Neo4jOption[T, ID],
) *Neo4jRepo[T, ID] {
	r := &Neo4jRepo[T, ID]{
		driver:     driver,
		label:      label,
		idKey:      "id",
		toMap:      toMap,
		fromRecord: fromRecord,
	}
	for _, o := range opts {
		o(r)
	}
	return r
}

// Compile-time interface check.
var _ Repository[any, string] = (*Neo4jRepo[any, string])(nil)

type sessionAdapter struct {
	sess neo4j.SessionWithContext
}

func (a *sessionAdapter) Run(ctx context.Context, cypher string, params map[string]any) (Result, error) {
	return a.sess.Run(ctx, cypher, params)
}

func (a *sessionAdapter) Close(ctx context.Context) error {
	return a.sess.Close(ctx)
}

func (r *Neo4jRepo[T, ID]) session(ctx context.Context, mode neo4j.AccessMode) Runner {
	if r.newSession != nil {
		return r.newSession(ctx, mode)
	}
	return &sessionAdapter{sess: r.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: mode, DatabaseName: r.database})}
}

// Label returns the node label.
func (r *Neo4jRepo[T, ID]) Label() string { return r.label }

func (r *Neo4jRepo[T, ID]) Get(ctx context.Context, id ID) (T, error) {
	var zero T
	sess := r.session(ctx, neo4j.AccessModeRead)
	defer sess.Close(ctx)

	cypher := fmt.Sprintf("MATCH (n:%s {%s: $id}) RETURN n", r.label, r.idKey)
	res, err := sess.Run(ctx, cypher, map[string]any{"id": id})
	if err != nil {
		return zero, fmt.Errorf("repo: get %s: %w", r.label, err)
	}
	if !res.Next(ctx) {
		if err := res.Err(); err != nil {
			return zero, fmt.Errorf("repo: get %s: %w", r.label, err)
		}
		return zero, fmt.Errorf("%s %v: %w", r.label, id, ErrNotFound)
	}
	return r.fromRecord(res.Record())
}

// List returns nodes ordered by id. Filter keys must be plain identifiers.
func (r *Neo4jRepo[T, ID]) List(ctx context.Context, opts ListOpts) ([]T, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = DefaultListLimit
	}
	params := map[string]any{"offset": opts.Offset, "limit": limit}

	keys := make([]string, 0, len(opts.Filter))
	for k := range opts.Filter {
		if !identRe.MatchString(k) {
			return nil, fmt.Errorf("repo: list %s: invalid filter key %q", r.label, k)
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)
	var where []string
	for i, k := range keys {
		p := fmt.Sprintf("f%d", i)
		where = append(where, fmt.Sprintf("n.%s = $%s", k, p))
		params[p] = opts.Filter[k]
	}
	cypher := fmt.Sprintf("MATCH (n:%s)", r.label)
	if len(where) > 0 {
		cypher += " WHERE " + strings.Join(where, " AND ")
	}
	cypher += fmt.Sprintf(" RETURN n ORDER BY n.%s SKIP $offset LIMIT $limit", r.idKey)

	sess := r.session(ctx, neo4j.AccessModeRead)
	defer sess.Close(ctx)
	res, err := sess.Run(ctx, cypher, params)
	if err != nil {
		return nil, fmt.Errorf("repo: list %s: %w", r.label, err)
	}

	var items []T
	for res.Next(ctx) {
		item, err := r.fromRecord(res.Record())
		if err != nil {
			return nil, fmt.Errorf("repo: list %s: %w", r.label, err)
		}
		items = append(items, item)
	}
	if err := res.Err(); err != nil {
		return nil, fmt.Errorf("repo: list %s: %w", r.label, err)
	}
	return items, nil
}

// Upsert merges the node on its id and overwrites the given properties.
func (r *Neo4jRepo[T, ID]) Upsert(ctx context.Context, entity T) error {
	props := r.toMap(entity)
	id, ok := props[r.idKey]
	if !ok {
		return fmt.Errorf("repo: upsert %s: missing %s", r.label, r.idKey)
	}
	cypher := fmt.Sprintf("MERGE (n:%s {%s: $id}) SET n += $props", r.label, r.idKey)
	return r.Exec(ctx, cypher, map[string]any{"id": id, "props": props})
}

func (r *Neo4jRepo[T, ID]) Delete(ctx context.Context, id ID) error {
	cypher := fmt.Sprintf("MATCH (n:%s {%s: $id}) DETACH DELETE n", r.label, r.idKey)
	return r.Exec(ctx, cypher, map[string]any{"id": id})
}

// Query runs a read statement and passes each record to fn, stopping at the
// first error fn returns.
func (r *Neo4jRepo[T, ID]) Query(ctx context.Context, cypher string, params map[string]any, fn func(*neo4j.Record) error) error {
	sess := r.session(ctx, neo4j.AccessModeRead)
	defer sess.Close(ctx)
	res, err := sess.Run(ctx, cypher, params)
	if err != nil {
		return fmt.Errorf("repo: query %s: %w", r.label, err)
	}
	for res.Next(ctx) {
		if err := fn(res.Record()); err != nil {
			return fmt.Errorf("repo: query %s: %w", r.label, err)
		}
	}
	if err := res.Err(); err != nil {
		return fmt.Errorf("repo: query %s: %w", r.label, err)
	}
	return nil
}

// Exec runs a write statement and drains its result.
func (r *Neo4jRepo[T, ID]) Exec(ctx context.Context, cypher string, params map[string]any) error {
	sess := r.session(ctx, neo4j.AccessModeWrite)
	defer sess.Close(ctx)
	res, err := sess.Run(ctx, cypher, params)
	if err != nil {
		return fmt.Errorf("repo: exec %s: %w", r.label, err)
	}
	for res.Next(ctx) {
	}
	if err := res.Err(); err != nil {
		return fmt.Errorf("repo: exec %s: %w", r.label, err)
	}
	return nil
}
