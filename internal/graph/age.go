package graph

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hyperjump/jobrecall/pkg/utils"
)

// ageSetup runs per-connection AGE initialization.
const ageSetup = `LOAD 'age'; SET search_path TO ag_catalog, "$user", public`

var graphNamePattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// AGEQuerier runs Cypher on an Apache AGE graph through a pgx pool.
// Parameters are passed as the third argument of ag_catalog.cypher().
type AGEQuerier struct {
	pool  *pgxpool.Pool
	graph string
}

// NewAGEQuerier connects to databaseURL and prepares every pooled connection for AGE.
func NewAGEQuerier(ctx context.Context, databaseURL, graphName string) (*AGEQuerier, error) {
	if databaseURL == "" {
		return nil, errors.New("postgres url is required for the age backend")
	}
	if !graphNamePattern.MatchString(graphName) {
		return nil, fmt.Errorf("invalid graph name: %q", graphName)
	}
	config, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse postgres url: %w", err)
	}
	config.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		_, err := conn.Exec(ctx, ageSetup)
		return err
	}
	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("create pgx pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return &AGEQuerier{pool: pool, graph: graphName}, nil
}

// WrapCypher builds the SQL statement that runs cypher on graph with a
// parameter map bound to $1. The result column is named "result".
func WrapCypher(graph, cypher string) string {
	return fmt.Sprintf("SELECT * FROM ag_catalog.cypher('%s', $$\n%s\n$$, $1) AS (result ag_catalog.agtype)", graph, cypher)
}

// Query implements Querier.
func (a *AGEQuerier) Query(ctx context.Context, cypher string, params map[string]any) ([]Row, error) {
	if strings.Contains(cypher, "$$") {
		return nil, errors.New("cypher text must not contain $$")
	}
	if params == nil {
		params = map[string]any{}
	}
	encoded, err := json.Marshal(params)
	if err != nil {
		return nil, fmt.Errorf("encode cypher params: %w", err)
	}

	rows, err := a.pool.Query(ctx, WrapCypher(a.graph, cypher), string(encoded))
	if err != nil {
		return nil, fmt.Errorf("cypher query: %w", err)
	}
	defer rows.Close()

	var out []Row
	for rows.Next() {
		var text *string
		if err := rows.Scan(&text); err != nil {
			return nil, fmt.Errorf("scan agtype: %w", err)
		}
		if text == nil {
			continue
		}
		value, err := ParseAgtype(*text)
		if err != nil {
			return nil, err
		}
		out = append(out, Row{"result": value})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("cypher rows: %w", err)
	}
	return out, nil
}

// Close closes the connection pool.
func (a *AGEQuerier) Close() {
	a.pool.Close()
}

var agtypeSuffix = regexp.MustCompile(`::(?:vertex|edge|path|numeric)\b`)

// ParseAgtype decodes the text form of an agtype value. Type annotations such
// as ::vertex are stripped before JSON decoding.
func ParseAgtype(text string) (any, error) {
	clean := agtypeSuffix.ReplaceAllString(text, "")
	var v any
	if err := json.Unmarshal([]byte(clean), &v); err != nil {
		return nil, fmt.Errorf("decode agtype %q: %w", utils.Truncate(text, 80), err)
	}
	return v, nil
}

