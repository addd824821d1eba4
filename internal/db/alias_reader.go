package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"raidstats/internal/aggregate"
)

// Querier is satisfied by *pgxpool.Pool and pgx.Tx.
type Querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// AliasReader provides read-only access to the player_aliases table.
//
//	CREATE TABLE player_aliases (
//	    canonical TEXT NOT NULL,
//	    alias     TEXT NOT NULL PRIMARY KEY
//	);
type AliasReader struct {
	q Querier
}

// NewAliasReader creates a new alias reader.
func NewAliasReader(q Querier) *AliasReader {
	return &AliasReader{q: q}
}

// GetAliases loads the full canonical to aliases mapping and validates it.
func (r *AliasReader) GetAliases(ctx context.Context) (aggregate.AliasMap, error) {
	rows, err := r.q.Query(ctx, `
		SELECT canonical, alias
		FROM player_aliases
		ORDER BY canonical, alias
	`)
	if err != nil {
		return nil, fmt.Errorf("query aliases: %w", err)
	}
	defer rows.Close()

	aliases := make(aggregate.AliasMap)
	for rows.Next() {
		var canonical, alias string
		if err := rows.Scan(&canonical, &alias); err != nil {
			return nil, fmt.Errorf("scan alias: %w", err)
		}
		aliases[canonical] = append(aliases[canonical], alias)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read aliases: %w", err)
	}

	if err := aliases.Validate(); err != nil {
		return nil, fmt.Errorf("validate aliases: %w", err)
	}
	return aliases, nil
}
