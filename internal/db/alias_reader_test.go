package db

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"raidstats/internal/aggregate"
)

// fakeRows serves (canonical, alias) pairs.
type fakeRows struct {
	data    [][2]string
	pos     int
	err     error
	scanErr error
	closed  bool
}

func (r *fakeRows) Close() { r.closed = true }
func (r *fakeRows) Err() error { return r.err }
func (r *fakeRows) CommandTag() pgconn.CommandTag { return pgconn.CommandTag{} }
func (r *fakeRows) FieldDescriptions() []pgconn.FieldDescription { return nil }
func (r *fakeRows) RawValues() [][]byte { return nil }
func (r *fakeRows) Conn() *pgx.Conn { return nil }

func (r *fakeRows) Next() bool {
	if r.pos >= len(r.data) {
		return false
	}
	r.pos++
	return true
}

func (r *fakeRows) Scan(dest ...any) error {
	if r.scanErr != nil {
		return r.scanErr
	}
	if len(dest) != 2 {
		return fmt.Errorf("expected 2 destinations, got %d", len(dest))
	}
	row := r.data[r.pos-1]
	*dest[0].(*string) = row[0]
	*dest[1].(*string) = row[1]
	return nil
}

func (r *fakeRows) Values() ([]any, error) {
	row := r.data[r.pos-1]
	return []any{row[0], row[1]}, nil
}

type fakeQuerier struct {
	rows *fakeRows
	err  error
}

func (q *fakeQuerier) Query(context.Context, string, ...any) (pgx.Rows, error) {
	if q.err != nil {
		return nil, q.err
	}
	return q.rows, nil
}

func TestGetAliases(t *testing.T) {
	rows := &fakeRows{data: [][2]string{
		{"Ann", "Annie"},
		{"Bob", "Bobalt"},
		{"Bob", "Bobby"},
	}}

	aliases, err := NewAliasReader(&fakeQuerier{rows: rows}).GetAliases(context.Background())

	require.NoError(t, err)
	assert.Equal(t, aggregate.AliasMap{"Ann": {"Annie"}, "Bob": {"Bobalt", "Bobby"}}, aliases)
	assert.True(t, rows.closed)
}

func TestGetAliases_Errors(t *testing.T) {
	cases := map[string]*fakeQuerier{
		"query":   {err: errors.New("connection refused")},
		"scan":    {rows: &fakeRows{data: [][2]string{{"Bob", "Bobalt"}}, scanErr: errors.New("bad type")}},
		"rows":    {rows: &fakeRows{err: errors.New("conn lost")}},
		"invalid": {rows: &fakeRows{data: [][2]string{{"Bob", "Alt"}, {"Ann", "Alt"}}}},
	}

	for name, q := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := NewAliasReader(q).GetAliases(context.Background())
			assert.Error(t, err)
		})
	}
}
