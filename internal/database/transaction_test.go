package database

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingDB struct {
	queries []string
	vars    []map[string]interface{}
	err     error
}

func (r *recordingDB) Connect(context.Context) error { return nil }
func (r *recordingDB) Close() error                  { return nil }
func (r *recordingDB) Ping(context.Context) error    { return nil }

func (r *recordingDB) Query(_ context.Context, query string, vars map[string]interface{}) ([]interface{}, error) {
	r.queries = append(r.queries, query)
	r.vars = append(r.vars, vars)
	return nil, r.err
}

func (r *recordingDB) QueryOne(ctx context.Context, query string, vars map[string]interface{}) (interface{}, error) {
	results, err := r.Query(ctx, query, vars)
	if err != nil {
		return nil, err
	}
	return FirstRecord(results)
}

func (r *recordingDB) Execute(ctx context.Context, query string, vars map[string]interface{}) error {
	_, err := r.Query(ctx, query, vars)
	return err
}

func TestTxBuilder_NamespacesVariables(t *testing.T) {
	tb := NewTxBuilder()
	m1 := tb.Add("UPDATE type::record($id) SET lft = $lft", map[string]interface{}{"id": "technique:a", "lft": 1})
	m2 := tb.Add("UPDATE type::record($id) SET lft = $lft", map[string]interface{}{"id": "technique:b", "lft": 3})

	query, vars := tb.Build()

	assert.True(t, strings.HasPrefix(query, "BEGIN TRANSACTION;\n"))
	assert.True(t, strings.HasSuffix(query, "COMMIT TRANSACTION;"))
	assert.NotEqual(t, m1["id"], m2["id"])
	assert.Contains(t, query, "type::record($"+m1["id"]+") SET lft = $"+m1["lft"])
	assert.Contains(t, query, "type::record($"+m2["id"]+") SET lft = $"+m2["lft"])
	assert.Equal(t, "technique:a", vars[m1["id"]])
	assert.Equal(t, 3, vars[m2["lft"]])
	assert.Len(t, vars, 4)
}

func TestTxBuilder_DoesNotRewritePrefixes(t *testing.T) {
	tb := NewTxBuilder()
	mapping := tb.Add("DELETE technique WHERE id IN $ids OR id = $id", map[string]interface{}{
		"id":  "technique:a",
		"ids": []string{"technique:b"},
	})

	query, _ := tb.Build()
	assert.Contains(t, query, "IN $"+mapping["ids"]+" OR id = $"+mapping["id"])
}

func TestTxBuilder_EmptyBuild(t *testing.T) {
	query, vars := NewTxBuilder().Build()
	assert.Empty(t, query)
	assert.Nil(t, vars)

	results, err := ExecuteTransaction(context.Background(), &recordingDB{}, NewTxBuilder())
	assert.NoError(t, err)
	assert.Nil(t, results)
}

func TestAtomicBatch_ExecutesOnce(t *testing.T) {
	db := &recordingDB{}
	batch := NewAtomicBatch().
		Add("DELETE technique_media WHERE technique = $t", map[string]interface{}{"t": "technique:a"}).
		Add("DELETE type::record($t)", map[string]interface{}{"t": "technique:a"})

	require.Equal(t, 2, batch.Len())
	require.NoError(t, batch.Execute(context.Background(), db))

	require.Len(t, db.queries, 1)
	assert.Equal(t, 2, strings.Count(db.queries[0], "DELETE"))
	assert.Len(t, db.vars[0], 2)
}

func TestAtomicBatch_EmptyIsNoop(t *testing.T) {
	db := &recordingDB{}
	require.NoError(t, NewAtomicBatch().Execute(context.Background(), db))
	assert.Empty(t, db.queries)
}

func TestMultiStepOperation_RollsBackInReverse(t *testing.T) {
	db := &recordingDB{}
	var trail []string

	up := func(name string, fail bool) func(context.Context, Database) error {
		return func(context.Context, Database) error {
			trail = append(trail, "up:"+name)
			if fail {
				return errors.New("boom")
			}
			return nil
		}
	}
	down := func(name string) func(context.Context, Database) error {
		return func(context.Context, Database) error {
			trail = append(trail, "down:"+name)
			return nil
		}
	}

	mso := NewMultiStepOperation(db)
	mso.AddStep("a", up("a", false), down("a"))
	mso.AddStep("b", up("b", false), down("b"))
	mso.AddStep("c", up("c", true), down("c"))

	err := mso.Execute(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "step c failed")
	assert.Equal(t, []string{"up:a", "up:b", "up:c", "down:b", "down:a"}, trail)
}

func TestFirstRecord(t *testing.T) {
	_, err := FirstRecord(nil)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = FirstRecord([]interface{}{map[string]interface{}{"status": "OK", "result": []interface{}{}}})
	assert.ErrorIs(t, err, ErrNotFound)

	rec, err := FirstRecord([]interface{}{map[string]interface{}{
		"status": "OK",
		"result": []interface{}{map[string]interface{}{"slug": "root.guard"}},
	}})
	require.NoError(t, err)
	assert.Equal(t, map[string]interface{}{"slug": "root.guard"}, rec)

	scalar, err := FirstRecord([]interface{}{map[string]interface{}{"status": "OK", "result": 3}})
	require.NoError(t, err)
	assert.Equal(t, 3, scalar)
}

func TestStatementRows(t *testing.T) {
	results := []interface{}{
		map[string]interface{}{"status": "OK", "result": nil},
		map[string]interface{}{"status": "OK", "result": []interface{}{"a", "b"}},
	}
	assert.Nil(t, StatementRows(results, 0))
	assert.Equal(t, []interface{}{"a", "b"}, StatementRows(results, 1))
	assert.Nil(t, StatementRows(results, 5))
}
