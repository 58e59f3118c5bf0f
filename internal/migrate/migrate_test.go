package migrate

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/forgo/mediacms/api/internal/database"
	"github.com/forgo/mediacms/api/internal/repository"
	"github.com/forgo/mediacms/api/internal/taxonomy"
)

// ============================================================================
// Fakes
// ============================================================================

type recordingDB struct {
	executed []string
}

func (d *recordingDB) Connect(context.Context) error { return nil }
func (d *recordingDB) Close() error                  { return nil }
func (d *recordingDB) Ping(context.Context) error    { return nil }

func (d *recordingDB) Query(_ context.Context, query string, _ map[string]interface{}) ([]interface{}, error) {
	d.executed = append(d.executed, query)
	return nil, nil
}

func (d *recordingDB) QueryOne(ctx context.Context, query string, vars map[string]interface{}) (interface{}, error) {
	results, err := d.Query(ctx, query, vars)
	if err != nil {
		return nil, err
	}
	return database.FirstRecord(results)
}

func (d *recordingDB) Execute(ctx context.Context, query string, vars map[string]interface{}) error {
	_, err := d.Query(ctx, query, vars)
	return err
}

type memoryStore struct {
	applied map[string]time.Time
}

func newMemoryStore(versions ...string) *memoryStore {
	s := &memoryStore{applied: make(map[string]time.Time)}
	for _, v := range versions {
		s.applied[v] = time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	}
	return s
}

func (s *memoryStore) EnsureTable(context.Context) error { return nil }

func (s *memoryStore) Applied(context.Context) ([]repository.AppliedMigration, error) {
	out := make([]repository.AppliedMigration, 0, len(s.applied))
	for v, at := range s.applied {
		out = append(out, repository.AppliedMigration{Version: v, AppliedAt: at})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Version < out[j].Version })
	return out, nil
}

func (s *memoryStore) Record(_ context.Context, version string) error {
	s.applied[version] = time.Now()
	return nil
}

func (s *memoryStore) Remove(_ context.Context, version string) error {
	delete(s.applied, version)
	return nil
}

func (s *memoryStore) versions() []string {
	out := make([]string, 0, len(s.applied))
	for v := range s.applied {
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type trail struct {
	events []string
}

func (tr *trail) migration(version string, failUp bool) Migration {
	return Migration{
		Version: version,
		Up: func(context.Context, database.Database) error {
			tr.events = append(tr.events, "up:"+version)
			if failUp {
				return errors.New("up failed")
			}
			return nil
		},
		Down: func(context.Context, database.Database) error {
			tr.events = append(tr.events, "down:"+version)
			return nil
		},
	}
}

func newRunner(store Store, migrations ...Migration) *Runner {
	return NewRunner(RunnerConfig{
		DB:         &recordingDB{},
		Store:      store,
		Migrations: migrations,
		Logger:     quietLogger(),
	})
}

// ============================================================================
// Runner
// ============================================================================

func TestRunner_UpAppliesPendingInOrder(t *testing.T) {
	tr := &trail{}
	store := newMemoryStore("0001_a")
	runner := newRunner(store, tr.migration("0001_a", false), tr.migration("0002_b", false), tr.migration("0003_c", false))

	applied, err := runner.Up(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{"0002_b", "0003_c"}, applied)
	assert.Equal(t, []string{"up:0002_b", "up:0003_c"}, tr.events)
	assert.Equal(t, []string{"0001_a", "0002_b", "0003_c"}, store.versions())
}

func TestRunner_UpNothingPending(t *testing.T) {
	tr := &trail{}
	runner := newRunner(newMemoryStore("0001_a"), tr.migration("0001_a", false))

	applied, err := runner.Up(context.Background())
	require.NoError(t, err)
	assert.Empty(t, applied)
	assert.Empty(t, tr.events)
}

func TestRunner_UpFailureRevertsThisRun(t *testing.T) {
	tr := &trail{}
	store := newMemoryStore("0001_a")
	runner := newRunner(store,
		tr.migration("0001_a", false),
		tr.migration("0002_b", false),
		tr.migration("0003_c", false),
		tr.migration("0004_d", true),
	)

	_, err := runner.Up(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "step 0004_d failed")

	assert.Equal(t, []string{"up:0002_b", "up:0003_c", "up:0004_d", "down:0004_d", "down:0003_c", "down:0002_b"}, tr.events)
	assert.Equal(t, []string{"0001_a"}, store.versions())
}

func TestRunner_UpFailureClearsPartialWrites(t *testing.T) {
	var rows []string
	failOnThird := true
	populate := Migration{
		Version: "0002_populate",
		Up: func(context.Context, database.Database) error {
			for i := 1; i <= 3; i++ {
				if i == 3 && failOnThird {
					return fmt.Errorf("create technique %d: boom", i)
				}
				rows = append(rows, fmt.Sprintf("technique:%d", i))
			}
			return nil
		},
		Down: func(context.Context, database.Database) error {
			rows = nil
			return nil
		},
	}
	tr := &trail{}
	store := newMemoryStore()
	runner := newRunner(store, tr.migration("0001_init", false), populate)

	_, err := runner.Up(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "boom")
	assert.Empty(t, rows)
	assert.Empty(t, store.versions())

	failOnThird = false
	applied, err := runner.Up(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"0001_init", "0002_populate"}, applied)
	assert.Equal(t, []string{"technique:1", "technique:2", "technique:3"}, rows)
}

func TestRunner_UpFailureWithoutDown(t *testing.T) {
	tr := &trail{}
	broken := Migration{
		Version: "0002_broken",
		Up: func(context.Context, database.Database) error {
			return errors.New("up failed")
		},
	}
	store := newMemoryStore()
	runner := newRunner(store, tr.migration("0001_a", false), broken)

	_, err := runner.Up(context.Background())
	require.Error(t, err)
	assert.Equal(t, []string{"up:0001_a", "down:0001_a"}, tr.events)
	assert.Empty(t, store.versions())
}

func TestRunner_DownRevertsNewestFirst(t *testing.T) {
	tr := &trail{}
	store := newMemoryStore("0001_a", "0002_b", "0003_c")
	runner := newRunner(store, tr.migration("0001_a", false), tr.migration("0002_b", false), tr.migration("0003_c", false))

	reverted, err := runner.Down(context.Background(), 2)
	require.NoError(t, err)

	assert.Equal(t, []string{"0003_c", "0002_b"}, reverted)
	assert.Equal(t, []string{"down:0003_c", "down:0002_b"}, tr.events)
	assert.Equal(t, []string{"0001_a"}, store.versions())
}

func TestRunner_DownSkipsUnapplied(t *testing.T) {
	tr := &trail{}
	runner := newRunner(newMemoryStore("0001_a"), tr.migration("0001_a", false), tr.migration("0002_b", false))

	reverted, err := runner.Down(context.Background(), 5)
	require.NoError(t, err)
	assert.Equal(t, []string{"0001_a"}, reverted)
}

func TestRunner_DownIrreversible(t *testing.T) {
	store := newMemoryStore("0001_a")
	runner := newRunner(store, Migration{Version: "0001_a", Up: noop})

	reverted, err := runner.Down(context.Background(), 1)
	assert.ErrorIs(t, err, ErrIrreversible)
	assert.Empty(t, reverted)
	assert.Equal(t, []string{"0001_a"}, store.versions())
}

func TestRunner_Status(t *testing.T) {
	tr := &trail{}
	runner := newRunner(newMemoryStore("0001_a"), tr.migration("0001_a", false), tr.migration("0002_b", false))

	status, err := runner.Status(context.Background())
	require.NoError(t, err)
	require.Len(t, status, 2)

	assert.True(t, status[0].Applied)
	assert.Equal(t, time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC), status[0].AppliedAt)
	assert.False(t, status[1].Applied)
	assert.True(t, status[1].AppliedAt.IsZero())
}

func TestRunner_RejectsUnknownAppliedVersion(t *testing.T) {
	tr := &trail{}
	runner := newRunner(newMemoryStore("0009_future"), tr.migration("0001_a", false))

	_, err := runner.Up(context.Background())
	assert.ErrorIs(t, err, ErrUnknownMigration)
}

func TestRunner_RejectsOutOfOrderMigrations(t *testing.T) {
	tr := &trail{}
	runner := newRunner(newMemoryStore(), tr.migration("0002_b", false), tr.migration("0001_a", false))

	_, err := runner.Status(context.Background())
	assert.ErrorIs(t, err, ErrOutOfOrder)
}

// ============================================================================
// Bundled migrations
// ============================================================================

func TestMigrations_SortedAndComplete(t *testing.T) {
	migrations := Migrations(nil)
	require.Len(t, migrations, 7)

	for i, m := range migrations {
		assert.NotEmpty(t, m.Description, m.Version)
		assert.NotNil(t, m.Up, m.Version)
		assert.NotNil(t, m.Down, m.Version)
		if i > 0 {
			assert.Less(t, migrations[i-1].Version, m.Version)
		}
	}
}

func TestMigrations_ScriptsExecuteEmbeddedSQL(t *testing.T) {
	for _, m := range Migrations(nil) {
		if m.Version == "0004_populate_techniques" {
			continue
		}
		t.Run(m.Version, func(t *testing.T) {
			db := &recordingDB{}
			require.NoError(t, m.Up(context.Background(), db))
			require.NoError(t, m.Down(context.Background(), db))
		})
	}
}

func TestMigrations_FinalizeDropsSlugIndexBeforeField(t *testing.T) {
	db := &recordingDB{}
	require.NoError(t, script("0005_finalize_technique_fk.up.surql")(context.Background(), db))
	require.Len(t, db.executed, 1)

	body := db.executed[0]
	index := strings.Index(body, "REMOVE INDEX IF EXISTS technique_media_slug_media")
	field := strings.Index(body, "REMOVE FIELD IF EXISTS technique_slug")
	unique := strings.Index(body, "technique_media_technique_media ON technique_media FIELDS technique, media UNIQUE")
	require.NotEqual(t, -1, index)
	require.NotEqual(t, -1, field)
	require.NotEqual(t, -1, unique)
	assert.Less(t, index, field)
	assert.Less(t, field, unique)
}

func TestMigrations_PopulateUsesSeedLoader(t *testing.T) {
	boom := errors.New("no seed")
	migrations := Migrations(func() (*taxonomy.Document, error) { return nil, boom })

	var populate Migration
	for _, m := range migrations {
		if m.Version == "0004_populate_techniques" {
			populate = m
		}
	}

	err := populate.Up(context.Background(), &recordingDB{})
	assert.ErrorIs(t, err, boom)
}

func TestDefaultSeed_Golden(t *testing.T) {
	doc, err := DefaultSeed()
	require.NoError(t, err)

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, "default_seed", []byte(taxonomy.Outline(doc)))
}

func TestSeedFile(t *testing.T) {
	doc, err := SeedFile("data/techniques.json")()
	require.NoError(t, err)

	def, err := DefaultSeed()
	require.NoError(t, err)

	var a, b bytes.Buffer
	require.NoError(t, taxonomy.Encode(&a, doc, taxonomy.FormatJSON))
	require.NoError(t, taxonomy.Encode(&b, def, taxonomy.FormatJSON))
	assert.Equal(t, a.String(), b.String())
}
