package repo

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/ansel1/merry"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
	"github.com/powerman/structlog"
)

var log = structlog.New(structlog.KeyUnit, "repo")

// Driver names accepted by OpenSQL.
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite3"
)

var schema = map[string][]string{
	DriverPostgres: {
		`CREATE TABLE IF NOT EXISTS projects (
			seq BIGSERIAL PRIMARY KEY,
			owner TEXT NOT NULL,
			id TEXT NOT NULL,
			name TEXT NOT NULL,
			location TEXT NOT NULL DEFAULT '',
			client TEXT NOT NULL DEFAULT '',
			type TEXT NOT NULL DEFAULT '',
			area_m2 DOUBLE PRECISION NOT NULL DEFAULT 0,
			value DOUBLE PRECISION NOT NULL DEFAULT 0,
			status TEXT NOT NULL,
			progress INTEGER NOT NULL DEFAULT 0,
			start_date TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMP NOT NULL,
			UNIQUE (owner, id)
		)`,
		`CREATE TABLE IF NOT EXISTS analyses (
			seq BIGSERIAL PRIMARY KEY,
			owner TEXT NOT NULL,
			id TEXT NOT NULL,
			kind TEXT NOT NULL,
			payload TEXT NOT NULL,
			created_at TIMESTAMP NOT NULL,
			UNIQUE (owner, id)
		)`,
	},
	DriverSQLite: {
		`CREATE TABLE IF NOT EXISTS projects (
			seq INTEGER PRIMARY KEY AUTOINCREMENT,
			owner TEXT NOT NULL,
			id TEXT NOT NULL,
			name TEXT NOT NULL,
			location TEXT NOT NULL DEFAULT '',
			client TEXT NOT NULL DEFAULT '',
			type TEXT NOT NULL DEFAULT '',
			area_m2 REAL NOT NULL DEFAULT 0,
			value REAL NOT NULL DEFAULT 0,
			status TEXT NOT NULL,
			progress INTEGER NOT NULL DEFAULT 0,
			start_date TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMP NOT NULL,
			UNIQUE (owner, id)
		)`,
		`CREATE TABLE IF NOT EXISTS analyses (
			seq INTEGER PRIMARY KEY AUTOINCREMENT,
			owner TEXT NOT NULL,
			id TEXT NOT NULL,
			kind TEXT NOT NULL,
			payload TEXT NOT NULL,
			created_at TIMESTAMP NOT NULL,
			UNIQUE (owner, id)
		)`,
	},
}

const settingsTable = `CREATE TABLE IF NOT EXISTS settings (
	owner TEXT PRIMARY KEY,
	language TEXT NOT NULL,
	region TEXT NOT NULL,
	currency TEXT NOT NULL,
	theme TEXT NOT NULL
)`

const projectColumns = `id, name, location, client, type, area_m2, value, status, progress, start_date, created_at`

// SQLStore is a record store shared by all sessions. Records are scoped by
// the owner login, see For.
type SQLStore struct {
	db *sqlx.DB
}

// OpenSQL connects to a postgres or sqlite3 database and creates the tables.
func OpenSQL(driver, dsn string) (*SQLStore, error) {
	if _, ok := schema[driver]; !ok {
		return nil, merry.Errorf("unsupported database driver %q", driver)
	}
	db, err := sqlx.Open(driver, dsn)
	if err != nil {
		return nil, merry.Prependf(err, "open %s", driver)
	}
	if driver == DriverSQLite {
		// one connection keeps ":memory:" databases alive and serializes writers
		db.SetMaxOpenConns(1)
	} else {
		db.SetMaxOpenConns(25)
		db.SetMaxIdleConns(25)
		db.SetConnMaxLifetime(5 * time.Minute)
	}
	if err := db.Ping(); err != nil {
		log.ErrIfFail(db.Close)
		return nil, merry.Prependf(err, "ping %s", driver)
	}
	s, err := NewSQLStore(db)
	if err != nil {
		log.ErrIfFail(db.Close)
		return nil, err
	}
	return s, nil
}

// NewSQLStore creates the tables in db when missing.
func NewSQLStore(db *sqlx.DB) (*SQLStore, error) {
	stmts, ok := schema[db.DriverName()]
	if !ok {
		return nil, merry.Errorf("unsupported database driver %q", db.DriverName())
	}
	for _, q := range append(stmts, settingsTable) {
		if _, err := db.Exec(q); err != nil {
			return nil, merry.Prepend(err, "create schema")
		}
	}
	return &SQLStore{db: db}, nil
}

// For returns the records of owner.
func (s *SQLStore) For(owner string) *SQLRepository {
	return &SQLRepository{db: s.db, owner: owner, now: time.Now}
}

func (s *SQLStore) Close() error {
	return s.db.Close()
}

type SQLRepository struct {
	db    *sqlx.DB
	owner string
	now   func() time.Time
}

type analysisRow struct {
	ID        string    `db:"id"`
	Kind      string    `db:"kind"`
	Payload   string    `db:"payload"`
	CreatedAt time.Time `db:"created_at"`
}

func (a analysisRow) analysis() Analysis {
	return Analysis{ID: a.ID, Kind: AnalysisKind(a.Kind), Payload: json.RawMessage(a.Payload), Timestamp: a.CreatedAt}
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	Rebind(query string) string
}

func (r *SQLRepository) insertProject(ctx context.Context, db execer, p Project) error {
	_, err := db.ExecContext(ctx, db.Rebind(`INSERT INTO projects (owner, `+projectColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`),
		r.owner, p.ID, p.Name, p.Location, p.Client, p.Type, p.AreaM2, p.Value,
		p.Status, p.Progress, p.StartDate, p.Created)
	return err
}

func (r *SQLRepository) insertAnalysis(ctx context.Context, db execer, a Analysis) error {
	_, err := db.ExecContext(ctx, db.Rebind(`INSERT INTO analyses (owner, id, kind, payload, created_at)
		VALUES (?, ?, ?, ?, ?)`),
		r.owner, a.ID, a.Kind, string(a.Payload), a.Timestamp)
	return err
}

func (r *SQLRepository) upsertSettings(ctx context.Context, db execer, s Settings) error {
	_, err := db.ExecContext(ctx, db.Rebind(`INSERT INTO settings (owner, language, region, currency, theme)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (owner) DO UPDATE SET
			language = excluded.language, region = excluded.region,
			currency = excluded.currency, theme = excluded.theme`),
		r.owner, s.Language, s.Region, s.Currency, s.Theme)
	return err
}

func (r *SQLRepository) CreateProject(ctx context.Context, p Project) (Project, error) {
	p, err := prepareProject(p, uuid.NewString(), r.now())
	if err != nil {
		return Project{}, err
	}
	if err := r.insertProject(ctx, r.db, p); err != nil {
		return Project{}, merry.Prepend(err, "insert project")
	}
	return p, nil
}

func (r *SQLRepository) ListProjects(ctx context.Context) ([]Project, error) {
	out := []Project{}
	err := r.db.SelectContext(ctx, &out, r.db.Rebind(`SELECT `+projectColumns+`
		FROM projects WHERE owner = ? ORDER BY seq`), r.owner)
	if err != nil {
		return nil, merry.Prepend(err, "list projects")
	}
	return out, nil
}

func (r *SQLRepository) GetProject(ctx context.Context, id string) (Project, error) {
	var p Project
	err := r.db.GetContext(ctx, &p, r.db.Rebind(`SELECT `+projectColumns+`
		FROM projects WHERE owner = ? AND id = ?`), r.owner, id)
	if err == sql.ErrNoRows {
		return Project{}, merry.Here(ErrNotFound).Appendf("project %s", id)
	}
	if err != nil {
		return Project{}, merry.Prepend(err, "get project")
	}
	return p, nil
}

func (r *SQLRepository) SaveAnalysis(ctx context.Context, kind AnalysisKind, payload interface{}) (Analysis, error) {
	raw, err := encodePayload(payload)
	if err != nil {
		return Analysis{}, err
	}
	a := Analysis{ID: uuid.NewString(), Kind: kind, Payload: raw, Timestamp: r.now().UTC()}
	if err := r.insertAnalysis(ctx, r.db, a); err != nil {
		return Analysis{}, merry.Prepend(err, "insert analysis")
	}
	return a, nil
}

// ListAnalyses returns the newest analysis first.
func (r *SQLRepository) ListAnalyses(ctx context.Context) ([]Analysis, error) {
	var rows []analysisRow
	err := r.db.SelectContext(ctx, &rows, r.db.Rebind(`SELECT id, kind, payload, created_at
		FROM analyses WHERE owner = ? ORDER BY seq DESC`), r.owner)
	if err != nil {
		return nil, merry.Prepend(err, "list analyses")
	}
	out := make([]Analysis, len(rows))
	for i, row := range rows {
		out[i] = row.analysis()
	}
	return out, nil
}

func (r *SQLRepository) GetAnalysis(ctx context.Context, id string) (Analysis, error) {
	var row analysisRow
	err := r.db.GetContext(ctx, &row, r.db.Rebind(`SELECT id, kind, payload, created_at
		FROM analyses WHERE owner = ? AND id = ?`), r.owner, id)
	if err == sql.ErrNoRows {
		return Analysis{}, merry.Here(ErrNotFound).Appendf("analysis %s", id)
	}
	if err != nil {
		return Analysis{}, merry.Prepend(err, "get analysis")
	}
	return row.analysis(), nil
}

func (r *SQLRepository) Settings(ctx context.Context) (Settings, error) {
	var s Settings
	err := r.db.GetContext(ctx, &s, r.db.Rebind(`SELECT language, region, currency, theme
		FROM settings WHERE owner = ?`), r.owner)
	if err == sql.ErrNoRows {
		return DefaultSettings, nil
	}
	if err != nil {
		return Settings{}, merry.Prepend(err, "get settings")
	}
	return s, nil
}

func (r *SQLRepository) UpdateSettings(ctx context.Context, s Settings) (Settings, error) {
	s = prepareSettings(s)
	if err := r.upsertSettings(ctx, r.db, s); err != nil {
		return Settings{}, merry.Prepend(err, "update settings")
	}
	return s, nil
}

func (r *SQLRepository) Stats(ctx context.Context) (Stats, error) {
	projects, err := r.ListProjects(ctx)
	if err != nil {
		return Stats{}, err
	}
	var n int
	err = r.db.GetContext(ctx, &n, r.db.Rebind(`SELECT COUNT(*) FROM analyses WHERE owner = ?`), r.owner)
	if err != nil {
		return Stats{}, merry.Prepend(err, "count analyses")
	}
	return computeStats(projects, n), nil
}

func (r *SQLRepository) Export(ctx context.Context) (Snapshot, error) {
	var s Snapshot
	var err error
	if s.Projects, err = r.ListProjects(ctx); err != nil {
		return Snapshot{}, err
	}
	if s.Analyses, err = r.ListAnalyses(ctx); err != nil {
		return Snapshot{}, err
	}
	// oldest first, matching insertion order on import
	for i, j := 0, len(s.Analyses)-1; i < j; i, j = i+1, j-1 {
		s.Analyses[i], s.Analyses[j] = s.Analyses[j], s.Analyses[i]
	}
	if s.Settings, err = r.Settings(ctx); err != nil {
		return Snapshot{}, err
	}
	return s, nil
}

// Import replaces the owner's records with s in one transaction.
func (r *SQLRepository) Import(ctx context.Context, s Snapshot) (err error) {
	if err := validateSnapshot(s); err != nil {
		return err
	}
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return merry.Prepend(err, "begin import")
	}
	defer func() {
		if err != nil {
			log.ErrIfFail(tx.Rollback)
		}
	}()
	for _, table := range []string{"projects", "analyses"} {
		if _, err = tx.ExecContext(ctx, tx.Rebind(`DELETE FROM `+table+` WHERE owner = ?`), r.owner); err != nil {
			return merry.Prependf(err, "clear %s", table)
		}
	}
	for _, p := range s.Projects {
		if err = r.insertProject(ctx, tx, p); err != nil {
			return merry.Prependf(err, "import project %s", p.ID)
		}
	}
	for _, a := range s.Analyses {
		if err = r.insertAnalysis(ctx, tx, a); err != nil {
			return merry.Prependf(err, "import analysis %s", a.ID)
		}
	}
	if err = r.upsertSettings(ctx, tx, prepareSettings(s.Settings)); err != nil {
		return merry.Prepend(err, "import settings")
	}
	if err = tx.Commit(); err != nil {
		return merry.Prepend(err, "commit import")
	}
	return nil
}

// Close is a no-op; the shared database is closed by SQLStore.Close.
func (r *SQLRepository) Close() error {
	return nil
}
