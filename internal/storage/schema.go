package storage

import (
	"database/sql"
	"fmt"
	"log/slog"
)

// missingAddressPlaceholder is stored for places whose address cannot be
// recovered during a lossy rebuild, and returned by callers when address
// lookup is unavailable.
const missingAddressPlaceholder = "Endereço não disponível"

// columnSpec pairs a column name with an ALTER-safe definition. SQLite
// rejects ADD COLUMN with a non-constant default, so added timestamp
// columns default to '' instead of CURRENT_TIMESTAMP.
type columnSpec struct {
	name       string
	definition string
}

type tableSpec struct {
	name      string
	createSQL string
	columns   []columnSpec
}

// schemaTables is the canonical shape of the store. Column order is the
// declaration order reconcileColumns walks, so re-running the reconcile
// is a no-op once every column exists.
var schemaTables = []tableSpec{
	{
		name: "accounts",
		createSQL: `CREATE TABLE IF NOT EXISTS accounts (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			email TEXT UNIQUE NOT NULL,
			name TEXT NOT NULL,
			password TEXT NOT NULL,
			image TEXT,
			biometric_enabled INTEGER DEFAULT 0,
			created_at TEXT NOT NULL DEFAULT ''
		)`,
		columns: []columnSpec{
			{name: "image", definition: `TEXT`},
			{name: "biometric_enabled", definition: `INTEGER DEFAULT 0`},
			{name: "created_at", definition: `TEXT NOT NULL DEFAULT ''`},
		},
	},
	{
		name: "places",
		createSQL: `CREATE TABLE IF NOT EXISTS places (
			id TEXT PRIMARY KEY,
			title TEXT NOT NULL,
			photo TEXT NOT NULL,
			address TEXT,
			latitude REAL,
			longitude REAL,
			date TEXT NOT NULL,
			photo_date TEXT NOT NULL DEFAULT '',
			is_favorite INTEGER DEFAULT 0,
			owner_id INTEGER NOT NULL,
			created_at TEXT NOT NULL DEFAULT '',
			FOREIGN KEY (owner_id) REFERENCES accounts (id)
		)`,
		columns: []columnSpec{
			{name: "address", definition: `TEXT`},
			{name: "latitude", definition: `REAL`},
			{name: "longitude", definition: `REAL`},
			{name: "photo_date", definition: `TEXT NOT NULL DEFAULT ''`},
			{name: "is_favorite", definition: `INTEGER DEFAULT 0`},
			{name: "created_at", definition: `TEXT NOT NULL DEFAULT ''`},
		},
	},
	{
		name: "sessions",
		createSQL: `CREATE TABLE IF NOT EXISTS sessions (
			id INTEGER PRIMARY KEY,
			owner_id INTEGER NOT NULL,
			is_logged_in INTEGER DEFAULT 1,
			last_login TEXT NOT NULL DEFAULT '',
			FOREIGN KEY (owner_id) REFERENCES accounts (id)
		)`,
		columns: []columnSpec{
			{name: "is_logged_in", definition: `INTEGER DEFAULT 1`},
			{name: "last_login", definition: `TEXT NOT NULL DEFAULT ''`},
		},
	},
	{
		name: "activity",
		createSQL: `CREATE TABLE IF NOT EXISTS activity (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			owner_id INTEGER,
			action TEXT NOT NULL,
			target_id TEXT,
			details TEXT,
			created_at TEXT NOT NULL DEFAULT ''
		)`,
		columns: []columnSpec{
			{name: "target_id", definition: `TEXT`},
			{name: "details", definition: `TEXT`},
			{name: "created_at", definition: `TEXT NOT NULL DEFAULT ''`},
		},
	},
}

type SchemaOptions struct {
	// AllowRebuild opts in to the lossy drop-and-recreate recovery path
	// when the incremental reconcile fails. Off by default: recovery may
	// substitute placeholder values for fields it cannot salvage.
	AllowRebuild bool
	Logger       *slog.Logger
}

// EnsureSchema brings the store to the expected table shapes. It is
// idempotent across relaunches and must complete before any repository
// operation is dispatched.
func EnsureSchema(db *sql.DB, opts SchemaOptions) error {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	err := applySchema(db)
	if err == nil {
		return nil
	}

	if !opts.AllowRebuild {
		return fmt.Errorf("%w: %v", ErrRebuildNeeded, err)
	}

	logger.Error("schema reconcile failed, rebuilding tables with best-effort data carry-over",
		slog.Bool("lossy_rebuild", true),
		slog.String("reconcile_error", err.Error()),
	)
	if err := rebuildFromScratch(db); err != nil {
		return fmt.Errorf("rebuild schema: %w", err)
	}
	logger.Warn("schema rebuild completed, unsalvageable fields replaced with defaults",
		slog.Bool("lossy_rebuild", true),
	)
	return nil
}

func applySchema(db *sql.DB) error {
	for _, table := range schemaTables {
		if _, err := db.Exec(table.createSQL); err != nil {
			return fmt.Errorf("create table %s: %w", table.name, err)
		}
		if err := reconcileColumns(db, table); err != nil {
			return err
		}
	}
	return nil
}

// reconcileColumns adds each expected column missing from the live
// table, in declaration order. It never removes or renames columns.
func reconcileColumns(db *sql.DB, table tableSpec) error {
	for _, column := range table.columns {
		exists, err := columnExists(db, table.name, column.name)
		if err != nil {
			return err
		}
		if exists {
			continue
		}
		if _, err := db.Exec(`ALTER TABLE ` + table.name + ` ADD COLUMN ` + column.name + ` ` + column.definition); err != nil {
			return fmt.Errorf("add %s.%s: %w", table.name, column.name, err)
		}
	}
	return nil
}

func columnExists(db *sql.DB, table, column string) (bool, error) {
	rows, err := db.Query(`PRAGMA table_info(` + table + `)`)
	if err != nil {
		return false, fmt.Errorf("query table info %s: %w", table, err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			cid     int
			name    string
			typeStr string
			notNull int
			dfltVal sql.NullString
			pk      int
		)
		if err := rows.Scan(&cid, &name, &typeStr, &notNull, &dfltVal, &pk); err != nil {
			return false, fmt.Errorf("scan table info %s: %w", table, err)
		}
		if name == column {
			return true, nil
		}
	}
	if err := rows.Err(); err != nil {
		return false, fmt.Errorf("iterate table info %s: %w", table, err)
	}
	return false, nil
}

type salvagedAccount struct {
	id        int64
	email     string
	name      string
	password  string
	image     sql.NullString
	biometric sql.NullInt64
	createdAt sql.NullString
}

type salvagedPlace struct {
	id      string
	title   string
	photo   string
	date    string
	ownerID int64
}

type salvagedSession struct {
	id        int64
	ownerID   int64
	loggedIn  sql.NullInt64
	lastLogin sql.NullString
}

// rebuildFromScratch reads out whatever rows it can, drops the live
// tables, recreates the canonical shape and reinserts the salvaged
// rows with safe defaults for fields that did not previously exist.
// Read errors are swallowed as empty sets: this path trades fidelity
// for a working store.
func rebuildFromScratch(db *sql.DB) error {
	accounts := salvageAccounts(db)
	places := salvagePlaces(db)
	sessions := salvageSessions(db)

	// Activity history is not salvaged; it restarts empty.
	for _, table := range []string{"places", "sessions", "activity", "accounts"} {
		if _, err := db.Exec(`DROP TABLE IF EXISTS ` + table); err != nil {
			return fmt.Errorf("drop table %s: %w", table, err)
		}
	}
	for _, table := range schemaTables {
		if _, err := db.Exec(table.createSQL); err != nil {
			return fmt.Errorf("recreate table %s: %w", table.name, err)
		}
	}

	now := fmtTime(nowUTC())
	for _, account := range accounts {
		createdAt := account.createdAt.String
		if createdAt == "" {
			createdAt = now
		}
		_, err := db.Exec(`
			INSERT INTO accounts (id, email, name, password, image, biometric_enabled, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?)
		`, account.id, account.email, account.name, account.password, account.image, account.biometric.Int64, createdAt)
		if err != nil {
			return fmt.Errorf("reinsert account %d: %w", account.id, err)
		}
	}
	for _, place := range places {
		_, err := db.Exec(`
			INSERT INTO places (id, title, photo, address, latitude, longitude, date, photo_date, is_favorite, owner_id, created_at)
			VALUES (?, ?, ?, ?, NULL, NULL, ?, ?, 0, ?, ?)
		`, place.id, place.title, place.photo, missingAddressPlaceholder, place.date, place.date, place.ownerID, now)
		if err != nil {
			return fmt.Errorf("reinsert place %s: %w", place.id, err)
		}
	}
	for _, session := range sessions {
		loggedIn := int64(1)
		if session.loggedIn.Valid {
			loggedIn = session.loggedIn.Int64
		}
		lastLogin := session.lastLogin.String
		if lastLogin == "" {
			lastLogin = now
		}
		_, err := db.Exec(`
			INSERT INTO sessions (id, owner_id, is_logged_in, last_login)
			VALUES (?, ?, ?, ?)
		`, session.id, session.ownerID, loggedIn, lastLogin)
		if err != nil {
			return fmt.Errorf("reinsert session %d: %w", session.id, err)
		}
	}
	return nil
}

func salvageAccounts(db *sql.DB) []salvagedAccount {
	rows, err := db.Query(`SELECT id, email, name, password, image, biometric_enabled, created_at FROM accounts`)
	if err != nil {
		return nil
	}
	defer rows.Close()

	var out []salvagedAccount
	for rows.Next() {
		var account salvagedAccount
		if err := rows.Scan(&account.id, &account.email, &account.name, &account.password, &account.image, &account.biometric, &account.createdAt); err != nil {
			continue
		}
		out = append(out, account)
	}
	return out
}

// salvagePlaces only reads the columns every historical shape of the
// places table has had; newer fields are repopulated with defaults.
func salvagePlaces(db *sql.DB) []salvagedPlace {
	rows, err := db.Query(`SELECT id, title, photo, date, owner_id FROM places`)
	if err != nil {
		return nil
	}
	defer rows.Close()

	var out []salvagedPlace
	for rows.Next() {
		var place salvagedPlace
		if err := rows.Scan(&place.id, &place.title, &place.photo, &place.date, &place.ownerID); err != nil {
			continue
		}
		out = append(out, place)
	}
	return out
}

func salvageSessions(db *sql.DB) []salvagedSession {
	rows, err := db.Query(`SELECT id, owner_id, is_logged_in, last_login FROM sessions`)
	if err != nil {
		return nil
	}
	defer rows.Close()

	var out []salvagedSession
	for rows.Next() {
		var session salvagedSession
		if err := rows.Scan(&session.id, &session.ownerID, &session.loggedIn, &session.lastLogin); err != nil {
			continue
		}
		out = append(out, session)
	}
	return out
}
