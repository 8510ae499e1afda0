// Package sqlite implements the OpenTNF GeoPackage engine: a session over
// one GeoPackage file that creates the OpenTNF tables on demand, resolves
// the file's spatial reference and topology-level variant, and hands out
// one table manager per entity type.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/opentnf/tnfpkg/pkg/types"
)

// Database is a session over one GeoPackage file. The connection opens
// lazily on first use and is pinned: every statement, prepared or raw,
// runs on the same SQLite connection, so an open transaction covers all
// of them. A Database is not safe for concurrent use.
type Database struct {
	path            string
	template        string
	logger          *slog.Logger
	defaultTopology bool

	db     *sql.DB
	conn   *sql.Conn
	inTx   bool
	closed bool

	srid             int
	sridKnown        bool
	hasTopologyLevel bool

	managers [numTags]manager
}

// Option configures a Database.
type Option func(*Database)

// WithLogger sets the logger. The default is slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(d *Database) {
		if l != nil {
			d.logger = l
		}
	}
}

// WithTemplate makes Create copy the file at path instead of writing the
// built-in GeoPackage baseline.
func WithTemplate(path string) Option {
	return func(d *Database) { d.template = path }
}

// WithTopologyLevel sets the topology-level variant assumed when the file
// has no tnf_link table yet and the caller gives no explicit choice.
func WithTopologyLevel(on bool) Option {
	return func(d *Database) {
		d.defaultTopology = on
		d.hasTopologyLevel = on
	}
}

// New returns a session for the file at path. No I/O happens until the
// first operation that needs the connection.
func New(path string, opts ...Option) *Database {
	d := &Database{path: path, logger: slog.Default()}
	for _, o := range opts {
		o(d)
	}
	return d
}

// Path returns the file the session operates on.
func (d *Database) Path() string { return d.path }

func (d *Database) ctx() context.Context { return context.Background() }

// connection returns the pinned connection, opening it on first use.
func (d *Database) connection() (*sql.Conn, error) {
	if d.closed {
		return nil, types.ErrClosed
	}
	if d.conn != nil {
		return d.conn, nil
	}
	if err := setupDriver(); err != nil {
		return nil, err
	}
	db, err := sql.Open(driverName, d.path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", d.path, err)
	}
	db.SetMaxOpenConns(1)
	conn, err := db.Conn(d.ctx())
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("connecting to %s: %w", d.path, err)
	}
	d.db, d.conn = db, conn
	d.logger.Debug("opened connection", "path", d.path)
	return conn, nil
}

// Open connects to an existing file, resolves its SRID and detects the
// topology-level variant. hasTopologyLevel is used only when the file has
// no tnf_link table; nil keeps the session default.
func (d *Database) Open(hasTopologyLevel *bool) error {
	if _, err := d.connection(); err != nil {
		return err
	}
	if err := d.resolveSRID(); err != nil {
		return err
	}
	return d.detectTopologyLevel(hasTopologyLevel)
}

// SRID returns the spatial reference of the file, resolving it on first
// access.
func (d *Database) SRID() (int, error) {
	if d.sridKnown {
		return d.srid, nil
	}
	if err := d.resolveSRID(); err != nil {
		return 0, err
	}
	return d.srid, nil
}

// HasTopologyLevel reports whether tnf_link carries the topology-level
// columns in this session.
func (d *Database) HasTopologyLevel() bool { return d.hasTopologyLevel }

// resolveSRID reads the SRID registered for tnf_link_sequence and tnf_node.
// Both must be registered and must agree.
func (d *Database) resolveSRID() error {
	ok, err := d.TableExists(types.GeometryColumnsTable)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: %s does not exist", types.ErrSRIDMissing, types.GeometryColumnsTable)
	}

	var linkSRID, nodeSRID *int64
	err = d.Query(
		"SELECT table_name, srs_id FROM "+types.GeometryColumnsTable+" WHERE LOWER(table_name) IN (?, ?)",
		func(rec *Record) error {
			switch strings.ToLower(rec.String("table_name")) {
			case types.LinkSequenceTable:
				linkSRID = rec.Int64Ptr("srs_id")
			case types.NodeTable:
				nodeSRID = rec.Int64Ptr("srs_id")
			}
			return nil
		},
		types.LinkSequenceTable, types.NodeTable,
	)
	if err != nil {
		return fmt.Errorf("resolving SRID: %w", err)
	}
	if linkSRID == nil || nodeSRID == nil {
		return types.ErrSRIDMissing
	}
	if *linkSRID != *nodeSRID {
		return fmt.Errorf("%w: %s=%d, %s=%d", types.ErrMultipleSRIDs,
			types.LinkSequenceTable, *linkSRID, types.NodeTable, *nodeSRID)
	}
	d.srid, d.sridKnown = int(*linkSRID), true
	d.logger.Debug("resolved SRID", "srid", d.srid)
	return nil
}

func (d *Database) detectTopologyLevel(def *bool) error {
	exists, topology, err := d.linkTopology()
	if err != nil {
		return err
	}
	switch {
	case exists:
		d.hasTopologyLevel = topology
	case def != nil:
		d.hasTopologyLevel = *def
	default:
		d.hasTopologyLevel = d.defaultTopology
	}
	return nil
}

// linkTopology reports whether tnf_link exists and, if so, whether it
// carries the topology-level columns.
func (d *Database) linkTopology() (exists, topology bool, err error) {
	cols, err := d.TableColumns(types.LinkTable)
	if err != nil || len(cols) == 0 {
		return false, false, err
	}
	for _, c := range cols {
		if strings.EqualFold(c, types.TopologyLevelColumn) {
			return true, true, nil
		}
	}
	return true, false, nil
}

// Begin starts a transaction. Only one transaction may be active.
func (d *Database) Begin() error {
	if d.inTx {
		return types.ErrTransactionActive
	}
	if _, err := d.Exec("BEGIN"); err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	d.inTx = true
	return nil
}

// Commit commits the active transaction. When COMMIT fails the
// transaction stays active and the caller decides whether to Abort.
func (d *Database) Commit() error {
	if !d.inTx {
		return types.ErrNoTransaction
	}
	if _, err := d.Exec("COMMIT"); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	d.inTx = false
	return nil
}

// Abort rolls back the active transaction.
func (d *Database) Abort() error {
	if !d.inTx {
		return types.ErrNoTransaction
	}
	d.inTx = false
	if _, err := d.Exec("ROLLBACK"); err != nil {
		return fmt.Errorf("rolling back transaction: %w", err)
	}
	return nil
}

// InTransaction reports whether a transaction is active.
func (d *Database) InTransaction() bool { return d.inTx }

// Exec runs a statement on the session connection.
func (d *Database) Exec(query string, args ...any) (sql.Result, error) {
	conn, err := d.connection()
	if err != nil {
		return nil, err
	}
	res, err := conn.ExecContext(d.ctx(), query, bindAll(args)...)
	if err != nil {
		return nil, err
	}
	return res, nil
}

// Query runs a query and hands every row to read.
func (d *Database) Query(query string, read RowReader, args ...any) error {
	conn, err := d.connection()
	if err != nil {
		return err
	}
	rows, err := conn.QueryContext(d.ctx(), query, bindAll(args)...)
	if err != nil {
		return err
	}
	defer rows.Close()
	_, err = readRows(rows, read)
	return err
}

// QueryScalar returns the first column of the first row, or nil when the
// query yields no rows.
func (d *Database) QueryScalar(query string, args ...any) (any, error) {
	var out any
	seen := false
	err := d.Query(query, func(rec *Record) error {
		if !seen && len(rec.values) > 0 {
			out, seen = rec.values[0], true
		}
		return nil
	}, args...)
	return out, err
}

// Prepare returns a statement bound to the session connection. The caller
// owns it and must close it.
func (d *Database) Prepare(query string) (*sql.Stmt, error) {
	conn, err := d.connection()
	if err != nil {
		return nil, err
	}
	return conn.PrepareContext(d.ctx(), query)
}

// TableExists reports whether the file holds a table or view named name.
func (d *Database) TableExists(name string) (bool, error) {
	n, err := d.QueryScalar(
		"SELECT COUNT(*) FROM sqlite_master WHERE type IN ('table', 'view') AND LOWER(name) = LOWER(?)", name)
	if err != nil {
		return false, fmt.Errorf("checking table %s: %w", name, err)
	}
	c, _ := n.(int64)
	return c > 0, nil
}

// TableColumns returns the physical column names of table, or nothing
// when the table does not exist.
func (d *Database) TableColumns(table string) ([]string, error) {
	var cols []string
	err := d.Query("SELECT name FROM pragma_table_info(?)", func(rec *Record) error {
		cols = append(cols, rec.String("name"))
		return nil
	}, table)
	if err != nil {
		return nil, fmt.Errorf("reading columns of %s: %w", table, err)
	}
	return cols, nil
}

// ColumnExists reports whether table has a column named column, compared
// case-insensitively.
func (d *Database) ColumnExists(table, column string) (bool, error) {
	cols, err := d.TableColumns(table)
	if err != nil {
		return false, err
	}
	for _, c := range cols {
		if strings.EqualFold(c, column) {
			return true, nil
		}
	}
	return false, nil
}

// EnableForeignKeys turns on foreign key enforcement for the session.
func (d *Database) EnableForeignKeys() error {
	_, err := d.Exec("PRAGMA foreign_keys = ON")
	return err
}

// Close releases every table manager, rolls back an open transaction and
// closes the connection. Failures along the way are logged and the release
// sequence always runs to the end. Close is idempotent.
func (d *Database) Close() error {
	if d.closed {
		return nil
	}
	d.releaseManagers()
	if d.inTx {
		if err := d.Abort(); err != nil {
			d.logger.Warn("aborting transaction on close", "error", err)
		}
	}
	var errs []error
	if d.conn != nil {
		errs = append(errs, d.conn.Close())
	}
	if d.db != nil {
		errs = append(errs, d.db.Close())
	}
	if err := errors.Join(errs...); err != nil {
		d.logger.Warn("closing connection", "path", d.path, "error", err)
	}
	d.conn, d.db = nil, nil
	d.closed = true
	return nil
}

// releaseManagers closes and forgets every constructed table manager.
func (d *Database) releaseManagers() {
	for i, m := range d.managers {
		if m == nil {
			continue
		}
		if err := m.Close(); err != nil {
			d.logger.Warn("releasing table manager", "table", tag(i).String(), "error", err)
		}
		d.managers[i] = nil
	}
}

func bindAll(args []any) []any {
	out := make([]any, len(args))
	for i, a := range args {
		out[i] = bindValue(a)
	}
	return out
}
