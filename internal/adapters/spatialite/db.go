// Package spatialite provides the SpatiaLite-backed spatial repository.
package spatialite

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"

	"github.com/mattn/go-sqlite3"

	"github.com/jobrunner/strata/internal/domain"
	"github.com/jobrunner/strata/internal/refsys"
)

// DriverName is the database/sql driver registered with SpatiaLite
// extension support.
const DriverName = "sqlite3_spatialite"

// securityEnv toggles SpatiaLite's privileged functions (ImportSHP,
// ExportSHP). The extension reads it at load time.
const securityEnv = "SPATIALITE_SECURITY"

// Ensure sqlite3 driver is registered with extension support.
func init() {
	sql.Register(DriverName, &sqlite3.SQLiteDriver{
		Extensions: spatialiteLibraryPaths(),
	})
}

// spatialiteLibraryPaths returns a list of paths to try for loading
// SpatiaLite. The order is important: environment variable first, then
// platform-specific paths.
func spatialiteLibraryPaths() []string {
	if envPath := os.Getenv("SPATIALITE_LIBRARY_PATH"); envPath != "" {
		return []string{envPath}
	}

	return []string{
		// Alpine Linux (Docker containers)
		"/usr/lib/mod_spatialite.so",
		"/usr/lib/mod_spatialite.so.8",

		// Debian/Ubuntu amd64
		"/usr/lib/x86_64-linux-gnu/mod_spatialite.so",
		"/usr/lib/x86_64-linux-gnu/mod_spatialite.so.8",

		// Debian/Ubuntu arm64
		"/usr/lib/aarch64-linux-gnu/mod_spatialite.so",
		"/usr/lib/aarch64-linux-gnu/mod_spatialite.so.8",

		// macOS Homebrew (Intel)
		"/usr/local/lib/mod_spatialite.dylib",

		// macOS Homebrew (Apple Silicon)
		"/opt/homebrew/lib/mod_spatialite.dylib",

		// Generic names (let the system find them via LD_LIBRARY_PATH)
		"mod_spatialite.so",
		"mod_spatialite",
		"mod_spatialite.dylib",
	}
}

// RefResolver is the slice of the spatial reference resolver the
// repository depends on.
type RefResolver interface {
	HasSRID(ctx context.Context, srid int) (bool, error)
	Resolve(ctx context.Context, srid int, authority string) (bool, error)
	CRS(ctx context.Context, srid int) (domain.CRS, error)
}

// DB wraps a SpatiaLite database connection with the spatial ETL
// operations.
type DB struct {
	conn     *sql.DB
	path     string
	resolver RefResolver
	logger   *slog.Logger
	relaxed  bool
}

// Options configures Open.
type Options struct {
	// Relaxed enables SpatiaLite's relaxed security mode, required by the
	// shapefile import/export functions. Must be set before the extension
	// is loaded.
	Relaxed bool

	// Fetcher supplies reference definitions for SRIDs absent from the
	// registry. A default spatialreference.org fetcher is used when nil.
	Fetcher refsys.DefinitionFetcher
}

// Open opens (or creates) a SpatiaLite database at path, ":memory:" for
// an in-memory database. Spatial metadata tables are initialized when the
// database is new.
func Open(ctx context.Context, path string, opts Options, logger *slog.Logger) (*DB, error) {
	if opts.Relaxed {
		if err := os.Setenv(securityEnv, "relaxed"); err != nil {
			return nil, fmt.Errorf("enabling relaxed security: %w", err)
		}
	}

	conn, err := sql.Open(DriverName, fmt.Sprintf("file:%s?cache=shared", path))
	if err != nil {
		return nil, &domain.StorageError{Operation: "open", Key: path, Err: err}
	}

	// The alteration scripts and loads assume a single writer on a single
	// connection.
	conn.SetMaxOpenConns(1)

	if err := conn.PingContext(ctx); err != nil {
		_ = conn.Close()
		return nil, &domain.StorageError{Operation: "open", Key: path, Err: err}
	}

	// Verify SpatiaLite is loaded by checking its version.
	var version string
	if err := conn.QueryRowContext(ctx, "SELECT spatialite_version()").Scan(&version); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("SpatiaLite extension not available: %w", err)
	}

	db := &DB{
		conn:    conn,
		path:    path,
		logger:  logger,
		relaxed: opts.Relaxed,
	}
	db.resolver = refsys.NewResolver(conn, fetcherOrDefault(opts.Fetcher), logger)

	// Initialize spatial metadata if the database is new.
	hasMeta, err := db.HasTable(ctx, "geometry_columns")
	if err != nil {
		_ = conn.Close()
		return nil, err
	}
	if !hasMeta {
		if _, err := conn.ExecContext(ctx, "SELECT InitSpatialMetaData(1)"); err != nil {
			_ = conn.Close()
			return nil, fmt.Errorf("initializing spatial metadata: %w", err)
		}
		logger.Info("initialized spatial metadata", "path", path, "spatialite", version)
	}

	return db, nil
}

func fetcherOrDefault(f refsys.DefinitionFetcher) refsys.DefinitionFetcher {
	if f != nil {
		return f
	}
	return refsys.NewFetcher(refsys.FetcherConfig{})
}

// Close closes the underlying connection.
func (d *DB) Close() error {
	return d.conn.Close()
}

// Conn exposes the underlying connection for raw statements.
func (d *DB) Conn() *sql.DB {
	return d.conn
}

// Path returns the database file path.
func (d *DB) Path() string {
	return d.path
}

// Resolver returns the spatial reference resolver bound to this database.
func (d *DB) Resolver() RefResolver {
	return d.resolver
}

// Relaxed reports whether relaxed security mode was requested at open.
func (d *DB) Relaxed() bool {
	return d.relaxed
}

// Version returns the version of the loaded SpatiaLite extension.
func (d *DB) Version(ctx context.Context) (string, error) {
	var version string
	if err := d.conn.QueryRowContext(ctx, "SELECT spatialite_version()").Scan(&version); err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrUnavailable, err)
	}
	return version, nil
}

// HasTable reports whether a table with the given name exists.
func (d *DB) HasTable(ctx context.Context, name string) (bool, error) {
	var count int
	err := d.conn.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = ?", name,
	).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("checking table %s: %w", name, err)
	}
	return count > 0, nil
}

// TableNames returns the names of all tables in the database.
func (d *DB) TableNames(ctx context.Context) ([]string, error) {
	rows, err := d.conn.QueryContext(ctx,
		"SELECT name FROM sqlite_master WHERE type = 'table' ORDER BY name")
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

// checkRelaxedSecurity guards the privileged import/export functions.
func (d *DB) checkRelaxedSecurity() error {
	if !d.relaxed || os.Getenv(securityEnv) != "relaxed" {
		return domain.ErrRelaxedSecurity
	}
	return nil
}
