package refstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gofrs/flock"
	"golang.org/x/text/cases"
	_ "modernc.org/sqlite"

	"ramanid/internal/config"
)

const lockRetryDelay = 50 * time.Millisecond

// Reference is one stored mineral spectrum.
type Reference struct {
	Filename      string
	Names         string
	Peaks         []float64
	StrongestPeak float64
	Wavelength    string
	DataX         []float64
	DataY         []float64
}

// CandidateFilter narrows candidate queries. Empty fields match everything.
type CandidateFilter struct {
	Wavelength string
}

// Store manages reference persistence backed by SQLite.
type Store struct {
	db   *sql.DB
	path string
	lock *flock.Flock
}

// Open opens the reference database named by the configuration.
func Open(cfg *config.Config) (*Store, error) {
	return OpenPath(cfg.Paths.DatabasePath)
}

// OpenPath initializes or connects to the database at path and applies migrations.
func OpenPath(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("open reference db: empty path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("ensure database directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: path, lock: flock.New(path + ".lock")}
	if err := store.applyMigrations(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Path returns the database file location.
func (s *Store) Path() string { return s.path }

// withWriteLock holds the inter-process writer lock while fn runs.
func (s *Store) withWriteLock(ctx context.Context, fn func() error) error {
	ok, err := s.lock.TryLockContext(ctx, lockRetryDelay)
	if err != nil {
		return fmt.Errorf("acquire write lock: %w", err)
	}
	if !ok {
		return ErrLocked
	}
	defer func() { _ = s.lock.Unlock() }()
	return fn()
}

// filenameKey is the form a filename is stored and looked up under.
func filenameKey(filename string) string {
	return strings.TrimSpace(filename)
}

// foldName is the key names are matched on. A Caser carries state, so each
// call builds its own.
func foldName(name string) string {
	return cases.Fold().String(strings.TrimSpace(name))
}

func validateReference(ref Reference) error {
	switch {
	case strings.TrimSpace(ref.Filename) == "":
		return fmt.Errorf("%w: filename is required", ErrInvalidReference)
	case strings.TrimSpace(ref.Names) == "":
		return fmt.Errorf("%w: %s has no mineral name", ErrInvalidReference, ref.Filename)
	case len(ref.Peaks) == 0:
		return fmt.Errorf("%w: %s has no peaks", ErrInvalidReference, ref.Filename)
	case math.IsNaN(ref.StrongestPeak) || math.IsInf(ref.StrongestPeak, 0):
		return fmt.Errorf("%w: %s strongest peak is %v", ErrInvalidReference, ref.Filename, ref.StrongestPeak)
	case len(ref.DataX) != len(ref.DataY):
		return fmt.Errorf("%w: %s data_x has %d values, data_y has %d", ErrInvalidReference, ref.Filename, len(ref.DataX), len(ref.DataY))
	}
	return nil
}

// Upsert inserts or replaces one reference.
func (s *Store) Upsert(ctx context.Context, ref Reference) error {
	_, err := s.UpsertMany(ctx, []Reference{ref})
	return err
}

// UpsertMany inserts or replaces refs in one transaction and reports how many
// rows were written. Nothing is written if any reference is invalid.
func (s *Store) UpsertMany(ctx context.Context, refs []Reference) (int, error) {
	type row struct {
		ref          Reference
		peaks        []byte
		dataX, dataY any
	}
	rows := make([]row, 0, len(refs))
	for _, ref := range refs {
		ref.Filename = filenameKey(ref.Filename)
		if err := validateReference(ref); err != nil {
			return 0, err
		}
		peaks, err := EncodeFloats(ref.Peaks)
		if err != nil {
			return 0, fmt.Errorf("encode %s peaks: %w", ref.Filename, err)
		}
		dataX, err := encodeOptional(ref.DataX)
		if err != nil {
			return 0, fmt.Errorf("encode %s data_x: %w", ref.Filename, err)
		}
		dataY, err := encodeOptional(ref.DataY)
		if err != nil {
			return 0, fmt.Errorf("encode %s data_y: %w", ref.Filename, err)
		}
		rows = append(rows, row{ref: ref, peaks: peaks, dataX: dataX, dataY: dataY})
	}

	written := 0
	err := s.withWriteLock(ctx, func() error {
		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("begin upsert tx: %w", err)
		}
		defer func() { _ = tx.Rollback() }()

		stmt, err := tx.PrepareContext(ctx, `INSERT INTO spectra (
                filename, names, names_folded, peaks, strongest_peak, wavelength, data_x, data_y
            ) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
            ON CONFLICT(filename) DO UPDATE SET
                names = excluded.names, names_folded = excluded.names_folded,
                peaks = excluded.peaks, strongest_peak = excluded.strongest_peak,
                wavelength = excluded.wavelength, data_x = excluded.data_x, data_y = excluded.data_y`)
		if err != nil {
			return fmt.Errorf("prepare upsert: %w", err)
		}
		defer stmt.Close()

		for _, r := range rows {
			if _, err := stmt.ExecContext(ctx,
				r.ref.Filename,
				strings.TrimSpace(r.ref.Names),
				foldName(r.ref.Names),
				r.peaks,
				r.ref.StrongestPeak,
				nullableString(r.ref.Wavelength),
				r.dataX,
				r.dataY,
			); err != nil {
				return fmt.Errorf("upsert %s: %w", r.ref.Filename, err)
			}
			written++
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit upsert: %w", err)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return written, nil
}

// Delete removes a reference by filename.
func (s *Store) Delete(ctx context.Context, filename string) error {
	filename = filenameKey(filename)
	return s.withWriteLock(ctx, func() error {
		res, err := s.db.ExecContext(ctx, `DELETE FROM spectra WHERE filename = ?`, filename)
		if err != nil {
			return fmt.Errorf("delete %s: %w", filename, err)
		}
		if n, err := res.RowsAffected(); err == nil && n == 0 {
			return fmt.Errorf("%w: %s", ErrNotFound, filename)
		}
		return nil
	})
}

// Count returns the number of stored references.
func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(1) FROM spectra`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count references: %w", err)
	}
	return n, nil
}
