// Package ledger keeps a SQLite record of finished bundling runs.
package ledger

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"embed"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"lambundle/pkg/bundle"
	"lambundle/pkg/ctxlog"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

var ErrNotFound = errors.New("build not found")

type Ledger struct {
	db *sql.DB
}

// Build is one recorded run.
type Build struct {
	ID             int64      `json:"id"`
	CreatedAt      time.Time  `json:"created_at"`
	Node           int        `json:"node"`
	Entries        int        `json:"entries"`
	BundleSeconds  float64    `json:"bundle_seconds"`
	ArchiveSeconds float64    `json:"archive_seconds"`
	ArtifactCount  int        `json:"artifact_count"`
	Artifacts      []Artifact `json:"artifacts,omitempty"`
}

// Artifact is one zip produced by a run.
type Artifact struct {
	Name   string `json:"name"`
	Path   string `json:"path"`
	Size   int64  `json:"size"`
	SHA256 string `json:"sha256"`
}

// Open creates or upgrades the ledger database at path.
func Open(ctx context.Context, path string) (*Ledger, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open ledger %s: %w", path, err)
	}
	if err := migrateUp(ctx, db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate ledger %s: %w", path, err)
	}
	return &Ledger{db: db}, nil
}

func migrateUp(ctx context.Context, db *sql.DB) error {
	sourceDriver, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return err
	}
	dbDriver, err := sqlite.WithInstance(db, &sqlite.Config{})
	if err != nil {
		return err
	}
	m, err := migrate.NewWithInstance("iofs", sourceDriver, "sqlite", dbDriver)
	if err != nil {
		return err
	}
	// m.Close would close db as well.
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return err
	}
	version, _, _ := m.Version()
	ctxlog.FromContext(ctx).Debug("ledger schema ready", "version", version)
	return nil
}

func (l *Ledger) Close() error {
	return l.db.Close()
}

// Record stores b with its artifacts and returns the new build id.
func (l *Ledger) Record(ctx context.Context, b Build) (int64, error) {
	tx, err := l.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`INSERT INTO builds (created_at, node, entries, bundle_seconds, archive_seconds) VALUES (?, ?, ?, ?, ?)`,
		b.CreatedAt.UnixMilli(), b.Node, b.Entries, b.BundleSeconds, b.ArchiveSeconds,
	)
	if err != nil {
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	for _, a := range b.Artifacts {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO artifacts (build_id, name, path, size, sha256) VALUES (?, ?, ?, ?, ?)`,
			id, a.Name, a.Path, a.Size, a.SHA256,
		); err != nil {
			return 0, err
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}
	ctxlog.FromContext(ctx).Debug("recorded build", "id", id, "artifacts", len(b.Artifacts))
	return id, nil
}

// List returns the latest builds first, without their artifacts.
func (l *Ledger) List(ctx context.Context, limit int) ([]Build, error) {
	rows, err := l.db.QueryContext(ctx, `
		SELECT b.id, b.created_at, b.node, b.entries, b.bundle_seconds, b.archive_seconds,
		       (SELECT COUNT(*) FROM artifacts a WHERE a.build_id = b.id)
		FROM builds b
		ORDER BY b.id DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var builds []Build
	for rows.Next() {
		b, err := scanBuild(rows)
		if err != nil {
			return nil, err
		}
		builds = append(builds, b)
	}
	return builds, rows.Err()
}

// Get returns one build with its artifacts.
func (l *Ledger) Get(ctx context.Context, id int64) (*Build, error) {
	row := l.db.QueryRowContext(ctx, `
		SELECT b.id, b.created_at, b.node, b.entries, b.bundle_seconds, b.archive_seconds,
		       (SELECT COUNT(*) FROM artifacts a WHERE a.build_id = b.id)
		FROM builds b
		WHERE b.id = ?`, id)
	b, err := scanBuild(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %d", ErrNotFound, id)
	}
	if err != nil {
		return nil, err
	}

	rows, err := l.db.QueryContext(ctx,
		`SELECT name, path, size, sha256 FROM artifacts WHERE build_id = ? ORDER BY name`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var a Artifact
		if err := rows.Scan(&a.Name, &a.Path, &a.Size, &a.SHA256); err != nil {
			return nil, err
		}
		b.Artifacts = append(b.Artifacts, a)
	}
	return &b, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanBuild(s scanner) (Build, error) {
	var b Build
	var createdAt int64
	if err := s.Scan(&b.ID, &createdAt, &b.Node, &b.Entries, &b.BundleSeconds, &b.ArchiveSeconds, &b.ArtifactCount); err != nil {
		return Build{}, err
	}
	b.CreatedAt = time.UnixMilli(createdAt).UTC()
	return b, nil
}

// FromResult turns a finished run into a Build, hashing every archive.
func FromResult(res *bundle.Result, node int, now time.Time) (Build, error) {
	b := Build{
		CreatedAt:      now,
		Node:           node,
		Entries:        len(res.Entries),
		BundleSeconds:  res.BundleTime.Seconds(),
		ArchiveSeconds: res.ArchiveTime.Seconds(),
		ArtifactCount:  len(res.Artifacts),
	}
	for _, a := range res.Artifacts {
		sum, err := Checksum(a.Archive)
		if err != nil {
			return Build{}, err
		}
		b.Artifacts = append(b.Artifacts, Artifact{Name: a.Name, Path: a.Archive, Size: a.Size, SHA256: sum})
	}
	return b, nil
}

// Checksum returns the hex sha256 of the file at path.
func Checksum(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()
	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
