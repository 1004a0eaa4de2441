// Package archive packs per-function output directories into zip files.
package archive

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"lambundle/pkg/ctxlog"

	"github.com/klauspost/compress/zip"
	"golang.org/x/sync/errgroup"
)

// ReproducibleTime is the modification time stamped on every entry when
// Options.Reproducible is set (the earliest time a zip header can hold).
var ReproducibleTime = time.Date(1980, time.January, 1, 0, 0, 0, 0, time.UTC)

// Options tune how archives are written.
type Options struct {
	// Reproducible stamps ReproducibleTime on every entry so identical trees
	// produce identical archives.
	Reproducible bool
	// OnDone is called after each archive of ZipAll is closed. It may run
	// concurrently.
	OnDone func(Job, Stats)
}

// Job is one directory to archive.
type Job struct {
	Name string // artifact name, used for logging
	Dir  string // directory whose contents become the archive root
	Dest string // zip file to write
}

// Stats describes a written archive.
type Stats struct {
	Files int   // regular files
	Dirs  int   // directory entries
	Bytes int64 // uncompressed file bytes
	Size  int64 // size of the zip file
}

// ZipDir writes every file and directory below src into a new zip at dest.
// Entry names are slash separated and relative to src, so nested
// directories (an artifact prefix, for instance) keep their layout.
// Symlinks are stored as what they point to; linked directories are walked
// unless they lead back into a directory already being walked. A failed
// archive is left on disk as written so far.
func ZipDir(src, dest string, opts Options) (Stats, error) {
	var stats Stats
	f, err := os.Create(dest)
	if err != nil {
		return stats, err
	}
	defer f.Close()

	zw := zip.NewWriter(f)
	w := &treeWriter{zw: zw, opts: opts, stats: &stats}
	if err := w.add(src, ""); err != nil {
		_ = zw.Close()
		return stats, err
	}
	if err := zw.Close(); err != nil {
		return stats, err
	}
	if st, err := f.Stat(); err == nil {
		stats.Size = st.Size()
	}
	return stats, f.Close()
}

type treeWriter struct {
	zw    *zip.Writer
	opts  Options
	stats *Stats
	// active holds the resolved paths of the directories on the current walk.
	active []string
}

// add writes the contents of dir under the entry name prefix.
func (w *treeWriter) add(dir, prefix string) error {
	resolved, err := filepath.EvalSymlinks(dir)
	if err != nil {
		return err
	}
	for _, p := range w.active {
		if p == resolved {
			return fmt.Errorf("symlink cycle at %s", dir)
		}
	}
	w.active = append(w.active, resolved)
	defer func() { w.active = w.active[:len(w.active)-1] }()

	return filepath.WalkDir(resolved, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if path == resolved {
			return nil
		}
		rel, err := filepath.Rel(resolved, path)
		if err != nil {
			return err
		}
		name := filepath.ToSlash(rel)
		if prefix != "" {
			name = prefix + "/" + name
		}
		info, err := os.Stat(path)
		if err != nil {
			return err
		}
		hdr, err := zip.FileInfoHeader(info)
		if err != nil {
			return err
		}
		hdr.Name = name
		if w.opts.Reproducible {
			hdr.Modified = ReproducibleTime
		}
		if info.IsDir() {
			hdr.Name += "/"
			hdr.Method = zip.Store
			if _, err := w.zw.CreateHeader(hdr); err != nil {
				return err
			}
			w.stats.Dirs++
			if d.Type()&fs.ModeSymlink != 0 {
				return w.add(path, name)
			}
			return nil
		}
		if !info.Mode().IsRegular() {
			return nil
		}

		hdr.Method = zip.Deflate
		out, err := w.zw.CreateHeader(hdr)
		if err != nil {
			return err
		}
		n, err := copyFile(out, path)
		if err != nil {
			return err
		}
		w.stats.Files++
		w.stats.Bytes += n
		return nil
	})
}

func copyFile(w io.Writer, path string) (int64, error) {
	in, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer in.Close()
	return io.Copy(w, in)
}

// ZipAll archives all jobs at once. The first failure is returned once every
// job has finished; the others are not stopped and archives already written
// stay in place. Stats are in job order.
func ZipAll(ctx context.Context, jobs []Job, opts Options) ([]Stats, error) {
	logger := ctxlog.FromContext(ctx)
	stats := make([]Stats, len(jobs))

	var g errgroup.Group
	for i, job := range jobs {
		g.Go(func() error {
			s, err := ZipDir(job.Dir, job.Dest, opts)
			if err != nil {
				logger.Debug("archive failed", "name", job.Name, "dest", job.Dest, "err", err)
				return err
			}
			stats[i] = s
			logger.Debug("archive written", "name", job.Name, "dest", job.Dest, "files", s.Files, "size", s.Size)
			if opts.OnDone != nil {
				opts.OnDone(job, s)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return stats, nil
}
