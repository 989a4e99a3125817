// Package filesystem is the typed API over an engine.Engine.
//
// Every path goes through path.New and every engine return code through the
// lfs result helpers, so callers only ever see lfs.Error values, wrapped in
// *fs.PathError with the operation and the path as given:
//
//	fsys, err := filesystem.Mount(eng)
//	if err != nil {
//	    return err
//	}
//	defer fsys.Unmount()
//
//	if _, err := fsys.Stat("/missing"); errors.Is(err, lfs.ErrNoSuchEntry) {
//	    // ...
//	}
package filesystem

import (
	"errors"
	"io/fs"
	"time"

	"github.com/marmos91/littlefs/internal/logger"
	"github.com/marmos91/littlefs/pkg/engine"
	"github.com/marmos91/littlefs/pkg/lfs"
	"github.com/marmos91/littlefs/pkg/path"
)

// FS is a mounted filesystem. It is safe for concurrent use as long as the
// engine is.
type FS struct {
	eng        engine.Engine
	metrics    Metrics
	autoFormat bool
}

// Option configures Mount.
type Option func(*FS)

// WithMetrics records every call into m. A nil m disables collection.
func WithMetrics(m Metrics) Option {
	return func(f *FS) {
		if m != nil {
			f.metrics = m
		}
	}
}

// WithAutoFormat formats the engine when Mount finds no valid filesystem.
// This is the usual first-boot behaviour on embedded targets.
func WithAutoFormat(enabled bool) Option {
	return func(f *FS) { f.autoFormat = enabled }
}

// Format writes an empty filesystem to eng. eng must not be mounted.
func Format(eng engine.Engine) error {
	if err := lfs.Check(eng.Format()); err != nil {
		logFailure("format", "/", err)
		return &fs.PathError{Op: "format", Path: "/", Err: err}
	}
	return nil
}

// Mount attaches to the filesystem on eng.
func Mount(eng engine.Engine, opts ...Option) (*FS, error) {
	f := &FS{eng: eng, metrics: noopMetrics{}}
	for _, opt := range opts {
		opt(f)
	}

	start := time.Now()
	err := lfs.Check(eng.Mount())
	if errors.Is(err, lfs.ErrCorruption) && f.autoFormat {
		logger.Info("No valid filesystem found, formatting")
		if err = lfs.Check(eng.Format()); err == nil {
			err = lfs.Check(eng.Mount())
		}
	}
	if err := f.record("mount", "/", start, err); err != nil {
		return nil, err
	}

	logger.Debug("Filesystem mounted")
	return f, nil
}

// Unmount releases the filesystem. Open files become invalid.
func (f *FS) Unmount() error {
	start := time.Now()
	return f.record("unmount", "/", start, lfs.Check(f.eng.Unmount()))
}

// resolve parses name, converting parse failures to lfs errors.
func resolve(name string) (path.Path, error) {
	p, err := path.New(name)
	if err != nil {
		var pathErr *path.Error
		if errors.As(err, &pathErr) {
			logger.Debug("Rejected path: %v", pathErr)
			return path.Path{}, lfs.FromPathError(pathErr)
		}
		return path.Path{}, lfs.ErrIo
	}
	return p, nil
}

// call resolves name, runs fn and records the outcome.
func (f *FS) call(op, name string, fn func(p path.Path) error) error {
	start := time.Now()
	p, err := resolve(name)
	if err != nil {
		return f.reject(op, name, start, err)
	}
	return f.record(op, name, start, fn(p))
}

// reject records a name that resolve refused. resolve has already logged it.
func (f *FS) reject(op, name string, start time.Time, err error) error {
	f.metrics.RecordOperation(op, time.Since(start), err)
	return &fs.PathError{Op: op, Path: name, Err: err}
}

// record reports a finished call to metrics and the log, and wraps err.
func (f *FS) record(op, name string, start time.Time, err error) error {
	f.metrics.RecordOperation(op, time.Since(start), err)
	if err == nil {
		return nil
	}
	logFailure(op, name, err)
	return &fs.PathError{Op: op, Path: name, Err: err}
}

// logFailure logs ordinary caller errors at DEBUG and failures of the
// medium itself at ERROR.
func logFailure(op, name string, err error) {
	var lfsErr lfs.Error
	if errors.As(err, &lfsErr) {
		switch lfsErr.Code() {
		case lfs.CodeIo, lfs.CodeCorruption, lfs.CodeNoSpace, lfs.CodeNoMemory, lfs.CodeUnknown:
			logger.Error("%s %s: %v", op, name, err)
			return
		}
	}
	logger.Debug("%s %s: %v", op, name, err)
}

// ============================================================================
// Namespace
// ============================================================================

// Mkdir creates a directory. The parent must exist.
func (f *FS) Mkdir(name string) error {
	return f.call("mkdir", name, func(p path.Path) error {
		return lfs.Check(f.eng.Mkdir(p.String()))
	})
}

// MkdirAll creates a directory and any missing parents. Existing
// directories along the way are not an error.
func (f *FS) MkdirAll(name string) error {
	return f.call("mkdir", name, func(p path.Path) error {
		cur := path.Root
		for _, comp := range p.Components() {
			var err error
			if cur, err = cur.Join(comp); err != nil {
				return lfs.ErrIo
			}
			err = lfs.Check(f.eng.Mkdir(cur.String()))
			if !errors.Is(err, lfs.ErrEntryAlreadyExisted) {
				if err != nil {
					return err
				}
				continue
			}
			var info engine.Info
			if err := lfs.Check(f.eng.Stat(cur.String(), &info)); err != nil {
				return err
			}
			if info.Type != engine.TypeDir {
				return lfs.ErrPathNotDir
			}
		}
		return nil
	})
}

// Remove deletes a file or an empty directory.
func (f *FS) Remove(name string) error {
	return f.call("remove", name, func(p path.Path) error {
		return lfs.Check(f.eng.Remove(p.String()))
	})
}

// RemoveAll deletes name and everything below it. A missing name is not an
// error. The root itself is emptied but kept.
func (f *FS) RemoveAll(name string) error {
	return f.call("remove", name, func(p path.Path) error {
		err := f.removeAll(p)
		if errors.Is(err, lfs.ErrNoSuchEntry) {
			return nil
		}
		return err
	})
}

func (f *FS) removeAll(p path.Path) error {
	var info engine.Info
	if err := lfs.Check(f.eng.Stat(p.String(), &info)); err != nil {
		return err
	}

	if info.Type == engine.TypeDir {
		entries, err := f.list(p)
		if err != nil {
			return err
		}
		for _, entry := range entries {
			child, err := p.Join(entry.Name)
			if err != nil {
				return lfs.ErrIo
			}
			if err := f.removeAll(child); err != nil {
				return err
			}
		}
	}

	if p.IsRoot() {
		return nil
	}
	return lfs.Check(f.eng.Remove(p.String()))
}

// Rename moves oldName to newName, replacing a file or an empty directory of
// the same type at the destination.
func (f *FS) Rename(oldName, newName string) error {
	start := time.Now()
	oldPath, err := resolve(oldName)
	if err != nil {
		return f.reject("rename", oldName, start, err)
	}
	newPath, err := resolve(newName)
	if err != nil {
		return f.reject("rename", newName, start, err)
	}
	if err := lfs.Check(f.eng.Rename(oldPath.String(), newPath.String())); err != nil {
		f.metrics.RecordOperation("rename", time.Since(start), err)
		logFailure("rename", oldName+" -> "+newName, err)
		return &fs.PathError{Op: "rename", Path: oldName, Err: err}
	}
	f.metrics.RecordOperation("rename", time.Since(start), nil)
	return nil
}

// Stat describes the entry at name.
func (f *FS) Stat(name string) (fs.FileInfo, error) {
	var info engine.Info
	err := f.call("stat", name, func(p path.Path) error {
		return lfs.Check(f.eng.Stat(p.String(), &info))
	})
	if err != nil {
		return nil, err
	}
	return fileInfo{info: info}, nil
}

// Exists reports whether name exists. Errors other than NoSuchEntry are
// returned.
func (f *FS) Exists(name string) (bool, error) {
	_, err := f.Stat(name)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, lfs.ErrNoSuchEntry):
		return false, nil
	default:
		return false, err
	}
}

// ReadDir lists the directory at name in name order, without "." and "..".
func (f *FS) ReadDir(name string) ([]fs.DirEntry, error) {
	var infos []engine.Info
	err := f.call("readdir", name, func(p path.Path) error {
		var err error
		infos, err = f.list(p)
		return err
	})
	if err != nil {
		return nil, err
	}

	entries := make([]fs.DirEntry, len(infos))
	for i, info := range infos {
		entries[i] = fs.FileInfoToDirEntry(fileInfo{info: info})
	}
	return entries, nil
}

func (f *FS) list(p path.Path) ([]engine.Info, error) {
	fd, err := lfs.CountFrom(f.eng.DirOpen(p.String()))
	if err != nil {
		return nil, err
	}

	var infos []engine.Info
	for {
		var info engine.Info
		n, err := lfs.CountFrom(f.eng.DirRead(int32(fd), &info))
		if err != nil {
			_ = f.eng.DirClose(int32(fd))
			return nil, err
		}
		if n == 0 {
			break
		}
		if info.Name == "." || info.Name == ".." {
			continue
		}
		infos = append(infos, info)
	}
	return infos, lfs.Check(f.eng.DirClose(int32(fd)))
}

// Used returns the number of bytes the filesystem holds.
func (f *FS) Used() (int64, error) {
	start := time.Now()
	n, err := lfs.CountFrom(f.eng.FSSize())
	if err := f.record("used", "/", start, err); err != nil {
		return 0, err
	}
	return int64(n), nil
}

// ============================================================================
// Attributes
// ============================================================================

// GetAttr returns custom attribute attr of name.
func (f *FS) GetAttr(name string, attr uint8) ([]byte, error) {
	var value []byte
	err := f.call("getattr", name, func(p path.Path) error {
		buf := make([]byte, engine.DefaultLimits().AttrMax)
		for {
			n, err := lfs.CountFrom(f.eng.GetAttr(p.String(), attr, buf))
			if err != nil {
				return err
			}
			if n <= len(buf) {
				value = buf[:n]
				return nil
			}
			buf = make([]byte, n)
		}
	})
	if err != nil {
		return nil, err
	}
	return value, nil
}

// SetAttr sets custom attribute attr of name to value.
func (f *FS) SetAttr(name string, attr uint8, value []byte) error {
	return f.call("setattr", name, func(p path.Path) error {
		return lfs.Check(f.eng.SetAttr(p.String(), attr, value))
	})
}

// RemoveAttr deletes custom attribute attr of name.
func (f *FS) RemoveAttr(name string, attr uint8) error {
	return f.call("removeattr", name, func(p path.Path) error {
		return lfs.Check(f.eng.RemoveAttr(p.String(), attr))
	})
}

// ============================================================================
// FileInfo
// ============================================================================

type fileInfo struct {
	info engine.Info
}

func (fi fileInfo) Name() string       { return fi.info.Name }
func (fi fileInfo) Size() int64        { return int64(fi.info.Size) }
func (fi fileInfo) ModTime() time.Time { return time.Time{} }
func (fi fileInfo) IsDir() bool        { return fi.info.Type == engine.TypeDir }

// Sys returns the engine.Info.
func (fi fileInfo) Sys() any { return fi.info }

// Mode reports fixed permissions; the engine does not store any.
func (fi fileInfo) Mode() fs.FileMode {
	if fi.IsDir() {
		return fs.ModeDir | 0o755
	}
	return 0o644
}
