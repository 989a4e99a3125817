package filesystem

import (
	"errors"
	"io"
	"io/fs"
	"math"
	"os"
	"sync"
	"time"

	"github.com/marmos91/littlefs/pkg/engine"
	"github.com/marmos91/littlefs/pkg/lfs"
	"github.com/marmos91/littlefs/pkg/path"
)

// File is an open file descriptor.
//
// It implements io.Reader, io.Writer, io.Seeker and io.Closer. Calls after
// Close fail with lfs.ErrBadFileDescriptor without reaching the engine, so a
// descriptor number the engine has since reused is never touched.
type File struct {
	fs   *FS
	name string

	mu     sync.Mutex
	fd     int32
	closed bool
}

var (
	_ io.ReadWriteSeeker = (*File)(nil)
	_ io.Closer          = (*File)(nil)
)

// Create creates or truncates name and opens it read-write.
func (f *FS) Create(name string) (*File, error) {
	return f.OpenFile(name, os.O_RDWR|os.O_CREATE|os.O_TRUNC)
}

// Open opens name read-only.
func (f *FS) Open(name string) (*File, error) {
	return f.OpenFile(name, os.O_RDONLY)
}

// OpenFile opens name with os-style flags. Supported bits are the access
// modes and O_CREATE, O_EXCL, O_TRUNC and O_APPEND; others are ignored.
func (f *FS) OpenFile(name string, flag int) (*File, error) {
	var fd int
	err := f.call("open", name, func(p path.Path) error {
		var err error
		fd, err = lfs.CountFrom(f.eng.FileOpen(p.String(), openFlags(flag)))
		return err
	})
	if err != nil {
		return nil, err
	}
	return &File{fs: f, name: name, fd: int32(fd)}, nil
}

func openFlags(flag int) engine.OpenFlag {
	var out engine.OpenFlag
	switch flag & (os.O_RDONLY | os.O_WRONLY | os.O_RDWR) {
	case os.O_WRONLY:
		out = engine.O_WRONLY
	case os.O_RDWR:
		out = engine.O_RDWR
	default:
		out = engine.O_RDONLY
	}
	if flag&os.O_CREATE != 0 {
		out |= engine.O_CREAT
	}
	if flag&os.O_EXCL != 0 {
		out |= engine.O_EXCL
	}
	if flag&os.O_TRUNC != 0 {
		out |= engine.O_TRUNC
	}
	if flag&os.O_APPEND != 0 {
		out |= engine.O_APPEND
	}
	return out
}

// Name returns the name passed to Open.
func (file *File) Name() string { return file.name }

// do runs fn with the descriptor held, recording the call.
func (file *File) do(op string, fn func(fd int32) error) error {
	file.mu.Lock()
	defer file.mu.Unlock()

	start := time.Now()
	var err error
	if file.closed {
		err = lfs.ErrBadFileDescriptor
	} else {
		err = fn(file.fd)
	}
	return file.fs.record(op, file.name, start, err)
}

// Read reads up to len(p) bytes. It returns io.EOF at end of file.
func (file *File) Read(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	if len(p) > math.MaxInt32 {
		p = p[:math.MaxInt32]
	}

	var n int
	err := file.do("read", func(fd int32) error {
		var err error
		n, err = lfs.CountFrom(file.fs.eng.FileRead(fd, p))
		return err
	})
	if err != nil {
		return 0, err
	}
	if n == 0 {
		return 0, io.EOF
	}
	file.fs.metrics.RecordBytes("read", n)
	return n, nil
}

// Write writes p at the current position, or at the end of file when
// opened with O_APPEND.
func (file *File) Write(p []byte) (int, error) {
	var n int
	err := file.do("write", func(fd int32) error {
		if len(p) > math.MaxInt32 {
			return lfs.ErrFileTooBig
		}
		var err error
		n, err = lfs.CountFrom(file.fs.eng.FileWrite(fd, p))
		return err
	})
	if err != nil {
		return 0, err
	}
	file.fs.metrics.RecordBytes("write", n)
	if n < len(p) {
		return n, io.ErrShortWrite
	}
	return n, nil
}

// Seek sets the position for the next Read or Write. Offsets beyond the
// engine's 32-bit range fail with lfs.ErrInvalid.
func (file *File) Seek(offset int64, whence int) (int64, error) {
	var pos int
	err := file.do("seek", func(fd int32) error {
		if offset < math.MinInt32 || offset > math.MaxInt32 {
			return lfs.ErrInvalid
		}
		var err error
		pos, err = lfs.CountFrom(file.fs.eng.FileSeek(fd, int32(offset), int32(whence)))
		return err
	})
	if err != nil {
		return 0, err
	}
	return int64(pos), nil
}

// Size returns the current file size.
func (file *File) Size() (int64, error) {
	var size int
	err := file.do("size", func(fd int32) error {
		var err error
		size, err = lfs.CountFrom(file.fs.eng.FileSize(fd))
		return err
	})
	if err != nil {
		return 0, err
	}
	return int64(size), nil
}

// Truncate changes the file size, zero-filling when it grows.
func (file *File) Truncate(size int64) error {
	return file.do("truncate", func(fd int32) error {
		if size < 0 {
			return lfs.ErrInvalid
		}
		if size > math.MaxUint32 {
			return lfs.ErrFileTooBig
		}
		return lfs.Check(file.fs.eng.FileTruncate(fd, uint32(size)))
	})
}

// Sync flushes pending writes to the medium.
func (file *File) Sync() error {
	return file.do("sync", func(fd int32) error {
		return lfs.Check(file.fs.eng.FileSync(fd))
	})
}

// Close releases the descriptor. A second Close fails with
// lfs.ErrBadFileDescriptor, which matches fs.ErrClosed.
func (file *File) Close() error {
	return file.do("close", func(fd int32) error {
		err := lfs.Check(file.fs.eng.FileClose(fd))
		if err == nil || errors.Is(err, lfs.ErrBadFileDescriptor) {
			file.closed = true
		}
		return err
	})
}

// ReadFile returns the whole content of name.
func (f *FS) ReadFile(name string) ([]byte, error) {
	file, err := f.Open(name)
	if err != nil {
		return nil, err
	}
	defer func() { _ = file.Close() }()

	size, err := file.Size()
	if err != nil {
		return nil, err
	}

	data := make([]byte, 0, size)
	buf := make([]byte, 4096)
	for {
		n, err := file.Read(buf)
		data = append(data, buf[:n]...)
		if errors.Is(err, io.EOF) {
			return data, nil
		}
		if err != nil {
			return nil, err
		}
	}
}

// WriteFile creates or truncates name and writes data to it.
func (f *FS) WriteFile(name string, data []byte) error {
	file, err := f.OpenFile(name, os.O_WRONLY|os.O_CREATE|os.O_TRUNC)
	if err != nil {
		return err
	}
	if _, err := file.Write(data); err != nil {
		_ = file.Close()
		return err
	}
	return file.Close()
}

// Stat describes the open file.
func (file *File) Stat() (fs.FileInfo, error) {
	size, err := file.Size()
	if err != nil {
		return nil, err
	}
	p, _ := path.New(file.name)
	return fileInfo{info: engine.Info{Type: engine.TypeReg, Size: uint32(size), Name: p.Base()}}, nil
}
