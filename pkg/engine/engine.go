// Package engine describes the boundary with the native filesystem engine.
//
// The engine speaks a C-style ABI: every call returns a signed 32-bit code.
// Non-negative values denote success and may carry a magnitude (bytes read,
// a file position, a descriptor number). Negative values are one of the fixed
// error constants below, or something this version does not know about.
//
// Typed errors for these codes live in package lfs. This package only fixes
// the numbers and the shape of the calls.
package engine

// Return codes.
//
// The values match the littlefs C implementation (lfs.h, enum lfs_error) and
// must never change: they are part of the on-wire contract with the engine.
const (
	OK             int32 = 0   // No error
	ErrIO          int32 = -5  // Error during device operation
	ErrCorrupt     int32 = -84 // Corrupted
	ErrNoEnt       int32 = -2  // No directory entry
	ErrExist       int32 = -17 // Entry already exists
	ErrNotDir      int32 = -20 // Entry is not a dir
	ErrIsDir       int32 = -21 // Entry is a dir
	ErrNotEmpty    int32 = -39 // Dir is not empty
	ErrBadF        int32 = -9  // Bad file number
	ErrFBig        int32 = -27 // File too large
	ErrInval       int32 = -22 // Invalid parameter
	ErrNoSpc       int32 = -28 // No space left on device
	ErrNoMem       int32 = -12 // No more memory available
	ErrNoAttr      int32 = -61 // No data/attr available
	ErrNameTooLong int32 = -36 // File name too long
)

// OpenFlag is the bit set passed to FileOpen.
type OpenFlag int32

const (
	O_RDONLY OpenFlag = 1      // Open a file as read only
	O_WRONLY OpenFlag = 2      // Open a file as write only
	O_RDWR   OpenFlag = 3      // Open a file as read and write
	O_CREAT  OpenFlag = 0x0100 // Create a file if it does not exist
	O_EXCL   OpenFlag = 0x0200 // Fail if a file already exists
	O_TRUNC  OpenFlag = 0x0400 // Truncate the existing file to zero size
	O_APPEND OpenFlag = 0x0800 // Move to end of file on every write

	accessMask = O_RDWR
	knownFlags = O_RDWR | O_CREAT | O_EXCL | O_TRUNC | O_APPEND
)

// Readable reports whether the access mode allows reading.
func (f OpenFlag) Readable() bool { return f&accessMask&O_RDONLY != 0 }

// Writable reports whether the access mode allows writing.
func (f OpenFlag) Writable() bool { return f&accessMask&O_WRONLY != 0 }

// Valid reports whether f has an access mode and no unknown bits.
func (f OpenFlag) Valid() bool {
	return f&accessMask != 0 && f&^knownFlags == 0
}

// Whence values for FileSeek.
const (
	SeekSet int32 = 0 // Seek relative to an absolute position
	SeekCur int32 = 1 // Seek relative to the current file position
	SeekEnd int32 = 2 // Seek relative to the end of the file
)

// Type is the kind of a directory entry.
type Type uint8

const (
	TypeReg Type = 0x001
	TypeDir Type = 0x002
)

func (t Type) String() string {
	switch t {
	case TypeReg:
		return "file"
	case TypeDir:
		return "dir"
	default:
		return "unknown"
	}
}

// Info describes a directory entry as reported by Stat and DirRead.
type Info struct {
	Type Type
	Size uint32
	Name string
}

// Limits bounds what an engine instance accepts.
//
// Zero values are replaced by the defaults in DefaultLimits.
type Limits struct {
	// NameMax is the longest accepted entry name in bytes.
	NameMax uint32 `mapstructure:"name_max" yaml:"name_max"`

	// FileMax is the largest accepted file size in bytes.
	FileMax uint32 `mapstructure:"file_max" yaml:"file_max"`

	// AttrMax is the largest accepted custom attribute in bytes.
	AttrMax uint32 `mapstructure:"attr_max" yaml:"attr_max"`

	// CapacityBytes caps the sum of file and attribute sizes. 0 means unlimited.
	CapacityBytes uint64 `mapstructure:"capacity_bytes" yaml:"capacity_bytes"`

	// MaxOpenFiles caps simultaneously open file and directory descriptors.
	MaxOpenFiles uint32 `mapstructure:"max_open_files" yaml:"max_open_files"`
}

// DefaultLimits returns the littlefs defaults (LFS_NAME_MAX, LFS_FILE_MAX,
// LFS_ATTR_MAX) with a small descriptor table.
func DefaultLimits() Limits {
	return Limits{
		NameMax:      255,
		FileMax:      2147483647,
		AttrMax:      1022,
		MaxOpenFiles: 64,
	}
}

// WithDefaults returns l with zero fields replaced by DefaultLimits.
func (l Limits) WithDefaults() Limits {
	d := DefaultLimits()
	if l.NameMax == 0 {
		l.NameMax = d.NameMax
	}
	if l.FileMax == 0 {
		l.FileMax = d.FileMax
	}
	if l.AttrMax == 0 {
		l.AttrMax = d.AttrMax
	}
	if l.MaxOpenFiles == 0 {
		l.MaxOpenFiles = d.MaxOpenFiles
	}
	return l
}

// Engine is the raw filesystem engine.
//
// Implementations must report every outcome through the returned code and
// must never panic on bad input. Paths are absolute and already normalized
// by the caller. Descriptors returned by FileOpen and DirOpen are
// non-negative and are only meaningful to the engine that issued them.
type Engine interface {
	// Format writes an empty filesystem. The engine must not be mounted.
	Format() int32
	// Mount attaches to an existing filesystem.
	Mount() int32
	// Unmount releases the filesystem. Open descriptors are dropped.
	Unmount() int32

	Mkdir(path string) int32
	Remove(path string) int32
	Rename(oldPath, newPath string) int32
	Stat(path string, info *Info) int32

	// GetAttr copies attribute attr into buf and returns the attribute size.
	GetAttr(path string, attr uint8, buf []byte) int32
	SetAttr(path string, attr uint8, value []byte) int32
	RemoveAttr(path string, attr uint8) int32

	// FileOpen returns a descriptor.
	FileOpen(path string, flags OpenFlag) int32
	FileClose(fd int32) int32
	// FileRead returns the number of bytes read; 0 at end of file.
	FileRead(fd int32, buf []byte) int32
	// FileWrite returns the number of bytes written.
	FileWrite(fd int32, buf []byte) int32
	// FileSeek returns the new position.
	FileSeek(fd int32, off int32, whence int32) int32
	FileTell(fd int32) int32
	FileSize(fd int32) int32
	FileTruncate(fd int32, size uint32) int32
	FileSync(fd int32) int32

	// DirOpen returns a descriptor.
	DirOpen(path string) int32
	// DirRead fills info and returns 1, or returns 0 once the listing is exhausted.
	DirRead(fd int32, info *Info) int32
	DirClose(fd int32) int32

	// FSSize returns the number of bytes in use.
	FSSize() int32
}
