package lfs

import (
	"strconv"

	"github.com/marmos91/littlefs/pkg/engine"
)

type codeInfo struct {
	name        string // Go-facing variant name, also the metric label
	value       string // package-level value name for GoString
	description string // human text for Error()
}

var codeInfos = [...]codeInfo{
	CodeSuccess:             {"Success", "Success", "success"},
	CodeIo:                  {"Io", "ErrIo", "input/output error"},
	CodeCorruption:          {"Corruption", "ErrCorruption", "filesystem is corrupt"},
	CodeNoSuchEntry:         {"NoSuchEntry", "ErrNoSuchEntry", "no such entry"},
	CodeEntryAlreadyExisted: {"EntryAlreadyExisted", "ErrEntryAlreadyExisted", "entry already exists"},
	CodePathNotDir:          {"PathNotDir", "ErrPathNotDir", "not a directory"},
	CodePathIsDir:           {"PathIsDir", "ErrPathIsDir", "is a directory"},
	CodeDirNotEmpty:         {"DirNotEmpty", "ErrDirNotEmpty", "directory not empty"},
	CodeBadFileDescriptor:   {"BadFileDescriptor", "ErrBadFileDescriptor", "bad file descriptor"},
	CodeFileTooBig:          {"FileTooBig", "ErrFileTooBig", "file too big"},
	CodeInvalid:             {"Invalid", "ErrInvalid", "invalid argument"},
	CodeNoSpace:             {"NoSpace", "ErrNoSpace", "no space left"},
	CodeNoMemory:            {"NoMemory", "ErrNoMemory", "out of memory"},
	CodeNoAttribute:         {"NoAttribute", "ErrNoAttribute", "no such attribute"},
	CodeFilenameTooLong:     {"FilenameTooLong", "ErrFilenameTooLong", "file name too long"},
	CodeUnknown:             {"Unknown", "Unknown", "unknown error"},
}

func (c ErrorCode) info() codeInfo {
	if int(c) < len(codeInfos) {
		return codeInfos[c]
	}
	return codeInfos[CodeUnknown]
}

// String returns the variant name, e.g. "NoSuchEntry".
func (c ErrorCode) String() string { return c.info().name }

// Description returns a short human description, e.g. "no such entry".
func (c ErrorCode) Description() string { return c.info().description }

// GoString renders e as the Go expression that produces it, e.g.
// lfs.ErrNoSuchEntry or lfs.Unknown(-9999).
func (e Error) GoString() string {
	if e.code == CodeUnknown {
		return "lfs.Unknown(" + itoa(e.rc) + ")"
	}
	return "lfs." + e.code.info().value
}

// MarshalText encodes e for structured logs: the variant name, or
// "Unknown(<code>)" for the catch-all.
func (e Error) MarshalText() ([]byte, error) {
	if e.code == CodeUnknown {
		return []byte("Unknown(" + itoa(e.rc) + ")"), nil
	}
	return []byte(e.code.String()), nil
}

// ReturnCodeString returns the engine mnemonic for a raw code.
//
// Non-negative codes are "LFS_ERR_OK". Codes without a mnemonic are returned
// as "UNKNOWN_<code>".
//
// Example:
//
//	ReturnCodeString(-2)    // "LFS_ERR_NOENT"
//	ReturnCodeString(12)    // "LFS_ERR_OK"
//	ReturnCodeString(-9999) // "UNKNOWN_-9999"
func ReturnCodeString(code int32) string {
	if code >= 0 {
		return "LFS_ERR_OK"
	}

	switch code {
	case engine.ErrIO:
		return "LFS_ERR_IO"
	case engine.ErrCorrupt:
		return "LFS_ERR_CORRUPT"
	case engine.ErrNoEnt:
		return "LFS_ERR_NOENT"
	case engine.ErrExist:
		return "LFS_ERR_EXIST"
	case engine.ErrNotDir:
		return "LFS_ERR_NOTDIR"
	case engine.ErrIsDir:
		return "LFS_ERR_ISDIR"
	case engine.ErrNotEmpty:
		return "LFS_ERR_NOTEMPTY"
	case engine.ErrBadF:
		return "LFS_ERR_BADF"
	case engine.ErrFBig:
		return "LFS_ERR_FBIG"
	case engine.ErrInval:
		return "LFS_ERR_INVAL"
	case engine.ErrNoSpc:
		return "LFS_ERR_NOSPC"
	case engine.ErrNoMem:
		return "LFS_ERR_NOMEM"
	case engine.ErrNoAttr:
		return "LFS_ERR_NOATTR"
	case engine.ErrNameTooLong:
		return "LFS_ERR_NAMETOOLONG"
	default:
		return "UNKNOWN_" + itoa(code)
	}
}

func itoa(n int32) string { return strconv.FormatInt(int64(n), 10) }
