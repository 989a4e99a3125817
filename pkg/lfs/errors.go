// Package lfs turns the engine's signed return codes into typed errors.
//
// The engine (see package engine) reports every outcome as an int32. This
// package owns the one translation from those integers to a closed set of
// Error values, plus the helpers every call site uses to combine a success
// payload with a return code:
//
//	var info engine.Info
//	info, err := lfs.ResultFrom(info, eng.Stat("/boot", &info))
//	if errors.Is(err, lfs.ErrNoSuchEntry) {
//	    ...
//	}
//
// Codes the translation does not recognise are kept verbatim in an Unknown
// error rather than folded into a known category.
package lfs

import (
	"io/fs"

	"github.com/marmos91/littlefs/pkg/engine"
	"github.com/marmos91/littlefs/pkg/stream"
)

// ErrorCode identifies the variant held by an Error.
type ErrorCode uint8

const (
	// CodeSuccess means the operation completed. It never reaches a caller as
	// a failure.
	CodeSuccess ErrorCode = iota

	// CodeIo is a generic input/output failure.
	CodeIo

	// CodeCorruption means on-medium structures are invalid.
	CodeCorruption

	// CodeNoSuchEntry means the named entry does not exist.
	CodeNoSuchEntry

	// CodeEntryAlreadyExisted means a create collided with an existing entry.
	CodeEntryAlreadyExisted

	// CodePathNotDir means a component expected to be a directory is not.
	CodePathNotDir

	// CodePathIsDir means a non-directory operation was given a directory.
	CodePathIsDir

	// CodeDirNotEmpty means a non-empty directory was to be removed.
	CodeDirNotEmpty

	// CodeBadFileDescriptor means the descriptor is invalid or stale.
	CodeBadFileDescriptor

	// CodeFileTooBig means a file would exceed the size limit.
	CodeFileTooBig

	// CodeInvalid means an argument was malformed.
	CodeInvalid

	// CodeNoSpace means the medium is exhausted.
	CodeNoSpace

	// CodeNoMemory means a working buffer could not be allocated.
	CodeNoMemory

	// CodeNoAttribute means the requested attribute is absent.
	CodeNoAttribute

	// CodeFilenameTooLong means a name exceeds the engine's maximum length.
	CodeFilenameTooLong

	// CodeUnknown is the catch-all for codes this package does not know.
	// The original integer is preserved in Error.ReturnCode.
	CodeUnknown
)

// Error is a translated engine outcome.
//
// Error is a small comparable value: two Errors are equal exactly when they
// hold the same variant and return code, so errors.Is and == both work
// against the package-level values below. Use Unknown to build the catch-all.
type Error struct {
	code ErrorCode
	rc   int32
}

// Variants. Each named failure carries its fixed engine constant.
var (
	Success = Error{code: CodeSuccess, rc: engine.OK}

	ErrIo                  = Error{code: CodeIo, rc: engine.ErrIO}
	ErrCorruption          = Error{code: CodeCorruption, rc: engine.ErrCorrupt}
	ErrNoSuchEntry         = Error{code: CodeNoSuchEntry, rc: engine.ErrNoEnt}
	ErrEntryAlreadyExisted = Error{code: CodeEntryAlreadyExisted, rc: engine.ErrExist}
	ErrPathNotDir          = Error{code: CodePathNotDir, rc: engine.ErrNotDir}
	ErrPathIsDir           = Error{code: CodePathIsDir, rc: engine.ErrIsDir}
	ErrDirNotEmpty         = Error{code: CodeDirNotEmpty, rc: engine.ErrNotEmpty}
	ErrBadFileDescriptor   = Error{code: CodeBadFileDescriptor, rc: engine.ErrBadF}
	ErrFileTooBig          = Error{code: CodeFileTooBig, rc: engine.ErrFBig}
	ErrInvalid             = Error{code: CodeInvalid, rc: engine.ErrInval}
	ErrNoSpace             = Error{code: CodeNoSpace, rc: engine.ErrNoSpc}
	ErrNoMemory            = Error{code: CodeNoMemory, rc: engine.ErrNoMem}
	ErrNoAttribute         = Error{code: CodeNoAttribute, rc: engine.ErrNoAttr}
	ErrFilenameTooLong     = Error{code: CodeFilenameTooLong, rc: engine.ErrNameTooLong}
)

// Unknown returns the catch-all variant carrying code unchanged.
func Unknown(code int32) Error {
	return Error{code: CodeUnknown, rc: code}
}

// FromCode translates an engine return code.
//
// The translation is total: every non-negative code is Success, each of the
// fourteen engine error constants maps to its named variant, and any other
// negative code becomes Unknown(code).
func FromCode(code int32) Error {
	if code >= 0 {
		return Success
	}

	switch code {
	case engine.ErrIO:
		return ErrIo
	case engine.ErrCorrupt:
		return ErrCorruption
	case engine.ErrNoEnt:
		return ErrNoSuchEntry
	case engine.ErrExist:
		return ErrEntryAlreadyExisted
	case engine.ErrNotDir:
		return ErrPathNotDir
	case engine.ErrIsDir:
		return ErrPathIsDir
	case engine.ErrNotEmpty:
		return ErrDirNotEmpty
	case engine.ErrBadF:
		return ErrBadFileDescriptor
	case engine.ErrFBig:
		return ErrFileTooBig
	case engine.ErrInval:
		return ErrInvalid
	case engine.ErrNoSpc:
		return ErrNoSpace
	case engine.ErrNoMem:
		return ErrNoMemory
	case engine.ErrNoAttr:
		return ErrNoAttribute
	case engine.ErrNameTooLong:
		return ErrFilenameTooLong
	default:
		return Unknown(code)
	}
}

// Code returns the variant.
func (e Error) Code() ErrorCode { return e.code }

// ReturnCode returns the engine code behind e. For Unknown it is the exact
// value passed in.
func (e Error) ReturnCode() int32 { return e.rc }

// IsSuccess reports whether e is the Success variant.
func (e Error) IsSuccess() bool { return e.code == CodeSuccess }

// Error implements the error interface.
func (e Error) Error() string {
	if e.code == CodeUnknown {
		return "lfs: " + e.code.Description() + " (code " + itoa(e.rc) + ")"
	}
	return "lfs: " + e.code.Description()
}

// Kind classifies every filesystem error as stream.KindOther. Byte-stream
// consumers get no finer classification from this layer.
func (e Error) Kind() stream.ErrorKind { return stream.KindOther }

// Is lets errors.Is match the io/fs sentinels for the variants that have one.
func (e Error) Is(target error) bool {
	switch e.code {
	case CodeNoSuchEntry:
		return target == fs.ErrNotExist
	case CodeEntryAlreadyExisted:
		return target == fs.ErrExist
	case CodeInvalid:
		return target == fs.ErrInvalid
	case CodeBadFileDescriptor:
		return target == fs.ErrClosed
	}
	return false
}

var (
	_ error        = Error{}
	_ stream.Error = Error{}
)
