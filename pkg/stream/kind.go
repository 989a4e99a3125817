// Package stream classifies errors for generic byte-stream consumers.
//
// Readers and writers layered on top of the filesystem only care about a
// handful of broad failure classes. Errors that want to take part in this
// taxonomy implement Error; everything else is KindOther.
package stream

import (
	"errors"
	"io"
)

type (
	// ErrorKind is a broad failure class.
	ErrorKind uint8

	// Error is an error that knows its class.
	Error interface {
		error
		Kind() ErrorKind
	}
)

const (
	KindOther            ErrorKind = iota // Unclassified error.
	KindNotFound                          // Target does not exist.
	KindPermissionDenied                  // Operation not permitted.
	KindAlreadyExists                     // Target already exists.
	KindInvalidInput                      // Argument was rejected.
	KindUnexpectedEOF                     // Stream ended early.
	KindWriteZero                         // Write made no progress.
	KindUnsupported                       // Operation is not available.
	KindOutOfMemory                       // Allocation failed.
)

var kindNames = [...]string{
	KindOther:            "Other",
	KindNotFound:         "NotFound",
	KindPermissionDenied: "PermissionDenied",
	KindAlreadyExists:    "AlreadyExists",
	KindInvalidInput:     "InvalidInput",
	KindUnexpectedEOF:    "UnexpectedEOF",
	KindWriteZero:        "WriteZero",
	KindUnsupported:      "Unsupported",
	KindOutOfMemory:      "OutOfMemory",
}

func (k ErrorKind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "Other"
}

// KindOf returns the class of the first Error in err's chain.
//
// io.ErrUnexpectedEOF and io.ErrShortWrite are recognised directly. A nil
// error has no class and reports KindOther.
func KindOf(err error) ErrorKind {
	if err == nil {
		return KindOther
	}

	var classified Error
	if errors.As(err, &classified) {
		return classified.Kind()
	}

	switch {
	case errors.Is(err, io.ErrUnexpectedEOF):
		return KindUnexpectedEOF
	case errors.Is(err, io.ErrShortWrite):
		return KindWriteZero
	}

	return KindOther
}
