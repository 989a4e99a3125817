// Package path parses and normalizes filesystem paths before they reach the
// engine.
//
// The engine expects absolute, slash-separated, NUL-free paths. New enforces
// that and reports violations as *Error, which is independent of the engine's
// own error codes.
package path

import (
	"errors"
	"path"
	"strconv"
	"strings"
	"unicode/utf8"
)

// Separator separates path components.
const Separator = '/'

var (
	ErrEmpty       = errors.New("empty path")
	ErrNulByte     = errors.New("path contains NUL byte")
	ErrNotUTF8     = errors.New("path is not valid UTF-8")
	ErrEscapesRoot = errors.New("path escapes root")
)

// Error records a path that failed to parse.
type Error struct {
	// Path is the raw input.
	Path string

	// Err is one of the Err* values of this package.
	Err error
}

func (e *Error) Error() string {
	return "path " + strconv.Quote(e.Path) + ": " + e.Err.Error()
}

func (e *Error) Unwrap() error { return e.Err }

// Path is a validated, cleaned, absolute path. The zero value is the root.
type Path struct {
	s string
}

// Root is the filesystem root.
var Root = Path{s: "/"}

// New validates s and returns its cleaned absolute form.
//
// Name length is not checked here; the engine enforces its own NameMax and
// reports ErrNameTooLong.
//
// Relative input is anchored at the root, repeated separators and "."
// components are dropped, and ".." is resolved lexically. A ".." that would
// climb above the root is rejected rather than clamped.
func New(s string) (Path, error) {
	switch {
	case s == "":
		return Path{}, &Error{Path: s, Err: ErrEmpty}
	case strings.IndexByte(s, 0) >= 0:
		return Path{}, &Error{Path: s, Err: ErrNulByte}
	case !utf8.ValidString(s):
		return Path{}, &Error{Path: s, Err: ErrNotUTF8}
	}

	if escapesRoot(s) {
		return Path{}, &Error{Path: s, Err: ErrEscapesRoot}
	}

	return Path{s: path.Clean("/" + s)}, nil
}

func escapesRoot(s string) bool {
	depth := 0
	for _, c := range strings.Split(s, string(Separator)) {
		switch c {
		case "", ".":
		case "..":
			depth--
			if depth < 0 {
				return true
			}
		default:
			depth++
		}
	}
	return false
}

func (p Path) String() string {
	if p.s == "" {
		return "/"
	}
	return p.s
}

// IsRoot reports whether p is "/".
func (p Path) IsRoot() bool { return p.String() == "/" }

// Base returns the last component, or "/" for the root.
func (p Path) Base() string { return path.Base(p.String()) }

// Parent returns the directory containing p. The root is its own parent.
func (p Path) Parent() Path { return Path{s: path.Dir(p.String())} }

// Join appends name, which may itself contain separators, and validates the
// result.
func (p Path) Join(name string) (Path, error) {
	if name == "" {
		return Path{}, &Error{Path: name, Err: ErrEmpty}
	}
	if p.IsRoot() {
		return New("/" + name)
	}
	return New(p.String() + "/" + name)
}

// Components returns the names along p, outermost first. The root has none.
func (p Path) Components() []string {
	if p.IsRoot() {
		return nil
	}
	return strings.Split(p.String()[1:], string(Separator))
}
