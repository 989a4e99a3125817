package lfs

import "github.com/marmos91/littlefs/pkg/path"

// ResultFrom pairs a success payload with an engine return code.
//
// When code translates to Success the payload is returned with a nil error.
// Otherwise the payload is dropped, the zero T is returned, and the error is
// the translated Error. Every engine call site goes through here so the
// "check the code, keep or discard the value" decision is made in one place.
func ResultFrom[T any](value T, code int32) (T, error) {
	if e := FromCode(code); !e.IsSuccess() {
		var zero T
		return zero, e
	}
	return value, nil
}

// Check is ResultFrom for calls with no payload.
func Check(code int32) error {
	_, err := ResultFrom(struct{}{}, code)
	return err
}

// CountFrom is ResultFrom for calls whose success code is itself the payload,
// such as a byte count, a file position or a descriptor.
func CountFrom(code int32) (int, error) {
	return ResultFrom(int(code), code)
}

// FromPathError converts a path parsing failure.
//
// Path errors are not engine codes and have no variant of their own, so all
// of them become ErrIo. The specific cause is dropped on purpose; callers
// that need it should inspect the *path.Error before converting.
func FromPathError(_ *path.Error) Error {
	return ErrIo
}
