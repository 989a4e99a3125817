package lfs

import (
	"errors"
	"fmt"
	"io/fs"
	"math"
	"testing"

	"github.com/marmos91/littlefs/pkg/engine"
	"github.com/marmos91/littlefs/pkg/path"
	"github.com/marmos91/littlefs/pkg/stream"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ============================================================================
// FromCode
// ============================================================================

func TestFromCode_KnownCodes(t *testing.T) {
	tests := []struct {
		code int32
		want Error
		kind ErrorCode
	}{
		{engine.ErrIO, ErrIo, CodeIo},
		{engine.ErrCorrupt, ErrCorruption, CodeCorruption},
		{engine.ErrNoEnt, ErrNoSuchEntry, CodeNoSuchEntry},
		{engine.ErrExist, ErrEntryAlreadyExisted, CodeEntryAlreadyExisted},
		{engine.ErrNotDir, ErrPathNotDir, CodePathNotDir},
		{engine.ErrIsDir, ErrPathIsDir, CodePathIsDir},
		{engine.ErrNotEmpty, ErrDirNotEmpty, CodeDirNotEmpty},
		{engine.ErrBadF, ErrBadFileDescriptor, CodeBadFileDescriptor},
		{engine.ErrFBig, ErrFileTooBig, CodeFileTooBig},
		{engine.ErrInval, ErrInvalid, CodeInvalid},
		{engine.ErrNoSpc, ErrNoSpace, CodeNoSpace},
		{engine.ErrNoMem, ErrNoMemory, CodeNoMemory},
		{engine.ErrNoAttr, ErrNoAttribute, CodeNoAttribute},
		{engine.ErrNameTooLong, ErrFilenameTooLong, CodeFilenameTooLong},
	}

	seen := make(map[ErrorCode]bool)
	for _, tt := range tests {
		t.Run(ReturnCodeString(tt.code), func(t *testing.T) {
			got := FromCode(tt.code)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.kind, got.Code())
			assert.Equal(t, tt.code, got.ReturnCode())
		})
		seen[tt.kind] = true
	}

	// Every named failure variant is covered exactly once.
	assert.Len(t, seen, 14)
}

func TestFromCode_SuccessBoundary(t *testing.T) {
	for _, code := range []int32{0, 1, 5, 4096, math.MaxInt32} {
		assert.Equal(t, Success, FromCode(code), "code %d", code)
	}

	for _, code := range []int32{-1, -3, -9999, math.MinInt32} {
		got := FromCode(code)
		assert.False(t, got.IsSuccess(), "code %d", code)
		assert.NotEqual(t, Success, got, "code %d", code)
	}
}

func TestFromCode_UnknownFallback(t *testing.T) {
	got := FromCode(-9999)
	assert.Equal(t, Unknown(-9999), got)
	assert.Equal(t, CodeUnknown, got.Code())
	assert.Equal(t, int32(-9999), got.ReturnCode())

	// -1 (EPERM in errno space) has no littlefs meaning.
	assert.Equal(t, Unknown(-1), FromCode(-1))
}

func TestUnknown_RoundTrip(t *testing.T) {
	for _, code := range []int32{math.MinInt32, math.MaxInt32, -1, 0, 1} {
		u := Unknown(code)
		assert.Equal(t, code, u.ReturnCode())
		assert.Equal(t, CodeUnknown, u.Code())
	}
	assert.Equal(t, Unknown(math.MinInt32), FromCode(math.MinInt32))
}

func FuzzFromCode(f *testing.F) {
	f.Add(int32(0))
	f.Add(int32(-1))
	f.Add(int32(engine.ErrNoEnt))
	f.Add(int32(math.MinInt32))
	f.Add(int32(math.MaxInt32))
	f.Fuzz(func(t *testing.T, code int32) {
		got := FromCode(code)
		if code >= 0 {
			if got != Success {
				t.Fatalf("FromCode(%d) = %#v; want Success", code, got)
			}
			return
		}
		if got.IsSuccess() {
			t.Fatalf("FromCode(%d) = Success for a negative code", code)
		}
		if got.ReturnCode() != code {
			t.Fatalf("FromCode(%d).ReturnCode() = %d", code, got.ReturnCode())
		}
	})
}

// ============================================================================
// ResultFrom / Check / CountFrom
// ============================================================================

func TestResultFrom_Success(t *testing.T) {
	v, err := ResultFrom("payload", 0)
	require.NoError(t, err)
	assert.Equal(t, "payload", v)

	v, err = ResultFrom("payload", 5)
	require.NoError(t, err)
	assert.Equal(t, "payload", v)
}

func TestResultFrom_Failure(t *testing.T) {
	v, err := ResultFrom("payload", engine.ErrNoEnt)
	require.Error(t, err)
	assert.Equal(t, ErrNoSuchEntry, err)
	assert.Empty(t, v)

	type info struct{ Size int }
	p, err := ResultFrom(&info{Size: 10}, engine.ErrCorrupt)
	assert.Nil(t, p)
	assert.True(t, errors.Is(err, ErrCorruption))
}

func TestCheck(t *testing.T) {
	assert.NoError(t, Check(engine.OK))
	assert.NoError(t, Check(1))
	assert.Equal(t, ErrDirNotEmpty, Check(engine.ErrNotEmpty))
}

func TestCountFrom(t *testing.T) {
	n, err := CountFrom(512)
	require.NoError(t, err)
	assert.Equal(t, 512, n)

	n, err = CountFrom(engine.ErrBadF)
	assert.Equal(t, ErrBadFileDescriptor, err)
	assert.Zero(t, n)
}

// ============================================================================
// FromPathError
// ============================================================================

func TestFromPathError_Collapses(t *testing.T) {
	_, err1 := path.New("")
	_, err2 := path.New("/a/\x00")

	var p1, p2 *path.Error
	require.True(t, errors.As(err1, &p1))
	require.True(t, errors.As(err2, &p2))
	require.NotEqual(t, p1.Err, p2.Err)

	assert.Equal(t, ErrIo, FromPathError(p1))
	assert.Equal(t, ErrIo, FromPathError(p2))
	assert.Equal(t, FromPathError(p1), FromPathError(p2))
}

// ============================================================================
// Matching and interop
// ============================================================================

func TestError_MatchesThroughWrapping(t *testing.T) {
	err := fmt.Errorf("open /x: %w", FromCode(engine.ErrNoEnt))

	assert.ErrorIs(t, err, ErrNoSuchEntry)
	assert.ErrorIs(t, err, fs.ErrNotExist)
	assert.NotErrorIs(t, err, ErrIo)

	var target Error
	require.True(t, errors.As(err, &target))
	assert.Equal(t, CodeNoSuchEntry, target.Code())
}

func TestError_FSSentinels(t *testing.T) {
	assert.ErrorIs(t, ErrEntryAlreadyExisted, fs.ErrExist)
	assert.ErrorIs(t, ErrInvalid, fs.ErrInvalid)
	assert.ErrorIs(t, ErrBadFileDescriptor, fs.ErrClosed)
	assert.NotErrorIs(t, ErrIo, fs.ErrNotExist)
	assert.NotErrorIs(t, Unknown(-2), ErrNoSuchEntry)
}

func TestError_StreamKind(t *testing.T) {
	for _, e := range []Error{ErrIo, ErrNoSuchEntry, ErrNoMemory, Unknown(-9999)} {
		assert.Equal(t, stream.KindOther, e.Kind())
		assert.Equal(t, stream.KindOther, stream.KindOf(fmt.Errorf("wrapped: %w", e)))
	}
}

// ============================================================================
// Formatting
// ============================================================================

func TestError_Formatting(t *testing.T) {
	assert.Equal(t, "lfs: no such entry", ErrNoSuchEntry.Error())
	assert.Equal(t, "lfs: unknown error (code -9999)", Unknown(-9999).Error())

	assert.Equal(t, "lfs.ErrNoSuchEntry", fmt.Sprintf("%#v", ErrNoSuchEntry))
	assert.Equal(t, "lfs.Unknown(-9999)", fmt.Sprintf("%#v", Unknown(-9999)))
	assert.Equal(t, "lfs.Success", Success.GoString())

	assert.Equal(t, "NoSuchEntry", CodeNoSuchEntry.String())
	assert.Equal(t, "Unknown", ErrorCode(250).String())

	text, err := Unknown(-7).MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "Unknown(-7)", string(text))

	text, err = ErrNoSpace.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "NoSpace", string(text))
}

func TestReturnCodeString(t *testing.T) {
	assert.Equal(t, "LFS_ERR_OK", ReturnCodeString(0))
	assert.Equal(t, "LFS_ERR_OK", ReturnCodeString(42))
	assert.Equal(t, "LFS_ERR_NOENT", ReturnCodeString(engine.ErrNoEnt))
	assert.Equal(t, "LFS_ERR_NAMETOOLONG", ReturnCodeString(engine.ErrNameTooLong))
	assert.Equal(t, "UNKNOWN_-9999", ReturnCodeString(-9999))
}
