package errors

import (
	"errors"
	"io/fs"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDfindError_Unwrap_PreservesOriginalError(t *testing.T) {
	originalErr := errors.New("permission denied")

	dfindErr := New(ErrCodeWalkFailed, "cannot read /mnt/data/secret", originalErr)

	require.NotNil(t, dfindErr)
	assert.Equal(t, originalErr, errors.Unwrap(dfindErr))
	assert.True(t, errors.Is(dfindErr, originalErr))
}

func TestDfindError_Error_ReturnsFormattedMessage(t *testing.T) {
	tests := []struct {
		name     string
		code     string
		message  string
		expected string
	}{
		{
			name:     "config error",
			code:     ErrCodeConfigInvalid,
			message:  "ignored_volumes must be a list",
			expected: "[ERR_101_CONFIG_INVALID] ignored_volumes must be a list",
		},
		{
			name:     "store error",
			code:     ErrCodeStoreUnavailable,
			message:  "cannot open index store",
			expected: "[ERR_201_STORE_UNAVAILABLE] cannot open index store",
		},
		{
			name:     "query error",
			code:     ErrCodeBadPattern,
			message:  "unterminated escape",
			expected: "[ERR_402_BAD_PATTERN] unterminated escape",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := New(tt.code, tt.message, nil)
			assert.Equal(t, tt.expected, err.Error())
		})
	}
}

func TestDfindError_Is_MatchesByCode(t *testing.T) {
	err1 := New(ErrCodeWalkFailed, "cannot read /a", nil)
	err2 := New(ErrCodeWalkFailed, "cannot read /b", nil)

	assert.True(t, errors.Is(err1, err2))
}

func TestDfindError_Is_DoesNotMatchDifferentCodes(t *testing.T) {
	err1 := New(ErrCodeWalkFailed, "cannot read /a", nil)
	err2 := New(ErrCodeStoreUnavailable, "store gone", nil)

	assert.False(t, errors.Is(err1, err2))
}

func TestDfindError_WithDetail_AddsContext(t *testing.T) {
	err := New(ErrCodeWalkFailed, "cannot read path", nil).
		WithDetail("path", "/mnt/data").
		WithDetail("volume", "/mnt")

	require.NotNil(t, err.Details)
	assert.Equal(t, "/mnt/data", err.Details["path"])
	assert.Equal(t, "/mnt", err.Details["volume"])
}

func TestDfindError_WithSuggestion(t *testing.T) {
	err := StoreError("index store is corrupt", nil).
		WithSuggestion("run 'dfind index --force' to rebuild")

	assert.Equal(t, "run 'dfind index --force' to rebuild", err.Suggestion)
}

func TestCategoryFromCode(t *testing.T) {
	tests := []struct {
		code     string
		category Category
	}{
		{ErrCodeConfigInvalid, CategoryConfig},
		{ErrCodeLocationUnreachable, CategoryConfig},
		{ErrCodeStoreUnavailable, CategoryStore},
		{ErrCodeStoreLocked, CategoryStore},
		{ErrCodeWalkFailed, CategoryTraversal},
		{ErrCodeBadPattern, CategoryQuery},
		{ErrCodeQueryEmpty, CategoryQuery},
		{ErrCodeInternal, CategoryInternal},
		{"bogus", CategoryInternal},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			assert.Equal(t, tt.category, categoryFromCode(tt.code))
		})
	}
}

func TestSeverity_StoreErrorsAreFatal(t *testing.T) {
	assert.True(t, IsFatal(StoreError("store unavailable", nil)))
	assert.True(t, IsFatal(New(ErrCodeStoreCorrupt, "bad header", nil)))
	assert.True(t, IsFatal(New(ErrCodeStoreLocked, "lock held", nil)))
}

func TestSeverity_ContainedErrorsAreNotFatal(t *testing.T) {
	assert.False(t, IsFatal(TraversalError("/mnt/data/x", errors.New("io error"))))
	assert.False(t, IsFatal(LocationError("//nas/media", errors.New("no route"))))
	assert.False(t, IsFatal(QueryError("bad pattern", nil)))
	assert.False(t, IsFatal(nil))
}

func TestTraversalError_ClassifiesPermissionDenied(t *testing.T) {
	perm := &fs.PathError{Op: "open", Path: "/mnt/data/secret", Err: fs.ErrPermission}

	err := TraversalError("/mnt/data/secret", perm)
	assert.Equal(t, ErrCodePathPermission, err.Code)
	assert.True(t, IsTraversalError(err))

	io := TraversalError("/mnt/data/x", errors.New("input/output error"))
	assert.Equal(t, ErrCodeWalkFailed, io.Code)
}

func TestIsRetryable_OnlyLockedStore(t *testing.T) {
	assert.True(t, IsRetryable(New(ErrCodeStoreLocked, "another run active", nil)))
	assert.False(t, IsRetryable(StoreError("unavailable", nil)))
	assert.False(t, IsRetryable(errors.New("plain")))
	assert.False(t, IsRetryable(nil))
}

func TestCategoryPredicates(t *testing.T) {
	assert.True(t, IsStoreError(StoreError("x", nil)))
	assert.True(t, IsQueryError(QueryError("x", nil)))
	assert.True(t, IsTraversalError(TraversalError("/p", nil)))
	assert.True(t, IsConfigError(ConfigError("x", nil)))
	assert.True(t, IsConfigError(LocationError("/nope", nil)))

	plain := errors.New("plain")
	assert.False(t, IsStoreError(plain))
	assert.False(t, IsQueryError(plain))
	assert.False(t, IsTraversalError(plain))
	assert.False(t, IsConfigError(plain))
}

func TestWrap_NilReturnsNil(t *testing.T) {
	assert.Nil(t, Wrap(ErrCodeInternal, nil))
}

func TestWrap_UsesErrorMessage(t *testing.T) {
	cause := errors.New("disk I/O error")
	err := Wrap(ErrCodeStoreUnavailable, cause)

	require.NotNil(t, err)
	assert.Equal(t, "disk I/O error", err.Message)
	assert.Equal(t, cause, err.Cause)
}

func TestLocationError_CarriesLocationDetail(t *testing.T) {
	err := LocationError("//nas/media", errors.New("host unreachable"))

	assert.Equal(t, "//nas/media", err.Details["location"])
	assert.Equal(t, SeverityWarning, err.Severity)
}

func TestGetCode(t *testing.T) {
	assert.Equal(t, ErrCodeBadPattern, GetCode(QueryError("x", nil)))
	assert.Equal(t, "", GetCode(errors.New("plain")))
}
