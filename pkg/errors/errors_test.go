// Package errors_test covers the AppError type, factory functions, and
// error-chain helpers defined in pkg/errors/errors.go.
package errors_test

import (
	stderrors "errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/turtacn/molgen/pkg/errors"
)

// ─────────────────────────────────────────────────────────────────────────────
// TestNew
// ─────────────────────────────────────────────────────────────────────────────

func TestNew_FieldsAreSetCorrectly(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name    string
		code    errors.ErrorCode
		message string
	}{
		{"internal error", errors.CodeInternal, "unexpected failure"},
		{"configuration", errors.ErrCodeConfiguration, "histogram is empty"},
		{"lookup", errors.ErrCodeLookup, "node count 19 not observed"},
		{"artifact", errors.ErrCodeArtifactNotFound, "args.json missing"},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			ae := errors.New(tc.code, tc.message)

			require.NotNil(t, ae)
			assert.Equal(t, tc.code, ae.Code)
			assert.Equal(t, tc.message, ae.Message)
			assert.Empty(t, ae.Detail)
			assert.Nil(t, ae.Cause)
		})
	}
}

func TestNewf_FormatsMessage(t *testing.T) {
	t.Parallel()

	ae := errors.Newf(errors.ErrCodeLookup, "node count %d not observed", 19)
	assert.Equal(t, "node count 19 not observed", ae.Message)
}

// ─────────────────────────────────────────────────────────────────────────────
// TestWrap
// ─────────────────────────────────────────────────────────────────────────────

func TestWrap_NilErrReturnsNil(t *testing.T) {
	t.Parallel()

	assert.Nil(t, errors.Wrap(nil, errors.CodeInternal, "should not matter"))
}

func TestWrap_CauseChainIsPreserved(t *testing.T) {
	t.Parallel()

	root := stderrors.New("open args.json: no such file")
	wrapped := errors.Wrap(root, errors.ErrCodeArtifactNotFound, "generator args missing")

	require.NotNil(t, wrapped)
	assert.Equal(t, errors.ErrCodeArtifactNotFound, wrapped.Code)
	assert.Equal(t, root, wrapped.Cause)
	assert.Equal(t, root, stderrors.Unwrap(wrapped))
}

func TestWrap_PreservesOriginalCodeWhenCodeUnknown(t *testing.T) {
	t.Parallel()

	inner := errors.LookupError("node count 19 not observed")
	outer := errors.Wrap(inner, errors.CodeUnknown, "sampling property alpha")

	require.NotNil(t, outer)
	assert.Equal(t, errors.ErrCodeLookup, outer.Code)
}

func TestWrap_OverridesCodeWhenExplicit(t *testing.T) {
	t.Parallel()

	inner := errors.LookupError("not observed")
	outer := errors.Wrap(inner, errors.CodeInternal, "unexpected state")

	assert.Equal(t, errors.CodeInternal, outer.Code)
}

// ─────────────────────────────────────────────────────────────────────────────
// TestError_Method
// ─────────────────────────────────────────────────────────────────────────────

func TestError_FormatWithoutDetail(t *testing.T) {
	t.Parallel()

	s := errors.ConfigurationError("histogram is empty").Error()

	assert.Equal(t, "[GEN_001] histogram is empty", s)
	assert.False(t, strings.Contains(s, ": "))
}

func TestError_FormatWithDetail(t *testing.T) {
	t.Parallel()

	s := errors.LookupError("node count not observed").WithDetail("property=alpha n_nodes=19").Error()

	assert.Equal(t, "[GEN_002] node count not observed: property=alpha n_nodes=19", s)
}

// ─────────────────────────────────────────────────────────────────────────────
// TestWithDetail / TestWithCause
// ─────────────────────────────────────────────────────────────────────────────

func TestWithDetail_SetsDetailOnCopy(t *testing.T) {
	t.Parallel()

	original := errors.NotFound("resource missing")
	detailed := original.WithDetail("id=42")

	assert.Empty(t, original.Detail)
	assert.Equal(t, "id=42", detailed.Detail)
	assert.Equal(t, original.Code, detailed.Code)
}

func TestWithDetail_NilReceiverReturnsNil(t *testing.T) {
	t.Parallel()

	var ae *errors.AppError
	assert.Nil(t, ae.WithDetail("x"))
	assert.Nil(t, ae.WithCause(stderrors.New("x")))
}

func TestWithCause_DoesNotMutateOriginal(t *testing.T) {
	t.Parallel()

	original := errors.Internal("failure")
	cause := stderrors.New("cause")
	withCause := original.WithCause(cause)

	assert.Nil(t, original.Cause)
	assert.True(t, stderrors.Is(withCause, cause))
}

// ─────────────────────────────────────────────────────────────────────────────
// Chain inspection
// ─────────────────────────────────────────────────────────────────────────────

func TestIsCode_NestedChain(t *testing.T) {
	t.Parallel()

	root := errors.ConfigurationError("dataset mismatch")
	wrapped := fmt.Errorf("assembly: %w", errors.Wrap(root, errors.ErrCodeComponentBuild, "build failed"))

	assert.True(t, errors.IsCode(wrapped, errors.ErrCodeConfiguration))
	assert.True(t, errors.IsCode(wrapped, errors.ErrCodeComponentBuild))
	assert.False(t, errors.IsCode(wrapped, errors.ErrCodeLookup))
	assert.False(t, errors.IsCode(nil, errors.CodeInternal))
}

func TestClassifiers(t *testing.T) {
	t.Parallel()

	assert.True(t, errors.IsConfigurationError(errors.ConfigurationError("x")))
	assert.False(t, errors.IsConfigurationError(errors.LookupError("x")))
	assert.True(t, errors.IsLookupError(fmt.Errorf("wrapped: %w", errors.LookupError("x"))))
	assert.True(t, errors.IsNotFound(errors.New(errors.ErrCodeArtifactNotFound, "x")))
	assert.True(t, errors.IsNotFound(errors.NotFound("x")))
	assert.False(t, errors.IsNotFound(stderrors.New("plain")))
}

func TestGetCode(t *testing.T) {
	t.Parallel()

	assert.Equal(t, errors.CodeOK, errors.GetCode(nil))
	assert.Equal(t, errors.CodeUnknown, errors.GetCode(stderrors.New("plain")))
	assert.Equal(t, errors.ErrCodeLookup, errors.GetCode(fmt.Errorf("x: %w", errors.LookupError("y"))))
}

func TestConvenienceFactories_ReturnCorrectCode(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name     string
		err      *errors.AppError
		wantCode errors.ErrorCode
	}{
		{"ConfigurationError", errors.ConfigurationError("bad"), errors.ErrCodeConfiguration},
		{"LookupError", errors.LookupError("miss"), errors.ErrCodeLookup},
		{"NotFound", errors.NotFound("not found"), errors.CodeNotFound},
		{"InvalidParam", errors.InvalidParam("bad input"), errors.CodeInvalidParam},
		{"Internal", errors.Internal("server error"), errors.CodeInternal},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			require.NotNil(t, tc.err)
			assert.Equal(t, tc.wantCode, tc.err.Code)
			assert.NotEmpty(t, tc.err.Error())
		})
	}
}

//Personal.AI order the ending
