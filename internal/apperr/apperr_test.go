package apperr

import (
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestConstructors(t *testing.T) {
	t.Parallel()

	nf := NotFound("CONTACT_NOT_FOUND", "contact %s not found", "abc")
	require.Equal(t, 404, nf.Status)
	require.True(t, nf.Retryable)
	require.Equal(t, "CONTACT_NOT_FOUND: contact abc not found", nf.Error())

	inv := Invalid("INVALID_PARAMS", "bad input")
	require.Equal(t, 400, inv.Status)
	require.False(t, inv.Retryable)
	require.Equal(t, CategoryValidation, inv.Category)

	cause := errors.New("disk full")
	in := Internal("ADD_NOTE_FAILED", cause)
	require.Equal(t, 500, in.Status)
	require.Equal(t, "disk full", in.Message)
	require.ErrorIs(t, in, cause)

	m := Metering("RATE_LIMITED", "too fast", 429, true)
	require.Equal(t, CategoryMetering, m.Category)
	require.True(t, m.Retryable)
}

func TestAsUnwrapsWrappedErrors(t *testing.T) {
	t.Parallel()

	base := NotFound("TASK_NOT_FOUND", "task missing")
	wrapped := fmt.Errorf("invoke: %w", base)

	ae, ok := As(wrapped)
	require.True(t, ok)
	require.Equal(t, "TASK_NOT_FOUND", ae.Code)

	_, ok = As(errors.New("plain"))
	require.False(t, ok)
}

func TestJSONShapeOmitsCause(t *testing.T) {
	t.Parallel()

	body, err := json.Marshal(Internal("X_FAILED", errors.New("boom")))
	require.NoError(t, err)
	require.JSONEq(t,
		`{"code":"X_FAILED","message":"boom","category":"database","retryable":false,"status":500}`,
		string(body))
}
