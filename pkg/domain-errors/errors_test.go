package domainerrors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHasCode(t *testing.T) {
	t.Run("matches outer code", func(t *testing.T) {
		err := New(CodeOutOfStock, "no copies left")
		assert.True(t, HasCode(err, CodeOutOfStock))
		assert.False(t, HasCode(err, CodeNotFound))
	})

	t.Run("matches inner code through wrapping", func(t *testing.T) {
		inner := New(CodeDuplicateLoan, "active loan exists")
		outer := Wrap(inner, CodeTransaction, "borrow failed")

		assert.True(t, HasCode(outer, CodeTransaction))
		assert.True(t, HasCode(outer, CodeDuplicateLoan))
		assert.False(t, HasCode(outer, CodeOutOfStock))
	})

	t.Run("nil and uncoded errors match nothing", func(t *testing.T) {
		assert.False(t, HasCode(nil, CodeInternal))
		assert.False(t, HasCode(errors.New("plain"), CodeInternal))
	})
}

func TestWrap(t *testing.T) {
	t.Run("nil cause yields nil", func(t *testing.T) {
		assert.NoError(t, Wrap(nil, CodeDataAccess, "ignored"))
	})

	t.Run("cause stays reachable via errors.Is", func(t *testing.T) {
		cause := errors.New("driver: connection reset")
		err := Wrap(cause, CodeDataAccess, "query books")

		require.Error(t, err)
		assert.ErrorIs(t, err, cause)
		assert.Contains(t, err.Error(), "query books")
		assert.Contains(t, err.Error(), "connection reset")
	})

	t.Run("wrapping with fmt.Errorf keeps the code visible", func(t *testing.T) {
		err := fmt.Errorf("handler: %w", New(CodeMemberIneligible, "member inactive"))
		assert.True(t, HasCode(err, CodeMemberIneligible))
	})
}

func TestToHTTPStatus(t *testing.T) {
	cases := []struct {
		code Code
		want int
	}{
		{CodeNotFound, http.StatusNotFound},
		{CodeMemberIneligible, http.StatusForbidden},
		{CodeOutOfStock, http.StatusConflict},
		{CodeDuplicateLoan, http.StatusConflict},
		{CodeValidation, http.StatusBadRequest},
		{CodeBadRequest, http.StatusBadRequest},
		{CodeUnauthorized, http.StatusUnauthorized},
		{CodeDataAccess, http.StatusInternalServerError},
		{CodeTransaction, http.StatusInternalServerError},
		{CodeInternal, http.StatusInternalServerError},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, ToHTTPStatus(New(tc.code, "x")), string(tc.code))
	}

	assert.Equal(t, http.StatusInternalServerError, ToHTTPStatus(errors.New("plain")))
}
