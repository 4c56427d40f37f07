package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKindStatusCode(t *testing.T) {
	tests := []struct {
		kind Kind
		want int
	}{
		{KindValidation, http.StatusBadRequest},
		{KindNotFound, http.StatusNotFound},
		{KindConflict, http.StatusConflict},
		{KindStorage, http.StatusInternalServerError},
		{KindUnexpected, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.kind.String(), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.kind.StatusCode())
		})
	}
}

func TestAsThroughWrapping(t *testing.T) {
	base := NotFound([]uint{7}, "todo %d not found", 7)
	wrapped := fmt.Errorf("handler: %w", base)

	got, ok := As(wrapped)
	require.True(t, ok)
	assert.Equal(t, KindNotFound, got.Kind)
	assert.Equal(t, []uint{7}, got.Detail)
	assert.True(t, IsExpected(wrapped))
}

func TestStorageIsNotExpected(t *testing.T) {
	cause := errors.New("connection refused")
	err := Storage("persist todo", cause)

	assert.False(t, IsExpected(err))
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, KindStorage, KindOf(err))
	assert.Equal(t, KindUnexpected, KindOf(errors.New("plain")))
}
