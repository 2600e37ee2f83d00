package warehouse

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		fallback Kind
		wantKind Kind
		sentinel error
	}{
		{
			name:     "deadline becomes timeout",
			err:      fmt.Errorf("request failed: %w", context.DeadlineExceeded),
			fallback: KindConnection,
			wantKind: KindTimeout,
			sentinel: ErrTimeout,
		},
		{
			name:     "other errors use fallback",
			err:      errors.New("syntax error at position 12"),
			fallback: KindQuery,
			wantKind: KindQuery,
			sentinel: ErrQuery,
		},
		{
			name:     "existing warehouse errors pass through",
			err:      NewError(KindAuth, errors.New("bad token")),
			fallback: KindQuery,
			wantKind: KindAuth,
			sentinel: ErrAuth,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Classify(tt.fallback, tt.err)

			var werr *Error
			require.ErrorAs(t, err, &werr)
			assert.Equal(t, tt.wantKind, werr.Kind)
			assert.ErrorIs(t, err, tt.sentinel)
		})
	}
}

func TestClassify_Nil(t *testing.T) {
	assert.NoError(t, Classify(KindQuery, nil))
}

func TestError_KeepsUnderlyingMessage(t *testing.T) {
	err := NewError(KindConnection, errors.New("dial tcp: connection refused"))

	assert.Equal(t, "warehouse connection error: dial tcp: connection refused", err.Error())
	assert.NotErrorIs(t, err, ErrQuery)
}
