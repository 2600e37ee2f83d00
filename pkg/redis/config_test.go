package redis

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name        string
		config      Config
		expectError error
		wantErr     bool
	}{
		{
			name:   "disabled needs nothing",
			config: Config{},
		},
		{
			name:   "enabled with URL",
			config: Config{Enabled: true, URL: "redis://localhost:6379/0"},
		},
		{
			name:        "enabled without URL",
			config:      Config{Enabled: true},
			expectError: ErrURLRequired,
		},
		{
			name:    "enabled with malformed URL",
			config:  Config{Enabled: true, URL: "http://localhost:6379"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			switch {
			case tt.expectError != nil:
				assert.ErrorIs(t, err, tt.expectError)
			case tt.wantErr:
				assert.Error(t, err)
			default:
				assert.NoError(t, err)
			}
		})
	}
}

func TestNewClient(t *testing.T) {
	client, err := NewClient(&Config{})
	require.NoError(t, err)
	assert.Nil(t, client)

	client, err = NewClient(&Config{Enabled: true, URL: "redis://localhost:6379/2"})
	require.NoError(t, err)
	require.NotNil(t, client)
	defer client.Close()

	assert.Equal(t, 2, client.Options().DB)
}
