package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFlags(t *testing.T) {
	tests := []struct {
		name     string
		args     []string
		expected Config
		wantErr  bool
	}{
		{
			name: "all flags",
			args: []string{
				"-t", "15m", "-r", "2 days", "-p", "pass", "-k", "s3", "-admin=false",
				"-s", "mongo", "-d", "postgres://db", "-m", "mongodb://m", "-n", "ids",
			},
			expected: Config{
				AccessTokenTTL:  15 * time.Minute,
				RefreshTokenTTL: 48 * time.Hour,
				KeyPassphrase:   "pass",
				KeyStorage:      "s3",
				InitAdmin:       false,
				StoreDriver:     "mongo",
				DatabaseDSN:     "postgres://db",
				MongoURI:        "mongodb://m",
				MongoDatabase:   "ids",
			},
		},
		{
			name:     "foreign flags are ignored",
			args:     []string{"-c", "cfg.json", "-x", "1", "-s", "memory"},
			expected: Config{StoreDriver: "memory", InitAdmin: true},
		},
		{
			name:    "bad duration",
			args:    []string{"-t", "soon"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := &Config{InitAdmin: true}
			err := parseFlags(config, tt.args)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, *config)
		})
	}
}
