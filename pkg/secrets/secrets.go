// Package secrets reads the warehouse credentials from the process environment
package secrets

import (
	"errors"
	"fmt"
	"strings"

	"github.com/caarlos0/env/v11"
)

// Environment variable names
const (
	TokenEnv     = "TMSIS_WAREHOUSE_TOKEN"
	TokenFileEnv = "TMSIS_WAREHOUSE_TOKEN_FILE"
)

// ErrTokenMissing is returned when neither token source is set
var ErrTokenMissing = errors.New("warehouse token not set: export " + TokenEnv + " or mount a file named by " + TokenFileEnv)

// Warehouse holds the warehouse credentials. A mounted file takes precedence
// over the plain variable.
type Warehouse struct {
	Token     string `env:"TMSIS_WAREHOUSE_TOKEN"`
	TokenFile string `env:"TMSIS_WAREHOUSE_TOKEN_FILE,file"`
}

// Load reads the warehouse secret from the process environment
func Load() (string, error) {
	return load(env.Options{})
}

// LoadFrom reads the warehouse secret from environ instead of the process environment
func LoadFrom(environ map[string]string) (string, error) {
	return load(env.Options{Environment: environ})
}

func load(opts env.Options) (string, error) {
	var w Warehouse
	if err := env.ParseWithOptions(&w, opts); err != nil {
		return "", fmt.Errorf("read warehouse secret: %w", err)
	}

	if token := strings.TrimSpace(w.TokenFile); token != "" {
		return token, nil
	}

	if token := strings.TrimSpace(w.Token); token != "" {
		return token, nil
	}

	return "", ErrTokenMissing
}
