package frontend

// Config controls the embedded landing page. It is served by the API server
// on the same address.
type Config struct {
	Enabled bool `yaml:"enabled" default:"true"`
}
