package internal

// Option is a functional option for configuring the application.
type Option func(*application)

type application struct {
	config *Config
	once   bool
}

// WithConfig sets the application configuration.
func WithConfig(cfg *Config) Option {
	return func(a *application) {
		a.config = cfg
	}
}

// WithOnce makes Run perform a single cycle and exit instead of polling.
func WithOnce(once bool) Option {
	return func(a *application) {
		a.once = once
	}
}
