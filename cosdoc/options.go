package cosdoc

import "log/slog"

// An Option configures a document opened with OpenFile.
type Option func(*config)

type config struct {
	password string
	logger   *slog.Logger
}

// WithPassword sets the user password tried on encrypted documents. The
// empty password is always tried first.
func WithPassword(password string) Option {
	return func(c *config) {
		c.password = password
	}
}

// WithLogger routes the document's debug output to l instead of
// logging.Logger().
func WithLogger(l *slog.Logger) Option {
	return func(c *config) {
		c.logger = l
	}
}

func newConfig(opts []Option) config {
	var c config
	for _, opt := range opts {
		opt(&c)
	}
	return c
}
