package items

import "github.com/vigilance/vanguard/pkg/logger"

// Option configures a Normalizer.
type Option func(*Normalizer)

// WithLogger sets a custom logger.
func WithLogger(l logger.Logger) Option {
	return func(n *Normalizer) {
		if l != nil {
			n.logger = l
		}
	}
}
