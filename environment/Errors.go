package environment

import "github.com/pkg/errors"

var (
	// ErrUnsupportedRenderMode is returned when an environment is asked
	// to render in a mode it does not support. The environment state
	// is unaffected.
	ErrUnsupportedRenderMode = errors.New("unsupported render mode")

	// ErrInvalidAction is returned when an action vector does not have
	// one control pair per dynamic agent
	ErrInvalidAction = errors.New("invalid action")

	// ErrNotReset is returned when Step is called before the first
	// Reset
	ErrNotReset = errors.New("environment has not been reset")

	// ErrEpisodeOver is returned when Step is called after an episode
	// ended, without an intervening Reset
	ErrEpisodeOver = errors.New("episode is over")

	// ErrOutOfBounds is returned by environments which treat an agent
	// leaving the world as a fatal control error rather than as the end
	// of an episode
	ErrOutOfBounds = errors.New("agent went out of bounds")

	// ErrInvalidConfig is returned for unusable environment
	// configurations
	ErrInvalidConfig = errors.New("invalid configuration")
)
