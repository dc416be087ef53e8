// Package wrappers implements wrappers around environments which
// modify or observe their interaction with agents
package wrappers

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/cespare/xxhash/v2"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	env "github.com/samuelfneumann/godriving/environment"
	ts "github.com/samuelfneumann/godriving/timestep"
	"go.uber.org/zap"
	"gonum.org/v1/gonum/mat"
)

// EpisodeSummary describes a finished episode
type EpisodeSummary struct {
	ID      uuid.UUID
	Steps   int
	End     ts.EndType
	Returns map[string]float64

	// Digest is the xxhash digest of all observations of the episode,
	// including the first
	Digest uint64

	// Err holds the error which ended the episode, if any
	Err error
}

// Monitor wraps an environment and enforces the reset and step
// lifecycle of episodes independently of the wrapped environment:
// stepping before the first Reset returns env.ErrNotReset and
// stepping after the end of an episode returns env.ErrEpisodeOver,
// without the wrapped environment being stepped.
//
// For each episode, Monitor accumulates the return of every agent and
// a digest of the observation stream, so that two runs can be checked
// for bit-identical trajectories. Finished episodes are logged and
// kept as EpisodeSummary's.
//
// Monitor itself implements the environment.Environment interface.
type Monitor struct {
	env.Environment
	logger *zap.Logger

	id      uuid.UUID
	digest  *xxhash.Digest
	returns map[string]float64
	steps   int

	started  bool
	finished bool

	episodes []EpisodeSummary
	buf      [8]byte
}

// NewMonitor returns a new Monitor wrapping e. A nil logger disables
// logging.
func NewMonitor(e env.Environment, logger *zap.Logger) *Monitor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Monitor{
		Environment: e,
		logger:      logger,
		digest:      xxhash.New(),
		returns:     make(map[string]float64),
	}
}

// Reset resets the wrapped environment and starts a new episode
func (m *Monitor) Reset() (ts.TimeStep, error) {
	step, err := m.Environment.Reset()
	if err != nil {
		return step, errors.Wrap(err, "reset")
	}

	m.id = uuid.New()
	m.digest.Reset()
	m.returns = make(map[string]float64, len(m.Agents()))
	for _, name := range m.Agents() {
		m.returns[name] = 0
	}
	m.steps = 0
	m.started = true
	m.finished = false

	m.write(step.Observation)
	m.logger.Debug("episode started", zap.Stringer("episode", m.id))
	return step, nil
}

// Step takes one step in the wrapped environment
func (m *Monitor) Step(action *mat.VecDense) (ts.TimeStep, bool, error) {
	if !m.started {
		return ts.TimeStep{}, false, errors.Wrap(env.ErrNotReset, "step")
	}
	if m.finished {
		return m.CurrentTimeStep(), true, errors.Wrapf(env.ErrEpisodeOver,
			"step: episode %v", m.id)
	}

	step, done, err := m.Environment.Step(action)
	if err != nil {
		if errors.Is(err, env.ErrOutOfBounds) {
			m.steps = step.Number
			m.finish(ts.OutOfBounds, err)
		}
		return step, done, err
	}

	m.steps = step.Number
	for name, r := range step.Reward {
		m.returns[name] += r
	}
	m.write(step.Observation)

	if done {
		m.finish(step.EndType, nil)
	}
	return step, done, nil
}

// write adds an observation to the digest of the episode
func (m *Monitor) write(obs *mat.VecDense) {
	if obs == nil {
		return
	}
	for i := 0; i < obs.Len(); i++ {
		binary.LittleEndian.PutUint64(m.buf[:], math.Float64bits(obs.AtVec(i)))
		m.digest.Write(m.buf[:])
	}
}

// finish records the summary of the current episode
func (m *Monitor) finish(end ts.EndType, err error) {
	m.finished = true

	returns := make(map[string]float64, len(m.returns))
	for name, r := range m.returns {
		returns[name] = r
	}
	summary := EpisodeSummary{
		ID:      m.id,
		Steps:   m.steps,
		End:     end,
		Returns: returns,
		Digest:  m.digest.Sum64(),
		Err:     err,
	}
	m.episodes = append(m.episodes, summary)

	fields := []zap.Field{
		zap.Stringer("episode", m.id),
		zap.Int("steps", summary.Steps),
		zap.Stringer("end", end),
		zap.Any("returns", returns),
		zap.String("digest", fmt.Sprintf("%016x", summary.Digest)),
	}
	if err != nil {
		m.logger.Warn("episode failed", append(fields, zap.Error(err))...)
		return
	}
	m.logger.Info("episode ended", fields...)
}

// EpisodeID returns the id of the current episode
func (m *Monitor) EpisodeID() uuid.UUID {
	return m.id
}

// Digest returns the digest of the observations of the current episode
// so far
func (m *Monitor) Digest() uint64 {
	return m.digest.Sum64()
}

// Returns returns the return of each agent in the current episode so
// far
func (m *Monitor) Returns() map[string]float64 {
	returns := make(map[string]float64, len(m.returns))
	for name, r := range m.returns {
		returns[name] = r
	}
	return returns
}

// Episodes returns the summaries of all finished episodes
func (m *Monitor) Episodes() []EpisodeSummary {
	episodes := make([]EpisodeSummary, len(m.episodes))
	copy(episodes, m.episodes)
	return episodes
}

// String returns a string representation of the Monitor environment
func (m *Monitor) String() string {
	return fmt.Sprintf("Monitor: %v", m.Environment)
}
