package driving

import (
	"io"
	"math"
	"sort"

	"github.com/pkg/errors"
	env "github.com/samuelfneumann/godriving/environment"
	"github.com/samuelfneumann/godriving/world"
	"gopkg.in/yaml.v3"
)

// VariantName names one of the driving task variants
type VariantName string

// Variants available for configuration
const (
	Turning    VariantName = "Turning"
	Merging    VariantName = "Merging"
	Bottleneck VariantName = "Bottleneck"
)

// Config implements a specific configuration of a driving task. Zero
// valued numeric fields take the default of the configured variant.
// Configurations are JSON and YAML serializable.
//
// TimeLimit is the maximum number of steps in an episode. Zero selects
// the variant default and a negative limit disables the limit.
type Config struct {
	Variant        VariantName `json:"variant" yaml:"variant"`
	DT             float64     `json:"dt" yaml:"dt"`
	Width          float64     `json:"width" yaml:"width"`
	Height         float64     `json:"height" yaml:"height"`
	CtrlCostWeight float64     `json:"ctrl_cost_weight" yaml:"ctrl_cost_weight"`
	TimeLimit      int         `json:"time_limit" yaml:"time_limit"`
	PPM            float64     `json:"ppm" yaml:"ppm"`

	// RandomStart jitters the starting positions and speeds of the cars
	// uniformly by up to StartNoise using the random seed Seed
	RandomStart bool    `json:"random_start" yaml:"random_start"`
	StartNoise  float64 `json:"start_noise" yaml:"start_noise"`
	Seed        uint64  `json:"seed" yaml:"seed"`

	// FrameDir, if set, receives a PNG of every rendered frame
	FrameDir string `json:"frame_dir" yaml:"frame_dir"`
}

// DefaultStartNoise is the start noise used when RandomStart is set
// and StartNoise is left at zero
const DefaultStartNoise float64 = 0.5

// NewConfig returns the default configuration of a variant
func NewConfig(variant VariantName) Config {
	return Config{Variant: variant}
}

// LoadConfig parses a YAML configuration. Unknown fields are rejected.
func LoadConfig(r io.Reader) (Config, error) {
	var c Config
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&c); err != nil {
		if err == io.EOF {
			return Config{}, errors.Wrap(env.ErrInvalidConfig,
				"loadConfig: empty configuration")
		}
		return Config{}, errors.Wrapf(env.ErrInvalidConfig, "loadConfig: %v",
			err)
	}
	return c, nil
}

// withDefaults fills zero valued fields from d
func (c Config) withDefaults(d Config) Config {
	if c.DT == 0 {
		c.DT = d.DT
	}
	if c.Width == 0 {
		c.Width = d.Width
	}
	if c.Height == 0 {
		c.Height = d.Height
	}
	if c.CtrlCostWeight == 0 {
		c.CtrlCostWeight = d.CtrlCostWeight
	}
	if c.TimeLimit == 0 {
		c.TimeLimit = d.TimeLimit
	}
	if c.PPM == 0 {
		c.PPM = world.DefaultPPM
	}
	if c.RandomStart && c.StartNoise == 0 {
		c.StartNoise = DefaultStartNoise
	}
	return c
}

// Validate returns an error wrapping ErrInvalidConfig if the
// configuration cannot be used to construct an environment
func (c Config) Validate() error {
	if _, ok := variants[c.Variant]; !ok {
		return errors.Wrapf(env.ErrInvalidConfig,
			"validate: unknown variant %q (have %v)", c.Variant, Variants())
	}

	positive := map[string]float64{
		"dt":     c.DT,
		"width":  c.Width,
		"height": c.Height,
		"ppm":    c.PPM,
	}
	for name, value := range positive {
		if !(value > 0) || math.IsInf(value, 1) {
			return errors.Wrapf(env.ErrInvalidConfig,
				"validate: %v must be positive and finite, got %v", name, value)
		}
	}

	if c.CtrlCostWeight < 0 || math.IsNaN(c.CtrlCostWeight) {
		return errors.Wrapf(env.ErrInvalidConfig,
			"validate: ctrl_cost_weight must be non-negative, got %v",
			c.CtrlCostWeight)
	}
	if c.StartNoise < 0 || math.IsNaN(c.StartNoise) {
		return errors.Wrapf(env.ErrInvalidConfig,
			"validate: start_noise must be non-negative, got %v", c.StartNoise)
	}
	return nil
}

// Variants returns the names of all registered variants in sorted
// order
func Variants() []VariantName {
	names := make([]VariantName, 0, len(variants))
	for name := range variants {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool { return names[i] < names[j] })
	return names
}
