// Command drive runs episodes of a driving task with a simple
// controller, optionally saving the rendered frames and the episodic
// returns and lengths.
//
// Usage:
//
//	drive [-config task.yaml] [-variant Merging] [-episodes 10]
//	      [-steps 100000] [-controller zero|uniform] [-seed 1]
//	      [-frames dir] [-save dir] [-v]
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	env "github.com/samuelfneumann/godriving/environment"
	"github.com/samuelfneumann/godriving/environment/driving"
	"github.com/samuelfneumann/godriving/environment/wrappers"
	"github.com/samuelfneumann/godriving/experiment"
	"github.com/samuelfneumann/godriving/experiment/controllers"
	"github.com/samuelfneumann/godriving/experiment/trackers"
	"github.com/samuelfneumann/godriving/utils/progressbar"
	"go.uber.org/zap"
)

type options struct {
	config     string
	variant    string
	episodes   int
	steps      int
	controller string
	seed       uint64
	frames     string
	save       string
	verbose    bool
}

func parseFlags(args []string) (options, error) {
	var o options
	fs := flag.NewFlagSet("drive", flag.ContinueOnError)
	fs.StringVar(&o.config, "config", "", "YAML task configuration file")
	fs.StringVar(&o.variant, "variant", "",
		fmt.Sprintf("task variant, one of %v (overrides -config)",
			driving.Variants()))
	fs.IntVar(&o.episodes, "episodes", 1, "number of episodes to run")
	fs.IntVar(&o.steps, "steps", 1_000_000, "maximum number of steps")
	fs.StringVar(&o.controller, "controller", "zero",
		"controller, one of zero or uniform")
	fs.Uint64Var(&o.seed, "seed", 1, "random seed of the controller")
	fs.StringVar(&o.frames, "frames", "", "directory to save frames to")
	fs.StringVar(&o.save, "save", "",
		"directory to save episodic returns and lengths to")
	fs.BoolVar(&o.verbose, "v", false, "verbose logging")

	if err := fs.Parse(args); err != nil {
		return o, err
	}
	if o.episodes < 1 {
		return o, errors.Errorf("episodes must be positive, got %v",
			o.episodes)
	}
	return o, nil
}

// loadConfig builds the task configuration from the config file and
// the command line overrides
func loadConfig(o options) (driving.Config, error) {
	c := driving.NewConfig(driving.Merging)
	if o.config != "" {
		f, err := os.Open(o.config)
		if err != nil {
			return c, errors.Wrap(err, "loadConfig")
		}
		defer f.Close()

		if c, err = driving.LoadConfig(f); err != nil {
			return c, errors.Wrapf(err, "loadConfig: %v", o.config)
		}
	}

	if o.variant != "" {
		c.Variant = driving.VariantName(o.variant)
	}
	if o.frames != "" {
		c.FrameDir = o.frames
	}
	return c, nil
}

func newLogger(verbose bool) (*zap.Logger, error) {
	if verbose {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

func newController(name string, e env.Environment,
	seed uint64) (experiment.Controller, error) {
	switch name {
	case "zero":
		return controllers.NewZero(e.ActionSpec()), nil
	case "uniform":
		return controllers.NewUniform(e.ActionSpec(), seed), nil
	}
	return nil, errors.Errorf("unknown controller %q", name)
}

func run(o options) error {
	logger, err := newLogger(o.verbose)
	if err != nil {
		return errors.Wrap(err, "could not create logger")
	}
	defer logger.Sync()

	c, err := loadConfig(o)
	if err != nil {
		return err
	}
	if c.FrameDir != "" {
		if err := os.MkdirAll(c.FrameDir, 0o755); err != nil {
			return errors.Wrap(err, "could not create frame directory")
		}
	}

	task, err := driving.New(c, logger)
	if err != nil {
		return err
	}
	monitor := wrappers.NewMonitor(task, logger)
	defer monitor.Close()

	controller, err := newController(o.controller, monitor, o.seed)
	if err != nil {
		return err
	}

	var returns *trackers.Return
	var lengths *trackers.EpisodeLength
	var tracked []trackers.Tracker
	if o.save != "" {
		if err := os.MkdirAll(o.save, 0o755); err != nil {
			return errors.Wrap(err, "could not create save directory")
		}
		returns = trackers.NewReturn(filepath.Join(o.save, "returns.bin"))
		lengths = trackers.NewEpisodeLength(filepath.Join(o.save,
			"lengths.bin"))
		tracked = append(tracked, returns, lengths)
	}

	exp := experiment.NewOnline(monitor, controller, o.steps, logger,
		tracked...)
	if c.FrameDir != "" {
		exp.RenderEvery(env.Human)
	}

	bar := progressbar.New(os.Stderr, 40, o.episodes)
	err = exp.RunEpisodes(o.episodes, func(episode int) {
		bar.Increment()
		bar.SetLabel(fmt.Sprintf("episode %v", episode))
		bar.Display()
	})
	bar.Finish()
	if err != nil {
		return err
	}

	for _, summary := range monitor.Episodes() {
		fmt.Printf("%v  steps: %4d  end: %-11v  returns: %v  digest: %016x\n",
			summary.ID, summary.Steps, summary.End, summary.Returns,
			summary.Digest)
	}

	if o.save != "" {
		return exp.Save()
	}
	return nil
}

func main() {
	o, err := parseFlags(os.Args[1:])
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	if err := run(o); err != nil {
		fmt.Fprintf(os.Stderr, "drive: %v\n", err)
		os.Exit(1)
	}
}
