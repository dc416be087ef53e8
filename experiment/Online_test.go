package experiment

import (
	"math"
	"path/filepath"
	"testing"

	env "github.com/samuelfneumann/godriving/environment"
	"github.com/samuelfneumann/godriving/environment/driving"
	"github.com/samuelfneumann/godriving/experiment/controllers"
	"github.com/samuelfneumann/godriving/experiment/trackers"
	"github.com/samuelfneumann/godriving/geometry"
	ts "github.com/samuelfneumann/godriving/timestep"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

func TestOnlineRunsEpisodes(t *testing.T) {
	e, err := driving.NewMerging(driving.Config{}, nil)
	require.NoError(t, err)

	dir := t.TempDir()
	returns := trackers.NewReturn(filepath.Join(dir, "returns.bin"))
	lengths := trackers.NewEpisodeLength(filepath.Join(dir, "lengths.bin"))

	o := NewOnline(e, controllers.NewZero(e.ActionSpec()), 1000, nil,
		returns, lengths)
	require.NoError(t, o.RunEpisodes(3, nil))

	assert.Equal(t, 3, o.Episodes())
	assert.Equal(t, 600, o.Steps())
	assert.Equal(t, []int{200, 200, 200}, lengths.Lengths())

	h := returns.Returns(driving.Human)
	require.Len(t, h, 3)
	assert.Equal(t, h[0], h[1])
	assert.InDelta(t, -119.68+200*math.Pow(85.0/120, 4), h[0], 1e-6)

	require.NoError(t, o.Save())
	loaded, err := trackers.LoadLengths(filepath.Join(dir, "lengths.bin"))
	require.NoError(t, err)
	assert.Equal(t, []int{200, 200, 200}, loaded)
}

func TestOnlineStepBudget(t *testing.T) {
	e, err := driving.NewMerging(driving.Config{}, nil)
	require.NoError(t, err)
	lengths := trackers.NewEpisodeLength("")

	o := NewOnline(e, controllers.NewZero(e.ActionSpec()), 450, nil, lengths)
	require.NoError(t, o.Run())

	assert.Equal(t, 450, o.Steps())
	assert.Equal(t, 3, o.Episodes())
	assert.Equal(t, []int{200, 200}, lengths.Lengths())
}

// teleport is a controller which moves the robot car to the top edge
// of the world before its first action
type teleport struct {
	env   *driving.Env
	inner Controller
}

func (c teleport) Act(step ts.TimeStep) *mat.VecDense {
	if step.First() {
		r, _ := c.env.Car(driving.Robot)
		r.SetPose(geometry.NewPoint(58.5, 119.9), math.Pi/2)
	}
	return c.inner.Act(step)
}

func TestOnlineOutOfBoundsEndsEpisode(t *testing.T) {
	e, err := driving.NewBottleneck(driving.Config{}, nil)
	require.NoError(t, err)
	lengths := trackers.NewEpisodeLength("")
	returns := trackers.NewReturn("")

	c := teleport{e, controllers.NewZero(e.ActionSpec())}
	o := NewOnline(e, c, 100, nil, lengths, returns)

	ended, err := o.RunEpisode()
	require.NoError(t, err)
	assert.False(t, ended)
	assert.Equal(t, []int{1}, lengths.Lengths())
	assert.Len(t, returns.Returns(driving.Robot), 1)
}

func TestOnlineRenders(t *testing.T) {
	c := driving.NewConfig(driving.Bottleneck)
	c.PPM = 1
	c.FrameDir = t.TempDir()
	e, err := driving.New(c, nil)
	require.NoError(t, err)
	defer e.Close()

	o := NewOnline(e, controllers.NewZero(e.ActionSpec()), 5, nil)
	o.RenderEvery(env.RGBArray)
	require.NoError(t, o.Run())

	frames, err := filepath.Glob(filepath.Join(c.FrameDir, "*.png"))
	require.NoError(t, err)
	assert.Len(t, frames, 6)

	o = NewOnline(e, controllers.NewZero(e.ActionSpec()), 5, nil)
	o.RenderEvery("orbit")
	_, err = o.RunEpisode()
	assert.ErrorIs(t, err, env.ErrUnsupportedRenderMode)
}
