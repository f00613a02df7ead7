// Package gapworld implements a minimal scrolling avoidance game: an
// agent under constant gravity either coasts (action 0) or applies an
// upward impulse (action 1) and must pass through gaps in oncoming
// gates. It exists to exercise the training engine end to end; it
// makes no claim of physical fidelity.
package gapworld

import (
	"golang.org/x/exp/rand"

	"flapdqn/environment"
	"flapdqn/timestep"
)

// NumActions is the size of the action set: coast or impulse
const NumActions = 2

// ObservationSize is the dimension of the state vector: vertical
// position, vertical velocity, distance to the next gate, the gate's
// gap top and bottom, and the scroll speed.
const ObservationSize = 6

// Config holds the physical constants and episode limits of a
// GapWorld
type Config struct {
	Gravity     float64 // Per-tick downward acceleration
	Impulse     float64 // Upward velocity applied by action 1
	ScrollSpeed float64 // Per-tick gate approach speed
	GapHeight   float64 // Vertical extent of each gate's gap
	GateSpacing float64 // Horizontal distance between gates
	MaxSteps    int     // Episode cutoff; 0 means no cutoff
	Seed        uint64
}

// DefaultConfig returns the standard GapWorld configuration
func DefaultConfig() Config {
	return Config{
		Gravity:     0.0025,
		Impulse:     0.035,
		ScrollSpeed: 0.01,
		GapHeight:   0.3,
		GateSpacing: 0.6,
		MaxSteps:    10_000,
		Seed:        0,
	}
}

// Rewards holds the shaping weights of a GapWorld. All weights are
// hot-configurable through SetRewardConfig.
type Rewards struct {
	Alive       float64
	ScoreBonus  float64
	Death       float64
	GapCenter   float64
	OutOfBounds float64
}

// DefaultRewards returns the standard shaping weights
func DefaultRewards() Rewards {
	return Rewards{
		Alive:       0.1,
		ScoreBonus:  1.0,
		Death:       -1.0,
		GapCenter:   0.05,
		OutOfBounds: -0.5,
	}
}

// GapWorld is a single environment instance. It is not safe for
// concurrent use; each trainer environment owns its own instance.
type GapWorld struct {
	config  Config
	rewards Rewards
	rng     *rand.Rand

	y, vy      float64
	gateDist   float64
	gateTop    float64
	gateBottom float64

	score    float64
	stepNum  int
	finished bool
}

// New returns a GapWorld with the given configuration and default
// reward shaping
func New(config Config) *GapWorld {
	g := &GapWorld{
		config:  config,
		rewards: DefaultRewards(),
		rng:     rand.New(rand.NewSource(config.Seed)),
	}
	g.Reset()
	return g
}

// Reset starts a new episode and returns the first timestep
func (g *GapWorld) Reset() timestep.TimeStep {
	g.y = 0.5
	g.vy = 0
	g.score = 0
	g.stepNum = 0
	g.finished = false
	g.spawnGate()
	g.gateDist = g.config.GateSpacing

	return timestep.New(timestep.First, 0, g.observation(), g.score, 0)
}

// Step advances the world one tick. Out-of-range actions are treated
// as action 0.
func (g *GapWorld) Step(action int) timestep.TimeStep {
	if g.finished {
		return g.Reset()
	}
	g.stepNum++

	if action == 1 {
		g.vy = g.config.Impulse
	}
	g.vy -= g.config.Gravity
	g.y += g.vy
	g.gateDist -= g.config.ScrollSpeed

	reward := g.rewards.Alive
	center := (g.gateTop + g.gateBottom) / 2
	proximity := 1 - 2*absFloat(g.y-center)
	if proximity > 0 {
		reward += g.rewards.GapCenter * proximity
	}

	stepType := timestep.Mid
	switch {
	case g.y < 0 || g.y > 1:
		reward += g.rewards.OutOfBounds + g.rewards.Death
		stepType = timestep.Last

	case g.gateDist <= 0 && (g.y < g.gateBottom || g.y > g.gateTop):
		reward += g.rewards.Death
		stepType = timestep.Last

	case g.gateDist <= 0:
		g.score++
		reward += g.rewards.ScoreBonus
		g.spawnGate()
		g.gateDist = g.config.GateSpacing

	case g.config.MaxSteps > 0 && g.stepNum >= g.config.MaxSteps:
		stepType = timestep.Last
	}

	g.finished = stepType == timestep.Last
	return timestep.New(stepType, reward, g.observation(), g.score, g.stepNum)
}

// SetRewardConfig patches the shaping weights; nil fields are left
// unchanged
func (g *GapWorld) SetRewardConfig(c environment.RewardConfig) {
	if c.Alive != nil {
		g.rewards.Alive = *c.Alive
	}
	if c.ScoreBonus != nil {
		g.rewards.ScoreBonus = *c.ScoreBonus
	}
	if c.Death != nil {
		g.rewards.Death = *c.Death
	}
	if c.GapCenter != nil {
		g.rewards.GapCenter = *c.GapCenter
	}
	if c.OutOfBounds != nil {
		g.rewards.OutOfBounds = *c.OutOfBounds
	}
}

// ObservationSize returns the state vector dimension
func (g *GapWorld) ObservationSize() int {
	return ObservationSize
}

// NumActions returns the action set size
func (g *GapWorld) NumActions() int {
	return NumActions
}

// Score returns the current episode score
func (g *GapWorld) Score() float64 {
	return g.score
}

func (g *GapWorld) spawnGate() {
	half := g.config.GapHeight / 2
	center := half + g.rng.Float64()*(1-2*half)
	g.gateTop = center + half
	g.gateBottom = center - half
}

// observation returns a fresh state vector; callers never receive a
// slice the environment will mutate later
func (g *GapWorld) observation() []float64 {
	return []float64{
		g.y,
		g.vy,
		g.gateDist,
		g.gateTop,
		g.gateBottom,
		g.config.ScrollSpeed,
	}
}

func absFloat(x float64) float64 {
	if x < 0 {
		return -x
	}
	return x
}
