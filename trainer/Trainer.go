// Package trainer runs DQN training sessions on a background
// goroutine, decoupled from the caller's interactive path. All
// cross-goroutine communication is message passing: commands and
// transitions flow in, metrics snapshots and weight copies flow out.
// The background goroutine performs one bounded unit of work at a
// time, checking for commands and cancellation between units, so a
// long training run coexists with a responsive host.
package trainer

import (
	"fmt"
	"log"
	"time"

	"flapdqn/agent/deepq"
	"flapdqn/backend"
	"flapdqn/environment"
	"flapdqn/network"
	"flapdqn/timestep"
	"flapdqn/utils/floatutils"
)

// State is the session's lifecycle state
type State int

const (
	Idle State = iota
	Training
	Evaluating
)

func (s State) String() string {
	switch s {
	case Training:
		return "Training"
	case Evaluating:
		return "Evaluating"
	default:
		return "Idle"
	}
}

// EnvFactory builds an independent environment instance. The trainer
// calls it with distinct seeds for the training environment, the fast
// fleet, and the evaluation pool.
type EnvFactory func(seed uint64) environment.Environment

// Config configures a training session
type Config struct {
	Agent deepq.Config

	// NumEnvs is the parallel environment count used in fast mode
	NumEnvs int

	EvalInterval    int           // Episodes between automatic evals
	EvalEpisodes    int           // Greedy rollouts per eval
	EvalPoolSize    int           // Environments in the eval pool
	EvalSliceBudget time.Duration // Eval work-unit budget

	DrainRatio         int           // Env steps per update in fast mode
	MaxUpdatesPerTick  int           // Update cap per fast tick
	TickBudget         time.Duration // Wall-clock budget per fast tick
	TargetSyncEnvSteps int           // Env steps between fast-mode syncs

	SliceSteps   int           // Single-path steps per work unit
	MetricsEvery time.Duration // Metrics snapshot cadence
}

// NewConfig returns a session Config with default scheduling values
// around the given agent configuration
func NewConfig(agentConfig deepq.Config) Config {
	return Config{
		Agent:              agentConfig,
		NumEnvs:            64,
		EvalInterval:       1_000,
		EvalEpisodes:       16,
		EvalPoolSize:       16,
		EvalSliceBudget:    10 * time.Millisecond,
		DrainRatio:         8,
		MaxUpdatesPerTick:  64,
		TickBudget:         25 * time.Millisecond,
		TargetSyncEnvSteps: 10_000,
		SliceSteps:         256,
		MetricsEvery:       250 * time.Millisecond,
	}
}

func (c *Config) validate() error {
	if err := c.Agent.Validate(); err != nil {
		return err
	}
	if c.NumEnvs < 1 {
		c.NumEnvs = 1
	}
	if c.EvalInterval < 1 {
		c.EvalInterval = 1
	}
	if c.EvalEpisodes < 1 {
		c.EvalEpisodes = 1
	}
	if c.EvalPoolSize < 1 {
		c.EvalPoolSize = 1
	}
	if c.EvalSliceBudget <= 0 {
		c.EvalSliceBudget = 10 * time.Millisecond
	}
	if c.DrainRatio < 1 {
		c.DrainRatio = 1
	}
	if c.MaxUpdatesPerTick < 1 {
		c.MaxUpdatesPerTick = 1
	}
	if c.TickBudget <= 0 {
		c.TickBudget = 25 * time.Millisecond
	}
	if c.TargetSyncEnvSteps < 1 {
		c.TargetSyncEnvSteps = 1
	}
	if c.SliceSteps < 1 {
		c.SliceSteps = 1
	}
	if c.MetricsEvery <= 0 {
		c.MetricsEvery = 250 * time.Millisecond
	}
	return nil
}

const rewardWindowSize = 100

// Trainer owns one training session: the learner, the training
// environment(s), the evaluator, and all counters. Everything behind
// the command channel is mutated only by the background goroutine.
type Trainer struct {
	config  Config
	agent   *deepq.DeepQ
	factory EnvFactory

	env       environment.Environment
	fast      *vectorRunner
	evaluator *Evaluator
	scheduler *Scheduler

	engine      backend.Engine
	backendInfo backend.Info

	commands chan command
	metricsC chan Metrics
	evalC    chan EvalResult
	quit     chan struct{}
	done     chan struct{}

	state    State
	running  bool
	fastMode bool
	started  bool

	obs               []float64
	episode           int
	episodeReward     float64
	lastEpisodeReward float64
	rewardWindow      []float64
	totalSteps        int
	lastEvalEpisode   int

	lastMetrics       time.Time
	stepsSinceMetrics int
	stepsPerSecond    float64
}

// New creates a session. The accelerator backend is probed once here;
// if it is unavailable the session still trains correctly on the
// native engine.
func New(factory EnvFactory, config Config) (*Trainer, error) {
	if factory == nil {
		return nil, fmt.Errorf("new: nil environment factory")
	}
	if err := config.validate(); err != nil {
		return nil, err
	}

	agent, err := deepq.New(config.Agent)
	if err != nil {
		return nil, err
	}

	engine, info := backend.Init()
	agent.SetEngine(engine)

	env := factory(config.Agent.Seed)
	t := &Trainer{
		config:      config,
		agent:       agent,
		factory:     factory,
		env:         env,
		scheduler:   NewScheduler(10, 0.5, 1e-5, 10),
		engine:      engine,
		backendInfo: info,
		commands:    make(chan command, 16),
		metricsC:    make(chan Metrics, 64),
		evalC:       make(chan EvalResult, 8),
		quit:        make(chan struct{}),
		done:        make(chan struct{}),
		obs:         env.Reset().Observation,
	}
	return t, nil
}

// Start launches the background goroutine. Commands are only served
// after Start.
func (t *Trainer) Start() error {
	if t.started {
		return fmt.Errorf("start: session already started")
	}
	t.started = true
	go t.run()
	return nil
}

// Close stops the session. Cancellation is cooperative: the current
// work unit finishes first. Closing a session that was never started
// releases its streams without blocking.
func (t *Trainer) Close() {
	close(t.quit)
	if !t.started {
		t.closeStreams()
		return
	}
	<-t.done
}

// closeStreams ends the outbound streams and releases command waiters.
// Called exactly once, either by run on exit or by Close when run
// never launched.
func (t *Trainer) closeStreams() {
	close(t.metricsC)
	close(t.evalC)
	close(t.done)
}

// Metrics returns the stream of metrics snapshots. Snapshots are
// dropped, not queued, when the consumer falls behind.
func (t *Trainer) Metrics() <-chan Metrics {
	return t.metricsC
}

// EvalResults returns the stream of completed evaluation results
func (t *Trainer) EvalResults() <-chan EvalResult {
	return t.evalC
}

// Backend reports which batched-forward engine the session runs on
func (t *Trainer) Backend() backend.Info {
	return t.backendInfo
}

// Run starts single-environment training
func (t *Trainer) Run() error {
	return t.send(startCmd{})
}

// Pause stops stepping without discarding any learned state
func (t *Trainer) Pause() error {
	return t.send(stopCmd{})
}

// StartFast switches to batched multi-environment training and starts
// stepping
func (t *Trainer) StartFast() error {
	return t.send(startFastCmd{})
}

// StopFast stops batched training
func (t *Trainer) StopFast() error {
	return t.send(stopFastCmd{})
}

// SetEpsilon overrides the exploration rate
func (t *Trainer) SetEpsilon(epsilon float64) error {
	return t.send(setEpsilonCmd{value: epsilon})
}

// SetAutoDecay toggles the epsilon decay schedule
func (t *Trainer) SetAutoDecay(enabled bool) error {
	return t.send(setAutoDecayCmd{enabled: enabled})
}

// SetLearningRate sets the learning rate
func (t *Trainer) SetLearningRate(lr float64) error {
	return t.send(setLearningRateCmd{value: lr})
}

// SetGamma sets the discount factor
func (t *Trainer) SetGamma(gamma float64) error {
	return t.send(setGammaCmd{value: gamma})
}

// SetTrainFrequency sets the experiences-per-update ratio
func (t *Trainer) SetTrainFrequency(k int) error {
	return t.send(setTrainFrequencyCmd{value: k})
}

// SetRewardConfig patches reward shaping on every environment the
// session owns
func (t *Trainer) SetRewardConfig(c environment.RewardConfig) error {
	return t.send(setRewardConfigCmd{config: c})
}

// SetLRSchedule toggles the plateau learning-rate scheduler
func (t *Trainer) SetLRSchedule(enabled bool) error {
	return t.send(setLRScheduleCmd{enabled: enabled})
}

// Reset discards all learned state and stops stepping
func (t *Trainer) Reset() error {
	resp := make(chan error, 1)
	if err := t.send(resetCmd{resp: resp}); err != nil {
		return err
	}
	select {
	case err := <-resp:
		return err
	case <-t.done:
		return fmt.Errorf("reset: session closed")
	}
}

// RequestWeights returns a deep copy of the current policy weights
func (t *Trainer) RequestWeights() (*network.Snapshot, error) {
	resp := make(chan *network.Snapshot, 1)
	if err := t.send(requestWeightsCmd{resp: resp}); err != nil {
		return nil, err
	}
	select {
	case s := <-resp:
		return s, nil
	case <-t.done:
		return nil, fmt.Errorf("requestweights: session closed")
	}
}

// SetWeights overwrites the session's networks with the snapshot
func (t *Trainer) SetWeights(s *network.Snapshot) error {
	resp := make(chan error, 1)
	if err := t.send(setWeightsCmd{snapshot: s, resp: resp}); err != nil {
		return err
	}
	select {
	case err := <-resp:
		return err
	case <-t.done:
		return fmt.Errorf("setweights: session closed")
	}
}

// Status returns a metrics snapshot on demand
func (t *Trainer) Status() (Metrics, error) {
	resp := make(chan Metrics, 1)
	if err := t.send(statusCmd{resp: resp}); err != nil {
		return Metrics{}, err
	}
	select {
	case m := <-resp:
		return m, nil
	case <-t.done:
		return Metrics{}, fmt.Errorf("status: session closed")
	}
}

func (t *Trainer) send(cmd command) error {
	select {
	case t.commands <- cmd:
		return nil
	case <-t.done:
		return fmt.Errorf("trainer: session closed")
	}
}

// run is the background loop. The quit flag is observed at the top of
// every work unit; in-flight units complete before shutdown.
func (t *Trainer) run() {
	defer t.closeStreams()
	t.lastMetrics = time.Now()

	for {
		select {
		case <-t.quit:
			return
		case cmd := <-t.commands:
			cmd.apply(t)
			continue
		default:
		}

		switch {
		case t.state == Evaluating:
			t.evalSlice()
		case t.running && t.fastMode:
			t.fastSlice()
		case t.running:
			t.trainSlice()
		default:
			// Idle: nothing to do until the next command
			select {
			case <-t.quit:
				return
			case cmd := <-t.commands:
				cmd.apply(t)
			}
		}

		t.maybeBeginEval()
		t.maybePublishMetrics()
	}
}

// trainSlice runs one bounded unit of single-environment training
func (t *Trainer) trainSlice() {
	for i := 0; i < t.config.SliceSteps; i++ {
		t.step()
	}
}

func (t *Trainer) step() {
	action := t.agent.SelectAction(t.obs, true)
	step := t.env.Step(action)

	transition := timestep.NewTransition(t.obs, action, step.Reward,
		step.Observation, step.Last())
	if err := t.agent.ObserveTransition(transition); err != nil {
		log.Printf("trainer: dropping transition: %v", err)
	}
	if _, err := t.agent.MaybeUpdate(); err != nil {
		log.Printf("trainer: update failed: %v", err)
	}

	t.episodeReward += step.Reward
	t.totalSteps++
	t.stepsSinceMetrics++

	if step.Last() {
		t.finishEpisode(t.episodeReward)
		t.episodeReward = 0
		t.obs = t.env.Reset().Observation
	} else {
		t.obs = step.Observation
	}
}

// fastSlice runs one batched tick across the fast fleet
func (t *Trainer) fastSlice() {
	if t.fast == nil {
		t.enterFast()
	}

	stats, err := t.fast.Tick(t.agent)
	if err != nil {
		log.Printf("trainer: fast tick failed: %v", err)
	}
	t.totalSteps += stats.EnvSteps
	t.stepsSinceMetrics += stats.EnvSteps
	for _, reward := range stats.EpisodeRewards {
		t.finishEpisode(reward)
	}
}

func (t *Trainer) finishEpisode(reward float64) {
	t.episode++
	t.lastEpisodeReward = reward
	t.rewardWindow = append(t.rewardWindow, reward)
	if len(t.rewardWindow) > rewardWindowSize {
		t.rewardWindow = t.rewardWindow[1:]
	}
	t.scheduler.ObserveEpisode(reward, t.agent)
}

// enterFast lazily builds the fast fleet and moves target syncs onto
// environment-step accounting
func (t *Trainer) enterFast() {
	if t.fast == nil {
		envs := make([]environment.Environment, t.config.NumEnvs)
		for i := range envs {
			envs[i] = t.factory(t.config.Agent.Seed + 100 + uint64(i))
		}
		t.fast = newVectorRunner(envs, t.config.DrainRatio,
			t.config.MaxUpdatesPerTick, t.config.TargetSyncEnvSteps,
			t.config.TickBudget)
	}
	t.agent.SetAutoTargetSync(false)
}

func (t *Trainer) leaveFast() {
	t.agent.SetAutoTargetSync(true)
}

func (t *Trainer) setRunning(running bool) {
	t.running = running
	if t.state != Evaluating {
		if running {
			t.state = Training
		} else {
			t.state = Idle
		}
	}
}

// maybeBeginEval starts an evaluation pass when one is due: out of
// warmup, EvalInterval episodes since the last pass, and none running
func (t *Trainer) maybeBeginEval() {
	if t.state == Evaluating || !t.running || t.agent.InWarmup() {
		return
	}
	if t.episode-t.lastEvalEpisode < t.config.EvalInterval {
		return
	}

	if t.evaluator == nil {
		pool := make([]environment.Environment, t.config.EvalPoolSize)
		for i := range pool {
			pool[i] = t.factory(t.config.Agent.Seed + 10_000 + uint64(i))
		}
		t.evaluator = NewEvaluator(pool, t.config.EvalEpisodes)
	}

	t.evaluator.Begin()
	t.state = Evaluating
}

// evalSlice runs one time-boxed unit of evaluation; learning is
// suspended until the pass completes
func (t *Trainer) evalSlice() {
	if t.evaluator == nil || !t.evaluator.Running() {
		t.state = Idle
		if t.running {
			t.state = Training
		}
		return
	}

	if t.evaluator.RunSlice(t.agent, t.config.EvalSliceBudget) {
		result := t.evaluator.Result(t.episode)
		select {
		case t.evalC <- result:
		default:
		}
		t.lastEvalEpisode = t.episode
		t.state = Idle
		if t.running {
			t.state = Training
		}
	}
}

func (t *Trainer) reset() error {
	if err := t.agent.Reset(); err != nil {
		return err
	}
	t.agent.SetEngine(t.engine)

	t.running = false
	t.fastMode = false
	t.fast = nil
	t.state = Idle
	t.leaveFast()

	t.obs = t.env.Reset().Observation
	t.episode = 0
	t.episodeReward = 0
	t.lastEpisodeReward = 0
	t.rewardWindow = t.rewardWindow[:0]
	t.totalSteps = 0
	t.lastEvalEpisode = 0
	return nil
}

func (t *Trainer) maybePublishMetrics() {
	elapsed := time.Since(t.lastMetrics)
	if elapsed < t.config.MetricsEvery {
		return
	}

	t.stepsPerSecond = float64(t.stepsSinceMetrics) / elapsed.Seconds()
	t.stepsSinceMetrics = 0
	t.lastMetrics = time.Now()

	select {
	case t.metricsC <- t.snapshot():
	default:
	}
}

func (t *Trainer) snapshot() Metrics {
	m := Metrics{
		Episode:        t.episode,
		EpisodeReward:  t.lastEpisodeReward,
		AvgReward:      floatutils.Mean(t.rewardWindow),
		Epsilon:        t.agent.Epsilon(),
		Loss:           t.agent.LastLoss(),
		BufferSize:     t.agent.BufferSize(),
		StepsPerSecond: t.stepsPerSecond,
		TotalSteps:     t.totalSteps,
		IsWarmup:       t.agent.InWarmup(),
		LearningRate:   t.agent.LearningRate(),
	}
	if t.evaluator != nil && t.evaluator.Running() {
		m.EvalRunning = true
		m.EvalProgress, m.EvalTotal = t.evaluator.Progress()
	}
	return m
}
