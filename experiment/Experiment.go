// Package experiment implements functionality for running an offline
// training experiment: an agent learning on a single environment for a
// fixed number of steps, with trackers recording per-episode data and
// checkpointers persisting learned weights along the way.
package experiment

import (
	"fmt"

	"flapdqn/agent/deepq"
	"flapdqn/environment"
	"flapdqn/experiment/checkpointer"
	"flapdqn/experiment/tracker"
	"flapdqn/timestep"
)

// Online runs an agent online on one environment until a step limit is
// reached. No offline evaluation is performed.
type Online struct {
	env          environment.Environment
	agent        *deepq.DeepQ
	maxSteps     int
	currentSteps int
	trackers     []tracker.Tracker
	checkers     []checkpointer.Checkpointer
}

// NewOnline returns an experiment running agent on env for at most
// steps environment steps
func NewOnline(env environment.Environment, agent *deepq.DeepQ,
	steps int, trackers []tracker.Tracker,
	checkers []checkpointer.Checkpointer) (*Online, error) {
	if env == nil || agent == nil {
		return nil, fmt.Errorf("newonline: nil environment or agent")
	}
	if steps < 1 {
		return nil, fmt.Errorf("newonline: step limit must be positive")
	}
	return &Online{
		env:      env,
		agent:    agent,
		maxSteps: steps,
		trackers: trackers,
		checkers: checkers,
	}, nil
}

// Register adds a tracker to the possibly already running experiment
func (o *Online) Register(t tracker.Tracker) {
	o.trackers = append(o.trackers, t)
}

// Steps returns the number of environment steps taken so far
func (o *Online) Steps() int {
	return o.currentSteps
}

// RunEpisode runs a single episode and reports whether the step limit
// has been reached
func (o *Online) RunEpisode() (bool, error) {
	step := o.env.Reset()
	obs := step.Observation
	o.track(step)

	for !step.Last() && o.currentSteps < o.maxSteps {
		o.currentSteps++

		action := o.agent.SelectAction(obs, true)
		step = o.env.Step(action)
		o.track(step)

		transition := timestep.NewTransition(obs, action, step.Reward,
			step.Observation, step.Last())
		if err := o.agent.ObserveTransition(transition); err != nil {
			return false, fmt.Errorf("runepisode: %v", err)
		}
		if _, err := o.agent.MaybeUpdate(); err != nil {
			return false, fmt.Errorf("runepisode: %v", err)
		}
		obs = step.Observation

		if err := o.checkpoint(o.currentSteps); err != nil {
			return false, fmt.Errorf("runepisode: %v", err)
		}
	}

	return o.currentSteps >= o.maxSteps, nil
}

// Run runs the experiment to its step limit
func (o *Online) Run() error {
	for {
		done, err := o.RunEpisode()
		if err != nil {
			return err
		}
		if done {
			return nil
		}
	}
}

// Save flushes all tracked data to disk
func (o *Online) Save() error {
	for _, t := range o.trackers {
		if err := t.Save(); err != nil {
			return fmt.Errorf("save: %v", err)
		}
	}
	return nil
}

func (o *Online) track(t timestep.TimeStep) {
	for _, tr := range o.trackers {
		tr.Track(t)
	}
}

func (o *Online) checkpoint(step int) error {
	for _, c := range o.checkers {
		if err := c.Checkpoint(step); err != nil {
			return err
		}
	}
	return nil
}
