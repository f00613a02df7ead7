// Command flapdqn-train trains a DQN agent on the gap-world
// environment offline, tracking episodic returns and checkpointing
// policy weights along the way.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"flapdqn/agent/deepq"
	"flapdqn/backend"
	"flapdqn/environment/gapworld"
	"flapdqn/experiment"
	"flapdqn/experiment/checkpointer"
	"flapdqn/experiment/tracker"
	"flapdqn/network"
	"flapdqn/utils/floatutils"
	"flapdqn/utils/progressbar"
)

func main() {
	var (
		steps           = flag.Int("steps", 500_000, "environment steps to train for")
		seed            = flag.Uint64("seed", 1, "seed for the environment and agent")
		out             = flag.String("out", "data", "output directory for tracked data and checkpoints")
		checkpointEvery = flag.Int("checkpoint-every", 100_000, "steps between policy checkpoints")
	)
	flag.Parse()

	if err := os.MkdirAll(*out, 0o755); err != nil {
		log.Fatalf("could not create output directory: %v", err)
	}

	envConfig := gapworld.DefaultConfig()
	envConfig.Seed = *seed
	env := gapworld.New(envConfig)

	agentConfig := deepq.NewConfig(env.ObservationSize(), env.NumActions())
	agentConfig.Seed = *seed
	agent, err := deepq.New(agentConfig)
	if err != nil {
		log.Fatalf("could not create agent: %v", err)
	}

	engine, info := backend.Init()
	agent.SetEngine(engine)
	log.Printf("backend: %v (accelerated: %v)", info.BackendName,
		info.Accelerated)

	returns := tracker.NewReturn(filepath.Join(*out, "returns.bin"))
	lengths := tracker.NewEpisodeLength(filepath.Join(*out, "lengths.bin"))
	check := checkpointer.NewNStep(*checkpointEvery, agent,
		checkpointer.FilenameEnumerator(0,
			filepath.Join(*out, "policy"), ".bin"))

	exp, err := experiment.NewOnline(env, agent, *steps,
		[]tracker.Tracker{returns, lengths},
		[]checkpointer.Checkpointer{check})
	if err != nil {
		log.Fatalf("could not create experiment: %v", err)
	}

	bar := progressbar.New(50, *steps)
	shown := 0
	for {
		done, err := exp.RunEpisode()
		if err != nil {
			log.Fatalf("training failed: %v", err)
		}

		bar.Add(exp.Steps() - shown)
		shown = exp.Steps()
		bar.SetSuffix(fmt.Sprintf("ε=%.3f avg=%.1f",
			agent.Epsilon(), recentMean(returns.Returns(), 100)))
		bar.Display()

		if done {
			break
		}
	}
	bar.Finish()

	if err := exp.Save(); err != nil {
		log.Fatalf("could not save tracked data: %v", err)
	}

	finalPath := filepath.Join(*out, "policy-final.bin")
	if err := network.SaveSnapshot(finalPath, agent.SnapshotPolicy()); err != nil {
		log.Fatalf("could not save final policy: %v", err)
	}

	allReturns := returns.Returns()
	log.Printf("finished: %v steps, %v episodes, mean return (last 100): %.2f",
		exp.Steps(), len(allReturns), recentMean(allReturns, 100))
	log.Printf("final policy saved to %v", finalPath)
}

// recentMean averages the last n values, or everything if fewer exist
func recentMean(values []float64, n int) float64 {
	if len(values) == 0 {
		return 0
	}
	if len(values) > n {
		values = values[len(values)-n:]
	}
	return floatutils.Mean(values)
}
