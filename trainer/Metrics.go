package trainer

// Metrics is a read-only point-in-time summary of a training session.
// Snapshots are produced on a fixed cadence for observers and have no
// effect on training; they are best-effort and eventually consistent
// with training progress, not linearizable with it.
type Metrics struct {
	Episode        int     `json:"episode"`
	EpisodeReward  float64 `json:"episodeReward"`
	AvgReward      float64 `json:"avgReward"`
	Epsilon        float64 `json:"epsilon"`
	Loss           float64 `json:"loss"`
	BufferSize     int     `json:"bufferSize"`
	StepsPerSecond float64 `json:"stepsPerSecond"`
	TotalSteps     int     `json:"totalSteps"`
	IsWarmup       bool    `json:"isWarmup"`
	LearningRate   float64 `json:"learningRate"`

	EvalRunning  bool `json:"evalRunning,omitempty"`
	EvalProgress int  `json:"evalProgress,omitempty"`
	EvalTotal    int  `json:"evalTotal,omitempty"`
}

/// EvalResult is the outcome of one evaluation pass: M greedy rollouts
// on the evaluation environment pool.
type EvalResult struct {
	AvgScore float64   `json:"avgScore"`
	MaxScore float64   `json:"maxScore"`
	MinScore float64   `json:"minScore"`
	Scores   []float64 `json:"scores"`
	Episode  int       `json:"episode"`
}
