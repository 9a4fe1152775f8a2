package mapreduce

import (
	"fmt"
	"strings"
	"time"
)

// StageStats counts the work of one map stage.
type StageStats struct {
	Name    string
	Splits  int
	Records int64

	// Emitted is the number of key-value pairs emitted by the stage.
	Emitted int64
}

// Amplification is the average number of pairs emitted per record read.
func (s StageStats) Amplification() float64 {
	if s.Records == 0 {
		return 0
	}
	return float64(s.Emitted) / float64(s.Records)
}

// Stats about a Job run.
type Stats struct {
	Job    string
	Stages []StageStats

	// Groups is the number of distinct keys, and so of reduce calls.
	Groups int

	// Outputs is the number of results returned by all reduce calls.
	Outputs int

	MapDuration, ShuffleDuration, ReduceDuration time.Duration
}

// Stage returns the statistics of the stage with the given name, or nil if there is none.
func (s *Stats) Stage(name string) *StageStats {
	for ii := range s.Stages {
		if s.Stages[ii].Name == name {
			return &s.Stages[ii]
		}
	}
	return nil
}

// Records returns the total number of records read by all stages.
func (s *Stats) Records() int64 {
	var total int64
	for _, stage := range s.Stages {
		total += stage.Records
	}
	return total
}

// Emitted returns the total number of pairs emitted by all stages.
func (s *Stats) Emitted() int64 {
	var total int64
	for _, stage := range s.Stages {
		total += stage.Emitted
	}
	return total
}

// String implements fmt.Stringer.
func (s *Stats) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "job %q:", s.Job)
	for _, stage := range s.Stages {
		fmt.Fprintf(&sb, " [%s: %d splits, %d records, %d emitted]", stage.Name, stage.Splits, stage.Records, stage.Emitted)
	}
	fmt.Fprintf(&sb, " %d groups, %d outputs (map %s, shuffle %s, reduce %s)",
		s.Groups, s.Outputs, s.MapDuration, s.ShuffleDuration, s.ReduceDuration)
	return sb.String()
}
