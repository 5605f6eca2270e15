package pipeline

import "fmt"

// Stage of one pipeline run.
type Stage string

const (
	StageReceived     Stage = "received"
	StageExtracted    Stage = "extracted"
	StageClassifying  Stage = "classifying"
	StageAnalyzing    Stage = "analyzing"
	StageReporting    Stage = "reporting"
	StageResponding   Stage = "responding"
	StageUndetermined Stage = "undetermined"
	StageReady        Stage = "ready"
	StageFailed       Stage = "failed"
)

// transitions lists the legal successors of each stage. Failed is reachable
// from every non-terminal stage and is checked separately.
var transitions = map[Stage][]Stage{
	StageReceived:    {StageExtracted},
	StageExtracted:   {StageClassifying},
	StageClassifying: {StageAnalyzing, StageResponding, StageUndetermined},
	StageAnalyzing:   {StageReporting},
	StageReporting:   {StageReady},
	StageResponding:  {StageReady},
}

// Terminal reports whether no further transition is possible.
func (s Stage) Terminal() bool {
	return s == StageReady || s == StageUndetermined || s == StageFailed
}

// Next validates a transition from s to to.
func (s Stage) Next(to Stage) (Stage, error) {
	if s.Terminal() {
		return s, fmt.Errorf("pipeline: stage %s is terminal", s)
	}
	if to == StageFailed {
		return to, nil
	}
	for _, allowed := range transitions[s] {
		if allowed == to {
			return to, nil
		}
	}
	return s, fmt.Errorf("pipeline: illegal transition %s -> %s", s, to)
}
