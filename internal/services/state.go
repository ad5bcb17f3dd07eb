package services

// RunState tracks a forecast run through its lifecycle:
// idle -> configuring -> processing -> completed | failed.
type RunState string

const (
	StateIdle        RunState = "idle"
	StateConfiguring RunState = "configuring"
	StateProcessing  RunState = "processing"
	StateCompleted   RunState = "completed"
	StateFailed      RunState = "failed"
)

var stateTransitions = map[RunState][]RunState{
	StateIdle:        {StateConfiguring},
	StateConfiguring: {StateProcessing, StateFailed},
	StateProcessing:  {StateCompleted, StateFailed},
}

// CanTransition reports whether moving from s to next is allowed.
func (s RunState) CanTransition(next RunState) bool {
	for _, allowed := range stateTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Terminal reports whether no further transitions are possible.
func (s RunState) Terminal() bool {
	return s == StateCompleted || s == StateFailed
}
