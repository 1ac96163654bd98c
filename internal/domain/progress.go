package domain

// ProgressEvent is a best-effort status update for one running search
type ProgressEvent struct {
	Type     string `json:"type"`
	Tool     string `json:"tool"`
	Progress int    `json:"progress"`
	Message  string `json:"message"`
}

const (
	ProgressEventType = "progress"
	ProgressComplete  = 100
)

// SearchState is the lifecycle state of a single search
type SearchState string

const (
	SearchStateIdle       SearchState = "idle"
	SearchStateRunning    SearchState = "running"
	SearchStateCompleting SearchState = "completing"
	SearchStateDone       SearchState = "done"
	SearchStateFailed     SearchState = "failed"
)

// CanTransitionTo reports whether next is a legal successor of s.
func (s SearchState) CanTransitionTo(next SearchState) bool {
	switch s {
	case SearchStateIdle:
		return next == SearchStateRunning || next == SearchStateFailed
	case SearchStateRunning:
		return next == SearchStateCompleting || next == SearchStateFailed
	case SearchStateCompleting:
		return next == SearchStateDone || next == SearchStateFailed
	}
	return false
}
