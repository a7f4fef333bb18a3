package models

import "time"

// SchedulerStatus is the playback state machine position.
type SchedulerStatus string

const (
	StatusIdle          SchedulerStatus = "idle"
	StatusRunning       SchedulerStatus = "running"
	StatusPaused        SchedulerStatus = "paused"
	StatusAwaitingReady SchedulerStatus = "awaiting_ready"
	StatusComplete      SchedulerStatus = "complete"
	StatusStopped       SchedulerStatus = "stopped"
)

// Terminal reports whether no further transitions are possible.
func (s SchedulerStatus) Terminal() bool {
	return s == StatusComplete || s == StatusStopped
}

// SchedulerState is a point-in-time copy of the playback scheduler.
type SchedulerState struct {
	Status              SchedulerStatus `json:"status"`
	StartEpoch          time.Time       `json:"start_epoch"`
	TotalPausedDuration time.Duration   `json:"total_paused_ns"`
	PauseStartEpoch     *time.Time      `json:"pause_start_epoch,omitempty"`
	CurrentStepIndex    int             `json:"current_step_index"` // -1 before the first step is entered
	IsAwaitingReady     bool            `json:"is_awaiting_ready"`
	ElapsedMs           int64           `json:"elapsed_ms"`
	RemainingInStepMs   int64           `json:"remaining_in_step_ms"`
}
