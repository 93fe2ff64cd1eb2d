package domain

// WaveStatus represents the lifecycle state of a wave
type WaveStatus string

const (
	WaveStatusPlanned    WaveStatus = "PLANNED"     // Wave is planned, orders can still change
	WaveStatusReleased   WaveStatus = "RELEASED"    // Wave has been released to picking
	WaveStatusInProgress WaveStatus = "IN_PROGRESS" // Wave is being picked
	WaveStatusCompleted  WaveStatus = "COMPLETED"   // All picking finished
	WaveStatusCancelled  WaveStatus = "CANCELLED"   // Wave was cancelled before completion
)

// CanTransitionTo reports whether the status machine allows moving to next.
func (s WaveStatus) CanTransitionTo(next WaveStatus) bool {
	switch s {
	case WaveStatusPlanned:
		return next == WaveStatusReleased || next == WaveStatusCancelled
	case WaveStatusReleased:
		return next == WaveStatusInProgress || next == WaveStatusCancelled
	case WaveStatusInProgress:
		return next == WaveStatusCompleted || next == WaveStatusCancelled
	default:
		return false
	}
}

// IsTerminal reports whether no further transitions are possible.
func (s WaveStatus) IsTerminal() bool {
	return s == WaveStatusCompleted || s == WaveStatusCancelled
}

// IsActive reports whether the wave is currently being worked.
func (s WaveStatus) IsActive() bool {
	return s == WaveStatusReleased || s == WaveStatusInProgress
}

// IsValid reports whether s is one of the known statuses.
func (s WaveStatus) IsValid() bool {
	switch s {
	case WaveStatusPlanned, WaveStatusReleased, WaveStatusInProgress,
		WaveStatusCompleted, WaveStatusCancelled:
		return true
	}
	return false
}
