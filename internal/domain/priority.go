package domain

// WavePriority represents the urgency of a wave. Lower rank means more urgent.
type WavePriority string

const (
	PriorityCritical WavePriority = "CRITICAL"
	PriorityHigh     WavePriority = "HIGH"
	PriorityNormal   WavePriority = "NORMAL"
	PriorityLow      WavePriority = "LOW"
)

var priorityRanks = map[WavePriority]int{
	PriorityCritical: 1,
	PriorityHigh:     2,
	PriorityNormal:   3,
	PriorityLow:      4,
}

// Rank returns the numeric rank of the priority (1 = most urgent).
// Unknown priorities rank below LOW.
func (p WavePriority) Rank() int {
	if rank, ok := priorityRanks[p]; ok {
		return rank
	}
	return len(priorityRanks) + 1
}

// HigherThan reports whether p is strictly more urgent than other.
func (p WavePriority) HigherThan(other WavePriority) bool {
	return p.Rank() < other.Rank()
}

// IsValid reports whether p is one of the known priorities.
func (p WavePriority) IsValid() bool {
	_, ok := priorityRanks[p]
	return ok
}
