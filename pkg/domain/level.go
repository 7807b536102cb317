package domain

// Level is the urgency of a save request. An agent only runs for jobs whose
// level is at least its activation level, so cheap backends can record every
// step while expensive ones only see milestones.
type Level int

const (
	// LevelRoutine is stamped on the snapshot after an ordinary accepted move.
	LevelRoutine Level = 1
	// LevelCheckpoint marks section boundaries and explicit flush requests.
	LevelCheckpoint Level = 5
	// LevelFinal marks the finishing snapshot; every agent accepts it.
	LevelFinal Level = 10
)
