package model

// RunStatus enumerates the terminal states of one pipeline run.
type RunStatus string

const (
	// StatusProcessed means the day was rated and closed.
	StatusProcessed RunStatus = "processed"
	// StatusNotQualifying means the message is not a results announcement.
	StatusNotQualifying RunStatus = "not_qualifying"
	// StatusDuplicateMessage means the same gateway message was seen before.
	StatusDuplicateMessage RunStatus = "duplicate_message"
	// StatusAlreadyProcessed means the target date is already closed.
	StatusAlreadyProcessed RunStatus = "already_processed"
	// StatusEmptyBatch means no participant survived resolution and filtering.
	StatusEmptyBatch RunStatus = "empty_batch"
)

// RunOutcome is what a pipeline run hands back to its caller. Soft skip
// conditions are statuses, not errors; only persistence failures surface
// as errors alongside a zero outcome.
type RunOutcome struct {
	Status       RunStatus
	GameDate     string
	PuzzleNumber int
	Participants int
	// TopPlayerIDs and BottomPlayerIDs are the tie-aware extremal rating
	// holder sets after the round. The minimum is taken over players with
	// at least one recorded game.
	TopPlayerIDs    []string
	BottomPlayerIDs []string
}

// Skipped reports whether the run ended before any write.
func (o RunOutcome) Skipped() bool {
	return o.Status != StatusProcessed
}
