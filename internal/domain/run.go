package domain

import (
	"time"

	"github.com/google/uuid"
)

// CloseRun is the persisted audit record of one close invocation.
type CloseRun struct {
	ID            uuid.UUID
	Period        string
	FailOn        FailOn
	OverallStatus Status
	ErrorCount    int
	WarnCount     int
	IssueCount    int
	StartedAt     time.Time
	CompletedAt   time.Time
}
