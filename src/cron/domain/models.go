package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// ErrRunning is returned by SaveCron when another worker already holds the
// job's run lock.
var ErrRunning = errors.New("cron job already running")

// Cron is a run lock row: it exists only while a job is executing.
type Cron struct {
	ID        uuid.UUID
	CreatedAt time.Time
}
