package session

import (
	"time"

	"github.com/google/uuid"
)

// Status represents session status
type Status string

const (
	StatusActive    Status = "active"
	StatusCompleted Status = "completed"
)

// Session is a timed unit of computer usage that accrues points on
// completion. The only transition is active -> completed; end time and
// earned points are immutable afterwards.
type Session struct {
	ID             uuid.UUID  `db:"id" json:"id"`
	CardID         uuid.UUID  `db:"card_id" json:"card_id"`
	ComputerInfo   string     `db:"computer_info" json:"computer_info"`
	StartTime      time.Time  `db:"start_time" json:"start_time"`
	EndTime        *time.Time `db:"end_time" json:"end_time,omitempty"`
	PlannedMinutes int        `db:"planned_minutes" json:"planned_minutes"`
	EarnedPoints   *int64     `db:"earned_points" json:"earned_points,omitempty"`
	Status         Status     `db:"status" json:"status"`
	CreatedAt      time.Time  `db:"created_at" json:"created_at"`
}

// IsCompleted returns true once the session has been closed
func (s *Session) IsCompleted() bool {
	return s.Status == StatusCompleted
}

// AccruedPoints converts elapsed session time into points. Elapsed minutes
// are capped at the planned duration, so closing late never earns extra;
// closing early earns strictly less.
func AccruedPoints(start, end time.Time, plannedMinutes int, pointsPerHour int64) int64 {
	elapsed := int64(end.Sub(start).Minutes())
	if elapsed < 0 {
		elapsed = 0
	}
	if elapsed > int64(plannedMinutes) {
		elapsed = int64(plannedMinutes)
	}
	return elapsed * pointsPerHour / 60
}
