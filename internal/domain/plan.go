package domain

import "time"

type PlanID string

// PlanStatus is an informational label set by the server; the client never
// transitions it on its own.
type PlanStatus string

const (
	PlanStatusDraft     PlanStatus = "draft"
	PlanStatusOutline   PlanStatus = "outline"
	PlanStatusDetailed  PlanStatus = "detailed"
	PlanStatusCompleted PlanStatus = "completed"
)

func (s PlanStatus) Valid() bool {
	switch s {
	case PlanStatusDraft, PlanStatusOutline, PlanStatusDetailed, PlanStatusCompleted:
		return true
	default:
		return false
	}
}

type LessonPlan struct {
	ID          PlanID
	Title       string
	Subject     string
	AgeGroup    string
	Description string
	Status      PlanStatus
	Outline     []string
	Details     map[string]string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// NewerThan reports whether p carries a strictly later server write than
// other. Used to drop stale write-backs into the cached collection.
func (p LessonPlan) NewerThan(other LessonPlan) bool {
	return p.UpdatedAt.After(other.UpdatedAt)
}

// PlanDraft carries the fields of an explicit create action.
type PlanDraft struct {
	Title       string
	Subject     string
	AgeGroup    string
	Description string
}

// PlanPatch is a partial update; nil fields are left untouched server side.
type PlanPatch struct {
	Title       *string
	Subject     *string
	AgeGroup    *string
	Description *string
	Status      *PlanStatus
	Outline     []string
	Details     map[string]string
}

type PlanFilter struct {
	Status  PlanStatus
	Subject string
	Limit   int
	Skip    int
}

// IsZero reports whether the filter selects the full collection.
func (f PlanFilter) IsZero() bool {
	return f == PlanFilter{}
}
