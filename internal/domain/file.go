package domain

import "time"

type FileID string

type FileInfo struct {
	ID          FileID
	Filename    string
	ContentType string
	Size        int64
	PlanID      PlanID
	Processed   bool
	CreatedAt   time.Time
}
