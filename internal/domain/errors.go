package domain

import "errors"

var (
	ErrNotAuthenticated   = errors.New("not authenticated")
	ErrNoActivePlan       = errors.New("no active lesson plan")
	ErrPlanNotCached      = errors.New("lesson plan not in local cache")
	ErrCredentialNotFound = errors.New("credential not found")
)
