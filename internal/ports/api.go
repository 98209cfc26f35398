package ports

import (
	"context"
	"io"

	"github.com/mlevasseur/lessonplan-cli/internal/domain"
)

// AuthAPI covers the session endpoints of the lesson-plan service.
type AuthAPI interface {
	// ExchangeGoogleToken trades an external Google ID token for a bearer
	// credential. The credential is stored by the transport client.
	ExchangeGoogleToken(ctx context.Context, googleToken string) error
	// CurrentUser resolves the identity behind the stored credential. A
	// rejected credential is cleared before the error is returned.
	CurrentUser(ctx context.Context) (domain.User, error)
	Logout(ctx context.Context) error
}

type ProfileUpdate struct {
	Name   *string
	Avatar *string
}

type APIKeyStatus struct {
	Configured  bool
	MissingKeys []string
}

type ProfileAPI interface {
	UpdateProfile(ctx context.Context, update ProfileUpdate) (domain.User, error)
	ReplaceAPIKeys(ctx context.Context, keysByProvider map[string]string) error
	MaskedAPIKeys(ctx context.Context) (map[string]string, error)
	APIKeysConfigured(ctx context.Context) (APIKeyStatus, error)
}

type PlanAPI interface {
	CreatePlan(ctx context.Context, draft domain.PlanDraft) (domain.LessonPlan, error)
	ListPlans(ctx context.Context, filter domain.PlanFilter) ([]domain.LessonPlan, error)
	GetPlan(ctx context.Context, id domain.PlanID) (domain.LessonPlan, error)
	UpdatePlan(ctx context.Context, id domain.PlanID, patch domain.PlanPatch) (domain.LessonPlan, error)
	DeletePlan(ctx context.Context, id domain.PlanID) error
}

// ChatReply is the server's answer to one chat turn. PlanUpdated signals
// that the conversation mutated the plan as a side effect and the client
// should re-fetch it.
type ChatReply struct {
	Message     string
	PlanUpdated bool
	NewStatus   domain.PlanStatus
}

type ChatAPI interface {
	SendMessage(ctx context.Context, planID domain.PlanID, text string, attachments []string) (ChatReply, error)
	ListMessages(ctx context.Context, planID domain.PlanID) ([]domain.Message, error)
	ClearMessages(ctx context.Context, planID domain.PlanID) error
}

type FileAPI interface {
	UploadFile(ctx context.Context, planID domain.PlanID, filename string, content io.Reader) (domain.FileInfo, error)
	ListFiles(ctx context.Context, planID domain.PlanID) ([]domain.FileInfo, error)
	DeleteFile(ctx context.Context, id domain.FileID) error
}

// CredentialCache is the in-memory side of the bearer credential held by the
// transport client, mirrored into the secret store on every change.
type CredentialCache interface {
	SetCredential(ctx context.Context, token string) error
	ClearCredential(ctx context.Context) error
	HasCredential() bool
}
