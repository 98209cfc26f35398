package api

import (
	"fmt"
	"strings"
	"time"

	"github.com/mlevasseur/lessonplan-cli/internal/domain"
)

// apiTime accepts both RFC 3339 and the timezone-naive ISO 8601 the service
// emits for UTC datetimes.
type apiTime struct {
	time.Time
}

var naiveLayouts = []string{
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
}

func (t *apiTime) UnmarshalJSON(data []byte) error {
	raw := strings.Trim(string(data), `"`)
	if raw == "" || raw == "null" {
		t.Time = time.Time{}
		return nil
	}

	if parsed, err := time.Parse(time.RFC3339Nano, raw); err == nil {
		t.Time = parsed
		return nil
	}
	for _, layout := range naiveLayouts {
		if parsed, err := time.Parse(layout, raw); err == nil {
			t.Time = parsed.UTC()
			return nil
		}
	}

	return fmt.Errorf("unsupported timestamp %q", raw)
}

func (t apiTime) MarshalJSON() ([]byte, error) {
	return []byte(`"` + t.UTC().Format(time.RFC3339Nano) + `"`), nil
}

type errorBody struct {
	Detail string `json:"detail"`
}

type googleAuthRequest struct {
	Token string `json:"token"`
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

// userPayload tolerates both "id" and the legacy "_id" alias; the service
// emits one or the other depending on the endpoint.
type userPayload struct {
	ID        string  `json:"id"`
	LegacyID  string  `json:"_id"`
	Email     string  `json:"email"`
	Name      string  `json:"name"`
	Avatar    *string `json:"avatar"`
	CreatedAt apiTime `json:"created_at"`
	UpdatedAt apiTime `json:"updated_at"`
}

func (p userPayload) toDomain() domain.User {
	id := p.ID
	if id == "" {
		id = p.LegacyID
	}

	user := domain.User{
		ID:        domain.UserID(id),
		Email:     p.Email,
		Name:      p.Name,
		CreatedAt: p.CreatedAt.Time,
		UpdatedAt: p.UpdatedAt.Time,
	}
	if p.Avatar != nil {
		user.Avatar = *p.Avatar
	}
	return user
}

type profileUpdateRequest struct {
	Name   *string `json:"name,omitempty"`
	Avatar *string `json:"avatar,omitempty"`
}

type apiKeysConfiguredResponse struct {
	Configured  bool     `json:"configured"`
	MissingKeys []string `json:"missing_keys"`
}

type maskedAPIKeysResponse struct {
	APIKeys map[string]string `json:"api_keys"`
}

type planCreateRequest struct {
	Title       string  `json:"title"`
	Subject     string  `json:"subject"`
	AgeGroup    string  `json:"age_group"`
	Description *string `json:"description,omitempty"`
}

type planUpdateRequest struct {
	Title       *string           `json:"title,omitempty"`
	Subject     *string           `json:"subject,omitempty"`
	AgeGroup    *string           `json:"age_group,omitempty"`
	Description *string           `json:"description,omitempty"`
	Status      *string           `json:"status,omitempty"`
	Outline     []string          `json:"outline,omitempty"`
	Details     map[string]string `json:"details,omitempty"`
}

type planPayload struct {
	ID          string            `json:"id"`
	LegacyID    string            `json:"_id"`
	Title       string            `json:"title"`
	Subject     string            `json:"subject"`
	AgeGroup    string            `json:"age_group"`
	Description *string           `json:"description"`
	Status      string            `json:"status"`
	Outline     []string          `json:"outline"`
	Details     map[string]string `json:"details"`
	CreatedAt   apiTime           `json:"created_at"`
	UpdatedAt   apiTime           `json:"updated_at"`
}

func (p planPayload) toDomain() domain.LessonPlan {
	id := p.ID
	if id == "" {
		id = p.LegacyID
	}

	plan := domain.LessonPlan{
		ID:        domain.PlanID(id),
		Title:     p.Title,
		Subject:   p.Subject,
		AgeGroup:  p.AgeGroup,
		Status:    domain.PlanStatus(p.Status),
		Outline:   p.Outline,
		Details:   p.Details,
		CreatedAt: p.CreatedAt.Time,
		UpdatedAt: p.UpdatedAt.Time,
	}
	if p.Description != nil {
		plan.Description = *p.Description
	}
	return plan
}

type chatSendRequest struct {
	Message      string   `json:"message"`
	LessonPlanID string   `json:"lesson_plan_id"`
	Attachments  []string `json:"attachments,omitempty"`
}

type chatSendResponse struct {
	Message           string  `json:"message"`
	LessonPlanUpdated bool    `json:"lesson_plan_updated"`
	StatusChanged     bool    `json:"status_changed"`
	NewStatus         *string `json:"new_status"`
}

type messagePayload struct {
	ID          string   `json:"id"`
	LegacyID    string   `json:"_id"`
	Content     string   `json:"content"`
	Sender      string   `json:"sender"`
	Attachments []string `json:"attachments"`
	Timestamp   apiTime  `json:"timestamp"`
}

func (p messagePayload) toDomain() domain.Message {
	id := p.ID
	if id == "" {
		id = p.LegacyID
	}

	return domain.Message{
		ID:          domain.MessageID(id),
		Content:     p.Content,
		Sender:      domain.MessageSender(p.Sender),
		Attachments: p.Attachments,
		Timestamp:   p.Timestamp.Time,
		Delivery:    domain.DeliveryDelivered,
	}
}

type uploadResponse struct {
	FileID   string `json:"file_id"`
	Filename string `json:"filename"`
	Message  string `json:"message"`
}

type filePayload struct {
	ID           string  `json:"id"`
	Filename     string  `json:"filename"`
	ContentType  string  `json:"content_type"`
	Size         int64   `json:"size"`
	LessonPlanID string  `json:"lesson_plan_id"`
	Processed    bool    `json:"processed"`
	CreatedAt    apiTime `json:"created_at"`
}

func (p filePayload) toDomain() domain.FileInfo {
	return domain.FileInfo{
		ID:          domain.FileID(p.ID),
		Filename:    p.Filename,
		ContentType: p.ContentType,
		Size:        p.Size,
		PlanID:      domain.PlanID(p.LessonPlanID),
		Processed:   p.Processed,
		CreatedAt:   p.CreatedAt.Time,
	}
}
