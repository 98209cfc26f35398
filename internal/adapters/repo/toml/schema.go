package toml

import (
	"fmt"
	"time"

	"github.com/mlevasseur/lessonplan-cli/internal/domain"
)

const currentSchemaVersion = 1

type fileSchema struct {
	Version    int             `toml:"version"`
	ActivePlan string          `toml:"active_plan,omitempty"`
	Plans      []planSchema    `toml:"plans,omitempty"`
	Transcript []messageSchema `toml:"transcript,omitempty"`
}

func (s *fileSchema) applyDefaults() {
	if s.Version == 0 {
		s.Version = currentSchemaVersion
	}
}

func (s fileSchema) validateVersion() error {
	if s.Version > currentSchemaVersion {
		return fmt.Errorf("unsupported workspace schema version %d (current %d)", s.Version, currentSchemaVersion)
	}

	return nil
}

type planSchema struct {
	ID          string            `toml:"id"`
	Title       string            `toml:"title"`
	Subject     string            `toml:"subject"`
	AgeGroup    string            `toml:"age_group"`
	Description string            `toml:"description,omitempty"`
	Status      string            `toml:"status"`
	Outline     []string          `toml:"outline,omitempty"`
	Details     map[string]string `toml:"details,omitempty"`
	CreatedAt   string            `toml:"created_at,omitempty"`
	UpdatedAt   string            `toml:"updated_at,omitempty"`
}

type messageSchema struct {
	ID          string   `toml:"id"`
	Content     string   `toml:"content"`
	Sender      string   `toml:"sender"`
	Attachments []string `toml:"attachments,omitempty"`
	Timestamp   string   `toml:"timestamp,omitempty"`
	Delivery    string   `toml:"delivery,omitempty"`
}

func toPlanSchema(plan domain.LessonPlan) planSchema {
	return planSchema{
		ID:          string(plan.ID),
		Title:       plan.Title,
		Subject:     plan.Subject,
		AgeGroup:    plan.AgeGroup,
		Description: plan.Description,
		Status:      string(plan.Status),
		Outline:     plan.Outline,
		Details:     plan.Details,
		CreatedAt:   formatTime(plan.CreatedAt),
		UpdatedAt:   formatTime(plan.UpdatedAt),
	}
}

func fromPlanSchema(plan planSchema) domain.LessonPlan {
	return domain.LessonPlan{
		ID:          domain.PlanID(plan.ID),
		Title:       plan.Title,
		Subject:     plan.Subject,
		AgeGroup:    plan.AgeGroup,
		Description: plan.Description,
		Status:      domain.PlanStatus(plan.Status),
		Outline:     plan.Outline,
		Details:     plan.Details,
		CreatedAt:   parseTime(plan.CreatedAt),
		UpdatedAt:   parseTime(plan.UpdatedAt),
	}
}

func toMessageSchema(msg domain.Message) messageSchema {
	return messageSchema{
		ID:          string(msg.ID),
		Content:     msg.Content,
		Sender:      string(msg.Sender),
		Attachments: msg.Attachments,
		Timestamp:   formatTime(msg.Timestamp),
		Delivery:    string(msg.Delivery),
	}
}

func fromMessageSchema(msg messageSchema) domain.Message {
	delivery := domain.MessageDelivery(msg.Delivery)
	if delivery == "" {
		delivery = domain.DeliveryDelivered
	}

	return domain.Message{
		ID:          domain.MessageID(msg.ID),
		Content:     msg.Content,
		Sender:      domain.MessageSender(msg.Sender),
		Attachments: msg.Attachments,
		Timestamp:   parseTime(msg.Timestamp),
		Delivery:    delivery,
	}
}

func parseTime(raw string) time.Time {
	if raw == "" {
		return time.Time{}
	}

	parsed, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		return time.Time{}
	}

	return parsed
}

func formatTime(value time.Time) string {
	if value.IsZero() {
		return ""
	}

	return value.Format(time.RFC3339Nano)
}
