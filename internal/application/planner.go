package application

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/uuid"
	"github.com/mlevasseur/lessonplan-cli/internal/domain"
	"github.com/mlevasseur/lessonplan-cli/internal/ports"
)

// failedTurnReply is shown in-thread when a chat turn cannot be delivered;
// the user is mid-conversation, so the failure is part of the thread rather
// than a dialog.
const failedTurnReply = "I'm sorry, I encountered an error while processing your request. Please try again or check your API key configuration."

// PlannerService caches and mutates the lesson-plan collection, the active
// plan, and its transcript, keeping all three consistent after every
// mutation. The cache is persisted through the workspace repository after
// each change.
type PlannerService struct {
	plans ports.PlanAPI
	chat  ports.ChatAPI
	files ports.FileAPI
	repo  ports.WorkspaceRepository
	clock ports.Clock
	newID func() string

	mu sync.Mutex
}

func NewPlannerService(plans ports.PlanAPI, chat ports.ChatAPI, files ports.FileAPI, repo ports.WorkspaceRepository, clock ports.Clock) *PlannerService {
	if clock == nil {
		clock = ports.SystemClock{}
	}

	return &PlannerService{
		plans: plans,
		chat:  chat,
		files: files,
		repo:  repo,
		clock: clock,
		newID: uuid.NewString,
	}
}

func (s *PlannerService) Workspace(ctx context.Context) (domain.Workspace, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.repo.Load(ctx)
}

// Refresh fetches the plan collection. An unfiltered fetch is the source of
// truth and replaces the cache; a filtered fetch is a view, returned for
// rendering but never persisted, so a narrow listing cannot evict the open
// plan or its transcript.
func (s *PlannerService) Refresh(ctx context.Context, filter domain.PlanFilter) (domain.Workspace, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	workspace, err := s.repo.Load(ctx)
	if err != nil {
		return domain.Workspace{}, err
	}

	plans, err := s.plans.ListPlans(ctx, filter)
	if err != nil {
		return domain.Workspace{}, fmt.Errorf("list lesson plans: %w", err)
	}

	workspace.ReplacePlans(plans)
	if !filter.IsZero() {
		return workspace, nil
	}

	if err := s.repo.Save(ctx, workspace); err != nil {
		return domain.Workspace{}, fmt.Errorf("save workspace: %w", err)
	}

	return workspace, nil
}

// Create sends the creation request and, on success, prepends the new plan
// to the cached collection. The cache is untouched on failure.
func (s *PlannerService) Create(ctx context.Context, draft domain.PlanDraft) (domain.LessonPlan, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	workspace, err := s.repo.Load(ctx)
	if err != nil {
		return domain.LessonPlan{}, err
	}

	plan, err := s.plans.CreatePlan(ctx, draft)
	if err != nil {
		return domain.LessonPlan{}, fmt.Errorf("create lesson plan: %w", err)
	}

	workspace.PrependPlan(plan)
	if err := s.repo.Save(ctx, workspace); err != nil {
		return domain.LessonPlan{}, fmt.Errorf("save workspace: %w", err)
	}

	return plan, nil
}

// Update sends a partial update; on success the cache entry and, when it is
// the active plan, the active snapshot are replaced in the same store
// update so both views stay consistent without a second fetch.
func (s *PlannerService) Update(ctx context.Context, id domain.PlanID, patch domain.PlanPatch) (domain.LessonPlan, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	workspace, err := s.repo.Load(ctx)
	if err != nil {
		return domain.LessonPlan{}, err
	}

	plan, err := s.plans.UpdatePlan(ctx, id, patch)
	if err != nil {
		return domain.LessonPlan{}, fmt.Errorf("update lesson plan: %w", err)
	}

	workspace.ApplyPlan(plan)
	if err := s.repo.Save(ctx, workspace); err != nil {
		return domain.LessonPlan{}, fmt.Errorf("save workspace: %w", err)
	}

	return plan, nil
}

// Delete removes the plan remotely and from the cache; when it was the
// active plan, the cursor and transcript are cleared in the same update.
func (s *PlannerService) Delete(ctx context.Context, id domain.PlanID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	workspace, err := s.repo.Load(ctx)
	if err != nil {
		return err
	}

	if err := s.plans.DeletePlan(ctx, id); err != nil {
		return fmt.Errorf("delete lesson plan: %w", err)
	}

	workspace.RemovePlan(id)
	if err := s.repo.Save(ctx, workspace); err != nil {
		return fmt.Errorf("save workspace: %w", err)
	}

	return nil
}

// Open makes a plan active: it fetches the plan and its full transcript and
// replaces any previous active plan. A fetch failure propagates and leaves
// the cache unchanged.
func (s *PlannerService) Open(ctx context.Context, id domain.PlanID) (domain.Workspace, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	workspace, err := s.repo.Load(ctx)
	if err != nil {
		return domain.Workspace{}, err
	}

	plan, err := s.plans.GetPlan(ctx, id)
	if err != nil {
		return domain.Workspace{}, fmt.Errorf("fetch lesson plan: %w", err)
	}

	transcript, err := s.chat.ListMessages(ctx, id)
	if err != nil {
		return domain.Workspace{}, fmt.Errorf("fetch transcript: %w", err)
	}

	workspace.SetActive(plan, transcript)
	if err := s.repo.Save(ctx, workspace); err != nil {
		return domain.Workspace{}, fmt.Errorf("save workspace: %w", err)
	}

	return workspace, nil
}

// Close clears the active plan and its transcript. No network call.
func (s *PlannerService) Close(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	workspace, err := s.repo.Load(ctx)
	if err != nil {
		return err
	}

	workspace.ClearActive()
	if err := s.repo.Save(ctx, workspace); err != nil {
		return fmt.Errorf("save workspace: %w", err)
	}

	return nil
}

// ClearTranscript deletes the active plan's chat history remotely and
// locally.
func (s *PlannerService) ClearTranscript(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	workspace, err := s.repo.Load(ctx)
	if err != nil {
		return err
	}
	if workspace.ActivePlan == nil {
		return domain.ErrNoActivePlan
	}

	if err := s.chat.ClearMessages(ctx, workspace.ActivePlanID); err != nil {
		return fmt.Errorf("clear chat messages: %w", err)
	}

	workspace.Transcript = nil
	if err := s.repo.Save(ctx, workspace); err != nil {
		return fmt.Errorf("save workspace: %w", err)
	}

	return nil
}

// SendResult reports one chat turn. Failed means the turn could not be
// delivered; the failure is already part of the transcript.
type SendResult struct {
	UserMessage        domain.Message
	Reply              domain.Message
	PlanUpdated        bool
	SkippedAttachments []string
	Failed             bool
}

// SendMessage runs one chat turn against the active plan. The user's
// message is appended to the transcript and persisted before the network
// call resolves and is never retracted afterwards; a delivery failure is
// converted into an AI-styled message in the thread. Attachment uploads run
// sequentially and a single file's failure only omits that filename from
// the turn.
func (s *PlannerService) SendMessage(ctx context.Context, text string, attachmentPaths []string) (SendResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	workspace, err := s.repo.Load(ctx)
	if err != nil {
		return SendResult{}, err
	}
	if workspace.ActivePlan == nil {
		return SendResult{}, domain.ErrNoActivePlan
	}
	planID := workspace.ActivePlanID

	uploaded, skipped := s.uploadAttachments(ctx, planID, attachmentPaths)

	userMsg := domain.Message{
		ID:          domain.MessageID(s.newID()),
		Content:     text,
		Sender:      domain.SenderUser,
		Attachments: uploaded,
		Timestamp:   s.clock.Now(),
		Delivery:    domain.DeliveryPending,
	}
	workspace.AppendMessage(userMsg)
	if err := s.repo.Save(ctx, workspace); err != nil {
		return SendResult{}, fmt.Errorf("save workspace: %w", err)
	}

	result := SendResult{UserMessage: userMsg, SkippedAttachments: skipped}

	reply, sendErr := s.chat.SendMessage(ctx, planID, text, uploaded)
	if sendErr != nil {
		workspace.SettleMessage(userMsg.ID, domain.DeliveryFailed)
		result.Failed = true
		result.Reply = domain.Message{
			ID:        domain.MessageID(s.newID()),
			Content:   failedTurnReply,
			Sender:    domain.SenderAI,
			Timestamp: s.clock.Now(),
			Delivery:  domain.DeliveryDelivered,
		}
	} else {
		workspace.SettleMessage(userMsg.ID, domain.DeliveryDelivered)
		result.PlanUpdated = reply.PlanUpdated
		result.Reply = domain.Message{
			ID:        domain.MessageID(s.newID()),
			Content:   reply.Message,
			Sender:    domain.SenderAI,
			Timestamp: s.clock.Now(),
			Delivery:  domain.DeliveryDelivered,
		}
	}
	workspace.AppendMessage(result.Reply)

	if sendErr == nil && reply.PlanUpdated {
		if plan, err := s.plans.GetPlan(ctx, planID); err == nil {
			workspace.ApplyPlan(plan)
		}
	}

	if err := s.repo.Save(ctx, workspace); err != nil {
		return SendResult{}, fmt.Errorf("save workspace: %w", err)
	}

	return result, nil
}

func (s *PlannerService) uploadAttachments(ctx context.Context, planID domain.PlanID, paths []string) (uploaded, skipped []string) {
	for _, path := range paths {
		name, err := s.uploadOne(ctx, planID, path)
		if err != nil {
			skipped = append(skipped, filepath.Base(path))
			continue
		}
		uploaded = append(uploaded, name)
	}
	return uploaded, skipped
}

func (s *PlannerService) uploadOne(ctx context.Context, planID domain.PlanID, path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("open attachment: %w", err)
	}
	defer func() { _ = f.Close() }()

	info, err := s.files.UploadFile(ctx, planID, filepath.Base(path), f)
	if err != nil {
		return "", fmt.Errorf("upload attachment: %w", err)
	}
	return info.Filename, nil
}
