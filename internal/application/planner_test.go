package application

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/mlevasseur/lessonplan-cli/internal/domain"
	"github.com/mlevasseur/lessonplan-cli/internal/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePlanAPI struct {
	created   domain.LessonPlan
	createErr error
	listed    []domain.LessonPlan
	listErr   error
	got       map[domain.PlanID]domain.LessonPlan
	getErr    error
	updated   domain.LessonPlan
	updateErr error
	deleteErr error

	deletedIDs []domain.PlanID
}

func (f *fakePlanAPI) CreatePlan(_ context.Context, _ domain.PlanDraft) (domain.LessonPlan, error) {
	return f.created, f.createErr
}

func (f *fakePlanAPI) ListPlans(_ context.Context, _ domain.PlanFilter) ([]domain.LessonPlan, error) {
	return f.listed, f.listErr
}

func (f *fakePlanAPI) GetPlan(_ context.Context, id domain.PlanID) (domain.LessonPlan, error) {
	if f.getErr != nil {
		return domain.LessonPlan{}, f.getErr
	}
	plan, ok := f.got[id]
	if !ok {
		return domain.LessonPlan{}, errors.New("plan not found")
	}
	return plan, nil
}

func (f *fakePlanAPI) UpdatePlan(_ context.Context, _ domain.PlanID, _ domain.PlanPatch) (domain.LessonPlan, error) {
	return f.updated, f.updateErr
}

func (f *fakePlanAPI) DeletePlan(_ context.Context, id domain.PlanID) error {
	if f.deleteErr != nil {
		return f.deleteErr
	}
	f.deletedIDs = append(f.deletedIDs, id)
	return nil
}

type fakeChatAPI struct {
	reply    ports.ChatReply
	sendErr  error
	messages []domain.Message
	listErr  error
	clearErr error

	sentTexts       []string
	sentAttachments [][]string
	clearCalls      int
}

func (f *fakeChatAPI) SendMessage(_ context.Context, _ domain.PlanID, text string, attachments []string) (ports.ChatReply, error) {
	f.sentTexts = append(f.sentTexts, text)
	f.sentAttachments = append(f.sentAttachments, attachments)
	if f.sendErr != nil {
		return ports.ChatReply{}, f.sendErr
	}
	return f.reply, nil
}

func (f *fakeChatAPI) ListMessages(_ context.Context, _ domain.PlanID) ([]domain.Message, error) {
	return f.messages, f.listErr
}

func (f *fakeChatAPI) ClearMessages(_ context.Context, _ domain.PlanID) error {
	f.clearCalls++
	return f.clearErr
}

type fakeFileAPI struct {
	failFor map[string]error

	uploaded []string
}

func (f *fakeFileAPI) UploadFile(_ context.Context, planID domain.PlanID, filename string, _ io.Reader) (domain.FileInfo, error) {
	if err, ok := f.failFor[filename]; ok {
		return domain.FileInfo{}, err
	}
	f.uploaded = append(f.uploaded, filename)
	return domain.FileInfo{ID: domain.FileID("f-" + filename), Filename: filename, PlanID: planID}, nil
}

func (f *fakeFileAPI) ListFiles(_ context.Context, _ domain.PlanID) ([]domain.FileInfo, error) {
	return nil, nil
}

func (f *fakeFileAPI) DeleteFile(_ context.Context, _ domain.FileID) error {
	return nil
}

type fakeWorkspaceRepo struct {
	workspace domain.Workspace
	loadErr   error
	saveErr   error

	saves []domain.Workspace
}

func (f *fakeWorkspaceRepo) Load(_ context.Context) (domain.Workspace, error) {
	if f.loadErr != nil {
		return domain.Workspace{}, f.loadErr
	}
	return f.workspace, nil
}

func (f *fakeWorkspaceRepo) Save(_ context.Context, workspace domain.Workspace) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	f.workspace = workspace
	f.saves = append(f.saves, workspace)
	return nil
}

type fixedClock struct {
	at time.Time
}

func (c fixedClock) Now() time.Time { return c.at }

func newTestPlanner(plans *fakePlanAPI, chat *fakeChatAPI, files *fakeFileAPI, repo *fakeWorkspaceRepo) *PlannerService {
	svc := NewPlannerService(plans, chat, files, repo, fixedClock{at: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)})

	ids := 0
	svc.newID = func() string {
		ids++
		return fmt.Sprintf("id-%d", ids)
	}
	return svc
}

func testPlan(id, title string) domain.LessonPlan {
	return domain.LessonPlan{
		ID:        domain.PlanID(id),
		Title:     title,
		Subject:   "science",
		AgeGroup:  "10-12",
		Status:    domain.PlanStatusDraft,
		UpdatedAt: time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC),
	}
}

func TestRefreshReplacesCachedCollection(t *testing.T) {
	plans := &fakePlanAPI{listed: []domain.LessonPlan{testPlan("p1", "One"), testPlan("p2", "Two")}}
	repo := &fakeWorkspaceRepo{workspace: domain.Workspace{Plans: []domain.LessonPlan{testPlan("old", "Old")}}}
	svc := newTestPlanner(plans, &fakeChatAPI{}, &fakeFileAPI{}, repo)

	workspace, err := svc.Refresh(context.Background(), domain.PlanFilter{})

	require.NoError(t, err)
	require.Len(t, workspace.Plans, 2)
	assert.Equal(t, domain.PlanID("p1"), workspace.Plans[0].ID)
	assert.Len(t, repo.saves, 1)
}

func TestRefreshWithFilterDoesNotEvictOpenPlan(t *testing.T) {
	active := testPlan("p1", "Active")
	workspace := domain.Workspace{Plans: []domain.LessonPlan{active}}
	workspace.SetActive(active, []domain.Message{{ID: "m1", Sender: domain.SenderUser}})
	repo := &fakeWorkspaceRepo{workspace: workspace}
	plans := &fakePlanAPI{} // the filter matches nothing
	svc := newTestPlanner(plans, &fakeChatAPI{}, &fakeFileAPI{}, repo)

	filtered, err := svc.Refresh(context.Background(), domain.PlanFilter{Status: domain.PlanStatusCompleted})

	require.NoError(t, err)
	assert.Empty(t, filtered.Plans)
	assert.Empty(t, repo.saves, "a filtered listing is a view, not a sync")

	reloaded, err := svc.Workspace(context.Background())
	require.NoError(t, err)
	require.NotNil(t, reloaded.ActivePlan)
	assert.Equal(t, domain.PlanID("p1"), reloaded.ActivePlanID)
	assert.Len(t, reloaded.Plans, 1)
	assert.Len(t, reloaded.Transcript, 1)
}

func TestCreatePrependsNewPlan(t *testing.T) {
	plans := &fakePlanAPI{created: testPlan("p1", "Newest")}
	repo := &fakeWorkspaceRepo{workspace: domain.Workspace{Plans: []domain.LessonPlan{testPlan("p2", "Existing")}}}
	svc := newTestPlanner(plans, &fakeChatAPI{}, &fakeFileAPI{}, repo)

	plan, err := svc.Create(context.Background(), domain.PlanDraft{Title: "Newest", Subject: "science", AgeGroup: "10-12"})

	require.NoError(t, err)
	assert.Equal(t, domain.PlanID("p1"), plan.ID)
	require.Len(t, repo.workspace.Plans, 2)
	assert.Equal(t, domain.PlanID("p1"), repo.workspace.Plans[0].ID)
}

func TestCreateFailureLeavesCacheUntouched(t *testing.T) {
	plans := &fakePlanAPI{createErr: errors.New("server error")}
	repo := &fakeWorkspaceRepo{workspace: domain.Workspace{Plans: []domain.LessonPlan{testPlan("p1", "Existing")}}}
	svc := newTestPlanner(plans, &fakeChatAPI{}, &fakeFileAPI{}, repo)

	_, err := svc.Create(context.Background(), domain.PlanDraft{})

	require.Error(t, err)
	assert.Empty(t, repo.saves)
	assert.Len(t, repo.workspace.Plans, 1)
}

func TestUpdatePreservesOrderAndSyncsActive(t *testing.T) {
	active := testPlan("p2", "Second")
	updated := testPlan("p2", "Second, revised")
	updated.UpdatedAt = active.UpdatedAt.Add(time.Minute)

	plans := &fakePlanAPI{updated: updated}
	workspace := domain.Workspace{Plans: []domain.LessonPlan{testPlan("p1", "First"), active, testPlan("p3", "Third")}}
	workspace.SetActive(active, nil)
	repo := &fakeWorkspaceRepo{workspace: workspace}
	svc := newTestPlanner(plans, &fakeChatAPI{}, &fakeFileAPI{}, repo)

	_, err := svc.Update(context.Background(), "p2", domain.PlanPatch{})

	require.NoError(t, err)
	assert.Equal(t, domain.PlanID("p2"), repo.workspace.Plans[1].ID)
	assert.Equal(t, "Second, revised", repo.workspace.Plans[1].Title)
	require.NotNil(t, repo.workspace.ActivePlan)
	assert.Equal(t, "Second, revised", repo.workspace.ActivePlan.Title)
}

func TestDeleteActivePlanClearsCursorAndTranscript(t *testing.T) {
	active := testPlan("p1", "Active")
	workspace := domain.Workspace{Plans: []domain.LessonPlan{active, testPlan("p2", "Other")}}
	workspace.SetActive(active, []domain.Message{{ID: "m1"}})
	repo := &fakeWorkspaceRepo{workspace: workspace}
	plans := &fakePlanAPI{}
	svc := newTestPlanner(plans, &fakeChatAPI{}, &fakeFileAPI{}, repo)

	err := svc.Delete(context.Background(), "p1")

	require.NoError(t, err)
	assert.Equal(t, []domain.PlanID{"p1"}, plans.deletedIDs)
	assert.Len(t, repo.workspace.Plans, 1)
	assert.Empty(t, repo.workspace.ActivePlanID)
	assert.Nil(t, repo.workspace.ActivePlan)
	assert.Nil(t, repo.workspace.Transcript)
}

func TestOpenFetchesPlanAndTranscript(t *testing.T) {
	plan := testPlan("p1", "Lesson")
	plans := &fakePlanAPI{got: map[domain.PlanID]domain.LessonPlan{"p1": plan}}
	chat := &fakeChatAPI{messages: []domain.Message{{ID: "m1", Sender: domain.SenderUser}, {ID: "m2", Sender: domain.SenderAI}}}
	repo := &fakeWorkspaceRepo{workspace: domain.Workspace{Plans: []domain.LessonPlan{plan}}}
	svc := newTestPlanner(plans, chat, &fakeFileAPI{}, repo)

	workspace, err := svc.Open(context.Background(), "p1")

	require.NoError(t, err)
	assert.Equal(t, domain.PlanID("p1"), workspace.ActivePlanID)
	assert.Len(t, workspace.Transcript, 2)
}

func TestOpenTranscriptFailureLeavesCacheUnchanged(t *testing.T) {
	plan := testPlan("p1", "Lesson")
	plans := &fakePlanAPI{got: map[domain.PlanID]domain.LessonPlan{"p1": plan}}
	chat := &fakeChatAPI{listErr: errors.New("transcript unavailable")}
	repo := &fakeWorkspaceRepo{workspace: domain.Workspace{Plans: []domain.LessonPlan{plan}}}
	svc := newTestPlanner(plans, chat, &fakeFileAPI{}, repo)

	_, err := svc.Open(context.Background(), "p1")

	require.Error(t, err)
	assert.Empty(t, repo.saves)
	assert.Empty(t, repo.workspace.ActivePlanID)
}

func TestSendMessageWithoutActivePlanFails(t *testing.T) {
	repo := &fakeWorkspaceRepo{}
	svc := newTestPlanner(&fakePlanAPI{}, &fakeChatAPI{}, &fakeFileAPI{}, repo)

	_, err := svc.SendMessage(context.Background(), "hello", nil)

	require.ErrorIs(t, err, domain.ErrNoActivePlan)
}

func TestSendMessagePersistsUserMessageBeforeDelivery(t *testing.T) {
	active := testPlan("p1", "Active")
	workspace := domain.Workspace{Plans: []domain.LessonPlan{active}}
	workspace.SetActive(active, nil)
	repo := &fakeWorkspaceRepo{workspace: workspace}
	chat := &fakeChatAPI{reply: ports.ChatReply{Message: "Sounds good."}}
	svc := newTestPlanner(&fakePlanAPI{}, chat, &fakeFileAPI{}, repo)

	result, err := svc.SendMessage(context.Background(), "Add a warm-up activity", nil)

	require.NoError(t, err)
	assert.False(t, result.Failed)

	// First save happens before the chat call resolves and carries the
	// pending user message.
	require.GreaterOrEqual(t, len(repo.saves), 2)
	firstSave := repo.saves[0]
	require.Len(t, firstSave.Transcript, 1)
	assert.Equal(t, domain.SenderUser, firstSave.Transcript[0].Sender)
	assert.Equal(t, domain.DeliveryPending, firstSave.Transcript[0].Delivery)

	final := repo.workspace
	require.Len(t, final.Transcript, 2)
	assert.Equal(t, domain.DeliveryDelivered, final.Transcript[0].Delivery)
	assert.Equal(t, domain.SenderAI, final.Transcript[1].Sender)
	assert.Equal(t, "Sounds good.", final.Transcript[1].Content)
}

func TestSendMessageFailureBecomesInThreadReply(t *testing.T) {
	active := testPlan("p1", "Active")
	workspace := domain.Workspace{Plans: []domain.LessonPlan{active}}
	workspace.SetActive(active, nil)
	repo := &fakeWorkspaceRepo{workspace: workspace}
	chat := &fakeChatAPI{sendErr: errors.New("gateway timeout")}
	svc := newTestPlanner(&fakePlanAPI{}, chat, &fakeFileAPI{}, repo)

	result, err := svc.SendMessage(context.Background(), "hello", nil)

	require.NoError(t, err, "a delivery failure is part of the thread, not a command error")
	assert.True(t, result.Failed)

	final := repo.workspace
	require.Len(t, final.Transcript, 2)
	assert.Equal(t, domain.DeliveryFailed, final.Transcript[0].Delivery)
	assert.Equal(t, domain.SenderAI, final.Transcript[1].Sender)
	assert.Equal(t, failedTurnReply, final.Transcript[1].Content)
}

func TestSendMessageRefetchesPlanWhenUpdated(t *testing.T) {
	active := testPlan("p1", "Before")
	refreshed := testPlan("p1", "After")
	refreshed.UpdatedAt = active.UpdatedAt.Add(time.Minute)

	workspace := domain.Workspace{Plans: []domain.LessonPlan{active}}
	workspace.SetActive(active, nil)
	repo := &fakeWorkspaceRepo{workspace: workspace}
	plans := &fakePlanAPI{got: map[domain.PlanID]domain.LessonPlan{"p1": refreshed}}
	chat := &fakeChatAPI{reply: ports.ChatReply{Message: "Done.", PlanUpdated: true}}
	svc := newTestPlanner(plans, chat, &fakeFileAPI{}, repo)

	result, err := svc.SendMessage(context.Background(), "flesh out the outline", nil)

	require.NoError(t, err)
	assert.True(t, result.PlanUpdated)
	assert.Equal(t, "After", repo.workspace.Plans[0].Title)
	require.NotNil(t, repo.workspace.ActivePlan)
	assert.Equal(t, "After", repo.workspace.ActivePlan.Title)
}

func TestSendMessageSkipsFailedAttachmentsAndSendsRest(t *testing.T) {
	dir := t.TempDir()
	good := filepath.Join(dir, "worksheet.pdf")
	bad := filepath.Join(dir, "broken.pdf")
	require.NoError(t, os.WriteFile(good, []byte("pdf"), 0o644))
	require.NoError(t, os.WriteFile(bad, []byte("pdf"), 0o644))

	active := testPlan("p1", "Active")
	workspace := domain.Workspace{Plans: []domain.LessonPlan{active}}
	workspace.SetActive(active, nil)
	repo := &fakeWorkspaceRepo{workspace: workspace}
	files := &fakeFileAPI{failFor: map[string]error{"broken.pdf": errors.New("unsupported type")}}
	chat := &fakeChatAPI{reply: ports.ChatReply{Message: "Got it."}}
	svc := newTestPlanner(&fakePlanAPI{}, chat, files, repo)

	result, err := svc.SendMessage(context.Background(), "use these", []string{good, bad})

	require.NoError(t, err)
	assert.Equal(t, []string{"broken.pdf"}, result.SkippedAttachments)
	assert.Equal(t, []string{"worksheet.pdf"}, result.UserMessage.Attachments)
	require.Len(t, chat.sentAttachments, 1)
	assert.Equal(t, []string{"worksheet.pdf"}, chat.sentAttachments[0])
}

func TestClearTranscriptRequiresActivePlan(t *testing.T) {
	repo := &fakeWorkspaceRepo{}
	svc := newTestPlanner(&fakePlanAPI{}, &fakeChatAPI{}, &fakeFileAPI{}, repo)

	err := svc.ClearTranscript(context.Background())

	require.ErrorIs(t, err, domain.ErrNoActivePlan)
}

func TestClearTranscriptClearsLocalCopy(t *testing.T) {
	active := testPlan("p1", "Active")
	workspace := domain.Workspace{Plans: []domain.LessonPlan{active}}
	workspace.SetActive(active, []domain.Message{{ID: "m1"}})
	repo := &fakeWorkspaceRepo{workspace: workspace}
	chat := &fakeChatAPI{}
	svc := newTestPlanner(&fakePlanAPI{}, chat, &fakeFileAPI{}, repo)

	err := svc.ClearTranscript(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 1, chat.clearCalls)
	assert.Empty(t, repo.workspace.Transcript)
	assert.Equal(t, domain.PlanID("p1"), repo.workspace.ActivePlanID, "clearing the conversation keeps the plan open")
}

func TestCloseClearsActiveWithoutNetwork(t *testing.T) {
	active := testPlan("p1", "Active")
	workspace := domain.Workspace{Plans: []domain.LessonPlan{active}}
	workspace.SetActive(active, []domain.Message{{ID: "m1"}})
	repo := &fakeWorkspaceRepo{workspace: workspace}
	chat := &fakeChatAPI{}
	svc := newTestPlanner(&fakePlanAPI{}, chat, &fakeFileAPI{}, repo)

	err := svc.Close(context.Background())

	require.NoError(t, err)
	assert.Empty(t, repo.workspace.ActivePlanID)
	assert.Len(t, repo.workspace.Plans, 1, "closing never drops the cached plan")
	assert.Equal(t, 0, chat.clearCalls)
}
