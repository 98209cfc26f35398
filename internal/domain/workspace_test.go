package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func planAt(id, title string, updated time.Time) LessonPlan {
	return LessonPlan{
		ID:        PlanID(id),
		Title:     title,
		Subject:   "math",
		AgeGroup:  "8-10",
		Status:    PlanStatusDraft,
		UpdatedAt: updated,
	}
}

func TestPrependPlanPutsNewestFirst(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	w := Workspace{Plans: []LessonPlan{planAt("p2", "Older", now), planAt("p3", "Oldest", now)}}

	w.PrependPlan(planAt("p1", "Newest", now))

	require.Len(t, w.Plans, 3)
	assert.Equal(t, PlanID("p1"), w.Plans[0].ID)
	assert.Equal(t, PlanID("p2"), w.Plans[1].ID)
}

func TestApplyPlanPreservesCollectionOrder(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	w := Workspace{Plans: []LessonPlan{
		planAt("p1", "First", now),
		planAt("p2", "Second", now),
		planAt("p3", "Third", now),
	}}

	updated := planAt("p2", "Second, revised", now.Add(time.Minute))
	require.True(t, w.ApplyPlan(updated))

	assert.Equal(t, []PlanID{"p1", "p2", "p3"}, []PlanID{w.Plans[0].ID, w.Plans[1].ID, w.Plans[2].ID})
	assert.Equal(t, "Second, revised", w.Plans[1].Title)
}

func TestApplyPlanDropsStaleWriteBack(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	w := Workspace{Plans: []LessonPlan{planAt("p1", "Current", now)}}

	stale := planAt("p1", "Stale", now.Add(-time.Minute))
	assert.False(t, w.ApplyPlan(stale))
	assert.Equal(t, "Current", w.Plans[0].Title)
}

func TestApplyPlanSyncsActiveSnapshot(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	plan := planAt("p1", "Original", now)
	w := Workspace{Plans: []LessonPlan{plan}}
	w.SetActive(plan, nil)

	updated := planAt("p1", "Revised", now.Add(time.Minute))
	require.True(t, w.ApplyPlan(updated))

	require.NotNil(t, w.ActivePlan)
	assert.Equal(t, "Revised", w.ActivePlan.Title)
}

func TestApplyPlanIgnoresUncachedPlan(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	w := Workspace{}

	assert.False(t, w.ApplyPlan(planAt("p1", "Unknown", now)))
	assert.Empty(t, w.Plans)
}

func TestRemovePlanClearsActiveAndTranscriptTogether(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	plan := planAt("p1", "Active", now)
	w := Workspace{Plans: []LessonPlan{plan, planAt("p2", "Other", now)}}
	w.SetActive(plan, []Message{{ID: "m1", Content: "hello", Sender: SenderUser}})

	require.True(t, w.RemovePlan("p1"))

	assert.Len(t, w.Plans, 1)
	assert.Empty(t, w.ActivePlanID)
	assert.Nil(t, w.ActivePlan)
	assert.Nil(t, w.Transcript)
}

func TestRemovePlanKeepsActiveWhenOtherPlanRemoved(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	plan := planAt("p1", "Active", now)
	w := Workspace{Plans: []LessonPlan{plan, planAt("p2", "Other", now)}}
	w.SetActive(plan, []Message{{ID: "m1"}})

	require.True(t, w.RemovePlan("p2"))

	assert.Equal(t, PlanID("p1"), w.ActivePlanID)
	assert.Len(t, w.Transcript, 1)
}

func TestSetActiveReplacesPreviousTranscript(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	first := planAt("p1", "First", now)
	second := planAt("p2", "Second", now)
	w := Workspace{Plans: []LessonPlan{first, second}}

	w.SetActive(first, []Message{{ID: "m1"}, {ID: "m2"}})
	w.SetActive(second, []Message{{ID: "m3"}})

	assert.Equal(t, PlanID("p2"), w.ActivePlanID)
	require.Len(t, w.Transcript, 1)
	assert.Equal(t, MessageID("m3"), w.Transcript[0].ID)
}

func TestReplacePlansRefreshesActiveSnapshot(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	plan := planAt("p1", "Before refresh", now)
	w := Workspace{Plans: []LessonPlan{plan}}
	w.SetActive(plan, nil)

	w.ReplacePlans([]LessonPlan{planAt("p1", "After refresh", now.Add(time.Hour))})

	require.NotNil(t, w.ActivePlan)
	assert.Equal(t, "After refresh", w.ActivePlan.Title)
}

func TestSettleMessageUpdatesDelivery(t *testing.T) {
	w := Workspace{}
	w.AppendMessage(Message{ID: "m1", Delivery: DeliveryPending})

	require.True(t, w.SettleMessage("m1", DeliveryFailed))
	assert.Equal(t, DeliveryFailed, w.Transcript[0].Delivery)

	assert.False(t, w.SettleMessage("missing", DeliveryDelivered))
}

func TestNewerThanComparesServerWrites(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	assert.True(t, planAt("p1", "", now.Add(time.Second)).NewerThan(planAt("p1", "", now)))
	assert.False(t, planAt("p1", "", now).NewerThan(planAt("p1", "", now)))
}

func TestPlanStatusValid(t *testing.T) {
	assert.True(t, PlanStatusDraft.Valid())
	assert.True(t, PlanStatusCompleted.Valid())
	assert.False(t, PlanStatus("archived").Valid())
	assert.False(t, PlanStatus("").Valid())
}

func TestPlanFilterIsZero(t *testing.T) {
	assert.True(t, PlanFilter{}.IsZero())
	assert.False(t, PlanFilter{Status: PlanStatusCompleted}.IsZero())
	assert.False(t, PlanFilter{Limit: 5}.IsZero())
	assert.False(t, PlanFilter{Skip: 10}.IsZero())
}
