package domain

// Workspace is the client-side mirror of the user's lesson-plan data: the
// cached collection in display order, the single active plan with its full
// transcript, and nothing else. Views derive everything from it.
type Workspace struct {
	Plans        []LessonPlan
	ActivePlanID PlanID
	ActivePlan   *LessonPlan
	Transcript   []Message
}

func (w *Workspace) PlanIndex(id PlanID) int {
	for i := range w.Plans {
		if w.Plans[i].ID == id {
			return i
		}
	}
	return -1
}

func (w *Workspace) Plan(id PlanID) (LessonPlan, bool) {
	if i := w.PlanIndex(id); i >= 0 {
		return w.Plans[i], true
	}
	return LessonPlan{}, false
}

// PrependPlan puts a newly created plan at the head of the collection.
// Newest-first is a product decision, not a server guarantee.
func (w *Workspace) PrependPlan(plan LessonPlan) {
	w.Plans = append([]LessonPlan{plan}, w.Plans...)
}

// ApplyPlan replaces the cached entry in place, preserving collection order,
// and keeps the active-plan snapshot in step when it is the same plan. A
// write-back older than the cached entry is dropped so two in-flight
// mutations resolving out of order cannot clobber the newer state.
func (w *Workspace) ApplyPlan(plan LessonPlan) bool {
	i := w.PlanIndex(plan.ID)
	if i < 0 {
		return false
	}
	if w.Plans[i].NewerThan(plan) {
		return false
	}

	w.Plans[i] = plan
	if w.ActivePlanID == plan.ID {
		snapshot := plan
		w.ActivePlan = &snapshot
	}
	return true
}

// ReplacePlans swaps the whole cached collection, refreshing the active
// snapshot when the active plan is part of the new collection.
func (w *Workspace) ReplacePlans(plans []LessonPlan) {
	w.Plans = plans
	if w.ActivePlanID == "" {
		return
	}
	if plan, ok := w.Plan(w.ActivePlanID); ok {
		snapshot := plan
		w.ActivePlan = &snapshot
	}
}

// RemovePlan drops the entry from the cache. When it is the active plan, the
// cursor and the transcript are cleared in the same update so views never
// observe a half-cleared state.
func (w *Workspace) RemovePlan(id PlanID) bool {
	i := w.PlanIndex(id)
	if i < 0 {
		return false
	}

	w.Plans = append(w.Plans[:i], w.Plans[i+1:]...)
	if w.ActivePlanID == id {
		w.ClearActive()
	}
	return true
}

// SetActive is a full replace of the active plan and its transcript, never a
// merge with whatever was loaded before.
func (w *Workspace) SetActive(plan LessonPlan, transcript []Message) {
	snapshot := plan
	w.ActivePlanID = plan.ID
	w.ActivePlan = &snapshot
	w.Transcript = transcript
	if i := w.PlanIndex(plan.ID); i >= 0 {
		w.Plans[i] = plan
	}
}

func (w *Workspace) ClearActive() {
	w.ActivePlanID = ""
	w.ActivePlan = nil
	w.Transcript = nil
}

// AppendMessage keeps the transcript in append order; the caller is trusted
// not to re-send messages it already appended.
func (w *Workspace) AppendMessage(msg Message) {
	w.Transcript = append(w.Transcript, msg)
}

// SettleMessage updates the delivery state of a locally-appended message.
func (w *Workspace) SettleMessage(id MessageID, delivery MessageDelivery) bool {
	for i := range w.Transcript {
		if w.Transcript[i].ID == id {
			w.Transcript[i].Delivery = delivery
			return true
		}
	}
	return false
}
