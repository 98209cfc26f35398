package workspace

import (
	"fmt"
	"sort"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/mlevasseur/lessonplan-cli/internal/domain"
)

// Document selects what to render; nil/empty sections are skipped.
type Document struct {
	User       *domain.User
	Plans      []domain.LessonPlan
	PlansTitle string
	Plan       *domain.LessonPlan
	Transcript []domain.Message
}

type RenderOptions struct {
	Now          time.Time
	ActivePlanID domain.PlanID
	// TranscriptTail limits how many trailing messages are shown; zero
	// means all of them.
	TranscriptTail int
}

func renderView(doc Document, opts RenderOptions, s styles) string {
	var sections []string

	if doc.User != nil {
		sections = append(sections, renderUser(*doc.User, s))
	}
	if doc.Plans != nil {
		sections = append(sections, s.section.Render(renderPlanList(doc.Plans, doc.PlansTitle, opts, s)))
	}
	if doc.Plan != nil {
		sections = append(sections, s.section.Render(renderPlanDetail(*doc.Plan, s)))
	}
	if doc.Transcript != nil {
		sections = append(sections, s.section.Render(renderTranscript(doc.Transcript, opts, s)))
	}

	if len(sections) == 0 {
		return s.empty.Render("Nothing to show.")
	}

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func renderUser(user domain.User, s styles) string {
	lines := []string{
		s.title.Render("Signed in"),
		s.detail.Render(fmt.Sprintf("%s <%s>", user.Name, user.Email)),
	}
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func renderPlanList(plans []domain.LessonPlan, title string, opts RenderOptions, s styles) string {
	if title == "" {
		title = "Lesson plans"
	}

	lines := []string{
		s.title.Render(title),
		s.header.Render(fmt.Sprintf("plans: %d", len(plans))),
	}

	if len(plans) == 0 {
		lines = append(lines, s.empty.Render("No lesson plans yet. Create one with `lp plan create`."))
		return lipgloss.JoinVertical(lipgloss.Left, lines...)
	}

	for _, plan := range plans {
		marker := "  "
		nameStyle := s.plan
		if plan.ID == opts.ActivePlanID {
			marker = "* "
			nameStyle = s.active
		}

		line := lipgloss.JoinHorizontal(
			lipgloss.Top,
			s.detail.Render(marker),
			nameStyle.Render(plan.Title),
			s.detail.Render(fmt.Sprintf("  %s · %s  ", plan.Subject, plan.AgeGroup)),
			s.status.Render("["+string(plan.Status)+"]"),
			s.timestamp.Render("  "+string(plan.ID)),
		)
		lines = append(lines, line)
	}

	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func renderPlanDetail(plan domain.LessonPlan, s styles) string {
	lines := []string{
		s.plan.Render(plan.Title),
		s.detail.Render(fmt.Sprintf("%s · %s · ", plan.Subject, plan.AgeGroup)) + s.status.Render(string(plan.Status)),
	}

	if plan.Description != "" {
		lines = append(lines, s.detail.Render(plan.Description))
	}

	if len(plan.Outline) > 0 {
		lines = append(lines, s.header.Render("outline:"))
		for i, point := range plan.Outline {
			lines = append(lines, s.outline.Render(fmt.Sprintf("  %d. %s", i+1, point)))
		}
	}

	if len(plan.Details) > 0 {
		lines = append(lines, s.header.Render("details:"))
		keys := make([]string, 0, len(plan.Details))
		for key := range plan.Details {
			keys = append(keys, key)
		}
		sort.Strings(keys)
		for _, key := range keys {
			lines = append(lines, s.outline.Render("  "+key+": ")+s.detail.Render(plan.Details[key]))
		}
	}

	if !plan.UpdatedAt.IsZero() {
		lines = append(lines, s.timestamp.Render("updated "+plan.UpdatedAt.Format("2006-01-02 15:04")))
	}

	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func renderTranscript(transcript []domain.Message, opts RenderOptions, s styles) string {
	lines := []string{s.title.Render("Transcript")}

	if len(transcript) == 0 {
		lines = append(lines, s.empty.Render("No messages yet."))
		return lipgloss.JoinVertical(lipgloss.Left, lines...)
	}

	start := 0
	if opts.TranscriptTail > 0 && len(transcript) > opts.TranscriptTail {
		start = len(transcript) - opts.TranscriptTail
		lines = append(lines, s.empty.Render(fmt.Sprintf("… %d earlier messages", start)))
	}

	for _, msg := range transcript[start:] {
		lines = append(lines, renderMessage(msg, s))
	}

	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func renderMessage(msg domain.Message, s styles) string {
	label := s.ai.Render("ai")
	if msg.Sender == domain.SenderUser {
		label = s.user.Render("you")
	}

	suffix := ""
	switch msg.Delivery {
	case domain.DeliveryPending:
		suffix = " " + s.timestamp.Render("[sending]")
	case domain.DeliveryFailed:
		suffix = " " + s.failed.Render("[not delivered]")
	}

	line := label + s.detail.Render(": "+msg.Content) + suffix
	if len(msg.Attachments) > 0 {
		line += "\n" + s.timestamp.Render(fmt.Sprintf("   attachments: %v", msg.Attachments))
	}
	return line
}
