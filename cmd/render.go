package cmd

import (
	workspaceadapter "github.com/mlevasseur/lessonplan-cli/internal/adapters/render/workspace"
	"github.com/mlevasseur/lessonplan-cli/internal/domain"
)

func renderOptions(app *app) workspaceadapter.RenderOptions {
	return workspaceadapter.RenderOptions{Now: app.now()}
}

func renderOptionsForWorkspace(app *app, workspace domain.Workspace) workspaceadapter.RenderOptions {
	return workspaceadapter.RenderOptions{Now: app.now(), ActivePlanID: workspace.ActivePlanID}
}

func documentForUser(user *domain.User) workspaceadapter.Document {
	return workspaceadapter.Document{User: user}
}

func documentForPlans(workspace domain.Workspace, title string) workspaceadapter.Document {
	if workspace.Plans == nil {
		workspace.Plans = []domain.LessonPlan{}
	}
	return workspaceadapter.Document{Plans: workspace.Plans, PlansTitle: title}
}

func documentForPlan(plan domain.LessonPlan) workspaceadapter.Document {
	return workspaceadapter.Document{Plan: &plan}
}

func documentForTranscript(transcript []domain.Message) workspaceadapter.Document {
	if transcript == nil {
		transcript = []domain.Message{}
	}
	return workspaceadapter.Document{Transcript: transcript}
}
