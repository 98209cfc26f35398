package ports

import (
	"context"

	"github.com/mlevasseur/lessonplan-cli/internal/domain"
)

// WorkspaceRepository persists the cached plan collection, the active-plan
// cursor, and the active transcript between invocations.
type WorkspaceRepository interface {
	Load(ctx context.Context) (domain.Workspace, error)
	Save(ctx context.Context, workspace domain.Workspace) error
}
