package toml

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/mlevasseur/lessonplan-cli/internal/domain"
	"github.com/mlevasseur/lessonplan-cli/internal/ports"
	toml "github.com/pelletier/go-toml/v2"
	"github.com/spf13/viper"
)

const (
	configName          = "config"
	configType          = "toml"
	workspacePathKey    = "workspace.path"
	workspaceFileMode   = 0o600
	workspaceDirMode    = 0o700
	workspaceConfigDir  = ".lessonplan"
	workspaceConfigFile = "workspace.toml"
	tempFilePattern     = ".workspace-*.toml.tmp"
)

// WorkspaceRepository persists the cached plan collection, active-plan
// cursor, and transcript as one TOML document, replaced atomically on every
// save.
type WorkspaceRepository struct {
	workspacePath string
	mu            *sync.RWMutex
}

var (
	lockRegistryMu sync.Mutex
	pathLockMap    = map[string]*sync.RWMutex{}
)

var _ ports.WorkspaceRepository = (*WorkspaceRepository)(nil)

func NewWorkspaceRepository(cfg *viper.Viper) (*WorkspaceRepository, error) {
	if cfg == nil {
		cfg = viper.New()
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("resolve home directory: %w", err)
	}

	defaultPath := filepath.Join(homeDir, workspaceConfigDir, workspaceConfigFile)

	cfg.SetConfigName(configName)
	cfg.SetConfigType(configType)
	cfg.AddConfigPath(filepath.Join(homeDir, workspaceConfigDir))
	cfg.SetDefault(workspacePathKey, defaultPath)

	err = cfg.ReadInConfig()
	if err != nil {
		var configNotFound viper.ConfigFileNotFoundError
		if !errors.As(err, &configNotFound) {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	workspacePath := cfg.GetString(workspacePathKey)
	if workspacePath == "" {
		return nil, errors.New("workspace path is empty")
	}
	workspacePath, err = normalizeWorkspacePath(workspacePath)
	if err != nil {
		return nil, err
	}

	return &WorkspaceRepository{workspacePath: workspacePath, mu: lockForPath(workspacePath)}, nil
}

func (r *WorkspaceRepository) Load(ctx context.Context) (domain.Workspace, error) {
	if err := ctx.Err(); err != nil {
		return domain.Workspace{}, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	file, err := r.readSchema()
	if err != nil {
		return domain.Workspace{}, err
	}

	return fromFileSchema(file), nil
}

func (r *WorkspaceRepository) Save(ctx context.Context, workspace domain.Workspace) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	return r.writeSchema(toFileSchema(workspace))
}

func (r *WorkspaceRepository) readSchema() (fileSchema, error) {
	data, err := os.ReadFile(r.workspacePath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fileSchema{}, nil
		}
		return fileSchema{}, fmt.Errorf("read workspace file: %w", err)
	}

	var file fileSchema
	if err := toml.Unmarshal(data, &file); err != nil {
		return fileSchema{}, fmt.Errorf("decode workspace file: %w", err)
	}
	if err := file.validateVersion(); err != nil {
		return fileSchema{}, err
	}
	file.applyDefaults()

	return file, nil
}

func (r *WorkspaceRepository) writeSchema(file fileSchema) error {
	file.applyDefaults()

	if err := os.MkdirAll(filepath.Dir(r.workspacePath), workspaceDirMode); err != nil {
		return fmt.Errorf("create workspace directory: %w", err)
	}

	data, err := toml.Marshal(file)
	if err != nil {
		return fmt.Errorf("encode workspace file: %w", err)
	}

	tempFile, err := os.CreateTemp(filepath.Dir(r.workspacePath), tempFilePattern)
	if err != nil {
		return fmt.Errorf("create temp workspace file: %w", err)
	}

	tempName := tempFile.Name()
	cleanup := true
	defer func() {
		if cleanup {
			_ = os.Remove(tempName)
		}
	}()

	if _, err := tempFile.Write(data); err != nil {
		_ = tempFile.Close()
		return fmt.Errorf("write temp workspace file: %w", err)
	}

	if err := tempFile.Chmod(workspaceFileMode); err != nil {
		_ = tempFile.Close()
		return fmt.Errorf("chmod temp workspace file: %w", err)
	}

	if err := tempFile.Close(); err != nil {
		return fmt.Errorf("close temp workspace file: %w", err)
	}

	if err := os.Rename(tempName, r.workspacePath); err != nil {
		return fmt.Errorf("replace workspace file: %w", err)
	}

	cleanup = false

	if err := os.Chmod(r.workspacePath, workspaceFileMode); err != nil {
		return fmt.Errorf("chmod workspace file: %w", err)
	}

	return nil
}

func toFileSchema(workspace domain.Workspace) fileSchema {
	file := fileSchema{
		Version:    currentSchemaVersion,
		ActivePlan: string(workspace.ActivePlanID),
	}

	for _, plan := range workspace.Plans {
		file.Plans = append(file.Plans, toPlanSchema(plan))
	}
	for _, msg := range workspace.Transcript {
		file.Transcript = append(file.Transcript, toMessageSchema(msg))
	}

	return file
}

func fromFileSchema(file fileSchema) domain.Workspace {
	workspace := domain.Workspace{
		ActivePlanID: domain.PlanID(file.ActivePlan),
	}

	for _, plan := range file.Plans {
		workspace.Plans = append(workspace.Plans, fromPlanSchema(plan))
	}
	for _, msg := range file.Transcript {
		workspace.Transcript = append(workspace.Transcript, fromMessageSchema(msg))
	}

	if workspace.ActivePlanID != "" {
		if plan, ok := workspace.Plan(workspace.ActivePlanID); ok {
			snapshot := plan
			workspace.ActivePlan = &snapshot
		} else {
			// Cursor without a cached plan is unusable; settle to none.
			workspace.ClearActive()
		}
	}

	return workspace
}

func normalizeWorkspacePath(path string) (string, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("resolve workspace path: %w", err)
	}

	return filepath.Clean(absPath), nil
}

func lockForPath(path string) *sync.RWMutex {
	lockRegistryMu.Lock()
	defer lockRegistryMu.Unlock()

	if mu, ok := pathLockMap[path]; ok {
		return mu
	}

	mu := &sync.RWMutex{}
	pathLockMap[path] = mu
	return mu
}
