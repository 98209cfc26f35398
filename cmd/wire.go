package cmd

import (
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	apiadapter "github.com/mlevasseur/lessonplan-cli/internal/adapters/api"
	workspaceadapter "github.com/mlevasseur/lessonplan-cli/internal/adapters/render/workspace"
	tomlrepo "github.com/mlevasseur/lessonplan-cli/internal/adapters/repo/toml"
	chainstore "github.com/mlevasseur/lessonplan-cli/internal/adapters/secrets/chain"
	"github.com/mlevasseur/lessonplan-cli/internal/application"
	"github.com/spf13/viper"
)

const credentialKey = "lessonplan/access_token"

type app struct {
	session    *application.SessionService
	planner    *application.PlannerService
	client     *apiadapter.Client
	renderer   func(workspaceadapter.Document, workspaceadapter.RenderOptions) (string, error)
	login      loginConfig
	httpClient *http.Client
	now        func() time.Time
}

type loginConfig struct {
	ClientID   string
	AuthURL    string
	TokenURL   string
	ListenAddr string
	Timeout    time.Duration
}

func wireApp() (*app, error) {
	// A missing .env is the normal case, not an error.
	_ = godotenv.Load()

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("resolve home directory: %w", err)
	}

	secretStore, err := chainstore.NewPassFirstWithFileFallback(filepath.Join(homeDir, ".lessonplan", "secrets"))
	if err != nil {
		return nil, fmt.Errorf("wire secret store chain: %w", err)
	}

	repo, err := tomlrepo.NewWorkspaceRepository(viper.New())
	if err != nil {
		return nil, fmt.Errorf("wire workspace repository: %w", err)
	}

	client := apiadapter.NewClient(
		envOrDefault("LP_API_BASE_URL", "http://localhost:8000"),
		http.DefaultClient,
		secretStore,
		credentialKey,
	)

	return &app{
		session:  application.NewSessionService(client, client),
		planner:  application.NewPlannerService(client, client, client, repo, nil),
		client:   client,
		renderer: workspaceadapter.Render,
		login: loginConfig{
			ClientID:   os.Getenv("LP_GOOGLE_CLIENT_ID"),
			AuthURL:    envOrDefault("LP_GOOGLE_AUTH_URL", "https://accounts.google.com/o/oauth2/v2/auth"),
			TokenURL:   envOrDefault("LP_GOOGLE_TOKEN_URL", "https://oauth2.googleapis.com/token"),
			ListenAddr: envOrDefault("LP_AUTH_LISTEN", "127.0.0.1:8765"),
			Timeout:    5 * time.Minute,
		},
		httpClient: http.DefaultClient,
		now:        time.Now,
	}, nil
}

func envOrDefault(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
