// Package app wires configuration, clients, storage and services into the
// shared core used by cmd/nivesh-server.
package app

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/mark3labs/mcp-go/server"
	"github.com/robfig/cron/v3"

	"github.com/bobmcallan/nivesh/internal/clients/claude"
	"github.com/bobmcallan/nivesh/internal/clients/gemini"
	"github.com/bobmcallan/nivesh/internal/clients/mfapi"
	"github.com/bobmcallan/nivesh/internal/common"
	"github.com/bobmcallan/nivesh/internal/interfaces"
	"github.com/bobmcallan/nivesh/internal/metrics"
	"github.com/bobmcallan/nivesh/internal/models"
	"github.com/bobmcallan/nivesh/internal/services/advice"
	"github.com/bobmcallan/nivesh/internal/services/events"
	"github.com/bobmcallan/nivesh/internal/services/navsync"
	"github.com/bobmcallan/nivesh/internal/services/recommend"
	"github.com/bobmcallan/nivesh/internal/services/search"
	"github.com/bobmcallan/nivesh/internal/services/universe"
	"github.com/bobmcallan/nivesh/internal/storage"
)

// App holds all initialized services, clients, and the MCP server.
type App struct {
	Config      *common.Config
	Logger      *common.Logger
	Storage     interfaces.StorageManager
	NAVClient   interfaces.NAVClient
	Universe    *universe.Store
	Sync        *navsync.Service
	Recommend   *recommend.Service
	Advice      *advice.Service
	Search      *search.Service
	Metrics     *metrics.Metrics
	Events      *events.Hub
	MCPServer   *server.MCPServer
	StartupTime time.Time

	scheduler   *cron.Cron
	eventsStop  context.CancelFunc
	ownedLogger bool
}

// Deps are collaborators supplied from outside. Nil fields are built from
// the config.
type Deps struct {
	NAVClient interfaces.NAVClient
	LLM       interfaces.LLMClient
	Storage   interfaces.StorageManager
	Seed      []models.MutualFund
}

// getBinaryDir returns the directory containing the executable.
func getBinaryDir() string {
	exe, err := os.Executable()
	if err != nil {
		return "."
	}
	return filepath.Dir(exe)
}

// NewApp loads configuration and initializes every service.
// configPath may be empty, in which case NIVESH_CONFIG, the binary directory
// and config/nivesh.toml are tried in that order.
func NewApp(configPath string) (*App, error) {
	common.LoadVersionFromFile()

	binDir := getBinaryDir()

	if configPath == "" {
		configPath = os.Getenv("NIVESH_CONFIG")
	}
	if configPath == "" {
		configPath = filepath.Join(binDir, "nivesh.toml")
		if _, err := os.Stat(configPath); os.IsNotExist(err) {
			configPath = "config/nivesh.toml"
		}
	}

	config, err := common.LoadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	if config.Storage.Path != "" && !filepath.IsAbs(config.Storage.Path) {
		config.Storage.Path = filepath.Join(binDir, config.Storage.Path)
	}
	if config.Logging.FilePath != "" && !filepath.IsAbs(config.Logging.FilePath) {
		config.Logging.FilePath = filepath.Join(binDir, config.Logging.FilePath)
	}

	logger, err := common.NewLoggerFromConfig(config.Logging)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	a, err := New(config, logger, Deps{})
	if err != nil {
		logger.Close()
		return nil, err
	}
	a.ownedLogger = true
	return a, nil
}

// New builds an App from an already loaded config.
func New(config *common.Config, logger *common.Logger, deps Deps) (*App, error) {
	startupStart := time.Now()
	if logger == nil {
		logger = common.NewSilentLogger()
	}
	ctx := context.Background()

	storageManager := deps.Storage
	if storageManager == nil {
		var err error
		storageManager, err = storage.NewStorageManager(logger, config.Storage)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize storage: %w", err)
		}
	}

	seed := deps.Seed
	if seed == nil {
		funds, warnings, err := universe.LoadSeed(config.Universe.SeedFile)
		if err != nil {
			storageManager.Close()
			return nil, fmt.Errorf("failed to load fund universe: %w", err)
		}
		for _, w := range warnings {
			logger.Warn().Str("seed", config.Universe.SeedFile).Msg(w)
		}
		seed = funds
	}

	navClient := deps.NAVClient
	if navClient == nil {
		mfc := config.Clients.MFAPI
		navClient = mfapi.NewClient(
			mfapi.WithBaseURL(mfc.BaseURL),
			mfapi.WithLogger(logger),
			mfapi.WithRateLimit(mfc.RateLimit),
			mfapi.WithTimeout(mfc.GetTimeout()),
			mfapi.WithBreaker(mfc.BreakerFailures, mfc.GetBreakerCooldown()),
		)
	}

	llm := deps.LLM
	if llm == nil {
		llm = newLLMClient(ctx, config, logger)
	}

	m := metrics.New()
	store := universe.NewStore(seed, logger)
	m.SetUniverseSize(store.Len())

	syncService := navsync.NewService(navClient, store, logger,
		navsync.WithHistoryStore(storageManager.NavHistoryStore()),
		navsync.WithMetrics(m),
		navsync.WithConcurrency(config.Sync.Concurrency),
		navsync.WithFetchTimeout(config.Sync.GetFetchTimeout()),
	)

	adviceService := advice.NewService(llm, logger,
		advice.WithStore(storageManager.AnalysisStore()),
		advice.WithMetrics(m),
		advice.WithTimeout(config.Advice.GetTimeout()),
		advice.WithCacheTTL(config.Advice.GetCacheTTL()),
	)

	hub := events.NewHub(logger)
	go hub.Run()
	eventsCtx, eventsStop := context.WithCancel(context.Background())
	hub.Watch(eventsCtx, store)

	mcpServer := server.NewMCPServer(
		"nivesh",
		common.Version,
		server.WithToolCapabilities(true),
	)

	a := &App{
		Config:      config,
		Logger:      logger,
		Storage:     storageManager,
		NAVClient:   navClient,
		Universe:    store,
		Sync:        syncService,
		Recommend:   recommend.NewService(store, config.Recommend.Limit, logger),
		Advice:      adviceService,
		Search:      search.NewService(navClient, config.Search, logger),
		Metrics:     m,
		Events:      hub,
		MCPServer:   mcpServer,
		StartupTime: startupStart,
		eventsStop:  eventsStop,
	}

	a.registerTools()

	logger.Info().
		Int("funds", len(seed)).
		Str("storage", storageManager.Backend()).
		Str("advice", adviceService.Provider()).
		Dur("startup", time.Since(startupStart)).
		Msg("App initialized")

	return a, nil
}

// newLLMClient builds the advice transport named by advice.provider. A
// missing key or unknown provider leaves advice on its fallbacks.
func newLLMClient(ctx context.Context, config *common.Config, logger *common.Logger) interfaces.LLMClient {
	switch config.Advice.Provider {
	case "gemini":
		key, err := common.ResolveAPIKey("gemini_api_key", config.Clients.Gemini.APIKey)
		if err != nil {
			logger.Warn().Msg("Gemini API key not configured - AI advice will use fallbacks")
			return nil
		}
		client, err := gemini.NewClient(ctx, key,
			gemini.WithLogger(logger),
			gemini.WithModel(config.Clients.Gemini.Model),
			gemini.WithTemperature(config.Clients.Gemini.Temperature),
			gemini.WithSystemInstruction(advice.AdvisorPersona),
		)
		if err != nil {
			logger.Warn().Err(err).Msg("Failed to initialize Gemini client")
			return nil
		}
		return client
	case "claude":
		key, err := common.ResolveAPIKey("claude_api_key", config.Clients.Claude.APIKey)
		if err != nil {
			logger.Warn().Msg("Anthropic API key not configured - AI advice will use fallbacks")
			return nil
		}
		return claude.NewClient(key,
			claude.WithLogger(logger),
			claude.WithModel(config.Clients.Claude.Model),
			claude.WithMaxTokens(config.Clients.Claude.MaxTokens),
		)
	case "", "none":
		return nil
	default:
		logger.Warn().Str("provider", config.Advice.Provider).Msg("Unknown advice provider - AI advice will use fallbacks")
		return nil
	}
}

// Close releases all resources held by the App.
// Shutdown order: stop scheduler, stop event hub, close storage.
func (a *App) Close() {
	a.StopScheduler()
	if a.eventsStop != nil {
		a.eventsStop()
		a.eventsStop = nil
	}
	if a.Events != nil {
		a.Events.Stop()
	}
	if a.Storage != nil {
		if err := a.Storage.Close(); err != nil {
			a.Logger.Warn().Err(err).Msg("Failed to close storage")
		}
		a.Storage = nil
	}
	if a.ownedLogger {
		a.Logger.Close()
		a.ownedLogger = false
	}
}
