package builder

import (
	"context"
	"fmt"
	"net/http"

	"github.com/futig/lessonplan-backend/internal/api"
	documentapi "github.com/futig/lessonplan-backend/internal/api/document"
	downloadapi "github.com/futig/lessonplan-backend/internal/api/download"
	generationapi "github.com/futig/lessonplan-backend/internal/api/generation"
	sessionapi "github.com/futig/lessonplan-backend/internal/api/session"
	"github.com/futig/lessonplan-backend/internal/config"
	"github.com/futig/lessonplan-backend/internal/integration/llm"
	"github.com/futig/lessonplan-backend/internal/metrics"
	"github.com/futig/lessonplan-backend/internal/pkg/docx"
	"github.com/futig/lessonplan-backend/internal/pkg/extractor"
	"github.com/futig/lessonplan-backend/internal/pkg/formatter"
	"github.com/futig/lessonplan-backend/internal/pkg/validator"
	"github.com/futig/lessonplan-backend/internal/repository"
	"github.com/futig/lessonplan-backend/internal/usecase/document"
	"github.com/futig/lessonplan-backend/internal/usecase/generation"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/unidoc/unioffice/common/license"
	"go.uber.org/zap"
)

// components are shared by the HTTP server and the batch command
type components struct {
	metrics      *metrics.Metrics
	sessionRepo  *repository.SessionMemory
	db           *pgxpool.Pool
	generationUC *generation.GenerationUsecase
	documentUC   *document.DocumentUsecase
}

func Build() (*App, error) {
	ctx := context.Background()

	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	logger, err := setupLogger(cfg)
	if err != nil {
		return nil, fmt.Errorf("setup logger: %w", err)
	}

	logger.Info("Building application",
		zap.String("environment", cfg.Environment),
		zap.String("server_addr", cfg.ServerAddr),
	)

	c, err := buildComponents(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}

	// Initialize validators
	requestValidator := validator.NewValidator(cfg.FileUploadCfg)
	logger.Info("Validators initialized")

	// Setup API handlers
	handlers := api.Handlers{
		Generation: generationapi.NewHandler(
			c.generationUC,
			c.documentUC,
			requestValidator,
			cfg.DefaultCourseCfg.CourseInfo(),
		),
		Document: documentapi.NewHandler(c.documentUC, requestValidator, cfg.FileUploadCfg.MaxUploadSize),
		Session:  sessionapi.NewHandler(c.sessionRepo, cfg.SessionCfg.HeartbeatPeriod),
		Download: downloadapi.NewHandler(cfg.PathsCfg.OutputDir),
		Metrics:  c.metrics.Handler(),
	}
	logger.Info("API handlers initialized")

	// Setup router
	router := api.SetupRouter(
		api.RouterConfig{
			RequestTimeout: cfg.RequestTimeout,
			DownloadRoute:  cfg.PublicDownloadRoute,
			StaticDir:      cfg.PathsCfg.StaticDir,
			SwaggerFile:    cfg.PathsCfg.SwaggerFile,
			RateLimit:      cfg.RateLimitCfg,
		},
		handlers,
		c.metrics,
		logger,
	)
	logger.Info("HTTP router configured")

	// Create HTTP server
	server := &http.Server{
		Addr:         cfg.ServerAddr,
		Handler:      router,
		ReadTimeout:  cfg.ServerReadTimeout,
		WriteTimeout: cfg.ServerWriteTimeout,
		IdleTimeout:  cfg.ServerIdleTimeout,
	}

	logger.Info("Application built successfully",
		zap.String("environment", cfg.Environment),
	)

	return &App{
		server: server,
		db:     c.db,
		logger: logger,
	}, nil
}

// BuildBatch wires the generator for the command line. The configuration
// is loaded by the caller so it can register its own flags first.
func BuildBatch(cfg *config.Config) (*BatchApp, error) {
	logger, err := setupLogger(cfg)
	if err != nil {
		return nil, fmt.Errorf("setup logger: %w", err)
	}

	c, err := buildComponents(context.Background(), cfg, logger)
	if err != nil {
		return nil, err
	}

	return &BatchApp{
		Generation: c.generationUC,
		Logger:     logger,
		db:         c.db,
	}, nil
}

func buildComponents(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*components, error) {
	if cfg.UnidocLicenseKey != "" {
		if err := license.SetMeteredKey(cfg.UnidocLicenseKey); err != nil {
			return nil, fmt.Errorf("set unioffice license: %w", err)
		}
	} else {
		logger.Warn("UNIDOC_LICENSE_API_KEY not set, Word documents may fail to open")
	}

	m := metrics.New()

	// Initialize repositories
	history, db, err := setupHistory(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	sessionRepo := repository.NewSessionMemory(
		cfg.SessionCfg.TTL, cfg.SessionCfg.CleanupInterval, cfg.SessionCfg.Dir, logger,
	)
	documentRepo := repository.NewDocumentMemory(
		cfg.DocumentCfg.TTL, cfg.DocumentCfg.CleanupInterval, logger,
	)
	logger.Info("Repositories initialized")

	// Initialize connectors
	llmConnector := llm.NewConnector(
		cfg.LLMConnectorCfg,
		llm.NewPromptRecorder(cfg.PathsCfg.PromptDumpDir),
		logger,
	)
	mockConnector := llm.NewMockConnector(logger)
	if cfg.EnableMocks {
		logger.Info("Using mock connector for the language model")
	} else {
		logger.Info("Using real connector for the language model",
			zap.String("url", cfg.LLMConnectorCfg.Url),
			zap.String("model", cfg.LLMConnectorCfg.Model),
		)
	}

	layout := docx.DefaultLayout()
	templatePath := cfg.PathsCfg.TemplatePath
	openTemplate := func() (generation.LessonPlanDocument, error) {
		doc, err := docx.OpenTemplate(templatePath, layout)
		if err != nil {
			return nil, err
		}
		return doc, nil
	}

	// Initialize use cases
	generationUC := generation.NewUsecase(
		generation.Config{
			OutputDir:        cfg.PathsCfg.OutputDir,
			DownloadRoute:    cfg.PublicDownloadRoute,
			EnableMocks:      cfg.EnableMocks,
			HasDefaultAPIKey: llmConnector.HasDefaultKey(),
		},
		llmConnector,
		mockConnector,
		openTemplate,
		sessionRepo,
		history,
		formatter.NewFactory(cfg.PathsCfg.PDFFontPath),
		m,
		logger,
	)

	documentUC := document.NewUsecase(
		cfg.PathsCfg.UploadDir,
		documentRepo,
		extractor.New(),
		m,
		logger,
	)
	logger.Info("Use cases initialized")

	return &components{
		metrics:      m,
		sessionRepo:  sessionRepo,
		db:           db,
		generationUC: generationUC,
		documentUC:   documentUC,
	}, nil
}
