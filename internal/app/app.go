package app

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"eduforge_backend/internal/agent"
	"eduforge_backend/internal/config"
	"eduforge_backend/internal/controller"
	"eduforge_backend/internal/draft"
	"eduforge_backend/internal/knowledge"
	"eduforge_backend/internal/llm"
	"eduforge_backend/internal/repository"
	"eduforge_backend/internal/service"
	"eduforge_backend/pkg/database"
	"eduforge_backend/pkg/logger"
	"eduforge_backend/pkg/monitoring"
	"eduforge_backend/pkg/security"
	"eduforge_backend/pkg/tracing"
)

type App struct {
	Config   *config.Config
	Router   *gin.Engine
	DB       *gorm.DB
	Redis    *redis.Client
	services *services
	tasks    *service.TaskRunner
}

type repositories struct {
	course     *repository.CourseRepository
	test       *repository.TestRepository
	assessment *repository.AssessmentRepository
	exercise   *repository.ExerciseRepository
	document   *repository.DocumentRepository
}

type services struct {
	composition *service.CompositionService
	lesson      *service.LessonService
	exercise    *service.ExerciseService
	entryTest   *service.EntryTestService
	assessment  *service.AssessmentService
	review      *service.ReviewService
	course      *service.CourseService
	document    *service.DocumentService
	session     *service.TestSessionService
}

type controllers struct {
	course     *controller.CourseController
	content    *controller.ContentController
	session    *controller.SessionController
	assessment *controller.AssessmentController
	webhook    *controller.WebhookController
	health     *controller.HealthController
}

func (a *App) initRepositories(db *gorm.DB) *repositories {
	return &repositories{
		course:     repository.NewCourseRepository(db),
		test:       repository.NewTestRepository(db),
		assessment: repository.NewAssessmentRepository(db),
		exercise:   repository.NewExerciseRepository(db),
		document:   repository.NewDocumentRepository(db),
	}
}

func (a *App) initVectorIndexes(ctx context.Context, cfg *config.Config) (knowledge.VectorIndex, knowledge.VectorIndex, error) {
	if cfg.Vector.Provider != "pinecone" {
		return knowledge.NewMemoryIndex(), knowledge.NewMemoryIndex(), nil
	}
	documents, err := knowledge.NewPineconeIndex(ctx, cfg.Vector.APIKey, cfg.Vector.DocumentIndex, "documents")
	if err != nil {
		return nil, nil, err
	}
	exercises, err := knowledge.NewPineconeIndex(ctx, cfg.Vector.APIKey, cfg.Vector.ExerciseIndex, "exercises")
	if err != nil {
		return nil, nil, err
	}
	return documents, exercises, nil
}

func (a *App) initServices(repos *repositories, cfg *config.Config, rdb *redis.Client) (*services, error) {
	gateway := llm.WithLogging(
		llm.WithRetry(
			llm.NewOpenAIGateway(llm.OpenAIConfig{
				APIKey:          cfg.AI.APIKey,
				BaseURL:         cfg.AI.BaseURL,
				GenerationModel: cfg.AI.GenerationModel,
				EmbeddingModel:  cfg.AI.EmbeddingModel,
			}),
			llm.RetryConfig{
				MaxAttempts: cfg.Agent.RetryMaxAttempts,
				BaseWait:    time.Duration(cfg.Agent.RetryBaseSeconds) * time.Second,
				MaxWait:     10 * time.Second,
			},
		),
		logger.Log,
	)

	documentIndex, exerciseIndex, err := a.initVectorIndexes(context.Background(), cfg)
	if err != nil {
		return nil, err
	}

	chunker := knowledge.NewChunker(gateway, cfg.Chunking.BreakpointPercentile, cfg.Chunking.BufferSize)
	knowledgeStore := knowledge.NewStore(gateway, documentIndex, chunker, logger.Log)
	draftStore := draft.NewGormStore(a.DB)
	history := agent.NewRedisHistory(rdb)

	registry := agent.NewRegistry()
	runtime := agent.NewRuntime(gateway, registry, history, logger.Log, cfg.Agent.DefaultMaxIterations)

	s := &services{}
	s.exercise = service.NewExerciseService(runtime, gateway, exerciseIndex, repos.exercise, a.tasks, logger.Log)

	toolDeps := &service.ToolDeps{
		Documents:        knowledgeStore,
		Exercises:        s.exercise,
		Courses:          repos.course,
		Sessions:         repos.test,
		Gateway:          gateway,
		GenerateExercise: s.exercise.Generate,
	}
	service.RegisterTools(registry, toolDeps)

	s.composition = service.NewCompositionService(runtime, draftStore, service.CompositionConfig{
		MaxIterations:    cfg.Agent.CompositionMaxIterations,
		MaxTopics:        cfg.Agent.MaxTopics,
		RetryMaxAttempts: cfg.Agent.RetryMaxAttempts,
		RetryBase:        time.Duration(cfg.Agent.RetryBaseSeconds) * time.Second,
		RetryMaxWait:     10 * time.Second,
	}, logger.Log)
	s.lesson = service.NewLessonService(runtime, repos.course, a.tasks, logger.Log)
	s.entryTest = service.NewEntryTestService(runtime, repos.course, repos.test, cfg.Agent.EntryTestQuestionCount, logger.Log)
	s.assessment = service.NewAssessmentService(runtime, repos.test, repos.assessment, logger.Log)
	s.review = service.NewReviewService(runtime, s.exercise, logger.Log)
	s.course = service.NewCourseService(repos.course, draftStore, s.composition, s.entryTest, a.tasks, logger.Log)
	s.document = service.NewDocumentService(repos.document, knowledgeStore, logger.Log)
	s.session = service.NewTestSessionService(repos.test, repos.test, s.assessment, a.tasks, logger.Log)
	return s, nil
}

func (a *App) initControllers(s *services, repos *repositories, db *gorm.DB) *controllers {
	return &controllers{
		course:     controller.NewCourseController(s.course),
		content:    controller.NewContentController(s.lesson, s.exercise, repos.exercise),
		session:    controller.NewSessionController(s.session, s.review),
		assessment: controller.NewAssessmentController(repos.assessment),
		webhook:    controller.NewWebhookController(s.document),
		health:     controller.NewHealthController(db),
	}
}

func (a *App) setupMiddlewares(router *gin.Engine, cfg *config.Config) {
	router.Use(security.CORS(cfg.CORS.AllowedOrigins))
	router.Use(security.Secure())
	if cfg.RateLimit.MaxRequests > 0 {
		router.Use(security.RateLimiter(cfg.RateLimit.MaxRequests, time.Duration(cfg.RateLimit.WindowMinutes)*time.Minute))
	}

	if cfg.Tracing.Enabled {
		router.Use(tracing.GinMiddleware())
	}

	router.Use(monitoring.MetricsMiddleware())
}

// startBackgroundTasks runs the periodic session sweeper.
func (a *App) startBackgroundTasks(s *services) {
	go func() {
		ticker := time.NewTicker(time.Minute)
		for range ticker.C {
			if _, err := s.session.ExpireStale(); err != nil {
				logger.Log.Error("session sweep error", zap.Error(err))
			}
		}
	}()
}

func NewApp(cfg *config.Config) *App {
	logger.InitLogger(cfg)
	defer logger.Log.Sync()

	logger.Log.Info("Logger initialized successfully")

	db, err := database.InitDB(&cfg.Database)
	if err != nil {
		logger.Log.Fatal("Failed to initialize database", zap.Error(err))
		log.Fatalf("Failed to initialize database: %v", err)
	}

	if cfg.ForceMigrate || cfg.MigrateOnly {
		if err := database.Migrate(db); err != nil {
			logger.Log.Fatal("Failed to migrate database", zap.Error(err))
		}
		if cfg.MigrateOnly {
			logger.Log.Info("Migration finished, exiting")
			os.Exit(0)
		}
	}

	rdb, err := database.InitRedis(&cfg.Redis)
	if err != nil {
		logger.Log.Fatal("Failed to initialize redis", zap.Error(err))
		log.Fatalf("Failed to initialize redis: %v", err)
	}

	app := &App{
		Config: cfg,
		DB:     db,
		Redis:  rdb,
		tasks:  service.NewTaskRunner(logger.Log),
	}

	repos := app.initRepositories(db)
	services, err := app.initServices(repos, cfg, rdb)
	if err != nil {
		logger.Log.Fatal("Failed to initialize services", zap.Error(err))
	}
	app.services = services
	controllers := app.initControllers(services, repos, db)

	monitoring.Init()

	if cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.Default()
	app.Router = router

	app.setupMiddlewares(router, cfg)

	if cfg.Tracing.Enabled {
		if _, err := tracing.InitTracer("eduforge-pipeline", cfg.Tracing.CollectorEndpoint); err != nil {
			logger.Log.Fatal("Failed to initialize tracing", zap.Error(err))
		}
	}

	app.registerRoutes(router, controllers)
	app.startBackgroundTasks(services)

	return app
}

func (a *App) Run() {
	srv := &http.Server{
		Addr:    ":" + a.Config.Server.Port,
		Handler: a.Router,
	}

	go func() {
		log.Printf("Server running on port %s", a.Config.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %s\n", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	// Let in-flight background agent work finish before exiting.
	a.tasks.Wait()

	log.Println("Server exiting")
}
