package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	"google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	"github.com/gurkanbulca/teamtask/internal/api"
	"github.com/gurkanbulca/teamtask/internal/assistant"
	"github.com/gurkanbulca/teamtask/internal/config"
	"github.com/gurkanbulca/teamtask/internal/database"
	"github.com/gurkanbulca/teamtask/internal/llm"
	"github.com/gurkanbulca/teamtask/internal/middleware"
	"github.com/gurkanbulca/teamtask/internal/repository"
	"github.com/gurkanbulca/teamtask/internal/service"
	"github.com/gurkanbulca/teamtask/pkg/auth"
	"github.com/gurkanbulca/teamtask/pkg/logger"
)

func main() {
	// Load .env file
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if err := cfg.ValidateConfig(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	zlog, err := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer func() { _ = zlog.Sync() }()

	if err := run(cfg, zlog); err != nil {
		zlog.Fatal("server stopped", zap.Error(err))
	}
}

func run(cfg *config.Config, logger *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.Open(ctx, database.Config{
		Driver:   cfg.Database.Driver,
		Host:     cfg.Database.Host,
		Port:     cfg.Database.Port,
		User:     cfg.Database.User,
		Password: cfg.Database.Password,
		DBName:   cfg.Database.DBName,
		SSLMode:  cfg.Database.SSLMode,
		Path:     cfg.Database.Path,
	}, logger)
	if err != nil {
		return err
	}
	defer db.Close()

	if cfg.Server.AutoMigrate {
		logger.Info("running auto migration")
		if err := db.Migrate(ctx); err != nil {
			return err
		}
	}

	model, err := newChatModel(ctx, cfg.LLM)
	if err != nil {
		return err
	}
	logger.Info("chat model ready", zap.String("provider", cfg.LLM.Provider), zap.String("model", cfg.LLM.Model))

	companies := repository.NewCompanyRepository(db)
	users := repository.NewUserRepository(db)
	tasks := repository.NewTaskRepository(db)
	comments := repository.NewCommentRepository(db)

	tokenManager := auth.NewTokenManager(cfg.JWT.Secret, cfg.JWT.TokenDuration)
	passwordManager := auth.NewPasswordManager(auth.WithMinLength(cfg.Validation.MinPasswordLength))
	validator := middleware.NewValidator(middleware.ValidationConfigFrom(cfg.Validation))
	securityLogger := service.NewSecurityLogger(logger)
	authenticator := middleware.NewAuthenticator(tokenManager, users, companies, logger.Named("auth"))

	chatService := service.NewChatService(
		assistant.New(model, tasks, users, logger.Named("assistant")),
		validator,
		logger,
	)

	handler := api.New(api.Services{
		Auth:     service.NewAuthService(companies, users, tokenManager, passwordManager, validator, securityLogger, logger),
		Users:    service.NewUserService(users, passwordManager, validator, securityLogger, logger),
		Tasks:    service.NewTaskService(tasks, users, comments, validator, logger),
		Comments: service.NewCommentService(comments, tasks, validator, logger),
		Chat:     chatService,
	}, authenticator, logger.Named("http"))

	httpServer := &http.Server{
		Addr:              ":" + cfg.Server.HTTPPort,
		Handler:           handler,
		ReadHeaderTimeout: cfg.Server.ReadHeaderTimeout,
	}

	metadataExtractor := middleware.NewMetadataExtractorInterceptor()
	authInterceptor := middleware.NewAuthInterceptor(authenticator)

	grpcServer := grpc.NewServer(
		grpc.ChainUnaryInterceptor(
			metadataExtractor.Unary(),
			validator.Unary(),
			authInterceptor.Unary(),
			middleware.UnaryLogger(logger.Named("grpc")),
		),
		grpc.ChainStreamInterceptor(
			metadataExtractor.Stream(),
			authInterceptor.Stream(),
		),
	)
	service.RegisterAssistantServiceServer(grpcServer, service.NewAssistantServer(chatService))

	healthServer := health.NewServer()
	grpc_health_v1.RegisterHealthServer(grpcServer, healthServer)
	healthServer.SetServingStatus(service.AssistantServiceDesc.ServiceName, grpc_health_v1.HealthCheckResponse_SERVING)
	healthServer.SetServingStatus("", grpc_health_v1.HealthCheckResponse_SERVING)

	// Register reflection for development
	if cfg.Server.EnableReflection {
		reflection.Register(grpcServer)
		logger.Warn("gRPC reflection enabled (disable in production)")
	}

	listener, err := net.Listen("tcp", ":"+cfg.Server.GRPCPort)
	if err != nil {
		return fmt.Errorf("listen grpc: %w", err)
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("http server listening", zap.String("port", cfg.Server.HTTPPort))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serve http: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		logger.Info("grpc server listening", zap.String("port", cfg.Server.GRPCPort))
		if err := grpcServer.Serve(listener); err != nil {
			return fmt.Errorf("serve grpc: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")
		healthServer.Shutdown()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		stopped := make(chan struct{})
		go func() {
			grpcServer.GracefulStop()
			close(stopped)
		}()
		select {
		case <-stopped:
		case <-shutdownCtx.Done():
			grpcServer.Stop()
		}

		return httpServer.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		return err
	}
	logger.Info("server shutdown complete")
	return nil
}

// newChatModel selects the LLM backend named by cfg.Provider.
func newChatModel(ctx context.Context, cfg config.LLMConfig) (llm.ChatModel, error) {
	switch cfg.Provider {
	case "gemini":
		return llm.NewGeminiClient(ctx, cfg.APIKey, cfg.Model)
	default:
		return llm.NewOllamaClient(cfg.BaseURL, cfg.Model, cfg.Timeout), nil
	}
}
