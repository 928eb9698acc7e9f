package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.opentelemetry.io/contrib/instrumentation/github.com/labstack/echo/otelecho"

	"sow-signoff/backend/internal/api"
	"sow-signoff/backend/internal/config"
	"sow-signoff/backend/internal/logging"
	"sow-signoff/backend/internal/mcp"
	"sow-signoff/backend/internal/repository"
	"sow-signoff/backend/internal/services"
	devtls "sow-signoff/backend/internal/tls"
)

func main() {
	ctx := context.Background()

	// Parse command line flags
	configFile := flag.String("config", "", "Path to config file")
	flag.Parse()

	// Load configuration
	cfg, err := config.LoadConfig(*configFile)
	if err != nil {
		log.Fatalf("Configuration loading failed: %v", err)
	}

	logger := logging.New(logging.Options{Level: cfg.Log.Level, Format: cfg.Log.Format})
	logger.Info("Configuration loaded",
		"environment", cfg.Environment,
		"store", cfg.Store.Driver,
		"sections", len(cfg.Approvals.Sections),
	)

	logger.Info("Starting SOW Sign-off Service")

	// Initialize repository layer
	if cfg.Store.Driver == config.DriverMemory {
		logger.Warn("Using in-memory store; data is lost on restart")
	}
	store, err := repository.Open(ctx, cfg)
	if err != nil {
		logger.Error("Failed to initialize store", "error", err)
		log.Fatalf("Store initialization failed: %v", err)
	}
	defer store.Close()

	logger.Info("Store ready", "driver", cfg.Store.Driver)

	// Initialize service layer
	approvalService := services.NewApprovalService(store, store, cfg.Approvals.Sections, logger.With("component", "approvals"))
	assignmentService := services.NewAssignmentService(store, store, logger.With("component", "assignments"))
	workflowService := services.NewWorkflowService(store, logger.With("component", "workflows"))

	logger.Info("Service layer initialized")

	// Create Echo server
	e := echo.New()
	e.HideBanner = true
	e.HTTPErrorHandler = api.ProblemErrorHandler(logger)

	// Middleware
	e.Use(otelecho.Middleware("sow-signoff"))
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())

	apiHandler := api.NewHandler(approvalService, assignmentService, workflowService, store, logger)
	e.GET("/health", apiHandler.HandleHealth)

	// Mount REST API handlers
	apiGroup := e.Group("/api/v1")
	api.RegisterHandlers(apiGroup, apiHandler)

	logger.Info("REST API handlers mounted")

	// Mount MCP protocol handlers
	if cfg.MCP.Enabled {
		mcpServer := mcp.NewServer(approvalService, assignmentService, workflowService)
		mcpHandlers := http.NewServeMux()
		mcp.MountHTTPHandlers(mcpHandlers, mcpServer.GetMCPServer())
		e.Any("/mcp", echo.WrapHandler(mcpHandlers))
		e.Any("/mcp/*", echo.WrapHandler(mcpHandlers))

		logger.Info("MCP protocol handlers mounted")
	}

	// expose OpenAPI spec and Swagger UI
	e.GET("/openapi.yaml", api.SpecHandler)
	e.GET("/docs", api.SwaggerHandler("/openapi.yaml"))

	// Create HTTP server
	server := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      e,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	tlsCfg := cfg.Server.TLS
	if tlsCfg.Enabled && tlsCfg.SelfSigned {
		created, err := devtls.EnsureDevCertificate(tlsCfg.CertFile, tlsCfg.KeyFile, tlsCfg.Hosts)
		if err != nil {
			log.Fatalf("Development certificate generation failed: %v", err)
		}
		if created {
			logger.Warn("Generated self-signed development certificate", "cert", tlsCfg.CertFile)
		}
	}

	// Graceful shutdown handling
	serverErrors := make(chan error, 1)
	go func() {
		logger.Info("Server starting", "address", cfg.Server.Addr, "tls", tlsCfg.Enabled)
		if tlsCfg.Enabled {
			serverErrors <- server.ListenAndServeTLS(tlsCfg.CertFile, tlsCfg.KeyFile)
			return
		}
		serverErrors <- server.ListenAndServe()
	}()

	// Wait for shutdown signal
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Server error", "error", err)
			store.Close()
			os.Exit(1)
		}
	case sig := <-shutdown:
		logger.Info("Shutdown signal received", "signal", sig.String())

		// Create shutdown context with timeout
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := server.Shutdown(ctx); err != nil {
			logger.Error("Server shutdown error", "error", err)
			if err := server.Close(); err != nil {
				logger.Error("Server close error", "error", err)
			}
		}

		logger.Info("Server stopped gracefully")
	}
}
