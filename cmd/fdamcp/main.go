package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	mcpGoServer "github.com/mark3labs/mcp-go/server"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/i2y/fdamcp/configs"
	"github.com/i2y/fdamcp/internal/adapter/inbound/mcphttp"
	"github.com/i2y/fdamcp/internal/adapter/inbound/mcpserver"
	"github.com/i2y/fdamcp/internal/adapter/outbound/memrepo"
	"github.com/i2y/fdamcp/internal/adapter/outbound/openfda"
	"github.com/i2y/fdamcp/internal/adapter/outbound/schemavalidator"
	"github.com/i2y/fdamcp/internal/domain"
	"github.com/i2y/fdamcp/internal/usecase"
)

const serviceName = "fdamcp"

// options holds the command line flags. Empty values defer to the configuration.
type options struct {
	logLevel  string
	transport string
}

func parseFlags(args []string, stderr io.Writer) (options, error) {
	var opts options
	fs := flag.NewFlagSet(serviceName, flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&opts.logLevel, "log-level", "", "Log level: DEBUG, INFO, WARNING or ERROR (default INFO)")
	fs.StringVar(&opts.transport, "transport", "", "Transport mode: stdio or sse (default stdio)")
	if err := fs.Parse(args); err != nil {
		return options{}, err
	}
	return opts, nil
}

// applyFlags overlays the command line flags on cfg and validates the result.
func applyFlags(cfg *configs.Config, opts options) error {
	if opts.logLevel != "" {
		cfg.LogLevel = opts.logLevel
	}
	if opts.transport != "" {
		cfg.Transport = opts.transport
	}
	return cfg.Validate()
}

// newLogger builds the process logger. stdout is reserved for the stdio transport, so logs
// go to stderr unless a log file is configured.
func newLogger(cfg *configs.Config, stderr io.Writer) (*slog.Logger, func() error, error) {
	level, err := cfg.ParsedLogLevel()
	if err != nil {
		return nil, nil, err
	}
	out := stderr
	closeFn := func() error { return nil }
	if cfg.LogFile != "" {
		f, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open log file '%s': %w", cfg.LogFile, err)
		}
		out = f
		closeFn = f.Close
	}
	return slog.New(slog.NewTextHandler(out, &slog.HandlerOptions{Level: level})), closeFn, nil
}

func main() {
	opts, err := parseFlags(os.Args[1:], os.Stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(0)
		}
		os.Exit(1)
	}

	// === Configuration ===
	cfg, err := configs.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	if err := applyFlags(cfg, opts); err != nil {
		fmt.Fprintf(os.Stderr, "Invalid configuration: %v\n", err)
		os.Exit(1)
	}

	// === Logging ===
	logger, closeLog, err := newLogger(cfg, os.Stderr)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	slog.SetDefault(logger)
	logger.Info("Logger initialized.", slog.String("level", cfg.LogLevel), slog.String("transport", cfg.Transport))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err = run(ctx, cfg, logger)
	stop()
	if err != nil {
		logger.Error("Server failed", slog.Any("error", err))
		_ = closeLog()
		os.Exit(1)
	}
	_ = closeLog()
}

func run(ctx context.Context, cfg *configs.Config, logger *slog.Logger) error {
	// === OpenTelemetry Initialization ===
	shutdownOtel, err := initOtelProvider(cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize OpenTelemetry: %w", err)
	}
	defer func() {
		if err := shutdownOtel(context.Background()); err != nil {
			logger.Error("Failed to shutdown OpenTelemetry TracerProvider.", slog.Any("error", err))
		}
	}()

	// === Dependency Injection ===
	logger.Info("Initializing dependencies...")
	httpClient := &http.Client{Timeout: cfg.HTTPClientTimeout}
	fdaClient, err := openfda.New(cfg.OpenFDABaseURL, httpClient, logger)
	if err != nil {
		return err
	}
	logger.Debug("openFDA client configured.", slog.String("base_url", cfg.OpenFDABaseURL), slog.Duration("timeout", cfg.HTTPClientTimeout))

	repo := memrepo.NewInMemoryToolRepository(logger)
	if err := repo.Save(ctx, domain.Tools()); err != nil {
		return fmt.Errorf("failed to store tool catalog: %w", err)
	}

	var resourceOpts []usecase.ReadResourceOption
	if len(cfg.PopularDrugs) > 0 {
		resourceOpts = append(resourceOpts, usecase.WithPopularDrugs(cfg.PopularDrugs))
	}
	handlers := mcpserver.NewHandlers(
		usecase.NewServeToolsUseCase(repo, logger),
		usecase.NewInvokeToolUseCase(repo, schemavalidator.New(logger), fdaClient, logger),
		usecase.NewReadResourceUseCase(fdaClient, logger, resourceOpts...),
		usecase.NewGetPromptUseCase(logger),
		logger,
	)

	// === MCP Server (mark3labs/mcp-go) ===
	mcpSrv := mcpserver.NewServer(logger)
	if err := handlers.Register(ctx, mcpSrv); err != nil {
		return fmt.Errorf("failed to register MCP catalog: %w", err)
	}
	logger.Info("MCP server initialized.", slog.String("name", mcpserver.ServerName), slog.String("version", mcpserver.ServerVersion))

	// === Transport Mode Selection ===
	switch cfg.Transport {
	case configs.TransportStdio:
		err = serveStdio(ctx, mcpSrv, logger)
	case configs.TransportSSE:
		err = serveSSE(ctx, cfg, mcpSrv, handlers, logger)
	default:
		return fmt.Errorf("invalid transport mode %q", cfg.Transport)
	}
	if err != nil {
		return err
	}
	if ctx.Err() != nil {
		logger.Info("Server stopped by user")
	}
	return nil
}

func serveStdio(ctx context.Context, mcpSrv *mcpGoServer.MCPServer, logger *slog.Logger) error {
	logger.Info("Starting in STDIO mode")
	stdioServer := mcpGoServer.NewStdioServer(mcpSrv)
	stdioServer.SetErrorLogger(slog.NewLogLogger(logger.Handler(), slog.LevelError))

	err := stdioServer.Listen(ctx, os.Stdin, os.Stdout)
	if err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("STDIO server error: %w", err)
	}
	return nil
}

func serveSSE(ctx context.Context, cfg *configs.Config, mcpSrv *mcpGoServer.MCPServer, handlers *mcpserver.Handlers, logger *slog.Logger) error {
	logger.Info("Starting in SSE mode")
	ctx, cancel := context.WithCancelCause(ctx)
	defer cancel(nil)

	sseServer := mcpGoServer.NewSSEServer(mcpSrv, mcpGoServer.WithBaseURL("http://"+cfg.ListenAddr))

	// === Admin HTTP Server Setup ===
	adminMux := http.NewServeMux()
	mcphttp.NewHandlers(handlers, logger).RegisterAdminRoutes(adminMux)
	adminServer := &http.Server{
		Addr:    cfg.AdminAddr,
		Handler: adminMux,
	}
	go func() {
		logger.Info("Admin HTTP server starting.", slog.String("address", adminServer.Addr))
		if err := adminServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			cancel(fmt.Errorf("admin HTTP server failed: %w", err))
		}
	}()

	// === MCP SSE Server Startup ===
	go func() {
		logger.Info("MCP SSE server starting.", slog.String("address", cfg.ListenAddr))
		if err := sseServer.Start(cfg.ListenAddr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			cancel(fmt.Errorf("MCP SSE server failed: %w", err))
		}
	}()

	<-ctx.Done()
	cause := context.Cause(ctx)

	// === Server Shutdown ===
	logger.Info("Shutting down servers...")
	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancelShutdown()

	if err := adminServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("Admin HTTP server graceful shutdown failed.", slog.Any("error", err))
	}
	if err := sseServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("MCP SSE server graceful shutdown failed.", slog.Any("error", err))
	}
	logger.Info("Servers shut down.")

	if errors.Is(cause, context.Canceled) {
		return nil
	}
	return cause
}

// initOtelProvider initializes the OpenTelemetry SDK with an OTLP exporter, a stdout
// exporter, or both. It returns a shutdown function to be called on application exit.
func initOtelProvider(cfg *configs.Config) (func(context.Context) error, error) {
	ctx := context.Background()

	if cfg.OtelExporterOtlpEndpoint == "" && !cfg.OtelTracesStdout {
		slog.Info("No trace exporter configured, OpenTelemetry tracing disabled.")
		return func(context.Context) error { return nil }, nil
	}

	var (
		tpOpts  []sdktrace.TracerProviderOption
		closers []func(context.Context) error
	)
	closeAll := func(ctx context.Context) error {
		var errs []error
		for _, c := range closers {
			errs = append(errs, c(ctx))
		}
		return errors.Join(errs...)
	}

	if cfg.OtelExporterOtlpEndpoint != "" {
		slog.Info("Initializing OTLP exporter.", slog.String("endpoint", cfg.OtelExporterOtlpEndpoint))

		grpcOpts := []grpc.DialOption{}
		if cfg.OtelExporterOtlpInsecure {
			grpcOpts = append(grpcOpts, grpc.WithTransportCredentials(insecure.NewCredentials()))
			slog.Warn("Using insecure connection for OTLP exporter.")
		} else {
			grpcOpts = append(grpcOpts, grpc.WithTransportCredentials(credentials.NewClientTLSFromCert(nil, "")))
		}

		conn, err := grpc.NewClient(cfg.OtelExporterOtlpEndpoint, grpcOpts...)
		if err != nil {
			return nil, fmt.Errorf("failed to create gRPC connection to OTLP endpoint: %w", err)
		}
		closers = append(closers, func(context.Context) error { return conn.Close() })

		traceExporter, err := otlptracegrpc.New(ctx, otlptracegrpc.WithGRPCConn(conn))
		if err != nil {
			_ = closeAll(ctx)
			return nil, fmt.Errorf("failed to create OTLP trace exporter: %w", err)
		}
		tpOpts = append(tpOpts, sdktrace.WithBatcher(traceExporter))
	}

	if cfg.OtelTracesStdout {
		stdoutExporter, err := stdouttrace.New(stdouttrace.WithWriter(os.Stderr), stdouttrace.WithPrettyPrint())
		if err != nil {
			_ = closeAll(ctx)
			return nil, fmt.Errorf("failed to create stdout trace exporter: %w", err)
		}
		tpOpts = append(tpOpts, sdktrace.WithSyncer(stdoutExporter))
	}

	r, err := resource.Merge(
		resource.Default(),
		resource.NewSchemaless(
			semconv.ServiceNameKey.String(serviceName),
			semconv.ServiceVersionKey.String(mcpserver.ServerVersion),
		),
	)
	if err != nil {
		_ = closeAll(ctx)
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}

	tp := sdktrace.NewTracerProvider(append(tpOpts, sdktrace.WithResource(r))...)
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(propagation.TraceContext{}, propagation.Baggage{}))
	slog.Info("OpenTelemetry TracerProvider configured.")

	return func(ctx context.Context) error {
		providerErr := tp.Shutdown(ctx)
		return errors.Join(providerErr, closeAll(ctx))
	}, nil
}
