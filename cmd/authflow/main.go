package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/getmentor/authflow/config"
	"github.com/getmentor/authflow/internal/authapi"
	"github.com/getmentor/authflow/internal/flow"
	"github.com/getmentor/authflow/internal/screens"
	"github.com/getmentor/authflow/internal/session"
	"github.com/getmentor/authflow/pkg/httpclient"
	"github.com/getmentor/authflow/pkg/logger"
	"github.com/getmentor/authflow/pkg/tracing"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// stdout belongs to the screens, logs go to stderr and the optional file sink
	err = logger.Initialize(logger.Config{
		Level:       cfg.Logging.Level,
		LogDir:      cfg.Logging.Dir,
		Environment: cfg.App.Env,
		ServiceName: cfg.Observability.ServiceName,
		MaxSizeMB:   cfg.Logging.MaxSizeMB,
		MaxBackups:  cfg.Logging.MaxBackups,
		MaxAgeDays:  cfg.Logging.MaxAgeDays,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("Starting authflow",
		zap.String("version", cfg.App.Version),
		zap.String("environment", cfg.App.Env),
		zap.String("api_base_url", cfg.API.BaseURL),
	)

	tracerShutdown, err := tracing.InitTracer(tracing.Config{
		ServiceName:      cfg.Observability.ServiceName,
		ServiceNamespace: cfg.Observability.ServiceNamespace,
		ServiceVersion:   cfg.Observability.ServiceVersion,
		Environment:      cfg.App.Env,
		Endpoint:         cfg.Observability.ExporterEndpoint,
	})
	if err != nil {
		logger.Fatal("Failed to initialize tracer", zap.Error(err))
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if shutdownErr := tracerShutdown(ctx); shutdownErr != nil {
			logger.Error("Failed to shutdown tracer", zap.Error(shutdownErr))
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	api := authapi.NewClient(
		cfg.API.BaseURL,
		httpclient.NewClientWithTimeout(cfg.API.Timeout),
		authapi.Options{PreflightProbe: cfg.API.PreflightProbe, ProbeCooldown: cfg.API.ProbeCooldown},
	)
	sess := session.NewContainer(api)

	startOpts, err := startOptions(cfg.Flow.StartScreen)
	if err != nil {
		logger.Fatal("Invalid start screen", zap.Error(err))
	}

	var term *terminal
	navOpts := append([]flow.Option{flow.WithListener(func(from, to flow.Entry) {
		term.render(from, to)
	})}, startOpts...)
	nav := flow.NewNavigator(navOpts...)
	ctrl := screens.NewController(sess, nav, screens.Options{
		SuccessDelay: cfg.Flow.SuccessDelay,
		Phone:        cfg.Flow.ContactPhone,
	})
	term = newTerminal(ctrl, os.Stdin, os.Stdout)

	splash := nav.StartSplashTimer(ctx, cfg.Flow.SplashDelay)

	if err := term.run(ctx, splash); err != nil && err != context.Canceled {
		logger.Error("Session ended with error", zap.Error(err))
	}
	logger.Info("authflow exited")
}

// startOptions roots the navigator at the configured start screen
func startOptions(name string) ([]flow.Option, error) {
	start, err := flow.ParseStartScreen(name)
	if err != nil {
		return nil, err
	}
	if start == flow.InitialScreen {
		return nil, nil
	}
	return []flow.Option{flow.WithStart(start, flow.Params{})}, nil
}
