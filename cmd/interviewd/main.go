package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aihr-dev/interviewd/internal/dotenv"
	"github.com/aihr-dev/interviewd/pkg/analyzer"
	"github.com/aihr-dev/interviewd/pkg/gateway/config"
	gatewayserver "github.com/aihr-dev/interviewd/pkg/gateway/server"
	"github.com/aihr-dev/interviewd/pkg/interview"
	"github.com/aihr-dev/interviewd/pkg/notify"
	"github.com/aihr-dev/interviewd/pkg/rooms"
	"github.com/aihr-dev/interviewd/pkg/store/memory"
	"github.com/aihr-dev/interviewd/pkg/store/postgres"
	"github.com/aihr-dev/interviewd/pkg/voice/stt"
	"github.com/aihr-dev/interviewd/pkg/voice/tts"
)

type serveDeps struct {
	loadConfig   func() (config.Config, error)
	buildServer  func(ctx context.Context, cfg config.Config, logger *slog.Logger) (*gatewayserver.Server, func(), error)
	signalNotify func(chan<- os.Signal, ...os.Signal)
	signalStop   func(chan<- os.Signal)
}

func defaultServeDeps() serveDeps {
	return serveDeps{
		loadConfig:  config.LoadFromEnv,
		buildServer: buildServer,
		signalNotify: func(c chan<- os.Signal, sig ...os.Signal) {
			signal.Notify(c, sig...)
		},
		signalStop: signal.Stop,
	}
}

// sttTranscriber narrows an stt.Provider to the orchestrator's contract.
type sttTranscriber struct {
	provider stt.Provider
}

func (t sttTranscriber) Transcribe(ctx context.Context, audio []byte) (string, error) {
	transcript, err := t.provider.Transcribe(ctx, audio, stt.TranscribeOptions{})
	if err != nil {
		return "", err
	}
	return transcript.Text, nil
}

// buildServer wires the store, providers, orchestrator, and gateway. The
// returned cleanup closes the store pool.
func buildServer(ctx context.Context, cfg config.Config, logger *slog.Logger) (*gatewayserver.Server, func(), error) {
	cleanup := func() {}

	var store interview.Store
	switch cfg.Store {
	case config.StorePostgres:
		if err := postgres.Migrate(ctx, cfg.PostgresDSN); err != nil {
			return nil, cleanup, fmt.Errorf("migrate: %w", err)
		}
		pg, err := postgres.Open(ctx, cfg.PostgresDSN)
		if err != nil {
			return nil, cleanup, fmt.Errorf("open postgres: %w", err)
		}
		store = pg
		cleanup = pg.Close
	default:
		store = memory.New()
	}

	if cfg.GeminiAPIKey == "" {
		return nil, cleanup, errors.New("INTERVIEWD_GEMINI_API_KEY is required")
	}
	sttProvider, err := stt.NewGemini(ctx, cfg.GeminiAPIKey)
	if err != nil {
		return nil, cleanup, fmt.Errorf("stt provider: %w", err)
	}
	gem, err := analyzer.NewGemini(ctx, cfg.GeminiAPIKey)
	if err != nil {
		return nil, cleanup, fmt.Errorf("analyzer: %w", err)
	}
	if cfg.GeminiModel != "" {
		sttProvider.WithModel(cfg.GeminiModel)
		gem.WithModel(cfg.GeminiModel)
	}

	var provisioner interview.RoomProvisioner
	if cfg.RoomServerURL != "" {
		client, rerr := rooms.NewClient(rooms.Config{
			URL:       cfg.RoomServerURL,
			WSURL:     cfg.RoomServerWSURL,
			APIKey:    cfg.RoomAPIKey,
			APISecret: cfg.RoomAPISecret,
			TokenTTL:  cfg.RoomTokenTTL,
		})
		if rerr != nil {
			return nil, cleanup, fmt.Errorf("room client: %w", rerr)
		}
		provisioner = client
	}

	orch, err := interview.New(interview.Dependencies{
		Store:       store,
		Transcriber: sttTranscriber{provider: sttProvider},
		Analyzer:    gem,
		Planner:     gem,
		Rooms:       provisioner,
		Logger:      logger,
		Config: interview.Config{
			Policy: interview.PolicyConfig{
				MaxTurns:    cfg.MaxTurns,
				MinTurns:    cfg.MinTurns,
				AcceptScore: cfg.AcceptScore,
				RejectScore: cfg.RejectScore,
			},
			TurnTimeout: cfg.TurnTimeout,
		},
	})
	if err != nil {
		return nil, cleanup, fmt.Errorf("orchestrator: %w", err)
	}

	var ttsProvider tts.Provider
	if cfg.ElevenLabsKey != "" {
		ttsProvider = tts.NewElevenLabs(cfg.ElevenLabsKey)
	}

	var mailer *notify.Mailer
	if cfg.SMTPHost != "" {
		mailer, err = notify.NewMailer(notify.Config{
			Host:     cfg.SMTPHost,
			Port:     cfg.SMTPPort,
			User:     cfg.SMTPUser,
			Password: cfg.SMTPPassword,
		})
		if err != nil {
			return nil, cleanup, fmt.Errorf("mailer: %w", err)
		}
	}

	srv := gatewayserver.New(cfg, logger, gatewayserver.Dependencies{
		Orchestrator: orch,
		TTS:          ttsProvider,
		Mailer:       mailer,
	})
	return srv, cleanup, nil
}

func buildHTTPServer(cfg config.Config, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              cfg.Addr,
		Handler:           handler,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		ReadTimeout:       cfg.ReadTimeout,
	}
}

func runServe(ctx context.Context, logger *slog.Logger, deps serveDeps) error {
	if deps.loadConfig == nil {
		return errors.New("missing loadConfig dependency")
	}
	if deps.buildServer == nil {
		return errors.New("missing buildServer dependency")
	}
	if deps.signalNotify == nil || deps.signalStop == nil {
		return errors.New("missing signal dependency")
	}
	if logger == nil {
		logger = slog.Default()
	}

	cfg, err := deps.loadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	buildCtx, buildCancel := context.WithTimeout(ctx, 30*time.Second)
	defer buildCancel()
	srv, cleanup, err := deps.buildServer(buildCtx, cfg, logger)
	if err != nil {
		if cleanup != nil {
			cleanup()
		}
		return err
	}
	defer cleanup()

	httpSrv := buildHTTPServer(cfg, srv.Handler())

	logger.Info("starting interviewd",
		"addr", cfg.Addr,
		"auth_mode", cfg.AuthMode,
		"store", cfg.Store,
	)

	listenErrCh := make(chan error, 1)
	go func() {
		err := httpSrv.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			listenErrCh <- err
			return
		}
		listenErrCh <- nil
	}()

	sigCh := make(chan os.Signal, 1)
	deps.signalNotify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer deps.signalStop(sigCh)

	select {
	case err := <-listenErrCh:
		if err != nil {
			return fmt.Errorf("serve: %w", err)
		}
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case sig := <-sigCh:
		logger.Info("shutdown signal received", "signal", sig.String())
	}

	srv.SetDraining()
	srv.WarnLiveSessionsDraining()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.ShutdownGracePeriod)
	defer shutdownCancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown http server: %w", err)
	}

	waitCtx, waitCancel := context.WithTimeout(context.Background(), cfg.ShutdownGracePeriod)
	defer waitCancel()
	if !srv.WaitLiveSessions(waitCtx) {
		srv.CancelLiveSessions()
	}

	if err := <-listenErrCh; err != nil {
		return fmt.Errorf("serve: %w", err)
	}

	logger.Info("interviewd stopped")
	return nil
}

func runMain(ctx context.Context, stderr io.Writer, deps serveDeps) int {
	if stderr == nil {
		stderr = os.Stderr
	}
	logger := slog.New(slog.NewTextHandler(stderr, nil))

	if err := dotenv.LoadFile(".env"); err != nil {
		fmt.Fprintf(stderr, "interviewd: %v\n", err)
		return 1
	}

	if err := runServe(ctx, logger, deps); err != nil {
		fmt.Fprintf(stderr, "interviewd: %v\n", err)
		return 1
	}
	return 0
}

func main() {
	os.Exit(runMain(context.Background(), os.Stderr, defaultServeDeps()))
}
