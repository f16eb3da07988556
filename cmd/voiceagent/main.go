package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/techflow-ai/voiceagent/internal/agents"
	"github.com/techflow-ai/voiceagent/internal/calendar"
	"github.com/techflow-ai/voiceagent/internal/campaigns"
	"github.com/techflow-ai/voiceagent/internal/chat"
	"github.com/techflow-ai/voiceagent/internal/config"
	"github.com/techflow-ai/voiceagent/internal/email"
	"github.com/techflow-ai/voiceagent/internal/httpapi"
	"github.com/techflow-ai/voiceagent/internal/observability"
	"github.com/techflow-ai/voiceagent/internal/realtime"
	"github.com/techflow-ai/voiceagent/internal/session"
	"github.com/techflow-ai/voiceagent/internal/tools"
)

func main() {
	// Local development convenience; a missing .env is fine.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	metrics := observability.NewMetrics(cfg.MetricsNamespace)

	ctx := context.Background()
	agentStore, err := agents.NewStore(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("agent store init failed: %v", err)
	}
	defer agentStore.Close()

	calendarClient := calendar.NewClient(calendar.Config{
		APIKey:      cfg.CalComAPIKey,
		EventTypeID: cfg.CalComEventTypeID,
		BaseURL:     cfg.CalComBaseURL,
		HTTPTimeout: cfg.CollaboratorTimeout,
		Metrics:     metrics,
	})
	emailClient := email.NewClient(email.Config{
		APIKey:      cfg.ResendAPIKey,
		FromAddress: cfg.EmailFrom,
		BaseURL:     cfg.ResendBaseURL,
		HTTPTimeout: cfg.CollaboratorTimeout,
	})
	dispatcher := tools.NewDispatcher(calendarClient, emailClient, metrics)

	connector := realtime.NewOpenAIConnector(realtime.ConnectorConfig{
		URL:              cfg.OpenAIRealtimeURL,
		APIKey:           cfg.OpenAIAPIKey,
		HandshakeTimeout: cfg.UpstreamHandshakeTimeout,
	})
	bridge := realtime.NewBridge(connector, dispatcher, metrics)

	chatClient := chat.NewClient(chat.ClientConfig{
		URL:    cfg.OpenAIChatURL,
		APIKey: cfg.OpenAIAPIKey,
		Model:  cfg.ChatModel,
	})
	chatService := chat.NewService(agentStore, chatClient, dispatcher)

	campaignStore := campaigns.NewStore()
	campaignSender := campaigns.NewSender(campaignStore, emailClient, cfg.FrontendURL, metrics)

	sessions := session.NewManager()
	sessions.SetCloseHook(func(_ *session.Session) {
		metrics.SessionEvents.WithLabelValues("closed").Inc()
		metrics.ActiveSessions.Set(float64(sessions.ActiveCount()))
	})

	api := httpapi.New(cfg, sessions, agentStore, chatService, bridge, campaignStore, campaignSender, metrics)
	httpServer := &http.Server{
		Addr:    cfg.BindAddr,
		Handler: api.Router(),
	}

	go func() {
		log.Printf("server listening on %s", cfg.BindAddr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("listen error: %v", err)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh
	log.Printf("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Printf("graceful shutdown failed: %v", err)
		_ = httpServer.Close()
	}

	log.Printf("shutdown complete")
}
