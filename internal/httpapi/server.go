package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/techflow-ai/voiceagent/internal/agents"
	"github.com/techflow-ai/voiceagent/internal/campaigns"
	"github.com/techflow-ai/voiceagent/internal/chat"
	"github.com/techflow-ai/voiceagent/internal/config"
	"github.com/techflow-ai/voiceagent/internal/observability"
	"github.com/techflow-ai/voiceagent/internal/protocol"
	"github.com/techflow-ai/voiceagent/internal/realtime"
	"github.com/techflow-ai/voiceagent/internal/session"
	"github.com/techflow-ai/voiceagent/internal/tools"
)

// SessionRunner drives one realtime session end to end.
type SessionRunner interface {
	Run(ctx context.Context, sess *session.Session, agent realtime.AgentConfig, inbound <-chan []byte, outbound chan<- any) error
}

type Server struct {
	cfg       config.Config
	sessions  *session.Manager
	agents    agents.Store
	chat      *chat.Service
	runner    SessionRunner
	campaigns *campaigns.Store
	sender    *campaigns.Sender
	metrics   *observability.Metrics
	upgrader  websocket.Upgrader
}

func New(cfg config.Config, sessions *session.Manager, store agents.Store, chatSvc *chat.Service, runner SessionRunner, campaignStore *campaigns.Store, sender *campaigns.Sender, metrics *observability.Metrics) *Server {
	return &Server{
		cfg:       cfg,
		sessions:  sessions,
		agents:    store,
		chat:      chatSvc,
		runner:    runner,
		campaigns: campaignStore,
		sender:    sender,
		metrics:   metrics,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin: func(r *http.Request) bool {
				// Only allow browser websocket connections from the same
				// origin unless explicitly opened up. Non-browser clients
				// omit Origin and are allowed.
				if cfg.AllowAnyOrigin {
					return true
				}
				origin := strings.TrimSpace(r.Header.Get("Origin"))
				if origin == "" {
					return true
				}
				u, err := url.Parse(origin)
				if err != nil {
					return false
				}
				if u.Scheme != "http" && u.Scheme != "https" {
					return false
				}
				return strings.EqualFold(u.Host, r.Host)
			},
		},
	}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Get("/healthz", s.handleHealth)
	r.Get("/readyz", s.handleReady)
	r.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
		observability.MetricsHandler().ServeHTTP(w, r)
	})

	r.Route("/api/agents", func(r chi.Router) {
		r.Get("/", s.handleListAgents)
		r.Post("/", s.handleCreateAgent)
		r.Get("/{id}", s.handleGetAgent)
		r.Put("/{id}", s.handleUpdateAgent)
		r.Delete("/{id}", s.handleDeleteAgent)
		r.Post("/{id}/sessions", s.handleCreateChatSession)
		r.Get("/{id}/sessions/{session_id}", s.handleGetChatSession)
		r.Post("/{id}/sessions/{session_id}/chat", s.handleChat)
		r.Get("/{id}/realtime-config", s.handleRealtimeConfig)
	})

	r.Route("/api/campaigns", func(r chi.Router) {
		r.Get("/", s.handleListCampaigns)
		r.Post("/", s.handleCreateCampaign)
		r.Get("/validate-token/{id}/{token}", s.handleValidateToken)
		r.Get("/{id}", s.handleGetCampaign)
		r.Put("/{id}", s.handleUpdateCampaign)
		r.Delete("/{id}", s.handleDeleteCampaign)
		r.Post("/{id}/contacts", s.handleAddContacts)
		r.Delete("/{id}/contacts/{contact_id}", s.handleRemoveContact)
		r.Patch("/{id}/contacts/{contact_id}/status", s.handleUpdateContactStatus)
		r.Post("/{id}/send", s.handleSendCampaign)
		r.Get("/{id}/stats", s.handleCampaignStats)
	})

	r.Get("/api/realtime/ws/{agent_id}", s.handleRealtimeWS)

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{
		"status":          "ok",
		"active_sessions": s.sessions.ActiveCount(),
	})
}

func (s *Server) handleReady(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{"status": "ready"})
}

// handleRealtimeWS owns the client leg of one voice session: it upgrades
// the connection, announces the session, then pumps frames between the
// socket and the bridge until either side goes away.
func (s *Server) handleRealtimeWS(w http.ResponseWriter, r *http.Request) {
	agentID := chi.URLParam(r, "agent_id")
	agent, err := s.agents.Get(r.Context(), agentID)
	if err != nil {
		if errors.Is(err, agents.ErrNotFound) {
			respondError(w, http.StatusNotFound, "agent_not_found", "agent not found")
			return
		}
		respondError(w, http.StatusInternalServerError, "store_error", err.Error())
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	sess := s.sessions.Open(agentID)
	s.metrics.ActiveSessions.Set(float64(s.sessions.ActiveCount()))
	s.metrics.SessionEvents.WithLabelValues("created").Inc()
	defer func() {
		s.sessions.Close(sess.ID)
		s.metrics.ActiveSessions.Set(float64(s.sessions.ActiveCount()))
		s.metrics.SessionEvents.WithLabelValues("ws_disconnected").Inc()
	}()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	inbound := make(chan []byte, 256)
	outbound := make(chan any, 256)

	// The session announcement is the first frame the client sees.
	outbound <- protocol.NewSessionInfo(sess.ID, sess.AgentID)

	runDone := make(chan struct{})
	go func() {
		defer close(runDone)
		cfg := realtime.AgentConfig{
			Model:        s.cfg.RealtimeModel,
			Voice:        s.cfg.RealtimeVoice,
			Instructions: agent.SystemInstructions,
			Tools:        tools.Manifest(),
		}
		_ = s.sessions.SetStatus(sess.ID, session.StatusActive)
		if err := s.runner.Run(ctx, sess, cfg, inbound, outbound); err != nil {
			_ = s.sessions.SetStatus(sess.ID, session.StatusErrored)
		}
		cancel()
	}()

	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		for {
			select {
			case <-ctx.Done():
				// The bridge queues its terminal error event before it
				// cancels; flush whatever is already queued so the client
				// still sees it.
				for {
					select {
					case msg, ok := <-outbound:
						if !ok {
							return
						}
						_ = conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
						if conn.WriteJSON(msg) != nil {
							return
						}
					default:
						return
					}
				}
			case msg, ok := <-outbound:
				if !ok {
					return
				}
				_ = conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
				if err := conn.WriteJSON(msg); err != nil {
					cancel()
					return
				}
			}
		}
	}()

	conn.SetReadLimit(2 << 20)

readLoop:
	for {
		msgType, data, err := conn.ReadMessage()
		if err != nil {
			break
		}
		if msgType != websocket.TextMessage {
			continue
		}
		select {
		case <-ctx.Done():
			break readLoop
		case inbound <- data:
		}
	}

	cancel()
	close(inbound)
	<-runDone
	<-writerDone
}

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

var errEmptyBody = errors.New("empty body")

func decodeJSON(r *http.Request, out any) error {
	if r.Body == nil {
		return errEmptyBody
	}
	defer r.Body.Close()
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(out); err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "eof") {
			return errEmptyBody
		}
		return err
	}
	return nil
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, errorResponse{Error: message, Code: code})
}
