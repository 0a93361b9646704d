package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	sessionapp "skyisle/internal/app/session"
	slotapp "skyisle/internal/app/slot"
	"skyisle/internal/domain/input"
)

// SlotService claims and opens save slots.
type SlotService interface {
	Claim(ctx context.Context, name, passphrase string) (slotapp.Result, error)
	Open(ctx context.Context, name, passphrase string) (slotapp.Result, error)
	ParseToken(token string) (slotapp.Claims, error)
}

type Handler struct {
	logger      zerolog.Logger
	slots       SlotService
	sessions    *sessionapp.Service
	ready       func(ctx context.Context) error
	corsOrigin  string
	maxBodySize int64
}

type contextKey string

const claimsContextKey contextKey = "slot_claims"

func NewHandler(logger zerolog.Logger, slots SlotService, sessions *sessionapp.Service, ready func(ctx context.Context) error, corsOrigin string, maxBodySize int64) *Handler {
	return &Handler{logger: logger, slots: slots, sessions: sessions, ready: ready, corsOrigin: corsOrigin, maxBodySize: maxBodySize}
}

func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(h.cors)

	r.Get("/healthz", h.health)
	r.Get("/readyz", h.readiness)

	r.Route("/v1", func(v1 chi.Router) {
		v1.Get("/session/ws", h.sessionWS)

		v1.Group(func(short chi.Router) {
			short.Use(middleware.Timeout(20 * time.Second))
			short.Post("/slots", h.claimSlot)
			short.Post("/slots/open", h.openSlot)

			short.Group(func(protected chi.Router) {
				protected.Use(h.authMiddleware)
				protected.Get("/session/state", h.sessionState)
			})
		})
	})

	return r
}

func (h *Handler) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok"})
}

func (h *Handler) readiness(w http.ResponseWriter, r *http.Request) {
	if h.ready != nil {
		if err := h.ready(r.Context()); err != nil {
			h.logger.Warn().Err(err).Msg("readiness check failed")
			writeJSON(w, http.StatusServiceUnavailable, map[string]any{"status": "unavailable"})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "ready", "sessions": h.sessions.Live()})
}

type slotRequest struct {
	Name       string `json:"name"`
	Passphrase string `json:"passphrase"`
}

func (h *Handler) claimSlot(w http.ResponseWriter, r *http.Request) {
	var req slotRequest
	if !h.decodeBody(w, r, &req) {
		return
	}
	res, err := h.slots.Claim(r.Context(), req.Name, req.Passphrase)
	if err != nil {
		switch {
		case errors.Is(err, slotapp.ErrNameTaken):
			writeJSON(w, http.StatusConflict, map[string]any{"error": err.Error()})
		case errors.Is(err, slotapp.ErrInvalidName), errors.Is(err, slotapp.ErrWeakPassphrase):
			writeJSON(w, http.StatusBadRequest, map[string]any{"error": err.Error()})
		default:
			h.logger.Error().Err(err).Msg("claim slot failed")
			writeJSON(w, http.StatusInternalServerError, map[string]any{"error": "internal error"})
		}
		return
	}
	writeJSON(w, http.StatusCreated, res)
}

func (h *Handler) openSlot(w http.ResponseWriter, r *http.Request) {
	var req slotRequest
	if !h.decodeBody(w, r, &req) {
		return
	}
	res, err := h.slots.Open(r.Context(), req.Name, req.Passphrase)
	if err != nil {
		if !errors.Is(err, slotapp.ErrInvalidCredentials) {
			h.logger.Error().Err(err).Msg("open slot failed")
		}
		writeJSON(w, http.StatusUnauthorized, map[string]any{"error": "invalid credentials"})
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *Handler) sessionState(w http.ResponseWriter, r *http.Request) {
	claims, ok := claimsFromCtx(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, map[string]any{"error": "unauthorized"})
		return
	}
	writeJSON(w, http.StatusOK, h.sessions.State(r.Context(), claims.SlotID))
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(_ *http.Request) bool {
		return true
	},
}

func (h *Handler) sessionWS(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		token = bearerToken(r)
	}
	if token == "" {
		writeJSON(w, http.StatusUnauthorized, map[string]any{"error": "missing token"})
		return
	}
	claims, err := h.slots.ParseToken(token)
	if err != nil {
		writeJSON(w, http.StatusUnauthorized, map[string]any{"error": "invalid token"})
		return
	}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}

	client, err := h.sessions.Attach(r.Context(), conn, claims)
	if err != nil {
		h.logger.Warn().Err(err).Str("slot", claims.Name).Msg("attach session failed")
		_ = conn.Close()
		return
	}
	go h.writePump(client)
	h.readPump(client)
}

type inputMessage struct {
	Type    string   `json:"type"`
	Held    []string `json:"held"`
	Pressed []string `json:"pressed"`
}

func (h *Handler) readPump(client *sessionapp.Client) {
	defer h.sessions.Detach(client)
	if client.Conn == nil {
		return
	}
	client.Conn.SetReadLimit(2048)
	_ = client.Conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	client.Conn.SetPongHandler(func(string) error {
		_ = client.Conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})

	for {
		var msg inputMessage
		if err := client.Conn.ReadJSON(&msg); err != nil {
			return
		}
		switch msg.Type {
		case "input":
			held, okHeld := parseActions(msg.Held)
			pressed, okPressed := parseActions(msg.Pressed)
			if !okHeld || !okPressed {
				h.sendError(client, "unknown action")
			}
			h.sessions.Input(client, held, pressed)
		default:
			h.sendError(client, "unknown message type")
		}
	}
}

// parseActions keeps the known actions and reports whether all were known.
func parseActions(names []string) ([]input.Action, bool) {
	out := make([]input.Action, 0, len(names))
	ok := true
	for _, n := range names {
		a, known := input.ParseAction(n)
		if !known {
			ok = false
			continue
		}
		out = append(out, a)
	}
	return out, ok
}

func (h *Handler) writePump(client *sessionapp.Client) {
	if client.Conn == nil {
		return
	}
	ticker := time.NewTicker(20 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case msg, ok := <-client.Send:
			if !ok {
				_ = client.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			_ = client.Conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := client.Conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			_ = client.Conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := client.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (h *Handler) sendError(client *sessionapp.Client, msg string) {
	h.sessions.Notify(client, map[string]any{"type": "error", "message": msg})
}

func (h *Handler) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r)
		if token == "" {
			writeJSON(w, http.StatusUnauthorized, map[string]any{"error": "missing bearer token"})
			return
		}
		claims, err := h.slots.ParseToken(token)
		if err != nil {
			writeJSON(w, http.StatusUnauthorized, map[string]any{"error": "invalid token"})
			return
		}
		ctx := context.WithValue(r.Context(), claimsContextKey, claims)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func bearerToken(r *http.Request) string {
	return strings.TrimSpace(strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer "))
}

func claimsFromCtx(ctx context.Context) (slotapp.Claims, bool) {
	c, ok := ctx.Value(claimsContextKey).(slotapp.Claims)
	return c, ok
}

func (h *Handler) cors(next http.Handler) http.Handler {
	origin := h.corsOrigin
	if origin == "" {
		origin = "*"
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", origin)
		w.Header().Set("Access-Control-Allow-Methods", "GET,POST,OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Authorization,Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (h *Handler) decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxBodySize)
	defer r.Body.Close()
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "invalid json"})
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
