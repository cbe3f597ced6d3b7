package main

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"

	"i4.energy/across/valvegw/journal"
	"i4.energy/across/valvegw/modem"
	"i4.energy/across/valvegw/valve"
)

// Sender queues an outbound SMS and waits for the modem's answer.
type Sender interface {
	Send(ctx context.Context, number, body string) (int, modem.Status, error)
}

// History lists journaled traffic, newest first.
type History interface {
	ReceivedMessages(ctx context.Context, limit int) ([]journal.Received, error)
	SentMessages(ctx context.Context, limit int) ([]journal.Sent, error)
}

// Server handles incoming HTTP requests for the valve gateway
type Server struct {
	Logger  *slog.Logger
	Sender  Sender
	Bank    *valve.Bank
	Metrics http.Handler
	// History is optional.
	History History

	// PingInterval keeps idle event streams alive.
	PingInterval time.Duration

	router   *mux.Router
	upgrader websocket.Upgrader
}

// NewServer wires the routes.
func NewServer(s *Server) *Server {
	if s.Logger == nil {
		s.Logger = slog.New(slog.DiscardHandler)
	}
	if s.PingInterval == 0 {
		s.PingInterval = 30 * time.Second
	}
	s.upgrader = websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool { return true },
	}

	r := mux.NewRouter()
	r.HandleFunc("/sms", s.handleSMS).Methods(http.MethodPost)
	r.HandleFunc("/valves", s.handleValves).Methods(http.MethodGet)
	r.HandleFunc("/valves/{valve:[0-9]+}", s.handleSetValve).Methods(http.MethodPut)
	r.HandleFunc("/events", s.handleEvents)
	if s.History != nil {
		r.HandleFunc("/messages/{direction:received|sent}", s.handleMessages).Methods(http.MethodGet)
	}
	if s.Metrics != nil {
		r.Handle("/metrics", s.Metrics).Methods(http.MethodGet)
	}
	s.router = r
	return s
}

// ServeHTTP implements the http.Handler interface for the Server struct
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) sendError(w http.ResponseWriter, message string, statusCode int) {
	if message == "" {
		w.WriteHeader(statusCode)
		return
	}

	type ErrorResponse struct {
		Message string `json:"message"`
	}
	s.sendJSON(w, ErrorResponse{Message: message}, statusCode)
}

func (s *Server) sendJSON(w http.ResponseWriter, v any, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.Logger.Warn("Failed to write response", "error", err)
	}
}

// handleSMS queues an outbound SMS and reports the modem's message reference
func (s *Server) handleSMS(w http.ResponseWriter, r *http.Request) {
	type SMSRequest struct {
		To      string `json:"to"`
		Message string `json:"message"`
	}

	var req SMSRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.sendError(w, err.Error(), http.StatusBadRequest)
		return
	}

	if req.To == "" || req.Message == "" {
		s.sendError(w, "both 'to' and 'message' fields are required", http.StatusBadRequest)
		return
	}

	ref, st, err := s.Sender.Send(r.Context(), req.To, req.Message)
	switch {
	case errors.Is(err, valve.ErrStopped):
		s.sendError(w, err.Error(), http.StatusServiceUnavailable)
		return
	case errors.Is(err, modem.ErrInvalidMessage):
		s.sendError(w, err.Error(), http.StatusBadRequest)
		return
	case st == modem.Timeout:
		s.Logger.Error("Timed out sending SMS", "error", err, "to", req.To)
		s.sendError(w, "modem did not answer", http.StatusGatewayTimeout)
		return
	case st != modem.OK:
		s.Logger.Error("Failed to send SMS", "status", st, "error", err, "to", req.To)
		s.sendError(w, "modem rejected the message: "+st.String(), http.StatusBadGateway)
		return
	}

	s.Logger.Info("SMS sent successfully", "to", req.To, "message_length", len(req.Message), "ref", ref)
	s.sendJSON(w, map[string]int{"ref": ref}, http.StatusOK)
}

func (s *Server) handleValves(w http.ResponseWriter, r *http.Request) {
	s.sendJSON(w, s.Bank.States(), http.StatusOK)
}

// handleSetValve drives a valve the same way an SMS command would
func (s *Server) handleSetValve(w http.ResponseWriter, r *http.Request) {
	n, _ := strconv.Atoi(mux.Vars(r)["valve"])

	var req struct {
		Open *bool `json:"open"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.sendError(w, err.Error(), http.StatusBadRequest)
		return
	}
	if req.Open == nil {
		s.sendError(w, "'open' field is required", http.StatusBadRequest)
		return
	}

	cmd, ok := valve.CommandFor(n, *req.Open)
	if !ok {
		s.sendError(w, "no such valve", http.StatusNotFound)
		return
	}
	ev, err := s.Bank.Apply(cmd, "http")
	if err != nil {
		s.Logger.Error("Failed to set valve", "valve", n, "error", err)
		s.sendError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	s.sendJSON(w, ev, http.StatusOK)
}

func (s *Server) handleMessages(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			s.sendError(w, "'limit' must be a positive number", http.StatusBadRequest)
			return
		}
		limit = n
	}

	var (
		rows any
		err  error
	)
	if mux.Vars(r)["direction"] == "sent" {
		rows, err = s.History.SentMessages(r.Context(), limit)
	} else {
		rows, err = s.History.ReceivedMessages(r.Context(), limit)
	}
	if err != nil {
		s.Logger.Error("Failed to list messages", "error", err)
		s.sendError(w, "journal unavailable", http.StatusInternalServerError)
		return
	}
	s.sendJSON(w, rows, http.StatusOK)
}

// handleEvents streams valve events to a websocket client
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.Logger.Warn("WebSocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	events, unsubscribe := s.Bank.Subscribe(16)
	defer unsubscribe()

	// The reader only notices the client going away.
	gone := make(chan struct{})
	go func() {
		defer close(gone)
		for {
			if _, _, err := conn.NextReader(); err != nil {
				return
			}
		}
	}()

	s.Logger.Debug("WebSocket client connected", "remote", r.RemoteAddr)
	ping := time.NewTicker(s.PingInterval)
	defer ping.Stop()

	for {
		select {
		case ev := <-events:
			if err := conn.WriteJSON(ev); err != nil {
				s.Logger.Debug("WebSocket client disconnected", "remote", r.RemoteAddr, "error", err)
				return
			}
		case <-ping.C:
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				s.Logger.Debug("WebSocket client disconnected", "remote", r.RemoteAddr, "error", err)
				return
			}
		case <-gone:
			return
		case <-r.Context().Done():
			return
		}
	}
}
