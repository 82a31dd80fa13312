// Copyright 2025 DeskGuard
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package server exposes the analysis workflow over HTTP. It is a thin
// caller layer: all classification semantics live in the core packages.
package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"

	"deskguard/core/config"
	"deskguard/core/events"
	"deskguard/core/metrics"
	"deskguard/core/orchestrator"
	"deskguard/core/shared/logger"
	"deskguard/core/store"
)

// Server ties the HTTP routes to the workflow engine and its collaborators.
type Server struct {
	engine  *orchestrator.Engine
	tickets store.TicketRepository
	channel *events.Channel
	audit   *events.AuditTrail
	stats   *metrics.Accumulator
	log     *logger.Logger
}

// New builds a Server around an already-wired engine.
func New(engine *orchestrator.Engine, tickets store.TicketRepository, channel *events.Channel,
	audit *events.AuditTrail, stats *metrics.Accumulator) *Server {
	return &Server{
		engine:  engine,
		tickets: tickets,
		channel: channel,
		audit:   audit,
		stats:   stats,
		log:     logger.New("server"),
	}
}

// Router builds the HTTP route table.
func (s *Server) Router() http.Handler {
	r := mux.NewRouter()

	r.HandleFunc("/health", s.handleHealth).Methods("GET")
	r.HandleFunc("/api/v1/tickets", s.handleCreateTicket).Methods("POST")
	r.HandleFunc("/api/v1/tickets/{id}", s.handleGetTicket).Methods("GET")
	r.HandleFunc("/api/v1/tickets/{id}/analyze", s.handleAnalyze).Methods("POST")
	r.HandleFunc("/api/v1/events/recent", s.handleRecentEvents).Methods("GET")
	r.HandleFunc("/api/v1/audit/trail", s.handleAuditTrail).Methods("GET")
	r.HandleFunc("/api/v1/metrics/agents", s.handleAgentMetrics).Methods("GET")
	r.HandleFunc("/api/v1/metrics/reset", s.handleMetricsReset).Methods("POST")
	r.Handle("/metrics", promhttp.Handler()).Methods("GET")

	c := cors.New(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type"},
	})
	return c.Handler(r)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":    "healthy",
		"service":   "deskguard-core",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

type createTicketRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

func (s *Server) handleCreateTicket(w http.ResponseWriter, r *http.Request) {
	var req createTicketRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.Title == "" {
		writeError(w, http.StatusBadRequest, "title is required")
		return
	}

	ticket, err := s.tickets.Create(r.Context(), req.Title, req.Description)
	if err != nil {
		s.log.ErrorWithErr("", "Ticket create failed", err, nil)
		writeError(w, http.StatusInternalServerError, "failed to create ticket")
		return
	}
	writeJSON(w, http.StatusCreated, ticket)
}

func (s *Server) handleGetTicket(w http.ResponseWriter, r *http.Request) {
	id, ok := ticketID(w, r)
	if !ok {
		return
	}
	ticket, err := s.tickets.Get(r.Context(), id)
	if err == store.ErrTicketNotFound {
		writeError(w, http.StatusNotFound, "ticket not found")
		return
	}
	if err != nil {
		s.log.ErrorWithErr("", "Ticket read failed", err, map[string]interface{}{"ticket_id": id})
		writeError(w, http.StatusInternalServerError, "failed to read ticket")
		return
	}
	writeJSON(w, http.StatusOK, ticket)
}

// handleAnalyze runs the full workflow synchronously. The workflow never
// fails, so the response is always 200 with a complete result; a missing
// ticket surfaces in the result status.
func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	id, ok := ticketID(w, r)
	if !ok {
		return
	}

	title, description := "", ""
	if ticket, err := s.tickets.Get(r.Context(), id); err == nil {
		title, description = ticket.Title, ticket.Description
	} else if err != store.ErrTicketNotFound {
		s.log.ErrorWithErr("", "Ticket read failed", err, map[string]interface{}{"ticket_id": id})
	}

	result := s.engine.RunWorkflow(r.Context(), id, title, description)
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleRecentEvents(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = n
		}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"events": s.channel.Recent(limit),
	})
}

func (s *Server) handleAuditTrail(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = n
		}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"entries": s.audit.Entries(limit),
	})
}

func (s *Server) handleAgentMetrics(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.stats.Snapshot())
}

func (s *Server) handleMetricsReset(w http.ResponseWriter, r *http.Request) {
	s.stats.Reset()
	writeJSON(w, http.StatusOK, map[string]interface{}{"status": "reset"})
}

func ticketID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil || id <= 0 {
		writeError(w, http.StatusBadRequest, "invalid ticket id")
		return 0, false
	}
	return id, true
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

// ListenAndServe runs the HTTP server on the configured port.
func (s *Server) ListenAndServe(cfg config.ServerConfig) error {
	addr := fmt.Sprintf(":%d", cfg.Port)
	s.log.Info("", "HTTP server listening", map[string]interface{}{"addr": addr})
	srv := &http.Server{
		Addr:         addr,
		Handler:      s.Router(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
	}
	return srv.ListenAndServe()
}
