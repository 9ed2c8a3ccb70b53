// Package main implements the REST facade collaborator (spec §6). It is a
// thin wrapper around core.Ledger and core.ContractRegistry, grounded in the
// teacher's cmd/explorer/server.go (gorilla/mux router, writeJSON helper,
// logging middleware).
package main

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"perovskite-chain/core"
)

// Server exposes ledger data and write operations over a small HTTP API.
type Server struct {
	router     *mux.Router
	httpServer *http.Server
	ledger     *core.Ledger
	contracts  *core.ContractRegistry
}

// NewServer constructs the router and HTTP server bound to addr.
func NewServer(addr string, led *core.Ledger, contracts *core.ContractRegistry) *Server {
	s := &Server{router: mux.NewRouter(), ledger: led, contracts: contracts}
	s.routes()
	s.httpServer = &http.Server{Addr: addr, Handler: s.router}
	return s
}

// Start blocks serving HTTP until the listener fails.
func (s *Server) Start() error { return s.httpServer.ListenAndServe() }

func (s *Server) routes() {
	s.router.Use(loggingMiddleware)
	s.router.HandleFunc("/balance/{addr}", s.handleBalance).Methods(http.MethodGet)
	s.router.HandleFunc("/panels", s.handleRegisterPanel).Methods(http.MethodPost)
	s.router.HandleFunc("/transactions", s.handleCreateTransaction).Methods(http.MethodPost)
	s.router.HandleFunc("/contracts/{name}", s.handleExecuteContract).Methods(http.MethodPost)
}

func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		log.Printf("%s %s %s", r.Method, r.URL.Path, time.Since(start))
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, core.ErrPanelAlreadyRegistered),
		errors.Is(err, core.ErrInvalidTransaction),
		errors.Is(err, core.ErrInsufficientBalance),
		errors.Is(err, core.ErrEmptyPending):
		status = http.StatusBadRequest
	case errors.Is(err, core.ErrPanelUnknown):
		status = http.StatusNotFound
	case errors.Is(err, core.ErrStaleTip):
		status = http.StatusConflict
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func (s *Server) handleBalance(w http.ResponseWriter, r *http.Request) {
	addr := mux.Vars(r)["addr"]
	writeJSON(w, http.StatusOK, map[string]string{
		"address": addr,
		"balance": s.ledger.Balance(addr).StringFixed(4),
	})
}
