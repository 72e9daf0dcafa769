// Copyright 2026 OpenPoints Software
//
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

package api

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/openpoints-io/tally/coordinator"
	"github.com/openpoints-io/tally/database"
)

type ApiConfig struct {
	ListenAddress string
}

// Api is the REST API server for redemptions, participants and the reward
// catalog.
type Api struct {
	config      ApiConfig
	logger      *slog.Logger
	coordinator *coordinator.Coordinator
	db          *database.Database
	httpServer  *http.Server
	mu          sync.Mutex
}

// New creates a new API server instance.
func New(
	cfg ApiConfig,
	c *coordinator.Coordinator,
	db *database.Database,
	logger *slog.Logger,
) *Api {
	if logger == nil {
		logger = slog.New(
			slog.NewJSONHandler(io.Discard, nil),
		)
	}
	logger = logger.With("component", "api")
	if cfg.ListenAddress == "" {
		cfg.ListenAddress = ":8080"
	}
	return &Api{
		config:      cfg,
		logger:      logger,
		coordinator: c,
		db:          db,
	}
}

// Start starts the HTTP server in a background goroutine.
func (a *Api) Start(ctx context.Context) error {
	a.mu.Lock()
	if a.httpServer != nil {
		a.mu.Unlock()
		return errors.New("server already started")
	}

	server := &http.Server{
		Addr:              a.config.ListenAddress,
		Handler:           a.routes(),
		ReadHeaderTimeout: 60 * time.Second,
	}
	a.httpServer = server
	a.mu.Unlock()

	// Start the server with deterministic error detection
	if err := a.startServer(server); err != nil {
		a.mu.Lock()
		a.httpServer = nil
		a.mu.Unlock()
		return err
	}

	a.logger.Info(
		"API listener started on " + a.config.ListenAddress,
	)

	// Monitor context for cancellation
	go func() {
		<-ctx.Done()
		a.mu.Lock()
		srv := a.httpServer
		a.httpServer = nil
		a.mu.Unlock()

		if srv != nil {
			a.logger.Debug(
				"context cancelled, shutting down API server",
			)
			//nolint:contextcheck
			shutdownCtx, cancel := context.WithTimeout(
				context.Background(),
				30*time.Second,
			)
			defer cancel()
			//nolint:contextcheck
			if err := srv.Shutdown(shutdownCtx); err != nil {
				a.logger.Error(
					"failed to shutdown API server on context cancellation",
					"error", err,
				)
			}
		}
	}()

	return nil
}

// Stop gracefully shuts down the HTTP server.
func (a *Api) Stop(ctx context.Context) error {
	a.mu.Lock()
	srv := a.httpServer
	a.httpServer = nil
	a.mu.Unlock()

	if srv != nil {
		a.logger.Debug("shutting down API server")
		if err := srv.Shutdown(ctx); err != nil {
			return fmt.Errorf(
				"failed to shutdown API server: %w",
				err,
			)
		}
	}
	return nil
}

// routes builds the request multiplexer
func (a *Api) routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", a.handleRoot)
	mux.HandleFunc("GET /health", a.handleHealth)
	mux.HandleFunc("POST /api/v1/redeem", a.handleRedeem)
	mux.HandleFunc(
		"GET /api/v1/participants",
		a.handleListParticipants,
	)
	mux.HandleFunc(
		"POST /api/v1/participants",
		a.handleCreateParticipant,
	)
	mux.HandleFunc(
		"GET /api/v1/participants/{id}",
		a.handleGetParticipant,
	)
	mux.HandleFunc(
		"PUT /api/v1/participants/{id}",
		a.handleUpdateParticipant,
	)
	mux.HandleFunc(
		"DELETE /api/v1/participants/{id}",
		a.handleDeleteParticipant,
	)
	mux.HandleFunc(
		"POST /api/v1/participants/{id}/credit",
		a.handleCreditParticipant,
	)
	mux.HandleFunc(
		"GET /api/v1/participants/{id}/balance",
		a.handleGetBalance,
	)
	mux.HandleFunc(
		"GET /api/v1/participants/{id}/history",
		a.handleGetHistory,
	)
	mux.HandleFunc("GET /api/v1/items", a.handleListItems)
	mux.HandleFunc("POST /api/v1/items", a.handleCreateItem)
	mux.HandleFunc("GET /api/v1/items/{id}", a.handleGetItem)
	mux.HandleFunc("PUT /api/v1/items/{id}", a.handleUpdateItem)
	mux.HandleFunc(
		"DELETE /api/v1/items/{id}",
		a.handleDeleteItem,
	)
	mux.HandleFunc(
		"GET /api/v1/redemptions/{id}/receipt",
		a.handleGetReceipt,
	)
	return mux
}

// startServer starts the HTTP server with deterministic error detection.
// It binds the listening socket first so port conflicts are detected
// immediately, then serves in a background goroutine.
func (a *Api) startServer(server *http.Server) error {
	ln, err := net.Listen("tcp", server.Addr)
	if err != nil {
		return fmt.Errorf(
			"failed to listen for API server: %w",
			err,
		)
	}
	go func() {
		if err := server.Serve(ln); err != nil &&
			!errors.Is(err, http.ErrServerClosed) {
			a.logger.Error(
				"API server error",
				"error", err,
			)
		}
	}()
	return nil
}
