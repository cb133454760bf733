// Copyright (C) 2024 The LCD Authors.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this file,
// You can obtain one at https://mozilla.org/MPL/2.0/.

// Package rpcapi exposes the Local Capabilities Directory's add / lookup /
// remove / maintenance operations as a JSON/HTTP surface.
package rpcapi

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/julienschmidt/httprouter"

	"github.com/bmwcarit/joynr-sub005/internal/lcd"
	"github.com/bmwcarit/joynr-sub005/internal/model"
)

type contextKey int

const (
	requestIDKey contextKey = iota
	outcomeKey
)

// Server is the HTTP front end over an *lcd.LCD.
type Server struct {
	addr    string
	core    *lcd.LCD
	logger  *slog.Logger
	limiter *callerLimiters

	listener net.Listener
}

// New returns a Server listening on addr once Serve is called.
func New(addr string, core *lcd.LCD) *Server {
	return &Server{
		addr:    addr,
		core:    core,
		logger:  slog.Default().With("component", "rpcapi"),
		limiter: newCallerLimiters(4096, 50, 100),
	}
}

// Serve blocks, serving HTTP until ctx is canceled.
func (s *Server) Serve(ctx context.Context) error {
	listener, err := net.Listen("tcp", s.addr)
	if err != nil {
		s.logger.Error("failed to listen", "error", err)
		return err
	}
	s.listener = listener

	router := httprouter.New()
	router.POST("/v1/entries", s.handleAdd)
	router.POST("/v1/entries/all", s.handleAddToAll)
	router.GET("/v1/entries", s.handleLookupByDomain)
	router.GET("/v1/entries/:participantId", s.handleLookupByParticipantID)
	router.DELETE("/v1/entries/:participantId", s.handleRemove)
	router.POST("/v1/reregister", s.handleReregister)
	router.POST("/v1/purge-stale", s.handlePurgeStale)
	router.GET("/ping", handlePing)

	srv := &http.Server{
		Handler:        s.withMiddleware(router),
		ReadTimeout:    15 * time.Second,
		WriteTimeout:   15 * time.Second,
		MaxHeaderBytes: 1 << 16,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	err = srv.Serve(s.listener)
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		s.logger.Error("failed to serve", "error", err)
		return err
	}
	return nil
}

func handlePing(w http.ResponseWriter, _ *http.Request, _ httprouter.Params) {
	w.WriteHeader(http.StatusNoContent)
}

// withMiddleware tags every request with a correlation id, enforces the
// per-caller rate limit, and records the request metrics.
func (s *Server) withMiddleware(h http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		reqID := uuid.NewString()
		ctx := context.WithValue(req.Context(), requestIDKey, reqID)
		req = req.WithContext(ctx)

		caller := callerKey(req)
		if !s.limiter.allow(caller) {
			rateLimited.Inc()
			w.Header().Set("Retry-After", "1")
			http.Error(w, "rate limit exceeded", http.StatusTooManyRequests)
			return
		}

		outcome := new(string)
		*outcome = "success"
		req = req.WithContext(context.WithValue(req.Context(), outcomeKey, outcome))

		t0 := time.Now()
		lw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		h.ServeHTTP(lw, req)
		op := operationFor(req)
		requestDuration.WithLabelValues(op).Observe(time.Since(t0).Seconds())
		requestsTotal.WithLabelValues(op, *outcome).Inc()
		s.logger.Debug("handled request", "requestId", reqID, "method", req.Method, "path", req.URL.Path, "status", lw.status, "outcome", *outcome, "duration", time.Since(t0))
	})
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

// outcomeFor classifies an error into the coarse category reported on the
// lcd_rpc_requests_total outcome label, rather than its raw HTTP status
// code: access_denied, invalid_gbid, unknown_gbid, no_entry_for_participant,
// no_entry_for_selected_backends, or internal_error.
func outcomeFor(err error) string {
	var discoveryErr *model.DiscoveryError
	if errors.As(err, &discoveryErr) {
		switch discoveryErr.Code {
		case model.InvalidGbid:
			return "invalid_gbid"
		case model.UnknownGbid:
			return "unknown_gbid"
		case model.NoEntryForParticipant:
			return "no_entry_for_participant"
		case model.NoEntryForSelectedBackends:
			return "no_entry_for_selected_backends"
		default:
			return "internal_error"
		}
	}
	var providerErr *model.ProviderRuntimeException
	if errors.As(err, &providerErr) {
		return "access_denied"
	}
	return "internal_error"
}

func callerKey(req *http.Request) string {
	if uid := req.Header.Get("X-User-Id"); uid != "" {
		return uid
	}
	host, _, err := net.SplitHostPort(req.RemoteAddr)
	if err != nil {
		return req.RemoteAddr
	}
	return host
}

func operationFor(req *http.Request) string {
	path := req.URL.Path
	switch {
	case req.Method == http.MethodPost && path == "/v1/entries":
		return "add"
	case req.Method == http.MethodPost && path == "/v1/entries/all":
		return "addToAll"
	case req.Method == http.MethodGet && path == "/v1/entries":
		return "lookupByDomain"
	case req.Method == http.MethodGet && strings.HasPrefix(path, "/v1/entries/"):
		return "lookupByParticipantId"
	case req.Method == http.MethodDelete && strings.HasPrefix(path, "/v1/entries/"):
		return "remove"
	case path == "/v1/reregister":
		return "triggerGlobalProviderReregistration"
	case path == "/v1/purge-stale":
		return "removeStaleProvidersOfClusterController"
	default:
		return "unknown"
	}
}

func callContext(req *http.Request) lcd.CallContext {
	return lcd.CallContext{UserID: req.Header.Get("X-User-Id")}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, req *http.Request, err error) {
	if outcome, ok := req.Context().Value(outcomeKey).(*string); ok {
		*outcome = outcomeFor(err)
	}

	status := http.StatusInternalServerError
	var providerErr *model.ProviderRuntimeException
	var discoveryErr *model.DiscoveryError
	switch {
	case errors.As(err, &providerErr):
		status = http.StatusBadRequest
	case errors.As(err, &discoveryErr):
		status = http.StatusConflict
	}
	writeJSON(w, status, errorDTO{Error: err.Error()})
}

func (s *Server) handleAdd(w http.ResponseWriter, req *http.Request, _ httprouter.Params) {
	var body addRequest
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		writeError(w, req, model.NewProviderRuntimeException("malformed request body: %v", err))
		return
	}
	done := make(chan struct{})
	s.core.Add(req.Context(), callContext(req), body.Entry.toModel(), body.AwaitGlobalRegistration, body.Gbids,
		func() { writeJSON(w, http.StatusNoContent, nil); close(done) },
		func(err error) { writeError(w, req, err); close(done) },
	)
	<-done
}

func (s *Server) handleAddToAll(w http.ResponseWriter, req *http.Request, _ httprouter.Params) {
	var body addRequest
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		writeError(w, req, model.NewProviderRuntimeException("malformed request body: %v", err))
		return
	}
	done := make(chan struct{})
	s.core.AddToAll(req.Context(), callContext(req), body.Entry.toModel(), body.AwaitGlobalRegistration,
		func() { writeJSON(w, http.StatusNoContent, nil); close(done) },
		func(err error) { writeError(w, req, err); close(done) },
	)
	<-done
}

func (s *Server) handleRemove(w http.ResponseWriter, req *http.Request, ps httprouter.Params) {
	done := make(chan struct{})
	s.core.Remove(req.Context(), ps.ByName("participantId"),
		func() { writeJSON(w, http.StatusNoContent, nil); close(done) },
		func(err error) { writeError(w, req, err); close(done) },
	)
	<-done
}

func (s *Server) handleLookupByParticipantID(w http.ResponseWriter, req *http.Request, ps httprouter.Params) {
	qos := parseQos(req)
	gbids := parseGbids(req)
	done := make(chan struct{})
	s.core.LookupByParticipantID(req.Context(), ps.ByName("participantId"), qos, gbids,
		func(entry model.DiscoveryEntryWithMetaInfo, found bool) {
			if !found {
				writeJSON(w, http.StatusNotFound, errorDTO{Error: "no entry found"})
			} else {
				writeJSON(w, http.StatusOK, fromModel(entry))
			}
			close(done)
		},
		func(err error) { writeError(w, req, err); close(done) },
	)
	<-done
}

func (s *Server) handleLookupByDomain(w http.ResponseWriter, req *http.Request, _ httprouter.Params) {
	domains := strings.Split(req.URL.Query().Get("domains"), ",")
	interfaceName := req.URL.Query().Get("interfaceName")
	qos := parseQos(req)
	gbids := parseGbids(req)

	done := make(chan struct{})
	s.core.LookupByDomainInterface(req.Context(), domains, interfaceName, qos, gbids,
		func(entries []model.DiscoveryEntryWithMetaInfo) {
			out := make([]discoveryEntryWithMetaDTO, len(entries))
			for i, e := range entries {
				out[i] = fromModel(e)
			}
			writeJSON(w, http.StatusOK, out)
			close(done)
		},
		func(err error) { writeError(w, req, err); close(done) },
	)
	<-done
}

func (s *Server) handleReregister(w http.ResponseWriter, req *http.Request, _ httprouter.Params) {
	done := make(chan struct{})
	s.core.TriggerGlobalProviderReregistration(req.Context(),
		func() { writeJSON(w, http.StatusNoContent, nil); close(done) },
		func(err error) { writeError(w, req, err); close(done) },
	)
	<-done
}

func (s *Server) handlePurgeStale(w http.ResponseWriter, req *http.Request, _ httprouter.Params) {
	maxLastSeenMs, _ := strconv.ParseInt(req.URL.Query().Get("maxLastSeenMs"), 10, 64)
	done := make(chan struct{})
	s.core.RemoveStaleProvidersOfClusterController(req.Context(), maxLastSeenMs,
		func() { writeJSON(w, http.StatusNoContent, nil); close(done) },
		func(err error) { writeError(w, req, err); close(done) },
	)
	<-done
}

func parseQos(req *http.Request) model.DiscoveryQos {
	q := req.URL.Query()
	dto := discoveryQosDTO{
		DiscoveryScope: q.Get("discoveryScope"),
	}
	dto.CacheMaxAgeMs, _ = strconv.ParseInt(q.Get("cacheMaxAgeMs"), 10, 64)
	dto.DiscoveryTimeoutMs, _ = strconv.ParseInt(q.Get("discoveryTimeoutMs"), 10, 64)
	if dto.DiscoveryTimeoutMs == 0 {
		dto.DiscoveryTimeoutMs = 10000
	}
	return dto.toModel()
}

func parseGbids(req *http.Request) []string {
	raw := req.URL.Query().Get("gbids")
	if raw == "" {
		return nil
	}
	return strings.Split(raw, ",")
}
