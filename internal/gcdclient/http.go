// Copyright (C) 2024 The LCD Authors.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this file,
// You can obtain one at https://mozilla.org/MPL/2.0/.

package gcdclient

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"context"

	"github.com/cenkalti/backoff/v4"

	"github.com/bmwcarit/joynr-sub005/internal/model"
)

// HTTPClient is a Client backed by a JSON/HTTP remote Global Capabilities
// Directory. Every call runs on its own goroutine and reports through the
// caller-supplied callback, so the LCD core's scheduling call returns
// immediately.
type HTTPClient struct {
	BaseURL    string
	HTTPClient *http.Client

	// processStart gates the RemoveStale single-retry rule: a call is
	// retried once only if it completes within one hour of process start.
	processStart time.Time

	logger *slog.Logger
}

// NewHTTPClient returns an HTTPClient targeting baseURL, e.g.
// "https://gcd.example:4243".
func NewHTTPClient(baseURL string) *HTTPClient {
	return &HTTPClient{
		BaseURL:      baseURL,
		HTTPClient:   &http.Client{Timeout: 30 * time.Second},
		processStart: time.Now(),
		logger:       slog.Default().With("component", "gcdclient"),
	}
}

type addRequest struct {
	Entry                   model.GlobalDiscoveryEntry `json:"entry"`
	AwaitGlobalRegistration bool                       `json:"awaitGlobalRegistration"`
	Gbids                   []string                   `json:"gbids"`
}

type errorResponse struct {
	AppError      string   `json:"appError,omitempty"`
	ResolvedGbids []string `json:"resolvedGbids,omitempty"`
}

func (c *HTTPClient) Add(ctx context.Context, entry model.GlobalDiscoveryEntry, awaitGlobalRegistration bool, gbids []string, onSuccess func(), onAppError func(model.DiscoveryErrorCode), onRuntimeError func(error)) {
	go func() {
		body := addRequest{Entry: entry, AwaitGlobalRegistration: awaitGlobalRegistration, Gbids: gbids}
		var errResp errorResponse
		err := c.retryingCall(ctx, "POST", "/v1/gcd/entries", body, &errResp, maxRetriesDefault)
		switch {
		case err != nil:
			c.logger.WarnContext(ctx, "gcd add failed", "participantId", entry.ParticipantID, "error", err)
			onRuntimeError(err)
		case errResp.AppError != "":
			onAppError(parseDiscoveryErrorCode(errResp.AppError))
		default:
			onSuccess()
		}
	}()
}

func (c *HTTPClient) Remove(ctx context.Context, participantID string, gbids []string, onSuccess func(), onAppError func(code model.DiscoveryErrorCode, resolvedGbids []string), onRuntimeError func(error)) {
	go func() {
		body := struct {
			Gbids []string `json:"gbids"`
		}{Gbids: gbids}
		var errResp errorResponse
		err := c.retryingCall(ctx, "DELETE", "/v1/gcd/entries/"+participantID, body, &errResp, maxRetriesDefault)
		switch {
		case err != nil:
			c.logger.WarnContext(ctx, "gcd remove failed", "participantId", participantID, "error", err)
			onRuntimeError(err)
		case errResp.AppError != "":
			onAppError(parseDiscoveryErrorCode(errResp.AppError), errResp.ResolvedGbids)
		default:
			onSuccess()
		}
	}()
}

func (c *HTTPClient) LookupByDomainInterface(ctx context.Context, domains []string, interfaceName string, gbids []string, ttlMs int64, onSuccess func([]model.GlobalDiscoveryEntry), onAppError func(model.DiscoveryErrorCode), onRuntimeError func(error)) {
	go func() {
		req := struct {
			Domains       []string `json:"domains"`
			InterfaceName string   `json:"interfaceName"`
			Gbids         []string `json:"gbids"`
			TTLMs         int64    `json:"ttlMs"`
		}{domains, interfaceName, gbids, ttlMs}

		var resp struct {
			errorResponse
			Entries []model.GlobalDiscoveryEntry `json:"entries"`
		}
		err := c.retryingCall(ctx, "POST", "/v1/gcd/lookup", req, &resp, maxRetriesDefault)
		switch {
		case err != nil:
			onRuntimeError(err)
		case resp.AppError != "":
			onAppError(parseDiscoveryErrorCode(resp.AppError))
		default:
			onSuccess(resp.Entries)
		}
	}()
}

func (c *HTTPClient) LookupByParticipantID(ctx context.Context, participantID string, gbids []string, ttlMs int64, onSuccess func(model.GlobalDiscoveryEntry, bool), onAppError func(model.DiscoveryErrorCode), onRuntimeError func(error)) {
	go func() {
		req := struct {
			Gbids []string `json:"gbids"`
			TTLMs int64    `json:"ttlMs"`
		}{gbids, ttlMs}

		var resp struct {
			errorResponse
			Entry *model.GlobalDiscoveryEntry `json:"entry,omitempty"`
		}
		err := c.retryingCall(ctx, "POST", "/v1/gcd/lookup/"+participantID, req, &resp, maxRetriesDefault)
		switch {
		case err != nil:
			onRuntimeError(err)
		case resp.AppError != "":
			onAppError(parseDiscoveryErrorCode(resp.AppError))
		case resp.Entry != nil:
			onSuccess(*resp.Entry, true)
		default:
			onSuccess(model.GlobalDiscoveryEntry{}, false)
		}
	}()
}

func (c *HTTPClient) Touch(ctx context.Context, clusterControllerID string, participantIDs []string, gbid string, onSuccess func(), onRuntimeError func(error)) {
	go func() {
		req := struct {
			ClusterControllerID string   `json:"clusterControllerId"`
			ParticipantIDs       []string `json:"participantIds"`
			Gbid                 string   `json:"gbid"`
		}{clusterControllerID, participantIDs, gbid}
		err := c.retryingCall(ctx, "POST", "/v1/gcd/touch", req, nil, maxRetriesDefault)
		if err != nil {
			onRuntimeError(err)
			return
		}
		onSuccess()
	}()
}

func (c *HTTPClient) RemoveStale(ctx context.Context, clusterControllerID string, maxLastSeenMs int64, gbid string, onSuccess func(), onRuntimeError func(error)) {
	go func() {
		req := struct {
			ClusterControllerID string `json:"clusterControllerId"`
			MaxLastSeenMs        int64  `json:"maxLastSeenMs"`
			Gbid                 string `json:"gbid"`
		}{clusterControllerID, maxLastSeenMs, gbid}

		retries := maxRetriesDefault
		if time.Since(c.processStart) < time.Hour {
			retries = 1
		} else {
			retries = 0
		}
		err := c.retryingCall(ctx, "POST", "/v1/gcd/remove-stale", req, nil, retries)
		if err != nil {
			onRuntimeError(err)
			return
		}
		onSuccess()
	}()
}

const maxRetriesDefault = 3

// retryingCall issues one JSON HTTP request, retrying transport-level
// failures (not application errors reported in the response body) with
// bounded exponential backoff.
func (c *HTTPClient) retryingCall(ctx context.Context, method, path string, reqBody, respBody any, maxRetries int) error {
	reqBytes, err := json.Marshal(reqBody)
	if err != nil {
		return fmt.Errorf("gcdclient: encoding request: %w", err)
	}

	op := func() error {
		req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, bytes.NewReader(reqBytes))
		if err != nil {
			return backoff.Permanent(err)
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := c.HTTPClient.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		bs, err := io.ReadAll(resp.Body)
		if err != nil {
			return err
		}
		if resp.StatusCode >= 500 {
			return fmt.Errorf("gcdclient: %s %s: server error %d", method, path, resp.StatusCode)
		}
		if resp.StatusCode >= 400 {
			return backoff.Permanent(fmt.Errorf("gcdclient: %s %s: client error %d", method, path, resp.StatusCode))
		}
		if respBody != nil && len(bs) > 0 {
			if err := json.Unmarshal(bs, respBody); err != nil {
				return backoff.Permanent(fmt.Errorf("gcdclient: decoding response: %w", err))
			}
		}
		return nil
	}

	eb := backoff.NewExponentialBackOff()
	eb.InitialInterval = 200 * time.Millisecond
	eb.MaxElapsedTime = 10 * time.Second

	var bo backoff.BackOff = eb
	if maxRetries >= 0 {
		bo = backoff.WithMaxRetries(eb, uint64(maxRetries))
	}
	return backoff.Retry(op, backoff.WithContext(bo, ctx))
}

func parseDiscoveryErrorCode(s string) model.DiscoveryErrorCode {
	switch s {
	case "INVALID_GBID":
		return model.InvalidGbid
	case "UNKNOWN_GBID":
		return model.UnknownGbid
	case "NO_ENTRY_FOR_PARTICIPANT":
		return model.NoEntryForParticipant
	case "NO_ENTRY_FOR_SELECTED_BACKENDS":
		return model.NoEntryForSelectedBackends
	default:
		return model.InternalError
	}
}
