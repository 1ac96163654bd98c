package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/cloo-solutions/jobspy-mcp/internal/api"
	"github.com/cloo-solutions/jobspy-mcp/internal/mcp/protocol"
	"github.com/cloo-solutions/jobspy-mcp/internal/session"
	"github.com/cloo-solutions/jobspy-mcp/internal/telemetry"
	"github.com/sirupsen/logrus"
)

const (
	// MessagesPath is where clients post JSON-RPC messages for a stream.
	MessagesPath = "/messages"

	defaultKeepAlive = 15 * time.Second
)

var errStreamClosed = errors.New("event stream closed")

// MessageHandler handles one raw MCP message for a session.
type MessageHandler interface {
	HandleMessage(ctx context.Context, sessionID string, raw []byte) *protocol.Response
}

// MCPHandler serves the MCP event stream transport: GET /sse opens a stream
// and POST /messages?sessionId=<id> feeds it.
type MCPHandler struct {
	srv       MessageHandler
	registry  *session.Registry
	logger    logrus.FieldLogger
	keepAlive time.Duration

	inflight  sync.WaitGroup
	closing   chan struct{}
	closeOnce sync.Once
}

// NewMCPHandler creates an MCPHandler.
func NewMCPHandler(srv MessageHandler, registry *session.Registry, logger logrus.FieldLogger) *MCPHandler {
	return &MCPHandler{
		srv:       srv,
		registry:  registry,
		logger:    logger,
		keepAlive: defaultKeepAlive,
		closing:   make(chan struct{}),
	}
}

// SetKeepAlive changes the interval of keep-alive comments on open streams.
func (h *MCPHandler) SetKeepAlive(d time.Duration) {
	h.keepAlive = d
}

// sseTransport writes MCP messages as "message" events on one stream.
type sseTransport struct {
	mu      sync.Mutex
	w       io.Writer
	flusher http.Flusher
	closed  bool
}

func (t *sseTransport) Send(_ context.Context, msg any) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("encode message: %w", err)
	}
	return t.write(fmt.Sprintf("event: message\ndata: %s\n\n", data))
}

func (t *sseTransport) write(frame string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return errStreamClosed
	}
	if _, err := io.WriteString(t.w, frame); err != nil {
		return err
	}
	t.flusher.Flush()
	return nil
}

func (t *sseTransport) close() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.closed = true
}

// Stream handles GET /sse. The session lives as long as the request.
func (h *MCPHandler) Stream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		api.Error(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	id := session.NewID()
	transport := &sseTransport{w: w, flusher: flusher}
	if err := h.registry.Register(id, transport); err != nil {
		api.Error(w, http.StatusInternalServerError, "could not open session")
		return
	}
	log := h.logger.WithField("session_id", id)
	defer func() {
		h.registry.Unregister(id)
		transport.close()
		log.Info("sse session closed")
	}()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)

	endpoint := MessagesPath + "?sessionId=" + url.QueryEscape(id)
	if err := transport.write(fmt.Sprintf("event: endpoint\ndata: %s\n\n", endpoint)); err != nil {
		log.WithError(err).Warn("failed to send endpoint event")
		return
	}
	log.Info("sse session opened")

	ticker := time.NewTicker(h.keepAlive)
	defer ticker.Stop()
	for {
		select {
		case <-r.Context().Done():
			return
		case <-h.closing:
			return
		case <-ticker.C:
			if err := transport.write(": keepalive\n\n"); err != nil {
				log.WithError(err).Debug("keepalive failed")
				return
			}
		}
	}
}

// Messages handles POST /messages. The message is accepted with 202 and its
// response is delivered on the session's stream. Handling continues when the
// posting request ends so a running search is not cut short by it, and is
// traced as its own transaction.
func (h *MCPHandler) Messages(w http.ResponseWriter, r *http.Request) {
	sessionID := r.URL.Query().Get("sessionId")
	if sessionID == "" || !h.registry.Has(sessionID) {
		api.Error(w, http.StatusBadRequest, "No transport found for sessionId")
		return
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			api.Error(w, http.StatusRequestEntityTooLarge, "request body too large")
			return
		}
		api.Error(w, http.StatusBadRequest, "could not read request body")
		return
	}
	if !json.Valid(body) {
		api.Error(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	ctx, span := telemetry.Detach(r.Context(), "mcp.message")
	span.SetTag("session_id", sessionID)
	h.inflight.Add(1)
	go func() {
		defer h.inflight.Done()
		defer span.End()
		resp := h.srv.HandleMessage(ctx, sessionID, body)
		if resp == nil {
			return
		}
		if err := h.registry.Notify(ctx, sessionID, resp); err != nil {
			h.logger.WithError(err).WithField("session_id", sessionID).Warn("could not deliver response")
		}
	}()

	w.WriteHeader(http.StatusAccepted)
	_, _ = io.WriteString(w, "Accepted")
}

// CloseStreams ends every open event stream. The server calls it when
// shutting down since streams never go idle on their own.
func (h *MCPHandler) CloseStreams() {
	h.closeOnce.Do(func() { close(h.closing) })
}

// Wait blocks until accepted messages have been handled or ctx is done.
func (h *MCPHandler) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		h.inflight.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
