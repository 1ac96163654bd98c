package mcp

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/cloo-solutions/jobspy-mcp/internal/session"
)

const maxStdioMessageBytes = 10 * 1024 * 1024

// StdioTransport writes newline-delimited JSON messages.
type StdioTransport struct {
	mu  sync.Mutex
	enc *json.Encoder
}

// NewStdioTransport creates a transport writing to w.
func NewStdioTransport(w io.Writer) *StdioTransport {
	return &StdioTransport{enc: json.NewEncoder(w)}
}

// Send writes msg followed by a newline.
func (t *StdioTransport) Send(_ context.Context, msg any) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.enc.Encode(msg)
}

// ServeStdio serves one client over r and w, registered as a single session.
// Requests are handled concurrently so pings are answered while a search
// runs. It returns when r reaches EOF (after in-flight requests finish) or
// when ctx is cancelled.
func ServeStdio(ctx context.Context, srv *Server, reg *session.Registry, r io.Reader, w io.Writer) error {
	transport := NewStdioTransport(w)
	id := session.NewID()
	if err := reg.Register(id, transport); err != nil {
		return fmt.Errorf("register stdio session: %w", err)
	}
	defer reg.Unregister(id)

	log := srv.logger.WithField("session_id", id)
	log.Info("stdio session started")

	lines := make(chan []byte)
	scanErr := make(chan error, 1)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(r)
		scanner.Buffer(make([]byte, 64*1024), maxStdioMessageBytes)
		for scanner.Scan() {
			line := append([]byte(nil), scanner.Bytes()...)
			if len(line) == 0 {
				continue
			}
			select {
			case lines <- line:
			case <-ctx.Done():
				return
			}
		}
		scanErr <- scanner.Err()
	}()

	var wg sync.WaitGroup
	defer wg.Wait()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case line, ok := <-lines:
			if !ok {
				wg.Wait()
				log.Info("stdio session ended")
				select {
				case err := <-scanErr:
					if err != nil && !errors.Is(err, io.EOF) {
						return fmt.Errorf("read stdin: %w", err)
					}
				default:
				}
				return nil
			}
			wg.Add(1)
			go func() {
				defer wg.Done()
				if resp := srv.HandleMessage(ctx, id, line); resp != nil {
					if err := transport.Send(ctx, resp); err != nil {
						log.WithError(err).Warn("failed to write response")
					}
				}
			}()
		}
	}
}
