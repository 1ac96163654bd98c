// Package mcp implements the Model Context Protocol surface of the server:
// JSON-RPC dispatch, the search_jobs tool, prompts and the stdio transport.
package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/cloo-solutions/jobspy-mcp/internal/mcp/protocol"
	"github.com/cloo-solutions/jobspy-mcp/internal/service"
	"github.com/sirupsen/logrus"
)

const serverName = "JobSpy MCP Server"

// Server dispatches MCP requests. It keeps no per-session state; the
// session id is passed in by the transport that received the message.
type Server struct {
	info     protocol.Implementation
	searcher Searcher
	logger   logrus.FieldLogger
}

// NewServer creates a Server.
func NewServer(searcher Searcher, version string, logger logrus.FieldLogger) *Server {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Server{
		info:     protocol.Implementation{Name: serverName, Version: version},
		searcher: searcher,
		logger:   logger,
	}
}

// HandleMessage decodes one raw client message and handles it. It returns
// nil when no response is due.
func (s *Server) HandleMessage(ctx context.Context, sessionID string, raw []byte) *protocol.Response {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		return protocol.NewError(nil, protocol.CodeInvalidRequest, "batch requests are not supported")
	}

	var req protocol.Request
	if err := json.Unmarshal(trimmed, &req); err != nil {
		return protocol.NewError(nil, protocol.CodeParseError, fmt.Sprintf("parse error: %v", err))
	}
	if req.JSONRPC != protocol.JSONRPCVersion || req.Method == "" {
		if req.Method == "" && len(req.ID) > 0 {
			// A response from the client; nothing is waiting on it.
			return nil
		}
		return protocol.NewError(req.ID, protocol.CodeInvalidRequest, "invalid JSON-RPC 2.0 request")
	}
	return s.HandleRequest(ctx, sessionID, &req)
}

// HandleRequest handles a decoded request.
func (s *Server) HandleRequest(ctx context.Context, sessionID string, req *protocol.Request) *protocol.Response {
	log := s.logger.WithFields(logrus.Fields{
		"session_id": sessionID,
		"method":     req.Method,
	})
	log.Debug("mcp request")

	result, rpcErr := s.dispatch(ctx, sessionID, req)
	if req.IsNotification() {
		if rpcErr != nil {
			log.WithField("error", rpcErr.Message).Debug("dropping error for notification")
		}
		return nil
	}
	if rpcErr != nil {
		return &protocol.Response{JSONRPC: protocol.JSONRPCVersion, ID: req.ID, Error: rpcErr}
	}
	return protocol.NewResult(req.ID, result)
}

func (s *Server) dispatch(ctx context.Context, sessionID string, req *protocol.Request) (any, *protocol.Error) {
	switch req.Method {
	case protocol.MethodInitialize:
		return s.initialize(req.Params), nil
	case protocol.MethodInitialized, protocol.MethodCancelled:
		return nil, nil
	case protocol.MethodPing:
		return struct{}{}, nil
	case protocol.MethodToolsList:
		return &protocol.ListToolsResult{Tools: []protocol.Tool{searchJobsTool()}}, nil
	case protocol.MethodToolsCall:
		return s.callTool(ctx, sessionID, req.Params)
	case protocol.MethodPromptsList:
		return &protocol.ListPromptsResult{Prompts: prompts}, nil
	case protocol.MethodPromptsGet:
		return s.getPrompt(req.Params)
	default:
		return nil, &protocol.Error{Code: protocol.CodeMethodNotFound, Message: fmt.Sprintf("method %q not found", req.Method)}
	}
}

func (s *Server) initialize(params json.RawMessage) *protocol.InitializeResult {
	var p protocol.InitializeParams
	if len(params) > 0 {
		if err := json.Unmarshal(params, &p); err != nil {
			s.logger.WithError(err).Debug("ignoring malformed initialize params")
		}
	}
	s.logger.WithFields(logrus.Fields{
		"client":           p.ClientInfo.Name,
		"client_version":   p.ClientInfo.Version,
		"protocol_version": p.ProtocolVersion,
	}).Info("client initialized")

	return &protocol.InitializeResult{
		ProtocolVersion: protocol.Version,
		Capabilities: protocol.ServerCapabilities{
			Tools:   &protocol.ListChangedCapability{},
			Prompts: &protocol.ListChangedCapability{},
		},
		ServerInfo:   s.info,
		Instructions: "Use the search_jobs tool to search job boards. Progress is reported while the search runs.",
	}
}

func (s *Server) callTool(ctx context.Context, sessionID string, params json.RawMessage) (any, *protocol.Error) {
	var p protocol.CallToolParams
	if err := json.Unmarshal(params, &p); err != nil {
		return nil, &protocol.Error{Code: protocol.CodeInvalidParams, Message: fmt.Sprintf("invalid tools/call params: %v", err)}
	}
	if p.Name != service.ToolName {
		return nil, &protocol.Error{Code: protocol.CodeInvalidParams, Message: fmt.Sprintf("unknown tool %q", p.Name)}
	}

	args := p.Arguments
	if args == nil {
		args = map[string]any{}
	}
	call := service.CallInfo{SessionID: sessionID}
	if p.Meta != nil {
		call.ProgressToken = p.Meta.ProgressToken
	}

	resp, err := s.searcher.Search(ctx, args, call)
	return ToolResult(resp, err), nil
}

func (s *Server) getPrompt(params json.RawMessage) (any, *protocol.Error) {
	var p protocol.GetPromptParams
	if err := json.Unmarshal(params, &p); err != nil {
		return nil, &protocol.Error{Code: protocol.CodeInvalidParams, Message: fmt.Sprintf("invalid prompts/get params: %v", err)}
	}
	result, err := renderPrompt(p.Name, p.Arguments)
	if err != nil {
		return nil, &protocol.Error{Code: protocol.CodeInvalidParams, Message: err.Error()}
	}
	return result, nil
}
