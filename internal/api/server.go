// Package api exposes the engine over the Model Context Protocol. Each
// engine operation becomes one MCP tool; results are serialized as JSON
// text content so any MCP client can consume them.
package api

import (
	"github.com/mark3labs/mcp-go/server"

	"inquisit/internal/engine"
	"inquisit/internal/logging"
)

// Server wraps the MCP server and the engine it fronts.
type Server struct {
	mcp    *server.MCPServer
	engine *engine.Engine
}

// NewServer builds the MCP server and registers the tool set.
func NewServer(name, version string, eng *engine.Engine, debug bool) *Server {
	opts := []server.ServerOption{
		server.WithResourceCapabilities(true, true),
	}
	if debug {
		opts = append(opts, server.WithLogging())
	}

	s := &Server{
		mcp:    server.NewMCPServer(name, version, opts...),
		engine: eng,
	}
	s.registerTools()
	logging.Get(logging.CategoryAPI).Info("MCP server %s %s ready", name, version)
	return s
}

// ServeStdio runs the server over stdin/stdout until the client disconnects.
// Logs must go to files or stderr only; stdout carries the protocol.
func (s *Server) ServeStdio() error {
	logging.Get(logging.CategoryAPI).Info("serving MCP over stdio")
	return server.ServeStdio(s.mcp)
}
