package mcp

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/mark3labs/mcp-go/server"

	"github.com/dshills/chunkgraph/internal/config"
	"github.com/dshills/chunkgraph/internal/emitter"
	"github.com/dshills/chunkgraph/internal/storage"
)

const (
	// ServerName is the MCP server name
	ServerName = "chunkgraph"
	// ServerVersion is the current server version
	ServerVersion = "1.0.0"
)

// Server wraps the MCP server with application dependencies
type Server struct {
	mcp     *server.MCPServer
	storage storage.Storage
	logger  *log.Logger

	mu       sync.Mutex
	emitters map[string]*emitter.Emitter // by project root
}

// NewServer creates a new MCP server instance storing manifests at dbPath
func NewServer(dbPath string, logger *log.Logger) (*Server, error) {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	if dbPath == "" {
		path, err := (&config.Config{}).DatabasePath()
		if err != nil {
			return nil, err
		}
		dbPath = path
	}

	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	store, err := storage.NewSQLiteStorage(dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	s := &Server{
		mcp:      server.NewMCPServer(ServerName, ServerVersion),
		storage:  store,
		logger:   logger,
		emitters: make(map[string]*emitter.Emitter),
	}

	if err := s.registerTools(); err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to register tools: %w", err)
	}

	return s, nil
}

// Serve starts the MCP server on stdio and blocks until shutdown
func (s *Server) Serve(ctx context.Context) error {
	defer func() { _ = s.Close() }()
	return server.ServeStdio(s.mcp)
}

// Close releases the storage
func (s *Server) Close() error {
	return s.storage.Close()
}

// registerTools registers all MCP tools
func (s *Server) registerTools() error {
	s.mcp.AddTool(buildProjectTool(), s.handleBuildProject)
	s.mcp.AddTool(moduleChunksTool(), s.handleModuleChunks)
	s.mcp.AddTool(getStatusTool(), s.handleGetStatus)
	return nil
}

// emitterFor returns the emitter of a project, creating it on first use.
// Emitters cache results by path, so each project gets its own.
func (s *Server) emitterFor(root string) *emitter.Emitter {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.emitters[root]
	if !ok {
		e = emitter.New(s.storage, s.logger.WithPrefix(filepath.Base(root)))
		s.emitters[root] = e
	}
	return e
}

// projectConfig loads the configuration of the project at root
func (s *Server) projectConfig(ctx context.Context, root string) (*config.Config, error) {
	cfg, _, err := config.Load(ctx, config.LoadOptions{ProjectRoot: root})
	return cfg, err
}
