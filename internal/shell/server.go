// Package shell exposes the review loop to the external navigation shell
// and canvas surface as tools over stdio. The shell renders the canvas
// and buttons; this server owns the session and every state transition.
package shell

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"github.com/curalab/invoice-curator/internal/annotation"
	"github.com/curalab/invoice-curator/internal/config"
	"github.com/curalab/invoice-curator/internal/document"
	"github.com/curalab/invoice-curator/internal/session"
	"github.com/curalab/invoice-curator/internal/store"
)

// Server is the stdio tool server wrapping one review session.
type Server struct {
	config    *config.Config
	search    *document.Search
	prober    *document.Prober
	logger    *zap.Logger
	mcpServer *server.MCPServer

	session *session.Session
	label   string
}

// NewServer creates a shell server. When the configuration preselects a
// label the session is started immediately; otherwise the operator picks
// one with the review_start tool.
func NewServer(cfg *config.Config, logger *zap.Logger) (*Server, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	mcpServer := server.NewMCPServer(
		cfg.ServerName,
		cfg.Version,
		server.WithToolCapabilities(false),
	)

	s := &Server{
		config:    cfg,
		search:    document.NewSearch(cfg.MaxFileSize),
		prober:    document.NewProber(cfg.MaxFileSize),
		logger:    logger,
		mcpServer: mcpServer,
	}

	if cfg.Label != "" {
		if err := s.startSession(cfg.Label); err != nil {
			return nil, err
		}
	}

	s.registerTools()

	return s, nil
}

// startSession builds the store and session for one label.
func (s *Server) startSession(label string) error {
	labelDir := filepath.Join(s.config.RecordsDir, label)
	curatedDir := filepath.Join(s.config.CuratedDir, label)

	st, err := store.NewStore(labelDir, curatedDir, annotation.Schema(s.config.Schema))
	if err != nil {
		return err
	}

	files, err := s.search.RecordFiles(labelDir)
	if err != nil {
		return err
	}
	names := make([]string, len(files))
	for i, f := range files {
		names[i] = f.Name
	}

	sess, err := session.NewSession(st, s.search, s.prober, s.logger, names, session.Options{
		ImagesDir: s.config.ImagesDir,
		MaxWidth:  s.config.CanvasMaxWidth,
		MaxHeight: s.config.CanvasMaxHeight,
	})
	if err != nil {
		return err
	}

	s.session = sess
	s.label = label
	s.logger.Info("session started",
		zap.String("label", label), zap.Int("documents", len(names)))
	return nil
}

// registerTools registers all available review tools.
func (s *Server) registerTools() {
	reviewStartTool := mcp.NewTool(
		"review_start",
		mcp.WithDescription("Start a review session for one label"),
		mcp.WithString("label",
			mcp.Required(),
			mcp.Description("Label subdirectory of the records directory"),
		),
	)
	s.mcpServer.AddTool(reviewStartTool, s.handleReviewStart)

	reviewStatusTool := mcp.NewTool(
		"review_status",
		mcp.WithDescription("Get the session state and progress counters"),
	)
	s.mcpServer.AddTool(reviewStatusTool, s.handleReviewStatus)

	reviewCurrentTool := mcp.NewTool(
		"review_current",
		mcp.WithDescription("Get the render model for the current document: image path and canvas-space geometry"),
	)
	s.mcpServer.AddTool(reviewCurrentTool, s.handleReviewCurrent)

	reviewSubmitTool := mcp.NewTool(
		"review_submit",
		mcp.WithDescription("Submit the canvas shape list after an operator edit; accepted boxes are saved and the session advances"),
		mcp.WithString("shapes",
			mcp.Required(),
			mcp.Description("JSON array of shape descriptors, positionally aligned with the current geometry"),
		),
	)
	s.mcpServer.AddTool(reviewSubmitTool, s.handleReviewSubmit)

	reviewMarkWrongTool := mcp.NewTool(
		"review_mark_wrong",
		mcp.WithDescription("Resolve the current document as a wrong datapoint"),
	)
	s.mcpServer.AddTool(reviewMarkWrongTool, s.handleReviewMarkWrong)

	reviewMarkMissingTool := mcp.NewTool(
		"review_mark_missing",
		mcp.WithDescription("Resolve the current document as missing the datapoint"),
	)
	s.mcpServer.AddTool(reviewMarkMissingTool, s.handleReviewMarkMissing)

	reviewNextTool := mcp.NewTool(
		"review_next",
		mcp.WithDescription("Move forward without reviewing"),
	)
	s.mcpServer.AddTool(reviewNextTool, s.handleReviewNext)

	reviewPreviousTool := mcp.NewTool(
		"review_previous",
		mcp.WithDescription("Reopen the most recently completed document"),
	)
	s.mcpServer.AddTool(reviewPreviousTool, s.handleReviewPrevious)

	reviewServerInfoTool := mcp.NewTool(
		"review_server_info",
		mcp.WithDescription("Get server information, available labels and usage guidance"),
	)
	s.mcpServer.AddTool(reviewServerInfoTool, s.handleReviewServerInfo)
}

// requireSession guards handlers that need an active session.
func (s *Server) requireSession() error {
	if s.session == nil {
		return fmt.Errorf("no session active: call review_start with a label first")
	}
	return nil
}

// Handler functions

func (s *Server) handleReviewStart(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	label, err := request.RequireString("label")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	if err := s.startSession(label); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	counters := s.session.Counters()
	return mcp.NewToolResultText(fmt.Sprintf(
		"Review session started for label %q: %d document(s) pending.\nCall review_next to begin.",
		label, counters.Left)), nil
}

func (s *Server) handleReviewStatus(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if err := s.requireSession(); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	counters := s.session.Counters()
	text := fmt.Sprintf("Label: %s\nState: %s\nDone: %d\nLeft: %d",
		s.label, s.session.State(), counters.Done, counters.Left)
	return mcp.NewToolResultText(text), nil
}

func (s *Server) handleReviewCurrent(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if err := s.requireSession(); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	switch s.session.State() {
	case session.StateStart:
		return mcp.NewToolResultText("Let's start: call review_next to load the first document."), nil
	case session.StateDone:
		return mcp.NewToolResultText("You're done! Every document has been reviewed."), nil
	}

	view, err := s.session.Current()
	if err != nil {
		if s.session.State() == session.StateDone {
			return mcp.NewToolResultText("You're done! Every document has been reviewed."), nil
		}
		return mcp.NewToolResultError(err.Error()), nil
	}

	data, err := json.MarshalIndent(view, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("encoding render model: %v", err)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}

func (s *Server) handleReviewSubmit(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if err := s.requireSession(); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	raw, err := request.RequireString("shapes")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var shapes []annotation.CanvasShape
	if err := json.Unmarshal([]byte(raw), &shapes); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("malformed shapes payload: %v", err)), nil
	}

	accepted, err := s.session.SubmitCanvas(shapes)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	if !accepted {
		return mcp.NewToolResultText("No accepted shape found; the document stays open."), nil
	}

	counters := s.session.Counters()
	return mcp.NewToolResultText(fmt.Sprintf(
		"Accepted and saved. Done: %d, left: %d.", counters.Done, counters.Left)), nil
}

func (s *Server) handleReviewMarkWrong(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if err := s.requireSession(); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	if err := s.session.MarkWrongDatapoint(); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	counters := s.session.Counters()
	return mcp.NewToolResultText(fmt.Sprintf(
		"Marked as wrong datapoint. Done: %d, left: %d.", counters.Done, counters.Left)), nil
}

func (s *Server) handleReviewMarkMissing(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if err := s.requireSession(); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	if err := s.session.MarkMissingInformation(); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	counters := s.session.Counters()
	return mcp.NewToolResultText(fmt.Sprintf(
		"Marked as missing information. Done: %d, left: %d.", counters.Done, counters.Left)), nil
}

func (s *Server) handleReviewNext(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if err := s.requireSession(); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	if err := s.session.Next(); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return s.handleReviewCurrent(ctx, request)
}

func (s *Server) handleReviewPrevious(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if err := s.requireSession(); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	if err := s.session.Previous(); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return s.handleReviewCurrent(ctx, request)
}

func (s *Server) handleReviewServerInfo(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	labels, err := s.search.Labels(s.config.RecordsDir)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	text := fmt.Sprintf("%s v%s\n", s.config.ServerName, s.config.Version)
	text += fmt.Sprintf("Records directory: %s\n", s.config.RecordsDir)
	text += fmt.Sprintf("Curated directory: %s\n", s.config.CuratedDir)
	text += fmt.Sprintf("Images directory: %s\n", s.config.ImagesDir)
	text += fmt.Sprintf("Canvas bounds: %dx%d\n", s.config.CanvasMaxWidth, s.config.CanvasMaxHeight)
	text += fmt.Sprintf("Persistence schema: %s\n", s.config.Schema)

	if len(labels) > 0 {
		text += "\nAvailable labels:\n"
		for i, label := range labels {
			text += fmt.Sprintf("%d. %s\n", i+1, label)
		}
	} else {
		text += "\nNo labels found in the records directory.\n"
	}

	text += "\nWorkflow: review_start -> review_next -> review_current -> "
	text += "review_submit | review_mark_wrong | review_mark_missing, "
	text += "review_previous to reopen the last completed document."
	return mcp.NewToolResultText(text), nil
}

// Run starts the stdio server. It returns when stdin closes or ctx is
// cancelled.
func (s *Server) Run(ctx context.Context) error {
	s.logger.Info("serving review tools on stdio",
		zap.String("records", s.config.RecordsDir))

	stdioServer := server.NewStdioServer(s.mcpServer)
	if err := stdioServer.Listen(ctx, os.Stdin, os.Stdout); err != nil {
		return fmt.Errorf("failed to serve stdio: %w", err)
	}
	return nil
}
