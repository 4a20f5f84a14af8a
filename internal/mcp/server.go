// Package mcp exposes the workout log to MCP clients: listing and reading
// workouts, progress summaries, and personal records. All data is scoped to
// the user identity injected by the transport layer.
package mcp

import (
	"context"
	"log/slog"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/claude/liftlog/internal/workouts"
)

type contextKey int

const userIDKey contextKey = iota

// UserIDFromContext extracts the user ID injected by the transport layer.
func UserIDFromContext(ctx context.Context) string {
	if id, ok := ctx.Value(userIDKey).(string); ok {
		return id
	}
	return ""
}

// WithUserID returns a context with the given user ID.
func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userIDKey, userID)
}

// New creates an MCP server with all tools and resources registered.
func New(svc *workouts.Service, weekStart time.Weekday, version string, log *slog.Logger) *server.MCPServer {
	s := server.NewMCPServer("LiftLog", version,
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
		server.WithInstructions("LiftLog workout server. Query logged workouts, per-set history, weekly/monthly training volume, and personal records. All data is scoped to the authenticated user."),
	)

	h := &handlers{svc: svc, weekStart: weekStart, log: log}

	s.AddTools(
		server.ServerTool{Tool: toolListWorkouts, Handler: h.listWorkouts},
		server.ServerTool{Tool: toolGetWorkout, Handler: h.getWorkout},
		server.ServerTool{Tool: toolGetProgressSummary, Handler: h.getProgressSummary},
		server.ServerTool{Tool: toolGetPersonalRecords, Handler: h.getPersonalRecords},
	)

	s.AddResources(
		server.ServerResource{Resource: resRecentWorkouts, Handler: h.recentWorkouts},
	)

	return s
}

// handlers holds dependencies for MCP tool/resource handlers.
type handlers struct {
	svc       *workouts.Service
	weekStart time.Weekday
	log       *slog.Logger
}

var resRecentWorkouts = mcp.NewResource(
	"liftlog://recent_workouts",
	"Recent Workouts",
	mcp.WithResourceDescription("Workouts from the last 30 days with their sets"),
	mcp.WithMIMEType("application/json"),
)
