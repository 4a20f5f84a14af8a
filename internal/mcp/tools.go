package mcp

import (
	"context"
	"encoding/json"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/claude/liftlog/internal/models"
	"github.com/claude/liftlog/internal/stats"
)

// --- Tool definitions ---

var toolListWorkouts = mcp.NewTool("list_workouts",
	mcp.WithDescription("List logged workouts, most recent first. Each entry has the date, focus area, and notes."),
	mcp.WithString("start", mcp.Description("Earliest workout date to include (YYYY-MM-DD)")),
	mcp.WithString("end", mcp.Description("Latest workout date to include (YYYY-MM-DD)")),
	mcp.WithString("focus", mcp.Description("Filter by focus area (e.g. 'Legs', 'Back / Biceps')")),
)

var toolGetWorkout = mcp.NewTool("get_workout",
	mcp.WithDescription("Get one workout with every performed set: exercise, set number, reps, and weight."),
	mcp.WithString("id", mcp.Required(), mcp.Description("Workout identifier")),
)

var toolGetProgressSummary = mcp.NewTool("get_progress_summary",
	mcp.WithDescription("Training volume and session counts bucketed per week (trailing 12 weeks) or per month (trailing 6 months)."),
	mcp.WithString("bucket", mcp.Description("Bucket size. Defaults to 'week'."), mcp.Enum("week", "month")),
)

var toolGetPersonalRecords = mcp.NewTool("get_personal_records",
	mcp.WithDescription("Top personal records: for each (exercise, rep count) pair, the heaviest set ever logged."),
)

// --- Tool handlers ---

func (h *handlers) listWorkouts(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	uid := UserIDFromContext(ctx)

	list, err := h.svc.List(ctx, uid)
	if err != nil {
		h.log.Error("mcp list_workouts", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}

	start := req.GetString("start", "")
	end := req.GetString("end", "")
	focus := req.GetString("focus", "")

	filtered := make([]models.Workout, 0, len(list))
	for _, w := range list {
		if start != "" && w.WorkoutDate < start {
			continue
		}
		if end != "" && w.WorkoutDate > end {
			continue
		}
		if focus != "" && string(w.Focus) != focus {
			continue
		}
		filtered = append(filtered, w)
	}

	result, err := mcp.NewToolResultJSON(filtered)
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}

func (h *handlers) getWorkout(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError("id parameter is required"), nil
	}

	uid := UserIDFromContext(ctx)
	detail, err := h.svc.Get(ctx, uid, id)
	if err != nil {
		h.log.Error("mcp get_workout", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}
	if detail == nil {
		return mcp.NewToolResultError("workout not found"), nil
	}

	result, err := mcp.NewToolResultJSON(detail)
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}

func (h *handlers) getProgressSummary(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	uid := UserIDFromContext(ctx)
	history, err := h.svc.History(ctx, uid)
	if err != nil {
		h.log.Error("mcp get_progress_summary", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}

	var points []stats.ProgressPoint
	if req.GetString("bucket", "week") == "month" {
		points = stats.MonthlySeries(history, time.Now())
	} else {
		points = stats.WeeklySeries(history, time.Now(), h.weekStart)
	}

	result, err := mcp.NewToolResultJSON(points)
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}

func (h *handlers) getPersonalRecords(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	uid := UserIDFromContext(ctx)
	history, err := h.svc.History(ctx, uid)
	if err != nil {
		h.log.Error("mcp get_personal_records", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}

	result, err := mcp.NewToolResultJSON(stats.PersonalRecords(history))
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}

// --- Resource handlers ---

func (h *handlers) recentWorkouts(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	uid := UserIDFromContext(ctx)
	history, err := h.svc.History(ctx, uid)
	if err != nil {
		return nil, err
	}

	cutoff := time.Now().AddDate(0, 0, -30).Format("2006-01-02")
	recent := make([]models.WorkoutDetail, 0, len(history))
	for _, d := range history {
		if d.WorkoutDate >= cutoff {
			recent = append(recent, d)
		}
	}

	data, err := json.Marshal(recent)
	if err != nil {
		return nil, err
	}

	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      req.Params.URI,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}
