// Package mcpserver exposes the scheduling operations as MCP tools.
package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"propcal/internal/dropzone"
	"propcal/internal/lifecycle"
	appLog "propcal/internal/log"
	"propcal/internal/model"
	"propcal/internal/store"
	"propcal/internal/view"
)

const (
	serverName    = "propcal"
	serverVersion = "1.0.0"

	// DefaultActor is written to timelines for tool calls.
	DefaultActor = "Assistant"
)

type Server struct {
	mcpServer *server.MCPServer
	store     *store.Store
	surface   *dropzone.Surface
	loc       *time.Location
	weekStart time.Weekday
	actor     string
}

type Option func(*Server)

func WithActor(name string) Option { return func(s *Server) { s.actor = name } }

func WithWeekStart(d time.Weekday) Option { return func(s *Server) { s.weekStart = d } }

func NewServer(surface *dropzone.Surface, opts ...Option) *Server {
	s := &Server{
		store:   surface.Store,
		surface: surface,
		loc:     surface.Location,
		actor:   DefaultActor,
	}
	if s.loc == nil {
		s.loc = time.Local
	}
	for _, o := range opts {
		o(s)
	}

	s.mcpServer = server.NewMCPServer(
		serverName,
		serverVersion,
		server.WithToolCapabilities(false),
	)
	s.registerTools()
	return s
}

// MCPServer returns the underlying server for ServeStdio.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcpServer
}

func (s *Server) registerTools() {
	s.mcpServer.AddTool(
		mcp.NewTool("list_events",
			mcp.WithDescription("List calendar events around a date, optionally filtered by kind and status"),
			mcp.WithString("date", mcp.Description("Anchor day, YYYY-MM-DD (default: today)")),
			mcp.WithString("view", mcp.Description("day, 3day, week or month (default: day)")),
			mcp.WithString("kind", mcp.Description("work-order, message, lease, community-event, unit-turn or service")),
			mcp.WithString("status", mcp.Description("submitted, scheduled, overdue, in-progress, completed or cancelled")),
		),
		s.handleListEvents,
	)

	s.mcpServer.AddTool(
		mcp.NewTool("find_slot",
			mcp.WithDescription("Find the first free start time on a day for a booking of the given length"),
			mcp.WithString("date", mcp.Required(), mcp.Description("Day, YYYY-MM-DD")),
			mcp.WithNumber("duration", mcp.Description("Length in minutes (default: 60)")),
		),
		s.handleFindSlot,
	)

	s.mcpServer.AddTool(
		mcp.NewTool("reschedule_openings",
			mcp.WithDescription("List the free times a work order can be moved to on a date"),
			mcp.WithString("date", mcp.Required(), mcp.Description("Day as YYYY-MM-DD")),
		),
		s.handleOpenings,
	)

	s.mcpServer.AddTool(
		mcp.NewTool("schedule_suggestion",
			mcp.WithDescription("Put a suggested task on the calendar; without a time the first free slot is used"),
			mcp.WithString("suggestion_id", mcp.Required(), mcp.Description("Suggestion ID")),
			mcp.WithString("date", mcp.Required(), mcp.Description("Day, YYYY-MM-DD")),
			mcp.WithString("time", mcp.Description("Start, HH:mm or h:mm AM/PM")),
		),
		s.handleScheduleSuggestion,
	)

	s.mcpServer.AddTool(
		mcp.NewTool("schedule_event",
			mcp.WithDescription("Schedule or reschedule an existing event; without a time a slot is chosen"),
			mcp.WithString("id", mcp.Required(), mcp.Description("Event ID")),
			mcp.WithString("date", mcp.Required(), mcp.Description("Day, YYYY-MM-DD")),
			mcp.WithString("time", mcp.Description("Start, HH:mm or h:mm AM/PM")),
		),
		s.handleScheduleEvent,
	)

	s.mcpServer.AddTool(
		mcp.NewTool("escalate_event",
			mcp.WithDescription("Mark an event as urgent"),
			mcp.WithString("id", mcp.Required(), mcp.Description("Event ID")),
		),
		s.transition(lifecycle.ActionEscalate),
	)

	s.mcpServer.AddTool(
		mcp.NewTool("cancel_event",
			mcp.WithDescription("Cancel an event"),
			mcp.WithString("id", mcp.Required(), mcp.Description("Event ID")),
			mcp.WithString("reason", mcp.Description("Why it was cancelled")),
		),
		s.transition(lifecycle.ActionCancel),
	)

	s.mcpServer.AddTool(
		mcp.NewTool("complete_event",
			mcp.WithDescription("Mark an event as completed"),
			mcp.WithString("id", mcp.Required(), mcp.Description("Event ID")),
		),
		s.transition(lifecycle.ActionComplete),
	)

	s.mcpServer.AddTool(
		mcp.NewTool("nudge_event",
			mcp.WithDescription("Send a reminder about an event to the assigned team"),
			mcp.WithString("id", mcp.Required(), mcp.Description("Event ID")),
			mcp.WithString("message", mcp.Description("Reminder text")),
		),
		s.transition(lifecycle.ActionNudge),
	)

	s.mcpServer.AddTool(
		mcp.NewTool("complete_task",
			mcp.WithDescription("Tick off a unit turn checklist task"),
			mcp.WithString("id", mcp.Required(), mcp.Description("Event ID")),
			mcp.WithString("task", mcp.Required(), mcp.Description("Task ID")),
		),
		s.transition(lifecycle.ActionCompleteTask),
	)

	s.mcpServer.AddTool(
		mcp.NewTool("undo_task",
			mcp.WithDescription("Reopen a checklist task completed today"),
			mcp.WithString("id", mcp.Required(), mcp.Description("Event ID")),
			mcp.WithString("task", mcp.Required(), mcp.Description("Task ID")),
		),
		s.transition(lifecycle.ActionUndoTask),
	)
}

func (s *Server) handleListEvents(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	span, err := view.ParseSpan(req.GetString("view", ""))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	anchor := s.store.Now().In(s.loc)
	if d := req.GetString("date", ""); d != "" {
		if anchor, err = model.ParseDay(d, s.loc); err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
	}
	kind, status := req.GetString("kind", ""), req.GetString("status", "")
	var k model.Kind
	if kind != "" {
		if k, err = model.ParseKind(kind); err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
	}
	var st model.Status
	if status != "" {
		if st, err = model.ParseStatus(status); err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
	}

	events := view.Window(s.store.List(func(e model.Event) bool {
		return (k == "" || e.Kind == k) && (st == "" || e.Status == st)
	}), anchor, span, s.weekStart)
	if len(events) == 0 {
		return mcp.NewToolResultText("No events found."), nil
	}
	return jsonResult(events)
}

func (s *Server) handleFindSlot(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	date := req.GetString("date", "")
	if date == "" {
		return mcp.NewToolResultError("date is required"), nil
	}
	duration := int(req.GetFloat("duration", 0))
	clock, err := s.surface.NextSlot(date, duration)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("no slot: %v", err)), nil
	}
	return mcp.NewToolResultText(clock), nil
}

func (s *Server) handleScheduleSuggestion(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id := req.GetString("suggestion_id", "")
	if id == "" {
		return mcp.NewToolResultError("suggestion_id is required"), nil
	}
	res, err := s.surface.Drop(
		dropzone.Payload{Source: dropzone.SourceSuggestion, SuggestionID: id},
		dropzone.Target{Date: req.GetString("date", ""), Time: req.GetString("time", "")},
		s.actor,
	)
	return resultOf(res, err)
}

func (s *Server) handleScheduleEvent(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id := req.GetString("id", "")
	if id == "" {
		return mcp.NewToolResultError("id is required"), nil
	}
	res, err := s.surface.Drop(
		dropzone.Payload{Source: dropzone.SourceEvent, EventID: id},
		dropzone.Target{Date: req.GetString("date", ""), Time: req.GetString("time", "")},
		s.actor,
	)
	return resultOf(res, err)
}

func (s *Server) handleOpenings(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	date := req.GetString("date", "")
	if date == "" {
		return mcp.NewToolResultError("date is required"), nil
	}
	times, err := s.surface.RescheduleOpenings(date)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if len(times) == 0 {
		return mcp.NewToolResultText("No openings on " + date + "."), nil
	}
	return mcp.NewToolResultText(strings.Join(times, ", ")), nil
}

// transition builds the handler of a single-event lifecycle tool.
func (s *Server) transition(action lifecycle.Action) server.ToolHandlerFunc {
	return func(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		id := req.GetString("id", "")
		if id == "" {
			return mcp.NewToolResultError("id is required"), nil
		}
		args := lifecycle.Args{
			Message: req.GetString("message", req.GetString("reason", "")),
			Task:    req.GetString("task", ""),
		}
		res, err := s.store.Apply(id, action, s.actor, args)
		return resultOf(res, err)
	}
}

type toolResult struct {
	Outcome string       `json:"outcome"`
	Notice  string       `json:"notice,omitempty"`
	Event   *model.Event `json:"event,omitempty"`
}

// resultOf reports rejections as tool errors so the caller sees why
// nothing changed.
func resultOf(res lifecycle.Result, err error) (*mcp.CallToolResult, error) {
	if err != nil {
		appLog.Debug("mcp tool rejected", "event_id", res.Event.ID, "err", err)
		return mcp.NewToolResultError(err.Error()), nil
	}
	if !res.Accepted() {
		reason := "not changed"
		if res.Reason != nil {
			reason = res.Reason.Error()
		}
		if errors.Is(res.Reason, lifecycle.ErrUnchanged) {
			return mcp.NewToolResultText("Event is already at that time; nothing changed."), nil
		}
		return mcp.NewToolResultError(reason), nil
	}
	out := toolResult{Outcome: res.Outcome.String(), Event: &res.Event}
	if res.Notice.Title != "" {
		out.Notice = res.Notice.Title + ": " + res.Notice.Description
	}
	return jsonResult(out)
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	output, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("encode result: %v", err)), nil
	}
	return mcp.NewToolResultText(string(output)), nil
}
