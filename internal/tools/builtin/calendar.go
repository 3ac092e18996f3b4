// Package builtin ships the stock tool set the CLI registers out of the box:
// an in-memory calendar, the clock, and stub device actions. Real deployments
// replace these with integrations behind the same Tool interface.
package builtin

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"bantz/internal/tools"
)

// Event is one stored calendar entry.
type Event struct {
	ID    int
	Title string
	Date  string // 2006-01-02
	Time  string // 15:04
}

// CalendarStore is an in-memory event store shared by the calendar tools.
type CalendarStore struct {
	mu     sync.Mutex
	nextID int
	events map[int]Event
}

// NewCalendarStore creates an empty store.
func NewCalendarStore() *CalendarStore {
	return &CalendarStore{nextID: 1, events: map[int]Event{}}
}

// Create adds an event directly, bypassing the tool layer. Used for seeding
// demos and tests.
func (s *CalendarStore) Create(title, date, at string) Event {
	return s.create(title, date, at)
}

func (s *CalendarStore) create(title, date, at string) Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	event := Event{ID: s.nextID, Title: title, Date: date, Time: at}
	s.events[event.ID] = event
	s.nextID++
	return event
}

func (s *CalendarStore) list(date string) []Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Event, 0, len(s.events))
	for _, event := range s.events {
		if date == "" || event.Date == date {
			out = append(out, event)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Date != out[j].Date {
			return out[i].Date < out[j].Date
		}
		if out[i].Time != out[j].Time {
			return out[i].Time < out[j].Time
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func (s *CalendarStore) update(id int, title, date, at string) (Event, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	event, ok := s.events[id]
	if !ok {
		return Event{}, false
	}
	if title != "" {
		event.Title = title
	}
	if date != "" {
		event.Date = date
	}
	if at != "" {
		event.Time = at
	}
	s.events[id] = event
	return event, true
}

func (s *CalendarStore) remove(id int) (Event, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	event, ok := s.events[id]
	if ok {
		delete(s.events, id)
	}
	return event, ok
}

type calendarCreate struct{ store *CalendarStore }

func (calendarCreate) Name() string               { return "calendar.create" }
func (calendarCreate) Description() string        { return "Create a calendar event (title, date, time)" }
func (calendarCreate) RequiresConfirmation() bool { return false }

func (t calendarCreate) Invoke(_ context.Context, args map[string]any) (*tools.Result, error) {
	title := stringArg(args, "title")
	if title == "" {
		return nil, fmt.Errorf("title is required")
	}
	event := t.store.create(title, stringArg(args, "date"), stringArg(args, "time"))
	return &tools.Result{
		Content: fmt.Sprintf("created event %d: %s", event.ID, describeEvent(event)),
		Data:    eventData(event),
	}, nil
}

type calendarList struct{ store *CalendarStore }

func (calendarList) Name() string               { return "calendar.list" }
func (calendarList) Description() string        { return "List calendar events, optionally for one date" }
func (calendarList) RequiresConfirmation() bool { return false }

func (t calendarList) Invoke(_ context.Context, args map[string]any) (*tools.Result, error) {
	events := t.store.list(stringArg(args, "date"))
	if len(events) == 0 {
		return &tools.Result{Content: "no events found"}, nil
	}
	lines := make([]string, len(events))
	data := make([]map[string]any, len(events))
	for i, event := range events {
		lines[i] = fmt.Sprintf("%d: %s", event.ID, describeEvent(event))
		data[i] = eventData(event)
	}
	return &tools.Result{
		Content: strings.Join(lines, "\n"),
		Data:    map[string]any{"events": data, "count": len(events)},
	}, nil
}

type calendarUpdate struct{ store *CalendarStore }

func (calendarUpdate) Name() string               { return "calendar.update" }
func (calendarUpdate) Description() string        { return "Update an event by id (title, date, time)" }
func (calendarUpdate) RequiresConfirmation() bool { return false }

func (t calendarUpdate) Invoke(_ context.Context, args map[string]any) (*tools.Result, error) {
	id, err := intArg(args, "id")
	if err != nil {
		return nil, err
	}
	event, ok := t.store.update(id, stringArg(args, "title"), stringArg(args, "date"), stringArg(args, "time"))
	if !ok {
		return nil, fmt.Errorf("event not found: %d", id)
	}
	return &tools.Result{
		Content: fmt.Sprintf("updated event %d: %s", event.ID, describeEvent(event)),
		Data:    eventData(event),
	}, nil
}

type calendarDelete struct{ store *CalendarStore }

func (calendarDelete) Name() string               { return "calendar.delete" }
func (calendarDelete) Description() string        { return "Delete an event by id" }
func (calendarDelete) RequiresConfirmation() bool { return true }

func (t calendarDelete) Invoke(_ context.Context, args map[string]any) (*tools.Result, error) {
	id, err := intArg(args, "id")
	if err != nil {
		return nil, err
	}
	event, ok := t.store.remove(id)
	if !ok {
		return nil, fmt.Errorf("event not found: %d", id)
	}
	return &tools.Result{
		Content: fmt.Sprintf("deleted event %d: %s", event.ID, describeEvent(event)),
		Data:    eventData(event),
	}, nil
}

func describeEvent(event Event) string {
	parts := []string{event.Title}
	if event.Date != "" {
		parts = append(parts, event.Date)
	}
	if event.Time != "" {
		parts = append(parts, event.Time)
	}
	return strings.Join(parts, " ")
}

func eventData(event Event) map[string]any {
	return map[string]any{
		"id":    event.ID,
		"title": event.Title,
		"date":  event.Date,
		"time":  event.Time,
	}
}

func stringArg(args map[string]any, key string) string {
	if v, ok := args[key].(string); ok {
		return strings.TrimSpace(v)
	}
	return ""
}

func intArg(args map[string]any, key string) (int, error) {
	switch v := args[key].(type) {
	case int:
		return v, nil
	case float64:
		return int(v), nil
	case string:
		var n int
		if _, err := fmt.Sscanf(strings.TrimSpace(v), "%d", &n); err == nil {
			return n, nil
		}
	}
	return 0, fmt.Errorf("%s must be a number", key)
}
