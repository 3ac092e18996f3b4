package builtin

import (
	"context"
	"fmt"
	"time"

	"bantz/internal/tools"
)

// ClockTool reports the current time. The now func is injectable for tests.
type ClockTool struct {
	Now func() time.Time
}

func (ClockTool) Name() string               { return "system.time" }
func (ClockTool) Description() string        { return "Report the current date and time" }
func (ClockTool) RequiresConfirmation() bool { return false }

func (t ClockTool) Invoke(_ context.Context, _ map[string]any) (*tools.Result, error) {
	now := time.Now
	if t.Now != nil {
		now = t.Now
	}
	at := now()
	return &tools.Result{
		Content: at.Format("2006-01-02 15:04"),
		Data: map[string]any{
			"date": at.Format("2006-01-02"),
			"time": at.Format("15:04"),
		},
	}, nil
}

type openApp struct{}

func (openApp) Name() string               { return "system.open_app" }
func (openApp) Description() string        { return "Open an application by name" }
func (openApp) RequiresConfirmation() bool { return false }

func (openApp) Invoke(_ context.Context, args map[string]any) (*tools.Result, error) {
	app := stringArg(args, "app")
	if app == "" {
		app = stringArg(args, "name")
	}
	if app == "" {
		return nil, fmt.Errorf("app is required")
	}
	// Stub: the real integration shells out to the desktop environment.
	return &tools.Result{Content: fmt.Sprintf("opened %s", app)}, nil
}

type setVolume struct{}

func (setVolume) Name() string               { return "system.set_volume" }
func (setVolume) Description() string        { return "Set system volume to a 0-100 level" }
func (setVolume) RequiresConfirmation() bool { return false }

func (setVolume) Invoke(_ context.Context, args map[string]any) (*tools.Result, error) {
	level, err := intArg(args, "level")
	if err != nil {
		return nil, err
	}
	if level < 0 || level > 100 {
		return nil, fmt.Errorf("level must be between 0 and 100")
	}
	return &tools.Result{
		Content: fmt.Sprintf("volume set to %d", level),
		Data:    map[string]any{"level": level},
	}, nil
}

type mailSend struct{}

func (mailSend) Name() string               { return "mail.send" }
func (mailSend) Description() string        { return "Send an email (to, subject, body)" }
func (mailSend) RequiresConfirmation() bool { return true }

func (mailSend) Invoke(_ context.Context, args map[string]any) (*tools.Result, error) {
	to := stringArg(args, "to")
	if to == "" {
		return nil, fmt.Errorf("to is required")
	}
	return &tools.Result{
		Content: fmt.Sprintf("mail sent to %s", to),
		Data:    map[string]any{"to": to, "subject": stringArg(args, "subject")},
	}, nil
}

type musicPlay struct{}

func (musicPlay) Name() string               { return "music.play" }
func (musicPlay) Description() string        { return "Play music, optionally a named track or artist" }
func (musicPlay) RequiresConfirmation() bool { return false }

func (musicPlay) Invoke(_ context.Context, args map[string]any) (*tools.Result, error) {
	track := stringArg(args, "track")
	if track == "" {
		return &tools.Result{Content: "playing music"}, nil
	}
	return &tools.Result{Content: fmt.Sprintf("playing %s", track)}, nil
}

// RegisterAll registers the stock tool set on registry.
func RegisterAll(registry *tools.Registry, store *CalendarStore) error {
	if store == nil {
		store = NewCalendarStore()
	}
	for _, tool := range []tools.Tool{
		ClockTool{},
		calendarCreate{store: store},
		calendarList{store: store},
		calendarUpdate{store: store},
		calendarDelete{store: store},
		openApp{},
		setVolume{},
		mailSend{},
		musicPlay{},
	} {
		if err := registry.Register(tool); err != nil {
			return err
		}
	}
	return nil
}
