package logger

import (
	"context"
	"fmt"
	"log/slog"
)

// Alerter delivers a short text alert to an operator channel.
type Alerter interface {
	SendAlert(text string) error
}

// telegramHandler fans records out to the wrapped handler and, at or
// above the alert level, to the operator channel. Delivery failures are
// ignored: alerting must never break logging.
type telegramHandler struct {
	next    slog.Handler
	alerter Alerter
	level   slog.Level
}

// SetupTelegramHandler wraps an existing logger so that records at or
// above level are also forwarded to the alerter.
func SetupTelegramHandler(log *slog.Logger, alerter Alerter, level slog.Level) *slog.Logger {
	return slog.New(&telegramHandler{
		next:    log.Handler(),
		alerter: alerter,
		level:   level,
	})
}

func (h *telegramHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.next.Enabled(ctx, level)
}

func (h *telegramHandler) Handle(ctx context.Context, record slog.Record) error {
	if record.Level >= h.level && h.alerter != nil {
		text := fmt.Sprintf("[%s] %s", record.Level, record.Message)
		record.Attrs(func(a slog.Attr) bool {
			text += fmt.Sprintf("\n%s: %s", a.Key, a.Value.String())
			return true
		})
		_ = h.alerter.SendAlert(text)
	}
	return h.next.Handle(ctx, record)
}

func (h *telegramHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &telegramHandler{
		next:    h.next.WithAttrs(attrs),
		alerter: h.alerter,
		level:   h.level,
	}
}

func (h *telegramHandler) WithGroup(name string) slog.Handler {
	return &telegramHandler{
		next:    h.next.WithGroup(name),
		alerter: h.alerter,
		level:   h.level,
	}
}
