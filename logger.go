package xyzsrgb

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
)

// discardHandler drops every record, it is the default so that the library
// is silent unless SetLogger or WithLogger is used.
type discardHandler struct{}

func (discardHandler) Enabled(context.Context, slog.Level) bool  { return false }
func (discardHandler) Handle(context.Context, slog.Record) error { return nil }
func (d discardHandler) WithAttrs([]slog.Attr) slog.Handler      { return d }
func (d discardHandler) WithGroup(string) slog.Handler           { return d }

var packageLogger atomic.Pointer[slog.Logger]

func init() {
	SetLogger(nil)
}

// SetLogger configures the logger used by conversions that do not specify
// one with WithLogger. By default nothing is logged. Pass nil to restore
// that. Safe for concurrent use.
//
// Ignored parameters and skipped normalization are logged at
// [slog.LevelWarn], a summary of every conversion at [slog.LevelDebug].
func SetLogger(l *slog.Logger) {
	if l == nil {
		l = slog.New(discardHandler{})
	}
	packageLogger.Store(l)
}

// Logger returns the current package logger.
func Logger() *slog.Logger {
	return packageLogger.Load()
}

// conversionLog records what happened during a single conversion. Every
// warning goes both to the logger and to Result.Warnings.
type conversionLog struct {
	log *slog.Logger
	ans *Result
}

func (c conversionLog) warn(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	c.ans.Warnings = append(c.ans.Warnings, msg)
	c.log.Warn(msg)
}

func (c conversionLog) done(num_clamped int) {
	if !c.log.Enabled(context.Background(), slog.LevelDebug) {
		return
	}
	r := c.ans
	c.log.Debug("converted XYZ image to sRGB",
		slog.Int("width", r.Gamma.Width()), slog.Int("height", r.Gamma.Height()),
		slog.Group("tone_map",
			slog.String("policy", r.ToneMap.String()), slog.Float64("ceiling", r.Ceiling), slog.Int("clamped", num_clamped)),
		slog.Group("scale",
			slog.String("policy", r.Scale.String()), slog.Float64("factor", r.ScaleFactor)),
		slog.Int("warnings", len(r.Warnings)))
}
