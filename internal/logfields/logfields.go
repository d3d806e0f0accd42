package logfields

import (
	"log/slog"
	"time"
)

// Canonical log field name constants to avoid drift across packages.
const (
	KeyBuildID      = "build_id"
	KeyPath         = "path"
	KeyExt          = "ext"
	KeyPhase        = "phase"
	KeyTemplateKind = "template_kind"
	KeyScriptName   = "script_name"
	KeyDurationMS   = "duration_ms"
	KeyOutput       = "output"
	KeyCount        = "count"
	KeyError        = "error"
)

// Simple helpers returning slog.Attr. Keeping each granular means callers can compose.
func BuildID(id string) slog.Attr      { return slog.String(KeyBuildID, id) }
func Path(p string) slog.Attr          { return slog.String(KeyPath, p) }
func Ext(e string) slog.Attr           { return slog.String(KeyExt, e) }
func Phase(p string) slog.Attr         { return slog.String(KeyPhase, p) }
func TemplateKind(k string) slog.Attr  { return slog.String(KeyTemplateKind, k) }
func ScriptName(n string) slog.Attr    { return slog.String(KeyScriptName, n) }
func Output(p string) slog.Attr        { return slog.String(KeyOutput, p) }
func Count(n int) slog.Attr            { return slog.Int(KeyCount, n) }
func DurationMS(ms float64) slog.Attr  { return slog.Float64(KeyDurationMS, ms) }
func Duration(d time.Duration) slog.Attr {
	return DurationMS(float64(d.Microseconds()) / 1000)
}
func Error(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}
