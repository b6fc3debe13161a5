// Package diagnostics describes notable runtime events in a form that can be
// logged and pushed to preview clients.
package diagnostics

import (
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

type Severity string

const (
	Info Severity = "info"
	Warn Severity = "warning"
	Err  Severity = "error"
)

const (
	CodeStopped        = "LIFECYCLE.STOPPED"
	CodeRendererClosed = "RENDER.CLOSED"
	CodeRendererFailed = "RENDER.FAILED"
	CodeTraceSaved     = "TRACE.SAVED"
	CodeTraceFailed    = "TRACE.FAILED"
	CodeLocationsUnset = "LOCATIONS.UNSET"
	CodeSinkFailed     = "SINK.FAILED"
)

type Diagnostic struct {
	Severity       Severity       `json:"severity"`
	Code           string         `json:"code"`
	Summary        string         `json:"summary"`
	Detail         string         `json:"detail,omitempty"`
	LikelyCauses   []string       `json:"likely_causes,omitempty"`
	SuggestedFixes []string       `json:"suggested_fixes,omitempty"`
	Evidence       map[string]any `json:"evidence,omitempty"`
}

// Notifier receives diagnostics, e.g. the browser preview.
type Notifier interface {
	Push(Diagnostic)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(Diagnostic)

func (f NotifierFunc) Push(d Diagnostic) { f(d) }

// Log writes d to the global logger at a level matching its severity.
func Log(d Diagnostic) {
	lvl := zerolog.InfoLevel
	switch d.Severity {
	case Warn:
		lvl = zerolog.WarnLevel
	case Err:
		lvl = zerolog.ErrorLevel
	}
	ev := log.WithLevel(lvl).Str("code", d.Code)
	if d.Detail != "" {
		ev = ev.Str("detail", d.Detail)
	}
	if len(d.Evidence) > 0 {
		ev = ev.Interface("evidence", d.Evidence)
	}
	ev.Msg(d.Summary)
}

// Fanout logs d and forwards it to every non-nil notifier.
func Fanout(ns ...Notifier) Notifier {
	return NotifierFunc(func(d Diagnostic) {
		Log(d)
		for _, n := range ns {
			if n != nil {
				n.Push(d)
			}
		}
	})
}
