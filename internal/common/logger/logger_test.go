package logger

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestZapAdapter_FieldsAndLevels(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	log := NewZapAdapter(zap.New(core))

	scoped := log.WithFields(map[string]interface{}{"taskType": "score-applicant"})
	scoped.Warn("schema divergence", map[string]interface{}{
		"slot":  "Property_Area_Rural",
		"cause": errors.New("no slot"),
	})
	scoped.Debug("vector built", nil)

	entries := logs.All()
	if assert.Len(t, entries, 2) {
		warn := entries[0]
		assert.Equal(t, zapcore.WarnLevel, warn.Level)
		assert.Equal(t, "schema divergence", warn.Message)

		ctx := warn.ContextMap()
		assert.Equal(t, "score-applicant", ctx["taskType"])
		assert.Equal(t, "Property_Area_Rural", ctx["slot"])
		assert.Equal(t, "no slot", ctx["cause"])

		assert.Equal(t, zapcore.DebugLevel, entries[1].Level)
	}
}

func TestZapAdapter_WithError(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	log := NewZapAdapter(zap.New(core)).WithError(errors.New("store down"))

	log.Error("append failed", map[string]interface{}{"collection": "loan_applications"})

	entries := logs.FilterMessage("append failed").All()
	if assert.Len(t, entries, 1) {
		ctx := entries[0].ContextMap()
		assert.Equal(t, "store down", ctx["error"])
		assert.Equal(t, "loan_applications", ctx["collection"])
	}
}

func TestNew_UnknownLevelFallsBackToInfo(t *testing.T) {
	l := New("chatty", "json")
	assert.False(t, l.Core().Enabled(zapcore.DebugLevel))
	assert.True(t, l.Core().Enabled(zapcore.InfoLevel))

	l = New("debug", "console")
	assert.True(t, l.Core().Enabled(zapcore.DebugLevel))
}

func TestNoOpLogger(t *testing.T) {
	log := NewNoOpLogger()
	assert.NotPanics(t, func() {
		log.With(map[string]interface{}{"a": 1}).Info("ignored", nil)
	})
}
