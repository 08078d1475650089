package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestRedactsSecretKeys(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	l := &Logger{SugaredLogger: zap.New(core).Sugar()}

	l.Info("login", "email", "a@b.c", "password", "hunter2", "jwt_token", "abc")

	entries := logs.All()
	if assert.Len(t, entries, 1) {
		fields := entries[0].ContextMap()
		assert.Equal(t, "a@b.c", fields["email"])
		assert.Equal(t, "[REDACTED]", fields["password"])
		assert.Equal(t, "[REDACTED]", fields["jwt_token"])
	}
}

func TestRedactLeavesInputUntouched(t *testing.T) {
	in := []interface{}{"secret", "x", "odd"}
	out := redact(in)
	assert.Equal(t, "x", in[1])
	assert.Equal(t, "[REDACTED]", out[1])
	assert.Equal(t, "odd", out[2])
}
