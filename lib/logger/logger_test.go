package logger

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"path/filepath"
	"preacc/entity"
	"preacc/lib/sl"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sent struct {
	msg   string
	level slog.Level
	topic string
}

type recorder struct {
	messages []sent
}

func (r *recorder) SendMessageWithTopic(msg string, level slog.Level, topic string) {
	r.messages = append(r.messages, sent{msg, level, topic})
}

func TestTelegramHandler(t *testing.T) {
	var out bytes.Buffer
	rec := &recorder{}
	base := slog.NewTextHandler(&out, &slog.HandlerOptions{Level: slog.LevelDebug})
	log := slog.New(NewTelegramHandler(base, rec, slog.LevelWarn)).With(sl.Module("core"))

	log.Info("invoice created")
	assert.Contains(t, out.String(), "invoice created")
	assert.Empty(t, rec.messages)

	log.Error("save failed", sl.Err(errors.New("timeout")))
	require.Len(t, rec.messages, 1)
	assert.Equal(t, entity.TopicError, rec.messages[0].topic)
	assert.Contains(t, rec.messages[0].msg, "*ERROR* `save failed`")
	assert.Contains(t, rec.messages[0].msg, "mod: core")
	assert.Contains(t, rec.messages[0].msg, "timeout")

	log.Warn("paid invoice not found", slog.String(TopicKey, entity.TopicPayment))
	require.Len(t, rec.messages, 2)
	assert.Equal(t, entity.TopicPayment, rec.messages[1].topic)
	assert.Equal(t, slog.LevelWarn, rec.messages[1].level)
}

func TestTelegramHandlerGroup(t *testing.T) {
	rec := &recorder{}
	base := slog.NewTextHandler(&bytes.Buffer{}, nil)
	log := slog.New(NewTelegramHandler(base, rec, slog.LevelWarn)).WithGroup("api")

	log.Warn("slow")
	require.Len(t, rec.messages, 1)
	assert.Contains(t, rec.messages[0].msg, "`api.slow`")
	assert.Equal(t, entity.TopicSystem, rec.messages[0].topic)
}

func TestNewHandler(t *testing.T) {
	ctx := context.Background()

	h, err := NewHandler("local", "")
	require.NoError(t, err)
	assert.True(t, h.Enabled(ctx, slog.LevelDebug))

	path := filepath.Join(t.TempDir(), "logs", "preacc.log")
	h, err = NewHandler("prod", path)
	require.NoError(t, err)
	assert.False(t, h.Enabled(ctx, slog.LevelDebug))
	assert.True(t, h.Enabled(ctx, slog.LevelInfo))
	assert.FileExists(t, path)

	_, err = NewHandler("staging", path)
	assert.EqualError(t, err, "invalid environment: staging")
}
