package bot

import (
	"io"
	"log/slog"
	"preacc/entity"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testBot(ids ...int64) *TgBot {
	return newBot(ids, slog.LevelInfo, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestSanitize(t *testing.T) {
	assert.Equal(t, "INV\\-1 \\(draft\\)\\.", Sanitize("INV-1 (draft)."))
	assert.Equal(t, "plain", Sanitize("plain"))
	assert.Equal(t, "a\\_b\\*c", Sanitize("a_b*c"))
}

func TestSplitMessage(t *testing.T) {
	assert.Equal(t, []string{"short"}, splitMessage("short", 10))

	parts := splitMessage("line one\nline two\nline three", 12)
	require.Len(t, parts, 3)
	assert.Equal(t, "line one\n", parts[0])
	assert.Equal(t, "line two\n", parts[1])
	assert.Equal(t, "line three", parts[2])

	long := strings.Repeat("x", 25)
	parts = splitMessage(long, 10)
	require.Len(t, parts, 3)
	assert.Equal(t, long, strings.Join(parts, ""))
}

func TestRecipients(t *testing.T) {
	b := testBot(1, 2)

	assert.ElementsMatch(t, []int64{1, 2}, b.recipients(slog.LevelInfo, entity.TopicInvoice))
	assert.Empty(t, b.recipients(slog.LevelDebug, entity.TopicInvoice))

	b.setEnabled(2, false)
	assert.Equal(t, []int64{1}, b.recipients(slog.LevelError, entity.TopicError))

	b.setTopic(1, []string{entity.TopicPayment}, false)
	assert.Empty(t, b.recipients(slog.LevelInfo, entity.TopicPayment))
	assert.Equal(t, []int64{1}, b.recipients(slog.LevelInfo, entity.TopicInvoice))
}

func TestCommands(t *testing.T) {
	b := testBot(1)

	assert.Contains(t, b.setEnabled(5, true), "`5`")
	assert.Equal(t, "Notifications DISABLED", b.setEnabled(1, false))
	assert.Equal(t, "Notifications ENABLED", b.setEnabled(1, true))

	assert.Contains(t, b.setLevel(1, nil), "INFO")
	assert.Equal(t, "Log level set to WARN", b.setLevel(1, []string{"warn"}))
	assert.Contains(t, b.setLevel(1, []string{"loud"}), "Invalid level")
	assert.Empty(t, b.recipients(slog.LevelInfo, entity.TopicInvoice))

	assert.Equal(t, "Subscribed topics: none", b.setTopic(1, []string{"all"}, false))
	assert.Equal(t, "Subscribed topics: invoice", b.setTopic(1, []string{"INVOICE"}, true))
	assert.Contains(t, b.setTopic(1, []string{"sports"}, true), "Unknown topic")

	status := b.statusText(1)
	assert.Contains(t, status, "ENABLED")
	assert.Contains(t, status, "WARN")
	assert.Contains(t, status, "invoice")
}
