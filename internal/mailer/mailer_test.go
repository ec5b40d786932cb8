package mailer

import (
	"encoding/base64"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildMessageContainsTextAndAttachment(t *testing.T) {
	png := []byte{0x89, 'P', 'N', 'G'}
	msg, err := buildMessage("noreply@example.com", "user@example.com", "Your ticket", "hello there", png)
	require.NoError(t, err)

	raw := string(msg)
	assert.Contains(t, raw, "From: noreply@example.com")
	assert.Contains(t, raw, "To: user@example.com")
	assert.Contains(t, raw, "Subject: Your ticket")
	assert.Contains(t, raw, "hello there")
	assert.Contains(t, raw, `attachment; filename="ticket.png"`)
	assert.Contains(t, raw, base64.StdEncoding.EncodeToString(png))
}

func TestBuildMessageSkipsAttachmentWithoutQR(t *testing.T) {
	msg, err := buildMessage("noreply@example.com", "user@example.com", "Your ticket", "hello", nil)
	require.NoError(t, err)

	assert.False(t, strings.Contains(string(msg), "image/png"))
}
