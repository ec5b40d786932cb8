package model

import (
	"fmt"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/v2/bson"
)

func TestParseRole(t *testing.T) {
	for _, ok := range []string{"participant", "organizer", "admin"} {
		role, err := ParseRole(ok)
		require.NoError(t, err)
		assert.Equal(t, ok, string(role))
	}

	for _, bad := range []string{"", "Admin", "superuser", "participant "} {
		_, err := ParseRole(bad)
		assert.Error(t, err, bad)
	}
}

func TestEligibilityAdmits(t *testing.T) {
	assert.True(t, EligibilityBoth.Admits(ParticipantIIITH))
	assert.True(t, EligibilityBoth.Admits(ParticipantNonIIITH))
	assert.True(t, Eligibility("").Admits(ParticipantNonIIITH))
	assert.True(t, EligibilityIIITH.Admits(ParticipantIIITH))
	assert.False(t, EligibilityIIITH.Admits(ParticipantNonIIITH))
	assert.False(t, EligibilityNonIIITH.Admits(ParticipantIIITH))
}

func TestStatusTerminal(t *testing.T) {
	assert.True(t, StatusClosed.Terminal())
	assert.True(t, StatusCompleted.Terminal())
	assert.False(t, StatusDraft.Terminal())
	assert.False(t, StatusPublished.Terminal())
	assert.False(t, StatusOngoing.Terminal())
}

func TestNewTicketIDFormat(t *testing.T) {
	eventID := bson.NewObjectID()
	now := time.Now()

	ticket := NewTicketID(eventID, now)

	parts := strings.Split(ticket, "-")
	require.Len(t, parts, 4)
	assert.Equal(t, "FELICITY", parts[0])
	assert.Equal(t, eventID.Hex(), parts[1])
	assert.Equal(t, fmt.Sprint(now.UnixMilli()), parts[2])

	n, err := strconv.Atoi(parts[3])
	require.NoError(t, err)
	assert.GreaterOrEqual(t, n, 0)
	assert.Less(t, n, 1000)
}
