package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLabelString(t *testing.T) {
	assert.Equal(t, "Action Required", LabelActionRequired.String())
	assert.Equal(t, "Spam", LabelSpam.String())
	assert.Equal(t, "Low Priority", LabelLowPriority.String())
	assert.Equal(t, "Unknown", LabelUnknown.String())
	assert.Equal(t, "Unknown", Label(99).String())
}

func TestParseLabel(t *testing.T) {
	l, ok := ParseLabel(" low priority ")
	assert.True(t, ok)
	assert.Equal(t, LabelLowPriority, l)

	_, ok = ParseLabel("Unknown")
	assert.False(t, ok)

	_, ok = ParseLabel("Urgent")
	assert.False(t, ok)
}

func TestLabelFromString_RoundTrip(t *testing.T) {
	for _, l := range append(Labels, LabelUnknown) {
		assert.Equal(t, l, LabelFromString(l.String()))
	}
}

func TestOnlyActionRequiredIsRoutable(t *testing.T) {
	assert.True(t, LabelActionRequired.Routable())
	assert.False(t, LabelSpam.Routable())
	assert.False(t, LabelLowPriority.Routable())
	assert.False(t, LabelUnknown.Routable())
}

func TestReceivedAt(t *testing.T) {
	unknown := UnknownReceivedAt()
	assert.True(t, unknown.IsUnknown())
	assert.Equal(t, "Unknown Date", unknown.String())
	assert.Empty(t, unknown.ISO8601())

	epoch := KnownAt(time.Unix(0, 0).UTC())
	assert.False(t, epoch.IsUnknown())
	assert.NotEqual(t, unknown, epoch)
	assert.Equal(t, "1970-01-01T00:00:00Z", epoch.ISO8601())

	at := KnownAt(time.Date(2024, 3, 1, 9, 30, 0, 0, time.FixedZone("", -5*3600)))
	assert.Equal(t, "2024-03-01 09:30:00 -0500", at.String())
}
