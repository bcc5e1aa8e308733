package booking

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BruksfildServices01/beauty-meet/internal/httperr"
	"github.com/BruksfildServices01/beauty-meet/internal/models"
)

var now = time.Date(2026, 3, 10, 14, 0, 0, 0, time.UTC)

func TestCustomerCancelPolicy(t *testing.T) {
	assert.Equal(t, PolicyEarly, CustomerCancelPolicy(now.Add(4*time.Hour), now))
	assert.Equal(t, PolicyEarly, CustomerCancelPolicy(now.Add(3*time.Hour), now))
	assert.Equal(t, PolicyLate, CustomerCancelPolicy(now.Add(2*time.Hour), now))
	assert.Equal(t, PolicyLate, CustomerCancelPolicy(now.Add(-time.Hour), now))

	assert.True(t, PolicyEarly.Refunds())
	assert.True(t, PolicyTechFault.Refunds())
	assert.False(t, PolicyLate.Refunds())
}

func TestMarkProviderDone(t *testing.T) {
	b := &models.Booking{Status: string(StatusApproved)}

	require.NoError(t, MarkProviderDone(b, now))
	require.NotNil(t, b.AutoChargeAt)
	assert.Equal(t, now.Add(12*time.Hour), *b.AutoChargeAt)
	assert.Equal(t, now, *b.ProviderConfirmedAt)

	pending := &models.Booking{Status: string(StatusPending)}
	assert.True(t, httperr.IsKind(MarkProviderDone(pending, now), httperr.KindInvalidState))
}

func TestCancel(t *testing.T) {
	t.Run("closed booking is a no-op", func(t *testing.T) {
		b := &models.Booking{Status: string(StatusDeclined)}
		changed, err := Cancel(b)
		require.NoError(t, err)
		assert.False(t, changed)
	})

	t.Run("completed booking is rejected", func(t *testing.T) {
		b := &models.Booking{Status: string(StatusCompleted), CompletedAt: &now}
		_, err := Cancel(b)
		assert.True(t, httperr.IsBusiness(err, "already_completed"))
	})

	t.Run("pending booking cancels", func(t *testing.T) {
		b := &models.Booking{Status: string(StatusPending)}
		changed, err := Cancel(b)
		require.NoError(t, err)
		assert.True(t, changed)
		assert.Equal(t, string(StatusCancelled), b.Status)
	})
}

func TestMarkNoShow(t *testing.T) {
	b := &models.Booking{Status: string(StatusApproved), StartAt: now.Add(time.Minute)}
	_, err := MarkNoShow(b, now)
	assert.True(t, httperr.IsKind(err, httperr.KindTooEarly))
	assert.Equal(t, string(StatusApproved), b.Status)

	changed, err := MarkNoShow(b, now.Add(time.Hour))
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, string(StatusNoShow), b.Status)

	changed, err = MarkNoShow(b, now.Add(2*time.Hour))
	require.NoError(t, err)
	assert.False(t, changed)
}

func TestReschedule(t *testing.T) {
	b := &models.Booking{
		Status:              string(StatusApproved),
		ProviderConfirmedAt: &now,
		CustomerConfirmedAt: &now,
		IssueReportedAt:     &now,
		AutoChargeAt:        &now,
	}
	next := now.Add(48 * time.Hour)

	require.NoError(t, Reschedule(b, next))
	assert.Equal(t, string(StatusPending), b.Status)
	assert.Equal(t, next, b.StartAt)
	assert.Nil(t, b.ProviderConfirmedAt)
	assert.Nil(t, b.CustomerConfirmedAt)
	assert.Nil(t, b.IssueReportedAt)
	assert.Nil(t, b.AutoChargeAt)

	b.Status = string(StatusCancelled)
	assert.Error(t, Reschedule(b, next))
}

func TestReadyForCharge(t *testing.T) {
	b := &models.Booking{Status: string(StatusApproved)}
	assert.False(t, ReadyForCharge(b))

	b.ProviderConfirmedAt = &now
	b.CustomerConfirmedAt = &now
	assert.True(t, ReadyForCharge(b))

	b.IssueReportedAt = &now
	assert.False(t, ReadyForCharge(b))
}
