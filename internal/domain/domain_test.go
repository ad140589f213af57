package domain

import (
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPackageRefCoverage(t *testing.T) {
	assert.True(t, PackageLMV.Covers(time.Friday))
	assert.False(t, PackageLMV.Covers(time.Tuesday))
	assert.True(t, PackageMJ.Covers(time.Thursday))
	assert.Empty(t, PackageSuelta.Weekdays())

	ref, ok := ParsePackageRef(" mj ")
	assert.True(t, ok)
	assert.Equal(t, PackageMJ, ref)

	_, ok = ParsePackageRef("VIP")
	assert.False(t, ok)
}

func TestAccountPlan(t *testing.T) {
	now := time.Date(2025, 1, 6, 10, 0, 0, 0, time.UTC)
	kind := PackageMJ
	expiry := now.Add(48 * time.Hour)
	a := Account{SubscriptionActive: true, PackageKind: &kind, PlanExpiry: &expiry}

	assert.True(t, a.HasActivePlan(now))
	assert.True(t, a.CoversWeekday(now, time.Tuesday))
	assert.False(t, a.CoversWeekday(now, time.Monday))
	assert.False(t, a.HasActivePlan(expiry), "plan is inactive at the expiry instant")
}

func TestEffectiveStatus(t *testing.T) {
	now := time.Date(2025, 1, 6, 10, 0, 0, 0, time.UTC)
	past := Session{Status: SessionActive, ScheduledAt: now.Add(-time.Hour)}
	future := Session{Status: SessionActive, ScheduledAt: now.Add(time.Hour)}
	cancelled := Session{Status: SessionCancelled, ScheduledAt: now.Add(-time.Hour)}

	assert.Equal(t, SessionCompleted, past.EffectiveStatus(now))
	assert.Equal(t, SessionActive, future.EffectiveStatus(now))
	assert.Equal(t, SessionCancelled, cancelled.EffectiveStatus(now))
}

func TestKeysAreUTC(t *testing.T) {
	loc, err := time.LoadLocation("America/Mexico_City")
	require.NoError(t, err)
	local := time.Date(2025, 1, 6, 18, 0, 0, 0, loc)

	assert.Equal(t, SlotKey("Pilates", PackageLMV, local.UTC(), 1), SlotKey("Pilates", PackageLMV, local, 1))
	assert.Equal(t, "2025-01-07T00:00:00Z|3", SpotKey(local, 3))
}

func TestParseLocal(t *testing.T) {
	loc, err := time.LoadLocation("America/Mexico_City")
	require.NoError(t, err)

	at, err := ParseLocal("2025-01-06", "16:00", loc)
	require.NoError(t, err)
	assert.Equal(t, 16, at.Hour())
	assert.Equal(t, time.Monday, at.Weekday())

	_, err = ParseLocal("2025-13-01", "16:00", loc)
	assert.Error(t, err)
}

func TestBedsPerClass(t *testing.T) {
	assert.Equal(t, 8, BedsPerClass(time.Wednesday))
	assert.Equal(t, 5, BedsPerClass(time.Sunday))
}

func TestCancellationOpen(t *testing.T) {
	start := time.Date(2025, 1, 10, 18, 0, 0, 0, time.UTC)

	assert.True(t, CancellationOpen(start, start.Add(-25*time.Hour)))
	assert.False(t, CancellationOpen(start, start.Add(-CancellationWindow)))
	assert.False(t, CancellationOpen(start, start.Add(-23*time.Hour)))
}
