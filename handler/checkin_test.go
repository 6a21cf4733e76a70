package handler

import (
	"alumni_events/constants"
	"alumni_events/model"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func scanInput(badge *model.Badge, scanType, location string) model.ScanInput {
	return model.ScanInput{
		QRData:       badge.QRPayload,
		ScanType:     scanType,
		ScanLocation: location,
	}
}

func TestRecordScanChecksIn(t *testing.T) {
	db := newTestDB(t)
	alumnus := createAlumnus(t, db)
	event := createEvent(t, db, 10, decimal.Zero)
	res := admit(t, db, alumnus, event)

	now := time.Now()
	scan, err := RecordScan(db, 1, scanInput(res.Badge, constants.SCAN_CHECKIN, "main_entrance"), now)
	require.NoError(t, err)

	assert.False(t, scan.Duplicate)
	assert.True(t, scan.CheckedInNow)
	assert.True(t, scan.Badge.CheckedIn)
	assert.Equal(t, 1, scan.Badge.ScanCount)
	require.NotNil(t, scan.Badge.FirstScanAt)
	assert.Equal(t, alumnus.Email, scan.Alumnus.Email)
}

func TestRecordScanDuplicateWithinWindow(t *testing.T) {
	db := newTestDB(t)
	alumnus := createAlumnus(t, db)
	event := createEvent(t, db, 10, decimal.Zero)
	res := admit(t, db, alumnus, event)

	t0 := time.Now()
	first, err := RecordScan(db, 1, scanInput(res.Badge, constants.SCAN_CHECKIN, "main_entrance"), t0)
	require.NoError(t, err)
	require.False(t, first.Duplicate)

	// Two minutes later: suppressed, original scan returned.
	dup, err := RecordScan(db, 1, scanInput(res.Badge, constants.SCAN_CHECKIN, "main_entrance"), t0.Add(2*time.Minute))
	require.NoError(t, err)
	assert.True(t, dup.Duplicate)
	require.NotNil(t, dup.PriorScanAt)
	assert.WithinDuration(t, t0, *dup.PriorScanAt, time.Second)

	var scans int64
	require.NoError(t, db.Model(&model.BadgeScan{}).
		Where("badge_id = ?", res.Badge.ID).Count(&scans).Error)
	assert.Equal(t, int64(1), scans)

	// Past the window: a fresh scan is recorded, but the badge does not
	// check in a second time.
	later, err := RecordScan(db, 1, scanInput(res.Badge, constants.SCAN_CHECKIN, "main_entrance"), t0.Add(DedupWindow+time.Minute))
	require.NoError(t, err)
	assert.False(t, later.Duplicate)
	assert.False(t, later.CheckedInNow)
	assert.Equal(t, 2, later.Badge.ScanCount)
}

func TestRecordScanDifferentLocationNotSuppressed(t *testing.T) {
	db := newTestDB(t)
	alumnus := createAlumnus(t, db)
	event := createEvent(t, db, 10, decimal.Zero)
	res := admit(t, db, alumnus, event)

	t0 := time.Now()
	_, err := RecordScan(db, 1, scanInput(res.Badge, constants.SCAN_CHECKIN, "main_entrance"), t0)
	require.NoError(t, err)

	other, err := RecordScan(db, 1, scanInput(res.Badge, constants.SCAN_CHECKIN, "hall_b"), t0.Add(time.Minute))
	require.NoError(t, err)
	assert.False(t, other.Duplicate)
}

func TestRecordScanCheckoutAfterCheckinNotSuppressed(t *testing.T) {
	db := newTestDB(t)
	alumnus := createAlumnus(t, db)
	event := createEvent(t, db, 10, decimal.Zero)
	res := admit(t, db, alumnus, event)

	t0 := time.Now()
	_, err := RecordScan(db, 1, scanInput(res.Badge, constants.SCAN_CHECKIN, "main_entrance"), t0)
	require.NoError(t, err)

	out, err := RecordScan(db, 1, scanInput(res.Badge, constants.SCAN_CHECKOUT, "main_entrance"), t0.Add(time.Minute))
	require.NoError(t, err)
	assert.False(t, out.Duplicate)
	assert.False(t, out.CheckedInNow)
	assert.True(t, out.Badge.CheckedIn)
}

func TestRecordScanRejectsTamperedToken(t *testing.T) {
	db := newTestDB(t)
	alumnus := createAlumnus(t, db)
	event := createEvent(t, db, 10, decimal.Zero)
	res := admit(t, db, alumnus, event)

	input := scanInput(res.Badge, constants.SCAN_CHECKIN, "main_entrance")
	input.QRData = input.QRData[:len(input.QRData)-4] + "0000"

	_, err := RecordScan(db, 1, input, time.Now())
	assert.ErrorIs(t, err, ErrInvalidBadge)
}

func TestRecordScanRejectsGarbage(t *testing.T) {
	db := newTestDB(t)
	_, err := RecordScan(db, 1, model.ScanInput{
		QRData: "not-a-token", ScanType: constants.SCAN_CHECKIN, ScanLocation: "main_entrance",
	}, time.Now())
	assert.ErrorIs(t, err, ErrInvalidBadge)
}

func TestRecordScanRejectsCancelledRegistration(t *testing.T) {
	db := newTestDB(t)
	alumnus := createAlumnus(t, db)
	event := createEvent(t, db, 10, decimal.Zero)
	res := admit(t, db, alumnus, event)

	_, err := CancelRegistration(db, res.Registration.PublicCode, alumnus.ID)
	require.NoError(t, err)

	_, err = RecordScan(db, 1, scanInput(res.Badge, constants.SCAN_CHECKIN, "main_entrance"), time.Now())
	assert.ErrorIs(t, err, ErrNotConfirmed)
}

func TestRecordScanRejectsCancelledEvent(t *testing.T) {
	db := newTestDB(t)
	alumnus := createAlumnus(t, db)
	event := createEvent(t, db, 10, decimal.Zero)
	res := admit(t, db, alumnus, event)

	require.NoError(t, db.Model(&model.Event{}).Where("id = ?", event.ID).
		Update("status", constants.EVENT_CANCELLED).Error)

	_, err := RecordScan(db, 1, scanInput(res.Badge, constants.SCAN_CHECKIN, "main_entrance"), time.Now())
	assert.ErrorIs(t, err, ErrEventCancelled)
}
