package handler

import (
	"alumni_events/constants"
	"alumni_events/model"
	"alumni_events/notify"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestExpireOffersPassesSeatDownTheQueue(t *testing.T) {
	db := newTestDB(t)
	event := createEvent(t, db, 1, decimal.NewFromInt(25000))

	holder := createAlumnus(t, db)
	held := admit(t, db, holder, event)

	first := createAlumnus(t, db)
	admit(t, db, first, event)
	second := createAlumnus(t, db)
	admit(t, db, second, event)

	// Free the seat; the head of the queue gets the offer.
	cancel, err := CancelRegistration(db, held.Registration.PublicCode, holder.ID)
	require.NoError(t, err)
	require.NotNil(t, cancel.Promotion)
	require.Equal(t, first.ID, cancel.Promotion.Entry.AlumnusId)

	// Lapse the offer.
	past := time.Now().Add(-time.Hour)
	require.NoError(t, db.Model(&model.WaitlistEntry{}).
		Where("id = ?", cancel.Promotion.Entry.ID).
		Update("offer_expires_at", past).Error)

	expired, events, err := ExpireWaitlistOffers(db)
	require.NoError(t, err)
	assert.Equal(t, 1, expired)

	// First entry is expired, its registration cancelled, its payment failed.
	var firstEntry model.WaitlistEntry
	require.NoError(t, db.First(&firstEntry, cancel.Promotion.Entry.ID).Error)
	assert.Equal(t, constants.WAITLIST_EXPIRED, firstEntry.Status)

	var firstReg model.Registration
	require.NoError(t, db.First(&firstReg, firstEntry.RegistrationId).Error)
	assert.Equal(t, constants.REGISTRATION_CANCELLED, firstReg.Status)

	var firstPayment model.Payment
	require.NoError(t, db.Where("registration_id = ?", firstReg.ID).First(&firstPayment).Error)
	assert.Equal(t, constants.PAYMENT_FAILED, firstPayment.Status)

	// The seat moved on to the second entry.
	var secondEntry model.WaitlistEntry
	require.NoError(t, db.Where("alumnus_id = ? AND event_id = ?", second.ID, event.ID).
		First(&secondEntry).Error)
	assert.Equal(t, constants.WAITLIST_NOTIFIED, secondEntry.Status)
	require.NotNil(t, secondEntry.OfferExpiresAt)

	require.Len(t, events, 1)
	assert.Equal(t, notify.TypeWaitlistPromoted, events[0].Type)
	assert.Equal(t, second.Email, events[0].To)
}

func TestExpireOffersNoLapsedOffers(t *testing.T) {
	db := newTestDB(t)

	expired, events, err := ExpireWaitlistOffers(db)
	require.NoError(t, err)
	assert.Zero(t, expired)
	assert.Empty(t, events)
}

func TestExpireOffersSkipsPaidConversion(t *testing.T) {
	db := newTestDB(t)
	event := createEvent(t, db, 1, decimal.NewFromInt(25000))

	holder := createAlumnus(t, db)
	held := admit(t, db, holder, event)
	waiter := createAlumnus(t, db)
	admit(t, db, waiter, event)

	cancel, err := CancelRegistration(db, held.Registration.PublicCode, holder.ID)
	require.NoError(t, err)
	promo := cancel.Promotion
	require.NotNil(t, promo)

	// They paid in time; entry is CONVERTED even though the timestamp is old.
	_, err = ReconcilePayment(db, promo.Payment.Reference, "success", koboOf(event.Price), "card")
	require.NoError(t, err)

	require.NoError(t, db.Model(&model.WaitlistEntry{}).
		Where("id = ?", promo.Entry.ID).
		Update("offer_expires_at", time.Now().Add(-time.Hour)).Error)

	expired, _, err := ExpireWaitlistOffers(db)
	require.NoError(t, err)
	assert.Zero(t, expired)
}

func TestExpireOffersStaleReadLosesToSettledOffer(t *testing.T) {
	db := newTestDB(t)
	event := createEvent(t, db, 1, decimal.NewFromInt(25000))

	holder := createAlumnus(t, db)
	held := admit(t, db, holder, event)
	waiter := createAlumnus(t, db)
	admit(t, db, waiter, event)

	cancel, err := CancelRegistration(db, held.Registration.PublicCode, holder.ID)
	require.NoError(t, err)
	promo := cancel.Promotion
	require.NotNil(t, promo)

	require.NoError(t, db.Model(&model.WaitlistEntry{}).
		Where("id = ?", promo.Entry.ID).
		Update("offer_expires_at", time.Now().Add(-time.Hour)).Error)

	// The sweep reads the lapsed entry first...
	var snapshot model.WaitlistEntry
	require.NoError(t, db.First(&snapshot, promo.Entry.ID).Error)
	require.Equal(t, constants.WAITLIST_NOTIFIED, snapshot.Status)

	// ...then the webhook settles the payment before the sweep takes its
	// locks. The stale snapshot must not expire the converted entry.
	_, err = ReconcilePayment(db, promo.Payment.Reference, "success", koboOf(event.Price), "card")
	require.NoError(t, err)

	err = db.Transaction(func(tx *gorm.DB) error {
		done, evs, err := expireLapsedOffer(tx, &snapshot)
		require.NoError(t, err)
		assert.False(t, done)
		assert.Empty(t, evs)
		return nil
	})
	require.NoError(t, err)

	var entry model.WaitlistEntry
	require.NoError(t, db.First(&entry, promo.Entry.ID).Error)
	assert.Equal(t, constants.WAITLIST_CONVERTED, entry.Status)

	var reg model.Registration
	require.NoError(t, db.First(&reg, entry.RegistrationId).Error)
	assert.Equal(t, constants.REGISTRATION_CONFIRMED, reg.Status)
}

func TestPromoteNextEmptyQueue(t *testing.T) {
	db := newTestDB(t)
	event := createEvent(t, db, 5, decimal.Zero)

	err := db.Transaction(func(tx *gorm.DB) error {
		promo, err := PromoteNext(tx, event)
		require.NoError(t, err)
		assert.Nil(t, promo)
		return nil
	})
	require.NoError(t, err)
}

func TestRaiseCapacityPromotesWaiting(t *testing.T) {
	db := newTestDB(t)
	event := createEvent(t, db, 1, decimal.Zero)

	admit(t, db, createAlumnus(t, db), event)
	w1 := createAlumnus(t, db)
	admit(t, db, w1, event)
	w2 := createAlumnus(t, db)
	admit(t, db, w2, event)

	res, err := RaiseCapacity(db, event.ID, 3)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Promoted)
	assert.Equal(t, 3, res.Event.Capacity)
	assert.Len(t, res.Events, 2)

	for _, a := range []*model.Alumnus{w1, w2} {
		var reg model.Registration
		require.NoError(t, db.Where("alumnus_id = ? AND event_id = ?", a.ID, event.ID).
			First(&reg).Error)
		assert.Equal(t, constants.REGISTRATION_CONFIRMED, reg.Status)
	}
}

func TestRaiseCapacityRejectsShrink(t *testing.T) {
	db := newTestDB(t)
	event := createEvent(t, db, 5, decimal.Zero)

	_, err := RaiseCapacity(db, event.ID, 3)
	assert.Error(t, err)

	assert.Equal(t, 5, reloadEvent(t, db, event.ID).Capacity)
}

func TestRaiseCapacityStopsWhenQueueEmpty(t *testing.T) {
	db := newTestDB(t)
	event := createEvent(t, db, 1, decimal.Zero)
	admit(t, db, createAlumnus(t, db), event)

	res, err := RaiseCapacity(db, event.ID, 10)
	require.NoError(t, err)
	assert.Zero(t, res.Promoted)
}
