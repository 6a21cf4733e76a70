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
)

func TestAdmitFreeEventConfirmsAndIssuesBadge(t *testing.T) {
	db := newTestDB(t)
	alumnus := createAlumnus(t, db)
	event := createEvent(t, db, 10, decimal.Zero)

	res := admit(t, db, alumnus, event)

	assert.Equal(t, constants.REGISTRATION_CONFIRMED, res.Registration.Status)
	assert.NotNil(t, res.Registration.ConfirmedAt)
	assert.NotEmpty(t, res.Registration.PublicCode)
	assert.Nil(t, res.Payment)
	assert.Nil(t, res.WaitlistEntry)

	require.NotNil(t, res.Badge)
	assert.NotEmpty(t, res.Badge.BadgeCode)
	assert.NotEmpty(t, res.Badge.QRPayload)

	require.Len(t, res.Events, 1)
	assert.Equal(t, notify.TypeRegistrationConfirmed, res.Events[0].Type)
	assert.Equal(t, alumnus.Email, res.Events[0].To)
	assert.NotEmpty(t, res.Events[0].QRPNG)
}

func TestAdmitPaidEventCreatesPendingPayment(t *testing.T) {
	db := newTestDB(t)
	alumnus := createAlumnus(t, db)
	event := createEvent(t, db, 10, decimal.NewFromInt(25000))

	res := admit(t, db, alumnus, event)

	assert.Equal(t, constants.REGISTRATION_PENDING, res.Registration.Status)
	assert.Nil(t, res.Badge)
	assert.Empty(t, res.Events)

	require.NotNil(t, res.Payment)
	assert.Equal(t, constants.PAYMENT_PENDING, res.Payment.Status)
	assert.True(t, res.Payment.Amount.Equal(event.Price))
	assert.NotEmpty(t, res.Payment.Reference)
}

func TestAdmitFullEventWaitlistsInOrder(t *testing.T) {
	db := newTestDB(t)
	event := createEvent(t, db, 1, decimal.Zero)

	first := createAlumnus(t, db)
	admit(t, db, first, event)

	second := createAlumnus(t, db)
	res2 := admit(t, db, second, event)
	assert.Equal(t, constants.REGISTRATION_WAITLISTED, res2.Registration.Status)
	require.NotNil(t, res2.WaitlistEntry)
	assert.Equal(t, 1, res2.WaitlistEntry.Position)
	require.Len(t, res2.Events, 1)
	assert.Equal(t, notify.TypeWaitlistPlaced, res2.Events[0].Type)
	assert.Equal(t, 1, res2.Events[0].Position)

	third := createAlumnus(t, db)
	res3 := admit(t, db, third, event)
	assert.Equal(t, 2, res3.WaitlistEntry.Position)
}

func TestAdmitRejectsDuplicateRegistration(t *testing.T) {
	db := newTestDB(t)
	alumnus := createAlumnus(t, db)
	event := createEvent(t, db, 10, decimal.Zero)

	admit(t, db, alumnus, event)

	_, err := AdmitRegistration(db, alumnus, model.CreateRegistrationInput{
		EventId: event.ID, TicketType: "REGULAR",
	})
	assert.ErrorIs(t, err, ErrAlreadyRegistered)
}

func TestAdmitAfterCancellationAllowed(t *testing.T) {
	db := newTestDB(t)
	alumnus := createAlumnus(t, db)
	event := createEvent(t, db, 10, decimal.Zero)

	res := admit(t, db, alumnus, event)
	_, err := CancelRegistration(db, res.Registration.PublicCode, alumnus.ID)
	require.NoError(t, err)

	res2, err := AdmitRegistration(db, alumnus, model.CreateRegistrationInput{
		EventId: event.ID, TicketType: "REGULAR",
	})
	require.NoError(t, err)
	assert.Equal(t, constants.REGISTRATION_CONFIRMED, res2.Registration.Status)
}

func TestAdmitRejectsUnpublishedEvent(t *testing.T) {
	db := newTestDB(t)
	alumnus := createAlumnus(t, db)
	event := createEvent(t, db, 10, decimal.Zero)
	require.NoError(t, db.Model(event).Update("status", constants.EVENT_DRAFT).Error)

	_, err := AdmitRegistration(db, alumnus, model.CreateRegistrationInput{
		EventId: event.ID, TicketType: "REGULAR",
	})
	assert.ErrorIs(t, err, ErrEventNotPublished)
}

func TestAdmitRejectsStartedEvent(t *testing.T) {
	db := newTestDB(t)
	alumnus := createAlumnus(t, db)
	event := createEvent(t, db, 10, decimal.Zero)
	require.NoError(t, db.Model(event).Update("start_date", time.Now().Add(-time.Hour)).Error)

	_, err := AdmitRegistration(db, alumnus, model.CreateRegistrationInput{
		EventId: event.ID, TicketType: "REGULAR",
	})
	assert.ErrorIs(t, err, ErrRegistrationClosed)
}

func TestAdmitUnknownEvent(t *testing.T) {
	db := newTestDB(t)
	alumnus := createAlumnus(t, db)

	_, err := AdmitRegistration(db, alumnus, model.CreateRegistrationInput{
		EventId: 9999, TicketType: "REGULAR",
	})
	assert.ErrorIs(t, err, ErrEventNotFound)
}

func TestCancelFreesSeatAndPromotesFreeEvent(t *testing.T) {
	db := newTestDB(t)
	event := createEvent(t, db, 1, decimal.Zero)

	holder := createAlumnus(t, db)
	held := admit(t, db, holder, event)

	waiter := createAlumnus(t, db)
	waiting := admit(t, db, waiter, event)
	require.Equal(t, constants.REGISTRATION_WAITLISTED, waiting.Registration.Status)

	res, err := CancelRegistration(db, held.Registration.PublicCode, holder.ID)
	require.NoError(t, err)
	assert.Equal(t, constants.REGISTRATION_CANCELLED, res.Registration.Status)

	require.NotNil(t, res.Promotion)
	assert.Equal(t, constants.REGISTRATION_CONFIRMED, res.Promotion.Registration.Status)
	assert.NotNil(t, res.Promotion.Badge)
	assert.Equal(t, constants.WAITLIST_CONVERTED, res.Promotion.Entry.Status)

	require.Len(t, res.Events, 1)
	assert.Equal(t, notify.TypeRegistrationConfirmed, res.Events[0].Type)
	assert.Equal(t, waiter.Email, res.Events[0].To)
}

func TestCancelFreesSeatAndOffersPaidEvent(t *testing.T) {
	db := newTestDB(t)
	event := createEvent(t, db, 1, decimal.NewFromInt(25000))

	holder := createAlumnus(t, db)
	held := admit(t, db, holder, event)

	waiter := createAlumnus(t, db)
	admit(t, db, waiter, event)

	res, err := CancelRegistration(db, held.Registration.PublicCode, holder.ID)
	require.NoError(t, err)

	require.NotNil(t, res.Promotion)
	promo := res.Promotion
	assert.Equal(t, constants.REGISTRATION_PENDING, promo.Registration.Status)
	assert.Equal(t, constants.WAITLIST_NOTIFIED, promo.Entry.Status)
	require.NotNil(t, promo.Entry.OfferExpiresAt)
	assert.WithinDuration(t, time.Now().Add(OfferWindow), *promo.Entry.OfferExpiresAt, time.Minute)

	require.NotNil(t, promo.Payment)
	assert.Equal(t, constants.PAYMENT_PENDING, promo.Payment.Status)
	assert.True(t, promo.Payment.Amount.Equal(event.Price))

	require.Len(t, res.Events, 1)
	assert.Equal(t, notify.TypeWaitlistPromoted, res.Events[0].Type)
	assert.NotEmpty(t, res.Events[0].OfferExpiry)
}

func TestCancelWaitlistedEntryDoesNotPromote(t *testing.T) {
	db := newTestDB(t)
	event := createEvent(t, db, 1, decimal.Zero)

	admit(t, db, createAlumnus(t, db), event)

	waiter := createAlumnus(t, db)
	waiting := admit(t, db, waiter, event)

	res, err := CancelRegistration(db, waiting.Registration.PublicCode, waiter.ID)
	require.NoError(t, err)
	assert.Nil(t, res.Promotion)

	var entry model.WaitlistEntry
	require.NoError(t, db.Where("registration_id = ?", waiting.Registration.ID).First(&entry).Error)
	assert.Equal(t, constants.WAITLIST_EXPIRED, entry.Status)
}

func TestCancelRejectsWrongOwner(t *testing.T) {
	db := newTestDB(t)
	event := createEvent(t, db, 10, decimal.Zero)

	owner := createAlumnus(t, db)
	res := admit(t, db, owner, event)

	stranger := createAlumnus(t, db)
	_, err := CancelRegistration(db, res.Registration.PublicCode, stranger.ID)
	assert.ErrorIs(t, err, ErrRegistrationNotFound)
}

func TestCancelTwiceRejected(t *testing.T) {
	db := newTestDB(t)
	event := createEvent(t, db, 10, decimal.Zero)
	alumnus := createAlumnus(t, db)
	res := admit(t, db, alumnus, event)

	_, err := CancelRegistration(db, res.Registration.PublicCode, alumnus.ID)
	require.NoError(t, err)

	_, err = CancelRegistration(db, res.Registration.PublicCode, alumnus.ID)
	assert.ErrorIs(t, err, ErrAlreadyCancelled)
}

func TestCapacityNeverOversold(t *testing.T) {
	db := newTestDB(t)
	event := createEvent(t, db, 3, decimal.Zero)

	for i := 0; i < 5; i++ {
		admit(t, db, createAlumnus(t, db), event)
	}

	var seated int64
	require.NoError(t, db.Model(&model.Registration{}).
		Where("event_id = ? AND status IN ?", event.ID,
			[]string{constants.REGISTRATION_CONFIRMED, constants.REGISTRATION_PENDING}).
		Count(&seated).Error)
	assert.Equal(t, int64(3), seated)

	var waitlisted int64
	require.NoError(t, db.Model(&model.WaitlistEntry{}).
		Where("event_id = ? AND status = ?", event.ID, constants.WAITLIST_WAITING).
		Count(&waitlisted).Error)
	assert.Equal(t, int64(2), waitlisted)
}
