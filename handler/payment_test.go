package handler

import (
	"alumni_events/constants"
	"alumni_events/model"
	"alumni_events/notify"
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func koboOf(amount decimal.Decimal) int64 {
	return amount.Mul(decimal.NewFromInt(100)).IntPart()
}

func TestReconcileSuccessConfirmsRegistration(t *testing.T) {
	db := newTestDB(t)
	alumnus := createAlumnus(t, db)
	event := createEvent(t, db, 10, decimal.NewFromInt(25000))
	res := admit(t, db, alumnus, event)

	rec, err := ReconcilePayment(db, res.Payment.Reference, "success", koboOf(event.Price), "card")
	require.NoError(t, err)

	assert.Equal(t, ReconcileConfirmed, rec.Outcome)
	assert.Equal(t, constants.PAYMENT_SUCCESS, rec.Payment.Status)
	assert.NotNil(t, rec.Payment.PaidAt)
	assert.Equal(t, "card", rec.Payment.Channel)

	var reg model.Registration
	require.NoError(t, db.First(&reg, res.Registration.ID).Error)
	assert.Equal(t, constants.REGISTRATION_CONFIRMED, reg.Status)
	assert.NotNil(t, reg.ConfirmedAt)

	require.NotNil(t, rec.Badge)
	assert.NotEmpty(t, rec.Badge.QRPayload)

	require.Len(t, rec.Events, 1)
	assert.Equal(t, notify.TypeRegistrationConfirmed, rec.Events[0].Type)
}

func TestReconcileFirstSuccessWins(t *testing.T) {
	db := newTestDB(t)
	alumnus := createAlumnus(t, db)
	event := createEvent(t, db, 10, decimal.NewFromInt(25000))
	res := admit(t, db, alumnus, event)

	first, err := ReconcilePayment(db, res.Payment.Reference, "success", koboOf(event.Price), "card")
	require.NoError(t, err)
	require.Equal(t, ReconcileConfirmed, first.Outcome)

	// The retry must not issue a second badge or emit another email.
	second, err := ReconcilePayment(db, res.Payment.Reference, "success", koboOf(event.Price), "card")
	require.NoError(t, err)
	assert.Equal(t, ReconcileDuplicate, second.Outcome)
	assert.Empty(t, second.Events)

	var badges int64
	require.NoError(t, db.Model(&model.Badge{}).
		Where("registration_id = ?", res.Registration.ID).Count(&badges).Error)
	assert.Equal(t, int64(1), badges)
}

func TestReconcileLateFailureDoesNotUnconfirm(t *testing.T) {
	db := newTestDB(t)
	alumnus := createAlumnus(t, db)
	event := createEvent(t, db, 10, decimal.NewFromInt(25000))
	res := admit(t, db, alumnus, event)

	_, err := ReconcilePayment(db, res.Payment.Reference, "success", koboOf(event.Price), "card")
	require.NoError(t, err)

	rec, err := ReconcilePayment(db, res.Payment.Reference, "failed", 0, "card")
	require.NoError(t, err)
	assert.Equal(t, ReconcileDuplicate, rec.Outcome)
	assert.Equal(t, constants.PAYMENT_SUCCESS, rec.Payment.Status)

	var reg model.Registration
	require.NoError(t, db.First(&reg, res.Registration.ID).Error)
	assert.Equal(t, constants.REGISTRATION_CONFIRMED, reg.Status)
}

func TestReconcileAmountMismatchGoesToReview(t *testing.T) {
	db := newTestDB(t)
	alumnus := createAlumnus(t, db)
	event := createEvent(t, db, 10, decimal.NewFromInt(25000))
	res := admit(t, db, alumnus, event)

	rec, err := ReconcilePayment(db, res.Payment.Reference, "success", koboOf(event.Price)-500, "card")
	require.NoError(t, err)

	assert.Equal(t, ReconcileMismatch, rec.Outcome)
	assert.Equal(t, constants.PAYMENT_REVIEW, rec.Payment.Status)
	require.NotNil(t, rec.Payment.GatewayAmount)
	assert.True(t, rec.Payment.GatewayAmount.Equal(decimal.New(koboOf(event.Price)-500, -2)))

	// Registration stays pending, no badge.
	var reg model.Registration
	require.NoError(t, db.First(&reg, res.Registration.ID).Error)
	assert.Equal(t, constants.REGISTRATION_PENDING, reg.Status)

	var badges int64
	require.NoError(t, db.Model(&model.Badge{}).
		Where("registration_id = ?", res.Registration.ID).Count(&badges).Error)
	assert.Equal(t, int64(0), badges)
}

func TestReconcileRetriedFailureKeepsReviewFlag(t *testing.T) {
	db := newTestDB(t)
	alumnus := createAlumnus(t, db)
	event := createEvent(t, db, 10, decimal.NewFromInt(25000))
	res := admit(t, db, alumnus, event)

	// Short amount parks the payment in front of an admin.
	mismatch, err := ReconcilePayment(db, res.Payment.Reference, "success", koboOf(event.Price)-500, "card")
	require.NoError(t, err)
	require.Equal(t, ReconcileMismatch, mismatch.Outcome)

	// A retried failure callback for the same reference must not pull it
	// out of the review queue.
	rec, err := ReconcilePayment(db, res.Payment.Reference, "failed", 0, "card")
	require.NoError(t, err)
	assert.Equal(t, ReconcileDuplicate, rec.Outcome)
	assert.Equal(t, constants.PAYMENT_REVIEW, rec.Payment.Status)

	var payment model.Payment
	require.NoError(t, db.Where("reference = ?", res.Payment.Reference).First(&payment).Error)
	assert.Equal(t, constants.PAYMENT_REVIEW, payment.Status)
}

func TestReconcileFailureThenSuccess(t *testing.T) {
	db := newTestDB(t)
	alumnus := createAlumnus(t, db)
	event := createEvent(t, db, 10, decimal.NewFromInt(25000))
	res := admit(t, db, alumnus, event)

	failed, err := ReconcilePayment(db, res.Payment.Reference, "failed", 0, "card")
	require.NoError(t, err)
	assert.Equal(t, ReconcileFailed, failed.Outcome)
	assert.Equal(t, constants.PAYMENT_FAILED, failed.Payment.Status)

	rec, err := ReconcilePayment(db, res.Payment.Reference, "success", koboOf(event.Price), "bank")
	require.NoError(t, err)
	assert.Equal(t, ReconcileConfirmed, rec.Outcome)
}

func TestReconcileUnknownReference(t *testing.T) {
	db := newTestDB(t)
	_, err := ReconcilePayment(db, "AEV-DOESNOTEXIST", "success", 100, "card")
	assert.ErrorIs(t, err, ErrPaymentNotFound)
}

func TestReconcilePromotedEntryConverts(t *testing.T) {
	db := newTestDB(t)
	event := createEvent(t, db, 1, decimal.NewFromInt(25000))

	holder := createAlumnus(t, db)
	held := admit(t, db, holder, event)

	waiter := createAlumnus(t, db)
	admit(t, db, waiter, event)

	cancel, err := CancelRegistration(db, held.Registration.PublicCode, holder.ID)
	require.NoError(t, err)
	require.NotNil(t, cancel.Promotion)

	promo := cancel.Promotion
	rec, err := ReconcilePayment(db, promo.Payment.Reference, "success", koboOf(event.Price), "card")
	require.NoError(t, err)
	assert.Equal(t, ReconcileConfirmed, rec.Outcome)

	var entry model.WaitlistEntry
	require.NoError(t, db.First(&entry, promo.Entry.ID).Error)
	assert.Equal(t, constants.WAITLIST_CONVERTED, entry.Status)
}

func TestReconcilePaymentForCancelledRegistrationFlagsReview(t *testing.T) {
	db := newTestDB(t)
	alumnus := createAlumnus(t, db)
	event := createEvent(t, db, 10, decimal.NewFromInt(25000))
	res := admit(t, db, alumnus, event)

	_, err := CancelRegistration(db, res.Registration.PublicCode, alumnus.ID)
	require.NoError(t, err)

	rec, err := ReconcilePayment(db, res.Payment.Reference, "success", koboOf(event.Price), "card")
	require.NoError(t, err)
	assert.Equal(t, ReconcileMismatch, rec.Outcome)
	assert.Equal(t, constants.PAYMENT_REVIEW, rec.Payment.Status)

	var reg model.Registration
	require.NoError(t, db.First(&reg, res.Registration.ID).Error)
	assert.Equal(t, constants.REGISTRATION_CANCELLED, reg.Status)
}

func TestPaystackSignatureVerification(t *testing.T) {
	gateway := &Paystack{SecretKey: "sk_test_secret"}
	body := []byte(`{"event":"charge.success","data":{"reference":"AEV-TEST"}}`)

	mac := hmac.New(sha512.New, []byte("sk_test_secret"))
	mac.Write(body)
	signature := hex.EncodeToString(mac.Sum(nil))

	assert.True(t, gateway.VerifySignature(signature, body))
	assert.False(t, gateway.VerifySignature(signature, []byte(`{"tampered":true}`)))
	assert.False(t, gateway.VerifySignature("deadbeef", body))
	assert.False(t, gateway.VerifySignature("", body))
}
