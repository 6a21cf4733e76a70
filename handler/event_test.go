package handler

import (
	"alumni_events/validate"
	"encoding/json"
	"fmt"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetEventCapacitySnapshot(t *testing.T) {
	db := newTestDB(t)
	event := createEvent(t, db, 3, decimal.Zero)
	admit(t, db, createAlumnus(t, db), event)

	app := fiber.New()
	app.Get("/event/:id/capacity", validate.GetById("id"), GetEventCapacity)

	req := httptest.NewRequest("GET", fmt.Sprintf("/event/%d/capacity", event.ID), nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var body struct {
		Data capacitySnapshot `json:"data"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, 3, body.Data.Capacity)
	assert.EqualValues(t, 1, body.Data.Registered)
	assert.Equal(t, 2, body.Data.Remaining)
	assert.Zero(t, body.Data.Waitlisted)
}

func TestGetEventCapacityUnknownEvent(t *testing.T) {
	newTestDB(t)

	app := fiber.New()
	app.Get("/event/:id/capacity", validate.GetById("id"), GetEventCapacity)

	resp, err := app.Test(httptest.NewRequest("GET", "/event/99999/capacity", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}
