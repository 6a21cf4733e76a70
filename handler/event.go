package handler

import (
	"alumni_events/constants"
	"alumni_events/database"
	"alumni_events/helper"
	"alumni_events/model"
	"alumni_events/monitoring"
	"alumni_events/notify"
	"alumni_events/utils"
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/jinzhu/copier"
	"gorm.io/gorm"
)

// GetEvents lists events. Guests see PUBLISHED only; staff can filter by
// any status.
func GetEvents(c *fiber.Ctx) error {
	input, ok := c.Locals("input").(model.FilterEventInput)
	if !ok {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid query", nil)
	}

	_, isAdmin, isOrganizer := helper.GetInfoAccountFromToken(c)

	query := database.DB.Model(&model.Event{})
	if isAdmin || isOrganizer {
		if input.Status != "" {
			query = query.Where("status = ?", input.Status)
		}
	} else {
		query = query.Where("status = ?", constants.EVENT_PUBLISHED)
	}
	if input.Search != "" {
		query = query.Where("title LIKE ?", "%"+input.Search+"%")
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, constants.ERROR_INTERNAL_ERROR, err)
	}

	var events []model.Event
	if err := utils.ApplyPagination(query, input.Limit, input.Page).
		Order("start_date asc").
		Find(&events).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, constants.ERROR_INTERNAL_ERROR, err)
	}

	return utils.SuccessResponse(c, fiber.StatusOK, model.ResponseCustom{
		Rows:       events,
		Limit:      input.Limit,
		Page:       input.Page,
		TotalCount: total,
	})
}

// GetEventBySlug serves the public event page.
func GetEventBySlug(c *fiber.Ctx) error {
	var event model.Event
	if err := database.DB.Where("slug = ?", c.Params("slug")).First(&event).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusNotFound, constants.EVENT_NOT_FOUND, err)
	}

	_, isAdmin, isOrganizer := helper.GetInfoAccountFromToken(c)
	if event.Status != constants.EVENT_PUBLISHED && !isAdmin && !isOrganizer {
		return utils.ErrorResponse(c, fiber.StatusNotFound, constants.EVENT_NOT_FOUND, nil)
	}

	return utils.SuccessResponse(c, fiber.StatusOK, event)
}

func CreateEvent(c *fiber.Ctx) error {
	claim, _, _ := helper.GetInfoAccountFromToken(c)

	input, ok := c.Locals("input").(model.CreateEventInput)
	if !ok {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid input", nil)
	}

	var event model.Event
	if err := copier.Copy(&event, &input); err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, constants.ERROR_INTERNAL_ERROR, err)
	}
	event.Slug = helper.GenerateUniqueEventSlug(database.DB, input.Title)
	event.Status = constants.EVENT_DRAFT
	event.CreatedBy = claim.AccountId

	if err := database.DB.Create(&event).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, constants.ERROR_INTERNAL_ERROR, err)
	}

	return utils.SuccessResponse(c, fiber.StatusCreated, event)
}

// EditEvent updates event details. Capacity is deliberately not editable
// here; it only moves through RaiseCapacity so admitted seats can never be
// pulled out from under their holders.
func EditEvent(c *fiber.Ctx) error {
	id, ok := c.Locals("inputId").(int)
	if !ok {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, constants.DATA_INPUT_IS_NOT_NUMBER, nil)
	}
	input, ok := c.Locals("input").(model.EditEventInput)
	if !ok {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid input", nil)
	}

	var event model.Event
	if err := database.DB.First(&event, id).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusNotFound, constants.EVENT_NOT_FOUND, err)
	}

	if err := copier.CopyWithOption(&event, &input, copier.Option{IgnoreEmpty: true}); err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, constants.ERROR_INTERNAL_ERROR, err)
	}
	if input.Title != "" && input.Title != event.Title {
		event.Slug = helper.GenerateUniqueEventSlug(database.DB, input.Title)
	}

	if err := database.DB.Save(&event).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, constants.ERROR_INTERNAL_ERROR, err)
	}

	invalidateCapacityCache(event.ID)
	return utils.SuccessResponse(c, fiber.StatusOK, event)
}

// PublishEvent opens a draft for registration.
func PublishEvent(c *fiber.Ctx) error {
	id, ok := c.Locals("inputId").(int)
	if !ok {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, constants.DATA_INPUT_IS_NOT_NUMBER, nil)
	}

	var event model.Event
	if err := database.DB.First(&event, id).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusNotFound, constants.EVENT_NOT_FOUND, err)
	}
	if event.Status != constants.EVENT_DRAFT {
		return utils.ErrorResponse(c, fiber.StatusConflict, "EVENT_NOT_DRAFT", nil)
	}

	if err := database.DB.Model(&event).Update("status", constants.EVENT_PUBLISHED).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, constants.ERROR_INTERNAL_ERROR, err)
	}
	event.Status = constants.EVENT_PUBLISHED

	return utils.SuccessResponse(c, fiber.StatusOK, event)
}

// CancelEvent cancels an event and closes its registration book: seat
// holders are cancelled, pending payments failed and the waitlist expired.
func CancelEvent(c *fiber.Ctx) error {
	id, ok := c.Locals("inputId").(int)
	if !ok {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, constants.DATA_INPUT_IS_NOT_NUMBER, nil)
	}

	var event model.Event
	err := database.DB.Transaction(func(tx *gorm.DB) error {
		locked, err := helper.LockEvent(tx, uint(id))
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrEventNotFound
			}
			return err
		}
		event = *locked
		if event.Status == constants.EVENT_CANCELLED {
			return nil
		}

		if err := tx.Model(&event).Update("status", constants.EVENT_CANCELLED).Error; err != nil {
			return err
		}
		event.Status = constants.EVENT_CANCELLED

		now := time.Now()
		if err := tx.Model(&model.Registration{}).
			Where("event_id = ? AND status <> ?", event.ID, constants.REGISTRATION_CANCELLED).
			Updates(map[string]interface{}{
				"status":       constants.REGISTRATION_CANCELLED,
				"cancelled_at": now,
			}).Error; err != nil {
			return err
		}
		if err := tx.Model(&model.WaitlistEntry{}).
			Where("event_id = ? AND status IN ?", event.ID,
				[]string{constants.WAITLIST_WAITING, constants.WAITLIST_NOTIFIED}).
			Update("status", constants.WAITLIST_EXPIRED).Error; err != nil {
			return err
		}
		return tx.Model(&model.Payment{}).
			Where("status = ? AND registration_id IN (?)", constants.PAYMENT_PENDING,
				tx.Model(&model.Registration{}).Select("id").Where("event_id = ?", event.ID)).
			Update("status", constants.PAYMENT_FAILED).Error
	})
	if err != nil {
		if errors.Is(err, ErrEventNotFound) {
			return utils.ErrorResponse(c, fiber.StatusNotFound, constants.EVENT_NOT_FOUND, err)
		}
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, constants.ERROR_INTERNAL_ERROR, err)
	}

	invalidateCapacityCache(event.ID)
	return utils.SuccessResponse(c, fiber.StatusOK, event)
}

// RaiseCapacityResult reports what a capacity raise promoted.
type RaiseCapacityResult struct {
	Event    *model.Event
	Promoted int
	Events   []notify.Event
}

// RaiseCapacity grows an event's capacity and immediately fills the new
// seats from the waitlist in queue order. Capacity never shrinks.
func RaiseCapacity(db *gorm.DB, eventId uint, newCapacity int) (*RaiseCapacityResult, error) {
	res := &RaiseCapacityResult{}

	err := db.Transaction(func(tx *gorm.DB) error {
		event, err := helper.LockEvent(tx, eventId)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrEventNotFound
			}
			return err
		}
		if newCapacity <= event.Capacity {
			return errors.New("capacity can only be raised")
		}

		if err := tx.Model(event).Update("capacity", newCapacity).Error; err != nil {
			return err
		}
		event.Capacity = newCapacity
		res.Event = event

		if event.Status != constants.EVENT_PUBLISHED {
			return nil
		}

		for {
			remaining, err := helper.RemainingSeats(tx, event)
			if err != nil {
				return err
			}
			if remaining == 0 {
				return nil
			}
			promo, err := PromoteNext(tx, event)
			if err != nil {
				return err
			}
			if promo == nil {
				return nil
			}
			res.Promoted++
			res.Events = append(res.Events, promo.Events...)
		}
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

// RaiseEventCapacity handles PATCH /admin/events/:id/capacity.
func RaiseEventCapacity(c *fiber.Ctx) error {
	id, ok := c.Locals("inputId").(int)
	if !ok {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, constants.DATA_INPUT_IS_NOT_NUMBER, nil)
	}
	input, ok := c.Locals("input").(model.RaiseCapacityInput)
	if !ok {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid input", nil)
	}

	res, err := RaiseCapacity(database.DB, uint(id), input.Capacity)
	if err != nil {
		if errors.Is(err, ErrEventNotFound) {
			return utils.ErrorResponse(c, fiber.StatusNotFound, constants.EVENT_NOT_FOUND, err)
		}
		return utils.ErrorResponse(c, fiber.StatusBadRequest, err.Error(), err)
	}

	for _, ev := range res.Events {
		notify.Publish(ev)
	}
	for i := 0; i < res.Promoted; i++ {
		monitoring.RecordWaitlistPromotion()
	}

	invalidateCapacityCache(uint(id))
	return utils.SuccessResponse(c, fiber.StatusOK, fiber.Map{
		"event":    res.Event,
		"promoted": res.Promoted,
	})
}

const capacityCacheTTL = 10 * time.Second

func capacityCacheKey(eventId uint) string {
	return "capacity:" + strconv.FormatUint(uint64(eventId), 10)
}

func invalidateCapacityCache(eventId uint) {
	redisClient.Del(context.Background(), capacityCacheKey(eventId))
}

type capacitySnapshot struct {
	Capacity   int   `json:"capacity"`
	Registered int64 `json:"registered"`
	Remaining  int   `json:"remaining"`
	Waitlisted int64 `json:"waitlisted"`
}

// GetEventCapacity serves the seat counter shown on the event page. The
// snapshot is cached briefly in redis; it is advisory only, admissions
// re-check under the row lock.
func GetEventCapacity(c *fiber.Ctx) error {
	id, ok := c.Locals("inputId").(int)
	if !ok {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, constants.DATA_INPUT_IS_NOT_NUMBER, nil)
	}
	eventId := uint(id)

	ctx := context.Background()
	if cached, err := redisClient.Get(ctx, capacityCacheKey(eventId)).Result(); err == nil {
		var snap capacitySnapshot
		if json.Unmarshal([]byte(cached), &snap) == nil {
			return utils.SuccessResponse(c, fiber.StatusOK, snap)
		}
	}

	// One transaction so the capacity, seat count and queue length come
	// from the same snapshot.
	var snap capacitySnapshot
	err := database.DB.Transaction(func(tx *gorm.DB) error {
		var event model.Event
		if err := tx.First(&event, eventId).Error; err != nil {
			return err
		}

		registered, err := helper.CountSeatHolders(tx, eventId)
		if err != nil {
			return err
		}
		remaining := event.Capacity - int(registered)
		if remaining < 0 {
			remaining = 0
		}

		var waitlisted int64
		if err := tx.Model(&model.WaitlistEntry{}).
			Where("event_id = ? AND status = ?", eventId, constants.WAITLIST_WAITING).
			Count(&waitlisted).Error; err != nil {
			return err
		}

		snap = capacitySnapshot{
			Capacity:   event.Capacity,
			Registered: registered,
			Remaining:  remaining,
			Waitlisted: waitlisted,
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return utils.ErrorResponse(c, fiber.StatusNotFound, constants.EVENT_NOT_FOUND, err)
		}
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, constants.ERROR_INTERNAL_ERROR, err)
	}

	if body, err := json.Marshal(snap); err == nil {
		redisClient.Set(ctx, capacityCacheKey(eventId), body, capacityCacheTTL)
	}

	return utils.SuccessResponse(c, fiber.StatusOK, snap)
}
