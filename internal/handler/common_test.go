package handler

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/iliyamo/hotel-reservation/internal/model"
	"github.com/iliyamo/hotel-reservation/internal/service"
)

func TestStatusOf(t *testing.T) {
	cases := map[error]int{
		model.ErrRoomNotFound:                              http.StatusNotFound,
		fmt.Errorf("cart: %w", model.ErrInvalidWindow):     http.StatusBadRequest,
		model.ErrCartEmpty:                                 http.StatusBadRequest,
		fmt.Errorf("x: %w", model.ErrInsufficientCapacity): http.StatusConflict,
		model.ErrAlreadyRefunded:                           http.StatusConflict,
		model.ErrForbidden:                                 http.StatusForbidden,
		fmt.Errorf("lock: %w", service.ErrLockTimeout):     http.StatusServiceUnavailable,
		errInvalidBody:                                     http.StatusBadRequest,
		fmt.Errorf("boom"):                                 http.StatusInternalServerError,
	}
	for err, want := range cases {
		assert.Equal(t, want, statusOf(err), err.Error())
	}
}

func TestValidatorRejectsBadInput(t *testing.T) {
	v := NewValidator()
	assert.Error(t, v.Validate(&service.RoomTypeInput{Name: "", Capacity: 1, TotalUnits: 1}))
	assert.Error(t, v.Validate(&service.CheckoutInput{Email: "nope"}))
	assert.NoError(t, v.Validate(&service.SaveCartInput{
		Rooms: []service.CartLineInput{{RoomTypeID: 1, Count: 1}},
	}))
	assert.Error(t, v.Validate(&service.SaveCartInput{
		Rooms: []service.CartLineInput{{RoomTypeID: 0, Count: 1}},
	}))
}
