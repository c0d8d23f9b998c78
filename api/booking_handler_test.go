package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/hanksha/meeting-room-booking-backend/api"
	mock_api "github.com/hanksha/meeting-room-booking-backend/api/mocks"
	bk "github.com/hanksha/meeting-room-booking-backend/booking"
	bk_mocks "github.com/hanksha/meeting-room-booking-backend/booking/mocks"
	"github.com/hanksha/meeting-room-booking-backend/identity"
	"github.com/hanksha/meeting-room-booking-backend/lock"
	"github.com/stretchr/testify/assert"
	"go.uber.org/mock/gomock"
)

var (
	member = identity.Principal{UserID: "U1"}
	admin  = identity.Principal{UserID: "A1", IsAdmin: true}
)

func setPrincipalInContext(principal identity.Principal) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(api.PrincipalKey, principal)
		c.Next()
	}
}

func setupRouter(t *testing.T, principal identity.Principal) (*gin.Engine, *gomock.Controller, *mock_api.MockBookingService) {
	t.Helper()
	ctrl := gomock.NewController(t)

	gin.SetMode(gin.TestMode)
	router := gin.Default()
	mockService := mock_api.NewMockBookingService(ctrl)
	handler := api.NewBookingHandler(mockService)
	rg := router.Group("/api/v1/bookings")
	rg.Use(setPrincipalInContext(principal))
	handler.Register(rg)

	return router, ctrl, mockService
}

func at(hour, minute int) time.Time {
	return time.Date(2024, 1, 1, hour, minute, 0, 0, time.UTC)
}

func TestCreateBooking(t *testing.T) {

	t.Run("success", func(t *testing.T) {
		router, ctrl, mockService := setupRouter(t, member)
		defer ctrl.Finish()

		created := bk.Booking{ID: "b1", UserID: "U1", RoomID: "R1", StartTime: at(10, 0), EndTime: at(11, 0)}
		createdJson, _ := json.MarshalIndent(created, "", "    ")

		mockService.EXPECT().CreateBooking(gomock.Any(), member, bk.NewBooking{
			UserID: "U1", RoomID: "R1", StartTime: at(10, 0), EndTime: at(11, 0),
		}).Return(created, nil).Times(1)

		body := `{"roomId":"R1","startTime":"2024-01-01T12:00:00+02:00","endTime":"2024-01-01T11:00:00"}`
		w := httptest.NewRecorder()
		req, _ := http.NewRequest("POST", "/api/v1/bookings", bytes.NewBufferString(body))
		router.ServeHTTP(w, req)

		assert.Equal(t, 201, w.Code)
		assert.JSONEq(t, string(createdJson), w.Body.String())
	})

	t.Run("conflict", func(t *testing.T) {
		router, ctrl, mockService := setupRouter(t, member)
		defer ctrl.Finish()

		mockService.EXPECT().CreateBooking(gomock.Any(), member, gomock.Any()).Return(bk.Booking{}, bk.ErrConflict).Times(1)

		body := `{"roomId":"R1","startTime":"2024-01-01T10:30:00Z","endTime":"2024-01-01T10:45:00Z"}`
		w := httptest.NewRecorder()
		req, _ := http.NewRequest("POST", "/api/v1/bookings", bytes.NewBufferString(body))
		router.ServeHTTP(w, req)

		assert.Equal(t, 409, w.Code)
		assert.JSONEq(t, `{"error":"room is not available during the specified time"}`, w.Body.String())
	})

	t.Run("past booking", func(t *testing.T) {
		router, ctrl, mockService := setupRouter(t, member)
		defer ctrl.Finish()

		mockService.EXPECT().CreateBooking(gomock.Any(), member, gomock.Any()).Return(bk.Booking{}, bk.ErrPastBooking).Times(1)

		body := `{"roomId":"R1","startTime":"2024-01-01T10:30:00Z","endTime":"2024-01-01T10:45:00Z"}`
		w := httptest.NewRecorder()
		req, _ := http.NewRequest("POST", "/api/v1/bookings", bytes.NewBufferString(body))
		router.ServeHTTP(w, req)

		assert.Equal(t, 400, w.Code)
		assert.JSONEq(t, `{"error":"cannot create a booking in the past"}`, w.Body.String())
	})

	t.Run("unknown room", func(t *testing.T) {
		router, ctrl, mockService := setupRouter(t, member)
		defer ctrl.Finish()

		mockService.EXPECT().CreateBooking(gomock.Any(), member, gomock.Any()).Return(bk.Booking{}, bk.ErrRoomNotFound).Times(1)

		body := `{"roomId":"R9","startTime":"2024-01-01T10:30:00Z","endTime":"2024-01-01T10:45:00Z"}`
		w := httptest.NewRecorder()
		req, _ := http.NewRequest("POST", "/api/v1/bookings", bytes.NewBufferString(body))
		router.ServeHTTP(w, req)

		assert.Equal(t, 404, w.Code)
		assert.JSONEq(t, `{"error":"room not found"}`, w.Body.String())
	})

	t.Run("store unavailable", func(t *testing.T) {
		router, ctrl, mockService := setupRouter(t, member)
		defer ctrl.Finish()

		mockService.EXPECT().CreateBooking(gomock.Any(), member, gomock.Any()).Return(bk.Booking{}, bk.ErrStoreUnavailable).Times(1)

		body := `{"roomId":"R1","startTime":"2024-01-01T10:30:00Z","endTime":"2024-01-01T10:45:00Z"}`
		w := httptest.NewRecorder()
		req, _ := http.NewRequest("POST", "/api/v1/bookings", bytes.NewBufferString(body))
		router.ServeHTTP(w, req)

		assert.Equal(t, 503, w.Code)
	})

	t.Run("bad body", func(t *testing.T) {
		router, ctrl, mockService := setupRouter(t, member)
		defer ctrl.Finish()

		mockService.EXPECT().CreateBooking(gomock.Any(), gomock.Any(), gomock.Any()).Times(0)

		for _, body := range []string{
			`{"roomId":"R1","startTime":"yesterday","endTime":"2024-01-01T10:45:00Z"}`,
			`{"roomId":"R1","endTime":"2024-01-01T10:45:00Z"}`,
			`{"startTime":"2024-01-01T10:30:00Z","endTime":"2024-01-01T10:45:00Z"}`,
			`not json`,
		} {
			w := httptest.NewRecorder()
			req, _ := http.NewRequest("POST", "/api/v1/bookings", bytes.NewBufferString(body))
			router.ServeHTTP(w, req)

			assert.Equal(t, 400, w.Code, body)
		}
	})
}

func TestUpdateBooking(t *testing.T) {

	t.Run("partial", func(t *testing.T) {
		router, ctrl, mockService := setupRouter(t, member)
		defer ctrl.Finish()

		updated := bk.Booking{ID: "b1", UserID: "U1", RoomID: "R1", StartTime: at(10, 0), EndTime: at(10, 45)}
		updatedJson, _ := json.MarshalIndent(updated, "", "    ")

		mockService.EXPECT().UpdateBooking(gomock.Any(), member, "b1", bk.Patch{EndTime: bk.Some(at(10, 45))}).
			Return(updated, nil).Times(1)

		w := httptest.NewRecorder()
		req, _ := http.NewRequest("PUT", "/api/v1/bookings/b1", bytes.NewBufferString(`{"endTime":"2024-01-01T10:45:00Z"}`))
		router.ServeHTTP(w, req)

		assert.Equal(t, 200, w.Code)
		assert.JSONEq(t, string(updatedJson), w.Body.String())
	})

	t.Run("immutable field", func(t *testing.T) {
		router, ctrl, mockService := setupRouter(t, member)
		defer ctrl.Finish()

		mockService.EXPECT().UpdateBooking(gomock.Any(), member, "b1", bk.Patch{RoomID: bk.Some("R2")}).
			Return(bk.Booking{}, bk.ErrImmutableField).Times(1)

		w := httptest.NewRecorder()
		req, _ := http.NewRequest("PUT", "/api/v1/bookings/b1", bytes.NewBufferString(`{"roomId":"R2"}`))
		router.ServeHTTP(w, req)

		assert.Equal(t, 400, w.Code)
		assert.JSONEq(t, `{"error":"userId and roomId of a booking cannot be changed"}`, w.Body.String())
	})

	t.Run("forbidden", func(t *testing.T) {
		router, ctrl, mockService := setupRouter(t, member)
		defer ctrl.Finish()

		mockService.EXPECT().UpdateBooking(gomock.Any(), member, "b2", gomock.Any()).Return(bk.Booking{}, bk.ErrForbidden).Times(1)

		w := httptest.NewRecorder()
		req, _ := http.NewRequest("PUT", "/api/v1/bookings/b2", bytes.NewBufferString(`{"startTime":"2024-01-01T09:00:00Z"}`))
		router.ServeHTTP(w, req)

		assert.Equal(t, 403, w.Code)
		assert.JSONEq(t, `{"error":"not allowed"}`, w.Body.String())
	})

	t.Run("null is passed to the service", func(t *testing.T) {
		router, ctrl, mockService := setupRouter(t, member)
		defer ctrl.Finish()

		mockService.EXPECT().UpdateBooking(gomock.Any(), member, "b1", bk.Patch{EndTime: bk.Cleared[time.Time]()}).
			Return(bk.Booking{}, bk.ErrNullField).Times(1)

		w := httptest.NewRecorder()
		req, _ := http.NewRequest("PUT", "/api/v1/bookings/b1", bytes.NewBufferString(`{"endTime":null}`))
		router.ServeHTTP(w, req)

		assert.Equal(t, 400, w.Code)
		assert.JSONEq(t, `{"error":"fields cannot be set to null"}`, w.Body.String())
	})
}

func TestUpdateOtherUsersBooking(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	users := bk_mocks.NewMockUserDirectory(ctrl)
	users.EXPECT().UserExists(gomock.Any(), gomock.Any()).Return(true, nil).AnyTimes()
	rooms := bk_mocks.NewMockRoomCatalog(ctrl)
	rooms.EXPECT().RoomExists(gomock.Any(), gomock.Any()).Return(true, nil).AnyTimes()

	svc := bk.NewService(bk.NewMemoryRepository(), users, rooms, lock.NewKeyedMutex()).
		WithClock(func() time.Time { return at(0, 0) })

	owned, err := svc.CreateBooking(context.Background(), member, bk.NewBooking{
		UserID: "U1", RoomID: "R1", StartTime: at(10, 0), EndTime: at(11, 0),
	})
	assert.NoError(t, err)

	gin.SetMode(gin.TestMode)
	router := gin.Default()
	rg := router.Group("/api/v1/bookings")
	rg.Use(setPrincipalInContext(identity.Principal{UserID: "U2"}))
	api.NewBookingHandler(svc).Register(rg)

	for _, body := range []string{
		`{"endTime":"2024-01-01T11:30:00Z"}`,
		`{"roomId":"R2"}`,
		`{"startTime":null}`,
	} {
		w := httptest.NewRecorder()
		req, _ := http.NewRequest("PUT", "/api/v1/bookings/"+owned.ID, bytes.NewBufferString(body))
		router.ServeHTTP(w, req)

		assert.Equal(t, 403, w.Code, body)
		assert.JSONEq(t, `{"error":"not allowed"}`, w.Body.String(), body)
	}
}

func TestCancelBooking(t *testing.T) {

	t.Run("success", func(t *testing.T) {
		router, ctrl, mockService := setupRouter(t, member)
		defer ctrl.Finish()

		mockService.EXPECT().CancelBooking(gomock.Any(), member, "b1").Return(true, nil).Times(1)

		w := httptest.NewRecorder()
		req, _ := http.NewRequest("DELETE", "/api/v1/bookings/b1", nil)
		router.ServeHTTP(w, req)

		assert.Equal(t, 200, w.Code)
		assert.JSONEq(t, `{"message":"booking canceled"}`, w.Body.String())
	})

	t.Run("not found", func(t *testing.T) {
		router, ctrl, mockService := setupRouter(t, member)
		defer ctrl.Finish()

		mockService.EXPECT().CancelBooking(gomock.Any(), member, "b1").Return(false, nil).Times(1)

		w := httptest.NewRecorder()
		req, _ := http.NewRequest("DELETE", "/api/v1/bookings/b1", nil)
		router.ServeHTTP(w, req)

		assert.Equal(t, 404, w.Code)
		assert.JSONEq(t, `{"error":"booking not found"}`, w.Body.String())
	})

	t.Run("error", func(t *testing.T) {
		router, ctrl, mockService := setupRouter(t, member)
		defer ctrl.Finish()

		mockService.EXPECT().CancelBooking(gomock.Any(), member, "b1").Return(false, assert.AnError).Times(1)

		w := httptest.NewRecorder()
		req, _ := http.NewRequest("DELETE", "/api/v1/bookings/b1", nil)
		router.ServeHTTP(w, req)

		assert.Equal(t, 500, w.Code)
		assert.JSONEq(t, `{"error":"failed to cancel booking"}`, w.Body.String())
	})
}

func TestGetBooking(t *testing.T) {
	router, ctrl, mockService := setupRouter(t, member)
	defer ctrl.Finish()

	found := bk.Booking{ID: "b1", UserID: "U1", RoomID: "R1", StartTime: at(10, 0), EndTime: at(11, 0)}
	foundJson, _ := json.MarshalIndent(found, "", "    ")

	mockService.EXPECT().FindBooking(gomock.Any(), member, "b1").Return(found, nil).Times(1)
	mockService.EXPECT().FindBooking(gomock.Any(), member, "b9").Return(bk.Booking{}, bk.ErrBookingNotFound).Times(1)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/api/v1/bookings/b1", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, 200, w.Code)
	assert.JSONEq(t, string(foundJson), w.Body.String())

	w = httptest.NewRecorder()
	req, _ = http.NewRequest("GET", "/api/v1/bookings/b9", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, 404, w.Code)
	assert.JSONEq(t, `{"error":"booking not found"}`, w.Body.String())
}

func TestListBookings(t *testing.T) {

	t.Run("all", func(t *testing.T) {
		router, ctrl, mockService := setupRouter(t, admin)
		defer ctrl.Finish()

		bookings := []bk.Booking{
			{ID: "b1", UserID: "U1", RoomID: "R1", StartTime: at(9, 0), EndTime: at(10, 0)},
			{ID: "b2", UserID: "U2", RoomID: "R1", StartTime: at(10, 0), EndTime: at(11, 0)},
		}
		bookingsJson, _ := json.MarshalIndent(bookings, "", "    ")

		mockService.EXPECT().ListBookings(gomock.Any(), admin, bk.AllBookings(), 0, 0).Return(bookings, nil).Times(1)

		w := httptest.NewRecorder()
		req, _ := http.NewRequest("GET", "/api/v1/bookings", nil)
		router.ServeHTTP(w, req)

		assert.Equal(t, 200, w.Code)
		assert.JSONEq(t, string(bookingsJson), w.Body.String())
	})

	t.Run("all as member", func(t *testing.T) {
		router, ctrl, mockService := setupRouter(t, member)
		defer ctrl.Finish()

		mockService.EXPECT().ListBookings(gomock.Any(), member, bk.AllBookings(), 0, 0).Return(nil, bk.ErrForbidden).Times(1)

		w := httptest.NewRecorder()
		req, _ := http.NewRequest("GET", "/api/v1/bookings", nil)
		router.ServeHTTP(w, req)

		assert.Equal(t, 403, w.Code)
	})

	t.Run("by user with paging", func(t *testing.T) {
		router, ctrl, mockService := setupRouter(t, member)
		defer ctrl.Finish()

		mockService.EXPECT().ListBookings(gomock.Any(), member, bk.ByUser("U1"), 5, 10).Return([]bk.Booking{}, nil).Times(1)

		w := httptest.NewRecorder()
		req, _ := http.NewRequest("GET", "/api/v1/bookings/user/U1?skip=5&limit=10", nil)
		router.ServeHTTP(w, req)

		assert.Equal(t, 200, w.Code)
		assert.JSONEq(t, `[]`, w.Body.String())
	})

	t.Run("by room", func(t *testing.T) {
		router, ctrl, mockService := setupRouter(t, admin)
		defer ctrl.Finish()

		mockService.EXPECT().ListBookings(gomock.Any(), admin, bk.ByRoom("R1"), 0, 0).Return([]bk.Booking{}, nil).Times(1)

		w := httptest.NewRecorder()
		req, _ := http.NewRequest("GET", "/api/v1/bookings/room/R1", nil)
		router.ServeHTTP(w, req)

		assert.Equal(t, 200, w.Code)
	})

	t.Run("bad paging", func(t *testing.T) {
		router, ctrl, mockService := setupRouter(t, member)
		defer ctrl.Finish()

		mockService.EXPECT().ListBookings(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Times(0)

		w := httptest.NewRecorder()
		req, _ := http.NewRequest("GET", "/api/v1/bookings/user/U1?skip=abc", nil)
		router.ServeHTTP(w, req)

		assert.Equal(t, 400, w.Code)
		assert.JSONEq(t, `{"error":"skip must be an integer"}`, w.Body.String())
	})
}

func TestAvailability(t *testing.T) {

	t.Run("available", func(t *testing.T) {
		router, ctrl, mockService := setupRouter(t, member)
		defer ctrl.Finish()

		mockService.EXPECT().CheckAvailability(gomock.Any(), "R1", at(11, 0), at(11, 30)).Return(true, nil).Times(1)

		w := httptest.NewRecorder()
		req, _ := http.NewRequest("GET", "/api/v1/bookings/availability?roomId=R1&start=2024-01-01T11:00:00Z&end=2024-01-01T11:30:00", nil)
		router.ServeHTTP(w, req)

		assert.Equal(t, 200, w.Code)
		assert.JSONEq(t, `{"available":true}`, w.Body.String())
	})

	t.Run("missing room", func(t *testing.T) {
		router, ctrl, mockService := setupRouter(t, member)
		defer ctrl.Finish()

		mockService.EXPECT().CheckAvailability(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Times(0)

		w := httptest.NewRecorder()
		req, _ := http.NewRequest("GET", "/api/v1/bookings/availability?start=2024-01-01T11:00:00Z&end=2024-01-01T11:30:00Z", nil)
		router.ServeHTTP(w, req)

		assert.Equal(t, 400, w.Code)
	})

	t.Run("invalid interval", func(t *testing.T) {
		router, ctrl, mockService := setupRouter(t, member)
		defer ctrl.Finish()

		mockService.EXPECT().CheckAvailability(gomock.Any(), "R1", gomock.Any(), gomock.Any()).Return(false, bk.ErrInvalidInterval).Times(1)

		w := httptest.NewRecorder()
		req, _ := http.NewRequest("GET", "/api/v1/bookings/availability?roomId=R1&start=2024-01-01T11:30:00Z&end=2024-01-01T11:00:00Z", nil)
		router.ServeHTTP(w, req)

		assert.Equal(t, 400, w.Code)
		assert.JSONEq(t, `{"error":"end time must be after start time"}`, w.Body.String())
	})
}
