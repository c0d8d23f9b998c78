package api_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/hanksha/meeting-room-booking-backend/api"
	mock_api "github.com/hanksha/meeting-room-booking-backend/api/mocks"
	"github.com/hanksha/meeting-room-booking-backend/identity"
	"github.com/hanksha/meeting-room-booking-backend/room"
	"github.com/stretchr/testify/assert"
	"go.uber.org/mock/gomock"
)

func setupRoomRouter(t *testing.T, principal identity.Principal) (*gin.Engine, *gomock.Controller, *mock_api.MockRoomService) {
	t.Helper()
	ctrl := gomock.NewController(t)

	gin.SetMode(gin.TestMode)
	router := gin.Default()
	mockService := mock_api.NewMockRoomService(ctrl)
	rg := router.Group("/api/v1/rooms")
	rg.Use(setPrincipalInContext(principal))
	api.NewRoomHandler(mockService).Register(rg)

	return router, ctrl, mockService
}

func TestListRooms(t *testing.T) {
	router, ctrl, mockService := setupRoomRouter(t, member)
	defer ctrl.Finish()

	rooms := []room.Room{{ID: "R1", Name: "Atlas", Capacity: 8, Description: "3rd floor"}}
	roomsJson, _ := json.MarshalIndent(rooms, "", "    ")

	mockService.EXPECT().ListRooms(gomock.Any(), 0, 20).Return(rooms, nil).Times(1)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/api/v1/rooms?limit=20", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, 200, w.Code)
	assert.JSONEq(t, string(roomsJson), w.Body.String())
}

func TestGetRoom(t *testing.T) {
	router, ctrl, mockService := setupRoomRouter(t, member)
	defer ctrl.Finish()

	mockService.EXPECT().GetRoom(gomock.Any(), "R9").Return(room.Room{}, room.ErrRoomNotFound).Times(1)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/api/v1/rooms/R9", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, 404, w.Code)
	assert.JSONEq(t, `{"error":"room not found"}`, w.Body.String())
}

func TestGetRoomByName(t *testing.T) {

	t.Run("found", func(t *testing.T) {
		router, ctrl, mockService := setupRoomRouter(t, member)
		defer ctrl.Finish()

		found := room.Room{ID: "R1", Name: "Atlas", Capacity: 8}
		foundJson, _ := json.MarshalIndent(found, "", "    ")

		mockService.EXPECT().GetRoomByName(gomock.Any(), "Atlas").Return(found, nil).Times(1)
		mockService.EXPECT().GetRoom(gomock.Any(), gomock.Any()).Times(0)

		w := httptest.NewRecorder()
		req, _ := http.NewRequest("GET", "/api/v1/rooms/name/Atlas", nil)
		router.ServeHTTP(w, req)

		assert.Equal(t, 200, w.Code)
		assert.JSONEq(t, string(foundJson), w.Body.String())
	})

	t.Run("missing", func(t *testing.T) {
		router, ctrl, mockService := setupRoomRouter(t, member)
		defer ctrl.Finish()

		mockService.EXPECT().GetRoomByName(gomock.Any(), "Nowhere").Return(room.Room{}, room.ErrRoomNotFound).Times(1)

		w := httptest.NewRecorder()
		req, _ := http.NewRequest("GET", "/api/v1/rooms/name/Nowhere", nil)
		router.ServeHTTP(w, req)

		assert.Equal(t, 404, w.Code)
	})
}

func TestCreateRoom(t *testing.T) {

	t.Run("admin", func(t *testing.T) {
		router, ctrl, mockService := setupRoomRouter(t, admin)
		defer ctrl.Finish()

		created := room.Room{ID: "R1", Name: "Atlas", Capacity: 8}
		createdJson, _ := json.MarshalIndent(created, "", "    ")

		mockService.EXPECT().CreateRoom(gomock.Any(), room.NewRoom{Name: "Atlas", Capacity: 8}).Return(created, nil).Times(1)

		w := httptest.NewRecorder()
		req, _ := http.NewRequest("POST", "/api/v1/rooms", bytes.NewBufferString(`{"name":"Atlas","capacity":8}`))
		router.ServeHTTP(w, req)

		assert.Equal(t, 201, w.Code)
		assert.JSONEq(t, string(createdJson), w.Body.String())
	})

	t.Run("member", func(t *testing.T) {
		router, ctrl, mockService := setupRoomRouter(t, member)
		defer ctrl.Finish()

		mockService.EXPECT().CreateRoom(gomock.Any(), gomock.Any()).Times(0)

		w := httptest.NewRecorder()
		req, _ := http.NewRequest("POST", "/api/v1/rooms", bytes.NewBufferString(`{"name":"Atlas","capacity":8}`))
		router.ServeHTTP(w, req)

		assert.Equal(t, 403, w.Code)
		assert.JSONEq(t, `{"error":"not allowed"}`, w.Body.String())
	})

	t.Run("duplicate name", func(t *testing.T) {
		router, ctrl, mockService := setupRoomRouter(t, admin)
		defer ctrl.Finish()

		mockService.EXPECT().CreateRoom(gomock.Any(), gomock.Any()).Return(room.Room{}, room.ErrRoomNameTaken).Times(1)

		w := httptest.NewRecorder()
		req, _ := http.NewRequest("POST", "/api/v1/rooms", bytes.NewBufferString(`{"name":"Atlas","capacity":8}`))
		router.ServeHTTP(w, req)

		assert.Equal(t, 409, w.Code)
		assert.JSONEq(t, `{"error":"room name already exists"}`, w.Body.String())
	})
}

func TestUpdateRoom(t *testing.T) {
	router, ctrl, mockService := setupRoomRouter(t, admin)
	defer ctrl.Finish()

	capacity := 12
	updated := room.Room{ID: "R1", Name: "Atlas", Capacity: 12}

	mockService.EXPECT().UpdateRoom(gomock.Any(), "R1", room.RoomPatch{Capacity: &capacity}).Return(updated, nil).Times(1)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("PUT", "/api/v1/rooms/R1", bytes.NewBufferString(`{"capacity":12}`))
	router.ServeHTTP(w, req)

	assert.Equal(t, 200, w.Code)
}

func TestDeleteRoom(t *testing.T) {
	router, ctrl, mockService := setupRoomRouter(t, admin)
	defer ctrl.Finish()

	mockService.EXPECT().DeleteRoom(gomock.Any(), "R1").Return(nil).Times(1)
	mockService.EXPECT().DeleteRoom(gomock.Any(), "R9").Return(room.ErrRoomNotFound).Times(1)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("DELETE", "/api/v1/rooms/R1", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, 204, w.Code)

	w = httptest.NewRecorder()
	req, _ = http.NewRequest("DELETE", "/api/v1/rooms/R9", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, 404, w.Code)
}
