package api

//go:generate mockgen -source=room_handler.go -destination=mocks/mock_room_handler.go -package=mocks

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/hanksha/meeting-room-booking-backend/room"
)

type RoomService interface {
	CreateRoom(ctx context.Context, request room.NewRoom) (room.Room, error)
	GetRoom(ctx context.Context, id string) (room.Room, error)
	GetRoomByName(ctx context.Context, name string) (room.Room, error)
	ListRooms(ctx context.Context, skip, limit int) ([]room.Room, error)
	UpdateRoom(ctx context.Context, id string, patch room.RoomPatch) (room.Room, error)
	DeleteRoom(ctx context.Context, id string) error
}

type RoomHandler struct {
	service RoomService
}

func NewRoomHandler(service RoomService) *RoomHandler {
	return &RoomHandler{service: service}
}

func (h *RoomHandler) Register(rg *gin.RouterGroup) {
	adminOnly := AdminOnly()
	rg.GET("", h.List)
	rg.GET("/name/:name", h.GetByName)
	rg.GET("/:id", h.GetByID)
	rg.POST("", adminOnly, h.Create)
	rg.PUT("/:id", adminOnly, h.Update)
	rg.DELETE("/:id", adminOnly, h.Delete)
}

func (h *RoomHandler) List(c *gin.Context) {
	skip, limit, err := page(c)

	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	rooms, err := h.service.ListRooms(c.Request.Context(), skip, limit)

	if err != nil {
		c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to retrieve rooms"})
		return
	}

	c.IndentedJSON(http.StatusOK, rooms)
}

func (h *RoomHandler) GetByID(c *gin.Context) {
	found, err := h.service.GetRoom(c.Request.Context(), c.Param("id"))

	if err != nil {
		writeRoomError(c, err, "failed to fetch room")
		return
	}

	c.IndentedJSON(http.StatusOK, found)
}

func (h *RoomHandler) GetByName(c *gin.Context) {
	found, err := h.service.GetRoomByName(c.Request.Context(), c.Param("name"))

	if err != nil {
		writeRoomError(c, err, "failed to fetch room")
		return
	}

	c.IndentedJSON(http.StatusOK, found)
}

func (h *RoomHandler) Create(c *gin.Context) {
	var request room.NewRoom

	if err := c.ShouldBindJSON(&request); err != nil {
		c.Error(err)
		c.JSON(http.StatusBadRequest, gin.H{"error": "failed to parse JSON body"})
		return
	}

	created, err := h.service.CreateRoom(c.Request.Context(), request)

	if err != nil {
		writeRoomError(c, err, "failed to create room")
		return
	}

	c.IndentedJSON(http.StatusCreated, created)
}

func (h *RoomHandler) Update(c *gin.Context) {
	var patch room.RoomPatch

	if err := c.ShouldBindJSON(&patch); err != nil {
		c.Error(err)
		c.JSON(http.StatusBadRequest, gin.H{"error": "failed to parse JSON body"})
		return
	}

	updated, err := h.service.UpdateRoom(c.Request.Context(), c.Param("id"), patch)

	if err != nil {
		writeRoomError(c, err, "failed to update room")
		return
	}

	c.IndentedJSON(http.StatusOK, updated)
}

func (h *RoomHandler) Delete(c *gin.Context) {
	if err := h.service.DeleteRoom(c.Request.Context(), c.Param("id")); err != nil {
		writeRoomError(c, err, "failed to delete room")
		return
	}

	c.Status(http.StatusNoContent)
}

func writeRoomError(c *gin.Context, err error, fallback string) {
	c.Error(err)

	switch {
	case errors.Is(err, room.ErrRoomNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "room not found"})
	case errors.Is(err, room.ErrRoomNameTaken):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, room.ErrInvalidRoom):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": fallback})
	}
}
