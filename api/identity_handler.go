package api

//go:generate mockgen -source=identity_handler.go -destination=mocks/mock_identity_handler.go -package=mocks

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/hanksha/meeting-room-booking-backend/identity"
)

type IdentityService interface {
	Register(ctx context.Context, username, password string) (identity.User, error)
	Login(ctx context.Context, username, password string) (identity.Token, error)
	CreateUser(ctx context.Context, username, password string, admin bool) (identity.User, error)
	GetUser(ctx context.Context, id string) (identity.User, error)
	GetUserByUsername(ctx context.Context, username string) (identity.User, error)
	ListUsers(ctx context.Context, skip, limit int) ([]identity.User, error)
	UpdateUser(ctx context.Context, id string, patch identity.UserPatch) (identity.User, error)
	SetAdmin(ctx context.Context, id string, admin bool) (identity.User, error)
	DeleteUser(ctx context.Context, principal identity.Principal, id string) error
}

type credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type newUserRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
	IsAdmin  bool   `json:"isAdmin"`
}

type adminRequest struct {
	IsAdmin *bool `json:"isAdmin" binding:"required"`
}

type IdentityHandler struct {
	service IdentityService
}

func NewIdentityHandler(service IdentityService) *IdentityHandler {
	return &IdentityHandler{service: service}
}

// RegisterAuth mounts the unauthenticated account routes.
func (h *IdentityHandler) RegisterAuth(rg *gin.RouterGroup) {
	rg.POST("/register", h.SignUp)
	rg.POST("/login", h.Login)
}

// RegisterUsers mounts the user routes. The group must already require
// authentication.
func (h *IdentityHandler) RegisterUsers(rg *gin.RouterGroup) {
	adminOnly := AdminOnly()
	rg.GET("/me", h.Me)
	rg.GET("", adminOnly, h.List)
	rg.POST("", adminOnly, h.Create)
	rg.GET("/username/:username", adminOnly, h.GetByUsername)
	rg.GET("/:id", adminOnly, h.GetByID)
	rg.PUT("/:id", adminOnly, h.Update)
	rg.PUT("/:id/admin", adminOnly, h.SetAdmin)
	rg.DELETE("/:id", adminOnly, h.Delete)
}

func (h *IdentityHandler) SignUp(c *gin.Context) {
	var request credentials

	if err := c.ShouldBindJSON(&request); err != nil {
		c.Error(err)
		c.JSON(http.StatusBadRequest, gin.H{"error": "failed to parse JSON body"})
		return
	}

	user, err := h.service.Register(c.Request.Context(), request.Username, request.Password)

	if err != nil {
		writeIdentityError(c, err, "failed to register user")
		return
	}

	c.IndentedJSON(http.StatusCreated, user)
}

func (h *IdentityHandler) Login(c *gin.Context) {
	var request credentials

	if err := c.ShouldBindJSON(&request); err != nil {
		c.Error(err)
		c.JSON(http.StatusBadRequest, gin.H{"error": "failed to parse JSON body"})
		return
	}

	token, err := h.service.Login(c.Request.Context(), request.Username, request.Password)

	if err != nil {
		writeIdentityError(c, err, "failed to log in")
		return
	}

	c.IndentedJSON(http.StatusOK, token)
}

func (h *IdentityHandler) Me(c *gin.Context) {
	user, err := h.service.GetUser(c.Request.Context(), currentPrincipal(c).UserID)

	if err != nil {
		writeIdentityError(c, err, "failed to fetch user")
		return
	}

	c.IndentedJSON(http.StatusOK, user)
}

func (h *IdentityHandler) List(c *gin.Context) {
	skip, limit, err := page(c)

	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	users, err := h.service.ListUsers(c.Request.Context(), skip, limit)

	if err != nil {
		writeIdentityError(c, err, "failed to retrieve users")
		return
	}

	c.IndentedJSON(http.StatusOK, users)
}

func (h *IdentityHandler) Create(c *gin.Context) {
	var request newUserRequest

	if err := c.ShouldBindJSON(&request); err != nil {
		c.Error(err)
		c.JSON(http.StatusBadRequest, gin.H{"error": "failed to parse JSON body"})
		return
	}

	user, err := h.service.CreateUser(c.Request.Context(), request.Username, request.Password, request.IsAdmin)

	if err != nil {
		writeIdentityError(c, err, "failed to create user")
		return
	}

	c.IndentedJSON(http.StatusCreated, user)
}

func (h *IdentityHandler) GetByID(c *gin.Context) {
	user, err := h.service.GetUser(c.Request.Context(), c.Param("id"))

	if err != nil {
		writeIdentityError(c, err, "failed to fetch user")
		return
	}

	c.IndentedJSON(http.StatusOK, user)
}

func (h *IdentityHandler) GetByUsername(c *gin.Context) {
	user, err := h.service.GetUserByUsername(c.Request.Context(), c.Param("username"))

	if err != nil {
		writeIdentityError(c, err, "failed to fetch user")
		return
	}

	c.IndentedJSON(http.StatusOK, user)
}

func (h *IdentityHandler) Update(c *gin.Context) {
	var patch identity.UserPatch

	if err := c.ShouldBindJSON(&patch); err != nil {
		c.Error(err)
		c.JSON(http.StatusBadRequest, gin.H{"error": "failed to parse JSON body"})
		return
	}

	user, err := h.service.UpdateUser(c.Request.Context(), c.Param("id"), patch)

	if err != nil {
		writeIdentityError(c, err, "failed to update user")
		return
	}

	c.IndentedJSON(http.StatusOK, user)
}

func (h *IdentityHandler) SetAdmin(c *gin.Context) {
	var request adminRequest

	if err := c.ShouldBindJSON(&request); err != nil {
		c.Error(err)
		c.JSON(http.StatusBadRequest, gin.H{"error": "failed to parse JSON body"})
		return
	}

	user, err := h.service.SetAdmin(c.Request.Context(), c.Param("id"), *request.IsAdmin)

	if err != nil {
		writeIdentityError(c, err, "failed to update user")
		return
	}

	c.IndentedJSON(http.StatusOK, user)
}

func (h *IdentityHandler) Delete(c *gin.Context) {
	if err := h.service.DeleteUser(c.Request.Context(), currentPrincipal(c), c.Param("id")); err != nil {
		writeIdentityError(c, err, "failed to delete user")
		return
	}

	c.Status(http.StatusNoContent)
}

func writeIdentityError(c *gin.Context, err error, fallback string) {
	c.Error(err)

	switch {
	case errors.Is(err, identity.ErrUserNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
	case errors.Is(err, identity.ErrInvalidCredentials):
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
	case errors.Is(err, identity.ErrUsernameTaken), errors.Is(err, identity.ErrLastAdmin):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, identity.ErrInvalidUser), errors.Is(err, identity.ErrSelfDelete):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": fallback})
	}
}
