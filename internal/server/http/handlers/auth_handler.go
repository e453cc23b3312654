package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/polkiloo/scribemart/internal/domain/model"
	"github.com/polkiloo/scribemart/internal/server/http/dto"
	"github.com/polkiloo/scribemart/internal/server/http/middleware"
	"github.com/polkiloo/scribemart/internal/usecase"
)

// AuthHandler processes registration, login and account status.
type AuthHandler struct {
	facade AuthFacade
}

// NewAuthHandler creates AuthHandler instance.
func NewAuthHandler(facade AuthFacade) *AuthHandler {
	return &AuthHandler{facade: facade}
}

// Register handles POST /api/users/register.
func (h *AuthHandler) Register(c *gin.Context) {
	var req dto.RegisterRequest
	if !bindJSON(c, &req, false) {
		return
	}

	user, token, err := h.facade.Register(c.Request.Context(), usecase.RegisterInput{
		Email:    req.Email,
		Password: req.Password,
		Name:     req.Name,
		Role:     model.Role(req.Role),
	})
	if err != nil {
		respondError(c, err)
		return
	}

	middleware.SetAuthCookie(c, token)
	c.JSON(http.StatusCreated, dto.AuthResponse{Token: token, User: toUserResponse(user)})
}

// Login handles POST /api/users/login.
func (h *AuthHandler) Login(c *gin.Context) {
	var req dto.LoginRequest
	if !bindJSON(c, &req, false) {
		return
	}

	user, token, err := h.facade.Authenticate(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		respondError(c, err)
		return
	}

	middleware.SetAuthCookie(c, token)
	c.JSON(http.StatusOK, dto.AuthResponse{Token: token, User: toUserResponse(user)})
}

// SetStatus handles POST /api/admin/users/:id/status.
func (h *AuthHandler) SetStatus(c *gin.Context) {
	userID, ok := idParam(c, "id")
	if !ok {
		return
	}
	var req dto.UserStatusRequest
	if !bindJSON(c, &req, false) {
		return
	}

	if err := h.facade.SetUserStatus(c.Request.Context(), CurrentActor(c), userID, model.UserStatus(req.Status)); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
