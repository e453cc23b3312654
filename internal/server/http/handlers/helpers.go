package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	domainErrors "github.com/polkiloo/scribemart/internal/domain/errors"
	"github.com/polkiloo/scribemart/internal/domain/model"
	"github.com/polkiloo/scribemart/internal/server/http/dto"
	"github.com/polkiloo/scribemart/internal/server/http/middleware"
)

// errBound signals that request binding already wrote the response.
var errBound = errors.New("request body rejected")

// CurrentActor extracts the authenticated caller from context.
func CurrentActor(c *gin.Context) model.Actor {
	val, ok := c.Get(middleware.ActorContextKey)
	if !ok {
		return model.Actor{}
	}
	actor, _ := val.(model.Actor)
	return actor
}

// respondError maps domain errors to HTTP statuses.
func respondError(c *gin.Context, err error) {
	var verr *domainErrors.ValidationError
	switch {
	case errors.As(err, &verr):
		c.JSON(http.StatusUnprocessableEntity, dto.Error{Error: verr.Error(), Field: verr.Field})
	case errors.Is(err, domainErrors.ErrValidation):
		c.JSON(http.StatusUnprocessableEntity, dto.Error{Error: err.Error()})
	case errors.Is(err, domainErrors.ErrInvalidCredentials):
		c.JSON(http.StatusUnauthorized, dto.Error{Error: "invalid credentials"})
	case errors.Is(err, domainErrors.ErrForbidden):
		c.JSON(http.StatusForbidden, dto.Error{Error: "forbidden"})
	case errors.Is(err, domainErrors.ErrNotFound):
		c.JSON(http.StatusNotFound, dto.Error{Error: "not found"})
	case errors.Is(err, domainErrors.ErrAlreadyExists), errors.Is(err, domainErrors.ErrDuplicateBid),
		errors.Is(err, domainErrors.ErrInvalidState):
		c.JSON(http.StatusConflict, dto.Error{Error: err.Error()})
	case errors.Is(err, domainErrors.ErrInsufficientBalance):
		c.JSON(http.StatusPaymentRequired, dto.Error{Error: "insufficient balance"})
	case errors.Is(err, domainErrors.ErrGateway):
		c.JSON(http.StatusBadGateway, dto.Error{Error: "payment provider unavailable"})
	default:
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, dto.Error{Error: "internal error"})
	}
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, dto.Error{Error: msg})
}

// idParam reads a positive numeric path parameter.
func idParam(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		badRequest(c, "invalid "+name)
		return 0, false
	}
	return id, true
}

// bindJSON decodes the request body. An empty body leaves req untouched when optional is set.
func bindJSON(c *gin.Context, req any, optional bool) bool {
	if optional && c.Request.ContentLength == 0 {
		return true
	}
	if err := c.ShouldBindJSON(req); err != nil {
		badRequest(c, "malformed request body")
		return false
	}
	return true
}
