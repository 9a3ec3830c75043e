package api

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/kinhtot/marketplace/internal/database"
)

// Every JSON endpoint answers with the same envelope the frontend
// expects: {status, message, data?}.
func respond(c *gin.Context, status int, message string, data any) {
	body := gin.H{"status": status, "message": message}
	if data != nil {
		body["data"] = data
	}
	c.JSON(status, body)
}

func respondOK(c *gin.Context, message string, data any) {
	respond(c, http.StatusOK, message, data)
}

func respondCreated(c *gin.Context, message string, data any) {
	respond(c, http.StatusCreated, message, data)
}

func respondBadRequest(c *gin.Context, message string) {
	respond(c, http.StatusBadRequest, message, nil)
}

func respondUnauthorized(c *gin.Context, message string) {
	respond(c, http.StatusUnauthorized, message, nil)
}

// respondError maps store sentinel errors onto status codes; anything
// unrecognized is logged and reported as a generic 500 so internals
// never leak to clients.
func respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, database.ErrInvalidOrderInput),
		errors.Is(err, database.ErrInsufficientStock),
		errors.Is(err, database.ErrInvalidStatus),
		errors.Is(err, database.ErrEmailTaken),
		errors.Is(err, database.ErrSlugTaken),
		errors.Is(err, database.ErrDuplicateReview):
		respond(c, http.StatusBadRequest, err.Error(), nil)
	case errors.Is(err, database.ErrForbidden),
		errors.Is(err, database.ErrOrderNotPending):
		respond(c, http.StatusForbidden, err.Error(), nil)
	case errors.Is(err, database.ErrUserNotFound),
		errors.Is(err, database.ErrProductNotFound),
		errors.Is(err, database.ErrCategoryNotFound),
		errors.Is(err, database.ErrOrderNotFound),
		errors.Is(err, database.ErrReviewNotFound):
		respond(c, http.StatusNotFound, err.Error(), nil)
	default:
		slog.Error("request failed", "method", c.Request.Method, "path", c.Request.URL.Path, "error", err)
		respond(c, http.StatusInternalServerError, "internal server error", nil)
	}
}
