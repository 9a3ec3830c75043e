package api

import (
	"log/slog"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/kinhtot/marketplace/internal/stylist"
)

type chatPayload struct {
	Question string `json:"question" binding:"required"`
}

func (s *Server) handleStylistChat(c *gin.Context) {
	var payload chatPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		respondBadRequest(c, "question is required")
		return
	}
	if strings.TrimSpace(payload.Question) == "" {
		respondBadRequest(c, "question is required")
		return
	}

	var userID *int64
	if user := currentUser(c); user != nil {
		userID = &user.ID
	}

	result, err := stylist.Chat(c.Request.Context(), s.db, payload.Question, userID)
	if err != nil {
		if result == nil {
			respondError(c, err)
			return
		}
		// History is best effort; the answer still goes out.
		slog.Warn("chat history not saved", "error", err)
	}
	respondOK(c, "ok", result)
}
