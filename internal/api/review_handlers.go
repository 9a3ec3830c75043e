package api

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/kinhtot/marketplace/internal/store"
)

func (s *Server) handleListReviews(c *gin.Context) {
	filter := store.ReviewFilter{
		Page:  queryInt(c, "page"),
		Limit: queryInt(c, "limit"),
	}
	if raw := c.Query("productId"); raw != "" {
		if id, err := strconv.ParseInt(raw, 10, 64); err == nil {
			filter.ProductID = &id
		}
	}
	if raw := c.Query("userId"); raw != "" {
		if id, err := strconv.ParseInt(raw, 10, 64); err == nil {
			filter.UserID = &id
		}
	}

	page, err := store.ListReviews(c.Request.Context(), s.db, filter)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, "ok", page)
}

type reviewPayload struct {
	ProductID int64  `json:"productId" binding:"required"`
	Rating    int    `json:"rating" binding:"required"`
	Comment   string `json:"comment"`
}

func (s *Server) handleCreateReview(c *gin.Context) {
	user := currentUser(c)

	var payload reviewPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		respondBadRequest(c, "invalid request body")
		return
	}

	review, err := store.CreateReview(c.Request.Context(), s.db, user.ID, payload.ProductID, payload.Rating, payload.Comment)
	if err != nil {
		respondError(c, err)
		return
	}
	respondCreated(c, "review created", review)
}

func (s *Server) handleDeleteReview(c *gin.Context) {
	user := currentUser(c)

	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		respondBadRequest(c, "invalid review id")
		return
	}

	if err := store.DeleteReview(c.Request.Context(), s.db, id, user.ID, user.Role); err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, "review deleted", nil)
}
