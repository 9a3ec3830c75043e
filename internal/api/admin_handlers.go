package api

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/kinhtot/marketplace/internal/database"
	"github.com/kinhtot/marketplace/internal/models"
	"github.com/kinhtot/marketplace/internal/store"
)

func (s *Server) handleListUsers(c *gin.Context) {
	filter := store.UserFilter{
		Role:   c.Query("role"),
		Search: c.Query("search"),
		Page:   queryInt(c, "page"),
		Limit:  queryInt(c, "limit"),
	}

	page, err := store.ListUsers(c.Request.Context(), s.db, filter)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, "ok", page)
}

func userIDParam(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		respondBadRequest(c, "invalid user id")
		return 0, false
	}
	return id, true
}

func (s *Server) handleGetUser(c *gin.Context) {
	id, ok := userIDParam(c)
	if !ok {
		return
	}

	user, err := store.GetUser(c.Request.Context(), s.db, id)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, "ok", user)
}

type adminUserPayload struct {
	FullName  *string `json:"fullName"`
	Phone     *string `json:"phone"`
	Avatar    *string `json:"avatar"`
	Role      *string `json:"role"`
	KYCStatus *string `json:"kycStatus"`
}

func (s *Server) handleUpdateUser(c *gin.Context) {
	actor := currentUser(c)

	id, ok := userIDParam(c)
	if !ok {
		return
	}

	var payload adminUserPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		respondBadRequest(c, "invalid request body")
		return
	}

	if payload.Role != nil {
		// Staff manage users but cannot grant or revoke roles.
		if actor.Role != models.RoleAdmin {
			respondError(c, database.ErrForbidden)
			return
		}
		if !models.ValidRole(*payload.Role) {
			respondBadRequest(c, "invalid role")
			return
		}
	}
	if payload.KYCStatus != nil {
		switch *payload.KYCStatus {
		case models.KYCStatusApproved, models.KYCStatusRejected, models.KYCStatusPending:
		default:
			respondBadRequest(c, "invalid kyc status")
			return
		}
	}

	ctx := c.Request.Context()
	user, err := store.UpdateUser(ctx, s.db, id, store.UpdateUserRequest{
		FullName: payload.FullName,
		Phone:    payload.Phone,
		Avatar:   payload.Avatar,
		Role:     payload.Role,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	if payload.KYCStatus != nil {
		profile, err := store.SetKYCStatus(ctx, s.db, id, *payload.KYCStatus)
		if err != nil {
			respondError(c, err)
			return
		}
		user.SellerProfile = profile
	}

	respondOK(c, "user updated", user)
}

type categoryPayload struct {
	Name string `json:"name" binding:"required"`
	Slug string `json:"slug"`
}

func (s *Server) handleCreateCategory(c *gin.Context) {
	var payload categoryPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		respondBadRequest(c, "name is required")
		return
	}

	slug := payload.Slug
	if slug == "" {
		slug = store.Slugify(payload.Name)
	}

	category, err := store.CreateCategory(c.Request.Context(), s.db, payload.Name, slug)
	if err != nil {
		respondError(c, err)
		return
	}
	respondCreated(c, "category created", category)
}

func (s *Server) handleStats(c *gin.Context) {
	stats, err := store.GetDashboardStats(c.Request.Context(), s.db)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, "ok", stats)
}
