package api

import (
	"errors"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/kinhtot/marketplace/internal/auth"
	"github.com/kinhtot/marketplace/internal/database"
	"github.com/kinhtot/marketplace/internal/models"
	"github.com/kinhtot/marketplace/internal/store"
)

type registerRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6"`
	FullName string `json:"fullName" binding:"required"`
	Phone    string `json:"phone"`
}

func (s *Server) handleRegister(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid registration payload")
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		respondError(c, err)
		return
	}

	user, err := store.CreateUser(c.Request.Context(), s.db, req.Email, hash, req.FullName, req.Phone, models.RoleBuyer)
	if err != nil {
		respondError(c, err)
		return
	}

	token, err := auth.Sign(s.cfg.Auth.JWTSecret, user.ID, s.cfg.Auth.TokenTTL)
	if err != nil {
		respondError(c, err)
		return
	}

	respondCreated(c, "registered", gin.H{"user": user, "token": token})
}

type loginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func (s *Server) handleLogin(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid login payload")
		return
	}

	// One shared message for unknown email and wrong password.
	user, err := store.GetUserByEmail(c.Request.Context(), s.db, req.Email)
	if err != nil {
		if errors.Is(err, database.ErrUserNotFound) {
			respondUnauthorized(c, "incorrect email or password")
			return
		}
		respondError(c, err)
		return
	}
	if !auth.CheckPassword(user.PasswordHash, req.Password) {
		respondUnauthorized(c, "incorrect email or password")
		return
	}

	token, err := auth.Sign(s.cfg.Auth.JWTSecret, user.ID, s.cfg.Auth.TokenTTL)
	if err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, "logged in", gin.H{"user": user, "token": token})
}

func (s *Server) handleMe(c *gin.Context) {
	respondOK(c, "ok", currentUser(c))
}

type kycRequest struct {
	ShopName    string `json:"shopName"`
	Description string `json:"description"`
	KYCDocument string `json:"kycDocument"`
}

func (s *Server) handleSubmitKYC(c *gin.Context) {
	user := currentUser(c)

	var req kycRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid KYC payload")
		return
	}

	profile, err := store.SubmitKYC(c.Request.Context(), s.db, user.ID,
		strings.TrimSpace(req.ShopName), req.Description, req.KYCDocument)
	if err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, "KYC submitted", profile)
}
