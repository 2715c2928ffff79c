package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"personal-calendar/internal/domain"
	"personal-calendar/internal/service"
)

func (h *Handler) register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, errInvalidBody)
		return
	}

	user, err := h.users.Register(c.Request.Context(), service.RegisterInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
		Phone:    req.Phone,
	})
	if err != nil {
		writeError(c, err)
		return
	}

	h.respondWithToken(c, http.StatusCreated, user)
}

func (h *Handler) login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, errInvalidBody)
		return
	}

	user, err := h.users.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		writeError(c, err)
		return
	}

	h.respondWithToken(c, http.StatusOK, user)
}

func (h *Handler) me(c *gin.Context) {
	user, err := h.users.GetByID(c.Request.Context(), identity(c).UserID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": userToResponse(*user)})
}

func (h *Handler) respondWithToken(c *gin.Context, status int, user *domain.User) {
	token, err := h.issuer.Issue(user.ID, user.Email)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(status, AuthResponse{Token: token, User: userToResponse(*user)})
}
