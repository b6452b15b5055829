package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/errors"
	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/models"
)

const (
	authSessionKey = "auth_session"
	userIDKey      = "user_id"
)

// bearerToken extracts the token of an "Authorization: Bearer <token>" header.
func bearerToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	const prefix = "Bearer "
	if len(header) <= len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return ""
	}
	return strings.TrimSpace(header[len(prefix):])
}

// RequireAuth resolves the bearer token to a user and stores the auth session
// on the gin context. Requests without a valid token get 401.
func (h *Handlers) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		session, err := h.auth.Session(c.Request.Context(), bearerToken(c))
		if err != nil {
			handleError(c, err)
			c.Abort()
			return
		}

		c.Set(authSessionKey, session)
		c.Set(userIDKey, session.User.ID)
		c.Next()
	}
}

func authSession(c *gin.Context) *models.AuthSession {
	if v, ok := c.Get(authSessionKey); ok {
		if session, ok := v.(*models.AuthSession); ok {
			return session
		}
	}
	return nil
}

func currentUserID(c *gin.Context) string {
	return c.GetString(userIDKey)
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login handles POST /api/v1/auth/login
func (h *Handlers) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}

	session, err := h.auth.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, session)
}

// Logout handles POST /api/v1/auth/logout
func (h *Handlers) Logout(c *gin.Context) {
	if err := h.auth.Logout(c.Request.Context(), bearerToken(c)); err != nil {
		handleError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Me handles GET /api/v1/auth/me
func (h *Handlers) Me(c *gin.Context) {
	user, err := h.auth.CurrentUser(c.Request.Context(), bearerToken(c))
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

// UpdateProfile handles PATCH /api/v1/auth/profile
func (h *Handlers) UpdateProfile(c *gin.Context) {
	var update models.ProfileUpdate
	if err := c.ShouldBindJSON(&update); err != nil {
		badRequest(c, "invalid request body")
		return
	}

	user, err := h.auth.UpdateProfile(c.Request.Context(), bearerToken(c), update)
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

func requireSession(c *gin.Context) (*models.AuthSession, bool) {
	session := authSession(c)
	if !session.IsAuthenticated() {
		handleError(c, errors.ErrNotAuthenticated)
		return nil, false
	}
	return session, true
}
