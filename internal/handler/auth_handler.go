package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"taskboard/internal/middleware"
	"taskboard/internal/service/auth"
	"taskboard/internal/session"
	"taskboard/internal/view"
	"taskboard/pkg/metrics"
)

type AuthHandler struct {
	auth       *auth.Service
	sessions   *session.Store
	render     view.Renderer
	cookieName string
	sessionTTL time.Duration
	logger     *zap.Logger
}

func NewAuthHandler(
	authService *auth.Service,
	sessions *session.Store,
	render view.Renderer,
	cookieName string,
	sessionTTL time.Duration,
	logger *zap.Logger,
) *AuthHandler {
	return &AuthHandler{
		auth:       authService,
		sessions:   sessions,
		render:     render,
		cookieName: cookieName,
		sessionTTL: sessionTTL,
		logger:     logger,
	}
}

func (h *AuthHandler) ShowLogin(c *gin.Context) {
	h.render.Render(c, http.StatusOK, "login", gin.H{
		"flashes": h.sessions.TakeFlashes(middleware.SessionID(c)),
	})
}

func (h *AuthHandler) ShowRegister(c *gin.Context) {
	h.render.Render(c, http.StatusOK, "register", gin.H{
		"flashes": h.sessions.TakeFlashes(middleware.SessionID(c)),
		"name":    "",
		"email":   "",
	})
}

func (h *AuthHandler) Register(c *gin.Context) {
	name := c.PostForm("name")
	email := c.PostForm("email")
	password := c.PostForm("password")
	password2 := c.PostForm("password2")

	errs := auth.ValidateRegistration(name, email, password, password2)
	if len(errs) > 0 {
		// Name and email are echoed back; the password never is.
		h.render.Render(c, http.StatusBadRequest, "register", gin.H{
			"errors": errs,
			"name":   name,
			"email":  email,
		})
		return
	}

	_, err := h.auth.Register(c.Request.Context(), name, email, password)
	if err != nil {
		if errors.Is(err, auth.ErrEmailTaken) {
			h.render.Render(c, http.StatusBadRequest, "register", gin.H{
				"errors": []string{"Email already exists"},
				"name":   name,
				"email":  email,
			})
			return
		}
		h.logger.Error("Registration failed", zap.Error(err))
		c.String(http.StatusInternalServerError, "server error")
		return
	}

	h.sessions.AddFlash(middleware.SessionID(c), "You are now registered and can log in")
	c.Redirect(http.StatusFound, "/login")
}

func (h *AuthHandler) Login(c *gin.Context) {
	email := c.PostForm("email")
	password := c.PostForm("password")

	user, err := h.auth.Authenticate(c.Request.Context(), email, password)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			metrics.IncrementLoginAttempt("failure")
			h.sessions.AddFlash(middleware.SessionID(c), "Invalid email or password")
			c.Redirect(http.StatusFound, "/login")
			return
		}
		h.logger.Error("Login failed", zap.Error(err))
		c.String(http.StatusInternalServerError, "server error")
		return
	}

	// A successful login gets a fresh session id; the anonymous one is gone.
	h.sessions.Destroy(middleware.SessionID(c))
	id, err := h.sessions.Create(user.ID)
	if err != nil {
		h.logger.Error("Failed to create session", zap.Error(err))
		c.String(http.StatusInternalServerError, "server error")
		return
	}
	middleware.SetSessionCookie(c, h.cookieName, id, h.sessionTTL)

	metrics.IncrementLoginAttempt("success")
	c.Redirect(http.StatusFound, "/read")
}

func (h *AuthHandler) Logout(c *gin.Context) {
	h.sessions.Destroy(middleware.SessionID(c))

	id, err := h.sessions.Create(0)
	if err != nil {
		h.logger.Error("Failed to create session", zap.Error(err))
		c.Redirect(http.StatusFound, "/login")
		return
	}
	middleware.SetSessionCookie(c, h.cookieName, id, h.sessionTTL)
	h.sessions.AddFlash(id, "You are logged out")
	c.Redirect(http.StatusFound, "/login")
}
