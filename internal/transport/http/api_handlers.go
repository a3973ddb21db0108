package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/partyline/internal/auth"
)

// APIHandlers serves the account endpoints that hand out join tokens.
type APIHandlers struct {
	authService *auth.Service
	log         *zerolog.Logger
}

// NewAPIHandlers creates a new API handlers instance.
func NewAPIHandlers(authService *auth.Service, logger *zerolog.Logger) *APIHandlers {
	return &APIHandlers{
		authService: authService,
		log:         logger,
	}
}

// CredentialsRequest is the body of login and register requests.
type CredentialsRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// AuthResponse is returned by login and register. AuthToken goes into join_group.
type AuthResponse struct {
	Success   bool   `json:"success"`
	AuthToken string `json:"authToken,omitempty"`
	Error     string `json:"error,omitempty"`
}

// ErrorResponse represents an error response body.
type ErrorResponse struct {
	Error string `json:"error"`
}

var authFailures = []struct {
	err    error
	status int
	msg    string
}{
	{auth.ErrInvalidCredentials, http.StatusUnauthorized, "invalid credentials"},
	{auth.ErrUserExists, http.StatusConflict, "user already exists"},
	{auth.ErrUsernameReserved, http.StatusForbidden, "username is reserved"},
	{auth.ErrInvalidUsername, http.StatusBadRequest, "username length is out of range"},
	{auth.ErrInvalidPassword, http.StatusBadRequest, "password must be 6 to 72 bytes"},
}

// Register handles account creation.
// POST /register
func (h *APIHandlers) Register(c *gin.Context) {
	req, ok := h.bind(c, "register")
	if !ok {
		return
	}

	token, err := h.authService.Register(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		h.fail(c, "register", req.Username, err)
		return
	}

	h.log.Info().Str("username", req.Username).Msg("account registered")
	c.JSON(http.StatusCreated, AuthResponse{Success: true, AuthToken: token})
}

// Login handles user login.
// POST /login
func (h *APIHandlers) Login(c *gin.Context) {
	req, ok := h.bind(c, "login")
	if !ok {
		return
	}

	token, err := h.authService.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		h.fail(c, "login", req.Username, err)
		return
	}

	h.log.Info().Str("username", req.Username).Msg("user logged in")
	c.JSON(http.StatusOK, AuthResponse{Success: true, AuthToken: token})
}

func (h *APIHandlers) bind(c *gin.Context, action string) (CredentialsRequest, bool) {
	var req CredentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.log.Debug().Err(err).Str("action", action).Msg("invalid credentials body")
		c.JSON(http.StatusBadRequest, AuthResponse{Error: "invalid request body"})
		return req, false
	}
	return req, true
}

func (h *APIHandlers) fail(c *gin.Context, action, username string, err error) {
	for _, f := range authFailures {
		if errors.Is(err, f.err) {
			h.log.Debug().Err(err).Str("action", action).Str("username", username).Msg("auth request refused")
			c.JSON(f.status, AuthResponse{Error: f.msg})
			return
		}
	}
	h.log.Error().Err(err).Str("action", action).Str("username", username).Msg("auth request failed")
	c.JSON(http.StatusInternalServerError, AuthResponse{Error: "internal server error"})
}
