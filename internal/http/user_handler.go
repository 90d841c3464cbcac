package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"account-api/internal/metrics"
	"account-api/internal/service"
)

// Mismo formato que Date.toDateString() del cliente original.
const tokenDateFormat = "Mon Jan 02 2006"

// UserHandler mantiene dependencias para endpoints de cuentas.
type UserHandler struct {
	logger      *zap.Logger
	accounts    *service.AccountService
	issuer      *service.TokenIssuer
	debugErrors bool
}

// NewUserHandler crea una instancia de UserHandler con dependencias necesarias.
func NewUserHandler(logger *zap.Logger, accounts *service.AccountService, issuer *service.TokenIssuer, debugErrors bool) *UserHandler {
	return &UserHandler{
		logger:      logger,
		accounts:    accounts,
		issuer:      issuer,
		debugErrors: debugErrors,
	}
}

// CreateAccount maneja POST /api/users.
func (h *UserHandler) CreateAccount(c *gin.Context) {
	var req struct {
		Email     string `json:"email" binding:"required,email"`
		Password  string `json:"password" binding:"required"`
		FirstName string `json:"firstName" binding:"required"`
		LastName  string `json:"lastName" binding:"required"`
		Address   string `json:"address"`
		City      string `json:"city"`
		State     string `json:"state"`
		ZipCode   string `json:"zipCode"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid create account request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	user, err := h.accounts.CreateAccount(c.Request.Context(), service.CreateAccountInput{
		Email:     req.Email,
		Password:  req.Password,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Address:   req.Address,
		City:      req.City,
		State:     req.State,
		ZipCode:   req.ZipCode,
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrEmailTaken):
			c.JSON(http.StatusConflict, gin.H{"error": "a user with that email address already exists"})
		case errors.Is(err, service.ErrInvalidEmail), errors.Is(err, service.ErrEmptyPassword):
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		default:
			h.logger.Error("create account failed", zap.Error(err))
			h.respondServerError(c, "could not create account", err)
		}
		return
	}

	issued, err := h.issuer.Issue(user.ID)
	if err != nil {
		h.logger.Error("token issue failed", zap.Error(err))
		h.respondServerError(c, "could not issue token", err)
		return
	}
	metrics.AccountsCreatedTotal.Inc()
	metrics.TokensIssuedTotal.Inc()

	c.JSON(http.StatusCreated, gin.H{
		"message":                           "the account was created successfully",
		"user":                              user,
		"authenticationToken":               issued.Token,
		"authenticationTokenExpirationDate": issued.ExpiresAt.Format(tokenDateFormat),
	})
}

// Login maneja POST /api/users/login.
func (h *UserHandler) Login(c *gin.Context) {
	var req struct {
		Email    string `json:"email" binding:"required,email"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid login request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	user, err := h.accounts.Authenticate(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrUserNotFound):
			metrics.LoginsTotal.WithLabelValues("not_found").Inc()
			c.JSON(http.StatusBadRequest, gin.H{"error": "the user was not found"})
		case errors.Is(err, service.ErrUserInactive):
			metrics.LoginsTotal.WithLabelValues("inactive").Inc()
			c.JSON(http.StatusBadRequest, gin.H{"error": "the account is inactive"})
		case errors.Is(err, service.ErrInvalidCredentials):
			metrics.LoginsTotal.WithLabelValues("invalid_credentials").Inc()
			c.JSON(http.StatusUnauthorized, gin.H{"error": "the password provided is incorrect"})
		case errors.Is(err, service.ErrRateLimited):
			metrics.LoginsTotal.WithLabelValues("rate_limited").Inc()
			c.JSON(http.StatusTooManyRequests, gin.H{"error": "too many login attempts"})
		default:
			metrics.LoginsTotal.WithLabelValues("error").Inc()
			h.logger.Error("login failed", zap.Error(err))
			h.respondServerError(c, "could not login", err)
		}
		return
	}

	issued, err := h.issuer.Issue(user.ID)
	if err != nil {
		h.logger.Error("token issue failed", zap.Error(err))
		h.respondServerError(c, "could not issue token", err)
		return
	}
	metrics.LoginsTotal.WithLabelValues("success").Inc()
	metrics.TokensIssuedTotal.Inc()

	c.JSON(http.StatusOK, gin.H{
		"message":                           "the login was successful",
		"user":                              user,
		"authenticationToken":               issued.Token,
		"authenticationTokenExpirationDate": issued.ExpiresAt.Format(tokenDateFormat),
	})
}

// RefreshToken maneja GET /api/users/update. Emite un token nuevo para
// logins persistentes.
func (h *UserHandler) RefreshToken(c *gin.Context) {
	user, ok := CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	issued, err := h.issuer.Issue(user.ID)
	if err != nil {
		h.logger.Error("token issue failed", zap.Error(err))
		h.respondServerError(c, "could not issue token", err)
		return
	}
	metrics.TokensIssuedTotal.Inc()

	c.JSON(http.StatusOK, gin.H{
		"message":                           "the authentication token has been successfully updated",
		"user":                              user,
		"authenticationToken":               issued.Token,
		"authenticationTokenExpirationDate": issued.ExpiresAt.Format(tokenDateFormat),
	})
}

// GetLoggedInUser maneja GET /api/users/me.
func (h *UserHandler) GetLoggedInUser(c *gin.Context) {
	user, ok := CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message": "the logged in user was successfully retrieved",
		"user":    user,
	})
}

// UpdateInfo maneja PATCH /api/users/me. Cualquier campo fuera del
// conjunto permitido rechaza la actualización completa.
func (h *UserHandler) UpdateInfo(c *gin.Context) {
	user, ok := CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var update service.ProfileUpdate
	decoder := json.NewDecoder(c.Request.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&update); err != nil {
		h.logger.Warn("invalid update request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "the updates you provided are invalid"})
		return
	}

	updated, err := h.accounts.UpdateProfile(c.Request.Context(), user, update)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidEmail):
			c.JSON(http.StatusBadRequest, gin.H{"error": "the updates you provided are invalid"})
		case errors.Is(err, service.ErrEmailTaken):
			c.JSON(http.StatusConflict, gin.H{"error": "a user with that email address already exists"})
		case errors.Is(err, service.ErrUserNotFound):
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		default:
			h.logger.Error("update info failed", zap.Error(err))
			h.respondServerError(c, "the update failed", err)
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "the updates were successful",
		"user":    updated,
	})
}

// UpdatePassword maneja PATCH /api/users/me/password.
func (h *UserHandler) UpdatePassword(c *gin.Context) {
	user, ok := CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var req struct {
		CurrentPassword string `json:"currentPassword" binding:"required"`
		NewPassword     string `json:"newPassword" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid password update request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	err := h.accounts.ChangePassword(c.Request.Context(), user, req.CurrentPassword, req.NewPassword)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidCredentials):
			c.JSON(http.StatusBadRequest, gin.H{"error": "the password provided is incorrect"})
		case errors.Is(err, service.ErrEmptyPassword):
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		case errors.Is(err, service.ErrUserNotFound):
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		default:
			h.logger.Error("update password failed", zap.Error(err))
			h.respondServerError(c, "the update failed", err)
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "the password was successfully updated",
		"user":    user,
	})
}

// DeleteAccount maneja DELETE /api/users/me.
func (h *UserHandler) DeleteAccount(c *gin.Context) {
	user, ok := CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var req struct {
		CurrentPassword string `json:"currentPassword" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid delete request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	err := h.accounts.DeleteAccount(c.Request.Context(), user, req.CurrentPassword)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidCredentials):
			c.JSON(http.StatusBadRequest, gin.H{"error": "the password provided is incorrect"})
		case errors.Is(err, service.ErrUserNotFound):
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		default:
			h.logger.Error("delete account failed", zap.Error(err))
			h.respondServerError(c, "the deletion of the user failed", err)
		}
		return
	}
	metrics.AccountsDeletedTotal.WithLabelValues(string(h.accounts.Mode())).Inc()

	c.JSON(http.StatusOK, gin.H{
		"message": "the user was successfully deleted",
	})
}

// respondServerError responde 500 con mensaje genérico. El detalle solo
// se incluye con DEBUG_ERRORS activo.
func (h *UserHandler) respondServerError(c *gin.Context, msg string, err error) {
	body := gin.H{"error": msg}
	if h.debugErrors && err != nil {
		body["desc"] = err.Error()
	}
	c.JSON(http.StatusInternalServerError, body)
}
