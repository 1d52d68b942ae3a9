package handler

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Regera24/AstraMindProject/internal/config"
	"github.com/Regera24/AstraMindProject/internal/domain"
	"github.com/Regera24/AstraMindProject/internal/http/middleware"
	"github.com/Regera24/AstraMindProject/internal/service"
)

const refreshCookieName = "refreshToken"

// AuthHandler exposes the credential endpoints under /api/v1/auth.
type AuthHandler struct {
	Svc *service.CredentialService
	Cfg config.Config
}

// ApiResponse is the response envelope every endpoint returns.
type ApiResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

func respondOK(c *gin.Context, message string, data any) {
	c.JSON(http.StatusOK, ApiResponse{Code: http.StatusOK, Message: message, Data: data})
}

func respondCreated(c *gin.Context, message string, data any) {
	c.JSON(http.StatusCreated, ApiResponse{Code: http.StatusCreated, Message: message, Data: data})
}

func respondBadRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, ApiResponse{Code: http.StatusBadRequest, Message: message})
}

func respondError(c *gin.Context, err error) {
	status, message := mapError(err)
	c.JSON(status, ApiResponse{Code: status, Message: message})
}

func mapError(err error) (int, string) {
	switch {
	case errors.Is(err, domain.ErrUserNotFound):
		return http.StatusNotFound, "user not found"
	case errors.Is(err, domain.ErrUnauthenticated):
		return http.StatusUnauthorized, "invalid credentials"
	case errors.Is(err, domain.ErrUsernameExists):
		return http.StatusConflict, "username already exists"
	case errors.Is(err, domain.ErrEmailExists):
		return http.StatusConflict, "email already exists"
	case errors.Is(err, domain.ErrPhoneExists):
		return http.StatusConflict, "phone number already exists"
	case errors.Is(err, domain.ErrOtpInvalid):
		return http.StatusBadRequest, "invalid otp"
	case errors.Is(err, domain.ErrAccountDisabled):
		return http.StatusForbidden, "account disabled"
	case errors.Is(err, domain.ErrRoleNotFound):
		return http.StatusBadRequest, "unknown role"
	case errors.Is(err, domain.ErrFederationFailed):
		return http.StatusUnauthorized, "oauth2 authentication failed"
	case errors.Is(err, domain.ErrUpstreamUnavailable):
		return http.StatusServiceUnavailable, "service temporarily unavailable"
	default:
		return http.StatusInternalServerError, "internal error"
	}
}

func (h *AuthHandler) setRefreshCookie(c *gin.Context, value string) {
	maxAge := int(h.Cfg.RefreshTokenTTL / time.Second)
	c.SetCookie(refreshCookieName, value, maxAge, "/", "", false, true)
}

// Login handles POST /login.
func (h *AuthHandler) Login(c *gin.Context) {
	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid payload")
		return
	}
	if strings.TrimSpace(req.Username) == "" || req.Password == "" {
		respondBadRequest(c, "username and password are required")
		return
	}

	pair, err := h.Svc.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		respondError(c, err)
		return
	}

	h.setRefreshCookie(c, pair.RefreshToken)
	respondOK(c, "login successful", gin.H{"accessToken": pair.AccessToken})
}

// Register handles POST /register.
func (h *AuthHandler) Register(c *gin.Context) {
	var req struct {
		Username    string     `json:"username"`
		Password    string     `json:"password"`
		FullName    string     `json:"fullName"`
		Email       string     `json:"email"`
		PhoneNumber string     `json:"phoneNumber"`
		AvatarURL   string     `json:"avatarUrl"`
		Gender      *bool      `json:"gender"`
		BirthDate   *time.Time `json:"birthDate"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid payload")
		return
	}
	if strings.TrimSpace(req.Username) == "" || req.Password == "" || strings.TrimSpace(req.Email) == "" {
		respondBadRequest(c, "username, password and email are required")
		return
	}

	created, err := h.Svc.Register(c.Request.Context(), service.RegisterInput{
		Username:    req.Username,
		Password:    req.Password,
		FullName:    req.FullName,
		Email:       req.Email,
		PhoneNumber: req.PhoneNumber,
		AvatarURL:   req.AvatarURL,
		Gender:      req.Gender,
		BirthDate:   req.BirthDate,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	respondCreated(c, "registration successful", gin.H{
		"id":       created.ID,
		"username": created.Username,
		"email":    created.Email,
	})
}

// RefreshToken handles POST /refresh-token. The refresh token comes from the
// HTTP-only cookie set at login; a body field is accepted as fallback for
// non-browser clients.
func (h *AuthHandler) RefreshToken(c *gin.Context) {
	raw, err := c.Cookie(refreshCookieName)
	if err != nil || raw == "" {
		var req struct {
			RefreshToken string `json:"refreshToken"`
		}
		if bindErr := c.ShouldBindJSON(&req); bindErr == nil {
			raw = req.RefreshToken
		}
	}
	if raw == "" {
		respondBadRequest(c, "refresh token is required")
		return
	}

	access, err := h.Svc.Refresh(c.Request.Context(), raw)
	if err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, "token refreshed", gin.H{"accessToken": access})
}

// Introspect handles POST /introspect.
func (h *AuthHandler) Introspect(c *gin.Context) {
	var req struct {
		Token string `json:"token"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || req.Token == "" {
		respondBadRequest(c, "token is required")
		return
	}

	res := h.Svc.Introspect(c.Request.Context(), req.Token)
	if !res.Active {
		respondOK(c, "token introspected", gin.H{"valid": false})
		return
	}
	respondOK(c, "token introspected", gin.H{
		"valid":     true,
		"username":  res.Subject,
		"accountId": res.AccountID,
		"scope":     res.Scope,
		"expiresAt": res.ExpiresAt,
	})
}

// SendOTP handles GET /send-otp?key=.
func (h *AuthHandler) SendOTP(c *gin.Context) {
	key := strings.TrimSpace(c.Query("key"))
	if key == "" {
		respondBadRequest(c, "key is required")
		return
	}

	res, err := h.Svc.SendOTP(c.Request.Context(), key)
	if err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, "otp sent", gin.H{"email": res.Email})
}

// CheckOTP handles POST /check-otp.
func (h *AuthHandler) CheckOTP(c *gin.Context) {
	var req struct {
		Key string `json:"key"`
		Otp string `json:"otp"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid payload")
		return
	}
	if strings.TrimSpace(req.Key) == "" || req.Otp == "" {
		respondBadRequest(c, "key and otp are required")
		return
	}

	if err := h.Svc.CheckOTP(c.Request.Context(), req.Key, req.Otp); err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, "otp valid", nil)
}

// ChangePassword handles POST /change-password.
func (h *AuthHandler) ChangePassword(c *gin.Context) {
	var req struct {
		Key         string `json:"key"`
		Otp         string `json:"otp"`
		NewPassword string `json:"newPassword"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid payload")
		return
	}
	if strings.TrimSpace(req.Key) == "" || req.Otp == "" || req.NewPassword == "" {
		respondBadRequest(c, "key, otp and new password are required")
		return
	}

	if err := h.Svc.ChangePassword(c.Request.Context(), req.Key, req.Otp, req.NewPassword); err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, "password changed", nil)
}

// OutboundAuthenticate handles POST /outbound/authentication.
func (h *AuthHandler) OutboundAuthenticate(c *gin.Context) {
	var req struct {
		Code string `json:"code"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Code) == "" {
		respondBadRequest(c, "authorization code is required")
		return
	}

	access, err := h.Svc.OutboundAuthenticate(c.Request.Context(), req.Code)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, "login successful", gin.H{"accessToken": access})
}

// CheckUsername handles GET /check-username?username=.
func (h *AuthHandler) CheckUsername(c *gin.Context) {
	username := strings.TrimSpace(c.Query("username"))
	if username == "" {
		respondBadRequest(c, "username is required")
		return
	}

	free, err := h.Svc.CheckUsername(c.Request.Context(), username)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, "username checked", gin.H{"available": free})
}

// CheckUnique handles POST /check-unique.
func (h *AuthHandler) CheckUnique(c *gin.Context) {
	var req struct {
		Username    string `json:"username"`
		Email       string `json:"email"`
		PhoneNumber string `json:"phoneNumber"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid payload")
		return
	}

	out, err := h.Svc.CheckUniqueInformation(c.Request.Context(), service.UniqueCheckInput{
		Username:    req.Username,
		Email:       req.Email,
		PhoneNumber: req.PhoneNumber,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, "uniqueness checked", gin.H{
		"username":    out.Username,
		"email":       out.Email,
		"phoneNumber": out.PhoneNumber,
	})
}

// Me handles GET /me for authenticated callers.
func (h *AuthHandler) Me(c *gin.Context) {
	claims, ok := middleware.GetClaims(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ApiResponse{Code: http.StatusUnauthorized, Message: "missing access token"})
		return
	}

	account, err := h.Svc.Profile(c.Request.Context(), claims.AccountID)
	if err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, "profile loaded", gin.H{
		"id":          account.ID,
		"username":    account.Username,
		"fullName":    account.FullName,
		"email":       account.Email,
		"phoneNumber": account.PhoneNumber,
		"avatarUrl":   account.AvatarURL,
		"role":        account.Role,
		"gender":      account.Gender,
		"birthDate":   account.BirthDate,
	})
}
