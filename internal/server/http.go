// Package server exposes the session service over HTTP.
package server

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"brand-analytics-platform/identity/internal/security"
	"brand-analytics-platform/identity/internal/session/service"
)

// Server is the HTTP edge over the session service.
type Server struct {
	r        *gin.Engine
	sessions *service.Service
}

// NewServer builds the router. sessions must not be nil.
func NewServer(sessions *service.Service) *Server {
	r := gin.New()
	r.Use(gin.Recovery())

	s := &Server{r: r, sessions: sessions}
	s.routes()
	return s
}

// Handler returns the router for mounting into an http.Server.
func (s *Server) Handler() http.Handler {
	return s.r
}

func (s *Server) routes() {
	s.r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	s.r.GET("/.well-known/jwks.json", s.handleJWKS)

	v1 := s.r.Group("/v1/auth")
	{
		v1.POST("/login", s.handleLogin)
		v1.POST("/refresh", s.handleRefresh)
		v1.POST("/logout", s.handleLogout)
		v1.POST("/revoke-all", s.requireAccessToken, s.handleRevokeAll)
		v1.GET("/me", s.requireAccessToken, s.handleMe)
		v1.GET("/sessions", s.requireAccessToken, s.handleSessions)
	}
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	TokenType    string `json:"token_type"`
	ExpiresAt    string `json:"expires_at"`
	RefreshToken string `json:"refresh_token"`
}

func writeErrorCode(c *gin.Context, status int, code, message string) {
	c.AbortWithStatusJSON(status, errorResponse{Code: code, Message: message})
}

// writeError maps the service's sentinel errors to HTTP statuses. Reuse gets
// its own code so clients can explain why every session just died.
func writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidCredentials):
		writeErrorCode(c, http.StatusUnauthorized, "INVALID_CREDENTIALS", "invalid email or password")
	case errors.Is(err, service.ErrInvalidToken):
		writeErrorCode(c, http.StatusUnauthorized, "INVALID_TOKEN", "invalid token")
	case errors.Is(err, service.ErrTokenExpired):
		writeErrorCode(c, http.StatusUnauthorized, "TOKEN_EXPIRED", "refresh token expired")
	case errors.Is(err, service.ErrTokenReused):
		writeErrorCode(c, http.StatusUnauthorized, "TOKEN_REUSED", "refresh token reuse detected; all sessions on this chain were revoked")
	case errors.Is(err, service.ErrUserSuspended):
		writeErrorCode(c, http.StatusForbidden, "USER_SUSPENDED", "account suspended")
	case errors.Is(err, service.ErrNoActiveBrand):
		writeErrorCode(c, http.StatusForbidden, "NO_ACTIVE_BRAND", "no active brand membership")
	case errors.Is(err, service.ErrUserOrMembershipSuspended):
		writeErrorCode(c, http.StatusForbidden, "SUSPENDED", "account or brand membership suspended")
	case errors.Is(err, service.ErrStoreUnavailable):
		writeErrorCode(c, http.StatusServiceUnavailable, "STORE_UNAVAILABLE", "backing store unavailable")
	default:
		writeErrorCode(c, http.StatusInternalServerError, "INTERNAL", "internal error")
	}
}

func (s *Server) handleLogin(c *gin.Context) {
	var req struct {
		Email       string `json:"email"`
		Password    string `json:"password"`
		DeviceLabel string `json:"device_label"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		writeErrorCode(c, http.StatusBadRequest, "INVALID_JSON", "invalid request body")
		return
	}
	res, err := s.sessions.Login(c.Request.Context(), req.Email, req.Password, req.DeviceLabel)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, tokenResponse{
		AccessToken:  res.AccessToken,
		TokenType:    "Bearer",
		ExpiresAt:    res.ExpiresAt.Format(timeFormat),
		RefreshToken: res.RefreshSecret,
	})
}

func (s *Server) handleRefresh(c *gin.Context) {
	var req struct {
		RefreshToken string `json:"refresh_token"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		writeErrorCode(c, http.StatusBadRequest, "INVALID_JSON", "invalid request body")
		return
	}
	res, err := s.sessions.Refresh(c.Request.Context(), req.RefreshToken)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, tokenResponse{
		AccessToken:  res.AccessToken,
		TokenType:    "Bearer",
		ExpiresAt:    res.ExpiresAt.Format(timeFormat),
		RefreshToken: res.RefreshSecret,
	})
}

func (s *Server) handleLogout(c *gin.Context) {
	var req struct {
		RefreshToken string `json:"refresh_token"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		writeErrorCode(c, http.StatusBadRequest, "INVALID_JSON", "invalid request body")
		return
	}
	if err := s.sessions.Logout(c.Request.Context(), req.RefreshToken); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) handleRevokeAll(c *gin.Context) {
	claims := claimsFrom(c)
	if err := s.sessions.RevokeAllForUser(c.Request.Context(), claims.Subject); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) handleMe(c *gin.Context) {
	claims := claimsFrom(c)
	c.JSON(http.StatusOK, gin.H{
		"sub":              claims.Subject,
		"email":            claims.Email,
		"role":             claims.Role,
		"brand_ids":        claims.BrandIDs,
		"primary_brand_id": claims.PrimaryBrandID,
	})
}

func (s *Server) handleSessions(c *gin.Context) {
	claims := claimsFrom(c)
	recs, err := s.sessions.ListSessions(c.Request.Context(), claims.Subject)
	if err != nil {
		writeError(c, err)
		return
	}
	type sessionView struct {
		ID          string `json:"id"`
		DeviceLabel string `json:"device_label,omitempty"`
		CreatedAt   string `json:"created_at"`
		ExpiresAt   string `json:"expires_at"`
	}
	items := make([]sessionView, 0, len(recs))
	for _, rec := range recs {
		items = append(items, sessionView{
			ID:          rec.ID,
			DeviceLabel: rec.DeviceLabel,
			CreatedAt:   rec.CreatedAt.Format(timeFormat),
			ExpiresAt:   rec.ExpiresAt.Format(timeFormat),
		})
	}
	c.JSON(http.StatusOK, gin.H{"sessions": items})
}

func (s *Server) handleJWKS(c *gin.Context) {
	// Public, immutable-per-keyset; let edges cache it.
	c.Header("Cache-Control", "public, max-age=300")
	c.Data(http.StatusOK, "application/json", s.sessions.PublicKeySet())
}

const (
	timeFormat = time.RFC3339

	claimsKey = "access_claims"
)

func claimsFrom(c *gin.Context) *security.AccessClaims {
	v, _ := c.Get(claimsKey)
	claims, _ := v.(*security.AccessClaims)
	return claims
}

// requireAccessToken verifies the Bearer token and stashes its claims for the
// handler. All verification failures look the same to the client.
func (s *Server) requireAccessToken(c *gin.Context) {
	header := c.GetHeader("Authorization")
	token, ok := strings.CutPrefix(header, "Bearer ")
	if !ok || token == "" {
		writeErrorCode(c, http.StatusUnauthorized, "INVALID_TOKEN", "invalid token")
		return
	}
	claims, err := s.sessions.VerifyAccessToken(token)
	if err != nil {
		writeErrorCode(c, http.StatusUnauthorized, "INVALID_TOKEN", "invalid token")
		return
	}
	c.Set(claimsKey, claims)
	c.Next()
}
