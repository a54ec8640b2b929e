package handlers

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/idtoken"

	"github.com/expenseflow/expense_flow_app/internal/core/domain"
	portssvc "github.com/expenseflow/expense_flow_app/internal/core/ports/services"
	"github.com/expenseflow/expense_flow_app/internal/middleware"
	"github.com/expenseflow/expense_flow_app/internal/platform/config"
	"github.com/expenseflow/expense_flow_app/internal/utils"
)

const oauthStateCookie = "oauth_state"

// GoogleOAuthHandler handles the Google sign-in redirect flow.
type GoogleOAuthHandler struct {
	userService  portssvc.UserSvcFacade
	cfg          *config.Config
	oauth2Config *oauth2.Config
}

// NewGoogleOAuthHandler creates a new GoogleOAuthHandler.
func NewGoogleOAuthHandler(us portssvc.UserSvcFacade, cfg *config.Config) *GoogleOAuthHandler {
	return &GoogleOAuthHandler{
		userService: us,
		cfg:         cfg,
		oauth2Config: &oauth2.Config{
			ClientID:     cfg.GoogleClientID,
			ClientSecret: cfg.GoogleClientSecret,
			RedirectURL:  cfg.GoogleRedirectURL,
			Scopes:       []string{"https://www.googleapis.com/auth/userinfo.email", "https://www.googleapis.com/auth/userinfo.profile"},
			Endpoint:     google.Endpoint,
		},
	}
}

// registerGoogleOAuthRoutes sets up the Google sign-in routes. The routes are
// no-ops when no client ID is configured.
func registerGoogleOAuthRoutes(rg *gin.Engine, cfg *config.Config, userService portssvc.UserSvcFacade) {
	if cfg.GoogleClientID == "" {
		return
	}
	h := NewGoogleOAuthHandler(userService, cfg)

	grp := rg.Group("/api/v1/auth/google")
	{
		grp.GET("/login", h.Login)
		grp.GET("/callback", h.Callback)
	}
}

// Login godoc
// @Summary Start Google sign-in
// @Description Redirects the browser to Google's consent screen with a CSRF state cookie.
// @Tags oauth
// @Success 307 "Redirect to Google"
// @Failure 500 {object} ErrorResponse
// @Router /auth/google/login [get]
func (h *GoogleOAuthHandler) Login(c *gin.Context) {
	state, err := utils.GenerateSecureRandomString(16)
	if err != nil {
		logger := middleware.GetLoggerFromCtx(c.Request.Context())
		logger.Error("Failed to generate OAuth state", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Failed to start Google sign-in"})
		return
	}

	// The state cookie only needs to survive the round trip to Google.
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(oauthStateCookie, state, 300, "/", "", h.cfg.IsProduction, true)
	c.Redirect(http.StatusTemporaryRedirect, h.oauth2Config.AuthCodeURL(state))
}

// Callback godoc
// @Summary Complete Google sign-in
// @Description Exchanges the authorization code, validates Google's ID token, provisions the user on first sign-in and redirects to the frontend with an application JWT.
// @Tags oauth
// @Param   code query string true "Authorization code"
// @Param   state query string true "CSRF state"
// @Success 307 "Redirect to frontend with token"
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse
// @Router /auth/google/callback [get]
func (h *GoogleOAuthHandler) Callback(c *gin.Context) {
	ctx := c.Request.Context()
	logger := middleware.GetLoggerFromCtx(ctx)

	cookieState, err := c.Cookie(oauthStateCookie)
	if err != nil || cookieState == "" || c.Query("state") != cookieState {
		logger.Warn("OAuth state mismatch")
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid OAuth state"})
		return
	}
	c.SetCookie(oauthStateCookie, "", -1, "/", "", h.cfg.IsProduction, true)

	code := c.Query("code")
	if code == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Authorization code is required"})
		return
	}

	oauth2Token, err := h.oauth2Config.Exchange(ctx, code)
	if err != nil {
		logger.Error("Failed to exchange authorization code with Google", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid or expired authorization code"})
		return
	}

	idTokenString, ok := oauth2Token.Extra("id_token").(string)
	if !ok || idTokenString == "" {
		logger.Error("ID token missing from Google's token response")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Failed to retrieve ID token from Google"})
		return
	}

	payload, err := idtoken.Validate(ctx, idTokenString, h.cfg.GoogleClientID)
	if err != nil {
		logger.Warn("Google ID token validation failed", slog.String("error", err.Error()))
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "Invalid Google ID token"})
		return
	}

	email, _ := payload.Claims["email"].(string)
	name, _ := payload.Claims["name"].(string)
	providerUserID := payload.Subject
	if email == "" || providerUserID == "" {
		logger.Error("Essential claims missing from Google ID token payload")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Essential user information missing from Google token"})
		return
	}

	user, err := h.userService.FindOrCreateOAuthUser(ctx, domain.ProviderGoogle, providerUserID, email, name)
	if err != nil {
		respondWithError(c, logger, err, "Failed to process Google sign-in")
		return
	}

	token, err := utils.GenerateJWT(user.UserID, string(user.Role), h.cfg.JWTSecret, h.cfg.JWTExpiryDuration, h.cfg.JWTIssuer)
	if err != nil {
		logger.Error("Failed to sign JWT token", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Failed to generate token"})
		return
	}

	logger.Info("Google sign-in completed", slog.String("user_id", user.UserID))
	// The token travels in the fragment so it never reaches frontend server logs.
	c.Redirect(http.StatusTemporaryRedirect, fmt.Sprintf("%s/oauth/callback#token=%s", h.cfg.FrontendBaseURL, token))
}
