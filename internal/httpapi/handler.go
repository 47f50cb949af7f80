package httpapi

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"go.uber.org/zap"

	goSession "github.com/MrEthical07/goSession"
	"github.com/MrEthical07/goSession/middleware"
)

// Options configures the optional routes of [NewRouter].
type Options struct {
	// MetricsHandler is mounted at GET /metrics when set.
	MetricsHandler http.Handler
	// Health is called by GET /health; nil always reports ok.
	Health func(ctx context.Context) error
	// UserTiers may call the /user routes. Defaults to USER and ADMIN.
	UserTiers []goSession.Tier
}

// Handler serves the auth and user routes.
type Handler struct {
	engine *goSession.Engine
	logger *zap.Logger
	opts   Options
}

// NewHandler creates a Handler.
func NewHandler(engine *goSession.Engine, logger *zap.Logger, opts Options) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if len(opts.UserTiers) == 0 {
		opts.UserTiers = []goSession.Tier{goSession.TierUser, goSession.TierAdmin}
	}
	return &Handler{
		engine: engine,
		logger: logger.Named("httpapi"),
		opts:   opts,
	}
}

// NewRouter returns a gin engine with every route registered.
func NewRouter(engine *goSession.Engine, logger *zap.Logger, opts Options) *gin.Engine {
	binding.Validator = &DefaultValidator{}

	router := gin.New()
	router.Use(gin.Recovery())
	NewHandler(engine, logger, opts).Register(router)
	return router
}

// Register mounts the routes on r.
func (h *Handler) Register(r gin.IRouter) {
	auth := r.Group("/auth")
	auth.POST("/signup", h.Signup)
	auth.POST("/login", h.Login)
	auth.PATCH("/confirm-email", h.ConfirmEmail)
	auth.POST("/confirm-email", h.ConfirmEmail)
	auth.POST("/resend-otp", h.ResendOTP)
	auth.POST("/refresh", h.Refresh)

	user := r.Group("/user",
		middleware.GinGuard(h.engine, goSession.PurposeAccess, h.logger),
		middleware.GinRequireTier(h.opts.UserTiers...),
	)
	user.GET("/profile", h.Profile)
	user.POST("/logout", h.Logout)

	r.GET("/health", h.Health)
	if h.opts.MetricsHandler != nil {
		r.GET("/metrics", gin.WrapH(h.opts.MetricsHandler))
	}
}

// requestContext carries the client IP and request ID into engine calls.
func requestContext(c *gin.Context) context.Context {
	ctx := goSession.WithClientIP(c.Request.Context(), c.ClientIP())
	if id := c.GetHeader(middleware.HeaderRequestID); id != "" {
		ctx = goSession.WithRequestID(ctx, id)
	}
	return ctx
}

// Signup handles POST /auth/signup.
func (h *Handler) Signup(c *gin.Context) {
	var form SignupForm
	if err := c.ShouldBindJSON(&form); err != nil {
		respondWithValidationError(c, err)
		return
	}

	acct, err := h.engine.Signup(requestContext(c), goSession.SignupRequest{
		Email:    form.Email,
		Username: strings.Join(strings.Fields(form.Username), " "),
		Password: form.Password,
	})
	if err != nil && acct == nil {
		respondWithError(c, h.logger, HTTPStatus(err), err)
		return
	}

	message := "User Created Successfully"
	if err != nil {
		h.logger.Warn("signup: confirmation code not issued",
			zap.String("account_id", acct.ID),
			zap.Error(err),
		)
		message = "User Created Successfully, request a new confirmation code"
	}
	c.JSON(http.StatusCreated, gin.H{
		"message": message,
		"user":    accountResponse(acct),
	})
}

// Login handles POST /auth/login.
func (h *Handler) Login(c *gin.Context) {
	var form LoginForm
	if err := c.ShouldBindJSON(&form); err != nil {
		respondWithValidationError(c, err)
		return
	}

	pair, err := h.engine.LoginWithPassword(requestContext(c), form.Email, form.Password)
	if err != nil {
		respondWithError(c, h.logger, HTTPStatus(err), err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":     "User Logged In Successfully",
		"credentials": credentialsResponse(pair),
	})
}

// ConfirmEmail handles PATCH /auth/confirm-email.
func (h *Handler) ConfirmEmail(c *gin.Context) {
	var form ConfirmEmailForm
	if err := c.ShouldBindJSON(&form); err != nil {
		respondWithValidationError(c, err)
		return
	}

	err := h.engine.ConfirmEmail(requestContext(c), form.Email, form.OTP)
	if err != nil {
		status := HTTPStatus(err)
		if errors.Is(err, goSession.ErrAccountNotFound) {
			status = http.StatusNotFound
		}
		respondWithError(c, h.logger, status, err)
		return
	}

	respondWithMessage(c, http.StatusOK, "Email Confirmed Successfully")
}

// ResendOTP handles POST /auth/resend-otp. Unknown emails get the same
// answer as known ones.
func (h *Handler) ResendOTP(c *gin.Context) {
	var form ResendForm
	if err := c.ShouldBindJSON(&form); err != nil {
		respondWithValidationError(c, err)
		return
	}

	err := h.engine.ResendConfirmation(requestContext(c), form.Email)
	if err != nil && !errors.Is(err, goSession.ErrAccountNotFound) {
		respondWithError(c, h.logger, HTTPStatus(err), err)
		return
	}

	respondWithMessage(c, http.StatusAccepted, "If the account exists, a new code has been sent")
}

// Refresh handles POST /auth/refresh with a refresh credential in the
// Authorization header.
func (h *Handler) Refresh(c *gin.Context) {
	pair, err := h.engine.Refresh(requestContext(c), c.GetHeader("Authorization"))
	if err != nil {
		respondWithError(c, h.logger, middleware.Status(err), err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":     "Done",
		"credentials": credentialsResponse(pair),
	})
}

// Profile handles GET /user/profile.
func (h *Handler) Profile(c *gin.Context) {
	res, ok := middleware.GinAuthResult(c)
	if !ok {
		respondWithError(c, h.logger, http.StatusUnauthorized, goSession.ErrMalformedCredential)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Done",
		"data": gin.H{
			"user": accountResponse(res.Account),
			"decoded": gin.H{
				"jti":  res.TokenID,
				"tier": res.Tier,
				"iat":  res.IssuedAt.Unix(),
				"exp":  res.ExpiresAt.Unix(),
			},
		},
	})
}

// Logout handles POST /user/logout. ONLY answers 201, ALL answers 200.
func (h *Handler) Logout(c *gin.Context) {
	res, ok := middleware.GinAuthResult(c)
	if !ok {
		respondWithError(c, h.logger, http.StatusUnauthorized, goSession.ErrMalformedCredential)
		return
	}

	var form LogoutForm
	if err := c.ShouldBindJSON(&form); err != nil {
		respondWithValidationError(c, err)
		return
	}
	scope, err := goSession.ParseLogoutScope(form.Flag)
	if err != nil {
		respondWithError(c, h.logger, HTTPStatus(err), err)
		return
	}

	if err := h.engine.Logout(requestContext(c), res, scope); err != nil {
		respondWithError(c, h.logger, HTTPStatus(err), err)
		return
	}

	status := http.StatusOK
	if scope == goSession.ScopeOnly {
		status = http.StatusCreated
	}
	respondWithMessage(c, status, "Done")
}

// Health handles GET /health.
func (h *Handler) Health(c *gin.Context) {
	if h.opts.Health != nil {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		if err := h.opts.Health(ctx); err != nil {
			h.logger.Warn("health check failed", zap.Error(err))
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

type credentialsView struct {
	Tier             goSession.Tier `json:"tier"`
	AccessToken      string         `json:"access_token"`
	RefreshToken     string         `json:"refresh_token"`
	AccessExpiresAt  time.Time      `json:"access_expires_at"`
	RefreshExpiresAt time.Time      `json:"refresh_expires_at"`
}

func credentialsResponse(pair *goSession.TokenPair) credentialsView {
	return credentialsView{
		Tier:             pair.Tier,
		AccessToken:      pair.AccessToken,
		RefreshToken:     pair.RefreshToken,
		AccessExpiresAt:  pair.AccessExpiresAt.UTC(),
		RefreshExpiresAt: pair.RefreshExpiresAt.UTC(),
	}
}

type accountView struct {
	ID          string         `json:"id"`
	Email       string         `json:"email"`
	Username    string         `json:"username,omitempty"`
	Tier        goSession.Tier `json:"tier"`
	Confirmed   bool           `json:"confirmed"`
	ConfirmedAt *time.Time     `json:"confirmed_at,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
}

func accountResponse(a *goSession.Account) accountView {
	out := accountView{
		ID:        a.ID,
		Email:     a.Email,
		Username:  a.Username,
		Tier:      a.Tier,
		Confirmed: a.Confirmed(),
		CreatedAt: a.CreatedAt.UTC(),
	}
	if a.Confirmed() {
		t := a.ConfirmedAt.UTC()
		out.ConfirmedAt = &t
	}
	return out
}
