package testutil

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/influencore/apiclient/apierror"
	"github.com/influencore/apiclient/validation"
)

const claimsKey = "claims"

type registerPayload struct {
	Name     string `json:"name" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8,max=72"`
}

type loginPayload struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type videoPayload struct {
	Prompt   string `json:"prompt" validate:"required"`
	Style    string `json:"style" validate:"omitempty,oneof=cinematic anime realistic cartoon"`
	Duration int    `json:"duration" validate:"gte=5,lte=60"`
}

// AuthResponse is returned by register and login.
type AuthResponse struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}

// DataResponse is the envelope for resource responses.
type DataResponse struct {
	Data any `json:"data"`
}

func (b *Backend) routes() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), b.record())

	r.GET("/health", b.health)

	auth := r.Group("/api/auth")
	auth.POST("/register", b.register)
	auth.POST("/login", b.login)
	auth.GET("/me", b.requireToken(), b.me)

	videos := r.Group("/api/videos", b.requireToken())
	videos.GET("", b.listVideos)
	videos.POST("", b.createVideo)

	return r
}

func (b *Backend) health(c *gin.Context) {
	if !b.isHealthy() {
		respondError(c, apierror.ServiceUnavailable("backend"))
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status":    "healthy",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

func (b *Backend) register(c *gin.Context) {
	var p registerPayload
	if !bind(c, &p) {
		return
	}
	user, err := b.accounts.register(p.Name, p.Email, p.Password)
	if errors.Is(err, errDuplicateEmail) {
		respondError(c, apierror.AlreadyExists("account"))
		return
	}
	if err != nil {
		respondError(c, apierror.Internal(err))
		return
	}
	b.respondWithToken(c, http.StatusCreated, user)
}

func (b *Backend) login(c *gin.Context) {
	var p loginPayload
	if !bind(c, &p) {
		return
	}
	user, err := b.accounts.authenticate(p.Email, p.Password)
	if err != nil {
		respondError(c, apierror.Unauthorized("Invalid email or password."))
		return
	}
	b.respondWithToken(c, http.StatusOK, user)
}

func (b *Backend) me(c *gin.Context) {
	user, ok := b.currentUser(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, DataResponse{Data: user})
}

func (b *Backend) listVideos(c *gin.Context) {
	user, ok := b.currentUser(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, DataResponse{Data: b.accounts.videosOf(user.ID)})
}

func (b *Backend) createVideo(c *gin.Context) {
	user, ok := b.currentUser(c)
	if !ok {
		return
	}
	var p videoPayload
	if !bind(c, &p) {
		return
	}
	if p.Style == "" {
		p.Style = "cinematic"
	}
	v := Video{
		ID:        uuid.NewString(),
		OwnerID:   user.ID,
		Prompt:    p.Prompt,
		Style:     p.Style,
		Duration:  p.Duration,
		Status:    "queued",
		CreatedAt: time.Now().UTC(),
	}
	b.accounts.addVideo(v)
	c.JSON(http.StatusCreated, DataResponse{Data: v})
}

func (b *Backend) respondWithToken(c *gin.Context, status int, user User) {
	token, err := b.tokens.issue(user, b.tokens.ttl)
	if err != nil {
		respondError(c, apierror.Internal(err))
		return
	}
	c.JSON(status, AuthResponse{Token: token, User: user})
}

// requireToken validates the bearer token and stores its claims.
func (b *Backend) requireToken() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			respondError(c, apierror.Unauthorized("Authorization header required."))
			return
		}
		scheme, token, found := strings.Cut(header, " ")
		if !found || scheme != "Bearer" || token == "" {
			respondError(c, apierror.InvalidToken())
			return
		}
		claims, err := b.tokens.parse(token)
		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			respondError(c, apierror.TokenExpired())
			return
		case err != nil:
			respondError(c, apierror.InvalidToken())
			return
		}
		c.Set(claimsKey, claims)
		c.Next()
	}
}

func (b *Backend) currentUser(c *gin.Context) (User, bool) {
	claims, _ := c.MustGet(claimsKey).(*Claims)
	user, ok := b.accounts.user(claims.Subject)
	if !ok {
		respondError(c, apierror.InvalidToken())
		return User{}, false
	}
	return user, true
}

// bind decodes the JSON body into p and validates it, answering 400 or 422
// on failure.
func bind(c *gin.Context, p any) bool {
	if err := c.ShouldBindJSON(p); err != nil {
		respondError(c, apierror.Malformed(err))
		return false
	}
	if err := validation.Validate(p); err != nil {
		respondError(c, err)
		return false
	}
	return true
}

// respondError writes err as the standard error envelope and aborts.
func respondError(c *gin.Context, err error) {
	appErr, ok := apierror.AsAppError(err)
	if !ok {
		appErr = apierror.Internal(err)
	}
	c.AbortWithStatusJSON(appErr.Status(), appErr.Response())
}
