package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"bookinggo/internal/auth"
	"bookinggo/internal/checkout"
	"bookinggo/internal/storage"
	"bookinggo/internal/upload"
)

// CheckoutService creates hosted payment sessions for ticket purchases.
type CheckoutService interface {
	CreateSession(ctx context.Context, in checkout.Intent) (string, error)
}

// Handler wires HTTP routes to the reservation store, the session issuer,
// the upload directory and the checkout bridge.
type Handler struct {
	store    storage.Store
	auth     *auth.Service
	checkout CheckoutService
	uploads  *upload.Dir
	log      *zap.Logger
}

// NewHandler constructs a Handler instance.
func NewHandler(store storage.Store, authService *auth.Service, checkoutService CheckoutService, uploads *upload.Dir, log *zap.Logger) *Handler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Handler{
		store:    store,
		auth:     authService,
		checkout: checkoutService,
		uploads:  uploads,
		log:      log,
	}
}

// NewRouter builds a gin engine with logging, recovery, CORS and all routes.
func NewRouter(h *Handler) *gin.Engine {
	router := gin.New()
	router.Use(Recovery(h.log), RequestLogger(h.log))
	router.Use(cors.New(cors.Config{
		AllowAllOrigins: true,
		AllowMethods:    []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodHead, http.MethodOptions},
		AllowHeaders:    []string{"Origin", "Content-Type", "Authorization", "Accept"},
		ExposeHeaders:   []string{"Authorization", "X-Total-Count"},
	}))
	h.RegisterRoutes(router)
	return router
}

// RegisterRoutes attaches all HTTP routes to the router.
func (h *Handler) RegisterRoutes(router *gin.Engine) {
	gate := h.auth.Gate()

	router.GET("/health", func(c *gin.Context) { c.String(http.StatusOK, "ok") })
	router.POST("/login", h.login)
	router.POST("/upload", gate, h.uploadImage)
	router.Static(upload.URLPrefix, h.uploads.Root())

	api := router.Group("/api", gate)
	api.POST("/checkout/session", h.createCheckoutSession)
	api.GET("/reservations", h.listReservations)
	api.GET("/reservations/:id", h.getReservation)
	api.POST("/reservations", h.createReservation)
	api.PUT("/reservations/:id", h.replaceReservation)
	api.PATCH("/reservations/:id", h.patchReservation)
	api.DELETE("/reservations/:id", h.deleteReservation)

	// Unmatched /api paths still pass through the gate, so an anonymous
	// write there is a 401 rather than a 404.
	router.NoRoute(underPrefix("/api", gate), func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	})
}

// underPrefix runs mw only for request paths at or below prefix.
func underPrefix(prefix string, mw gin.HandlerFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		path := c.Request.URL.Path
		if path == prefix || strings.HasPrefix(path, prefix+"/") {
			mw(c)
			return
		}
		c.Next()
	}
}

type credentialsRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (h *Handler) login(c *gin.Context) {
	var req credentialsRequest
	// A malformed body is just another credential mismatch.
	_ = c.ShouldBindJSON(&req)
	token, err := h.auth.Login(req.Username, req.Password)
	if err != nil {
		if !errors.Is(err, auth.ErrInvalidCredentials) {
			h.log.Error("issue token", zap.Error(err))
		}
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
		return
	}
	h.log.Info("issued session token", zap.String("user", req.Username), zap.Duration("ttl", h.auth.TokenTTL()))
	c.JSON(http.StatusOK, gin.H{"token": token})
}

func (h *Handler) uploadImage(c *gin.Context) {
	file, err := c.FormFile("image")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No file uploaded"})
		return
	}
	name, path, err := h.uploads.Reserve(file.Filename)
	if err != nil {
		h.log.Error("reserve upload", zap.String("filename", file.Filename), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "save file failed"})
		return
	}
	if err := c.SaveUploadedFile(file, path); err != nil {
		h.uploads.Release(path)
		h.log.Error("save upload", zap.String("path", path), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "save file failed"})
		return
	}
	h.log.Info("stored upload", zap.String("name", name), zap.Int64("size", file.Size))
	c.JSON(http.StatusOK, gin.H{"url": upload.URL(name)})
}

type checkoutRequest struct {
	ReservationID json.RawMessage `json:"reservationId"`
	Name          string          `json:"name"`
	Email         string          `json:"email"`
	Quantity      json.RawMessage `json:"quantity"`
}

func (h *Handler) createCheckoutSession(c *gin.Context) {
	var req checkoutRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	intent := checkout.Intent{
		ReservationID: checkout.ParseReservationID(req.ReservationID),
		Name:          req.Name,
		Email:         req.Email,
		Quantity:      checkout.ParseQuantity(req.Quantity),
	}
	url, err := h.checkout.CreateSession(c.Request.Context(), intent)
	if err != nil {
		h.log.Error("create checkout session", zap.String("reservation_id", intent.ReservationID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Stripe session error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"url": url})
}
