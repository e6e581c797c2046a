package fakeairport

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/Domenick1991/airbooking-client/internal/domain"
	"github.com/gin-gonic/gin"
)

const ctxUserID = "userID"

type errorResponse struct {
	Message string `json:"message"`
}

func abortWith(c *gin.Context, status int, msg string) {
	c.AbortWithStatusJSON(status, errorResponse{Message: msg})
}

type AuthHandler struct {
	store  *Store
	tokens *Tokens
}

func NewAuthHandler(store *Store, tokens *Tokens) *AuthHandler {
	return &AuthHandler{store: store, tokens: tokens}
}

func (h *AuthHandler) Register(router *gin.RouterGroup) {
	router.POST("/login", h.login)
	router.POST("/register", h.register)
	router.POST("/register/frequent-flyer", h.registerFrequentFlyer)
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *AuthHandler) login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWith(c, http.StatusBadRequest, err.Error())
		return
	}
	user, err := h.store.Authenticate(req.Email, req.Password)
	if err != nil {
		abortWith(c, http.StatusUnauthorized, err.Error())
		return
	}
	token, err := h.tokens.Issue(user.ID)
	if err != nil {
		abortWith(c, http.StatusInternalServerError, err.Error())
		return
	}
	c.JSON(http.StatusOK, domain.LoginResult{Token: token, User: user})
}

func (h *AuthHandler) register(c *gin.Context) {
	var req domain.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWith(c, http.StatusBadRequest, err.Error())
		return
	}
	if msg := checkRegistration(req); msg != "" {
		abortWith(c, http.StatusBadRequest, msg)
		return
	}
	user, err := h.store.Register(req)
	if err != nil {
		abortWith(c, http.StatusBadRequest, err.Error())
		return
	}
	c.JSON(http.StatusCreated, user)
}

func (h *AuthHandler) registerFrequentFlyer(c *gin.Context) {
	var req domain.FrequentFlyerRegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWith(c, http.StatusBadRequest, err.Error())
		return
	}
	if msg := checkRegistration(req.RegisterRequest); msg != "" {
		abortWith(c, http.StatusBadRequest, msg)
		return
	}
	if req.InitialMiles < 0 {
		abortWith(c, http.StatusBadRequest, "Initial miles cannot be negative")
		return
	}
	user, err := h.store.RegisterFrequentFlyer(req)
	if err != nil {
		abortWith(c, http.StatusBadRequest, err.Error())
		return
	}
	c.JSON(http.StatusCreated, user)
}

func checkRegistration(req domain.RegisterRequest) string {
	switch {
	case strings.TrimSpace(req.Name) == "":
		return "Name is required"
	case !strings.Contains(req.Email, "@"):
		return "Email should be valid"
	case len(req.Password) < 6:
		return "Password must be at least 6 characters"
	}
	return ""
}

type FlightHandler struct {
	store *Store
}

func NewFlightHandler(store *Store) *FlightHandler {
	return &FlightHandler{store: store}
}

func (h *FlightHandler) Register(router *gin.RouterGroup) {
	router.GET("", h.list(nil))
	router.GET("/available", h.list(func(c *gin.Context, f domain.Flight) bool { return f.Bookable() }))
	router.GET("/search/destination/:destination", h.list(func(c *gin.Context, f domain.Flight) bool {
		return strings.EqualFold(f.Destination, c.Param("destination"))
	}))
	router.GET("/search/origin/:origin", h.list(func(c *gin.Context, f domain.Flight) bool {
		return strings.EqualFold(f.Origin, c.Param("origin"))
	}))
	router.GET("/search/route", h.list(onRoute))
	router.GET("/search/available", h.list(func(c *gin.Context, f domain.Flight) bool {
		return onRoute(c, f) && f.Bookable()
	}))
	router.GET("/number/:number", h.getByNumber)
	router.GET("/:id", h.get)
}

func onRoute(c *gin.Context, f domain.Flight) bool {
	return strings.EqualFold(f.Origin, c.Query("origin")) && strings.EqualFold(f.Destination, c.Query("destination"))
}

func (h *FlightHandler) list(keep func(*gin.Context, domain.Flight) bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		var filter func(domain.Flight) bool
		if keep != nil {
			filter = func(f domain.Flight) bool { return keep(c, f) }
		}
		c.JSON(http.StatusOK, h.store.Flights(filter))
	}
}

func (h *FlightHandler) get(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		abortWith(c, http.StatusBadRequest, "invalid id")
		return
	}
	flight, ok := h.store.Flight(id)
	if !ok {
		c.Status(http.StatusNotFound)
		return
	}
	c.JSON(http.StatusOK, flight)
}

func (h *FlightHandler) getByNumber(c *gin.Context) {
	flight, ok := h.store.FlightByNumber(c.Param("number"))
	if !ok {
		c.Status(http.StatusNotFound)
		return
	}
	c.JSON(http.StatusOK, flight)
}

type BookingHandler struct {
	store *Store
}

func NewBookingHandler(store *Store) *BookingHandler {
	return &BookingHandler{store: store}
}

func (h *BookingHandler) Register(router *gin.RouterGroup) {
	router.GET("", h.list(false))
	router.GET("/active", h.list(true))
	router.GET("/stats", h.stats)
	router.GET("/reference/:reference", h.get(byReferenceParam))
	router.GET("/:id", h.get(byIDParam))
	router.POST("", h.create)
	router.DELETE("/reference/:reference", h.cancel(byReferenceParam))
	router.DELETE("/:id", h.cancel(byIDParam))
}

func byIDParam(c *gin.Context) (func(domain.Booking) bool, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return nil, false
	}
	return ByID(id), true
}

func byReferenceParam(c *gin.Context) (func(domain.Booking) bool, bool) {
	return ByReference(c.Param("reference")), true
}

func (h *BookingHandler) list(activeOnly bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, h.store.Bookings(c.GetInt64(ctxUserID), activeOnly))
	}
}

func (h *BookingHandler) stats(c *gin.Context) {
	c.JSON(http.StatusOK, h.store.Stats(c.GetInt64(ctxUserID)))
}

func (h *BookingHandler) get(selector func(*gin.Context) (func(domain.Booking) bool, bool)) gin.HandlerFunc {
	return func(c *gin.Context) {
		match, ok := selector(c)
		if !ok {
			abortWith(c, http.StatusBadRequest, "invalid id")
			return
		}
		b, err := h.store.Booking(c.GetInt64(ctxUserID), match)
		if err != nil {
			c.Status(http.StatusNotFound)
			return
		}
		c.JSON(http.StatusOK, b)
	}
}

func (h *BookingHandler) create(c *gin.Context) {
	var req domain.BookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWith(c, http.StatusBadRequest, err.Error())
		return
	}
	if strings.TrimSpace(req.PassengerFirstName) == "" || strings.TrimSpace(req.PassengerLastName) == "" {
		abortWith(c, http.StatusBadRequest, "Passenger name is required")
		return
	}
	if req.PassengerAge < 1 {
		abortWith(c, http.StatusBadRequest, "Passenger age must be at least 1")
		return
	}
	b, err := h.store.CreateBooking(c.GetInt64(ctxUserID), req)
	if err != nil {
		abortWith(c, http.StatusBadRequest, err.Error())
		return
	}
	c.JSON(http.StatusCreated, b)
}

func (h *BookingHandler) cancel(selector func(*gin.Context) (func(domain.Booking) bool, bool)) gin.HandlerFunc {
	return func(c *gin.Context) {
		match, ok := selector(c)
		if !ok {
			abortWith(c, http.StatusBadRequest, "invalid id")
			return
		}
		b, err := h.store.CancelBooking(c.GetInt64(ctxUserID), match)
		if err != nil {
			abortWith(c, http.StatusBadRequest, err.Error())
			return
		}
		c.JSON(http.StatusOK, b)
	}
}

// RequireUser rejects requests without a valid bearer token and stores the
// caller's id on the context.
func RequireUser(tokens *Tokens, store *Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw, ok := strings.CutPrefix(c.GetHeader("Authorization"), "Bearer ")
		if !ok || raw == "" {
			abortWith(c, http.StatusUnauthorized, "Authentication required")
			return
		}
		id, err := tokens.Verify(raw)
		if err != nil {
			abortWith(c, http.StatusUnauthorized, "Invalid or expired token")
			return
		}
		if _, ok := store.User(id); !ok {
			abortWith(c, http.StatusUnauthorized, "User not found")
			return
		}
		c.Set(ctxUserID, id)
		c.Next()
	}
}
