package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"cart-pricing-service/internal/catalog"
	"cart-pricing-service/internal/domain"
	"cart-pricing-service/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// ProductReader is the read side of the catalog.
type ProductReader interface {
	Lookup(id string) (*domain.Product, bool)
	List(params catalog.ListParams) []*domain.Product
	Categories() []string
}

// CartManager runs cart operations and returns the resulting snapshot.
type CartManager interface {
	Snapshot(ctx context.Context, cartID string) (domain.CartSnapshot, error)
	AddItem(ctx context.Context, cartID, productID string, quantity int) (domain.CartSnapshot, error)
	RemoveItem(ctx context.Context, cartID, productID string) (domain.CartSnapshot, error)
	SetQuantity(ctx context.Context, cartID, productID string, quantity int) (domain.CartSnapshot, error)
	IncrementItem(ctx context.Context, cartID, productID string) (domain.CartSnapshot, error)
	DecrementItem(ctx context.Context, cartID, productID string) (domain.CartSnapshot, error)
	Clear(ctx context.Context, cartID string) (domain.CartSnapshot, error)
}

// PreferenceManager reads and writes the theme flag.
type PreferenceManager interface {
	Theme(ctx context.Context) domain.Theme
	SetTheme(ctx context.Context, raw string) (domain.Theme, error)
	ToggleTheme(ctx context.Context) (domain.Theme, error)
	ResetTheme(ctx context.Context) (domain.Theme, error)
}

// HTTPHandler holds dependencies for HTTP handlers.
type HTTPHandler struct {
	products    ProductReader
	carts       CartManager
	preferences PreferenceManager
	validate    *validator.Validate
	logger      *zap.Logger
}

// NewHTTPHandler creates a new HTTPHandler with dependencies.
func NewHTTPHandler(products ProductReader, carts CartManager, preferences PreferenceManager, logger *zap.Logger) *HTTPHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &HTTPHandler{
		products:    products,
		carts:       carts,
		preferences: preferences,
		validate:    validator.New(),
		logger:      logger,
	}
}

// --- Helpers ---

// ErrorResponse defines the structure for JSON error responses.
type ErrorResponse struct {
	Error string `json:"error"`
}

func (h *HTTPHandler) respondWithError(w http.ResponseWriter, code int, message string) {
	h.respondWithJSON(w, code, ErrorResponse{Error: message})
}

func (h *HTTPHandler) respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if payload != nil {
		if err := json.NewEncoder(w).Encode(payload); err != nil {
			h.logger.Error("failed to encode JSON response", zap.Error(err))
		}
	}
}

// respondWithServiceError maps service errors onto status codes.
func (h *HTTPHandler) respondWithServiceError(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidCartID):
		h.respondWithError(w, http.StatusBadRequest, "Invalid cart ID format")
	case errors.Is(err, service.ErrProductNotFound):
		h.respondWithError(w, http.StatusNotFound, service.ErrProductNotFound.Error())
	case errors.Is(err, service.ErrInvalidTheme):
		h.respondWithError(w, http.StatusBadRequest, service.ErrInvalidTheme.Error())
	default:
		h.logger.Error("operation failed", zap.String("op", op), zap.Error(err))
		h.respondWithError(w, http.StatusInternalServerError, "Failed to "+op)
	}
}

func (h *HTTPHandler) decodeAndValidate(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	defer r.Body.Close()
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		h.respondWithError(w, http.StatusBadRequest, "Invalid request payload: "+err.Error())
		return false
	}
	if err := h.validate.Struct(dst); err != nil {
		h.respondWithError(w, http.StatusBadRequest, "Validation failed: "+err.Error())
		return false
	}
	return true
}

// --- Product Handlers ---

// ProductResponse is a catalog product with its computed prices.
type ProductResponse struct {
	ID         string           `json:"id"`
	Title      string           `json:"title"`
	Kind       domain.Kind      `json:"kind"`
	Category   string           `json:"category"`
	Rating     float64          `json:"rating"`
	BasePrice  decimal.Decimal  `json:"base_price"`
	FinalPrice decimal.Decimal  `json:"final_price"`
	OldPrice   *decimal.Decimal `json:"old_price,omitempty"`
}

func toProductResponse(p *domain.Product) ProductResponse {
	resp := ProductResponse{
		ID:         p.ID,
		Title:      p.Title,
		Kind:       p.Kind,
		Category:   p.Category,
		Rating:     p.Rating,
		BasePrice:  p.BasePrice,
		FinalPrice: p.FinalPrice(),
	}
	if old, ok := p.OldPrice(); ok {
		resp.OldPrice = &old
	}
	return resp
}

func (h *HTTPHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	params := catalog.ListParams{
		Query:    q.Get("q"),
		Category: q.Get("category"),
		Sort:     q.Get("sort"),
	}
	if !catalog.IsValidSort(params.Sort) {
		h.respondWithError(w, http.StatusBadRequest, "Invalid sort value. Allowed: price-asc, price-desc, rating-asc, rating-desc")
		return
	}

	products := h.products.List(params)
	data := make([]ProductResponse, 0, len(products))
	for _, p := range products {
		data = append(data, toProductResponse(p))
	}
	h.respondWithJSON(w, http.StatusOK, struct {
		Data  []ProductResponse `json:"data"`
		Total int               `json:"total"`
	}{Data: data, Total: len(data)})
}

func (h *HTTPHandler) ListCategories(w http.ResponseWriter, r *http.Request) {
	categories := h.products.Categories()
	if categories == nil {
		categories = []string{}
	}
	h.respondWithJSON(w, http.StatusOK, categories)
}

func (h *HTTPHandler) GetProductByID(w http.ResponseWriter, r *http.Request) {
	productID := chi.URLParam(r, "productId")
	p, ok := h.products.Lookup(productID)
	if !ok {
		h.respondWithError(w, http.StatusNotFound, service.ErrProductNotFound.Error())
		return
	}
	h.respondWithJSON(w, http.StatusOK, toProductResponse(p))
}

// --- Cart Handlers ---

// AddItemInput defines the expected input for adding a product to a cart.
type AddItemInput struct {
	ProductID string   `json:"product_id" validate:"required,max=128"`
	Quantity  *float64 `json:"quantity"` // defaults to 1; non-positive or fractional values count as 1, oversized ones are clamped
}

// SetQuantityInput defines the expected input for overwriting a line quantity.
type SetQuantityInput struct {
	Quantity *float64 `json:"quantity" validate:"required"`
}

func (h *HTTPHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	snap, err := h.carts.Snapshot(r.Context(), chi.URLParam(r, "cartId"))
	if err != nil {
		h.respondWithServiceError(w, "retrieve cart", err)
		return
	}
	h.respondWithJSON(w, http.StatusOK, snap)
}

func (h *HTTPHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	var input AddItemInput
	if !h.decodeAndValidate(w, r, &input) {
		return
	}
	quantity := 1
	if input.Quantity != nil {
		quantity = domain.CoerceQuantity(*input.Quantity)
	}

	snap, err := h.carts.AddItem(r.Context(), chi.URLParam(r, "cartId"), input.ProductID, quantity)
	if err != nil {
		h.respondWithServiceError(w, "add item", err)
		return
	}
	h.respondWithJSON(w, http.StatusOK, snap)
}

func (h *HTTPHandler) SetQuantity(w http.ResponseWriter, r *http.Request) {
	var input SetQuantityInput
	if !h.decodeAndValidate(w, r, &input) {
		return
	}

	snap, err := h.carts.SetQuantity(r.Context(), chi.URLParam(r, "cartId"), chi.URLParam(r, "productId"), domain.CoerceQuantity(*input.Quantity))
	if err != nil {
		h.respondWithServiceError(w, "update quantity", err)
		return
	}
	h.respondWithJSON(w, http.StatusOK, snap)
}

func (h *HTTPHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	snap, err := h.carts.RemoveItem(r.Context(), chi.URLParam(r, "cartId"), chi.URLParam(r, "productId"))
	if err != nil {
		h.respondWithServiceError(w, "remove item", err)
		return
	}
	h.respondWithJSON(w, http.StatusOK, snap)
}

func (h *HTTPHandler) IncrementItem(w http.ResponseWriter, r *http.Request) {
	snap, err := h.carts.IncrementItem(r.Context(), chi.URLParam(r, "cartId"), chi.URLParam(r, "productId"))
	if err != nil {
		h.respondWithServiceError(w, "increment item", err)
		return
	}
	h.respondWithJSON(w, http.StatusOK, snap)
}

func (h *HTTPHandler) DecrementItem(w http.ResponseWriter, r *http.Request) {
	snap, err := h.carts.DecrementItem(r.Context(), chi.URLParam(r, "cartId"), chi.URLParam(r, "productId"))
	if err != nil {
		h.respondWithServiceError(w, "decrement item", err)
		return
	}
	h.respondWithJSON(w, http.StatusOK, snap)
}

func (h *HTTPHandler) ClearCart(w http.ResponseWriter, r *http.Request) {
	snap, err := h.carts.Clear(r.Context(), chi.URLParam(r, "cartId"))
	if err != nil {
		h.respondWithServiceError(w, "clear cart", err)
		return
	}
	h.respondWithJSON(w, http.StatusOK, snap)
}

// --- Preference Handlers ---

// ThemeInput defines the expected input for setting the theme.
type ThemeInput struct {
	Theme string `json:"theme" validate:"required"`
}

type themeResponse struct {
	Theme domain.Theme `json:"theme"`
}

func (h *HTTPHandler) GetTheme(w http.ResponseWriter, r *http.Request) {
	h.respondWithJSON(w, http.StatusOK, themeResponse{Theme: h.preferences.Theme(r.Context())})
}

func (h *HTTPHandler) SetTheme(w http.ResponseWriter, r *http.Request) {
	var input ThemeInput
	if !h.decodeAndValidate(w, r, &input) {
		return
	}
	theme, err := h.preferences.SetTheme(r.Context(), input.Theme)
	if err != nil {
		h.respondWithServiceError(w, "save theme", err)
		return
	}
	h.respondWithJSON(w, http.StatusOK, themeResponse{Theme: theme})
}

func (h *HTTPHandler) ToggleTheme(w http.ResponseWriter, r *http.Request) {
	theme, err := h.preferences.ToggleTheme(r.Context())
	if err != nil {
		h.respondWithServiceError(w, "toggle theme", err)
		return
	}
	h.respondWithJSON(w, http.StatusOK, themeResponse{Theme: theme})
}

func (h *HTTPHandler) ResetTheme(w http.ResponseWriter, r *http.Request) {
	theme, err := h.preferences.ResetTheme(r.Context())
	if err != nil {
		h.respondWithServiceError(w, "reset theme", err)
		return
	}
	h.respondWithJSON(w, http.StatusOK, themeResponse{Theme: theme})
}

// --- Route Registration ---

// RegisterRoutes sets up the HTTP routes for the service.
func (h *HTTPHandler) RegisterRoutes(r chi.Router) {
	r.Route("/api/v1/products", func(r chi.Router) {
		r.Get("/", h.ListProducts)
		r.Get("/categories", h.ListCategories)
		r.Get("/{productId}", h.GetProductByID)
	})

	r.Route("/api/v1/carts/{cartId}", func(r chi.Router) {
		r.Get("/", h.GetCart)
		r.Delete("/", h.ClearCart)
		r.Route("/items", func(r chi.Router) {
			r.Post("/", h.AddItem)
			r.Route("/{productId}", func(r chi.Router) {
				r.Put("/", h.SetQuantity)
				r.Delete("/", h.RemoveItem)
				r.Post("/increment", h.IncrementItem)
				r.Post("/decrement", h.DecrementItem)
			})
		})
	})

	r.Route("/api/v1/preferences/theme", func(r chi.Router) {
		r.Get("/", h.GetTheme)
		r.Put("/", h.SetTheme)
		r.Delete("/", h.ResetTheme)
		r.Post("/toggle", h.ToggleTheme)
	})
}
