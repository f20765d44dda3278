package http

import (
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/smartcart/backend/internal/domain"
	"github.com/smartcart/backend/internal/infrastructure/auth"
	"github.com/smartcart/backend/internal/usecase"
)

// Handler holds dependencies for HTTP handlers
type Handler struct {
	catalog *usecase.CatalogService
	carts   *usecase.CartService
	scans   *usecase.ScanService
	tokens  *auth.Manager
}

// NewHandler creates a new HTTP handler
func NewHandler(catalog *usecase.CatalogService, carts *usecase.CartService, scans *usecase.ScanService, tokens *auth.Manager) *Handler {
	return &Handler{
		catalog: catalog,
		carts:   carts,
		scans:   scans,
		tokens:  tokens,
	}
}

// HealthCheck returns the health status of the API
func (h *Handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "smartcart-backend",
		"version": "1.0.0",
	})
}

// ListProducts returns the full catalog
func (h *Handler) ListProducts(c *gin.Context) {
	products, err := h.catalog.ListProducts(c.Request.Context())
	if err != nil {
		respondError(c, err, "Failed to fetch products")
		return
	}
	c.JSON(http.StatusOK, products)
}

// GetProduct returns one product by ID
func (h *Handler) GetProduct(c *gin.Context) {
	id, ok := pathID(c, "id", "Invalid product ID")
	if !ok {
		return
	}

	product, err := h.catalog.GetProduct(c.Request.Context(), id)
	if err != nil {
		respondError(c, err, "Failed to fetch product")
		return
	}
	c.JSON(http.StatusOK, product)
}

// GetProductByBarcode returns one product by barcode
func (h *Handler) GetProductByBarcode(c *gin.Context) {
	product, err := h.catalog.GetProductByBarcode(c.Request.Context(), c.Param("barcode"))
	if err != nil {
		respondError(c, err, "Failed to fetch product")
		return
	}
	c.JSON(http.StatusOK, product)
}

// IdentifyProduct runs one scan on the posted image
func (h *Handler) IdentifyProduct(c *gin.Context) {
	var req identifyRequest
	if !bindJSON(c, &req, "Image data is required") {
		return
	}
	if req.Quantity == 0 {
		req.Quantity = 1
	}

	result, err := h.scans.Scan(c.Request.Context(), currentUserID(c), req.Image, req.Quantity)
	if err != nil {
		respondError(c, err, "Failed to identify product")
		return
	}

	c.JSON(http.StatusOK, newIdentifyResponse(result))
}

// ConfirmScan adds the product of a scan awaiting confirmation
func (h *Handler) ConfirmScan(c *gin.Context) {
	h.resumeScan(c, true)
}

// CancelScan drops a scan awaiting confirmation without touching the cart
func (h *Handler) CancelScan(c *gin.Context) {
	h.resumeScan(c, false)
}

func (h *Handler) resumeScan(c *gin.Context, confirmed bool) {
	result, err := h.scans.Resume(c.Request.Context(), currentUserID(c), c.Param("scanId"), confirmed)
	if err != nil {
		respondError(c, err, "Failed to resume scan")
		return
	}
	c.JSON(http.StatusOK, newIdentifyResponse(result))
}

// ScanState reports the caller's current scan state
func (h *Handler) ScanState(c *gin.Context) {
	c.JSON(http.StatusOK, h.scans.State(currentUserID(c)))
}

// GetCart returns the caller's priced cart
func (h *Handler) GetCart(c *gin.Context) {
	summary, err := h.carts.List(c.Request.Context(), currentUserID(c))
	if err != nil {
		respondError(c, err, "Failed to fetch cart items")
		return
	}
	c.JSON(http.StatusOK, summary)
}

// AddToCart adds a product or increments its existing line
func (h *Handler) AddToCart(c *gin.Context) {
	var req addToCartRequest
	if !bindJSON(c, &req, "Invalid cart item data") {
		return
	}
	quantity := 1
	if req.Quantity != nil {
		quantity = *req.Quantity
	}

	userID := currentUserID(c)
	line, err := h.carts.Add(c.Request.Context(), userID, req.ProductID, quantity)
	if err != nil {
		respondError(c, err, "Failed to add item to cart")
		return
	}

	item, err := h.carts.Line(c.Request.Context(), userID, line.ID)
	if err != nil {
		respondError(c, err, "Failed to add item to cart")
		return
	}
	c.JSON(http.StatusCreated, item)
}

// UpdateCartItem sets a line's quantity; zero removes it
func (h *Handler) UpdateCartItem(c *gin.Context) {
	id, ok := pathID(c, "id", "Invalid cart item ID")
	if !ok {
		return
	}

	var req updateQuantityRequest
	if !bindJSON(c, &req, "Invalid quantity") {
		return
	}
	if *req.Quantity < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid quantity"})
		return
	}

	userID := currentUserID(c)
	line, err := h.carts.UpdateQuantity(c.Request.Context(), userID, id, *req.Quantity)
	if err != nil {
		respondError(c, err, "Failed to update cart item")
		return
	}
	if line == nil {
		c.JSON(http.StatusOK, gin.H{"message": "Item removed from cart"})
		return
	}

	item, err := h.carts.Line(c.Request.Context(), userID, line.ID)
	if err != nil {
		respondError(c, err, "Failed to update cart item")
		return
	}
	c.JSON(http.StatusOK, item)
}

// RemoveCartItem deletes one of the caller's lines
func (h *Handler) RemoveCartItem(c *gin.Context) {
	id, ok := pathID(c, "id", "Invalid cart item ID")
	if !ok {
		return
	}

	if err := h.carts.Remove(c.Request.Context(), currentUserID(c), id); err != nil {
		respondError(c, err, "Failed to delete cart item")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Cart item deleted successfully"})
}

// ClearCart empties the caller's cart
func (h *Handler) ClearCart(c *gin.Context) {
	if err := h.carts.Clear(c.Request.Context(), currentUserID(c)); err != nil {
		respondError(c, err, "Failed to clear cart")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Cart cleared successfully"})
}

// IssueDevToken signs a token for any user ID. Only routed in development.
func (h *Handler) IssueDevToken(c *gin.Context) {
	var req devTokenRequest
	if !bindJSON(c, &req, "A positive userId is required") {
		return
	}
	if req.UserID <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "A positive userId is required"})
		return
	}

	token, expires, err := h.tokens.Issue(req.UserID)
	if err != nil {
		respondError(c, err, "Failed to issue token")
		return
	}
	c.JSON(http.StatusOK, tokenResponse{Token: token, ExpiresAt: expires, UserID: req.UserID})
}

// bindJSON decodes the body into obj, writing 413 or 400 on failure
func bindJSON(c *gin.Context, obj interface{}, message string) bool {
	if err := c.ShouldBindJSON(obj); err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "Request body too large"})
			return false
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": message})
		return false
	}
	return true
}

// pathID parses a positive integer path parameter, writing 400 on failure
func pathID(c *gin.Context, name, message string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": message})
		return 0, false
	}
	return id, true
}

// respondError maps domain errors to HTTP statuses.
// Unknown errors become 500 with fallback as the message.
func respondError(c *gin.Context, err error, fallback string) {
	switch {
	case errors.Is(err, domain.ErrInvalidImage):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid image data"})
	case errors.Is(err, domain.ErrInvalidQuantity):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid quantity"})
	case errors.Is(err, domain.ErrInvalidRequest):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
	case errors.Is(err, domain.ErrUnauthorized):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Not authenticated"})
	case errors.Is(err, domain.ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"error": "Not authorized to modify this cart item"})
	case errors.Is(err, domain.ErrProductNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Product not found"})
	case errors.Is(err, domain.ErrCartLineNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Cart item not found"})
	case errors.Is(err, domain.ErrNoPendingConfirmation):
		c.JSON(http.StatusNotFound, gin.H{"error": "No scan is awaiting confirmation"})
	case errors.Is(err, domain.ErrScanInProgress):
		c.JSON(http.StatusConflict, gin.H{"error": "A scan is already in progress"})
	case errors.Is(err, domain.ErrRecognitionUnavailable):
		c.JSON(http.StatusBadGateway, gin.H{"error": "could not analyze image, try again"})
	default:
		log.Printf("[HTTP] %s %s: %v", c.Request.Method, c.FullPath(), err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": fallback})
	}
}
