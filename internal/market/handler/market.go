package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/agronova-labs/agronova/internal/access"
	"github.com/agronova-labs/agronova/internal/catalog"
	"github.com/agronova-labs/agronova/internal/identity"
	"github.com/agronova-labs/agronova/internal/market"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// MarketHandler exposes the marketplace HTTP endpoints: listings, orders,
// provenance traces, and the block explorer.
type MarketHandler struct {
	svc    *market.Service
	tokens *identity.TokenIssuer
	logger *zap.Logger
}

// NewMarketHandler creates a MarketHandler.
func NewMarketHandler(svc *market.Service, tokens *identity.TokenIssuer, logger *zap.Logger) *MarketHandler {
	return &MarketHandler{svc: svc, tokens: tokens, logger: logger}
}

// Register mounts the marketplace routes on the given router group.
// Reads are public; writes require an actor token.
func (h *MarketHandler) Register(rg *gin.RouterGroup) {
	products := rg.Group("/products")
	{
		products.GET("", h.ListProducts)
		products.POST("", RequireActor(h.tokens), h.CreateListing)
		products.POST("/:id/order", RequireActor(h.tokens), h.OrderProduct)
	}
	rg.GET("/trace/:id", h.TraceProduct)
	rg.GET("/explorer", h.Explorer)
}

// writeError maps service errors onto HTTP statuses. Denials, not-found and
// invalid input are expected outcomes; everything else is a server error.
func writeError(c *gin.Context, logger *zap.Logger, err error) {
	var denied *access.DeniedError
	switch {
	case errors.As(err, &denied):
		c.JSON(http.StatusForbidden, gin.H{"error": denied.Error()})
	case errors.Is(err, catalog.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "product not found"})
	case errors.Is(err, market.ErrInvalidInput):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, market.ErrChainCorrupted):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
	default:
		logger.Error("market request failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

// CreateListing handles POST /products — a farmer lists produce.
func (h *MarketHandler) CreateListing(c *gin.Context) {
	var in market.ListingInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	actorID, role := actorFromContext(c)
	product, block, err := h.svc.ListProduct(c.Request.Context(), actorID, role, in)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}

	RecordBlockAppend()
	c.JSON(http.StatusCreated, gin.H{"product": product, "block": block})
}

type orderRequest struct {
	Buyer string `json:"buyer"`
}

// OrderProduct handles POST /products/:id/order — a broker buys a listing.
func (h *MarketHandler) OrderProduct(c *gin.Context) {
	// The body is optional; without one the broker buys for themselves.
	var req orderRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}

	actorID, role := actorFromContext(c)
	product, block, err := h.svc.OrderProduct(c.Request.Context(), actorID, role, c.Param("id"), req.Buyer)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}

	RecordBlockAppend()
	c.JSON(http.StatusOK, gin.H{"product": product, "block": block})
}

// ListProducts handles GET /products?status= — current catalog view.
func (h *MarketHandler) ListProducts(c *gin.Context) {
	products, err := h.svc.ListByStatus(c.Request.Context(), c.Query("status"))
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"products": products})
}

// TraceProduct handles GET /trace/:id — listing/transfer provenance.
func (h *MarketHandler) TraceProduct(c *gin.Context) {
	result, err := h.svc.Trace(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// Explorer handles GET /explorer?from=&to= — a raw view of the chain.
// Without parameters the full chain is returned.
func (h *MarketHandler) Explorer(c *gin.Context) {
	from, err := parseIndexParam(c.DefaultQuery("from", "0"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "from must be a non-negative integer"})
		return
	}
	to := int64(-1)
	if raw := c.Query("to"); raw != "" {
		if to, err = parseIndexParam(raw); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "to must be a non-negative integer"})
			return
		}
	}

	blocks, err := h.svc.Explorer(c.Request.Context(), from, to)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"blocks": blocks})
}

func parseIndexParam(raw string) (int64, error) {
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || v < 0 {
		return 0, errors.New("invalid index")
	}
	return v, nil
}
