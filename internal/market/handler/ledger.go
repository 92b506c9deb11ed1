package handler

import (
	"net/http"
	"strconv"

	"github.com/agronova-labs/agronova/internal/identity"
	"github.com/agronova-labs/agronova/internal/ledger"
	"github.com/agronova-labs/agronova/internal/market"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// LedgerHandler exposes HTTP endpoints for the provenance chain itself:
// read-only inspection plus the admin-only reset.
type LedgerHandler struct {
	ledger ledger.Ledger
	svc    *market.Service
	tokens *identity.TokenIssuer
	logger *zap.Logger
}

// NewLedgerHandler creates a LedgerHandler. Verification and reset go through
// the market service so its corruption latch stays authoritative.
func NewLedgerHandler(l ledger.Ledger, svc *market.Service, tokens *identity.TokenIssuer, logger *zap.Logger) *LedgerHandler {
	return &LedgerHandler{ledger: l, svc: svc, tokens: tokens, logger: logger}
}

// Register mounts the ledger routes on the given router group.
func (h *LedgerHandler) Register(rg *gin.RouterGroup) {
	l := rg.Group("/ledger")
	{
		l.GET("", h.Overview)
		l.GET("/verify", h.Verify)
		l.GET("/blocks/:idx", h.GetBlock)
		l.POST("/reset", RequireActor(h.tokens), h.Reset)
	}
}

// Overview handles GET /ledger — returns the chain length and current root hash.
func (h *LedgerHandler) Overview(c *gin.Context) {
	ctx := c.Request.Context()

	count, err := h.ledger.Len(ctx)
	if err != nil {
		h.logger.Error("ledger Len", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to query ledger"})
		return
	}

	root, err := h.ledger.Root(ctx)
	if err != nil {
		h.logger.Error("ledger Root", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to query chain root"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"blocks": count,
		"root":   root,
	})
}

// Verify handles GET /ledger/verify — walks the full chain and reports integrity.
func (h *LedgerHandler) Verify(c *gin.Context) {
	if err := h.svc.VerifyChain(c.Request.Context()); err != nil {
		RecordVerifyFailure()
		h.logger.Warn("chain integrity check failed", zap.Error(err))
		c.JSON(http.StatusOK, gin.H{
			"valid": false,
			"error": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{"valid": true})
}

// GetBlock handles GET /ledger/blocks/:idx — returns a single block.
func (h *LedgerHandler) GetBlock(c *gin.Context) {
	idxStr := c.Param("idx")
	idx, err := strconv.ParseInt(idxStr, 10, 64)
	if err != nil || idx < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "idx must be a non-negative integer"})
		return
	}

	block, err := h.ledger.Get(c.Request.Context(), idx)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "block not found"})
		return
	}

	c.JSON(http.StatusOK, block)
}

// Reset handles POST /ledger/reset — truncates the chain to a fresh genesis,
// destroying all products. Admin only; enforced by the market service.
func (h *LedgerHandler) Reset(c *gin.Context) {
	actorID, role := actorFromContext(c)

	genesis, err := h.svc.ResetLedger(c.Request.Context(), actorID, role)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"genesis": genesis})
}
