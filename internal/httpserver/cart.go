package httpserver

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"candyshop/internal/cart"
	"candyshop/internal/domain"
	"candyshop/internal/service/catalog"
)

type cartHandler struct {
	kv      cart.KV
	policy  cart.PricePolicy
	catalog *catalog.Service
}

func newCartHandler(kv cart.KV, policy cart.PricePolicy, cat *catalog.Service) *cartHandler {
	return &cartHandler{kv: kv, policy: policy, catalog: cat}
}

// store opens the caller's cart. Keys live under the session namespace, so
// the anonymous key is distinct per visitor even on a shared backend. When
// the request carries a valid token the open performs the login merge.
func (h *cartHandler) store(c *gin.Context) (*cart.Store, bool) {
	return openCartStore(c, h.kv, h.policy, h.catalog)
}

func openCartStore(c *gin.Context, kv cart.KV, policy cart.PricePolicy, cat *catalog.Service) (*cart.Store, bool) {
	sid := c.GetString(ctxSessionID)
	scoped := cart.NewPrefixKV(kv, "session:"+sid+":")
	userID := func() string { return c.GetString(ctxUserID) }

	store, err := cart.NewStore(c.Request.Context(), scoped, userID, cart.Options{
		Policy: policy,
		Lookup: cat.CurrentPrice,
	})
	if err != nil {
		respondError(c, http.StatusInternalServerError, "cart storage unavailable")
		return nil, false
	}
	return store, true
}

type cartResponse struct {
	Items []domain.CartItem `json:"items"`
	Count int               `json:"count"`
}

func (h *cartHandler) respond(c *gin.Context, s *cart.Store) {
	c.JSON(http.StatusOK, cartResponse{Items: s.Items(), Count: s.Count()})
}

func (h *cartHandler) show(c *gin.Context) {
	s, ok := h.store(c)
	if !ok {
		return
	}
	h.respond(c, s)
}

func (h *cartHandler) subtotal(c *gin.Context) {
	s, ok := h.store(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"subtotal": s.SelectedSubtotal(c.Request.Context())})
}

type addItemRequest struct {
	ProductID string `json:"productId"`
}

func (h *cartHandler) addItem(c *gin.Context) {
	var req addItemRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.ProductID == "" {
		respondError(c, http.StatusBadRequest, "productId is required")
		return
	}
	product, err := h.catalog.GetProduct(c.Request.Context(), req.ProductID)
	if err != nil {
		respondDomainError(c, err)
		return
	}
	s, ok := h.store(c)
	if !ok {
		return
	}
	if err := s.Add(c.Request.Context(), *product); err != nil {
		respondDomainError(c, err)
		return
	}
	h.respond(c, s)
}

type updateQuantityRequest struct {
	Delta    *int `json:"delta"`
	Quantity *int `json:"quantity"`
}

func (h *cartHandler) updateQuantity(c *gin.Context) {
	var req updateQuantityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "invalid body")
		return
	}
	if req.Delta == nil && req.Quantity == nil {
		respondError(c, http.StatusBadRequest, "delta or quantity is required")
		return
	}
	s, ok := h.store(c)
	if !ok {
		return
	}
	productID := c.Param("productId")
	var err error
	if req.Delta != nil {
		err = s.UpdateQuantity(c.Request.Context(), productID, *req.Delta)
	} else {
		err = s.SetQuantity(c.Request.Context(), productID, *req.Quantity)
	}
	if err != nil {
		respondDomainError(c, err)
		return
	}
	h.respond(c, s)
}

func (h *cartHandler) toggleSelected(c *gin.Context) {
	s, ok := h.store(c)
	if !ok {
		return
	}
	if err := s.ToggleSelected(c.Request.Context(), c.Param("productId")); err != nil {
		respondDomainError(c, err)
		return
	}
	h.respond(c, s)
}

func (h *cartHandler) removeItem(c *gin.Context) {
	s, ok := h.store(c)
	if !ok {
		return
	}
	if err := s.Remove(c.Request.Context(), c.Param("productId")); err != nil {
		respondDomainError(c, err)
		return
	}
	h.respond(c, s)
}

func (h *cartHandler) removeSelected(c *gin.Context) {
	s, ok := h.store(c)
	if !ok {
		return
	}
	if err := s.RemoveSelected(c.Request.Context()); err != nil {
		respondDomainError(c, err)
		return
	}
	h.respond(c, s)
}

func (h *cartHandler) clear(c *gin.Context) {
	s, ok := h.store(c)
	if !ok {
		return
	}
	if err := s.Clear(c.Request.Context()); err != nil {
		respondDomainError(c, err)
		return
	}
	h.respond(c, s)
}
