package httpserver

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"candyshop/internal/cart"
	"candyshop/internal/domain"
	"candyshop/internal/service/catalog"
	"candyshop/internal/service/order"
)

type orderHandler struct {
	svc     *order.Service
	cartKV  cart.KV
	policy  cart.PricePolicy
	catalog *catalog.Service
}

// checkout places an order for the authenticated user. The purchased lines
// are the caller's responsibility to pass; on success the selected cart
// items are dropped, mirroring the storefront's buy-selected flow.
func (h orderHandler) checkout(c *gin.Context) {
	var in order.CheckoutInput
	if err := c.ShouldBindJSON(&in); err != nil {
		respondError(c, http.StatusBadRequest, "invalid body")
		return
	}
	in.UserID = c.GetString(ctxUserID)

	created, err := h.svc.Checkout(c.Request.Context(), in)
	if err != nil {
		respondDomainError(c, err)
		return
	}

	if store, ok := openCartStore(c, h.cartKV, h.policy, h.catalog); ok {
		if err := store.RemoveSelected(c.Request.Context()); err != nil {
			// The order exists either way; the client can clear manually.
			respondDomainError(c, err)
			return
		}
	}

	c.JSON(http.StatusCreated, created)
}

func (h orderHandler) list(c *gin.Context) {
	ctx := c.Request.Context()
	if c.GetString(ctxUserRole) == domain.RoleAdmin {
		orders, err := h.svc.ListAll(ctx)
		if err != nil {
			respondDomainError(c, err)
			return
		}
		c.JSON(http.StatusOK, orders)
		return
	}
	orders, err := h.svc.ListByUser(ctx, c.GetString(ctxUserID))
	if err != nil {
		respondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, orders)
}

func (h orderHandler) get(c *gin.Context) {
	o, err := h.svc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondDomainError(c, err)
		return
	}
	if o.UserID != c.GetString(ctxUserID) && c.GetString(ctxUserRole) != domain.RoleAdmin {
		respondError(c, http.StatusNotFound, "order not found")
		return
	}
	c.JSON(http.StatusOK, o)
}

type statusRequest struct {
	Status string `json:"status"`
}

func (h orderHandler) updateStatus(c *gin.Context) {
	var req statusRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Status == "" {
		respondError(c, http.StatusBadRequest, "status is required")
		return
	}
	o, err := h.svc.UpdateStatus(c.Request.Context(), c.Param("id"), req.Status)
	if err != nil {
		respondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, o)
}

func (h orderHandler) cancel(c *gin.Context) {
	o, err := h.svc.Cancel(c.Request.Context(), c.GetString(ctxUserID), c.Param("id"))
	if err != nil {
		respondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, o)
}
