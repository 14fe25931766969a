package httpserver

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"candyshop/internal/service/catalog"
)

type catalogHandler struct {
	svc *catalog.Service
}

func (h catalogHandler) listProducts(c *gin.Context) {
	products, err := h.svc.ListProducts(c.Request.Context())
	if err != nil {
		respondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, products)
}

func (h catalogHandler) getProduct(c *gin.Context) {
	product, err := h.svc.GetProduct(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, product)
}

func (h catalogHandler) bySubCategory(c *gin.Context) {
	products, err := h.svc.ProductsBySubCategory(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, products)
}

func (h catalogHandler) searchByName(c *gin.Context) {
	query := c.Query("name")
	if query == "" {
		respondError(c, http.StatusBadRequest, "name query parameter is required")
		return
	}
	products, err := h.svc.SearchProductsByName(c.Request.Context(), query)
	if err != nil {
		respondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, products)
}

func (h catalogHandler) searchByPrice(c *gin.Context) {
	minPrice, err1 := strconv.ParseInt(c.DefaultQuery("min", "0"), 10, 64)
	maxPrice, err2 := strconv.ParseInt(c.DefaultQuery("max", "0"), 10, 64)
	if err1 != nil || err2 != nil || maxPrice < minPrice {
		respondError(c, http.StatusBadRequest, "invalid price range")
		return
	}
	products, err := h.svc.SearchProductsByPrice(c.Request.Context(), minPrice, maxPrice)
	if err != nil {
		respondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, products)
}

func (h catalogHandler) priceHistories(c *gin.Context) {
	histories, err := h.svc.PriceHistories(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, histories)
}

func (h catalogHandler) createProduct(c *gin.Context) {
	var in catalog.ProductInput
	if err := c.ShouldBindJSON(&in); err != nil {
		respondError(c, http.StatusBadRequest, "invalid body")
		return
	}
	product, err := h.svc.CreateProduct(c.Request.Context(), in)
	if err != nil {
		respondDomainError(c, err)
		return
	}
	c.JSON(http.StatusCreated, product)
}

func (h catalogHandler) updateProduct(c *gin.Context) {
	var in catalog.ProductInput
	if err := c.ShouldBindJSON(&in); err != nil {
		respondError(c, http.StatusBadRequest, "invalid body")
		return
	}
	product, err := h.svc.UpdateProduct(c.Request.Context(), c.Param("id"), in)
	if err != nil {
		respondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, product)
}

func (h catalogHandler) deleteProduct(c *gin.Context) {
	if err := h.svc.DeleteProduct(c.Request.Context(), c.Param("id")); err != nil {
		respondDomainError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h catalogHandler) listCategories(c *gin.Context) {
	categories, err := h.svc.ListCategories(c.Request.Context())
	if err != nil {
		respondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, categories)
}

func (h catalogHandler) getCategory(c *gin.Context) {
	category, err := h.svc.GetCategory(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, category)
}

type categoryRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

func (h catalogHandler) createCategory(c *gin.Context) {
	var req categoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "invalid body")
		return
	}
	category, err := h.svc.CreateCategory(c.Request.Context(), req.Name, req.Description)
	if err != nil {
		respondDomainError(c, err)
		return
	}
	c.JSON(http.StatusCreated, category)
}

func (h catalogHandler) updateCategory(c *gin.Context) {
	var req categoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "invalid body")
		return
	}
	category, err := h.svc.UpdateCategory(c.Request.Context(), c.Param("id"), req.Name, req.Description)
	if err != nil {
		respondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, category)
}

func (h catalogHandler) deleteCategory(c *gin.Context) {
	if err := h.svc.DeleteCategory(c.Request.Context(), c.Param("id")); err != nil {
		respondDomainError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h catalogHandler) subCategories(c *gin.Context) {
	subs, err := h.svc.ListSubCategories(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, subs)
}

type subCategoryRequest struct {
	CategoryID string `json:"categoryId"`
	Name       string `json:"name"`
}

func (h catalogHandler) createSubCategory(c *gin.Context) {
	var req subCategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "invalid body")
		return
	}
	sub, err := h.svc.CreateSubCategory(c.Request.Context(), req.CategoryID, req.Name)
	if err != nil {
		respondDomainError(c, err)
		return
	}
	c.JSON(http.StatusCreated, sub)
}

func (h catalogHandler) updateSubCategory(c *gin.Context) {
	var req subCategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "invalid body")
		return
	}
	sub, err := h.svc.UpdateSubCategory(c.Request.Context(), c.Param("id"), req.Name)
	if err != nil {
		respondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, sub)
}

func (h catalogHandler) deleteSubCategory(c *gin.Context) {
	if err := h.svc.DeleteSubCategory(c.Request.Context(), c.Param("id")); err != nil {
		respondDomainError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h catalogHandler) listPublishers(c *gin.Context) {
	publishers, err := h.svc.ListPublishers(c.Request.Context())
	if err != nil {
		respondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, publishers)
}

type publisherRequest struct {
	Name string `json:"name"`
}

func (h catalogHandler) createPublisher(c *gin.Context) {
	var req publisherRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "invalid body")
		return
	}
	publisher, err := h.svc.CreatePublisher(c.Request.Context(), req.Name)
	if err != nil {
		respondDomainError(c, err)
		return
	}
	c.JSON(http.StatusCreated, publisher)
}

func (h catalogHandler) deletePublisher(c *gin.Context) {
	if err := h.svc.DeletePublisher(c.Request.Context(), c.Param("id")); err != nil {
		respondDomainError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
