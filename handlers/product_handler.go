package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/egor/assistchat/models"
	"github.com/egor/assistchat/woocommerce"
)

// ProductHandler проксирует каталог WooCommerce фронтендам.
type ProductHandler struct {
	catalog *woocommerce.Client
	logger  *zap.Logger
}

// NewProductHandler создает обработчик каталога.
func NewProductHandler(catalog *woocommerce.Client, logger *zap.Logger) *ProductHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ProductHandler{catalog: catalog, logger: logger}
}

// ListProducts обрабатывает GET /api/products.
func (h *ProductHandler) ListProducts(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))

	products, err := h.catalog.ListProducts(c.Request.Context(), woocommerce.ListOptions{
		Category: c.Query("category"),
		Search:   c.Query("search"),
		Location: c.Query("location"),
		Page:     page,
	})
	if err != nil {
		h.logger.Error("ошибка получения товаров", zap.Error(err))
		c.JSON(http.StatusBadGateway, gin.H{"error": "catalog unavailable"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"products": products})
}

// GetProduct обрабатывает GET /api/products/:id.
func (h *ProductHandler) GetProduct(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid product id"})
		return
	}

	product, err := h.catalog.GetProduct(c.Request.Context(), id)
	if err != nil {
		h.logger.Error("ошибка получения товара", zap.Int("productId", id), zap.Error(err))
		c.JSON(http.StatusBadGateway, gin.H{"error": "catalog unavailable"})
		return
	}

	c.JSON(http.StatusOK, product)
}

// ListCategories обрабатывает GET /api/categories.
func (h *ProductHandler) ListCategories(c *gin.Context) {
	categories, err := h.catalog.ListCategories(c.Request.Context())
	if err != nil {
		h.logger.Error("ошибка получения категорий", zap.Error(err))
		c.JSON(http.StatusBadGateway, gin.H{"error": "catalog unavailable"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"categories": categories})
}

// CreateOrder обрабатывает POST /api/orders.
func (h *ProductHandler) CreateOrder(c *gin.Context) {
	var req models.OrderRequest
	if err := c.ShouldBindJSON(&req); err != nil || len(req.LineItems) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "order must contain at least one line item"})
		return
	}

	order, err := h.catalog.CreateOrder(c.Request.Context(), &req)
	if err != nil {
		h.logger.Error("ошибка создания заказа", zap.Error(err))
		c.JSON(http.StatusBadGateway, gin.H{"error": "failed to create order"})
		return
	}

	h.logger.Info("заказ создан", zap.Int("orderId", order.ID))
	c.JSON(http.StatusCreated, order)
}
