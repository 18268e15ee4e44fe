// Package woocommerce — тонкий клиент каталога товаров и заказов.
// Каталог — внешний коллаборатор: структуры проксируются фронтенду как есть.
package woocommerce

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	cache "github.com/patrickmn/go-cache"
	"go.uber.org/zap"

	"github.com/egor/assistchat/models"
)

// Срок жизни кэша списков каталога.
const catalogCacheTTL = time.Hour

// Client представляет клиента WooCommerce REST API (wp-json/wc/v3).
type Client struct {
	baseURL        string
	consumerKey    string
	consumerSecret string
	client         *http.Client
	cache          *cache.Cache
	logger         *zap.Logger
}

// ListOptions — параметры выборки товаров.
type ListOptions struct {
	Category string
	Search   string
	Location string
	Page     int
	PerPage  int
}

// NewClient создаёт нового клиента каталога.
func NewClient(baseURL, consumerKey, consumerSecret string, timeout time.Duration, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Client{
		baseURL:        baseURL,
		consumerKey:    consumerKey,
		consumerSecret: consumerSecret,
		client:         &http.Client{Timeout: timeout},
		cache:          cache.New(catalogCacheTTL, 2*catalogCacheTTL),
		logger:         logger,
	}
}

// wcProduct — товар в формате каталога; наружу отдаётся models.Product.
type wcProduct struct {
	ID        int    `json:"id"`
	Name      string `json:"name"`
	Price     string `json:"price"`
	Permalink string `json:"permalink"`
	Images    []struct {
		Src string `json:"src"`
	} `json:"images"`
	Attributes []struct {
		Name    string   `json:"name"`
		Options []string `json:"options"`
	} `json:"attributes"`
}

func (p wcProduct) toModel() models.Product {
	out := models.Product{
		ID:        p.ID,
		Name:      p.Name,
		Price:     p.Price,
		Permalink: p.Permalink,
	}
	if len(p.Images) > 0 {
		out.ImageURL = p.Images[0].Src
	}
	for _, attr := range p.Attributes {
		if attr.Name == "Location" && len(attr.Options) > 0 {
			out.Location = attr.Options[0]
		}
	}
	return out
}

// ListProducts возвращает товары каталога. Повторные выборки с теми же
// параметрами в течение часа идут из кэша.
func (c *Client) ListProducts(ctx context.Context, opts ListOptions) ([]models.Product, error) {
	key := fmt.Sprintf("products|%s|%s|%s|%d|%d",
		opts.Category, opts.Search, opts.Location, opts.Page, opts.PerPage)
	if v, found := c.cache.Get(key); found {
		return v.([]models.Product), nil
	}

	params := url.Values{}
	if opts.Category != "" {
		params.Set("category", opts.Category)
	}
	if opts.Search != "" {
		params.Set("search", opts.Search)
	}
	if opts.Page > 0 {
		params.Set("page", strconv.Itoa(opts.Page))
	}
	perPage := opts.PerPage
	if perPage <= 0 {
		perPage = 20
	}
	params.Set("per_page", strconv.Itoa(perPage))

	var raw []wcProduct
	if err := c.get(ctx, "products", params, &raw); err != nil {
		return nil, err
	}

	products := make([]models.Product, 0, len(raw))
	for _, p := range raw {
		m := p.toModel()
		// Фильтр по городу делается на нашей стороне: каталог
		// хранит локацию как атрибут товара.
		if opts.Location != "" && m.Location != "" && m.Location != opts.Location {
			continue
		}
		products = append(products, m)
	}

	c.cache.Set(key, products, cache.DefaultExpiration)
	return products, nil
}

// GetProduct возвращает один товар по идентификатору.
func (c *Client) GetProduct(ctx context.Context, id int) (*models.Product, error) {
	var raw wcProduct
	if err := c.get(ctx, fmt.Sprintf("products/%d", id), nil, &raw); err != nil {
		return nil, err
	}
	out := raw.toModel()
	return &out, nil
}

// ListCategories возвращает категории каталога (кэшируется на час).
func (c *Client) ListCategories(ctx context.Context) ([]models.Category, error) {
	const key = "categories"
	if v, found := c.cache.Get(key); found {
		return v.([]models.Category), nil
	}

	params := url.Values{}
	params.Set("per_page", "100")

	var categories []models.Category
	if err := c.get(ctx, "products/categories", params, &categories); err != nil {
		return nil, err
	}

	c.cache.Set(key, categories, cache.DefaultExpiration)
	return categories, nil
}

// CreateOrder создаёт заказ в каталоге.
func (c *Client) CreateOrder(ctx context.Context, order *models.OrderRequest) (*models.Order, error) {
	body := map[string]interface{}{
		"payment_method":       "cod",
		"payment_method_title": "Cash on delivery",
		"set_paid":             false,
		"line_items":           order.LineItems,
		"billing": map[string]string{
			"first_name": order.Name,
			"email":      order.Email,
			"city":       order.City,
		},
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal order: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint("orders", nil), bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("create HTTP request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("catalog API request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		raw, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("catalog API error: status %d, body: %s", resp.StatusCode, string(raw))
	}

	var created models.Order
	if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
		return nil, fmt.Errorf("decode order response: %w", err)
	}
	return &created, nil
}

// endpoint собирает URL каталога с аутентификацией consumer key/secret
// в query-параметрах.
func (c *Client) endpoint(path string, params url.Values) string {
	if params == nil {
		params = url.Values{}
	}
	params.Set("consumer_key", c.consumerKey)
	params.Set("consumer_secret", c.consumerSecret)
	return fmt.Sprintf("%s/wp-json/wc/v3/%s?%s", c.baseURL, path, params.Encode())
}

// get выполняет GET-запрос к каталогу и декодирует JSON в out.
func (c *Client) get(ctx context.Context, path string, params url.Values, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint(path, params), nil)
	if err != nil {
		return fmt.Errorf("create HTTP request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("catalog API request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		raw, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("catalog API error: status %d, body: %s", resp.StatusCode, string(raw))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
