package woocommerce

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/egor/assistchat/models"
)

var orderFixture = models.OrderRequest{
	LineItems: []models.OrderLineItem{{ProductID: 101, Quantity: 1}},
	City:      "Cluj-Napoca",
	Name:      "Ion",
	Email:     "ion@example.com",
}

const productsJSON = `[
	{
		"id": 101,
		"name": "Brake service",
		"price": "250",
		"permalink": "https://shop.example/brake",
		"images": [{"src": "https://shop.example/brake.jpg"}],
		"attributes": [{"name": "Location", "options": ["Cluj-Napoca"]}]
	},
	{
		"id": 102,
		"name": "Mall delivery",
		"price": "30",
		"permalink": "https://shop.example/delivery",
		"images": [],
		"attributes": [{"name": "Location", "options": ["Alba Iulia"]}]
	}
]`

func newCatalogServer(t *testing.T, hits *int64) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(hits, 1)

		// Аутентификация уходит query-параметрами.
		require.Equal(t, "key", r.URL.Query().Get("consumer_key"))
		require.Equal(t, "secret", r.URL.Query().Get("consumer_secret"))

		switch r.URL.Path {
		case "/wp-json/wc/v3/products":
			w.Write([]byte(productsJSON))
		case "/wp-json/wc/v3/products/101":
			w.Write([]byte(`{"id":101,"name":"Brake service","price":"250"}`))
		case "/wp-json/wc/v3/products/categories":
			w.Write([]byte(`[{"id":223,"name":"Mall Delivery","slug":"mall-delivery","count":12}]`))
		case "/wp-json/wc/v3/orders":
			require.Equal(t, http.MethodPost, r.Method)
			var body map[string]interface{}
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			assert.NotEmpty(t, body["line_items"])
			w.WriteHeader(http.StatusCreated)
			w.Write([]byte(`{"id":9001,"status":"processing","total":"250"}`))
		default:
			http.NotFound(w, r)
		}
	}))
}

func TestListProducts(t *testing.T) {
	var hits int64
	srv := newCatalogServer(t, &hits)
	defer srv.Close()

	c := NewClient(srv.URL, "key", "secret", 5*time.Second, nil)

	products, err := c.ListProducts(context.Background(), ListOptions{})
	require.NoError(t, err)
	require.Len(t, products, 2)

	assert.Equal(t, 101, products[0].ID)
	assert.Equal(t, "Brake service", products[0].Name)
	assert.Equal(t, "https://shop.example/brake.jpg", products[0].ImageURL)
	assert.Equal(t, "Cluj-Napoca", products[0].Location)
}

func TestListProductsFiltersByLocation(t *testing.T) {
	var hits int64
	srv := newCatalogServer(t, &hits)
	defer srv.Close()

	c := NewClient(srv.URL, "key", "secret", 5*time.Second, nil)

	products, err := c.ListProducts(context.Background(), ListOptions{Location: "Alba Iulia"})
	require.NoError(t, err)
	require.Len(t, products, 1)
	assert.Equal(t, "Mall delivery", products[0].Name)
}

func TestListProductsUsesCache(t *testing.T) {
	var hits int64
	srv := newCatalogServer(t, &hits)
	defer srv.Close()

	c := NewClient(srv.URL, "key", "secret", 5*time.Second, nil)

	_, err := c.ListProducts(context.Background(), ListOptions{Search: "brake"})
	require.NoError(t, err)
	_, err = c.ListProducts(context.Background(), ListOptions{Search: "brake"})
	require.NoError(t, err)

	// Повтор с теми же параметрами идёт из кэша.
	assert.Equal(t, int64(1), atomic.LoadInt64(&hits))

	// Другие параметры — новый запрос.
	_, err = c.ListProducts(context.Background(), ListOptions{Search: "delivery"})
	require.NoError(t, err)
	assert.Equal(t, int64(2), atomic.LoadInt64(&hits))
}

func TestGetProduct(t *testing.T) {
	var hits int64
	srv := newCatalogServer(t, &hits)
	defer srv.Close()

	c := NewClient(srv.URL, "key", "secret", 5*time.Second, nil)

	product, err := c.GetProduct(context.Background(), 101)
	require.NoError(t, err)
	assert.Equal(t, 101, product.ID)
	assert.Equal(t, "250", product.Price)
}

func TestListCategoriesUsesCache(t *testing.T) {
	var hits int64
	srv := newCatalogServer(t, &hits)
	defer srv.Close()

	c := NewClient(srv.URL, "key", "secret", 5*time.Second, nil)

	categories, err := c.ListCategories(context.Background())
	require.NoError(t, err)
	require.Len(t, categories, 1)
	assert.Equal(t, "Mall Delivery", categories[0].Name)

	_, err = c.ListCategories(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1), atomic.LoadInt64(&hits))
}

func TestCreateOrder(t *testing.T) {
	var hits int64
	srv := newCatalogServer(t, &hits)
	defer srv.Close()

	c := NewClient(srv.URL, "key", "secret", 5*time.Second, nil)

	order, err := c.CreateOrder(context.Background(), &orderFixture)
	require.NoError(t, err)
	assert.Equal(t, 9001, order.ID)
	assert.Equal(t, "processing", order.Status)
}

func TestCatalogErrorSurfaced(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "maintenance", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "key", "secret", 5*time.Second, nil)

	_, err := c.ListProducts(context.Background(), ListOptions{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 503")
}
