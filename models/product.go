package models

// Product представляет собой товар или услугу из каталога WooCommerce.
// Для диалогового ядра это непрозрачное вложение: поля передаются
// фронтенду как есть, без интерпретации.
type Product struct {
	ID        int    `json:"id"`
	Name      string `json:"name"`
	Price     string `json:"price"`
	ImageURL  string `json:"image_url,omitempty"`
	Location  string `json:"location,omitempty"`
	Permalink string `json:"permalink,omitempty"`
}

// Category представляет собой категорию каталога.
type Category struct {
	ID    int    `json:"id"`
	Name  string `json:"name"`
	Slug  string `json:"slug"`
	Count int    `json:"count"`
}

// OrderLineItem — одна позиция заказа.
type OrderLineItem struct {
	ProductID int `json:"product_id"`
	Quantity  int `json:"quantity"`
}

// OrderRequest представляет собой запрос на создание заказа в каталоге.
type OrderRequest struct {
	LineItems []OrderLineItem `json:"line_items"`
	City      string          `json:"city,omitempty"`
	Email     string          `json:"email,omitempty"`
	Name      string          `json:"name,omitempty"`
}

// Order — созданный заказ, как его возвращает каталог.
type Order struct {
	ID     int    `json:"id"`
	Status string `json:"status"`
	Total  string `json:"total"`
}
