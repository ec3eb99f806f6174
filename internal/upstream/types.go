package upstream

// Wire shapes of the commerce REST backend (WooCommerce bridge). The backend
// owns every invariant here; the gateway treats these as read-through DTOs.

type StockStatus string

const (
	StockInStock     StockStatus = "instock"
	StockOutOfStock  StockStatus = "outofstock"
	StockOnBackorder StockStatus = "onbackorder"
)

type Image struct {
	ID   int    `json:"id"`
	Src  string `json:"src"`
	Name string `json:"name"`
	Alt  string `json:"alt"`
}

type CategoryRef struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
	Slug string `json:"slug"`
}

type Product struct {
	ID               int         `json:"id"`
	Name             string      `json:"name"`
	Slug             string      `json:"slug"`
	Price            string      `json:"price"`
	RegularPrice     string      `json:"regular_price"`
	SalePrice        string      `json:"sale_price"`
	OnSale           bool        `json:"on_sale"`
	PriceHTML        string      `json:"price_html,omitempty"`
	SKU              string      `json:"sku"`
	Images           []Image     `json:"images"`
	Categories       []CategoryRef `json:"categories"`
	Description      string      `json:"description"`
	ShortDescription string      `json:"short_description"`
	StockStatus      StockStatus `json:"stock_status"`
	StockQuantity    *int        `json:"stock_quantity"`
}

type Category struct {
	ID     int    `json:"id"`
	Name   string `json:"name"`
	Slug   string `json:"slug"`
	Parent int    `json:"parent,omitempty"`
	Count  int    `json:"count,omitempty"`
	Image  *Image `json:"image"`
}

type Tag struct {
	ID    int    `json:"id"`
	Name  string `json:"name"`
	Slug  string `json:"slug"`
	Count int    `json:"count"`
}

type Billing struct {
	Phone string `json:"phone"`
	City  string `json:"city"`
}

type Customer struct {
	ID        int     `json:"id"`
	Email     string  `json:"email"`
	FirstName string  `json:"first_name"`
	LastName  string  `json:"last_name"`
	Username  string  `json:"username"`
	Billing   Billing `json:"billing"`
}

type CustomerUpdate struct {
	FirstName *string        `json:"first_name,omitempty"`
	LastName  *string        `json:"last_name,omitempty"`
	Billing   *BillingUpdate `json:"billing,omitempty"`
}

type BillingUpdate struct {
	Phone *string `json:"phone,omitempty"`
	City  *string `json:"city,omitempty"`
}

// LineItem is a cart line as held by the cart store and mirrored to the
// backend. One entry per distinct ProductID; Quantity is always >= 1.
type LineItem struct {
	ProductID     int         `json:"product_id"`
	Quantity      int         `json:"quantity"`
	VariationID   int         `json:"variation_id,omitempty"`
	Name          string      `json:"name"`
	Price         string      `json:"price"`
	ImageURL      string      `json:"image_url"`
	StockQuantity *int        `json:"stock_quantity"`
	StockStatus   StockStatus `json:"stock_status"`
}

// ServerCart is the backend's authoritative cart snapshot.
type ServerCart struct {
	Items    []LineItem `json:"items"`
	Messages []string   `json:"messages"`
}

type Address struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
}

type CouponLine struct {
	ID       int    `json:"id"`
	Code     string `json:"code"`
	Discount string `json:"discount"`
}

type OrderLineItem struct {
	ID        int     `json:"id"`
	Name      string  `json:"name"`
	ProductID int     `json:"product_id"`
	Quantity  int     `json:"quantity"`
	Total     string  `json:"total"`
	Price     float64 `json:"price"`
}

type Order struct {
	ID            int             `json:"id"`
	Status        string          `json:"status"`
	Currency      string          `json:"currency"`
	Total         string          `json:"total"`
	DiscountTotal string          `json:"discount_total"`
	DateCreated   string          `json:"date_created"`
	Billing       Address         `json:"billing"`
	Shipping      Address         `json:"shipping"`
	LineItems     []OrderLineItem `json:"line_items"`
	CouponLines   []CouponLine    `json:"coupon_lines"`
	CustomerNote  string          `json:"customer_note"`
}

type OrderBilling struct {
	FirstName string `json:"first_name,omitempty"`
	LastName  string `json:"last_name,omitempty"`
	Phone     string `json:"phone,omitempty"`
	City      string `json:"city,omitempty"`
}

// OrderLineItemCreate is the minimal line shape order creation accepts.
type OrderLineItemCreate struct {
	ProductID   int `json:"product_id"`
	Quantity    int `json:"quantity"`
	VariationID int `json:"variation_id,omitempty"`
}

type OrderPayload struct {
	LineItems    []OrderLineItemCreate `json:"line_items"`
	CustomerNote string                `json:"customer_note,omitempty"`
	CouponCode   string                `json:"coupon_code,omitempty"`
	Billing      *OrderBilling         `json:"billing,omitempty"`
}

type CouponValidation struct {
	Valid        bool   `json:"valid"`
	Code         string `json:"code"`
	Message      string `json:"message,omitempty"`
	DiscountType string `json:"discount_type,omitempty"`
	Amount       string `json:"amount,omitempty"`
}

// ProductPage wraps one page of products with the derived page count.
type ProductPage struct {
	Products   []Product `json:"products"`
	TotalPages int       `json:"total_pages"`
}
