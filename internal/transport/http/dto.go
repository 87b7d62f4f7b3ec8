package http

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/vladislavdragonenkov/catalog/internal/domain"
)

// linkObject — одна гипермедиа-ссылка.
type linkObject struct {
	Href string `json:"href"`
}

// resourceLinks — блок _links ресурса.
type resourceLinks struct {
	Self linkObject `json:"self"`
}

type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

type productRequest struct {
	Name   string          `json:"name"`
	Price  decimal.Decimal `json:"price"`
	Type   string          `json:"type"`
	Active *bool           `json:"active"`
}

type productResponse struct {
	ID        string        `json:"id"`
	Name      string        `json:"name"`
	Price     string        `json:"price"`
	Type      string        `json:"type"`
	Active    bool          `json:"active"`
	CreatedAt time.Time     `json:"created_at"`
	UpdatedAt time.Time     `json:"updated_at"`
	Links     resourceLinks `json:"_links"`
}

type productPageResponse struct {
	Items []productResponse `json:"items"`
	Page  int               `json:"page"`
	Size  int               `json:"size"`
	Total int               `json:"total"`
}

type orderItemRequest struct {
	ProductID string `json:"product_id"`
	Amount    int64  `json:"amount"`
}

type orderRequest struct {
	Status   string             `json:"status"`
	Discount int                `json:"discount"`
	Items    []orderItemRequest `json:"items"`
}

type orderItemResponse struct {
	ID        string `json:"id"`
	ProductID string `json:"product_id"`
	Name      string `json:"name"`
	Price     string `json:"price"`
	Type      string `json:"type"`
	Amount    int64  `json:"amount"`
	Subtotal  string `json:"subtotal"`
}

type orderResponse struct {
	ID        string              `json:"id"`
	Status    string              `json:"status"`
	Discount  int                 `json:"discount"`
	Total     string              `json:"total"`
	Items     []orderItemResponse `json:"items"`
	CreatedAt time.Time           `json:"created_at"`
	UpdatedAt time.Time           `json:"updated_at"`
	Links     resourceLinks       `json:"_links"`
}

type orderPageResponse struct {
	Items []orderResponse `json:"items"`
	Page  int             `json:"page"`
	Size  int             `json:"size"`
	Total int             `json:"total"`
}

func toProductResponse(p *domain.Product) productResponse {
	return productResponse{
		ID:        p.ID(),
		Name:      p.Name(),
		Price:     p.Price().StringFixed(domain.MoneyScale),
		Type:      string(p.Type()),
		Active:    p.Active(),
		CreatedAt: p.CreatedAt(),
		UpdatedAt: p.UpdatedAt(),
		Links:     resourceLinks{Self: linkObject{Href: "/products/" + p.ID()}},
	}
}

func toOrderResponse(o *domain.Order) orderResponse {
	items := o.Items()
	result := make([]orderItemResponse, 0, len(items))
	for _, item := range items {
		p := item.Product()
		result = append(result, orderItemResponse{
			ID:        item.ID(),
			ProductID: p.ID(),
			Name:      p.Name(),
			Price:     p.Price().StringFixed(domain.MoneyScale),
			Type:      string(p.Type()),
			Amount:    item.Amount(),
			Subtotal:  item.Subtotal().RoundBank(domain.MoneyScale).StringFixed(domain.MoneyScale),
		})
	}

	return orderResponse{
		ID:        o.ID(),
		Status:    string(o.Status()),
		Discount:  o.Discount(),
		Total:     o.Total().StringFixed(domain.MoneyScale),
		Items:     result,
		CreatedAt: o.CreatedAt(),
		UpdatedAt: o.UpdatedAt(),
		Links:     resourceLinks{Self: linkObject{Href: "/orders/" + o.ID()}},
	}
}
