package domain

import (
	"strings"

	"cloud.google.com/go/civil"
)

type Product struct {
	ID                    string     `json:"id"`
	Name                  string     `json:"name"`
	Price                 string     `json:"price"`
	ExpiryDate            civil.Date `json:"expiryDate"`
	NotificationScheduled bool       `json:"notificationScheduled"`
}

func (p *Product) Validate() error {
	if strings.TrimSpace(p.ID) == "" {
		return ErrInvalidProduct
	}
	if strings.TrimSpace(p.Name) == "" {
		return ErrInvalidProduct
	}
	if !p.ExpiryDate.IsValid() {
		return ErrInvalidProduct
	}
	return nil
}

// ProductUpdate carries the user-editable fields of a product. Nil fields are left unchanged.
type ProductUpdate struct {
	Name       *string
	Price      *string
	ExpiryDate *civil.Date
}

// CartItem is a product snapshot placed in the shopping cart.
type CartItem struct {
	Product
}
