package transport

import "github.com/google/uuid"

type CartLineRequest struct {
	ProductID uuid.UUID `json:"product_id" validate:"required"`
	Size      string    `json:"size"`
	Color     string    `json:"color"`
}

type AddToCartRequest struct {
	CartLineRequest
	Quantity int `json:"quantity" validate:"omitempty,min=1,max=99"`
}

type UpdateCartRequest struct {
	CartLineRequest
	Quantity int `json:"quantity" validate:"required,min=1,max=99"`
}

type WishlistRequest struct {
	ProductID uuid.UUID `json:"product_id" validate:"required"`
}
