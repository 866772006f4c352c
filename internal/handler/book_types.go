package handler

import (
	"github.com/shopspring/decimal"
)

type CreateBookRequest struct {
	Title string           `json:"title" binding:"required" example:"Dune"`
	Price *decimal.Decimal `json:"price" binding:"required" swaggertype:"string" example:"12.50"`
}

type UpdateBookRequest struct {
	Title string           `json:"title" binding:"required" example:"Dune"`
	Price *decimal.Decimal `json:"price" binding:"required" swaggertype:"string" example:"9.99"`
}

type Book struct {
	ID    int64           `json:"id" example:"1"`
	Title string          `json:"title" example:"Dune"`
	Price decimal.Decimal `json:"price" swaggertype:"string" example:"12.5"`
}

type BookResponse struct {
	Data Book `json:"data"`
}

type ListBooksResponse struct {
	Data []Book `json:"data"`
}
