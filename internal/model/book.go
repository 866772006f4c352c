package model

import (
	"github.com/shopspring/decimal"
)

// Book is a row of the books table. ID stays nil until the book has been
// inserted and the database has assigned it.
type Book struct {
	ID    *int64          `json:"id" gorm:"primaryKey;autoIncrement"`
	Title string          `json:"title" gorm:"type:text;not null"`
	Price decimal.Decimal `json:"price" gorm:"type:decimal(12,2);not null"`
}

func (Book) TableName() string {
	return "books"
}

// Persisted reports whether the book has a database-assigned id.
func (b *Book) Persisted() bool {
	return b != nil && b.ID != nil
}
