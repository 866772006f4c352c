package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/snnyvrz/shelfshare-books/internal/model"
	"github.com/snnyvrz/shelfshare-books/internal/validation"
)

func parseBookID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id < 1 {
		return 0, false
	}
	return id, true
}

// validPrice rejects negative prices, which the binding tags cannot express
// for decimal values.
func validPrice(c *gin.Context, price *decimal.Decimal) bool {
	if price.IsNegative() {
		validation.AbortWithFieldError(c, "price", "gte", "price must not be negative")
		return false
	}
	return true
}

func toBook(b model.Book) Book {
	var id int64
	if b.ID != nil {
		id = *b.ID
	}
	return Book{
		ID:    id,
		Title: b.Title,
		Price: b.Price,
	}
}

func toBookResponse(b model.Book) BookResponse {
	return BookResponse{Data: toBook(b)}
}

func toListBooksResponse(books []model.Book) ListBooksResponse {
	data := make([]Book, 0, len(books))
	for _, b := range books {
		data = append(data, toBook(b))
	}
	return ListBooksResponse{Data: data}
}
