package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/snnyvrz/shelfshare-books/internal/repository"
	"github.com/snnyvrz/shelfshare-books/internal/sqlerr"
	"github.com/snnyvrz/shelfshare-books/internal/validation"
)

func writeError(c *gin.Context, status int, code, message string) {
	c.AbortWithStatusJSON(status, validation.ErrorResponse{
		Code:    code,
		Message: message,
	})
}

// writeRepositoryError maps constraint violations reported by the database
// to client errors; anything else is a 500 with the given code.
func writeRepositoryError(c *gin.Context, err error, code, message string) {
	_ = c.Error(err)

	if dae, ok := repository.AsDataAccessError(err); ok {
		switch dae.Code {
		case sqlerr.UniqueViolation:
			writeError(c, http.StatusConflict, "BOOK_CONFLICT", "book conflicts with an existing book")
			return
		case sqlerr.NotNullViolation, sqlerr.CheckViolation, sqlerr.ForeignKeyViolation:
			writeError(c, http.StatusBadRequest, "BOOK_CONSTRAINT_VIOLATION", "book violates a database constraint")
			return
		}
	}

	writeError(c, http.StatusInternalServerError, code, message)
}
