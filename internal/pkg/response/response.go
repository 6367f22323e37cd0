package response

import (
	"errors"
	"net/http"

	"github.com/blogsphere/core/internal/pkg/apperr"
	"github.com/gin-gonic/gin"
)

// Pagination metadata returned with paginated responses.
type Pagination struct {
	Page  int   `json:"page"`
	Limit int   `json:"limit"`
	Total int64 `json:"total"`
	Pages int   `json:"pages"`
}

// envelope is the JSON shape of every response.
type envelope struct {
	Success    bool        `json:"success"`
	Data       interface{} `json:"data,omitempty"`
	Error      interface{} `json:"error,omitempty"`
	Pagination *Pagination `json:"pagination,omitempty"`
}

// OK sends a 200 response wrapping data.
func OK(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, envelope{Success: true, Data: nonNil(data)})
}

// Created sends a 201 response wrapping data.
func Created(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, envelope{Success: true, Data: nonNil(data)})
}

// Paged sends a paginated list response.
func Paged(c *gin.Context, data interface{}, pagination Pagination) {
	c.JSON(http.StatusOK, envelope{Success: true, Data: nonNil(data), Pagination: &pagination})
}

// Empty sends {success: true, data: {}}.
func Empty(c *gin.Context) {
	c.JSON(http.StatusOK, envelope{Success: true, Data: gin.H{}})
}

// Fail aborts with the given status and message.
func Fail(c *gin.Context, status int, message interface{}) {
	c.AbortWithStatusJSON(status, envelope{Success: false, Error: message})
}

// BadRequest sends a 400 error response.
func BadRequest(c *gin.Context, message string) {
	Fail(c, http.StatusBadRequest, message)
}

// Unauthorized sends a 401 error response.
func Unauthorized(c *gin.Context, message string) {
	Fail(c, http.StatusUnauthorized, message)
}

// Forbidden sends a 403 error response.
func Forbidden(c *gin.Context, message string) {
	Fail(c, http.StatusForbidden, message)
}

// NotFound sends a 404 error response.
func NotFound(c *gin.Context) {
	Fail(c, http.StatusNotFound, "Not Found")
}

// MethodNotAllowed sends a 405 error response.
func MethodNotAllowed(c *gin.Context) {
	Fail(c, http.StatusMethodNotAllowed, "Method Not Allowed")
}

// TooManyRequests sends a 429 error response.
func TooManyRequests(c *gin.Context) {
	Fail(c, http.StatusTooManyRequests, "Too many requests, please slow down")
}

// Error maps err onto the envelope. Unclassified errors are recorded on the
// context for the request logger and answered with a generic 500.
func Error(c *gin.Context, err error) {
	status := apperr.Status(err)
	if status == http.StatusInternalServerError {
		_ = c.Error(err)
		Fail(c, status, "Server Error")
		return
	}

	var message interface{} = err.Error()
	var appErr *apperr.Error
	if errors.As(err, &appErr) {
		message = appErr.Message
		if appErr.Kind == apperr.KindValidation && len(appErr.Details) > 1 {
			message = appErr.Details
		}
	}
	Fail(c, status, message)
}

func nonNil(data interface{}) interface{} {
	if data == nil {
		return gin.H{}
	}
	return data
}
