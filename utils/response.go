package utils

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type Response struct {
	Status  int         `json:"-"`                 // HTTP status code
	Message string      `json:"message,omitempty"` // Optional message
	Error   string      `json:"error,omitempty"`   // Error message
	Data    interface{} `json:"data,omitempty"`    // Response data
}

func respond(c *gin.Context, status int, resp *Response) {
	resp.Status = status
	c.JSON(status, resp)
}

// Success responses
func Success(c *gin.Context, data interface{}) {
	respond(c, http.StatusOK, &Response{Data: data})
}

func Created(c *gin.Context, data interface{}) {
	respond(c, http.StatusCreated, &Response{
		Message: "Note created",
		Data:    data,
	})
}

func Deleted(c *gin.Context, message string) {
	respond(c, http.StatusOK, &Response{Message: message})
}

// Error responses
func Unauthorized(c *gin.Context, message string) {
	respond(c, http.StatusUnauthorized, &Response{Error: message})
}

func BadRequest(c *gin.Context, message string) {
	respond(c, http.StatusBadRequest, &Response{Error: message})
}

func NotFound(c *gin.Context, message string) {
	respond(c, http.StatusNotFound, &Response{Error: message})
}

func Conflict(c *gin.Context, message string) {
	respond(c, http.StatusConflict, &Response{Error: message})
}

func InternalError(c *gin.Context, message string) {
	respond(c, http.StatusInternalServerError, &Response{Error: message})
}

func TooManyRequests(c *gin.Context, message string) {
	respond(c, http.StatusTooManyRequests, &Response{Error: message})
}

// Abort variants stop the middleware chain
func AbortUnauthorized(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, &Response{Status: http.StatusUnauthorized, Error: message})
}

func AbortTooManyRequests(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusTooManyRequests, &Response{Status: http.StatusTooManyRequests, Error: message})
}
