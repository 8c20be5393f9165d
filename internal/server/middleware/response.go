// Package middleware holds the gin middleware shared by the HTTP API.
package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// MessageServerError is returned for every 500; details go to the logs only.
const MessageServerError = "Unexpected error, please check server logs"

// ErrorBody is the JSON error envelope.
type ErrorBody struct {
	StatusCode int    `json:"statusCode"`
	Message    string `json:"message"`
	Error      string `json:"error"`
}

// Abort stops the chain and writes the error envelope for status.
func Abort(c *gin.Context, status int, message string) {
	c.AbortWithStatusJSON(status, ErrorBody{
		StatusCode: status,
		Message:    message,
		Error:      http.StatusText(status),
	})
}
