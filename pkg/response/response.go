package response

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// ErrorBody is the JSON body returned on every failed request.
type ErrorBody struct {
	Error string `json:"error"`
}

// OK sends a 200 JSON response with the payload as-is.
func OK(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, data)
}

// BadRequest sends 400 with an error message.
func BadRequest(c *gin.Context, err string) {
	c.JSON(http.StatusBadRequest, ErrorBody{Error: err})
}

// NotFound sends 404 with an error message.
func NotFound(c *gin.Context, err string) {
	c.JSON(http.StatusNotFound, ErrorBody{Error: err})
}

// TooManyRequests sends 429 with an error message.
func TooManyRequests(c *gin.Context, err string) {
	c.JSON(http.StatusTooManyRequests, ErrorBody{Error: err})
}

// Internal sends 500 with an error message.
func Internal(c *gin.Context, err string) {
	c.JSON(http.StatusInternalServerError, ErrorBody{Error: err})
}
