package utils

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// ErrorResponse defines the structure of error responses
type ErrorResponse struct {
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

// ErrorHandler recovers panics. JSON clients get an ErrorResponse, browsers a plain error page.
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if err := recover(); err != nil {
				GetLogger().Error("Unhandled panic",
					zap.Any("error", err),
					zap.String("path", c.Request.URL.Path))

				if WantsJSON(c) {
					c.AbortWithStatusJSON(http.StatusInternalServerError, ErrorResponse{
						Message: "Internal Server Error",
						Details: "An unexpected error occurred. Please try again later.",
					})
					return
				}
				c.Data(http.StatusInternalServerError, "text/html; charset=utf-8",
					[]byte("<h1>Something went wrong</h1><p>Please try again later.</p>"))
				c.Abort()
			}
		}()
		c.Next()
	}
}

// JSONError sends a standardized JSON error response
func JSONError(c *gin.Context, status int, message string, details string) {
	GetLogger().Warn(message, zap.String("details", details), zap.String("path", c.Request.URL.Path))
	c.AbortWithStatusJSON(status, ErrorResponse{Message: message, Details: details})
}

// WantsJSON reports whether the request targets the JSON surface.
func WantsJSON(c *gin.Context) bool {
	if strings.HasPrefix(c.Request.URL.Path, "/api/") {
		return true
	}
	return strings.Contains(c.GetHeader("Accept"), "application/json")
}
