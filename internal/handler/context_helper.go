package handler

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/activitypass-api/internal/middleware"
	appErrors "github.com/noah-isme/activitypass-api/pkg/errors"
	"github.com/noah-isme/activitypass-api/pkg/response"
)

// requiredParam returns a trimmed path parameter, writing a validation error when empty.
func requiredParam(c *gin.Context, key string) (string, bool) {
	value := strings.TrimSpace(c.Param(key))
	if value == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, key+" is required"))
		return "", false
	}
	return value, true
}

// respond writes a success envelope carrying the request's response metadata.
func respond(c *gin.Context, status int, data interface{}) {
	response.JSON(c, status, data, nil, middleware.ResponseMeta(c))
}
