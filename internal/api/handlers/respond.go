package handlers

import (
	"errors"

	"github.com/gin-gonic/gin"

	"crowdwatch-go/internal/apperr"
	"crowdwatch-go/internal/models"
)

// IdentityKey is the gin context key the auth middleware stores the
// verified caller identity under
const IdentityKey = "identity"

// ErrorBody is the error envelope returned by every failing endpoint
type ErrorBody struct {
	Error ErrorDetail `json:"error"`
}

type ErrorDetail struct {
	Code    string `json:"code" example:"INVALID_PAYLOAD"`
	Message string `json:"message" example:"eventId, lat, lng required"`
}

// respondError maps a service error to its HTTP status and envelope.
// Internal upstream codes never leak; callers see the neutral fallback
// payload instead.
func respondError(c *gin.Context, err error) {
	code := "INTERNAL"
	message := "internal error"
	var coded *apperr.Error
	if errors.As(err, &coded) && coded.Code != apperr.CodeUpstreamUnavailable {
		code = string(coded.Code)
		message = coded.Message
	}
	c.JSON(apperr.HTTPStatus(err), ErrorBody{
		Error: ErrorDetail{Code: code, Message: message},
	})
}

// callerIdentity returns the identity attached by the auth middleware,
// or an anonymous operator when the route skipped it
func callerIdentity(c *gin.Context) models.Identity {
	if v, ok := c.Get(IdentityKey); ok {
		if id, ok := v.(models.Identity); ok {
			return id
		}
	}
	return models.Identity{ID: "anonymous", Role: "operator"}
}
