package middleware

import (
	"github.com/SscSPs/auth_session_service/internal/apperrors"
	"github.com/SscSPs/auth_session_service/internal/core/domain"
	"github.com/gin-gonic/gin"
)

// Args exposes the request arguments a resource-id extractor may read.
// *gin.Context satisfies it.
type Args interface {
	Param(key string) string
}

// ResourceIDExtractor resolves the id of the resource an operation targets.
// It must be a pure function of the request arguments and the identity.
type ResourceIDExtractor func(args Args, identity *domain.SignedUser) string

// OwnerParam targets the user id held in path parameter name.
func OwnerParam(name string) ResourceIDExtractor {
	return func(args Args, _ *domain.SignedUser) string {
		return args.Param(name)
	}
}

// OwnerSelf targets the identity itself.
func OwnerSelf() ResourceIDExtractor {
	return func(_ Args, identity *domain.SignedUser) string {
		return identity.ID
	}
}

// CheckOwner fails Forbidden unless identity owns targetID.
func CheckOwner(identity *domain.SignedUser, targetID string) error {
	if identity == nil {
		return apperrors.NewUnauthenticated("Authentication required")
	}
	if targetID == "" || identity.ID != targetID {
		return apperrors.NewForbidden("You can only act on your own account")
	}
	return nil
}

// Owner requires the authenticated identity to own the targeted resource.
// It must run after Authenticated.
func Owner(extract ResourceIDExtractor) gin.HandlerFunc {
	return func(c *gin.Context) {
		identity, ok := GetIdentityFromContext(c)
		if !ok {
			abortWithError(c, apperrors.NewUnauthenticated("Authentication required"))
			return
		}
		if err := CheckOwner(identity, extract(c, identity)); err != nil {
			GetLoggerFromCtx(c.Request.Context()).Warn("Ownership check failed")
			abortWithError(c, err)
			return
		}
		c.Next()
	}
}
