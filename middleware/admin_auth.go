package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/cppla/liveplus/utils"
)

const (
	// ContextClaimsKey stores the parsed admin claims inside Gin context.
	ContextClaimsKey = "admin_claims"
)

// AdminRequired ensures the request carries a valid, unrevoked admin token.
func AdminRequired(issuer *utils.TokenIssuer, blacklist *utils.TokenBlacklist) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		authHeader := ctx.GetHeader("Authorization")
		if authHeader == "" {
			utils.AbortWithError(ctx, http.StatusUnauthorized, 40101, "authorization header missing")
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			utils.AbortWithError(ctx, http.StatusUnauthorized, 40102, "invalid authorization header format")
			return
		}

		tokenString := strings.TrimSpace(parts[1])
		if tokenString == "" {
			utils.AbortWithError(ctx, http.StatusUnauthorized, 40103, "empty bearer token")
			return
		}

		claims, err := issuer.ParseToken(tokenString)
		if err != nil {
			utils.AbortWithError(ctx, http.StatusUnauthorized, 40105, "invalid token")
			return
		}
		if blacklist.IsRevoked(claims.ID) {
			utils.AbortWithError(ctx, http.StatusUnauthorized, 40104, "token revoked")
			return
		}
		if claims.Role != utils.RoleAdmin {
			utils.AbortWithError(ctx, http.StatusForbidden, 40301, "admin role required")
			return
		}

		ctx.Set(ContextClaimsKey, claims)
		ctx.Next()
	}
}

// AdminClaims returns the claims set by AdminRequired.
func AdminClaims(ctx *gin.Context) (*utils.Claims, bool) {
	v, ok := ctx.Get(ContextClaimsKey)
	if !ok {
		return nil, false
	}
	claims, ok := v.(*utils.Claims)
	return claims, ok
}
