package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/cppla/liveplus/utils"
)

const headerRequestID = "X-Request-Id"

// RequestID keeps an inbound X-Request-Id or generates one, and echoes it back.
func RequestID() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		id := ctx.GetHeader(headerRequestID)
		if id == "" || len(id) > 128 {
			id = uuid.NewString()
		}
		ctx.Set(utils.ContextRequestIDKey, id)
		ctx.Writer.Header().Set(headerRequestID, id)
		ctx.Next()
	}
}
