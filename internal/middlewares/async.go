package middlewares

import (
	"github.com/gin-gonic/gin"

	"github.com/learninverse/server/internal/utils"
)

// AsyncMiddleware pushes request handling through the global worker
// pool so concurrent request processing stays bounded. The caller's
// goroutine blocks until the worker finishes, which keeps the handler
// chain single-threaded over the context. Falls back to inline
// execution when the pool was never initialized.
func AsyncMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if utils.GlobalWorkerPool == nil {
			c.Next()
			return
		}

		done := make(chan struct{})
		utils.GlobalWorkerPool.Submit(func() {
			defer close(done)
			c.Next()
		})
		<-done
	}
}
