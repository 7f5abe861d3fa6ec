package signing

import "github.com/gin-gonic/gin"

// IHandler is the browser side of the signing broker.
type IHandler interface {
	Pending(c *gin.Context)
	Submit(c *gin.Context)
	Cancel(c *gin.Context)
}
