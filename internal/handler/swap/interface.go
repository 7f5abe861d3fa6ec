package swap

import "github.com/gin-gonic/gin"

type IHandler interface {
	Limits(c *gin.Context)
}
