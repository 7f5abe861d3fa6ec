package purchase

import "github.com/gin-gonic/gin"

type IHandler interface {
	Start(c *gin.Context)
	List(c *gin.Context)
	Get(c *gin.Context)
	Confirm(c *gin.Context)
	Cancel(c *gin.Context)
	Retry(c *gin.Context)
	StopMonitoring(c *gin.Context)
}
