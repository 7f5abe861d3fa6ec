package session

import "github.com/gin-gonic/gin"

type IHandler interface {
	Connect(c *gin.Context)
	Load(c *gin.Context)
	Touch(c *gin.Context)
	Disconnect(c *gin.Context)
}
