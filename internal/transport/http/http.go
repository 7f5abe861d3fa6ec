package http

import (
	"net/http"
	"strings"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"     // swagger embed files
	ginSwagger "github.com/swaggo/gin-swagger" // gin-swagger middleware

	"github.com/dwarvesf/btc-strk-purchase/internal/consts"
	"github.com/dwarvesf/btc-strk-purchase/internal/handler"
	"github.com/dwarvesf/btc-strk-purchase/internal/monitoring"
	"github.com/dwarvesf/btc-strk-purchase/internal/utils/config"
	"github.com/dwarvesf/btc-strk-purchase/internal/utils/logger"
	"github.com/dwarvesf/btc-strk-purchase/internal/view"
)

func setupCORS(r *gin.Engine, cfg *config.AppConfig) {
	corsOrigins := strings.Split(cfg.ApiServer.AllowedOrigins, ";")
	r.Use(func(c *gin.Context) {
		cors.New(
			cors.Config{
				AllowOrigins: corsOrigins,
				AllowMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS", "HEAD"},
				AllowHeaders: []string{
					"Origin", "Host", "Content-Type", "Content-Length", "Accept-Encoding", "Accept-Language", "Accept",
					"X-CSRF-Token", "Authorization", "X-Requested-With", "X-Access-Token", consts.ProfileIDHeader,
				},
				AllowCredentials: true,
			},
		)(c)
	})
}

// requireProfile ties every request to the buyer profile named in the
// X-Profile-ID header.
func requireProfile(logger *logger.Logger) gin.HandlerFunc {
	validate := validator.New()
	return func(c *gin.Context) {
		profileID := strings.TrimSpace(c.GetHeader(consts.ProfileIDHeader))
		if err := validate.Var(profileID, "required,max=128,printascii"); err != nil {
			logger.Debug("[requireProfile][Var]", map[string]string{
				"error": err.Error(),
			})
			c.AbortWithStatusJSON(http.StatusBadRequest, view.CreateResponse[any](nil, err, nil, "missing or invalid "+consts.ProfileIDHeader+" header"))
			return
		}
		c.Set(consts.ProfileIDKey, profileID)
		c.Next()
	}
}

func NewHttpServer(appConfig *config.AppConfig, logger *logger.Logger, h *handler.Handler, httpMetrics *monitoring.HTTPMetrics) *gin.Engine {
	r := gin.New()
	r.Use(
		gin.LoggerWithWriter(gin.DefaultWriter, "/healthz", "/metrics"),
		gin.Recovery(),
	)
	setupCORS(r, appConfig)
	if httpMetrics != nil {
		r.Use(monitoring.HTTPMetricsMiddleware(httpMetrics))
	}

	if appConfig.ApiServer.EnableSwagger {
		// use ginSwagger middleware to serve the API docs
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	// load api
	loadV1Routes(r, h, appConfig, logger)

	return r
}
