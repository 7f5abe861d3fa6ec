package swap

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/dwarvesf/btc-strk-purchase/internal/gateway"
	"github.com/dwarvesf/btc-strk-purchase/internal/utils/logger"
	"github.com/dwarvesf/btc-strk-purchase/internal/view"
)

type handler struct {
	gateway gateway.IGateway
	logger  *logger.Logger
}

func New(gw gateway.IGateway, logger *logger.Logger) IHandler {
	return &handler{
		gateway: gw,
		logger:  logger,
	}
}

// Limits godoc
// @Summary Swap limits
// @Description Returns the BTC input and STRK output bounds of the swap network
// @id getSwapLimits
// @Tags Swap
// @Produce json
// @Success 200 {object} view.Response[model.SwapLimits]
// @Failure 502 {object} view.ErrorResponse
// @Router /swap/limits [get]
func (h *handler) Limits(c *gin.Context) {
	limits, err := h.gateway.GetSwapLimits(c.Request.Context())
	if err != nil {
		h.logger.Error("[Limits][GetSwapLimits]", map[string]string{
			"error": err.Error(),
		})
		status := http.StatusBadGateway
		if gateway.IsRejection(err) {
			status = http.StatusServiceUnavailable
		}
		c.JSON(status, view.CreateResponse[any](nil, err, nil, "can't get swap limits"))
		return
	}

	c.JSON(http.StatusOK, view.CreateResponse[any](limits, nil, nil, ""))
}
