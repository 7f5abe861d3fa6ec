package purchase

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	"github.com/dwarvesf/btc-strk-purchase/internal/consts"
	"github.com/dwarvesf/btc-strk-purchase/internal/monitoring"
	"github.com/dwarvesf/btc-strk-purchase/internal/purchase"
	"github.com/dwarvesf/btc-strk-purchase/internal/utils/logger"
	"github.com/dwarvesf/btc-strk-purchase/internal/view"
)

type StartPurchaseRequest struct {
	AssetID       string `json:"asset_id" binding:"required"`
	SellerAddress string `json:"seller_address" binding:"required"`
	PriceSats     int64  `json:"price_sats" binding:"required"`
}

type handler struct {
	service  purchase.IService
	logger   *logger.Logger
	recorder *monitoring.BusinessMetricsRecorder
	validate *validator.Validate
}

func New(service purchase.IService, logger *logger.Logger, recorder *monitoring.BusinessMetricsRecorder) IHandler {
	return &handler{
		service:  service,
		logger:   logger,
		recorder: recorder,
		validate: validator.New(),
	}
}

// StatusFor maps purchase errors onto HTTP status codes.
func StatusFor(err error) int {
	switch {
	case errors.Is(err, purchase.ErrPurchaseNotFound):
		return http.StatusNotFound
	case errors.Is(err, purchase.ErrInvalidTransition), errors.Is(err, purchase.ErrNotMonitoring):
		return http.StatusConflict
	case errors.Is(err, purchase.ErrInvalidRequest):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

func messageFor(status int) string {
	switch status {
	case http.StatusNotFound:
		return "purchase not found"
	case http.StatusConflict:
		return "action not allowed in the current step"
	case http.StatusBadRequest:
		return "invalid request"
	}
	return "internal error"
}

// Start godoc
// @Summary Start a purchase
// @Description Creates a purchase flow and fetches the first quote
// @id startPurchase
// @Tags Purchase
// @Accept json
// @Produce json
// @Param X-Profile-ID header string true "Buyer profile"
// @Param request body StartPurchaseRequest true "Listing to buy"
// @Success 201 {object} view.Response[purchase.Purchase]
// @Failure 400 {object} view.ErrorResponse
// @Router /purchases [post]
func (h *handler) Start(c *gin.Context) {
	var req StartPurchaseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Error("[Start][ShouldBindJSON]", map[string]string{
			"error": err.Error(),
		})
		c.JSON(http.StatusBadRequest, view.CreateResponse[any](nil, err, req, "invalid request"))
		return
	}

	start := time.Now()
	p, err := h.service.Start(c.Request.Context(), purchase.StartRequest{
		ProfileID:     c.GetString(consts.ProfileIDKey),
		AssetID:       req.AssetID,
		SellerAddress: req.SellerAddress,
		PriceSats:     req.PriceSats,
	})
	if err != nil {
		h.recorder.RecordPurchaseOperation("start", "error", time.Since(start).Seconds())
		h.logger.Error("[Start][service.Start]", map[string]string{
			"error": err.Error(),
		})
		status := StatusFor(err)
		c.JSON(status, view.CreateResponse[any](nil, err, req, messageFor(status)))
		return
	}

	h.recorder.RecordPurchaseOperation("start", string(p.Step), time.Since(start).Seconds())
	c.JSON(http.StatusCreated, view.CreateResponse[any](p, nil, nil, ""))
}

// List godoc
// @Summary List purchases
// @Description Lists the buyer's purchases, newest first
// @id listPurchases
// @Tags Purchase
// @Produce json
// @Param X-Profile-ID header string true "Buyer profile"
// @Success 200 {object} view.Response[[]purchase.Purchase]
// @Router /purchases [get]
func (h *handler) List(c *gin.Context) {
	list, err := h.service.List(c.Request.Context(), c.GetString(consts.ProfileIDKey))
	if err != nil {
		h.logger.Error("[List][service.List]", map[string]string{
			"error": err.Error(),
		})
		c.JSON(http.StatusInternalServerError, view.CreateResponse[any](nil, err, nil, "can't list purchases"))
		return
	}

	c.JSON(http.StatusOK, view.CreateResponse[any](list, nil, nil, ""))
}

// Get godoc
// @Summary Get a purchase
// @Description Returns the current step, progress message and failure of a purchase
// @id getPurchase
// @Tags Purchase
// @Produce json
// @Param X-Profile-ID header string true "Buyer profile"
// @Param id path string true "Purchase ID"
// @Success 200 {object} view.Response[purchase.Purchase]
// @Failure 404 {object} view.ErrorResponse
// @Router /purchases/{id} [get]
func (h *handler) Get(c *gin.Context) {
	p, ok := h.owned(c)
	if !ok {
		return
	}

	c.JSON(http.StatusOK, view.CreateResponse[any](p, nil, nil, ""))
}

// Confirm godoc
// @Summary Confirm a purchase
// @Description Accepts the quote and starts the swap
// @id confirmPurchase
// @Tags Purchase
// @Produce json
// @Param X-Profile-ID header string true "Buyer profile"
// @Param id path string true "Purchase ID"
// @Success 200 {object} view.Response[purchase.Purchase]
// @Failure 404 {object} view.ErrorResponse
// @Failure 409 {object} view.ErrorResponse
// @Router /purchases/{id}/confirm [post]
func (h *handler) Confirm(c *gin.Context) {
	h.act(c, "confirm", h.service.Confirm)
}

// Cancel godoc
// @Summary Cancel a purchase
// @Description Cancels before broadcast, dismisses after
// @id cancelPurchase
// @Tags Purchase
// @Produce json
// @Param X-Profile-ID header string true "Buyer profile"
// @Param id path string true "Purchase ID"
// @Success 200 {object} view.Response[purchase.Purchase]
// @Failure 409 {object} view.ErrorResponse
// @Router /purchases/{id}/cancel [post]
func (h *handler) Cancel(c *gin.Context) {
	h.act(c, "cancel", h.service.Cancel)
}

// Retry godoc
// @Summary Retry a failed purchase
// @Description Restarts a purchase in the error step from a fresh quote
// @id retryPurchase
// @Tags Purchase
// @Produce json
// @Param X-Profile-ID header string true "Buyer profile"
// @Param id path string true "Purchase ID"
// @Success 200 {object} view.Response[purchase.Purchase]
// @Failure 409 {object} view.ErrorResponse
// @Router /purchases/{id}/retry [post]
func (h *handler) Retry(c *gin.Context) {
	h.act(c, "retry", h.service.Retry)
}

// StopMonitoring godoc
// @Summary Stop background monitoring
// @Description Stops polling a swap that outlived the completion wait
// @id stopPurchaseMonitoring
// @Tags Purchase
// @Produce json
// @Param X-Profile-ID header string true "Buyer profile"
// @Param id path string true "Purchase ID"
// @Success 200 {object} view.Response[purchase.Purchase]
// @Failure 409 {object} view.ErrorResponse
// @Router /purchases/{id}/monitoring/stop [post]
func (h *handler) StopMonitoring(c *gin.Context) {
	h.act(c, "stop_monitoring", h.service.StopMonitoring)
}

func (h *handler) act(c *gin.Context, operation string, fn func(ctx context.Context, id string) (*purchase.Purchase, error)) {
	if _, ok := h.owned(c); !ok {
		return
	}

	start := time.Now()
	p, err := fn(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.recorder.RecordPurchaseOperation(operation, "error", time.Since(start).Seconds())
		h.logger.Error("[act][service."+operation+"]", map[string]string{
			"error":      err.Error(),
			"purchaseID": c.Param("id"),
		})
		status := StatusFor(err)
		c.JSON(status, view.CreateResponse[any](nil, err, nil, messageFor(status)))
		return
	}

	h.recorder.RecordPurchaseOperation(operation, string(p.Step), time.Since(start).Seconds())
	c.JSON(http.StatusOK, view.CreateResponse[any](p, nil, nil, ""))
}

// owned loads the purchase and hides it from other profiles.
func (h *handler) owned(c *gin.Context) (*purchase.Purchase, bool) {
	id := c.Param("id")
	if err := h.validate.Var(id, "required,max=64"); err != nil {
		c.JSON(http.StatusBadRequest, view.CreateResponse[any](nil, err, id, "invalid purchase id"))
		return nil, false
	}

	p, err := h.service.Get(c.Request.Context(), id)
	if err == nil && p.ProfileID != c.GetString(consts.ProfileIDKey) {
		err = purchase.ErrPurchaseNotFound
	}
	if err != nil {
		status := StatusFor(err)
		c.JSON(status, view.CreateResponse[any](nil, err, nil, messageFor(status)))
		return nil, false
	}

	return p, true
}
