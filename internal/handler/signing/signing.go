package signing

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"

	"github.com/dwarvesf/btc-strk-purchase/internal/consts"
	purchaseHandler "github.com/dwarvesf/btc-strk-purchase/internal/handler/purchase"
	"github.com/dwarvesf/btc-strk-purchase/internal/monitoring"
	"github.com/dwarvesf/btc-strk-purchase/internal/purchase"
	"github.com/dwarvesf/btc-strk-purchase/internal/utils/logger"
	"github.com/dwarvesf/btc-strk-purchase/internal/view"
	"github.com/dwarvesf/btc-strk-purchase/internal/wallet"
)

type SubmitSignatureRequest struct {
	SignedPsbt string `json:"signed_psbt" binding:"required,base64"`
}

type handler struct {
	broker   wallet.IBroker
	service  purchase.IService
	logger   *logger.Logger
	recorder *monitoring.BusinessMetricsRecorder
}

func New(broker wallet.IBroker, service purchase.IService, logger *logger.Logger, recorder *monitoring.BusinessMetricsRecorder) IHandler {
	return &handler{
		broker:   broker,
		service:  service,
		logger:   logger,
		recorder: recorder,
	}
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, wallet.ErrNoPendingRequest):
		return http.StatusNotFound
	case errors.Is(err, wallet.ErrInvalidSignature):
		return http.StatusBadRequest
	}
	return purchaseHandler.StatusFor(err)
}

// Pending godoc
// @Summary Pending signature
// @Description Returns the PSBT the buyer's wallet has to sign
// @id getPendingSignature
// @Tags Signing
// @Produce json
// @Param X-Profile-ID header string true "Buyer profile"
// @Param id path string true "Purchase ID"
// @Success 200 {object} view.Response[wallet.SignRequest]
// @Failure 404 {object} view.ErrorResponse
// @Router /purchases/{id}/signing [get]
func (h *handler) Pending(c *gin.Context) {
	if !h.owned(c) {
		return
	}

	req, ok := h.broker.Pending(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, view.CreateResponse[any](nil, wallet.ErrNoPendingRequest, nil, "no signature pending"))
		return
	}

	c.JSON(http.StatusOK, view.CreateResponse[any](req, nil, nil, ""))
}

// Submit godoc
// @Summary Submit a signed PSBT
// @Description Hands the wallet's signed PSBT back to the purchase flow
// @id submitSignature
// @Tags Signing
// @Accept json
// @Produce json
// @Param X-Profile-ID header string true "Buyer profile"
// @Param id path string true "Purchase ID"
// @Param request body SubmitSignatureRequest true "Signed PSBT, base64"
// @Success 200 {object} view.MessageResponse
// @Failure 400 {object} view.ErrorResponse
// @Failure 404 {object} view.ErrorResponse
// @Router /purchases/{id}/signing [post]
func (h *handler) Submit(c *gin.Context) {
	if !h.owned(c) {
		return
	}

	var req SubmitSignatureRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Error("[Submit][ShouldBindJSON]", map[string]string{
			"error": err.Error(),
		})
		c.JSON(http.StatusBadRequest, view.CreateResponse[any](nil, err, nil, "invalid request"))
		return
	}

	if err := h.broker.Finish(c.Param("id"), req.SignedPsbt); err != nil {
		h.recorder.RecordSigningOperation("finish", "error")
		status := statusFor(err)
		c.JSON(status, view.CreateResponse[any](nil, err, nil, "signature not accepted"))
		return
	}

	h.recorder.RecordSigningOperation("finish", "success")
	c.JSON(http.StatusOK, view.CreateResponse[any](view.MessageResponse{Message: "signature accepted"}, nil, nil, ""))
}

// Cancel godoc
// @Summary Cancel signing
// @Description Reports that the buyer dismissed the wallet prompt
// @id cancelSignature
// @Tags Signing
// @Produce json
// @Param X-Profile-ID header string true "Buyer profile"
// @Param id path string true "Purchase ID"
// @Success 200 {object} view.MessageResponse
// @Failure 404 {object} view.ErrorResponse
// @Router /purchases/{id}/signing/cancel [post]
func (h *handler) Cancel(c *gin.Context) {
	if !h.owned(c) {
		return
	}

	if err := h.broker.Cancel(c.Param("id")); err != nil {
		h.recorder.RecordSigningOperation("cancel", "error")
		c.JSON(statusFor(err), view.CreateResponse[any](nil, err, nil, "no signature pending"))
		return
	}

	h.recorder.RecordSigningOperation("cancel", "success")
	c.JSON(http.StatusOK, view.CreateResponse[any](view.MessageResponse{Message: "signing cancelled"}, nil, nil, ""))
}

func (h *handler) owned(c *gin.Context) bool {
	p, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err == nil && p.ProfileID != c.GetString(consts.ProfileIDKey) {
		err = purchase.ErrPurchaseNotFound
	}
	if err != nil {
		c.JSON(statusFor(err), view.CreateResponse[any](nil, err, nil, "purchase not found"))
		return false
	}
	return true
}
