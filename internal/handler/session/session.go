package session

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"

	"github.com/dwarvesf/btc-strk-purchase/internal/consts"
	"github.com/dwarvesf/btc-strk-purchase/internal/model"
	"github.com/dwarvesf/btc-strk-purchase/internal/monitoring"
	"github.com/dwarvesf/btc-strk-purchase/internal/session"
	"github.com/dwarvesf/btc-strk-purchase/internal/utils/logger"
	"github.com/dwarvesf/btc-strk-purchase/internal/view"
	"github.com/dwarvesf/btc-strk-purchase/internal/wallet"
)

// ConnectRequest is the wallet's answer to a connect prompt. A cancelled
// prompt carries no account.
type ConnectRequest struct {
	Bitcoin   *model.BitcoinAccount  `json:"bitcoin"`
	Starknet  *model.StarknetAccount `json:"starknet"`
	Cancelled bool                   `json:"cancelled"`
}

type TouchRequest struct {
	Kind string `json:"kind" binding:"required"`
}

type handler struct {
	manager  session.IManager
	logger   *logger.Logger
	recorder *monitoring.BusinessMetricsRecorder
}

func New(manager session.IManager, logger *logger.Logger, recorder *monitoring.BusinessMetricsRecorder) IHandler {
	return &handler{
		manager:  manager,
		logger:   logger,
		recorder: recorder,
	}
}

func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, session.ErrSessionExpired):
		return http.StatusUnauthorized, session.ErrSessionExpired.Error()
	case errors.Is(err, session.ErrSessionNotFound):
		return http.StatusNotFound, "wallet not connected"
	case errors.Is(err, wallet.ErrConnectionCancelled):
		return http.StatusBadRequest, "wallet connection cancelled"
	case errors.Is(err, session.ErrInvalidAccount),
		errors.Is(err, session.ErrUnknownChain),
		errors.Is(err, session.ErrUnknownActivity):
		return http.StatusBadRequest, "invalid request"
	}
	return http.StatusInternalServerError, "internal error"
}

func (h *handler) chain(c *gin.Context) (model.Chain, bool) {
	chain := model.Chain(c.Param("chain"))
	if !chain.IsValid() {
		c.JSON(http.StatusBadRequest, view.CreateResponse[any](nil, session.ErrUnknownChain, c.Param("chain"), "invalid request"))
		return "", false
	}
	return chain, true
}

func (h *handler) fail(c *gin.Context, chain model.Chain, operation string, err error, payload interface{}) {
	h.recorder.RecordSessionOperation(string(chain), operation, "error")
	status, message := statusFor(err)
	if status == http.StatusInternalServerError {
		h.logger.Error("[session]["+operation+"]", map[string]string{
			"error": err.Error(),
			"chain": string(chain),
		})
	}
	c.JSON(status, view.CreateResponse[any](nil, err, payload, message))
}

// Connect godoc
// @Summary Connect a wallet
// @Description Stores the account returned by the wallet prompt for one chain
// @id connectWallet
// @Tags Session
// @Accept json
// @Produce json
// @Param X-Profile-ID header string true "Buyer profile"
// @Param chain path string true "bitcoin or starknet"
// @Param request body ConnectRequest true "Wallet answer"
// @Success 200 {object} view.Response[session.View]
// @Failure 400 {object} view.ErrorResponse
// @Router /sessions/{chain} [post]
func (h *handler) Connect(c *gin.Context) {
	chain, ok := h.chain(c)
	if !ok {
		return
	}

	var req ConnectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, view.CreateResponse[any](nil, err, nil, "invalid request"))
		return
	}

	v, err := h.manager.Connect(c.Request.Context(), c.GetString(consts.ProfileIDKey), chain, session.ConnectRequest{
		Bitcoin:   req.Bitcoin,
		Starknet:  req.Starknet,
		Cancelled: req.Cancelled,
	})
	if err != nil {
		h.fail(c, chain, "connect", err, req)
		return
	}

	h.recorder.RecordSessionOperation(string(chain), "connect", "success")
	c.JSON(http.StatusOK, view.CreateResponse[any](v, nil, nil, ""))
}

// Load godoc
// @Summary Load a wallet session
// @Description Returns the live session of one chain. An expired session answers 401.
// @id loadWalletSession
// @Tags Session
// @Produce json
// @Param X-Profile-ID header string true "Buyer profile"
// @Param chain path string true "bitcoin or starknet"
// @Success 200 {object} view.Response[session.View]
// @Failure 401 {object} view.ErrorResponse
// @Failure 404 {object} view.ErrorResponse
// @Router /sessions/{chain} [get]
func (h *handler) Load(c *gin.Context) {
	chain, ok := h.chain(c)
	if !ok {
		return
	}

	v, err := h.manager.Load(c.Request.Context(), c.GetString(consts.ProfileIDKey), chain)
	if err != nil {
		h.fail(c, chain, "load", err, nil)
		return
	}

	c.JSON(http.StatusOK, view.CreateResponse[any](v, nil, nil, ""))
}

// Touch godoc
// @Summary Report activity
// @Description Refreshes the idle timer of a session
// @id touchWalletSession
// @Tags Session
// @Accept json
// @Produce json
// @Param X-Profile-ID header string true "Buyer profile"
// @Param chain path string true "bitcoin or starknet"
// @Param request body TouchRequest true "Activity kind"
// @Success 200 {object} view.Response[session.View]
// @Failure 401 {object} view.ErrorResponse
// @Router /sessions/{chain}/activity [post]
func (h *handler) Touch(c *gin.Context) {
	chain, ok := h.chain(c)
	if !ok {
		return
	}

	var req TouchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, view.CreateResponse[any](nil, err, nil, "invalid request"))
		return
	}

	v, err := h.manager.Touch(c.Request.Context(), c.GetString(consts.ProfileIDKey), chain, session.ActivityKind(req.Kind))
	if err != nil {
		h.fail(c, chain, "touch", err, req)
		return
	}

	c.JSON(http.StatusOK, view.CreateResponse[any](v, nil, nil, ""))
}

// Disconnect godoc
// @Summary Disconnect a wallet
// @id disconnectWallet
// @Tags Session
// @Produce json
// @Param X-Profile-ID header string true "Buyer profile"
// @Param chain path string true "bitcoin or starknet"
// @Success 200 {object} view.MessageResponse
// @Router /sessions/{chain} [delete]
func (h *handler) Disconnect(c *gin.Context) {
	chain, ok := h.chain(c)
	if !ok {
		return
	}

	if err := h.manager.Disconnect(c.Request.Context(), c.GetString(consts.ProfileIDKey), chain); err != nil {
		h.fail(c, chain, "disconnect", err, nil)
		return
	}

	h.recorder.RecordSessionOperation(string(chain), "disconnect", "success")
	c.JSON(http.StatusOK, view.CreateResponse[any](view.MessageResponse{Message: "disconnected"}, nil, nil, ""))
}
