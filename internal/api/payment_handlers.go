package api

import (
	"errors"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/kinhtot/marketplace/internal/database"
	"github.com/kinhtot/marketplace/internal/models"
	"github.com/kinhtot/marketplace/internal/store"
	"github.com/kinhtot/marketplace/internal/vnpay"
)

// handleCreatePaymentURL builds the gateway redirect for a pending
// order. Only the owning buyer may request it.
func (s *Server) handleCreatePaymentURL(c *gin.Context) {
	user := currentUser(c)

	id, ok := s.orderIDParam(c)
	if !ok {
		return
	}

	order, err := store.GetOrder(c.Request.Context(), s.db, id)
	if err != nil {
		respondError(c, err)
		return
	}
	if order.BuyerID != user.ID {
		respondError(c, database.ErrForbidden)
		return
	}
	if order.Status != models.OrderStatusPending {
		respondError(c, database.ErrOrderNotPending)
		return
	}

	paymentURL := s.vnp.BuildPaymentURL(vnpay.PaymentRequest{
		TxnRef:    order.OrderNumber,
		Amount:    order.TotalAmount,
		OrderInfo: "Thanh toan don hang " + order.OrderNumber,
		ClientIP:  c.ClientIP(),
	})

	respondOK(c, "ok", gin.H{"paymentUrl": paymentURL})
}

// handleVNPayReturn is the browser-redirect leg. It verifies the
// signature and forwards the human to the frontend result page. It
// deliberately never mutates order state: the attacker-observable
// return URL must not be what marks an order paid; only the IPN does.
func (s *Server) handleVNPayReturn(c *gin.Context) {
	verify := s.vnp.Verify(c.Request.URL.Query())

	switch {
	case !verify.IsVerified:
		s.redirectResult(c, "fail", "", "Xac thuc chu ky that bai")
	case verify.IsSuccess:
		s.redirectResult(c, "success", verify.TxnRef, "")
	default:
		s.redirectResult(c, "fail", verify.TxnRef, "Thanh toan that bai")
	}
}

func (s *Server) redirectResult(c *gin.Context, status, orderID, message string) {
	target, err := url.Parse(s.cfg.VNPay.FrontendResultURL)
	if err != nil {
		respondError(c, err)
		return
	}

	q := target.Query()
	q.Set("status", status)
	if orderID != "" {
		q.Set("orderId", orderID)
	}
	if message != "" {
		q.Set("message", message)
	}
	target.RawQuery = q.Encode()

	c.Redirect(http.StatusFound, target.String())
}

// handleVNPayIPN is the server-to-server notification. The gateway
// only understands its fixed acknowledgement vocabulary, so every
// outcome, including a panic, must map onto one of those bodies; a raw
// 500 would make the gateway retry indefinitely.
func (s *Server) handleVNPayIPN(c *gin.Context) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("IPN handler panic", "panic", r)
			c.JSON(http.StatusOK, vnpay.IPNUnknownError)
		}
	}()

	c.JSON(http.StatusOK, s.processIPN(c))
}

func (s *Server) processIPN(c *gin.Context) vnpay.IPNResponse {
	verify := s.vnp.Verify(c.Request.URL.Query())
	if !verify.IsVerified {
		return vnpay.IPNFailChecksum
	}
	if !verify.IsSuccess {
		return vnpay.IPNUnknownError
	}
	if verify.TxnRef == "" {
		return vnpay.IPNOrderNotFound
	}

	ctx := c.Request.Context()
	order, err := store.GetOrderByNumber(ctx, s.db, verify.TxnRef)
	if err != nil {
		if errors.Is(err, database.ErrOrderNotFound) {
			return vnpay.IPNOrderNotFound
		}
		slog.Error("IPN order lookup failed", "txnRef", verify.TxnRef, "error", err)
		return vnpay.IPNUnknownError
	}

	// Duplicate delivery of a notification already applied.
	if order.Status != models.OrderStatusPending {
		return vnpay.IPNOrderAlreadyConfirmed
	}

	// One VND of slack absorbs gateway rounding.
	if verify.Amount.Sub(order.TotalAmount).Abs().GreaterThan(decimal.NewFromInt(1)) {
		return vnpay.IPNInvalidAmount
	}

	err = store.ConfirmPayment(ctx, s.db, order.OrderNumber, verify.TransactionNo)
	if err != nil {
		// Lost the race with a concurrent delivery of the same
		// notification; it already confirmed the order.
		if errors.Is(err, database.ErrOrderNotPending) {
			return vnpay.IPNOrderAlreadyConfirmed
		}
		slog.Error("IPN confirm failed", "txnRef", verify.TxnRef, "error", err)
		return vnpay.IPNUnknownError
	}

	return vnpay.IPNSuccess
}
