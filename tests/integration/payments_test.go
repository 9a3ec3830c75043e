package integration

import (
	"context"
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/kinhtot/marketplace/internal/api"
	"github.com/kinhtot/marketplace/internal/config"
	"github.com/kinhtot/marketplace/internal/database"
	"github.com/kinhtot/marketplace/internal/models"
	"github.com/kinhtot/marketplace/internal/store"
)

const testHashSecret = "testsecret"

func testConfig() *config.Config {
	return &config.Config{
		Server: config.ServerConfig{Port: "0"},
		Auth: config.AuthConfig{
			JWTSecret: "test-jwt-secret",
			TokenTTL:  time.Hour,
		},
		VNPay: config.VNPayConfig{
			TmnCode:           "TESTCODE",
			HashSecret:        testHashSecret,
			PaymentURL:        "https://sandbox.vnpayment.vn/paymentv2/vpcpay.html",
			ReturnURL:         "http://localhost:8080/api/payment/vnpay/return",
			FrontendResultURL: "http://localhost:5173/payment/result",
			ExpireAfter:       15 * time.Minute,
		},
	}
}

func signIPNQuery(params url.Values) string {
	mac := hmac.New(sha512.New, []byte(testHashSecret))
	mac.Write([]byte(params.Encode()))
	return hex.EncodeToString(mac.Sum(nil))
}

func ipnURL(orderNumber string, amount decimal.Decimal, responseCode string) string {
	params := url.Values{}
	params.Set("vnp_TmnCode", "TESTCODE")
	params.Set("vnp_Amount", amount.Mul(decimal.NewFromInt(100)).String())
	params.Set("vnp_TxnRef", orderNumber)
	params.Set("vnp_TransactionNo", "14226112")
	params.Set("vnp_ResponseCode", responseCode)
	params.Set("vnp_TransactionStatus", responseCode)

	signed := params.Encode() + "&vnp_SecureHash=" + signIPNQuery(params)
	return "/api/payment/vnpay/ipn?" + signed
}

func callIPN(t *testing.T, router *gin.Engine, target string) (string, string) {
	t.Helper()

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("IPN should always answer 200, got %d", rec.Code)
	}

	var body struct {
		RspCode string `json:"RspCode"`
		Message string `json:"Message"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("Decode IPN body: %v", err)
	}
	return body.RspCode, body.Message
}

func TestVNPayIPNFlow(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	gin.SetMode(gin.TestMode)
	router := api.NewServer(db, testConfig()).Router()

	ctx := context.Background()

	buyer := createTestUser(t, db, "buyer@example.com", models.RoleBuyer)
	seller := createTestUser(t, db, "seller@example.com", models.RoleSeller)
	product := createTestProduct(t, db, seller.ID, "Gong Kinh Online", 100000, nil, 5)

	order, err := store.CreateOrder(ctx, db, store.CreateOrderRequest{
		BuyerID:         buyer.ID,
		Items:           []store.OrderItemRequest{{ProductID: product.ID, Quantity: 1}},
		ShippingAddress: "123 Le Loi, Q1, HCM",
		Phone:           "0901234567",
	})
	if err != nil {
		t.Fatalf("Create order: %v", err)
	}

	// Tampered signature never touches the order.
	if code, _ := callIPN(t, router, ipnURL(order.OrderNumber, order.TotalAmount, "00")+"x"); code != "97" {
		t.Errorf("Expected RspCode 97 for bad signature, got %s", code)
	}

	// Wrong amount is rejected and the order stays pending.
	wrongAmount := order.TotalAmount.Add(decimal.NewFromInt(5000))
	if code, _ := callIPN(t, router, ipnURL(order.OrderNumber, wrongAmount, "00")); code != "04" {
		t.Errorf("Expected RspCode 04 for amount mismatch, got %s", code)
	}

	// Unknown order reference.
	if code, _ := callIPN(t, router, ipnURL("ORD-does-not-exist", order.TotalAmount, "00")); code != "01" {
		t.Errorf("Expected RspCode 01 for unknown order, got %s", code)
	}

	midway, err := store.GetOrder(ctx, db, order.ID)
	if err != nil {
		t.Fatalf("Get order: %v", err)
	}
	if midway.Status != models.OrderStatusPending {
		t.Fatalf("Order should still be PENDING, got %s", midway.Status)
	}

	// A valid notification confirms the order.
	if code, _ := callIPN(t, router, ipnURL(order.OrderNumber, order.TotalAmount, "00")); code != "00" {
		t.Errorf("Expected RspCode 00 for valid notification, got %s", code)
	}

	confirmed, err := store.GetOrder(ctx, db, order.ID)
	if err != nil {
		t.Fatalf("Get order: %v", err)
	}
	if confirmed.Status != models.OrderStatusConfirmed {
		t.Errorf("Expected status CONFIRMED, got %s", confirmed.Status)
	}
	if confirmed.VNPTransactionNo != "14226112" {
		t.Errorf("Expected stored transaction no, got %q", confirmed.VNPTransactionNo)
	}

	// The gateway retries; the replay is acknowledged but changes nothing.
	if code, _ := callIPN(t, router, ipnURL(order.OrderNumber, order.TotalAmount, "00")); code != "02" {
		t.Errorf("Expected RspCode 02 for replayed notification, got %s", code)
	}
}

func TestConfirmPaymentIdempotent(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()

	buyer := createTestUser(t, db, "buyer@example.com", models.RoleBuyer)
	seller := createTestUser(t, db, "seller@example.com", models.RoleSeller)
	product := createTestProduct(t, db, seller.ID, "Gong Kinh Tra Sau", 100000, nil, 5)

	order, err := store.CreateOrder(ctx, db, store.CreateOrderRequest{
		BuyerID:         buyer.ID,
		Items:           []store.OrderItemRequest{{ProductID: product.ID, Quantity: 1}},
		ShippingAddress: "123 Le Loi, Q1, HCM",
		Phone:           "0901234567",
	})
	if err != nil {
		t.Fatalf("Create order: %v", err)
	}

	if err := store.ConfirmPayment(ctx, db, order.OrderNumber, "123456"); err != nil {
		t.Fatalf("Confirm payment: %v", err)
	}

	err = store.ConfirmPayment(ctx, db, order.OrderNumber, "654321")
	if !errors.Is(err, database.ErrOrderNotPending) {
		t.Errorf("Expected order not pending on second confirm, got: %v", err)
	}

	confirmed, err := store.GetOrder(ctx, db, order.ID)
	if err != nil {
		t.Fatalf("Get order: %v", err)
	}
	if confirmed.VNPTransactionNo != "123456" {
		t.Errorf("First transaction number must win, got %q", confirmed.VNPTransactionNo)
	}
}
