// Package vnpay is a thin client for the VNPAY hosted-payment gateway:
// it builds signed redirect URLs to the payment page and verifies the
// HMAC-SHA512 query signature on the browser-return and IPN callbacks.
package vnpay

import (
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"net/url"
	"strings"
	"time"
	"unicode"

	"github.com/shopspring/decimal"
	"golang.org/x/text/unicode/norm"

	"github.com/kinhtot/marketplace/internal/config"
)

const (
	version      = "2.1.0"
	commandPay   = "pay"
	currencyVND  = "VND"
	localeVN     = "vn"
	orderTypeAny = "other"

	// Response codes shared by the return and IPN callbacks.
	ResponseCodeSuccess = "00"

	dateLayout = "20060102150405"
)

// GMT+7 regardless of server timezone; the gateway validates
// vnp_CreateDate/vnp_ExpireDate against Vietnam local time.
var gmt7 = time.FixedZone("GMT+7", 7*60*60)

type Client struct {
	cfg config.VNPayConfig
	now func() time.Time
}

func NewClient(cfg config.VNPayConfig) *Client {
	return &Client{cfg: cfg, now: time.Now}
}

// PaymentRequest describes one order to collect payment for. Amount is
// in VND; the wire format multiplies by 100 per the gateway contract.
type PaymentRequest struct {
	TxnRef    string
	Amount    decimal.Decimal
	OrderInfo string
	ClientIP  string
}

// BuildPaymentURL returns the full redirect URL to the hosted payment
// page, signed with the merchant secret.
func (c *Client) BuildPaymentURL(req PaymentRequest) string {
	now := c.now().In(gmt7)

	orderInfo := SanitizeOrderInfo(req.OrderInfo)
	if orderInfo == "" {
		orderInfo = "Thanh toan don hang " + req.TxnRef
	}
	clientIP := req.ClientIP
	if clientIP == "" {
		clientIP = "127.0.0.1"
	}

	params := url.Values{}
	params.Set("vnp_Version", version)
	params.Set("vnp_Command", commandPay)
	params.Set("vnp_TmnCode", c.cfg.TmnCode)
	params.Set("vnp_Amount", req.Amount.Mul(decimal.NewFromInt(100)).Round(0).String())
	params.Set("vnp_CurrCode", currencyVND)
	params.Set("vnp_TxnRef", req.TxnRef)
	params.Set("vnp_OrderInfo", orderInfo)
	params.Set("vnp_OrderType", orderTypeAny)
	params.Set("vnp_Locale", localeVN)
	params.Set("vnp_ReturnUrl", c.cfg.ReturnURL)
	params.Set("vnp_IpAddr", clientIP)
	params.Set("vnp_CreateDate", now.Format(dateLayout))
	params.Set("vnp_ExpireDate", now.Add(c.cfg.ExpireAfter).Format(dateLayout))

	query := params.Encode()
	return c.cfg.PaymentURL + "?" + query + "&vnp_SecureHash=" + c.sign(query)
}

// Verification is the decoded result of a signed callback. IsVerified
// alone means the signature matched; IsSuccess additionally requires
// the gateway's success response code.
type Verification struct {
	IsVerified    bool
	IsSuccess     bool
	TxnRef        string
	Amount        decimal.Decimal
	TransactionNo string
	ResponseCode  string
}

// Verify checks the signature over the callback query parameters and
// extracts the fields the reconciliation flow needs. The same scheme
// covers the browser-return redirect and the server-to-server IPN.
func (c *Client) Verify(query url.Values) Verification {
	v := Verification{
		TxnRef:        query.Get("vnp_TxnRef"),
		TransactionNo: query.Get("vnp_TransactionNo"),
		ResponseCode:  query.Get("vnp_ResponseCode"),
	}

	received := query.Get("vnp_SecureHash")
	if received == "" {
		return v
	}

	signable := url.Values{}
	for key, values := range query {
		if key == "vnp_SecureHash" || key == "vnp_SecureHashType" {
			continue
		}
		if !strings.HasPrefix(key, "vnp_") || len(values) == 0 {
			continue
		}
		signable.Set(key, values[0])
	}

	expected := c.sign(signable.Encode())
	if !hmac.Equal([]byte(strings.ToLower(received)), []byte(expected)) {
		return v
	}
	v.IsVerified = true

	// The gateway reports amounts multiplied by 100.
	if raw := query.Get("vnp_Amount"); raw != "" {
		if amount, err := decimal.NewFromString(raw); err == nil {
			v.Amount = amount.Div(decimal.NewFromInt(100))
		}
	}

	status := query.Get("vnp_TransactionStatus")
	v.IsSuccess = v.ResponseCode == ResponseCodeSuccess &&
		(status == "" || status == ResponseCodeSuccess)

	return v
}

func (c *Client) sign(data string) string {
	mac := hmac.New(sha512.New, []byte(c.cfg.HashSecret))
	mac.Write([]byte(data))
	return hex.EncodeToString(mac.Sum(nil))
}

// SanitizeOrderInfo strips diacritics and special characters from the
// order description; the gateway only accepts plain ASCII text.
func SanitizeOrderInfo(s string) string {
	var b strings.Builder
	for _, r := range norm.NFD.String(s) {
		switch {
		case unicode.Is(unicode.Mn, r):
			// combining mark from decomposition, drop
		case r == 'đ':
			b.WriteRune('d')
		case r == 'Đ':
			b.WriteRune('D')
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			b.WriteRune(r)
		default:
			b.WriteRune(' ')
		}
	}

	out := strings.Join(strings.Fields(b.String()), " ")
	if len(out) > 255 {
		out = strings.TrimSpace(out[:255])
	}
	return out
}
