package vnpay

// IPNResponse is one of the fixed acknowledgement bodies the gateway
// recognizes. The IPN handler must answer with exactly one of these;
// anything else makes the gateway retry or misclassify the payment.
type IPNResponse struct {
	RspCode string `json:"RspCode"`
	Message string `json:"Message"`
}

var (
	IPNSuccess               = IPNResponse{RspCode: "00", Message: "Confirm Success"}
	IPNOrderNotFound         = IPNResponse{RspCode: "01", Message: "Order not found"}
	IPNOrderAlreadyConfirmed = IPNResponse{RspCode: "02", Message: "Order already confirmed"}
	IPNInvalidAmount         = IPNResponse{RspCode: "04", Message: "Invalid amount"}
	IPNFailChecksum          = IPNResponse{RspCode: "97", Message: "Invalid Checksum"}
	IPNUnknownError          = IPNResponse{RspCode: "99", Message: "Unknown error"}
)
