package models

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	RoleBuyer  = "BUYER"
	RoleSeller = "SELLER"
	RoleStaff  = "STAFF"
	RoleAdmin  = "ADMIN"
)

const (
	KYCStatusPending  = "PENDING"
	KYCStatusApproved = "APPROVED"
	KYCStatusRejected = "REJECTED"
)

const (
	OrderStatusPending   = "PENDING"
	OrderStatusConfirmed = "CONFIRMED"
	OrderStatusShipping  = "SHIPPING"
	OrderStatusDelivered = "DELIVERED"
	OrderStatusCancelled = "CANCELLED"
)

const (
	ConditionNew  = "NEW"
	ConditionUsed = "USED"
)

const (
	FrameShapeRound     = "ROUND"
	FrameShapeOval      = "OVAL"
	FrameShapeSquare    = "SQUARE"
	FrameShapeRectangle = "RECTANGLE"
	FrameShapeCatEye    = "CAT_EYE"
	FrameShapeAviator   = "AVIATOR"
)

func ValidRole(role string) bool {
	switch role {
	case RoleBuyer, RoleSeller, RoleStaff, RoleAdmin:
		return true
	}
	return false
}

type User struct {
	ID            int64          `json:"id"`
	Email         string         `json:"email"`
	PasswordHash  string         `json:"-"`
	FullName      string         `json:"fullName"`
	Phone         string         `json:"phone,omitempty"`
	Avatar        string         `json:"avatar,omitempty"`
	Role          string         `json:"role"`
	CreatedAt     time.Time      `json:"createdAt"`
	UpdatedAt     time.Time      `json:"updatedAt"`
	Version       int            `json:"-"`
	SellerProfile *SellerProfile `json:"sellerProfile,omitempty"`
}

type SellerProfile struct {
	ID          int64      `json:"id"`
	UserID      int64      `json:"userId"`
	ShopName    string     `json:"shopName"`
	Description string     `json:"description,omitempty"`
	KYCDocument string     `json:"kycDocument,omitempty"`
	KYCStatus   string     `json:"kycStatus"`
	ApprovedAt  *time.Time `json:"approvedAt,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

type Category struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
	Slug string `json:"slug"`
}

type Product struct {
	ID            int64            `json:"id"`
	SellerID      int64            `json:"sellerId"`
	CategoryID    *int64           `json:"categoryId,omitempty"`
	Name          string           `json:"name"`
	Slug          string           `json:"slug"`
	Description   string           `json:"description,omitempty"`
	Price         decimal.Decimal  `json:"price"`
	SalePrice     *decimal.Decimal `json:"salePrice,omitempty"`
	Stock         int              `json:"stock"`
	Condition     string           `json:"condition"`
	FrameShape    string           `json:"frameShape,omitempty"`
	FrameMaterial string           `json:"frameMaterial,omitempty"`
	Images        []string         `json:"images,omitempty"`
	IsActive      bool             `json:"isActive"`
	CreatedAt     time.Time        `json:"createdAt"`
	UpdatedAt     time.Time        `json:"updatedAt"`
	Version       int              `json:"-"`
	Category      *Category        `json:"category,omitempty"`
	SellerName    string           `json:"sellerName,omitempty"`
}

// EffectivePrice is the unit price an order line snapshots: the sale
// price when one is set, the base price otherwise.
func (p *Product) EffectivePrice() decimal.Decimal {
	if p.SalePrice != nil {
		return *p.SalePrice
	}
	return p.Price
}

// ProductRef is the minimal projection embedded in order lines and
// stylist suggestions.
type ProductRef struct {
	ID     int64    `json:"id"`
	Name   string   `json:"name"`
	Slug   string   `json:"slug"`
	Images []string `json:"images,omitempty"`
}

type Order struct {
	ID               int64           `json:"id"`
	OrderNumber      string          `json:"orderNumber"`
	BuyerID          int64           `json:"buyerId"`
	Status           string          `json:"status"`
	TotalAmount      decimal.Decimal `json:"totalAmount"`
	ShippingAddress  string          `json:"shippingAddress"`
	Phone            string          `json:"phone"`
	Note             string          `json:"note,omitempty"`
	VNPTransactionNo string          `json:"vnpTransactionNo,omitempty"`
	CreatedAt        time.Time       `json:"createdAt"`
	UpdatedAt        time.Time       `json:"updatedAt"`
	Version          int             `json:"-"`
	Items            []OrderItem     `json:"items,omitempty"`
	Buyer            *BuyerRef       `json:"buyer,omitempty"`
}

type BuyerRef struct {
	ID       int64  `json:"id"`
	FullName string `json:"fullName"`
	Email    string `json:"email"`
	Phone    string `json:"phone,omitempty"`
}

type OrderItem struct {
	ID        int64           `json:"id"`
	OrderID   int64           `json:"orderId"`
	ProductID int64           `json:"productId"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"price"`
	Subtotal  decimal.Decimal `json:"subtotal"`
	CreatedAt time.Time       `json:"createdAt"`
	Product   *ProductRef     `json:"product,omitempty"`
}

type Review struct {
	ID        int64       `json:"id"`
	UserID    int64       `json:"userId"`
	ProductID int64       `json:"productId"`
	Rating    int         `json:"rating"`
	Comment   string      `json:"comment,omitempty"`
	CreatedAt time.Time   `json:"createdAt"`
	UserName  string      `json:"userName,omitempty"`
	Product   *ProductRef `json:"product,omitempty"`
}

type ChatSession struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"userId"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"createdAt"`
}

const (
	ChatRoleUser = "USER"
	ChatRoleAI   = "AI"
)

type ChatMessage struct {
	ID        int64     `json:"id"`
	SessionID int64     `json:"sessionId"`
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"createdAt"`
}
