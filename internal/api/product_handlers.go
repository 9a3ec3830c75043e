package api

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/kinhtot/marketplace/internal/database"
	"github.com/kinhtot/marketplace/internal/models"
	"github.com/kinhtot/marketplace/internal/store"
)

func queryInt(c *gin.Context, key string) int {
	v, _ := strconv.Atoi(c.Query(key))
	return v
}

func (s *Server) handleListProducts(c *gin.Context) {
	filter := store.ProductFilter{
		FrameShape:    c.Query("frameShape"),
		FrameMaterial: c.Query("frameMaterial"),
		Condition:     c.Query("condition"),
		Search:        c.Query("search"),
		Page:          queryInt(c, "page"),
		Limit:         queryInt(c, "limit"),
	}
	if raw := c.Query("categoryId"); raw != "" {
		if id, err := strconv.ParseInt(raw, 10, 64); err == nil {
			filter.CategoryID = &id
		}
	}
	if raw := c.Query("sellerId"); raw != "" {
		if id, err := strconv.ParseInt(raw, 10, 64); err == nil {
			filter.SellerID = &id
		}
	}

	page, err := store.ListProducts(c.Request.Context(), s.db, filter)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, "ok", page)
}

func (s *Server) handleGetProduct(c *gin.Context) {
	product, err := store.GetProductBySlug(c.Request.Context(), s.db, c.Param("slug"))
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, "ok", product)
}

type productPayload struct {
	SellerID      *int64   `json:"sellerId"`
	CategoryID    *int64   `json:"categoryId"`
	Name          string   `json:"name" binding:"required"`
	Slug          string   `json:"slug"`
	Description   string   `json:"description"`
	Price         string   `json:"price" binding:"required"`
	SalePrice     *string  `json:"salePrice"`
	Stock         int      `json:"stock"`
	Condition     string   `json:"condition"`
	FrameShape    string   `json:"frameShape"`
	FrameMaterial string   `json:"frameMaterial"`
	Images        []string `json:"images"`
}

func (s *Server) handleCreateProduct(c *gin.Context) {
	user := currentUser(c)

	var payload productPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		respondBadRequest(c, "invalid product payload")
		return
	}

	// Sellers list under their own account; staff/admin must name the
	// seller the product belongs to.
	sellerID := user.ID
	switch user.Role {
	case models.RoleSeller:
	case models.RoleStaff, models.RoleAdmin:
		if payload.SellerID == nil {
			respondBadRequest(c, "sellerId is required when creating as staff/admin")
			return
		}
		sellerID = *payload.SellerID
	default:
		respondError(c, database.ErrForbidden)
		return
	}

	price, err := decimal.NewFromString(payload.Price)
	if err != nil || price.IsNegative() {
		respondBadRequest(c, "invalid price")
		return
	}
	var salePrice *decimal.Decimal
	if payload.SalePrice != nil {
		sp, err := decimal.NewFromString(*payload.SalePrice)
		if err != nil || sp.IsNegative() {
			respondBadRequest(c, "invalid sale price")
			return
		}
		salePrice = &sp
	}
	if payload.Stock < 0 {
		respondBadRequest(c, "stock must not be negative")
		return
	}
	condition := payload.Condition
	if condition == "" {
		condition = models.ConditionNew
	}

	product, err := store.CreateProduct(c.Request.Context(), s.db, store.CreateProductRequest{
		SellerID:      sellerID,
		CategoryID:    payload.CategoryID,
		Name:          payload.Name,
		Slug:          payload.Slug,
		Description:   payload.Description,
		Price:         price,
		SalePrice:     salePrice,
		Stock:         payload.Stock,
		Condition:     condition,
		FrameShape:    payload.FrameShape,
		FrameMaterial: payload.FrameMaterial,
		Images:        payload.Images,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	respondCreated(c, "product created", product)
}

type productUpdatePayload struct {
	CategoryID    *int64   `json:"categoryId"`
	Name          *string  `json:"name"`
	Description   *string  `json:"description"`
	Price         *string  `json:"price"`
	SalePrice     *string  `json:"salePrice"`
	ClearSale     bool     `json:"clearSale"`
	Stock         *int     `json:"stock"`
	Condition     *string  `json:"condition"`
	FrameShape    *string  `json:"frameShape"`
	FrameMaterial *string  `json:"frameMaterial"`
	Images        []string `json:"images"`
}

// productForMutation resolves the :slug parameter as either a numeric
// id or a slug and checks the actor may write to it.
func (s *Server) productForMutation(c *gin.Context) *models.Product {
	user := currentUser(c)
	raw := c.Param("slug")

	var (
		product *models.Product
		err     error
	)
	if id, parseErr := strconv.ParseInt(raw, 10, 64); parseErr == nil {
		product, err = store.GetProduct(c.Request.Context(), s.db, id)
	} else {
		product, err = store.GetProductBySlug(c.Request.Context(), s.db, raw)
	}
	if err != nil {
		respondError(c, err)
		return nil
	}

	if err := store.CanMutateProduct(user.ID, user.Role, product); err != nil {
		respondError(c, err)
		return nil
	}
	return product
}

func (s *Server) handleUpdateProduct(c *gin.Context) {
	product := s.productForMutation(c)
	if product == nil {
		return
	}

	var payload productUpdatePayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		respondBadRequest(c, "invalid product payload")
		return
	}

	req := store.UpdateProductRequest{
		CategoryID:    payload.CategoryID,
		Name:          payload.Name,
		Description:   payload.Description,
		ClearSale:     payload.ClearSale,
		Stock:         payload.Stock,
		Condition:     payload.Condition,
		FrameShape:    payload.FrameShape,
		FrameMaterial: payload.FrameMaterial,
		Images:        payload.Images,
	}
	if payload.Price != nil {
		price, err := decimal.NewFromString(*payload.Price)
		if err != nil || price.IsNegative() {
			respondBadRequest(c, "invalid price")
			return
		}
		req.Price = &price
	}
	if payload.SalePrice != nil {
		sp, err := decimal.NewFromString(*payload.SalePrice)
		if err != nil || sp.IsNegative() {
			respondBadRequest(c, "invalid sale price")
			return
		}
		req.SalePrice = &sp
	}
	if payload.Stock != nil && *payload.Stock < 0 {
		respondBadRequest(c, "stock must not be negative")
		return
	}

	updated, err := store.UpdateProduct(c.Request.Context(), s.db, product.ID, req)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, "product updated", updated)
}

func (s *Server) handleDeleteProduct(c *gin.Context) {
	product := s.productForMutation(c)
	if product == nil {
		return
	}

	if err := store.DeactivateProduct(c.Request.Context(), s.db, product.ID); err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, "product removed", nil)
}

func (s *Server) handleListCategories(c *gin.Context) {
	categories, err := store.ListCategories(c.Request.Context(), s.db)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, "ok", categories)
}
