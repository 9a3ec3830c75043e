package integration

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/kinhtot/marketplace/internal/database"
	"github.com/kinhtot/marketplace/internal/models"
	"github.com/kinhtot/marketplace/internal/store"
)

func TestCreateProductSlug(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()

	seller := createTestUser(t, db, "seller@example.com", models.RoleSeller)

	product, err := store.CreateProduct(ctx, db, store.CreateProductRequest{
		SellerID:  seller.ID,
		Name:      "Gong Kinh Titan Cao Cap",
		Price:     decimal.NewFromInt(250000),
		Stock:     10,
		Condition: models.ConditionNew,
	})
	if err != nil {
		t.Fatalf("Create product: %v", err)
	}
	if product.Slug != "gong-kinh-titan-cao-cap" {
		t.Errorf("Expected slug gong-kinh-titan-cao-cap, got %s", product.Slug)
	}

	_, err = store.CreateProduct(ctx, db, store.CreateProductRequest{
		SellerID:  seller.ID,
		Name:      "Other Name",
		Slug:      product.Slug,
		Price:     decimal.NewFromInt(100000),
		Stock:     5,
		Condition: models.ConditionNew,
	})
	if !errors.Is(err, database.ErrSlugTaken) {
		t.Errorf("Expected slug taken error, got: %v", err)
	}
}

func TestCreateProductRequiresSeller(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()

	buyer := createTestUser(t, db, "buyer@example.com", models.RoleBuyer)

	_, err := store.CreateProduct(ctx, db, store.CreateProductRequest{
		SellerID:  buyer.ID,
		Name:      "Khong Duoc Ban",
		Price:     decimal.NewFromInt(100000),
		Stock:     1,
		Condition: models.ConditionNew,
	})
	if !errors.Is(err, database.ErrForbidden) {
		t.Errorf("Expected forbidden error, got: %v", err)
	}
}

func TestListProductsFilters(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()

	seller := createTestUser(t, db, "seller@example.com", models.RoleSeller)

	shapes := []string{models.FrameShapeRound, models.FrameShapeRound, models.FrameShapeSquare}
	names := []string{"Gong Tron Mot", "Gong Tron Hai", "Gong Vuong"}
	for i := range shapes {
		_, err := store.CreateProduct(ctx, db, store.CreateProductRequest{
			SellerID:   seller.ID,
			Name:       names[i],
			Price:      decimal.NewFromInt(100000),
			Stock:      5,
			Condition:  models.ConditionNew,
			FrameShape: shapes[i],
		})
		if err != nil {
			t.Fatalf("Create product %s: %v", names[i], err)
		}
	}

	page, err := store.ListProducts(ctx, db, store.ProductFilter{FrameShape: models.FrameShapeRound})
	if err != nil {
		t.Fatalf("List products: %v", err)
	}
	if page.Total != 2 {
		t.Errorf("Expected 2 round frames, got %d", page.Total)
	}

	page, err = store.ListProducts(ctx, db, store.ProductFilter{Search: "vuong"})
	if err != nil {
		t.Fatalf("Search products: %v", err)
	}
	if page.Total != 1 {
		t.Errorf("Expected 1 search hit, got %d", page.Total)
	}
}

func TestDeactivateProductHidesIt(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()

	seller := createTestUser(t, db, "seller@example.com", models.RoleSeller)
	product := createTestProduct(t, db, seller.ID, "Gong Kinh An", 100000, nil, 5)

	if err := store.DeactivateProduct(ctx, db, product.ID); err != nil {
		t.Fatalf("Deactivate product: %v", err)
	}

	_, err := store.GetProductBySlug(ctx, db, product.Slug)
	if !errors.Is(err, database.ErrProductNotFound) {
		t.Errorf("Expected product not found after deactivation, got: %v", err)
	}

	page, err := store.ListProducts(ctx, db, store.ProductFilter{})
	if err != nil {
		t.Fatalf("List products: %v", err)
	}
	if page.Total != 0 {
		t.Errorf("Deactivated product should not be listed, total %d", page.Total)
	}
}

func TestUpdateProductClearSale(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()

	seller := createTestUser(t, db, "seller@example.com", models.RoleSeller)
	product := createTestProduct(t, db, seller.ID, "Gong Kinh Giam Gia", 200000, int64Ptr(150000), 5)

	updated, err := store.UpdateProduct(ctx, db, product.ID, store.UpdateProductRequest{ClearSale: true})
	if err != nil {
		t.Fatalf("Update product: %v", err)
	}
	if updated.SalePrice != nil {
		t.Errorf("Expected sale price cleared, got %s", updated.SalePrice)
	}
	if !updated.EffectivePrice().Equal(decimal.NewFromInt(200000)) {
		t.Errorf("Expected effective price 200000, got %s", updated.EffectivePrice())
	}
}

func TestReviewOncePerProduct(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()

	buyer := createTestUser(t, db, "buyer@example.com", models.RoleBuyer)
	seller := createTestUser(t, db, "seller@example.com", models.RoleSeller)
	product := createTestProduct(t, db, seller.ID, "Gong Kinh Danh Gia", 100000, nil, 5)

	review, err := store.CreateReview(ctx, db, buyer.ID, product.ID, 5, "Rat dep")
	if err != nil {
		t.Fatalf("Create review: %v", err)
	}
	if review.ID == 0 {
		t.Error("Review ID should be assigned")
	}

	_, err = store.CreateReview(ctx, db, buyer.ID, product.ID, 4, "Lan hai")
	if !errors.Is(err, database.ErrDuplicateReview) {
		t.Errorf("Expected duplicate review error, got: %v", err)
	}

	_, err = store.CreateReview(ctx, db, buyer.ID, product.ID, 6, "")
	if !errors.Is(err, database.ErrInvalidOrderInput) {
		t.Errorf("Expected rating validation error, got: %v", err)
	}
}
