package services_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/lumme/lumme-api/models"
	"github.com/lumme/lumme-api/services"
	"github.com/lumme/lumme-api/tests/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func assertCode(t *testing.T, err error, kind error, code string) {
	t.Helper()
	require.Error(t, err)
	assert.True(t, errors.Is(err, kind), "expected %v, got %v", kind, err)
	var appErr *services.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, code, appErr.Code)
}

func floatPtr(v float64) *float64 { return &v }
func intPtr(v int) *int           { return &v }
func strPtr(v string) *string     { return &v }

func TestListProductsFiltersAndPaginates(t *testing.T) {
	db := testutil.NewTestDB(t)
	_, seller := testutil.CreateSeller(t, db, "Rose Garden")
	catalog := services.NewCatalogService(db, nil)
	ctx := context.Background()

	for i, price := range []float64{20, 40, 60, 80, 100} {
		p := testutil.CreateProduct(t, db, seller.ID, "Bouquet", price, i+1)
		if price == 100 {
			require.NoError(t, db.Model(&p).Updates(map[string]interface{}{"occasion": "wedding", "size": "large"}).Error)
		}
	}
	testutil.CreateProduct(t, db, seller.ID, "Sold out", 30, 0)

	tests := []struct {
		name      string
		filter    services.ProductFilter
		wantCount int
		wantTotal int64
		wantPages int
	}{
		{"defaults hide out of stock", services.ProductFilter{}, 5, 5, 1},
		{"occasion", services.ProductFilter{Occasion: "wedding"}, 1, 1, 1},
		{"size", services.ProductFilter{Size: "large"}, 1, 1, 1},
		{"price range", services.ProductFilter{MinPrice: floatPtr(40), MaxPrice: floatPtr(80)}, 3, 3, 1},
		{"second page", services.ProductFilter{Page: 2, PerPage: 2}, 2, 5, 3},
		{"last partial page", services.ProductFilter{Page: 3, PerPage: 2}, 1, 5, 3},
		{"past the end", services.ProductFilter{Page: 9, PerPage: 2}, 0, 5, 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page, err := catalog.ListProducts(ctx, tt.filter)
			require.NoError(t, err)
			assert.Len(t, page.Products, tt.wantCount)
			assert.Equal(t, tt.wantTotal, page.Pagination.Total)
			assert.Equal(t, tt.wantPages, page.Pagination.Pages)
			for _, p := range page.Products {
				assert.True(t, p.IsInStock)
				assert.Greater(t, p.StockQuantity, 0)
			}
		})
	}

	page, err := catalog.ListProducts(ctx, services.ProductFilter{PerPage: 1000})
	require.NoError(t, err)
	assert.Equal(t, services.MaxPerPage, page.Pagination.PerPage)
	assert.Equal(t, 1, page.Pagination.Page)
	for i := 1; i < len(page.Products); i++ {
		assert.Less(t, page.Products[i-1].ID, page.Products[i].ID)
	}

	_, err = catalog.ListProducts(ctx, services.ProductFilter{Size: "huge"})
	assertCode(t, err, services.ErrInvalidRequest, "INVALID_SIZE")
}

func TestCreateAndUpdateProductKeepStockFlag(t *testing.T) {
	db := testutil.NewTestDB(t)
	sellerUser, seller := testutil.CreateSeller(t, db, "Rose Garden")
	catalog := services.NewCatalogService(db, nil)
	ctx := context.Background()

	product, err := catalog.CreateProduct(ctx, sellerUser.ID, services.ProductInput{
		Name:        "  Spring Mix ",
		Price:       45.5,
		Composition: models.Composition{"tulip": 7, "daisy": 3},
		Occasion:    "spring",
	})
	require.NoError(t, err)
	assert.Equal(t, "Spring Mix", product.Name)
	assert.Equal(t, seller.ID, product.SellerID)
	assert.Equal(t, models.SizeMedium, product.Size)
	assert.False(t, product.IsInStock)

	updated, err := catalog.UpdateProduct(ctx, sellerUser.ID, product.ID, services.ProductUpdate{StockQuantity: intPtr(4)})
	require.NoError(t, err)
	assert.True(t, updated.IsInStock)
	assert.Equal(t, 45.5, updated.Price)

	stored := testutil.Reload[models.Product](t, db, product.ID)
	assert.True(t, stored.IsInStock)
	assert.Equal(t, 7, stored.Composition["tulip"])

	updated, err = catalog.UpdateProduct(ctx, sellerUser.ID, product.ID, services.ProductUpdate{StockQuantity: intPtr(0), Price: floatPtr(50)})
	require.NoError(t, err)
	assert.False(t, updated.IsInStock)
	assert.Equal(t, 50.0, updated.Price)

	tests := []struct {
		name   string
		update services.ProductUpdate
		code   string
	}{
		{"zero price", services.ProductUpdate{Price: floatPtr(0)}, "VALIDATION_ERROR"},
		{"negative stock", services.ProductUpdate{StockQuantity: intPtr(-1)}, "VALIDATION_ERROR"},
		{"unknown size", services.ProductUpdate{Size: strPtr("huge")}, "INVALID_SIZE"},
		{"blank name", services.ProductUpdate{Name: strPtr("   ")}, "VALIDATION_ERROR"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := catalog.UpdateProduct(ctx, sellerUser.ID, product.ID, tt.update)
			assertCode(t, err, services.ErrInvalidRequest, tt.code)
		})
	}
}

func TestProductOwnership(t *testing.T) {
	db := testutil.NewTestDB(t)
	_, owner := testutil.CreateSeller(t, db, "Rose Garden")
	intruder, _ := testutil.CreateSeller(t, db, "Tulip Corner")
	customer, _ := testutil.CreateCustomer(t, db)
	product := testutil.CreateProduct(t, db, owner.ID, "Red Roses", 100, 5)
	catalog := services.NewCatalogService(db, nil)
	ctx := context.Background()

	_, err := catalog.UpdateProduct(ctx, intruder.ID, product.ID, services.ProductUpdate{Price: floatPtr(1)})
	assertCode(t, err, services.ErrForbidden, "FORBIDDEN")

	err = catalog.DeleteProduct(ctx, intruder.ID, product.ID)
	assertCode(t, err, services.ErrForbidden, "FORBIDDEN")

	_, err = catalog.CreateProduct(ctx, customer.ID, services.ProductInput{Name: "Nope", Price: 10})
	assertCode(t, err, services.ErrForbidden, "FORBIDDEN")

	_, err = catalog.UpdateProduct(ctx, intruder.ID, 9999, services.ProductUpdate{})
	assertCode(t, err, services.ErrNotFound, "PRODUCT_NOT_FOUND")

	stored := testutil.Reload[models.Product](t, db, product.ID)
	assert.Equal(t, 100.0, stored.Price)
}

func TestDeleteProductRemovesDependents(t *testing.T) {
	db := testutil.NewTestDB(t)
	sellerUser, seller := testutil.CreateSeller(t, db, "Rose Garden")
	customerUser, _ := testutil.CreateCustomer(t, db)
	product := testutil.CreateProduct(t, db, seller.ID, "Red Roses", 100, 5)
	keeper := testutil.CreateProduct(t, db, seller.ID, "Lilies", 40, 5)
	ctx := context.Background()

	orders := services.NewOrderService(db, 50, nil)
	order, err := orders.PlaceOrder(ctx, services.PlaceOrderInput{
		UserID:          customerUser.ID,
		Items:           []services.OrderLine{{ProductID: product.ID, Quantity: 1}, {ProductID: keeper.ID, Quantity: 1}},
		DeliveryAddress: "12 Tulip Street",
		DeliveryDate:    "2026-10-20",
	})
	require.NoError(t, err)

	reviews := services.NewReviewService(db)
	_, err = reviews.SubmitReview(ctx, services.SubmitReviewInput{UserID: customerUser.ID, OrderID: order.ID, ProductID: product.ID, Rating: 2})
	require.NoError(t, err)
	_, err = reviews.SubmitReview(ctx, services.SubmitReviewInput{UserID: customerUser.ID, OrderID: order.ID, ProductID: keeper.ID, Rating: 4})
	require.NoError(t, err)

	_, err = services.NewCartService(db).AddToCart(ctx, customerUser.ID, product.ID, 1)
	require.NoError(t, err)

	catalog := services.NewCatalogService(db, nil)
	require.NoError(t, catalog.DeleteProduct(ctx, sellerUser.ID, product.ID))

	_, err = catalog.GetProduct(ctx, product.ID)
	assertCode(t, err, services.ErrNotFound, "PRODUCT_NOT_FOUND")

	var count int64
	require.NoError(t, db.Model(&models.Review{}).Where("product_id = ?", product.ID).Count(&count).Error)
	assert.Zero(t, count)
	require.NoError(t, db.Model(&models.CartItem{}).Where("product_id = ?", product.ID).Count(&count).Error)
	assert.Zero(t, count)
	require.NoError(t, db.Model(&models.OrderItem{}).Where("product_id = ?", product.ID).Count(&count).Error)
	assert.Zero(t, count)

	shop := testutil.Reload[models.Seller](t, db, seller.ID)
	assert.Equal(t, 4.0, shop.Rating)
}

func TestProductImages(t *testing.T) {
	db := testutil.NewTestDB(t)
	sellerUser, seller := testutil.CreateSeller(t, db, "Rose Garden")
	product := testutil.CreateProduct(t, db, seller.ID, "Red Roses", 100, 5)
	ctx := context.Background()

	disabled := services.NewCatalogService(db, nil)
	_, err := disabled.SetProductImage(ctx, sellerUser.ID, product.ID, testutil.ImageFileHeader(t, "roses.png", testutil.PNGBytes))
	assertCode(t, err, services.ErrInvalidRequest, "IMAGE_STORAGE_DISABLED")

	store := services.NewMemoryStore()
	catalog := services.NewCatalogService(db, services.NewProductImageStore(store))

	_, err = catalog.ProductImageURL(ctx, product.ID)
	assertCode(t, err, services.ErrNotFound, "IMAGE_NOT_FOUND")

	_, err = catalog.SetProductImage(ctx, sellerUser.ID, product.ID, testutil.ImageFileHeader(t, "roses.gif", testutil.PNGBytes))
	assertCode(t, err, services.ErrInvalidRequest, "INVALID_FILE_FORMAT")

	updated, err := catalog.SetProductImage(ctx, sellerUser.ID, product.ID, testutil.ImageFileHeader(t, "roses.png", testutil.PNGBytes))
	require.NoError(t, err)
	require.NotNil(t, updated.ImageS3Key)
	assert.Equal(t, services.ProductImagePath(product.ID), updated.ImageURL)
	assert.True(t, store.Has(*updated.ImageS3Key))
	assert.True(t, strings.HasPrefix(*updated.ImageS3Key, fmt.Sprintf("products/%d/", product.ID)))
	assert.Equal(t, "image/png", store.ContentType(*updated.ImageS3Key))

	url, err := catalog.ProductImageURL(ctx, product.ID)
	require.NoError(t, err)
	assert.Contains(t, url, *updated.ImageS3Key)

	firstKey := *updated.ImageS3Key
	replaced, err := catalog.SetProductImage(ctx, sellerUser.ID, product.ID, testutil.ImageFileHeader(t, "roses-new.webp", testutil.PNGBytes))
	require.NoError(t, err)
	assert.False(t, store.Has(firstKey))
	assert.Equal(t, []string{*replaced.ImageS3Key}, store.Keys())

	require.NoError(t, catalog.DeleteProduct(ctx, sellerUser.ID, product.ID))
	assert.Empty(t, store.Keys())
}
