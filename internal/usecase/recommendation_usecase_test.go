package usecase

import (
	"context"
	"net/http"
	"testing"

	"storefront/internal/domain/model"
	repo "storefront/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestForYou_CategoriesFromHistoryExcludingSeen(t *testing.T) {
	products := new(productRepoMock)
	orderItems := new(orderItemRepoMock)
	wishlist := new(wishlistRepoMock)

	orderItems.On("ProductIDsByUser", mock.Anything, int64(1)).Return([]int64{1, 2}, nil)
	wishlist.On("ProductIDsByUser", mock.Anything, int64(1)).Return([]int64{3}, nil)
	products.On("FindByIDs", mock.Anything, []int64{1, 2, 3}).Return([]model.Product{
		{ID: 1, CategoryID: 10},
		{ID: 2, CategoryID: 10},
		{ID: 3, CategoryID: 20},
	}, nil)
	products.On("ByCategoriesExcluding", mock.Anything, []int64{10, 20}, []int64{1, 2, 3}, 20).
		Return([]model.Product{{ID: 4}, {ID: 5}}, nil)

	list, err := NewRecommendationUsecase(products, orderItems, wishlist).ForYou(context.Background(), 1)
	require.NoError(t, err)

	require.Len(t, list, 2)
	products.AssertNotCalled(t, "Popular", mock.Anything, mock.Anything)
}

func TestForYou_FallsBackToPopular(t *testing.T) {
	products := new(productRepoMock)
	orderItems := new(orderItemRepoMock)
	wishlist := new(wishlistRepoMock)

	orderItems.On("ProductIDsByUser", mock.Anything, int64(1)).Return([]int64{}, nil)
	wishlist.On("ProductIDsByUser", mock.Anything, int64(1)).Return([]int64{}, nil)
	products.On("Popular", mock.Anything, 20).Return([]model.Product{{ID: 9}}, nil)

	list, err := NewRecommendationUsecase(products, orderItems, wishlist).ForYou(context.Background(), 1)
	require.NoError(t, err)

	assert.Equal(t, int64(9), list[0].ID)
}

func TestSimilar_UnknownProduct(t *testing.T) {
	products := new(productRepoMock)
	products.On("FindByID", mock.Anything, int64(404)).Return(model.Product{}, repo.ErrNotFound)

	_, err := NewRecommendationUsecase(products, new(orderItemRepoMock), new(wishlistRepoMock)).Similar(context.Background(), 404)

	assertHTTPError(t, err, http.StatusNotFound, "Product not found")
}

// 履歴はあるが同じカテゴリに未購入の商品が無い
func TestForYou_EmptyPersonalizedFallsBackToPopular(t *testing.T) {
	products := new(productRepoMock)
	orderItems := new(orderItemRepoMock)
	wishlist := new(wishlistRepoMock)

	orderItems.On("ProductIDsByUser", mock.Anything, int64(1)).Return([]int64{1}, nil)
	wishlist.On("ProductIDsByUser", mock.Anything, int64(1)).Return([]int64{}, nil)
	products.On("FindByIDs", mock.Anything, []int64{1}).Return([]model.Product{{ID: 1, CategoryID: 10}}, nil)
	products.On("ByCategoriesExcluding", mock.Anything, []int64{10}, []int64{1}, 20).Return([]model.Product{}, nil)
	products.On("Popular", mock.Anything, 20).Return([]model.Product{{ID: 9}, {ID: 8}}, nil)

	list, err := NewRecommendationUsecase(products, orderItems, wishlist).ForYou(context.Background(), 1)
	require.NoError(t, err)

	require.Len(t, list, 2)
	assert.Equal(t, int64(9), list[0].ID)
	products.AssertExpectations(t)
}

func TestForYou_RequiresUser(t *testing.T) {
	_, err := NewRecommendationUsecase(new(productRepoMock), new(orderItemRepoMock), new(wishlistRepoMock)).ForYou(context.Background(), 0)

	assertHTTPError(t, err, http.StatusUnauthorized, "unauthorized")
}

func TestSimilar_QueriesWithBaseProduct(t *testing.T) {
	products := new(productRepoMock)
	base := model.Product{ID: 5, CategoryID: 10, Available: true}
	products.On("FindByID", mock.Anything, int64(5)).Return(base, nil)
	products.On("Similar", mock.Anything, base, 10).Return([]model.Product{{ID: 6, CategoryID: 10}, {ID: 7, CategoryID: 10}}, nil)

	list, err := NewRecommendationUsecase(products, new(orderItemRepoMock), new(wishlistRepoMock)).Similar(context.Background(), 5)
	require.NoError(t, err)

	require.Len(t, list, 2)
	for _, p := range list {
		assert.NotEqual(t, int64(5), p.ID)
	}
	products.AssertExpectations(t)
}

func TestPopular_KeepsRankOrder(t *testing.T) {
	products := new(productRepoMock)
	products.On("Popular", mock.Anything, 10).Return([]model.Product{{ID: 3}, {ID: 1}, {ID: 2}}, nil)

	list, err := NewRecommendationUsecase(products, new(orderItemRepoMock), new(wishlistRepoMock)).Popular(context.Background())
	require.NoError(t, err)

	ids := make([]int64, 0, len(list))
	for _, p := range list {
		ids = append(ids, p.ID)
	}
	assert.Equal(t, []int64{3, 1, 2}, ids)
}
