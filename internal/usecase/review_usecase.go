package usecase

import (
	"context"
	"errors"
	"math"
	"strconv"
	"strings"
	"time"

	"storefront/internal/domain/model"
	repo "storefront/internal/repository"
)

type ReviewUsecase struct {
	reviews  repo.ReviewRepository
	products repo.ProductRepository
}

func NewReviewUsecase(reviews repo.ReviewRepository, products repo.ProductRepository) *ReviewUsecase {
	return &ReviewUsecase{reviews: reviews, products: products}
}

type ReviewOutput struct {
	ID        int64     `json:"id"`
	ProductID int64     `json:"product_id"`
	UserID    int64     `json:"user_id"`
	UserName  string    `json:"user_name"`
	Rating    int       `json:"rating"`
	Comment   string    `json:"comment"`
	CreatedAt time.Time `json:"created_at"`
}

type RatingSummaryOutput struct {
	AverageRating float64          `json:"average_rating"`
	TotalReviews  int64            `json:"total_reviews"`
	Stars         map[string]int64 `json:"stars"`
}

type ReviewInput struct {
	Rating  int
	Comment string
}

func (in ReviewInput) validate() error {
	if in.Rating < 1 || in.Rating > 5 {
		return badRequest("Rating must be 1 to 5")
	}
	if len(in.Comment) > 2000 {
		return badRequest("Comment too long")
	}
	return nil
}

func toReviewOutput(r model.Review) ReviewOutput {
	out := ReviewOutput{
		ID:        r.ID,
		ProductID: r.ProductID,
		UserID:    r.UserID,
		Rating:    r.Rating,
		Comment:   r.Comment,
		CreatedAt: r.CreatedAt,
	}
	if r.User != nil {
		//名前が無ければメールのローカル部
		name := strings.TrimSpace(r.User.FirstName + " " + r.User.LastName)
		if name == "" {
			name, _, _ = strings.Cut(r.User.Email, "@")
		}
		out.UserName = name
	}
	return out
}

// 公開中の商品のみ
func (u *ReviewUsecase) availableProduct(ctx context.Context, productID int64) error {
	if productID <= 0 {
		return badRequest("invalid product id")
	}
	p, err := u.products.FindByID(ctx, productID)
	if errors.Is(err, repo.ErrNotFound) {
		return notFound("Product not found")
	}
	if err != nil {
		return errDB
	}
	if !p.Available {
		return notFound("Product not found")
	}
	return nil
}

func (u *ReviewUsecase) ListByProduct(ctx context.Context, productID int64) ([]ReviewOutput, error) {
	if err := u.availableProduct(ctx, productID); err != nil {
		return nil, err
	}
	list, err := u.reviews.ListByProduct(ctx, productID)
	if err != nil {
		return nil, errDB
	}
	out := make([]ReviewOutput, 0, len(list))
	for _, r := range list {
		out = append(out, toReviewOutput(r))
	}
	return out, nil
}

func (u *ReviewUsecase) Summary(ctx context.Context, productID int64) (RatingSummaryOutput, error) {
	if err := u.availableProduct(ctx, productID); err != nil {
		return RatingSummaryOutput{}, err
	}
	s, err := u.reviews.Summary(ctx, productID)
	if err != nil {
		return RatingSummaryOutput{}, errDB
	}

	stars := make(map[string]int64, 5)
	for i := 5; i >= 1; i-- {
		stars[strconv.Itoa(i)] = s.Stars[i]
	}
	return RatingSummaryOutput{
		AverageRating: math.Round(s.Average*10) / 10,
		TotalReviews:  s.Total,
		Stars:         stars,
	}, nil
}

// 投稿済みかどうか
func (u *ReviewUsecase) HasReviewed(ctx context.Context, userID, productID int64) (bool, error) {
	if userID <= 0 {
		return false, errUnauthorized
	}
	if productID <= 0 {
		return false, badRequest("invalid product id")
	}
	ok, err := u.reviews.Exists(ctx, productID, userID)
	if err != nil {
		return false, errDB
	}
	return ok, nil
}

func (u *ReviewUsecase) Create(ctx context.Context, userID, productID int64, in ReviewInput) (ReviewOutput, error) {
	if userID <= 0 {
		return ReviewOutput{}, errUnauthorized
	}
	if err := in.validate(); err != nil {
		return ReviewOutput{}, err
	}
	if err := u.availableProduct(ctx, productID); err != nil {
		return ReviewOutput{}, err
	}

	created, err := u.reviews.Create(ctx, model.Review{
		ProductID: productID,
		UserID:    userID,
		Rating:    in.Rating,
		Comment:   strings.TrimSpace(in.Comment),
	})
	if errors.Is(err, repo.ErrDuplicate) {
		return ReviewOutput{}, badRequest("You already reviewed this product")
	}
	if err != nil {
		return ReviewOutput{}, errDB
	}
	return toReviewOutput(created), nil
}

// 本人のレビューだけ（他人のものは存在しない扱い）
func (u *ReviewUsecase) ownReview(ctx context.Context, userID, reviewID int64) (model.Review, error) {
	if userID <= 0 {
		return model.Review{}, errUnauthorized
	}
	if reviewID <= 0 {
		return model.Review{}, badRequest("invalid id")
	}
	r, err := u.reviews.FindByID(ctx, reviewID)
	if errors.Is(err, repo.ErrNotFound) {
		return model.Review{}, notFound("Review not found")
	}
	if err != nil {
		return model.Review{}, errDB
	}
	if r.UserID != userID {
		return model.Review{}, notFound("Review not found")
	}
	return r, nil
}

func (u *ReviewUsecase) Update(ctx context.Context, userID, reviewID int64, in ReviewInput) (ReviewOutput, error) {
	r, err := u.ownReview(ctx, userID, reviewID)
	if err != nil {
		return ReviewOutput{}, err
	}
	if err := in.validate(); err != nil {
		return ReviewOutput{}, err
	}

	r.Rating = in.Rating
	r.Comment = strings.TrimSpace(in.Comment)
	if err := u.reviews.Update(ctx, r); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return ReviewOutput{}, notFound("Review not found")
		}
		return ReviewOutput{}, errDB
	}
	return toReviewOutput(r), nil
}

func (u *ReviewUsecase) Delete(ctx context.Context, userID, reviewID int64) error {
	if _, err := u.ownReview(ctx, userID, reviewID); err != nil {
		return err
	}
	if err := u.reviews.Delete(ctx, reviewID); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return notFound("Review not found")
		}
		return errDB
	}
	return nil
}
