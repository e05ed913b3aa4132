package usecase

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"storefront/internal/domain/model"
	repo "storefront/internal/repository"
)

type AddressDTO struct {
	ID         int64   `json:"id"`
	UserID     int64   `json:"user_id"`
	FirstName  string  `json:"first_name"`
	LastName   string  `json:"last_name"`
	Address    string  `json:"address"`
	City       string  `json:"city"`
	PostalCode string  `json:"postal_code"`
	Phone      string  `json:"phone"`
	IsDefault  bool    `json:"is_default"`
	CreatedAt  string  `json:"created_at"`
	UpdatedAt  *string `json:"updated_at,omitempty"`
}

type AddressRequest struct {
	FirstName  string `json:"first_name"`
	LastName   string `json:"last_name"`
	Address    string `json:"address"`
	City       string `json:"city"`
	PostalCode string `json:"postal_code"`
	Phone      string `json:"phone"`
}

func (r AddressRequest) trimmed() AddressRequest {
	return AddressRequest{
		FirstName:  strings.TrimSpace(r.FirstName),
		LastName:   strings.TrimSpace(r.LastName),
		Address:    strings.TrimSpace(r.Address),
		City:       strings.TrimSpace(r.City),
		PostalCode: strings.TrimSpace(r.PostalCode),
		Phone:      strings.TrimSpace(r.Phone),
	}
}

func (r AddressRequest) validate() error {
	//入力チェック
	if r.FirstName == "" || r.LastName == "" || r.Address == "" || r.City == "" || r.PostalCode == "" {
		return badRequest("first_name, last_name, address, city and postal_code required")
	}
	if len(r.FirstName) > 50 || len(r.LastName) > 50 || len(r.Address) > 250 ||
		len(r.City) > 100 || len(r.PostalCode) > 20 || len(r.Phone) > 30 {
		return badRequest("field too long")
	}
	return nil
}

type AddressUsecase struct {
	addresses repo.AddressRepository
}

func NewAddressUsecase(addresses repo.AddressRepository) *AddressUsecase {
	return &AddressUsecase{addresses: addresses}
}

func (u *AddressUsecase) List(ctx context.Context, userID int64) ([]AddressDTO, error) {
	if userID <= 0 {
		return nil, errUnauthorized
	}

	list, err := u.addresses.ListByUserID(ctx, userID)
	if err != nil {
		return nil, errDB
	}

	out := make([]AddressDTO, 0, len(list))
	for i := range list {
		out = append(out, toAddressDTO(&list[i]))
	}
	return out, nil
}

func (u *AddressUsecase) Create(ctx context.Context, userID int64, req AddressRequest) (AddressDTO, error) {
	if userID <= 0 {
		return AddressDTO{}, errUnauthorized
	}
	req = req.trimmed()
	if err := req.validate(); err != nil {
		return AddressDTO{}, err
	}

	now := time.Now()
	created, err := u.addresses.Create(ctx, model.Address{
		UserID:     userID,
		FirstName:  req.FirstName,
		LastName:   req.LastName,
		Line:       req.Address,
		City:       req.City,
		PostalCode: req.PostalCode,
		Phone:      req.Phone,
		IsDefault:  false,
		CreatedAt:  now,
		UpdatedAt:  now,
	})
	if err != nil {
		return AddressDTO{}, errDB
	}

	return toAddressDTO(&created), nil
}

// 所有チェック（他人の住所は403）
func (u *AddressUsecase) owned(ctx context.Context, userID, addressID int64) error {
	if userID <= 0 {
		return errUnauthorized
	}
	if addressID <= 0 {
		return badRequest("invalid id")
	}

	a, err := u.addresses.FindByID(ctx, addressID)
	if errors.Is(err, repo.ErrNotFound) {
		return notFound("not found")
	}
	if err != nil {
		return errDB
	}
	if a.UserID != userID {
		return NewHTTPError(http.StatusForbidden, "forbidden")
	}
	return nil
}

func (u *AddressUsecase) Update(ctx context.Context, userID int64, addressID int64, req AddressRequest) error {
	if err := u.owned(ctx, userID, addressID); err != nil {
		return err
	}
	req = req.trimmed()
	if err := req.validate(); err != nil {
		return err
	}

	err := u.addresses.Update(ctx, model.Address{
		ID:         addressID,
		UserID:     userID,
		FirstName:  req.FirstName,
		LastName:   req.LastName,
		Line:       req.Address,
		City:       req.City,
		PostalCode: req.PostalCode,
		Phone:      req.Phone,
		UpdatedAt:  time.Now(),
	})
	if errors.Is(err, repo.ErrNotFound) {
		return notFound("not found")
	}
	if err != nil {
		return errDB
	}
	return nil
}

func (u *AddressUsecase) Delete(ctx context.Context, userID int64, addressID int64) error {
	if err := u.owned(ctx, userID, addressID); err != nil {
		return err
	}

	err := u.addresses.Delete(ctx, addressID)
	if errors.Is(err, repo.ErrNotFound) {
		return notFound("not found")
	}
	if err != nil {
		return errDB
	}
	return nil
}

func (u *AddressUsecase) SetDefault(ctx context.Context, userID int64, addressID int64) error {
	if err := u.owned(ctx, userID, addressID); err != nil {
		return err
	}

	//user内でdefaultは1つ
	err := u.addresses.SetDefault(ctx, userID, addressID)
	if errors.Is(err, repo.ErrNotFound) {
		return notFound("not found")
	}
	if err != nil {
		return errDB
	}
	return nil
}

func toAddressDTO(a *model.Address) AddressDTO {
	dto := AddressDTO{
		ID:         a.ID,
		UserID:     a.UserID,
		FirstName:  a.FirstName,
		LastName:   a.LastName,
		Address:    a.Line,
		City:       a.City,
		PostalCode: a.PostalCode,
		Phone:      a.Phone,
		IsDefault:  a.IsDefault,
		CreatedAt:  a.CreatedAt.Format(time.RFC3339),
	}
	t := a.UpdatedAt.Format(time.RFC3339)
	dto.UpdatedAt = &t
	return dto
}
