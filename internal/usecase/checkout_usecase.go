package usecase

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/alittlebroken/ecommerce/internal/domain/model"
	"github.com/alittlebroken/ecommerce/internal/payment"
	repo "github.com/alittlebroken/ecommerce/internal/repository"
)

// CheckoutUsecase はカートの中身を決済ゲートウェイへ送り、
// 決済ページへのリダイレクトURLを返す。ローカルの状態は変更しない。
type CheckoutUsecase struct {
	cartRepo     repo.CartRepository
	cartItemRepo repo.CartItemRepository
	productRepo  repo.ProductRepository
	gateway      payment.Gateway

	currency   string
	successURL string
	cancelURL  string
}

func NewCheckoutUsecase(
	cartRepo repo.CartRepository,
	cartItemRepo repo.CartItemRepository,
	productRepo repo.ProductRepository,
	gateway payment.Gateway,
	currency string,
	clientURL string,
) *CheckoutUsecase {
	return &CheckoutUsecase{
		cartRepo:     cartRepo,
		cartItemRepo: cartItemRepo,
		productRepo:  productRepo,
		gateway:      gateway,
		currency:     currency,
		successURL:   clientURL + "/success",
		cancelURL:    clientURL + "/cancel",
	}
}

type CheckoutOutput struct {
	URL string `json:"url"`
}

// InitiateCheckout はカートの現在の中身からセッションを作る。
// 本人のカートのみ（ADMINは他人のカートも可）。
func (u *CheckoutUsecase) InitiateCheckout(ctx context.Context, userID int64, role model.Role, cartID int64) (CheckoutOutput, error) {
	if userID <= 0 {
		return CheckoutOutput{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if cartID <= 0 {
		return CheckoutOutput{}, NewHTTPError(http.StatusBadRequest, "invalid cart id")
	}

	cart, err := u.cartRepo.FindByID(ctx, cartID)
	if errors.Is(err, repo.ErrNotFound) {
		return CheckoutOutput{}, NewHTTPError(http.StatusNotFound, "cart not found")
	}
	if err != nil {
		return CheckoutOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	//所有チェック
	if cart.UserID != userID && role != model.RoleAdmin {
		return CheckoutOutput{}, NewHTTPError(http.StatusForbidden, "forbidden")
	}

	items, err := u.cartItemRepo.ListByCartID(ctx, cart.ID)
	if err != nil {
		return CheckoutOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	if len(items) == 0 {
		return CheckoutOutput{}, NewHTTPError(http.StatusNotFound, "cart is empty")
	}

	lineItems := make([]payment.LineItem, 0, len(items))
	for _, ci := range items {
		p, err := u.productRepo.FindByID(ctx, ci.ProductID)
		if errors.Is(err, repo.ErrNotFound) {
			return CheckoutOutput{}, NewHTTPError(http.StatusConflict, "cart references missing product")
		}
		if err != nil {
			return CheckoutOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
		}

		lineItems = append(lineItems, payment.LineItem{
			Name:       p.Name,
			UnitAmount: p.Price,
			Quantity:   ci.Quantity,
			Currency:   u.currency,
		})
	}

	session, err := u.gateway.CreateCheckoutSession(ctx, payment.CreateSessionInput{
		LineItems:         lineItems,
		ClientReferenceID: strconv.FormatInt(cart.ID, 10),
		SuccessURL:        u.successURL,
		CancelURL:         u.cancelURL,
	})
	if err != nil {
		//外部サービスの失敗はハングせず502で返す
		return CheckoutOutput{}, NewHTTPError(http.StatusBadGateway, "payment gateway error")
	}

	return CheckoutOutput{URL: session.URL}, nil
}
