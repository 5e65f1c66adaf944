package handler

import (
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/alittlebroken/ecommerce/internal/config"
	"github.com/alittlebroken/ecommerce/internal/payment"
	"github.com/alittlebroken/ecommerce/internal/usecase"

	"github.com/labstack/echo/v4"
)

// webhookボディの上限（署名検証前に読む量を制限する）
const maxWebhookBody = 1 << 20

// 署名ヘッダ名
const SignatureHeader = "Gateway-Signature"

// /fulfill/order
// 決済ゲートウェイからのwebhook。JSONバインドは使わず生ボディを読む。
// 署名はシリアライズし直した物ではなく受信した生バイトに対して検証する。
type FulfillmentHandler struct {
	uc             *usecase.FulfillmentUsecase
	endpointSecret string
}

func NewFulfillmentHandler(uc *usecase.FulfillmentUsecase, endpointSecret string) *FulfillmentHandler {
	return &FulfillmentHandler{uc: uc, endpointSecret: endpointSecret}
}

func (h *FulfillmentHandler) RegisterRoutes(e *echo.Echo, cfg config.Config) {
	//認証ミドルウェアは通さない。署名検証だけで守るルート
	e.POST("/fulfill/order", h.fulfillOrder)
}

func (h *FulfillmentHandler) fulfillOrder(c echo.Context) error {
	payload, err := io.ReadAll(io.LimitReader(c.Request().Body, maxWebhookBody))
	if err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "unreadable body"})
	}

	//署名NGならDBには一切書かない
	sig := c.Request().Header.Get(SignatureHeader)
	if err := payment.VerifySignature(payload, sig, h.endpointSecret, payment.DefaultTolerance, time.Now()); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "signature verification failed"})
	}

	ev, err := payment.ParseEvent(payload)
	if err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "malformed event"})
	}

	result, err := h.uc.HandleEvent(c.Request().Context(), ev)
	if err != nil {
		switch {
		case errors.Is(err, usecase.ErrFulfillCartNotFound):
			return c.JSON(http.StatusNotFound, ErrorResponse{Error: "cart not found"})
		case errors.Is(err, usecase.ErrFulfillEmptyCart):
			//支払い済みなのに中身が無い。馬鹿正直に200を返さない
			return c.JSON(http.StatusConflict, ErrorResponse{Error: "cart is empty"})
		default:
			return c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "fulfillment failed"})
		}
	}

	if result.Skipped {
		//対象外イベントや二重配送は成功応答（ゲートウェイに再送させない）
		return c.JSON(http.StatusOK, SuccessResponse{Message: "ignored"})
	}

	return c.JSON(http.StatusOK, SuccessResponse{Message: "fulfilled"})
}
