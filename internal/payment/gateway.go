package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
)

var ErrGatewayUnavailable = errors.New("payment gateway unavailable")

// セッション作成に載せる1明細。
// UnitAmountは最小通貨単位。
type LineItem struct {
	Name       string `json:"name"`
	UnitAmount int64  `json:"unit_amount"`
	Quantity   int64  `json:"quantity"`
	Currency   string `json:"currency"`
}

type CreateSessionInput struct {
	LineItems []LineItem

	//cart idをここに入れて、webhookで返してもらう
	ClientReferenceID string

	SuccessURL string
	CancelURL  string
}

// Gateway は外部決済サービスへの約束。
// 中身は不透明な外部サービスとして扱う。
type Gateway interface {
	CreateCheckoutSession(ctx context.Context, in CreateSessionInput) (CheckoutSession, error)
}

// HTTPGateway は決済ゲートウェイのAPIを叩く実装。
// 外部サービスなのでタイムアウトは必ず設定し、ハングせずエラーを返す。
type HTTPGateway struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

func NewHTTPGateway(baseURL string, apiKey string, timeout time.Duration) *HTTPGateway {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &HTTPGateway{
		baseURL: baseURL,
		apiKey:  apiKey,
		client:  &http.Client{Timeout: timeout},
	}
}

type createSessionRequest struct {
	PaymentMethodTypes []string   `json:"payment_method_types"`
	LineItems          []LineItem `json:"line_items"`
	Mode               string     `json:"mode"`
	ClientReferenceID  string     `json:"client_reference_id"`
	SuccessURL         string     `json:"success_url"`
	CancelURL          string     `json:"cancel_url"`
}

func (g *HTTPGateway) CreateCheckoutSession(ctx context.Context, in CreateSessionInput) (CheckoutSession, error) {
	body, err := json.Marshal(createSessionRequest{
		PaymentMethodTypes: []string{"card"},
		LineItems:          in.LineItems,
		Mode:               "payment",
		ClientReferenceID:  in.ClientReferenceID,
		SuccessURL:         in.SuccessURL,
		CancelURL:          in.CancelURL,
	})
	if err != nil {
		return CheckoutSession{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+"/v1/checkout/sessions", bytes.NewReader(body))
	if err != nil {
		return CheckoutSession{}, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+g.apiKey)

	//リトライ時に二重セッションを作らないためのキー
	req.Header.Set("Idempotency-Key", uuid.NewString())

	resp, err := g.client.Do(req)
	if err != nil {
		return CheckoutSession{}, fmt.Errorf("%w: %v", ErrGatewayUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		//エラー本文は診断用に短く読む
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return CheckoutSession{}, fmt.Errorf("%w: status %d: %s", ErrGatewayUnavailable, resp.StatusCode, msg)
	}

	var session CheckoutSession
	if err := json.NewDecoder(resp.Body).Decode(&session); err != nil {
		return CheckoutSession{}, fmt.Errorf("%w: %v", ErrGatewayUnavailable, err)
	}
	if session.URL == "" {
		return CheckoutSession{}, fmt.Errorf("%w: empty redirect url", ErrGatewayUnavailable)
	}

	return session, nil
}
