package payment

import (
	"encoding/json"
	"errors"
)

// 決済完了イベントのtype値
const EventTypeCheckoutCompleted = "checkout.session.completed"

var ErrMalformedEvent = errors.New("malformed event payload")

// CheckoutSession はイベントに入る決済セッション。
// ClientReferenceIDにはセッション作成時に渡したcart idが入って返ってくる。
// AmountTotalは最小通貨単位（セント）。
type CheckoutSession struct {
	ID                string `json:"id"`
	ClientReferenceID string `json:"client_reference_id"`
	AmountTotal       int64  `json:"amount_total"`
	Currency          string `json:"currency"`
	URL               string `json:"url,omitempty"`
}

// Event はゲートウェイからのイベント封筒。
type Event struct {
	ID   string `json:"id"`
	Type string `json:"type"`
	Data struct {
		Object CheckoutSession `json:"object"`
	} `json:"data"`
}

// ParseEvent は生のwebhookボディをパースする。
// 署名検証は生バイトに対して済ませてから呼ぶこと。
func ParseEvent(payload []byte) (Event, error) {
	var ev Event
	if err := json.Unmarshal(payload, &ev); err != nil {
		return Event{}, ErrMalformedEvent
	}
	if ev.ID == "" || ev.Type == "" {
		return Event{}, ErrMalformedEvent
	}
	return ev, nil
}
