package payment

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

var (
	ErrMissingSignature = errors.New("missing signature header")
	ErrInvalidSignature = errors.New("invalid signature")
	ErrStaleTimestamp   = errors.New("signature timestamp outside tolerance")
)

// 署名の再生攻撃対策の許容時間
const DefaultTolerance = 5 * time.Minute

// VerifySignature はwebhook署名を検証する。
// ヘッダ形式: "t=<unix>,v1=<hex(HMAC-SHA256)>"
// 署名対象は "<t>.<payload>" の生バイト列。
// JSONを一度パースして再シリアライズした物に対しては検証しない。
func VerifySignature(payload []byte, header string, secret string, tolerance time.Duration, now time.Time) error {
	if strings.TrimSpace(header) == "" {
		return ErrMissingSignature
	}

	var ts int64 = -1
	var sigs []string

	for _, part := range strings.Split(header, ",") {
		kv := strings.SplitN(strings.TrimSpace(part), "=", 2)
		if len(kv) != 2 {
			continue
		}
		switch kv[0] {
		case "t":
			v, err := strconv.ParseInt(kv[1], 10, 64)
			if err != nil {
				return ErrInvalidSignature
			}
			ts = v
		case "v1":
			sigs = append(sigs, kv[1])
		}
	}

	if ts < 0 || len(sigs) == 0 {
		return ErrInvalidSignature
	}

	if tolerance > 0 {
		diff := now.Sub(time.Unix(ts, 0))
		if diff < 0 {
			diff = -diff
		}
		if diff > tolerance {
			return ErrStaleTimestamp
		}
	}

	expected := computeSignature(payload, ts, secret)

	for _, sig := range sigs {
		raw, err := hex.DecodeString(sig)
		if err != nil {
			continue
		}
		if hmac.Equal(raw, expected) {
			return nil
		}
	}

	return ErrInvalidSignature
}

// Sign はテストやローカル検証用にヘッダ値を作る。
func Sign(payload []byte, secret string, now time.Time) string {
	ts := now.Unix()
	return fmt.Sprintf("t=%d,v1=%s", ts, hex.EncodeToString(computeSignature(payload, ts, secret)))
}

func computeSignature(payload []byte, ts int64, secret string) []byte {
	mac := hmac.New(sha256.New, []byte(secret))
	fmt.Fprintf(mac, "%d.", ts)
	mac.Write(payload)
	return mac.Sum(nil)
}
