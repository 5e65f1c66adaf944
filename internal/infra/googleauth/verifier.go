package googleauth

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	auth "github.com/alittlebroken/ecommerce/internal/usecase/auth_usecase"
)

const tokenInfoURL = "https://oauth2.googleapis.com/tokeninfo"

// Verifier はGoogleのtokeninfoエンドポイントでIDトークンを検証する。
type Verifier struct {
	client *http.Client
}

func NewVerifier(timeout time.Duration) *Verifier {
	return &Verifier{
		client: &http.Client{Timeout: timeout},
	}
}

type tokenInfoResponse struct {
	Sub        string `json:"sub"`
	Email      string `json:"email"`
	GivenName  string `json:"given_name"`
	FamilyName string `json:"family_name"`
}

func (v *Verifier) Verify(ctx context.Context, idToken string) (auth.ExternalIdentity, error) {
	var identity auth.ExternalIdentity

	q := url.Values{}
	q.Set("id_token", idToken)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, tokenInfoURL+"?"+q.Encode(), nil)
	if err != nil {
		return identity, err
	}

	res, err := v.client.Do(req)
	if err != nil {
		return identity, err
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		return identity, fmt.Errorf("tokeninfo status %d", res.StatusCode)
	}

	var info tokenInfoResponse
	if err := json.NewDecoder(res.Body).Decode(&info); err != nil {
		return identity, err
	}
	if info.Sub == "" {
		return identity, fmt.Errorf("tokeninfo: missing subject")
	}

	identity.Subject = info.Sub
	identity.Email = info.Email
	identity.Forename = info.GivenName
	identity.Surname = info.FamilyName
	return identity, nil
}
