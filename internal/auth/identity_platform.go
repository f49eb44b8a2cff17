package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/kollektive-hackathon/peril-backend/internal/pkg/reject"
	"github.com/kollektive-hackathon/peril-backend/internal/pkg/utils"
	"github.com/rs/zerolog/log"
)

const (
	signInEndpoint        = "https://identitytoolkit.googleapis.com/v1/accounts:signInWithIdp"
	refreshTokenEndpoint  = "https://securetoken.googleapis.com/v1/token"
	identityPlatformLimit = 10 * time.Second
)

type identityPlatformClient struct {
	httpClient      *http.Client
	apiKey          string
	signInUrl       string
	refreshTokenUrl string
}

func newIdentityPlatformClient(apiKey string) *identityPlatformClient {
	return &identityPlatformClient{
		httpClient:      &http.Client{Timeout: identityPlatformLimit},
		apiKey:          apiKey,
		signInUrl:       signInEndpoint,
		refreshTokenUrl: refreshTokenEndpoint,
	}
}

type identityPlatformSignInRequest struct {
	PostBody            string `json:"postBody"`
	RequestURI          string `json:"requestUri"`
	ReturnIDPCredential bool   `json:"returnIdpCredential"`
	ReturnSecureToken   bool   `json:"returnSecureToken"`
}

type TokenPair struct {
	LocalID      string `json:"localId,omitempty"`
	Email        string `json:"email,omitempty"`
	IDToken      string `json:"idToken"`
	RefreshToken string `json:"refreshToken"`
	ExpiresIn    string `json:"expiresIn"`
}

type identityPlatformRefreshRequest struct {
	RefreshToken string `json:"refreshToken"`
	GrantType    string `json:"grant_type"`
}

type identityPlatformRefreshResponse struct {
	IDToken      string `json:"id_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    string `json:"expires_in"`
	UserID       string `json:"user_id"`
}

func (ipc *identityPlatformClient) signInWithIdp(ctx context.Context, provider string, req IDTokenRequest) (*TokenPair, *reject.ProblemWithTrace) {
	postBody := fmt.Sprintf("providerId=%s", provider)
	if req.IDToken == "" {
		postBody = fmt.Sprintf("%s&access_token=%s", postBody, req.AccessToken)
	} else {
		postBody = fmt.Sprintf("%s&id_token=%s", postBody, req.IDToken)
	}

	var tokens TokenPair
	err := ipc.post(ctx, ipc.signInUrl, identityPlatformSignInRequest{
		PostBody:            postBody,
		RequestURI:          "http://internal",
		ReturnIDPCredential: true,
		ReturnSecureToken:   true,
	}, &tokens)
	if err != nil {
		return nil, err
	}

	log.Debug().Str("provider", provider).Msg("Exchanged provider token for an Identity Platform token pair")
	return &tokens, nil
}

func (ipc *identityPlatformClient) refresh(ctx context.Context, refreshToken string) (*TokenPair, *reject.ProblemWithTrace) {
	var res identityPlatformRefreshResponse
	err := ipc.post(ctx, ipc.refreshTokenUrl, identityPlatformRefreshRequest{
		RefreshToken: refreshToken,
		GrantType:    "refresh_token",
	}, &res)
	if err != nil {
		return nil, err
	}

	return &TokenPair{
		LocalID:      res.UserID,
		IDToken:      res.IDToken,
		RefreshToken: res.RefreshToken,
		ExpiresIn:    res.ExpiresIn,
	}, nil
}

func (ipc *identityPlatformClient) post(ctx context.Context, endpoint string, payload any, target any) *reject.ProblemWithTrace {
	body, err := utils.JsonEncode(payload)
	if err != nil {
		return reject.Unexpected(err)
	}

	uri := fmt.Sprintf("%s?key=%s", endpoint, ipc.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, uri, bytes.NewReader(body))
	if err != nil {
		return reject.Unexpected(err)
	}
	req.Header.Set("Content-Type", "application/json")

	res, err := ipc.httpClient.Do(req)
	if err != nil {
		log.Error().Err(err).Msg("Error calling Google Identity Platform")
		return tokenRequestProblem(http.StatusBadGateway, "", err)
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		errResBody, _ := utils.JsonDecode[GoogleIdentityPlatformErrorResponse](res.Body)
		log.Info().
			Interface("response", errResBody).
			Msg("Google Identity Platform rejected token request")
		return tokenRequestProblem(res.StatusCode, errResBody.Error.Message, fmt.Errorf("identity platform status %d", res.StatusCode))
	}

	if err := json.NewDecoder(res.Body).Decode(target); err != nil {
		return reject.Unexpected(err)
	}
	return nil
}

func tokenRequestProblem(status int, detail string, cause error) *reject.ProblemWithTrace {
	return &reject.ProblemWithTrace{
		Problem: reject.NewProblem().
			WithTitle("Failed to exchange token with Google Identity Platform").
			WithStatus(status).
			WithDetail(detail).
			WithCode(errorTokenRequestError).
			Build(),
		Cause: cause,
	}
}

type GoogleIdentityPlatformErrorResponse struct {
	Error struct {
		Code    uint   `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status,omitempty"`
	} `json:"error"`
}
