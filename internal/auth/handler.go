package auth

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/kollektive-hackathon/peril-backend/internal/pkg/reject"
	"github.com/rs/zerolog/log"
)

const (
	errorTokenEmpty        string = "error.google-identity-platform-token-provider.token.empty"
	errorTokenRequestError string = "error.google-identity-platform-token-provider.token.google-request-error"
)

type authHandler struct {
	identityPlatform *identityPlatformClient
}

func RegisterRoutes(rg *gin.RouterGroup, apiKey string) {
	registerRoutes(rg, newIdentityPlatformClient(apiKey))
}

func registerRoutes(rg *gin.RouterGroup, client *identityPlatformClient) {
	handler := &authHandler{identityPlatform: client}

	routes := rg.Group("/auth")
	routes.POST("/google", handler.signInWithGoogle)
	routes.POST("/refresh", handler.refreshToken)
}

type IDTokenRequest struct {
	IDToken     string `json:"idToken"`
	AccessToken string `json:"accessToken"`
}

type RefreshTokenRequest struct {
	RefreshToken string `json:"refreshToken"`
}

func (ah *authHandler) signInWithGoogle(c *gin.Context) {
	body := IDTokenRequest{}
	if err := c.BindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, reject.BodyParseProblem())
		return
	}

	if strings.TrimSpace(body.IDToken) == "" && strings.TrimSpace(body.AccessToken) == "" {
		c.JSON(http.StatusBadRequest, emptyTokenProblem("Either idToken or accessToken must be passed"))
		return
	}

	tokens, err := ah.identityPlatform.signInWithIdp(c.Request.Context(), "google.com", body)
	if err != nil {
		c.JSON(err.Problem.Status, err.Problem)
		return
	}

	c.JSON(http.StatusOK, tokens)
}

func (ah *authHandler) refreshToken(c *gin.Context) {
	body := RefreshTokenRequest{}
	if err := c.BindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, reject.BodyParseProblem())
		return
	}

	if strings.TrimSpace(body.RefreshToken) == "" {
		log.Info().Msg("Empty refresh token in provider token request")
		c.JSON(http.StatusBadRequest, emptyTokenProblem("Empty refresh token in provider token request"))
		return
	}

	tokens, err := ah.identityPlatform.refresh(c.Request.Context(), body.RefreshToken)
	if err != nil {
		c.JSON(err.Problem.Status, err.Problem)
		return
	}

	c.JSON(http.StatusOK, tokens)
}

func emptyTokenProblem(title string) reject.Problem {
	return reject.NewProblem().
		WithTitle(title).
		WithStatus(http.StatusBadRequest).
		WithCode(errorTokenEmpty).
		Build()
}
