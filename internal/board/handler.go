package board

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/kollektive-hackathon/peril-backend/internal/pkg/model"
	"github.com/kollektive-hackathon/peril-backend/internal/pkg/pubsub"
	"github.com/kollektive-hackathon/peril-backend/internal/pkg/reject"
	"github.com/kollektive-hackathon/peril-backend/internal/pkg/utils"
	"github.com/kollektive-hackathon/peril-backend/internal/pkg/ws"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

type boardHandler struct {
	board *boardService
}

func RegisterRoutesAndSubscriptions(
	ctx context.Context,
	rg *gin.RouterGroup,
	db *gorm.DB,
	broker pubsub.Broker,
	hub *ws.WebSocketNotificationHub,
	subscriptionId string,
	auth gin.HandlerFunc,
) {
	service := newBoardService(&gormRepository{db: db}, broker, hub)
	registerRoutes(rg, service, auth)

	go pubsub.SubscribeWithRetry(ctx, broker, movesSubscription(service, subscriptionId))
}

func movesSubscription(service *boardService, subscriptionId string) pubsub.SubscriptionHandler {
	return pubsub.SubscriptionHandler{
		SubscriptionId: subscriptionId,
		Topic:          model.ArmyMovesTopic,
		QueueType:      pubsub.DurableSimpleQueue,
		Handler:        service.handleMove,
	}
}

func registerRoutes(rg *gin.RouterGroup, service *boardService, auth gin.HandlerFunc) {
	handler := boardHandler{board: service}

	routes := rg.Group("/board", auth)
	routes.POST("/players", handler.savePlayer)
	routes.GET("/players", handler.getPlayers)
	routes.GET("/players/:name", handler.getPlayer)
	routes.PUT("/players/:name/pieces", handler.replacePieces)

	routes.POST("/moves", handler.march)
	routes.GET("/moves", handler.getMoves)

	routes.POST("/battles", handler.resolveBattles)
	routes.GET("/battles", handler.getBattles)
}

func (h boardHandler) savePlayer(c *gin.Context) {
	body := PlayerRequest{}
	if err := c.BindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, reject.BodyParseProblem())
		return
	}
	if !body.valid() {
		c.JSON(http.StatusBadRequest, reject.RequestValidationProblem())
		return
	}

	user := body.user()
	if err := h.board.savePlayer(c.Request.Context(), user); err != nil {
		c.JSON(err.Problem.Status, err.Problem)
		return
	}

	c.JSON(http.StatusOK, user)
}

func (h boardHandler) getPlayers(c *gin.Context) {
	users, err := h.board.getPlayers(c.Request.Context())
	if err != nil {
		c.JSON(err.Problem.Status, err.Problem)
		return
	}

	c.JSON(http.StatusOK, users)
}

func (h boardHandler) getPlayer(c *gin.Context) {
	user, err := h.board.getPlayer(c.Request.Context(), playerName(c.Param("name")))
	if err != nil {
		c.JSON(err.Problem.Status, err.Problem)
		return
	}

	c.JSON(http.StatusOK, user)
}

func (h boardHandler) replacePieces(c *gin.Context) {
	body := PiecesRequest{}
	if err := c.BindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, reject.BodyParseProblem())
		return
	}
	if !validPieces(body.Pieces) {
		c.JSON(http.StatusBadRequest, reject.RequestValidationProblem())
		return
	}

	name := playerName(c.Param("name"))
	if err := h.board.replacePieces(c.Request.Context(), name, body.Pieces); err != nil {
		c.JSON(err.Problem.Status, err.Problem)
		return
	}

	c.Status(http.StatusNoContent)
}

func (h boardHandler) march(c *gin.Context) {
	body := MoveRequest{}
	if err := c.BindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, reject.BodyParseProblem())
		return
	}
	if !body.valid() {
		c.JSON(http.StatusBadRequest, reject.RequestValidationProblem())
		return
	}

	user := body.user()
	log.Info().
		Str("caller", utils.GetCallerId(c)).
		Str("username", user.Name).
		Msg("Marching piece")

	mv, err := h.board.march(c.Request.Context(), user, body.Piece)
	if err != nil {
		c.JSON(err.Problem.Status, err.Problem)
		return
	}

	c.JSON(http.StatusAccepted, mv)
}

func (h boardHandler) getMoves(c *gin.Context) {
	page, err := utils.NewPageRequest(c)
	if err != nil {
		c.JSON(err.Problem.Status, err.Problem)
		return
	}

	moves, count, err := h.board.getMoves(c.Request.Context(), page)
	if err != nil {
		c.JSON(err.Problem.Status, err.Problem)
		return
	}

	c.JSON(http.StatusOK, utils.Page(page, moves, count))
}

func (h boardHandler) resolveBattles(c *gin.Context) {
	round, err := h.board.resolveBattles(c.Request.Context())
	if err != nil {
		c.JSON(err.Problem.Status, err.Problem)
		return
	}

	c.JSON(http.StatusOK, round)
}

func (h boardHandler) getBattles(c *gin.Context) {
	page, err := utils.NewPageRequest(c)
	if err != nil {
		c.JSON(err.Problem.Status, err.Problem)
		return
	}

	battles, count, err := h.board.getBattles(c.Request.Context(), page)
	if err != nil {
		c.JSON(err.Problem.Status, err.Problem)
		return
	}

	c.JSON(http.StatusOK, utils.Page(page, battles, count))
}
