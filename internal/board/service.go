package board

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/kollektive-hackathon/peril-backend/internal/pkg/model"
	"github.com/kollektive-hackathon/peril-backend/internal/pkg/pubsub"
	"github.com/kollektive-hackathon/peril-backend/internal/pkg/reject"
	"github.com/kollektive-hackathon/peril-backend/internal/pkg/utils"
	"github.com/kollektive-hackathon/peril-backend/internal/pkg/ws"
	"github.com/kollektive-hackathon/peril-backend/internal/war"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

const (
	playerNotFound = "error.player.not-found"
	publishFailed  = "error.move.publish-failed"
	batchConflict  = "error.battle.batch-conflict"
)

type boardService struct {
	repo   repository
	broker pubsub.Broker
	hub    *ws.WebSocketNotificationHub

	now   func() time.Time
	newId func() string

	// one resolution at a time per instance; CloseBatch guards across instances
	resolveMu sync.Mutex
}

func newBoardService(repo repository, broker pubsub.Broker, hub *ws.WebSocketNotificationHub) *boardService {
	return &boardService{
		repo:   repo,
		broker: broker,
		hub:    hub,
		now:    time.Now,
		newId:  uuid.NewString,
	}
}

func (s *boardService) savePlayer(ctx context.Context, user model.User) *reject.ProblemWithTrace {
	if err := s.repo.SavePlayer(ctx, user); err != nil {
		return reject.Unexpected(err)
	}
	return nil
}

func (s *boardService) replacePieces(ctx context.Context, name string, pieces []model.Piece) *reject.ProblemWithTrace {
	err := s.repo.ReplacePieces(ctx, name, pieces)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return notFound(name, err)
	}
	if err != nil {
		return reject.Unexpected(err)
	}
	return nil
}

func (s *boardService) getPlayers(ctx context.Context) ([]model.User, *reject.ProblemWithTrace) {
	users, err := s.repo.FindPlayers(ctx)
	if err != nil {
		return nil, reject.Unexpected(err)
	}
	return users, nil
}

func (s *boardService) getPlayer(ctx context.Context, name string) (*model.User, *reject.ProblemWithTrace) {
	user, err := s.repo.FindPlayer(ctx, name)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, notFound(name, err)
	}
	if err != nil {
		return nil, reject.Unexpected(err)
	}
	return user, nil
}

// march publishes the move through the broker. Recording happens when the
// board's own subscription receives it.
func (s *boardService) march(ctx context.Context, user model.User, piece model.Piece) (*model.Move, *reject.ProblemWithTrace) {
	var published model.Move
	var publishErr error
	war.March(user, piece, func(mv model.Move) {
		published = mv
		publishErr = s.broker.Publish(ctx, mv)
	})

	if publishErr != nil {
		log.Warn().Err(publishErr).Str("username", user.Name).Msg("Could not publish move")
		return nil, &reject.ProblemWithTrace{
			Problem: reject.NewProblem().
				WithTitle("Move could not be published").
				WithStatus(http.StatusServiceUnavailable).
				WithCode(publishFailed).
				Build(),
			Cause: publishErr,
		}
	}
	return &published, nil
}

func (s *boardService) handleMove(ctx context.Context, data []byte) pubsub.AckType {
	mv, err := utils.JsonDecodeByteStream[model.Move](data)
	if err != nil {
		log.Warn().Err(err).Msg("Error while parsing Move message")
		return pubsub.NackDiscard
	}

	err = s.repo.RecordMove(ctx, model.MoveHistory{
		Id:        s.newId(),
		Username:  mv.Username,
		Location:  mv.Piece.Location,
		PieceName: mv.Piece.Name,
		PlayedAt:  s.now().UTC().UnixNano(),
	})
	if err != nil {
		log.Warn().Err(err).Str("username", mv.Username).Msg("Error while recording Move")
		return pubsub.NackRequeue
	}

	log.Info().
		Str("username", mv.Username).
		Str("location", mv.Piece.Location).
		Msg("Recorded move")
	return pubsub.Ack
}

// resolveBattles resolves every pending move against the current board as a
// single batch.
func (s *boardService) resolveBattles(ctx context.Context) (*model.BattleRound, *reject.ProblemWithTrace) {
	s.resolveMu.Lock()
	defer s.resolveMu.Unlock()

	pending, err := s.repo.PendingMoves(ctx)
	if err != nil {
		return nil, reject.Unexpected(err)
	}
	if len(pending) == 0 {
		return &model.BattleRound{Moves: []model.Move{}, Fights: []model.Piece{}}, nil
	}

	users, err := s.repo.FindPlayers(ctx)
	if err != nil {
		return nil, reject.Unexpected(err)
	}

	moves := make([]model.Move, 0, len(pending))
	moveIds := make([]string, 0, len(pending))
	for _, mh := range pending {
		moves = append(moves, mh.Move())
		moveIds = append(moveIds, mh.Id)
	}

	batchId := s.newId()
	resolvedAt := s.now().UTC().UnixMilli()
	skirmishes := war.Skirmishes(moves, users)
	battles := make([]model.Battle, 0, len(skirmishes))
	for i, sk := range skirmishes {
		battles = append(battles, model.Battle{
			Id:         s.newId(),
			BatchId:    batchId,
			Seq:        i,
			Attacker:   sk.Attacker,
			Defender:   sk.Defender,
			Location:   sk.Piece.Location,
			PieceName:  sk.Piece.Name,
			ResolvedAt: resolvedAt,
		})
	}

	err = s.repo.CloseBatch(ctx, batchId, moveIds, battles)
	if errors.Is(err, errBatchConflict) {
		return nil, &reject.ProblemWithTrace{
			Problem: reject.NewProblem().
				WithTitle("Moves were resolved concurrently").
				WithStatus(http.StatusConflict).
				WithCode(batchConflict).
				Build(),
			Cause: err,
		}
	}
	if err != nil {
		return nil, reject.Unexpected(err)
	}

	round := &model.BattleRound{
		BatchId: batchId,
		Moves:   moves,
		Fights:  war.Fights(skirmishes),
	}

	listeners := s.hub.Publish(ws.BattlesTopic, round)
	log.Info().
		Str("batchId", batchId).
		Int("moves", len(moves)).
		Int("fights", len(round.Fights)).
		Int("listeners", listeners).
		Msg("Resolved battles")

	return round, nil
}

func (s *boardService) getMoves(ctx context.Context, page utils.PageRequest) ([]model.MoveHistory, int64, *reject.ProblemWithTrace) {
	moves, count, err := s.repo.FindMoves(ctx, page)
	if err != nil {
		return nil, 0, reject.Unexpected(err)
	}
	return moves, count, nil
}

func (s *boardService) getBattles(ctx context.Context, page utils.PageRequest) ([]model.Battle, int64, *reject.ProblemWithTrace) {
	battles, count, err := s.repo.FindBattles(ctx, page)
	if err != nil {
		return nil, 0, reject.Unexpected(err)
	}
	return battles, count, nil
}

func notFound(name string, cause error) *reject.ProblemWithTrace {
	return &reject.ProblemWithTrace{
		Problem: reject.NewProblem().
			WithTitle("Player not found").
			WithStatus(http.StatusNotFound).
			WithCode(playerNotFound).
			WithParam("name", name).
			Build(),
		Cause: cause,
	}
}
