package board

import (
	"context"
	"errors"
	"time"

	"github.com/kollektive-hackathon/peril-backend/internal/pkg/model"
	"github.com/kollektive-hackathon/peril-backend/internal/pkg/utils"
	"gorm.io/gorm"
)

var errBatchConflict = errors.New("pending moves were resolved by another batch")

type repository interface {
	SavePlayer(ctx context.Context, user model.User) error
	ReplacePieces(ctx context.Context, name string, pieces []model.Piece) error
	FindPlayers(ctx context.Context) ([]model.User, error)
	FindPlayer(ctx context.Context, name string) (*model.User, error)

	RecordMove(ctx context.Context, move model.MoveHistory) error
	PendingMoves(ctx context.Context) ([]model.MoveHistory, error)
	CloseBatch(ctx context.Context, batchId string, moveIds []string, battles []model.Battle) error

	FindMoves(ctx context.Context, page utils.PageRequest) ([]model.MoveHistory, int64, error)
	FindBattles(ctx context.Context, page utils.PageRequest) ([]model.Battle, int64, error)
}

func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&model.Player{},
		&model.BoardPiece{},
		&model.MoveHistory{},
		&model.Battle{},
	)
}

type gormRepository struct {
	db *gorm.DB
}

func (r *gormRepository) SavePlayer(ctx context.Context, user model.User) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var player model.Player
		res := tx.Where("name = ?", user.Name).Limit(1).Find(&player)
		if res.Error != nil {
			return res.Error
		}

		if res.RowsAffected == 0 {
			player = model.Player{
				Name:        user.Name,
				TimeCreated: time.Now().UTC().UnixMilli(),
			}
			if err := tx.Create(&player).Error; err != nil {
				return err
			}
		}

		return replacePieces(tx, player.Id, user.Pieces)
	})
}

func (r *gormRepository) ReplacePieces(ctx context.Context, name string, pieces []model.Piece) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var player model.Player
		if err := tx.Where("name = ?", name).First(&player).Error; err != nil {
			return err
		}
		return replacePieces(tx, player.Id, pieces)
	})
}

func replacePieces(tx *gorm.DB, playerId uint64, pieces []model.Piece) error {
	if err := tx.Where("player_id = ?", playerId).Delete(&model.BoardPiece{}).Error; err != nil {
		return err
	}
	if len(pieces) == 0 {
		return nil
	}

	rows := make([]model.BoardPiece, 0, len(pieces))
	for i, p := range pieces {
		rows = append(rows, model.BoardPiece{
			PlayerId: playerId,
			Position: i,
			Location: p.Location,
			Name:     p.Name,
		})
	}
	return tx.Create(&rows).Error
}

func orderedPieces(db *gorm.DB) *gorm.DB {
	return db.Order("position")
}

func (r *gormRepository) FindPlayers(ctx context.Context) ([]model.User, error) {
	var players []model.Player
	err := r.db.WithContext(ctx).
		Preload("Pieces", orderedPieces).
		Order("id").
		Find(&players).Error
	if err != nil {
		return nil, err
	}

	users := make([]model.User, 0, len(players))
	for _, p := range players {
		users = append(users, p.User())
	}
	return users, nil
}

func (r *gormRepository) FindPlayer(ctx context.Context, name string) (*model.User, error) {
	var player model.Player
	err := r.db.WithContext(ctx).
		Preload("Pieces", orderedPieces).
		Where("name = ?", name).
		First(&player).Error
	if err != nil {
		return nil, err
	}

	user := player.User()
	return &user, nil
}

func (r *gormRepository) RecordMove(ctx context.Context, move model.MoveHistory) error {
	return r.db.WithContext(ctx).Create(&move).Error
}

func (r *gormRepository) PendingMoves(ctx context.Context) ([]model.MoveHistory, error) {
	var moves []model.MoveHistory
	err := r.db.WithContext(ctx).
		Where("batch_id IS NULL").
		Order("played_at, id").
		Find(&moves).Error
	return moves, err
}

func (r *gormRepository) CloseBatch(ctx context.Context, batchId string, moveIds []string, battles []model.Battle) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&model.MoveHistory{}).
			Where("id IN ? AND batch_id IS NULL", moveIds).
			Update("batch_id", batchId)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected != int64(len(moveIds)) {
			return errBatchConflict
		}

		if len(battles) == 0 {
			return nil
		}
		return tx.Create(&battles).Error
	})
}

func (r *gormRepository) FindMoves(ctx context.Context, page utils.PageRequest) ([]model.MoveHistory, int64, error) {
	var moves []model.MoveHistory
	var count int64

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&model.MoveHistory{}).Count(&count).Error; err != nil {
			return err
		}
		return tx.Order("played_at DESC, id").
			Limit(page.Size).
			Offset(page.Offset).
			Find(&moves).Error
	})
	return moves, count, err
}

func (r *gormRepository) FindBattles(ctx context.Context, page utils.PageRequest) ([]model.Battle, int64, error) {
	var battles []model.Battle
	var count int64

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&model.Battle{}).Count(&count).Error; err != nil {
			return err
		}
		return tx.Order("resolved_at DESC, seq").
			Limit(page.Size).
			Offset(page.Offset).
			Find(&battles).Error
	})
	return battles, count, err
}
