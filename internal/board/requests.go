package board

import (
	"strings"

	"github.com/kollektive-hackathon/peril-backend/internal/pkg/model"
)

const maxNameLength = 32

type PlayerRequest struct {
	Name   string        `json:"name"`
	Pieces []model.Piece `json:"pieces"`
}

type PiecesRequest struct {
	Pieces []model.Piece `json:"pieces"`
}

type MoveRequest struct {
	Username string      `json:"username"`
	Piece    model.Piece `json:"piece"`
}

// playerName is the stored form of a player name. Moves and path parameters
// go through it too, so a mover always matches its own player.
func playerName(name string) string {
	return strings.TrimSpace(name)
}

func validName(name string) bool {
	name = playerName(name)
	return name != "" && len(name) <= maxNameLength
}

func validPiece(p model.Piece) bool {
	return strings.TrimSpace(p.Location) != "" && strings.TrimSpace(p.Name) != ""
}

func validPieces(pieces []model.Piece) bool {
	for _, p := range pieces {
		if !validPiece(p) {
			return false
		}
	}
	return true
}

func (r PlayerRequest) valid() bool {
	return validName(r.Name) && validPieces(r.Pieces)
}

func (r PlayerRequest) user() model.User {
	pieces := r.Pieces
	if pieces == nil {
		pieces = []model.Piece{}
	}
	return model.User{Name: playerName(r.Name), Pieces: pieces}
}

func (r MoveRequest) valid() bool {
	return validName(r.Username) && validPiece(r.Piece)
}

func (r MoveRequest) user() model.User {
	return model.User{Name: playerName(r.Username)}
}
