// Package war turns piece movements into move events and resolves batches
// of those events into battles against the current board.
package war

import "github.com/kollektive-hackathon/peril-backend/internal/pkg/model"

// March hands a single move for the user's piece to publish. The piece must
// already carry its destination location.
func March(user model.User, piece model.Piece, publish func(model.Move)) {
	publish(model.Move{
		Username: user.Name,
		Piece:    piece,
	})
}

// DoBattles returns every piece owned by someone other than the mover that
// sits on a move's destination, in move, user, piece order.
func DoBattles(moves []model.Move, users []model.User) []model.Piece {
	fights := []model.Piece{}
	resolve(moves, users, func(_ model.Move, _ string, p model.Piece) {
		fights = append(fights, p)
	})
	return fights
}

type Skirmish struct {
	Attacker string      `json:"attacker"`
	Defender string      `json:"defender"`
	Piece    model.Piece `json:"piece"`
}

// Skirmishes walks the board like DoBattles but keeps who moved and who
// owns each contested piece.
func Skirmishes(moves []model.Move, users []model.User) []Skirmish {
	skirmishes := []Skirmish{}
	resolve(moves, users, func(mv model.Move, defender string, p model.Piece) {
		skirmishes = append(skirmishes, Skirmish{
			Attacker: mv.Username,
			Defender: defender,
			Piece:    p,
		})
	})
	return skirmishes
}

func Fights(skirmishes []Skirmish) []model.Piece {
	fights := make([]model.Piece, 0, len(skirmishes))
	for _, s := range skirmishes {
		fights = append(fights, s.Piece)
	}
	return fights
}

// Fanout returns a publish sink that forwards each move to every sink in
// order.
func Fanout(sinks ...func(model.Move)) func(model.Move) {
	return func(mv model.Move) {
		for _, sink := range sinks {
			sink(mv)
		}
	}
}

func resolve(moves []model.Move, users []model.User, found func(model.Move, string, model.Piece)) {
	for _, mv := range moves {
		for _, u := range users {
			if u.Name == mv.Username {
				continue
			}
			for _, p := range u.Pieces {
				if p.Location == mv.Piece.Location {
					found(mv, u.Name, p)
				}
			}
		}
	}
}
