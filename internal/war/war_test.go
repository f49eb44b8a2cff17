package war

import (
	"testing"

	"github.com/kollektive-hackathon/peril-backend/internal/pkg/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func board() []model.User {
	return []model.User{
		{
			Name: "Toussaint Louverture",
			Pieces: []model.Piece{
				{Location: "San Domingo", Name: "Cavalry"},
				{Location: "San Domingo", Name: "Infantry"},
			},
		},
		{
			Name: "Napoleon Bonaparte",
			Pieces: []model.Piece{
				{Location: "France", Name: "Infantry"},
				{Location: "Russia", Name: "Infantry"},
			},
		},
		{
			Name: "George Washington",
			Pieces: []model.Piece{
				{Location: "United States", Name: "Artillery"},
			},
		},
	}
}

func TestMarchPublishesOnce(t *testing.T) {
	user := model.User{Name: "Napoleon Bonaparte"}
	piece := model.Piece{Location: "Russia", Name: "Infantry"}

	var published []model.Move
	March(user, piece, func(mv model.Move) {
		published = append(published, mv)
	})

	require.Len(t, published, 1)
	assert.Equal(t, model.Move{Username: "Napoleon Bonaparte", Piece: piece}, published[0])
}

func TestDoBattles(t *testing.T) {
	tests := []struct {
		name  string
		moves []model.Move
		users func() []model.User
		want  []model.Piece
	}{
		{
			name: "single collision",
			moves: []model.Move{
				{Username: "Toussaint Louverture", Piece: model.Piece{Location: "United States", Name: "Cavalry"}},
			},
			users: board,
			want: []model.Piece{
				{Location: "United States", Name: "Artillery"},
			},
		},
		{
			name: "collisions follow user order",
			moves: []model.Move{
				{Username: "Toussaint Louverture", Piece: model.Piece{Location: "United States", Name: "Cavalry"}},
			},
			users: func() []model.User {
				users := board()
				users[1].Pieces = append(users[1].Pieces, model.Piece{Location: "United States", Name: "Cavalry"})
				return users
			},
			want: []model.Piece{
				{Location: "United States", Name: "Cavalry"},
				{Location: "United States", Name: "Artillery"},
			},
		},
		{
			name: "own pieces are never fought",
			moves: []model.Move{
				{Username: "Toussaint Louverture", Piece: model.Piece{Location: "San Domingo", Name: "Cavalry"}},
			},
			users: board,
			want:  []model.Piece{},
		},
		{
			name: "empty destination",
			moves: []model.Move{
				{Username: "George Washington", Piece: model.Piece{Location: "Egypt", Name: "Artillery"}},
			},
			users: board,
			want:  []model.Piece{},
		},
		{
			name: "repeated moves are not deduplicated",
			moves: []model.Move{
				{Username: "Napoleon Bonaparte", Piece: model.Piece{Location: "United States", Name: "Infantry"}},
				{Username: "Toussaint Louverture", Piece: model.Piece{Location: "United States", Name: "Cavalry"}},
			},
			users: board,
			want: []model.Piece{
				{Location: "United States", Name: "Artillery"},
				{Location: "United States", Name: "Artillery"},
			},
		},
		{
			name: "unknown mover fights everyone",
			moves: []model.Move{
				{Username: "Hannibal", Piece: model.Piece{Location: "San Domingo", Name: "Elephant"}},
			},
			users: board,
			want: []model.Piece{
				{Location: "San Domingo", Name: "Cavalry"},
				{Location: "San Domingo", Name: "Infantry"},
			},
		},
		{
			name:  "no moves",
			moves: nil,
			users: board,
			want:  []model.Piece{},
		},
		{
			name: "no users",
			moves: []model.Move{
				{Username: "Toussaint Louverture", Piece: model.Piece{Location: "United States", Name: "Cavalry"}},
			},
			users: func() []model.User { return nil },
			want:  []model.Piece{},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DoBattles(tt.moves, tt.users())
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDoBattlesIsRepeatable(t *testing.T) {
	moves := []model.Move{
		{Username: "Toussaint Louverture", Piece: model.Piece{Location: "United States", Name: "Cavalry"}},
		{Username: "George Washington", Piece: model.Piece{Location: "France", Name: "Artillery"}},
	}
	users := board()

	first := DoBattles(moves, users)
	second := DoBattles(moves, users)

	assert.Equal(t, first, second)
	assert.Equal(t, board(), users)
}

func TestDoBattlesExcludesMoverPieces(t *testing.T) {
	users := board()
	owned := map[model.Piece]string{}
	for _, u := range users {
		for _, p := range u.Pieces {
			owned[p] = u.Name
		}
	}

	for _, u := range users {
		for _, p := range u.Pieces {
			mv := model.Move{Username: u.Name, Piece: p}
			for _, fight := range DoBattles([]model.Move{mv}, users) {
				assert.NotEqual(t, u.Name, owned[fight])
			}
		}
	}
}

func TestSkirmishesMatchDoBattles(t *testing.T) {
	users := board()
	users[1].Pieces = append(users[1].Pieces, model.Piece{Location: "United States", Name: "Cavalry"})
	moves := []model.Move{
		{Username: "Toussaint Louverture", Piece: model.Piece{Location: "United States", Name: "Cavalry"}},
		{Username: "George Washington", Piece: model.Piece{Location: "San Domingo", Name: "Artillery"}},
	}

	skirmishes := Skirmishes(moves, users)

	assert.Equal(t, DoBattles(moves, users), Fights(skirmishes))
	require.Len(t, skirmishes, 4)
	assert.Equal(t, Skirmish{
		Attacker: "Toussaint Louverture",
		Defender: "Napoleon Bonaparte",
		Piece:    model.Piece{Location: "United States", Name: "Cavalry"},
	}, skirmishes[0])
	assert.Equal(t, "George Washington", skirmishes[1].Defender)
	assert.Equal(t, "Toussaint Louverture", skirmishes[3].Defender)
}

func TestFanoutKeepsSinkOrder(t *testing.T) {
	var calls []string
	sink := Fanout(
		func(mv model.Move) { calls = append(calls, "first:"+mv.Username) },
		func(mv model.Move) { calls = append(calls, "second:"+mv.Username) },
	)

	March(model.User{Name: "Napoleon Bonaparte"}, model.Piece{Location: "Egypt", Name: "Infantry"}, sink)

	assert.Equal(t, []string{"first:Napoleon Bonaparte", "second:Napoleon Bonaparte"}, calls)
}
