package model

const ArmyMovesTopic = "peril.army_moves"

// Move carries the piece at its destination, not its origin.
type Move struct {
	Username string `json:"username"`
	Piece    Piece  `json:"piece"`
}

func (Move) GetEventTopicName() string {
	return ArmyMovesTopic
}
