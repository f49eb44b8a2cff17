package model

type MoveHistory struct {
	Id        string  `gorm:"primaryKey" json:"id"`
	Username  string  `json:"username"`
	Location  string  `json:"location"`
	PieceName string  `json:"pieceName"`
	PlayedAt  int64   `json:"playedAt"`
	BatchId   *string `json:"batchId,omitempty"`
}

func (MoveHistory) TableName() string {
	return "move_history"
}

func (mh MoveHistory) Move() Move {
	return Move{
		Username: mh.Username,
		Piece:    Piece{Location: mh.Location, Name: mh.PieceName},
	}
}
