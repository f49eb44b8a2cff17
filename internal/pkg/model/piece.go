package model

type Piece struct {
	Location string `json:"location"`
	Name     string `json:"name"`
}

type BoardPiece struct {
	Id       uint64 `gorm:"primaryKey"`
	PlayerId uint64
	Position int
	Location string
	Name     string
}

func (BoardPiece) TableName() string {
	return "board_piece"
}

func (bp BoardPiece) Piece() Piece {
	return Piece{Location: bp.Location, Name: bp.Name}
}
