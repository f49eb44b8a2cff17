package model

type User struct {
	Name   string  `json:"name"`
	Pieces []Piece `json:"pieces"`
}

type Player struct {
	Id          uint64       `gorm:"primaryKey"`
	Name        string       `gorm:"uniqueIndex"`
	TimeCreated int64
	Pieces      []BoardPiece `gorm:"foreignKey:PlayerId"`
}

func (Player) TableName() string {
	return "player"
}

// User flattens the persisted player into the board view, keeping the
// pieces in their stored order.
func (p Player) User() User {
	pieces := make([]Piece, 0, len(p.Pieces))
	for _, bp := range p.Pieces {
		pieces = append(pieces, bp.Piece())
	}
	return User{Name: p.Name, Pieces: pieces}
}
