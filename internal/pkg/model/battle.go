package model

type Battle struct {
	Id         string `gorm:"primaryKey" json:"id"`
	BatchId    string `json:"batchId"`
	Seq        int    `json:"seq"`
	Attacker   string `json:"attacker"`
	Defender   string `json:"defender"`
	Location   string `json:"location"`
	PieceName  string `json:"pieceName"`
	ResolvedAt int64  `json:"resolvedAt"`
}

func (Battle) TableName() string {
	return "battle"
}

type BattleRound struct {
	BatchId string  `json:"batchId,omitempty"`
	Moves   []Move  `json:"moves"`
	Fights  []Piece `json:"fights"`
}
