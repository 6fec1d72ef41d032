package bracket

// Round identifies a tournament round. The numeric order is the play
// order, First Four first.
type Round int

const (
	FirstFour Round = iota
	RoundOf64
	RoundOf32
	Sweet16
	Elite8
	FinalFour
	Championship
)

var roundLabels = map[Round]string{
	FirstFour:    "First Four",
	RoundOf64:    "Round of 64",
	RoundOf32:    "Round of 32",
	Sweet16:      "Sweet 16",
	Elite8:       "Elite Eight",
	FinalFour:    "Final Four",
	Championship: "Championship",
}

// First Four games never count for scoring
var roundPoints = map[Round]int{
	FirstFour:    0,
	RoundOf64:    1,
	RoundOf32:    2,
	Sweet16:      4,
	Elite8:       8,
	FinalFour:    16,
	Championship: 32,
}

// Points returns the value of a correct prediction in this round.
func (r Round) Points() int {
	return roundPoints[r]
}

func (r Round) Label() string {
	if label, ok := roundLabels[r]; ok {
		return label
	}
	return "Unknown Round"
}

func (r Round) Valid() bool {
	return r >= FirstFour && r <= Championship
}

// Rounds lists every round in play order.
func Rounds() []Round {
	return []Round{FirstFour, RoundOf64, RoundOf32, Sweet16, Elite8, FinalFour, Championship}
}
