package token

// Value combines a scanned token's source position with the literal payload
// carried by tokens that have one: the raw text, plus the decoded Int,
// Float, or String form for INT, FLOAT, and STRING tokens respectively.
type Value struct {
	Raw   string
	Pos   Pos
	Int   int64
	Float float64
	Str   string
}
