package entities

// Money amounts are kept in minor units (cents) to stay exact under arithmetic.
type Money struct {
	Amount   int64  `json:"amount" db:"amount"`
	Currency string `json:"currency" db:"currency"`
}
