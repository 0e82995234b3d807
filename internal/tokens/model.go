package tokens

import "time"

// Balance is one practitioner's token ledger entry. A consultation debits a
// fixed number of tokens from it.
type Balance struct {
	UID            string    `json:"uid" db:"uid"`
	Email          string    `json:"email" db:"email"`
	Plan           string    `json:"plan" db:"plan"`
	TotalTokens    int       `json:"totalTokens" db:"total_tokens"`
	UsedTokens     int       `json:"usedTokens" db:"used_tokens"`
	LastUpdated    time.Time `json:"lastUpdated" db:"last_updated"`
	ExpirationDate time.Time `json:"expirationDate" db:"expiration_date"`
}

// Remaining reports how many tokens are left. A ledger that drifted past its
// total (used > total) reads as zero remaining, never negative.
func (b Balance) Remaining() int {
	if b.UsedTokens >= b.TotalTokens {
		return 0
	}
	return b.TotalTokens - b.UsedTokens
}
