package models

// ErrorResponse represents an API error
type ErrorResponse struct {
	Error     string `json:"error"`
	Message   string `json:"message,omitempty"`
	Code      int    `json:"code"`
	Status    string `json:"status,omitempty"`
	Retryable bool   `json:"retryable,omitempty"`
}

// BoxView is what the API returns for a single box.
// Status is "unknown" whenever the box could not be evaluated.
type BoxView struct {
	ContestID  int64      `json:"contest_id"`
	LocalIndex int        `json:"local_index"`
	TokenID    int64      `json:"token_id"`
	Row        int        `json:"row"`
	Col        int        `json:"col"`
	HomeDigit  *int       `json:"home_digit,omitempty"`
	AwayDigit  *int       `json:"away_digit,omitempty"`
	Owner      string     `json:"owner,omitempty"`
	Claimed    bool       `json:"claimed"`
	Status     string     `json:"status"`
	Result     *WinResult `json:"result,omitempty"`
}

const (
	BoxStatusEvaluated = "evaluated"
	BoxStatusUnknown   = "unknown"
)

// ContestPage is one page of the newest-first contest listing
type ContestPage struct {
	Total    int64      `json:"total"`
	Start    int64      `json:"start"`
	Limit    int64      `json:"limit"`
	IDs      []int64    `json:"ids"`
	Contests []*Contest `json:"contests"`
}

// PayoutsView lists what each quarter pays out of a contest's pot
type PayoutsView struct {
	ContestID int64           `json:"contest_id"`
	Basis     string          `json:"basis"`
	Pot       string          `json:"pot"`
	Symbol    string          `json:"symbol"`
	Payouts   []QuarterPayout `json:"payouts"`
}

// WinnersView lists the winning box of every confirmed quarter
type WinnersView struct {
	ContestID int64        `json:"contest_id"`
	QComplete int          `json:"q_complete"`
	Winners   []WinningBox `json:"winners"`
}
