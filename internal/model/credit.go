package model

const (
	CreditReasonIndex  = "index"
	CreditReasonGrant  = "grant"
	CreditReasonRefund = "refund"
)

type CreditAccount struct {
	UserID  string `json:"user_id"`
	Credits int64  `json:"credits"`
	Mtime   int64  `json:"mtime"`
}

type CreditTransaction struct {
	ID     string `json:"id"`
	UserID string `json:"user_id"`
	Delta  int64  `json:"delta"`
	Reason string `json:"reason"`
	Ref    string `json:"ref"`
	Ctime  int64  `json:"ctime"`
}
