package model

type JoinCode struct {
	ID        string `json:"id"`
	ProjectID string `json:"project_id"`
	Code      string `json:"code"`
	ExpiresAt int64  `json:"expires_at"`
	UsedAt    int64  `json:"used_at"`
	UsedBy    string `json:"used_by"`
	Ctime     int64  `json:"ctime"`
}
