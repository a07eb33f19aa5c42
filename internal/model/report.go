package model

type IndexReport struct {
	ProjectID string `json:"project_id"`
	Attempted int    `json:"attempted"`
	Succeeded int    `json:"succeeded"`
	Failed    int    `json:"failed"`
	Filtered  int    `json:"filtered"`
	StartedAt int64  `json:"started_at"`
	EndedAt   int64  `json:"ended_at"`
}

type CommitSyncReport struct {
	ProjectID     string `json:"project_id"`
	Fetched       int    `json:"fetched"`
	New           int    `json:"new"`
	Inserted      int    `json:"inserted"`
	SummaryFailed int    `json:"summary_failed"`
}
