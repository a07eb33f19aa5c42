package model

type Commit struct {
	ID           string `json:"id"`
	ProjectID    string `json:"project_id"`
	CommitHash   string `json:"commit_hash"`
	AuthorName   string `json:"author_name"`
	AuthorAvatar string `json:"author_avatar"`
	Message      string `json:"message"`
	CommitTime   int64  `json:"commit_time"`
	Summary      string `json:"summary"`
	Ctime        int64  `json:"ctime"`
	Mtime        int64  `json:"mtime"`
}
