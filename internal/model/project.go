package model

const (
	RoleAdmin  = "ADMIN"
	RoleMember = "MEMBER"
)

type Project struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	RepoURL     string `json:"repo_url"`
	TokenCipher string `json:"-"`
	Ctime       int64  `json:"ctime"`
	Mtime       int64  `json:"mtime"`
	DeletedAt   int64  `json:"deleted_at"`
}

type ProjectMember struct {
	ProjectID string `json:"project_id"`
	UserID    string `json:"user_id"`
	Role      string `json:"role"`
	Ctime     int64  `json:"ctime"`
	Mtime     int64  `json:"mtime"`
}
