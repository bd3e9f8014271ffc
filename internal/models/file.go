package models

import "time"

// ProjectFile is the metadata row of an attachment kept in object storage
// under FilePath.
type ProjectFile struct {
	ID        string    `json:"id"`
	ProjectID string    `json:"project_id"`
	FileName  string    `json:"file_name"`
	FileSize  int64     `json:"file_size"`
	FileType  string    `json:"file_type"`
	FilePath  string    `json:"file_path"`
	UserID    string    `json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
}

// FileResult reports the outcome of one item in a batch file operation.
type FileResult struct {
	Name  string `json:"name"`
	Error string `json:"error,omitempty"`
}

// Activity is an audit feed entry.
type Activity struct {
	ID          string    `json:"id"`
	ProjectID   string    `json:"project_id"`
	ProjectName string    `json:"project_name"`
	UserID      string    `json:"user_id"`
	Action      string    `json:"action"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
}

// Activity actions.
const (
	ActionProjectCreated = "project_created"
	ActionProjectUpdated = "project_updated"
	ActionProjectDeleted = "project_deleted"
	ActionFileUploaded   = "file_uploaded"
	ActionFileDeleted    = "file_deleted"
)
