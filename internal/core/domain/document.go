package domain

import (
	"io"
	"time"
)

type Document struct {
	ID         string     `json:"id"`
	Title      string     `json:"title"`
	FileName   string     `json:"fileName"`
	FilePath   string     `json:"filePath"`
	MimeType   string     `json:"mimeType"`
	FileSize   int64      `json:"fileSize"`
	UploadedBy *Principal `json:"uploadedBy,omitempty"`
	CreatedAt  time.Time  `json:"createdAt"`
	UpdatedAt  time.Time  `json:"updatedAt"`
}

// DocumentUpload is a file received from a client, not yet stored.
type DocumentUpload struct {
	FileName string
	MimeType string
	Size     int64
	Body     io.Reader
}

// Empty reports whether the upload carries no file content.
func (u *DocumentUpload) Empty() bool {
	return u == nil || u.Body == nil || u.Size <= 0
}
