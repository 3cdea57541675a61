package resumes

import (
	"time"

	"resume-ingest/internal/parsing"
)

// ParseRequest is the body of POST /resumes/parse.
type ParseRequest struct {
	ResumeID string `json:"resumeId" validate:"required,max=128"`
}

// ListQuery holds paging parameters for GET /resumes.
type ListQuery struct {
	Limit  int `form:"limit" validate:"omitempty,min=1,max=100"`
	Offset int `form:"offset" validate:"omitempty,min=0"`
}

// ResumeResponse is the wire form of a Resume.
type ResumeResponse struct {
	ID            string                `json:"id"`
	FileName      string                `json:"fileName"`
	FileSizeBytes int64                 `json:"fileSize"`
	MimeType      string                `json:"mimeType"`
	Status        Status                `json:"parseStatus"`
	ParsedData    *parsing.ParsedResume `json:"parsedData"`
	ParseError    *string               `json:"parseError"`
	CreatedAt     time.Time             `json:"createdAt"`
	UpdatedAt     time.Time             `json:"updatedAt"`
}

func toResponse(r Resume) ResumeResponse {
	return ResumeResponse{
		ID:            r.ID,
		FileName:      r.FileName,
		FileSizeBytes: r.FileSizeBytes,
		MimeType:      r.MimeType,
		Status:        r.Status,
		ParsedData:    r.ParsedData,
		ParseError:    r.ParseError,
		CreatedAt:     r.CreatedAt,
		UpdatedAt:     r.UpdatedAt,
	}
}
