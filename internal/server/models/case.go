package models

import "time"

// Case is an insurance claim filed by an account. Files holds object-storage
// keys of uploaded attachments; the blobs themselves live in S3-compatible
// storage and are served through presigned URLs.
type Case struct {
	ID             string
	AccountID      string
	TypeOfInjury   string
	DateOfIncident time.Time
	Description    string
	Files          []string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}
