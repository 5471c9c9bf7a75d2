package models

import "time"

// Certificate is the stored PDF record of a graded attempt. One per attempt.
type Certificate struct {
	ID        string    `db:"id" json:"id"`
	AttemptID string    `db:"attempt_id" json:"attemptId"`
	UserID    string    `db:"user_id" json:"userId"`
	FilePath  string    `db:"file_path" json:"-"`
	IssuedAt  time.Time `db:"issued_at" json:"issuedAt"`
}

// CertificateResponse returns the signed download link.
type CertificateResponse struct {
	Success        bool   `json:"success"`
	CertificateURL string `json:"certificateUrl"`
}
