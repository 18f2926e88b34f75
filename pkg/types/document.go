package types

import "time"

// StudentDocument represents a file uploaded in support of an application
type StudentDocument struct {
	ID            string    `db:"id" json:"id"`
	StudentID     string    `db:"student_id" json:"studentId"`
	Category      string    `db:"category" json:"category"`
	Description   string    `db:"description" json:"description"`
	FileName      string    `db:"file_name" json:"fileName"`
	FileSizeBytes int64     `db:"file_size_bytes" json:"fileSizeBytes"`
	MimeType      string    `db:"mime_type" json:"mimeType"`
	StorageKey    string    `db:"storage_key" json:"storageKey"`
	UploadedAt    time.Time `db:"uploaded_at" json:"uploadedAt"`
}

// Document category constants
const (
	CategoryTranscripts     = "Academic Transcripts"
	CategoryLanguageTest    = "Language Test Results"
	CategoryIELTS           = "IELTS Score Report"
	CategoryTOEFL           = "TOEFL Score Report"
	CategoryPTE             = "PTE Score Report"
	CategoryDuolingo        = "Duolingo English Test"
	CategoryPassport        = "Passport Copy"
	CategoryStatement       = "Statement of Purpose"
	CategoryRecommendation  = "Recommendation Letters"
	CategoryBankStatement   = "Bank Statement"
	CategorySponsorship     = "Sponsorship Letter"
	CategoryFinancial       = "Financial Documents"
	CategoryResume          = "CV / Resume"
	CategoryOther           = "Other"
)
