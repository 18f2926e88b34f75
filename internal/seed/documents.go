package seed

import (
	"context"
	"fmt"
	"time"

	"studybridge/internal/store"
	"studybridge/internal/utils"
	"studybridge/pkg/types"
)

// demoStudentID is a stable ID so repeated seeds target the same student.
const demoStudentID = "seed-student-0000000000000000"

var sampleDocuments = []types.StudentDocument{
	{
		Category:      types.CategoryTranscripts,
		Description:   "Grade 12 transcript, NEB",
		FileName:      "transcript-grade-12.pdf",
		FileSizeBytes: 482_113,
		MimeType:      "application/pdf",
	},
	{
		Category:      types.CategoryDuolingo,
		Description:   "Duolingo English Test certificate",
		FileName:      "duolingo-certificate.pdf",
		FileSizeBytes: 120_554,
		MimeType:      "application/pdf",
	},
	{
		Category:      types.CategoryPassport,
		Description:   "",
		FileName:      "passport-bio-page.jpg",
		FileSizeBytes: 1_204_998,
		MimeType:      "image/jpeg",
	},
}

// SeedDocuments inserts metadata records for a demo student. Storage keys
// are synthetic; no objects are written to the bucket.
func SeedDocuments(ctx context.Context, repo *store.DocumentRepository) ([]*types.StudentDocument, error) {
	out := make([]*types.StudentDocument, 0, len(sampleDocuments))
	for _, doc := range sampleDocuments {
		doc := doc
		doc.ID = utils.NanoID()
		doc.StudentID = demoStudentID
		doc.StorageKey = fmt.Sprintf("documents/seed-%s", doc.FileName)
		doc.UploadedAt = time.Now().UTC()

		if err := repo.CreateDocument(ctx, &doc); err != nil {
			return nil, fmt.Errorf("seed document %s: %w", doc.FileName, err)
		}
		out = append(out, &doc)
	}
	return out, nil
}

func DemoStudentID() string {
	return demoStudentID
}
