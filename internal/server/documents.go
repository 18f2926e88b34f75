package server

import (
	"errors"
	"io"
	"net/http"
	"strings"

	"studybridge/internal/intake"
	"studybridge/pkg/types"

	"github.com/alexedwards/flow"
	"github.com/jackc/pgx/v5"
)

const maxUploadMemory = 32 << 20

type uploadForm struct {
	Category    string `form:"category"`
	Description string `form:"description"`
	StudentID   string `form:"student_id"`
}

type uploadResponse struct {
	Documents []*types.StudentDocument `json:"documents"`
	Issues    []issuePayload           `json:"issues,omitempty"`
	Error     string                   `json:"error,omitempty"`
}

type issuePayload struct {
	Severity string `json:"severity"`
	Message  string `json:"message"`
	FileName string `json:"fileName"`
}

// handleUploadDocuments runs a multipart batch through the intake pipeline.
// The whole batch is validated before anything touches the bucket; an
// error on any file rejects every file.
func (s *Service) handleUploadDocuments(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if err := r.ParseMultipartForm(maxUploadMemory); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid multipart payload")
		return
	}

	var in uploadForm
	if err := decoder.Decode(&in, r.MultipartForm.Value); err != nil {
		s.logger.WithError(err).Error("failed to decode upload form")
		s.writeError(w, http.StatusBadRequest, "invalid form fields")
		return
	}

	ownerID := strings.TrimSpace(in.StudentID)
	if ownerID == "" {
		ownerID = s.visitorIDFromContext(ctx)
	}

	var candidates []intake.Candidate
	for _, header := range r.MultipartForm.File["files"] {
		file, err := header.Open()
		if err != nil {
			s.logger.WithError(err).Error("failed to open uploaded file")
			s.internalServerError(w)
			return
		}
		content, err := io.ReadAll(file)
		file.Close()
		if err != nil {
			s.logger.WithError(err).Error("failed to read uploaded file")
			s.internalServerError(w)
			return
		}

		candidates = append(candidates, intake.Candidate{
			FileName:    header.Filename,
			MediaType:   header.Header.Get("Content-Type"),
			Size:        header.Size,
			Content:     content,
			Description: in.Description,
		})
	}

	pipe := intake.NewPipeline(s.bucket, s.documents, s.logger, ownerID)
	pipe.SelectCategory(in.Category)

	out := uploadResponse{Documents: []*types.StudentDocument{}}
	pipe.OnComplete = func(doc *types.StudentDocument) {
		out.Documents = append(out.Documents, doc)
	}
	pipe.OnError = func(msg string) {
		out.Error = msg
	}

	err := pipe.AcceptFiles(ctx, candidates)
	for _, issue := range pipe.Issues() {
		out.Issues = append(out.Issues, issuePayload{
			Severity: string(issue.Severity),
			Message:  issue.Message,
			FileName: issue.FileName,
		})
	}

	switch err {
	case nil:
		s.writeJSON(w, http.StatusCreated, out)
	case intake.ErrNoCategory, intake.ErrBatchBlocked:
		s.writeJSON(w, http.StatusUnprocessableEntity, out)
	default:
		s.writeJSON(w, http.StatusBadGateway, out)
	}
}

// handleListDocuments returns the documents a student has uploaded, newest
// first.
func (s *Service) handleListDocuments(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	studentID := strings.TrimSpace(r.URL.Query().Get("student_id"))
	if studentID == "" {
		studentID = s.visitorIDFromContext(ctx)
	}

	docs, err := s.documents.DocumentsByStudentID(ctx, studentID)
	if err != nil {
		s.logger.WithError(err).Error("failed to list documents")
		s.internalServerError(w)
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]any{"documents": docs})
}

// handleDeleteDocument removes a document record along with its stored
// object. A document owned by someone else reads as absent.
func (s *Service) handleDeleteDocument(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := flow.Param(ctx, "id")

	doc, err := s.documents.DocumentByID(ctx, id)
	if errors.Is(err, pgx.ErrNoRows) {
		s.writeError(w, http.StatusNotFound, "document not found")
		return
	}
	if err != nil {
		s.logger.WithError(err).Error("failed to load document")
		s.internalServerError(w)
		return
	}

	ownerID := strings.TrimSpace(r.URL.Query().Get("student_id"))
	if ownerID == "" {
		ownerID = s.visitorIDFromContext(ctx)
	}
	if doc.StudentID != ownerID {
		s.writeError(w, http.StatusNotFound, "document not found")
		return
	}

	if err := s.documents.DeleteDocument(ctx, id); err != nil {
		s.logger.WithError(err).Error("failed to delete document record")
		s.internalServerError(w)
		return
	}

	// the record is gone either way; an orphaned object only wastes space
	if err := s.bucket.Delete(ctx, doc.StorageKey); err != nil {
		s.logger.WithError(err).WithField("key", doc.StorageKey).Warn("failed to delete stored object")
	}

	s.writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// handleRecommendations reports which required document categories the
// student has not yet satisfied.
func (s *Service) handleRecommendations(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	studentID := strings.TrimSpace(r.URL.Query().Get("student_id"))
	if studentID == "" {
		studentID = s.visitorIDFromContext(ctx)
	}

	categories, err := s.documents.CategoriesByStudentID(ctx, studentID)
	if err != nil {
		s.logger.WithError(err).Error("failed to load uploaded categories")
		s.internalServerError(w)
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]any{
		"recommendations": intake.Recommendations(categories),
	})
}
