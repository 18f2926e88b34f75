package server

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"studybridge/internal/intake"
	"studybridge/internal/popup"
	"studybridge/pkg/types"

	"github.com/alexedwards/flow"
	"github.com/go-playground/form/v4"
	"github.com/gorilla/securecookie"
	"github.com/sirupsen/logrus"
)

var decoder = form.NewDecoder()

// DocumentStore is the document persistence surface the handlers need,
// satisfied by store.DocumentRepository.
type DocumentStore interface {
	CreateDocument(ctx context.Context, doc *types.StudentDocument) error
	DocumentByID(ctx context.Context, id string) (*types.StudentDocument, error)
	DocumentsByStudentID(ctx context.Context, studentID string) ([]types.StudentDocument, error)
	CategoriesByStudentID(ctx context.Context, studentID string) ([]string, error)
	DeleteDocument(ctx context.Context, id string) error
}

// LeadStore is the lead persistence surface, satisfied by
// store.LeadRepository.
type LeadStore interface {
	SubmitLead(ctx context.Context, lead popup.Lead) error
	LatestLeads(ctx context.Context, limit uint64) ([]*types.Lead, error)
}

// ObjectStorage is the document bucket surface, satisfied by
// storage.BucketStorage.
type ObjectStorage interface {
	intake.Uploader
	Delete(ctx context.Context, key string) error
}

type Service struct {
	logger *logrus.Logger
	config *types.Config

	documents DocumentStore
	leads     LeadStore
	bucket    ObjectStorage
	capKV     popup.KV
	catalog   []popup.Offer

	cookie *securecookie.SecureCookie

	server *http.Server
}

func New(
	config *types.Config,
	logger *logrus.Logger,
	documents DocumentStore,
	leads LeadStore,
	bucket ObjectStorage,
	capKV popup.KV,
) (*Service, error) {
	mux := flow.New()

	hashKey, _ := base64.StdEncoding.DecodeString(config.CookieHashKey)
	blockKey, _ := base64.StdEncoding.DecodeString(config.CookieBlockKey)

	s := &Service{
		logger: logger,
		config: config,
		cookie: securecookie.New(hashKey, blockKey),

		documents: documents,
		leads:     leads,
		bucket:    bucket,
		capKV:     capKV,
		catalog:   popup.DefaultCatalog(),

		server: &http.Server{
			Addr:              fmt.Sprintf(":%d", config.ServerPort),
			Handler:           mux,
			ReadTimeout:       time.Duration(config.ReadTimeoutSec) * time.Second,
			ReadHeaderTimeout: time.Duration(config.ReadTimeoutSec) * time.Second,
			WriteTimeout:      time.Duration(config.WriteTimeoutSec) * time.Second,
			MaxHeaderBytes:    1 << 20,
		},
	}

	s.buildRouter(mux)

	return s, nil
}

func (s *Service) Start() error {
	return s.server.ListenAndServe()
}

func (s *Service) Stop(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

func (s *Service) buildRouter(r *flow.Mux) {
	r.Use(s.StripTrailingSlash)
	r.Use(s.LoggingMiddleware)
	r.Use(s.VisitorCookie)

	r.HandleFunc("/healthz", s.handleHealth, http.MethodGet)

	r.HandleFunc("/documents", s.handleUploadDocuments, http.MethodPost)
	r.HandleFunc("/documents", s.handleListDocuments, http.MethodGet)
	r.HandleFunc("/documents/recommendations", s.handleRecommendations, http.MethodGet)
	r.HandleFunc("/documents/:id", s.handleDeleteDocument, http.MethodDelete)

	r.HandleFunc("/popup/offers", s.handlePopupOffers, http.MethodGet)
	r.HandleFunc("/popup/submit", s.handlePopupSubmit, http.MethodPost)
	r.HandleFunc("/popup/dismiss", s.handlePopupDismiss, http.MethodPost)
	r.HandleFunc("/popup/leads", s.handleLatestLeads, http.MethodGet)
}

func (s *Service) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Service) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.WithError(err).Error("failed to encode response")
	}
}

func (s *Service) writeError(w http.ResponseWriter, status int, msg string) {
	s.writeJSON(w, status, map[string]string{"error": msg})
}

func (s *Service) internalServerError(w http.ResponseWriter) {
	s.writeError(w, http.StatusInternalServerError, "internal server error")
}
