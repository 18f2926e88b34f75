package server

import (
	"context"
	"net/http"
	"time"

	"studybridge/internal/popup"
)

const (
	capKeyPrefix    = "popup:cap:"
	latestLeadCount = 20
)

type popupSubmitForm struct {
	OfferID   string `form:"offer_id"`
	Value     string `form:"value"`
	InputType string `form:"input_type"`
	Page      string `form:"page"`
}

type popupDismissForm struct {
	OfferID string `form:"offer_id"`
}

// handlePopupOffers returns the offers eligible on a page, in rotation
// order, along with whether the visitor's frequency cap currently permits
// showing one.
func (s *Service) handlePopupOffers(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	page := r.URL.Query().Get("page")

	eligible := popup.Eligible(s.catalog, page)

	permitted := false
	if len(eligible) > 0 {
		caps := popup.NewCapStore(s.capKV, s.capKey(ctx))
		record, err := caps.Load(ctx)
		if err != nil {
			s.logger.WithError(err).Warn("frequency cap lookup failed")
		} else {
			permitted = record.Permits(eligible[0].ID, time.Now())
		}
	}

	s.writeJSON(w, http.StatusOK, map[string]any{
		"offers":    eligible,
		"permitted": permitted,
	})
}

// handlePopupSubmit applies the offer's input-shape validation and records
// the lead. Shape failures never reach the database.
func (s *Service) handlePopupSubmit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if err := r.ParseForm(); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid form payload")
		return
	}

	var in popupSubmitForm
	if err := decoder.Decode(&in, r.Form); err != nil {
		s.logger.WithError(err).Error("failed to decode popup submit form")
		s.writeError(w, http.StatusBadRequest, "invalid form fields")
		return
	}

	inputType := popup.InputType(in.InputType)
	if !popup.ValidInput(inputType, in.Value) {
		if inputType == popup.InputPhone {
			s.writeError(w, http.StatusUnprocessableEntity, "please enter a valid phone number")
		} else {
			s.writeError(w, http.StatusUnprocessableEntity, "please enter a valid email address")
		}
		return
	}

	err := s.leads.SubmitLead(ctx, popup.Lead{
		OfferID:   in.OfferID,
		Value:     in.Value,
		InputType: inputType,
		Source:    "popup",
		Page:      in.Page,
	})
	if err != nil {
		s.logger.WithError(err).Error("failed to record lead")
		s.writeError(w, http.StatusBadGateway, "something went wrong, please try again")
		return
	}

	s.writeJSON(w, http.StatusCreated, map[string]string{"status": "captured"})
}

// handlePopupDismiss writes the visitor's frequency-cap record so no popup
// reappears inside the cooldown windows.
func (s *Service) handlePopupDismiss(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if err := r.ParseForm(); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid form payload")
		return
	}

	var in popupDismissForm
	if err := decoder.Decode(&in, r.Form); err != nil {
		s.logger.WithError(err).Error("failed to decode popup dismiss form")
		s.writeError(w, http.StatusBadRequest, "invalid form fields")
		return
	}

	caps := popup.NewCapStore(s.capKV, s.capKey(ctx))
	if err := caps.Save(ctx, popup.CapRecord{ShownAt: time.Now().UTC(), OfferID: in.OfferID}); err != nil {
		s.logger.WithError(err).Error("failed to write frequency cap record")
		s.internalServerError(w)
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]string{"status": "recorded"})
}

// handleLatestLeads returns the most recently captured leads.
func (s *Service) handleLatestLeads(w http.ResponseWriter, r *http.Request) {
	leads, err := s.leads.LatestLeads(r.Context(), latestLeadCount)
	if err != nil {
		s.logger.WithError(err).Error("failed to load latest leads")
		s.internalServerError(w)
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]any{"leads": leads})
}

func (s *Service) capKey(ctx context.Context) string {
	return capKeyPrefix + s.visitorIDFromContext(ctx)
}
