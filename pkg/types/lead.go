package types

import "time"

// Lead is a captured contact from a marketing form or popup
type Lead struct {
	ID        string    `db:"id" json:"id"`
	OfferID   string    `db:"offer_id" json:"offerId"`
	Value     string    `db:"value" json:"value"`
	InputType string    `db:"input_type" json:"inputType"`
	Source    string    `db:"source" json:"source"`
	Page      string    `db:"page" json:"page"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
}
