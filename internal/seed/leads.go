package seed

import (
	"context"
	"fmt"

	"studybridge/internal/store"
	"studybridge/pkg/types"
)

var sampleLeads = []types.Lead{
	{OfferID: "ielts-mock-test", Value: "ananya.sharma+seed1@example.com", InputType: "email", Source: "popup", Page: "/test-preparation"},
	{OfferID: "free-counseling", Value: "+9779812345670", InputType: "phone", Source: "popup", Page: "/"},
	{OfferID: "scholarship-guide", Value: "bibek.thapa+seed2@example.com", InputType: "email", Source: "popup", Page: "/blog/scholarships-2026"},
	{OfferID: "country-checklist", Value: "sita.gurung+seed3@example.com", InputType: "email", Source: "popup", Page: "/countries"},
	{OfferID: "newsletter", Value: "ram.adhikari+seed4@example.com", InputType: "email", Source: "popup", Page: "/about"},
}

func SeedLeads(ctx context.Context, repo *store.LeadRepository) ([]*types.Lead, error) {
	out := make([]*types.Lead, 0, len(sampleLeads))
	for _, lead := range sampleLeads {
		lead := lead
		if err := repo.CreateLead(ctx, &lead); err != nil {
			return nil, fmt.Errorf("seed lead %s: %w", lead.Value, err)
		}
		out = append(out, &lead)
	}
	return out, nil
}
