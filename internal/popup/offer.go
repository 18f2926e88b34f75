package popup

import (
	"slices"
	"sort"
)

// InputType declares the shape of the value an offer's form captures.
type InputType string

const (
	InputEmail InputType = "email"
	InputPhone InputType = "phone"
)

// Offer is one promotional unit in the catalog. Catalog entries are
// immutable and defined at process start.
type Offer struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Subtitle    string    `json:"subtitle"`
	Description string    `json:"description"`
	InputType   InputType `json:"inputType"`
	CTALabel    string    `json:"ctaLabel"`
	Theme       string    `json:"theme"`
	Badge       string    `json:"badge,omitempty"`
	Priority    int       `json:"priority"`

	// Pages restricts the offer to these paths. Empty means every page.
	Pages []string `json:"pages,omitempty"`
}

// Eligible returns the offers allowed on the given page path, sorted by
// descending priority. Catalog order breaks ties.
func Eligible(catalog []Offer, page string) []Offer {
	out := make([]Offer, 0, len(catalog))
	for _, offer := range catalog {
		if len(offer.Pages) == 0 || slices.Contains(offer.Pages, page) {
			out = append(out, offer)
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Priority > out[j].Priority
	})

	return out
}

// DefaultCatalog is the production offer set.
func DefaultCatalog() []Offer {
	return []Offer{
		{
			ID:          "ielts-mock-test",
			Title:       "Free IELTS Mock Test",
			Subtitle:    "Know your band before the real thing",
			Description: "Sit a full-length mock test with examiner feedback, on us.",
			InputType:   InputEmail,
			CTALabel:    "Book my seat",
			Theme:       "indigo",
			Badge:       "Limited seats",
			Priority:    6,
			Pages:       []string{"/test-preparation"},
		},
		{
			ID:          "free-counseling",
			Title:       "Free Counseling Session",
			Subtitle:    "Talk to a certified education counselor",
			Description: "Get a personalised study-abroad roadmap in a 30-minute call.",
			InputType:   InputPhone,
			CTALabel:    "Request a callback",
			Theme:       "emerald",
			Priority:    5,
		},
		{
			ID:          "scholarship-guide",
			Title:       "2026 Scholarship Guide",
			Subtitle:    "120+ scholarships worth applying for",
			Description: "A curated guide to scholarships for international students, updated for this intake.",
			InputType:   InputEmail,
			CTALabel:    "Get the guide",
			Theme:       "amber",
			Badge:       "Free download",
			Priority:    4,
		},
		{
			ID:          "country-checklist",
			Title:       "Country Application Checklist",
			Subtitle:    "Everything your destination expects",
			Description: "Document checklists for every country we place students in.",
			InputType:   InputEmail,
			CTALabel:    "Send me the checklist",
			Theme:       "sky",
			Priority:    3,
			Pages:       []string{"/countries"},
		},
		{
			ID:          "newsletter",
			Title:       "Stay in the Loop",
			Subtitle:    "Intake deadlines, visa changes, test dates",
			Description: "One email a month, no spam.",
			InputType:   InputEmail,
			CTALabel:    "Subscribe",
			Theme:       "slate",
			Priority:    1,
		},
	}
}
