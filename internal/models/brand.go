// internal/models/brand.go
package models

// BrandIdentity is the immutable input for one audit session. URL is
// normalized before any provider call but the original is retained for
// display and CRM forwarding.
type BrandIdentity struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

// Lead carries the contact details captured by the quiz alongside the brand.
// It is what gets forwarded to the CRM relay, not part of the audit itself.
type Lead struct {
	Brand     BrandIdentity `json:"brand"`
	Email     string        `json:"email"`
	FirstName string        `json:"firstName,omitempty"`
	LastName  string        `json:"lastName,omitempty"`
	Source    string        `json:"leadSource,omitempty"`
}
