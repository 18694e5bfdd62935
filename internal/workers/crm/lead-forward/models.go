package leadforward

import "brandscore-workers/internal/models"

type Input struct {
	BrandName     string                         `json:"brandName"`
	BrandURL      string                         `json:"brandUrl"`
	Email         string                         `json:"email"`
	FirstName     string                         `json:"firstName,omitempty"`
	LastName      string                         `json:"lastName,omitempty"`
	AuditPath     string                         `json:"auditPath,omitempty"`
	MomentumScore int                            `json:"momentumScore,omitempty"`
	ReportID      string                         `json:"reportId,omitempty"`
	Answers       []models.QuestionnaireResponse `json:"answers,omitempty"`
}

type Output struct {
	Forwarded   bool   `json:"leadForwarded"`
	ForwardedAt string `json:"leadForwardedAt"`
}

// payload is the wire shape posted to the automation webhook. The lead
// itself is nested so the downstream flow can route on top-level audit
// fields without unpacking contact details.
type payload struct {
	Lead          models.Lead                    `json:"lead"`
	AuditPath     string                         `json:"auditPath,omitempty"`
	MomentumScore int                            `json:"momentumScore,omitempty"`
	ReportID      string                         `json:"reportId,omitempty"`
	Answers       []models.QuestionnaireResponse `json:"answers,omitempty"`
}
