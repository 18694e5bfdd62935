package reportpersist

import "brandscore-workers/internal/models"

type Input struct {
	AuditID       string             `json:"auditId,omitempty"`
	BrandName     string             `json:"brandName"`
	BrandURL      string             `json:"brandUrl"`
	Email         string             `json:"email,omitempty"`
	AuditPath     string             `json:"auditPath"`
	MomentumScore int                `json:"momentumScore"`
	AuditResult   models.AuditResult `json:"auditResult"`
}

type Output struct {
	ReportID  string `json:"reportId"`
	Indexed   bool   `json:"reportIndexed"`
	CreatedAt string `json:"reportCreatedAt"`
}
