package reportemail

import "brandscore-workers/internal/common/validation"

func GetInputSchema() validation.JSONSchema {
	return validation.JSONSchema{
		Type:     "object",
		Required: []string{"email", "brandName", "reportId"},
		Properties: map[string]validation.Property{
			"email": {
				Type:        "string",
				Description: "Recipient address captured by the quiz",
				MinLength:   intPtr(3),
				MaxLength:   intPtr(254),
			},
			"firstName": {
				Type:        "string",
				Description: "Recipient first name for the greeting",
				MaxLength:   intPtr(100),
			},
			"brandName": {
				Type:        "string",
				Description: "Brand the report covers",
				MinLength:   intPtr(1),
				MaxLength:   intPtr(200),
			},
			"reportId": {
				Type:        "string",
				Description: "Persisted report identifier used in the link",
				MinLength:   intPtr(1),
			},
			"momentumScore": {
				Type:        "number",
				Description: "Headline score shown in the email",
				Minimum:     floatPtr(0),
				Maximum:     floatPtr(100),
			},
			"auditPath": {
				Type: "string",
			},
		},
		AdditionalProperties: true,
	}
}

func intPtr(i int) *int {
	return &i
}

func floatPtr(f float64) *float64 {
	return &f
}
