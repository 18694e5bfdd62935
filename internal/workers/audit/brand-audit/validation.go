package brandaudit

import "brandscore-workers/internal/common/validation"

func GetInputSchema() validation.JSONSchema {
	return validation.JSONSchema{
		Type:     "object",
		Required: []string{"brandName", "brandUrl"},
		Properties: map[string]validation.Property{
			"brandName": {
				Type:        "string",
				Description: "Name of the brand under audit",
				MinLength:   intPtr(1),
				MaxLength:   intPtr(200),
			},
			"brandUrl": {
				Type:        "string",
				Description: "Site address, normalized before use",
				MinLength:   intPtr(3),
				MaxLength:   intPtr(2000),
			},
			"responses": {
				Type:        "array",
				Description: "Questionnaire answers, one per catalog question",
				Items: &validation.Property{
					Type:     "object",
					Required: []string{"questionId", "answer"},
					Properties: map[string]validation.Property{
						"questionId": {
							Type:        "number",
							Description: "Catalog question identifier",
						},
						"answer": {
							Type:        "number",
							Description: "0/1 for boolean questions, 1-5 for scale questions",
							Minimum:     floatPtr(0),
							Maximum:     floatPtr(5),
						},
					},
				},
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
