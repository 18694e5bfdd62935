// internal/models/quiz.go
package models

// QuestionType distinguishes yes/no questions (answer 0 or 1) from
// 1-5 scale questions.
type QuestionType string

const (
	QuestionTypeBoolean QuestionType = "boolean"
	QuestionTypeScale   QuestionType = "scale"
)

// Question is one entry of the fixed quiz catalog.
type Question struct {
	ID       int          `json:"id"`
	Category string       `json:"category"`
	Prompt   string       `json:"prompt"`
	Type     QuestionType `json:"type"`
}

// QuestionnaireResponse is one user answer, read-only after the quiz ends.
type QuestionnaireResponse struct {
	QuestionID int `json:"questionId"`
	Answer     int `json:"answer"`
}

// CategoryCount is the number of report categories; the catalog spans all of them.
const CategoryCount = 6

// Category titles, in report order.
const (
	CategoryStrategy   = "Strategy"
	CategoryOperations = "Operations"
	CategoryVisuals    = "Visuals"
	CategoryContent    = "Content"
	CategoryGrowth     = "Growth"
	CategorySEO        = "SEO"
)

// CategoryTitles lists the six fixed report categories in order.
var CategoryTitles = []string{
	CategoryStrategy,
	CategoryOperations,
	CategoryVisuals,
	CategoryContent,
	CategoryGrowth,
	CategorySEO,
}

// QuestionCatalog is the fixed 16-question quiz. The ordering matches the
// quiz UI; answers arrive one per question by convention.
var QuestionCatalog = []Question{
	{ID: 1, Category: CategoryStrategy, Prompt: "Do you have a documented brand strategy?", Type: QuestionTypeBoolean},
	{ID: 2, Category: CategoryStrategy, Prompt: "Have you defined your ideal customer profile?", Type: QuestionTypeBoolean},
	{ID: 3, Category: CategoryStrategy, Prompt: "How confident are you that your pricing reflects your brand's value?", Type: QuestionTypeScale},
	{ID: 4, Category: CategoryOperations, Prompt: "Do you respond to new enquiries within one business day?", Type: QuestionTypeBoolean},
	{ID: 5, Category: CategoryOperations, Prompt: "Are your sales and marketing tools connected to a single CRM?", Type: QuestionTypeBoolean},
	{ID: 6, Category: CategoryOperations, Prompt: "How repeatable is your lead follow-up process?", Type: QuestionTypeScale},
	{ID: 7, Category: CategoryVisuals, Prompt: "Do you use the same logo, colours and fonts everywhere?", Type: QuestionTypeBoolean},
	{ID: 8, Category: CategoryVisuals, Prompt: "Has your visual identity been refreshed in the last three years?", Type: QuestionTypeBoolean},
	{ID: 9, Category: CategoryVisuals, Prompt: "How proud are you to show your website to a new prospect?", Type: QuestionTypeScale},
	{ID: 10, Category: CategoryContent, Prompt: "Do you publish new content at least once a month?", Type: QuestionTypeBoolean},
	{ID: 11, Category: CategoryContent, Prompt: "How clearly does your homepage explain what you do?", Type: QuestionTypeScale},
	{ID: 12, Category: CategoryGrowth, Prompt: "Are you running any paid acquisition channels today?", Type: QuestionTypeBoolean},
	{ID: 13, Category: CategoryGrowth, Prompt: "Do you measure cost per lead?", Type: QuestionTypeBoolean},
	{ID: 14, Category: CategoryGrowth, Prompt: "How fast has your inbound lead volume grown this year?", Type: QuestionTypeScale},
	{ID: 15, Category: CategorySEO, Prompt: "Do you rank on the first page for your own brand name?", Type: QuestionTypeBoolean},
	{ID: 16, Category: CategorySEO, Prompt: "Have you done keyword research in the last year?", Type: QuestionTypeBoolean},
}

// QuestionByID returns the catalog entry for an id, or nil when unknown.
func QuestionByID(id int) *Question {
	for i := range QuestionCatalog {
		if QuestionCatalog[i].ID == id {
			return &QuestionCatalog[i]
		}
	}
	return nil
}
