// internal/models/report.go
package models

// SignalStatus grades one technical signal.
type SignalStatus string

const (
	StatusGood     SignalStatus = "good"
	StatusWarning  SignalStatus = "warning"
	StatusCritical SignalStatus = "critical"
)

// TechnicalSignal is one labeled fact about the site's measured or inferred
// technical health. Locally collected signals are trusted and always kept;
// AI-declared signals are supplementary and deduplicated by label before
// being appended.
type TechnicalSignal struct {
	Label  string       `json:"label"`
	Value  string       `json:"value"`
	Status SignalStatus `json:"status"`
}

// CategoryAnalysis is one of the six per-category report entries. The AI's
// output is trusted as-is when malformed; only the top-level document shape
// is validated.
type CategoryAnalysis struct {
	Title      string   `json:"title"`
	Score      int      `json:"score"`
	Diagnostic string   `json:"diagnostic"`
	Evidence   []string `json:"evidence"`
	Strategy   string   `json:"strategy"`
}

// PerceptionGap flags a mismatch between self-reported quiz answers and
// measured technical reality.
type PerceptionGap struct {
	Detected bool   `json:"detected"`
	Verdict  string `json:"verdict"`
	Details  string `json:"details"`
}

// AuditResult is the complete report. Created exactly once per audit, by the
// AI-backed path or the fallback path, and never mutated afterwards.
type AuditResult struct {
	MomentumScore    int                `json:"momentumScore"`
	BusinessContext  string             `json:"businessContext"`
	ExecutiveSummary string             `json:"executiveSummary"`
	TechnicalSignals []TechnicalSignal  `json:"technicalSignals"`
	Categories       []CategoryAnalysis `json:"categories"`
	PerceptionGap    PerceptionGap      `json:"perceptionGap"`
	GroundingURLs    []string           `json:"groundingUrls,omitempty"`
}

// WebVitals holds the three core web vitals as display strings.
type WebVitals struct {
	LCP string `json:"lcp"`
	CLS string `json:"cls"`
	FCP string `json:"fcp"`
}

// TechnicalCrawlData is the ephemeral output of one performance scan. It
// lives only for the duration of a single audit call and is never persisted.
// Success=false is a degraded mode, not an error: placeholder values are
// -1 scores and "N/A" vitals.
type TechnicalCrawlData struct {
	Success   bool      `json:"success"`
	PerfScore int       `json:"perfScore"`
	SEOScore  int       `json:"seoScore"`
	WebVitals WebVitals `json:"webVitals"`
	TechStack []string  `json:"techStack"`
	Bugs      []string  `json:"bugs"`
	Error     string    `json:"error,omitempty"`
}

// UnavailableCrawlData returns the placeholder scan result used on every
// collector failure path.
func UnavailableCrawlData(reason string) TechnicalCrawlData {
	return TechnicalCrawlData{
		Success:   false,
		PerfScore: -1,
		SEOScore:  -1,
		WebVitals: WebVitals{LCP: "N/A", CLS: "N/A", FCP: "N/A"},
		TechStack: []string{},
		Bugs:      []string{},
		Error:     reason,
	}
}
