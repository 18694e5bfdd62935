package brandaudit

import (
	"fmt"
	"strings"

	"brandscore-workers/internal/models"
)

// buildPrompt deterministically assembles the instruction document for
// the AI generator. Same inputs always produce the same prompt.
func buildPrompt(brandName, normalizedURL string, quizLines []string, crawl models.TechnicalCrawlData) string {
	var b strings.Builder

	b.WriteString("You are a senior brand consultant producing a brand momentum audit.\n\n")

	b.WriteString("BRAND\n")
	fmt.Fprintf(&b, "Name: %s\n", brandName)
	fmt.Fprintf(&b, "Website: %s\n\n", normalizedURL)

	b.WriteString("VERIFICATION\n")
	b.WriteString("Use your search capability to verify what business actually operates at the website above before drawing any conclusion. ")
	b.WriteString("If the brand's activity cannot be verified, state \"could not be verified\" in the relevant field instead of guessing.\n\n")

	b.WriteString("SELF-ASSESSMENT ANSWERS\n")
	if len(quizLines) == 0 {
		b.WriteString("No answers provided.\n")
	}
	for _, line := range quizLines {
		b.WriteString(line)
		b.WriteString("\n")
	}
	b.WriteString("\n")

	b.WriteString("TECHNICAL MEASUREMENTS\n")
	if crawl.Success {
		fmt.Fprintf(&b, "Mobile performance score: %d/100\n", crawl.PerfScore)
		fmt.Fprintf(&b, "SEO score: %d/100\n", crawl.SEOScore)
		fmt.Fprintf(&b, "Core web vitals: LCP %s, CLS %s, FCP %s\n", crawl.WebVitals.LCP, crawl.WebVitals.CLS, crawl.WebVitals.FCP)
		if len(crawl.TechStack) > 0 {
			fmt.Fprintf(&b, "Detected technologies: %s\n", strings.Join(crawl.TechStack, ", "))
		}
		if len(crawl.Bugs) > 0 {
			fmt.Fprintf(&b, "Detected issues: %s\n", strings.Join(crawl.Bugs, "; "))
		}
	} else {
		b.WriteString("Technical scan unavailable for this audit.\n")
	}
	b.WriteString("Do not restate these measurements as technicalSignals; they are already included in the report. ")
	b.WriteString("Only declare additional signals you discovered independently.\n\n")

	b.WriteString("OUTPUT FORMAT\n")
	b.WriteString("Respond with a single JSON object and nothing else. Fields:\n")
	b.WriteString("- momentumScore: integer 0-100\n")
	b.WriteString("- businessContext: string describing what the brand does\n")
	b.WriteString("- executiveSummary: string, two or three sentences\n")
	b.WriteString("- technicalSignals: array of {label, value, status} where status is one of good, warning, critical\n")
	fmt.Fprintf(&b, "- categories: array of exactly %d entries titled %s, each {title, score (integer 0-100), diagnostic, evidence (array of strings), strategy}\n",
		models.CategoryCount, strings.Join(models.CategoryTitles, ", "))
	b.WriteString("- perceptionGap: {detected (boolean), verdict, details} comparing the self-assessment against the measured reality\n")

	return b.String()
}
