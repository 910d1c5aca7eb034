package extract

import (
	"context"
	"regexp"
	"strings"

	"busta/internal/core"
)

// FallbackConfidence marks results produced by the regex parser, well below
// what a real extractor reports.
const FallbackConfidence = 0.5

var amountPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)(?:SAR|EUR|USD|€|\$)\s*([\d,]+\.?\d*)`),
	regexp.MustCompile(`(?i)([\d,]+\.?\d*)\s*(?:SAR|EUR|USD)`),
	regexp.MustCompile(`(?i)amount:?\s*([\d,]+\.?\d*)`),
}

var payeePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\b(?:at|from|to)\s+([A-Za-z][A-Za-z ]*?)\s+(?:on|for|with|SAR|EUR|USD)\b`),
	regexp.MustCompile(`(?i)\bpurchase\s+(?:at|from)\s+([A-Za-z][A-Za-z ]*)`),
}

var incomeKeywords = []string{"credit", "deposit", "received", "salary", "refund", "transfer in"}

// Fallback is the regex-based extractor used when no external extractor is
// configured or the configured one fails. It never returns an error.
type Fallback struct{}

func (Fallback) Extract(_ context.Context, text string, categories []Category) (Result, error) {
	result := Result{
		Payee:        "Unknown",
		Date:         core.Today(),
		Type:         core.Expense,
		CategoryName: "Other",
		Confidence:   FallbackConfidence,
	}

	for _, pattern := range amountPatterns {
		if m := pattern.FindStringSubmatch(text); m != nil {
			amount, err := core.ParseMoney(strings.ReplaceAll(m[1], ",", ""))
			if err != nil {
				continue
			}
			result.Amount = amount
			break
		}
	}

	for _, pattern := range payeePatterns {
		if m := pattern.FindStringSubmatch(text); m != nil {
			result.Payee = strings.TrimSpace(m[1])
			break
		}
	}

	lower := strings.ToLower(text)
	for _, word := range incomeKeywords {
		if strings.Contains(lower, word) {
			result.Type = core.Income
			break
		}
	}

	if len(categories) > 0 {
		result.CategoryID = categories[0].ID
		result.CategoryName = categories[0].Name
	}

	result.IsTransaction = result.Amount.IsPositive()
	return result, nil
}
