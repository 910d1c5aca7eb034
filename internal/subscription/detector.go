package subscription

import (
	"context"
	"log/slog"
	"math"
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"busta/internal/core"
	"busta/internal/store"
)

// DefaultLookbackDays is the detection window when the caller does not pick
// one.
const DefaultLookbackDays = 90

// Gap bands that map a mean day-gap to a frequency, and the variance scale
// used for its confidence. Wider periods tolerate proportionally more jitter.
var frequencyBands = []struct {
	frequency     core.Frequency
	minGap        float64
	maxGap        float64
	varianceScale float64
}{
	{core.Weekly, 5, 9, 10},
	{core.Monthly, 25, 35, 50},
	{core.Yearly, 350, 380, 200},
}

// Candidate is a payee pattern that looks like a recurring payment.
type Candidate struct {
	PayeeName             string         `json:"payee_name"`
	EstimatedAmount       core.Money     `json:"estimated_amount"`
	Frequency             core.Frequency `json:"frequency"`
	Confidence            float64        `json:"confidence"`
	TransactionCount      int            `json:"transaction_count"`
	LastTransactionDate   core.Date      `json:"last_transaction_date"`
	SuggestedCategoryID   string         `json:"suggested_category_id,omitempty"`
	SuggestedCategoryName string         `json:"suggested_category_name,omitempty"`
}

type Detector struct {
	store *store.Store
}

func NewDetector(s *store.Store) *Detector {
	return &Detector{store: s}
}

// Detect groups the owner's expenses from the lookback window by normalized
// payee and scores each group for regularity of timing and amount. Groups
// scoring below 0.5 are dropped. Results come back ordered by confidence,
// highest first.
func (d *Detector) Detect(ctx context.Context, userID string, lookbackDays int) ([]Candidate, error) {
	if lookbackDays <= 0 {
		lookbackDays = DefaultLookbackDays
	}
	start := core.Today().AddDays(-lookbackDays)

	expenses, err := d.store.ListExpensesSince(ctx, userID, start)
	if err != nil {
		return nil, err
	}

	// Group by normalized payee, keeping first-seen order for stable output.
	groups := make(map[string][]core.Transaction)
	var order []string
	for _, t := range expenses {
		key := normalizePayee(t.PayeeName)
		if key == "" {
			continue
		}
		if _, seen := groups[key]; !seen {
			order = append(order, key)
		}
		groups[key] = append(groups[key], t)
	}

	var candidates []Candidate
	for _, key := range order {
		group := groups[key]
		if len(group) < 2 {
			continue
		}
		if c, ok := d.score(ctx, userID, group); ok {
			candidates = append(candidates, c)
		}
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Confidence > candidates[j].Confidence
	})

	slog.InfoContext(ctx, "Recurring payment detection finished",
		"user_id", userID,
		"lookback_days", lookbackDays,
		"expenses", len(expenses),
		"candidates", len(candidates))
	return candidates, nil
}

// score turns one payee group, already sorted by date ascending, into a
// candidate. The second return is false when the group has no plausible
// frequency or its confidence lands below 0.5.
func (d *Detector) score(ctx context.Context, userID string, group []core.Transaction) (Candidate, bool) {
	gaps := make([]float64, 0, len(group)-1)
	for i := 1; i < len(group); i++ {
		gaps = append(gaps, float64(group[i-1].Date.DaysUntil(group[i].Date)))
	}

	frequency, freqConfidence, ok := classifyGaps(gaps)
	if !ok {
		return Candidate{}, false
	}

	amounts := make([]float64, len(group))
	for i, t := range group {
		amounts[i] = t.Amount.Float64()
	}
	amountConfidence := amountRegularity(amounts)

	confidence := round2(0.6*freqConfidence + 0.4*amountConfidence)
	if confidence < 0.5 {
		return Candidate{}, false
	}

	c := Candidate{
		PayeeName:           group[0].PayeeName,
		EstimatedAmount:     meanAmount(group),
		Frequency:           frequency,
		Confidence:          confidence,
		TransactionCount:    len(group),
		LastTransactionDate: group[len(group)-1].Date,
	}

	if id := pluralityCategory(group); id != "" {
		c.SuggestedCategoryID = id
		if cat, err := d.store.GetCategory(ctx, userID, id); err == nil {
			c.SuggestedCategoryName = cat.Name
		}
	}
	return c, true
}

// normalizePayee folds case and trims whitespace so "Netflix " and "NETFLIX"
// land in the same group.
func normalizePayee(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// classifyGaps picks the frequency band containing the mean gap and scores
// how tightly the gaps cluster around it: 1 - variance/scale, floored at 0.
func classifyGaps(gaps []float64) (core.Frequency, float64, bool) {
	if len(gaps) == 0 {
		return "", 0, false
	}
	m := mean(gaps)
	for _, band := range frequencyBands {
		if m >= band.minGap && m <= band.maxGap {
			confidence := 1 - sampleVariance(gaps, m)/band.varianceScale
			return band.frequency, math.Max(0, confidence), true
		}
	}
	return "", 0, false
}

// amountRegularity scores amount consistency as 1 - 2*cv where cv is the
// coefficient of variation, floored at 0. Fewer than two amounts leave no
// spread to measure and score a neutral 0.5.
func amountRegularity(amounts []float64) float64 {
	if len(amounts) < 2 {
		return 0.5
	}
	m := mean(amounts)
	if m == 0 {
		return 0
	}
	cv := math.Sqrt(sampleVariance(amounts, m)) / m
	return math.Max(0, 1-2*cv)
}

// pluralityCategory returns the most frequent category in the group, ignoring
// uncategorized entries. Ties go to the category seen first.
func pluralityCategory(group []core.Transaction) string {
	counts := make(map[string]int)
	var order []string
	for _, t := range group {
		if t.CategoryID == "" {
			continue
		}
		if counts[t.CategoryID] == 0 {
			order = append(order, t.CategoryID)
		}
		counts[t.CategoryID]++
	}

	var best string
	for _, id := range order {
		if best == "" || counts[id] > counts[best] {
			best = id
		}
	}
	return best
}

// meanAmount averages the group's amounts in decimal space and rounds to
// cents.
func meanAmount(group []core.Transaction) core.Money {
	sum := decimal.Zero
	for _, t := range group {
		sum = sum.Add(decimal.New(t.Amount.Cents(), -2))
	}
	return core.MoneyFromDecimal(sum.Div(decimal.NewFromInt(int64(len(group)))))
}

func mean(values []float64) float64 {
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// sampleVariance uses the n-1 denominator; a single observation has no
// measurable spread.
func sampleVariance(values []float64, m float64) float64 {
	if len(values) < 2 {
		return 0
	}
	var sum float64
	for _, v := range values {
		d := v - m
		sum += d * d
	}
	return sum / float64(len(values)-1)
}

// round2 rounds to two decimals with ties going to the even digit.
func round2(x float64) float64 {
	return math.RoundToEven(x*100) / 100
}
