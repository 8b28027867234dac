package uploader

import (
	"regexp"
	"strconv"
	"strings"
)

// Outcome classifies one upload attempt.
type Outcome int

const (
	// OutcomeFailure covers rejected saves, validation errors, and the case
	// where no result dialog appeared at all. Treating a silent save as
	// failure costs a retry next cycle; treating it as success risks an
	// unacknowledged duplicate upload.
	OutcomeFailure Outcome = iota
	// OutcomeSuccess means the dialog carried an explicit success marker.
	OutcomeSuccess
	// OutcomeAmbiguous is reserved for dialogs that match neither pattern
	// family; the classifier currently resolves those to OutcomeFailure.
	OutcomeAmbiguous
)

func (o Outcome) String() string {
	switch o {
	case OutcomeSuccess:
		return "success"
	case OutcomeAmbiguous:
		return "ambiguous"
	default:
		return "failure"
	}
}

// Result describes one classified upload attempt.
type Result struct {
	Outcome       Outcome
	ReportedCount int
	DialogText    string
}

var (
	successPattern = regexp.MustCompile(`(?i)success\s*:\s*(\d+)\s*item`)
	zeroFailures   = regexp.MustCompile(`(?i)failure\s*:\s*0\b`)
)

var failureKeywords = []string{"failed", "error", "(required)"}

// classifyDialog applies the dialog text rules:
//
//  1. a failure keyword without the explicit "failure: 0" marker is Failure,
//  2. otherwise a "success: N items" pattern is Success carrying N,
//  3. anything else is Failure.
func classifyDialog(text string) Result {
	result := Result{Outcome: OutcomeFailure, DialogText: text}
	lowered := strings.ToLower(text)

	for _, keyword := range failureKeywords {
		if strings.Contains(lowered, keyword) && !zeroFailures.MatchString(text) {
			return result
		}
	}

	if m := successPattern.FindStringSubmatch(text); m != nil {
		count, err := strconv.Atoi(m[1])
		if err == nil {
			result.Outcome = OutcomeSuccess
			result.ReportedCount = count
		}
	}
	return result
}
