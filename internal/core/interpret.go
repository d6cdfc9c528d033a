package core

import (
	"fmt"
	"math"
	"strings"

	"golang.org/x/text/cases"
)

// malignantKeywords mark a label as malignant-leaning. This is a keyword
// heuristic and the derived malignancy score is not a calibrated probability.
var malignantKeywords = []string{"malignant", "cancer", "tumor"}

const (
	maxReportedPredictions = 3
	researchDisclaimer     = "Please note this is for research purposes only."
)

// IsMalignantLabel reports whether a label contains one of the malignancy
// keywords, ignoring case.
func IsMalignantLabel(label string) bool {
	folded := cases.Fold().String(label)
	for _, kw := range malignantKeywords {
		if strings.Contains(folded, kw) {
			return true
		}
	}
	return false
}

// Interpret turns a classification result into the analysis payload.
// ProcessingTime is left empty for the caller to fill in.
func Interpret(result ClassificationResult) (*AnalysisResponse, error) {
	if len(result) == 0 {
		return nil, NewError(KindInvalidResponseFormat, "Invalid API response format", nil)
	}

	// strict comparison keeps the first of equal scores
	top := result[0]
	for _, p := range result[1:] {
		if p.Score > top.Score {
			top = p
		}
	}

	malignant := IsMalignantLabel(top.Label)
	malignancyScore := 1 - top.Score
	framing := "This suggests benign characteristics."
	if malignant {
		malignancyScore = top.Score
		framing = "This suggests potential malignant characteristics."
	}

	analysis := fmt.Sprintf("The model detected %s with %d%% confidence. %s %s",
		top.Label, int(math.Round(top.Score*100)), framing, researchDisclaimer)

	n := len(result)
	if n > maxReportedPredictions {
		n = maxReportedPredictions
	}
	predictions := make([]Prediction, n)
	copy(predictions, result[:n])

	return &AnalysisResponse{
		Confidence:      top.Score,
		MalignancyScore: malignancyScore,
		Analysis:        analysis,
		Predictions:     predictions,
		Label:           top.Label,
		Malignant:       malignant,
	}, nil
}
