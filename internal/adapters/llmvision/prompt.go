// Package llmvision holds what the vision-model classifier adapters share:
// the classification prompt and parsing of the model's JSON reply.
package llmvision

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mikey/image-analysis-gateway/internal/allowlist"
	"github.com/mikey/image-analysis-gateway/internal/core"
	"github.com/mikey/image-analysis-gateway/internal/utils"
)

// Prompt asks a vision model for output shaped like an image-classification
// pipeline: a JSON array of label/score pairs.
const Prompt = `You are an image classification system used for histopathology research.
Classify the attached image. Respond with a JSON array of up to 5 objects, each containing:
- label: string (short snake_case class name, for example malignant_tissue or benign_tissue)
- score: number between 0 and 1 (your confidence in that label)

Respond only with the JSON array and nothing else.`

// SystemPrompt is sent as the system message where providers support one
const SystemPrompt = "You are an image classifier. Respond only with JSON."

// MediaType returns the canonical media type for a provider request.
// "image/jpg" is not a registered type and some providers reject it.
func MediaType(contentType string) string {
	mediaType := allowlist.Normalize(contentType)
	if mediaType == "image/jpg" {
		return "image/jpeg"
	}
	return mediaType
}

// ParsePredictions decodes a model reply into predictions. Replies wrapped
// in prose or code fences are tolerated.
func ParsePredictions(tp *utils.TextProcessor, reply string) (core.ClassificationResult, error) {
	reply = strings.TrimSpace(reply)

	var predictions core.ClassificationResult
	if err := json.Unmarshal([]byte(reply), &predictions); err == nil {
		return sanitize(tp, predictions), nil
	}

	jsonStr, ok := tp.ExtractJSON(reply, '[', ']')
	if !ok {
		return nil, core.NewError(core.KindBadUpstreamResponse, "Failed to parse classifier response",
			fmt.Errorf("no JSON array in reply: %s", tp.TruncateText(reply, 200)))
	}
	if err := json.Unmarshal([]byte(jsonStr), &predictions); err != nil {
		return nil, core.NewError(core.KindBadUpstreamResponse, "Failed to parse classifier response", err)
	}
	return sanitize(tp, predictions), nil
}

func sanitize(tp *utils.TextProcessor, predictions core.ClassificationResult) core.ClassificationResult {
	for i := range predictions {
		predictions[i].Label = tp.ProcessText(predictions[i].Label, 200)
	}
	return predictions
}
