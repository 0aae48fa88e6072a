package ai

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/mitchellh/mapstructure"
)

// SystemPrompt frames every classification request.
const SystemPrompt = "You are an expert in the North American Industry Classification System. " +
	"Answer with a single JSON object and nothing else."

const lowConfidenceDescription = "Classification with low confidence"

// BuildPrompt renders the classification request for b.
func BuildPrompt(b Business) string {
	var sb strings.Builder
	sb.WriteString("Classify the following business into the most appropriate NAICS ")
	sb.WriteString("(North American Industry Classification System) code.\n\n")
	sb.WriteString("Business Information:\n")
	fmt.Fprintf(&sb, "- Name: %s\n", b.Name)
	fmt.Fprintf(&sb, "- Description: %s\n", b.Description)
	fmt.Fprintf(&sb, "- Address: %s\n", b.Address)
	if b.Industry != "" || b.Category != "" {
		fmt.Fprintf(&sb, "- Listed category: %s\n", strings.TrimSpace(b.Industry+" "+b.Category))
	}
	if b.Website != "" {
		fmt.Fprintf(&sb, "- Website: %s\n", b.Website)
	}
	sb.WriteString(`
Please provide:
1. The 6-digit NAICS code
2. Industry description
3. Confidence score (0-100)
4. Brief reasoning

Format your response as JSON:
{
    "naics_code": "123456",
    "industry_description": "Industry Name",
    "confidence_score": 85,
    "reasoning": "Brief explanation"
}
`)
	return sb.String()
}

var codeRe = regexp.MustCompile(`\b\d{6}\b`)

// stripFences returns the body of the first ```json or ``` fenced block, or
// s itself when there is none.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	for _, fence := range []string{"```json", "```"} {
		start := strings.Index(s, fence)
		if start < 0 {
			continue
		}
		body := s[start+len(fence):]
		if end := strings.Index(body, "```"); end >= 0 {
			body = body[:end]
		}
		return strings.TrimSpace(body)
	}
	return s
}

// answer is the JSON shape models are asked for. Models are loose with
// types, so decoding is weakly typed.
type answer struct {
	NAICSCode   string `mapstructure:"naics_code"`
	Description string `mapstructure:"industry_description"`
	Confidence  int    `mapstructure:"confidence_score"`
	Reasoning   string `mapstructure:"reasoning"`
}

// ParseResponse turns a model reply into a Result. Replies that are not
// JSON fall back to the first six-digit number with confidence 50. A reply
// with no usable content is unsuccessful.
func ParseResponse(text string) Result {
	body := stripFences(text)
	if i, j := strings.Index(body, "{"), strings.LastIndex(body, "}"); i >= 0 && j > i {
		body = body[i : j+1]
	}

	var raw map[string]any
	if err := json.Unmarshal([]byte(body), &raw); err == nil {
		var a answer
		dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
			WeaklyTypedInput: true,
			Result:           &a,
		})
		if err == nil && dec.Decode(raw) == nil {
			if a.Description == "" {
				a.Description = "Unknown"
			}
			return Result{
				Success:     true,
				NAICSCode:   strings.TrimSpace(a.NAICSCode),
				Description: a.Description,
				Confidence:  a.Confidence,
				Reasoning:   a.Reasoning,
			}
		}
	}

	code := codeRe.FindString(text)
	if code == "" {
		return Result{Success: false, Reasoning: "unparseable model response"}
	}
	return Result{
		Success:     true,
		NAICSCode:   code,
		Description: lowConfidenceDescription,
		Confidence:  50,
		Reasoning:   "parsed from unstructured response",
	}
}
