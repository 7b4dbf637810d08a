package openai

import (
	"fmt"
	"strings"

	"github.com/poiesic/evidence/core"
)

// FacetKinds are the facet kind slugs the extractor is asked to use.
var FacetKinds = []string{
	"pain",
	"goal",
	"workflow",
	"tool",
	"behavior",
	"emotion",
	"motivation",
	"preference",
	"context",
}

const extractionResponseSchema = `{
  "type": "object",
  "properties": {
    "people": {
      "type": "array",
      "items": {
        "type": "object",
        "properties": {
          "person_key": {"type": "string"},
          "display_name": {"type": "string"},
          "role": {"type": "string"}
        },
        "required": ["person_key"]
      }
    },
    "evidence": {
      "type": "array",
      "items": {
        "type": "object",
        "properties": {
          "person_key": {"type": "string"},
          "verbatim": {"type": "string"},
          "gist": {"type": "string"},
          "start": {"type": "number"},
          "end": {"type": "number"}
        },
        "required": ["verbatim"]
      }
    },
    "facet_mentions": {
      "type": "array",
      "items": {
        "type": "object",
        "properties": {
          "parent_index": {"type": "integer", "minimum": 0},
          "person_key": {"type": "string"},
          "kind_slug": {"type": "string"},
          "label": {"type": "string"},
          "quote": {"type": "string"}
        },
        "required": ["parent_index", "kind_slug", "label"]
      }
    },
    "scenes": {
      "type": "array",
      "items": {
        "type": "object",
        "properties": {
          "start_index": {"type": "integer", "minimum": 0},
          "end_index": {"type": "integer", "minimum": 0},
          "topic": {"type": "string"},
          "summary": {"type": "string"}
        },
        "required": ["start_index", "end_index"]
      }
    }
  },
  "required": ["people", "evidence", "facet_mentions", "scenes"]
}`

const extractionPromptTemplate = `You extract research evidence from an interview transcript excerpt and return it as JSON.

Output ONLY valid JSON which complies with the schema given below. Start your response directly with the
opening brace { and end with the closing brace }. Your output must follow this schema:

%s

Rules:
- person_key is the speaker name in lowercase with spaces replaced by underscores. Use the same key every time the same person appears.
- Each evidence item is one self-contained quote or observation. verbatim must be copied from the transcript.
- start and end are the seconds shown in brackets, when present.
- parent_index in facet_mentions is the zero-based index of the evidence item in this response.
- kind_slug must be one of: %s.
- Scenes group consecutive evidence items that share a topic; start_index and end_index are inclusive.
- Return empty arrays when nothing qualifies. Do not invent content.`

// buildSystemPrompt creates the system prompt with the facet kinds embedded.
func buildSystemPrompt() string {
	return fmt.Sprintf(extractionPromptTemplate,
		extractionResponseSchema,
		strings.Join(FacetKinds, ", "))
}

// formatTranscript renders utterances as speaker-labelled lines, prefixed
// with the start offset when it is known.
//
//	[00:12] Ana: Billing is confusing.
func formatTranscript(utterances []core.Utterance) string {
	var sb strings.Builder
	for _, u := range utterances {
		if u.Start != nil {
			total := int(*u.Start)
			fmt.Fprintf(&sb, "[%02d:%02d] ", total/60, total%60)
		}
		sb.WriteString(scrubString(u.Speaker))
		sb.WriteString(": ")
		sb.WriteString(strings.TrimSpace(u.Text))
		sb.WriteByte('\n')
	}
	return sb.String()
}
