package llm

import (
	"fmt"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// intentBatchSchema mirrors the gate's closed domain set and the Intent
// value ranges from spec.md §3/§6 (type is only required to be a string;
// the type allow-list is left to the gate), so a scheduler's LLM-proposed
// batch is rejected before it ever reaches the gate if it's structurally
// unsound — matching the teacher's PolicyFirewall.AllowTool schema-compile-
// once pattern (pkg/firewall/firewall.go), applied to LLM output instead
// of tool-call params.
const intentBatchSchemaJSON = `{
	"$schema": "https://json-schema.org/draft/2020-12/schema",
	"type": "object",
	"required": ["intents"],
	"properties": {
		"intents": {
			"type": "array",
			"items": {
				"type": "object",
				"required": ["domain", "type", "value", "urgency", "effort_s"],
				"properties": {
					"domain": {"type": "string", "enum": ["messages", "calendar", "coding", "forum"]},
					"type": {"type": "string"},
					"value": {"type": "number", "minimum": 0.0, "maximum": 1.0},
					"urgency": {"type": "number", "minimum": 0.0, "maximum": 1.0},
					"effort_s": {"type": "integer", "minimum": 0, "maximum": 3600},
					"payload": {"type": "object"}
				}
			}
		}
	}
}`

var intentBatchSchema = mustCompileSchema("intent-batch.schema.json", intentBatchSchemaJSON)

func mustCompileSchema(name, raw string) *jsonschema.Schema {
	c := jsonschema.NewCompiler()
	c.Draft = jsonschema.Draft2020
	url := "https://companion.schemas.local/llm/" + name
	if err := c.AddResource(url, strings.NewReader(raw)); err != nil {
		panic(fmt.Sprintf("llm: load schema %s: %v", name, err))
	}
	compiled, err := c.Compile(url)
	if err != nil {
		panic(fmt.Sprintf("llm: compile schema %s: %v", name, err))
	}
	return compiled
}

// ValidateIntentBatch checks a decoded LLM JSON response against the
// schema above. Callers fall back to the heuristic scheduler on any
// validation failure, per spec.md §4.4.
func ValidateIntentBatch(doc map[string]any) error {
	return intentBatchSchema.Validate(doc)
}
