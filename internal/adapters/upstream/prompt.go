package upstream

import (
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/invopop/jsonschema"
)

// schemaRecord documents the output shape for the model, it mirrors record.Record
type schemaRecord struct {
	Speaker         string `json:"speaker" jsonschema_description:"Name of the member speaking or Narrator for procedural text"`
	Text            string `json:"text" jsonschema_description:"The contribution rewritten in plain modern English"`
	OriginalIndex   int    `json:"originalIndex" jsonschema_description:"Index of the source segment this message rewrites"`
	OriginalSnippet string `json:"originalSnippet,omitempty" jsonschema_description:"A short verbatim quote from the source segment"`
}

var (
	schemaOnce sync.Once
	schemaJSON string
)

// OutputSchema returns the JSON schema of the expected output array
func OutputSchema() string {
	schemaOnce.Do(func() {
		r := jsonschema.Reflector{
			AllowAdditionalProperties: false,
			DoNotReference:            true,
		}
		item := r.Reflect(schemaRecord{})
		item.Version = ""
		b, err := json.Marshal(map[string]any{
			"type":  "array",
			"items": item,
		})
		if err != nil {
			panic(fmt.Sprintf("output schema: %v", err))
		}
		schemaJSON = string(b)
	})
	return schemaJSON
}

const systemPrompt = `You rewrite UK parliamentary debates from Hansard into a casual group chat transcript.
Keep every speaker and the order of contributions. Use plain modern English and keep each message short.
Procedural text such as divisions, the Speaker calling members, or interruptions is attributed to "Narrator".
Respond with a single JSON array and nothing else. Every element must match this JSON schema:
`

// SystemPrompt returns the instructions shared by every provider
func SystemPrompt() string { return systemPrompt + OutputSchema() }

// UserPrompt renders the debate segments left to rewrite
func UserPrompt(req Request) string {
	var b strings.Builder
	if req.Title != "" {
		fmt.Fprintf(&b, "Debate: %s\n", req.Title)
	}
	if req.From > 0 {
		fmt.Fprintf(&b, "Continue from segment %d; earlier segments were already rewritten.\n", req.From)
	}
	b.WriteString("Segments:\n")
	for _, s := range req.Remaining() {
		fmt.Fprintf(&b, "[%d] %s: %s\n", s.Index, s.Speaker, strings.TrimSpace(s.Text))
	}
	return b.String()
}
