package scene

import (
	"encoding/json"
	"strings"
	"sync"

	"github.com/invopop/jsonschema"

	"github.com/text3d/hub/internal/model"
)

var candidateSchema = sync.OnceValue(func() string {
	reflector := jsonschema.Reflector{
		AllowAdditionalProperties: true,
	}
	schema := reflector.Reflect(new(model.SceneGraphCandidate))
	schema.Title = "Scene graph"
	data, err := json.MarshalIndent(schema, "", "  ")
	if err != nil {
		return "{}"
	}
	return string(data)
})

// CandidateSchema returns the JSON schema the model is asked to follow.
func CandidateSchema() string {
	return candidateSchema()
}

const instructionTemplate = `You are a 3D scene planner for an astronomy teaching tool.
Answer with one JSON object only. Do not wrap it in code fences and do not add any explanation.

The JSON object must follow this schema:
{{schema}}

Rules:
- "objects[].name" must be an English catalog object name such as "Sun", "Earth" or "Moon".
- Use "orbit.around" to name the object another object circles.
- "camera.target" must be the name of one of the objects.

User request:
{{prompt}}`

// BuildInstruction embeds the user's prompt in the fixed instruction template.
func BuildInstruction(prompt string) string {
	return strings.NewReplacer(
		"{{schema}}", CandidateSchema(),
		"{{prompt}}", strings.TrimSpace(prompt),
	).Replace(instructionTemplate)
}
