package budget

import (
	"bytes"
	"embed"
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

//go:embed schemas/project_request.json
var schemasFS embed.FS

const requestSchemaPath = "schemas/project_request.json"

var requestSchema = mustCompileRequestSchema()

func mustCompileRequestSchema() *jsonschema.Schema {
	data, err := schemasFS.ReadFile(requestSchemaPath)
	if err != nil {
		panic(fmt.Sprintf("read schema %s: %v", requestSchemaPath, err))
	}

	compiler := jsonschema.NewCompiler()
	compiler.AssertFormat = true
	if err := compiler.AddResource(requestSchemaPath, bytes.NewReader(data)); err != nil {
		panic(fmt.Sprintf("add schema resource %s: %v", requestSchemaPath, err))
	}

	schema, err := compiler.Compile(requestSchemaPath)
	if err != nil {
		panic(fmt.Sprintf("compile schema %s: %v", requestSchemaPath, err))
	}
	return schema
}

// DecodeRequest checks a raw JSON body against the request schema and decodes
// it. Only shape and ranges are checked here; completeness is Validate's job.
func DecodeRequest(body []byte) (ProjectRequest, error) {
	var raw interface{}
	if err := json.Unmarshal(body, &raw); err != nil {
		return ProjectRequest{}, fmt.Errorf("body is not valid JSON: %w", err)
	}

	if err := requestSchema.Validate(raw); err != nil {
		return ProjectRequest{}, fmt.Errorf("schema validation failed: %w", err)
	}

	var req ProjectRequest
	if err := json.Unmarshal(body, &req); err != nil {
		return ProjectRequest{}, fmt.Errorf("decode request: %w", err)
	}
	return req, nil
}
