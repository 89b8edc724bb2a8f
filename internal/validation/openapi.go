package validation

import "github.com/JaimeStill/verity/pkg/openapi"

type openAPISpec struct {
	Validate *openapi.Operation
	Schemas  map[string]*openapi.Schema
}

var spec = openAPISpec{
	Validate: &openapi.Operation{
		Summary: "Validate an AI response",
		Description: "Evaluates compliance rules and policies, verifies claims and citations, " +
			"checks consistency with prior approved answers, and records the decision. " +
			"Unavailable signal sources degrade their component instead of failing the request.",
		RequestBody: openapi.RequestBodyJSON("ValidationRequest", true),
		Responses: map[int]*openapi.Response{
			200: openapi.ResponseJSON("Recorded decision", "ValidationResponse"),
			400: openapi.ResponseRef("BadRequest"),
			401: openapi.ResponseRef("Unauthorized"),
			403: {Description: "organization_id does not match the API key"},
			404: openapi.ResponseRef("NotFound"),
			413: openapi.ResponseRef("PayloadTooLarge"),
		},
	},
	Schemas: map[string]*openapi.Schema{
		"ValidationRequest": {
			Type:     "object",
			Required: []string{"query", "ai_response"},
			Properties: map[string]*openapi.Schema{
				"query":           {Type: "string", Example: "What is Python?"},
				"ai_response":     {Type: "string"},
				"organization_id": {Type: "string", Format: "uuid", Description: "Optional; must match the API key's organization"},
				"ai_model":        {Type: "string", Example: "gpt-4"},
				"session_id":      {Type: "string"},
			},
		},
		"ValidationResponse": {
			Type: "object",
			Properties: map[string]*openapi.Schema{
				"interaction_id":       {Type: "string", Format: "uuid"},
				"status":               {Type: "string", Enum: []any{"approved", "flagged", "blocked"}},
				"confidence_score":     {Type: "number"},
				"confidence_breakdown": openapi.SchemaRef("ConfidenceBreakdown"),
				"violations":           {Type: "array", Items: openapi.SchemaRef("Violation")},
				"verification_results": {Type: "array", Items: openapi.SchemaRef("VerificationResult")},
				"citations":            {Type: "array", Items: openapi.SchemaRef("Citation")},
				"explanation":          {Type: "string"},
				"correction_suggested": {Type: "boolean"},
				"validated_response":   {Type: "string"},
				"changes_made":         {Type: "array", Items: &openapi.Schema{Type: "string"}},
				"processing_time_ms":   {Type: "integer"},
			},
		},
	},
}
