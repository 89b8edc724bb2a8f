package interactions

import "github.com/JaimeStill/verity/pkg/openapi"

type openAPISpec struct {
	List           *openapi.Operation
	Find           *openapi.Operation
	ListViolations *openapi.Operation
	Export         *openapi.Operation
	Schemas        map[string]*openapi.Schema
}

var dateParams = []*openapi.Parameter{
	openapi.QueryParam("start_date", "string", "Inclusive lower bound (RFC 3339 or YYYY-MM-DD)", false),
	openapi.QueryParam("end_date", "string", "Upper bound; a bare date includes the whole day", false),
}

var pageParams = []*openapi.Parameter{
	openapi.QueryParam("page", "integer", "Page number", false),
	openapi.QueryParam("page_size", "integer", "Results per page", false),
	openapi.QueryParam("limit", "integer", "Alias for page_size", false),
	openapi.QueryParam("offset", "integer", "Row offset; overrides page", false),
	openapi.QueryParam("sort", "string", "Comma-separated sort fields", false),
}

func params(groups ...[]*openapi.Parameter) []*openapi.Parameter {
	var out []*openapi.Parameter
	for _, g := range groups {
		out = append(out, g...)
	}
	return out
}

var spec = openAPISpec{
	List: &openapi.Operation{
		Summary:     "List interactions",
		Description: "Returns the caller's validated interactions, newest first.",
		Parameters: params(pageParams, dateParams, []*openapi.Parameter{
			openapi.QueryParam("status", "string", "approved, flagged, blocked, or corrected", false),
			openapi.QueryParam("ai_model", "string", "Filter by AI model", false),
			openapi.QueryParam("session_id", "string", "Filter by session", false),
			openapi.QueryParam("search", "string", "Search query and response text", false),
		}),
		Responses: map[int]*openapi.Response{
			200: openapi.ResponseJSON("Paginated interactions", "InteractionPageResult"),
			400: openapi.ResponseRef("BadRequest"),
			401: openapi.ResponseRef("Unauthorized"),
		},
	},
	Find: &openapi.Operation{
		Summary:    "Get interaction",
		Parameters: []*openapi.Parameter{openapi.PathParam("id", "Interaction UUID")},
		Responses: map[int]*openapi.Response{
			200: openapi.ResponseJSON("Interaction with child records", "InteractionDetail"),
			404: openapi.ResponseRef("NotFound"),
		},
	},
	ListViolations: &openapi.Operation{
		Summary: "List violations",
		Parameters: params(pageParams, dateParams, []*openapi.Parameter{
			openapi.QueryParam("severity", "string", "low, medium, high, or critical", false),
			openapi.QueryParam("violation_type", "string", "hallucination, citation, compliance, policy, or consistency", false),
			openapi.QueryParam("interaction_id", "string", "Owning interaction UUID", false),
		}),
		Responses: map[int]*openapi.Response{
			200: openapi.ResponseJSON("Paginated violations", "ViolationPageResult"),
			400: openapi.ResponseRef("BadRequest"),
		},
	},
	Export: &openapi.Operation{
		Summary:     "Export audit trail",
		Description: "Renders interactions as CSV or JSON. With blob storage configured the export is uploaded and its key returned; otherwise the file is streamed.",
		Parameters: params(dateParams, []*openapi.Parameter{
			openapi.QueryParam("format", "string", "csv (default) or json", false),
			openapi.QueryParam("status", "string", "Filter by status", false),
		}),
		Responses: map[int]*openapi.Response{
			200: {Description: "Export file"},
			201: openapi.ResponseJSON("Uploaded export", "AuditExport"),
			400: openapi.ResponseRef("BadRequest"),
			503: openapi.ResponseRef("ServiceUnavailable"),
		},
	},
	Schemas: map[string]*openapi.Schema{
		"Interaction": {
			Type: "object",
			Properties: map[string]*openapi.Schema{
				"id":                   {Type: "string", Format: "uuid"},
				"organization_id":      {Type: "string", Format: "uuid"},
				"user_query":           {Type: "string"},
				"ai_response":          {Type: "string"},
				"validated_response":   {Type: "string"},
				"status":               {Type: "string", Enum: []any{"approved", "flagged", "blocked", "corrected"}},
				"confidence_score":     {Type: "number"},
				"confidence_breakdown": openapi.SchemaRef("ConfidenceBreakdown"),
				"ai_model":             {Type: "string"},
				"session_id":           {Type: "string"},
				"processing_time_ms":   {Type: "integer"},
				"timestamp":            {Type: "string", Format: "date-time"},
				"violation_count":      {Type: "integer"},
			},
		},
		"ConfidenceBreakdown": {
			Type: "object",
			Properties: map[string]*openapi.Schema{
				"components": {
					Type:        "object",
					Description: "Component name to score, weight, weighted_score, label, description, and details",
				},
				"contributions": {
					Type: "object",
					Properties: map[string]*openapi.Schema{
						"positive_factors": {Type: "array", Items: &openapi.Schema{Type: "string"}},
						"negative_factors": {Type: "array", Items: &openapi.Schema{Type: "string"}},
					},
				},
			},
		},
		"Violation": {
			Type: "object",
			Properties: map[string]*openapi.Schema{
				"id":             {Type: "string", Format: "uuid"},
				"interaction_id": {Type: "string", Format: "uuid"},
				"violation_type": {Type: "string", Enum: []any{"hallucination", "citation", "compliance", "policy", "consistency"}},
				"severity":       {Type: "string", Enum: []any{"low", "medium", "high", "critical"}},
				"description":    {Type: "string"},
				"rule_id":        {Type: "string", Format: "uuid"},
				"policy_id":      {Type: "string", Format: "uuid"},
				"created_at":     {Type: "string", Format: "date-time"},
			},
		},
		"VerificationResult": {
			Type: "object",
			Properties: map[string]*openapi.Schema{
				"id":                  {Type: "string", Format: "uuid"},
				"claim_text":          {Type: "string"},
				"claim_type":          {Type: "string"},
				"verification_status": {Type: "string", Enum: []any{"verified", "unverified", "false", "partially_verified"}},
				"source":              {Type: "string"},
				"confidence":          {Type: "number"},
				"verification_method": {Type: "string"},
			},
		},
		"Citation": {
			Type: "object",
			Properties: map[string]*openapi.Schema{
				"id":               {Type: "string", Format: "uuid"},
				"url":              {Type: "string"},
				"is_valid":         {Type: "boolean"},
				"content_match":    {Type: "boolean"},
				"http_status_code": {Type: "integer"},
				"error_message":    {Type: "string"},
			},
		},
		"InteractionDetail": {
			Type: "object",
			Properties: map[string]*openapi.Schema{
				"interaction":          openapi.SchemaRef("Interaction"),
				"violations":           {Type: "array", Items: openapi.SchemaRef("Violation")},
				"verification_results": {Type: "array", Items: openapi.SchemaRef("VerificationResult")},
				"citations":            {Type: "array", Items: openapi.SchemaRef("Citation")},
				"explanation":          {Type: "string"},
			},
		},
		"AuditExport": {
			Type: "object",
			Properties: map[string]*openapi.Schema{
				"key":          {Type: "string", Example: "exports/<organization_id>/<id>.csv"},
				"format":       {Type: "string", Enum: []any{"csv", "json"}},
				"content_type": {Type: "string"},
				"records":      {Type: "integer"},
				"size":         {Type: "integer"},
				"created_at":   {Type: "string", Format: "date-time"},
			},
		},
		"InteractionPageResult": pageResult("Interaction"),
		"ViolationPageResult":   pageResult("Violation"),
	},
}

func pageResult(item string) *openapi.Schema {
	return &openapi.Schema{
		Type: "object",
		Properties: map[string]*openapi.Schema{
			"data":        {Type: "array", Items: openapi.SchemaRef(item)},
			"total":       {Type: "integer"},
			"page":        {Type: "integer"},
			"page_size":   {Type: "integer"},
			"total_pages": {Type: "integer"},
		},
	}
}
