package rules

import "github.com/JaimeStill/verity/pkg/openapi"

type openAPISpec struct {
	List      *openapi.Operation
	Find      *openapi.Operation
	Create    *openapi.Operation
	Update    *openapi.Operation
	Delete    *openapi.Operation
	Test      *openapi.Operation
	Templates *openapi.Operation
	Install   *openapi.Operation
	Schemas   map[string]*openapi.Schema
}

var spec = openAPISpec{
	List: &openapi.Operation{
		Summary:     "List rules",
		Description: "Returns the caller's rules together with global rules.",
		Parameters: []*openapi.Parameter{
			openapi.QueryParam("page", "integer", "Page number", false),
			openapi.QueryParam("page_size", "integer", "Results per page", false),
			openapi.QueryParam("search", "string", "Search rule name and description", false),
			openapi.QueryParam("sort", "string", "Comma-separated sort fields", false),
			openapi.QueryParam("rule_type", "string", "regulatory, policy, or custom", false),
			openapi.QueryParam("severity", "string", "low, medium, high, or critical", false),
			openapi.QueryParam("industry", "string", "Filter by industry", false),
			openapi.QueryParam("is_active", "boolean", "Filter by active flag", false),
		},
		Responses: map[int]*openapi.Response{
			200: openapi.ResponseJSON("Paginated rules", "RulePageResult"),
			401: openapi.ResponseRef("Unauthorized"),
		},
	},
	Find: &openapi.Operation{
		Summary:    "Get rule",
		Parameters: []*openapi.Parameter{openapi.PathParam("id", "Rule UUID")},
		Responses: map[int]*openapi.Response{
			200: openapi.ResponseJSON("Rule", "Rule"),
			404: openapi.ResponseRef("NotFound"),
		},
	},
	Create: &openapi.Operation{
		Summary:     "Create rule",
		RequestBody: openapi.RequestBodyJSON("RuleCommand", true),
		Responses: map[int]*openapi.Response{
			201: openapi.ResponseJSON("Created rule", "Rule"),
			400: openapi.ResponseRef("BadRequest"),
		},
	},
	Update: &openapi.Operation{
		Summary:     "Update rule",
		Description: "Replaces an owned rule and increments its version. Global rules are read-only.",
		Parameters:  []*openapi.Parameter{openapi.PathParam("id", "Rule UUID")},
		RequestBody: openapi.RequestBodyJSON("RuleCommand", true),
		Responses: map[int]*openapi.Response{
			200: openapi.ResponseJSON("Updated rule", "Rule"),
			400: openapi.ResponseRef("BadRequest"),
			404: openapi.ResponseRef("NotFound"),
		},
	},
	Delete: &openapi.Operation{
		Summary:    "Delete rule",
		Parameters: []*openapi.Parameter{openapi.PathParam("id", "Rule UUID")},
		Responses: map[int]*openapi.Response{
			204: {Description: "Rule deleted"},
			404: openapi.ResponseRef("NotFound"),
		},
	},
	Test: &openapi.Operation{
		Summary:     "Test rule",
		Description: "Evaluates the rule against the submitted text without recording anything.",
		Parameters:  []*openapi.Parameter{openapi.PathParam("id", "Rule UUID")},
		RequestBody: openapi.RequestBodyJSON("RuleTestRequest", true),
		Responses: map[int]*openapi.Response{
			200: openapi.ResponseJSON("Evaluation result", "RuleTestResult"),
			400: openapi.ResponseRef("BadRequest"),
			404: openapi.ResponseRef("NotFound"),
		},
	},
	Templates: &openapi.Operation{
		Summary: "List regulatory templates",
		Responses: map[int]*openapi.Response{
			200: {
				Description: "Installable templates",
				Content: map[string]*openapi.MediaType{
					"application/json": {Schema: &openapi.Schema{Type: "array", Items: openapi.SchemaRef("RuleTemplate")}},
				},
			},
		},
	},
	Install: &openapi.Operation{
		Summary: "Install regulatory template",
		Parameters: []*openapi.Parameter{
			{Name: "key", In: "path", Required: true, Description: "Template key", Schema: &openapi.Schema{Type: "string"}},
		},
		Responses: map[int]*openapi.Response{
			201: openapi.ResponseJSON("Installed rule", "Rule"),
			404: openapi.ResponseRef("NotFound"),
		},
	},
	Schemas: map[string]*openapi.Schema{
		"RuleDefinition": {
			Type:        "object",
			Description: "Tagged union keyed by type. Unknown types are stored but never match.",
			Required:    []string{"type"},
			Properties: map[string]*openapi.Schema{
				"type":     {Type: "string", Enum: []any{"keyword_match", "pattern_match", "required_text"}},
				"keywords": {Type: "array", Items: &openapi.Schema{Type: "string"}},
				"patterns": {Type: "array", Items: &openapi.Schema{Type: "string"}},
				"required": {Type: "array", Items: &openapi.Schema{Type: "string"}},
				"action":   {Type: "string", Enum: []any{"flag", "block", "warn", "rewrite"}},
				"message":  {Type: "string"},
			},
		},
		"Rule": {
			Type: "object",
			Properties: map[string]*openapi.Schema{
				"id":              {Type: "string", Format: "uuid"},
				"organization_id": {Type: "string", Format: "uuid", Description: "Null for global rules"},
				"rule_name":       {Type: "string"},
				"description":     {Type: "string"},
				"rule_type":       {Type: "string", Enum: []any{"regulatory", "policy", "custom"}},
				"rule_definition": openapi.SchemaRef("RuleDefinition"),
				"industry":        {Type: "string"},
				"severity":        {Type: "string", Enum: []any{"low", "medium", "high", "critical"}},
				"is_active":       {Type: "boolean"},
				"version":         {Type: "integer"},
				"created_at":      {Type: "string", Format: "date-time"},
				"updated_at":      {Type: "string", Format: "date-time"},
			},
		},
		"RuleCommand": {
			Type:     "object",
			Required: []string{"rule_name", "rule_type", "rule_definition", "severity"},
			Properties: map[string]*openapi.Schema{
				"rule_name":       {Type: "string"},
				"description":     {Type: "string"},
				"rule_type":       {Type: "string", Enum: []any{"regulatory", "policy", "custom"}},
				"rule_definition": openapi.SchemaRef("RuleDefinition"),
				"industry":        {Type: "string"},
				"severity":        {Type: "string", Enum: []any{"low", "medium", "high", "critical"}},
				"is_active":       {Type: "boolean", Default: true},
			},
		},
		"RuleTemplate": {
			Type: "object",
			Properties: map[string]*openapi.Schema{
				"key":             {Type: "string", Example: "sec-no-guarantees"},
				"regulation":      {Type: "string", Example: "SEC"},
				"rule_name":       {Type: "string"},
				"description":     {Type: "string"},
				"industry":        {Type: "string"},
				"severity":        {Type: "string"},
				"rule_definition": openapi.SchemaRef("RuleDefinition"),
			},
		},
		"RuleTestRequest": {
			Type:       "object",
			Required:   []string{"text"},
			Properties: map[string]*openapi.Schema{"text": {Type: "string"}},
		},
		"RuleTestResult": {
			Type: "object",
			Properties: map[string]*openapi.Schema{
				"rule_id":    {Type: "string", Format: "uuid"},
				"kind":       {Type: "string"},
				"matched":    {Type: "boolean"},
				"action":     {Type: "string"},
				"violations": {Type: "array", Items: openapi.SchemaRef("Violation")},
			},
		},
		"RulePageResult": {
			Type: "object",
			Properties: map[string]*openapi.Schema{
				"data":        {Type: "array", Items: openapi.SchemaRef("Rule")},
				"total":       {Type: "integer"},
				"page":        {Type: "integer"},
				"page_size":   {Type: "integer"},
				"total_pages": {Type: "integer"},
			},
		},
	},
}
