package policies

import "github.com/JaimeStill/verity/pkg/openapi"

type openAPISpec struct {
	List    *openapi.Operation
	Find    *openapi.Operation
	Create  *openapi.Operation
	Update  *openapi.Operation
	Delete  *openapi.Operation
	Schemas map[string]*openapi.Schema
}

var spec = openAPISpec{
	List: &openapi.Operation{
		Summary: "List policies",
		Parameters: []*openapi.Parameter{
			openapi.QueryParam("page", "integer", "Page number", false),
			openapi.QueryParam("page_size", "integer", "Results per page", false),
			openapi.QueryParam("search", "string", "Search policy name and content", false),
			openapi.QueryParam("category", "string", "Filter by category", false),
			openapi.QueryParam("is_active", "boolean", "Filter by active flag", false),
		},
		Responses: map[int]*openapi.Response{
			200: openapi.ResponseJSON("Paginated policies", "PolicyPageResult"),
			401: openapi.ResponseRef("Unauthorized"),
		},
	},
	Find: &openapi.Operation{
		Summary:    "Get policy",
		Parameters: []*openapi.Parameter{openapi.PathParam("id", "Policy UUID")},
		Responses: map[int]*openapi.Response{
			200: openapi.ResponseJSON("Policy", "Policy"),
			404: openapi.ResponseRef("NotFound"),
		},
	},
	Create: &openapi.Operation{
		Summary:     "Create policy",
		RequestBody: openapi.RequestBodyJSON("PolicyCommand", true),
		Responses: map[int]*openapi.Response{
			201: openapi.ResponseJSON("Created policy", "Policy"),
			400: openapi.ResponseRef("BadRequest"),
		},
	},
	Update: &openapi.Operation{
		Summary:     "Update policy",
		Parameters:  []*openapi.Parameter{openapi.PathParam("id", "Policy UUID")},
		RequestBody: openapi.RequestBodyJSON("PolicyCommand", true),
		Responses: map[int]*openapi.Response{
			200: openapi.ResponseJSON("Updated policy", "Policy"),
			400: openapi.ResponseRef("BadRequest"),
			404: openapi.ResponseRef("NotFound"),
		},
	},
	Delete: &openapi.Operation{
		Summary:    "Delete policy",
		Parameters: []*openapi.Parameter{openapi.PathParam("id", "Policy UUID")},
		Responses: map[int]*openapi.Response{
			204: {Description: "Policy deleted"},
			404: openapi.ResponseRef("NotFound"),
		},
	},
	Schemas: map[string]*openapi.Schema{
		"Policy": {
			Type: "object",
			Properties: map[string]*openapi.Schema{
				"id":              {Type: "string", Format: "uuid"},
				"organization_id": {Type: "string", Format: "uuid"},
				"policy_name":     {Type: "string"},
				"policy_content":  {Type: "string"},
				"category":        {Type: "string"},
				"priority":        {Type: "integer", Description: "Higher values are evaluated first"},
				"is_active":       {Type: "boolean"},
				"created_at":      {Type: "string", Format: "date-time"},
				"updated_at":      {Type: "string", Format: "date-time"},
			},
		},
		"PolicyCommand": {
			Type:     "object",
			Required: []string{"policy_name", "policy_content"},
			Properties: map[string]*openapi.Schema{
				"policy_name":    {Type: "string"},
				"policy_content": {Type: "string", Example: "Never promise refunds in under 7 business days."},
				"category":       {Type: "string", Example: "refunds"},
				"priority":       {Type: "integer", Default: 0},
				"is_active":      {Type: "boolean", Default: true},
			},
		},
		"PolicyPageResult": {
			Type: "object",
			Properties: map[string]*openapi.Schema{
				"data":        {Type: "array", Items: openapi.SchemaRef("Policy")},
				"total":       {Type: "integer"},
				"page":        {Type: "integer"},
				"page_size":   {Type: "integer"},
				"total_pages": {Type: "integer"},
			},
		},
	},
}
