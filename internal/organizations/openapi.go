package organizations

import "github.com/JaimeStill/verity/pkg/openapi"

type openAPISpec struct {
	Create    *openapi.Operation
	Me        *openapi.Operation
	ListKeys  *openapi.Operation
	CreateKey *openapi.Operation
	RevokeKey *openapi.Operation
	Schemas   map[string]*openapi.Schema
}

var spec = openAPISpec{
	Create: openapi.Public(&openapi.Operation{
		Summary:     "Register organization",
		Description: "Creates an organization and its first API key. Requires the X-Admin-Token header.",
		Parameters: []*openapi.Parameter{
			{Name: AdminTokenHeader, In: "header", Required: true, Schema: &openapi.Schema{Type: "string"}},
		},
		RequestBody: openapi.RequestBodyJSON("CreateOrganizationCommand", true),
		Responses: map[int]*openapi.Response{
			201: openapi.ResponseJSON("Organization registered", "Registration"),
			400: openapi.ResponseRef("BadRequest"),
			403: {Description: "Admin token missing or invalid"},
			409: openapi.ResponseRef("Conflict"),
		},
	}),
	Me: &openapi.Operation{
		Summary: "Get calling organization",
		Responses: map[int]*openapi.Response{
			200: openapi.ResponseJSON("Organization", "Organization"),
			401: openapi.ResponseRef("Unauthorized"),
		},
	},
	ListKeys: &openapi.Operation{
		Summary: "List API keys",
		Responses: map[int]*openapi.Response{
			200: {
				Description: "API keys without raw values",
				Content: map[string]*openapi.MediaType{
					"application/json": {Schema: &openapi.Schema{Type: "array", Items: openapi.SchemaRef("APIKey")}},
				},
			},
			401: openapi.ResponseRef("Unauthorized"),
		},
	},
	CreateKey: &openapi.Operation{
		Summary:     "Issue API key",
		Description: "The raw key is returned once in the response and never again.",
		RequestBody: openapi.RequestBodyJSON("CreateKeyCommand", true),
		Responses: map[int]*openapi.Response{
			201: openapi.ResponseJSON("Issued key", "IssuedKey"),
			400: openapi.ResponseRef("BadRequest"),
			401: openapi.ResponseRef("Unauthorized"),
		},
	},
	RevokeKey: &openapi.Operation{
		Summary:    "Revoke API key",
		Parameters: []*openapi.Parameter{openapi.PathParam("id", "API key UUID")},
		Responses: map[int]*openapi.Response{
			204: {Description: "Key revoked"},
			401: openapi.ResponseRef("Unauthorized"),
			404: openapi.ResponseRef("NotFound"),
		},
	},
	Schemas: map[string]*openapi.Schema{
		"Organization": {
			Type: "object",
			Properties: map[string]*openapi.Schema{
				"id":         {Type: "string", Format: "uuid"},
				"name":       {Type: "string"},
				"industry":   {Type: "string", Description: "Selects industry-scoped compliance rules"},
				"created_at": {Type: "string", Format: "date-time"},
			},
		},
		"APIKey": {
			Type: "object",
			Properties: map[string]*openapi.Schema{
				"id":              {Type: "string", Format: "uuid"},
				"organization_id": {Type: "string", Format: "uuid"},
				"name":            {Type: "string"},
				"prefix":          {Type: "string", Example: "vk_1a2b3c4d"},
				"is_active":       {Type: "boolean"},
				"expires_at":      {Type: "string", Format: "date-time"},
				"last_used_at":    {Type: "string", Format: "date-time"},
				"created_at":      {Type: "string", Format: "date-time"},
			},
		},
		"IssuedKey": {
			Type: "object",
			Properties: map[string]*openapi.Schema{
				"id":     {Type: "string", Format: "uuid"},
				"name":   {Type: "string"},
				"prefix": {Type: "string"},
				"key":    {Type: "string", Description: "Raw API key, shown once"},
			},
		},
		"Registration": {
			Type: "object",
			Properties: map[string]*openapi.Schema{
				"organization": openapi.SchemaRef("Organization"),
				"api_key":      openapi.SchemaRef("IssuedKey"),
			},
		},
		"CreateOrganizationCommand": {
			Type:     "object",
			Required: []string{"name"},
			Properties: map[string]*openapi.Schema{
				"name":     {Type: "string"},
				"industry": {Type: "string", Example: "finance"},
			},
		},
		"CreateKeyCommand": {
			Type:     "object",
			Required: []string{"name"},
			Properties: map[string]*openapi.Schema{
				"name":       {Type: "string"},
				"expires_at": {Type: "string", Format: "date-time"},
			},
		},
	},
}
