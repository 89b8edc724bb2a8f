package analytics

import "github.com/JaimeStill/verity/pkg/openapi"

type openAPISpec struct {
	Stats   *openapi.Operation
	Trends  *openapi.Operation
	Compare *openapi.Operation
	Impact  *openapi.Operation
	Schemas map[string]*openapi.Schema
}

var windowParams = []*openapi.Parameter{
	openapi.QueryParam("start_date", "string", "Inclusive lower bound (RFC 3339 or YYYY-MM-DD)", false),
	openapi.QueryParam("end_date", "string", "Upper bound; a bare date includes the whole day", false),
}

func counts(description string) *openapi.Schema {
	return &openapi.Schema{Type: "object", Description: description}
}

var spec = openAPISpec{
	Stats: &openapi.Operation{
		Summary:    "Get statistics",
		Parameters: windowParams,
		Responses: map[int]*openapi.Response{
			200: openapi.ResponseJSON("Interaction statistics", "Stats"),
			400: openapi.ResponseRef("BadRequest"),
			401: openapi.ResponseRef("Unauthorized"),
		},
	},
	Trends: &openapi.Operation{
		Summary:     "Get trends",
		Description: "Buckets interactions by day, week (starting Monday), or month. Buckets without activity are included with zero counts. Defaults to the last 30 days.",
		Parameters: append(windowParams,
			openapi.QueryParam("group_by", "string", "day (default), week, or month", false),
		),
		Responses: map[int]*openapi.Response{
			200: openapi.ResponseJSON("Trend series", "Trends"),
			400: openapi.ResponseRef("BadRequest"),
		},
	},
	Compare: &openapi.Operation{
		Summary:     "Compare before and after",
		Description: "Compares the window from split to now with the equally long window preceding split.",
		Parameters: []*openapi.Parameter{
			openapi.QueryParam("split", "string", "Split timestamp (RFC 3339 or YYYY-MM-DD)", true),
		},
		Responses: map[int]*openapi.Response{
			200: openapi.ResponseJSON("Comparison", "Comparison"),
			400: openapi.ResponseRef("BadRequest"),
		},
	},
	Impact: &openapi.Operation{
		Summary:     "Estimate business impact",
		Description: "Advisory estimate derived from configured unit costs; not audited financial data.",
		Parameters: []*openapi.Parameter{
			openapi.QueryParam("period", "string", "7d, 30d (default), 90d, or all", false),
		},
		Responses: map[int]*openapi.Response{
			200: openapi.ResponseJSON("Impact estimate", "Impact"),
			400: openapi.ResponseRef("BadRequest"),
		},
	},
	Schemas: map[string]*openapi.Schema{
		"Stats": {
			Type: "object",
			Properties: map[string]*openapi.Schema{
				"total_interactions":     {Type: "integer"},
				"approved_count":         {Type: "integer"},
				"flagged_count":          {Type: "integer"},
				"blocked_count":          {Type: "integer"},
				"corrected_count":        {Type: "integer"},
				"total_violations":       {Type: "integer"},
				"violations_by_type":     counts("Violation type to count"),
				"violations_by_severity": counts("Severity to count"),
				"avg_confidence_score":   {Type: "number"},
				"interactions_by_model":  counts("AI model to count"),
				"date_range":             openapi.SchemaRef("Window"),
			},
		},
		"Window": {
			Type: "object",
			Properties: map[string]*openapi.Schema{
				"start": {Type: "string", Format: "date-time"},
				"end":   {Type: "string", Format: "date-time"},
			},
		},
		"TrendPoint": {
			Type: "object",
			Properties: map[string]*openapi.Schema{
				"date":               {Type: "string", Format: "date"},
				"total_interactions": {Type: "integer"},
				"approved":           {Type: "integer"},
				"flagged":            {Type: "integer"},
				"blocked":            {Type: "integer"},
				"corrected":          {Type: "integer"},
				"violations":         {Type: "integer"},
				"avg_confidence":     {Type: "number"},
			},
		},
		"Trends": {
			Type: "object",
			Properties: map[string]*openapi.Schema{
				"trends":     {Type: "array", Items: openapi.SchemaRef("TrendPoint")},
				"period":     {Type: "string", Enum: []any{"day", "week", "month"}},
				"total_days": {Type: "integer"},
			},
		},
		"Aggregate": {
			Type: "object",
			Properties: map[string]*openapi.Schema{
				"total_interactions": {Type: "integer"},
				"approved_count":     {Type: "integer"},
				"flagged_count":      {Type: "integer"},
				"blocked_count":      {Type: "integer"},
				"violations":         {Type: "integer"},
				"avg_confidence":     {Type: "number"},
				"approval_rate":      {Type: "number"},
			},
		},
		"Change": {
			Type: "object",
			Properties: map[string]*openapi.Schema{
				"metric":            {Type: "string"},
				"before":            {Type: "number"},
				"after":             {Type: "number"},
				"percentage_change": {Type: "number"},
				"direction":         {Type: "string", Enum: []any{"increased", "decreased", "unchanged"}},
			},
		},
		"Comparison": {
			Type: "object",
			Properties: map[string]*openapi.Schema{
				"split":          {Type: "string", Format: "date-time"},
				"before_window":  openapi.SchemaRef("Window"),
				"after_window":   openapi.SchemaRef("Window"),
				"before":         openapi.SchemaRef("Aggregate"),
				"after":          openapi.SchemaRef("Aggregate"),
				"changes":        {Type: "array", Items: openapi.SchemaRef("Change")},
				"improvements":   {Type: "array", Items: openapi.SchemaRef("Change")},
				"areas_to_watch": {Type: "array", Items: openapi.SchemaRef("Change")},
			},
		},
		"Impact": {
			Type: "object",
			Properties: map[string]*openapi.Schema{
				"hallucinations_blocked":        {Type: "integer"},
				"critical_violations_prevented": {Type: "integer"},
				"legal_risk_savings":            {Type: "number"},
				"brand_damage_savings":          {Type: "number"},
				"total_savings":                 {Type: "number"},
				"period":                        {Type: "string", Enum: []any{"7d", "30d", "90d", "all"}},
				"config": {
					Type: "object",
					Properties: map[string]*openapi.Schema{
						"brand_incident_cost": {Type: "number"},
						"lawsuit_cost":        {Type: "number"},
					},
				},
				"is_estimate": {Type: "boolean"},
				"disclaimer":  {Type: "string"},
			},
		},
	},
}
