package query_test

import (
	"testing"

	"github.com/JaimeStill/verity/pkg/query"
)

func testProjection() *query.ProjectionMap {
	return query.NewProjectionMap("public", "interactions", "i").
		Project("id", "id").
		Project("ai_model", "ai_model").
		Project("timestamp", "timestamp")
}

func ptr(s string) *string { return &s }

func TestProjectionMapTable(t *testing.T) {
	p := testProjection()
	got := p.Table()
	want := "public.interactions i"
	if got != want {
		t.Errorf("Table() = %q, want %q", got, want)
	}
}

func TestProjectionMapAlias(t *testing.T) {
	p := testProjection()
	if got := p.Alias(); got != "i" {
		t.Errorf("Alias() = %q, want %q", got, "i")
	}
}

func TestProjectionMapColumns(t *testing.T) {
	p := testProjection()
	got := p.Columns()
	want := "i.id, i.ai_model, i.timestamp"
	if got != want {
		t.Errorf("Columns() = %q, want %q", got, want)
	}
}

func TestProjectionMapColumnList(t *testing.T) {
	p := testProjection()
	got := p.ColumnList()
	if len(got) != 3 {
		t.Fatalf("ColumnList() length = %d, want 3", len(got))
	}
	want := []string{"i.id", "i.ai_model", "i.timestamp"}
	for i, col := range got {
		if col != want[i] {
			t.Errorf("ColumnList()[%d] = %q, want %q", i, col, want[i])
		}
	}
}

func TestProjectionMapColumnLookup(t *testing.T) {
	p := testProjection()

	tests := []struct {
		name     string
		viewName string
		want     string
	}{
		{"mapped field", "ai_model", "i.ai_model"},
		{"mapped camel", "timestamp", "i.timestamp"},
		{"unmapped passthrough", "unknown", "unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := p.Column(tt.viewName); got != tt.want {
				t.Errorf("Column(%q) = %q, want %q", tt.viewName, got, tt.want)
			}
		})
	}
}

func TestParseSortFields(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []query.SortField
	}{
		{
			name:  "empty string",
			input: "",
			want:  nil,
		},
		{
			name:  "single ascending",
			input: "name",
			want:  []query.SortField{{Field: "name", Descending: false}},
		},
		{
			name:  "single descending",
			input: "-timestamp",
			want:  []query.SortField{{Field: "timestamp", Descending: true}},
		},
		{
			name:  "multiple mixed",
			input: "name,-timestamp",
			want: []query.SortField{
				{Field: "name", Descending: false},
				{Field: "timestamp", Descending: true},
			},
		},
		{
			name:  "with spaces",
			input: " name , -timestamp ",
			want: []query.SortField{
				{Field: "name", Descending: false},
				{Field: "timestamp", Descending: true},
			},
		},
		{
			name:  "empty parts skipped",
			input: "name,,timestamp",
			want: []query.SortField{
				{Field: "name", Descending: false},
				{Field: "timestamp", Descending: false},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := query.ParseSortFields(tt.input)
			if tt.want == nil {
				if got != nil {
					t.Errorf("ParseSortFields(%q) = %v, want nil", tt.input, got)
				}
				return
			}
			if len(got) != len(tt.want) {
				t.Fatalf("ParseSortFields(%q) length = %d, want %d", tt.input, len(got), len(tt.want))
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("ParseSortFields(%q)[%d] = %v, want %v", tt.input, i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestBuilderBuild(t *testing.T) {
	p := testProjection()
	b := query.NewBuilder(p)
	sql, args := b.Build()

	wantSQL := "SELECT i.id, i.ai_model, i.timestamp FROM public.interactions i"
	if sql != wantSQL {
		t.Errorf("Build() sql = %q, want %q", sql, wantSQL)
	}
	if len(args) != 0 {
		t.Errorf("Build() args = %v, want empty", args)
	}
}

func TestBuilderBuildCount(t *testing.T) {
	p := testProjection()
	b := query.NewBuilder(p)
	sql, args := b.BuildCount()

	wantSQL := "SELECT COUNT(*) FROM public.interactions i"
	if sql != wantSQL {
		t.Errorf("BuildCount() sql = %q, want %q", sql, wantSQL)
	}
	if len(args) != 0 {
		t.Errorf("BuildCount() args = %v, want empty", args)
	}
}

func TestBuilderBuildPage(t *testing.T) {
	p := testProjection()
	b := query.NewBuilder(p, query.SortField{Field: "timestamp", Descending: true})
	sql, args := b.BuildPage(2, 10)

	wantSQL := "SELECT i.id, i.ai_model, i.timestamp FROM public.interactions i ORDER BY i.timestamp DESC LIMIT 10 OFFSET 10"
	if sql != wantSQL {
		t.Errorf("BuildPage() sql = %q, want %q", sql, wantSQL)
	}
	if len(args) != 0 {
		t.Errorf("BuildPage() args = %v, want empty", args)
	}
}

func TestBuilderBuildSingle(t *testing.T) {
	p := testProjection()
	b := query.NewBuilder(p)
	sql, args := b.BuildSingle("id", "abc-123")

	wantSQL := "SELECT i.id, i.ai_model, i.timestamp FROM public.interactions i WHERE i.id = $1"
	if sql != wantSQL {
		t.Errorf("BuildSingle() sql = %q, want %q", sql, wantSQL)
	}
	if len(args) != 1 || args[0] != "abc-123" {
		t.Errorf("BuildSingle() args = %v, want [abc-123]", args)
	}
}

func TestBuilderBuildSingleOrNull(t *testing.T) {
	p := testProjection()
	b := query.NewBuilder(p)
	b.WhereEquals("ai_model", "gpt-4o")
	sql, args := b.BuildSingleOrNull()

	wantSQL := "SELECT i.id, i.ai_model, i.timestamp FROM public.interactions i WHERE i.ai_model = $1 LIMIT 1"
	if sql != wantSQL {
		t.Errorf("BuildSingleOrNull() sql = %q, want %q", sql, wantSQL)
	}
	if len(args) != 1 || args[0] != "gpt-4o" {
		t.Errorf("BuildSingleOrNull() args = %v, want [gpt-4o]", args)
	}
}

func TestBuilderWhereEquals(t *testing.T) {
	p := testProjection()
	b := query.NewBuilder(p)
	b.WhereEquals("ai_model", "gpt-4o")
	sql, args := b.Build()

	wantSQL := "SELECT i.id, i.ai_model, i.timestamp FROM public.interactions i WHERE i.ai_model = $1"
	if sql != wantSQL {
		t.Errorf("sql = %q, want %q", sql, wantSQL)
	}
	if len(args) != 1 || args[0] != "gpt-4o" {
		t.Errorf("args = %v, want [gpt-4o]", args)
	}
}

func TestBuilderWhereEqualsNilSkipped(t *testing.T) {
	p := testProjection()
	b := query.NewBuilder(p)
	b.WhereEquals("ai_model", nil)
	sql, args := b.Build()

	wantSQL := "SELECT i.id, i.ai_model, i.timestamp FROM public.interactions i"
	if sql != wantSQL {
		t.Errorf("sql = %q, want %q", sql, wantSQL)
	}
	if len(args) != 0 {
		t.Errorf("args = %v, want empty", args)
	}
}

func TestBuilderWhereContains(t *testing.T) {
	p := testProjection()
	b := query.NewBuilder(p)
	b.WhereContains("ai_model", ptr("test"))
	sql, args := b.Build()

	wantSQL := "SELECT i.id, i.ai_model, i.timestamp FROM public.interactions i WHERE i.ai_model ILIKE $1"
	if sql != wantSQL {
		t.Errorf("sql = %q, want %q", sql, wantSQL)
	}
	if len(args) != 1 || args[0] != "%test%" {
		t.Errorf("args = %v, want [%%test%%]", args)
	}
}

func TestBuilderWhereContainsNilSkipped(t *testing.T) {
	p := testProjection()
	b := query.NewBuilder(p)
	b.WhereContains("ai_model", nil)
	_, args := b.Build()

	if len(args) != 0 {
		t.Errorf("args = %v, want empty", args)
	}
}

func TestBuilderWhereContainsEmptySkipped(t *testing.T) {
	p := testProjection()
	b := query.NewBuilder(p)
	b.WhereContains("ai_model", ptr(""))
	_, args := b.Build()

	if len(args) != 0 {
		t.Errorf("args = %v, want empty", args)
	}
}

func TestBuilderWhereIn(t *testing.T) {
	p := testProjection()
	b := query.NewBuilder(p)
	b.WhereIn("id", []any{"a", "b", "c"})
	sql, args := b.Build()

	wantSQL := "SELECT i.id, i.ai_model, i.timestamp FROM public.interactions i WHERE i.id IN ($1, $2, $3)"
	if sql != wantSQL {
		t.Errorf("sql = %q, want %q", sql, wantSQL)
	}
	if len(args) != 3 {
		t.Errorf("args length = %d, want 3", len(args))
	}
}

func TestBuilderWhereInEmptySkipped(t *testing.T) {
	p := testProjection()
	b := query.NewBuilder(p)
	b.WhereIn("id", []any{})
	_, args := b.Build()

	if len(args) != 0 {
		t.Errorf("args = %v, want empty", args)
	}
}

func TestBuilderWhereNullable(t *testing.T) {
	t.Run("nil value generates IS NULL", func(t *testing.T) {
		p := testProjection()
		b := query.NewBuilder(p)
		b.WhereNullable("ai_model", nil)
		sql, args := b.Build()

		wantSQL := "SELECT i.id, i.ai_model, i.timestamp FROM public.interactions i WHERE i.ai_model IS NULL"
		if sql != wantSQL {
			t.Errorf("sql = %q, want %q", sql, wantSQL)
		}
		if len(args) != 0 {
			t.Errorf("args = %v, want empty", args)
		}
	})

	t.Run("non-nil value generates equals", func(t *testing.T) {
		p := testProjection()
		b := query.NewBuilder(p)
		b.WhereNullable("ai_model", "gpt-4o")
		sql, args := b.Build()

		wantSQL := "SELECT i.id, i.ai_model, i.timestamp FROM public.interactions i WHERE i.ai_model = $1"
		if sql != wantSQL {
			t.Errorf("sql = %q, want %q", sql, wantSQL)
		}
		if len(args) != 1 || args[0] != "gpt-4o" {
			t.Errorf("args = %v, want [gpt-4o]", args)
		}
	})
}

func TestBuilderWhereSearch(t *testing.T) {
	p := testProjection()
	b := query.NewBuilder(p)
	b.WhereSearch(ptr("test"), "ai_model", "id")
	sql, args := b.Build()

	wantSQL := "SELECT i.id, i.ai_model, i.timestamp FROM public.interactions i WHERE (i.ai_model ILIKE $1 OR i.id ILIKE $2)"
	if sql != wantSQL {
		t.Errorf("sql = %q, want %q", sql, wantSQL)
	}
	if len(args) != 2 || args[0] != "%test%" || args[1] != "%test%" {
		t.Errorf("args = %v, want [%%test%% %%test%%]", args)
	}
}

func TestContainsPatternEscapesWildcards(t *testing.T) {
	tests := []struct {
		name  string
		value string
		want  string
	}{
		{"plain", "python", `%python%`},
		{"percent", "100%", `%100\%%`},
		{"underscore", "rule_id", `%rule\_id%`},
		{"backslash", `a\b`, `%a\\b%`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := query.ContainsPattern(tt.value); got != tt.want {
				t.Errorf("ContainsPattern(%q) = %q, want %q", tt.value, got, tt.want)
			}
		})
	}
}

func TestBuilderWhereSearchEscapesWildcards(t *testing.T) {
	b := query.NewBuilder(testProjection())
	b.WhereSearch(ptr("50%_off"), "ai_model")
	_, args := b.Build()

	if len(args) != 1 || args[0] != `%50\%\_off%` {
		t.Errorf("args = %v, want [%%50\\%%\\_off%%]", args)
	}
}

func TestBuilderWhereSearchNilSkipped(t *testing.T) {
	p := testProjection()
	b := query.NewBuilder(p)
	b.WhereSearch(nil, "ai_model")
	_, args := b.Build()

	if len(args) != 0 {
		t.Errorf("args = %v, want empty", args)
	}
}

func TestBuilderMultipleConditions(t *testing.T) {
	p := testProjection()
	b := query.NewBuilder(p)
	b.WhereEquals("ai_model", "gpt-4o")
	b.WhereContains("id", ptr("9f1c"))
	sql, args := b.Build()

	wantSQL := "SELECT i.id, i.ai_model, i.timestamp FROM public.interactions i WHERE i.ai_model = $1 AND i.id ILIKE $2"
	if sql != wantSQL {
		t.Errorf("sql = %q, want %q", sql, wantSQL)
	}
	if len(args) != 2 {
		t.Errorf("args length = %d, want 2", len(args))
	}
	if args[0] != "gpt-4o" {
		t.Errorf("args[0] = %v, want gpt-4o", args[0])
	}
	if args[1] != "%9f1c%" {
		t.Errorf("args[1] = %v, want %%9f1c%%", args[1])
	}
}

func TestBuilderOrderByFields(t *testing.T) {
	p := testProjection()
	b := query.NewBuilder(p, query.SortField{Field: "id", Descending: false})
	b.OrderByFields([]query.SortField{
		{Field: "timestamp", Descending: true},
		{Field: "ai_model", Descending: false},
	})
	sql, _ := b.Build()

	wantSQL := "SELECT i.id, i.ai_model, i.timestamp FROM public.interactions i ORDER BY i.timestamp DESC, i.ai_model ASC"
	if sql != wantSQL {
		t.Errorf("sql = %q, want %q", sql, wantSQL)
	}
}

func TestBuilderDefaultSort(t *testing.T) {
	p := testProjection()
	b := query.NewBuilder(p, query.SortField{Field: "timestamp", Descending: true})
	sql, _ := b.Build()

	wantSQL := "SELECT i.id, i.ai_model, i.timestamp FROM public.interactions i ORDER BY i.timestamp DESC"
	if sql != wantSQL {
		t.Errorf("sql = %q, want %q", sql, wantSQL)
	}
}

func TestBuilderBuildCountWithConditions(t *testing.T) {
	p := testProjection()
	b := query.NewBuilder(p)
	b.WhereEquals("ai_model", "gpt-4o")
	sql, args := b.BuildCount()

	wantSQL := "SELECT COUNT(*) FROM public.interactions i WHERE i.ai_model = $1"
	if sql != wantSQL {
		t.Errorf("sql = %q, want %q", sql, wantSQL)
	}
	if len(args) != 1 || args[0] != "gpt-4o" {
		t.Errorf("args = %v, want [gpt-4o]", args)
	}
}

func TestBuilderBuildPageWithConditions(t *testing.T) {
	p := testProjection()
	b := query.NewBuilder(p, query.SortField{Field: "id"})
	b.WhereContains("ai_model", ptr("claude"))
	sql, args := b.BuildPage(3, 25)

	wantSQL := "SELECT i.id, i.ai_model, i.timestamp FROM public.interactions i WHERE i.ai_model ILIKE $1 ORDER BY i.id ASC LIMIT 25 OFFSET 50"
	if sql != wantSQL {
		t.Errorf("sql = %q, want %q", sql, wantSQL)
	}
	if len(args) != 1 || args[0] != "%claude%" {
		t.Errorf("args = %v, want [%%claude%%]", args)
	}
}

func TestProjectionMapJoin(t *testing.T) {
	p := query.NewProjectionMap("public", "violations", "v").
		Project("id", "ID").
		Project("severity", "Severity").
		Join("public", "interactions", "i", "JOIN", "i.id = v.interaction_id").
		Project("organization_id", "OrganizationID")

	wantFrom := "public.violations v JOIN public.interactions i ON i.id = v.interaction_id"
	if got := p.From(); got != wantFrom {
		t.Errorf("From() = %q, want %q", got, wantFrom)
	}

	if got := p.Column("OrganizationID"); got != "i.organization_id" {
		t.Errorf("Column(OrganizationID) = %q, want i.organization_id", got)
	}

	b := query.NewBuilder(p).WhereEquals("OrganizationID", "org-1")
	sql, args := b.Build()

	wantSQL := "SELECT v.id, v.severity, i.organization_id FROM " + wantFrom + " WHERE i.organization_id = $1"
	if sql != wantSQL {
		t.Errorf("sql = %q, want %q", sql, wantSQL)
	}
	if len(args) != 1 || args[0] != "org-1" {
		t.Errorf("args = %v, want [org-1]", args)
	}
}

func TestProjectionMapProjectExpr(t *testing.T) {
	p := testProjection().
		ProjectExpr("(SELECT COUNT(*) FROM public.violations v WHERE v.interaction_id = i.id)", "ViolationCount")

	if got := len(p.ColumnList()); got != 4 {
		t.Fatalf("ColumnList() length = %d, want 4", got)
	}
	if got := p.Column("ViolationCount"); got != "(SELECT COUNT(*) FROM public.violations v WHERE v.interaction_id = i.id)" {
		t.Errorf("Column(ViolationCount) = %q", got)
	}
}

func TestBuilderWhereRange(t *testing.T) {
	start := "2026-01-01"
	end := "2026-02-01"

	p := testProjection()
	b := query.NewBuilder(p)
	b.WhereEquals("ai_model", "gpt-4o")
	b.WhereGTE("timestamp", &start)
	b.WhereLT("timestamp", &end)
	sql, args := b.Build()

	wantSQL := "SELECT i.id, i.ai_model, i.timestamp FROM public.interactions i WHERE i.ai_model = $1 AND i.timestamp >= $2 AND i.timestamp < $3"
	if sql != wantSQL {
		t.Errorf("sql = %q, want %q", sql, wantSQL)
	}
	if len(args) != 3 {
		t.Errorf("args length = %d, want 3", len(args))
	}
}

func TestBuilderWhereRangeNilSkipped(t *testing.T) {
	var start *string

	p := testProjection()
	b := query.NewBuilder(p)
	b.WhereGTE("timestamp", start)
	b.WhereLT("timestamp", nil)
	_, args := b.Build()

	if len(args) != 0 {
		t.Errorf("args = %v, want empty", args)
	}
}

func TestBuilderWhereEqualsOrNull(t *testing.T) {
	t.Run("value matches value or null", func(t *testing.T) {
		b := query.NewBuilder(testProjection())
		b.WhereEqualsOrNull("ai_model", "gpt-4o")
		sql, args := b.Build()

		wantSQL := "SELECT i.id, i.ai_model, i.timestamp FROM public.interactions i WHERE (i.ai_model = $1 OR i.ai_model IS NULL)"
		if sql != wantSQL {
			t.Errorf("sql = %q, want %q", sql, wantSQL)
		}
		if len(args) != 1 {
			t.Errorf("args length = %d, want 1", len(args))
		}
	})

	t.Run("nil matches null only", func(t *testing.T) {
		b := query.NewBuilder(testProjection())
		b.WhereEqualsOrNull("ai_model", nil)
		sql, args := b.Build()

		wantSQL := "SELECT i.id, i.ai_model, i.timestamp FROM public.interactions i WHERE i.ai_model IS NULL"
		if sql != wantSQL {
			t.Errorf("sql = %q, want %q", sql, wantSQL)
		}
		if len(args) != 0 {
			t.Errorf("args = %v, want empty", args)
		}
	})
}

func TestBuilderBuildWindow(t *testing.T) {
	b := query.NewBuilder(testProjection(), query.SortField{Field: "timestamp", Descending: true})
	sql, _ := b.BuildWindow(15, 7)

	wantSQL := "SELECT i.id, i.ai_model, i.timestamp FROM public.interactions i ORDER BY i.timestamp DESC LIMIT 15 OFFSET 7"
	if sql != wantSQL {
		t.Errorf("sql = %q, want %q", sql, wantSQL)
	}
}
