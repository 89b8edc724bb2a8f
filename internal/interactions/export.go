package interactions

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/JaimeStill/verity/pkg/query"
	"github.com/JaimeStill/verity/pkg/repository"
)

// Format is an audit export encoding.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatJSON Format = "json"
)

const exportLimit = 10000

var contentTypes = map[Format]string{
	FormatCSV:  "text/csv",
	FormatJSON: "application/json",
}

var csvHeader = []string{
	"id", "timestamp", "user_query", "ai_response", "validated_response",
	"status", "confidence_score", "ai_model", "session_id", "violation_count",
}

// ParseFormat validates an export format. Empty input defaults to CSV.
func ParseFormat(s string) (Format, error) {
	switch Format(s) {
	case "", FormatCSV:
		return FormatCSV, nil
	case FormatJSON:
		return FormatJSON, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidFormat, s)
	}
}

// Export describes a rendered audit export. Key is set when the export was
// uploaded to blob storage; otherwise Data holds the rendered content.
type Export struct {
	Key         string    `json:"key,omitempty"`
	Format      Format    `json:"format"`
	ContentType string    `json:"content_type"`
	Records     int       `json:"records"`
	Size        int       `json:"size"`
	CreatedAt   time.Time `json:"created_at"`
	Data        []byte    `json:"-"`
}

// ExportKey returns the blob key for an organization's export.
func ExportKey(orgID, id uuid.UUID, format Format) string {
	return fmt.Sprintf("%s%s.%s", ExportPrefix(orgID), id, format)
}

// ExportPrefix returns the blob key prefix that holds an organization's exports.
func ExportPrefix(orgID uuid.UUID) string {
	return fmt.Sprintf("exports/%s/", orgID)
}

func (r *repo) Export(ctx context.Context, orgID uuid.UUID, format Format, filters Filters) (*Export, error) {
	qb := query.
		NewBuilder(projection, query.SortField{Field: "Timestamp"}).
		WhereEquals("OrganizationID", orgID)

	q, args := filters.Apply(qb).BuildWindow(exportLimit, 0)

	items, err := repository.QueryMany(ctx, r.db, q, args, scanInteraction)
	if err != nil {
		return nil, fmt.Errorf("query export interactions: %w", err)
	}

	data, err := Render(format, items)
	if err != nil {
		return nil, err
	}

	exp := &Export{
		Format:      format,
		ContentType: contentTypes[format],
		Records:     len(items),
		Size:        len(data),
		CreatedAt:   time.Now().UTC(),
	}

	if r.store == nil {
		exp.Data = data
		return exp, nil
	}

	key := ExportKey(orgID, uuid.New(), format)
	if err := r.store.Upload(ctx, key, bytes.NewReader(data), exp.ContentType); err != nil {
		return nil, fmt.Errorf("upload export: %w", err)
	}
	exp.Key = key

	r.logger.Info("audit export uploaded", "key", key, "records", exp.Records, "organization_id", orgID)
	return exp, nil
}

// Render encodes interactions in the given export format.
func Render(format Format, items []Interaction) ([]byte, error) {
	switch format {
	case FormatJSON:
		return renderJSON(items)
	case FormatCSV:
		return renderCSV(items)
	default:
		return nil, fmt.Errorf("%w: %q", ErrInvalidFormat, format)
	}
}

type exportRow struct {
	ID                uuid.UUID `json:"id"`
	Timestamp         time.Time `json:"timestamp"`
	UserQuery         string    `json:"user_query"`
	AIResponse        string    `json:"ai_response"`
	ValidatedResponse *string   `json:"validated_response"`
	Status            string    `json:"status"`
	ConfidenceScore   float64   `json:"confidence_score"`
	AIModel           *string   `json:"ai_model"`
	SessionID         *string   `json:"session_id"`
	ViolationCount    int       `json:"violation_count"`
}

func renderJSON(items []Interaction) ([]byte, error) {
	rows := make([]exportRow, len(items))
	for n, i := range items {
		rows[n] = exportRow{
			ID:                i.ID,
			Timestamp:         i.Timestamp,
			UserQuery:         i.UserQuery,
			AIResponse:        i.AIResponse,
			ValidatedResponse: i.ValidatedResponse,
			Status:            string(i.Status),
			ConfidenceScore:   i.ConfidenceScore,
			AIModel:           i.AIModel,
			SessionID:         i.SessionID,
			ViolationCount:    i.ViolationCount,
		}
	}

	data, err := json.MarshalIndent(rows, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode json export: %w", err)
	}
	return data, nil
}

func renderCSV(items []Interaction) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	if err := w.Write(csvHeader); err != nil {
		return nil, fmt.Errorf("encode csv export: %w", err)
	}

	for _, i := range items {
		record := []string{
			i.ID.String(),
			i.Timestamp.UTC().Format(time.RFC3339),
			i.UserQuery,
			i.AIResponse,
			deref(i.ValidatedResponse),
			string(i.Status),
			strconv.FormatFloat(i.ConfidenceScore, 'f', 4, 64),
			deref(i.AIModel),
			deref(i.SessionID),
			strconv.Itoa(i.ViolationCount),
		}
		if err := w.Write(record); err != nil {
			return nil, fmt.Errorf("encode csv export: %w", err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("encode csv export: %w", err)
	}
	return buf.Bytes(), nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
