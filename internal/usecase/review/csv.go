package review

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Pesokrava/jewelry_catalog/internal/domain"
)

// ImportError describes one rejected CSV row; Row counts data rows from 1
type ImportError struct {
	Row   int    `json:"row"`
	Error string `json:"error"`
}

// ImportReport summarizes a bulk import
type ImportReport struct {
	Success int           `json:"success"`
	Failed  int           `json:"failed"`
	Errors  []ImportError `json:"errors"`
}

var exportColumns = []string{
	"id", "user_id", "user_name", "user_email", "product_id", "product_title", "order_id",
	"rating", "title", "comment", "images", "is_verified_purchase", "status", "admin_notes",
	"helpful_count", "not_helpful_count", "created_at", "updated_at",
}

var requiredImportColumns = []string{"user_id", "product_id", "order_id", "rating"}

// normalizeHeader lets camelCase and snake_case headers address the same column
func normalizeHeader(h string) string {
	h = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
	return strings.ToLower(strings.ReplaceAll(h, "_", ""))
}

type csvRow struct {
	line   int
	fields map[string]string
}

func (r csvRow) get(column string) string {
	return strings.TrimSpace(r.fields[normalizeHeader(column)])
}

// readRows parses a CSV with a header row into column-addressable rows
func readRows(r io.Reader) ([]csvRow, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, domain.Invalidf("CSV must have a header row")
		}
		return nil, domain.Invalidf("failed to parse CSV: %v", err)
	}

	columns := make([]string, len(header))
	present := map[string]bool{}
	for i, h := range header {
		columns[i] = normalizeHeader(h)
		present[columns[i]] = true
	}
	for _, c := range requiredImportColumns {
		if !present[normalizeHeader(c)] {
			return nil, domain.Invalidf("CSV is missing required column %s", c)
		}
	}

	var rows []csvRow
	for line := 1; ; line++ {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, domain.Invalidf("failed to parse CSV row %d: %v", line, err)
		}

		fields := make(map[string]string, len(columns))
		for i, value := range record {
			if i < len(columns) {
				fields[columns[i]] = value
			}
		}
		rows = append(rows, csvRow{line: line, fields: fields})
	}
	return rows, nil
}

// toReview converts an import row. A valid status column is kept, otherwise pending.
func (r csvRow) toReview() (*domain.Review, error) {
	productID, err := uuid.Parse(r.get("product_id"))
	if err != nil {
		return nil, domain.Invalidf("invalid product_id")
	}

	rating, err := strconv.Atoi(r.get("rating"))
	if err != nil {
		return nil, domain.Invalidf("invalid rating")
	}

	verified := true
	if raw := r.get("is_verified_purchase"); raw != "" {
		verified, err = strconv.ParseBool(raw)
		if err != nil {
			return nil, domain.Invalidf("invalid is_verified_purchase")
		}
	}

	status := domain.ReviewStatus(strings.ToLower(r.get("status")))
	if !status.Valid() {
		status = domain.ReviewPending
	}

	return &domain.Review{
		UserID:             r.get("user_id"),
		UserName:           r.get("user_name"),
		UserEmail:          r.get("user_email"),
		ProductID:          productID,
		ProductTitle:       r.get("product_title"),
		OrderID:            r.get("order_id"),
		Rating:             rating,
		Title:              r.get("title"),
		Comment:            r.get("comment"),
		Images:             splitImages(r.get("images")),
		IsVerifiedPurchase: verified,
		Status:             status,
	}, nil
}

func splitImages(raw string) []string {
	images := []string{}
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			images = append(images, part)
		}
	}
	return images
}

// Import creates one review per CSV row. Failing rows are reported and skipped.
func (s *Service) Import(ctx context.Context, r io.Reader) (*ImportReport, error) {
	rows, err := readRows(r)
	if err != nil {
		return nil, err
	}

	report := &ImportReport{Errors: []ImportError{}}
	touched := map[uuid.UUID]struct{}{}

	for _, row := range rows {
		review, err := row.toReview()
		if err == nil {
			err = s.create(ctx, review)
		}
		if err != nil {
			report.Failed++
			report.Errors = append(report.Errors, ImportError{Row: row.line, Error: importMessage(err)})
			continue
		}

		report.Success++
		touched[review.ProductID] = struct{}{}
		s.publishEvent(domain.EventReviewCreated, review)
	}

	for productID := range touched {
		s.invalidate(ctx, productID)
		s.ratings.Recompute(ctx, productID)
	}

	s.logger.WithFields(map[string]interface{}{
		"success": report.Success,
		"failed":  report.Failed,
	}).Info("Reviews imported")

	return report, nil
}

// importMessage keeps client errors readable and hides internal failures
func importMessage(err error) string {
	if errors.Is(err, domain.ErrInvalidInput) || errors.Is(err, domain.ErrConflict) {
		return err.Error()
	}
	return "internal error"
}

// Export writes every review matching opts as CSV and returns the row count
func (s *Service) Export(ctx context.Context, opts ListOptions, w io.Writer) (int, error) {
	filter, err := s.filter(opts, defaultAdminPageSize)
	if err != nil {
		return 0, err
	}
	filter.Limit = 0
	filter.Offset = 0

	reviews, _, err := s.repo.List(ctx, filter)
	if err != nil {
		s.logger.Error("Failed to list reviews for export", err)
		return 0, err
	}

	writer := csv.NewWriter(w)
	if err := writer.Write(exportColumns); err != nil {
		return 0, err
	}
	for _, r := range reviews {
		if err := writer.Write(exportRecord(r)); err != nil {
			return 0, fmt.Errorf("failed to write review %s: %w", r.ID, err)
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return 0, err
	}

	return len(reviews), nil
}

func exportRecord(r *domain.Review) []string {
	return []string{
		r.ID.String(),
		r.UserID,
		r.UserName,
		r.UserEmail,
		r.ProductID.String(),
		r.ProductTitle,
		r.OrderID,
		strconv.Itoa(r.Rating),
		r.Title,
		r.Comment,
		strings.Join(r.Images, ","),
		strconv.FormatBool(r.IsVerifiedPurchase),
		string(r.Status),
		r.AdminNotes,
		strconv.Itoa(r.HelpfulCount),
		strconv.Itoa(r.NotHelpfulCount),
		r.CreatedAt.UTC().Format(time.RFC3339),
		r.UpdatedAt.UTC().Format(time.RFC3339),
	}
}
