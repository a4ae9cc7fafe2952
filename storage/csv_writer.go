package storage

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"airbnb-harvester/models"
	"airbnb-harvester/utils"
)

// CSVWriter dumps extracted records to a CSV file as an audit trail of what
// the extractor saw, independent of what reconciliation did with it.
type CSVWriter struct {
	filePath string
	logger   *utils.Logger
}

// NewCSVWriter creates a new CSVWriter
func NewCSVWriter(filePath string, logger *utils.Logger) *CSVWriter {
	return &CSVWriter{filePath: filePath, logger: logger}
}

// WriteRecords writes extracted records to the CSV file.
func (w *CSVWriter) WriteRecords(records []*models.ListingRecord) error {
	dir := filepath.Dir(w.filePath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	file, err := os.Create(w.filePath)
	if err != nil {
		return fmt.Errorf("failed to create CSV file: %w", err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	header := []string{
		"url", "title", "location", "price_per_night", "currency",
		"rating", "reviews_count", "property_type", "host_name",
		"host_is_superhost", "image_urls", "amenities", "extracted_at",
	}
	if err := writer.Write(header); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}

	for _, rec := range records {
		row := []string{
			rec.URL,
			strOrEmpty(rec.Title),
			strOrEmpty(rec.Location),
			floatOrEmpty(rec.PricePerNight),
			rec.Currency,
			floatOrEmpty(rec.Rating),
			strconv.Itoa(rec.ReviewsCount),
			strOrEmpty(rec.PropertyType),
			rec.Host.Name,
			strconv.FormatBool(rec.Host.IsSuperhost),
			strings.Join(rec.ImageURLs, "|"),
			strings.Join(rec.Amenities, "|"),
			rec.ExtractedAt.Format(time.RFC3339),
		}
		if err := writer.Write(row); err != nil {
			w.logger.Error("Failed to write CSV row for '%s': %v", rec.URL, err)
		}
	}

	w.logger.Info("Extracted records written to: %s (%d rows)", w.filePath, len(records))
	return nil
}

func strOrEmpty(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func floatOrEmpty(f *float64) string {
	if f == nil {
		return ""
	}
	return strconv.FormatFloat(*f, 'f', -1, 64)
}
