package importer

import (
	"context"
	"fmt"
	"io"

	json "github.com/goccy/go-json"
)

// Writer persists imported rows. The postgres implementation lives in
// postgres.go; tests use a stub.
type Writer interface {
	EnsureCategory(ctx context.Context, name string) (string, error)
	EnsureSubCategory(ctx context.Context, categoryID, name string) (string, error)
	EnsurePublisher(ctx context.Context, name string) (string, error)
	UpsertProduct(ctx context.Context, p ProductRow, subCategoryID, publisherID string) error
}

// ProductRow is one entry of a JSON catalog export.
type ProductRow struct {
	Name        string `json:"productName"`
	Description string `json:"description"`
	ImageURL    string `json:"image"`
	Category    string `json:"category"`
	SubCategory string `json:"subCategory"`
	Publisher   string `json:"publisher"`
	Price       int64  `json:"price"`
}

// JSONImporter reads a catalog export (a JSON array of products) and
// inserts/updates products with their category, subcategory and publisher.
type JSONImporter struct {
	reader io.Reader
	writer Writer
}

func NewJSONImporter(r io.Reader, w Writer) *JSONImporter {
	return &JSONImporter{reader: r, writer: w}
}

// Run decodes the export and upserts every row. Categories, subcategories
// and publishers are created on first sight and reused after.
func (i *JSONImporter) Run(ctx context.Context) (int, error) {
	var rows []ProductRow
	if err := json.NewDecoder(i.reader).Decode(&rows); err != nil {
		return 0, fmt.Errorf("decode export: %w", err)
	}

	categoryIDs := make(map[string]string)
	subIDs := make(map[string]string)
	publisherIDs := make(map[string]string)

	imported := 0
	for _, row := range rows {
		if err := validateRow(row); err != nil {
			return imported, err
		}

		catID, ok := categoryIDs[row.Category]
		if !ok {
			id, err := i.writer.EnsureCategory(ctx, row.Category)
			if err != nil {
				return imported, fmt.Errorf("ensure category %q: %w", row.Category, err)
			}
			categoryIDs[row.Category] = id
			catID = id
		}

		subKey := row.Category + "/" + row.SubCategory
		subID, ok := subIDs[subKey]
		if !ok {
			id, err := i.writer.EnsureSubCategory(ctx, catID, row.SubCategory)
			if err != nil {
				return imported, fmt.Errorf("ensure subcategory %q: %w", row.SubCategory, err)
			}
			subIDs[subKey] = id
			subID = id
		}

		publisherID := ""
		if row.Publisher != "" {
			pubID, ok := publisherIDs[row.Publisher]
			if !ok {
				id, err := i.writer.EnsurePublisher(ctx, row.Publisher)
				if err != nil {
					return imported, fmt.Errorf("ensure publisher %q: %w", row.Publisher, err)
				}
				publisherIDs[row.Publisher] = id
				pubID = id
			}
			publisherID = pubID
		}

		if err := i.writer.UpsertProduct(ctx, row, subID, publisherID); err != nil {
			return imported, fmt.Errorf("upsert product %q: %w", row.Name, err)
		}
		imported++
	}

	return imported, nil
}

func validateRow(row ProductRow) error {
	switch {
	case row.Name == "":
		return fmt.Errorf("invalid product row: missing productName")
	case row.Category == "" || row.SubCategory == "":
		return fmt.Errorf("invalid product row %q: missing category or subCategory", row.Name)
	case row.Price <= 0:
		return fmt.Errorf("invalid product row %q: price must be positive", row.Name)
	}
	return nil
}
