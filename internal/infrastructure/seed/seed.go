// Package seed loads the built-in demo catalog.
package seed

import (
	_ "embed"
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/smartcart/backend/internal/domain"
)

//go:embed loblaws.csv
var loblawsCSV string

// Products returns the embedded Loblaws demo catalog in file order
func Products() ([]domain.Product, error) {
	return Parse(strings.NewReader(loblawsCSV))
}

// Parse reads products from CSV with a header row naming at least
// barcode, name and price. Extra columns are ignored.
func Parse(r io.Reader) ([]domain.Product, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog header: %w", err)
	}

	cols := make(map[string]int, len(header))
	for i, name := range header {
		cols[strings.ToLower(strings.TrimSpace(name))] = i
	}
	for _, required := range []string{"barcode", "name", "price"} {
		if _, ok := cols[required]; !ok {
			return nil, fmt.Errorf("catalog header missing %q column", required)
		}
	}

	reader.FieldsPerRecord = len(header)

	var products []domain.Product
	for line := 2; ; line++ {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("catalog line %d: %w", line, err)
		}

		barcode := strings.TrimSpace(record[cols["barcode"]])
		if barcode == "" {
			return nil, fmt.Errorf("catalog line %d: empty barcode", line)
		}
		name := strings.TrimSpace(record[cols["name"]])
		if name == "" {
			return nil, fmt.Errorf("catalog line %d: empty name", line)
		}
		price, err := decimal.NewFromString(strings.TrimSpace(record[cols["price"]]))
		if err != nil || price.IsNegative() {
			return nil, fmt.Errorf("catalog line %d: invalid price %q", line, record[cols["price"]])
		}

		products = append(products, domain.Product{
			Name:    name,
			Price:   price,
			Barcode: barcode,
		})
	}

	return products, nil
}
