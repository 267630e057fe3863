package services

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
)

// Seed file columns
const (
	SeedCountryColumn = "Countries"
	SeedColorColumn   = "Colour"
)

// ReadSeedCSV parses a seed file with a "Countries,Colour" header. Columns may
// appear in any order and extra columns are ignored. Color values are not
// checked here; see ColorStore.LoadFromSeed.
func ReadSeedCSV(r io.Reader) ([]SeedRow, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, errors.New("seed file is empty")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read seed header: %w", err)
	}

	countryIdx, colorIdx := -1, -1
	for i, col := range header {
		switch strings.TrimPrefix(strings.TrimSpace(col), "\ufeff") {
		case SeedCountryColumn:
			countryIdx = i
		case SeedColorColumn:
			colorIdx = i
		}
	}
	if countryIdx < 0 || colorIdx < 0 {
		return nil, fmt.Errorf("seed header must contain %q and %q, got %v", SeedCountryColumn, SeedColorColumn, header)
	}

	var rows []SeedRow
	for {
		record, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read seed row: %w", err)
		}
		if countryIdx >= len(record) || colorIdx >= len(record) {
			continue
		}
		rows = append(rows, SeedRow{
			Country:   record[countryIdx],
			ColorName: record[colorIdx],
		})
	}
	return rows, nil
}
