package marketdata

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/yourusername/stockcast/internal/models"
)

// csvColumns is the expected header: date,open,high,low,close,volume
const csvColumns = 6

// LoadBarsCSV reads daily bars from a CSV file. Prices are parsed through
// decimal so values like "101.30" survive the trip exactly, then rounded to
// float64 once per field. Rows are returned sorted by date.
func LoadBarsCSV(path string) ([]models.Bar, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open bar file: %w", err)
	}
	defer f.Close()

	return ParseBarsCSV(f)
}

// ParseBarsCSV reads bars from CSV data with a header row.
func ParseBarsCSV(r io.Reader) ([]models.Bar, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = csvColumns

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV header: %w", err)
	}
	if header[0] != "date" {
		return nil, fmt.Errorf("unexpected CSV header, want date,open,high,low,close,volume")
	}

	var bars []models.Bar
	for line := 2; ; line++ {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read CSV line %d: %w", line, err)
		}

		bar, err := parseBarRecord(record)
		if err != nil {
			return nil, fmt.Errorf("CSV line %d: %w", line, err)
		}
		bars = append(bars, bar)
	}

	sort.Slice(bars, func(i, j int) bool {
		return bars[i].Timestamp.Before(bars[j].Timestamp)
	})
	return bars, nil
}

func parseBarRecord(record []string) (models.Bar, error) {
	ts, err := time.Parse("2006-01-02", record[0])
	if err != nil {
		return models.Bar{}, fmt.Errorf("invalid date %q: %w", record[0], err)
	}

	fields := make([]float64, 5)
	names := []string{"open", "high", "low", "close", "volume"}
	for i, name := range names {
		d, err := decimal.NewFromString(record[i+1])
		if err != nil {
			return models.Bar{}, fmt.Errorf("invalid %s %q: %w", name, record[i+1], err)
		}
		fields[i], _ = d.Float64()
	}

	return models.Bar{
		Timestamp: ts,
		Open:      fields[0],
		High:      fields[1],
		Low:       fields[2],
		Close:     fields[3],
		Volume:    fields[4],
	}, nil
}
