package stock

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"
)

// ErrMissingColumns is returned when a CSV has no DATE or CLOSE column.
var ErrMissingColumns = errors.New("csv is missing required columns")

// Row is one trading day parsed from an exchange export.
type Row struct {
	Date     time.Time
	Open     float64
	High     float64
	Low      float64
	Close    float64
	Volume   int64
	Trades   int64
	Turnover float64
}

type field int

const (
	fieldDate field = iota
	fieldOpen
	fieldHigh
	fieldLow
	fieldClose
	fieldVolume
	fieldTrades
	fieldTurnover
	fieldCount
)

// columnAliases lists normalized headers per field in priority order.
var columnAliases = [fieldCount][]string{
	fieldDate:     {"DATE", "TRADEDATE", "TIMESTAMP"},
	fieldOpen:     {"OPEN", "OPENPRICE"},
	fieldHigh:     {"HIGH", "HIGHPRICE"},
	fieldLow:      {"LOW", "LOWPRICE"},
	fieldClose:    {"CLOSE", "CLOSEPRICE", "LTP", "LASTPRICE"},
	fieldVolume:   {"NOOFSHARES", "VOLUME", "TOTALTRADEDQUANTITY", "QUANTITY"},
	fieldTrades:   {"NOOFTRADES", "TRADES", "TOTALTRADES"},
	fieldTurnover: {"TOTALTURNOVERRS", "TOTALTURNOVER", "TURNOVER", "VALUE"},
}

func resolveColumns(header []string) ([fieldCount]int, error) {
	positions := map[string]int{}
	for i, name := range header {
		key := NormalizeHeader(name)
		if _, seen := positions[key]; !seen {
			positions[key] = i
		}
	}

	var columns [fieldCount]int
	for f := field(0); f < fieldCount; f++ {
		columns[f] = -1
		for _, alias := range columnAliases[f] {
			if idx, ok := positions[alias]; ok {
				columns[f] = idx
				break
			}
		}
	}
	if columns[fieldDate] < 0 || columns[fieldClose] < 0 {
		return columns, fmt.Errorf("%w: header %q", ErrMissingColumns, strings.Join(header, ","))
	}
	return columns, nil
}

// ParseCSV reads an exchange history export. Rows with a blank or
// unparseable date or close are skipped, duplicate dates keep the last
// occurrence and the result is sorted by date ascending.
func ParseCSV(r io.Reader) ([]Row, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read csv: %w", err)
	}
	raw = bytes.TrimPrefix(raw, []byte("\xef\xbb\xbf"))

	reader := csv.NewReader(bytes.NewReader(raw))
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true

	var columns [fieldCount]int
	headerSeen := false
	byDate := map[time.Time]Row{}

	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("parse csv: %w", err)
		}
		if blankRecord(record) {
			continue
		}
		if !headerSeen {
			if columns, err = resolveColumns(record); err != nil {
				return nil, err
			}
			headerSeen = true
			continue
		}

		row, ok := parseRecord(record, columns)
		if !ok {
			continue
		}
		byDate[row.Date] = row
	}
	if !headerSeen {
		return nil, fmt.Errorf("%w: empty file", ErrMissingColumns)
	}

	rows := make([]Row, 0, len(byDate))
	for _, row := range byDate {
		rows = append(rows, row)
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].Date.Before(rows[j].Date) })
	return rows, nil
}

func parseRecord(record []string, columns [fieldCount]int) (Row, bool) {
	cell := func(f field) string {
		idx := columns[f]
		if idx < 0 || idx >= len(record) {
			return ""
		}
		return record[idx]
	}

	date, err := ParseDate(cell(fieldDate))
	if err != nil {
		return Row{}, false
	}
	closeText := strings.TrimSpace(cell(fieldClose))
	closePrice, err := ParseNumber(closeText)
	if err != nil || closeText == "" || closeText == "-" {
		return Row{}, false
	}

	number := func(f field) float64 {
		n, _ := ParseNumber(cell(f))
		return n
	}
	return Row{
		Date:     date,
		Open:     number(fieldOpen),
		High:     number(fieldHigh),
		Low:      number(fieldLow),
		Close:    closePrice,
		Volume:   int64(number(fieldVolume)),
		Trades:   int64(number(fieldTrades)),
		Turnover: number(fieldTurnover),
	}, true
}

func blankRecord(record []string) bool {
	for _, value := range record {
		if strings.TrimSpace(value) != "" {
			return false
		}
	}
	return true
}
