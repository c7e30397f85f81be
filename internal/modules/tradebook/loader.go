// Package tradebook loads raw trade sources and normalizes them into a single
// chronologically ordered event stream per the reconstruction pipeline's
// contract: non-negative quantities, typed direction, calendar-date keys.
package tradebook

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/foliotracker/folio/internal/domain"
)

// Broker export column names (Zerodha-style tradebook CSV).
const (
	colSymbol        = "symbol"
	colQuantity      = "quantity"
	colPrice         = "price"
	colTradeType     = "trade_type"
	colTradeDate     = "trade_date"
	colExecutionTime = "order_execution_time"
)

// Loader reads tradebook CSVs from the data directory.
type Loader struct {
	dataDir string
	log     zerolog.Logger
}

// NewLoader creates a tradebook loader rooted at dataDir.
func NewLoader(dataDir string, log zerolog.Logger) *Loader {
	return &Loader{
		dataDir: dataDir,
		log:     log.With().Str("component", "tradebook_loader").Logger(),
	}
}

// Load reads every broker export (tradebook*.csv) plus the optional
// manual_trades.csv from the data directory and returns the normalized,
// date-sorted stream.
func (l *Loader) Load() ([]domain.Trade, error) {
	pattern := filepath.Join(l.dataDir, "tradebook*.csv")
	files, err := filepath.Glob(pattern)
	if err != nil {
		return nil, fmt.Errorf("failed to list tradebook files: %w", err)
	}
	sort.Strings(files)

	var broker []domain.Trade
	for _, file := range files {
		trades, err := l.readFile(file, ReadBrokerCSV)
		if err != nil {
			return nil, err
		}
		broker = append(broker, trades...)
	}
	l.log.Debug().Int("files", len(files)).Int("trades", len(broker)).Msg("Loaded broker tradebooks")

	var manual []domain.Trade
	manualPath := filepath.Join(l.dataDir, "manual_trades.csv")
	if _, err := os.Stat(manualPath); err == nil {
		manual, err = l.readFile(manualPath, ReadManualCSV)
		if err != nil {
			return nil, err
		}
		l.log.Debug().Int("trades", len(manual)).Msg("Loaded manual trades")
	}

	return Normalize(broker, manual), nil
}

func (l *Loader) readFile(path string, read func(string, io.Reader) ([]domain.Trade, error)) ([]domain.Trade, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open trade source %s: %w", path, err)
	}
	defer f.Close()
	return read(filepath.Base(path), f)
}

// ReadBrokerCSV parses a broker tradebook export. Required columns: symbol,
// quantity, price, trade_type, trade_date. order_execution_time is optional
// and used to order same-day rows within the export.
func ReadBrokerCSV(source string, r io.Reader) ([]domain.Trade, error) {
	rows, cols, err := readAll(source, r)
	if err != nil {
		return nil, err
	}
	for _, required := range []string{colSymbol, colQuantity, colPrice, colTradeType, colTradeDate} {
		if _, ok := cols[required]; !ok {
			return nil, &domain.MalformedInputError{Source: source, Column: required}
		}
	}

	type row struct {
		trade domain.Trade
		exec  string
	}
	parsed := make([]row, 0, len(rows))
	for _, record := range rows {
		quantity, err := strconv.ParseFloat(record[cols[colQuantity]], 64)
		if err != nil {
			return nil, &domain.MalformedInputError{Source: source, Column: colQuantity, Reason: err.Error()}
		}
		price, err := strconv.ParseFloat(record[cols[colPrice]], 64)
		if err != nil {
			return nil, &domain.MalformedInputError{Source: source, Column: colPrice, Reason: err.Error()}
		}
		tradeType := domain.TradeType(strings.ToLower(strings.TrimSpace(record[cols[colTradeType]])))
		if tradeType != domain.TradeBuy && tradeType != domain.TradeSell {
			return nil, &domain.MalformedInputError{Source: source, Column: colTradeType, Reason: fmt.Sprintf("unknown trade type %q", record[cols[colTradeType]])}
		}
		date, err := parseDate(record[cols[colTradeDate]])
		if err != nil {
			return nil, &domain.MalformedInputError{Source: source, Column: colTradeDate, Reason: err.Error()}
		}
		if quantity < 0 {
			return nil, &domain.MalformedInputError{Source: source, Column: colQuantity, Reason: "broker quantity must be non-negative"}
		}

		exec := ""
		if i, ok := cols[colExecutionTime]; ok {
			exec = record[i]
		}
		parsed = append(parsed, row{
			trade: domain.Trade{
				Symbol:   normalizeSymbol(record[cols[colSymbol]]),
				Quantity: quantity,
				Price:    price,
				Type:     tradeType,
				Date:     date,
			},
			exec: exec,
		})
	}

	// Order same-day rows by execution time; the sort is stable so rows
	// without timestamps keep their file order.
	sort.SliceStable(parsed, func(i, j int) bool { return parsed[i].exec < parsed[j].exec })

	trades := make([]domain.Trade, len(parsed))
	for i, p := range parsed {
		trades[i] = p.trade
	}
	return trades, nil
}

// ReadManualCSV parses the manual-entry supplement. Required columns: symbol,
// quantity (signed), price, trade_date. Signed quantities are coerced into
// (magnitude, type): positive means buy, negative means sell.
func ReadManualCSV(source string, r io.Reader) ([]domain.Trade, error) {
	rows, cols, err := readAll(source, r)
	if err != nil {
		return nil, err
	}
	for _, required := range []string{colSymbol, colQuantity, colPrice, colTradeDate} {
		if _, ok := cols[required]; !ok {
			return nil, &domain.MalformedInputError{Source: source, Column: required}
		}
	}

	trades := make([]domain.Trade, 0, len(rows))
	for _, record := range rows {
		quantity, err := strconv.ParseFloat(record[cols[colQuantity]], 64)
		if err != nil {
			return nil, &domain.MalformedInputError{Source: source, Column: colQuantity, Reason: err.Error()}
		}
		price, err := strconv.ParseFloat(record[cols[colPrice]], 64)
		if err != nil {
			return nil, &domain.MalformedInputError{Source: source, Column: colPrice, Reason: err.Error()}
		}
		date, err := parseDate(record[cols[colTradeDate]])
		if err != nil {
			return nil, &domain.MalformedInputError{Source: source, Column: colTradeDate, Reason: err.Error()}
		}

		tradeType := domain.TradeBuy
		if quantity < 0 {
			tradeType = domain.TradeSell
		}
		remark := ""
		if i, ok := cols["remark"]; ok {
			remark = record[i]
		}
		trades = append(trades, domain.Trade{
			Symbol:   normalizeSymbol(record[cols[colSymbol]]),
			Quantity: math.Abs(quantity),
			Price:    price,
			Type:     tradeType,
			Date:     date,
			Remark:   remark,
		})
	}
	return trades, nil
}

// Normalize concatenates broker and manual trades and stable-sorts by trade
// date ascending. Broker rows precede manual rows on equal dates because
// manual entries are appended after and the sort is stable.
func Normalize(broker, manual []domain.Trade) []domain.Trade {
	merged := make([]domain.Trade, 0, len(broker)+len(manual))
	merged = append(merged, broker...)
	merged = append(merged, manual...)
	sort.SliceStable(merged, func(i, j int) bool { return merged[i].Date.Before(merged[j].Date) })
	return merged
}

// Symbols returns the distinct symbols of a trade stream, sorted.
func Symbols(trades []domain.Trade) []string {
	seen := make(map[string]struct{})
	for _, t := range trades {
		seen[t.Symbol] = struct{}{}
	}
	symbols := make([]string, 0, len(seen))
	for sym := range seen {
		symbols = append(symbols, sym)
	}
	sort.Strings(symbols)
	return symbols
}

// BySymbol groups a trade stream by symbol, preserving order within each group.
func BySymbol(trades []domain.Trade) map[string][]domain.Trade {
	grouped := make(map[string][]domain.Trade)
	for _, t := range trades {
		grouped[t.Symbol] = append(grouped[t.Symbol], t)
	}
	return grouped
}

// normalizeSymbol strips the exchange-series suffix, keeping the base ticker
// (e.g. "TCS-EQ" → "TCS").
func normalizeSymbol(symbol string) string {
	base, _, _ := strings.Cut(strings.TrimSpace(symbol), "-")
	return base
}

// parseDate accepts plain dates and datetime strings with a date prefix.
func parseDate(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if len(value) >= 10 {
		if t, err := time.Parse("2006-01-02", value[:10]); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unparseable date %q", value)
}

// readAll reads header + records and returns records with a column index map.
// Records shorter than the header are rejected by the csv reader itself.
func readAll(source string, r io.Reader) ([][]string, map[string]int, error) {
	reader := csv.NewReader(r)
	header, err := reader.Read()
	if err == io.EOF {
		return nil, map[string]int{}, &domain.MalformedInputError{Source: source, Column: "header", Reason: "empty file"}
	}
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read header of %s: %w", source, err)
	}

	cols := make(map[string]int, len(header))
	for i, name := range header {
		cols[strings.ToLower(strings.TrimSpace(name))] = i
	}

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read rows of %s: %w", source, err)
	}
	return rows, cols, nil
}
