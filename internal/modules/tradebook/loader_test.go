package tradebook

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/foliotracker/folio/internal/domain"
)

func day(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

func TestReadBrokerCSV(t *testing.T) {
	input := strings.NewReader(
		"symbol,quantity,price,trade_type,trade_date,order_execution_time\n" +
			"TCS-EQ,10,3500.5,buy,2024-01-05,2024-01-05T10:15:00\n" +
			"INFY,4,1500,sell,2024-01-08,2024-01-08T11:00:00\n")

	trades, err := ReadBrokerCSV("tradebook-FY24.csv", input)
	require.NoError(t, err)
	require.Len(t, trades, 2)

	assert.Equal(t, "TCS", trades[0].Symbol, "exchange-series suffix should be stripped")
	assert.Equal(t, domain.TradeBuy, trades[0].Type)
	assert.Equal(t, 10.0, trades[0].Quantity)
	assert.Equal(t, 3500.5, trades[0].Price)
	assert.Equal(t, day("2024-01-05"), trades[0].Date)

	assert.Equal(t, "INFY", trades[1].Symbol)
	assert.Equal(t, domain.TradeSell, trades[1].Type)
}

func TestReadBrokerCSVOrdersByExecutionTime(t *testing.T) {
	input := strings.NewReader(
		"symbol,quantity,price,trade_type,trade_date,order_execution_time\n" +
			"TCS,5,100,buy,2024-01-05,2024-01-05T14:00:00\n" +
			"TCS,3,99,buy,2024-01-05,2024-01-05T09:30:00\n")

	trades, err := ReadBrokerCSV("tradebook.csv", input)
	require.NoError(t, err)
	require.Len(t, trades, 2)
	assert.Equal(t, 3.0, trades[0].Quantity, "earlier execution time should come first")
	assert.Equal(t, 5.0, trades[1].Quantity)
}

func TestReadBrokerCSVMissingColumn(t *testing.T) {
	input := strings.NewReader("symbol,quantity,trade_type,trade_date\nTCS,10,buy,2024-01-05\n")

	_, err := ReadBrokerCSV("tradebook.csv", input)
	require.Error(t, err)
	assert.True(t, domain.IsMalformedInput(err))
	assert.Contains(t, err.Error(), "price")
}

func TestReadBrokerCSVBadValues(t *testing.T) {
	testCases := []struct {
		name   string
		csv    string
		column string
	}{
		{
			name:   "unparseable quantity",
			csv:    "symbol,quantity,price,trade_type,trade_date\nTCS,ten,100,buy,2024-01-05\n",
			column: "quantity",
		},
		{
			name:   "negative quantity",
			csv:    "symbol,quantity,price,trade_type,trade_date\nTCS,-5,100,buy,2024-01-05\n",
			column: "quantity",
		},
		{
			name:   "unknown trade type",
			csv:    "symbol,quantity,price,trade_type,trade_date\nTCS,5,100,short,2024-01-05\n",
			column: "trade_type",
		},
		{
			name:   "bad date",
			csv:    "symbol,quantity,price,trade_type,trade_date\nTCS,5,100,buy,05/01/2024\n",
			column: "trade_date",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ReadBrokerCSV("tradebook.csv", strings.NewReader(tc.csv))
			require.Error(t, err)
			assert.True(t, domain.IsMalformedInput(err))
			assert.Contains(t, err.Error(), tc.column)
		})
	}
}

func TestReadManualCSVCoercesSignedQuantities(t *testing.T) {
	input := strings.NewReader(
		"symbol,quantity,price,trade_date\n" +
			"HDFC-BE,25,1600,2024-02-01\n" +
			"HDFC,-10,1700,2024-03-01\n")

	trades, err := ReadManualCSV("manual_trades.csv", input)
	require.NoError(t, err)
	require.Len(t, trades, 2)

	assert.Equal(t, "HDFC", trades[0].Symbol)
	assert.Equal(t, domain.TradeBuy, trades[0].Type)
	assert.Equal(t, 25.0, trades[0].Quantity)

	assert.Equal(t, domain.TradeSell, trades[1].Type)
	assert.Equal(t, 10.0, trades[1].Quantity, "quantity must be the magnitude")
}

func TestNormalizeStableSortByDate(t *testing.T) {
	broker := []domain.Trade{
		{Symbol: "TCS", Quantity: 1, Type: domain.TradeBuy, Date: day("2024-01-10")},
		{Symbol: "TCS", Quantity: 2, Type: domain.TradeBuy, Date: day("2024-01-05")},
	}
	manual := []domain.Trade{
		{Symbol: "TCS", Quantity: 3, Type: domain.TradeBuy, Date: day("2024-01-10")},
	}

	merged := Normalize(broker, manual)
	require.Len(t, merged, 3)
	assert.Equal(t, 2.0, merged[0].Quantity)
	assert.Equal(t, 1.0, merged[1].Quantity, "broker trade precedes manual trade on equal dates")
	assert.Equal(t, 3.0, merged[2].Quantity)
}

func TestLoaderLoadsDirectory(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "tradebook-FY23.csv",
		"symbol,quantity,price,trade_type,trade_date\nTCS,10,3000,buy,2023-06-01\n")
	writeFile(t, dir, "tradebook-FY24.csv",
		"symbol,quantity,price,trade_type,trade_date\nTCS,5,3500,sell,2024-01-05\n")
	writeFile(t, dir, "manual_trades.csv",
		"symbol,quantity,price,trade_date\nINFY,8,1450,2023-09-15\n")

	loader := NewLoader(dir, zerolog.Nop())
	trades, err := loader.Load()
	require.NoError(t, err)
	require.Len(t, trades, 3)

	// Sorted by date across all sources.
	assert.Equal(t, "TCS", trades[0].Symbol)
	assert.Equal(t, "INFY", trades[1].Symbol)
	assert.Equal(t, domain.TradeSell, trades[2].Type)

	assert.Equal(t, []string{"INFY", "TCS"}, Symbols(trades))
	grouped := BySymbol(trades)
	assert.Len(t, grouped["TCS"], 2)
	assert.Len(t, grouped["INFY"], 1)
}

func TestLoaderSurfacesMalformedSource(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "tradebook-FY24.csv", "symbol,price,trade_type,trade_date\nTCS,3000,buy,2023-06-01\n")

	loader := NewLoader(dir, zerolog.Nop())
	_, err := loader.Load()
	require.Error(t, err)
	assert.True(t, domain.IsMalformedInput(err))
}

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0644))
}
