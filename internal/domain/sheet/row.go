// Package sheet models the remote spreadsheet the logbook forwards entries to
package sheet

import (
	"math"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

// Header is written once, as the first row of an empty sheet
var Header = []string{
	"Datum",
	"Kategorie",
	"KM-Stand",
	"KM-Trip",
	"Liter",
	"Kosten (€)",
	"Preis/Liter (€)",
	"Tankstelle",
	"Bemerkung",
	"Gespeichert am",
}

// Payload is the JSON body posted by the logbook. Numeric fields arrive normalized
// ("233300", "40.50"); text fields arrive untouched.
type Payload struct {
	Datum        string `json:"datum" binding:"required"`
	Kategorie    string `json:"kategorie"`
	KmStand      string `json:"kmStand"`
	KmTrip       string `json:"kmTrip"`
	SpritLiter   string `json:"spritLiter"`
	Kosten       string `json:"kosten"`
	PreisJeLiter string `json:"preisJeLiter"`
	Tankstelle   string `json:"tankstelle"`
	Bemerkung    string `json:"bemerkung"`
}

// Row is one appended spreadsheet line. Cells hold display values in column order.
type Row struct {
	ID         int64     `json:"id"`
	SheetName  string    `json:"sheet_name"`
	RowNumber  int       `json:"row_number"`
	IsHeader   bool      `json:"is_header"`
	Cells      []string  `json:"cells"`
	ReceivedAt time.Time `json:"received_at"`
}

// columnFormat describes how a numeric column is displayed
type columnFormat struct {
	decimals int
	grouped  bool
}

var (
	formatKilometers = columnFormat{decimals: 0, grouped: true} // #,##0
	formatTrip       = columnFormat{decimals: 1, grouped: true} // #,##0.0
	formatLiters     = columnFormat{decimals: 2}                // 0.00
	formatMoney      = columnFormat{decimals: 2, grouped: true} // #,##0.00
	formatUnitPrice  = columnFormat{decimals: 3}                // 0.000
)

// NewHeaderRow builds the header line for sheetName
func NewHeaderRow(sheetName string, receivedAt time.Time) *Row {
	cells := make([]string, len(Header))
	copy(cells, Header)
	return &Row{
		SheetName:  sheetName,
		IsHeader:   true,
		Cells:      cells,
		ReceivedAt: receivedAt,
	}
}

// NewDataRow converts a payload into display cells, applying the per-column number formats
func NewDataRow(sheetName string, p Payload, receivedAt time.Time) *Row {
	// Printers keep a buffer and are not safe for concurrent use
	de := message.NewPrinter(language.German)
	return &Row{
		SheetName: sheetName,
		Cells: []string{
			p.Datum,
			p.Kategorie,
			formatKilometers.apply(de, p.KmStand),
			formatTrip.apply(de, p.KmTrip),
			formatLiters.apply(de, p.SpritLiter),
			formatMoney.apply(de, p.Kosten),
			formatUnitPrice.apply(de, p.PreisJeLiter),
			p.Tankstelle,
			p.Bemerkung,
			receivedAt.Format("02.01.2006 15:04:05"),
		},
		ReceivedAt: receivedAt,
	}
}

// apply renders raw with German separators. Anything that is not a finite decimal number,
// including NaN, Inf and hex floats, is kept as sent.
func (f columnFormat) apply(de *message.Printer, raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" || strings.ContainsAny(raw, "xXpP_") {
		return raw
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return raw
	}

	opts := []number.Option{number.Scale(f.decimals)}
	if !f.grouped {
		opts = append(opts, number.NoSeparator())
	}
	return de.Sprint(number.Decimal(v, opts...))
}
