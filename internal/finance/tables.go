package finance

import (
	"fmt"
	"math"
	"strings"
	"text/tabwriter"
)

// Table is a titled grid of preformatted cells.
type Table struct {
	Title  string
	Header []string
	Rows   [][]string
}

// String renders t as aligned plain text.
func (t Table) String() string {
	var b strings.Builder
	if t.Title != "" {
		b.WriteString(t.Title)
		b.WriteString("\n")
	}
	w := tabwriter.NewWriter(&b, 0, 0, 2, ' ', tabwriter.AlignRight)
	if len(t.Header) > 0 {
		fmt.Fprintln(w, strings.Join(t.Header, "\t")+"\t")
	}
	for _, r := range t.Rows {
		fmt.Fprintln(w, strings.Join(r, "\t")+"\t")
	}
	_ = w.Flush()
	return b.String()
}

// PriceTable lists field for every symbol over the last n dates.
func PriceTable(title string, frame *PriceFrame, field PriceField, n int) Table {
	t := Table{Title: title, Header: append([]string{"Date"}, frame.Symbols...)}
	cols := make([][]float64, len(frame.Symbols))
	for i, s := range frame.Symbols {
		cols[i] = frame.Column(s, field)
	}
	for i := frame.TailStart(n); i < frame.Len(); i++ {
		row := []string{frame.Dates[i].Format("2006-01-02")}
		for _, c := range cols {
			row = append(row, num(c[i], 2))
		}
		t.Rows = append(t.Rows, row)
	}
	return t
}

// BarTable lists open, close and adjusted close of one symbol over the last n dates.
func BarTable(frame *PriceFrame, symbol string, n int) Table {
	t := Table{Title: symbol + " prices", Header: []string{"Date", "Open", "Close", "Adj Close"}}
	bars := frame.Bars(symbol)
	for i := frame.TailStart(n); i < len(bars); i++ {
		b := bars[i]
		t.Rows = append(t.Rows, []string{b.Date.Format("2006-01-02"), num(b.Open, 2), num(b.Close, 2), num(b.AdjClose, 2)})
	}
	return t
}

// ReturnTables gives the intraday return (close - open) and return percent
// ((close - open) / open * 100) of symbol over the last n dates.
func ReturnTables(frame *PriceFrame, symbol string, n int) (Table, Table) {
	abs := Table{Title: symbol + " return", Header: []string{"Date", "Open", "Close", "Return"}}
	pct := Table{Title: symbol + " return %", Header: []string{"Date", "Open", "Close", "Return%"}}
	bars := frame.Bars(symbol)
	for i := frame.TailStart(n); i < len(bars); i++ {
		b := bars[i]
		d := b.Date.Format("2006-01-02")
		ret, retPct := IntradayReturn(b)
		abs.Rows = append(abs.Rows, []string{d, num(b.Open, 2), num(b.Close, 2), num(ret, 2)})
		pct.Rows = append(pct.Rows, []string{d, num(b.Open, 2), num(b.Close, 2), num(retPct, 2) + "%"})
	}
	return abs, pct
}

// SymbolReturnTables gives the intraday return and return percent of every symbol in the
// frame over the last n dates, one {symbol}_Return / {symbol}_Return% column per symbol.
func SymbolReturnTables(frame *PriceFrame, n int) (Table, Table) {
	abs := Table{Title: "Intraday return (close - open)", Header: []string{"Date"}}
	pct := Table{Title: "Intraday return %", Header: []string{"Date"}}
	for _, s := range frame.Symbols {
		abs.Header = append(abs.Header, s+"_Return")
		pct.Header = append(pct.Header, s+"_Return%")
	}
	for i := frame.TailStart(n); i < frame.Len(); i++ {
		d := frame.Dates[i].Format("2006-01-02")
		absRow, pctRow := []string{d}, []string{d}
		for _, s := range frame.Symbols {
			ret, retPct := IntradayReturn(frame.Bars(s)[i])
			absRow = append(absRow, num(ret, 2))
			pctRow = append(pctRow, num(retPct, 2)+"%")
		}
		abs.Rows = append(abs.Rows, absRow)
		pct.Rows = append(pct.Rows, pctRow)
	}
	return abs, pct
}

// IntradayReturn is close-open and its percentage of open. Either is NaN when undefined.
func IntradayReturn(b Bar) (float64, float64) {
	ret := b.Close - b.Open
	if math.IsNaN(ret) || b.Open == 0 {
		return ret, math.NaN()
	}
	return ret, ret / b.Open * 100
}

// MatrixTable renders the correlation (corr true) or covariance matrix.
func MatrixTable(m *Matrix, corr bool) Table {
	title, prec, get := "Covariance", 6, m.Cov
	if corr {
		title, prec, get = "Correlation", 3, m.Corr
	}
	t := Table{Title: title, Header: append([]string{""}, m.Symbols...)}
	for _, a := range m.Symbols {
		row := []string{a}
		for _, b := range m.Symbols {
			v, _ := get(a, b)
			row = append(row, num(v, prec))
		}
		t.Rows = append(t.Rows, row)
	}
	return t
}

// RankingTable renders the first n ranked rows.
func RankingTable(rows []RankedMetric, benchmark string, n int) Table {
	top := Top(rows, n)
	t := Table{
		Title:  fmt.Sprintf("Top %d by scaled covariance vs %s", len(top), benchmark),
		Header: []string{"#", "Symbol", "Corr", "Cov", "Scaled"},
	}
	for i, r := range top {
		t.Rows = append(t.Rows, []string{
			fmt.Sprintf("%d", i+1), r.Symbol, num(r.Correlation, 3), num(r.Covariance, 6), num(r.ScaledCovariance, 3),
		})
	}
	return t
}

func num(v float64, prec int) string {
	if math.IsNaN(v) {
		return "NaN"
	}
	return fmt.Sprintf("%.*f", prec, v)
}
