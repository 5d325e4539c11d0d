package dto

// StockQuote is the enrichment result for one symbol. MovingAverage200 is
// nil when the scanner row carries no SMA200 value.
type StockQuote struct {
	Price            float64
	MovingAverage200 *float64
}

// TradingViewScanRequest is the screener scan payload. Columns are
// positional: name, description, close, SMA200.
type TradingViewScanRequest struct {
	Columns []string                 `json:"columns"`
	Filter  []TradingViewScanFilter  `json:"filter"`
	Markets []string                 `json:"markets"`
	Options TradingViewScanOptions   `json:"options"`
	Range   []int                    `json:"range"`
	Sort    TradingViewScanSort      `json:"sort"`
	Symbols TradingViewScanSymbolSet `json:"symbols"`
}

type TradingViewScanFilter struct {
	Left      string `json:"left"`
	Operation string `json:"operation"`
	Right     string `json:"right"`
}

type TradingViewScanOptions struct {
	Lang string `json:"lang"`
}

type TradingViewScanSort struct {
	SortBy    string `json:"sortBy"`
	SortOrder string `json:"sortOrder"`
}

type TradingViewScanSymbolSet struct {
	SymbolSet []string `json:"symbolset"`
}

type TradingViewScanResponse struct {
	TotalCount int                  `json:"totalCount"`
	Data       []TradingViewScanRow `json:"data"`
}

// TradingViewScanRow carries positional values matching the requested
// columns; strings and numbers are mixed, so fields are decoded as any.
type TradingViewScanRow struct {
	Symbol string        `json:"s"`
	Fields []interface{} `json:"d"`
}
