package models

// ChartPayload points at the files a chart generation produced: the
// markdown rendering and the CSV holding the plotted values.
type ChartPayload struct {
	Symbol    string `json:"symbol,omitempty"`
	ChartType string `json:"chart_type"`
	ChartPath string `json:"chart_path"`
	DataPath  string `json:"data_path,omitempty"`
}

// ReportPayload points at a generated report file.
type ReportPayload struct {
	Title      string   `json:"title"`
	ReportPath string   `json:"report_path"`
	Symbols    []string `json:"symbols,omitempty"`
}
