package domain

// QueryType enumerates the query languages the data backend executes.
type QueryType string

const (
	QuerySQL QueryType = "sql"
	QueryDAX QueryType = "dax"
)

type Dataset struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Workspace   string   `json:"workspace"`
	Tables      []string `json:"tables"`
	LastRefresh string   `json:"lastRefresh"`
}

type DataResult struct {
	RowCount      int              `json:"rowCount"`
	Columns       []string         `json:"columns"`
	ExecutionTime float64          `json:"executionTime"`
	QueryType     QueryType        `json:"queryType"`
	Cached        bool             `json:"cached"`
	Preview       []map[string]any `json:"preview"`
}

type QueryInfo struct {
	Query         string    `json:"query"`
	QueryType     QueryType `json:"queryType"`
	Confidence    float64   `json:"confidence"`
	ExecutionTime float64   `json:"executionTime"`
}
