package api

type AttendanceEntryResponse struct {
	Name       string `json:"name"`
	Count      int    `json:"count"`
	Percentage int    `json:"percentage"`
	Clamped    bool   `json:"clamped,omitempty"`
}

type AttendanceResponse struct {
	Title      string                    `json:"title"`
	Field      string                    `json:"field"`
	TotalRaids int                       `json:"total_raids"`
	Entries    []AttendanceEntryResponse `json:"entries"`
	Blocks     [][]string                `json:"blocks"`
}

type MortalityEntryResponse struct {
	Name        string  `json:"name"`
	ReportsSeen int     `json:"reports_seen"`
	Deaths      int     `json:"deaths"`
	Average     float64 `json:"average"`
}

type MortalityResponse struct {
	Title   string                   `json:"title"`
	Field   string                   `json:"field"`
	Reports int                      `json:"reports"`
	Entries []MortalityEntryResponse `json:"entries"`
	Blocks  [][]string               `json:"blocks"`
}

type ErrorResponse struct {
	Error   string `json:"error" example:"no_qualifying_raids"`
	Message string `json:"message" example:"No qualifying raids found for this selection."`
}
