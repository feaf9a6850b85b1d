package domain

// Weather is the current-conditions summary used by the traffic simulator.
type Weather struct {
	TempC     float64 `json:"temp"`
	Condition string  `json:"condition"`
	City      string  `json:"city,omitempty"`
	IsMock    bool    `json:"is_mock"`
}
