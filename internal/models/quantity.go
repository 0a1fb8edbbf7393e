package models

// QuantityData normalized unit of a physiological time series
type QuantityData struct {
	Value    float64      `json:"value"`
	Interval DateInterval `json:"interval"`
}
