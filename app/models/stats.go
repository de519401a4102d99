package models

// DailyPaymentStats holds the captured-payment figures for a single day.
type DailyPaymentStats struct {
	Date   string `json:"date"`
	Count  int    `json:"count"`
	Amount int64  `json:"amount"`
}
