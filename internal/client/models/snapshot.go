package models

import (
	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// Expense is a shared-expense record.
type Expense struct {
	ID        string   `json:"id"`
	Date      string   `json:"date"`
	Time      string   `json:"time"`
	Payer     string   `json:"payer"`
	Location  string   `json:"location"`
	Item      string   `json:"item"`
	Payment   string   `json:"payment"`
	Currency  string   `json:"currency"`
	Amount    float64  `json:"amount"`
	AmountTWD int64    `json:"amountTWD"`
	Involved  []string `json:"involved"`
	Note      string   `json:"note"`
}

// Validate checks the user-supplied fields of an expense form. Validation
// failures are reported synchronously to the user and never reach the sync
// layer.
func (e Expense) Validate() error {
	return validation.ValidateStruct(&e,
		validation.Field(&e.Item, validation.Required),
		validation.Field(&e.Amount, validation.Required, validation.Min(0.01)),
		validation.Field(&e.Currency, validation.Required),
		validation.Field(&e.Payer, validation.Required),
	)
}

// ItineraryItem is a single itinerary entry. ImgID is the server-assigned
// asset identifier; it is empty for records whose image has not been
// confirmed yet.
type ItineraryItem struct {
	ID        string `json:"id"`
	Date      string `json:"date"`
	StartTime string `json:"startTime"`
	EndTime   string `json:"endTime"`
	Category  string `json:"category"`
	Title     string `json:"title"`
	Location  string `json:"location"`
	Link      string `json:"link"`
	Note      string `json:"note"`
	ImgURL    string `json:"imgUrl"`
	ImgID     string `json:"imgId"`
}

// Validate checks the user-supplied fields of an itinerary form.
func (i ItineraryItem) Validate() error {
	return validation.ValidateStruct(&i,
		validation.Field(&i.Title, validation.Required),
		validation.Field(&i.Date, validation.Required, validation.Date("2006-01-02")),
		validation.Field(&i.StartTime, validation.Date("15:04")),
		validation.Field(&i.EndTime, validation.Date("15:04")),
	)
}

// Snapshot is the full dataset as last known from the server. It is always
// treated as a whole: an authoritative response replaces the entire snapshot,
// never merges field by field.
type Snapshot struct {
	Members   []string           `json:"members"`
	Expenses  []Expense          `json:"expenses"`
	Itinerary []ItineraryItem    `json:"itinerary"`
	Rates     map[string]float64 `json:"rates"`
}

// EmptySnapshot returns a snapshot with all collections initialized, used as
// the fallback when nothing (or something malformed) is stored locally.
func EmptySnapshot() Snapshot {
	return Snapshot{
		Members:   []string{},
		Expenses:  []Expense{},
		Itinerary: []ItineraryItem{},
		Rates:     map[string]float64{},
	}
}

// Clone returns a deep copy so callers can read a snapshot without racing
// the owner.
func (s Snapshot) Clone() Snapshot {
	out := Snapshot{
		Members:   make([]string, len(s.Members)),
		Expenses:  make([]Expense, len(s.Expenses)),
		Itinerary: make([]ItineraryItem, len(s.Itinerary)),
		Rates:     make(map[string]float64, len(s.Rates)),
	}
	copy(out.Members, s.Members)
	copy(out.Itinerary, s.Itinerary)
	for i, e := range s.Expenses {
		inv := make([]string, len(e.Involved))
		copy(inv, e.Involved)
		e.Involved = inv
		out.Expenses[i] = e
	}
	for k, v := range s.Rates {
		out.Rates[k] = v
	}
	return out
}
