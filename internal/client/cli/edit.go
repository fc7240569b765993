package cli

import (
	"context"
	"fmt"

	"github.com/smolnikov/tripsync/internal/client/models"
)

// editExpense prompts for a record id and re-enters fields; an empty answer
// keeps the current value.
func (a *App) editExpense(ctx context.Context) {
	id, err := GetSimpleText(a.reader, "Enter expense id to edit")
	if err != nil {
		fmt.Println("error:", err)
		return
	}

	var current *models.Expense
	for _, e := range a.service.Snapshot().Expenses {
		if e.ID == id {
			current = &e
			break
		}
	}
	if current == nil {
		fmt.Println("No expense with id", id)
		return
	}

	e := *current
	if v, err := GetSimpleText(a.reader, "Item ["+e.Item+"]"); err == nil && v != "" {
		e.Item = v
	}
	if v, err := GetFloat(a.reader, fmt.Sprintf("Amount [%.2f]", e.Amount)); err == nil && v != 0 {
		e.Amount = v
	}
	if v, err := GetSimpleText(a.reader, "Currency ["+e.Currency+"]"); err == nil && v != "" {
		e.Currency = v
	}
	if v, err := GetSimpleText(a.reader, "Payer ["+e.Payer+"]"); err == nil && v != "" {
		e.Payer = v
	}
	if v, err := GetList(a.reader, "Involved (comma separated, empty keeps current)"); err == nil && len(v) > 0 {
		e.Involved = v
	}

	if err := a.service.EditExpense(ctx, e); err != nil {
		fmt.Println("error:", err)
		return
	}
	fmt.Println("Updated expense", id)
}

func (a *App) editItinerary(ctx context.Context) {
	id, err := GetSimpleText(a.reader, "Enter itinerary id to edit")
	if err != nil {
		fmt.Println("error:", err)
		return
	}

	var current *models.ItineraryItem
	for _, it := range a.service.Snapshot().Itinerary {
		if it.ID == id {
			current = &it
			break
		}
	}
	if current == nil {
		fmt.Println("No itinerary item with id", id)
		return
	}

	it := *current
	if v, err := GetSimpleText(a.reader, "Title ["+it.Title+"]"); err == nil && v != "" {
		it.Title = v
	}
	if v, err := GetSimpleText(a.reader, "Date ["+it.Date+"]"); err == nil && v != "" {
		it.Date = v
	}
	if v, err := GetSimpleText(a.reader, "Start time ["+it.StartTime+"]"); err == nil && v != "" {
		it.StartTime = v
	}
	if v, err := GetSimpleText(a.reader, "Location ["+it.Location+"]"); err == nil && v != "" {
		it.Location = v
	}

	removeImage := false
	var newImage []byte
	answer, err := GetSimpleText(a.reader, "Image: (k)eep, (r)eplace, (d)elete")
	if err == nil {
		switch answer {
		case "r":
			newImage, err = a.readImageFile()
			if err != nil {
				fmt.Println("error:", err)
				return
			}
		case "d":
			removeImage = true
		}
	}

	if err := a.service.EditItinerary(ctx, it, newImage, removeImage); err != nil {
		fmt.Println("error:", err)
		return
	}
	fmt.Println("Updated itinerary item", id)
}
