package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/smolnikov/tripsync/internal/client/models"
)

func (a *App) addExpense(ctx context.Context) {
	e := models.Expense{}
	var err error

	if e.Item, err = GetSimpleText(a.reader, "Enter item"); err != nil {
		fmt.Println("error:", err)
		return
	}
	if e.Amount, err = GetFloat(a.reader, "Enter amount"); err != nil {
		fmt.Println("error:", err)
		return
	}
	if e.Currency, err = GetSimpleText(a.reader, "Enter currency (e.g. TWD, JPY)"); err != nil {
		fmt.Println("error:", err)
		return
	}
	if e.Payer, err = GetSimpleText(a.reader, "Enter payer"); err != nil {
		fmt.Println("error:", err)
		return
	}
	if e.Involved, err = GetList(a.reader, "Enter involved members, comma separated (empty = payer only)"); err != nil {
		fmt.Println("error:", err)
		return
	}
	if len(e.Involved) == 0 {
		e.Involved = []string{e.Payer}
	}
	if e.Note, err = GetSimpleText(a.reader, "Enter note (optional)"); err != nil {
		fmt.Println("error:", err)
		return
	}

	id, err := a.service.AddExpense(ctx, e)
	if err != nil {
		fmt.Println("error:", err)
		return
	}
	fmt.Println("Added expense", id)
}

func (a *App) addItinerary(ctx context.Context) {
	it := models.ItineraryItem{}
	var err error

	if it.Title, err = GetSimpleText(a.reader, "Enter title"); err != nil {
		fmt.Println("error:", err)
		return
	}
	if it.Date, err = GetSimpleText(a.reader, "Enter date (YYYY-MM-DD)"); err != nil {
		fmt.Println("error:", err)
		return
	}
	if it.StartTime, err = GetSimpleText(a.reader, "Enter start time (HH:MM, optional)"); err != nil {
		fmt.Println("error:", err)
		return
	}
	if it.EndTime, err = GetSimpleText(a.reader, "Enter end time (HH:MM, optional)"); err != nil {
		fmt.Println("error:", err)
		return
	}
	if it.Location, err = GetSimpleText(a.reader, "Enter location (optional)"); err != nil {
		fmt.Println("error:", err)
		return
	}
	if it.Note, err = GetSimpleText(a.reader, "Enter note (optional)"); err != nil {
		fmt.Println("error:", err)
		return
	}

	image, err := a.readImageFile()
	if err != nil {
		fmt.Println("error:", err)
		return
	}

	id, err := a.service.AddItinerary(ctx, it, image)
	if err != nil {
		fmt.Println("error:", err)
		return
	}
	fmt.Println("Added itinerary item", id)
}

// readImageFile prompts for an optional image path and reads the file.
func (a *App) readImageFile() ([]byte, error) {
	path, err := GetSimpleText(a.reader, "Enter image file path (optional)")
	if err != nil {
		return nil, err
	}
	if path == "" {
		return nil, nil
	}
	blob, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read image: %w", err)
	}
	return blob, nil
}
