package cli

import (
	"context"
	"fmt"
)

func (a *App) deleteExpense(ctx context.Context) {
	id, err := GetSimpleText(a.reader, "Enter expense id to delete")
	if err != nil {
		fmt.Println("error:", err)
		return
	}
	if err := a.service.DeleteExpense(ctx, id); err != nil {
		fmt.Println("error:", err)
		return
	}
	fmt.Println("Deleted expense", id)
}

func (a *App) deleteItinerary(ctx context.Context) {
	id, err := GetSimpleText(a.reader, "Enter itinerary id to delete")
	if err != nil {
		fmt.Println("error:", err)
		return
	}
	if err := a.service.DeleteItinerary(ctx, id); err != nil {
		fmt.Println("error:", err)
		return
	}
	fmt.Println("Deleted itinerary item", id)
}
