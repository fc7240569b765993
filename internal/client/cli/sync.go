package cli

import (
	"context"
	"fmt"

	"github.com/smolnikov/tripsync/internal/client/models"
)

func (a *App) sync(ctx context.Context) {
	if err := a.service.DrainOnce(ctx); err != nil {
		fmt.Println("error:", err)
		return
	}
	if n := len(a.service.Queue()); n > 0 {
		fmt.Printf("%d operation(s) still pending.\n", n)
		return
	}
	fmt.Println("In sync.")
}

func (a *App) showQueue(ctx context.Context) {
	queue := a.service.Queue()
	if len(queue) == 0 {
		fmt.Println("Queue is empty.")
		return
	}
	for i, qe := range queue {
		s := fmt.Sprintf("  %d. %s (%s %s)", i+1, models.ActionName(qe.Kind, qe.Op), qe.Kind, qe.RecordID)
		if qe.LocalAssetKey != "" {
			s += " +image"
		}
		fmt.Println(s)
	}
}

func (a *App) purgeQueue(ctx context.Context) {
	answer, err := GetSimpleText(a.reader, "Discard all pending operations? (yes/no)")
	if err != nil {
		fmt.Println("error:", err)
		return
	}
	if answer != "yes" {
		return
	}
	a.service.PurgeQueue(ctx)
	fmt.Println("Queue purged.")
}
