package cli

import (
	"context"
	"fmt"
	"strings"
)

func (a *App) getStatus() string {
	s := string(a.Mode())
	if n := len(a.service.Queue()); n > 0 {
		s = fmt.Sprintf("%s, %d pending", s, n)
	}
	return fmt.Sprintf("(%s)", s)
}

func (a *App) Root(ctx context.Context) {

	fmt.Println("Trip sync CLI (type 'help' for commands)")

	go func() {
		a.StartOnlineStatusWatcher(ctx, a.config.OnlineCheckInterval)
	}()

	// Commands and the prompt helpers share a.reader so no input is lost
	// between the two.
	for {
		fmt.Printf("trip %s> ", a.getStatus())
		line, err := a.reader.ReadString('\n')
		parts := strings.Fields(line)
		if len(parts) == 0 {
			if err != nil {
				return
			}
			continue
		}

		cmd := parts[0]
		args := parts[1:]

		switch cmd {
		case "help":
			fmt.Println("Available commands: (l)ist, exp, addexp, additin, editexp, edititin, delexp, delitin, image, rates, stats, settle, sync, queue, purge, exit")

		case "l", "list":
			a.listItinerary(ctx, args)
		case "exp":
			a.listExpenses(ctx)
		case "addexp":
			a.addExpense(ctx)
		case "additin":
			a.addItinerary(ctx)
		case "editexp":
			a.editExpense(ctx)
		case "edititin":
			a.editItinerary(ctx)
		case "delexp":
			a.deleteExpense(ctx)
		case "delitin":
			a.deleteItinerary(ctx)
		case "image":
			a.showImage(ctx)
		case "rates":
			a.updateRates(ctx)
		case "stats":
			a.showStats(ctx)
		case "settle":
			a.showSettlement(ctx)
		case "sync":
			a.sync(ctx)
		case "queue":
			a.showQueue(ctx)
		case "purge":
			a.purgeQueue(ctx)
		case "exit", "quit":
			fmt.Println("Bye!")
			return
		default:
			fmt.Println("Unknown command:", cmd)
		}

		if err != nil {
			return
		}
	}

}
