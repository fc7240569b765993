package cli

import (
	"context"
	"fmt"
	"os"
)

// showImage saves an itinerary item's image to a local file, serving from the
// offline cache when possible.
func (a *App) showImage(ctx context.Context) {
	id, err := GetSimpleText(a.reader, "Enter itinerary id")
	if err != nil {
		fmt.Println("error:", err)
		return
	}

	for _, it := range a.service.Snapshot().Itinerary {
		if it.ID != id {
			continue
		}
		blob, err := a.service.Image(ctx, it)
		if err != nil {
			fmt.Println("error:", err)
			return
		}
		path, err := GetSimpleText(a.reader, "Enter output file path")
		if err != nil {
			fmt.Println("error:", err)
			return
		}
		if err := os.WriteFile(path, blob, 0o644); err != nil {
			fmt.Println("error:", err)
			return
		}
		fmt.Printf("Wrote %d bytes to %s\n", len(blob), path)
		return
	}
	fmt.Println("No itinerary item with id", id)
}
