package cli

import (
	"bufio"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// The command loop and the prompt helpers read through the same buffered
// reader, so typed-ahead input is never swallowed by a second buffer.
func TestRoot_PromptsShareReaderWithCommandLoop(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	app := newTestApp(t)
	withBufferedOut(t)

	_, err := app.service.AddExpense(ctx, testExpense())
	require.NoError(t, err)
	id := app.service.Snapshot().Expenses[0].ID

	// delexp consumes the id via a prompt; the loop must still see exit
	app.reader = bufio.NewReader(strings.NewReader("delexp\n" + id + "\nexit\n"))

	done := make(chan struct{})
	go func() {
		app.Root(ctx)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("command loop did not exit")
	}

	assert.Empty(t, app.service.Snapshot().Expenses)
}

func TestRoot_ExitsOnEOF(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	app := newTestApp(t)
	withBufferedOut(t)
	app.reader = bufio.NewReader(strings.NewReader("help\n"))

	done := make(chan struct{})
	go func() {
		app.Root(ctx)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("command loop did not exit on EOF")
	}
}
