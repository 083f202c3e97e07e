// Command stocksync records inventory counts on a device and pushes them to
// the field service API. Counts are queued in a local badger database, so
// edits made without a connection are sent on the next successful flush.
//
// Usage:
//
//	stocksync [flags] set <item_id> <quantity>
//	stocksync [flags] flush
//	stocksync [flags] pending
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/kendall-kelly/fieldservice-api/syncqueue"
	"github.com/shopspring/decimal"
)

const flushTimeout = 30 * time.Second

func main() {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	queueDir := flag.String("queue", getEnv("SYNC_QUEUE_DIR", ".stocksync"), "directory of the offline queue")
	apiURL := flag.String("api", getEnv("API_URL", "http://localhost:8080"), "base URL of the field service API")
	offline := flag.Bool("offline", false, "queue changes without contacting the API")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "usage: stocksync [flags] set <item_id> <quantity> | flush | pending\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	if flag.NArg() == 0 {
		flag.Usage()
		os.Exit(2)
	}

	store, err := syncqueue.OpenBadgerStore(*queueDir)
	if err != nil {
		log.Fatalf("Failed to open queue: %v", err)
	}

	// No automatic flushes: the command flushes explicitly before it exits
	queue, err := syncqueue.New(store, syncqueue.NewHTTPPusher(*apiURL, envToken),
		syncqueue.WithDebounce(time.Hour),
		syncqueue.WithOnline(!*offline),
		syncqueue.WithResults(func(results []syncqueue.ItemResult) {
			printResults(os.Stdout, results)
		}),
	)
	if err != nil {
		log.Fatalf("Failed to restore queue: %v", err)
	}

	runErr := run(context.Background(), queue, os.Stdout, flag.Args())
	if err := queue.Close(); err != nil {
		log.Printf("Failed to close queue: %v", err)
	}
	if runErr != nil {
		log.Fatal(runErr)
	}
}

// run executes one command against queue
func run(ctx context.Context, queue *syncqueue.Queue, out io.Writer, args []string) error {
	switch args[0] {
	case "set":
		if len(args) != 3 {
			return errors.New("usage: set <item_id> <quantity>")
		}
		change, err := parseChange(args[1], args[2])
		if err != nil {
			return err
		}
		if err := queue.Enqueue(change); err != nil {
			return err
		}
		// A failed push leaves the change queued for the next run
		if err := flush(ctx, queue); err != nil {
			fmt.Fprintf(out, "queued %d change(s), sync deferred: %v\n", queue.Len(), err)
		}
		return nil

	case "flush":
		if err := flush(ctx, queue); err != nil {
			return err
		}
		fmt.Fprintf(out, "%d change(s) pending\n", queue.Len())
		return nil

	case "pending":
		for _, ch := range queue.Pending() {
			fmt.Fprintf(out, "item %d: %s (edited %s)\n", ch.ItemID, ch.Quantity, ch.ClientUpdatedAt.Format(time.RFC3339))
		}
		return nil

	default:
		return fmt.Errorf("unknown command %q", args[0])
	}
}

func flush(ctx context.Context, queue *syncqueue.Queue) error {
	ctx, cancel := context.WithTimeout(ctx, flushTimeout)
	defer cancel()
	return queue.Flush(ctx)
}

func parseChange(itemArg, quantityArg string) (syncqueue.Change, error) {
	itemID, err := strconv.ParseUint(itemArg, 10, 64)
	if err != nil || itemID == 0 {
		return syncqueue.Change{}, fmt.Errorf("invalid item id %q", itemArg)
	}
	quantity, err := decimal.NewFromString(quantityArg)
	if err != nil {
		return syncqueue.Change{}, fmt.Errorf("invalid quantity %q: %w", quantityArg, err)
	}
	if quantity.IsNegative() {
		return syncqueue.Change{}, errors.New("quantity must not be negative")
	}
	return syncqueue.Change{
		ItemID:          uint(itemID),
		Quantity:        quantity,
		ClientUpdatedAt: time.Now().UTC(),
	}, nil
}

func printResults(out io.Writer, results []syncqueue.ItemResult) {
	for _, r := range results {
		if r.Quantity != nil {
			fmt.Fprintf(out, "item %d: %s (stock %s)\n", r.ItemID, r.Status, r.Quantity)
			continue
		}
		fmt.Fprintf(out, "item %d: %s\n", r.ItemID, r.Status)
	}
}

// envToken reads the bearer token from API_TOKEN
func envToken(context.Context) (string, error) {
	token := os.Getenv("API_TOKEN")
	if token == "" {
		return "", errors.New("API_TOKEN is not set")
	}
	return token, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
