// Command fetch is the terminal presenter for a journalvault instance:
// it lists records, runs an interactive debounced search, and drives the
// forced-download engine against the configured storage provider.
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/aryasaputra/journalvault/pkg/classify"
	"github.com/aryasaputra/journalvault/pkg/config"
	"github.com/aryasaputra/journalvault/pkg/download"
	"github.com/aryasaputra/journalvault/pkg/provider"
	"github.com/aryasaputra/journalvault/pkg/resolve"
	"github.com/aryasaputra/journalvault/pkg/search"
	"github.com/aryasaputra/journalvault/pkg/service"
	"github.com/aryasaputra/journalvault/pkg/types"
)

func main() {
	var (
		configFile = flag.String("config", "", "Configuration file path")
		yes        = flag.Bool("yes", false, "Skip the download confirmation prompt")
	)
	flag.Usage = usage
	flag.Parse()

	args := flag.Args()
	if len(args) == 0 {
		usage()
		os.Exit(2)
	}

	var cfg *config.Config
	if *configFile != "" {
		cfg = config.LoadFile(*configFile)
	} else {
		cfg = config.Load()
	}

	metadata, err := provider.NewSQLiteStore(cfg.Storage.Database)
	if err != nil {
		log.Fatal("Failed to open database:", err)
	}
	defer metadata.Close()

	objects, err := provider.NewS3Store(provider.S3Options{
		Endpoint:  cfg.Storage.Endpoint,
		Region:    cfg.Storage.Region,
		AccessKey: cfg.Storage.AccessKey,
		SecretKey: cfg.Storage.SecretKey,
	})
	if err != nil {
		log.Fatal("Failed to initialize object store:", err)
	}

	journal := service.NewJournal(objects, metadata, cfg.Storage.Bucket, cfg.Upload.MaxMb)
	resolver := resolve.New(objects, cfg.SignedURLTTL())

	switch args[0] {
	case "list":
		runList(journal, strings.Join(args[1:], " "))
	case "search":
		runSearch(journal)
	case "get":
		if len(args) != 2 {
			usage()
			os.Exit(2)
		}
		id, err := strconv.ParseInt(args[1], 10, 64)
		if err != nil {
			log.Fatalf("Invalid id %q", args[1])
		}
		runGet(journal, resolver, cfg.Download.Dir, id, *yes)
	default:
		usage()
		os.Exit(2)
	}
}

func usage() {
	fmt.Fprintf(os.Stderr, `Usage: fetch [flags] <command>

Commands:
  list [query]   List journal files, optionally filtered
  search         Interactive search (type to filter, Ctrl-D to quit)
  get <id>       Download one file to the configured directory

Flags:
`)
	flag.PrintDefaults()
}

func runList(journal *service.Journal, query string) {
	records, err := journal.List(context.Background(), types.ListFilter{Query: query})
	if err != nil {
		log.Fatal("Failed to list files:", err)
	}
	printRecords(os.Stdout, records)
}

func runSearch(journal *service.Journal) {
	searchLoop(os.Stdin, os.Stdout, search.DefaultDelay, func(query string) ([]types.FileRecord, error) {
		return journal.List(context.Background(), types.ListFilter{Query: query})
	})
}

// searchLoop feeds each input line through the debounced controller, so a
// burst of edits triggers a single listing refresh with the last value. It
// returns only once the printer goroutine has drained every committed
// query, so the final listing is never cut off by process exit.
func searchLoop(in io.Reader, out io.Writer, delay time.Duration, list func(query string) ([]types.FileRecord, error)) {
	results := make(chan string, 1)
	controller := search.NewController(delay, func(query string) {
		results <- query
	})
	defer controller.Stop()

	done := make(chan struct{})
	go func() {
		defer close(done)
		for query := range results {
			records, err := list(query)
			if err != nil {
				fmt.Fprintln(out, "search failed:", err)
				continue
			}
			fmt.Fprintf(out, "\n-- %q --\n", query)
			printRecords(out, records)
		}
	}()

	fmt.Fprintln(out, "Type a query, Ctrl-D to quit.")
	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		controller.OnQueryChange(scanner.Text())
	}
	// Let a pending commit reach the channel before closing it.
	time.Sleep(delay * 2)
	close(results)
	<-done
}

func runGet(journal *service.Journal, resolver *resolve.Resolver, dir string, id int64, skipConfirm bool) {
	rec, err := journal.Get(context.Background(), id)
	if err != nil {
		log.Fatal("Failed to load record:", err)
	}

	inflight := download.NewInflightSet()
	if !inflight.TryAcquire(rec.ID) {
		fmt.Println("A download for this file is already in progress.")
		return
	}
	defer inflight.Release(rec.ID)

	var confirmer download.Confirmer = &download.TerminalConfirmer{}
	if skipConfirm {
		confirmer = download.AlwaysConfirm{}
	}

	engine := download.NewEngine(
		resolver,
		confirmer,
		&download.FileSaver{Dir: dir},
		download.BrowserHandoff{},
		download.BrowserHandoff{},
	)

	res := engine.Download(context.Background(), rec)
	switch res.Outcome {
	case download.OutcomeSaved:
		fmt.Printf("Saved %q to %s\n", rec.DisplayName(), dir)
	case download.OutcomeCancelled:
		// Declining is not an error; stop quietly.
	case download.OutcomeUnconfirmed:
		fmt.Printf("Delivery of %q was handed off (%s); completion could not be confirmed.\n",
			rec.DisplayName(), res.Strategy)
	case download.OutcomeFailed:
		fmt.Fprintf(os.Stderr, "Download failed: %s\n", res.Reason)
		os.Exit(1)
	}
}

func printRecords(out io.Writer, records []types.FileRecord) {
	if len(records) == 0 {
		fmt.Fprintln(out, "No journal files found.")
		return
	}
	for _, rec := range records {
		cat := classify.Classify(rec.MimeType, rec.OriginalName)
		fmt.Fprintf(out, "%6d  %-5s  %-40s  %8s  %s\n",
			rec.ID,
			classify.Label(cat),
			rec.DisplayName(),
			formatSize(rec.SizeBytes),
			rec.UploadedAt.Local().Format("02 Jan 2006 15:04"),
		)
	}
}

func formatSize(n int64) string {
	switch {
	case n < 1024:
		return fmt.Sprintf("%d B", n)
	case n < 1024*1024:
		return fmt.Sprintf("%.1f KB", float64(n)/1024)
	default:
		return fmt.Sprintf("%.1f MB", float64(n)/(1024*1024))
	}
}
