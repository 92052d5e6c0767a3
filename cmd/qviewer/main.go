// Command qviewer dumps a bangumarr database for inspection: the pending
// download queue, the download history and the stored seasonal calendar.
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/bangumarr/bangumarr/pkg/models"
	"github.com/timshannon/bolthold"
)

// Colors for terminal output
const (
	ColorReset  = "\033[0m"
	ColorRed    = "\033[31m"
	ColorGreen  = "\033[32m"
	ColorYellow = "\033[33m"
	ColorBlue   = "\033[34m"
	ColorPurple = "\033[35m"
	ColorCyan   = "\033[36m"
	ColorWhite  = "\033[37m"
	ColorBold   = "\033[1m"
)

func main() {
	var (
		dbPath       = flag.String("db", "", "Path to the database file (required)")
		showQueue    = flag.Bool("queue", false, "Show the pending download queue")
		showHistory  = flag.Bool("history", false, "Show the download history")
		showCalendar = flag.Bool("calendar", false, "Show the stored seasonal calendar")
		showStats    = flag.Bool("stats", false, "Show only statistics")
		noColor      = flag.Bool("no-color", false, "Disable colored output")
	)
	flag.Parse()

	if *dbPath == "" {
		fmt.Fprintf(os.Stderr, "Usage: %s -db <database-path> [options]\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "\nOptions:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExample:\n")
		fmt.Fprintf(os.Stderr, "  %s -db /path/to/data.db -stats\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s -db /path/to/data.db -queue -history\n", os.Args[0])
		os.Exit(1)
	}

	if _, err := os.Stat(*dbPath); os.IsNotExist(err) {
		fmt.Fprintf(os.Stderr, "Error: Database file '%s' does not exist\n", *dbPath)
		os.Exit(1)
	}

	store, err := bolthold.Open(*dbPath, 0600, &bolthold.Options{})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening database: %v\n", err)
		os.Exit(1)
	}
	defer store.Close()

	colorize := getColorizer(*noColor)
	printHeader(colorize, *dbPath)

	// No section flags selects everything.
	all := !*showQueue && !*showHistory && !*showCalendar && !*showStats

	printStatistics(colorize, store)
	if *showStats {
		return
	}

	if all || *showQueue {
		printQueue(colorize, store)
	}
	if all || *showHistory {
		printHistory(colorize, store)
	}
	if all || *showCalendar {
		printCalendar(colorize, store)
	}
}

func getColorizer(noColor bool) func(string, string) string {
	if noColor {
		return func(color, text string) string { return text }
	}

	colors := map[string]string{
		"red":    ColorRed,
		"green":  ColorGreen,
		"yellow": ColorYellow,
		"blue":   ColorBlue,
		"purple": ColorPurple,
		"cyan":   ColorCyan,
		"white":  ColorWhite,
		"bold":   ColorBold,
	}

	return func(color, text string) string {
		if c, ok := colors[color]; ok {
			return c + text + ColorReset
		}
		return text
	}
}

func printHeader(colorize func(string, string) string, dbPath string) {
	fmt.Println(colorize("cyan", "=== BANGUMARR DATABASE VIEWER ==="))
	fmt.Printf(colorize("yellow", "Database: ")+"%s\n", filepath.Base(dbPath))
	fmt.Printf(colorize("yellow", "Scanned:  ")+"%s\n\n", time.Now().Format("2006-01-02 15:04:05"))
}

func printStatistics(colorize func(string, string) string, store *bolthold.Store) {
	var tasks []*models.Task
	var history []*models.HistoryEntry
	var magnets []*models.ConsumedMagnet
	var entries []*models.ScheduleEntry
	store.Find(&tasks, nil)
	store.Find(&history, nil)
	store.Find(&magnets, nil)
	store.Find(&entries, nil)

	fmt.Println(colorize("bold", "STATISTICS"))
	fmt.Printf("  Queued tasks:      %s\n", colorize("cyan", fmt.Sprintf("%d", len(tasks))))
	fmt.Printf("  Tracked shows:     %s\n", colorize("purple", fmt.Sprintf("%d", len(history))))
	fmt.Printf("  Consumed magnets:  %s\n", colorize("green", fmt.Sprintf("%d", len(magnets))))
	fmt.Printf("  Calendar entries:  %s\n", colorize("blue", fmt.Sprintf("%d", len(entries))))
	fmt.Println()
}

func printQueue(colorize func(string, string) string, store *bolthold.Store) {
	var tasks []*models.Task
	if err := store.Find(&tasks, nil); err != nil {
		fmt.Fprintf(os.Stderr, "Error reading queue: %v\n", err)
		return
	}
	sort.Slice(tasks, func(i, j int) bool { return tasks[i].Seq < tasks[j].Seq })

	fmt.Println(colorize("bold", "DOWNLOAD QUEUE"))
	if len(tasks) == 0 {
		fmt.Println("  (empty)")
		fmt.Println()
		return
	}

	for i, task := range tasks {
		stepText := "fresh"
		stepColor := "green"
		if task.RetryStep != 0 {
			stepText = fmt.Sprintf("resume at %s", task.RetryStep)
			stepColor = "yellow"
		}
		fmt.Printf("%s %s ep %s %s\n",
			colorize("white", fmt.Sprintf("[%03d]", i+1)),
			colorize("bold", task.AnimeTitle),
			colorize("purple", formatEpisode(task.Episode)),
			colorize(stepColor, fmt.Sprintf("[%s]", stepText)))
		fmt.Printf("      %s\n", task.Title)
		if task.Resolution != "" || task.Group != "" {
			fmt.Printf("      %s %s\n",
				colorize("blue", task.Resolution),
				colorize("white", task.Group))
		}
	}
	fmt.Println()
}

func printHistory(colorize func(string, string) string, store *bolthold.Store) {
	var history []*models.HistoryEntry
	if err := store.Find(&history, nil); err != nil {
		fmt.Fprintf(os.Stderr, "Error reading history: %v\n", err)
		return
	}
	sort.Slice(history, func(i, j int) bool { return history[i].Title < history[j].Title })

	fmt.Println(colorize("bold", "DOWNLOAD HISTORY"))
	if len(history) == 0 {
		fmt.Println("  (empty)")
		fmt.Println()
		return
	}

	for _, entry := range history {
		fmt.Printf("  %s %s %s\n",
			colorize("bold", entry.Title),
			colorize("purple", "up to ep "+formatEpisode(entry.HighestEpisode)),
			colorize("white", entry.UpdatedAt.Format("2006-01-02 15:04")))
	}
	fmt.Println()
}

func printCalendar(colorize func(string, string) string, store *bolthold.Store) {
	var entries []*models.ScheduleEntry
	if err := store.Find(&entries, nil); err != nil {
		fmt.Fprintf(os.Stderr, "Error reading calendar: %v\n", err)
		return
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].AirDate != entries[j].AirDate {
			return entries[i].AirDate < entries[j].AirDate
		}
		return entries[i].AirTime < entries[j].AirTime
	})

	fmt.Println(colorize("bold", "SEASONAL CALENDAR"))
	if len(entries) == 0 {
		fmt.Println("  (empty)")
		fmt.Println()
		return
	}

	for _, entry := range entries {
		fmt.Printf("  %s %s %s %s\n",
			colorize("yellow", entry.Weekday.String()[:3]),
			colorize("cyan", entry.AirTime),
			colorize("bold", entry.PrimaryTitle),
			colorize("white", entry.JPName))
	}
	fmt.Println()
}

func formatEpisode(ep float64) string {
	if ep == float64(int64(ep)) {
		return fmt.Sprintf("%d", int64(ep))
	}
	return fmt.Sprintf("%.1f", ep)
}
