// Command reportdump prints archived tick reports.
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/talgya/starbase/internal/archive"
	"github.com/talgya/starbase/internal/engine"
)

func main() {
	dir := flag.String("dir", "data/reports", "Archive directory")
	user := flag.Int64("user", 0, "Only reports for this recipient (0 = all)")
	runID := flag.String("run", "", "Only reports of this orchestrator pass")
	summary := flag.Bool("summary", false, "Print counts per segment instead of messages")
	flag.Parse()

	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, nil)))

	segments, err := archive.Segments(*dir)
	if err != nil {
		slog.Error("list segments", "dir", *dir, "error", err)
		os.Exit(1)
	}
	if len(segments) == 0 {
		fmt.Fprintf(os.Stderr, "no archive segments in %s\n", *dir)
		return
	}

	filter := archive.Filter{Recipient: *user, RunID: *runID}
	var total, bytes int64
	for _, path := range segments {
		var n int64
		err := archive.ReadSegment(path, func(m engine.Message) error {
			if !filter.Match(m) {
				return nil
			}
			n++
			if !*summary {
				printMessage(m)
			}
			return nil
		})
		if err != nil {
			slog.Error("read segment", "path", path, "error", err)
			os.Exit(1)
		}
		if info, err := os.Stat(path); err == nil {
			bytes += info.Size()
		}
		if *summary {
			fmt.Printf("%-40s %s messages\n", filepath.Base(path), humanize.Comma(n))
		}
		total += n
	}

	fmt.Fprintf(os.Stderr, "%s messages in %d segments (%s compressed)\n",
		humanize.Comma(total), len(segments), humanize.Bytes(uint64(bytes)))
}

func printMessage(m engine.Message) {
	fmt.Printf("── turn %d  to %d  [%s] %s\n", m.Tick, m.Recipient, m.Category, m.Href)
	for _, line := range strings.Split(strings.TrimRight(m.Text, "\n"), "\n") {
		fmt.Printf("   %s\n", line)
	}
}
