package cmd

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/lkmltools/git2mbox/mbox"
	"github.com/lkmltools/git2mbox/model"
	"github.com/lkmltools/git2mbox/stats"
)

var (
	statsTopN      int
	statsReportDir string
)

// Headers worth counting in a kernel list export.
var trackedHeaders = []string{"From", "Subject", "To", "List-Id"}

// StatsCmd analyses an mbox produced by the exporter.
var StatsCmd = &cobra.Command{
	Use:   "stats <mbox file>",
	Short: "Analyse an exported mbox file and show statistics",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		mboxPath := args[0]

		counter := make(map[string]map[string]int)
		for _, h := range trackedHeaders {
			counter[h] = make(map[string]int)
		}

		messageCount := 0
		err := mbox.Read(mboxPath, func(m *model.Message) error {
			messageCount++
			for _, name := range trackedHeaders {
				if value := m.Header.Get(name); value != "" {
					counter[name][value]++
				}
			}
			return nil
		})
		if err != nil {
			return fmt.Errorf("read mbox: %w", err)
		}

		fmt.Printf("Messages in %s: %d\n\n", mboxPath, messageCount)
		for _, name := range trackedHeaders {
			fmt.Printf("Top %d %s:\n", statsTopN, name)
			stats.PrettyPrintTop(counter[name], statsTopN)
			fmt.Println()
		}

		if statsReportDir != "" {
			if err := saveCSVReports(counter, statsReportDir, 1000); err != nil {
				return fmt.Errorf("save CSV reports: %w", err)
			}
			fmt.Printf("Reports saved to directory: %s\n", statsReportDir)
		}

		return nil
	},
}

func init() {
	StatsCmd.Flags().IntVarP(&statsTopN, "top", "t", 10, "Number of top items to display per header")
	StatsCmd.Flags().StringVarP(&statsReportDir, "output", "o", "", "Directory for CSV reports (omit to skip)")
}

func saveCSVReports(counter map[string]map[string]int, dir string, limit int) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	for _, header := range trackedHeaders {
		counts := counter[header]
		path := filepath.Join(dir, fmt.Sprintf("report_%s.csv", normalizeHeaderName(header)))

		if err := writeReport(path, counts, limit); err != nil {
			return err
		}
	}

	return nil
}

func writeReport(path string, counts map[string]int, limit int) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	if err := writer.Write([]string{"Value", "Count"}); err != nil {
		return err
	}

	type pair struct {
		Key   string
		Value int
	}
	var pairs []pair
	for k, v := range counts {
		pairs = append(pairs, pair{k, v})
	}
	sort.Slice(pairs, func(i, j int) bool {
		return pairs[i].Value > pairs[j].Value
	})

	for i := 0; i < limit && i < len(pairs); i++ {
		if err := writer.Write([]string{pairs[i].Key, strconv.Itoa(pairs[i].Value)}); err != nil {
			return err
		}
	}

	writer.Flush()
	return writer.Error()
}

func normalizeHeaderName(header string) string {
	name := strings.ToLower(header)
	name = strings.ReplaceAll(name, "-", "_")
	return name
}
