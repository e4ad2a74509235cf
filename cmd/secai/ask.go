package main

import (
	"fmt"
	"os"
	"path"
	"strings"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"secai/internal/service"
)

var askCmd = &cobra.Command{
	Use:   "ask --url <filing url> [--url ...] <question>",
	Short: "Load filings and answer one question",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runAsk,
}

func init() {
	askCmd.Flags().StringSlice("url", nil, "filing document URL (repeatable)")
	askCmd.Flags().Bool("sources", false, "print the retrieved chunks")
	askCmd.Flags().Bool("summary", false, "print a digest of the loaded filings")
	_ = askCmd.MarkFlagRequired("url")
	rootCmd.AddCommand(askCmd)
}

func runAsk(cmd *cobra.Command, args []string) error {
	urls, _ := cmd.Flags().GetStringSlice("url")
	showSources, _ := cmd.Flags().GetBool("sources")
	showSummary, _ := cmd.Flags().GetBool("summary")
	a, err := newApp(false)
	if err != nil {
		return err
	}
	defer a.Close()

	bar := progressbar.NewOptions(100,
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionSetDescription("Loading documents"),
		progressbar.OptionSetWidth(40),
		progressbar.OptionClearOnFinish(),
	)
	ix, err := a.service.Load(cmd.Context(), a.apiKey(), urls, func(p service.Progress) {
		if p.Message != "" {
			bar.Describe(p.Message)
		}
		_ = bar.Set(int(p.Fraction * 100))
	})
	_ = bar.Finish()
	if err != nil {
		return err
	}
	if showSummary && ix.Summary() != "" {
		fmt.Printf("Summary: %s\n\n", ix.Summary())
	}

	answer, err := ix.Ask(cmd.Context(), strings.Join(args, " "))
	if err != nil {
		return err
	}
	fmt.Println(answer.Text)
	if showSources {
		for i, s := range answer.Sources {
			fmt.Printf("\n[%d] %s (score %.3f)\n%s\n", i+1, path.Base(s.Chunk.Source), s.Score, s.Chunk.Text)
		}
	}
	return nil
}
