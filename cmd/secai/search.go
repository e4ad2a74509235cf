package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"secai/internal/domain"
	"secai/internal/session"
)

var searchCmd = &cobra.Command{
	Use:   "search <company name>",
	Short: "Find companies on EDGAR by name or ticker",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runSearch,
}

var filingsCmd = &cobra.Command{
	Use:   "filings <cik>",
	Short: "List a company's 10-Q and 10-K filings, one page at a time",
	Args:  cobra.ExactArgs(1),
	RunE:  runFilings,
}

func init() {
	searchCmd.Flags().Bool("json", false, "output results as JSON")
	filingsCmd.Flags().Int("page", 1, "page number (1-based)")
	filingsCmd.Flags().Bool("all", false, "list every filing instead of one page")
	filingsCmd.Flags().Bool("json", false, "output results as JSON")
	rootCmd.AddCommand(searchCmd, filingsCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	jsonOutput, _ := cmd.Flags().GetBool("json")
	a, err := newApp(false)
	if err != nil {
		return err
	}
	defer a.Close()

	companies, err := a.edgar.Autocomplete(cmd.Context(), strings.Join(args, " "))
	if err != nil {
		return fmt.Errorf("searching companies: %w", err)
	}
	if jsonOutput {
		return printJSON(companies)
	}
	if len(companies) == 0 {
		fmt.Println("No matching records found.")
		return nil
	}
	tw := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "CIK\tTICKER\tNAME")
	for _, c := range companies {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", c.CIK, c.Ticker, c.Name)
	}
	return tw.Flush()
}

func runFilings(cmd *cobra.Command, args []string) error {
	page, _ := cmd.Flags().GetInt("page")
	all, _ := cmd.Flags().GetBool("all")
	jsonOutput, _ := cmd.Flags().GetBool("json")
	a, err := newApp(false)
	if err != nil {
		return err
	}
	defer a.Close()

	filings, err := a.edgar.Filings(cmd.Context(), args[0])
	if err != nil {
		return fmt.Errorf("listing filings: %w", err)
	}
	total := session.TotalPages(len(filings), a.cfg.Session.PageSize)
	items := filings
	if !all {
		page = min(max(page, 1), max(total, 1))
		items = session.PageItems(filings, page, a.cfg.Session.PageSize)
	}
	if jsonOutput {
		if items == nil {
			items = []domain.Filing{}
		}
		return printJSON(items)
	}
	if len(items) == 0 {
		fmt.Println("No 10-Q or 10-K filings found.")
		return nil
	}
	tw := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "DATE\tTYPE\tDOCUMENT\tURL")
	for _, f := range items {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", f.Date, f.Type, f.Name, f.URL)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	if !all {
		fmt.Printf("\nPage %d of %d\n", page, total)
	}
	return nil
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
