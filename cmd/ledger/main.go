// Command ledger prints monthly ledger summaries from an exported RegexFlow
// SMS history file.
//
//	ledger -file history.json
//	ledger -file history.json -month 2025-03 -filter food
//	cat history.json | ledger -json
package main

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"go.uber.org/zap"

	"github.com/regexflow/ledger-bfa-go/internal/domain"
	"github.com/regexflow/ledger-bfa-go/internal/infra/observability"
	"github.com/regexflow/ledger-bfa-go/internal/ledger"
)

func main() {
	logger := observability.NewLogger(os.Getenv("LOG_LEVEL"))
	defer logger.Sync()

	if err := run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr, time.Now()); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(2)
		}
		logger.Fatal("ledger failed", zap.Error(err))
	}
}

type options struct {
	file   string
	tz     string
	month  string
	filter string
	json   bool
}

func parseFlags(args []string, stderr io.Writer) (options, error) {
	var o options
	fs := flag.NewFlagSet("ledger", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&o.file, "file", "", "history JSON file (default stdin)")
	fs.StringVar(&o.tz, "tz", "UTC", "IANA time zone used to bucket months")
	fs.StringVar(&o.month, "month", "", "month key YYYY-MM, or \"current\"; prints the month view")
	fs.StringVar(&o.filter, "filter", "", "month view filter (all, food, upi, debit, ...)")
	fs.BoolVar(&o.json, "json", false, "print JSON instead of a table")
	if err := fs.Parse(args); err != nil {
		return o, err
	}
	return o, nil
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer, now time.Time) error {
	o, err := parseFlags(args, stderr)
	if err != nil {
		return err
	}

	loc, err := time.LoadLocation(o.tz)
	if err != nil {
		return fmt.Errorf("time zone %q: %w", o.tz, err)
	}

	filter, ok := ledger.ParseFilter(o.filter)
	if !ok {
		return fmt.Errorf("unknown filter %q", o.filter)
	}
	month := o.month
	if month == "current" {
		month = ""
	}
	if month != "" && !ledger.ValidMonthKey(month) {
		return fmt.Errorf("invalid month %q, expected YYYY-MM", o.month)
	}

	records, err := readHistory(o.file, stdin)
	if err != nil {
		return err
	}
	buckets := ledger.GroupByMonth(records, ledger.WithLocation(loc))

	if o.month == "" && o.filter == "" {
		if o.json {
			return writeJSON(stdout, buckets)
		}
		return printSummary(stdout, buckets)
	}

	view := ledger.BuildMonthView(buckets, month, filter, now, loc)
	if o.json {
		return writeJSON(stdout, view)
	}
	return printView(stdout, view)
}

func readHistory(path string, stdin io.Reader) ([]domain.SMSRecord, error) {
	in := stdin
	if path != "" && path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		in = f
	}

	var records []domain.SMSRecord
	if err := json.NewDecoder(in).Decode(&records); err != nil {
		return nil, fmt.Errorf("decode history: %w", err)
	}
	return records, nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func printSummary(w io.Writer, buckets []ledger.MonthBucket) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, "MONTH\tCREDITED\tDEBITED\tNET\tTXNS\t")
	for _, b := range buckets {
		fmt.Fprintf(tw, "%s\t%.2f\t%.2f\t%.2f\t%d\t\n",
			b.Label, b.TotalCredited, b.TotalDebited, b.Net, len(b.AllTransactions))
	}
	return tw.Flush()
}

func printView(w io.Writer, view ledger.MonthView) error {
	fmt.Fprintf(w, "%s (%s)\n", view.Label, view.Filter)
	if view.Summary == nil {
		fmt.Fprintln(w, "no transactions")
		return nil
	}
	s := view.Summary
	fmt.Fprintf(w, "credited %.2f  debited %.2f  net %.2f\n\n", s.TotalCredited, s.TotalDebited, s.Net)

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "DATE\tTYPE\tCATEGORY\tMODE\tAMOUNT\tMERCHANT")
	for _, e := range view.Transactions {
		typ := string(e.Type)
		if typ == "" {
			typ = "-"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s%.2f\t%s\n",
			entryDate(e), typ, e.Category, e.PaymentMode, e.AmountSign, e.Amount, merchant(e))
	}
	return tw.Flush()
}

func entryDate(e ledger.Entry) string {
	if e.CreatedAt != "" {
		return string(e.CreatedAt)
	}
	if e.ExtractedFields != nil {
		return e.ExtractedFields.Date
	}
	return ""
}

func merchant(e ledger.Entry) string {
	if e.ExtractedFields == nil {
		return ""
	}
	return e.ExtractedFields.Merchant
}
