package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/common-nighthawk/go-figure"
	"github.com/fatih/color"

	"phishguard/internal/classifier"
	"phishguard/internal/models"
	"phishguard/internal/scanner"
)

type options struct {
	url     string
	model   string
	timeout time.Duration
	asJSON  bool
}

func main() {
	opts := parseFlags()
	if !opts.asJSON {
		printBanner()
	}
	if err := run(opts); err != nil {
		fmt.Fprintf(os.Stderr, "[-] Error: %v\n", err)
		os.Exit(1)
	}
}

func parseFlags() options {
	var opts options
	flag.StringVar(&opts.url, "u", "", "Target URL")
	flag.StringVar(&opts.model, "model", "phishing_model.json", "Path to the classifier model")
	flag.DurationVar(&opts.timeout, "timeout", 30*time.Second, "Overall scan timeout")
	flag.BoolVar(&opts.asJSON, "json", false, "Emit the raw result document")
	flag.Parse()
	return opts
}

func printBanner() {
	banner := figure.NewColorFigure("PhishGuard", "doom", "cyan", true)
	banner.Print()

	cyan := color.New(color.FgCyan)
	_, _ = cyan.Println("════════════════════════════════════════════════")
	_, _ = cyan.Println("    URL Reputation Scanner")
	_, _ = cyan.Println("════════════════════════════════════════════════")
}

func run(opts options) error {
	if opts.url == "" {
		return fmt.Errorf("-u (target URL) is required")
	}

	clf, err := classifier.Load(opts.model)
	if err != nil {
		return err
	}
	if _, absent := clf.(classifier.Absent); absent && !opts.asJSON {
		color.Yellow("[!] No model at %s, running heuristic-only\n", opts.model)
	}

	ctx, cancel := context.WithTimeout(context.Background(), opts.timeout)
	defer cancel()

	result, err := scanner.New(clf).Scan(ctx, opts.url)
	if err != nil {
		return err
	}

	if opts.asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	}

	printResult(result)
	return nil
}

func printResult(res models.ScanResult) {
	fmt.Printf("\nTarget:     %s\n", res.URL)

	verdict := color.New(color.FgYellow, color.Bold)
	switch res.Result {
	case models.VerdictPhishing:
		verdict = color.New(color.FgRed, color.Bold)
	case models.VerdictSafe:
		verdict = color.New(color.FgGreen, color.Bold)
	}
	fmt.Printf("Verdict:    %s (%.2f%% confidence)\n", verdict.Sprint(res.Result), res.Confidence)
	fmt.Printf("Risk Score: %d/99\n", res.RiskScore)
	fmt.Printf("Threat:     %s\n", res.ThreatType)

	fmt.Println("\n--- Certificate ---")
	ssl := res.Details.SSL
	fmt.Printf("Issuer: %s | Valid: %t | Expires: %s (%d days left)\n", ssl.Issuer, ssl.Valid, ssl.Expires, ssl.DaysLeft)

	fmt.Println("--- Domain ---")
	dom := res.Details.Domain
	fmt.Printf("Registrar: %s | Created: %s\n", dom.Registrar, dom.Created)

	fmt.Println("--- Server ---")
	srv := res.Details.Server
	fmt.Printf("IP: %s | Location: %s | Provider: %s\n", srv.IP, srv.Location, srv.Provider)

	fmt.Println("--- Content ---")
	fmt.Printf("Status: %s | Keywords: %v | Homoglyphs: %s\n", res.Details.Content.Status, res.Details.Content.Keywords, res.Details.Content.Homoglyphs)

	fmt.Println("--- Redirects ---")
	for _, hop := range res.Details.Redirects {
		if hop.Code.Failed {
			color.Red("  %s -> Error", hop.Source)
			continue
		}
		fmt.Printf("  [%d] %s\n", hop.Code.Code, hop.Source)
	}

	fmt.Printf("\nDuration: %s\n", res.Duration)
}
