// Package main summarizes an alert CSV file offline: record counts, top
// TLDs, issuers and brands, score statistics, and a risk-level breakdown.
package main

import (
	"encoding/csv"
	"flag"
	"fmt"
	"math"
	"os"
	"sort"
	"strconv"

	"github.com/projectdiscovery/gologger"

	"github.com/certphish/certphish/internal/output"
)

func main() {
	path := flag.String("input", output.DefaultPath, "Path to the alert CSV file")
	top := flag.Int("top", 10, "Number of entries per top list")
	flag.Parse()

	records, err := readAlerts(*path)
	if err != nil {
		gologger.Fatal().Msgf("%v", err)
	}
	if len(records) == 0 {
		fmt.Println("No alerts recorded.")
		return
	}

	printSummary(records, *top)
}

// record is one parsed alert row, holding only the columns the summary uses.
type record struct {
	domain     string
	brand      string
	issuer     string
	tld        string
	hasKeyword bool
	tldSusp    bool
	entropy    float64
	score      float64
}

func readAlerts(path string) ([]record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening alert file: %w", err)
	}
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading alert file: %w", err)
	}
	if len(rows) == 0 {
		return nil, nil
	}

	columns := map[string]int{}
	for i, name := range rows[0] {
		columns[name] = i
	}
	for _, name := range []string{"domain", "brand_match", "issuer", "tld", "has_keyword", "tld_suspicious", "entropy", "score"} {
		if _, ok := columns[name]; !ok {
			return nil, fmt.Errorf("alert file missing column %q", name)
		}
	}

	records := make([]record, 0, len(rows)-1)
	for _, row := range rows[1:] {
		if len(row) < len(rows[0]) {
			continue
		}
		records = append(records, record{
			domain:     row[columns["domain"]],
			brand:      row[columns["brand_match"]],
			issuer:     row[columns["issuer"]],
			tld:        row[columns["tld"]],
			hasKeyword: row[columns["has_keyword"]] == "True",
			tldSusp:    row[columns["tld_suspicious"]] == "True",
			entropy:    parseFloat(row[columns["entropy"]]),
			score:      parseFloat(row[columns["score"]]),
		})
	}
	return records, nil
}

func parseFloat(s string) float64 {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return v
}

func printSummary(records []record, top int) {
	unique := map[string]struct{}{}
	tlds := map[string]int{}
	issuers := map[string]int{}
	brands := map[string]int{}
	risk := map[string]int{}
	keyword, suspTLD := 0, 0
	var entropies, scores []float64

	for _, r := range records {
		unique[r.domain] = struct{}{}
		tlds[r.tld]++
		issuers[r.issuer]++
		brands[r.brand]++
		risk[riskLevel(r.score)]++
		if r.hasKeyword {
			keyword++
		}
		if r.tldSusp {
			suspTLD++
		}
		entropies = append(entropies, r.entropy)
		scores = append(scores, r.score)
	}

	fmt.Printf("Total records: %d\n", len(records))
	fmt.Printf("Unique domains: %d\n\n", len(unique))

	printTop("Top TLDs", tlds, top)
	printTop("Top issuers", issuers, top)
	printTop("Top matched brands", brands, top)

	fmt.Printf("Records with suspicious keyword: %d\n", keyword)
	fmt.Printf("Records with suspicious TLD: %d\n\n", suspTLD)

	printStats("Entropy", entropies)
	printStats("Score", scores)

	fmt.Println("Risk levels:")
	for _, level := range []string{"high", "medium", "low"} {
		fmt.Printf("  %-8s %d\n", level, risk[level])
	}
}

// riskLevel buckets a score into the triage categories used downstream.
func riskLevel(score float64) string {
	switch {
	case score >= 7:
		return "high"
	case score >= 4:
		return "medium"
	default:
		return "low"
	}
}

func printTop(title string, counts map[string]int, n int) {
	type entry struct {
		key   string
		count int
	}
	entries := make([]entry, 0, len(counts))
	for k, c := range counts {
		entries = append(entries, entry{k, c})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].count != entries[j].count {
			return entries[i].count > entries[j].count
		}
		return entries[i].key < entries[j].key
	})
	if n > len(entries) {
		n = len(entries)
	}

	fmt.Printf("%s:\n", title)
	for _, e := range entries[:n] {
		fmt.Printf("  %-40s %d\n", e.key, e.count)
	}
	fmt.Println()
}

func printStats(title string, values []float64) {
	if len(values) == 0 {
		return
	}
	min, max, sum := math.Inf(1), math.Inf(-1), 0.0
	for _, v := range values {
		min = math.Min(min, v)
		max = math.Max(max, v)
		sum += v
	}
	fmt.Printf("%s: min=%.2f mean=%.2f max=%.2f\n", title, min, sum/float64(len(values)), max)
}
