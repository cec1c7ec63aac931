package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"estimatex/internal"
	"estimatex/internal/config"
	"estimatex/internal/document"
	"estimatex/internal/extract"
	"estimatex/internal/pipeline"
	"estimatex/internal/recognize"
	"estimatex/internal/refdb"
)

func main() {
	cfg, err := config.Load()
	must(err)

	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	cmd := os.Args[1]
	switch cmd {
	case "convert":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		pdfPath := fs.String("pdf", "", "input PDF path")
		out := fs.String("out", "", "output document JSON path")
		_ = fs.Parse(os.Args[2:])
		if *pdfPath == "" || *out == "" {
			must(fmt.Errorf("--pdf and --out are required"))
		}
		doc, err := pipeline.ConvertPDF(*pdfPath)
		must(err)
		must(writeDocument(doc, *out))
		fmt.Printf("converted %s: pages=%d output=%s\n", filepath.Base(*pdfPath), len(doc.Pages), *out)

	case "extract:rates":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		input := fs.String("input", "", "document JSON path")
		volume := fs.String("volume", "Unknown", "volume label for extracted entries")
		format := fs.String("format", "auto", "auto|simple|detailed")
		out := fs.String("out", "", "output rates JSON path")
		_ = fs.Parse(os.Args[2:])
		if *input == "" || *out == "" {
			must(fmt.Errorf("--input and --out are required"))
		}
		doc, err := document.Load(*input)
		must(err)
		extractor := extract.NewRateExtractor(recognize.DefaultConfig(cfg.FallbackYear))
		rates := extractor.Extract(doc, *volume, extract.Format(*format))
		ratesFile := document.RatesFile{Volume: *volume}
		for _, entries := range rates {
			ratesFile.DSRCodes = append(ratesFile.DSRCodes, entries...)
		}
		must(document.WriteRates(ratesFile, *out))
		fmt.Printf("extracted codes=%d entries=%d volume=%s output=%s\n", len(rates), len(ratesFile.DSRCodes), *volume, *out)

	case "extract:items":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		input := fs.String("input", "", "input document (JSON/HTML/XLSX)")
		out := fs.String("out", "", "output structured items JSON path")
		_ = fs.Parse(os.Args[2:])
		if *input == "" || *out == "" {
			must(fmt.Errorf("--input and --out are required"))
		}
		items, err := pipeline.LoadItems(*input, cfg)
		must(err)
		must(document.WriteItems(items, filepath.Base(*input), *out))
		fmt.Printf("extracted items=%d output=%s\n", len(items), *out)

	case "db:build":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		ratesArg := fs.String("rates", "", "comma-separated rates JSON paths")
		dbPath := fs.String("db", cfg.DBPath, "output database path")
		category := fs.String("category", "civil", "category label")
		_ = fs.Parse(os.Args[2:])
		if *ratesArg == "" {
			must(fmt.Errorf("--rates is required"))
		}
		db, err := refdb.Open(*dbPath)
		must(err)
		defer db.Close()
		total := 0
		for _, path := range strings.Split(*ratesArg, ",") {
			path = strings.TrimSpace(path)
			if path == "" {
				continue
			}
			ratesFile, err := document.LoadRates(path)
			must(err)
			n, err := db.InsertEntries(*category, ratesFile.DSRCodes)
			must(err)
			fmt.Printf("loaded %s: entries=%d\n", filepath.Base(path), n)
			total += n
		}
		fmt.Printf("database ready: entries=%d category=%s db=%s\n", total, *category, *dbPath)

	case "db:merge":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		sourcesArg := fs.String("sources", "", "comma-separated category=path pairs")
		out := fs.String("out", "", "output master database path")
		_ = fs.Parse(os.Args[2:])
		if *sourcesArg == "" || *out == "" {
			must(fmt.Errorf("--sources and --out are required"))
		}
		var sources []refdb.MergeSource
		for _, pair := range strings.Split(*sourcesArg, ",") {
			category, path, ok := strings.Cut(strings.TrimSpace(pair), "=")
			if !ok {
				must(fmt.Errorf("bad --sources entry: %s (want category=path)", pair))
			}
			sources = append(sources, refdb.MergeSource{Category: category, Path: path})
		}
		report, err := refdb.Merge(sources, *out)
		must(err)
		for _, cat := range report.Categories() {
			fmt.Printf("  %s: %d entries\n", cat, report.ByCategory[cat])
		}
		fmt.Printf("merge complete: entries=%d collisions=%d db=%s\n", report.Total, report.Collisions, *out)

	case "db:stats":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		dbPath := fs.String("db", cfg.DBPath, "database path")
		ratesArg := fs.String("rates", "", "comma-separated rates JSON paths to aggregate instead of a database")
		_ = fs.Parse(os.Args[2:])
		var stats internal.RateStats
		if *ratesArg != "" {
			entries, err := loadRateEntries(*ratesArg)
			must(err)
			stats = refdb.BuildTable(entries).Stats()
		} else {
			db, err := refdb.OpenExisting(*dbPath)
			must(err)
			defer db.Close()
			s, err := db.Stats()
			must(err)
			stats = s
		}
		fmt.Printf("total codes: %d\n", stats.TotalCodes)
		fmt.Printf("rate range: %.2f - %.2f (avg %.2f)\n", stats.MinRate, stats.MaxRate, stats.AvgRate)
		for cat, n := range stats.ByCategory {
			fmt.Printf("  %s: %d\n", cat, n)
		}

	case "db:list":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		dbPath := fs.String("db", cfg.DBPath, "database path")
		chapter := fs.String("chapter", "", "list entries in a chapter")
		section := fs.String("section", "", "list entries whose section starts with a prefix")
		_ = fs.Parse(os.Args[2:])
		if (*chapter == "") == (*section == "") {
			must(fmt.Errorf("exactly one of --chapter or --section is required"))
		}
		db, err := refdb.OpenExisting(*dbPath)
		must(err)
		defer db.Close()
		var entries []internal.RateEntry
		if *chapter != "" {
			entries, err = db.ByChapter(*chapter)
		} else {
			entries, err = db.BySectionPrefix(*section)
		}
		must(err)
		for _, e := range entries {
			fmt.Printf("%-10s %-8s %10.2f  %-8s %s\n", e.Code, e.Unit, e.Rate, e.Volume, e.Description)
		}
		fmt.Printf("entries: %d\n", len(entries))

	case "db:export-csv":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		dbPath := fs.String("db", cfg.DBPath, "database path")
		out := fs.String("out", "", "output CSV path")
		_ = fs.Parse(os.Args[2:])
		if *out == "" {
			must(fmt.Errorf("--out is required"))
		}
		db, err := refdb.OpenExisting(*dbPath)
		must(err)
		defer db.Close()
		n, err := db.ExportCSV(*out)
		must(err)
		fmt.Printf("exported %d entries to %s\n", n, *out)

	case "match":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		input := fs.String("input", "", "input items source (JSON/HTML/XLSX)")
		dbPath := fs.String("db", cfg.DBPath, "reference database path")
		ratesArg := fs.String("rates", "", "comma-separated rates JSON paths to match against instead of a database")
		threshold := fs.Float64("threshold", cfg.SimilarityThreshold, "similarity threshold")
		out := fs.String("out", "", "output report JSON path")
		xlsxOut := fs.String("xlsx", "", "optional output XLSX path")
		_ = fs.Parse(os.Args[2:])
		if *input == "" {
			must(fmt.Errorf("--input is required"))
		}

		items, err := pipeline.LoadItems(*input, cfg)
		must(err)
		if len(items) == 0 {
			must(fmt.Errorf("no DSR items found in %s", *input))
		}

		var ref pipeline.Reference
		refName := *dbPath
		if *ratesArg != "" {
			entries, err := loadRateEntries(*ratesArg)
			must(err)
			table := refdb.BuildTable(entries)
			fmt.Printf("reference entries: %d\n", table.Count())
			ref = table
			refName = *ratesArg
		} else {
			db, err := refdb.OpenExisting(*dbPath)
			must(err)
			defer db.Close()
			ref = db
		}

		cfg.SimilarityThreshold = *threshold
		matcher := pipeline.NewMatcher(cfg, ref)
		matched, err := matcher.MatchAll(items)
		must(err)

		summary := pipeline.Summarize(matched)
		fmt.Printf("total items: %d\n", summary.TotalItems)
		fmt.Printf("exact matches: %d\n", summary.ExactMatches)
		fmt.Printf("code match, description mismatch: %d\n", summary.DescriptionMismatch)
		fmt.Printf("not found: %d\n", summary.NotFound)
		fmt.Printf("total estimated amount: %.2f\n", summary.TotalEstimatedAmount)

		if *out == "" {
			base := strings.TrimSuffix(filepath.Base(*input), filepath.Ext(*input))
			*out = filepath.Join(cfg.OutputDir, base+"_matched_rates.json")
		}
		report := pipeline.BuildReport(
			fmt.Sprintf("DSR Rate Matching from %s", filepath.Base(*input)),
			pipeline.ReportSources{Items: *input, RatesDatabase: refName},
			matched,
		)
		must(pipeline.WriteReport(report, *out))
		fmt.Printf("report written: %s\n", *out)

		if *xlsxOut != "" {
			must(pipeline.ExportMatchedToXLSX(matched, *xlsxOut))
			fmt.Printf("xlsx written: %s\n", *xlsxOut)
		}

	default:
		usage()
		os.Exit(1)
	}
}

func loadRateEntries(pathsArg string) ([]internal.RateEntry, error) {
	var out []internal.RateEntry
	for _, path := range strings.Split(pathsArg, ",") {
		path = strings.TrimSpace(path)
		if path == "" {
			continue
		}
		f, err := document.LoadRates(path)
		if err != nil {
			return nil, err
		}
		out = append(out, f.DSRCodes...)
	}
	return out, nil
}

func writeDocument(doc *document.Document, path string) error {
	blob, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, blob, 0o644)
}

func usage() {
	fmt.Println("usage: estimatex <command>")
	fmt.Println("commands:")
	fmt.Println("  convert       --pdf=in.pdf --out=doc.json")
	fmt.Println("  extract:rates --input=doc.json --volume=\"Vol I\" [--format=auto|simple|detailed] --out=rates.json")
	fmt.Println("  extract:items --input=doc.json --out=items.json")
	fmt.Println("  db:build      --rates=rates1.json,rates2.json [--db=dsr.db] [--category=civil]")
	fmt.Println("  db:merge      --sources=civil=a.db,electrical=b.db --out=master.db")
	fmt.Println("  db:stats      [--db=dsr.db | --rates=rates1.json,rates2.json]")
	fmt.Println("  db:list       [--db=dsr.db] --chapter=15 | --section=15.7")
	fmt.Println("  db:export-csv [--db=dsr.db] --out=dsr.csv")
	fmt.Println("  match         --input=items.json [--db=dsr.db | --rates=rates.json] [--threshold=0.3] [--out=report.json] [--xlsx=report.xlsx]")
}

func must(err error) {
	if err == nil {
		return
	}
	fmt.Fprintf(os.Stderr, "error: %v\n", err)
	os.Exit(1)
}
