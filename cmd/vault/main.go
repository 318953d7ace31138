package main

import (
	"context"
	"encoding/csv"
	"flag"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"github.com/dvloznov/finance-vault/internal/config"
	"github.com/dvloznov/finance-vault/internal/logger"
	"github.com/dvloznov/finance-vault/internal/normalize"
	"github.com/dvloznov/finance-vault/internal/oracle"
	"github.com/dvloznov/finance-vault/internal/pipeline"
	"github.com/dvloznov/finance-vault/internal/vault"
)

func main() {
	_ = godotenv.Load()
	log := logger.New()

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "ingest":
		runIngest(log)
	case "teach":
		runTeach(log)
	case "override":
		runOverride(log)
	case "rules":
		runRules(log)
	case "list":
		runList(log)
	case "summary":
		runSummary(log)
	case "export":
		runExport(log)
	case "files":
		runFiles(log)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println("Finance Vault CLI")
	fmt.Println("\nUsage:")
	fmt.Println("  vault <command> [options]")
	fmt.Println("\nCommands:")
	fmt.Println("  ingest    Extract and store transactions from a statement file (PDF or CSV)")
	fmt.Println("  teach     Add or update a categorization rule and recategorize history")
	fmt.Println("  override  Pin a transaction's category by hand, or clear the pin")
	fmt.Println("  rules     List categorization rules")
	fmt.Println("  list      List stored transactions")
	fmt.Println("  summary   Aggregate amounts by category or by month")
	fmt.Println("  export    Write transactions to a CSV file")
	fmt.Println("  files     List ingested statement files")
	fmt.Println("  help      Show this help message")
	fmt.Println("\nRun 'vault <command> -h' for more information on a command.")
}

// configFlag registers the shared -config flag on a subcommand flag set.
func configFlag(fs *flag.FlagSet) *string {
	return fs.String("config", "vault.yaml", "Path to the YAML configuration file")
}

func loadConfig(log zerolog.Logger, path string) config.Config {
	cfg, err := config.Load(path)
	if err != nil {
		log.Fatal().Err(err).Msg("Loading configuration failed")
	}
	return cfg
}

func openVault(ctx context.Context, log zerolog.Logger, cfg config.Config) *vault.Store {
	store, err := vault.Open(ctx, cfg.VaultPath)
	if err != nil {
		log.Fatal().Err(err).Str("path", cfg.VaultPath).Msg("Opening vault failed")
	}
	return store
}

func newOracle(ctx context.Context, cfg config.Config) (oracle.Oracle, error) {
	switch cfg.Oracle.Provider {
	case config.ProviderGemini:
		return oracle.NewGeminiClient(ctx, cfg.Oracle.Model)
	default:
		return &oracle.LocalClient{
			BaseURL: cfg.Oracle.BaseURL,
			APIKey:  cfg.Oracle.APIKey,
			Model:   cfg.Oracle.Model,
		}, nil
	}
}

func runIngest(log zerolog.Logger) {
	fs := flag.NewFlagSet("ingest", flag.ExitOnError)
	cfgPath := configFlag(fs)
	file := fs.String("file", "", "Path of the statement file to ingest")
	fs.Parse(os.Args[2:])

	if *file == "" {
		log.Fatal().Msg("Error: --file is required")
	}

	cfg := loadConfig(log, *cfgPath)

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Minute)
	defer cancel()
	ctx = logger.WithContext(ctx, log)

	store := openVault(ctx, log, cfg)
	defer store.Close()

	orc, err := newOracle(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Creating oracle client failed")
	}

	data, err := os.ReadFile(*file)
	if err != nil {
		log.Fatal().Err(err).Str("file", *file).Msg("Reading statement file failed")
	}

	ing := &pipeline.Ingestor{
		Vault:       store,
		Extractor:   &oracle.Adapter{Oracle: orc, Workers: cfg.ExtractWorkers},
		ChunkLines:  cfg.ChunkLines,
		DateFormats: dateFormats(cfg),
	}

	log.Info().Str("file", *file).Msg("Starting ingestion")

	report, err := ing.IngestFile(ctx, *file, data)
	if err != nil {
		log.Fatal().Err(err).Msg("Ingestion failed")
	}

	switch report.Status {
	case pipeline.StatusDuplicate:
		fmt.Printf("Already ingested (hash %s), nothing to do.\n", report.FileHash)
	default:
		fmt.Printf("Ingested %s: %d transactions persisted", report.FileHash, report.Persisted)
		if report.Dropped > 0 {
			fmt.Printf(", %d candidates dropped", report.Dropped)
		}
		if report.FailedChunks > 0 {
			fmt.Printf(", %d chunks failed", report.FailedChunks)
		}
		fmt.Println(".")
	}
}

// dateFormats puts configured layouts ahead of the built-in ones.
func dateFormats(cfg config.Config) []string {
	if len(cfg.DateFormats) == 0 {
		return nil
	}
	return append(cfg.DateFormats, normalize.DefaultDateFormats...)
}

func runTeach(log zerolog.Logger) {
	fs := flag.NewFlagSet("teach", flag.ExitOnError)
	cfgPath := configFlag(fs)
	pattern := fs.String("pattern", "", "Merchant substring the rule matches")
	category := fs.String("category", "", "Category to assign")
	priority := fs.Int("priority", 0, "Rule priority; higher wins")
	fs.Parse(os.Args[2:])

	if *pattern == "" || *category == "" {
		log.Fatal().Msg("Error: --pattern and --category are required")
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()
	ctx = logger.WithContext(ctx, log)

	store := openVault(ctx, log, loadConfig(log, *cfgPath))
	defer store.Close()

	res, err := store.Teach(ctx, *pattern, *category, *priority)
	if err != nil {
		log.Fatal().Err(err).Msg("Teaching rule failed")
	}

	verb := "Added"
	if res.Updated {
		verb = "Updated"
	}
	fmt.Printf("%s rule %q -> %s (priority %d); %d past transactions recategorized.\n",
		verb, res.Rule.Pattern, res.Rule.Category, res.Rule.Priority, res.Recategorized)
}

func runOverride(log zerolog.Logger) {
	fs := flag.NewFlagSet("override", flag.ExitOnError)
	cfgPath := configFlag(fs)
	id := fs.String("id", "", "Transaction identifier")
	category := fs.String("category", "", "Category to pin")
	clear := fs.Bool("clear", false, "Clear the pin and re-apply rules")
	fs.Parse(os.Args[2:])

	if *id == "" {
		log.Fatal().Msg("Error: --id is required")
	}
	if !*clear && *category == "" {
		log.Fatal().Msg("Error: --category is required unless --clear is set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()
	ctx = logger.WithContext(ctx, log)

	store := openVault(ctx, log, loadConfig(log, *cfgPath))
	defer store.Close()

	if *clear {
		if err := store.ClearOverride(ctx, *id); err != nil {
			log.Fatal().Err(err).Msg("Clearing override failed")
		}
		fmt.Printf("Override cleared for %s.\n", *id)
		return
	}

	if err := store.SetOverride(ctx, *id, *category); err != nil {
		log.Fatal().Err(err).Msg("Setting override failed")
	}
	fmt.Printf("Pinned %s to %s.\n", *id, *category)
}

func runRules(log zerolog.Logger) {
	fs := flag.NewFlagSet("rules", flag.ExitOnError)
	cfgPath := configFlag(fs)
	fs.Parse(os.Args[2:])

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	store := openVault(ctx, log, loadConfig(log, *cfgPath))
	defer store.Close()

	ruleSet, err := store.ListRules(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("Listing rules failed")
	}
	if len(ruleSet) == 0 {
		fmt.Println("No rules taught yet.")
		return
	}
	for _, r := range ruleSet {
		fmt.Printf("%-30q -> %-20s priority %-3d taught %s\n",
			r.Pattern, r.Category, r.Priority, r.CreatedAt.Format("2006-01-02"))
	}
}

func listFilter(fs *flag.FlagSet) (from, to, category, merchant *string, uncategorized *bool, limit *int) {
	from = fs.String("from", "", "Earliest date, YYYY-MM-DD")
	to = fs.String("to", "", "Latest date, YYYY-MM-DD")
	category = fs.String("category", "", "Only this category")
	merchant = fs.String("merchant", "", "Merchant substring")
	uncategorized = fs.Bool("uncategorized", false, "Only transactions without a category")
	limit = fs.Int("limit", 0, "Maximum rows, 0 for all")
	return
}

func buildFilter(log zerolog.Logger, from, to, category, merchant string, uncategorized bool, limit int) vault.TxnFilter {
	f := vault.TxnFilter{
		Category:      category,
		Merchant:      merchant,
		Uncategorized: uncategorized,
		Limit:         limit,
	}
	f.From = parseDateFlag(log, from)
	f.To = parseDateFlag(log, to)
	return f
}

func parseDateFlag(log zerolog.Logger, s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		log.Fatal().Str("value", s).Msg("Error: dates must be YYYY-MM-DD")
	}
	return t
}

func runList(log zerolog.Logger) {
	fs := flag.NewFlagSet("list", flag.ExitOnError)
	cfgPath := configFlag(fs)
	from, to, category, merchant, uncategorized, limit := listFilter(fs)
	fs.Parse(os.Args[2:])

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	store := openVault(ctx, log, loadConfig(log, *cfgPath))
	defer store.Close()

	txns, err := store.ListTransactions(ctx,
		buildFilter(log, *from, *to, *category, *merchant, *uncategorized, *limit))
	if err != nil {
		log.Fatal().Err(err).Msg("Listing transactions failed")
	}
	if len(txns) == 0 {
		fmt.Println("No transactions match.")
		return
	}
	for _, t := range txns {
		cat := t.Category
		if cat == "" {
			cat = "-"
		} else if t.CategoryOverridden {
			cat += "*"
		}
		fmt.Printf("%s  %s  %10s  %-20s  %s\n",
			t.TransactionID, t.Date.Format("2006-01-02"), t.Amount.StringFixed(2), cat, t.MerchantRaw)
	}
}

func runSummary(log zerolog.Logger) {
	fs := flag.NewFlagSet("summary", flag.ExitOnError)
	cfgPath := configFlag(fs)
	by := fs.String("by", "category", "Aggregate by 'category' or 'month'")
	from := fs.String("from", "", "Earliest date, YYYY-MM-DD")
	to := fs.String("to", "", "Latest date, YYYY-MM-DD")
	fs.Parse(os.Args[2:])

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	store := openVault(ctx, log, loadConfig(log, *cfgPath))
	defer store.Close()

	switch *by {
	case "category":
		sums, err := store.SumByCategory(ctx, parseDateFlag(log, *from), parseDateFlag(log, *to))
		if err != nil {
			log.Fatal().Err(err).Msg("Summing by category failed")
		}
		for _, s := range sums {
			name := s.Category
			if name == "" {
				name = "(uncategorized)"
			}
			fmt.Printf("%-24s %12s  (%d transactions)\n", name, s.Total.StringFixed(2), s.Count)
		}
	case "month":
		sums, err := store.SumByMonth(ctx)
		if err != nil {
			log.Fatal().Err(err).Msg("Summing by month failed")
		}
		for _, s := range sums {
			fmt.Printf("%s  out %12s  in %12s\n", s.Month, s.Debits.StringFixed(2), s.Credits.StringFixed(2))
		}
	default:
		log.Fatal().Str("by", *by).Msg("Error: --by must be 'category' or 'month'")
	}
}

func runExport(log zerolog.Logger) {
	fs := flag.NewFlagSet("export", flag.ExitOnError)
	cfgPath := configFlag(fs)
	out := fs.String("out", "", "Output CSV file path")
	from, to, category, merchant, uncategorized, limit := listFilter(fs)
	fs.Parse(os.Args[2:])

	if *out == "" {
		log.Fatal().Msg("Error: --out is required")
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	store := openVault(ctx, log, loadConfig(log, *cfgPath))
	defer store.Close()

	txns, err := store.ListTransactions(ctx,
		buildFilter(log, *from, *to, *category, *merchant, *uncategorized, *limit))
	if err != nil {
		log.Fatal().Err(err).Msg("Listing transactions failed")
	}

	f, err := os.Create(*out)
	if err != nil {
		log.Fatal().Err(err).Str("file", *out).Msg("Creating export file failed")
	}
	defer f.Close()

	w := csv.NewWriter(f)
	header := []string{"transaction_id", "date", "amount", "merchant", "category",
		"overridden", "payment_method", "notes", "source_file_hash"}
	if err := w.Write(header); err != nil {
		log.Fatal().Err(err).Msg("Writing export failed")
	}
	for _, t := range txns {
		rec := []string{
			t.TransactionID,
			t.Date.Format("2006-01-02"),
			t.Amount.StringFixed(2),
			t.MerchantRaw,
			t.Category,
			strconv.FormatBool(t.CategoryOverridden),
			string(t.PaymentMethod),
			t.Notes,
			t.SourceFileHash,
		}
		if err := w.Write(rec); err != nil {
			log.Fatal().Err(err).Msg("Writing export failed")
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		log.Fatal().Err(err).Msg("Writing export failed")
	}

	fmt.Printf("Exported %d transactions to %s.\n", len(txns), *out)
}

func runFiles(log zerolog.Logger) {
	fs := flag.NewFlagSet("files", flag.ExitOnError)
	cfgPath := configFlag(fs)
	fs.Parse(os.Args[2:])

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	store := openVault(ctx, log, loadConfig(log, *cfgPath))
	defer store.Close()

	files, err := store.ListFiles(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("Listing files failed")
	}
	if len(files) == 0 {
		fmt.Println("No files ingested yet.")
		return
	}
	for _, f := range files {
		fmt.Printf("%s  %s  %-4s  %-13s  %s\n",
			f.FileHash[:12], f.IngestedAt.Format("2006-01-02 15:04"), f.SourceType, f.Instrument, f.Filename)
	}
}
