package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"guardian/internal/analyst"
	"guardian/internal/audit"
	"guardian/internal/chunker"
	"guardian/internal/config"
	"guardian/internal/domain"
	"guardian/internal/embedding/gemini"
	"guardian/internal/embedding/openai"
	"guardian/internal/ingest"
	"guardian/internal/llm"
	"guardian/internal/loader"
	"guardian/internal/logging"
	"guardian/internal/report"
	"guardian/internal/tui"
	"guardian/internal/vectorstore"
	"guardian/internal/vectorstore/memory"
	"guardian/internal/vectorstore/vecgo"
)

func main() {
	_ = godotenv.Load()

	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "analyze":
		runAnalyze(os.Args[2:])
	case "ask":
		runAsk(os.Args[2:])
	case "audit":
		runAudit(os.Args[2:])
	case "info":
		runInfo(os.Args[2:])
	case "clear":
		runClear(os.Args[2:])
	case "help", "-h", "--help":
		usage()
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n", os.Args[1])
		usage()
		os.Exit(1)
	}
}

func usage() {
	fmt.Println(`Usage: guardian <command> [flags]

Commands:
  analyze  Ingest a regulatory PDF and answer a question about it
  ask      Open an interactive console over the ingested store
  audit    Check a code repository against a regulatory PDF
  info     Show store location, size and chunk count
  clear    Destroy the store
  help     Show this help

Run "guardian <command> -h" for command flags.`)
}

func runAnalyze(args []string) {
	fs := flag.NewFlagSet("analyze", flag.ExitOnError)
	cfgPath := fs.String("config", "", "Path to YAML config file (optional)")
	pdfPath := fs.String("pdf", "", "Path to the regulatory PDF (required)")
	question := fs.String("q", "", "Question to answer from the document (required)")
	modeFlag := fs.String("mode", "", "Ingestion mode: fresh or accumulate (required)")
	fs.Parse(args)

	if *pdfPath == "" || *question == "" || *modeFlag == "" {
		fmt.Fprintln(os.Stderr, "analyze requires -pdf, -q and -mode")
		fs.Usage()
		os.Exit(1)
	}
	mode, err := ingest.ParseMode(*modeFlag)
	if err != nil {
		log.Fatalf("%v", err)
	}

	cfg := loadConfig(*cfgPath)
	logger := logging.New(cfg.Logging)
	defer logger.Sync()

	a, _ := buildAnalyst(cfg, logger)
	ans, err := a.AnalyzeDocument(context.Background(), *pdfPath, *question, mode)
	if err != nil {
		log.Fatalf("analyze failed: %v", err)
	}
	printAnswer(ans)
}

func runAsk(args []string) {
	fs := flag.NewFlagSet("ask", flag.ExitOnError)
	cfgPath := fs.String("config", "", "Path to YAML config file (optional)")
	topK := fs.Int("k", 0, "Chunks of context per question (0 uses the config value)")
	fs.Parse(args)

	cfg := loadConfig(*cfgPath)
	// logs go to the file only, the console belongs to the TUI
	logger := logging.NewFileOnly(cfg.Logging)
	defer logger.Sync()

	a, manager := buildAnalyst(cfg, logger)
	if !manager.Exists() {
		log.Fatalf("no document store at %s; run \"guardian analyze\" first", cfg.Store.Dir)
	}

	k := *topK
	if k <= 0 {
		k = cfg.Retrieval.AllDocsLimit
	}
	m := tui.New(a, k)
	if _, err := tea.NewProgram(m).Run(); err != nil {
		log.Fatal(err)
	}
}

func runAudit(args []string) {
	fs := flag.NewFlagSet("audit", flag.ExitOnError)
	cfgPath := fs.String("config", "", "Path to YAML config file (optional)")
	pdfPath := fs.String("pdf", "", "Path to the regulatory PDF (required)")
	repoPath := fs.String("repo", "", "Path or URL of the repository to audit (required)")
	modeFlag := fs.String("mode", "", "Ingestion mode: fresh or accumulate (required)")
	outPath := fs.String("out", "", "Write the report as JSON to this path")
	fs.Parse(args)

	if *pdfPath == "" || *repoPath == "" || *modeFlag == "" {
		fmt.Fprintln(os.Stderr, "audit requires -pdf, -repo and -mode")
		fs.Usage()
		os.Exit(1)
	}
	mode, err := ingest.ParseMode(*modeFlag)
	if err != nil {
		log.Fatalf("%v", err)
	}

	cfg := loadConfig(*cfgPath)
	logger := logging.New(cfg.Logging)
	defer logger.Sync()

	ctx := context.Background()
	a, _ := buildAnalyst(cfg, logger)

	logger.Infow("extracting technical brief", "pdf", *pdfPath)
	brief, err := a.AnalyzeDocument(ctx, *pdfPath, audit.BriefQuestion, mode)
	if err != nil {
		log.Fatalf("brief extraction failed: %v", err)
	}

	auditor := buildAuditor(cfg)
	logger.Infow("auditing repository", "repo", *repoPath)
	violations, err := auditor.Audit(ctx, *repoPath, brief.Text)
	if err != nil {
		log.Fatalf("audit failed: %v", err)
	}

	rep := report.New(filepath.Base(*pdfPath), *repoPath, brief.Text, violations)
	fmt.Println(rep.Render())
	if *outPath != "" {
		if err := rep.WriteJSON(*outPath); err != nil {
			log.Fatalf("write report: %v", err)
		}
		logger.Infow("report written", "path", *outPath, "violations", len(violations))
	}
}

func runInfo(args []string) {
	fs := flag.NewFlagSet("info", flag.ExitOnError)
	cfgPath := fs.String("config", "", "Path to YAML config file (optional)")
	fs.Parse(args)

	cfg := loadConfig(*cfgPath)
	logger := logging.New(cfg.Logging)
	defer logger.Sync()

	// no embedder here, info must work without an API key
	manager := ingest.NewManager(cfg.Store.Dir, storeOpener(cfg, nil, logger), logger)
	info := manager.Describe()
	if !info.Exists {
		fmt.Printf("No store at %s\n", cfg.Store.Dir)
		return
	}
	count, err := manager.CountChunks(context.Background())
	if err != nil {
		log.Fatalf("count chunks: %v", err)
	}
	fmt.Printf("Store:  %s\n", cfg.Store.Dir)
	fmt.Printf("Size:   %s\n", humanSize(info.SizeBytes))
	fmt.Printf("Chunks: %d\n", count)
}

func runClear(args []string) {
	fs := flag.NewFlagSet("clear", flag.ExitOnError)
	cfgPath := fs.String("config", "", "Path to YAML config file (optional)")
	fs.Parse(args)

	cfg := loadConfig(*cfgPath)
	logger := logging.New(cfg.Logging)
	defer logger.Sync()

	manager := ingest.NewManager(cfg.Store.Dir, storeOpener(cfg, nil, logger), logger)
	if !manager.Exists() {
		fmt.Printf("No store at %s\n", cfg.Store.Dir)
		return
	}
	if err := manager.Reset(); err != nil {
		log.Fatalf("clear failed: %v", err)
	}
	fmt.Printf("Store at %s cleared\n", cfg.Store.Dir)
}

func loadConfig(path string) *config.AppConfig {
	var cfg *config.AppConfig
	var err error
	if path == "" {
		cfg, _, err = config.LoadDefault()
	} else {
		cfg, err = config.Load(path)
	}
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	return cfg
}

// buildAnalyst assembles the full pipeline and returns the store manager
// alongside it for commands that need lifecycle checks.
func buildAnalyst(cfg *config.AppConfig, logger *zap.SugaredLogger) (*analyst.Analyst, *ingest.Manager) {
	emb := buildEmbedder(cfg)
	gen := buildLLM(cfg)
	manager := ingest.NewManager(cfg.Store.Dir, storeOpener(cfg, emb, logger), logger)
	a := analyst.New(loader.NewPDFLoader(), buildChunker(cfg), manager, gen, logger)
	a.Tune(cfg.Retrieval.PoolSize, cfg.Retrieval.Limit, cfg.Retrieval.AllDocsLimit)
	return a, manager
}

func buildEmbedder(cfg *config.AppConfig) domain.Embedder {
	switch cfg.Embedder.Type {
	case "gemini", "":
		g := cfg.Embedder.Gemini
		if g == nil {
			log.Fatalf("gemini embedder config missing")
		}
		client, err := gemini.NewClient(gemini.Config{
			BaseURL:    g.BaseURL,
			APIKeyEnv:  g.APIKeyEnv,
			Model:      g.Model,
			TaskType:   g.TaskType,
			Dimension:  g.Dimension,
			Timeout:    time.Duration(g.TimeoutSecs) * time.Second,
			MaxRetries: g.MaxRetries,
		})
		if err != nil {
			log.Fatalf("gemini embedder init failed: %v", err)
		}
		return client
	case "openai":
		o := cfg.Embedder.OpenAI
		if o == nil {
			log.Fatalf("openai embedder config missing")
		}
		client, err := openai.NewClient(openai.Config{
			BaseURL:   o.BaseURL,
			APIKeyEnv: o.APIKeyEnv,
			Model:     o.Model,
			Dimension: o.Dimension,
			Timeout:   time.Duration(o.TimeoutSecs) * time.Second,
		})
		if err != nil {
			log.Fatalf("openai embedder init failed: %v", err)
		}
		return client
	default:
		log.Fatalf("unknown embedder: %s", cfg.Embedder.Type)
	}
	return nil
}

func buildLLM(cfg *config.AppConfig) domain.Generator {
	switch cfg.LLM.Type {
	case "gemini", "":
		g := cfg.LLM.Gemini
		if g == nil {
			log.Fatalf("gemini llm config missing")
		}
		client, err := llm.NewGeminiClient(llm.GeminiConfig{
			BaseURL:     g.BaseURL,
			APIKeyEnv:   g.APIKeyEnv,
			Model:       g.Model,
			Temperature: g.Temperature,
			Timeout:     time.Duration(g.TimeoutSecs) * time.Second,
		})
		if err != nil {
			log.Fatalf("gemini llm init failed: %v", err)
		}
		return client
	default:
		log.Fatalf("unknown llm: %s", cfg.LLM.Type)
	}
	return nil
}

func buildChunker(cfg *config.AppConfig) domain.Chunker {
	switch cfg.Chunker.Type {
	case "character", "":
		return chunker.NewCharacterChunker(cfg.Chunker.Size, cfg.Chunker.Overlap)
	case "sentence":
		return chunker.NewSentenceChunker(cfg.Chunker.SentencesPerChunk, cfg.Chunker.OverlapSentences)
	default:
		log.Fatalf("unknown chunker: %s", cfg.Chunker.Type)
	}
	return nil
}

func buildAuditor(cfg *config.AppConfig) audit.Auditor {
	switch cfg.Audit.Auditor {
	case "static", "":
		return audit.NewStaticAuditor()
	default:
		log.Fatalf("unknown auditor: %s", cfg.Audit.Auditor)
	}
	return nil
}

// storeOpener returns the OpenFunc for the configured store backend. The
// embedder may be nil for commands that only inspect or destroy the store.
func storeOpener(cfg *config.AppConfig, emb domain.Embedder, logger *zap.SugaredLogger) ingest.OpenFunc {
	switch cfg.Store.Type {
	case "vecgo", "":
		dim := embedderDimension(cfg)
		return func(ctx context.Context) (vectorstore.Store, error) {
			return vecgo.Open(cfg.Store.Dir, emb, vecgo.Options{Dimension: dim, Logger: logger})
		}
	case "memory":
		st := memory.NewStorage(emb)
		return func(ctx context.Context) (vectorstore.Store, error) {
			return st, nil
		}
	default:
		log.Fatalf("unknown store: %s", cfg.Store.Type)
	}
	return nil
}

// embedderDimension mirrors the dimension of whichever embedder is
// configured, so a store can be opened without instantiating one.
func embedderDimension(cfg *config.AppConfig) int {
	switch cfg.Embedder.Type {
	case "openai":
		if cfg.Embedder.OpenAI != nil {
			return cfg.Embedder.OpenAI.Dimension
		}
	default:
		if cfg.Embedder.Gemini != nil {
			return cfg.Embedder.Gemini.Dimension
		}
	}
	return 0
}

func printAnswer(ans analyst.Answer) {
	fmt.Println(ans.Text)
	fmt.Println()
	fmt.Printf("Ingested %d chunks (%d new, %d already stored)\n",
		ans.Ingested.Total, ans.Ingested.Inserted, ans.Ingested.Skipped)
	if len(ans.Sources) > 0 {
		fmt.Println("Sources:")
		for _, src := range ans.Sources {
			fmt.Printf("  %s: %d chunks\n", src, ans.Distribution[src])
		}
	}
	if ans.UsedFallback {
		fmt.Println("Note: no chunk from the requested document ranked high enough; the answer uses the best matches across the store.")
	}
}

func humanSize(n int64) string {
	switch {
	case n >= 1<<20:
		return fmt.Sprintf("%.1f MB", float64(n)/(1<<20))
	case n >= 1<<10:
		return fmt.Sprintf("%.1f KB", float64(n)/(1<<10))
	}
	return fmt.Sprintf("%d B", n)
}
