package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/akfldk1028/KAT-sub000/internal/agent"
	"github.com/akfldk1028/KAT-sub000/internal/catalog"
	"github.com/akfldk1028/KAT-sub000/internal/config"
	"github.com/akfldk1028/KAT-sub000/internal/conversation"
	"github.com/akfldk1028/KAT-sub000/internal/extract"
	"github.com/akfldk1028/KAT-sub000/internal/intel"
	"github.com/akfldk1028/KAT-sub000/internal/llm"
	"github.com/akfldk1028/KAT-sub000/internal/logging"
	"github.com/akfldk1028/KAT-sub000/internal/server"
)

func main() {
	var (
		configFile = flag.String("config", "", "YAML config file path (if provided, overrides other flags)")
		listen     = flag.String("listen", ":8084", "HTTP listen address")
		logDir     = flag.String("logdir", "./logs", "audit log directory")
	)
	flag.Parse()

	// .env가 있으면 환경변수로 로드 (없어도 무방)
	_ = godotenv.Load()

	var cfg *config.Config
	if *configFile != "" {
		loaded, err := config.LoadConfig(*configFile)
		if err != nil {
			log.Fatalf("Failed to load config: %v", err)
		}
		cfg = loaded
	} else {
		cfg = config.Default()
		cfg.Gateway.Listen = *listen
		cfg.Gateway.LogDir = *logDir
	}
	analyzerCfg, intelCfg, cacheCfg, llmCfg := config.LoadAnalyzerConfig()

	loader := catalog.NewLoader(cfg.Catalogs.PIIPath, cfg.Catalogs.ThreatPath)
	if err := loader.Load(); err != nil {
		log.Fatalf("Failed to load catalogs: %v", err)
	}
	threatCat := loader.Threat()
	extractor := extract.New(threatCat.WhitelistDomains, threatCat.ShortURLDomains)

	localDB, err := intel.NewLocalReportDB(cfg.Data.ScamDBPath)
	if err != nil {
		log.Fatalf("Failed to load scam report db: %v", err)
	}
	snapshot, err := intel.NewSnapshot(cfg.Data.SnapshotPath, intelCfg.SnapshotTTL)
	if err != nil {
		log.Fatalf("Failed to load phishing snapshot: %v", err)
	}

	var reportCache intel.ReportCache
	if cacheCfg.Enabled {
		memory := intel.NewMemoryReportCache(cacheCfg.MemorySize, cacheCfg.MemoryTTL)
		redisCache := intel.NewRedisReportCache(cacheCfg.RedisAddress, cacheCfg.RedisPassword,
			cacheCfg.RedisDB, cacheCfg.RedisTTL)
		reportCache = intel.NewTieredReportCache(memory, redisCache)
	}

	opts := intel.AggregatorOptions{
		LocalDB:       localDB,
		Snapshot:      snapshot,
		Cache:         reportCache,
		Timeout:       intelCfg.ProviderTimeout,
		MaxConcurrent: int(intelCfg.MaxConcurrent),
	}
	if intelCfg.ReportLookupURL != "" {
		lookup := intel.NewReportLookupClient(intelCfg.ReportLookupURL, intelCfg.ReportLookupKey,
			intelCfg.ProviderTimeout, intelCfg.MaxRetries)
		opts.Phone = lookup
		opts.Account = lookup.AccountProvider()
	}
	if intelCfg.URLEngineURL != "" {
		opts.URLEngine = intel.NewURLEngineClient(intelCfg.URLEngineURL, intelCfg.URLEngineKey,
			intelCfg.ProviderTimeout, intelCfg.URLMinInterval)
	}
	aggregator := intel.NewAggregator(opts)

	store, err := conversation.NewSQLiteStore(cfg.Data.ConversationDB)
	if err != nil {
		log.Fatalf("Failed to open conversation store: %v", err)
	}
	defer store.Close()
	trust := conversation.NewAnalyzer(store)

	var adjudicator *llm.Adjudicator
	if analyzerCfg.EnableLLM {
		client, err := llm.NewGRPCClient(llmCfg)
		if err != nil {
			log.Fatalf("Failed to connect adjudicator server: %v", err)
		}
		defer client.Close()
		models := llm.NewModelManager(client, llmCfg.Model)
		loadCtx, cancel := context.WithTimeout(context.Background(), llmCfg.Timeout)
		if err := models.EnsureReady(loadCtx); err != nil {
			log.Printf("[WARN] 판정 모델 로드 실패, 규칙 전용으로 동작: %v", err)
		}
		cancel()
		defer models.Shutdown(context.Background())
		adjudicator = llm.NewAdjudicator(client, loader, analyzerCfg.LLMEpsilon)
	}

	audit, err := logging.NewAuditLogger(cfg.Gateway.LogDir)
	if err != nil {
		log.Fatalf("Failed to create audit logger: %v", err)
	}
	defer audit.Close()

	manager := agent.NewManager(agent.Dependencies{
		Loader:      loader,
		Extractor:   extractor,
		Intel:       aggregator,
		Trust:       trust,
		Adjudicator: adjudicator,
		Audit:       audit,
		Config:      *analyzerCfg,
	})
	srv := server.New(manager, loader)

	httpServer := &http.Server{
		Addr:         cfg.Gateway.Listen,
		Handler:      srv.Handler(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 35 * time.Second,
	}

	go func() {
		fmt.Printf("Starting safeguard gateway on %s\n", cfg.Gateway.Listen)
		fmt.Printf("Catalog versions: pii=%s threat=%s\n",
			loader.PII().Version, loader.Threat().Version)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("HTTP server error: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Printf("[WARN] graceful shutdown failed: %v", err)
	}
	fmt.Println("safeguard gateway stopped")
}
