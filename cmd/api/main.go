package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"github.com/joho/godotenv"

	"github.com/kpaulsen/apflow/internal/category"
	catopenai "github.com/kpaulsen/apflow/internal/category/openai"
	"github.com/kpaulsen/apflow/internal/config"
	"github.com/kpaulsen/apflow/internal/database"
	dedupStore "github.com/kpaulsen/apflow/internal/dedup/store"
	"github.com/kpaulsen/apflow/internal/document"
	docStore "github.com/kpaulsen/apflow/internal/document/store"
	"github.com/kpaulsen/apflow/internal/export"
	"github.com/kpaulsen/apflow/internal/fieldservice"
	"github.com/kpaulsen/apflow/internal/hold"
	holdStore "github.com/kpaulsen/apflow/internal/hold/store"
	apflowHttp "github.com/kpaulsen/apflow/internal/http"
	docHandler "github.com/kpaulsen/apflow/internal/http/document"
	exportHandler "github.com/kpaulsen/apflow/internal/http/export"
	holdHandler "github.com/kpaulsen/apflow/internal/http/hold"
	"github.com/kpaulsen/apflow/internal/ingest"
	"github.com/kpaulsen/apflow/internal/notify"
	"github.com/kpaulsen/apflow/internal/pipeline"
	"github.com/kpaulsen/apflow/internal/retry"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	db, err := database.New(context.Background(), cfg.ConnectionString())
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	var classifier category.Classifier
	if cfg.OpenAI.APIKey != "" {
		classifier = catopenai.NewClassifier(cfg.OpenAI.APIKey, cfg.OpenAI.Model, cfg.OpenAI.Timeout)
	}

	fsClient := fieldservice.NewClient(cfg.FieldService.BaseURL, cfg.FieldService.Token)

	var (
		documentService = document.NewService(docStore.New(db))
		holdService     = hold.NewService(holdStore.New(db))
		builder         = ingest.NewBuilder(category.NewService(classifier))
	)

	processor := pipeline.NewProcessor(pipeline.Params{
		Config:    cfg.MatchConfig(),
		Logger:    slog.Default(),
		Builder:   builder,
		Documents: docStore.New(db),
		Dedup:     dedupStore.New(db),
		Holds:     holdService,
		POLookup:  fsClient,
		Bills:     fsClient,
		Notifier:  notify.NewWebhook(cfg.Notify.WebhookURL, cfg.Notify.Recipients),
		Retry:     retry.Default,
	})

	var (
		documentsH = docHandler.NewHandler(documentService, processor)
		holdsH     = holdHandler.NewHandler(holdService)
		exportsH   = exportHandler.NewHandler(export.NewService(documentService))
	)

	router := apflowHttp.New(documentsH, holdsH, exportsH)

	port := fmt.Sprintf(":%d", cfg.App.Port)
	slog.Info("starting server", "app", cfg.App.Name, "port", port)

	if err := http.ListenAndServe(port, router); err != nil {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}
}
