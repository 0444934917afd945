package main

import (
	"context"
	"io"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/yahyashhah/ninjaTextAi-sub001/internal/config"
	"github.com/yahyashhah/ninjaTextAi-sub001/internal/extractor"
	"github.com/yahyashhah/ninjaTextAi-sub001/internal/gelf"
	"github.com/yahyashhah/ninjaTextAi-sub001/internal/handler"
	"github.com/yahyashhah/ninjaTextAi-sub001/internal/models"
	"github.com/yahyashhah/ninjaTextAi-sub001/internal/notify"
	"github.com/yahyashhah/ninjaTextAi-sub001/internal/pipeline"
	"github.com/yahyashhah/ninjaTextAi-sub001/internal/queue"
	"github.com/yahyashhah/ninjaTextAi-sub001/internal/router"
	"github.com/yahyashhah/ninjaTextAi-sub001/internal/store"
	"github.com/yahyashhah/ninjaTextAi-sub001/internal/validator"
)

func main() {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	// GELF UDP logging
	if cfg.GelfAddr != "" {
		gelfWriter, err := gelf.New(cfg.GelfAddr)
		if err != nil {
			log.Printf("Warning: GELF init failed: %v", err)
		} else {
			log.SetOutput(io.MultiWriter(os.Stderr, gelfWriter))
			log.Printf("GELF logging: enabled (%s)", cfg.GelfAddr)
		}
	}

	// Store
	var st store.Store
	if cfg.SQLitePath == "" {
		st = store.NewMemoryStore()
		log.Printf("Store: in-memory (no REVIEW_SQLITE_PATH set)")
	} else {
		sq, err := store.NewSQLiteStore(cfg.SQLitePath)
		if err != nil {
			log.Fatalf("Failed to open store: %v", err)
		}
		if err := sq.EnsureSchema(context.Background()); err != nil {
			log.Fatalf("Failed to ensure schema: %v", err)
		}
		st = sq
		log.Printf("Store ready at %s", cfg.SQLitePath)
	}
	defer st.Close()

	// Field extractor
	ex, err := extractor.NewGeminiExtractor(context.Background(), cfg.GeminiAPIKey, cfg.GeminiModel)
	if err != nil {
		log.Fatalf("Failed to init extractor: %v", err)
	}
	log.Printf("Extractor: gemini model %s", cfg.GeminiModel)

	// Pipeline
	notifier := notify.LogNotifier{}
	val := validator.New(ex)
	accuracyRouter := pipeline.NewRouter(st, notifier, cfg.AccuracyThreshold, time.Duration(cfg.ReviewSLAHours)*time.Hour)
	pipe := pipeline.New(val, st, accuracyRouter, time.Duration(cfg.ExtractorTimeout)*time.Second)
	machine := queue.NewMachine(st, notifier, cfg.AccuracyThreshold)
	stats := queue.NewStats(st, cfg.AccuracyThreshold)

	// Handlers
	reportH := handler.NewReportHandler(pipe, st)
	queueH := handler.NewQueueHandler(machine, stats, st)
	templateH := handler.NewTemplateHandler(st)
	dashH := handler.NewDashboardHandler(st, stats)

	// Router
	r := router.New(reportH, queueH, templateH, dashH)

	// Seed a default template in background so a fresh deployment can take
	// submissions immediately.
	go seedDefaultTemplate(st)

	// SLA watcher: re-notifies on every tick until items are resolved.
	go watchDueReviews(machine)

	log.Printf("Report review server starting on %s (accuracy threshold %.0f, SLA %dh)",
		cfg.HTTPAddr, cfg.AccuracyThreshold, cfg.ReviewSLAHours)
	if err := http.ListenAndServe(cfg.HTTPAddr, r); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}

func watchDueReviews(machine *queue.Machine) {
	ticker := time.NewTicker(15 * time.Minute)
	defer ticker.Stop()
	for range ticker.C {
		n, err := machine.NotifyDueSoon(context.Background(), 4*time.Hour)
		if err != nil {
			log.Printf("Warning: SLA scan failed: %v", err)
			continue
		}
		if n > 0 {
			log.Printf("SLA scan: %d review item(s) due soon", n)
		}
	}
}

func seedDefaultTemplate(st store.Store) {
	ctx := context.Background()
	existing, err := st.ListTemplates(ctx, "default")
	if err != nil {
		log.Printf("Warning: template seed check failed: %v", err)
		return
	}
	if len(existing) > 0 {
		return
	}

	now := time.Now().UTC()
	tmpl := &models.TemplateDefinition{
		ID:             uuid.NewString(),
		OrgID:          "default",
		Name:           "Incident Report",
		RequiredFields: []string{"incident_time", "location", "offense_description"},
		FieldDefinitions: map[string]models.FieldDescriptor{
			"incident_time": {
				Key:         "incident_time",
				Label:       "Incident time",
				Description: "When the incident occurred",
				Required:    true,
				Type:        models.FieldTypeDatetime,
			},
			"location": {
				Key:         "location",
				Label:       "Location",
				Description: "Where the incident occurred",
				Required:    true,
				Type:        models.FieldTypeText,
			},
			"offense_description": {
				Key:         "offense_description",
				Label:       "Offense description",
				Description: "What happened",
				Required:    true,
				Type:        models.FieldTypeText,
			},
		},
		CreatedBy: "system",
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := tmpl.Validate(); err != nil {
		log.Printf("Warning: default template invalid: %v", err)
		return
	}
	if err := st.CreateTemplate(ctx, tmpl); err != nil {
		log.Printf("Warning: default template seed failed: %v", err)
		return
	}
	log.Printf("Seeded default incident template %s", tmpl.ID)
}
