package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"relation-chatter/internal/affinity"
	"relation-chatter/internal/annotation"
	"relation-chatter/internal/auth"
	"relation-chatter/internal/config"
	"relation-chatter/internal/history"
	"relation-chatter/internal/llm"
	"relation-chatter/internal/relation"
	"relation-chatter/internal/scheduler"
	"relation-chatter/internal/storage"
	"relation-chatter/internal/telegram"
)

func main() {
	if err := godotenv.Load(".env"); err != nil {
		log.Printf("Warning: .env file not found: %v", err)
	}

	cfg := config.New()

	var adminRepo auth.Repository
	if cfg.Relation.AdminsFilePath != "" {
		repo, err := auth.NewFileRepository(cfg.Relation.AdminsFilePath)
		if err != nil {
			log.Printf("failed to init admins repo: %v", err)
		} else {
			adminRepo = repo
		}
	}
	admins, err := auth.NewWithRepo(adminRepo, cfg.Relation.AdminUsers)
	if err != nil {
		log.Fatalf("failed to init admins: %v", err)
	}

	store, err := relation.Open(cfg.Relation.FilePath, cfg.Relation.StoreOptions())
	if err != nil {
		log.Fatalf("failed to open relation store: %v", err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			log.Printf("failed to save relation store on shutdown: %v", err)
		}
	}()

	extractor, err := annotation.New(cfg.Relation.TagLabel)
	if err != nil {
		log.Fatalf("failed to init annotation extractor: %v", err)
	}

	llmClient, err := llm.New(cfg)
	if err != nil {
		log.Fatalf("failed to create llm client: %v", err)
	}

	svc := affinity.New(store, extractor, admins, affinity.Config{
		MaxScore:        cfg.Relation.MaxScore,
		ContextPriority: cfg.Relation.ContextPriority,
		Persona:         readSystemPrompt(cfg.SystemPromptPath),
		PersonaPriority: cfg.PersonaPriority,
		NotifyOnChange:  cfg.Relation.NotifyOnChange,
	})

	var rec storage.Recorder
	if cfg.LogFilePath != "" {
		fr, err := storage.NewFileRecorder(cfg.LogFilePath)
		if err != nil {
			log.Printf("failed to init file recorder: %v", err)
		} else {
			rec = fr
		}
	}

	bot, err := telegram.New(cfg.TelegramBotToken, llmClient, svc, history.NewManager(cfg.ConversationLimit), rec, cfg.MessageParseMode)
	if err != nil {
		log.Fatalf("failed to create bot: %v", err)
	}

	sched := scheduler.New(cfg.DailyReportSpec)
	if rec != nil {
		sched.SetReportFunction(func(ctx context.Context) error {
			ids := make([]string, 0)
			for _, u := range admins.List() {
				ids = append(ids, u.ID)
			}
			return bot.SendDailyReport(ctx, ids)
		})
	}
	if err := sched.Start(); err != nil {
		log.Printf("failed to start scheduler: %v", err)
	}
	defer sched.Stop()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	bot.Start(ctx)
	log.Println("shutting down")
}

func readSystemPrompt(path string) string {
	if path == "" {
		return ""
	}
	data, err := os.ReadFile(path)
	if err != nil {
		log.Printf("system prompt file not found or unreadable at %s: %v", path, err)
		return ""
	}
	return string(data)
}
