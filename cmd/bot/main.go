package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"alliance_quest_bot/internal/app"
	"alliance_quest_bot/internal/infra/config"
	idb "alliance_quest_bot/internal/infra/database"
	infraDiscord "alliance_quest_bot/internal/infra/discord"
	"alliance_quest_bot/internal/infra/logger"
	"alliance_quest_bot/internal/infra/scheduler"

	"github.com/bwmarrin/discordgo"
)

func main() {
	fmt.Println("Alliance Quest Bot starting...")

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: Could not load application configuration: %v\n", err)
		os.Exit(1)
	}

	logger.Init(cfg)
	log := logger.Get().WithField("component", "main")
	log.WithFields(map[string]interface{}{
		"log_level":   cfg.LogLevel,
		"environment": cfg.Environment,
	}).Info("Configuration loaded")

	// Initialize Database Connection
	db, err := idb.NewPostgresConnection(cfg.DatabaseURL)
	if err != nil {
		log.WithError(err).Fatal("Could not connect to database")
	}
	defer db.Close()
	log.Info("Database connection established successfully")

	// Initialize Repositories
	runRepo := idb.NewPostgresRunRepository(db)
	allianceRepo := idb.NewPostgresAllianceRepository(db)
	log.Info("Repositories initialized")

	// Initialize Discord session
	session, err := discordgo.New("Bot " + cfg.DiscordToken)
	if err != nil {
		log.WithError(err).Fatal("Could not create Discord session")
	}
	session.Identify.Intents = discordgo.IntentsGuilds | discordgo.IntentsGuildMessages

	chatClient := infraDiscord.NewSessionAdapter(session)
	boardRenderer := infraDiscord.NewEmbedBoardRenderer()

	// Initialize application services
	questService := app.NewQuestService(runRepo, allianceRepo, chatClient, boardRenderer,
		logger.Get().WithField("component", "quest_service"))
	allianceService := app.NewAllianceService(allianceRepo,
		logger.Get().WithField("component", "alliance_service"))
	reminderService := app.NewReminderService(runRepo, allianceRepo, chatClient,
		logger.Get().WithField("component", "reminder_service"))
	log.Info("Application services initialized")

	// Initialize ReminderScheduler
	reminderScheduler := scheduler.NewReminderScheduler(
		reminderService,
		logger.Get().WithField("component", "scheduler"),
		cfg.CronSpecReminderCheck,
	)

	// Register interaction handlers and open the gateway connection
	interactionHandler := infraDiscord.NewInteractionHandler(questService, allianceService,
		cfg.DefaultTimezone, logger.Get().WithField("component", "handlers"))
	session.AddHandler(interactionHandler.Handle)

	if err := session.Open(); err != nil {
		log.WithError(err).Fatal("Could not open Discord session")
	}
	defer session.Close()
	log.Info("Discord session opened")

	registeredCommands, err := infraDiscord.RegisterCommands(session, cfg.GuildID)
	if err != nil {
		log.WithError(err).Fatal("Could not register slash commands")
	}
	log.WithField("count", len(registeredCommands)).Info("Slash commands registered")

	reminderScheduler.Start()
	log.Info("Application setup complete. Bot and scheduler are running.")

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit // Block until a signal is received

	log.Info("Shutting down application...")
	reminderScheduler.Stop()
	infraDiscord.RemoveCommands(session, cfg.GuildID, registeredCommands, log)
	log.Info("Application shut down gracefully")
}
