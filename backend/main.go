package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"country-color-map/backend/config"
	"country-color-map/backend/handlers"
	"country-color-map/backend/services"
	"country-color-map/backend/system"

	"github.com/glebarez/sqlite"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/spf13/cobra"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func main() {
	var configPath string

	root := &cobra.Command{
		Use:   "colormap",
		Short: "World map with admin-assigned country colors",
	}
	root.PersistentFlags().StringVarP(&configPath, "config", "c", "colormap.yaml", "path to YAML config")

	serve := newServeCmd(&configPath)
	root.AddCommand(serve, newImportCmd(&configPath))
	// bare "colormap" serves
	root.RunE = serve.RunE

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newServeCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the map web server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			return serve(cfg)
		},
	}
}

func newImportCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "import <countries.csv>",
		Short: "Replace the stored colors with a Countries,Colour CSV",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}

			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()

			rows, err := services.ReadSeedCSV(f)
			if err != nil {
				return err
			}

			db, history := openHistory(cfg)
			defer closeDB(db)
			webhookService := newWebhookService(cfg)
			defer webhookService.Wait()

			// a corrupt file is about to be replaced anyway
			store, _ := services.NewColorStore(cfg.DataFile, webhookService)
			if history != nil {
				store.AddObserver(history)
			}
			seeded, err := store.LoadFromSeed(rows)
			if err != nil {
				return fmt.Errorf("error updating colors: %w", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Successfully updated %d country colors in %s\n", len(seeded), cfg.DataFile)
			return nil
		},
	}
}

func serve(cfg *config.Config) error {
	// 0. Logger
	if err := system.InitLogger(cfg.LogDir); err != nil {
		log.Printf("Warning: Could not initialize file logger: %v", err)
	}
	defer system.Close()

	system.Info("Country color map starting...")

	// 1. History database
	db, history := openHistory(cfg)
	defer closeDB(db)

	// 2. Webhook
	webhookService := newWebhookService(cfg)

	// 3. Color store; a bad file is reported and we continue empty
	store, err := services.NewColorStore(cfg.DataFile, webhookService)
	if err != nil {
		system.Error("Could not load %s: %v", cfg.DataFile, err)
	}
	if history != nil {
		store.AddObserver(history)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		if err := store.Watch(ctx); err != nil {
			system.Warn("Not watching %s for external changes: %v", cfg.DataFile, err)
		}
	}()

	// 4. Auth
	gate := services.NewSecretGate(cfg.Auth.AdminPassword)
	if !gate.Enabled() {
		system.Warn("ADMIN_PASSWORD is not set, admin login is disabled")
	}
	ttl, _ := cfg.SessionTTL()
	sessions, err := services.NewSessionManager(cfg.Auth.SessionSecret, ttl)
	if err != nil {
		return err
	}

	// 5. Map data
	boundaries := services.NewBoundaryService(cfg.BoundariesURL)
	geoipService, err := services.NewGeoIPService(cfg.GeoIPDB)
	if err != nil {
		system.Warn("GeoIP disabled: %v", err)
	}
	defer geoipService.Close()

	// 6. Handlers
	h := handlers.NewHandler(store, gate, sessions, boundaries)
	h.History = history
	h.GeoIP = geoipService
	h.Webhook = webhookService

	app := fiber.New(fiber.Config{
		DisableStartupMessage: false,
	})

	app.Use(logger.New(logger.Config{
		Format:     "${time} | ${status} | ${latency} | ${ip} | ${method} ${path}\n",
		TimeFormat: "2006-01-02 15:04:05",
		Output:     os.Stdout,
	}))
	app.Use(cors.New())

	h.Register(app)

	// 7. Static frontend with SPA fallback
	if _, err := os.Stat(cfg.FrontendDir); err == nil {
		app.Static("/", cfg.FrontendDir, fiber.Static{
			ByteRange: true,
			Browse:    false,
			MaxAge:    3600,
		})
		app.Get("/*", func(c *fiber.Ctx) error {
			return c.SendFile(filepath.Join(cfg.FrontendDir, "index.html"))
		})
	}

	// Graceful Shutdown Handling
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-c
		system.Info("Gracefully shutting down...")
		cancel()
		_ = app.Shutdown()
	}()

	system.Info("Server starting on %s", cfg.Listen)
	if err := app.Listen(cfg.Listen); err != nil {
		return err
	}

	webhookService.Wait()
	return nil
}

// openHistory returns a nil service when the audit database is unusable; the
// map works without it.
func openHistory(cfg *config.Config) (*gorm.DB, *services.HistoryService) {
	db, err := gorm.Open(sqlite.Open(cfg.HistoryDB), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Warn),
	})
	if err != nil {
		system.Warn("History disabled, failed to open %s: %v", cfg.HistoryDB, err)
		return nil, nil
	}
	history, err := services.NewHistoryService(db)
	if err != nil {
		system.Warn("History disabled: %v", err)
		return db, nil
	}
	system.Info("History database: %s", cfg.HistoryDB)
	return db, history
}

func closeDB(db *gorm.DB) {
	if db == nil {
		return
	}
	if sqlDB, err := db.DB(); err == nil {
		sqlDB.Close()
	}
}

func newWebhookService(cfg *config.Config) *services.WebhookService {
	webhookService := services.NewWebhookService()
	if cfg.DiscordWebhookURL != "" {
		webhookService.SetWebhookURL(cfg.DiscordWebhookURL)
		system.Info("Discord webhook configured")
	}
	return webhookService
}
