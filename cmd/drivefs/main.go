package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/nexushq/drivefs/internal/logger"
	"github.com/nexushq/drivefs/pkg/authz"
	"github.com/nexushq/drivefs/pkg/config"
	"github.com/nexushq/drivefs/pkg/metadata"
	"github.com/nexushq/drivefs/pkg/tree"
)

func main() {
	configPath := flag.String("config", "", "Path to config file (default: "+config.GetDefaultConfigPath()+")")
	initConfig := flag.Bool("init", false, "Write a starter config file and exit")
	logLevel := flag.String("log-level", "", "Override the configured log level (DEBUG, INFO, WARN, ERROR)")
	bootstrapOrg := flag.String("bootstrap-org", "", "Create an organization with this name at startup if it does not exist")
	flag.Parse()

	if *initConfig {
		if err := writeStarterConfig(*configPath); err != nil {
			log.Fatalf("Failed to write config: %v", err)
		}
		return
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	if *logLevel != "" {
		cfg.Logging.Level = *logLevel
	}
	logger.SetLevel(cfg.Logging.Level)
	logger.SetFormat(cfg.Logging.Format)
	if err := logger.SetOutput(cfg.Logging.Output); err != nil {
		log.Fatalf("Failed to configure log output: %v", err)
	}

	fmt.Println("drivefs - organization file tree server")
	logger.Info("Log level set to: %s", cfg.Logging.Level)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	metaStore, err := config.CreateMetadataStore(ctx, &cfg.Metadata)
	if err != nil {
		log.Fatalf("Failed to create metadata store: %v", err)
	}
	defer closeStore("metadata", metaStore)

	blobStore, err := config.CreateBlobStore(ctx, &cfg.Blob)
	if err != nil {
		log.Fatalf("Failed to create blob store: %v", err)
	}

	admins := make([]metadata.UserID, 0, len(cfg.Authz.Admins))
	for _, admin := range cfg.Authz.Admins {
		admins = append(admins, metadata.UserID(admin))
	}
	gate := authz.NewGate(authz.NewStoreAuthorizer(metaStore, admins))

	service := tree.NewService(metaStore, blobStore, gate)

	if *bootstrapOrg != "" {
		if err := bootstrap(ctx, service, admins, *bootstrapOrg); err != nil {
			log.Fatalf("Failed to bootstrap organization: %v", err)
		}
	}

	logger.Info("Stores ready: metadata=%s blob=%s, %d admin(s) configured",
		cfg.Metadata.Type, cfg.Blob.Type, len(cfg.Authz.Admins))

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	logger.Info("Server is running. Press Ctrl+C to stop.")
	sig := <-sigChan

	logger.Info("Received %s, shutting down (timeout %s)...", sig, cfg.Server.ShutdownTimeout)
	cancel()

	// The deferred store closes run on return; force exit if one hangs.
	timer := time.AfterFunc(cfg.Server.ShutdownTimeout, func() {
		logger.Error("Shutdown timeout reached, forcing exit")
		os.Exit(1)
	})
	defer timer.Stop()
}

// bootstrap creates the named organization on first boot. A name
// collision means a previous boot already created it.
func bootstrap(ctx context.Context, service *tree.Service, admins []metadata.UserID, name string) error {
	if len(admins) == 0 {
		return fmt.Errorf("bootstrap requires at least one admin in authz.admins")
	}

	org, err := service.CreateOrganization(ctx, admins[0], name, nil)
	if err != nil {
		if metadata.IsConflict(err) {
			logger.Info("Organization %q already exists, skipping bootstrap", name)
			return nil
		}
		return err
	}

	logger.Info("Bootstrapped organization %q (id %s)", name, org.ID)
	return nil
}

func closeStore(name string, store metadata.Store) {
	if err := store.Close(); err != nil {
		logger.Error("Failed to close %s store: %v", name, err)
	}
}

// writeStarterConfig writes a fully defaulted config file so a new
// deployment starts from a complete, commented-out-by-example file
// rather than an empty one.
func writeStarterConfig(path string) error {
	if path == "" {
		path = config.GetDefaultConfigPath()
	}

	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(starterConfig())
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	fmt.Printf("Wrote starter config to %s\n", path)
	return nil
}

// starterConfig builds the YAML document for --init. A plain map keeps
// the emitted file free of zero-value noise from unset sections.
func starterConfig() map[string]any {
	cfg := config.GetDefaultConfig()

	return map[string]any{
		"logging": map[string]any{
			"level":  cfg.Logging.Level,
			"format": cfg.Logging.Format,
			"output": cfg.Logging.Output,
		},
		"server": map[string]any{
			"shutdown_timeout": cfg.Server.ShutdownTimeout.String(),
		},
		"metadata": map[string]any{
			"type": cfg.Metadata.Type,
			"badger": map[string]any{
				"db_path": cfg.Metadata.Badger["db_path"],
			},
		},
		"blob": map[string]any{
			"type": cfg.Blob.Type,
			"s3": map[string]any{
				"bucket":     "",
				"region":     "",
				"key_prefix": "",
				"endpoint":   "",
			},
		},
		"authz": map[string]any{
			"admins": []string{},
		},
	}
}
