package main

import (
	"context"
	"crypto/rand"
	"database/sql"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"math/big"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/mkoblar/inventar/internal/api"
	"github.com/mkoblar/inventar/internal/db"
	"github.com/mkoblar/inventar/internal/model"
	"github.com/mkoblar/inventar/internal/store"
)

func main() {
	dbPath := flag.String("db", "inventar.sqlite3", "path to SQLite database file")
	addr := flag.String("addr", ":8080", "listen address")
	logPath := flag.String("log", "", "log file path (default: stdout only)")
	flag.Parse()

	closeLog, err := setupLogger(*logPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	if closeLog != nil {
		defer closeLog()
	}

	firstRun := false
	if _, err := os.Stat(*dbPath); os.IsNotExist(err) {
		firstRun = true
	}

	database, err := db.Open(*dbPath)
	if err != nil {
		slog.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer database.Close()

	if err := db.Migrate(database); err != nil {
		slog.Error("failed to migrate database", "error", err)
		os.Exit(1)
	}
	slog.Info("database ready", "path", *dbPath)

	if firstRun {
		if err := bootstrapStorekeeper(database); err != nil {
			slog.Error("failed to create storekeeper account", "error", err)
			os.Remove(*dbPath)
			os.Exit(1)
		}
	}

	// Signing secrets are generated on first run and persisted.
	accessSecret, refreshSecret, err := store.GetAuthSecrets(context.Background(), database)
	if err != nil {
		slog.Error("failed to load signing secrets", "error", err)
		os.Exit(1)
	}

	handler := api.LoggingMiddleware(api.NewRouter(database, accessSecret, refreshSecret))

	server := &http.Server{
		Addr:              *addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	// Graceful shutdown on SIGINT/SIGTERM.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-quit
		slog.Info("shutdown signal received", "signal", sig.String())

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := server.Shutdown(ctx); err != nil {
			slog.Error("server forced to shutdown", "error", err)
		}
	}()

	slog.Info("server started", "addr", *addr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}

	slog.Info("server stopped, closing database")
}

// setupLogger configures structured logging to stdout, optionally duplicated
// to a log file. Returns a cleanup function that closes the file (if opened).
func setupLogger(logPath string) (func(), error) {
	out := io.Writer(os.Stdout)

	var cleanup func()
	if logPath != "" {
		f, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return nil, fmt.Errorf("opening log file: %w", err)
		}
		cleanup = func() { f.Close() }
		out = io.MultiWriter(os.Stdout, f)
	}

	handler := slog.NewTextHandler(out, &slog.HandlerOptions{Level: slog.LevelInfo})
	slog.SetDefault(slog.New(handler))
	return cleanup, nil
}

// bootstrapStorekeeper creates the initial storekeeper account with a random
// password, printed once. Registration only ever creates employee accounts.
func bootstrapStorekeeper(database *sql.DB) error {
	password, err := generatePassword(16)
	if err != nil {
		return fmt.Errorf("generating password: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hashing password: %w", err)
	}

	const email = "storekeeper@localhost"
	user, err := store.CreateUser(context.Background(), database,
		"Store", "Keeper", email, string(hash), model.RoleStorekeeper)
	if err != nil {
		return fmt.Errorf("creating storekeeper: %w", err)
	}

	fmt.Println("Storekeeper account created:")
	fmt.Printf("  Email:    %s\n", user.Email)
	fmt.Printf("  Password: %s\n", password)
	fmt.Println()
	fmt.Println("Save this password, it cannot be recovered.")
	fmt.Println()
	return nil
}

// generatePassword creates a random password of the given length.
func generatePassword(length int) (string, error) {
	const charset = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789!@#$%&*"
	result := make([]byte, length)
	for i := range result {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(len(charset))))
		if err != nil {
			return "", err
		}
		result[i] = charset[n.Int64()]
	}
	return string(result), nil
}
