package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/castlek/chessledger/internal/archive"
	appcfg "github.com/castlek/chessledger/internal/config"
	"github.com/castlek/chessledger/internal/httpapi"
	"github.com/castlek/chessledger/internal/ledger"
	"github.com/castlek/chessledger/internal/obslog"
	"github.com/castlek/chessledger/internal/rules"
	"github.com/castlek/chessledger/internal/session"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("no .env file, using environment")
	}

	cfg, err := appcfg.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}
	if err := obslog.InitFromEnv(); err != nil {
		log.Fatalf("logger init error: %v", err)
	}

	led, err := openLedger(cfg)
	if err != nil {
		log.Fatalf("ledger init error: %v", err)
	}

	svc := session.NewService(led, rules.New())

	var arch *archive.Repository
	if cfg.DatabaseURL != "" {
		arch, err = archive.NewRepository(cfg.DatabaseURL)
		if err != nil {
			log.Fatalf("archive init error: %v", err)
		}
		svc.AttachArchiver(arch)
	}

	srv := &fasthttp.Server{
		Handler:      httpapi.NewServer(svc).Handler(),
		Name:         "chessledger",
		ReadTimeout:  time.Duration(cfg.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.WriteTimeoutSec) * time.Second,
	}

	go func() {
		obslog.L().Info("listening",
			zap.String("addr", cfg.ListenAddr),
			zap.String("ledger_backend", cfg.LedgerBackend),
			zap.Bool("archive", arch != nil),
		)
		if err := srv.ListenAndServe(cfg.ListenAddr); err != nil {
			obslog.L().Fatal("server error", zap.Error(err))
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	_ = srv.Shutdown()
	_ = led.Close()
	if arch != nil {
		_ = arch.Close()
	}
	obslog.L().Info("shutdown complete")
}

func openLedger(cfg *appcfg.AppConfig) (ledger.Ledger, error) {
	switch cfg.LedgerBackend {
	case appcfg.BackendRedis:
		return ledger.NewRedis(cfg.RedisURL)
	case appcfg.BackendSQLite:
		return ledger.NewSQLite(cfg.SQLitePath)
	default:
		return ledger.NewMemory(), nil
	}
}
