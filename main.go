package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/cppla/liveplus/config"
	"github.com/cppla/liveplus/jobs"
	"github.com/cppla/liveplus/routes"
	"github.com/cppla/liveplus/store"
	"github.com/cppla/liveplus/utils"
)

func main() {
	hashCode := flag.String("hash-access-code", "", "print the bcrypt hash for admin.access_code_hash and exit")
	flag.Parse()
	if *hashCode != "" {
		hash, err := utils.HashAccessCode(*hashCode)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		fmt.Println(hash)
		return
	}

	cfg := config.Load()

	// Initialize logger early
	if err := utils.InitLogger(cfg); err != nil {
		panic(err)
	}
	defer func() { _ = utils.Logger.Sync() }()

	kv, err := config.OpenStorage(cfg)
	if err != nil {
		utils.Sugar.Fatalf("open %s storage: %v", cfg.StorageDriver, err)
	}

	st := store.New(kv,
		store.WithKey(cfg.StorageKey),
		store.WithLogger(utils.Named("store")),
		store.WithPersistTimeout(time.Duration(cfg.PersistTimeoutSec)*time.Second),
	)
	st.Subscribe(store.AuditLogger(utils.Named("audit")))
	if err := st.Load(context.Background()); err != nil {
		utils.Logger.Warn("post collection unavailable, running degraded without writes",
			zap.String("driver", cfg.StorageDriver), zap.String("key", cfg.StorageKey), zap.Error(err))
	}

	c := cron.New()
	if cfg.BackupEnabled {
		dst, err := config.OpenBackupStorage(cfg)
		if err != nil {
			utils.Sugar.Fatalf("open %s backup storage: %v", cfg.BackupDriver, err)
		}
		defer dst.Close()
		backup := jobs.NewBackupJob(st, dst, cfg.BackupPrefix, utils.Named("backup"))
		if _, err := backup.Schedule(c, cfg.BackupSchedule); err != nil {
			utils.Sugar.Fatalf("%v", err)
		}
		c.Start()
		utils.Sugar.Infof("snapshot backups scheduled %q to %s", cfg.BackupSchedule, cfg.BackupDriver)
	}

	r := routes.SetupRouter(cfg, st)

	utils.Sugar.Infof("Starting server on port %s (graceful)", cfg.AppPort)
	err = utils.GraceServer(":"+cfg.AppPort, r,
		func() { <-c.Stop().Done() },
		func() {
			if err := kv.Close(); err != nil {
				utils.Sugar.Warnf("close storage: %v", err)
			}
		},
	)
	if err != nil {
		utils.Sugar.Fatalf("server stopped with error: %v", err)
	}
}
