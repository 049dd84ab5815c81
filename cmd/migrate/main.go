package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"path/filepath"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"

	"geoattend/internal/config"
	"geoattend/internal/settings"
	"geoattend/internal/store"
	"geoattend/internal/user"
)

func main() {
	var (
		envFile       = flag.String("env", ".env", "path to a dotenv file")
		migrationsDir = flag.String("dir", "", "directory containing migration files (defaults to MIGRATIONS_DIR)")
		seedFile      = flag.String("seed", "", "seed yaml for the seed action (defaults to SEED_FILE)")
	)
	flag.Parse()

	action := "up"
	if flag.NArg() > 0 {
		action = flag.Arg(0)
	}

	if err := config.LoadDotEnv(*envFile); err != nil {
		log.Fatalf("load env: %v", err)
	}
	cfg := config.Load()
	if *migrationsDir == "" {
		*migrationsDir = cfg.MigrationsDir
	}
	if *seedFile == "" {
		*seedFile = cfg.SeedFile
	}

	var err error
	if action == "seed" {
		err = runSeed(context.Background(), cfg.Database, *seedFile)
	} else {
		err = runMigration(action, *migrationsDir, cfg.Database.URL)
	}
	if err != nil {
		log.Fatalf("migration %s failed: %v", action, err)
	}

	log.Printf("migration %s completed", action)
}

func runMigration(action, dir, dsn string) error {
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return fmt.Errorf("resolve path for %s: %w", dir, err)
	}
	absDir = filepath.ToSlash(absDir)

	m, err := migrate.New(fmt.Sprintf("file://%s", absDir), dsn)
	if err != nil {
		return fmt.Errorf("create migrate instance: %w", err)
	}
	defer m.Close()

	switch action {
	case "up":
		if err := m.Up(); err != nil && err != migrate.ErrNoChange {
			return err
		}
		return nil
	case "down":
		if err := m.Down(); err != nil && err != migrate.ErrNoChange {
			return err
		}
		return nil
	case "drop":
		return m.Drop()
	case "version":
		version, dirty, err := m.Version()
		if err != nil {
			if err == migrate.ErrNilVersion {
				log.Printf("no migration applied")
				return nil
			}
			return err
		}
		log.Printf("version=%d dirty=%t", version, dirty)
		return nil
	default:
		return fmt.Errorf("unsupported action %q", action)
	}
}

// runSeed writes the office, schedule and admin account from the seed file.
func runSeed(ctx context.Context, dbCfg config.Database, path string) error {
	seed, err := config.LoadSeed(path)
	if err != nil {
		return err
	}
	sched, err := seed.AttendanceSchedule()
	if err != nil {
		return err
	}

	pool, err := store.NewPool(ctx, dbCfg)
	if err != nil {
		return err
	}
	defer pool.Close()

	settingsSvc := settings.NewService(settings.NewRepository(pool))
	users := user.NewService(user.NewRepository(pool))

	return store.NewTransactionManager(pool).WithinReadWrite(ctx, func(ctx context.Context) error {
		if _, err := settingsSvc.UpdateOffice(ctx, seed.Geofence()); err != nil {
			return fmt.Errorf("seed office: %w", err)
		}
		if _, err := settingsSvc.UpdateSchedule(ctx, sched); err != nil {
			return fmt.Errorf("seed schedule: %w", err)
		}
		if seed.Admin.Email == "" {
			return nil
		}
		admin, err := users.EnsureUser(ctx, user.CreateInput{
			Email:    seed.Admin.Email,
			Name:     seed.Admin.Name,
			Password: seed.Admin.Password,
			Role:     user.RoleAdmin,
		})
		if err != nil {
			return fmt.Errorf("seed admin: %w", err)
		}
		log.Printf("admin account %s ready", admin.Email)
		return nil
	})
}
