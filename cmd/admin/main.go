package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	_ "go.uber.org/automaxprocs"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"go-sales-tracker/internal/bootstrap"
	"go-sales-tracker/internal/core/config"
	"go-sales-tracker/internal/core/logger"
	"go-sales-tracker/internal/domain"
	"go-sales-tracker/internal/repo"
	"go-sales-tracker/internal/service"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}
	_ = godotenv.Load()
	cfg, err := config.Load(os.Getenv("CONFIG_PATH"))
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(1)
	}
	log, cleanup := logger.New(logger.Options{Level: cfg.Log.Level, JSON: cfg.Log.JSON, Service: "sales-admin"})
	defer cleanup()

	command, args := os.Args[1], os.Args[2:]
	switch command {
	case "migrate":
		err = runMigrate(cfg, log)
	case "seed":
		err = runSeed(cfg, log)
	case "create-user":
		err = runCreateUser(cfg, log, args)
	case "help":
		printUsage()
		return
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
	if err != nil {
		log.Error(command+" failed", zap.Error(err))
		cleanup()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`Usage: admin <command> [flags]

Commands:
  migrate       create or update the users and sales tables
  seed          create the initial administrator if it does not exist
  create-user   -name <name> -email <email> -password <password> -role <Administrador|Asesor>
  help          show this message`)
}

func openDB(cfg *config.Config, log *zap.Logger) (*gorm.DB, error) {
	db, err := bootstrap.OpenDB(context.Background(), cfg, log)
	if err != nil {
		return nil, err
	}
	log.Info("database connected", zap.String("driver", cfg.DB.Driver))
	return db, nil
}

func runMigrate(cfg *config.Config, log *zap.Logger) error {
	db, err := openDB(cfg, log)
	if err != nil {
		return err
	}
	return bootstrap.Migrate(db, log)
}

func runSeed(cfg *config.Config, log *zap.Logger) error {
	db, err := openDB(cfg, log)
	if err != nil {
		return err
	}
	created, err := bootstrap.SeedAdmin(context.Background(), repo.NewUserRepo(db), cfg.Seed, log)
	if err != nil {
		return err
	}
	if !created {
		fmt.Println("admin already exists:", cfg.Seed.AdminEmail)
	}
	return nil
}

func runCreateUser(cfg *config.Config, log *zap.Logger, args []string) error {
	fs := flag.NewFlagSet("create-user", flag.ContinueOnError)
	name := fs.String("name", "", "display name")
	email := fs.String("email", "", "login email")
	password := fs.String("password", "", "initial password (6-20 chars)")
	role := fs.String("role", string(domain.RoleAdvisor), "Administrador or Asesor")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *name == "" || *email == "" || len(*password) < 6 || len(*password) > 20 {
		fs.Usage()
		return fmt.Errorf("name, email and a 6-20 character password are required")
	}

	db, err := openDB(cfg, log)
	if err != nil {
		return err
	}
	u, err := service.NewUserService(repo.NewUserRepo(db)).Create(context.Background(), domain.NewUser{
		Name:     *name,
		Email:    *email,
		Password: *password,
		Role:     *role,
	})
	if err != nil {
		return err
	}
	fmt.Printf("created user %d <%s> role=%s\n", u.ID, u.Email, u.Role)
	return nil
}
