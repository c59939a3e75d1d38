package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strconv"
	"text/tabwriter"

	"golang.org/x/term"

	"github.com/Strob0t/SchoolPay/internal/adapter/postgres"
	"github.com/Strob0t/SchoolPay/internal/config"
	"github.com/Strob0t/SchoolPay/internal/domain/tenant"
	"github.com/Strob0t/SchoolPay/internal/service"
)

// runMigrate dispatches migrate subcommands (up, down, version).
func runMigrate(args []string) error {
	if len(args) == 0 || args[0] == "help" || args[0] == "--help" {
		printMigrateHelp()
		return nil
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	ctx := context.Background()

	switch args[0] {
	case "up":
		if err := postgres.RunMigrations(ctx, cfg.Postgres.DSN); err != nil {
			return err
		}
	case "down":
		steps := 1
		if len(args) > 1 {
			steps, err = strconv.Atoi(args[1])
			if err != nil || steps < 1 {
				return fmt.Errorf("steps must be a positive integer, got %q", args[1])
			}
		}
		if err := postgres.RollbackMigrations(ctx, cfg.Postgres.DSN, steps); err != nil {
			return err
		}
	case "version":
	default:
		printMigrateHelp()
		return fmt.Errorf("unknown migrate command: %s", args[0])
	}

	version, err := postgres.MigrationVersion(ctx, cfg.Postgres.DSN)
	if err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "Schema version: %d\n", version)
	return nil
}

func printMigrateHelp() {
	fmt.Fprint(os.Stderr, `Usage: schoolpay migrate <command>

Commands:
  up               Apply all pending migrations
  down [steps]     Roll back the last migration, or the last N
  version          Print the current schema version
`)
}

// runTenants dispatches tenant subcommands (list, create).
func runTenants(args []string) error {
	if len(args) == 0 || args[0] == "help" || args[0] == "--help" {
		printTenantsHelp()
		return nil
	}

	switch args[0] {
	case "list":
		return runTenantsList(args[1:])
	case "create":
		return runTenantsCreate(args[1:])
	default:
		printTenantsHelp()
		return fmt.Errorf("unknown tenants command: %s", args[0])
	}
}

func printTenantsHelp() {
	fmt.Fprint(os.Stderr, `Usage: schoolpay tenants <command> [options]

Commands:
  list             List all tenants
  create           Register a new tenant

Examples:
  schoolpay tenants create --name "Escola Azul" --slug escola-azul
  schoolpay tenants list
`)
}

func loadTenantService(ctx context.Context) (*service.TenantService, func(), error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}

	pool, err := postgres.NewPool(ctx, cfg.Postgres)
	if err != nil {
		return nil, nil, fmt.Errorf("connect to database: %w", err)
	}

	svc := service.NewTenantService(postgres.NewStore(pool), nil, 0)
	return svc, pool.Close, nil
}

func runTenantsCreate(args []string) error {
	fs := flag.NewFlagSet("create", flag.ContinueOnError)
	name := fs.String("name", "", "school display name (required)")
	slug := fs.String("slug", "", "url-safe identifier, e.g. escola-azul (required)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	req := tenant.CreateRequest{Name: *name, Slug: *slug}
	if err := req.Validate(); err != nil {
		return err
	}

	ctx := context.Background()
	svc, cleanup, err := loadTenantService(ctx)
	if err != nil {
		return err
	}
	defer cleanup()

	t, err := svc.Create(ctx, req)
	if err != nil {
		return fmt.Errorf("create tenant: %w", err)
	}

	fmt.Fprintf(os.Stderr, "Tenant created: %s (id=%s, slug=%s)\n", t.Name, t.ID, t.Slug)
	return nil
}

func runTenantsList(args []string) error {
	fs := flag.NewFlagSet("list", flag.ContinueOnError)
	if err := fs.Parse(args); err != nil {
		return err
	}

	ctx := context.Background()
	svc, cleanup, err := loadTenantService(ctx)
	if err != nil {
		return err
	}
	defer cleanup()

	tenants, err := svc.List(ctx)
	if err != nil {
		return fmt.Errorf("list tenants: %w", err)
	}

	// Piped output is one JSON object per line.
	if !term.IsTerminal(int(os.Stdout.Fd())) { //nolint:gosec // fd fits in int
		enc := json.NewEncoder(os.Stdout)
		for i := range tenants {
			if err := enc.Encode(tenants[i]); err != nil {
				return err
			}
		}
		return nil
	}

	if len(tenants) == 0 {
		fmt.Println("No tenants found.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "ID\tSLUG\tNAME\tENABLED\tCREATED")
	for i := range tenants {
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%t\t%s\n",
			tenants[i].ID, tenants[i].Slug, tenants[i].Name, tenants[i].Enabled,
			tenants[i].CreatedAt.Format("2006-01-02"))
	}
	return w.Flush()
}
