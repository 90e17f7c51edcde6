package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/yourorg/propertyhub/internal/domain"
	"github.com/yourorg/propertyhub/internal/infrastructure/logger"
	"github.com/yourorg/propertyhub/internal/repository"
	"github.com/yourorg/propertyhub/internal/security"
	"github.com/yourorg/propertyhub/internal/security/auth"
	"github.com/yourorg/propertyhub/internal/service"
	"github.com/yourorg/propertyhub/pkg/config"
	"github.com/yourorg/propertyhub/pkg/database"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rootCmd := &cobra.Command{
		Use:          "propertyctl",
		Short:        "Administrative tool for the propertyhub database",
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().String("log-level", "warn", "log level (debug, info, warn, error)")

	rootCmd.AddCommand(migrateCmd(), occupancyCmd(), profileCmd())

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// env is what every subcommand needs: config, logger and an open database
type env struct {
	cfg  *config.Config
	log  *slog.Logger
	pool *database.ConnectionPool
}

func openEnv(cmd *cobra.Command) (*env, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if cfg.StorageDriver != config.DriverPostgres {
		return nil, fmt.Errorf("propertyctl needs STORAGE_DRIVER=postgres, got %q", cfg.StorageDriver)
	}
	level, _ := cmd.Flags().GetString("log-level")
	log := logger.NewLogger(level)

	ctx, cancel := context.WithTimeout(cmd.Context(), 15*time.Second)
	defer cancel()
	pool, err := database.NewConnectionPool(ctx, &database.Config{
		URL:             cfg.DatabaseURL,
		MaxOpenConns:    2,
		MaxIdleConns:    1,
		ConnMaxLifetime: time.Minute,
	}, log)
	if err != nil {
		return nil, err
	}
	return &env{cfg: cfg, log: log, pool: pool}, nil
}

func (e *env) repositories() service.Repositories {
	db := e.pool.GetDB()
	tenants := repository.NewPostgresTenantRepository(db, e.log)
	return service.Repositories{
		Profiles:   repository.NewPostgresProfileRepository(db, e.log),
		Properties: repository.NewPostgresPropertyRepository(db, e.log),
		Rooms:      repository.NewPostgresRoomRepository(db, e.log),
		Tenants:    tenants,
		Occupancy:  tenants,
		Tickets:    repository.NewPostgresTicketRepository(db, e.log),
	}
}

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply the database schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := openEnv(cmd)
			if err != nil {
				return err
			}
			defer e.pool.Close()

			if err := database.Migrate(cmd.Context(), e.pool.GetDB()); err != nil {
				return err
			}
			fmt.Println("✓ Schema applied")
			return nil
		},
	}
}

func occupancyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "occupancy",
		Short: "Compare room occupancy flags with active tenants",
	}

	check := &cobra.Command{
		Use:   "check",
		Short: "Report rooms whose occupied flag disagrees with their tenants",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := openEnv(cmd)
			if err != nil {
				return err
			}
			defer e.pool.Close()

			occupancy := service.NewOccupancyService(e.repositories(), nil, security.NewAuthorizer(e.log), e.log)
			drift, err := occupancy.VerifyOccupancy(cmd.Context())
			if err != nil {
				return err
			}
			if len(drift) == 0 {
				fmt.Println("✓ All rooms consistent")
				return nil
			}
			printDrift(drift)
			return fmt.Errorf("%d room(s) drifting; run 'propertyctl occupancy fix'", len(drift))
		},
	}

	fix := &cobra.Command{
		Use:   "fix",
		Short: "Rewrite drifting occupied flags to match active tenants",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := openEnv(cmd)
			if err != nil {
				return err
			}
			defer e.pool.Close()

			occupancy := service.NewOccupancyService(e.repositories(), nil, security.NewAuthorizer(e.log), e.log)
			fixed, err := occupancy.ReconcileOccupancy(cmd.Context())
			if len(fixed) > 0 {
				printDrift(fixed)
			}
			if err != nil {
				return err
			}
			fmt.Printf("✓ Repaired %d room(s)\n", len(fixed))
			return nil
		},
	}

	cmd.AddCommand(check, fix)
	return cmd
}

func printDrift(drift []service.OccupancyDrift) {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ROOM ID\tROOM\tOCCUPIED\tACTIVE TENANTS")
	for _, d := range drift {
		fmt.Fprintf(w, "%s\t%s\t%t\t%d\n", d.RoomID, d.RoomNumber, d.IsOccupied, d.ActiveTenants)
	}
	w.Flush()
}

func profileCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "profile",
		Short: "Manage sign-in profiles",
	}

	var req domain.CreateProfileRequest
	var role string
	create := &cobra.Command{
		Use:   "create",
		Short: "Provision a profile, e.g. the first admin",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := openEnv(cmd)
			if err != nil {
				return err
			}
			defer e.pool.Close()

			if req.Password == "" {
				req.Password = os.Getenv("PROPERTYCTL_PASSWORD")
			}
			req.Role = domain.Role(role)

			authz := security.NewAuthorizer(e.log)
			tokens := auth.NewTokenManager(e.cfg.JWTSecret, "propertyhub")
			authService := service.NewAuthService(e.repositories().Profiles, tokens, e.cfg.TokenTTL, authz, e.log)
			profile, err := authService.ProvisionProfile(cmd.Context(), req)
			if err != nil {
				return err
			}
			fmt.Printf("✓ Profile created: %s (%s, %s)\n", profile.Email, profile.Role, profile.ID)
			return nil
		},
	}
	create.Flags().StringVar(&req.Email, "email", "", "profile email")
	create.Flags().StringVar(&req.FullName, "name", "", "full name")
	create.Flags().StringVar(&role, "role", string(domain.RoleAdmin), "admin, tenant or public_authority")
	create.Flags().StringVar(&req.Password, "password", "", "password (defaults to $PROPERTYCTL_PASSWORD)")
	_ = create.MarkFlagRequired("email")
	_ = create.MarkFlagRequired("name")

	cmd.AddCommand(create)
	return cmd
}
