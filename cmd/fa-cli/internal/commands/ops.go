package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"foreclosure-assist/internal/followup"
	"foreclosure-assist/internal/integration/mailerlite"
	"foreclosure-assist/internal/property"
	"foreclosure-assist/internal/repository"
	"foreclosure-assist/internal/service"
	"foreclosure-assist/migrations"
	"foreclosure-assist/pkg/config"
	"foreclosure-assist/pkg/db"
	"foreclosure-assist/pkg/logger"
	"foreclosure-assist/pkg/rbac"
	redisclient "foreclosure-assist/pkg/redis"
	"foreclosure-assist/pkg/util"
)

// env 是需要连接外部依赖的子命令共用的资源
type env struct {
	cfg    *config.AppConfig
	log    *zap.Logger
	db     *pgxpool.Pool
	closer []func()
}

func (e *env) Close() {
	for i := len(e.closer) - 1; i >= 0; i-- {
		e.closer[i]()
	}
	_ = e.log.Sync()
}

func openEnv(withDB bool) (*env, error) {
	cfg, err := config.LoadApp(config.GetConfigEnv(), config.GetEnv("CONFIG_DIR", "config"))
	if err != nil {
		return nil, err
	}
	e := &env{cfg: cfg, log: logger.NewFromConfig(cfg.Log, "fa-cli")}
	if withDB {
		pool, err := db.NewConnection(cfg.DB, e.log)
		if err != nil {
			return nil, fmt.Errorf("connect db: %w", err)
		}
		e.db = pool
		e.closer = append(e.closer, pool.Close)
	}
	return e, nil
}

func newMigrateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending SQL migrations",
		RunE: func(cmd *cobra.Command, _ []string) error {
			e, err := openEnv(true)
			if err != nil {
				return err
			}
			defer e.Close()

			version, changed, err := migrations.Apply(cmd.Context(), e.db, e.log)
			if err != nil {
				return err
			}
			if !changed {
				fmt.Fprintf(cmd.OutOrStdout(), "schema already at version %d\n", version)
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "migrated to version %d\n", version)
			return nil
		},
	}
}

func newFollowupCommand() *cobra.Command {
	var at string
	run := &cobra.Command{
		Use:   "run",
		Short: "Run the follow-up email job once",
		RunE: func(cmd *cobra.Command, _ []string) error {
			now := time.Now()
			if at != "" {
				t, err := time.Parse(time.DateOnly, at)
				if err != nil {
					return fmt.Errorf("invalid --at, want YYYY-MM-DD: %w", err)
				}
				now = t
			}

			e, err := openEnv(true)
			if err != nil {
				return err
			}
			defer e.Close()

			rdb := redisclient.Connect(cmd.Context(), e.cfg.Redis, e.log)
			if rdb != nil {
				e.closer = append(e.closer, func() { _ = rdb.Close() })
			}
			svc := followup.NewService(
				repository.NewResponseRepository(e.db, nil, e.log),
				mailerlite.NewClient(e.cfg.Vendors.MailerLite, e.log),
				util.NewDeduper(redisclient.Cmdable(rdb), time.Duration(e.cfg.Followup.DedupTTLHours)*time.Hour, e.log),
				e.cfg.Followup,
				e.log,
			)

			res, runErr := svc.Run(cmd.Context(), now)
			if err := printJSON(cmd.OutOrStdout(), res); err != nil {
				return err
			}
			return runErr
		},
	}
	run.Flags().StringVar(&at, "at", "", "pretend today is this UTC date (YYYY-MM-DD)")

	cmd := &cobra.Command{Use: "followup", Short: "Follow-up email job"}
	cmd.AddCommand(run)
	return cmd
}

func newUserCommand() *cobra.Command {
	var email, password, role string
	create := &cobra.Command{
		Use:   "create",
		Short: "Create a user (admins can only be created here)",
		RunE: func(cmd *cobra.Command, _ []string) error {
			e, err := openEnv(true)
			if err != nil {
				return err
			}
			defer e.Close()

			auth := service.NewAuthService(repository.NewUserRepository(e.db), e.cfg.JWT.Secret)
			u, err := auth.CreateUser(cmd.Context(), email, password, role)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), u)
		},
	}
	create.Flags().StringVar(&email, "email", "", "login email")
	create.Flags().StringVar(&password, "password", "", "password (min 8 characters)")
	create.Flags().StringVar(&role, "role", rbac.RoleAdmin, "user or admin")
	_ = create.MarkFlagRequired("email")
	_ = create.MarkFlagRequired("password")

	cmd := &cobra.Command{Use: "user", Short: "Manage users"}
	cmd.AddCommand(create)
	return cmd
}

func newPropertyCommand() *cobra.Command {
	var timeout time.Duration
	report := &cobra.Command{
		Use:   "report <address>",
		Short: "Build a property report from the public data sources",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := openEnv(false)
			if err != nil {
				return err
			}
			defer e.Close()

			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()

			agg := property.NewAggregatorFromConfig(e.cfg.Vendors, nil, e.log)
			r, err := agg.Aggregate(ctx, args[0])
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), r)
		},
	}
	report.Flags().DurationVar(&timeout, "timeout", 30*time.Second, "overall timeout")

	cmd := &cobra.Command{Use: "property", Short: "Property data"}
	cmd.AddCommand(report)
	return cmd
}
