package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/dennidalpos/OnlyUserActivity-sub000/internal/app"
	"github.com/dennidalpos/OnlyUserActivity-sub000/internal/config"
	"github.com/dennidalpos/OnlyUserActivity-sub000/internal/db"
	"github.com/dennidalpos/OnlyUserActivity-sub000/internal/engine"
	"github.com/dennidalpos/OnlyUserActivity-sub000/internal/migrate"
	"github.com/dennidalpos/OnlyUserActivity-sub000/internal/repo"
	"github.com/dennidalpos/OnlyUserActivity-sub000/internal/server"
)

var rootCmd = &cobra.Command{
	Use:   "oua",
	Short: "OnlyUserActivity CLI",
	Long: `OnlyUserActivity records daily work activities in 15 minute steps and
tracks how each day compares with the required hours.
- Workspace: the .oua directory holding the SQLite database; settings.yml next to it seeds the settings on first use.
- Activities: time windows on a date, never overlapping, optionally contiguous (strict continuity).
- Calendar: month grid with holidays, required days per shift, and a status per day (OK, Incompleto, Non inserito).
- Monitor: one row per user for a date, for admins.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		workspace := viper.GetString("workspace")
		if _, err := db.EnsureWorkspace(workspace); err != nil {
			return err
		}
		return nil
	},
}

func main() {
	cobra.OnInitialize(initConfig)
	addPersistentFlags()
	registerCommands()
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Println("error:", err)
		stop()
		os.Exit(1)
	}
}

func initConfig() {
	viper.SetEnvPrefix("OUA")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
	envFile := filepath.Join(viper.GetString("workspace"), ".env")
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Printf("WARNING: could not load %s: %v", envFile, err)
	}
}

func addPersistentFlags() {
	rootCmd.PersistentFlags().StringP("workspace", "w", ".", "workspace directory")
	rootCmd.PersistentFlags().Bool("json", false, "output JSON")
	rootCmd.PersistentFlags().StringP("user", "u", "", "user key the command acts as")
	_ = viper.BindPFlag("workspace", rootCmd.PersistentFlags().Lookup("workspace"))
	_ = viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))
	_ = viper.BindPFlag("user", rootCmd.PersistentFlags().Lookup("user"))
}

func registerCommands() {
	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(settingsCmd())
	rootCmd.AddCommand(userCmd())
	rootCmd.AddCommand(apiKeyCmd())
	rootCmd.AddCommand(activityCmd())
	rootCmd.AddCommand(calendarCmd())
	rootCmd.AddCommand(monitorCmd())
}

func serveCmd() *cobra.Command {
	var addr, basePath string
	var legacyHeader, requestLog bool
	var tokenTTL time.Duration
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start HTTP API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			secret := viper.GetString("jwt-secret")
			if secret == "" {
				return fmt.Errorf("OUA_JWT_SECRET is required for bearer auth")
			}
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				logger := log.Default()
				authCfg := server.AuthConfig{
					JWTSecret:             secret,
					TokenTTL:              tokenTTL,
					AllowLegacyUserHeader: legacyHeader,
					Logger:                logger,
				}
				handler, err := server.New(server.Config{Engine: e, BasePath: basePath, Auth: authCfg, RequestLog: requestLog})
				if err != nil {
					return err
				}
				server.StartWebhookDispatcher(ctx, e, logger)
				srv := &http.Server{Addr: addr, Handler: handler, ReadHeaderTimeout: 10 * time.Second}
				go func() {
					<-ctx.Done()
					shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
					defer cancel()
					srv.Shutdown(shutdownCtx)
				}()
				fmt.Printf("Serving OnlyUserActivity API on http://%s%s (OpenAPI at %s/openapi.json, Swagger UI at /docs, metrics at /metrics)\n", addr, basePath, basePath)
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					return err
				}
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "127.0.0.1:8080", "listen address")
	cmd.Flags().StringVar(&basePath, "base-path", "/api", "API base path")
	cmd.Flags().BoolVar(&legacyHeader, "allow-legacy-user-header", false, "accept X-User-Key without credentials (development only)")
	cmd.Flags().BoolVar(&requestLog, "request-log", true, "log every HTTP request")
	cmd.Flags().DurationVar(&tokenTTL, "token-ttl", 12*time.Hour, "lifetime of issued bearer tokens")
	return cmd
}

func settingsCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "settings", Short: "Show, import or export settings"}
	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show the settings in effect",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				cfg, err := e.Settings(ctx)
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(cfg)
				}
				raw, err := cfg.ToYAML()
				if err != nil {
					return err
				}
				fmt.Print(string(raw))
				return nil
			})
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "import <file>",
		Short: "Validate a settings file and store it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.FromFile(args[0])
			if err != nil {
				return fmt.Errorf("read %s: %w", args[0], err)
			}
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				if _, err := e.UpdateSettings(ctx, cfg, actorID()); err != nil {
					return err
				}
				fmt.Printf("Imported settings from %s\n", args[0])
				return nil
			})
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "export [file]",
		Short: "Write the stored settings as YAML (stdout when no file is given)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				cfg, err := e.Settings(ctx)
				if err != nil {
					return err
				}
				raw, err := cfg.ToYAML()
				if err != nil {
					return err
				}
				if len(args) == 0 {
					fmt.Print(string(raw))
					return nil
				}
				return os.WriteFile(args[0], raw, 0o644)
			})
		},
	})
	return cmd
}

func userCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "user", Short: "Manage users"}
	var in engine.CreateUserInput
	create := &cobra.Command{
		Use:   "create <key>",
		Short: "Create a user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			in.Key = args[0]
			in.ActorID = actorID()
			if in.Password == "" {
				in.Password = os.Getenv("OUA_NEW_USER_PASSWORD")
			}
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				u, err := e.CreateUser(ctx, in)
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(u)
				}
				fmt.Printf("Created %s user %s\n", u.Role, u.Key)
				return nil
			})
		},
	}
	create.Flags().StringVar(&in.DisplayName, "name", "", "display name")
	create.Flags().StringVar(&in.Role, "role", "user", "role (user|admin)")
	create.Flags().StringVar(&in.ShiftTypeID, "shift", "", "shift type id (defaults to the settings default)")
	create.Flags().StringVar(&in.Password, "password", "", "login password (or OUA_NEW_USER_PASSWORD)")
	cmd.AddCommand(create)
	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List users",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				users, err := e.ListUsers(ctx)
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(users)
				}
				tw := table.NewWriter()
				tw.SetOutputMirror(os.Stdout)
				tw.AppendHeader(table.Row{"Key", "Name", "Role", "Shift", "Created"})
				for _, u := range users {
					tw.AppendRow(table.Row{u.Key, u.DisplayName, u.Role, u.ShiftTypeID, u.CreatedAt})
				}
				tw.Render()
				return nil
			})
		},
	})
	return cmd
}

func apiKeyCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "apikey", Short: "Manage API keys"}
	var name string
	create := &cobra.Command{
		Use:   "create <userKey>",
		Short: "Issue an API key; the plaintext is shown once",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				key, plain, err := e.CreateAPIKey(ctx, args[0], name, actorID())
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(map[string]string{"id": key.ID, "userKey": key.UserKey, "name": key.Name, "key": plain})
				}
				fmt.Printf("API key %s for %s: %s\n", key.ID, key.UserKey, plain)
				return nil
			})
		},
	}
	create.Flags().StringVar(&name, "name", "", "label for the key")
	cmd.AddCommand(create)
	return cmd
}

// --- helpers ---

func withEngine(ctx context.Context, fn func(context.Context, engine.Engine) error) error {
	workspace := viper.GetString("workspace")
	conn, err := db.Open(db.Config{Workspace: workspace})
	if err != nil {
		return err
	}
	defer conn.Close()
	if err := migrate.Migrate(conn); err != nil {
		return err
	}
	cfg, err := app.ResolveSettings(ctx, workspace, repo.New(conn))
	if err != nil {
		return err
	}
	e := engine.New(conn, cfg)
	return fn(ctx, e)
}

func actorID() string {
	if u := viper.GetString("user"); u != "" {
		return u
	}
	return "local-user"
}

func requireUser() (string, error) {
	u := strings.TrimSpace(viper.GetString("user"))
	if u == "" {
		return "", fmt.Errorf("--user (or OUA_USER) is required")
	}
	return u, nil
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
