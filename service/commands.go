package service

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"likeboard/app/config"
	"likeboard/app/log"

	"github.com/spf13/cobra"
)

var (
	// Version is set via ldflags during build.
	Version = "dev"

	osExit = os.Exit
)

var errCancelled = errors.New("operation cancelled")

// Execute runs the likeboard command line and exits non-zero on failure.
func Execute() {
	if code := Run(os.Args[1:]); code != 0 {
		osExit(code)
	}
}

// Run executes the command tree with args and returns an exit code.
func Run(args []string) int {
	cmd := NewRootCommand()
	cmd.SetArgs(args)
	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "Error: %v\n", err)
		return 1
	}
	return 0
}

// NewRootCommand builds the likeboard command tree.
func NewRootCommand() *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:           "likeboard",
		Short:         "Community board API with posts, comments and likes",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetVersionTemplate("likeboard version {{.Version}}\n")
	root.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to a YAML config file")

	root.AddCommand(
		newServeCommand(&configPath),
		newInitCommand(&configPath),
		newCleanCommand(&configPath),
		newBackupCommand(&configPath),
		newRestoreCommand(&configPath),
		newVersionCommand(),
	)
	return root
}

// storageConfig loads the configuration needed by maintenance commands.
func storageConfig(path string) (*config.Config, error) {
	cfg, err := config.Read(path)
	if err != nil {
		return nil, err
	}
	if err := cfg.ValidateStorage(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func initLogging(cfg *config.Config) {
	log.Init(log.Config{
		Level:      log.Level(cfg.Log.Level),
		JSONOutput: cfg.Log.JSON,
	})
}

func newServeCommand(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			initLogging(cfg)
			if !cfg.Server.SecureCookie {
				log.Warn("server.secure_cookie is off, session cookies will be sent over plain HTTP")
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			srv, err := NewServer(ctx, cfg)
			if err != nil {
				return err
			}
			defer func() {
				if err := srv.Close(); err != nil {
					log.Errorf("Failed to close storage", err)
				}
			}()
			if err := srv.Run(ctx); err != nil {
				return err
			}
			log.Info("Server stopped")
			return nil
		},
	}
}

func newInitCommand(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Initialize a new empty database",
		Long: `Initialize a new empty database.

For badger this creates the data directory. For postgres it applies the
schema migrations.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := storageConfig(*configPath)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()

			if cfg.Storage.Driver == config.DriverBadger {
				if _, err := os.Stat(cfg.Storage.Path); err == nil {
					fmt.Fprintln(out, "Database already exists. Use 'clean' first if you want to reinitialize.")
					return nil
				}
				if err := os.MkdirAll(cfg.Storage.Path, 0755); err != nil {
					return fmt.Errorf("failed to create database directory: %w", err)
				}
			}

			st, err := openStorage(cmd.Context(), cfg.Storage)
			if err != nil {
				return err
			}
			if err := st.Close(); err != nil {
				return err
			}
			fmt.Fprintln(out, "Database initialized successfully")
			return nil
		},
	}
}

func newCleanCommand(configPath *string) *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "clean",
		Short: "Remove every user, post, like and comment",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := storageConfig(*configPath)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()

			if cfg.Storage.Driver == config.DriverBadger {
				if _, err := os.Stat(cfg.Storage.Path); os.IsNotExist(err) {
					fmt.Fprintln(out, "Database is already clean (does not exist)")
					return nil
				}
			}

			if !yes && !confirm(cmd, "Are you sure you want to clean the database? This cannot be undone.") {
				fmt.Fprintln(out, "Operation cancelled")
				return nil
			}

			if cfg.Storage.Driver == config.DriverBadger {
				if err := os.RemoveAll(cfg.Storage.Path); err != nil {
					return fmt.Errorf("failed to clean database: %w", err)
				}
			} else {
				st, err := openStorage(cmd.Context(), cfg.Storage)
				if err != nil {
					return err
				}
				defer st.Close()
				if err := st.clear(cmd.Context()); err != nil {
					return fmt.Errorf("failed to clean database: %w", err)
				}
			}
			fmt.Fprintln(out, "Database cleaned successfully")
			return nil
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "do not ask for confirmation")
	return cmd
}

func newBackupCommand(configPath *string) *cobra.Command {
	var dir string
	cmd := &cobra.Command{
		Use:   "backup",
		Short: "Write a full backup of the badger database",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := storageConfig(*configPath)
			if err != nil {
				return err
			}
			if cfg.Storage.Driver != config.DriverBadger {
				return errBadgerOnly
			}
			if _, err := os.Stat(cfg.Storage.Path); os.IsNotExist(err) {
				return errors.New("no database exists to backup")
			}
			if err := os.MkdirAll(dir, 0755); err != nil {
				return fmt.Errorf("failed to create backup directory: %w", err)
			}

			file, err := backup(cmd.Context(), cfg.Storage, dir)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Database backed up successfully to %s\n", file)
			return nil
		},
	}
	cmd.Flags().StringVar(&dir, "dir", "data/backups", "directory the backup file is written to")
	return cmd
}

func backup(ctx context.Context, cfg config.StorageConfig, dir string) (string, error) {
	st, err := openStorage(ctx, cfg)
	if err != nil {
		return "", err
	}
	defer st.Close()

	backupFile := filepath.Join(dir, fmt.Sprintf("backup_%d.db", time.Now().UnixNano()))
	f, err := os.Create(backupFile)
	if err != nil {
		return "", fmt.Errorf("failed to create backup file: %w", err)
	}
	defer f.Close()

	if _, err := st.badger.DB().Backup(f, 0); err != nil {
		return "", fmt.Errorf("failed to backup database: %w", err)
	}
	return backupFile, nil
}

func newRestoreCommand(configPath *string) *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "restore <backup-file>",
		Short: "Replace the badger database with a backup",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := storageConfig(*configPath)
			if err != nil {
				return err
			}
			if cfg.Storage.Driver != config.DriverBadger {
				return errBadgerOnly
			}
			err = restore(cmd, cfg.Storage, args[0], yes)
			if errors.Is(err, errCancelled) {
				fmt.Fprintln(cmd.OutOrStdout(), "Operation cancelled")
				return nil
			}
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Database restored successfully")
			return nil
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "replace an existing database without asking")
	return cmd
}

func restore(cmd *cobra.Command, cfg config.StorageConfig, backupFile string, yes bool) (err error) {
	f, err := os.Open(backupFile)
	if err != nil {
		return fmt.Errorf("failed to open backup file: %w", err)
	}
	defer f.Close()

	fi, err := f.Stat()
	if err != nil {
		return fmt.Errorf("failed to stat backup file: %w", err)
	}
	if fi.Size() == 0 {
		return fmt.Errorf("backup file is empty: %s", backupFile)
	}

	if _, err := os.Stat(cfg.Path); err == nil {
		if !yes && !confirm(cmd, "Existing database found. Do you want to replace it?") {
			return errCancelled
		}
		if err := os.RemoveAll(cfg.Path); err != nil {
			return fmt.Errorf("failed to remove existing database: %w", err)
		}
	}
	if err := os.MkdirAll(cfg.Path, 0755); err != nil {
		return fmt.Errorf("failed to create database directory: %w", err)
	}

	st, err := openStorage(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	// Load panics on some corrupt inputs.
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic occurred during restore: %v", r)
		}
	}()
	if err := st.badger.DB().Load(f, 4); err != nil {
		return fmt.Errorf("failed to restore database: %w", err)
	}
	return nil
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "likeboard version %s\n", Version)
		},
	}
}

// confirm asks a yes/no question on the command's input.
func confirm(cmd *cobra.Command, question string) bool {
	fmt.Fprintf(cmd.OutOrStdout(), "%s [y/N] ", question)
	return readYes(cmd.InOrStdin())
}

func readYes(in io.Reader) bool {
	line, _ := bufio.NewReader(in).ReadString('\n')
	answer := strings.TrimSpace(line)
	return answer == "y" || answer == "Y"
}
