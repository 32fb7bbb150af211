// Package cli implements the lifeos device command line: it operates one
// local store namespace and syncs it against a LifeOS API.
package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/lifeos/backend/config"
	"github.com/lifeos/backend/internal/application/usecase/lifestore"
	"github.com/lifeos/backend/internal/application/usecase/syncengine"
	"github.com/lifeos/backend/internal/integration/persistence/kvstore"
	"github.com/lifeos/backend/internal/integration/remote"
)

// app carries the state shared by the commands of one invocation.
type app struct {
	configPath string
	verbose    bool
	out        io.Writer

	profile *config.Profile
	rdb     *redis.Client
	store   *lifestore.Store
	client  *remote.Client
}

// newRootCmd builds the lifeos command tree over a.
func newRootCmd(a *app, version string) *cobra.Command {
	root := &cobra.Command{
		Use:           "lifeos",
		Short:         "LifeOS device CLI",
		Long:          `lifeos manages the local LifeOS store of this device: backups, sync and conflict resolution.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			a.out = cmd.OutOrStdout()
			if cmd.Name() == "help" || cmd.Name() == "completion" {
				return nil
			}
			return a.open(cmd.Context())
		},
	}
	root.PersistentFlags().StringVar(&a.configPath, "config", config.DefaultProfilePath(), "profile file")
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "enable debug logging")

	root.AddCommand(
		exportCmd(a),
		importCmd(a),
		syncCmd(a),
		statusCmd(a),
		conflictsCmd(a),
		resolveCmd(a),
		clearCmd(a),
	)
	return root
}

// Execute runs the command tree and reports the error on stderr.
func Execute(ctx context.Context, version string) error {
	a := &app{}
	defer a.close()

	root := newRootCmd(a, version)
	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return err
	}
	return nil
}

func (a *app) open(ctx context.Context) error {
	level := slog.LevelWarn
	if a.verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	profile, err := config.LoadProfile(a.configPath)
	if err != nil {
		return err
	}
	a.profile = profile

	opts, err := redis.ParseURL(profile.RedisURL)
	if err != nil {
		return fmt.Errorf("invalid redis url: %w", err)
	}
	a.rdb = redis.NewClient(opts)
	if err := a.rdb.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("local store unavailable: %w", err)
	}

	kv, err := kvstore.NewRedisStore(a.rdb, profile.Namespace, profile.MaxBytes)
	if err != nil {
		return err
	}
	a.store = lifestore.New(kv, lifestore.Options{
		DeviceID: profile.DeviceID,
		Location: profile.Location(),
	})

	a.client = remote.NewClient(remote.Options{
		BaseURL: profile.RemoteURL,
		Tokens:  remote.Tokens{AccessToken: profile.AccessToken, RefreshToken: profile.RefreshToken},
		OnRefresh: func(t remote.Tokens) {
			if err := config.SaveTokens(a.configPath, t.AccessToken, t.RefreshToken); err != nil {
				slog.Warn("failed to persist refreshed tokens", "error", err)
			}
		},
	})
	return nil
}

func (a *app) engine() *syncengine.Engine {
	return syncengine.New(a.store, a.client, syncengine.Options{
		Interval:   a.profile.SyncInterval,
		AutoResume: a.profile.AutoResume,
	})
}

func (a *app) close() {
	if a.store != nil {
		a.store.Close()
	}
	if a.rdb != nil {
		_ = a.rdb.Close()
	}
}
