package cmd

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/rabithua/chatmemo/common/log"
	"github.com/rabithua/chatmemo/server"
	_profile "github.com/rabithua/chatmemo/server/profile"
)

const (
	greetingBanner = `
  ___ _         _   __  __
 / __| |_  __ _| |_|  \/  |___ _ __  ___
| (__| ' \/ _' | _| |\/| / -_) '  \/ _ \
 \___|_||_\__,_|\__|_|  |_\___|_|_|_\___/
`
)

var (
	profile  *_profile.Profile
	mode     string
	addr     string
	port     int
	data     string
	tokenTTL time.Duration

	rootCmd = &cobra.Command{
		Use:   "chatmemo",
		Short: "Private memos and fork navigation for chat conversations.",
		RunE: func(_cmd *cobra.Command, _args []string) error {
			ctx, cancel := context.WithCancel(context.Background())
			s, err := server.NewServer(ctx, profile)
			if err != nil {
				cancel()
				return fmt.Errorf("failed to create server: %w", err)
			}

			c := make(chan os.Signal, 1)
			// Trigger graceful shutdown on SIGINT or SIGTERM.
			// The default signal sent by the `kill` command is SIGTERM,
			// which is taken as the graceful shutdown signal for many systems, eg., Kubernetes, Gunicorn.
			signal.Notify(c, os.Interrupt, syscall.SIGTERM)
			go func() {
				sig := <-c
				log.Info("signal received", zap.String("signal", sig.String()))
				s.Shutdown(ctx)
				cancel()
			}()

			println(greetingBanner)
			fmt.Printf("Version %s has been started on port %d\n", profile.Version, profile.Port)
			if err := s.Start(ctx); err != nil {
				if !errors.Is(err, http.ErrServerClosed) {
					cancel()
					return fmt.Errorf("failed to start server: %w", err)
				}
			}

			// Wait for CTRL-C.
			<-ctx.Done()
			return nil
		},
	}
)

func Execute() error {
	defer log.Sync()
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVarP(&mode, "mode", "m", "demo", `mode of server, can be "prod" or "dev" or "demo"`)
	rootCmd.PersistentFlags().StringVarP(&addr, "addr", "a", "", "address of server")
	rootCmd.PersistentFlags().IntVarP(&port, "port", "p", 8081, "port of server")
	rootCmd.PersistentFlags().StringVarP(&data, "data", "d", "", "data directory")
	rootCmd.PersistentFlags().DurationVar(&tokenTTL, "token-ttl", 7*24*time.Hour, "lifetime of access tokens")

	for _, name := range []string{"mode", "addr", "port", "data", "token-ttl"} {
		if err := viper.BindPFlag(name, rootCmd.PersistentFlags().Lookup(name)); err != nil {
			panic(err)
		}
	}

	viper.SetDefault("mode", "demo")
	viper.SetDefault("port", 8081)
	viper.SetEnvPrefix("chatmemo")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))

	rootCmd.AddCommand(exportCmd)
}

func initConfig() {
	// Values from .env only fill in what the environment does not already set.
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		fmt.Printf("failed to load .env file, error: %+v\n", err)
	}
	viper.AutomaticEnv()

	var err error
	profile, err = _profile.GetProfile()
	if err != nil {
		fmt.Printf("failed to get profile, error: %+v\n", err)
		os.Exit(1)
	}

	if profile.Mode == "prod" {
		if err := log.UseProduction(); err != nil {
			fmt.Printf("failed to use production logger, error: %+v\n", err)
		}
	}

	println("---")
	println("Server profile")
	println("dsn:", profile.DSN)
	println("addr:", profile.Addr)
	println("port:", profile.Port)
	println("mode:", profile.Mode)
	println("version:", profile.Version)
	println("---")
}
