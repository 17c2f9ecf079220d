package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"quantdash/cmd"
	"quantdash/internal/stub"
	"quantdash/internal/util"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
)

func main() {
	root := &cobra.Command{
		Use:           "quantdash",
		Short:         "Quant dashboard backend",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(serveCmd(), stubCmd())

	if err := root.Execute(); err != nil {
		log.Fatal(err)
	}
}

func serveCmd() *cobra.Command {
	var (
		port         int
		analyticsURL string
	)
	c := &cobra.Command{
		Use:   "serve",
		Short: "Run the dashboard API",
		RunE: func(c *cobra.Command, args []string) error {
			config, err := util.LoadConfig()
			if err != nil {
				return err
			}
			if c.Flags().Changed("port") {
				config.Server.Port = port
			}
			if c.Flags().Changed("analytics-url") {
				config.Analytics.BaseURL = analyticsURL
			}

			logger, err := cmd.InitializeLogger(*config)
			if err != nil {
				return err
			}
			if config.Environment != "dev" {
				gin.SetMode(gin.ReleaseMode)
			}

			apiHandler, err := cmd.InitializeDependencies(*config, logger)
			if err != nil {
				return err
			}
			defer cmd.CloseDependencies(apiHandler)

			server := &http.Server{
				Addr:    fmt.Sprintf(":%d", config.Server.Port),
				Handler: apiHandler.InitializeRouterEngine(),
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			go func() {
				<-ctx.Done()
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				defer cancel()
				_ = server.Shutdown(shutdownCtx)
			}()

			logger.Infow("starting dashboard api", "port", config.Server.Port, "analytics", config.Analytics.BaseURL)
			if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		},
	}
	c.Flags().IntVar(&port, "port", 0, "port to listen on")
	c.Flags().StringVar(&analyticsURL, "analytics-url", "", "base url of the analytics service")
	return c
}

func stubCmd() *cobra.Command {
	var port int
	c := &cobra.Command{
		Use:   "stub",
		Short: "Run a development analytics service backed by synthetic data",
		RunE: func(c *cobra.Command, args []string) error {
			return stub.NewServer(time.Now()).Run(port)
		},
	}
	c.Flags().IntVar(&port, "port", 5000, "port to listen on")
	return c
}
