package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/0xcro3dile/conllu-pipeline/internal/adapters/conllu"
	"github.com/0xcro3dile/conllu-pipeline/internal/domain/usecases"
	"github.com/0xcro3dile/conllu-pipeline/internal/domain/validation"
	apihttp "github.com/0xcro3dile/conllu-pipeline/internal/infrastructure/http"
)

var serveAddr string

// serveCmd runs the validation API
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the validation HTTP API",
	Long: `Endpoints:
  POST /api/validate   body is a CoNLL-U artifact; returns the JSON report
  GET  /api/reports    recorded validation runs, newest first
  GET  /api/health     liveness
  GET  /metrics        Prometheus metrics`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (default from config)")
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	c := currentConfig()

	addr := c.Server.Addr
	if serveAddr != "" {
		addr = serveAddr
	}

	store, err := openStore(c)
	if err != nil {
		return err
	}
	defer store.Close()

	validator := validation.New(c.ValidatorOptions())
	uc := usecases.NewValidateUseCase(conllu.NewReader(), validator, store)

	srv := apihttp.NewServer(uc, addr, commandLogger())
	srv.SetMaxConns(c.Server.MaxConns)
	return srv.Start(ctx)
}
