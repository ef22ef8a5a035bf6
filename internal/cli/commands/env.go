// Package commands implements the dalc subcommands.
package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/leapstack-labs/dalc/internal/config"
	"github.com/leapstack-labs/dalc/pkg/dal"
	"github.com/leapstack-labs/dalc/pkg/jcr"
	"github.com/leapstack-labs/dalc/pkg/render"
	"github.com/leapstack-labs/dalc/pkg/schema"
	"github.com/spf13/cobra"
)

// errNoSchema is returned when no schema file is configured.
var errNoSchema = errors.New("no schema configured: pass --schema or set schema in dalc.yaml")

// commandEnv bundles what every command needs: the configuration, the
// logger and the loaded schema.
type commandEnv struct {
	cfg     *config.Config
	logger  *slog.Logger
	catalog *schema.Catalog
}

func contextOf(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

func newCommandEnv(cmd *cobra.Command) (*commandEnv, error) {
	ctx := contextOf(cmd)
	cfg := config.FromContext(ctx)
	if cfg.Schema == "" {
		return nil, errNoSchema
	}
	catalog, err := schema.LoadFile(cfg.Schema)
	if err != nil {
		return nil, fmt.Errorf("failed to load schema %s: %w", cfg.Schema, err)
	}
	logger := config.GetLogger(ctx)
	logger.Debug("schema loaded", slog.String("path", cfg.Schema), slog.Int("types", len(catalog.Types())))
	return &commandEnv{cfg: cfg, logger: logger, catalog: catalog}, nil
}

func (e *commandEnv) compiler() *dal.Compiler {
	return dal.NewCompiler(e.catalog,
		dal.WithBasePackage(e.cfg.BasePackage),
		dal.WithSystemPackage(e.cfg.SystemPackage),
		dal.WithMaxDepth(e.cfg.MaxDepth),
		dal.WithLogger(e.logger))
}

func (e *commandEnv) decoder() *jcr.Decoder {
	return jcr.NewDecoder(e.catalog,
		jcr.WithBasePackage(e.cfg.BasePackage),
		jcr.WithSystemPackage(e.cfg.SystemPackage),
		jcr.WithMaxDepth(e.cfg.MaxDepth),
		jcr.WithDecoderLogger(e.logger))
}

func (e *commandEnv) encoder() *jcr.Encoder {
	return jcr.NewEncoder(e.catalog, jcr.WithEncoderLogger(e.logger))
}

func (e *commandEnv) renderer() *render.Renderer {
	return render.New(e.catalog, render.WithLogger(e.logger))
}
