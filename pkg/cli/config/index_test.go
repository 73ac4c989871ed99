package config_test

import (
	"context"
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/urfave/cli/v3"

	"github.com/sortir-lab/sortir/pkg/cli/config"
)

func TestIndex_Flags(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		var cfg config.Index
		cmd := &cli.Command{
			Name:  "test",
			Flags: cfg.Flags(),
			Action: func(ctx context.Context, c *cli.Command) error {
				return nil
			},
		}
		err := cmd.Run(t.Context(), []string{"test"})
		gt.NoError(t, err).Required()
		gt.Value(t, cfg.Dir()).Equal("data/indexes/events")
		gt.Value(t, cfg.BatchSize()).Equal(32)
	})

	t.Run("parses batch size into destination", func(t *testing.T) {
		var cfg config.Index
		cmd := &cli.Command{
			Name:  "test",
			Flags: cfg.Flags(),
			Action: func(ctx context.Context, c *cli.Command) error {
				return nil
			},
		}
		err := cmd.Run(t.Context(), []string{"test", "--batch-size", "8", "--index-dir", "tmp/idx"})
		gt.NoError(t, err).Required()
		gt.Value(t, cfg.BatchSize()).Equal(8)
		gt.Value(t, cfg.Dir()).Equal("tmp/idx")
	})
}
