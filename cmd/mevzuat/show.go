package main

import (
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/mevzuatgpt/mevzuat/internal/export"
	"github.com/mevzuatgpt/mevzuat/internal/pkg/errors"
	"github.com/mevzuatgpt/mevzuat/internal/sink"
)

func showCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <file>",
		Short: "Print the chunks stored in Redis for an indexed file",
		Long: `Print the chunks of the current indexed version of a statute file, as
stored by the redis sink, in article order.

Example:
  mevzuat show kanunlar/tck.txt`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd)
			if err != nil {
				return err
			}

			// Sources are stored under their absolute path.
			source, err := filepath.Abs(args[0])
			if err != nil {
				return errors.IOError("resolving path", err).WithDetail("path", args[0])
			}

			rs, err := sink.NewRedisSink(cmd.Context(), sink.RedisConfig{
				URL:    a.cfg.Redis.URL,
				Prefix: a.cfg.Redis.KeyPrefix,
				TTL:    a.cfg.RedisTTL(),
			}, a.log)
			if err != nil {
				return err
			}
			defer rs.Close()

			chunks, err := rs.Chunks(cmd.Context(), source)
			if err != nil {
				return err
			}
			return export.Encode(cmd.OutOrStdout(), chunks)
		},
	}
}
