package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"katydid-common-idgen/internal/config"
	"katydid-common-idgen/internal/metrics"
	httpserver "katydid-common-idgen/internal/server/http"
	"katydid-common-idgen/pkg/idgen/domain"
	"katydid-common-idgen/pkg/idgen/snowflake"
)

// maxNextCount next 命令单次最多输出的ID数
const maxNextCount = 100_000

func newServeCommand(a *app) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if addr != "" {
				a.cfg.HTTP.Addr = addr
			}
			if err := a.cfg.Validate(config.SceneServe); err != nil {
				return err
			}

			r, gen, err := a.newGenerator()
			if err != nil {
				return err
			}
			zap.ReplaceGlobals(a.log)

			reg := prometheus.NewRegistry()
			reg.MustRegister(
				collectors.NewGoCollector(),
				collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
				metrics.NewGeneratorCollector(r.Snapshot),
			)
			httpMetrics := metrics.NewHTTP()
			if err := httpMetrics.Register(reg); err != nil {
				return err
			}

			h := a.cfg.HTTP
			srv, err := httpserver.New(httpserver.Options{
				Generator:       gen,
				Logger:          a.log.Named("http"),
				Metrics:         httpMetrics,
				Gatherer:        reg,
				MaxBatch:        h.MaxBatch,
				JWTSecret:       h.JWTSecret,
				CORSOrigins:     h.CORSOrigins,
				RateLimit:       h.RateLimit,
				RateWindow:      h.RateWindow,
				ReadTimeout:     h.ReadTimeout,
				WriteTimeout:    h.WriteTimeout,
				ShutdownTimeout: h.ShutdownTimeout,
			})
			if err != nil {
				return err
			}

			ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer cancel()
			return srv.ListenAndServe(ctx, h.Addr)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address, overrides http.addr")
	return cmd
}

func newNextCommand(a *app) *cobra.Command {
	var count int

	cmd := &cobra.Command{
		Use:   "next",
		Short: "Print newly generated IDs, one per line",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if count < 1 || count > maxNextCount {
				return fmt.Errorf("-n must be in [1, %d], got %d", maxNextCount, count)
			}

			_, gen, err := a.newGenerator()
			if err != nil {
				return err
			}
			ids, err := gen.NextIDBatch(count)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			for _, id := range domain.FromInt64s(ids) {
				if _, err := fmt.Fprintln(out, id.String()); err != nil {
					return err
				}
			}
			return nil
		},
	}
	cmd.Flags().IntVarP(&count, "count", "n", 1, "number of IDs")
	return cmd
}

// idView parse 命令的输出
type idView struct {
	ID           domain.ID `json:"id"`
	Hex          string    `json:"hex"`
	Time         string    `json:"time"`
	Timestamp    int64     `json:"timestamp"`
	DatacenterID int64     `json:"datacenter_id"`
	WorkerID     int64     `json:"worker_id"`
	Sequence     int64     `json:"sequence"`
}

func newParseCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "parse <id>",
		Short: "Decode an ID (decimal, 0x or 0b) into its fields",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.cfg.Validate(config.SceneGenerate); err != nil {
				return err
			}
			epoch, err := a.cfg.Generator.EpochTime()
			if err != nil {
				return err
			}

			id, err := domain.ParseID(args[0])
			if err != nil {
				return err
			}
			parser, err := snowflake.NewParser(a.cfg.Generator.Layout(), epoch)
			if err != nil {
				return err
			}
			info, err := parser.Parse(id.Int64())
			if err != nil {
				return err
			}

			return writeJSON(cmd.OutOrStdout(), idView{
				ID:           id,
				Hex:          id.Hex(),
				Time:         time.UnixMilli(info.Timestamp).UTC().Format("2006-01-02T15:04:05.000Z07:00"),
				Timestamp:    info.Timestamp,
				DatacenterID: info.DatacenterID,
				WorkerID:     info.WorkerID,
				Sequence:     info.Sequence,
			})
		},
	}
}

// layoutView layout 命令的输出
type layoutView struct {
	Layout            string `json:"layout"`
	TimestampBits     uint8  `json:"timestamp_bits"`
	MaxDatacenters    int64  `json:"max_datacenters"`
	MaxWorkers        int64  `json:"max_workers"`
	IDsPerMillisecond int64  `json:"ids_per_millisecond"`
	Epoch             string `json:"epoch"`
	ExhaustedAt       string `json:"exhausted_at"`
}

func newLayoutCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "layout",
		Short: "Print the capacity of the configured bit layout",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.cfg.Validate(config.SceneGenerate); err != nil {
				return err
			}
			epoch, err := a.cfg.Generator.EpochTime()
			if err != nil {
				return err
			}

			layout := a.cfg.Generator.Layout()
			c := layout.Capacity()
			return writeJSON(cmd.OutOrStdout(), layoutView{
				Layout:            layout.String(),
				TimestampBits:     c.TimestampBits,
				MaxDatacenters:    c.MaxDatacenters,
				MaxWorkers:        c.MaxWorkers,
				IDsPerMillisecond: c.IDsPerMillisecond,
				Epoch:             epoch.UTC().Format(time.RFC3339),
				ExhaustedAt:       epoch.Add(c.Lifespan).UTC().Format(time.RFC3339),
			})
		},
	}
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
