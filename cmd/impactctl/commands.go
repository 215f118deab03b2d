package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/couchcryptid/neo-impact-service/internal/app"
	"github.com/couchcryptid/neo-impact-service/internal/config"
	"github.com/couchcryptid/neo-impact-service/internal/domain"
	"github.com/couchcryptid/neo-impact-service/internal/observability"
)

const defaultCapKm2 = 1_000_000.0

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "impactctl",
		Short:        "Estimate asteroid impact energy and affected area",
		SilenceUsage: true,
	}
	root.AddCommand(newEstimateCmd(), newLookupCmd(), newNEOCPCmd())
	return root
}

// --- estimate ---

type estimateFlags struct {
	name     string
	radiusKm float64
	material string
	density  float64
	velocity float64
	capKm2   float64
	date     string
}

func newEstimateCmd() *cobra.Command {
	var f estimateFlags
	cmd := &cobra.Command{
		Use:   "estimate",
		Short: "Estimate an impact from a physical profile, without network access",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runEstimate(cmd.OutOrStdout(), f)
		},
	}
	cmd.Flags().StringVar(&f.name, "name", "", "asteroid name")
	cmd.Flags().Float64Var(&f.radiusKm, "radius-km", 0, "mean radius in km")
	cmd.Flags().StringVar(&f.material, "material", string(domain.MaterialRocky), "material class (rocky|metallic)")
	cmd.Flags().Float64Var(&f.density, "density", 0, "bulk density in kg/m³, overrides the material default")
	cmd.Flags().Float64Var(&f.velocity, "velocity", 0, "impact velocity in km/s (default 20)")
	cmd.Flags().Float64Var(&f.capKm2, "cap", defaultCapKm2, "affected area cap in km²")
	cmd.Flags().StringVar(&f.date, "date", "", "impact date label")
	_ = cmd.MarkFlagRequired("radius-km")
	return cmd
}

func runEstimate(w io.Writer, f estimateFlags) error {
	a := domain.Asteroid{
		Name: f.name,
		Profile: domain.PhysicalProfile{
			RadiusKm: f.radiusKm,
			Material: domain.ParseMaterialClass(f.material),
		},
	}
	if f.density > 0 {
		a.Profile.BulkDensityKgM3 = &f.density
	}
	if f.date != "" {
		a.Ephemeris = []domain.OrbitalSample{{Date: f.date}}
	}
	var override *float64
	if f.velocity != 0 {
		override = &f.velocity
	}

	est, err := domain.Estimate(a, f.capKm2, override)
	if err != nil {
		return err
	}
	if err := writeJSON(w, est); err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, domain.Summarize(est))
	return err
}

// --- lookup ---

type lookupFlags struct {
	source  string
	lat     float64
	lon     float64
	country string
	capKm2  float64
	timeout time.Duration
}

func newLookupCmd() *cobra.Command {
	var f lookupFlags
	cmd := &cobra.Command{
		Use:   "lookup <asteroid-id>",
		Short: "Fetch a live profile, resolve the country, and estimate the impact",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			services, err := loadServices()
			if err != nil {
				return err
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), f.timeout)
			defer cancel()

			report, err := services.Transformer.Evaluate(ctx, domain.ScenarioRequest{
				AsteroidID:  args[0],
				Source:      f.source,
				Lat:         f.lat,
				Lon:         f.lon,
				CountryCode: f.country,
				AreaCapKm2:  f.capKm2,
			})
			if err != nil {
				return err
			}
			if err := writeJSON(cmd.OutOrStdout(), report); err != nil {
				return err
			}
			if report.Status != domain.StatusEstimated {
				return fmt.Errorf("%s: %s", report.Status, report.Error)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&f.source, "source", "", "profile source (horizons|neows), defaults to PROFILE_SOURCE")
	cmd.Flags().Float64Var(&f.lat, "lat", 0, "impact latitude")
	cmd.Flags().Float64Var(&f.lon, "lon", 0, "impact longitude")
	cmd.Flags().StringVar(&f.country, "country", "", "ISO 3166-1 alpha-2 country code")
	cmd.Flags().Float64Var(&f.capKm2, "cap", 0, "affected area cap in km², overrides the country area")
	cmd.Flags().DurationVar(&f.timeout, "timeout", time.Minute, "overall lookup timeout")
	return cmd
}

// --- neocp ---

func newNEOCPCmd() *cobra.Command {
	var (
		limit   int
		asJSON  bool
		timeout time.Duration
	)
	cmd := &cobra.Command{
		Use:   "neocp",
		Short: "List candidates on the MPC NEO Confirmation Page",
		RunE: func(cmd *cobra.Command, _ []string) error {
			services, err := loadServices()
			if err != nil {
				return err
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()

			candidates, err := services.NEOCP.ListCandidates(ctx)
			if err != nil {
				return err
			}
			if limit > 0 && len(candidates) > limit {
				candidates = candidates[:limit]
			}
			if asJSON {
				return writeJSON(cmd.OutOrStdout(), candidates)
			}
			return writeCandidates(cmd.OutOrStdout(), candidates)
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 20, "maximum candidates to print, 0 for all")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON instead of a table")
	cmd.Flags().DurationVar(&timeout, "timeout", 30*time.Second, "request timeout")
	return cmd
}

func writeCandidates(w io.Writer, candidates []domain.CandidateNEO) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "DESIG\tSCORE\tDISCOVERED\tV\tNOBS\tARC(d)\tUPDATED")
	for _, c := range candidates {
		fmt.Fprintf(tw, "%s\t%d\t%s\t%.1f\t%s\t%.2f\t%s\n",
			c.Designation, c.Score, c.DiscoveryDate, c.VMag,
			humanize.Comma(int64(c.Observations)), c.ArcDays, strings.TrimSpace(c.Updated))
	}
	return tw.Flush()
}

func loadServices() (*app.Services, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	// Stdout carries the command output; logs go to stderr.
	level := slog.LevelWarn
	if cfg.LogLevel == "debug" {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	return app.NewServices(cfg, observability.NewMetrics(), logger)
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
