package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/paulmach/orb"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/landscore/score-cli/internal/parcel"
	"github.com/landscore/score-cli/internal/report"
)

var (
	scoreFile      string
	scoreCadastral string
	scorePoint     string
	scoreAreaSotka float64
	scoreJSON      bool
	scoreExplain   bool
)

var scoreCmd = &cobra.Command{
	Use:   "score",
	Short: "Score one parcel for purchase suitability",
	Long: `Scores a parcel given as a GeoJSON/KML file, a cadastral number, or a
point with an area in sotkas (1 sotka = 100 sq m).`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.Validate("score"); err != nil {
			return err
		}
		if err := exactlyOneInput(); err != nil {
			return err
		}

		env := initEnv(cfg)
		defer env.Close()

		ctx := cmd.Context()
		var m *report.Metrics
		var err error

		switch {
		case scoreCadastral != "":
			m, err = env.Engine.ScoreCadastral(ctx, scoreCadastral)
		default:
			var poly orb.Polygon
			poly, err = loadBoundary()
			if err != nil {
				return err
			}
			m, err = env.Engine.ScorePolygon(ctx, poly)
		}
		if err != nil {
			return err
		}

		zap.L().Info("parcel scored",
			zap.Float64("area_ha", m.AreaHa),
			zap.Int("score", m.Score.Total),
			zap.Int("flood_pct", m.FloodPct),
		)

		if scoreJSON {
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return eris.Wrap(enc.Encode(m), "encode report")
		}

		t := env.Engine.Thresholds
		fmt.Fprintln(cmd.OutOrStdout(), report.FormatBrief(m, t))
		if scoreExplain {
			fmt.Fprintln(cmd.OutOrStdout())
			fmt.Fprintln(cmd.OutOrStdout(), report.FormatExplain(m, t))
		}
		return nil
	},
}

func exactlyOneInput() error {
	n := 0
	if scoreFile != "" {
		n++
	}
	if scoreCadastral != "" {
		n++
	}
	if scorePoint != "" {
		n++
	}
	if n != 1 {
		return eris.New("exactly one of --file, --cadastral, or --point is required")
	}
	if scorePoint != "" && scoreAreaSotka <= 0 {
		return eris.New("--point requires --area (sotkas)")
	}
	return nil
}

func loadBoundary() (orb.Polygon, error) {
	if scorePoint != "" {
		lat, lon, err := parseLatLon(scorePoint)
		if err != nil {
			return nil, err
		}
		return parcel.SquareFromPointArea(lat, lon, scoreAreaSotka)
	}

	data, err := os.ReadFile(scoreFile)
	if err != nil {
		return nil, eris.Wrapf(err, "read %s", scoreFile)
	}
	if strings.EqualFold(filepath.Ext(scoreFile), ".kml") {
		return parcel.FromKML(bytes.NewReader(data))
	}
	return parcel.FromGeoJSON(data)
}

func parseLatLon(s string) (lat, lon float64, err error) {
	parts := strings.Split(s, ",")
	if len(parts) != 2 {
		return 0, 0, eris.Errorf("malformed point %q, want lat,lon", s)
	}
	lat, err = strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil {
		return 0, 0, eris.Wrapf(err, "latitude %q", parts[0])
	}
	lon, err = strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil {
		return 0, 0, eris.Wrapf(err, "longitude %q", parts[1])
	}
	return lat, lon, nil
}

func init() {
	scoreCmd.Flags().StringVar(&scoreFile, "file", "", "parcel boundary file (GeoJSON or KML)")
	scoreCmd.Flags().StringVar(&scoreCadastral, "cadastral", "", "cadastral number to resolve via the registry")
	scoreCmd.Flags().StringVar(&scorePoint, "point", "", "parcel center as lat,lon (requires --area)")
	scoreCmd.Flags().Float64Var(&scoreAreaSotka, "area", 0, "parcel area in sotkas for --point")
	scoreCmd.Flags().BoolVar(&scoreJSON, "json", false, "emit the full report as JSON")
	scoreCmd.Flags().BoolVar(&scoreExplain, "explain", false, "append the detailed explanation")
	rootCmd.AddCommand(scoreCmd)
}
