// Command elcano-tilecheck is an operator diagnostic tool: it opens a
// single MBTiles archive directly, outside the Supervisor's working set,
// and reports its metadata, zoom levels, and tile coverage at a given
// coordinate. Intended for checking a map pack before it's dropped into
// the device's assets directory.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/oleche/elcano-nav-go/internal/tiles"
)

var (
	lat, lon float64
	zoom     int
)

func main() {
	root := &cobra.Command{
		Use:   "elcano-tilecheck <archive.mbtiles>",
		Short: "Inspect an MBTiles archive's metadata and tile coverage",
		Args:  cobra.ExactArgs(1),
		RunE:  run,
	}
	root.Flags().Float64Var(&lat, "lat", 0, "latitude to check coverage around")
	root.Flags().Float64Var(&lon, "lon", 0, "longitude to check coverage around")
	root.Flags().IntVar(&zoom, "zoom", 0, "zoom level to check coverage at (defaults to the archive's maxzoom)")

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, args []string) error {
	path := args[0]

	r, err := tiles.OpenReader(path)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer r.Close()

	meta := r.Metadata()
	fmt.Printf("archive:     %s\n", path)
	fmt.Printf("name:        %s\n", meta.Name)
	fmt.Printf("description: %s\n", meta.Description)
	fmt.Printf("bounds:      south=%.5f west=%.5f north=%.5f east=%.5f\n",
		meta.Bounds.South, meta.Bounds.West, meta.Bounds.North, meta.Bounds.East)
	fmt.Printf("zoom range:  %d-%d\n", meta.MinZoom, meta.MaxZoom)
	fmt.Printf("zoom levels: %v\n", meta.ZoomLevels)

	z := zoom
	if z == 0 {
		z = meta.MaxZoom
	}

	checkLat, checkLon := lat, lon
	if checkLat == 0 && checkLon == 0 {
		checkLat, checkLon = meta.Bounds.Center()
	}

	contains := r.Contains(checkLat, checkLon)
	fmt.Printf("\ncoverage check at (%.5f, %.5f), zoom %d:\n", checkLat, checkLon, z)
	fmt.Printf("  within bounds: %v\n", contains)

	cx, cy := tiles.ProjectLatLon(checkLat, checkLon, z)
	cov := r.TileCoverage(z, cx, cy, 5, 5)
	fmt.Printf("  5x5 tile grid coverage: %d/%d (%.0f%%)\n", cov.Available, cov.Total, cov.Ratio*100)

	return nil
}
