// PT-JPL evapotranspiration partitioning
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/akamensky/argparse"
	"github.com/hhkbp2/go-logging"
	"github.com/udawtr/ptjpl-go/climatology"
	"github.com/udawtr/ptjpl-go/ptjpl"
	"github.com/udawtr/ptjpl-go/sebal"
	"github.com/udawtr/ptjpl-go/server"
	"github.com/udawtr/ptjpl-go/station"
	"github.com/udawtr/ptjpl-go/verma"
)

// loggers whose level follows --log
var loggerNames = []string{"ptjpl", "ptjpl.station", "ptjpl.climatology", "ptjpl.server"}

func main() {
	parser := argparse.NewParser("ptjpl", "Partitions evapotranspiration into soil, canopy and interception with PT-JPL")

	logLevel := parser.Selector("", "log", []string{"DEBUG", "INFO", "WARN", "ERROR", "CRITICAL"}, &argparse.Options{
		Default: "ERROR",
		Help:    "Log level"})

	configPath := parser.String("", "config", &argparse.Options{
		Default: "",
		Help:    "YAML file of model constants"})

	legacy := parser.Flag("", "legacy", &argparse.Options{
		Help: "Use the legacy wetness formulation (no RH threshold)"})

	staticPath := parser.String("", "static", &argparse.Options{
		Default: "",
		Help:    "CSV site table of Topt_C and fAPARmax"})

	stationDir := parser.String("", "stations", &argparse.Options{
		Default: "",
		Help:    "Directory of station CSV(.gz) files for Ta, RH and SWin"})

	stationURL := parser.String("", "station-url", &argparse.Options{
		Default: "",
		Help:    "Base URL to download missing station files from into --stations"})

	stationFiles := parser.StringList("", "station-file", &argparse.Options{
		Help: "Station file name to download from --station-url (repeatable)"})

	elevation := parser.Flag("", "elevation", &argparse.Options{
		Help: "Correct station air temperature to the ground elevation of each point"})

	elevationURL := parser.String("", "elevation-url", &argparse.Options{
		Default: "",
		Help:    "Elevation service used by --elevation, e.g. " + station.DefaultElevationURL + " (Japan only)"})

	// table
	tableCmd := parser.NewCommand("table", "Process a CSV table of inputs")
	tableIn := tableCmd.String("i", "input", &argparse.Options{Required: true, Help: "Input CSV"})
	tableOut := tableCmd.String("o", "output", &argparse.Options{Default: "", Help: "Output CSV (default stdout)"})

	// verify
	verifyCmd := parser.NewCommand("verify", "Compare table outputs with a reference table")
	verifyIn := verifyCmd.String("i", "input", &argparse.Options{Required: true, Help: "Input CSV"})
	verifyRef := verifyCmd.String("r", "reference", &argparse.Options{Required: true, Help: "Reference output CSV"})

	// point
	pointCmd := parser.NewCommand("point", "Run the model for a single set of values")
	nan := math.NaN()
	ndvi := pointCmd.Float("", "ndvi", &argparse.Options{Required: true, Help: "NDVI"})
	ta := pointCmd.Float("", "ta", &argparse.Options{Default: nan, Help: "Air temperature [C]"})
	rh := pointCmd.Float("", "rh", &argparse.Options{Default: nan, Help: "Relative humidity [0-1]"})
	rn := pointCmd.Float("", "rn", &argparse.Options{Default: nan, Help: "Net radiation [W/m2]"})
	g := pointCmd.Float("", "g", &argparse.Options{Default: nan, Help: "Soil heat flux [W/m2]"})
	topt := pointCmd.Float("", "topt", &argparse.Options{Default: nan, Help: "Optimum temperature [C]"})
	faparMax := pointCmd.Float("", "fapar-max", &argparse.Options{Default: nan, Help: "Maximum fAPAR"})
	st := pointCmd.Float("", "st", &argparse.Options{Default: nan, Help: "Surface temperature [C]"})
	albedo := pointCmd.Float("", "albedo", &argparse.Options{Default: nan, Help: "Albedo"})
	emissivity := pointCmd.Float("", "emissivity", &argparse.Options{Default: nan, Help: "Surface emissivity"})
	swin := pointCmd.Float("", "swin", &argparse.Options{Default: nan, Help: "Incoming shortwave [W/m2]"})
	lat := pointCmd.Float("", "lat", &argparse.Options{Default: nan, Help: "Latitude (decimal degrees)"})
	lon := pointCmd.Float("", "lon", &argparse.Options{Default: nan, Help: "Longitude (decimal degrees)"})
	when := pointCmd.String("", "time", &argparse.Options{Default: "", Help: "Observation time (UTC)"})

	// serve
	serveCmd := parser.NewCommand("serve", "Serve the model over HTTP")
	addr := serveCmd.String("", "addr", &argparse.Options{Default: ":8080", Help: "Listen address"})

	err := parser.Parse(os.Args)
	if err != nil {
		fmt.Print(parser.Usage(err))
		os.Exit(1)
	}

	setLogLevel(*logLevel)
	logger := logging.GetLogger("ptjpl")

	cfg := ptjpl.DefaultConfig()
	if *configPath != "" {
		cfg, err = ptjpl.LoadConfig(*configPath)
		if err != nil {
			fail(err)
		}
	}
	if *legacy {
		cfg.RHThreshold = nil
		cfg.MinFwet = 0
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	collaborators := ptjpl.Collaborators{
		NetRadiation: &verma.Model{},
		SoilHeatFlux: sebal.Model{},
	}
	if *staticPath != "" {
		table, err := climatology.Open(*staticPath)
		if err != nil {
			fail(err)
		}
		collaborators.Climatology = table
	}
	if *stationDir != "" {
		if *stationURL != "" {
			if _, err := station.Fetch(ctx, nil, *stationURL, *stationDir, *stationFiles); err != nil {
				fail(err)
			}
		}
		store, err := station.Open(*stationDir)
		if err != nil {
			fail(err)
		}
		elev, err := elevationSource(*elevation, *elevationURL)
		if err != nil {
			fail(err)
		}
		if elev != nil {
			store.Elevation = elev
		}
		collaborators.Atmosphere = store
	}

	model := ptjpl.NewModel(cfg, collaborators)

	switch {
	case tableCmd.Happened():
		in := readTable(*tableIn)
		out, err := model.ProcessTable(ctx, in)
		if err != nil {
			fail(err)
		}
		logger.Infof("LE_Wm2 %s", ptjpl.Summarize(out.Column("LE_Wm2")))

		var buf bytes.Buffer
		if err := out.WriteCSV(&buf); err != nil {
			fail(err)
		}
		if *tableOut == "" {
			fmt.Print(buf.String())
		} else {
			logger.Infof("writing %s", *tableOut)
			if err := os.WriteFile(filepath.Clean(*tableOut), buf.Bytes(), 0o644); err != nil {
				fail(err)
			}
		}

	case verifyCmd.Happened():
		report, err := ptjpl.Verify(ctx, model, readTable(*verifyIn), readTable(*verifyRef))
		if err != nil {
			fail(err)
		}
		fmt.Print(report.String())
		if !report.OK() {
			os.Exit(1)
		}

	case pointCmd.Happened():
		in := &ptjpl.InputSet{
			NDVI:       ptjpl.Scalar(*ndvi),
			Ta:         optional(*ta),
			RH:         optional(*rh),
			Rn:         optional(*rn),
			G:          optional(*g),
			Topt:       optional(*topt),
			FAPARmax:   optional(*faparMax),
			ST:         optional(*st),
			Albedo:     optional(*albedo),
			Emissivity: optional(*emissivity),
			SWin:       optional(*swin),
		}
		if !math.IsNaN(*lat) && !math.IsNaN(*lon) {
			in.Geometry = ptjpl.NewSiteGeometry([]float64{*lat}, []float64{*lon})
		}
		if *when != "" {
			t, err := ptjpl.ParseTime(*when)
			if err != nil {
				fail(err)
			}
			in.Time = t
		}
		res, err := model.Run(ctx, in)
		if err != nil {
			fail(err)
		}
		printResult(res)

	case serveCmd.Happened():
		if err := server.New(model).ListenAndServe(ctx, *addr); err != nil {
			fail(err)
		}
	}

	logger.Infof("done")
}

func setLogLevel(level string) {
	var l logging.LogLevelType
	switch level {
	case "DEBUG":
		l = logging.LevelDebug
	case "INFO":
		l = logging.LevelInfo
	case "WARN":
		l = logging.LevelWarn
	case "ERROR":
		l = logging.LevelError
	case "CRITICAL":
		l = logging.LevelCritical
	}
	for _, name := range loggerNames {
		logging.GetLogger(name).SetLevel(l)
	}
}

// elevationSource returns the elevation service of --elevation, or nil when
// the correction is off.
func elevationSource(enabled bool, url string) (station.ElevationSource, error) {
	if !enabled {
		return nil, nil
	}
	if url == "" {
		return nil, errors.New("--elevation needs --elevation-url")
	}
	return &station.ElevationAPI{URL: url}, nil
}

func readTable(path string) *ptjpl.Table {
	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		fail(err)
	}
	defer f.Close()
	t, err := ptjpl.ReadTable(f)
	if err != nil {
		fail(fmt.Errorf("%s: %w", path, err))
	}
	return t
}

// optional treats NaN as a value that was not given.
func optional(v float64) ptjpl.Field {
	if math.IsNaN(v) {
		return nil
	}
	return ptjpl.Scalar(v)
}

func printResult(res *ptjpl.Result) {
	out := map[string]interface{}{}
	for k, v := range res.Map() {
		out[k] = v
	}
	out["sources"] = res.Resolution.Sources
	b, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		fail(err)
	}
	fmt.Println(string(b))
}

func fail(err error) {
	fmt.Fprintln(os.Stderr, "Error:", err)
	os.Exit(1)
}
