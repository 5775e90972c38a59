package station

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/http"

	"github.com/ctessum/geom"
)

// LapseRate is the mean decrease of air temperature with height [C/m].
const LapseRate = 0.0065

// CorrectTa moves an air temperature Ta [C] observed at one elevation to a
// point gap metres higher.
func CorrectTa(Ta, gap float64) float64 {
	return Ta - gap*LapseRate
}

// ElevationSource returns the ground elevation [m] of a point.
type ElevationSource interface {
	Elevation(ctx context.Context, p geom.Point) (float64, error)
}

// DefaultElevationURL is the GSI elevation service. It covers Japan only;
// points elsewhere answer no data.
const DefaultElevationURL = "https://cyberjapandata2.gsi.go.jp/general/dem/scripts/getelevation.php"

// ElevationAPI queries an elevation service that answers
// ?lon=..&lat=..&outtype=JSON with {"elevation": m}. Points outside the
// service's coverage answer a non-numeric elevation. An empty URL uses
// DefaultElevationURL, which covers Japan only.
type ElevationAPI struct {
	URL    string
	Client *http.Client
}

type elevationResponse struct {
	Elevation interface{} `json:"elevation"`
	HSrc      interface{} `json:"hsrc"`
}

func (a *ElevationAPI) Elevation(ctx context.Context, p geom.Point) (float64, error) {
	client := a.Client
	if client == nil {
		client = http.DefaultClient
	}
	base := a.URL
	if base == "" {
		base = DefaultElevationURL
	}
	url := fmt.Sprintf("%s?lon=%f&lat=%f&outtype=JSON", base, p.X, p.Y)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return math.NaN(), err
	}
	resp, err := client.Do(req)
	if err != nil {
		return math.NaN(), err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return math.NaN(), fmt.Errorf("elevation service: %s", resp.Status)
	}

	var r elevationResponse
	if err := json.NewDecoder(resp.Body).Decode(&r); err != nil {
		return math.NaN(), fmt.Errorf("elevation service: %w", err)
	}
	e, ok := r.Elevation.(float64)
	if !ok {
		return math.NaN(), fmt.Errorf("elevation service: no elevation at (%g, %g)", p.Y, p.X)
	}
	return e, nil
}

// dewPointRH returns the relative humidity [0-1] of air at Ta with dew
// point Td [C].
func dewPointRH(Ta, Td float64) float64 {
	svp := func(T float64) float64 { return 0.6108 * math.Exp(17.27*T/(T+237.3)) }
	return math.Min(svp(Td)/svp(Ta), 1)
}
