package ptjpl

import (
	"math"
	"time"
)

//--------------------------------------
// Daylight integration
//--------------------------------------

// DayAngle returns the day angle [rad] for day of year doy (1-365).
func DayAngle(doy Field) Field {
	return map1(doy, dayAngle)
}

func dayAngle(doy float64) float64 {
	return 2 * math.Pi * (doy - 1) / 365
}

// SolarDeclination returns the solar declination [deg] from the day angle
// [rad] with a seven-term Fourier series.
func SolarDeclination(dayAngle Field) Field {
	return map1(dayAngle, solarDeclination)
}

func solarDeclination(a float64) float64 {
	dec := 0.006918 -
		0.399912*math.Cos(a) + 0.070257*math.Sin(a) -
		0.006758*math.Cos(2*a) + 0.000907*math.Sin(2*a) -
		0.002697*math.Cos(3*a) + 0.00148*math.Sin(3*a)
	return radToDegree(dec)
}

// SunriseHourAngle returns the sunrise hour angle [deg] at latitude lat [deg]
// on day of year doy. Polar night saturates at 0 and polar day at 180.
func SunriseHourAngle(doy, lat Field) Field {
	return map2(doy, lat, sunriseHourAngle)
}

func sunriseHourAngle(doy, lat float64) float64 {
	dec := degreeToRad(solarDeclination(dayAngle(doy)))
	cos := -math.Tan(degreeToRad(lat)) * math.Tan(dec)
	switch {
	case cos >= 1:
		return 0
	case cos <= -1:
		return 180
	}
	return radToDegree(math.Acos(cos))
}

// DaylightHours returns the length of the day [h] from the sunrise hour angle.
func DaylightHours(SHA Field) Field {
	return map1(SHA, func(sha float64) float64 { return (2.0 / 15.0) * sha })
}

// SunriseHour returns the solar time of sunrise [h].
func SunriseHour(SHA Field) Field {
	return map1(SHA, func(sha float64) float64 { return 12 - sha/15.0 })
}

// DaylightFlux scales an instantaneous flux observed at solar hour to its
// daylight average, assuming a sinusoidal course between sunrise and sunset:
//
//	flux_daylight = 1.6 * flux / (pi * sin(pi * (hour - sunrise) / daylight))
//
// Observations at or outside sunrise and sunset give NaN.
func DaylightFlux(flux, hour, sunrise, daylight Field) Field {
	n := resultLen(flux, hour, sunrise, daylight)
	return mapN(n, func(i int) float64 {
		return daylightFlux(flux.At(i), hour.At(i), sunrise.At(i), daylight.At(i))
	})
}

func daylightFlux(flux, hour, sunrise, daylight float64) float64 {
	if !(daylight > 0) || !(hour > sunrise) || !(hour < sunrise+daylight) {
		return math.NaN()
	}
	return 1.6 * flux / (math.Pi * math.Sin(math.Pi*(hour-sunrise)/daylight))
}

// SolarHour returns the local solar hour at longitude lon [deg] for a UTC
// time.
func SolarHour(t time.Time, lon Field) Field {
	t = t.UTC()
	h := float64(t.Hour()) + float64(t.Minute())/60 + float64(t.Second())/3600
	return map1(lon, func(lon float64) float64 {
		return math.Mod(h+lon/15+24, 24)
	})
}

// upscale integrates the instantaneous result over the daylight period. It
// reports false when neither an explicit day of year nor a time is known.
func upscale(in *InputSet, r *Result) (*Daylight, bool) {
	doy := in.DayOfYear
	if doy == nil {
		if in.Time.IsZero() {
			return nil, false
		}
		doy = Scalar(float64(in.Time.UTC().YearDay()))
	}

	hour := in.HourOfDay
	var lat Field
	if g := in.Geometry; g.Len() > 0 {
		lat = g.Latitudes()
		if hour == nil && !in.Time.IsZero() {
			hour = SolarHour(in.Time, g.Longitudes())
		}
	}
	if lat == nil || hour == nil {
		return nil, false
	}

	SHA := SunriseHourAngle(doy, lat)
	sunrise := SunriseHour(SHA)
	hours := DaylightHours(SHA)

	rnDaylight := DaylightFlux(r.Rn, hour, sunrise, hours)
	ef := map2(map2(r.Rn, r.G, func(rn, g float64) float64 { return rn - g }), r.LE, evaporativeFraction)
	leDaylight := map2(ef, rnDaylight, func(ef, rn float64) float64 { return ef * rn })

	lambda := LatentHeatOfVaporization(in.Ta)
	n := resultLen(leDaylight, hours, lambda)
	et := mapN(n, func(i int) float64 {
		return leDaylight.At(i) * hours.At(i) * 3600 / lambda.At(i)
	})

	return &Daylight{
		RnDaylight:   rnDaylight,
		LEDaylight:   leDaylight,
		ETDaylightKg: et,
		EF:           ef,
		Hours:        hours,
	}, true
}

func evaporativeFraction(available, le float64) float64 {
	if available == 0 || !isDefined(available) {
		return math.NaN()
	}
	return le / available
}
