package domain

import (
	"strings"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testScenarioID = "scn-42"

func TestParseScenario(t *testing.T) {
	t.Run("asteroid id scenario", func(t *testing.T) {
		data := []byte(`{"asteroid_id":" 99942 ","source":"HORIZONS","lat":19.43,"lon":-99.13,"country_code":"mx","velocity_km_s":17.5}`)
		req, err := ParseScenario(RawEvent{Value: data})

		require.NoError(t, err)
		assert.Equal(t, "99942", req.AsteroidID)
		assert.Equal(t, SourceHorizons, req.Source)
		assert.Equal(t, "MX", req.CountryCode)
		assert.Equal(t, 19.43, req.Lat)
		assert.Equal(t, -99.13, req.Lon)
		require.NotNil(t, req.VelocityKmS)
		assert.Equal(t, 17.5, *req.VelocityKmS)
		assert.Nil(t, req.Profile)
	})

	t.Run("inline profile scenario", func(t *testing.T) {
		data := []byte(`{"profile":{"name":"Test Rock","profile":{"radius_km":0.05,"material":"metallic"},"ephemeris":[{"relative_velocity_km_s":12.1,"date":"2031-01-01"}]},"lat":0,"lon":0,"area_cap_km2":500}`)
		req, err := ParseScenario(RawEvent{Value: data})

		require.NoError(t, err)
		require.NotNil(t, req.Profile)
		assert.Equal(t, "Test Rock", req.Profile.Name)
		assert.Equal(t, MaterialMetallic, req.Profile.Profile.Material)
		require.Len(t, req.Profile.Ephemeris, 1)
		assert.Equal(t, 12.1, *req.Profile.Ephemeris[0].RelativeVelocityKmS)
		assert.Equal(t, 500.0, req.AreaCapKm2)
	})

	t.Run("invalid JSON", func(t *testing.T) {
		_, err := ParseScenario(RawEvent{Value: []byte("{invalid json")})
		require.ErrorIs(t, err, ErrInvalidScenario)
		assert.Contains(t, err.Error(), "decode")
	})
}

func TestValidateScenario(t *testing.T) {
	valid := ScenarioRequest{AsteroidID: "3542519", Lat: 10, Lon: 20}
	require.NoError(t, ValidateScenario(valid))

	tests := []struct {
		name   string
		mutate func(*ScenarioRequest)
		field  string
	}{
		{"missing asteroid and profile", func(r *ScenarioRequest) { r.AsteroidID = "" }, "AsteroidID"},
		{"latitude out of range", func(r *ScenarioRequest) { r.Lat = 91 }, "Lat"},
		{"longitude out of range", func(r *ScenarioRequest) { r.Lon = -180.5 }, "Lon"},
		{"unknown source", func(r *ScenarioRequest) { r.Source = "sbdb" }, "Source"},
		{"bad country code", func(r *ScenarioRequest) { r.CountryCode = "ZZ" }, "CountryCode"},
		{"negative cap", func(r *ScenarioRequest) { r.AreaCapKm2 = -1 }, "AreaCapKm2"},
		{"zero velocity override", func(r *ScenarioRequest) { v := 0.0; r.VelocityKmS = &v }, "VelocityKmS"},
		{"oversized scenario id", func(r *ScenarioRequest) { r.ScenarioID = strings.Repeat("x", 129) }, "ScenarioID"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := valid
			tt.mutate(&req)
			err := ValidateScenario(req)
			require.ErrorIs(t, err, ErrInvalidScenario)
			assert.Contains(t, err.Error(), tt.field)
		})
	}

	t.Run("profile replaces asteroid id", func(t *testing.T) {
		req := ScenarioRequest{Profile: &Asteroid{Profile: PhysicalProfile{RadiusKm: 1}}}
		assert.NoError(t, ValidateScenario(req))
	})
}

func TestBuildReport(t *testing.T) {
	fakeClock := clockwork.NewFakeClockAt(time.Date(2029, time.April, 13, 21, 46, 0, 0, time.UTC))
	SetClock(fakeClock)
	t.Cleanup(func() { SetClock(nil) })

	req := ScenarioRequest{AsteroidID: "99942", Lat: 19.43, Lon: -99.13}
	country := &Country{Code: "MX", Name: "Mexico", AreaKm2: 1964375}

	t.Run("estimated", func(t *testing.T) {
		est, err := Estimate(rockyAsteroid(0.5), country.AreaKm2, ptr(20.0))
		require.NoError(t, err)

		r := BuildReport(req, SourceHorizons, country, &est, nil)
		assert.Equal(t, StatusEstimated, r.Status)
		assert.Empty(t, r.Error)
		assert.Equal(t, &est, r.Estimate)
		assert.Equal(t, "75,085.87 Mt · crater 22.09 km · 383.36 km² affected", r.Summary)
		assert.Equal(t, Location{Lat: 19.43, Lon: -99.13}, r.Location)
		assert.Equal(t, fakeClock.Now(), r.ProcessedAt)
		assert.True(t, strings.HasPrefix(r.ID, "impact-"))
	})

	t.Run("insufficient data", func(t *testing.T) {
		r := BuildReport(req, SourceNeoWs, country, nil, ErrInsufficientData)
		assert.Equal(t, StatusInsufficientData, r.Status)
		assert.Nil(t, r.Estimate)
		assert.Empty(t, r.Summary)
		assert.Contains(t, r.Error, "insufficient data")
	})

	t.Run("unresolved", func(t *testing.T) {
		r := BuildReport(req, SourceHorizons, nil, nil, ErrUnknownCountry)
		assert.Equal(t, StatusUnresolved, r.Status)
		assert.Nil(t, r.Country)
		assert.Equal(t, ErrUnknownCountry.Error(), r.Error)
	})

	t.Run("scenario id is the report id", func(t *testing.T) {
		withID := req
		withID.ScenarioID = testScenarioID
		r := BuildReport(withID, SourceHorizons, nil, nil, ErrUnknownCountry)
		assert.Equal(t, testScenarioID, r.ID)
	})
}

func TestReportID_Deterministic(t *testing.T) {
	req := ScenarioRequest{AsteroidID: "99942", Lat: 19.43, Lon: -99.13, AreaCapKm2: 100}
	assert.Equal(t, reportID(req, SourceHorizons), reportID(req, SourceHorizons))
	assert.NotEqual(t, reportID(req, SourceHorizons), reportID(req, SourceNeoWs))

	v := 11.0
	withVelocity := req
	withVelocity.VelocityKmS = &v
	assert.NotEqual(t, reportID(req, SourceHorizons), reportID(withVelocity, SourceHorizons))
}

func TestReportID_DistinctScenarios(t *testing.T) {
	base := ScenarioRequest{AsteroidID: "99942", Lat: 10, Lon: 20}
	small := rockyAsteroid(0.01)
	large := rockyAsteroid(5)

	tests := []struct {
		name string
		a, b ScenarioRequest
	}{
		{
			name: "inline profiles with different radii",
			a:    ScenarioRequest{Lat: 10, Lon: 20, Profile: &small},
			b:    ScenarioRequest{Lat: 10, Lon: 20, Profile: &large},
		},
		{
			name: "different country codes",
			a:    ScenarioRequest{AsteroidID: "99942", Lat: 10, Lon: 20, CountryCode: "FR"},
			b:    ScenarioRequest{AsteroidID: "99942", Lat: 10, Lon: 20, CountryCode: "DE"},
		},
		{
			name: "inline profile versus lookup",
			a:    base,
			b:    ScenarioRequest{AsteroidID: "99942", Lat: 10, Lon: 20, Profile: &small},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.NotEqual(t, reportID(tt.a, SourceInline), reportID(tt.b, SourceInline))
		})
	}
}

func TestReportID_InlineProfileStable(t *testing.T) {
	p1, p2 := rockyAsteroid(0.5), rockyAsteroid(0.5)
	a := ScenarioRequest{Lat: 10, Lon: 20, Profile: &p1}
	b := ScenarioRequest{Lat: 10, Lon: 20, Profile: &p2}
	assert.Equal(t, reportID(a, SourceInline), reportID(b, SourceInline))
}

func TestValidateFeedWindow(t *testing.T) {
	start := time.Date(2029, time.April, 10, 0, 0, 0, 0, time.UTC)

	require.NoError(t, ValidateFeedWindow(start, start))
	require.NoError(t, ValidateFeedWindow(start, start.AddDate(0, 0, 7)))
	require.ErrorIs(t, ValidateFeedWindow(start, start.AddDate(0, 0, 8)), ErrInvalidFeedWindow)
	require.ErrorIs(t, ValidateFeedWindow(start, start.AddDate(0, 0, -1)), ErrInvalidFeedWindow)
}
