package e2e

import (
	"context"
	"encoding/xml"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/kilianp07/solarsched/core/model"
	"github.com/kilianp07/solarsched/core/scheduler"
	"github.com/kilianp07/solarsched/infra/logger"
	"github.com/kilianp07/solarsched/infra/metrics"
)

const (
	influxOrg    = "e2e_org"
	influxBucket = "e2e_bucket"
	influxToken  = "e2e-token"
)

// junitReport is a minimal representation of a JUnit XML report. The E2E
// suite writes such a report so CI systems can display the results.
type junitReport struct {
	XMLName  xml.Name        `xml:"testsuite"`
	Name     string          `xml:"name,attr"`
	Tests    int             `xml:"tests,attr"`
	Failures int             `xml:"failures,attr"`
	Cases    []junitTestCase `xml:"testcase"`
}

type junitTestCase struct {
	Name    string  `xml:"name,attr"`
	Failure *string `xml:"failure,omitempty"`
	Time    float64 `xml:"time,attr"`
}

// writeJUnit writes the provided report to the given path.
func writeJUnit(path string, rep junitReport) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	enc := xml.NewEncoder(f)
	enc.Indent("", "  ")
	return enc.Encode(rep)
}

// startInflux starts an initialised InfluxDB 2.7 container and returns it
// along with the base URL.
func startInflux(ctx context.Context, t *testing.T) (tc.Container, string) {
	t.Helper()
	req := tc.ContainerRequest{
		Image:        "influxdb:2.7",
		ExposedPorts: []string{"8086/tcp"},
		Env: map[string]string{
			"DOCKER_INFLUXDB_INIT_MODE":        "setup",
			"DOCKER_INFLUXDB_INIT_USERNAME":    "e2e",
			"DOCKER_INFLUXDB_INIT_PASSWORD":    "e2e-password",
			"DOCKER_INFLUXDB_INIT_ORG":         influxOrg,
			"DOCKER_INFLUXDB_INIT_BUCKET":      influxBucket,
			"DOCKER_INFLUXDB_INIT_ADMIN_TOKEN": influxToken,
		},
		WaitingFor: wait.ForHTTP("/health").WithPort("8086/tcp").WithStartupTimeout(60 * time.Second),
	}
	cont, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{ContainerRequest: req, Started: true})
	if err != nil {
		t.Skipf("unable to start influx container: %v", err)
	}
	host, _ := cont.Host(ctx)
	port, _ := cont.MappedPort(ctx, "8086")
	return cont, fmt.Sprintf("http://%s:%s", host, port.Port())
}

// Test_E2E_InfluxSink schedules a small fleet with the rescheduling loop and
// checks that placements and the minute timeline land in InfluxDB.
func Test_E2E_InfluxSink(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping container test in short mode")
	}
	if _, err := exec.LookPath("docker"); err != nil {
		t.Skipf("docker not installed: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()
	started := time.Now()

	cont, url := startInflux(ctx, t)
	defer cont.Terminate(ctx) //nolint:errcheck
	t.Logf("InfluxDB started at %s", url)

	cli := NewInfluxClient(url, influxOrg, influxBucket, influxToken)
	defer cli.Close()
	require.NoError(t, cli.SetupBucket(ctx))

	sink := metrics.NewInfluxSinkWithFallback(url, influxToken, influxOrg, influxBucket)
	influx, ok := sink.(*metrics.InfluxSink)
	require.True(t, ok, "health check failed, got %T", sink)
	defer influx.Close()

	day := model.NewDay(time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC))
	prod := model.NewTimeline()
	for i := 6 * 60; i < 20*60; i++ {
		prod[i] = 40000
	}
	vehicles := []model.Vehicle{
		{ID: "a", Arrival: day.Time(8 * 60), Departure: day.Time(17 * 60), SoCArrive: 30, SoCTarget: 80, BatteryKWh: 60, MaxChargeKW: 11},
		{ID: "b", Arrival: day.Time(9 * 60), Departure: day.Time(13 * 60), SoCArrive: 20, SoCTarget: 90, BatteryKWh: 40, MaxChargeKW: 22},
	}
	r := scheduler.NewRescheduler(scheduler.DefaultFlags(), logger.NopLogger{}, influx, nil)
	res, err := r.Schedule(day, vehicles, prod)
	require.NoError(t, err)
	require.NoError(t, influx.RecordSummary(scheduler.Summarize(res, 40000).Event()))
	require.NoError(t, influx.RecordTimeline(res.TimelineEvent()))

	placed, err := cli.CountField(ctx, res.RunID, "charging_placement", "energy_wh", day.Start, day.End())
	require.NoError(t, err)
	assert.GreaterOrEqual(t, placed, 2)

	minutes, err := cli.CountField(ctx, res.RunID, "power_timeline", "usage_w", day.Start, day.End())
	require.NoError(t, err)
	assert.Equal(t, model.MinutesPerDay, minutes)

	summaries, err := cli.CountField(ctx, res.RunID, "day_summary", "grid_wh", day.Start, day.End())
	require.NoError(t, err)
	assert.Equal(t, 1, summaries)

	rep := junitReport{Name: "e2e", Tests: 1, Cases: []junitTestCase{{Name: t.Name(), Time: time.Since(started).Seconds()}}}
	if err := writeJUnit(filepath.Join(t.TempDir(), "e2e.xml"), rep); err != nil {
		t.Logf("write junit: %v", err)
	}
}
