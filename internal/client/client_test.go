package client_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"codeberg.org/mutker/atmena/internal/api"
	"codeberg.org/mutker/atmena/internal/client"
	"codeberg.org/mutker/atmena/internal/ingest"
	"codeberg.org/mutker/atmena/internal/notify"
	"codeberg.org/mutker/atmena/internal/sensor"
	"codeberg.org/mutker/atmena/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newClient(t *testing.T) (*client.Client, *ingest.Pipeline) {
	t.Helper()

	store := storage.NewMemory()
	hub := notify.NewHub(4)
	pipeline := ingest.New(store, hub)
	srv := api.NewServer(api.Config{}, store, pipeline, hub)
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(func() {
		srv.Close()
		ts.Close()
		pipeline.Wait()
	})

	return client.New(ts.URL), pipeline
}

func TestIngestAndSelect(t *testing.T) {
	ctx := context.Background()
	c, pipeline := newClient(t)

	for day := 1; day <= 3; day++ {
		require.NoError(t, c.Ingest(ctx, sensor.RawReading{
			DeviceID: 5000000000,
			Created:  time.Date(2015, 1, day, 12, 0, 0, 0, time.UTC),
			Values:   sensor.RawValues{sensor.CO2: int64(day), sensor.VOC: 13},
		}))
	}
	pipeline.Wait()

	rows, err := c.Select(ctx, client.SelectRequest{
		DeviceID: "5000000000",
		DataType: "co2",
		Raw:      true,
		Params:   url.Values{"limit": {"2"}},
	})
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, 2.0, rows[0]["co2"])
	assert.Equal(t, "2015-01-03T12:00:00Z", rows[1]["created"])

	rows, err = c.Select(ctx, client.SelectRequest{DeviceID: "5000000000", DataType: "voc"})
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, 400.0, rows[0]["voc"])

	rows, err = c.Select(ctx, client.SelectRequest{DeviceID: "1"})
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestAPIErrors(t *testing.T) {
	ctx := context.Background()
	c, _ := newClient(t)

	_, err := c.Select(ctx, client.SelectRequest{DeviceID: "5000000000", DataType: "fake"})
	var apiErr *client.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadRequest, apiErr.Status)
	assert.Equal(t, "Invalid data type 'fake'", apiErr.Message)

	reading := sensor.RawReading{DeviceID: 1, Created: time.Date(2015, 1, 1, 0, 0, 0, 0, time.UTC)}
	require.NoError(t, c.Ingest(ctx, reading))
	err = c.Ingest(ctx, reading)
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadRequest, apiErr.Status)
	assert.Contains(t, apiErr.Message, "Duplicate entry")
}

func TestBuildings(t *testing.T) {
	c, _ := newClient(t)

	buildings, err := c.Buildings(context.Background())
	require.NoError(t, err)
	assert.Equal(t, api.Buildings, buildings)
}
