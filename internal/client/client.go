package client

import (
	"context"
	"fmt"
	"net/url"
	"path"
	"time"

	"codeberg.org/mutker/atmena/internal/api"
	"codeberg.org/mutker/atmena/internal/errors"
	"codeberg.org/mutker/atmena/internal/ingest"
	"codeberg.org/mutker/atmena/internal/sensor"
	"github.com/go-resty/resty/v2"
)

const defaultTimeout = 30 * time.Second

// APIError is a non-2xx answer from the server.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%d: %s", e.Status, e.Message)
}

// Client talks to a running atmena server.
type Client struct {
	http *resty.Client
}

func New(baseURL string) *Client {
	return &Client{
		http: resty.New().
			SetBaseURL(baseURL).
			SetTimeout(defaultTimeout).
			SetHeader("Accept", "application/json"),
	}
}

// SelectRequest names the rows to fetch. Params carries limit, page,
// offset and the created bounds unchanged.
type SelectRequest struct {
	DeviceID string
	DataType string
	Raw      bool
	Params   url.Values
}

func (r SelectRequest) path() string {
	table := "data"
	if r.Raw {
		table = "rawdata"
	}
	p := path.Join("/v1/device", url.PathEscape(r.DeviceID), table)
	if r.DataType != "" {
		p += "/" + url.PathEscape(r.DataType)
	}
	return p
}

// Select fetches rows in ascending created order.
func (c *Client) Select(ctx context.Context, req SelectRequest) ([]map[string]any, error) {
	var rows []map[string]any
	var apiErr api.ErrorResponse

	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParamsFromValues(req.Params).
		SetResult(&rows).
		SetError(&apiErr).
		Get(req.path())
	if err != nil {
		return nil, errors.New().Wrap(errors.ErrStorageUnavailable, err)
	}
	if resp.IsError() {
		return nil, &APIError{Status: resp.StatusCode(), Message: apiErr.Error}
	}

	if rows == nil {
		rows = []map[string]any{}
	}
	return rows, nil
}

// Ingest posts a raw reading as the firmware does.
func (c *Client) Ingest(ctx context.Context, reading sensor.RawReading) error {
	var apiErr api.ErrorResponse

	resp, err := c.http.R().
		SetContext(ctx).
		SetFormDataFromValues(ingest.EncodeForm(reading)).
		SetError(&apiErr).
		Post(fmt.Sprintf("/v1/device/%d/rawdata", reading.DeviceID))
	if err != nil {
		return errors.New().Wrap(errors.ErrStorageUnavailable, err)
	}
	if resp.IsError() {
		return &APIError{Status: resp.StatusCode(), Message: apiErr.Error}
	}
	return nil
}

// Buildings fetches the site layout.
func (c *Client) Buildings(ctx context.Context) ([]api.Building, error) {
	var buildings []api.Building

	resp, err := c.http.R().
		SetContext(ctx).
		SetResult(&buildings).
		Get("/v1/buildings_zones")
	if err != nil {
		return nil, errors.New().Wrap(errors.ErrStorageUnavailable, err)
	}
	if resp.IsError() {
		return nil, &APIError{Status: resp.StatusCode(), Message: resp.String()}
	}
	return buildings, nil
}
