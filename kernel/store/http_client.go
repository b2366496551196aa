package store

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/openziti/rbrowse/kernel/model"
	"github.com/pkg/errors"
)

// HTTPClient lists resources from a remote rbrowse server.
type HTTPClient struct {
	baseURL    string
	httpClient *http.Client
}

func NewHTTPClient(baseURL string) *HTTPClient {
	return &HTTPClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// ListPath is the route a list request is served from.
func ListPath(clusterId string, kind model.ResourceKind) string {
	return fmt.Sprintf("/api/clusters/%s/resources/%s", url.PathEscape(clusterId), url.PathEscape(string(kind)))
}

// EncodeFetchRequest renders req as list query parameters.
func EncodeFetchRequest(req model.FetchRequest) url.Values {
	params := url.Values{}
	if req.Sort != nil {
		params.Set("sort", req.Sort.String())
	}
	if req.Search != "" {
		params.Set("search", req.Search)
	}
	if req.Query != "" {
		params.Set("query", req.Query)
	}
	if req.StartKey != "" {
		params.Set("startKey", req.StartKey)
	}
	if req.Limit > 0 {
		params.Set("limit", strconv.Itoa(req.Limit))
	}
	return params
}

// DecodeFetchRequest is the inverse of EncodeFetchRequest.
func DecodeFetchRequest(params url.Values) (model.FetchRequest, error) {
	req := model.FetchRequest{
		Search:   params.Get("search"),
		Query:    params.Get("query"),
		StartKey: params.Get("startKey"),
		Limit:    model.DefaultPageSize,
	}
	if s := params.Get("sort"); s != "" {
		sort, err := model.ParseSort(s)
		if err != nil {
			return req, err
		}
		req.Sort = &sort
	}
	if l := params.Get("limit"); l != "" {
		limit, err := strconv.Atoi(l)
		if err != nil || limit <= 0 || limit > model.MaxPageSize {
			return req, errors.Errorf("limit must be between 1 and %d", model.MaxPageSize)
		}
		req.Limit = limit
	}
	return req, nil
}

func (c *HTTPClient) List(ctx context.Context, clusterId string, kind model.ResourceKind, req model.FetchRequest) (*model.FetchResponse, error) {
	resp := &model.FetchResponse{}
	if err := c.getJSON(ctx, ListPath(clusterId, kind), EncodeFetchRequest(req), resp); err != nil {
		return nil, err
	}
	return resp, nil
}

func (c *HTTPClient) Get(ctx context.Context, clusterId string, kind model.ResourceKind, name string) (*model.Resource, error) {
	r := &model.Resource{}
	if err := c.getJSON(ctx, ListPath(clusterId, kind)+"/"+url.PathEscape(name), nil, r); err != nil {
		return nil, err
	}
	return r, nil
}

func (c *HTTPClient) Clusters(ctx context.Context) ([]string, error) {
	var ids []string
	if err := c.getJSON(ctx, "/api/clusters", nil, &ids); err != nil {
		return nil, err
	}
	return ids, nil
}

func (c *HTTPClient) getJSON(ctx context.Context, path string, params url.Values, target interface{}) error {
	u := c.baseURL + path
	if len(params) > 0 {
		u += "?" + params.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return errors.Wrap(err, "creating request")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return errors.Wrapf(err, "GET %s", path)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return errors.Wrap(err, "reading response")
	}
	if resp.StatusCode != http.StatusOK {
		return statusError(resp.StatusCode, body, path)
	}
	if err := json.Unmarshal(body, target); err != nil {
		return errors.Wrapf(err, "parsing response from %s", path)
	}
	return nil
}

func statusError(status int, body []byte, path string) error {
	var payload struct {
		Error string `json:"error"`
	}
	msg := strings.TrimSpace(string(body))
	if json.Unmarshal(body, &payload) == nil && payload.Error != "" {
		msg = payload.Error
	}
	switch status {
	case http.StatusForbidden, http.StatusUnauthorized:
		return errors.Wrap(ErrAccessDenied, msg)
	case http.StatusNotFound:
		return errors.Wrap(ErrNotFound, msg)
	}
	return errors.Errorf("GET %s returned HTTP %d: %s", path, status, msg)
}
