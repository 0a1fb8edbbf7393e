package healthstore

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"healthcore/common/config"
	"healthcore/internal/models"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

// remoteAuthorizeRequest POST /v1/authorize
type remoteAuthorizeRequest struct {
	Read  []models.SampleType `json:"read"`
	Write []models.SampleType `json:"write"`
}

type remoteAuthorizeResponse struct {
	Statuses map[models.SampleType]AuthorizationStatus `json:"statuses"`
}

// remoteQueryRequest POST /v1/samples/query
type remoteQueryRequest struct {
	Type         models.SampleType `json:"type"`
	Start        time.Time         `json:"start"`
	End          time.Time         `json:"end"`
	Sort         string            `json:"sort"`
	Limit        int               `json:"limit,omitempty"`
	BundlePrefix string            `json:"bundle_prefix,omitempty"`
}

type remoteSamplesBody struct {
	Samples []models.Sample `json:"samples"`
}

type remoteErrorBody struct {
	Message string `json:"message"`
}

// RemoteStore Store proxied to a host health-data service over HTTP.
type RemoteStore struct {
	httpClient *resty.Client
	auth       *authTracker
	catalog    Catalog
	logger     *zap.Logger
}

var _ Store = (*RemoteStore)(nil)

// NewRemoteStore creates the HTTP adapter. Requests are sent once; writes are not idempotent.
func NewRemoteStore(cfg *config.RemoteStoreConfig, logger *zap.Logger) *RemoteStore {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	client := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetTimeout(timeout).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")
	if cfg.Token != "" {
		client.SetAuthToken(cfg.Token)
	}

	c := DefaultCatalog()
	return &RemoteStore{
		httpClient: client,
		auth:       newAuthTracker(c),
		catalog:    c,
		logger:     logger,
	}
}

// Authorize asks the host for access and records the write statuses it reports.
func (s *RemoteStore) Authorize(ctx context.Context, read, write []models.SampleType) error {
	var result remoteAuthorizeResponse
	var apiErr remoteErrorBody
	resp, err := s.httpClient.R().
		SetContext(ctx).
		SetBody(remoteAuthorizeRequest{Read: read, Write: write}).
		SetResult(&result).
		SetError(&apiErr).
		Post("/v1/authorize")
	if err != nil {
		return fmt.Errorf("failed to call authorize: %w", err)
	}
	if err := s.checkResponse(resp, apiErr, "authorize"); err != nil {
		return err
	}

	s.auth.set(result.Statuses)

	var denied []models.SampleType
	for _, t := range write {
		if result.Statuses[t] == StatusDenied {
			denied = append(denied, t)
		}
	}
	if len(denied) > 0 {
		return fmt.Errorf("%w: %v", ErrAuthorizationDenied, denied)
	}
	return nil
}

func (s *RemoteStore) AuthorizationStatus(t models.SampleType) AuthorizationStatus {
	return s.auth.get(t)
}

func (s *RemoteStore) Capabilities() Catalog {
	return s.catalog.Clone()
}

func (s *RemoteStore) Query(ctx context.Context, q Query) ([]models.Sample, error) {
	if err := validateQuery(s.catalog, q); err != nil {
		return nil, err
	}

	sortName := "end_desc"
	if q.Sort == SortStartAscending {
		sortName = "start_asc"
	}

	var result remoteSamplesBody
	var apiErr remoteErrorBody
	resp, err := s.httpClient.R().
		SetContext(ctx).
		SetBody(remoteQueryRequest{
			Type:         q.Type,
			Start:        q.Interval.Start,
			End:          q.Interval.End,
			Sort:         sortName,
			Limit:        q.Limit,
			BundlePrefix: q.Source.BundlePrefix,
		}).
		SetResult(&result).
		SetError(&apiErr).
		Post("/v1/samples/query")
	if err != nil {
		return nil, fmt.Errorf("failed to query %s samples: %w", q.Type, err)
	}
	if err := s.checkResponse(resp, apiErr, "query"); err != nil {
		return nil, err
	}

	// the host is not trusted to sort or cap
	samples := result.Samples
	if samples == nil {
		samples = make([]models.Sample, 0)
	}
	sortSamples(samples, q.Sort)
	if q.Limit > 0 && len(samples) > q.Limit {
		samples = samples[:q.Limit]
	}
	return samples, nil
}

func (s *RemoteStore) Write(ctx context.Context, samples []models.Sample) error {
	if err := s.auth.checkWrite(samples); err != nil {
		return err
	}
	if len(samples) == 0 {
		return nil
	}

	var apiErr remoteErrorBody
	resp, err := s.httpClient.R().
		SetContext(ctx).
		SetBody(remoteSamplesBody{Samples: samples}).
		SetError(&apiErr).
		Post("/v1/samples")
	if err != nil {
		return fmt.Errorf("failed to write samples: %w", err)
	}
	if err := s.checkResponse(resp, apiErr, "write"); err != nil {
		return err
	}

	s.logger.Info("Wrote samples to remote store", zap.Int("count", len(samples)))
	return nil
}

func (s *RemoteStore) checkResponse(resp *resty.Response, apiErr remoteErrorBody, op string) error {
	switch {
	case resp.StatusCode() == http.StatusForbidden:
		return fmt.Errorf("%w: remote %s: %s", ErrAuthorizationDenied, op, apiErr.Message)
	case resp.IsError():
		s.logger.Error("Remote store returned error",
			zap.String("op", op),
			zap.Int("status_code", resp.StatusCode()),
			zap.String("msg", apiErr.Message),
		)
		return fmt.Errorf("remote store %s failed: %s (status: %d)", op, apiErr.Message, resp.StatusCode())
	}
	return nil
}
