package validator

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	log "github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

var ErrRateLimited = errors.New("reputation lookup rate limited")

// VirusTotal queries the v2 file/report endpoint by hash.
type VirusTotal struct {
	apiKey  string
	url     string
	client  *http.Client
	limiter *rate.Limiter
}

// NewVirusTotal returns nil when no key is configured so the validator skips the lookup.
func NewVirusTotal(apiKey, url string, perSecond float64) *VirusTotal {
	if apiKey == "" {
		return nil
	}
	limit := rate.Inf
	if perSecond > 0 {
		limit = rate.Limit(perSecond)
	}
	return &VirusTotal{
		apiKey:  apiKey,
		url:     url,
		client:  &http.Client{Timeout: 10 * time.Second},
		limiter: rate.NewLimiter(limit, 1),
	}
}

type vtReport struct {
	ResponseCode int `json:"response_code"`
	Positives    int `json:"positives"`
}

func (v *VirusTotal) Lookup(ctx context.Context, hash string) (Report, error) {
	// the public API allows a handful of requests per minute; skipping beats stalling the upload
	if !v.limiter.Allow() {
		return Report{}, ErrRateLimited
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, v.url, nil)
	if err != nil {
		return Report{}, err
	}
	query := req.URL.Query()
	query.Add("apikey", v.apiKey)
	query.Add("resource", hash)
	req.URL.RawQuery = query.Encode()

	resp, err := v.client.Do(req)
	if err != nil {
		return Report{}, fmt.Errorf("virustotal request: %w", err)
	}
	defer func(Body io.ReadCloser) {
		if err := Body.Close(); err != nil {
			log.Warnf("close virustotal body: %v", err)
		}
	}(resp.Body)

	if resp.StatusCode != http.StatusOK {
		return Report{}, fmt.Errorf("virustotal status %d", resp.StatusCode)
	}

	var body vtReport
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return Report{}, fmt.Errorf("decode virustotal report: %w", err)
	}

	return Report{Known: body.ResponseCode == 1, Positives: body.Positives}, nil
}
