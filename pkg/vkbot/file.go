package vkbot

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	log "github.com/sirupsen/logrus"
)

type fileInfo struct {
	Type     string `json:"type"`
	Size     int64  `json:"size"`
	Filename string `json:"filename"`
	URL      string `json:"url"`
}

// VK Teams passes files by id; the download link comes from files/getInfo and is temporary,
// so it is resolved right before each download.
func (b *Bot) fileInfo(ctx context.Context, fileID string) (*fileInfo, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, b.apiURL+"/files/getInfo", nil)
	if err != nil {
		return nil, fmt.Errorf("build getInfo request: %w", err)
	}

	query := req.URL.Query()
	query.Add("token", b.token)
	query.Add("fileId", fileID)
	req.URL.RawQuery = query.Encode()

	resp, err := b.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("getInfo %s: %w", fileID, err)
	}
	defer func(Body io.ReadCloser) {
		if err := Body.Close(); err != nil {
			log.Warnf("close getInfo body: %v", err)
		}
	}(resp.Body)

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("getInfo %s: status %d", fileID, resp.StatusCode)
	}

	var info fileInfo
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return nil, fmt.Errorf("decode getInfo: %w", err)
	}
	return &info, nil
}
