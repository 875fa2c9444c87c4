package extract

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// maxFetchBytes bounds how much of any attachment body is read.
const maxFetchBytes = 50 << 20 // 50MB

// errFetch marks network or auth failures, which render as "no content"
// rather than as a decode failure.
var errFetch = errors.New("fetch failed")

// fetch downloads an attachment or page asset with the submission's bearer
// token. The token is normalized so the "Bearer " prefix appears exactly
// once.
func (s *Service) fetch(ctx context.Context, url, token string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, s.fetchTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	if token = strings.TrimSpace(token); token != "" {
		req.Header.Set("Authorization", bearer(token))
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", errFetch, url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%w: %s: status %d", errFetch, url, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxFetchBytes))
	if err != nil {
		return nil, fmt.Errorf("%w: %s: read body: %v", errFetch, url, err)
	}
	return body, nil
}

func bearer(token string) string {
	token = strings.TrimSpace(token)
	if strings.HasPrefix(token, "Bearer ") {
		return token
	}
	return "Bearer " + token
}
