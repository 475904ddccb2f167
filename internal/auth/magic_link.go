package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"ms-gallery/internal/logger"
)

// MagicLinkClient asks the hosted authentication service to email a one-time sign-in link.
type MagicLinkClient struct {
	BaseURL     string
	APIKey      string
	RedirectURL string
	Client      *http.Client
	Logger      *logger.Logger
}

func (c *MagicLinkClient) SendMagicLink(ctx context.Context, email string) error {
	if c.BaseURL == "" {
		return fmt.Errorf("authentication service URL is not configured")
	}

	otpURL, err := url.Parse(strings.TrimRight(c.BaseURL, "/") + "/auth/v1/otp")
	if err != nil {
		return fmt.Errorf("invalid authentication service URL: %w", err)
	}
	if c.RedirectURL != "" {
		q := otpURL.Query()
		q.Set("redirect_to", c.RedirectURL)
		otpURL.RawQuery = q.Encode()
	}

	body, err := json.Marshal(map[string]interface{}{
		"email":       email,
		"create_user": true,
	})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, otpURL.String(), bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.APIKey != "" {
		req.Header.Set("apikey", c.APIKey)
		req.Header.Set("Authorization", "Bearer "+c.APIKey)
	}

	resp, err := c.Client.Do(req)
	if err != nil {
		c.Logger.Error("AUTH", fmt.Sprintf("Magic link request failed: %v", err))
		return fmt.Errorf("magic link request failed: %w", err)
	}
	defer func() {
		if cerr := resp.Body.Close(); cerr != nil {
			c.Logger.Warn("AUTH", fmt.Sprintf("Error closing response body: %v", cerr))
		}
	}()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		bodyBytes, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		c.Logger.Error("AUTH", fmt.Sprintf("Magic link response %s: %s", resp.Status, string(bodyBytes)))
		return fmt.Errorf("failed to send magic link, status: %s", resp.Status)
	}

	c.Logger.Info("AUTH", "Magic link requested")
	return nil
}
