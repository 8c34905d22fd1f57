package snapshot

import (
	"bytes"
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"guthealth-planner/internal/config"
	"guthealth-planner/internal/plan"

	"github.com/golang-jwt/jwt/v5"
)

// EdgeClient mirrors plan snapshots to a remote persistence endpoint.
// Authentication uses a short-lived HMAC token derived from the admin key
// instead of shipping the key itself with every request.
type EdgeClient struct {
	url        string
	adminKey   string // "id:secret" with a hex-encoded secret
	httpClient *http.Client
}

// NewEdgeClient creates a new remote snapshot client.
func NewEdgeClient(cfg *config.Config) *EdgeClient {
	return &EdgeClient{
		url:      cfg.EdgeURL,
		adminKey: cfg.EdgeAdminKey,
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

// Save posts a snapshot to the remote endpoint.
func (c *EdgeClient) Save(ctx context.Context, snap plan.Snapshot) error {
	token, err := c.createToken()
	if err != nil {
		return fmt.Errorf("failed to create edge token: %w", err)
	}

	payload := map[string]interface{}{
		"run_id":           snap.RunID,
		"day_index":        snap.DayIndex,
		"phase":            int(snap.Phase),
		"meal_slot":        string(snap.MealSlot),
		"replace_existing": true,
		"replace_scope":    "meal_slot",
		"suggestion_groups": []map[string]interface{}{
			{
				"meal_slot": string(snap.MealSlot),
				"items":     snap.Items,
			},
		},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.url, bytes.NewBuffer(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send snapshot: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("edge persistence failed: status=%d body=%s", resp.StatusCode, string(respBody))
	}
	return nil
}

// createToken generates a short-lived JWT from the "id:secret" admin key.
func (c *EdgeClient) createToken() (string, error) {
	keyParts := strings.Split(c.adminKey, ":")
	if len(keyParts) != 2 {
		return "", fmt.Errorf("invalid admin key format: expected id:secret")
	}

	id := keyParts[0]
	secret, err := hex.DecodeString(keyParts[1])
	if err != nil {
		return "", fmt.Errorf("failed to decode secret hex: %w", err)
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"iat": time.Now().Unix(),
		"exp": time.Now().Add(5 * time.Minute).Unix(),
		"aud": "/persist/",
	})
	token.Header["kid"] = id

	return token.SignedString(secret)
}
