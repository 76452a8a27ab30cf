package hypixel

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/skybingo/bingobot/internal/errs"
)

// UUID resolves a Minecraft username to its undashed UUID.
func (c *Client) UUID(ctx context.Context, username string) (string, error) {
	username = strings.TrimSpace(username)
	if !validUsername(username) {
		return "", errs.Userf("invalid Minecraft username: %s", username)
	}

	body, status, err := c.get(ctx, c.mojangBase+"/minecraft/profile/lookup/name/"+username)
	if err != nil {
		return "", fmt.Errorf("failed to look up username: %w", err)
	}

	var payload struct {
		ID           string `json:"id"`
		ErrorMessage string `json:"errorMessage"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return "", fmt.Errorf("unexpected profile lookup response: %w", err)
	}
	if status != http.StatusOK {
		return "", errs.Userf("failed to fetch UUID for username: %s", payload.ErrorMessage)
	}

	id, err := uuid.Parse(payload.ID)
	if err != nil {
		return "", fmt.Errorf("no UUID in response: %w", err)
	}
	return strings.ReplaceAll(id.String(), "-", ""), nil
}

// Username resolves a player UUID back to its current username.
func (c *Client) Username(ctx context.Context, playerUUID string) (string, error) {
	body, status, err := c.get(ctx, c.mojangBase+"/minecraft/profile/lookup/"+playerUUID)
	if err != nil {
		return "", fmt.Errorf("failed to look up UUID: %w", err)
	}

	var payload struct {
		Name         string `json:"name"`
		ErrorMessage string `json:"errorMessage"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return "", fmt.Errorf("unexpected profile lookup response: %w", err)
	}
	if status != http.StatusOK {
		return "", fmt.Errorf("failed to fetch username: %s", payload.ErrorMessage)
	}
	if payload.Name == "" {
		return "", fmt.Errorf("no username in response")
	}
	return payload.Name, nil
}

func validUsername(username string) bool {
	if len(username) == 0 || len(username) > 16 {
		return false
	}
	for _, c := range username {
		alnum := (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')
		if !alnum && c != '_' {
			return false
		}
	}
	return true
}
