package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"split-pay/pkg/types"
)

// GroupsClient talks to the group/expense backend
type GroupsClient struct {
	baseURL    string
	httpClient *http.Client
	logger     zerolog.Logger
}

// NewGroupsClient creates a client for the group/expense backend
func NewGroupsClient(baseURL string, logger *zerolog.Logger) *GroupsClient {
	lg := zerolog.Nop()
	if logger != nil {
		lg = *logger
	}
	return &GroupsClient{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		httpClient: newHTTPClient(),
		logger:     lg,
	}
}

// GetGroup fetches a group with its items and members
func (c *GroupsClient) GetGroup(ctx context.Context, groupID, chainID int64) (*types.Group, error) {
	endpoint := fmt.Sprintf("%s/groups/%d/%d", c.baseURL, groupID, chainID)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build group request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch group: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, apiError(resp)
	}

	var group types.Group
	if err := json.NewDecoder(resp.Body).Decode(&group); err != nil {
		return nil, fmt.Errorf("failed to decode group: %w", err)
	}
	return &group, nil
}

// updateItemsRequest is the PUT body for item updates
type updateItemsRequest struct {
	ID    string       `json:"id"`
	Items []types.Item `json:"items"`
}

// UpdateItems replaces the item list of a group, e.g. to mark items paid
func (c *GroupsClient) UpdateItems(ctx context.Context, groupID int64, items []types.Item) error {
	body, err := json.Marshal(updateItemsRequest{
		ID:    strconv.FormatInt(groupID, 10),
		Items: items,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal item update: %w", err)
	}

	endpoint := fmt.Sprintf("%s/api/items/%d", c.baseURL, groupID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build item update request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to update items: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return apiError(resp)
	}
	return nil
}

// joinGroupRequest is the POST body for joining a group
type joinGroupRequest struct {
	GroupID string `json:"groupId"`
	User    string `json:"user"`
	ChainID int64  `json:"chainId"`
}

// Join registers a member in an expense group
func (c *GroupsClient) Join(ctx context.Context, groupID int64, user string, chainID int64) error {
	body, err := json.Marshal(joinGroupRequest{
		GroupID: strconv.FormatInt(groupID, 10),
		User:    user,
		ChainID: chainID,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal join request: %w", err)
	}

	endpoint := c.baseURL + "/groups/join"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build join request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to join group: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return apiError(resp)
	}

	var result struct {
		Success bool `json:"success"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return fmt.Errorf("failed to decode join response: %w", err)
	}
	if !result.Success {
		return fmt.Errorf("join request was not accepted")
	}

	c.logger.Debug().Int64("group_id", groupID).Str("user", user).Msg("joined group")
	return nil
}

// GenerateInvite requests an invite code for a group
func (c *GroupsClient) GenerateInvite(ctx context.Context, groupID int64) (*types.Invite, error) {
	endpoint := fmt.Sprintf("%s/api/items/%d/invite", c.baseURL, groupID)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build invite request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to generate invite code: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return nil, apiError(resp)
	}

	var invite types.Invite
	if err := json.NewDecoder(resp.Body).Decode(&invite); err != nil {
		return nil, fmt.Errorf("failed to decode invite: %w", err)
	}
	return &invite, nil
}

// CreateGroup creates a new expense group and returns its id
func (c *GroupsClient) CreateGroup(ctx context.Context, request types.CreateGroupRequest) (string, error) {
	body, err := json.Marshal(request)
	if err != nil {
		return "", fmt.Errorf("failed to marshal group: %w", err)
	}

	endpoint := c.baseURL + "/api/create"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to build create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to create group: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", apiError(resp)
	}

	var created struct {
		ID string `json:"id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
		return "", fmt.Errorf("failed to decode create response: %w", err)
	}
	return created.ID, nil
}
