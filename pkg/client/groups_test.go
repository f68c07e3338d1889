package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"split-pay/pkg/types"
)

func TestGetGroup(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodGet, r.Method)
		require.Equal(t, "/groups/42/11155111", r.URL.Path)
		w.Write([]byte(`{
			"id": 42,
			"name": "Ski trip",
			"owner": "0xOwner",
			"members": ["0xOwner", "0xAlice"],
			"items": [
				{"id": 7, "name": "Cabin", "price": 120000000, "haspaid": false, "payer": "0xAlice"},
				{"id": 9, "name": "Lift tickets", "price": 85500000, "haspaid": true, "payer": "0xAlice"}
			]
		}`))
	}))
	defer server.Close()

	c := NewGroupsClient(server.URL, nil)
	group, err := c.GetGroup(context.Background(), 42, 11155111)
	require.NoError(t, err)
	require.Equal(t, int64(42), group.ID)
	require.Equal(t, "Ski trip", group.Name)
	require.Equal(t, "0xOwner", group.Owner)
	require.Len(t, group.Items, 2)
	require.Equal(t, int64(120000000), group.Items[0].Price)
	require.False(t, group.Items[0].HasPaid)
	require.True(t, group.Items[1].HasPaid)
}

func TestUpdateItems(t *testing.T) {
	var body struct {
		ID    string       `json:"id"`
		Items []types.Item `json:"items"`
	}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPut, r.Method)
		require.Equal(t, "/api/items/42", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	c := NewGroupsClient(server.URL, nil)
	err := c.UpdateItems(context.Background(), 42, []types.Item{
		{ID: 7, Name: "Cabin", Price: 120000000, HasPaid: true, Payer: "0xAlice"},
	})
	require.NoError(t, err)
	require.Equal(t, "42", body.ID)
	require.Len(t, body.Items, 1)
	require.True(t, body.Items[0].HasPaid)
}

func TestJoinGroup(t *testing.T) {
	var body struct {
		GroupID string `json:"groupId"`
		User    string `json:"user"`
		ChainID int64  `json:"chainId"`
	}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/groups/join", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		w.Write([]byte(`{"success":true}`))
	}))
	defer server.Close()

	c := NewGroupsClient(server.URL, nil)
	err := c.Join(context.Background(), 42, "0xAlice", 11155111)
	require.NoError(t, err)
	require.Equal(t, "42", body.GroupID)
	require.Equal(t, "0xAlice", body.User)
	require.Equal(t, int64(11155111), body.ChainID)
}

func TestJoinGroupRejected(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"success":false}`))
	}))
	defer server.Close()

	c := NewGroupsClient(server.URL, nil)
	err := c.Join(context.Background(), 42, "0xAlice", 11155111)
	require.Error(t, err)
	require.Contains(t, err.Error(), "not accepted")
}

func TestJoinGroupServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"message":"group is closed"}`))
	}))
	defer server.Close()

	c := NewGroupsClient(server.URL, nil)
	err := c.Join(context.Background(), 42, "0xAlice", 11155111)
	require.Error(t, err)
	require.Contains(t, err.Error(), "group is closed")
}

func TestGenerateInvite(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/api/items/42/invite", r.URL.Path)
		w.Write([]byte(`{"inviteCode":"SKI-2026","expiresAt":"2026-09-01T00:00:00Z"}`))
	}))
	defer server.Close()

	c := NewGroupsClient(server.URL, nil)
	invite, err := c.GenerateInvite(context.Background(), 42)
	require.NoError(t, err)
	require.Equal(t, "SKI-2026", invite.InviteCode)
	require.Equal(t, 2026, invite.ExpiresAt.Year())
}

func TestCreateGroup(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/api/create", r.URL.Path)

		var req types.CreateGroupRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Equal(t, "Ski trip", req.Title)
		require.Len(t, req.Items, 1)

		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"id":"42"}`))
	}))
	defer server.Close()

	c := NewGroupsClient(server.URL, nil)
	id, err := c.CreateGroup(context.Background(), types.CreateGroupRequest{
		Title:   "Ski trip",
		Members: []string{"0xOwner", "0xAlice"},
		Items:   []types.Item{{Name: "Cabin", Price: 120000000}},
	})
	require.NoError(t, err)
	require.Equal(t, "42", id)
}

func TestGetGroupNotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"message":"group not found"}`))
	}))
	defer server.Close()

	c := NewGroupsClient(server.URL, nil)
	_, err := c.GetGroup(context.Background(), 99, 11155111)
	require.Error(t, err)
	require.Contains(t, err.Error(), "group not found")
}
