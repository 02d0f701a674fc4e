package api

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogin(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/api/auth/login/", r.URL.Path)
		require.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		require.Equal(t, "alice", body["username"])
		require.Equal(t, "hunter2", body["password"])

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"token":"tok-abc"}`))
	}))
	defer srv.Close()

	c := New(srv.URL)
	token, err := c.Login(context.Background(), "alice", "hunter2")
	require.NoError(t, err)
	assert.Equal(t, "tok-abc", token)
}

func TestLogin_BadCredentials(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":"invalid credentials"}`))
	}))
	defer srv.Close()

	c := New(srv.URL)
	_, err := c.Login(context.Background(), "alice", "wrong")
	require.Error(t, err)

	var apiErr *Error
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)
	assert.Contains(t, apiErr.Body, "invalid credentials")
}

func TestBearerToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "Bearer tok-abc", r.Header.Get("Authorization"))
		_, _ = w.Write([]byte(`{"id":7,"username":"alice"}`))
	}))
	defer srv.Close()

	c := New(srv.URL)
	c.SetToken("tok-abc")
	profile, err := c.GetProfile(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(7), profile.ID)
	assert.Equal(t, "alice", profile.Username)
}

func TestGetUsers(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/auth/get_users/", r.URL.Path)
		_, _ = w.Write([]byte(`{"users":[{"id":1,"username":"alice"},{"id":2,"username":"bob"}]}`))
	}))
	defer srv.Close()

	c := New(srv.URL)
	users, err := c.GetUsers(context.Background())
	require.NoError(t, err)
	require.Len(t, users, 2)
	assert.Equal(t, "bob", users[1].Username)
}

func TestGetGroups(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/auth/user_groups_from_token/", r.URL.Path)
		_, _ = w.Write([]byte(`{"groups":[{"id":5,"name":"backend"}]}`))
	}))
	defer srv.Close()

	c := New(srv.URL)
	groups, err := c.GetGroups(context.Background())
	require.NoError(t, err)
	require.Len(t, groups, 1)
	assert.Equal(t, int64(5), groups[0].ID)
	assert.Equal(t, "backend", groups[0].Name)
}

func TestStartDirectChat(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/api/auth/start_direct_chat/", r.URL.Path)

		var body map[string]int64
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		require.Equal(t, int64(2), body["user_id"])

		_, _ = w.Write([]byte(`{
			"chat_id": 17,
			"receiver_id": 2,
			"messages": [
				{"id":1,"sender_id":2,"sender":"bob","text":"hey","created_at":"2025-06-01T10:00:00Z"}
			]
		}`))
	}))
	defer srv.Close()

	c := New(srv.URL)
	resp, err := c.StartDirectChat(context.Background(), 2)
	require.NoError(t, err)
	assert.Equal(t, int64(17), resp.ChatID)
	require.Len(t, resp.Messages, 1)
	assert.Equal(t, "hey", resp.Messages[0].Text)
	assert.Equal(t, int64(2), resp.Messages[0].SenderID)
}

func TestGroupMessages(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/auth/group_chat_messages/5/", r.URL.Path)
		_, _ = w.Write([]byte(`{"group_id":5,"group_name":"backend","messages":[]}`))
	}))
	defer srv.Close()

	c := New(srv.URL)
	resp, err := c.GroupMessages(context.Background(), 5)
	require.NoError(t, err)
	assert.Equal(t, "backend", resp.GroupName)
	assert.Empty(t, resp.Messages)
}

func TestCreateGroup(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/auth/create_group/", r.URL.Path)

		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		require.Equal(t, "frontend", body["name"])

		_, _ = w.Write([]byte(`{"group_id":9,"group_name":"frontend"}`))
	}))
	defer srv.Close()

	c := New(srv.URL)
	resp, err := c.CreateGroup(context.Background(), "frontend")
	require.NoError(t, err)
	assert.Equal(t, int64(9), resp.GroupID)
}

func TestAddUsersToGroup(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/auth/add_user_to_group/9/", r.URL.Path)

		var body map[string][]int64
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		require.Equal(t, []int64{2, 3}, body["user_ids"])

		_, _ = w.Write([]byte(`{"status":"ok"}`))
	}))
	defer srv.Close()

	c := New(srv.URL)
	require.NoError(t, c.AddUsersToGroup(context.Background(), 9, []int64{2, 3}))
}

func TestUpdateProfilePhoto(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/auth/update_profile_photo/", r.URL.Path)
		require.Contains(t, r.Header.Get("Content-Type"), "multipart/form-data")

		file, header, err := r.FormFile("profile_pic")
		require.NoError(t, err)
		defer func() { _ = file.Close() }()
		require.Equal(t, "me.png", header.Filename)

		data, err := io.ReadAll(file)
		require.NoError(t, err)
		require.Equal(t, "pngdata", string(data))

		_, _ = w.Write([]byte(`{"profile_pic_url":"/media/me.png"}`))
	}))
	defer srv.Close()

	c := New(srv.URL)
	resp, err := c.UpdateProfilePhoto(context.Background(), "me.png", strings.NewReader("pngdata"))
	require.NoError(t, err)
	assert.Equal(t, "/media/me.png", resp.ProfilePicURL)
}

func TestServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte("boom"))
	}))
	defer srv.Close()

	c := New(srv.URL)
	_, err := c.GetUsers(context.Background())

	var apiErr *Error
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusInternalServerError, apiErr.StatusCode)
	assert.Equal(t, "boom", apiErr.Body)
}
