// Package api implements the HTTP client for the chat server: session
// bootstrap (login, signup, profile), roster listings, conversation
// opening and history, and group management. The synchronization core
// consumes these as external collaborators.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"
)

// DefaultTimeout is the default HTTP request timeout.
const DefaultTimeout = 10 * time.Second

// maxResponseSize limits response body reads.
const maxResponseSize = 10 * 1024 * 1024 // 10MB

// Client is the chat server HTTP client. The bearer token set with
// SetToken is attached to every subsequent request.
type Client struct {
	baseURL    string
	httpClient *http.Client
	token      string
}

// New creates a new client for the given base URL.
func New(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
		},
	}
}

// SetToken sets the bearer token attached to subsequent requests.
func (c *Client) SetToken(token string) {
	c.token = token
}

// Error represents an error response from the chat server.
type Error struct {
	StatusCode int
	Body       string
}

func (e *Error) Error() string {
	return fmt.Sprintf("chat server error (status %d): %s", e.StatusCode, e.Body)
}

// LoginResponse is the response from POST /api/auth/login/.
type LoginResponse struct {
	Token string `json:"token"`
}

// Login validates credentials and returns the bearer token.
func (c *Client) Login(ctx context.Context, username, password string) (string, error) {
	req := map[string]string{"username": username, "password": password}
	var resp LoginResponse
	if err := c.post(ctx, "/api/auth/login/", req, &resp); err != nil {
		return "", err
	}
	return resp.Token, nil
}

// SignupRequest is the request body for POST /api/auth/signup/.
type SignupRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Age      int    `json:"age,omitempty"`
	Gender   string `json:"gender,omitempty"`
}

// Signup registers a new account.
func (c *Client) Signup(ctx context.Context, req *SignupRequest) error {
	var resp map[string]any
	return c.post(ctx, "/api/auth/signup/", req, &resp)
}

// Profile is the authenticated user's profile.
type Profile struct {
	ID            int64  `json:"id"`
	Username      string `json:"username"`
	ProfilePicURL string `json:"profile_pic_url"`
}

// GetProfile fetches the authenticated user's profile.
func (c *Client) GetProfile(ctx context.Context) (*Profile, error) {
	var resp Profile
	if err := c.get(ctx, "/api/auth/get_profile/", &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// User is a roster entry from GET /api/auth/get_users/.
type User struct {
	ID            int64  `json:"id"`
	Username      string `json:"username"`
	ProfilePicURL string `json:"profile_pic_url"`
}

// GetUsers lists all users.
func (c *Client) GetUsers(ctx context.Context) ([]User, error) {
	var resp struct {
		Users []User `json:"users"`
	}
	if err := c.get(ctx, "/api/auth/get_users/", &resp); err != nil {
		return nil, err
	}
	return resp.Users, nil
}

// Group is a roster entry from GET /api/auth/user_groups_from_token/.
type Group struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// GetGroups lists the groups the user belongs to.
func (c *Client) GetGroups(ctx context.Context) ([]Group, error) {
	var resp struct {
		Groups []Group `json:"groups"`
	}
	if err := c.get(ctx, "/api/auth/user_groups_from_token/", &resp); err != nil {
		return nil, err
	}
	return resp.Groups, nil
}

// WireMessage is one history entry as the server serializes it.
type WireMessage struct {
	ID        int64  `json:"id"`
	SenderID  int64  `json:"sender_id"`
	Sender    string `json:"sender"`
	Text      string `json:"text"`
	CreatedAt string `json:"created_at"`
}

// DirectChatResponse is the response from POST /api/auth/start_direct_chat/.
type DirectChatResponse struct {
	ChatID     int64         `json:"chat_id"`
	RoomName   string        `json:"room_name"`
	ReceiverID int64         `json:"receiver_id"`
	Messages   []WireMessage `json:"messages"`
}

// StartDirectChat creates or fetches the direct conversation with a
// user, returning its server-assigned id and history.
func (c *Client) StartDirectChat(ctx context.Context, userID int64) (*DirectChatResponse, error) {
	req := map[string]int64{"user_id": userID}
	var resp DirectChatResponse
	if err := c.post(ctx, "/api/auth/start_direct_chat/", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// GroupMessagesResponse is the response from GET /api/auth/group_chat_messages/{id}/.
type GroupMessagesResponse struct {
	GroupID   int64         `json:"group_id"`
	GroupName string        `json:"group_name"`
	Messages  []WireMessage `json:"messages"`
}

// GroupMessages fetches a group conversation's history.
func (c *Client) GroupMessages(ctx context.Context, groupID int64) (*GroupMessagesResponse, error) {
	var resp GroupMessagesResponse
	path := fmt.Sprintf("/api/auth/group_chat_messages/%d/", groupID)
	if err := c.get(ctx, path, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// CreateGroupResponse is the response from POST /api/auth/create_group/.
type CreateGroupResponse struct {
	GroupID   int64  `json:"group_id"`
	GroupName string `json:"group_name"`
}

// CreateGroup creates a group; the caller becomes its admin.
func (c *Client) CreateGroup(ctx context.Context, name string) (*CreateGroupResponse, error) {
	req := map[string]string{"name": name}
	var resp CreateGroupResponse
	if err := c.post(ctx, "/api/auth/create_group/", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// AddUsersToGroup adds members to a group. Requires group admin.
func (c *Client) AddUsersToGroup(ctx context.Context, groupID int64, userIDs []int64) error {
	req := map[string][]int64{"user_ids": userIDs}
	var resp map[string]any
	path := fmt.Sprintf("/api/auth/add_user_to_group/%d/", groupID)
	return c.post(ctx, path, req, &resp)
}

// UpdateProfilePhotoResponse is the response from POST /api/auth/update_profile_photo/.
type UpdateProfilePhotoResponse struct {
	ProfilePicURL string `json:"profile_pic_url"`
}

// UpdateProfilePhoto uploads a new profile photo as multipart form data.
func (c *Client) UpdateProfilePhoto(ctx context.Context, filename string, photo io.Reader) (*UpdateProfilePhotoResponse, error) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("profile_pic", filename)
	if err != nil {
		return nil, fmt.Errorf("building multipart body: %w", err)
	}
	if _, err := io.Copy(part, photo); err != nil {
		return nil, fmt.Errorf("building multipart body: %w", err)
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("building multipart body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/auth/update_profile_photo/", &body)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	c.authorize(req)

	var resp UpdateProfilePhotoResponse
	if err := c.do(req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) authorize(req *http.Request) {
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
}

// post sends a POST request and decodes the JSON response.
func (c *Client) post(ctx context.Context, path string, reqBody, respBody any) error {
	body, err := json.Marshal(reqBody)
	if err != nil {
		return fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	c.authorize(req)

	return c.do(req, respBody)
}

// get sends a GET request and decodes the JSON response.
func (c *Client) get(ctx context.Context, path string, respBody any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	c.authorize(req)

	return c.do(req, respBody)
}

func (c *Client) do(req *http.Request, respBody any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("sending request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBodyBytes, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize+1))
	if err != nil {
		return fmt.Errorf("reading response: %w", err)
	}
	if int64(len(respBodyBytes)) > maxResponseSize {
		return fmt.Errorf("response exceeds maximum size of %d bytes", maxResponseSize)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &Error{
			StatusCode: resp.StatusCode,
			Body:       string(respBodyBytes),
		}
	}

	if err := json.Unmarshal(respBodyBytes, respBody); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}

	return nil
}
