package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/questify/internal/economy"
)

// DefaultTimeout is the default timeout for API requests.
const DefaultTimeout = 10 * time.Second

// IdempotencyHeader carries the client-generated token for economy deltas.
const IdempotencyHeader = "Idempotency-Key"

// Client is a typed wrapper around the Questify REST API.
type Client struct {
	baseURL string
	http    *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithTimeout sets the request timeout of the default http.Client.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.http.Timeout = d
	}
}

// New creates a client for the API rooted at baseURL (e.g. http://localhost:8080).
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		http:    &http.Client{Timeout: DefaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// APIError is returned for non-2xx responses.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("API error (%d): %s", e.Status, e.Message)
}

func (c *Client) do(ctx context.Context, method, path string, body any, header http.Header, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for key, values := range header {
		for _, v := range values {
			req.Header.Add(key, v)
		}
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("API request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode >= 400 {
		var payload struct {
			Error string `json:"error"`
		}
		message := strings.TrimSpace(string(raw))
		if json.Unmarshal(raw, &payload) == nil && payload.Error != "" {
			message = payload.Error
		}
		return &APIError{Status: resp.StatusCode, Message: message}
	}

	if out == nil || len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}
	return nil
}

func userPath(userID uint, parts ...string) string {
	path := "/api/users/" + strconv.FormatUint(uint64(userID), 10)
	for _, p := range parts {
		path += "/" + url.PathEscape(p)
	}
	return path
}

func rewardPath(userID uint, parts ...string) string {
	path := "/api/quests/" + strconv.FormatUint(uint64(userID), 10) + "/pr"
	for _, p := range parts {
		path += "/" + url.PathEscape(p)
	}
	return path
}

// Health reports whether the server answers its liveness probe.
func (c *Client) Health(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, "/api/health", nil, nil, nil)
}

// CreateUser registers a new adventurer.
func (c *Client) CreateUser(ctx context.Context, displayName, email string) (*User, error) {
	var out struct {
		User User `json:"user"`
	}
	body := map[string]string{"display_name": displayName, "email": email}
	if err := c.do(ctx, http.MethodPost, "/api/users", body, nil, &out); err != nil {
		return nil, err
	}
	return &out.User, nil
}

// ListUsers returns all users.
func (c *Client) ListUsers(ctx context.Context) ([]User, error) {
	var out struct {
		Users []User `json:"users"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/users", nil, nil, &out); err != nil {
		return nil, err
	}
	return out.Users, nil
}

// ListTasks returns the user's tasks in insertion order.
func (c *Client) ListTasks(ctx context.Context, userID uint) ([]Task, error) {
	var out struct {
		Tasks []Task `json:"tasks"`
	}
	if err := c.do(ctx, http.MethodGet, userPath(userID, "tasks"), nil, nil, &out); err != nil {
		return nil, err
	}
	return out.Tasks, nil
}

// CreateTask persists a new task.
func (c *Client) CreateTask(ctx context.Context, userID uint, draft TaskDraft) (*Task, error) {
	var out struct {
		Task Task `json:"task"`
	}
	if err := c.do(ctx, http.MethodPost, userPath(userID, "tasks"), draft, nil, &out); err != nil {
		return nil, err
	}
	return &out.Task, nil
}

// ReplaceTask overwrites a task. It never changes the economy.
func (c *Client) ReplaceTask(ctx context.Context, userID uint, taskID string, draft TaskDraft) (*Task, error) {
	var out struct {
		Task Task `json:"task"`
	}
	if err := c.do(ctx, http.MethodPut, userPath(userID, "tasks", taskID), draft, nil, &out); err != nil {
		return nil, err
	}
	return &out.Task, nil
}

// PatchTask applies a partial update. It never changes the economy.
func (c *Client) PatchTask(ctx context.Context, userID uint, taskID string, patch TaskPatch) (*Task, error) {
	var out struct {
		Task Task `json:"task"`
	}
	if err := c.do(ctx, http.MethodPatch, userPath(userID, "tasks", taskID), patch, nil, &out); err != nil {
		return nil, err
	}
	return &out.Task, nil
}

// DeleteTask removes a task without revoking rewards.
func (c *Client) DeleteTask(ctx context.Context, userID uint, taskID string) error {
	return c.do(ctx, http.MethodDelete, userPath(userID, "tasks", taskID), nil, nil, nil)
}

// ToggleTask flips done and returns the server-computed outcome.
func (c *Client) ToggleTask(ctx context.Context, userID uint, taskID string) (*TaskOutcome, error) {
	var out TaskOutcome
	if err := c.do(ctx, http.MethodPost, userPath(userID, "tasks", taskID, "toggle"), nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CompletePomodoro records a focus session on a task.
func (c *Client) CompletePomodoro(ctx context.Context, userID uint, taskID string, focusMinutes int) (*TaskOutcome, error) {
	var out TaskOutcome
	body := map[string]int{"focus_minutes": focusMinutes}
	if err := c.do(ctx, http.MethodPost, userPath(userID, "tasks", taskID, "pomodoro"), body, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetEconomy returns the projected economy record.
func (c *Client) GetEconomy(ctx context.Context, userID uint) (*Economy, error) {
	var out struct {
		Economy Economy `json:"economy"`
	}
	if err := c.do(ctx, http.MethodGet, userPath(userID, "economy"), nil, nil, &out); err != nil {
		return nil, err
	}
	return &out.Economy, nil
}

// ApplyDelta sends a signed delta. A non-empty key makes retries safe.
func (c *Client) ApplyDelta(ctx context.Context, userID uint, delta economy.Delta, reason, idempotencyKey string) (*DeltaOutcome, error) {
	header := http.Header{}
	if idempotencyKey != "" {
		header.Set(IdempotencyHeader, idempotencyKey)
	}
	body := struct {
		economy.Delta
		Reason string `json:"reason,omitempty"`
	}{Delta: delta, Reason: reason}

	var out DeltaOutcome
	if err := c.do(ctx, http.MethodPatch, userPath(userID, "economy"), body, header, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Ledger returns the newest journal entries.
func (c *Client) Ledger(ctx context.Context, userID uint, limit int) ([]LedgerEntry, error) {
	var out struct {
		Entries []LedgerEntry `json:"entries"`
	}
	path := userPath(userID, "economy", "ledger")
	if limit > 0 {
		path += "?limit=" + strconv.Itoa(limit)
	}
	if err := c.do(ctx, http.MethodGet, path, nil, nil, &out); err != nil {
		return nil, err
	}
	return out.Entries, nil
}

// Rollover runs the daily reconciliation for the user.
func (c *Client) Rollover(ctx context.Context, userID uint) (*RolloverOutcome, error) {
	var out RolloverOutcome
	if err := c.do(ctx, http.MethodPatch, userPath(userID, "rollover"), nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ListQuests returns quest definitions.
func (c *Client) ListQuests(ctx context.Context) ([]Quest, error) {
	var out struct {
		Quests []Quest `json:"quests"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/quests", nil, nil, &out); err != nil {
		return nil, err
	}
	return out.Quests, nil
}

// CreateQuest defines a new quest.
func (c *Client) CreateQuest(ctx context.Context, quest Quest) (*Quest, error) {
	var out struct {
		Quest Quest `json:"quest"`
	}
	if err := c.do(ctx, http.MethodPost, "/api/quests", quest, nil, &out); err != nil {
		return nil, err
	}
	return &out.Quest, nil
}

// ListUserQuests returns the user's quest assignments.
func (c *Client) ListUserQuests(ctx context.Context, userID uint) ([]UserQuest, error) {
	var out struct {
		Quests []UserQuest `json:"quests"`
	}
	if err := c.do(ctx, http.MethodGet, userPath(userID, "quests"), nil, nil, &out); err != nil {
		return nil, err
	}
	return out.Quests, nil
}

// AssignQuest assigns a quest definition to the user.
func (c *Client) AssignQuest(ctx context.Context, userID uint, questID string) (*UserQuest, error) {
	var out struct {
		Quest UserQuest `json:"quest"`
	}
	body := map[string]string{"quest_id": questID}
	if err := c.do(ctx, http.MethodPost, userPath(userID, "quests"), body, nil, &out); err != nil {
		return nil, err
	}
	return &out.Quest, nil
}

// CompleteQuest marks a user quest done. Completion is one-way.
func (c *Client) CompleteQuest(ctx context.Context, userID, userQuestID uint) (*QuestOutcome, error) {
	var out QuestOutcome
	path := userPath(userID, "quests", strconv.FormatUint(uint64(userQuestID), 10)) + "?is_done=true"
	if err := c.do(ctx, http.MethodPatch, path, nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ListPendingRewards returns rewards waiting to be claimed.
func (c *Client) ListPendingRewards(ctx context.Context, userID uint) ([]PendingReward, error) {
	var out struct {
		Rewards []PendingReward `json:"rewards"`
	}
	if err := c.do(ctx, http.MethodGet, rewardPath(userID), nil, nil, &out); err != nil {
		return nil, err
	}
	return out.Rewards, nil
}

// ClaimReward claims one pending reward. Claiming a missing id is a no-op.
func (c *Client) ClaimReward(ctx context.Context, userID uint, rewardID string) (*ClaimOutcome, error) {
	var out ClaimOutcome
	if err := c.do(ctx, http.MethodPost, rewardPath(userID, rewardID, "claim"), nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ClaimAllRewards claims every pending reward.
func (c *Client) ClaimAllRewards(ctx context.Context, userID uint) (*ClaimOutcome, error) {
	var out ClaimOutcome
	if err := c.do(ctx, http.MethodPost, rewardPath(userID, "claim"), nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// DiscardReward drops a pending reward without claiming it.
func (c *Client) DiscardReward(ctx context.Context, userID uint, rewardID string) error {
	return c.do(ctx, http.MethodDelete, rewardPath(userID, rewardID), nil, nil, nil)
}

// Shop returns the Guild Hall catalog.
func (c *Client) Shop(ctx context.Context) ([]ShopItem, error) {
	var out struct {
		Items []ShopItem `json:"items"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/shop", nil, nil, &out); err != nil {
		return nil, err
	}
	return out.Items, nil
}

// Buy purchases a catalog item.
func (c *Client) Buy(ctx context.Context, userID uint, itemID string) (*PurchaseOutcome, error) {
	var out PurchaseOutcome
	if err := c.do(ctx, http.MethodPost, userPath(userID, "shop", itemID), nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// BuyCustom purchases a user-defined treat.
func (c *Client) BuyCustom(ctx context.Context, userID uint, name string, cost int) (*PurchaseOutcome, error) {
	var out PurchaseOutcome
	body := map[string]any{"name": name, "cost": cost}
	if err := c.do(ctx, http.MethodPost, userPath(userID, "shop", "custom"), body, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Inventory returns owned items, newest first.
func (c *Client) Inventory(ctx context.Context, userID uint) ([]InventoryItem, error) {
	var out struct {
		Items []InventoryItem `json:"items"`
	}
	if err := c.do(ctx, http.MethodGet, userPath(userID, "inventory"), nil, nil, &out); err != nil {
		return nil, err
	}
	return out.Items, nil
}
