package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"github.com/mlevasseur/lessonplan-cli/internal/domain"
	"github.com/mlevasseur/lessonplan-cli/internal/ports"
)

const maxResponseBytes = 4 << 20

// Client is the single point of outbound communication with the lesson-plan
// service. It holds the bearer credential in memory and mirrors every change
// into the secret store so the session survives between invocations.
type Client struct {
	baseURL string
	http    *http.Client
	secrets ports.SecretStore
	credKey string

	mu    sync.RWMutex
	token string
}

var (
	_ ports.AuthAPI         = (*Client)(nil)
	_ ports.ProfileAPI      = (*Client)(nil)
	_ ports.PlanAPI         = (*Client)(nil)
	_ ports.ChatAPI         = (*Client)(nil)
	_ ports.FileAPI         = (*Client)(nil)
	_ ports.CredentialCache = (*Client)(nil)
)

func NewClient(baseURL string, httpClient *http.Client, secrets ports.SecretStore, credentialKey string) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    httpClient,
		secrets: secrets,
		credKey: credentialKey,
	}

	// Initialize from persisted storage; absence just means anonymous.
	if token, err := secrets.Get(context.Background(), credentialKey); err == nil {
		c.token = strings.TrimSpace(token)
	}

	return c
}

func (c *Client) SetCredential(ctx context.Context, token string) error {
	if err := c.secrets.Put(ctx, c.credKey, token); err != nil {
		return fmt.Errorf("persist credential: %w", err)
	}

	c.mu.Lock()
	c.token = token
	c.mu.Unlock()
	return nil
}

func (c *Client) ClearCredential(ctx context.Context) error {
	c.mu.Lock()
	c.token = ""
	c.mu.Unlock()

	if err := c.secrets.Delete(ctx, c.credKey); err != nil {
		return fmt.Errorf("remove persisted credential: %w", err)
	}
	return nil
}

func (c *Client) HasCredential() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token != ""
}

func (c *Client) credential() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

// do issues one request and decodes the JSON response into out (when out is
// non-nil). Non-success statuses become a kind-tagged *Error carrying op.
func (c *Client) do(ctx context.Context, op, method, path string, query url.Values, body any, out any) error {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("%s: encode request: %w", op, err)
		}
		reader = bytes.NewReader(encoded)
	}

	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return fmt.Errorf("%s: create request: %w", op, err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	return c.send(req, op, out)
}

func (c *Client) send(req *http.Request, op string, out any) error {
	if token := c.credential(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return &Error{Kind: KindRequest, Op: op, Message: err.Error()}
	}
	defer func() { _ = resp.Body.Close() }()

	payload, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return &Error{Kind: KindRequest, Op: op, Status: resp.StatusCode, Message: err.Error()}
	}

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		kind := KindRequest
		if resp.StatusCode == http.StatusUnauthorized {
			kind = KindAuth
		}
		return &Error{Kind: kind, Op: op, Status: resp.StatusCode, Message: errorDetail(payload)}
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(payload, out); err != nil {
		return &Error{Kind: KindDecode, Op: op, Status: resp.StatusCode, Message: err.Error()}
	}
	return nil
}

func errorDetail(payload []byte) string {
	var body errorBody
	if err := json.Unmarshal(payload, &body); err == nil && body.Detail != "" {
		return body.Detail
	}

	detail := strings.TrimSpace(string(payload))
	if detail == "" {
		detail = "request failed"
	}
	return detail
}

// --- auth ---

func (c *Client) ExchangeGoogleToken(ctx context.Context, googleToken string) error {
	var resp tokenResponse
	err := c.do(ctx, "auth.google", http.MethodPost, "/auth/google", nil, googleAuthRequest{Token: googleToken}, &resp)
	if err != nil {
		var apiErr *Error
		if errors.As(err, &apiErr) {
			apiErr.Kind = KindAuth
		}
		return err
	}
	if strings.TrimSpace(resp.AccessToken) == "" {
		return &Error{Kind: KindDecode, Op: "auth.google", Message: "token response missing access_token"}
	}

	return c.SetCredential(ctx, resp.AccessToken)
}

// CurrentUser resolves the identity for the stored credential. A rejected
// credential is cleared before the failure is raised so it cannot be retried
// silently.
func (c *Client) CurrentUser(ctx context.Context) (domain.User, error) {
	var payload userPayload
	err := c.do(ctx, "auth.me", http.MethodGet, "/auth/me", nil, nil, &payload)
	if err != nil {
		var apiErr *Error
		if errors.As(err, &apiErr) && apiErr.Status == http.StatusUnauthorized {
			_ = c.ClearCredential(ctx)
		}
		return domain.User{}, err
	}
	return payload.toDomain(), nil
}

func (c *Client) Logout(ctx context.Context) error {
	return c.do(ctx, "auth.logout", http.MethodPost, "/auth/logout", nil, nil, nil)
}

// --- profile ---

func (c *Client) UpdateProfile(ctx context.Context, update ports.ProfileUpdate) (domain.User, error) {
	var payload userPayload
	req := profileUpdateRequest{Name: update.Name, Avatar: update.Avatar}
	if err := c.do(ctx, "users.profile.update", http.MethodPut, "/users/profile", nil, req, &payload); err != nil {
		return domain.User{}, err
	}
	return payload.toDomain(), nil
}

func (c *Client) ReplaceAPIKeys(ctx context.Context, keysByProvider map[string]string) error {
	return c.do(ctx, "users.api-keys.replace", http.MethodPut, "/users/api-keys", nil, keysByProvider, nil)
}

func (c *Client) MaskedAPIKeys(ctx context.Context) (map[string]string, error) {
	var resp maskedAPIKeysResponse
	if err := c.do(ctx, "users.api-keys.get", http.MethodGet, "/users/api-keys", nil, nil, &resp); err != nil {
		return nil, err
	}
	return resp.APIKeys, nil
}

func (c *Client) APIKeysConfigured(ctx context.Context) (ports.APIKeyStatus, error) {
	var resp apiKeysConfiguredResponse
	if err := c.do(ctx, "users.api-keys.configured", http.MethodGet, "/users/api-keys/configured", nil, nil, &resp); err != nil {
		return ports.APIKeyStatus{}, err
	}
	return ports.APIKeyStatus{Configured: resp.Configured, MissingKeys: resp.MissingKeys}, nil
}

// --- lesson plans ---

func (c *Client) CreatePlan(ctx context.Context, draft domain.PlanDraft) (domain.LessonPlan, error) {
	req := planCreateRequest{
		Title:    draft.Title,
		Subject:  draft.Subject,
		AgeGroup: draft.AgeGroup,
	}
	if draft.Description != "" {
		req.Description = &draft.Description
	}

	var payload planPayload
	if err := c.do(ctx, "plans.create", http.MethodPost, "/lesson-plans/", nil, req, &payload); err != nil {
		return domain.LessonPlan{}, err
	}
	return payload.toDomain(), nil
}

func (c *Client) ListPlans(ctx context.Context, filter domain.PlanFilter) ([]domain.LessonPlan, error) {
	query := url.Values{}
	if filter.Status != "" {
		query.Set("status", string(filter.Status))
	}
	if filter.Subject != "" {
		query.Set("subject", filter.Subject)
	}
	if filter.Limit > 0 {
		query.Set("limit", strconv.Itoa(filter.Limit))
	}
	if filter.Skip > 0 {
		query.Set("skip", strconv.Itoa(filter.Skip))
	}

	var payloads []planPayload
	if err := c.do(ctx, "plans.list", http.MethodGet, "/lesson-plans/", query, nil, &payloads); err != nil {
		return nil, err
	}

	plans := make([]domain.LessonPlan, 0, len(payloads))
	for _, payload := range payloads {
		plans = append(plans, payload.toDomain())
	}
	return plans, nil
}

func (c *Client) GetPlan(ctx context.Context, id domain.PlanID) (domain.LessonPlan, error) {
	var payload planPayload
	if err := c.do(ctx, "plans.get", http.MethodGet, "/lesson-plans/"+url.PathEscape(string(id)), nil, nil, &payload); err != nil {
		return domain.LessonPlan{}, err
	}
	return payload.toDomain(), nil
}

func (c *Client) UpdatePlan(ctx context.Context, id domain.PlanID, patch domain.PlanPatch) (domain.LessonPlan, error) {
	req := planUpdateRequest{
		Title:       patch.Title,
		Subject:     patch.Subject,
		AgeGroup:    patch.AgeGroup,
		Description: patch.Description,
		Outline:     patch.Outline,
		Details:     patch.Details,
	}
	if patch.Status != nil {
		status := string(*patch.Status)
		req.Status = &status
	}

	var payload planPayload
	if err := c.do(ctx, "plans.update", http.MethodPut, "/lesson-plans/"+url.PathEscape(string(id)), nil, req, &payload); err != nil {
		return domain.LessonPlan{}, err
	}
	return payload.toDomain(), nil
}

func (c *Client) DeletePlan(ctx context.Context, id domain.PlanID) error {
	return c.do(ctx, "plans.delete", http.MethodDelete, "/lesson-plans/"+url.PathEscape(string(id)), nil, nil, nil)
}

// --- chat ---

func (c *Client) SendMessage(ctx context.Context, planID domain.PlanID, text string, attachments []string) (ports.ChatReply, error) {
	req := chatSendRequest{
		Message:      text,
		LessonPlanID: string(planID),
		Attachments:  attachments,
	}

	var resp chatSendResponse
	if err := c.do(ctx, "chat.send", http.MethodPost, "/chat/message", nil, req, &resp); err != nil {
		return ports.ChatReply{}, err
	}

	reply := ports.ChatReply{
		Message:     resp.Message,
		PlanUpdated: resp.LessonPlanUpdated,
	}
	if resp.NewStatus != nil {
		reply.NewStatus = domain.PlanStatus(*resp.NewStatus)
	}
	return reply, nil
}

func (c *Client) ListMessages(ctx context.Context, planID domain.PlanID) ([]domain.Message, error) {
	var payloads []messagePayload
	path := "/chat/" + url.PathEscape(string(planID)) + "/messages"
	if err := c.do(ctx, "chat.messages", http.MethodGet, path, nil, nil, &payloads); err != nil {
		return nil, err
	}

	messages := make([]domain.Message, 0, len(payloads))
	for _, payload := range payloads {
		messages = append(messages, payload.toDomain())
	}
	return messages, nil
}

func (c *Client) ClearMessages(ctx context.Context, planID domain.PlanID) error {
	path := "/chat/" + url.PathEscape(string(planID)) + "/messages"
	return c.do(ctx, "chat.clear", http.MethodDelete, path, nil, nil, nil)
}

// --- files ---

// UploadFile posts one multipart upload. The request content type is left to
// the multipart writer so the boundary is set automatically; the file part
// carries a content type derived from the filename extension, which the
// service validates against its allowlist.
func (c *Client) UploadFile(ctx context.Context, planID domain.PlanID, filename string, content io.Reader) (domain.FileInfo, error) {
	const op = "files.upload"

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	partHeader := make(textproto.MIMEHeader)
	partHeader.Set("Content-Disposition",
		fmt.Sprintf(`form-data; name="file"; filename=%q`, filepath.Base(filename)))
	partHeader.Set("Content-Type", contentTypeFor(filename))

	part, err := writer.CreatePart(partHeader)
	if err != nil {
		return domain.FileInfo{}, &Error{Kind: KindUpload, Op: op, Message: err.Error()}
	}
	size, err := io.Copy(part, content)
	if err != nil {
		return domain.FileInfo{}, &Error{Kind: KindUpload, Op: op, Message: err.Error()}
	}
	if planID != "" {
		if err := writer.WriteField("lesson_plan_id", string(planID)); err != nil {
			return domain.FileInfo{}, &Error{Kind: KindUpload, Op: op, Message: err.Error()}
		}
	}
	if err := writer.Close(); err != nil {
		return domain.FileInfo{}, &Error{Kind: KindUpload, Op: op, Message: err.Error()}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/files/upload", &buf)
	if err != nil {
		return domain.FileInfo{}, &Error{Kind: KindUpload, Op: op, Message: err.Error()}
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	var resp uploadResponse
	if err := c.send(req, op, &resp); err != nil {
		var apiErr *Error
		if errors.As(err, &apiErr) && apiErr.Kind == KindRequest {
			apiErr.Kind = KindUpload
		}
		return domain.FileInfo{}, err
	}

	return domain.FileInfo{
		ID:          domain.FileID(resp.FileID),
		Filename:    resp.Filename,
		ContentType: contentTypeFor(filename),
		Size:        size,
		PlanID:      planID,
	}, nil
}

func (c *Client) ListFiles(ctx context.Context, planID domain.PlanID) ([]domain.FileInfo, error) {
	query := url.Values{}
	if planID != "" {
		query.Set("lesson_plan_id", string(planID))
	}

	var payloads []filePayload
	if err := c.do(ctx, "files.list", http.MethodGet, "/files/", query, nil, &payloads); err != nil {
		return nil, err
	}

	files := make([]domain.FileInfo, 0, len(payloads))
	for _, payload := range payloads {
		files = append(files, payload.toDomain())
	}
	return files, nil
}

func (c *Client) DeleteFile(ctx context.Context, id domain.FileID) error {
	return c.do(ctx, "files.delete", http.MethodDelete, "/files/"+url.PathEscape(string(id)), nil, nil, nil)
}

// contentTypeFor strips media-type parameters; the service matches the bare
// type against its allowlist.
func contentTypeFor(filename string) string {
	contentType := mime.TypeByExtension(filepath.Ext(filename))
	if contentType == "" {
		return "application/octet-stream"
	}
	if base, _, err := mime.ParseMediaType(contentType); err == nil {
		return base
	}
	return contentType
}
