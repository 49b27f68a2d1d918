// Package api is the HTTP client of the vault API used by the CLI.
package api

import (
	"bytes"
	"context"
	"crypto/tls"
	"crypto/x509"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/palamut62/my-notes/internal/models"
	"github.com/palamut62/my-notes/internal/service"
)

// Error is a non-2xx answer of the server. Message is the plain-text body.
type Error struct {
	Status  int
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("server error (%d): %s", e.Status, e.Message)
}

// IsStatus reports whether err is an *Error with the given status.
func IsStatus(err error, status int) bool {
	var e *Error
	return errors.As(err, &e) && e.Status == status
}

// Client talks to one server with one session token.
type Client struct {
	BaseURL string
	Token   string
	HTTP    *http.Client
}

// New returns a Client for baseURL. caFile, when set, is the PEM bundle
// used to verify the server certificate.
func New(baseURL, caFile string) (*Client, error) {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	if caFile != "" {
		caCert, err := os.ReadFile(caFile)
		if err != nil {
			return nil, fmt.Errorf("failed to read CA cert: %w", err)
		}
		caPool := x509.NewCertPool()
		if !caPool.AppendCertsFromPEM(caCert) {
			return nil, errors.New("failed to parse CA cert")
		}
		transport.TLSClientConfig = &tls.Config{RootCAs: caPool, MinVersion: tls.VersionTLS12}
	}
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		HTTP:    &http.Client{Transport: transport, Timeout: 30 * time.Second},
	}, nil
}

func (c *Client) newRequest(ctx context.Context, method, path string, body io.Reader, contentType string) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, body)
	if err != nil {
		return nil, err
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if c.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.Token)
	}
	return req, nil
}

func (c *Client) send(req *http.Request) (*http.Response, error) {
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	if resp.StatusCode >= 300 {
		defer resp.Body.Close()
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, &Error{Status: resp.StatusCode, Message: strings.TrimSpace(string(data))}
	}
	return resp, nil
}

// do sends in as JSON (when non-nil) and decodes the answer into out
// (when non-nil).
func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	contentType := ""
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(b)
		contentType = "application/json"
	}
	req, err := c.newRequest(ctx, method, path, body, contentType)
	if err != nil {
		return err
	}
	resp, err := c.send(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// Register creates an account.
func (c *Client) Register(ctx context.Context, creds models.Credentials) (*models.User, error) {
	var u models.User
	return &u, c.do(ctx, http.MethodPost, "/api/register", creds, &u)
}

// Login signs in and keeps the returned token for later calls.
func (c *Client) Login(ctx context.Context, creds models.Credentials) (*service.LoginResult, error) {
	var res service.LoginResult
	if err := c.do(ctx, http.MethodPost, "/api/login", creds, &res); err != nil {
		return nil, err
	}
	c.Token = res.Token
	return &res, nil
}

// Logout ends the server session.
func (c *Client) Logout(ctx context.Context) error {
	return c.do(ctx, http.MethodPost, "/api/logout", nil, nil)
}

// Profile returns the one-time code status.
func (c *Client) Profile(ctx context.Context) (*service.ProfileStatus, error) {
	var st service.ProfileStatus
	return &st, c.do(ctx, http.MethodGet, "/api/profile", nil, &st)
}

// MarkCodeShown acknowledges that the one-time code was displayed.
func (c *Client) MarkCodeShown(ctx context.Context) error {
	return c.do(ctx, http.MethodPost, "/api/profile/code/shown", nil, nil)
}

// ListNotes lists one view ("active", "archived" or "trash").
func (c *Client) ListNotes(ctx context.Context, view models.NoteView) ([]models.Note, error) {
	var notes []models.Note
	return notes, c.do(ctx, http.MethodGet, "/api/notes?view="+url.QueryEscape(string(view)), nil, &notes)
}

// GetNote fetches one note.
func (c *Client) GetNote(ctx context.Context, id string) (*models.Note, error) {
	var n models.Note
	return &n, c.do(ctx, http.MethodGet, "/api/notes/"+url.PathEscape(id), nil, &n)
}

// CreateNote stores a new note.
func (c *Client) CreateNote(ctx context.Context, in models.NoteInput) (*models.Note, error) {
	var n models.Note
	return &n, c.do(ctx, http.MethodPost, "/api/notes", in, &n)
}

// UpdateNote changes the given fields of a note.
func (c *Client) UpdateNote(ctx context.Context, id string, upd models.NoteUpdate) (*models.Note, error) {
	var n models.Note
	return &n, c.do(ctx, http.MethodPatch, "/api/notes/"+url.PathEscape(id), upd, &n)
}

// NoteAction runs a lifecycle action: archive, unarchive, trash or restore.
func (c *Client) NoteAction(ctx context.Context, id, action string) error {
	return c.do(ctx, http.MethodPost, "/api/notes/"+url.PathEscape(id)+"/"+action, nil, nil)
}

// DeleteNote removes a note for good.
func (c *Client) DeleteNote(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/api/notes/"+url.PathEscape(id), nil, nil)
}

// ListPasswords lists password entries; secrets are only set for revealed
// entries.
func (c *Client) ListPasswords(ctx context.Context) ([]models.Password, error) {
	var items []models.Password
	return items, c.do(ctx, http.MethodGet, "/api/passwords", nil, &items)
}

// CreatePassword stores a new entry.
func (c *Client) CreatePassword(ctx context.Context, in models.PasswordInput) (*models.Password, error) {
	var p models.Password
	return &p, c.do(ctx, http.MethodPost, "/api/passwords", in, &p)
}

// DeletePassword removes an entry.
func (c *Client) DeletePassword(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/api/passwords/"+url.PathEscape(id), nil, nil)
}

// RequestReveal opens the code prompt of an entry.
func (c *Client) RequestReveal(ctx context.Context, id string) (*service.RevealStatus, error) {
	var st service.RevealStatus
	return &st, c.do(ctx, http.MethodPost, "/api/passwords/"+url.PathEscape(id)+"/reveal", nil, &st)
}

// VerifyReveal submits the one-time code and returns the revealed entry.
func (c *Client) VerifyReveal(ctx context.Context, id, code string) (*models.Password, error) {
	var p models.Password
	return &p, c.do(ctx, http.MethodPost, "/api/passwords/"+url.PathEscape(id)+"/reveal/verify",
		map[string]string{"code": code}, &p)
}

// CancelReveal closes the code prompt.
func (c *Client) CancelReveal(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodPost, "/api/passwords/"+url.PathEscape(id)+"/reveal/cancel", nil, nil)
}

// Hide masks a revealed entry.
func (c *Client) Hide(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodPost, "/api/passwords/"+url.PathEscape(id)+"/hide", nil, nil)
}

// ListFiles lists uploaded files.
func (c *Client) ListFiles(ctx context.Context) ([]models.File, error) {
	var files []models.File
	return files, c.do(ctx, http.MethodGet, "/api/files", nil, &files)
}

// UploadFile uploads the file at path.
func (c *Client) UploadFile(ctx context.Context, path, category, notes string) (*models.File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if category != "" {
		_ = mw.WriteField("category", category)
	}
	if notes != "" {
		_ = mw.WriteField("notes", notes)
	}
	part, err := mw.CreateFormFile("file", filepath.Base(path))
	if err != nil {
		return nil, err
	}
	if _, err := io.Copy(part, f); err != nil {
		return nil, err
	}
	if err := mw.Close(); err != nil {
		return nil, err
	}

	req, err := c.newRequest(ctx, http.MethodPost, "/api/files", &buf, mw.FormDataContentType())
	if err != nil {
		return nil, err
	}
	resp, err := c.send(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var file models.File
	if err := json.NewDecoder(resp.Body).Decode(&file); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	return &file, nil
}

// DownloadFile writes the content of file id to w.
func (c *Client) DownloadFile(ctx context.Context, id string, w io.Writer) (int64, error) {
	req, err := c.newRequest(ctx, http.MethodGet, "/api/files/"+url.PathEscape(id), nil, "")
	if err != nil {
		return 0, err
	}
	resp, err := c.send(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	return io.Copy(w, resp.Body)
}

// DeleteFile removes a file and its content.
func (c *Client) DeleteFile(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/api/files/"+url.PathEscape(id), nil, nil)
}

// BeginAccountDeletion re-checks the password and returns the code the
// user has to type back.
func (c *Client) BeginAccountDeletion(ctx context.Context, password string) (string, error) {
	var res struct {
		Code string `json:"code"`
	}
	if err := c.do(ctx, http.MethodPost, "/api/account/delete", map[string]string{"password": password}, &res); err != nil {
		return "", err
	}
	return res.Code, nil
}

// ConfirmAccountDeletion submits the deletion code.
func (c *Client) ConfirmAccountDeletion(ctx context.Context, code string) error {
	return c.do(ctx, http.MethodPost, "/api/account/delete/confirm", map[string]string{"code": code}, nil)
}

// CancelAccountDeletion abandons the deletion prompt.
func (c *Client) CancelAccountDeletion(ctx context.Context) error {
	return c.do(ctx, http.MethodPost, "/api/account/delete/cancel", nil, nil)
}
