package store

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/spazza/bi-mail-service/internal/config"
)

const (
	defaultLoginBase = "https://login.microsoftonline.com"
	defaultGraphBase = "https://graph.microsoft.com/v1.0"
)

// Graph talks to a SharePoint document library through the Microsoft Graph
// REST API using the client-credentials grant.
type Graph struct {
	cfg    config.GraphConfig
	client *http.Client
	logger *slog.Logger

	// Overridable in tests.
	loginBase string
	graphBase string

	token       string
	tokenExpiry time.Time
	siteID      string
}

// NewGraph creates a Graph store client. The timeout applies to every
// request, including token acquisition.
func NewGraph(cfg config.GraphConfig, timeout time.Duration, logger *slog.Logger) *Graph {
	return &Graph{
		cfg:       cfg,
		client:    &http.Client{Timeout: timeout},
		logger:    logger,
		loginBase: defaultLoginBase,
		graphBase: defaultGraphBase,
	}
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int    `json:"expires_in"`
}

type driveItem struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Size int64  `json:"size"`
}

type childrenResponse struct {
	Value []driveItem `json:"value"`
}

type siteResponse struct {
	ID string `json:"id"`
}

// List returns the files directly under folder in the site's default drive.
func (g *Graph) List(ctx context.Context, folder string) ([]File, error) {
	site, err := g.site(ctx)
	if err != nil {
		return nil, err
	}

	u := fmt.Sprintf("%s/sites/%s/drive/root:/%s:/children", g.graphBase, site, folder)
	var children childrenResponse
	if err := g.getJSON(ctx, u, &children); err != nil {
		return nil, fmt.Errorf("list folder %s: %w", folder, err)
	}

	files := make([]File, 0, len(children.Value))
	for _, item := range children.Value {
		files = append(files, File{Name: item.Name, ID: item.ID, Size: item.Size})
	}
	g.logger.Debug("listed remote folder", "folder", folder, "files", len(files))
	return files, nil
}

// Download fetches the raw content of a drive item.
func (g *Graph) Download(ctx context.Context, f File) ([]byte, error) {
	site, err := g.site(ctx)
	if err != nil {
		return nil, err
	}

	u := fmt.Sprintf("%s/sites/%s/drive/items/%s/content", g.graphBase, site, f.ID)
	body, err := g.get(ctx, u)
	if err != nil {
		return nil, fmt.Errorf("download %s: %w", f.Name, err)
	}
	g.logger.Info("downloaded remote file", "file", f.Name, "bytes", len(body))
	return body, nil
}

// Upload writes data as folder/name, replacing any existing file.
func (g *Graph) Upload(ctx context.Context, folder, name string, data []byte) error {
	site, err := g.site(ctx)
	if err != nil {
		return err
	}

	tok, err := g.accessToken(ctx)
	if err != nil {
		return err
	}

	u := fmt.Sprintf("%s/sites/%s/drive/root:/%s/%s:/content", g.graphBase, site, folder, name)
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, u, bytes.NewReader(data))
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+tok)

	resp, err := g.client.Do(req)
	if err != nil {
		return fmt.Errorf("upload %s: %w", name, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return fmt.Errorf("upload %s: %s", name, responseError(resp))
	}
	g.logger.Info("uploaded file", "folder", folder, "file", name, "bytes", len(data))
	return nil
}

// accessToken returns a cached token, requesting a new one when it is
// missing or within a minute of expiry.
func (g *Graph) accessToken(ctx context.Context) (string, error) {
	if g.token != "" && time.Now().Before(g.tokenExpiry.Add(-time.Minute)) {
		return g.token, nil
	}

	form := url.Values{
		"client_id":     {g.cfg.ClientID},
		"client_secret": {g.cfg.ClientSecret},
		"scope":         {"https://graph.microsoft.com/.default"},
		"grant_type":    {"client_credentials"},
	}
	u := fmt.Sprintf("%s/%s/oauth2/v2.0/token", g.loginBase, g.cfg.TenantID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, strings.NewReader(form.Encode()))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := g.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("acquire token: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("acquire token: %s", responseError(resp))
	}

	var tok tokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&tok); err != nil {
		return "", fmt.Errorf("decode token response: %w", err)
	}
	if tok.AccessToken == "" {
		return "", fmt.Errorf("acquire token: empty access_token in response")
	}

	g.token = tok.AccessToken
	g.tokenExpiry = time.Now().Add(time.Duration(tok.ExpiresIn) * time.Second)
	g.logger.Debug("acquired graph token", "expires_in", tok.ExpiresIn)
	return g.token, nil
}

// site resolves and caches the site id for the configured host and site name.
func (g *Graph) site(ctx context.Context) (string, error) {
	if g.siteID != "" {
		return g.siteID, nil
	}

	u := fmt.Sprintf("%s/sites/%s:/sites/%s", g.graphBase, g.cfg.Host, g.cfg.Site)
	var site siteResponse
	if err := g.getJSON(ctx, u, &site); err != nil {
		return "", fmt.Errorf("resolve site %s: %w", g.cfg.Site, err)
	}
	if site.ID == "" {
		return "", fmt.Errorf("resolve site %s: empty id in response", g.cfg.Site)
	}
	g.siteID = site.ID
	return g.siteID, nil
}

func (g *Graph) getJSON(ctx context.Context, u string, v any) error {
	body, err := g.get(ctx, u)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func (g *Graph) get(ctx context.Context, u string) ([]byte, error) {
	tok, err := g.accessToken(ctx)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+tok)

	resp, err := g.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%s", responseError(resp))
	}
	return io.ReadAll(resp.Body)
}

func responseError(resp *http.Response) string {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
	return fmt.Sprintf("unexpected status %s: %s", resp.Status, strings.TrimSpace(string(body)))
}
