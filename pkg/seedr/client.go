// Package seedr is a client for the remote BitTorrent-to-cloud service the
// download pipeline drives: add a magnet, wait for the remote fetch to
// finish, pull the finished files to local disk and delete the remote copy.
package seedr

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	retry "github.com/avast/retry-go"
	"github.com/bangumarr/bangumarr/pkg/models"
	"github.com/melbahja/got"
)

const (
	baseURL        = "https://www.seedr.cc/rest"
	defaultTimeout = 30 * time.Second

	// Conservative waits for the asynchronous remote fetch; deliberate
	// throttling, not tunables to optimize away.
	defaultInitialWait  = 30 * time.Second
	defaultPollInterval = 30 * time.Second
	defaultPollAttempts = 5

	transientAttempts = 3
	transientDelay    = 2 * time.Second
)

type Config struct {
	Email    string
	Password string
	Client   *http.Client

	// Zero values fall back to the defaults above. Tests shorten them.
	InitialWait  time.Duration
	PollInterval time.Duration
	PollAttempts int
}

type Client struct {
	email        string
	password     string
	httpClient   *http.Client
	baseURL      string
	initialWait  time.Duration
	pollInterval time.Duration
	pollAttempts int
}

func NewClient(cfg *Config) (*Client, error) {
	if cfg.Email == "" || cfg.Password == "" {
		return nil, ErrCredentialsNotSet
	}

	httpClient := cfg.Client
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultTimeout}
	}

	c := &Client{
		email:        cfg.Email,
		password:     cfg.Password,
		httpClient:   httpClient,
		baseURL:      baseURL,
		initialWait:  cfg.InitialWait,
		pollInterval: cfg.PollInterval,
		pollAttempts: cfg.PollAttempts,
	}
	if c.initialWait == 0 {
		c.initialWait = defaultInitialWait
	}
	if c.pollInterval == 0 {
		c.pollInterval = defaultPollInterval
	}
	if c.pollAttempts == 0 {
		c.pollAttempts = defaultPollAttempts
	}
	return c, nil
}

func (c *Client) doJSON(ctx context.Context, method, path string, form url.Values, result interface{}) error {
	op := func() error {
		var body *strings.Reader
		if form != nil {
			body = strings.NewReader(form.Encode())
		} else {
			body = strings.NewReader("")
		}

		req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
		if err != nil {
			return retry.Unrecoverable(fmt.Errorf("creating request: %w", err))
		}
		req.SetBasicAuth(c.email, c.password)
		if form != nil {
			req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return fmt.Errorf("executing request: %w", err)
		}
		defer resp.Body.Close()

		switch {
		case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
			return retry.Unrecoverable(ErrAuthFailed)
		case resp.StatusCode != http.StatusOK:
			return fmt.Errorf("unexpected status code: %d", resp.StatusCode)
		}

		if result != nil {
			if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
				return fmt.Errorf("decoding response: %w", err)
			}
		}
		return nil
	}

	return retry.Do(op,
		retry.Attempts(transientAttempts),
		retry.Delay(transientDelay),
		retry.DelayType(retry.FixedDelay),
		retry.LastErrorOnly(true),
		retry.Context(ctx),
	)
}

// Login verifies the credentials by fetching the account settings.
func (c *Client) Login(ctx context.Context) error {
	var settings userSettings
	if err := c.doJSON(ctx, http.MethodGet, "/user", nil, &settings); err != nil {
		if errors.Is(err, ErrAuthFailed) {
			return ErrAuthFailed
		}
		return fmt.Errorf("verifying credentials: %w", err)
	}
	return nil
}

// ClearAccount deletes everything in the remote root folder. The remote
// space is small; leftovers from crashed runs would starve new transfers.
func (c *Client) ClearAccount(ctx context.Context) error {
	contents, err := c.listContents(ctx, 0)
	if err != nil {
		return fmt.Errorf("listing root folder: %w", err)
	}

	var errs []error
	for _, file := range contents.Files {
		if err := c.deleteFile(ctx, file.ID); err != nil {
			errs = append(errs, fmt.Errorf("deleting file %q: %w", file.Name, err))
		}
	}
	for _, folder := range contents.Folders {
		if err := c.deleteFolder(ctx, folder.ID); err != nil {
			errs = append(errs, fmt.Errorf("deleting folder %q: %w", folder.Name, err))
		}
	}
	return errors.Join(errs...)
}

// AddMagnet submits a magnet link for remote fetching and returns the remote
// title when the service reports one.
func (c *Client) AddMagnet(ctx context.Context, magnetURI string) (string, error) {
	form := url.Values{}
	form.Set("magnet", magnetURI)

	var result magnetResult
	if err := c.doJSON(ctx, http.MethodPost, "/torrent/magnet", form, &result); err != nil {
		return "", fmt.Errorf("adding magnet: %w", err)
	}
	if !result.Result {
		return "", fmt.Errorf("service rejected magnet")
	}
	return result.Title, nil
}

// AwaitReady polls the remote listing until content matching the resource
// title appears, or the polling budget runs out (ErrNotReady). The initial
// wait is skipped when resuming a task whose remote fetch already started in
// an earlier step or run.
func (c *Client) AwaitReady(ctx context.Context, title string, skipInitialWait bool) (*models.RemoteItem, error) {
	keywords := extractKeywords(title)

	if !skipInitialWait {
		if err := sleepCtx(ctx, c.initialWait); err != nil {
			return nil, err
		}
	}

	var lastErr error
	for attempt := 0; attempt < c.pollAttempts; attempt++ {
		if attempt > 0 {
			if err := sleepCtx(ctx, c.pollInterval); err != nil {
				return nil, err
			}
		}

		contents, err := c.listContents(ctx, 0)
		if err != nil {
			if errors.Is(err, ErrAuthFailed) {
				return nil, err
			}
			lastErr = err
			continue
		}

		item, err := c.findMatch(ctx, contents, keywords)
		if err != nil {
			lastErr = err
			continue
		}
		if item != nil {
			return item, nil
		}
	}

	if lastErr != nil {
		return nil, fmt.Errorf("%w (last error: %v)", ErrNotReady, lastErr)
	}
	return nil, ErrNotReady
}

// findMatch scans the root listing for a file or folder matching the
// extracted keywords, descending one level into folders.
func (c *Client) findMatch(ctx context.Context, contents *Contents, keywords []string) (*models.RemoteItem, error) {
	for _, file := range contents.Files {
		if isVideoFile(file.Name) && matchCount(file.Name, keywords) >= minKeywordMatches {
			return &models.RemoteItem{FileID: file.ID, Name: file.Name, Size: file.Size}, nil
		}
	}

	for _, folder := range contents.Folders {
		inner, err := c.listContents(ctx, folder.ID)
		if err != nil {
			// A single unreadable folder must not hide the others.
			continue
		}

		for _, file := range inner.Files {
			if isVideoFile(file.Name) && matchCount(file.Name, keywords) >= minKeywordMatches {
				return &models.RemoteItem{
					FileID:   file.ID,
					FolderID: folder.ID,
					Name:     file.Name,
					Size:     file.Size,
				}, nil
			}
		}

		if matchCount(folder.Name, keywords) >= minKeywordMatches && len(inner.Files) > 0 {
			return &models.RemoteItem{
				FolderID: folder.ID,
				Name:     folder.Name,
				Size:     folder.Size,
				Folder:   true,
			}, nil
		}
	}
	return nil, nil
}

// FetchLocal downloads the item's video payload into dir and returns the
// local file paths.
func (c *Client) FetchLocal(ctx context.Context, item *models.RemoteItem, dir string) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating download dir: %w", err)
	}

	if !item.Folder {
		path, err := c.fetchFile(ctx, item.FileID, item.Name, dir)
		if err != nil {
			return nil, err
		}
		return []string{path}, nil
	}

	contents, err := c.listContents(ctx, item.FolderID)
	if err != nil {
		return nil, fmt.Errorf("listing remote folder: %w", err)
	}

	var paths []string
	for _, file := range contents.Files {
		if !isVideoFile(file.Name) {
			continue
		}
		path, err := c.fetchFile(ctx, file.ID, file.Name, dir)
		if err != nil {
			return nil, err
		}
		paths = append(paths, path)
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("no video files in remote folder %q", item.Name)
	}
	return paths, nil
}

func (c *Client) fetchFile(ctx context.Context, fileID int64, name, dir string) (string, error) {
	var result fetchResult
	if err := c.doJSON(ctx, http.MethodGet, fmt.Sprintf("/file/%d", fileID), nil, &result); err != nil {
		return "", fmt.Errorf("resolving fetch link for %q: %w", name, err)
	}
	if result.URL == "" {
		return "", fmt.Errorf("no fetch link for %q", name)
	}

	dest := filepath.Join(dir, name)
	dl := got.NewDownload(ctx, result.URL, dest)
	if err := dl.Init(); err != nil {
		return "", fmt.Errorf("initializing download of %q: %w", name, err)
	}
	if err := dl.Start(); err != nil {
		return "", fmt.Errorf("downloading %q: %w", name, err)
	}
	return dest, nil
}

// Cleanup deletes the fetched item from the remote service.
func (c *Client) Cleanup(ctx context.Context, item *models.RemoteItem) error {
	if item.Folder {
		return c.deleteFolder(ctx, item.FolderID)
	}
	return c.deleteFile(ctx, item.FileID)
}

func (c *Client) listContents(ctx context.Context, folderID int64) (*Contents, error) {
	path := "/folder"
	if folderID != 0 {
		path = fmt.Sprintf("/folder/%d", folderID)
	}

	var contents Contents
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &contents); err != nil {
		return nil, fmt.Errorf("listing folder: %w", err)
	}
	return &contents, nil
}

func (c *Client) deleteFile(ctx context.Context, fileID int64) error {
	var result deleteResult
	if err := c.doJSON(ctx, http.MethodDelete, fmt.Sprintf("/file/%d", fileID), nil, &result); err != nil {
		return err
	}
	if !result.Result {
		return fmt.Errorf("service refused file delete")
	}
	return nil
}

func (c *Client) deleteFolder(ctx context.Context, folderID int64) error {
	var result deleteResult
	if err := c.doJSON(ctx, http.MethodDelete, fmt.Sprintf("/folder/%d", folderID), nil, &result); err != nil {
		return err
	}
	if !result.Result {
		return fmt.Errorf("service refused folder delete")
	}
	return nil
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
