// Copyright (c) 2026 Mangetsu. All rights reserved.
// Author: dev@mangetsu.app

/*
Package blob stores and retrieves binary objects (page images and stashed
chapter archives) through the media backend's REST API.

# Overview

Objects live under caller-chosen folders. Page images for a chapter go to
the folder given by [FolderFor], raw archives are stashed under a dedicated
folder until their publication job consumes them.

Deletion is idempotent: deleting a missing key succeeds, so cleanup paths
and retried jobs never fail on already-removed objects.
*/
package blob

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// # Types

// Ref identifies a stored object.
type Ref struct {
	// Key is the backend's opaque object key, used for fetch and delete.
	Key string `json:"key"`
	// URL is the public delivery URL for the object.
	URL string `json:"url"`
}

// Store is the object storage contract used by the publication pipeline.
type Store interface {
	// Upload stores data under the given folder and returns its reference.
	Upload(ctx context.Context, data []byte, folder string) (Ref, error)
	// Fetch returns the raw bytes of a stored object.
	Fetch(ctx context.Context, key string) ([]byte, error)
	// Delete removes a stored object. Missing keys are not an error.
	Delete(ctx context.Context, key string) error
}

// FolderFor returns the page-image folder for a chapter: "{titleSlug}/c{chapterID}".
func FolderFor(titleSlug, chapterID string) string {
	return titleSlug + "/c" + chapterID
}

// # HTTP Client

const clientTimeout = 60 * time.Second

// Client talks to the media backend over its keyed REST API.
type Client struct {
	endpoint   string
	apiKey     string
	apiSecret  string
	httpClient *http.Client
}

// Compile-time interface check.
var _ Store = (*Client)(nil)

// NewClient constructs a client for the media backend at endpoint.
func NewClient(endpoint, apiKey, apiSecret string) *Client {
	return &Client{
		endpoint:  endpoint,
		apiKey:    apiKey,
		apiSecret: apiSecret,
		httpClient: &http.Client{
			Timeout: clientTimeout,
		},
	}
}

// Upload POSTs the object bytes to /v1/objects?folder={folder}.
func (c *Client) Upload(ctx context.Context, data []byte, folder string) (Ref, error) {
	uploadURL := fmt.Sprintf("%s/v1/objects?folder=%s", c.endpoint, url.QueryEscape(folder))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, uploadURL, bytes.NewReader(data))
	if err != nil {
		return Ref{}, fmt.Errorf("blob: failed to build upload request: %w", err)
	}
	req.Header.Set("Content-Type", "application/octet-stream")
	c.authorize(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Ref{}, fmt.Errorf("blob: upload failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusOK {
		return Ref{}, fmt.Errorf("blob: upload returned status %d", resp.StatusCode)
	}

	var ref Ref
	if err := json.NewDecoder(resp.Body).Decode(&ref); err != nil {
		return Ref{}, fmt.Errorf("blob: failed to decode upload response: %w", err)
	}
	return ref, nil
}

// Fetch GETs the object bytes from /v1/objects/{key}.
func (c *Client) Fetch(ctx context.Context, key string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.objectURL(key), nil)
	if err != nil {
		return nil, fmt.Errorf("blob: failed to build fetch request: %w", err)
	}
	c.authorize(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("blob: fetch failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("blob: object %s not found", key)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("blob: fetch returned status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("blob: failed to read object body: %w", err)
	}
	return data, nil
}

// Delete removes the object at /v1/objects/{key}. A 404 counts as success.
func (c *Client) Delete(ctx context.Context, key string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, c.objectURL(key), nil)
	if err != nil {
		return fmt.Errorf("blob: failed to build delete request: %w", err)
	}
	c.authorize(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("blob: delete failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNoContent &&
		resp.StatusCode != http.StatusOK &&
		resp.StatusCode != http.StatusNotFound {
		return fmt.Errorf("blob: delete returned status %d", resp.StatusCode)
	}
	return nil
}

func (c *Client) objectURL(key string) string {
	return c.endpoint + "/v1/objects/" + url.PathEscape(key)
}

// authorize attaches the key pair headers expected by the media backend.
func (c *Client) authorize(req *http.Request) {
	req.Header.Set("X-Api-Key", c.apiKey)
	req.Header.Set("X-Api-Secret", c.apiSecret)
}
