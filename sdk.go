package qbt

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

// Actions accepted by ControlTorrent.
const (
	ActionPause  = "pause"
	ActionResume = "resume"
	ActionDelete = "delete"
)

// ListTorrents returns a snapshot of torrents from torrents/info,
// optionally filtered by state and category. Magnet URIs are parsed
// client-side; a torrent with an unparsable URI is returned without a
// MagnetLink rather than failing the whole listing.
func (qb *Client) ListTorrents(ctx context.Context, opts ListOptions) ([]*TorrentInfo, error) {
	query := filterValues(map[string]string{
		"filter":   opts.Filter,
		"category": opts.Category,
	})

	body, err := qb.do(ctx, http.MethodGet, "torrents/info", nil, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list torrents: %w", err)
	}

	var torrents []*TorrentInfo
	if err := json.Unmarshal(body, &torrents); err != nil {
		return nil, fmt.Errorf("error decoding response: %w", err)
	}

	for _, torrent := range torrents {
		if torrent.MagnetURI == "" {
			continue
		}
		link, err := ParseMagnetLink(torrent.MagnetURI)
		if err != nil {
			qb.logger.Debug().Err(err).Str("hash", torrent.Hash).Msg("skipping unparsable magnet uri")
			continue
		}
		torrent.MagnetLink = link
	}

	return torrents, nil
}

// GetTorrentProperties fetches the detailed view for one torrent by hash.
func (qb *Client) GetTorrentProperties(ctx context.Context, hash string) (*TorrentProperties, error) {
	query := url.Values{}
	query.Set("hash", hash)

	body, err := qb.do(ctx, http.MethodGet, "torrents/properties", nil, query)
	if err != nil {
		return nil, fmt.Errorf("failed to get torrent properties: %w", err)
	}

	var properties TorrentProperties
	if err := json.Unmarshal(body, &properties); err != nil {
		return nil, fmt.Errorf("error decoding response: %w", err)
	}

	return &properties, nil
}

// GetTorrentFiles lists the files inside one torrent by hash.
func (qb *Client) GetTorrentFiles(ctx context.Context, hash string) ([]TorrentFile, error) {
	query := url.Values{}
	query.Set("hash", hash)

	body, err := qb.do(ctx, http.MethodGet, "torrents/files", nil, query)
	if err != nil {
		return nil, fmt.Errorf("failed to get torrent files: %w", err)
	}

	var files []TorrentFile
	if err := json.Unmarshal(body, &files); err != nil {
		return nil, fmt.Errorf("error decoding response: %w", err)
	}

	return files, nil
}

// GetTorrentInfo merges torrents/properties and torrents/files into one
// object; the file list is attached under the "files" key. Exactly two
// upstream calls are issued.
func (qb *Client) GetTorrentInfo(ctx context.Context, hash string) (*TorrentDetails, error) {
	properties, err := qb.GetTorrentProperties(ctx, hash)
	if err != nil {
		return nil, err
	}

	files, err := qb.GetTorrentFiles(ctx, hash)
	if err != nil {
		return nil, err
	}

	return &TorrentDetails{
		TorrentProperties: *properties,
		Files:             files,
	}, nil
}

// AddTorrent adds one or more torrents by URL or magnet link. Optional
// fields are omitted when empty; the paused flag is sent as the literal
// "true" only when set, matching how upstream parses form booleans. The
// response body text is returned as-is.
func (qb *Client) AddTorrent(ctx context.Context, opts AddOptions) (string, error) {
	form := filterValues(map[string]string{
		"urls":     opts.URLs,
		"savepath": opts.SavePath,
		"category": opts.Category,
	})
	if opts.Paused {
		form.Set("paused", "true")
	}

	body, err := qb.do(ctx, http.MethodPost, "torrents/add", form, nil)
	if err != nil {
		return "", fmt.Errorf("failed to add torrent: %w", err)
	}

	return string(body), nil
}

// PauseTorrents pauses the given torrents.
func (qb *Client) PauseTorrents(ctx context.Context, hashes []string) error {
	return qb.updateTorrentStatus(ctx, ActionPause, hashes, nil)
}

// ResumeTorrents resumes the given torrents.
func (qb *Client) ResumeTorrents(ctx context.Context, hashes []string) error {
	return qb.updateTorrentStatus(ctx, ActionResume, hashes, nil)
}

// DeleteTorrents removes the given torrents; deleteFiles also removes the
// downloaded data. The flag is always sent as a "true"/"false" literal.
func (qb *Client) DeleteTorrents(ctx context.Context, hashes []string, deleteFiles bool) error {
	optional := map[string]string{
		"deleteFiles": fmt.Sprintf("%v", deleteFiles),
	}
	return qb.updateTorrentStatus(ctx, ActionDelete, hashes, optional)
}

// ControlTorrent dispatches pause, resume or delete for the given hashes.
// An unrecognized action fails with an APIError naming the valid set,
// without contacting the network.
func (qb *Client) ControlTorrent(ctx context.Context, hashes []string, action string, deleteFiles bool) error {
	switch action {
	case ActionPause:
		return qb.PauseTorrents(ctx, hashes)
	case ActionResume:
		return qb.ResumeTorrents(ctx, hashes)
	case ActionDelete:
		return qb.DeleteTorrents(ctx, hashes, deleteFiles)
	default:
		return &APIError{Err: fmt.Errorf("invalid action %q: must be one of: %s, %s, %s",
			action, ActionPause, ActionResume, ActionDelete)}
	}
}

// Shared worker for the pause/resume/delete endpoints. Hash lists are
// pipe-delimited into a single form field, as upstream expects.
func (qb *Client) updateTorrentStatus(ctx context.Context, action string, hashes []string, optional map[string]string) error {
	form := url.Values{
		"hashes": {strings.Join(hashes, "|")},
	}
	for k, v := range optional {
		form.Set(k, v)
	}

	if _, err := qb.do(ctx, http.MethodPost, "torrents/"+action, form, nil); err != nil {
		return fmt.Errorf("failed to %s torrent: %w", action, err)
	}

	return nil
}

// GetPreferences returns the daemon-wide configuration snapshot as a flat
// key/value map. The surface is read-only from this client.
func (qb *Client) GetPreferences(ctx context.Context) (map[string]any, error) {
	body, err := qb.do(ctx, http.MethodGet, "app/preferences", nil, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to get preferences: %w", err)
	}

	var preferences map[string]any
	if err := json.Unmarshal(body, &preferences); err != nil {
		return nil, fmt.Errorf("error decoding response: %w", err)
	}

	return preferences, nil
}

// GetAppVersion returns the daemon version string.
func (qb *Client) GetAppVersion(ctx context.Context) (string, error) {
	body, err := qb.do(ctx, http.MethodGet, "app/version", nil, nil)
	if err != nil {
		return "", fmt.Errorf("failed to get app version: %w", err)
	}

	return string(body), nil
}
