// Package tools registers the qBittorrent tool surface with an MCP server.
//
// Every tool returns a uniform JSON envelope: {"success": true, ...} with
// the operation's data, or {"success": false, "error": "..."} on failure.
// Handlers never let an error cross the tool boundary; the agent runtime
// always receives a well-formed envelope.
package tools

import (
	"context"
	"encoding/json"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/rs/zerolog"

	qbt "github.com/seedboxkit/qbt-mcp"
)

// Handler maps the MCP tool surface onto one qBittorrent client.
type Handler struct {
	client *qbt.Client
	logger zerolog.Logger
}

// New creates a Handler backed by the given client.
func New(client *qbt.Client, logger zerolog.Logger) *Handler {
	return &Handler{client: client, logger: logger}
}

// RegisterAll registers all qBittorrent tools with the MCP server.
func (h *Handler) RegisterAll(s *server.MCPServer) {
	s.AddTool(mcp.NewTool("qb_list_torrents",
		mcp.WithDescription("List all torrents with optional filtering by state and category."),
		mcp.WithString("filter", mcp.Description("Filter by state (all/downloading/completed/paused/active/inactive)")),
		mcp.WithString("category", mcp.Description("Filter by category name")),
		mcp.WithReadOnlyHintAnnotation(true),
	), h.listTorrents)

	s.AddTool(mcp.NewTool("qb_torrent_info",
		mcp.WithDescription("Get detailed information for a torrent: properties plus its file list."),
		mcp.WithString("hash", mcp.Required(), mcp.Description("Hash of the torrent")),
		mcp.WithReadOnlyHintAnnotation(true),
	), h.torrentInfo)

	s.AddTool(mcp.NewTool("qb_add_torrent",
		mcp.WithDescription("Add a torrent by URL or magnet link."),
		mcp.WithString("url", mcp.Required(), mcp.Description("Torrent URL or magnet link")),
		mcp.WithString("save_path", mcp.Description("Download directory (daemon default when omitted)")),
		mcp.WithString("category", mcp.Description("Category to assign")),
		mcp.WithBoolean("paused", mcp.Description("Add the torrent in paused state")),
	), h.addTorrent)

	s.AddTool(mcp.NewTool("qb_control_torrent",
		mcp.WithDescription("Control a torrent: pause, resume, or delete."),
		mcp.WithString("hash", mcp.Required(), mcp.Description("Hash of the torrent to control")),
		mcp.WithString("action", mcp.Required(), mcp.Description("Action to perform: pause, resume, or delete")),
		mcp.WithBoolean("delete_files", mcp.Description("With action=delete, also remove downloaded files")),
		mcp.WithDestructiveHintAnnotation(true),
	), h.controlTorrent)

	s.AddTool(mcp.NewTool("qb_search_torrents",
		mcp.WithDescription("Search for torrents using the daemon's search plugins; blocks until the search finishes or the poll budget runs out."),
		mcp.WithString("query", mcp.Required(), mcp.Description("Search query")),
		mcp.WithString("plugins", mcp.Description("Plugins to use (default: all)")),
		mcp.WithString("category", mcp.Description("Search category (default: all)")),
		mcp.WithNumber("limit", mcp.Description("Maximum number of results (default: 100)")),
		mcp.WithReadOnlyHintAnnotation(true),
	), h.searchTorrents)

	s.AddTool(mcp.NewTool("qb_get_preferences",
		mcp.WithDescription("Get the daemon's application preferences snapshot."),
		mcp.WithReadOnlyHintAnnotation(true),
	), h.getPreferences)
}

func (h *Handler) listTorrents(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	torrents, err := h.client.ListTorrents(ctx, qbt.ListOptions{
		Filter:   req.GetString("filter", ""),
		Category: req.GetString("category", ""),
	})
	if err != nil {
		h.logger.Error().Err(err).Msg("error listing torrents")
		return failure(err), nil
	}

	return success(map[string]any{
		"count":    len(torrents),
		"torrents": torrents,
	}), nil
}

func (h *Handler) torrentInfo(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	hash, err := req.RequireString("hash")
	if err != nil {
		return failure(err), nil
	}

	info, err := h.client.GetTorrentInfo(ctx, hash)
	if err != nil {
		h.logger.Error().Err(err).Str("hash", hash).Msg("error getting torrent info")
		return failure(err), nil
	}

	return success(map[string]any{"info": info}), nil
}

func (h *Handler) addTorrent(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	torrentURL, err := req.RequireString("url")
	if err != nil {
		return failure(err), nil
	}

	result, err := h.client.AddTorrent(ctx, qbt.AddOptions{
		URLs:     torrentURL,
		SavePath: req.GetString("save_path", ""),
		Category: req.GetString("category", ""),
		Paused:   req.GetBool("paused", false),
	})
	if err != nil {
		h.logger.Error().Err(err).Str("url", torrentURL).Msg("error adding torrent")
		return failure(err), nil
	}

	return success(map[string]any{
		"message": "Torrent added successfully",
		"result":  result,
	}), nil
}

func (h *Handler) controlTorrent(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	hash, err := req.RequireString("hash")
	if err != nil {
		return failure(err), nil
	}
	action, err := req.RequireString("action")
	if err != nil {
		return failure(err), nil
	}

	if err := h.client.ControlTorrent(ctx, []string{hash}, action, req.GetBool("delete_files", false)); err != nil {
		h.logger.Error().Err(err).Str("hash", hash).Str("action", action).Msg("error controlling torrent")
		return failure(err), nil
	}

	return success(map[string]any{
		"message": "Torrent " + action + " action completed successfully",
	}), nil
}

func (h *Handler) searchTorrents(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := req.RequireString("query")
	if err != nil {
		return failure(err), nil
	}

	results, err := h.client.Search(ctx, qbt.SearchOptions{
		Pattern:  query,
		Plugins:  req.GetString("plugins", "all"),
		Category: req.GetString("category", "all"),
		Limit:    req.GetInt("limit", qbt.DefaultSearchLimit),
	})
	if err != nil {
		h.logger.Error().Err(err).Str("query", query).Msg("error searching torrents")
		return failure(err), nil
	}

	return success(map[string]any{
		"query":   query,
		"results": results,
	}), nil
}

func (h *Handler) getPreferences(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	preferences, err := h.client.GetPreferences(ctx)
	if err != nil {
		h.logger.Error().Err(err).Msg("error getting preferences")
		return failure(err), nil
	}

	return success(map[string]any{"preferences": preferences}), nil
}

// success wraps payload in the success envelope.
func success(payload map[string]any) *mcp.CallToolResult {
	payload["success"] = true
	data, err := json.Marshal(payload)
	if err != nil {
		return failure(err)
	}
	return mcp.NewToolResultText(string(data))
}

// failure wraps an error in the failure envelope. Marshaling a flat
// string map cannot fail, so the envelope is always well-formed.
func failure(err error) *mcp.CallToolResult {
	data, _ := json.Marshal(map[string]any{
		"success": false,
		"error":   err.Error(),
	})
	return mcp.NewToolResultText(string(data))
}
