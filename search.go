package qbt

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

// Search polling contract: the search API is asynchronous and offers no
// completion notification, so the blocking helper polls with a hard
// ceiling and proceeds with whatever results exist once it is reached.
const (
	DefaultSearchPollInterval = 1 * time.Second
	DefaultSearchMaxPolls     = 30
	DefaultSearchLimit        = 100

	// SearchStatusStopped is the terminal job status as observed by this
	// client; any other value is treated as still running.
	SearchStatusStopped = "Stopped"
)

// StartSearch starts a search job and returns its server-issued id.
// Empty plugins/category default to "all".
func (qb *Client) StartSearch(ctx context.Context, pattern, plugins, category string) (int, error) {
	if plugins == "" {
		plugins = "all"
	}
	if category == "" {
		category = "all"
	}

	form := url.Values{
		"pattern":  {pattern},
		"plugins":  {plugins},
		"category": {category},
	}

	body, err := qb.do(ctx, http.MethodPost, "search/start", form, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to start search: %w", err)
	}

	var job struct {
		ID int `json:"id"`
	}
	if err := json.Unmarshal(body, &job); err != nil {
		return 0, fmt.Errorf("error decoding response: %w", err)
	}

	return job.ID, nil
}

// SearchStatus fetches the status entries for a search job.
func (qb *Client) SearchStatus(ctx context.Context, id int) ([]SearchStatus, error) {
	query := url.Values{}
	query.Set("id", strconv.Itoa(id))

	body, err := qb.do(ctx, http.MethodGet, "search/status", nil, query)
	if err != nil {
		return nil, fmt.Errorf("failed to get search status: %w", err)
	}

	var statuses []SearchStatus
	if err := json.Unmarshal(body, &statuses); err != nil {
		return nil, fmt.Errorf("error decoding response: %w", err)
	}

	return statuses, nil
}

// SearchResults fetches results for a search job. A zero limit means no
// limit parameter is sent; offset is omitted when zero.
func (qb *Client) SearchResults(ctx context.Context, id, limit, offset int) (*SearchResults, error) {
	query := url.Values{}
	query.Set("id", strconv.Itoa(id))
	if limit > 0 {
		query.Set("limit", strconv.Itoa(limit))
	}
	if offset > 0 {
		query.Set("offset", strconv.Itoa(offset))
	}

	body, err := qb.do(ctx, http.MethodGet, "search/results", nil, query)
	if err != nil {
		return nil, fmt.Errorf("failed to get search results: %w", err)
	}

	var results SearchResults
	if err := json.Unmarshal(body, &results); err != nil {
		return nil, fmt.Errorf("error decoding response: %w", err)
	}

	return &results, nil
}

// StopSearch stops a running search job without deleting it.
func (qb *Client) StopSearch(ctx context.Context, id int) error {
	form := url.Values{"id": {strconv.Itoa(id)}}

	if _, err := qb.do(ctx, http.MethodPost, "search/stop", form, nil); err != nil {
		return fmt.Errorf("failed to stop search: %w", err)
	}

	return nil
}

// DeleteSearch deletes a search job, releasing its server-side resources.
func (qb *Client) DeleteSearch(ctx context.Context, id int) error {
	form := url.Values{"id": {strconv.Itoa(id)}}

	if _, err := qb.do(ctx, http.MethodPost, "search/delete", form, nil); err != nil {
		return fmt.Errorf("failed to delete search: %w", err)
	}

	return nil
}

// Search hides the asynchronous job model behind one blocking call:
// start, poll until the job reports Stopped or SearchMaxPolls is reached,
// fetch results, then delete the job. Hitting the poll ceiling is not an
// error; partial results are returned. The job is deleted on every exit
// path, including cancellation, and a cleanup failure never masks results
// already fetched.
func (qb *Client) Search(ctx context.Context, opts SearchOptions) (*SearchResults, error) {
	id, err := qb.StartSearch(ctx, opts.Pattern, opts.Plugins, opts.Category)
	if err != nil {
		return nil, err
	}
	defer qb.cleanupSearch(id)

	interval := qb.SearchPollInterval
	if interval <= 0 {
		interval = DefaultSearchPollInterval
	}
	maxPolls := qb.SearchMaxPolls
	if maxPolls <= 0 {
		maxPolls = DefaultSearchMaxPolls
	}

	for i := 0; i < maxPolls; i++ {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(interval):
		}

		statuses, err := qb.SearchStatus(ctx, id)
		if err != nil {
			return nil, err
		}
		if len(statuses) > 0 && statuses[0].Status == SearchStatusStopped {
			break
		}
	}

	limit := opts.Limit
	if limit == 0 {
		limit = DefaultSearchLimit
	}

	return qb.SearchResults(ctx, id, limit, opts.Offset)
}

// cleanupSearch deletes a search job on a fresh context so cleanup still
// runs when the caller's context is already cancelled.
func (qb *Client) cleanupSearch(id int) {
	ctx, cancel := context.WithTimeout(context.Background(), qb.config.Timeout)
	defer cancel()

	if err := qb.DeleteSearch(ctx, id); err != nil {
		qb.logger.Warn().Err(err).Int("search_id", id).Msg("failed to delete search job")
	}
}
