package youtube

import (
	"context"
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/mathieu-neron/channelpulse/internal/apperr"
)

var channelIDPattern = regexp.MustCompile(`^UC[0-9A-Za-z_-]{22}$`)

// IsChannelID reports whether s has the shape of a YouTube channel id.
func IsChannelID(s string) bool {
	return channelIDPattern.MatchString(s)
}

type queryKind int

const (
	querySearch queryKind = iota
	queryChannelID
	queryHandle
)

// classify recognizes raw ids, /channel/ URLs, @handles and handle URLs.
// Anything else is free text for the search endpoint.
func classify(query string) (queryKind, string) {
	q := strings.TrimSpace(query)

	if IsChannelID(q) {
		return queryChannelID, q
	}
	if strings.HasPrefix(q, "@") && len(q) > 1 && !strings.ContainsAny(q, " /") {
		return queryHandle, q
	}

	raw := q
	if !strings.Contains(raw, "://") && strings.Contains(raw, "youtube.com/") {
		raw = "https://" + raw
	}
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" || !strings.HasSuffix(strings.TrimPrefix(u.Host, "www."), "youtube.com") {
		return querySearch, q
	}

	segments := strings.Split(strings.Trim(u.Path, "/"), "/")
	switch {
	case len(segments) >= 2 && segments[0] == "channel" && IsChannelID(segments[1]):
		return queryChannelID, segments[1]
	case len(segments) >= 1 && strings.HasPrefix(segments[0], "@") && len(segments[0]) > 1:
		return queryHandle, segments[0]
	}
	return querySearch, q
}

// ResolveChannelID turns a user query into a channel id. Raw ids are verified
// first; ids and handles that do not resolve fall back to a channel search.
func (c *Client) ResolveChannelID(ctx context.Context, query string) (string, error) {
	kind, value := classify(query)
	if value == "" {
		return "", fmt.Errorf("empty channel query: %w", apperr.ErrInvalidInput)
	}

	switch kind {
	case queryChannelID:
		id, err := c.lookupChannel(ctx, url.Values{"part": {"id"}, "id": {value}})
		if err != nil || id != "" {
			return id, err
		}
	case queryHandle:
		id, err := c.lookupChannel(ctx, url.Values{"part": {"id"}, "forHandle": {value}})
		if err != nil || id != "" {
			return id, err
		}
	}

	return c.search(ctx, value)
}

func (c *Client) lookupChannel(ctx context.Context, params url.Values) (string, error) {
	var resp channelListResponse
	if err := c.get(ctx, "channels", params, &resp); err != nil {
		return "", err
	}
	if len(resp.Items) == 0 {
		return "", nil
	}
	return resp.Items[0].ID, nil
}

func (c *Client) search(ctx context.Context, q string) (string, error) {
	var resp searchResponse
	err := c.get(ctx, "search", url.Values{
		"part":       {"snippet"},
		"q":          {q},
		"type":       {"channel"},
		"maxResults": {"1"},
	}, &resp)
	if err != nil {
		return "", err
	}
	if len(resp.Items) == 0 || resp.Items[0].ID.ChannelID == "" {
		return "", fmt.Errorf("no channel found for %q: %w", q, apperr.ErrNotFound)
	}
	return resp.Items[0].ID.ChannelID, nil
}
