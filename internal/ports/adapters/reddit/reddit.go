package reddit

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"

	"github.com/forPelevin/reelforge/internal/domain/curation"
	"github.com/forPelevin/reelforge/internal/types"
)

const (
	DefaultBaseURL   = "https://oauth.reddit.com"
	DefaultTokenURL  = "https://www.reddit.com/api/v1/access_token"
	DefaultUserAgent = "reelforge/1.0"
	defaultPause     = 500 * time.Millisecond
)

type Options struct {
	ClientID     string
	ClientSecret string
	UserAgent    string
	BaseURL      string
	TokenURL     string
	// Pause between per-post comment requests.
	Pause  time.Duration
	Logger *slog.Logger
	Now    func() time.Time
}

// Adapter reads posts and comments with app-only OAuth.
type Adapter struct {
	base   string
	client *http.Client
	pause  time.Duration
	log    *slog.Logger
	now    func() time.Time
}

func New(opts Options) *Adapter {
	ua := opts.UserAgent
	if ua == "" {
		ua = DefaultUserAgent
	}
	base := strings.TrimRight(opts.BaseURL, "/")
	if base == "" {
		base = DefaultBaseURL
	}
	tokenURL := opts.TokenURL
	if tokenURL == "" {
		tokenURL = DefaultTokenURL
	}
	pause := opts.Pause
	if pause < 0 {
		pause = 0
	} else if pause == 0 {
		pause = defaultPause
	}
	log := opts.Logger
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}

	cc := clientcredentials.Config{
		ClientID:     opts.ClientID,
		ClientSecret: opts.ClientSecret,
		TokenURL:     tokenURL,
		AuthStyle:    oauth2.AuthStyleInHeader,
	}
	// Token and API requests both carry the user agent.
	baseClient := &http.Client{
		Timeout:   30 * time.Second,
		Transport: userAgentTransport{ua: ua, next: http.DefaultTransport},
	}
	ctx := context.WithValue(context.Background(), oauth2.HTTPClient, baseClient)
	return &Adapter{
		base:   base,
		client: cc.Client(ctx),
		pause:  pause,
		log:    log,
		now:    now,
	}
}

type userAgentTransport struct {
	ua   string
	next http.RoundTripper
}

func (t userAgentTransport) RoundTrip(r *http.Request) (*http.Response, error) {
	r = r.Clone(r.Context())
	r.Header.Set("User-Agent", t.ua)
	return t.next.RoundTrip(r)
}

// TopPosts returns the day's top posts of q.Subreddit that pass the curation
// rules, each with its curated top comments. A post whose comments cannot be
// read is skipped.
func (a *Adapter) TopPosts(ctx context.Context, q types.ForumQuery) ([]types.Post, error) {
	q = curation.Normalize(q)
	sub := strings.TrimPrefix(strings.TrimSpace(q.Subreddit), "r/")
	if sub == "" {
		return nil, fmt.Errorf("reddit: subreddit is required")
	}

	posts, err := a.listTop(ctx, sub, q.PostsLimit*3)
	if err != nil {
		return nil, err
	}
	posts = curation.FilterPosts(posts, q, a.now().UTC())
	a.log.Info("reddit posts fetched", "subreddit", sub, "kept", len(posts))

	out := make([]types.Post, 0, len(posts))
	for i, p := range posts {
		if i > 0 && a.pause > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(a.pause):
			}
		}
		comments, err := a.comments(ctx, p.ID)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			a.log.Warn("reddit comments failed, skipping post", "post", p.ID, "error", err)
			continue
		}
		p.TopComments = curation.SelectComments(comments, q)
		out = append(out, p)
	}
	return out, nil
}

type listing struct {
	Data struct {
		Children []struct {
			Kind string          `json:"kind"`
			Data json.RawMessage `json:"data"`
		} `json:"children"`
	} `json:"data"`
}

type postData struct {
	ID         string  `json:"id"`
	Title      string  `json:"title"`
	Score      int     `json:"score"`
	URL        string  `json:"url"`
	Permalink  string  `json:"permalink"`
	CreatedUTC float64 `json:"created_utc"`
}

type commentData struct {
	ID         string  `json:"id"`
	Author     string  `json:"author"`
	Body       string  `json:"body"`
	Score      int     `json:"score"`
	CreatedUTC float64 `json:"created_utc"`
}

func (a *Adapter) listTop(ctx context.Context, sub string, limit int) ([]types.Post, error) {
	v := url.Values{}
	v.Set("t", "day")
	v.Set("limit", strconv.Itoa(min(limit, 100)))
	v.Set("raw_json", "1")

	var l listing
	if err := a.get(ctx, "/r/"+url.PathEscape(sub)+"/top?"+v.Encode(), &l); err != nil {
		return nil, err
	}
	out := make([]types.Post, 0, len(l.Data.Children))
	for _, c := range l.Data.Children {
		if c.Kind != "t3" {
			continue
		}
		var d postData
		if err := json.Unmarshal(c.Data, &d); err != nil {
			return nil, fmt.Errorf("reddit: decode post: %w", err)
		}
		out = append(out, types.Post{
			ID:         d.ID,
			Title:      d.Title,
			Score:      d.Score,
			URL:        d.URL,
			Permalink:  d.Permalink,
			CreatedUTC: unixTime(d.CreatedUTC),
		})
	}
	return out, nil
}

func (a *Adapter) comments(ctx context.Context, postID string) ([]types.Comment, error) {
	v := url.Values{}
	v.Set("sort", "top")
	v.Set("depth", "1")
	v.Set("limit", "100")
	v.Set("raw_json", "1")

	var ls []listing
	if err := a.get(ctx, "/comments/"+url.PathEscape(postID)+"?"+v.Encode(), &ls); err != nil {
		return nil, err
	}
	if len(ls) < 2 {
		return nil, fmt.Errorf("reddit: unexpected comments payload for %s", postID)
	}
	var out []types.Comment
	for _, c := range ls[1].Data.Children {
		if c.Kind != "t1" {
			continue
		}
		var d commentData
		if err := json.Unmarshal(c.Data, &d); err != nil {
			return nil, fmt.Errorf("reddit: decode comment: %w", err)
		}
		out = append(out, types.Comment{
			ID:         d.ID,
			Author:     d.Author,
			Body:       d.Body,
			Score:      d.Score,
			CreatedUTC: unixTime(d.CreatedUTC),
		})
	}
	return out, nil
}

func (a *Adapter) get(ctx context.Context, path string, v any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.base+path, nil)
	if err != nil {
		return err
	}
	resp, err := a.client.Do(req)
	if err != nil {
		return fmt.Errorf("reddit GET %s: %w", path, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("reddit GET %s: status %d: %s", path, resp.StatusCode, strings.TrimSpace(string(b)))
	}
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("reddit GET %s: decode: %w", path, err)
	}
	return nil
}

func unixTime(sec float64) string {
	return time.Unix(int64(sec), 0).UTC().Format(time.RFC3339)
}
