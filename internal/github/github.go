package github

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/kevinmichaelchen/folio/internal/apperr"
	"github.com/kevinmichaelchen/folio/internal/logger"
	"github.com/pkg/errors"
	"golang.org/x/oauth2"
)

const (
	DefaultBaseURL = "https://api.github.com"

	// maxPerPage is the largest page size the REST API honours.
	maxPerPage   = 100
	maxRedirects = 10
)

var errTooManyRedirects = errors.New("too many redirects")

// Client is a thin wrapper around the GitHub REST API. Every request carries
// the bearer token and is bounded by the configured timeout.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

func NewClient(ctx context.Context, token, baseURL string, timeout time.Duration) *Client {
	httpClient := &http.Client{}
	if token != "" {
		httpClient = oauth2.NewClient(ctx, oauth2.StaticTokenSource(&oauth2.Token{
			AccessToken: token,
			TokenType:   "Bearer",
		}))
	}
	httpClient.Timeout = timeout
	httpClient.CheckRedirect = func(_ *http.Request, via []*http.Request) error {
		if len(via) >= maxRedirects {
			return errTooManyRedirects
		}
		return nil
	}

	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		httpClient: httpClient,
	}
}

// Repository is the subset of the REST repository object the site uses.
type Repository struct {
	Name         string  `json:"name"`
	Description  *string `json:"description"`
	HTMLURL      string  `json:"html_url"`
	Fork         bool    `json:"fork"`
	LanguagesURL string  `json:"languages_url"`
}

// ListUserRepos returns up to limit public repositories of user in the order
// the API lists them. Pages are walked until a short page comes back or the
// limit is reached.
func (c *Client) ListUserRepos(ctx context.Context, user string, limit int) ([]Repository, error) {
	if limit <= 0 {
		return nil, nil
	}
	perPage := min(limit, maxPerPage)
	endpoint := fmt.Sprintf("%s/users/%s/repos", c.baseURL, url.PathEscape(user))

	var all []Repository
	for page := 1; ; page++ {
		q := url.Values{}
		q.Set("per_page", strconv.Itoa(perPage))
		q.Set("page", strconv.Itoa(page))

		var batch []Repository
		if err := c.get(ctx, "listing repositories", endpoint+"?"+q.Encode(), &batch); err != nil {
			return nil, err
		}
		all = append(all, batch...)
		logger.G(ctx).WithField("page", page).Debugf("fetched %d repositories", len(all))

		if len(batch) < perPage || len(all) >= limit {
			break
		}
	}

	if len(all) > limit {
		all = all[:limit]
	}
	return all, nil
}

// Languages fetches a repository's language breakdown: language name to
// bytes of code. languagesURL is the languages_url of a Repository.
func (c *Client) Languages(ctx context.Context, languagesURL string) (map[string]int, error) {
	langs := map[string]int{}
	if err := c.get(ctx, "fetching languages", languagesURL, &langs); err != nil {
		return nil, err
	}
	return langs, nil
}

func (c *Client) get(ctx context.Context, op, endpoint string, v any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return apperr.New(apperr.NetworkError, op, errors.Wrap(err, "creating request"))
	}
	req.Header.Set("Accept", "application/vnd.github+json")
	req.Header.Set("X-GitHub-Api-Version", "2022-11-28")
	req.Header.Set("User-Agent", "folio")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return classify(op, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return apperr.Upstream(op, resp.StatusCode,
			errors.Errorf("GitHub API returned %s: %s", resp.Status, strings.TrimSpace(string(body))))
	}

	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return apperr.New(apperr.ParseError, op, errors.Wrap(err, "decoding response"))
	}
	return nil
}

func classify(op string, err error) error {
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		return apperr.New(apperr.Timeout, op, err)
	}
	return apperr.New(apperr.NetworkError, op, err)
}
