// Package repos builds the project list shown on the portfolio: the account's
// own public repositories, each tagged with its three most used languages.
package repos

import (
	"context"
	"sort"
	"strings"

	"github.com/kevinmichaelchen/folio/internal/apperr"
	"github.com/kevinmichaelchen/folio/internal/config"
	"github.com/kevinmichaelchen/folio/internal/github"
	"github.com/kevinmichaelchen/folio/internal/logger"
	"github.com/kevinmichaelchen/folio/internal/models"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

const (
	TopLanguageCount   = 3
	DefaultLimit       = 1000
	DefaultConcurrency = 4
)

// Source is the part of the GitHub client the lister depends on.
type Source interface {
	ListUserRepos(ctx context.Context, user string, limit int) ([]github.Repository, error)
	Languages(ctx context.Context, languagesURL string) (map[string]int, error)
}

type Options struct {
	Account string
	// Exclude drops repositories whose name contains it, typically the
	// profile README repository. Empty disables the filter.
	Exclude     string
	Limit       int
	Concurrency int
}

type Lister struct {
	src  Source
	opts Options
}

func NewLister(src Source, opts Options) *Lister {
	if opts.Limit <= 0 {
		opts.Limit = DefaultLimit
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = DefaultConcurrency
	}
	return &Lister{src: src, opts: opts}
}

// FromConfig builds a Lister backed by the GitHub REST API. It fails with
// apperr.ConfigError when no GitHub credential is configured.
func FromConfig(ctx context.Context, cfg *config.Config) (*Lister, error) {
	if err := cfg.RequireGitHub(); err != nil {
		return nil, err
	}
	gh := github.NewClient(ctx, cfg.GitHubToken, cfg.GitHubAPIURL, cfg.HTTPTimeout)
	return NewLister(gh, Options{
		Account:     cfg.GitHubUser,
		Exclude:     cfg.GitHubExclude,
		Limit:       cfg.RepoLimit,
		Concurrency: cfg.LanguageConcurrency,
	}), nil
}

// List returns the account's non-fork repositories in listing order. Language
// lookups run concurrently; any failed lookup fails the whole list.
func (l *Lister) List(ctx context.Context) ([]models.Repo, error) {
	if l.opts.Account == "" {
		return nil, apperr.Newf(apperr.ConfigError, "listing repositories", "no GitHub account configured")
	}
	log := logger.G(ctx).WithField("account", l.opts.Account)

	listed, err := l.src.ListUserRepos(ctx, l.opts.Account, l.opts.Limit)
	if err != nil {
		logFailure(log, err)
		return nil, err
	}

	kept := Filter(listed, l.opts.Exclude)
	out := make([]models.Repo, len(kept))

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(l.opts.Concurrency)
	for i, r := range kept {
		out[i] = models.Repo{
			Name:        r.Name,
			Description: r.Description,
			URL:         r.HTMLURL,
		}
		g.Go(func() error {
			langs, err := l.src.Languages(gCtx, r.LanguagesURL)
			if err != nil {
				return err
			}
			out[i].Languages = TopLanguages(langs, TopLanguageCount)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		logFailure(log, err)
		return nil, err
	}

	log.Debugf("listed %d of %d repositories", len(out), len(listed))
	return out, nil
}

// Filter keeps repositories that are not forks and whose name does not
// contain exclude, preserving order.
func Filter(listed []github.Repository, exclude string) []github.Repository {
	var kept []github.Repository
	for _, r := range listed {
		if r.Fork {
			continue
		}
		if exclude != "" && strings.Contains(r.Name, exclude) {
			continue
		}
		kept = append(kept, r)
	}
	return kept
}

// TopLanguages returns up to n language names ordered by byte count, largest
// first. Equal counts are ordered by name.
func TopLanguages(langs map[string]int, n int) []string {
	names := make([]string, 0, len(langs))
	for name := range langs {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		if langs[names[i]] != langs[names[j]] {
			return langs[names[i]] > langs[names[j]]
		}
		return names[i] < names[j]
	})
	if len(names) > n {
		names = names[:n]
	}
	return names
}

func logFailure(log *logrus.Entry, err error) {
	entry := log.WithError(err).WithField("kind", apperr.KindOf(err).String())
	if status := apperr.StatusOf(err); status != 0 {
		entry = entry.WithField("status", status)
	}
	entry.Error("repository listing unavailable")
}
