// Package skills reads the skills catalog that backs the "skills" section of
// the site and the language icons on the projects page.
package skills

import (
	"context"
	"encoding/json"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/kevinmichaelchen/folio/internal/apperr"
	"github.com/kevinmichaelchen/folio/internal/logger"
	"github.com/kevinmichaelchen/folio/internal/models"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

type document struct {
	Cards []models.Card `json:"cards" yaml:"cards"`
}

// Catalog reads cards from a JSON or YAML document. The file is read on every
// call so edits show up without a restart.
type Catalog struct {
	path string
}

func NewCatalog(path string) *Catalog {
	return &Catalog{path: path}
}

func (c *Catalog) Path() string { return c.path }

// Load returns every card in document order. A missing or unreadable file is
// apperr.NotFound; a document that does not decode is apperr.ParseError.
func (c *Catalog) Load(ctx context.Context) ([]models.Card, error) {
	data, err := os.ReadFile(c.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, apperr.New(apperr.NotFound, "reading skills catalog", err)
		}
		return nil, apperr.New(apperr.NotFound, "reading skills catalog", errors.Wrapf(err, "unreadable %s", c.path))
	}

	var doc document
	switch strings.ToLower(filepath.Ext(c.path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &doc)
	default:
		err = json.Unmarshal(data, &doc)
	}
	if err != nil {
		return nil, apperr.New(apperr.ParseError, "decoding skills catalog", errors.Wrap(err, c.path))
	}

	logger.G(ctx).WithField("path", c.path).Debugf("loaded %d cards", len(doc.Cards))
	return doc.Cards, nil
}

// Categorize loads the catalog and partitions it with Partition.
func (c *Catalog) Categorize(ctx context.Context) (models.Skills, error) {
	cards, err := c.Load(ctx)
	if err != nil {
		return Partition(nil), err
	}
	return Partition(cards), nil
}

// Partition splits cards into languages, frameworks (libraries included) and
// technologies, keeping document order within each bucket. Cards with any
// other type are dropped. The buckets are never nil.
func Partition(cards []models.Card) models.Skills {
	out := models.Skills{
		Languages:    []models.Card{},
		Frameworks:   []models.Card{},
		Technologies: []models.Card{},
	}
	for _, card := range cards {
		switch card.Type {
		case models.CardLanguage:
			out.Languages = append(out.Languages, card)
		case models.CardLibrary, models.CardFramework:
			out.Frameworks = append(out.Frameworks, card)
		case models.CardTechnology:
			out.Technologies = append(out.Technologies, card)
		}
	}
	return out
}

// Lookup returns the image of the first language card titled name, compared
// case-insensitively. found is false when no card matches.
func (c *Catalog) Lookup(ctx context.Context, name string) (image string, found bool, err error) {
	cards, err := c.Load(ctx)
	if err != nil {
		return "", false, err
	}
	for _, card := range cards {
		if card.Type == models.CardLanguage && strings.EqualFold(card.Title, name) {
			return card.Image, true, nil
		}
	}
	return "", false, nil
}

// LanguageImage is Lookup for template use: catalog failures are logged and
// reported as "no image".
func (c *Catalog) LanguageImage(ctx context.Context, name string) (string, bool) {
	image, found, err := c.Lookup(ctx, name)
	if err != nil {
		logger.G(ctx).WithError(err).
			WithField("kind", apperr.KindOf(err).String()).
			WithField("language", name).
			Warn("language image unavailable")
		return "", false
	}
	return image, found
}
