package media

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/nakharin/nvc-bot/internal/models"
	"gopkg.in/yaml.v3"
)

// Catalog is the static mapping from the symbolic tags the model may emit
// to the image URLs and captions behind them. Loaded once at startup,
// read-only afterwards.
type Catalog struct {
	entries map[string]models.MediaEntry
}

type catalogFile struct {
	Images []catalogEntry `yaml:"images"`
}

type catalogEntry struct {
	Tag     string   `yaml:"tag"`
	URL     string   `yaml:"url"`
	URLs    []string `yaml:"urls"`
	Caption string   `yaml:"caption"`
}

// LoadCatalog parses the media catalog YAML file. Entries may give a
// single url or an ordered urls list.
func LoadCatalog(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read media catalog %s: %w", path, err)
	}

	var file catalogFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse media catalog %s: %w", path, err)
	}

	entries := make(map[string]models.MediaEntry, len(file.Images))
	for _, e := range file.Images {
		if e.Tag == "" {
			return nil, fmt.Errorf("media catalog %s: entry without a tag", path)
		}
		urls := e.URLs
		if len(urls) == 0 && e.URL != "" {
			urls = []string{e.URL}
		}
		if len(urls) == 0 {
			return nil, fmt.Errorf("media catalog %s: tag %q has no url", path, e.Tag)
		}
		entries[e.Tag] = models.MediaEntry{
			Tag:     e.Tag,
			URLs:    urls,
			Caption: e.Caption,
		}
	}

	return &Catalog{entries: entries}, nil
}

// NewCatalog builds a catalog from in-memory entries.
func NewCatalog(entries []models.MediaEntry) *Catalog {
	m := make(map[string]models.MediaEntry, len(entries))
	for _, e := range entries {
		m[e.Tag] = e
	}
	return &Catalog{entries: m}
}

// Resolve looks a directive tag up. An unknown tag is not an error; the
// caller simply sends no media.
func (c *Catalog) Resolve(tag string) (models.MediaEntry, bool) {
	entry, ok := c.entries[tag]
	return entry, ok
}

// Instructions renders the prompt section telling the model which tags it
// may embed and how.
func (c *Catalog) Instructions() string {
	if len(c.entries) == 0 {
		return ""
	}

	tags := make([]string, 0, len(c.entries))
	for tag := range c.entries {
		tags = append(tags, tag)
	}
	sort.Strings(tags)

	var b strings.Builder
	b.WriteString("If a picture would help the answer, append exactly one marker of the form [IMAGE:tag] at the end of your reply, choosing tag from this list:\n")
	for _, tag := range tags {
		entry := c.entries[tag]
		fmt.Fprintf(&b, "- %s: %s\n", tag, entry.Caption)
	}
	b.WriteString("Do not invent tags that are not listed. Use at most one marker.")
	return b.String()
}
