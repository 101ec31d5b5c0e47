package markdown

import (
	"bytes"
	"fmt"
	"time"

	"github.com/adrg/frontmatter"
)

// FrontMatter holds the resource attributes read from a document header.
// Unset pointers leave the stored value alone on re-import.
type FrontMatter struct {
	Title              string         `yaml:"title"`
	Slug               string         `yaml:"slug"`
	Type               string         `yaml:"type"`
	Draft              bool           `yaml:"draft"`
	Published          *bool          `yaml:"published"`
	PublishDate        *time.Time     `yaml:"publish_date"`
	UnpublishDate      *time.Time     `yaml:"unpublish_date"`
	Order              *int           `yaml:"order"`
	ContentDisposition string         `yaml:"content_disposition"`
	MenuTitle          string         `yaml:"menu_title"`
	MenuClass          string         `yaml:"menu_class"`
	HideFromMenu       bool           `yaml:"hide_from_menu"`
	Fields             map[string]any `yaml:"fields"`
}

// IsPublished reports the published flag. Drafts are never published and
// documents without a flag are.
func (f FrontMatter) IsPublished() bool {
	if f.Draft {
		return false
	}
	if f.Published == nil {
		return true
	}
	return *f.Published
}

// ParseFrontMatter splits source into its header and markdown body.
// Documents without a header yield a zero FrontMatter.
func ParseFrontMatter(source []byte) (FrontMatter, []byte, error) {
	var meta FrontMatter
	body, err := frontmatter.Parse(bytes.NewReader(source), &meta)
	if err != nil {
		return FrontMatter{}, nil, fmt.Errorf("parse frontmatter: %w", err)
	}
	return meta, body, nil
}
