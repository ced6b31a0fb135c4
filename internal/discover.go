package internal

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/go-git/go-billy/v5"
	"gopkg.in/yaml.v3"
)

// descriptionSuffix is decoration on subset headings, not part of the
// directory name.
const descriptionSuffix = " - Description"

// parseableExts are the dataset formats worth mirroring.
var parseableExts = map[string]bool{
	".csv": true,
	".tsv": true,
}

// DatasetItem pairs a mirror-relative destination path with the source it is
// fetched from.
type DatasetItem struct {
	Path     string
	SourceID string
}

// Discoverer produces the datasets to mirror. No ordering is guaranteed.
type Discoverer interface {
	Discover(ctx context.Context) ([]DatasetItem, error)
}

// Manifest describes the upstream site's dataset hierarchy: series contain
// subsets, subsets contain items, items link to one file per format.
type Manifest struct {
	RootURL string           `yaml:"root_url"`
	Series  []ManifestSeries `yaml:"series"`
}

type ManifestSeries struct {
	Name    string           `yaml:"name"`
	Subsets []ManifestSubset `yaml:"subsets"`
}

type ManifestSubset struct {
	Name  string         `yaml:"name"`
	Items []ManifestItem `yaml:"items"`
}

type ManifestItem struct {
	Title string         `yaml:"title"`
	Links []ManifestLink `yaml:"links"`
}

type ManifestLink struct {
	Ext  string `yaml:"ext"`
	Href string `yaml:"href"`
}

// ManifestDiscoverer reads a manifest file from a filesystem and expands it
// into DatasetItems: destination series/subset/title+ext, source rooted at
// the manifest's root URL, falling back to rootURL when the manifest omits
// one.
type ManifestDiscoverer struct {
	fs      billy.Filesystem
	path    string
	rootURL string
}

func NewManifestDiscoverer(fs billy.Filesystem, path, rootURL string) *ManifestDiscoverer {
	return &ManifestDiscoverer{fs: fs, path: path, rootURL: rootURL}
}

func (d *ManifestDiscoverer) Discover(ctx context.Context) ([]DatasetItem, error) {
	file, err := d.fs.Open(d.path)
	if err != nil {
		return nil, fmt.Errorf("opening manifest %s: %w", d.path, err)
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return nil, fmt.Errorf("reading manifest %s: %w", d.path, err)
	}

	var manifest Manifest
	if err := yaml.Unmarshal(data, &manifest); err != nil {
		return nil, fmt.Errorf("parsing manifest %s: %w", d.path, err)
	}
	if manifest.RootURL == "" {
		manifest.RootURL = d.rootURL
	}
	return ExpandManifest(&manifest)
}

// ExpandManifest turns the manifest hierarchy into a flat item list,
// keeping only links whose extension token cleans to a parseable format.
func ExpandManifest(manifest *Manifest) ([]DatasetItem, error) {
	if manifest.RootURL == "" {
		return nil, fmt.Errorf("manifest has no root_url")
	}

	var items []DatasetItem
	for _, series := range manifest.Series {
		seriesName := strings.Trim(series.Name, ":")
		for _, subset := range series.Subsets {
			subsetName := strings.TrimSuffix(subset.Name, descriptionSuffix)
			for _, item := range subset.Items {
				title := CleanItemTitle(item.Title)
				for _, link := range item.Links {
					ext := CleanExtToken(link.Ext)
					if !parseableExts[ext] {
						continue
					}
					items = append(items, DatasetItem{
						Path:     seriesName + "/" + subsetName + "/" + title + ext,
						SourceID: manifest.RootURL + strings.TrimLeft(link.Href, "./"),
					})
				}
			}
		}
	}
	return items, nil
}

// CleanExtToken strips the decoration around a link's extension token, so
// " (.csv)" yields ".csv". Spaces and both parentheses are trimmed.
func CleanExtToken(s string) string {
	return strings.Trim(s, " ()")
}

// CleanItemTitle cuts an item title at its first parenthesis and trims it;
// upstream titles carry size annotations like "edge list (1.2 MB)".
func CleanItemTitle(s string) string {
	if i := strings.Index(s, "("); i >= 0 {
		s = s[:i]
	}
	return strings.TrimSpace(s)
}
