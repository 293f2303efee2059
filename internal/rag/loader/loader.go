// Package loader turns files and web pages into langchaingo documents.
package loader

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"usage-mail-llm/internal/logging"

	"github.com/go-resty/resty/v2"
	"github.com/tmc/langchaingo/documentloaders"
	"github.com/tmc/langchaingo/schema"
)

// ErrUnsupportedSource is returned for sources no loader knows how to read
var ErrUnsupportedSource = errors.New("unsupported source")

// MetadataSource is the metadata key holding the source a document was loaded from
const MetadataSource = "source"

const renderPrefix = "render+"

// Renderer returns the HTML of a page after scripts have run
type Renderer interface {
	Render(ctx context.Context, url string) (string, error)
}

type Loader struct {
	client   *resty.Client
	renderer Renderer
}

// New creates a Loader. renderer may be nil, in which case render+ sources are rejected.
func New(renderer Renderer) *Loader {
	return NewWithClient(
		resty.New().
			SetTimeout(30*time.Second).
			SetRedirectPolicy(resty.FlexibleRedirectPolicy(5)),
		renderer,
	)
}

func NewWithClient(client *resty.Client, renderer Renderer) *Loader {
	return &Loader{client: client, renderer: renderer}
}

// Load reads one source:
//   - .txt and .md files as plain text
//   - .pdf files, one document per page
//   - .html and .htm files
//   - http(s) URLs fetched directly
//   - render+http(s) URLs rendered in a headless browser
func (l *Loader) Load(ctx context.Context, source string) ([]schema.Document, error) {
	var (
		docs []schema.Document
		err  error
	)

	lower := strings.ToLower(source)
	switch {
	case strings.HasPrefix(lower, renderPrefix+"http://"), strings.HasPrefix(lower, renderPrefix+"https://"):
		docs, err = l.loadRendered(ctx, source[len(renderPrefix):])
	case strings.HasPrefix(lower, "http://"), strings.HasPrefix(lower, "https://"):
		docs, err = l.loadURL(ctx, source)
	case strings.Contains(source, "://"):
		err = fmt.Errorf("%w: %s", ErrUnsupportedSource, source)
	default:
		docs, err = loadFile(ctx, source)
	}
	if err != nil {
		return nil, err
	}

	for i := range docs {
		if docs[i].Metadata == nil {
			docs[i].Metadata = map[string]any{}
		}
		docs[i].Metadata[MetadataSource] = source
	}

	logging.Log.WithField(MetadataSource, source).Debugf("Loaded %d documents", len(docs))
	return docs, nil
}

// LoadAll loads every source in order and stops at the first failure
func (l *Loader) LoadAll(ctx context.Context, sources ...string) ([]schema.Document, error) {
	var all []schema.Document
	for _, source := range sources {
		docs, err := l.Load(ctx, source)
		if err != nil {
			return nil, err
		}
		all = append(all, docs...)
	}
	return all, nil
}

func loadFile(ctx context.Context, path string) ([]schema.Document, error) {
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".txt", ".md", ".pdf", ".html", ".htm":
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedSource, path)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	var docs []schema.Document
	switch ext {
	case ".pdf":
		info, err := f.Stat()
		if err != nil {
			return nil, fmt.Errorf("stat %s: %w", path, err)
		}
		docs, err = documentloaders.NewPDF(f, info.Size()).Load(ctx)
		if err != nil {
			return nil, fmt.Errorf("load pdf %s: %w", path, err)
		}
	case ".html", ".htm":
		docs, err = documentloaders.NewHTML(f).Load(ctx)
		if err != nil {
			return nil, fmt.Errorf("load html %s: %w", path, err)
		}
	default:
		docs, err = documentloaders.NewText(f).Load(ctx)
		if err != nil {
			return nil, fmt.Errorf("load text %s: %w", path, err)
		}
	}
	return docs, nil
}

func (l *Loader) loadURL(ctx context.Context, url string) ([]schema.Document, error) {
	resp, err := l.client.R().
		SetContext(ctx).
		SetHeader("Accept", "text/html,text/plain;q=0.9,*/*;q=0.5").
		Get(url)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", url, err)
	}
	if !resp.IsSuccess() {
		return nil, fmt.Errorf("fetch %s: status %d", url, resp.StatusCode())
	}

	if strings.HasPrefix(resp.Header().Get("Content-Type"), "text/plain") {
		return documentloaders.NewText(strings.NewReader(resp.String())).Load(ctx)
	}
	return htmlDocuments(ctx, resp.String())
}

func (l *Loader) loadRendered(ctx context.Context, url string) ([]schema.Document, error) {
	if l.renderer == nil {
		return nil, fmt.Errorf("%w: no browser available for %s", ErrUnsupportedSource, url)
	}
	html, err := l.renderer.Render(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("render %s: %w", url, err)
	}
	return htmlDocuments(ctx, html)
}

func htmlDocuments(ctx context.Context, html string) ([]schema.Document, error) {
	docs, err := documentloaders.NewHTML(strings.NewReader(html)).Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}
	return docs, nil
}
