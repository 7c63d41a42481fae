package sitegen

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"path"
	"path/filepath"
	"strings"
	"time"
)

type sitemapURLSet struct {
	XMLName xml.Name     `xml:"urlset"`
	XMLNS   string       `xml:"xmlns,attr"`
	URLs    []sitemapURL `xml:"url"`
}

type sitemapURL struct {
	Loc     string `xml:"loc"`
	LastMod string `xml:"lastmod,omitempty"`
}

// SitemapPage is one entry of a sitemap. URL is the page's public path.
type SitemapPage struct {
	URL     string
	LastMod time.Time
}

// WriteSitemap writes a sitemaps.org urlset for pages to path. Page URLs are
// joined to baseURL.
func WriteSitemap(path, baseURL string, pages []SitemapPage) error {
	urls := make([]sitemapURL, 0, len(pages))
	for _, p := range pages {
		u := sitemapURL{Loc: joinURL(baseURL, p.URL)}
		if !p.LastMod.IsZero() {
			u.LastMod = p.LastMod.UTC().Format("2006-01-02")
		}
		urls = append(urls, u)
	}
	sitemap := sitemapURLSet{
		XMLNS: "http://www.sitemaps.org/schemas/sitemap/0.9",
		URLs:  urls,
	}

	var buf bytes.Buffer
	buf.WriteString(xml.Header)
	enc := xml.NewEncoder(&buf)
	enc.Indent("", "  ")
	if err := enc.Encode(sitemap); err != nil {
		return fmt.Errorf("sitegen: encode sitemap: %w", err)
	}
	buf.WriteByte('\n')
	return writeOutput(path, buf.String())
}

func joinURL(base, p string) string {
	return strings.TrimRight(base, "/") + "/" + strings.TrimLeft(p, "/")
}

// pageURL derives the public path of an output file relative to the output
// directory: "index.html" files map to their directory.
func pageURL(rel string) string {
	p := "/" + strings.TrimPrefix(filepath.ToSlash(rel), "/")
	if path.Base(p) == "index.html" {
		dir := path.Dir(p)
		if dir == "/" {
			return "/"
		}
		return dir + "/"
	}
	return p
}
