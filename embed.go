package sitegen

import "embed"

// EmbeddedAssets contains files shipped with the generator: the preview
// server's not-found page template.
//
//go:embed embedded/*
var EmbeddedAssets embed.FS

func mustReadEmbedded(name string) string {
	data, err := EmbeddedAssets.ReadFile(name)
	if err != nil {
		panic(err)
	}
	return string(data)
}

var notFoundTemplate = mustReadEmbedded("embedded/notfound.html")
