package config

import (
	"fmt"
	"strings"
)

const (
	LoaderOffline  = "offline"
	LoaderDownload = "download"
)

func NormalizeLoader(raw string) (string, error) {
	loader := strings.ToLower(strings.TrimSpace(raw))
	if loader == "" {
		loader = LoaderOffline
	}
	switch loader {
	case LoaderOffline, LoaderDownload:
		return loader, nil
	case "embedded":
		return LoaderOffline, nil
	case "online", "remote":
		return LoaderDownload, nil
	default:
		return "", fmt.Errorf(
			"invalid loader %q (expected %s|%s)",
			raw,
			LoaderOffline,
			LoaderDownload,
		)
	}
}
