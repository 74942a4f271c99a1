package app

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/quantmind-br/shaderbuild-go/internal/config"
	"github.com/quantmind-br/shaderbuild-go/internal/utils"
)

// ErrManifestNotFound is returned when no manifest can be located
var ErrManifestNotFound = errors.New("no shader manifest found")

// ManifestNames lists the file names probed by DetectManifest, most preferred first
var ManifestNames = []string{
	config.DefaultManifest,
	"shaders.yaml",
	"shaders.yml",
	"shaders.toml",
	"shaders.hcl",
}

// DetectManifest returns the first manifest from ManifestNames present in dir
func DetectManifest(dir string) (string, error) {
	for _, name := range ManifestNames {
		path := filepath.Join(dir, name)
		if utils.FileExists(path) {
			return path, nil
		}
	}
	return "", fmt.Errorf("%w in %s", ErrManifestNotFound, dir)
}

// ResolveManifest turns a user-supplied argument into a manifest path.
// An empty argument searches the working directory; a directory is searched
// for a manifest; anything else is returned unchanged for the loader to
// report on.
func ResolveManifest(arg string) (string, error) {
	if arg == "" {
		path, err := DetectManifest(".")
		if err != nil {
			// Let the loader produce the usual read error for the default name
			return config.DefaultManifest, nil
		}
		return path, nil
	}

	arg = utils.ExpandPath(arg)
	if info, err := os.Stat(arg); err == nil && info.IsDir() {
		return DetectManifest(arg)
	}
	return arg, nil
}
