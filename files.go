package main

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/raine/stock-metadata/internal/media"
	"github.com/rs/zerolog/log"
)

// collectFiles reads the files named in args. Directories are expanded to
// the supported media files they contain, recursively when recursive is set.
// Files named explicitly are always included, even when unsupported, so that
// they show up as error results.
func collectFiles(args []string, recursive bool) ([]media.SourceFile, error) {
	var paths []string
	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil {
			return nil, fmt.Errorf("failed to stat %s: %w", arg, err)
		}
		if !info.IsDir() {
			paths = append(paths, arg)
			continue
		}
		found, err := listDir(arg, recursive)
		if err != nil {
			return nil, err
		}
		paths = append(paths, found...)
	}

	files := make([]media.SourceFile, 0, len(paths))
	for _, p := range paths {
		data, err := os.ReadFile(p)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", p, err)
		}
		files = append(files, media.SourceFile{
			Name:     p,
			MIMEType: media.DetectMIME("", p, data),
			Data:     data,
		})
	}
	return files, nil
}

func listDir(dir string, recursive bool) ([]string, error) {
	var paths []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		name := d.Name()
		if d.IsDir() {
			if path != dir && (!recursive || strings.HasPrefix(name, ".")) {
				return filepath.SkipDir
			}
			return nil
		}
		if strings.HasPrefix(name, ".") {
			return nil
		}
		if media.Classify("", name, nil) == media.KindUnsupported {
			log.Debug().Str("file", path).Msg("skipping unsupported file")
			return nil
		}
		paths = append(paths, path)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", dir, err)
	}
	sort.Strings(paths)
	return paths, nil
}
