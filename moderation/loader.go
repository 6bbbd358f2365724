package moderation

import (
	"bufio"
	"bytes"
	"embed"
	"io/fs"
	"path"
	"slices"
	"strings"

	"unified-chat/errors"

	"github.com/samber/lo"
)

//go:embed censored/*.txt
var censoredFolder embed.FS

// CensoredData is the merged word list and the languages it came from.
type CensoredData struct {
	Words     []string
	Languages []string
}

// CensoredLoader reads one dictionary per language, e.g. "fr.txt".
type CensoredLoader struct {
	fs fs.FS
}

func NewCensoredLoader(f fs.FS) *CensoredLoader {
	return &CensoredLoader{fs: f}
}

// DefaultCensoredLoader reads the dictionaries shipped with the binary.
func DefaultCensoredLoader() *CensoredLoader {
	return NewCensoredLoader(censoredFolder)
}

// LoadAll merges every .txt file under dir into a sorted list of unique words.
func (l *CensoredLoader) LoadAll(dir string) (*CensoredData, error) {
	entries, err := fs.ReadDir(l.fs, dir)
	if err != nil {
		return nil, err
	}

	var languages []string
	uniqueWords := make(map[string]struct{})

	for _, entry := range entries {
		if entry.IsDir() || path.Ext(entry.Name()) != ".txt" {
			continue
		}
		languages = append(languages, strings.TrimSuffix(entry.Name(), ".txt"))

		data, err := fs.ReadFile(l.fs, path.Join(dir, entry.Name()))
		if err != nil {
			return nil, err
		}

		// Scanner copes with both \n and \r\n
		scanner := bufio.NewScanner(bytes.NewReader(data))
		for scanner.Scan() {
			if line := strings.TrimSpace(scanner.Text()); line != "" && !strings.HasPrefix(line, "#") {
				uniqueWords[line] = struct{}{}
			}
		}
		if err := scanner.Err(); err != nil {
			return nil, err
		}
	}

	if len(uniqueWords) == 0 {
		return nil, errors.ErrEmptyWords
	}

	words := lo.Keys(uniqueWords)
	slices.Sort(words)
	return &CensoredData{Words: words, Languages: languages}, nil
}
