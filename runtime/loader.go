package runtime

import (
	"bufio"
	"bytes"
	"embed"
	"io/fs"
	"strings"

	"chatline/errors"
)

//go:embed censored/*
var censoredFolder embed.FS

// CensoredData carries the result of the loading process including metadata
// for logging.
type CensoredData struct {
	Words     []string
	Languages []string
}

// LoadCensoredWords parses the embedded blacklisted-word files. Each .txt
// file is a language dictionary, one word per line.
func LoadCensoredWords() (*CensoredData, error) {
	entries, err := fs.ReadDir(censoredFolder, "censored")
	if err != nil {
		return nil, err
	}

	var languages []string
	uniqueWords := make(map[string]struct{})

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		lang := strings.TrimSuffix(entry.Name(), ".txt")
		languages = append(languages, lang)

		data, err := censoredFolder.ReadFile("censored/" + entry.Name())
		if err != nil {
			return nil, err
		}

		// A scanner handles both \n and \r\n line endings.
		scanner := bufio.NewScanner(bytes.NewReader(data))
		for scanner.Scan() {
			line := strings.TrimSpace(scanner.Text())
			if line != "" {
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

	words := make([]string, 0, len(uniqueWords))
	for w := range uniqueWords {
		words = append(words, w)
	}

	return &CensoredData{Words: words, Languages: languages}, nil
}
