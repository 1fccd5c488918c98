package repositories

import (
	"context"
	"strings"
	"sync"

	"chatline/domain"

	"github.com/blugelabs/bluge"
)

// SearchIndex mirrors message content into Bluge to back the history
// substring filter. Content is indexed lowercased as a single keyword term,
// so a wildcard query gives true case-insensitive substring semantics rather
// than token matching.
type SearchIndex struct {
	mu     sync.Mutex
	writer *bluge.Writer
}

func NewSearchIndex(writer *bluge.Writer) *SearchIndex {
	return &SearchIndex{writer: writer}
}

// Index upserts a message. Edits and soft deletes replace the previous
// document under the same id, so the index tracks current content.
func (s *SearchIndex) Index(m domain.Message) error {
	doc := bluge.NewDocument(m.ID.String()).
		AddField(bluge.NewKeywordField("channel", string(m.ChannelID))).
		AddField(bluge.NewKeywordField("content", strings.ToLower(m.Content)))

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writer.Update(doc.ID(), doc)
}

// MatchSubstring returns the ids of the channel's messages whose content
// contains the needle, case-insensitively.
func (s *SearchIndex) MatchSubstring(ctx context.Context, channelID domain.ChannelID, needle string) (map[string]struct{}, error) {
	reader, err := s.writer.Reader()
	if err != nil {
		return nil, err
	}
	defer reader.Close()

	query := bluge.NewBooleanQuery().
		AddMust(bluge.NewTermQuery(string(channelID)).SetField("channel")).
		AddMust(bluge.NewWildcardQuery("*" + strings.ToLower(needle) + "*").SetField("content"))

	it, err := reader.Search(ctx, bluge.NewAllMatches(query))
	if err != nil {
		return nil, err
	}

	ids := make(map[string]struct{})
	for match, err := it.Next(); match != nil; match, err = it.Next() {
		if err != nil {
			return nil, err
		}
		err = match.VisitStoredFields(func(field string, value []byte) bool {
			if field == "_id" {
				ids[string(value)] = struct{}{}
			}
			return true
		})
		if err != nil {
			return nil, err
		}
	}
	return ids, nil
}
