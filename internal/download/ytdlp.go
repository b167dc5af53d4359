package download

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/lrstanley/go-ytdlp"
)

// SearchPrefix asks yt-dlp for the first search result only
const SearchPrefix = "ytsearch1:"

// DefaultFilenameTemplate names output files after the source title
const DefaultFilenameTemplate = "%(title)s.%(ext)s"

// YTDLPIndex searches YouTube through the yt-dlp binary
type YTDLPIndex struct {
	filenameTemplate string
}

var _ MediaIndex = (*YTDLPIndex)(nil)

// NewYTDLPIndex creates an index using the default filename template
func NewYTDLPIndex() *YTDLPIndex {
	return &YTDLPIndex{filenameTemplate: DefaultFilenameTemplate}
}

// Fetch downloads the best audio of the top result for query into dir and
// converts it to the target codec
func (y *YTDLPIndex) Fetch(ctx context.Context, query, dir string) (*Extraction, error) {
	dl := ytdlp.New().
		Format("bestaudio/best").
		ExtractAudio().
		AudioFormat(TargetCodec).
		AudioQuality(fmt.Sprintf("%dK", TargetQuality)).
		NoPlaylist().
		ForceOverwrites().
		PrintJSON().
		Output(filepath.Join(dir, y.filenameTemplate))

	result, err := dl.Run(ctx, searchTarget(query))
	if err != nil {
		return nil, fmt.Errorf("yt-dlp failed: %w", err)
	}

	info, err := result.GetExtractedInfo()
	if err != nil {
		return nil, fmt.Errorf("failed to read yt-dlp output: %w", err)
	}
	return extractionFromInfo(info)
}

// searchTarget turns a free-text query into a yt-dlp search for its top result
func searchTarget(query string) string {
	return SearchPrefix + query
}

// extractionFromInfo reads the first extracted item. No item, or an item
// without an output file, counts as no match.
func extractionFromInfo(info []*ytdlp.ExtractedInfo) (*Extraction, error) {
	if len(info) == 0 || info[0] == nil {
		return nil, ErrNoMatch
	}

	ext := &Extraction{}
	if info[0].Title != nil {
		ext.Title = *info[0].Title
	}
	if info[0].Filename != nil {
		ext.Filename = *info[0].Filename
	}
	if ext.Filename == "" {
		return nil, ErrNoMatch
	}
	return ext, nil
}
