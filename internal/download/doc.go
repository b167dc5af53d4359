// Package download turns a track descriptor into a local audio file. It asks a
// media index (yt-dlp via github.com/lrstanley/go-ytdlp by default) for the
// top search match, extracts its audio as mp3 into the run's work directory
// and verifies the file landed on disk.
package download
