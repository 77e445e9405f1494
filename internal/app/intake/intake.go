// Package intake turns local files into validated track descriptors.
// Validation happens entirely here; the playlist and controller accept
// whatever intake produces.
package intake

import (
	"mime"
	"os"
	"path/filepath"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/dhowden/tag"
	zlog "github.com/rs/zerolog/log"

	"github.com/cueplay/cueplay/internal/app/filter"
	"github.com/cueplay/cueplay/internal/domain/track"
)

// ErrRejected marks files turned away by the intake filter chain. The
// wrapped message carries the rejecting filter's code.
var ErrRejected = errors.New("file rejected at intake")

// mimeByExt maps audio extensions the player understands. The stdlib
// table has no audio entries and the system table is not portable.
var mimeByExt = map[string]string{
	".mp3":  "audio/mpeg",
	".ogg":  "audio/ogg",
	".oga":  "audio/ogg",
	".opus": "audio/opus",
	".wav":  "audio/wav",
	".flac": "audio/flac",
	".aac":  "audio/aac",
	".m4a":  "audio/mp4",
	".webm": "audio/webm",
}

// Service builds track descriptors from files, running the validation
// chain before a track is created.
type Service struct {
	chain   *filter.Chain
	release track.ReleaseFunc
}

// NewService creates an intake service. The release hook is attached to
// every produced track and runs when its URI is revoked.
func NewService(chain *filter.Chain, release track.ReleaseFunc) *Service {
	return &Service{chain: chain, release: release}
}

// FromFile validates the file at path and produces a track descriptor.
func (s *Service) FromFile(path string) (*track.Track, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to stat file")
	}
	if info.IsDir() {
		return nil, errors.Newf("%s is a directory", path)
	}

	mimeType := detectMIME(path)
	cand := filter.Candidate{
		Name:     filepath.Base(path),
		Size:     info.Size(),
		MIMEType: mimeType,
	}
	if result := s.chain.Execute(cand); !result.Accepted {
		zlog.Debug().Str("file", cand.Name).Str("code", result.Code).Msg("intake: rejected")
		return nil, errors.Wrapf(ErrRejected, "%s: %s", cand.Name, result.Code)
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to resolve path")
	}

	t := track.New(displayName(path), info.Size(), mimeType, "file://"+abs, s.release)
	zlog.Debug().Str("track", t.ID).Str("name", t.Name).Int64("size", t.Size).Msg("intake: accepted")
	return t, nil
}

// detectMIME resolves the content type from the file extension.
func detectMIME(path string) string {
	ext := strings.ToLower(filepath.Ext(path))
	if m, ok := mimeByExt[ext]; ok {
		return m
	}
	if m := mime.TypeByExtension(ext); m != "" {
		return m
	}
	return "application/octet-stream"
}

// displayName prefers the embedded title tag, falling back to the file
// name without its extension.
func displayName(path string) string {
	base := filepath.Base(path)
	fallback := strings.TrimSuffix(base, filepath.Ext(base))

	f, err := os.Open(path)
	if err != nil {
		return fallback
	}
	defer func() { _ = f.Close() }()

	md, err := tag.ReadFrom(f)
	if err != nil || md.Title() == "" {
		return fallback
	}
	if artist := md.Artist(); artist != "" {
		return artist + " - " + md.Title()
	}
	return md.Title()
}
