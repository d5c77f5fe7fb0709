package service

import (
	"context"
	"encoding/binary"
	"io"
	"os"
	"path/filepath"
	"strings"

	config "github.com/notAlamaD/tiktoc-autoposting/configs"
	"github.com/notAlamaD/tiktoc-autoposting/internal/models"
	"github.com/notAlamaD/tiktoc-autoposting/internal/repository"
)

const (
	MediaTypePhoto = "PHOTO"
	MediaTypeVideo = "VIDEO"
)

// MediaService resolves a content item's media reference, renders the
// description template and maps local paths to publicly reachable URLs.
type MediaService interface {
	Resolve(ctx context.Context, content *models.ContentItem, source string) (string, error)
	RenderDescription(content *models.ContentItem, template string) string
	PublicMediaURL(pathOrURL string) string
	EnsurePublicURL(ctx context.Context, pathOrURL string) (string, error)
	DetectMediaType(pathOrURL string) string
	Duration(path string) (int, bool)
}

type mediaService struct {
	cfg     config.Config
	cm      repository.ContentMediaRepository
	storage *StorageService
}

func NewMediaService(cfg config.Config, cm repository.ContentMediaRepository, storage *StorageService) MediaService {
	return &mediaService{cfg: cfg, cm: cm, storage: storage}
}

// Resolve picks the media reference for the configured source mode. An empty
// result means the content has no usable media.
func (s *mediaService) Resolve(ctx context.Context, content *models.ContentItem, source string) (string, error) {
	switch source {
	case models.MediaSourceCustomField:
		return content.CustomMediaURL, nil
	case models.MediaSourceAttachment:
		media, err := s.cm.GetFirstByContentID(ctx, content.ID)
		if err != nil {
			return "", err
		}
		if media == nil {
			return "", nil
		}
		return media.FilePath, nil
	default:
		return content.FeaturedMediaPath, nil
	}
}

// RenderDescription substitutes the template tokens with content fields.
func (s *mediaService) RenderDescription(content *models.ContentItem, template string) string {
	replacer := strings.NewReplacer(
		"{post_title}", content.Title,
		"{excerpt}", trimWords(content.Excerpt, 30),
		"{post_url}", content.URL,
		"{date}", content.PublishedAt.Format("January 2, 2006"),
		"{category}", content.Category,
	)
	return replacer.Replace(template)
}

// PublicMediaURL maps a local path under the public media root to its public
// URL. URLs pass through untouched; anything else returns empty.
func (s *mediaService) PublicMediaURL(pathOrURL string) string {
	if pathOrURL == "" {
		return ""
	}
	if strings.HasPrefix(pathOrURL, "http://") || strings.HasPrefix(pathOrURL, "https://") {
		return pathOrURL
	}
	if s.cfg.PublicMediaDir == "" || s.cfg.PublicMediaBaseURL == "" {
		return ""
	}

	base := filepath.Clean(s.cfg.PublicMediaDir)
	cleaned := filepath.Clean(pathOrURL)

	rel, err := filepath.Rel(base, cleaned)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return ""
	}

	return strings.TrimSuffix(s.cfg.PublicMediaBaseURL, "/") + "/" + filepath.ToSlash(rel)
}

// EnsurePublicURL resolves a path to a public URL, uploading to R2 as a
// fallback when the file lives outside the public root.
func (s *mediaService) EnsurePublicURL(ctx context.Context, pathOrURL string) (string, error) {
	if url := s.PublicMediaURL(pathOrURL); url != "" {
		return url, nil
	}

	if s.storage != nil && s.storage.Enabled() {
		if _, err := os.Stat(pathOrURL); err == nil {
			return s.storage.Upload(ctx, pathOrURL)
		}
	}

	return "", nil
}

var photoExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".webp": true,
	".gif":  true,
}

// DetectMediaType classifies by extension; anything not a known image
// extension is treated as video.
func (s *mediaService) DetectMediaType(pathOrURL string) string {
	ext := strings.ToLower(filepath.Ext(pathOrURL))
	if photoExtensions[ext] {
		return MediaTypePhoto
	}
	return MediaTypeVideo
}

// Duration reports a local video's length in seconds. Only MP4 containers are
// probed; everything else reports unknown, which the pipeline does not block.
func (s *mediaService) Duration(path string) (int, bool) {
	f, err := os.Open(path)
	if err != nil {
		return 0, false
	}
	defer f.Close()

	return mp4Duration(f)
}

func trimWords(text string, limit int) string {
	words := strings.Fields(text)
	if len(words) <= limit {
		return strings.Join(words, " ")
	}
	return strings.Join(words[:limit], " ") + "…"
}

// mp4Duration walks top-level ISO BMFF boxes looking for moov/mvhd and
// returns duration/timescale.
func mp4Duration(r io.ReadSeeker) (int, bool) {
	for {
		size, boxType, err := readBoxHeader(r)
		if err != nil {
			return 0, false
		}
		if boxType == "moov" {
			return mvhdDuration(io.LimitReader(r, size-8))
		}
		if _, err := r.Seek(size-8, io.SeekCurrent); err != nil {
			return 0, false
		}
	}
}

func mvhdDuration(r io.Reader) (int, bool) {
	for {
		var header [8]byte
		if _, err := io.ReadFull(r, header[:]); err != nil {
			return 0, false
		}
		size := int64(binary.BigEndian.Uint32(header[:4]))
		boxType := string(header[4:8])
		if size < 8 {
			return 0, false
		}
		if boxType != "mvhd" {
			if _, err := io.CopyN(io.Discard, r, size-8); err != nil {
				return 0, false
			}
			continue
		}

		var version [4]byte
		if _, err := io.ReadFull(r, version[:]); err != nil {
			return 0, false
		}
		if version[0] == 1 {
			var body [28]byte
			if _, err := io.ReadFull(r, body[:]); err != nil {
				return 0, false
			}
			timescale := binary.BigEndian.Uint32(body[16:20])
			duration := binary.BigEndian.Uint64(body[20:28])
			if timescale == 0 {
				return 0, false
			}
			return int(duration / uint64(timescale)), true
		}

		var body [16]byte
		if _, err := io.ReadFull(r, body[:]); err != nil {
			return 0, false
		}
		timescale := binary.BigEndian.Uint32(body[8:12])
		duration := binary.BigEndian.Uint32(body[12:16])
		if timescale == 0 {
			return 0, false
		}
		return int(duration / timescale), true
	}
}

func readBoxHeader(r io.Reader) (int64, string, error) {
	var header [8]byte
	if _, err := io.ReadFull(r, header[:]); err != nil {
		return 0, "", err
	}
	size := int64(binary.BigEndian.Uint32(header[:4]))
	if size < 8 {
		return 0, "", io.ErrUnexpectedEOF
	}
	return size, string(header[4:8]), nil
}
