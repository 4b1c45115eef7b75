package thumbnail

import (
	"context"
	"fmt"

	ytdl "github.com/kkdai/youtube/v2"

	"voicecheck-go/internal/logger"
)

// YouTube resolves a video's preview image from its metadata. Soft by
// contract: any failure is logged and degrades to the placeholder the caller
// provides, never an error.
type YouTube struct {
	client      ytdl.Client
	placeholder string
}

func NewYouTube(placeholder string) *YouTube {
	return &YouTube{placeholder: placeholder}
}

// Capture returns the URL of the largest thumbnail the video advertises.
func (y *YouTube) Capture(ctx context.Context, sourceURL string) (string, error) {
	log := logger.Component("thumbnail").WithField("source", sourceURL)

	ref, err := y.capture(ctx, sourceURL)
	if err != nil {
		log.WithError(err).Warn("thumbnail capture failed, falling back to placeholder")
		return y.placeholder, nil
	}
	return ref, nil
}

func (y *YouTube) capture(ctx context.Context, sourceURL string) (string, error) {
	video, err := y.client.GetVideoContext(ctx, sourceURL)
	if err != nil {
		return "", fmt.Errorf("get video: %w", err)
	}
	if len(video.Thumbnails) == 0 {
		return "", fmt.Errorf("video has no thumbnails")
	}

	best := video.Thumbnails[0]
	for _, t := range video.Thumbnails[1:] {
		if t.Width > best.Width {
			best = t
		}
	}
	return best.URL, nil
}
