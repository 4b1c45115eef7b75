package audio

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sort"
	"strings"

	ytdl "github.com/kkdai/youtube/v2"

	"voicecheck-go/internal/logger"
)

// Extractor downloads a video's best audio-only stream and normalizes it to
// the mono 16 kHz WAV the transcription vendor expects. Hard by contract:
// failures surface to the pipeline.
type Extractor struct {
	client ytdl.Client
}

func NewExtractor() *Extractor {
	return &Extractor{}
}

// Extract returns the path of the normalized artifact under destDir. The
// caller owns the file and removes it when the job settles.
func (e *Extractor) Extract(ctx context.Context, sourceURL, destDir string) (string, error) {
	log := logger.Component("audio").WithField("source", sourceURL)

	video, err := e.client.GetVideoContext(ctx, sourceURL)
	if err != nil {
		return "", fmt.Errorf("get video: %w", err)
	}

	format, err := bestAudioFormat(video)
	if err != nil {
		return "", err
	}
	log.WithField("mime", format.MimeType).WithField("bitrate", format.Bitrate).Info("downloading audio stream")

	stream, _, err := e.client.GetStreamContext(ctx, video, format)
	if err != nil {
		return "", fmt.Errorf("get stream: %w", err)
	}
	defer stream.Close()

	raw, err := os.CreateTemp(destDir, "voicecheck-raw-*"+extension(format.MimeType))
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(raw.Name())

	if _, err := io.Copy(raw, stream); err != nil {
		raw.Close()
		return "", fmt.Errorf("download audio: %w", err)
	}
	if err := raw.Close(); err != nil {
		return "", fmt.Errorf("close temp file: %w", err)
	}

	wavPath := strings.TrimSuffix(raw.Name(), extension(format.MimeType)) + ".wav"
	if err := normalize(ctx, raw.Name(), wavPath); err != nil {
		return "", err
	}
	return wavPath, nil
}

func bestAudioFormat(video *ytdl.Video) (*ytdl.Format, error) {
	var audio []*ytdl.Format
	for i := range video.Formats {
		f := &video.Formats[i]
		if strings.HasPrefix(f.MimeType, "audio/") {
			audio = append(audio, f)
		}
	}
	if len(audio) == 0 {
		return nil, fmt.Errorf("no audio-only formats available")
	}
	sort.Slice(audio, func(i, j int) bool {
		return audio[i].Bitrate > audio[j].Bitrate
	})
	return audio[0], nil
}

// normalize converts the downloaded stream to 16 kHz mono WAV via ffmpeg.
func normalize(ctx context.Context, inputPath, outputPath string) error {
	if _, err := exec.LookPath("ffmpeg"); err != nil {
		return fmt.Errorf("ffmpeg not found: %w", err)
	}

	cmd := exec.CommandContext(ctx, "ffmpeg",
		"-i", inputPath,
		"-ar", "16000",
		"-ac", "1",
		"-f", "wav",
		"-y",
		outputPath,
	)
	out, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("ffmpeg conversion failed: %w: %s", err, string(out))
	}
	return nil
}

func extension(mimeType string) string {
	switch {
	case strings.Contains(mimeType, "mp4"):
		return ".m4a"
	case strings.Contains(mimeType, "webm"):
		return ".webm"
	default:
		return ".audio"
	}
}
