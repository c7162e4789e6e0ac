package services

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	texttospeech "cloud.google.com/go/texttospeech/apiv1"
	"cloud.google.com/go/texttospeech/apiv1/texttospeechpb"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/pagetone/pagetone-backend/internal/apperr"
	"github.com/pagetone/pagetone-backend/internal/config"
	"github.com/pagetone/pagetone-backend/internal/logger"
)

// SpeechSynthesizer renders text to an audio file. basePath carries no
// extension; the synthesizer appends one matching its output format and
// returns the final path.
type SpeechSynthesizer interface {
	Synthesize(ctx context.Context, text string, basePath string) (path string, format string, err error)
	Close() error
}

// NewSpeechSynthesizer picks the backend from config. A piper backend with
// no voice model configured falls back to the cloud backend when network
// synthesis is allowed, matching how an unconfigured local install should
// degrade.
func NewSpeechSynthesizer(cfg *config.Config, log *logger.Logger, media MediaToolsService) (SpeechSynthesizer, error) {
	switch cfg.TTSBackend {
	case "piper":
		if cfg.PiperModel == "" {
			if cfg.TTSAllowNetwork {
				log.Warn("Piper voice model not configured; falling back to cloud TTS")
				return newGCloudSynthesizer(cfg, log)
			}
			return nil, fmt.Errorf("piper backend requires PIPER_MODEL, or enable TTS_ALLOW_NETWORK for cloud fallback")
		}
		return &piperSynthesizer{
			log:       log.With("service", "PiperSynthesizer"),
			media:     media,
			modelPath: cfg.PiperModel,
		}, nil
	case "gcloud":
		if !cfg.TTSAllowNetwork {
			return nil, fmt.Errorf("gcloud TTS requires network access; set TTS_ALLOW_NETWORK=true")
		}
		return newGCloudSynthesizer(cfg, log)
	default:
		return nil, fmt.Errorf("unsupported TTS backend: %s", cfg.TTSBackend)
	}
}

type piperSynthesizer struct {
	log       *logger.Logger
	media     MediaToolsService
	modelPath string
}

func (s *piperSynthesizer) Synthesize(ctx context.Context, text string, basePath string) (string, string, error) {
	outPath := basePath + ".wav"
	if err := s.media.SynthesizeWithPiper(ctx, text, s.modelPath, outPath); err != nil {
		return "", "", err
	}
	return outPath, "wav", nil
}

func (s *piperSynthesizer) Close() error { return nil }

type gcloudSynthesizer struct {
	log        *logger.Logger
	client     *texttospeech.Client
	lang       string
	maxRetries int
}

func newGCloudSynthesizer(cfg *config.Config, log *logger.Logger) (SpeechSynthesizer, error) {
	creds := strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS_JSON"))
	if creds == "" {
		creds = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}

	ctx := context.Background()
	var c *texttospeech.Client
	var err error
	if creds != "" {
		c, err = texttospeech.NewClient(ctx, option.WithCredentialsFile(creds))
	} else {
		c, err = texttospeech.NewClient(ctx)
	}
	if err != nil {
		return nil, fmt.Errorf("texttospeech client: %w", err)
	}

	return &gcloudSynthesizer{
		log:        log.With("service", "GCloudSynthesizer"),
		client:     c,
		lang:       cfg.TTSLang,
		maxRetries: 3,
	}, nil
}

func (s *gcloudSynthesizer) Synthesize(ctx context.Context, text string, basePath string) (string, string, error) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Minute)
	defer cancel()

	req := &texttospeechpb.SynthesizeSpeechRequest{
		Input: &texttospeechpb.SynthesisInput{
			InputSource: &texttospeechpb.SynthesisInput_Text{Text: text},
		},
		Voice: &texttospeechpb.VoiceSelectionParams{
			LanguageCode: s.lang,
			SsmlGender:   texttospeechpb.SsmlVoiceGender_NEUTRAL,
		},
		AudioConfig: &texttospeechpb.AudioConfig{
			AudioEncoding: texttospeechpb.AudioEncoding_MP3,
		},
	}

	var resp *texttospeechpb.SynthesizeSpeechResponse
	var err error
	backoff := 1 * time.Second
	for attempt := 0; attempt <= s.maxRetries; attempt++ {
		resp, err = s.client.SynthesizeSpeech(ctx, req)
		if err == nil {
			break
		}
		if !isRetryableGRPC(err) || attempt == s.maxRetries {
			return "", "", fmt.Errorf("%w: texttospeech synthesize: %v", apperr.ErrUpstream, err)
		}
		s.log.Warn("Cloud TTS retrying", "attempt", attempt+1, "error", err.Error())
		time.Sleep(jitterSleep(backoff))
		backoff *= 2
	}

	outPath := basePath + ".mp3"
	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		return "", "", fmt.Errorf("mkdir audio dir: %w", err)
	}
	if err := os.WriteFile(outPath, resp.AudioContent, 0o644); err != nil {
		return "", "", fmt.Errorf("write audio file: %w", err)
	}
	return outPath, "mp3", nil
}

func (s *gcloudSynthesizer) Close() error {
	if s == nil || s.client == nil {
		return nil
	}
	return s.client.Close()
}

func isRetryableGRPC(err error) bool {
	switch status.Code(err) {
	case codes.Unavailable, codes.ResourceExhausted, codes.DeadlineExceeded, codes.Aborted, codes.Internal:
		return true
	default:
		return false
	}
}
