package transcribe

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	speech "cloud.google.com/go/speech/apiv1"
	"cloud.google.com/go/speech/apiv1/speechpb"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/dmitrijs2005/cpdvault/internal/logging"
)

// voice notes are short reflections; synchronous recognition caps at
// roughly one minute of audio
const maxAudioBytes = 10 << 20

// GCPTranscriber recognizes speech with the Google Cloud Speech-to-Text API.
type GCPTranscriber struct {
	log        logging.Logger
	client     *speech.Client
	language   string
	maxRetries int
}

// NewGCPTranscriber builds a client using GOOGLE_APPLICATION_CREDENTIALS
// (file path) when set, otherwise ambient application-default credentials.
func NewGCPTranscriber(ctx context.Context, log logging.Logger, language string) (*GCPTranscriber, error) {
	if language == "" {
		language = "en-GB"
	}

	var opts []option.ClientOption
	if creds := strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS")); creds != "" {
		opts = append(opts, option.WithCredentialsFile(creds))
	}

	c, err := speech.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("speech client: %w", err)
	}

	return &GCPTranscriber{
		log:        log.With("component", "transcriber"),
		client:     c,
		language:   language,
		maxRetries: 4,
	}, nil
}

func (t *GCPTranscriber) Close() error {
	if t == nil || t.client == nil {
		return nil
	}
	return t.client.Close()
}

func (t *GCPTranscriber) Transcribe(ctx context.Context, audioPath string) (*Transcript, error) {
	audio, err := os.ReadFile(audioPath)
	if err != nil {
		return nil, fmt.Errorf("reading audio file: %w", err)
	}
	if len(audio) == 0 {
		return &Transcript{}, nil
	}
	if len(audio) > maxAudioBytes {
		return nil, fmt.Errorf("audio file too large for synchronous recognition (%d bytes)", len(audio))
	}

	ctx, cancel := context.WithTimeout(ctx, 3*time.Minute)
	defer cancel()

	req := &speechpb.RecognizeRequest{
		Config: &speechpb.RecognitionConfig{
			LanguageCode:               t.language,
			Encoding:                   inferEncoding(audioPath),
			EnableAutomaticPunctuation: true,
		},
		Audio: &speechpb.RecognitionAudio{
			AudioSource: &speechpb.RecognitionAudio_Content{Content: audio},
		},
	}

	resp, err := t.recognizeWithRetry(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("speech recognize: %w", err)
	}

	tr := joinResults(resp)
	t.log.Debug(ctx, "voice note transcribed",
		"file", filepath.Base(audioPath), "chars", len(tr.Text))
	return tr, nil
}

func (t *GCPTranscriber) recognizeWithRetry(ctx context.Context, req *speechpb.RecognizeRequest) (*speechpb.RecognizeResponse, error) {
	backoff := 750 * time.Millisecond
	var last error
	for attempt := 0; attempt <= t.maxRetries; attempt++ {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		resp, err := t.client.Recognize(ctx, req)
		if err == nil {
			return resp, nil
		}
		last = err

		code := status.Code(err)
		if code != codes.Unavailable && code != codes.ResourceExhausted && code != codes.DeadlineExceeded {
			return nil, err
		}
		if attempt == t.maxRetries {
			break
		}
		time.Sleep(backoff)
		backoff *= 2
		if backoff > 10*time.Second {
			backoff = 10 * time.Second
		}
	}
	return nil, last
}

func inferEncoding(path string) speechpb.RecognitionConfig_AudioEncoding {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".wav":
		return speechpb.RecognitionConfig_LINEAR16
	case ".flac":
		return speechpb.RecognitionConfig_FLAC
	case ".mp3":
		return speechpb.RecognitionConfig_MP3
	case ".ogg", ".opus":
		return speechpb.RecognitionConfig_OGG_OPUS
	default:
		return speechpb.RecognitionConfig_ENCODING_UNSPECIFIED
	}
}

// joinResults concatenates the top alternative of every result and averages
// their confidences.
func joinResults(resp *speechpb.RecognizeResponse) *Transcript {
	out := &Transcript{}
	if resp == nil || len(resp.Results) == 0 {
		return out
	}

	var full strings.Builder
	var confSum float32
	var confN int

	for _, r := range resp.Results {
		if r == nil || len(r.Alternatives) == 0 || r.Alternatives[0] == nil {
			continue
		}
		alt := r.Alternatives[0]
		text := strings.TrimSpace(alt.Transcript)
		if text == "" {
			continue
		}
		if full.Len() > 0 {
			full.WriteString(" ")
		}
		full.WriteString(text)
		if alt.Confidence > 0 {
			confSum += alt.Confidence
			confN++
		}
	}

	out.Text = full.String()
	if confN > 0 {
		out.Confidence = confSum / float32(confN)
	}
	return out
}
