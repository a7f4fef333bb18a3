package voice

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/polly"
	pollytypes "github.com/aws/aws-sdk-go-v2/service/polly/types"
	"github.com/aws/smithy-go"

	"workout_coach/internal/logger"
)

// SynthClient is the subset of the Polly client used here.
type SynthClient interface {
	SynthesizeSpeech(ctx context.Context, params *polly.SynthesizeSpeechInput, optFns ...func(*polly.Options)) (*polly.SynthesizeSpeechOutput, error)
}

type PollyConfig struct {
	Region  string
	VoiceID string
	Engine  string
	Timeout time.Duration
}

func (c PollyConfig) withDefaults() PollyConfig {
	if strings.TrimSpace(c.Region) == "" {
		c.Region = "us-east-1"
	}
	if strings.TrimSpace(c.VoiceID) == "" {
		c.VoiceID = "Joanna"
	}
	if strings.TrimSpace(c.Engine) == "" {
		c.Engine = "neural"
	}
	if c.Timeout <= 0 {
		c.Timeout = 10 * time.Second
	}
	return c
}

// NewPollyClient loads the default AWS credential chain for region.
func NewPollyClient(ctx context.Context, region string) (SynthClient, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(PollyConfig{Region: region}.withDefaults().Region))
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	return polly.NewFromConfig(cfg), nil
}

// AudioSink receives synthesized audio for a request.
type AudioSink func(req Request, audio []byte, contentType string)

// PollyTransport synthesizes each request with Amazon Polly in the
// background, hands the audio to a sink and then reports completion.
// Failed syntheses are logged and still complete, so the gate moves on.
type PollyTransport struct {
	client SynthClient
	cfg    PollyConfig
	sink   AudioSink
	log    *logger.Logger
	cb     Callbacks
}

func NewPollyTransport(client SynthClient, cfg PollyConfig, sink AudioSink, log *logger.Logger) *PollyTransport {
	return &PollyTransport{client: client, cfg: cfg.withDefaults(), sink: sink, log: logger.OrNop(log)}
}

func (t *PollyTransport) Bind(cb Callbacks) { t.cb = cb }

func (t *PollyTransport) Speak(ctx context.Context, req Request) error {
	if strings.TrimSpace(req.Text) == "" {
		return errors.New("empty utterance")
	}
	go t.synthesize(context.WithoutCancel(ctx), req)
	return nil
}

func (t *PollyTransport) synthesize(ctx context.Context, req Request) {
	defer func() {
		if t.cb.Completed != nil {
			t.cb.Completed(req.ID)
		}
	}()
	if t.cb.Started != nil {
		t.cb.Started(req.ID)
	}

	audio, err := t.Synthesize(ctx, req.Text)
	if err != nil {
		t.log.Warnw("polly_synthesis_failed", "request_id", req.ID, "reason", classifyPollyError(err), "error", err)
		return
	}
	if t.sink != nil {
		t.sink(req, audio, "audio/mpeg")
	}
}

// Synthesize returns MP3 audio for text.
func (t *PollyTransport) Synthesize(ctx context.Context, text string) ([]byte, error) {
	engine := pollytypes.EngineStandard
	if strings.EqualFold(t.cfg.Engine, "neural") {
		engine = pollytypes.EngineNeural
	}

	ctx, cancel := context.WithTimeout(ctx, t.cfg.Timeout)
	defer cancel()

	out, err := t.client.SynthesizeSpeech(ctx, &polly.SynthesizeSpeechInput{
		Engine:       engine,
		OutputFormat: pollytypes.OutputFormatMp3,
		Text:         aws.String(text),
		TextType:     pollytypes.TextTypeText,
		VoiceId:      pollytypes.VoiceId(t.cfg.VoiceID),
	})
	if err != nil {
		return nil, err
	}
	if out == nil || out.AudioStream == nil {
		return nil, errors.New("polly returned no audio")
	}
	defer out.AudioStream.Close()
	return io.ReadAll(out.AudioStream)
}

func classifyPollyError(err error) string {
	if errors.Is(err, context.Canceled) {
		return "provider_cancelled"
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return "provider_timeout"
	}
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "TooManyRequestsException", "ThrottlingException":
			return "provider_overload"
		case "InvalidSsmlException", "TextLengthExceededException", "LexiconNotFoundException", "MarksNotSupportedForFormatException", "InvalidSampleRateException":
			return "provider_client_error"
		}
		return "provider_server_error"
	}
	return "provider_transport_error"
}
