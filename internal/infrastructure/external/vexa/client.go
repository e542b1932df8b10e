package vexa

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/veritas-team/meeting-pipeline/pkg/config"
)

// ErrTranscriptNotReady signals the vendor has no finished transcript yet
// for the requested meeting. Callers treat this as "try again next tick",
// not as a failure.
var ErrTranscriptNotReady = errors.New("vexa: transcript not ready")

// Client is a typed client for the Vexa transcription gateway. Every call
// carries the owning user's API key; the client itself holds no credential.
type Client struct {
	baseURL  string
	botName  string
	language string
	client   *http.Client
}

// NewClient creates a Vexa client using values from the provided config
func NewClient(cfg *config.VexaConfig) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &Client{
		baseURL:  cfg.BaseURL,
		botName:  cfg.BotName,
		language: cfg.Language,
		client:   &http.Client{Timeout: timeout},
	}
}

// BotRequest is the wire shape for requesting a bot join
type BotRequest struct {
	Platform        string `json:"platform"`
	NativeMeetingID string `json:"native_meeting_id"`
	BotName         string `json:"bot_name"`
	Language        string `json:"language"`
}

// TranscriptSegment is one speaker-attributed segment on the wire
type TranscriptSegment struct {
	Speaker   string  `json:"speaker"`
	Text      string  `json:"text"`
	StartTime float64 `json:"start_time"`
	EndTime   float64 `json:"end_time"`
}

// TranscriptParticipant is one attendee as reported by the vendor
type TranscriptParticipant struct {
	Name         string  `json:"name"`
	Email        string  `json:"email,omitempty"`
	SpeakingTime float64 `json:"speaking_time"`
}

// TranscriptResponse is the vendor's finished-transcript payload
type TranscriptResponse struct {
	Transcript   string                  `json:"transcript"`
	MeetingID    string                  `json:"meeting_id"`
	Participants []TranscriptParticipant `json:"participants"`
	Segments     []TranscriptSegment     `json:"segments"`
	Duration     float64                 `json:"duration"`
	WordCount    int                     `json:"word_count"`

	// Raw keeps the undecoded body for archival
	Raw []byte `json:"-"`
}

// Validate rejects payloads missing the fields the pipeline depends on
func (t *TranscriptResponse) Validate() error {
	if t.Transcript == "" {
		return fmt.Errorf("vexa transcript payload missing transcript text")
	}
	if t.Duration < 0 {
		return fmt.Errorf("vexa transcript payload has negative duration")
	}
	return nil
}

// RequestBot asks the vendor to join a meeting with a transcription bot.
// Any non-2xx response is a per-meeting failure for the caller.
func (c *Client) RequestBot(ctx context.Context, apiKey, platform, nativeMeetingID string) error {
	body := BotRequest{
		Platform:        platform,
		NativeMeetingID: nativeMeetingID,
		BotName:         c.botName,
		Language:        c.language,
	}
	b, err := json.Marshal(body)
	if err != nil {
		return err
	}

	endpoint := c.baseURL + "/bots"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(b))
	if err != nil {
		return err
	}
	req.Header.Set("X-API-Key", apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("vexa bot request returned status %d: %s", resp.StatusCode, string(detail))
	}
	return nil
}

// FetchTranscript polls the vendor for a finished transcript. A 404 maps to
// ErrTranscriptNotReady; any other non-2xx is returned as a transient error.
func (c *Client) FetchTranscript(ctx context.Context, apiKey, platform, nativeMeetingID string) (*TranscriptResponse, error) {
	endpoint := fmt.Sprintf("%s/transcripts/%s/%s", c.baseURL, platform, nativeMeetingID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("X-API-Key", apiKey)
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, ErrTranscriptNotReady
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("vexa transcript request returned status %d: %s", resp.StatusCode, string(detail))
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	var tr TranscriptResponse
	if err := json.Unmarshal(raw, &tr); err != nil {
		return nil, fmt.Errorf("vexa transcript payload malformed: %w", err)
	}
	if err := tr.Validate(); err != nil {
		return nil, err
	}
	tr.Raw = raw
	return &tr, nil
}
