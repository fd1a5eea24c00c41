package studio

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	croonhttp "github.com/croonlabs/croon/internal/http"
	"github.com/croonlabs/croon/internal/identity"
)

// modelVersion pins the generation model requested on every call.
const modelVersion = "chirp-v3-5"

// Common errors.
var (
	// ErrQuotaExhausted means the account has no generation allowance
	// left. Expected; the orchestrator moves on to the next account.
	ErrQuotaExhausted = errors.New("studio: generation quota exhausted")

	// ErrGenerationFailed covers every other generation failure.
	ErrGenerationFailed = errors.New("studio: generation failed")

	// ErrNotReady means the asset has not reached a playable state yet.
	ErrNotReady = errors.New("studio: asset not ready")

	// ErrNoAudioURL means a ready asset record carries no retrievable
	// source URL. Distinct from ErrNotReady.
	ErrNoAudioURL = errors.New("studio: no audio URL in asset record")

	// ErrUnknownAsset means the service returned no record for the id.
	ErrUnknownAsset = errors.New("studio: unknown asset id")
)

// Mode selects which payload field carries the prompt text.
type Mode int

const (
	// ModeDescription sends the prompt as a freeform description the
	// service writes lyrics from.
	ModeDescription Mode = iota

	// ModeLyrics sends the prompt as exact lyrics.
	ModeLyrics
)

// ParseMode parses a mode name from config or flags.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(s) {
	case "description", "":
		return ModeDescription, nil
	case "lyrics", "custom":
		return ModeLyrics, nil
	default:
		return 0, fmt.Errorf("unknown generation mode: %q", s)
	}
}

func (m Mode) String() string {
	if m == ModeLyrics {
		return "lyrics"
	}
	return "description"
}

type generateRequest struct {
	MakeInstrumental  bool   `json:"make_instrumental"`
	ModelVersion      string `json:"mv"`
	Prompt            string `json:"prompt"`
	DescriptionPrompt string `json:"gpt_description_prompt"`
}

type generateResponse struct {
	Clips []struct {
		ID string `json:"id"`
	} `json:"clips"`
}

// Clip is one asset record as returned by the feed endpoint. Status values
// are transient and re-fetched on every poll, never cached.
type Clip struct {
	ID       string `json:"id"`
	Status   string `json:"status"`
	Title    string `json:"title"`
	AudioURL string `json:"audio_url"`
}

// Playable reports whether the clip has reached a state its audio can be
// fetched in.
func (c Clip) Playable() bool {
	return c.Status == "streaming" || c.Status == "complete"
}

// Batch is the set of clip records returned for one status query.
type Batch []Clip

// Ready reports whether every clip in the batch is playable. A single
// pending member makes the whole batch not ready; an empty batch is never
// ready.
func (b Batch) Ready() bool {
	if len(b) == 0 {
		return false
	}
	for _, c := range b {
		if !c.Playable() {
			return false
		}
	}
	return true
}

// Client issues generation and status requests using an authenticated
// session's bearer credential. Credential renewal is the caller's job.
type Client struct {
	http    *croonhttp.Client
	baseURL string
	logger  *slog.Logger
}

// NewClient creates a generation client for the given service base URL.
func NewClient(baseURL string, hc *croonhttp.Client, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		http:    hc,
		baseURL: baseURL,
		logger:  logger,
	}
}

// Generate submits one generation request and returns the ordered ids of
// the newly created assets.
//
// Quota exhaustion is reported as ErrQuotaExhausted, a distinguished and
// expected condition. Every other failure wraps ErrGenerationFailed.
func (c *Client) Generate(ctx context.Context, s *identity.Session, prompt string, mode Mode) ([]string, error) {
	payload := generateRequest{ModelVersion: modelVersion}
	switch mode {
	case ModeLyrics:
		payload.Prompt = prompt
	default:
		payload.DescriptionPrompt = prompt
	}

	resp, err := c.http.PostJSON(ctx, c.baseURL+"/api/generate/v2/", payload, identity.AuthorizedHeader(s))
	if err != nil {
		if errors.Is(err, croonhttp.ErrPaymentRequired) {
			return nil, fmt.Errorf("account %s: %w", s.Phone(), ErrQuotaExhausted)
		}
		return nil, fmt.Errorf("%w: %v", ErrGenerationFailed, err)
	}

	var gen generateResponse
	if err := resp.Decode(&gen); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrGenerationFailed, err)
	}

	ids := make([]string, 0, len(gen.Clips))
	for _, clip := range gen.Clips {
		ids = append(ids, clip.ID)
	}
	if len(ids) == 0 {
		return nil, fmt.Errorf("%w: response contained no clips", ErrGenerationFailed)
	}

	c.logger.Info("generation accepted", "phone", s.Phone(), "ids", ids, "mode", mode.String())
	return ids, nil
}

// Status fetches the current status of a batch of asset ids in one call.
func (c *Client) Status(ctx context.Context, s *identity.Session, ids []string) (Batch, error) {
	resp, err := c.http.Get(ctx, c.feedURL(ids), identity.AuthorizedHeader(s))
	if err != nil {
		return nil, fmt.Errorf("fetch status: %w", err)
	}

	var batch Batch
	if err := resp.Decode(&batch); err != nil {
		return nil, fmt.Errorf("fetch status: %w", err)
	}
	return batch, nil
}

// Metadata fetches the record for a single asset and resolves its source
// URL. A record that has not reached a playable state fails with
// ErrNotReady; a playable record without a URL fails with ErrNoAudioURL.
func (c *Client) Metadata(ctx context.Context, s *identity.Session, id string) (*Clip, error) {
	batch, err := c.Status(ctx, s, []string{id})
	if err != nil {
		return nil, err
	}
	if len(batch) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrUnknownAsset, id)
	}

	clip := batch[0]
	if !clip.Playable() {
		return nil, fmt.Errorf("asset %s in state %q: %w", id, clip.Status, ErrNotReady)
	}
	if clip.AudioURL == "" {
		return nil, fmt.Errorf("asset %s: %w", id, ErrNoAudioURL)
	}
	return &clip, nil
}

func (c *Client) feedURL(ids []string) string {
	return c.baseURL + "/api/feed/?ids=" + strings.Join(ids, ",")
}
