package studio_test

import (
	"context"
	"errors"
	"testing"

	croonhttp "github.com/croonlabs/croon/internal/http"
	"github.com/croonlabs/croon/internal/identity"
	"github.com/croonlabs/croon/internal/studio"
	"github.com/croonlabs/croon/internal/testutils"
)

func authedSession(t *testing.T, f *testutils.FakeService, phone string) (*identity.Client, *identity.Session) {
	t.Helper()
	hc := croonhttp.NewClient(croonhttp.DefaultOptions())
	idc := identity.NewClient(f.URL(), hc, nil)
	ch, err := idc.SignIn(context.Background(), phone)
	if err != nil {
		t.Fatalf("SignIn: %v", err)
	}
	s, err := ch.Resume(context.Background(), "1234")
	if err != nil {
		t.Fatalf("Resume: %v", err)
	}
	return idc, s
}

func newStudio(f *testutils.FakeService) *studio.Client {
	return studio.NewClient(f.URL(), croonhttp.NewClient(croonhttp.DefaultOptions()), nil)
}

func TestBatchReady(t *testing.T) {
	tests := []struct {
		name     string
		statuses []string
		want     bool
	}{
		{"all complete", []string{"complete", "complete"}, true},
		{"complete and streaming", []string{"complete", "streaming"}, true},
		{"one pending", []string{"complete", "pending"}, false},
		{"all pending", []string{"pending", "pending"}, false},
		{"submitted", []string{"submitted", "complete"}, false},
		{"empty batch", nil, false},
	}

	for _, tt := range tests {
		var batch studio.Batch
		for i, status := range tt.statuses {
			batch = append(batch, studio.Clip{ID: string(rune('a' + i)), Status: status})
		}
		if got := batch.Ready(); got != tt.want {
			t.Errorf("%s: Ready() = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestGenerate(t *testing.T) {
	f := testutils.NewFakeService(&testutils.Account{Phone: "+1555", Code: "1234"})
	defer f.Close()
	f.GenerateIDs = []string{"s1", "s2"}

	_, s := authedSession(t, f, "+1555")

	ids, err := newStudio(f).Generate(context.Background(), s, "a song about rain", studio.ModeDescription)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	if len(ids) != 2 || ids[0] != "s1" || ids[1] != "s2" {
		t.Errorf("unexpected ids: %v", ids)
	}
}

func TestGenerateModeSelectsPayloadField(t *testing.T) {
	f := testutils.NewFakeService(&testutils.Account{Phone: "+1555", Code: "1234"})
	defer f.Close()
	f.GenerateIDs = []string{"s1"}

	_, s := authedSession(t, f, "+1555")
	sc := newStudio(f)

	if _, err := sc.Generate(context.Background(), s, "rainy day", studio.ModeDescription); err != nil {
		t.Fatalf("Generate: %v", err)
	}
	payload := f.LastGeneratePayload
	if payload["gpt_description_prompt"] != "rainy day" || payload["prompt"] != "" {
		t.Errorf("description mode: wrong payload fields: %v", payload)
	}

	if _, err := sc.Generate(context.Background(), s, "verse one...", studio.ModeLyrics); err != nil {
		t.Fatalf("Generate: %v", err)
	}
	payload = f.LastGeneratePayload
	if payload["prompt"] != "verse one..." || payload["gpt_description_prompt"] != "" {
		t.Errorf("lyrics mode: wrong payload fields: %v", payload)
	}
	if payload["mv"] == "" {
		t.Error("expected pinned model version in payload")
	}
}

func TestGenerateQuotaExhausted(t *testing.T) {
	f := testutils.NewFakeService(&testutils.Account{Phone: "+1555", Code: "1234", QuotaExhausted: true})
	defer f.Close()

	_, s := authedSession(t, f, "+1555")

	_, err := newStudio(f).Generate(context.Background(), s, "prompt", studio.ModeDescription)
	if !errors.Is(err, studio.ErrQuotaExhausted) {
		t.Errorf("expected ErrQuotaExhausted, got %v", err)
	}
}

func TestGenerateFailure(t *testing.T) {
	f := testutils.NewFakeService(&testutils.Account{Phone: "+1555", Code: "1234", FailGeneration: true})
	defer f.Close()

	_, s := authedSession(t, f, "+1555")

	_, err := newStudio(f).Generate(context.Background(), s, "prompt", studio.ModeDescription)
	if !errors.Is(err, studio.ErrGenerationFailed) {
		t.Errorf("expected ErrGenerationFailed, got %v", err)
	}
	if errors.Is(err, studio.ErrQuotaExhausted) {
		t.Error("generic failure must not look like quota exhaustion")
	}
}

func TestStatus(t *testing.T) {
	f := testutils.NewFakeService(&testutils.Account{Phone: "+1555", Code: "1234"})
	defer f.Close()
	f.SetStatusSequence("s1", "streaming")
	f.SetStatusSequence("s2", "pending")

	_, s := authedSession(t, f, "+1555")

	batch, err := newStudio(f).Status(context.Background(), s, []string{"s1", "s2"})
	if err != nil {
		t.Fatalf("Status: %v", err)
	}

	if len(batch) != 2 {
		t.Fatalf("expected 2 clips, got %d", len(batch))
	}
	if batch[0].Status != "streaming" || batch[1].Status != "pending" {
		t.Errorf("unexpected statuses: %v", batch)
	}
	if batch.Ready() {
		t.Error("batch with a pending member must not be ready")
	}
}

func TestMetadataNotReady(t *testing.T) {
	f := testutils.NewFakeService(&testutils.Account{Phone: "+1555", Code: "1234"})
	defer f.Close()
	f.SetStatusSequence("s1", "pending")

	_, s := authedSession(t, f, "+1555")

	_, err := newStudio(f).Metadata(context.Background(), s, "s1")
	if !errors.Is(err, studio.ErrNotReady) {
		t.Errorf("expected ErrNotReady, got %v", err)
	}
	if errors.Is(err, studio.ErrNoAudioURL) {
		t.Error("not-ready must be distinct from missing audio URL")
	}
}

func TestMetadataNoAudioURL(t *testing.T) {
	f := testutils.NewFakeService(&testutils.Account{Phone: "+1555", Code: "1234"})
	defer f.Close()
	f.SetStatusSequence("s1", "complete")
	// No audio bytes registered for s1, so the record has no URL.

	_, s := authedSession(t, f, "+1555")

	_, err := newStudio(f).Metadata(context.Background(), s, "s1")
	if !errors.Is(err, studio.ErrNoAudioURL) {
		t.Errorf("expected ErrNoAudioURL, got %v", err)
	}
}

func TestMetadataResolvesURL(t *testing.T) {
	f := testutils.NewFakeService(&testutils.Account{Phone: "+1555", Code: "1234"})
	defer f.Close()
	f.SetStatusSequence("s1", "complete")
	f.Audio["s1"] = []byte("mp3 bytes")

	_, s := authedSession(t, f, "+1555")

	clip, err := newStudio(f).Metadata(context.Background(), s, "s1")
	if err != nil {
		t.Fatalf("Metadata: %v", err)
	}
	if clip.AudioURL == "" {
		t.Error("expected resolved audio URL")
	}
}

func TestParseMode(t *testing.T) {
	if m, err := studio.ParseMode("description"); err != nil || m != studio.ModeDescription {
		t.Errorf("ParseMode(description) = %v, %v", m, err)
	}
	if m, err := studio.ParseMode("lyrics"); err != nil || m != studio.ModeLyrics {
		t.Errorf("ParseMode(lyrics) = %v, %v", m, err)
	}
	if m, err := studio.ParseMode("custom"); err != nil || m != studio.ModeLyrics {
		t.Errorf("ParseMode(custom) = %v, %v", m, err)
	}
	if _, err := studio.ParseMode("interpretive-dance"); err == nil {
		t.Error("expected error for unknown mode")
	}
}
