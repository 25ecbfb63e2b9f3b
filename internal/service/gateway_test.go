package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"luvv/internal/entity/db"
	"luvv/internal/entity/dto"
	"luvv/internal/llm"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const threeMessages = `{"messages": [
  "My dearest [RECIPIENT], every day with you feels like the first warm day of spring. Love always, [SENDER]",
  "[RECIPIENT], you are my favourite hello and my hardest goodbye. Happy Valentine's Day. Yours, [SENDER]",
  "To [RECIPIENT], thank you for the laughter, the patience and the quiet mornings together. Forever, [SENDER]"
]}`

func spouseRequest() dto.GenerateRequest {
	return dto.GenerateRequest{
		Relationship: dto.RelationshipSpouse,
		Tone:         dto.ToneRomantic,
		Recipient:    "Ada",
		Sender:       "Tom",
	}
}

func TestGenerateValidation(t *testing.T) {
	long := strings.Repeat("é", 61)
	tests := []struct {
		name string
		req  dto.GenerateRequest
	}{
		{name: "missing relationship", req: dto.GenerateRequest{Tone: dto.ToneRomantic, Recipient: "Ada", Sender: "Tom"}},
		{name: "blank sender", req: dto.GenerateRequest{Relationship: dto.RelationshipSpouse, Tone: dto.ToneRomantic, Recipient: "Ada", Sender: "   "}},
		{name: "unknown relationship", req: dto.GenerateRequest{Relationship: "Landlord", Tone: dto.ToneRomantic, Recipient: "Ada", Sender: "Tom"}},
		{name: "unknown tone", req: dto.GenerateRequest{Relationship: dto.RelationshipSpouse, Tone: "Sarcastic", Recipient: "Ada", Sender: "Tom"}},
		{name: "recipient too long", req: dto.GenerateRequest{Relationship: dto.RelationshipSpouse, Tone: dto.ToneRomantic, Recipient: long, Sender: "Tom"}},
		{name: "sender too long", req: dto.GenerateRequest{Relationship: dto.RelationshipSpouse, Tone: dto.ToneRomantic, Recipient: "Ada", Sender: long}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			provider := &fakeProvider{id: "a", name: "groq", replies: []providerReply{{raw: threeMessages}}}
			gw := NewGateway([]llm.Provider{provider}, &memStore{}, &memStore{}, nil, testOptions())

			resp, err := gw.Generate(context.Background(), tt.req)
			require.Error(t, err)
			assert.Nil(t, resp)
			assert.True(t, IsKind(err, KindValidation), "got %v", err)
			assert.Zero(t, provider.callCount())
		})
	}
}

func TestGenerateAcceptsSixtyRuneNames(t *testing.T) {
	store := &memStore{}
	provider := &fakeProvider{id: "a", name: "groq", replies: []providerReply{{raw: threeMessages}}}
	gw := NewGateway([]llm.Provider{provider}, store, store, nil, testOptions())

	req := spouseRequest()
	req.Recipient = strings.Repeat("é", 60)
	_, err := gw.Generate(context.Background(), req)
	require.NoError(t, err)
	gw.Wait()
}

func TestGenerateEndToEnd(t *testing.T) {
	store := &memStore{}
	provider := &fakeProvider{id: "groq-llama-3.1-8b", name: "groq", replies: []providerReply{{raw: threeMessages}}}
	gw := NewGateway([]llm.Provider{provider}, store, store, nil, testOptions())

	resp, err := gw.Generate(context.Background(), spouseRequest())
	require.NoError(t, err)
	gw.Wait()

	assert.Equal(t, "groq-llama-3.1-8b", resp.Provider)
	require.Len(t, resp.Messages, 3)
	for _, m := range resp.Messages {
		assert.Contains(t, m, "Ada")
		assert.Contains(t, m, "Tom")
		assert.NotContains(t, m, "[RECIPIENT]")
		assert.NotContains(t, m, "[SENDER]")
	}

	rows := store.templateRows()
	require.Len(t, rows, 3)
	for _, row := range rows {
		assert.Equal(t, dto.RelationshipSpouse, row.Relationship)
		assert.Equal(t, dto.ToneRomantic, row.Tone)
		assert.Equal(t, "groq-llama-3.1-8b", row.Provider)
		assert.Contains(t, row.MessageText, "[RECIPIENT]")
		assert.Contains(t, row.MessageText, "[SENDER]")
		assert.NotContains(t, row.MessageText, "Ada")
		assert.NotContains(t, row.MessageText, "Tom")
	}

	usage := store.usageEntries()
	require.Len(t, usage, 1)
	assert.Equal(t, db.UsageStatusSuccess, usage[0].Status)
	assert.Equal(t, "groq-llama-3.1-8b", usage[0].ModelName)

	require.Len(t, provider.prompts, 1)
	assert.NotContains(t, provider.prompts[0].User, "Ada")
	assert.NotContains(t, provider.prompts[0].User, "Tom")
}

func TestGenerateStoresNamesAsPlaceholders(t *testing.T) {
	store := &memStore{}
	raw := `["Dear ada, you light up my days. Love, Tom", "Ada, happy Valentine's Day from your Tom!"]`
	provider := &fakeProvider{id: "a", name: "groq", replies: []providerReply{{raw: raw}}}
	gw := NewGateway([]llm.Provider{provider}, store, store, nil, testOptions())

	resp, err := gw.Generate(context.Background(), spouseRequest())
	require.NoError(t, err)
	gw.Wait()

	assert.Equal(t, []string{
		"Dear Ada, you light up my days. Love, Tom",
		"Ada, happy Valentine's Day from your Tom!",
	}, resp.Messages)
	rows := store.templateRows()
	require.Len(t, rows, 2)
	assert.Equal(t, "Dear [RECIPIENT], you light up my days. Love, [SENDER]", rows[0].MessageText)
	assert.Equal(t, "[RECIPIENT], happy Valentine's Day from your [SENDER]!", rows[1].MessageText)
}

func TestGenerateCacheHit(t *testing.T) {
	store := &memStore{}
	store.addTemplates(dto.RelationshipSpouse, dto.ToneRomantic,
		"One for [RECIPIENT] from [SENDER]",
		"Two for [RECIPIENT] from [SENDER]",
		"Two for [RECIPIENT] from [SENDER]",
		"Three for [RECIPIENT] from [SENDER]",
		"Four for [RECIPIENT] from [SENDER]",
	)
	provider := &fakeProvider{id: "a", name: "groq", replies: []providerReply{{raw: threeMessages}}}
	gw := NewGateway([]llm.Provider{provider}, store, store, nil, testOptions())

	resp, err := gw.Generate(context.Background(), spouseRequest())
	require.NoError(t, err)
	gw.Wait()

	assert.Equal(t, dto.ProviderTagCache, resp.Provider)
	require.Len(t, resp.Messages, 3)
	seen := map[string]bool{}
	for _, m := range resp.Messages {
		assert.True(t, strings.HasSuffix(m, " for Ada from Tom"), m)
		assert.False(t, seen[m], "duplicate message %q", m)
		seen[m] = true
	}
	assert.Zero(t, provider.callCount())
	assert.Len(t, store.templateRows(), 5)
	assert.Empty(t, store.usageEntries())
}

func TestGenerateCacheNeedsThreeDistinctRows(t *testing.T) {
	store := &memStore{}
	store.addTemplates(dto.RelationshipSpouse, dto.ToneRomantic,
		"One for [RECIPIENT]", "One for [RECIPIENT]", "Two for [RECIPIENT]",
	)
	store.addTemplates(dto.RelationshipSpouse, dto.ToneFunny, "Other tone for [RECIPIENT]")
	provider := &fakeProvider{id: "a", name: "groq", replies: []providerReply{{raw: threeMessages}}}
	gw := NewGateway([]llm.Provider{provider}, store, store, nil, testOptions())

	resp, err := gw.Generate(context.Background(), spouseRequest())
	require.NoError(t, err)
	gw.Wait()

	assert.Equal(t, "a", resp.Provider)
	assert.Equal(t, 1, provider.callCount())
}

func TestGenerateFailsOverToNextProvider(t *testing.T) {
	store := &memStore{}
	first := &fakeProvider{id: "a", name: "gemini", replies: []providerReply{{err: statusError("a", 503)}}}
	second := &fakeProvider{id: "b", name: "groq", replies: []providerReply{{raw: threeMessages}}}
	gw := NewGateway([]llm.Provider{first, second}, store, store, nil, testOptions())

	resp, err := gw.Generate(context.Background(), spouseRequest())
	require.NoError(t, err)
	gw.Wait()

	assert.Equal(t, "b", resp.Provider)
	assert.Equal(t, 2, first.callCount(), "retryable errors use every attempt")
	assert.Equal(t, 1, second.callCount())

	statuses := map[string]string{}
	for _, e := range store.usageEntries() {
		statuses[e.ModelName] = e.Status
	}
	assert.Equal(t, map[string]string{"a": db.UsageStatusFailure, "b": db.UsageStatusSuccess}, statuses)
}

func TestGenerateDoesNotRetryPermanentErrors(t *testing.T) {
	store := &memStore{}
	first := &fakeProvider{id: "a", name: "gemini", replies: []providerReply{{err: statusError("a", 401)}}}
	second := &fakeProvider{id: "b", name: "groq", replies: []providerReply{{raw: threeMessages}}}
	gw := NewGateway([]llm.Provider{first, second}, store, store, nil, testOptions())

	resp, err := gw.Generate(context.Background(), spouseRequest())
	require.NoError(t, err)
	gw.Wait()

	assert.Equal(t, "b", resp.Provider)
	assert.Equal(t, 1, first.callCount())
}

func TestGenerateRetriesThenSucceeds(t *testing.T) {
	store := &memStore{}
	provider := &fakeProvider{id: "a", name: "groq", replies: []providerReply{
		{err: statusError("a", 429)},
		{raw: threeMessages},
	}}
	gw := NewGateway([]llm.Provider{provider}, store, store, nil, testOptions())

	resp, err := gw.Generate(context.Background(), spouseRequest())
	require.NoError(t, err)
	gw.Wait()

	assert.Equal(t, "a", resp.Provider)
	assert.Equal(t, 2, provider.callCount())
	require.Len(t, store.usageEntries(), 1)
	assert.Equal(t, db.UsageStatusSuccess, store.usageEntries()[0].Status)
}

func TestGenerateSkipsUnusableResponse(t *testing.T) {
	store := &memStore{}
	first := &fakeProvider{id: "a", name: "gemini", replies: []providerReply{{raw: `{"messages": []}`}}}
	second := &fakeProvider{id: "b", name: "groq", replies: []providerReply{{raw: threeMessages}}}
	gw := NewGateway([]llm.Provider{first, second}, store, store, nil, testOptions())

	resp, err := gw.Generate(context.Background(), spouseRequest())
	require.NoError(t, err)
	gw.Wait()

	assert.Equal(t, "b", resp.Provider)
	assert.Equal(t, 1, first.callCount())
	var failures int
	for _, e := range store.usageEntries() {
		if e.ModelName == "a" && e.Status == db.UsageStatusFailure {
			failures++
		}
	}
	assert.Equal(t, 1, failures)
}

func TestGenerateSkipsProviderOverQuota(t *testing.T) {
	store := &memStore{}
	for i := 0; i < 2; i++ {
		require.NoError(t, store.CreateUsageLog(context.Background(), &db.UsageLog{ModelName: "a", Status: db.UsageStatusSuccess}))
	}
	// yesterday's successes do not count against today
	require.NoError(t, store.CreateUsageLog(context.Background(), &db.UsageLog{
		ModelName: "b", Status: db.UsageStatusSuccess, CreatedAt: time.Now().Add(-48 * time.Hour),
	}))

	first := &fakeProvider{id: "a", name: "gemini", replies: []providerReply{{raw: threeMessages}}}
	second := &fakeProvider{id: "b", name: "groq", replies: []providerReply{{raw: threeMessages}}}
	opts := testOptions()
	opts.DailyLimit = func(driver string) int {
		if driver == "gemini" {
			return 2
		}
		return 1
	}
	gw := NewGateway([]llm.Provider{first, second}, store, store, nil, opts)

	resp, err := gw.Generate(context.Background(), spouseRequest())
	require.NoError(t, err)
	gw.Wait()

	assert.Equal(t, "b", resp.Provider)
	assert.Zero(t, first.callCount())
}

func TestGenerateUnlimitedQuota(t *testing.T) {
	store := &memStore{}
	for i := 0; i < 5; i++ {
		require.NoError(t, store.CreateUsageLog(context.Background(), &db.UsageLog{ModelName: "a", Status: db.UsageStatusSuccess}))
	}
	provider := &fakeProvider{id: "a", name: "gemini", replies: []providerReply{{raw: threeMessages}}}
	opts := testOptions()
	opts.DailyLimit = func(string) int { return 0 }
	gw := NewGateway([]llm.Provider{provider}, store, store, nil, opts)

	_, err := gw.Generate(context.Background(), spouseRequest())
	require.NoError(t, err)
	gw.Wait()
	assert.Equal(t, 1, provider.callCount())
}

func TestGenerateQuotaReadFailureFailsOpen(t *testing.T) {
	store := &memStore{countErr: errors.New("ledger down")}
	provider := &fakeProvider{id: "a", name: "gemini", replies: []providerReply{{raw: threeMessages}}}
	gw := NewGateway([]llm.Provider{provider}, store, store, nil, testOptions())

	resp, err := gw.Generate(context.Background(), spouseRequest())
	require.NoError(t, err)
	gw.Wait()
	assert.Equal(t, "a", resp.Provider)
}

func TestGenerateTerminalFailure(t *testing.T) {
	store := &memStore{}
	first := &fakeProvider{id: "a", name: "gemini", replies: []providerReply{{err: statusError("a", 500)}}}
	second := &fakeProvider{id: "b", name: "groq", replies: []providerReply{{raw: "sorry"}}}
	gw := NewGateway([]llm.Provider{first, second}, store, store, nil, testOptions())

	resp, err := gw.Generate(context.Background(), spouseRequest())
	gw.Wait()

	require.Error(t, err)
	assert.Nil(t, resp)
	assert.True(t, IsKind(err, KindGenerationFailed))
	assert.Empty(t, store.templateRows())
}

func TestGenerateSafetyNetPrefersScopedRows(t *testing.T) {
	store := &memStore{}
	store.addTemplates(dto.GenericScope, dto.GenericScope, "Generic for [RECIPIENT]")
	store.addTemplates(dto.RelationshipSpouse, dto.ToneRomantic, "Scoped one for [RECIPIENT]", "Scoped two for [RECIPIENT]")
	provider := &fakeProvider{id: "a", name: "gemini", replies: []providerReply{{err: statusError("a", 500)}}}
	gw := NewGateway([]llm.Provider{provider}, store, store, nil, testOptions())

	resp, err := gw.Generate(context.Background(), spouseRequest())
	require.NoError(t, err)
	gw.Wait()

	assert.Equal(t, dto.ProviderTagSafetyNet, resp.Provider)
	assert.ElementsMatch(t, []string{"Scoped one for Ada", "Scoped two for Ada"}, resp.Messages)

	var fallbacks int
	for _, e := range store.usageEntries() {
		if e.Status == db.UsageStatusFallback {
			fallbacks++
		}
	}
	assert.Equal(t, 1, fallbacks)
}

func TestGenerateSafetyNetFallsBackToAnyRows(t *testing.T) {
	store := &memStore{}
	store.addTemplates(dto.GenericScope, dto.GenericScope,
		"To [RECIPIENT], with love. [SENDER]",
		"Happy Valentine's Day, [RECIPIENT]! [SENDER]",
		"Dearest [RECIPIENT], thank you. [SENDER]",
		"[RECIPIENT], you matter. [SENDER]",
	)
	gw := NewGateway(nil, store, store, nil, testOptions())

	resp, err := gw.Generate(context.Background(), spouseRequest())
	require.NoError(t, err)
	gw.Wait()

	assert.Equal(t, dto.ProviderTagSafetyNet, resp.Provider)
	require.Len(t, resp.Messages, 3)
	for _, m := range resp.Messages {
		assert.Contains(t, m, "Ada")
		assert.Contains(t, m, "Tom")
	}
}

func TestGenerateRoundRobinRotatesStart(t *testing.T) {
	store := &memStore{}
	first := &fakeProvider{id: "a", name: "gemini", replies: []providerReply{{raw: threeMessages}}}
	second := &fakeProvider{id: "b", name: "groq", replies: []providerReply{{raw: threeMessages}}}
	opts := testOptions()
	opts.Policy = "round_robin"
	cursor := &fakeCursor{position: 1}
	gw := NewGateway([]llm.Provider{first, second}, store, store, cursor, opts)

	resp, err := gw.Generate(context.Background(), spouseRequest())
	require.NoError(t, err)
	gw.Wait()

	assert.Equal(t, "b", resp.Provider)
	assert.Zero(t, first.callCount())
}

func TestGenerateRoundRobinCursorFailureUsesPriority(t *testing.T) {
	store := &memStore{}
	first := &fakeProvider{id: "a", name: "gemini", replies: []providerReply{{raw: threeMessages}}}
	second := &fakeProvider{id: "b", name: "groq", replies: []providerReply{{raw: threeMessages}}}
	opts := testOptions()
	opts.Policy = "round_robin"
	gw := NewGateway([]llm.Provider{first, second}, store, store, &fakeCursor{err: errors.New("redis down")}, opts)

	resp, err := gw.Generate(context.Background(), spouseRequest())
	require.NoError(t, err)
	gw.Wait()

	assert.Equal(t, "a", resp.Provider)
}

func TestGenerateHonoursGenerationTimeout(t *testing.T) {
	store := &memStore{}
	slow := &fakeProvider{id: "a", name: "gemini", block: true}
	never := &fakeProvider{id: "b", name: "groq", replies: []providerReply{{raw: threeMessages}}}
	opts := testOptions()
	opts.GenerationTimeout = 50 * time.Millisecond
	gw := NewGateway([]llm.Provider{slow, never}, store, store, nil, opts)

	started := time.Now()
	_, err := gw.Generate(context.Background(), spouseRequest())
	gw.Wait()

	require.Error(t, err)
	assert.True(t, IsKind(err, KindGenerationFailed))
	assert.Less(t, time.Since(started), 2*time.Second)
	assert.Zero(t, never.callCount())
}

func TestGeneratePersistenceFailureIsNotSurfaced(t *testing.T) {
	store := &memStore{createErr: errors.New("disk full")}
	provider := &fakeProvider{id: "a", name: "gemini", replies: []providerReply{{raw: threeMessages}}}
	gw := NewGateway([]llm.Provider{provider}, store, store, nil, testOptions())

	resp, err := gw.Generate(context.Background(), spouseRequest())
	require.NoError(t, err)
	gw.Wait()

	assert.Len(t, resp.Messages, 3)
	assert.Empty(t, store.templateRows())
	require.Len(t, store.usageEntries(), 1)
}

func TestGeneratePersistsAfterRequestCancelled(t *testing.T) {
	store := &memStore{}
	provider := &fakeProvider{id: "a", name: "gemini", replies: []providerReply{{raw: threeMessages}}}
	gw := NewGateway([]llm.Provider{provider}, store, store, nil, testOptions())

	ctx, cancel := context.WithCancel(context.Background())
	_, err := gw.Generate(ctx, spouseRequest())
	cancel()
	require.NoError(t, err)
	gw.Wait()

	assert.Len(t, store.templateRows(), 3)
}

func TestBackoffDelay(t *testing.T) {
	b := Backoff{Base: 400 * time.Millisecond, Max: 4 * time.Second}
	tests := []struct {
		attempt int
		want    time.Duration
	}{
		{0, 0},
		{1, 400 * time.Millisecond},
		{2, 800 * time.Millisecond},
		{3, 1600 * time.Millisecond},
		{4, 3200 * time.Millisecond},
		{5, 4 * time.Second},
		{40, 4 * time.Second},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, b.Delay(tt.attempt), "attempt %d", tt.attempt)
	}
	assert.Zero(t, Backoff{}.Delay(3))
}

func TestSleepContextStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, sleepContext(ctx, time.Hour), context.Canceled)
}

func TestStartOfDay(t *testing.T) {
	loc, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)

	// 03:00 UTC on Feb 14 is still Feb 13 in New York
	got := StartOfDay(time.Date(2026, 2, 14, 3, 0, 0, 0, time.UTC), loc)
	assert.Equal(t, time.Date(2026, 2, 13, 0, 0, 0, 0, loc), got)
	assert.Equal(t, time.Date(2026, 2, 14, 0, 0, 0, 0, time.UTC), StartOfDay(time.Date(2026, 2, 14, 3, 0, 0, 0, time.UTC), nil))
}
