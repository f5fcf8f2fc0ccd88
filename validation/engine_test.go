package validation

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/grzegorzmaniak/fieldguard/cache"
	"github.com/grzegorzmaniak/fieldguard/metrics"
	"github.com/grzegorzmaniak/fieldguard/rules"
	"github.com/grzegorzmaniak/fieldguard/security"
	"github.com/grzegorzmaniak/fieldguard/settings"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (f *fakeClock) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

func (f *fakeClock) Advance(d time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.now = f.now.Add(d)
}

type failingProvider struct{}

func (failingProvider) Fetch(context.Context, string) (map[string]string, error) {
	return nil, errors.New("connection refused")
}

type panickingProvider struct{}

func (panickingProvider) Fetch(context.Context, string) (map[string]string, error) {
	panic("settings table vanished")
}

func newTestEngine(t *testing.T, provider settings.Provider, opts ...Option) (*Engine, *fakeClock) {
	t.Helper()

	clock := &fakeClock{now: time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)}
	ruleCache, err := cache.NewTTLCache[*rules.Rule](RuleCacheName, 300*time.Second, nil, cache.WithClock[*rules.Rule](clock))
	require.NoError(t, err)

	engine, err := NewEngine(rules.NewStore(provider), security.NewScanner(nil), ruleCache, opts...)
	require.NoError(t, err)
	return engine, clock
}

func TestEngine_Validate(t *testing.T) {
	engine, _ := newTestEngine(t, nil)
	ctx := context.Background()

	tests := []struct {
		name      string
		req       Request
		wantValid bool
		wantError string
		wantKind  Kind
		reason    string
	}{
		{
			name:      "Too short username",
			req:       Request{Value: "ab", FieldType: rules.FieldUserName},
			wantError: "Username must be at least 3 characters",
			wantKind:  KindValueRejected,
			reason:    string(rules.MessageMinLength),
		},
		{
			name:      "Valid username",
			req:       Request{Value: "validname1", FieldType: rules.FieldUserName},
			wantValid: true,
		},
		{
			name:      "Short and invalid reports the length first",
			req:       Request{Value: "a!", FieldType: rules.FieldUserName},
			wantError: "Username must be at least 3 characters",
			wantKind:  KindValueRejected,
			reason:    string(rules.MessageMinLength),
		},
		{
			name:      "Too long username",
			req:       Request{Value: strings.Repeat("a", 26), FieldType: rules.FieldUserName},
			wantError: "Username must not exceed 25 characters",
			wantKind:  KindValueRejected,
			reason:    string(rules.MessageMaxLength),
		},
		{
			name:      "Invalid characters",
			req:       Request{Value: "bad name", FieldType: rules.FieldUserName},
			wantError: "Username may only contain letters, numbers, dots, underscores and hyphens",
			wantKind:  KindValueRejected,
			reason:    string(rules.MessageInvalidChars),
		},
		{
			name:      "Username without a letter",
			req:       Request{Value: "12345", FieldType: rules.FieldUserName},
			wantError: "Username must contain at least one letter",
			wantKind:  KindValueRejected,
			reason:    string(rules.MessageNoLetter),
		},
		{
			name:      "Whitespace only required value",
			req:       Request{Value: "   ", FieldType: rules.FieldUserName},
			wantError: "Username is required",
			wantKind:  KindValueRejected,
			reason:    string(rules.MessageRequired),
		},
		{
			name:      "Nil required value",
			req:       Request{Value: nil, FieldType: rules.FieldEmail},
			wantError: "Email is required",
			wantKind:  KindValueRejected,
			reason:    string(rules.MessageRequired),
		},
		{
			name:      "Optional empty telephone number",
			req:       Request{Value: "", FieldType: rules.FieldTelephoneNumber},
			wantValid: true,
		},
		{
			name:      "Optional whitespace telephone number",
			req:       Request{Value: "  ", FieldType: rules.FieldTelephoneNumber},
			wantValid: true,
		},
		{
			name:      "Invalid email uses the invalid message",
			req:       Request{Value: "not-an-email", FieldType: rules.FieldEmail},
			wantError: "Email address is invalid",
			wantKind:  KindValueRejected,
			reason:    string(rules.MessageInvalidChars),
		},
		{
			name:      "Numeric value is stringified",
			req:       Request{Value: 12345, FieldType: rules.FieldTextShort},
			wantValid: true,
		},
		{
			name:      "Unknown field type",
			req:       Request{Value: "12345", FieldType: "postalCode"},
			wantError: "Validation rule not found for field type: postalCode",
			wantKind:  KindRuleNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := engine.Validate(ctx, tt.req)
			assert.Equal(t, tt.wantValid, resp.IsValid)
			assert.Equal(t, tt.wantError, resp.Error)
			assert.Equal(t, tt.wantKind, resp.Kind)
			assert.Equal(t, tt.reason, resp.Reason)
		})
	}
}

func TestEngine_SecurityOnly(t *testing.T) {
	engine, _ := newTestEngine(t, nil)
	ctx := context.Background()

	t.Run("Injection is rejected with the pattern description", func(t *testing.T) {
		resp := engine.Validate(ctx, Request{
			Value:        "admin'; DROP TABLE users; --",
			FieldType:    rules.FieldUserName,
			SecurityOnly: true,
		})
		assert.False(t, resp.IsValid)
		assert.Equal(t, "Potential SQL injection detected (stacked query)", resp.Error)
		assert.Equal(t, ReasonSecurity, resp.Reason)
		assert.Equal(t, security.SQLInjectionStacked, resp.Pattern)
	})

	t.Run("Field rules are skipped", func(t *testing.T) {
		resp := engine.Validate(ctx, Request{Value: "x", FieldType: rules.FieldUserName, SecurityOnly: true})
		assert.True(t, resp.IsValid)
	})

	t.Run("Unknown field type is irrelevant", func(t *testing.T) {
		resp := engine.Validate(ctx, Request{Value: "hello", FieldType: "postalCode", SecurityOnly: true})
		assert.True(t, resp.IsValid)
		assert.Empty(t, engine.GetStats().Cache.Keys)
	})
}

func TestEngine_SecurityPrecheck(t *testing.T) {
	ctx := context.Background()
	req := Request{Value: "<script>alert(1)</script>", FieldType: rules.FieldTextShort}

	plain, _ := newTestEngine(t, nil)
	assert.True(t, plain.Validate(ctx, req).IsValid)

	guarded, _ := newTestEngine(t, nil, WithSecurityPrecheck(true))
	resp := guarded.Validate(ctx, req)
	assert.False(t, resp.IsValid)
	assert.Equal(t, "Potential XSS attack detected (script tag)", resp.Error)
}

func TestEngine_RuleUnavailable(t *testing.T) {
	engine, _ := newTestEngine(t, failingProvider{})
	ctx := context.Background()

	resp := engine.Validate(ctx, Request{Value: "alice", FieldType: rules.FieldUserName})
	assert.False(t, resp.IsValid)
	assert.Equal(t, KindRuleUnavailable, resp.Kind)
	assert.Equal(t, "Validation rule is temporarily unavailable for field type: userName", resp.Error)
	assert.Empty(t, engine.GetStats().Cache.Keys)

	// - Static field types do not depend on the provider
	assert.True(t, engine.Validate(ctx, Request{Value: "hello", FieldType: rules.FieldTextShort}).IsValid)
}

func TestEngine_RecoversFromPanic(t *testing.T) {
	engine, _ := newTestEngine(t, panickingProvider{})

	var resp Response
	require.NotPanics(t, func() {
		resp = engine.Validate(context.Background(), Request{Value: "alice", FieldType: rules.FieldEmail})
	})
	assert.False(t, resp.IsValid)
	assert.Equal(t, KindInternal, resp.Kind)
	assert.Equal(t, MessageInternal, resp.Error)
}

func TestEngine_Enforce(t *testing.T) {
	engine, _ := newTestEngine(t, nil)
	ctx := context.Background()

	assert.NoError(t, engine.Enforce(ctx, Request{Value: "validname1", FieldType: rules.FieldUserName}))

	err := engine.Enforce(ctx, Request{Value: "ab", FieldType: rules.FieldUserName})
	require.Error(t, err)
	assert.Equal(t, "Username must be at least 3 characters", err.Error())
	assert.True(t, errors.Is(err, ErrValueRejected))

	var ve *ValidationError
	require.True(t, errors.As(err, &ve))
	assert.Equal(t, rules.FieldUserName, ve.FieldType)
	assert.Equal(t, string(rules.MessageMinLength), ve.Reason)

	err = engine.Enforce(ctx, Request{Value: "x", FieldType: "postalCode"})
	assert.True(t, errors.Is(err, rules.ErrRuleNotFound))
}

func TestEngine_CachesResolvedRules(t *testing.T) {
	engine, _ := newTestEngine(t, nil)
	ctx := context.Background()

	engine.Validate(ctx, Request{Value: "alice", FieldType: rules.FieldUserName})
	engine.Validate(ctx, Request{Value: "bob", FieldType: rules.FieldUserName})
	engine.Validate(ctx, Request{Value: "x", FieldType: "postalCode"})

	stats := engine.GetStats()
	assert.Equal(t, []string{rules.FieldUserName}, stats.Cache.Keys)
	assert.Equal(t, uint64(1), stats.Cache.Hits)
	assert.Equal(t, uint64(2), stats.Cache.Misses)
	assert.Equal(t, "5m0s", stats.TTL)
	assert.Equal(t, security.DefaultLibrary().Len(), stats.Patterns)
}

func TestEngine_RuleReturnsCopy(t *testing.T) {
	engine, _ := newTestEngine(t, nil)
	ctx := context.Background()

	rule, err := engine.Rule(ctx, rules.FieldUserName)
	require.NoError(t, err)
	rule.MinLength = 40
	rule.Messages[rules.MessageMinLength] = "changed"

	resp := engine.Validate(ctx, Request{Value: "al", FieldType: rules.FieldUserName})
	assert.False(t, resp.IsValid)
	assert.Equal(t, "Username must be at least 3 characters", resp.Error)
	assert.True(t, engine.Validate(ctx, Request{Value: "alice", FieldType: rules.FieldUserName}).IsValid)

	again, err := engine.Rule(ctx, rules.FieldUserName)
	require.NoError(t, err)
	assert.Equal(t, 3, again.MinLength)
	assert.NotEqual(t, "changed", again.Messages[rules.MessageMinLength])
}

func TestEngine_ConfiguredRules(t *testing.T) {
	provider := settings.NewMemoryProvider(map[string]string{
		settings.FieldKey(rules.FieldUserName, rules.PropertyLatinOnly):          "true",
		settings.FieldKey(rules.FieldUserName, rules.PropertyAllowNumbers):       "true",
		settings.FieldKey(rules.FieldUserName, rules.PropertyAllowUsernameChars): "false",
	})
	engine, clock := newTestEngine(t, provider)
	ctx := context.Background()

	assert.False(t, engine.Validate(ctx, Request{Value: "héllo", FieldType: rules.FieldUserName}).IsValid)
	assert.True(t, engine.Validate(ctx, Request{Value: "hello2", FieldType: rules.FieldUserName}).IsValid)

	// - Configuration changes are not seen until the entry expires or is invalidated
	provider.Set(settings.FieldKey(rules.FieldUserName, rules.PropertyMinLength), "8")
	assert.True(t, engine.Validate(ctx, Request{Value: "hello2", FieldType: rules.FieldUserName}).IsValid)

	clock.Advance(301 * time.Second)
	resp := engine.Validate(ctx, Request{Value: "hello2", FieldType: rules.FieldUserName})
	assert.False(t, resp.IsValid)
	assert.Equal(t, "Username must be at least 8 characters", resp.Error)

	provider.Set(settings.FieldKey(rules.FieldUserName, rules.PropertyMinLength), "2")
	engine.Invalidate(ctx, rules.FieldUserName)
	assert.True(t, engine.Validate(ctx, Request{Value: "hello2", FieldType: rules.FieldUserName}).IsValid)
}

func TestEngine_MalformedConfiguredPatternFallsBack(t *testing.T) {
	provider := settings.NewMemoryProvider(map[string]string{
		settings.FieldKey(rules.FieldEmail, rules.PropertyRegex): `"^[a-z+@"`,
	})
	engine, _ := newTestEngine(t, provider)

	resp := engine.Validate(context.Background(), Request{Value: "alice@example.com", FieldType: rules.FieldEmail})
	assert.True(t, resp.IsValid)
	assert.Equal(t, KindNone, resp.Kind)
}

func TestEngine_Lifecycle(t *testing.T) {
	engine, _ := newTestEngine(t, nil)
	ctx := context.Background()

	require.NoError(t, engine.Initialize(ctx))
	assert.Equal(t, engine.Store().FieldTypes(), engine.GetStats().Cache.Keys)

	engine.Invalidate(ctx, rules.FieldEmail)
	assert.NotContains(t, engine.GetStats().Cache.Keys, rules.FieldEmail)

	engine.ClearCache(ctx)
	assert.Empty(t, engine.GetStats().Cache.Keys)
}

func TestEngine_InitializeReportsUnavailableRules(t *testing.T) {
	engine, _ := newTestEngine(t, failingProvider{})

	err := engine.Initialize(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, rules.ErrRuleUnavailable))

	keys := engine.GetStats().Cache.Keys
	assert.Contains(t, keys, rules.FieldTextShort)
	assert.NotContains(t, keys, rules.FieldUserName)
}

func TestEngine_Metrics(t *testing.T) {
	collector := metrics.NewCollector(metrics.Config{})
	engine, _ := newTestEngine(t, nil, WithMetrics(collector))
	ctx := context.Background()

	engine.Validate(ctx, Request{Value: "validname1", FieldType: rules.FieldUserName})
	engine.Validate(ctx, Request{Value: "ab", FieldType: rules.FieldUserName})
	engine.Validate(ctx, Request{Value: "<script>", FieldType: rules.FieldUserName, SecurityOnly: true})

	count, err := testutil.GatherAndCount(collector.Registry(), "fieldguard_validation_validations_total")
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	count, err = testutil.GatherAndCount(collector.Registry(), "fieldguard_validation_threats_detected_total")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestCheck_NormalizesBeforeCounting(t *testing.T) {
	rule := &rules.Rule{FieldType: "name", Label: "Name", MaxLength: 6}

	assert.True(t, Check(rule, "Ame\u0301lie").IsValid)
	assert.False(t, Check(rule, "Amelie!").IsValid)
}

func TestCheck_RequireNumber(t *testing.T) {
	rule := &rules.Rule{FieldType: "code", Label: "Code", RequireNumber: true}

	resp := Check(rule, "abc")
	assert.False(t, resp.IsValid)
	assert.Equal(t, "Code must contain at least one number", resp.Error)
	assert.True(t, Check(rule, "abc1").IsValid)
}

func TestEngine_ConcurrentValidation(t *testing.T) {
	engine, _ := newTestEngine(t, nil)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 25; j++ {
				assert.True(t, engine.Validate(ctx, Request{Value: "alice", FieldType: rules.FieldUserName}).IsValid)
				assert.False(t, engine.Validate(ctx, Request{Value: "a", FieldType: rules.FieldGroupName}).IsValid)
			}
		}()
	}
	wg.Wait()
}
