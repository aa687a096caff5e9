package captcha_test

import (
	"context"
	"net/http"
	"sync"
	"testing"
	"time"

	"cdr.dev/slog/v3/sloggers/slogtest"
	"github.com/coder/quartz"
	"github.com/hashicorp/go-multierror"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adeilh/go-keyed/captcha"
	"github.com/adeilh/go-keyed/config"
	"github.com/adeilh/go-keyed/config/source"
	"github.com/adeilh/go-keyed/httpx"
)

const (
	validResponse = "10000000-aaaa-bbbb-cccc-000000000001"
	validSiteKey  = "10000000-ffff-ffff-ffff-000000000001"
	validSecret   = "0x0000000000000000000000000000000000000000"
)

// fakeVerifier answers like the siteverify endpoint: only validResponse
// paired with validSecret succeeds.
type fakeVerifier struct {
	issuedAt time.Time

	mu    sync.Mutex
	forms []map[string]string
}

func (f *fakeVerifier) register(e *httpx.Echo) {
	e.POST("/siteverify", func(c httpx.Context) error {
		params, err := c.FormParams()
		if err != nil {
			return err
		}
		form := make(map[string]string, len(params))
		for k := range params {
			form[k] = params.Get(k)
		}
		f.mu.Lock()
		f.forms = append(f.forms, form)
		f.mu.Unlock()

		if form["secret"] != validSecret || form["response"] != validResponse {
			return c.JSON(http.StatusOK, map[string]any{
				"success":     false,
				"error-codes": []string{"invalid-input-response"},
			})
		}
		return c.JSON(http.StatusOK, map[string]any{
			"success":      true,
			"challenge_ts": f.issuedAt.UTC().Format(time.RFC3339Nano),
			"hostname":     "dummy-key-pass",
		})
	})
}

func (f *fakeVerifier) lastForm() map[string]string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.forms) == 0 {
		return nil
	}
	return f.forms[len(f.forms)-1]
}

type harness struct {
	verifier *fakeVerifier
	clock    *quartz.Mock
	server   *httpx.TestServer
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	clock := quartz.NewMock(t)
	v := &fakeVerifier{issuedAt: clock.Now().Add(-30 * time.Second)}
	ts := httpx.NewEchoTestServer(v.register)
	t.Cleanup(ts.Close)
	return &harness{verifier: v, clock: clock, server: ts}
}

func (h *harness) validator(t *testing.T, settings map[string]string) *captcha.HCaptcha {
	t.Helper()
	src := source.NewMap(map[string]string{
		"HCAPTCHA_SECRET":     validSecret,
		"HCAPTCHA_VERIFY_URL": h.server.URL + "/siteverify",
	})
	for k, v := range settings {
		src.Set(k, v)
	}
	repo := captcha.NewRepository(config.NewKeyedConfig(src),
		captcha.WithClock(h.clock),
		captcha.WithLogger(slogtest.Make(t, nil)),
	)
	hc, err := repo.Instance(context.Background())
	require.NoError(t, err)
	return hc
}

func requireRejected(t *testing.T, err error) *config.ValidationError {
	t.Helper()
	var ve *config.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "hcaptcha", ve.Name)
	return ve
}

func TestHCaptchaValid(t *testing.T) {
	t.Parallel()
	h := newHarness(t)
	hc := h.validator(t, nil)

	err := hc.Validate(context.Background(), captcha.HCaptchaInput{
		Response: validResponse,
		RemoteIP: "127.0.0.1",
		SiteKey:  validSiteKey,
	})
	require.NoError(t, err)

	form := h.verifier.lastForm()
	assert.Equal(t, map[string]string{
		"secret":   validSecret,
		"response": validResponse,
		"remoteip": "127.0.0.1",
		"sitekey":  validSiteKey,
	}, form)
}

func TestHCaptchaOptionalFieldsOmitted(t *testing.T) {
	t.Parallel()
	h := newHarness(t)
	hc := h.validator(t, nil)

	require.NoError(t, hc.Validate(context.Background(), captcha.HCaptchaInput{Response: validResponse}))
	form := h.verifier.lastForm()
	assert.NotContains(t, form, "remoteip")
	assert.NotContains(t, form, "sitekey")
}

func TestHCaptchaRejectsInvalidResponses(t *testing.T) {
	t.Parallel()
	h := newHarness(t)
	hc := h.validator(t, nil)

	err := hc.Validate(context.Background(), captcha.HCaptchaInput{SiteKey: validSiteKey, RemoteIP: "127.0.0.1"})
	requireRejected(t, err)
	assert.ErrorIs(t, err, captcha.ErrEmptyResponse)
	assert.Nil(t, h.verifier.lastForm(), "empty responses never reach the endpoint")

	err = hc.Validate(context.Background(), captcha.HCaptchaInput{Response: "any invalid key", SiteKey: validSiteKey})
	ve := requireRejected(t, err)
	assert.Equal(t, "success", ve.Violations[0].Rule)
}

func TestHCaptchaSiteKeyMismatch(t *testing.T) {
	t.Parallel()
	h := newHarness(t)
	hc := h.validator(t, map[string]string{"HCAPTCHA_VERIFY_SITE_KEY": "ANY DIFFERENT KEY"})

	err := hc.Validate(context.Background(), captcha.HCaptchaInput{Response: validResponse, SiteKey: validSiteKey})
	ve := requireRejected(t, err)
	assert.Equal(t, "sitekey", ve.Violations[0].Rule)
	assert.Nil(t, h.verifier.lastForm())
}

func TestHCaptchaHostname(t *testing.T) {
	t.Parallel()
	h := newHarness(t)

	ok := h.validator(t, map[string]string{"HCAPTCHA_CLIENT_HOSTNAME": "dummy-key-pass"})
	require.NoError(t, ok.Validate(context.Background(), captcha.HCaptchaInput{Response: validResponse}))

	other := h.validator(t, map[string]string{"HCAPTCHA_CLIENT_HOSTNAME": "example.com"})
	ve := requireRejected(t, other.Validate(context.Background(), captcha.HCaptchaInput{Response: validResponse}))
	assert.Equal(t, "hostname", ve.Violations[0].Rule)
}

func TestHCaptchaChallengeExpiration(t *testing.T) {
	t.Parallel()
	h := newHarness(t)
	hc := h.validator(t, map[string]string{"HCAPTCHA_EXPIRATION_CHALLENGE": "60"})
	in := captcha.HCaptchaInput{Response: validResponse}

	// Issued 30s ago with a 60s window.
	require.NoError(t, hc.Validate(context.Background(), in))

	h.clock.Advance(30 * time.Second)
	require.NoError(t, hc.Validate(context.Background(), in), "valid at exactly the expiry instant")

	h.clock.Advance(time.Second)
	ve := requireRejected(t, hc.Validate(context.Background(), in))
	assert.Equal(t, "expiration", ve.Violations[0].Rule)

	// Zero disables the check.
	unlimited := h.validator(t, nil)
	require.NoError(t, unlimited.Validate(context.Background(), in))
}

func TestOptionsFromConfig(t *testing.T) {
	t.Parallel()

	opts, err := captcha.OptionsFromConfig(context.Background(), config.NewKeyedConfig(source.NewMap(map[string]string{
		"HCAPTCHA_SECRET": "s",
	})))
	require.NoError(t, err)
	assert.Equal(t, captcha.DefaultVerifyURL, opts.VerifyURL)
	assert.Zero(t, opts.ChallengeExpiration)

	_, err = captcha.OptionsFromConfig(context.Background(), config.NewKeyedConfig(source.NewMap(map[string]string{
		"HCAPTCHA_VERIFY_URL":           "not a url",
		"HCAPTCHA_EXPIRATION_CHALLENGE": "86401",
	})))
	var merr *multierror.Error
	require.ErrorAs(t, err, &merr)
	assert.Len(t, merr.Errors, 3)
}

func TestRequestValidator(t *testing.T) {
	t.Parallel()
	h := newHarness(t)
	hc := h.validator(t, nil)

	server := httpx.NewServer(httpx.WithValidators(captcha.RequestValidator[captcha.HCaptchaInput](hc,
		func(c httpx.Context) (captcha.HCaptchaInput, error) {
			return captcha.HCaptchaInput{
				Response: c.Request().Header.Get("X-Captcha"),
				RemoteIP: c.RealIP(),
			}, nil
		})))
	server.RegisterRoutes(func(e *httpx.Echo) {
		e.POST("/signup", func(c httpx.Context) error { return c.NoContent(httpx.StatusCreated) })
	})
	ts := httpx.NewTestServer(server.Handler())
	defer ts.Close()
	client := ts.APIClient()

	resp, err := client.PostForm(context.Background(), "/signup", nil, nil)
	require.Error(t, err)
	assert.Equal(t, httpx.StatusBadRequest, resp.StatusCode())

	resp, err = client.PostForm(context.Background(), "/signup", nil, nil,
		httpx.WithRequestHeaders(map[string]string{"X-Captcha": validResponse}))
	require.NoError(t, err)
	assert.Equal(t, httpx.StatusCreated, resp.StatusCode())
}
