package captcha

import (
	"context"
	"fmt"
	"time"

	"cdr.dev/slog/v3"
	"github.com/coder/quartz"
	"github.com/hashicorp/go-multierror"
	"github.com/tidwall/gjson"
	"golang.org/x/xerrors"

	"github.com/adeilh/go-keyed/config"
	"github.com/adeilh/go-keyed/httpx"
)

// HCaptchaInput is one hCaptcha submission.
type HCaptchaInput struct {
	Response string
	RemoteIP string
	SiteKey  string
}

// Options is the hCaptcha verification policy. Empty ClientHostname and
// VerifySiteKey skip those checks; a zero ChallengeExpiration skips the age
// check.
type Options struct {
	Secret              string
	VerifyURL           string
	ClientHostname      string
	VerifySiteKey       string
	ChallengeExpiration time.Duration
}

// OptionsFromConfig resolves the HCAPTCHA_* keys, reporting every invalid one.
func OptionsFromConfig(ctx context.Context, cfg config.Resolver) (Options, error) {
	var merr *multierror.Error
	resolve := func(k *config.Key) config.Value {
		v, err := cfg.ResolveContext(ctx, k)
		if err != nil {
			merr = multierror.Append(merr, err)
		}
		return v
	}

	opts := Options{
		Secret:         resolve(SecretKey).String(),
		VerifyURL:      resolve(VerifyURLKey).String(),
		ClientHostname: resolve(ClientHostnameKey).String(),
		VerifySiteKey:  resolve(VerifySiteKeyKey).String(),
	}
	seconds, _ := resolve(ExpirationChallengeKey).Int()
	opts.ChallengeExpiration = time.Duration(seconds) * time.Second

	if err := merr.ErrorOrNil(); err != nil {
		return Options{}, err
	}
	return opts, nil
}

// HCaptcha verifies tokens against the hCaptcha siteverify API.
type HCaptcha struct {
	opts   Options
	client *httpx.Client
	clock  quartz.Clock
	logger slog.Logger
}

var _ Validator[HCaptchaInput] = (*HCaptcha)(nil)

type Option func(*HCaptcha)

// WithClock replaces the clock used for the challenge age check.
func WithClock(c quartz.Clock) Option {
	return func(h *HCaptcha) {
		if c != nil {
			h.clock = c
		}
	}
}

func WithLogger(logger slog.Logger) Option {
	return func(h *HCaptcha) {
		h.logger = logger
	}
}

// WithHTTPClient replaces the client used to reach the verify URL.
func WithHTTPClient(c *httpx.Client) Option {
	return func(h *HCaptcha) {
		if c != nil {
			h.client = c
		}
	}
}

func NewHCaptcha(opts Options, options ...Option) *HCaptcha {
	h := &HCaptcha{
		opts:   opts,
		client: httpx.NewClient(httpx.WithClientTimeout(10 * time.Second)),
		clock:  quartz.NewReal(),
	}
	for _, o := range options {
		if o != nil {
			o(h)
		}
	}
	return h
}

// NewRepository returns a repository building one HCaptcha from the
// HCAPTCHA_* keys on first use.
func NewRepository(cfg config.Resolver, options ...Option) *config.Singleton[*HCaptcha] {
	return config.NewSingleton(cfg, func(ctx context.Context, cfg config.Resolver) (*HCaptcha, error) {
		opts, err := OptionsFromConfig(ctx, cfg)
		if err != nil {
			return nil, err
		}
		return NewHCaptcha(opts, options...), nil
	})
}

func (h *HCaptcha) Validate(ctx context.Context, in HCaptchaInput) error {
	if in.Response == "" {
		return reject("response", "empty input response (hCaptcha challenge token)", ErrEmptyResponse)
	}
	if h.opts.VerifySiteKey != "" && in.SiteKey != h.opts.VerifySiteKey {
		return reject("sitekey", fmt.Sprintf("site key %q is different from configured site key %q", in.SiteKey, h.opts.VerifySiteKey), nil)
	}

	resp, err := h.client.PostForm(ctx, h.opts.VerifyURL, map[string]string{
		"secret":   h.opts.Secret,
		"response": in.Response,
		"remoteip": in.RemoteIP,
		"sitekey":  in.SiteKey,
	}, nil)
	if err != nil {
		return xerrors.Errorf("hcaptcha verify: %w", err)
	}
	body := resp.Body()
	h.logger.Debug(ctx, "raw json from hcaptcha server", slog.F("body", string(body)))

	if !gjson.ValidBytes(body) {
		return xerrors.Errorf("hcaptcha verify: malformed response %q", body)
	}
	result := gjson.ParseBytes(body)

	if !result.Get("success").Bool() {
		return reject("success", "the hCaptcha service does not recognize this challenge", nil)
	}

	hostname := result.Get("hostname").String()
	if h.opts.ClientHostname != "" && hostname != h.opts.ClientHostname {
		return reject("hostname", fmt.Sprintf("hostname %q is different from configured hostname %q", hostname, h.opts.ClientHostname), nil)
	}

	if h.opts.ChallengeExpiration > 0 {
		issued, err := time.Parse(time.RFC3339, result.Get("challenge_ts").String())
		if err != nil {
			return reject("challenge_ts", "challenge timestamp is missing or malformed", err)
		}
		expiresAt := issued.Add(h.opts.ChallengeExpiration)
		if h.clock.Now().After(expiresAt) {
			return reject("expiration", fmt.Sprintf("the challenge expired at %s", expiresAt.Format(time.RFC3339)), nil)
		}
	}
	return nil
}
