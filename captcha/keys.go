package captcha

import "github.com/adeilh/go-keyed/config"

// DefaultVerifyURL is the public hCaptcha verification endpoint.
const DefaultVerifyURL = "https://api.hcaptcha.com/siteverify"

var (
	SecretKey = config.MustKey("HCAPTCHA_SECRET", "",
		config.WithRules(config.Required()))
	VerifyURLKey = config.MustKey("HCAPTCHA_VERIFY_URL", DefaultVerifyURL,
		config.WithRules(config.Required(), config.StringTag("url")))
	ClientHostnameKey      = config.MustKey("HCAPTCHA_CLIENT_HOSTNAME", "")
	ExpirationChallengeKey = config.MustKey("HCAPTCHA_EXPIRATION_CHALLENGE", "0",
		config.WithDoc("Time in seconds", "Value 0 means no expiration check"),
		config.WithRules(config.IntRange(0, 86400)))
	VerifySiteKeyKey = config.MustKey("HCAPTCHA_VERIFY_SITE_KEY", "")
)

var registry = config.MustRegistry("hcaptcha",
	SecretKey, VerifyURLKey, ClientHostnameKey, ExpirationChallengeKey, VerifySiteKeyKey)

// Registry lists the HCAPTCHA_* keys.
func Registry() *config.Registry { return registry }
