package redis

import "github.com/adeilh/go-keyed/config"

var (
	HostKey = config.MustKey("REDIS_HOST", "127.0.0.1",
		config.WithRules(config.Required()))
	PortKey = config.MustKey("REDIS_PORT", "6379",
		config.WithRules(config.IntTag("gte=1,lte=65535")))
	PasswordKey = config.MustKey("REDIS_PASSWORD", "redis",
		config.WithRules(config.Required()))
	KeepAliveKey = config.MustKey("REDIS_KEEP_ALIVE", "180",
		config.WithDoc("Time in seconds", "Value 0 disables keep-alive probes"),
		config.WithRules(config.IntTag("gte=0")))
	SSLKey = config.MustKey("REDIS_SSL", "false",
		config.WithRules(config.BoolLiteral()))
	PoolSizeKey = config.MustKey("REDIS_POOL_SIZE", "8",
		config.WithDoc("Connections per database"),
		config.WithRules(config.IntTag("gte=1,lte=1024")))
	DialTimeoutKey = config.MustKey("REDIS_DIAL_TIMEOUT", "5",
		config.WithDoc("Time in seconds"),
		config.WithRules(config.IntTag("gte=1,lte=300")))
)

var registry = config.MustRegistry("redis",
	HostKey, PortKey, PasswordKey, KeepAliveKey, SSLKey, PoolSizeKey, DialTimeoutKey)

// Registry lists the keys read by OptionsFromConfig.
func Registry() *config.Registry { return registry }
