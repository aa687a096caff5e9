// Package config resolves typed, validated settings from raw string sources.
//
// A Key declares one setting: its name, default, documentation and rules.
// A Resolver reads the raw string for a key from a Source, substitutes the
// default when the source has nothing, and validates the result before
// returning a Value:
//
//	var Port = config.MustKey("REDIS_PORT", "6379", config.WithRules(config.IntTag("gte=1,lte=65535")))
//
//	cfg := config.NewKeyedConfig(source.Env{})
//	v, err := cfg.Resolve(Port)
//	if err != nil {
//	    return err // *config.ValidationError
//	}
//	port, _ := v.Int()
//
// Expensive objects built from keys, such as pooled connections, are shared
// through a Singleton repository or rebuilt per call through a Transient one.
package config
