// Package source provides config.Source implementations: the process
// environment, in-memory maps, viper-read files and chains of these.
package source

import "github.com/adeilh/go-keyed/config"

var (
	_ config.Source = Env{}
	_ config.Source = (*Map)(nil)
	_ config.Source = (*File)(nil)
	_ config.Source = Chain(nil)
)
