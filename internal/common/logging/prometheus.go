package logging

import (
	"sync"

	"github.com/weaveworks/promrus"
)

var (
	hookOnce sync.Once
	hook     *promrus.PrometheusHook
)

// prometheusHook returns the process-wide hook counting log lines per level.
// promrus registers its counter on creation, so it must only be created once.
func prometheusHook() *promrus.PrometheusHook {
	hookOnce.Do(func() {
		hook = promrus.MustNewPrometheusHook()
	})
	return hook
}
