package remediation_test

import (
	"fmt"

	"github.com/jonwraymond/autoheal/remediation"
)

func ExampleNewEngine() {
	engine := remediation.NewEngine(remediation.Config{
		AutoRestart: true,
	})
	engine.InstallDefaultHandlers()

	for _, name := range engine.Handlers() {
		fmt.Println(name)
	}
	// Output:
	// service-restart
	// metrics-reset
	// graceful-degradation
	// circuit-breaker
}
