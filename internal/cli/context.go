// Package cli provides the command-line interface for evalcrawl.
package cli

import (
	"fmt"
	"sync"

	"github.com/law-makers/evalcrawl/internal/app"
)

// The application is built once per invocation in the root PersistentPreRunE
// and closed by Execute, which also covers commands that return an error.
var (
	appMu      sync.Mutex
	currentApp *app.Application
)

func setApp(a *app.Application) {
	appMu.Lock()
	defer appMu.Unlock()
	currentApp = a
}

// getApp returns the initialized Application
func getApp() (*app.Application, error) {
	appMu.Lock()
	defer appMu.Unlock()
	if currentApp == nil {
		return nil, fmt.Errorf("application not initialized")
	}
	return currentApp, nil
}

// takeApp returns the Application and clears it
func takeApp() *app.Application {
	appMu.Lock()
	defer appMu.Unlock()
	a := currentApp
	currentApp = nil
	return a
}
