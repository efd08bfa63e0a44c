// Copyright 2026 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package servicemanagement

import (
	"sync"

	azlog "github.com/Azure/azure-sdk-for-go/sdk/azcore/log"
	"github.com/juju/loggo"
)

var (
	httpLogger = loggo.GetLogger("azsm.servicemanagement.http")
	bridgeOnce sync.Once
)

// bridgeLogging routes the SDK pipeline log events to loggo. The SDK
// listener is process wide, so it is installed once.
func bridgeLogging() {
	bridgeOnce.Do(func() {
		azlog.SetEvents(azlog.EventRequest, azlog.EventResponse, azlog.EventRetryPolicy, azlog.EventResponseError)
		azlog.SetListener(func(event azlog.Event, msg string) {
			switch event {
			case azlog.EventRetryPolicy:
				httpLogger.Debugf("%s", msg)
			case azlog.EventResponseError:
				httpLogger.Debugf("%s", msg)
			default:
				httpLogger.Tracef("%s", msg)
			}
		})
	})
}
