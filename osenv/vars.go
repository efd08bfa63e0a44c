// Copyright 2026 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package osenv

const (
	// AzsmDataHomeEnvKey overrides the directory holding the
	// subscription store and management certificates.
	AzsmDataHomeEnvKey = "AZSM_DATA_HOME"

	// AzsmSubscriptionEnvKey names the subscription used when
	// --subscription is not given.
	AzsmSubscriptionEnvKey = "AZSM_SUBSCRIPTION"

	AzsmLoggingConfigEnvKey        = "AZSM_LOGGING_CONFIG"
	AzsmStartupLoggingConfigEnvKey = "AZSM_STARTUP_LOGGING_CONFIG"

	// AzsmMarketplaceURLEnvKey overrides the marketplace offers feed.
	AzsmMarketplaceURLEnvKey = "AZSM_MARKETPLACE_URL"

	// AzsmCloudServiceEnvKey names the cloud service of commands
	// whose service argument is optional.
	AzsmCloudServiceEnvKey = "AZSM_CLOUD_SERVICE"

	// XDGDataHome is a path where data for the running user
	// should be stored, as specified by the XDG Base Directory
	// Specification.
	XDGDataHome = "XDG_DATA_HOME"
)
