// Copyright 2026 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

// Package version holds the release number of the azsm client.
package version

import (
	"fmt"
	"runtime"
)

// The presence and format of this constant is very important.
// The release scripts rewrite it in place.
const version = "1.2.0"

// Current gives the current version of the client.
var Current = version

// GitCommit may be set by the linker at build time.
var GitCommit string

// UserAgent is the value sent in the User-Agent header of every
// request made against the management API.
func UserAgent() string {
	return fmt.Sprintf("azsm/%s (%s; %s)", Current, runtime.GOOS, runtime.GOARCH)
}

// Detail returns the version followed by the git commit, if known.
func Detail() string {
	if GitCommit == "" {
		return Current
	}
	return fmt.Sprintf("%s-%s", Current, GitCommit)
}
