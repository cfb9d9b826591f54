// Copyright 2026 The Typeshift Authors
// SPDX-License-Identifier: MIT

// Package redact strips sensitive values from strings before they appear
// in output, logs, or error messages. Subprocess failures (git, pyre, the
// formatter) can echo environment values back in stderr, so anything the
// tool prints to the user passes through here first.
package redact

import (
	"os"
	"strings"
	"sync"
)

// sensitiveEnvVars lists environment variable names whose values must never
// appear in output.
var sensitiveEnvVars = []string{
	"GITHUB_TOKEN",
	"GH_TOKEN",
	"TYPESHIFT_TOKEN",
}

var (
	cachedSecrets []string
	cacheOnce     sync.Once
)

func loadSecrets() {
	for _, envVar := range sensitiveEnvVars {
		val := os.Getenv(envVar)
		if val != "" && len(val) >= 4 {
			cachedSecrets = append(cachedSecrets, val)
		}
	}
}

// resetCache resets the cached secrets. Used by tests that change env vars
// between calls.
func resetCache() {
	cachedSecrets = nil
	cacheOnce = sync.Once{}
}

// ResetForTest resets the cached secrets so tests in other packages can
// verify redaction behavior after setting env vars with t.Setenv.
func ResetForTest() { resetCache() }

// String replaces any occurrence of a known sensitive environment variable
// value with "[REDACTED]". Returns the original string if no secrets are
// found. Secret values are cached on first call.
func String(s string) string {
	cacheOnce.Do(loadSecrets)
	for _, secret := range cachedSecrets {
		s = strings.ReplaceAll(s, secret, "[REDACTED]")
	}
	return s
}
