// Package ciutil detects CI environments and resolves settings that may live
// under more than one environment variable name.
package ciutil
