//go:build !windows

package media

const lookupCommand = "which"
