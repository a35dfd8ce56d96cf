//go:build windows

package media

const lookupCommand = "where"
