//go:build pfalloc_debug

package pfalloc

const defaultDebugLevel = DebugFilled
