// Package store persists verdicts beyond the lifetime of the in-memory
// result cache.
package store

import (
	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary
