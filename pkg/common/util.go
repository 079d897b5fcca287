package common

import (
	"fmt"
	"os"
	"testing"
)

func IsTestEnv() bool {
	return testing.Testing()
}
func IsDevelopment() bool {
	return os.Getenv(EnvKeyGoEnv) == "development"
}

func IsProduction() bool {
	return os.Getenv(EnvKeyGoEnv) == "production"
}

func Mapper[T any, R any](items []T, mapFn func(T) R) []R {
	mapped := make([]R, len(items))
	for i := range len(items) {
		mapped[i] = mapFn(items[i])
	}
	return mapped
}

func Reducer[T any, R any](items []T, reduceFn func(R, T) R, initAcc R) R {
	finalAcc := initAcc
	for i := range len(items) {
		finalAcc = reduceFn(finalAcc, items[i])
	}
	return finalAcc
}

const (
	kib int64 = 1024
	mib       = kib * 1024
	gib       = mib * 1024
	tib       = gib * 1024
)

// FormatBytes renders a byte count with two decimals in the largest fitting unit.
func FormatBytes(n int64) string {
	switch {
	case n >= gib:
		return fmt.Sprintf("%.2f GB", float64(n)/float64(gib))
	case n >= mib:
		return fmt.Sprintf("%.2f MB", float64(n)/float64(mib))
	case n >= kib:
		return fmt.Sprintf("%.2f KB", float64(n)/float64(kib))
	}
	return fmt.Sprintf("%d bytes", n)
}

// FormatLimit renders a plan limit in whole units, e.g. "2 GB" or "1 TB".
func FormatLimit(n int64) string {
	switch {
	case n >= tib:
		return fmt.Sprintf("%d TB", n/tib)
	case n >= gib:
		return fmt.Sprintf("%d GB", n/gib)
	case n >= mib:
		return fmt.Sprintf("%d MB", n/mib)
	}
	return fmt.Sprintf("%d bytes", n)
}
