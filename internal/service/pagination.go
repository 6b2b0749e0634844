// internal/service/pagination.go
package service

const (
	DefaultPageLimit = 20
	MaxPageLimit     = 100
)

// NormalizePage clamps pagination arguments to the default and maximum page size.
func NormalizePage(limit, offset int) (int, int) {
	if limit <= 0 {
		limit = DefaultPageLimit
	}
	if limit > MaxPageLimit {
		limit = MaxPageLimit
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}
