package checkout

import (
	"crypto/rand"
	"fmt"
	"io"
	"regexp"
	"time"
)

const (
	orderNumberAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	orderNumberSuffix   = 4
)

var orderNumberPattern = regexp.MustCompile(`^ORD-\d{14}-[A-Z0-9]{4}$`)

// NewOrderNumber formats ORD-<YYYYMMDDHHMMSS>-<4 uppercase alnum> using the
// UTC time and random bytes from src.
func NewOrderNumber(now time.Time, src io.Reader) (string, error) {
	if src == nil {
		src = rand.Reader
	}
	buf := make([]byte, orderNumberSuffix)
	if _, err := io.ReadFull(src, buf); err != nil {
		return "", fmt.Errorf("read random suffix: %w", err)
	}
	suffix := make([]byte, orderNumberSuffix)
	for i, b := range buf {
		suffix[i] = orderNumberAlphabet[int(b)%len(orderNumberAlphabet)]
	}
	return fmt.Sprintf("ORD-%s-%s", now.UTC().Format("20060102150405"), suffix), nil
}

// IsOrderNumber reports whether value has the order number shape.
func IsOrderNumber(value string) bool {
	return orderNumberPattern.MatchString(value)
}
