package strand

import (
	"math/big"
	"net/url"
	"time"
)

// BigInt is an arbitrary-precision integer.
type BigInt struct {
	Int big.Int
}

// NewBigInt creates a BigInt from an int64.
func NewBigInt(n int64) *BigInt {
	b := &BigInt{}
	b.Int.SetInt64(n)
	return b
}

// ParseBigInt creates a BigInt from a base-10 string.
func ParseBigInt(s string) (*BigInt, bool) {
	b := &BigInt{}
	if _, ok := b.Int.SetString(s, 10); !ok {
		return nil, false
	}
	return b, true
}

func (*BigInt) Kind() Kind { return KindBigInt }

// Time is a UTC instant with millisecond precision. Sub-millisecond detail is
// discarded at encode time.
type Time struct {
	time.Time
}

// NewTime creates a Time truncated to millisecond precision in UTC.
func NewTime(t time.Time) Time {
	return Time{t.UTC().Truncate(time.Millisecond)}
}

func (Time) Kind() Kind { return KindTime }

// URL is a URL transported by its string form.
type URL struct {
	URL url.URL
}

// ParseURL parses s into a URL value.
func ParseURL(s string) (*URL, error) {
	u, err := url.Parse(s)
	if err != nil {
		return nil, err
	}
	return &URL{URL: *u}, nil
}

func (u *URL) String() string { return u.URL.String() }

func (*URL) Kind() Kind { return KindURL }
