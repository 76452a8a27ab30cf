// Package bingo models the recurring bingo events the whole bot revolves
// around. Every event carries a small monotonically increasing identifier;
// that identifier doubles as the staleness boundary for cached player facts.
package bingo

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"github.com/skybingo/bingobot/internal/errs"
)

// Kind distinguishes the bingo variants Hypixel runs.
type Kind uint8

const (
	KindNormal Kind = iota
	KindExtreme
	KindSecret
)

// Kinds lists every variant, in storage order.
var Kinds = []Kind{KindNormal, KindExtreme, KindSecret}

// KindFromUint8 decodes a stored kind; unknown values fall back to normal.
func KindFromUint8(v uint8) Kind {
	switch v {
	case 1:
		return KindExtreme
	case 2:
		return KindSecret
	default:
		return KindNormal
	}
}

func (k Kind) prefix() string {
	switch k {
	case KindExtreme:
		return "Extreme "
	case KindSecret:
		return "Secret "
	default:
		return ""
	}
}

// Bingo identifies one event. KindID is zero-based within the kind; Unique is
// the global event number when known (the mapping table may not cover old
// events).
type Bingo struct {
	KindID uint8
	Kind   Kind
	Unique *uint8
}

// ID returns the event's epoch identifier: the global number when known,
// otherwise the kind-specific one.
func (b Bingo) ID() uint8 {
	if b.Unique != nil {
		return *b.Unique
	}
	return b.KindID
}

// String renders the user-facing name, e.g. "Extreme Bingo #3".
func (b Bingo) String() string {
	return fmt.Sprintf("%sBingo #%d", b.Kind.prefix(), b.KindID+1)
}

// Short renders the compact form used in dense lists, e.g. "extreme #3".
func (b Bingo) Short() string {
	switch b.Kind {
	case KindExtreme:
		return fmt.Sprintf("extreme #%d", b.KindID+1)
	case KindSecret:
		return fmt.Sprintf("secret #%d", b.KindID+1)
	default:
		return fmt.Sprintf("#%d", b.KindID+1)
	}
}

// Parse reads a bingo identifier as typed by a user, e.g. "extreme #2",
// "Bingo 14" or "s3". Failures are user errors.
func Parse(input string) (Bingo, error) {
	cleaned := strings.ToLower(input)
	cleaned = strings.ReplaceAll(cleaned, "bingo", "")
	cleaned = strings.ReplaceAll(cleaned, "#", "")
	cleaned = strings.ReplaceAll(cleaned, " ", "")

	digit := strings.IndexFunc(cleaned, unicode.IsDigit)
	kindPart, numPart := cleaned, ""
	if digit >= 0 {
		kindPart, numPart = cleaned[:digit], cleaned[digit:]
	}

	// An empty kind part parses as normal: strings.HasPrefix(x, "") is true.
	var kind Kind
	switch {
	case strings.HasPrefix("normal", kindPart):
		kind = KindNormal
	case strings.HasPrefix("extreme", kindPart):
		kind = KindExtreme
	case strings.HasPrefix("secret", kindPart):
		kind = KindSecret
	default:
		return Bingo{}, errs.Userf("failed to parse bingo identifier %q", input)
	}

	num, err := strconv.ParseUint(numPart, 10, 8)
	if err != nil {
		return Bingo{}, errs.Userf("failed to parse bingo identifier %q", input)
	}
	if num == 0 {
		return Bingo{}, errs.Userf("bingo ID cannot be 0")
	}

	return Bingo{KindID: uint8(num - 1), Kind: kind}, nil
}
