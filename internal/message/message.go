// Package message renders follower updates as short status posts.
package message

import (
	"fmt"
	"math"
	"unicode/utf8"

	"github.com/FranksOps/followtrack/internal/change"
	"github.com/dustin/go-humanize"
)

// MaxLength is the post length limit, in characters.
const MaxLength = 280

const hashtag = "#FollowerTracker"

// Input is what a post is rendered from. A nil Change means the handle is
// tracked for the first time.
type Input struct {
	Handle  string
	Current int64
	Change  *change.Change
}

// Format renders in within MaxLength. When the full template is too long the
// short one is used, and when that still does not fit the handle is shortened.
func Format(in Input) string {
	current := humanize.Comma(in.Current)

	if in.Change == nil {
		return fit(in.Handle, func(h string) string {
			return fmt.Sprintf("📊 @%s currently has %s followers.\n\n(First tracking)\n\n%s", h, current, hashtag)
		})
	}

	emoji, verb, delta := describe(in.Change.Delta)
	hours := int64(math.RoundToEven(in.Change.ElapsedHours))

	full := fmt.Sprintf("%s @%s %s %s followers in ~%dh\n\n📊 %s\n📈 %s\n\n%s",
		emoji, in.Handle, verb, delta, hours, current, delta, hashtag)
	if Length(full) <= MaxLength {
		return full
	}

	return fit(in.Handle, func(h string) string {
		return fmt.Sprintf("%s @%s %s %s followers\n\n📊 %s | 📈 %s\n\n%s",
			emoji, h, verb, delta, current, delta, hashtag)
	})
}

// FailureNotice is posted instead of an update when no count could be acquired.
func FailureNotice(handle string) string {
	return fit(handle, func(h string) string {
		return fmt.Sprintf("❌ Could not get follower count for @%s today. Will try again tomorrow! %s", h, hashtag)
	})
}

// Length counts characters the way the limit is applied.
func Length(text string) int {
	return utf8.RuneCountInString(text)
}

func describe(delta int64) (emoji, verb, text string) {
	switch {
	case delta > 0:
		return "📈", "gained", "+" + humanize.Comma(delta)
	case delta < 0:
		return "📉", "lost", humanize.Comma(delta)
	default:
		return "➡️", "no change", "0"
	}
}

// fit renders with the full handle, shortening it with an ellipsis by exactly
// the overflow when the result exceeds MaxLength.
func fit(handle string, render func(handle string) string) string {
	msg := render(handle)
	excess := Length(msg) - MaxLength
	if excess <= 0 {
		return msg
	}

	runes := []rune(handle)
	keep := max(len(runes)-excess-1, 0)
	return render(string(runes[:keep]) + "…")
}
