// Package timegroup decides where time dividers fall between messages and
// how they are labeled.
package timegroup

import "time"

// MaxGap is the largest gap between consecutive messages that does not
// force a divider within the same calendar day.
const MaxGap = 10 * time.Minute

// SameDay reports whether two instants fall on the same calendar day in
// local time.
func SameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// ShowDivider reports whether a divider belongs before a message created at
// curr, given the previous message's creation time. The first message of a
// sequence (hasPrev false) always gets a divider.
func ShowDivider(hasPrev bool, prev, curr time.Time) bool {
	if !hasPrev {
		return true
	}
	if !SameDay(prev, curr) {
		return true
	}
	gap := curr.Sub(prev)
	if gap < 0 {
		gap = -gap
	}
	return gap > MaxGap
}

// Label renders a divider for the given instant relative to now: "Today",
// "Yesterday", or a locale date string.
func Label(ts, now time.Time) string {
	if SameDay(ts, now) {
		return "Today"
	}
	if SameDay(ts, now.AddDate(0, 0, -1)) {
		return "Yesterday"
	}
	return ts.Format("1/2/2006")
}

// FormatTimeShort renders an instant as a short clock time for previews.
func FormatTimeShort(ts time.Time) string {
	return ts.Format("15:04")
}
