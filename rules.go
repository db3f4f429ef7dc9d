package tamperfy

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

// ruleCategory groups compiled patterns for one kind of manipulative phrasing.
// A category contributes its Increment once, on its first matching pattern.
type ruleCategory struct {
	Name      string
	Severity  Severity
	Increment float64
	Patterns  []*regexp.Regexp
}

var ruleCategories = []ruleCategory{
	{
		Name:      "Clickbait Language",
		Severity:  SeverityMedium,
		Increment: 0.12,
		Patterns: compile(
			`\byou won'?t believe\b`,
			`\bshocking\b`,
			`\bmind[- ]?blow(ing)?\b`,
			`\bsecrets?\b.*\b(reveal|exposed)\b`,
			`\bthey don'?t want you to know\b`,
			`\bwhat happens? next\b`,
			`\bgoing viral\b`,
			`\bbreaking[\s!]*news\b`,
			`\bexclusive reveal\b`,
			`\b\d+ things? (that|you)\b`,
		),
	},
	{
		Name:      "Spam / Promotional Pattern",
		Severity:  SeverityHigh,
		Increment: 0.18,
		Patterns: compile(
			`\bclick here\b`,
			`\bfree (offer|money|gift|download|trial)\b`,
			`\bmake \$?\d+`,
			`\bearn (from home|online|passive)\b`,
			`\blimited time (offer|only)\b`,
			`\bact now\b`,
			`\blink in bio\b`,
			`\b(dm|whatsapp|telegram) me\b`,
			`\bno credit card\b`,
		),
	},
	{
		Name:      "Generalizing / Hateful Language",
		Severity:  SeverityHigh,
		Increment: 0.20,
		Patterns: compile(
			`\ball \w+ are\b`,
			`\bthose people\b.{0,30}\b(always|never|all)\b`,
			`\bshould be (banned|removed|eliminated|killed)\b`,
			`\b(inferior|superior) (race|people|group)\b`,
		),
	},
}

// Formatting checks.
var (
	excessPunctRe  = regexp.MustCompile(`[!?]{3,}`)
	allCapsRe      = regexp.MustCompile(`\b[A-Z]{4,}\b`)
	emojiClusterRe = regexp.MustCompile(`[\x{1F600}-\x{1F64F}\x{1F300}-\x{1F5FF}\x{1F680}-\x{1F6FF}\x{1F1E0}-\x{1F1FF}]{4,}`)
)

const (
	excessPunctIncrement  = 0.06
	allCapsIncrement      = 0.09
	repeatedRuneIncrement = 0.04
	emojiIncrement        = 0.04

	minCapsWords  = 3
	maxCapsShown  = 4
	minRepeatRuns = 4

	excerptBefore = 10
	excerptAfter  = 45
)

// compile builds case-insensitive patterns.
func compile(patterns ...string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, 0, len(patterns))
	for _, p := range patterns {
		out = append(out, regexp.MustCompile(`(?i)`+p))
	}
	return out
}

// ScoreRules runs the phrase categories and formatting checks over text.
// Word boundaries are Unicode-aware: accented letters are part of a word.
// Increments are summed and clamped to 1.0 only once, at the end.
func ScoreRules(text string) (float64, []Finding) {
	findings := []Finding{}
	var score float64

	folded, offsets := wordFold(text)

	for _, cat := range ruleCategories {
		for _, pat := range cat.Patterns {
			loc := pat.FindStringIndex(folded)
			if loc == nil {
				continue
			}
			findings = append(findings, Finding{
				Rule:     cat.Name,
				Severity: cat.Severity,
				Excerpt:  excerpt(text, offsets[loc[0]]),
			})
			score += cat.Increment
			break
		}
	}

	if excessPunctRe.MatchString(text) {
		findings = append(findings, Finding{Rule: "Excessive Punctuation (!!!)", Severity: SeverityLow})
		score += excessPunctIncrement
	}

	if caps := allCapsRe.FindAllString(folded, -1); len(caps) >= minCapsWords {
		shown := caps[:min(len(caps), maxCapsShown)]
		findings = append(findings, Finding{
			Rule:     fmt.Sprintf("Excessive CAPS Words (%d)", len(caps)),
			Severity: SeverityMedium,
			Excerpt:  strings.Join(shown, ", "),
		})
		score += allCapsIncrement
	}

	if hasRepeatedRune(text, minRepeatRuns) {
		findings = append(findings, Finding{Rule: `Repeated Characters (e.g. "soooo")`, Severity: SeverityLow})
		score += repeatedRuneIncrement
	}

	if emojiClusterRe.MatchString(text) {
		findings = append(findings, Finding{Rule: "Emoji Cluster (4+ in a row)", Severity: SeverityLow})
		score += emojiIncrement
	}

	return min(score, 1.0), findings
}

// wordFold replaces every non-ASCII letter or number in text with one ASCII
// word byte ('0' for decimal digits, '_' otherwise) so that the ASCII-only
// \b, \w and \d of Go regexps see it as part of a word. offsets maps each
// byte of the folded string, plus its end, back to a byte offset in text.
func wordFold(text string) (string, []int) {
	var b strings.Builder
	b.Grow(len(text))
	offsets := make([]int, 0, len(text)+1)

	for i, r := range text {
		switch {
		case r < utf8.RuneSelf:
			b.WriteByte(byte(r))
			offsets = append(offsets, i)
		case unicode.Is(unicode.Nd, r):
			b.WriteByte('0')
			offsets = append(offsets, i)
		case unicode.IsLetter(r) || unicode.IsNumber(r):
			b.WriteByte('_')
			offsets = append(offsets, i)
		default:
			n, _ := b.WriteRune(r)
			for range n {
				offsets = append(offsets, i)
			}
		}
	}
	offsets = append(offsets, len(text))
	return b.String(), offsets
}

// hasRepeatedRune reports whether any rune other than newline occurs n or
// more times in a row.
func hasRepeatedRune(text string, n int) bool {
	prev, run := rune(-1), 0
	for _, r := range text {
		if r == prev && r != '\n' {
			run++
		} else {
			prev, run = r, 1
		}
		if run >= n && r != '\n' {
			return true
		}
	}
	return false
}

// excerpt returns the runes from excerptBefore before to excerptAfter after
// the byte offset pos, trimmed and wrapped in ellipses.
func excerpt(text string, pos int) string {
	runes := []rune(text)
	at := utf8.RuneCountInString(text[:pos])
	start := max(0, at-excerptBefore)
	end := min(len(runes), at+excerptAfter)
	return "…" + strings.TrimSpace(string(runes[start:end])) + "…"
}
