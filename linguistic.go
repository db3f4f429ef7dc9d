package tamperfy

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"
)

var (
	wordRe          = regexp.MustCompile(`[\p{L}\p{N}_]+`)
	sentenceBreakRe = regexp.MustCompile(`[.!?]+`)
	urlRe           = regexp.MustCompile(`https?://\S+`)
	hashtagRe       = regexp.MustCompile(`#[\p{L}\p{N}_]+`)
	vowelGroupRe    = regexp.MustCompile(`[aeiou]+`)
)

const (
	lowDiversityTTR       = 0.35
	lowDiversityIncrement = 0.14

	minUniformSentences = 3 // variance only counts above this many sentences
	uniformVariance     = 1.5
	uniformIncrement    = 0.12
	minSentenceRunes    = 5

	lowReadability          = 20
	lowReadabilityIncrement = 0.07

	maxURLs       = 2
	urlIncrement  = 0.11
	maxURLsShown  = 2
	maxHashtags   = 10
	tagsIncrement = 0.10
)

// ScoreLinguistics measures lexical diversity, sentence uniformity,
// readability and link/hashtag stuffing. Text without words scores 0.
func ScoreLinguistics(text string) (float64, []Finding) {
	findings := []Finding{}
	words := wordRe.FindAllString(text, -1)
	if len(words) == 0 {
		return 0, findings
	}
	var score float64

	if ttr := typeTokenRatio(words); ttr < lowDiversityTTR {
		findings = append(findings, Finding{
			Rule:     fmt.Sprintf("Low Lexical Diversity (TTR=%.2f), repetitive or templated", ttr),
			Severity: SeverityMedium,
		})
		score += lowDiversityIncrement
	}

	if sents := sentences(text); len(sents) > minUniformSentences {
		if sentenceLengthVariance(sents) < uniformVariance {
			findings = append(findings, Finding{
				Rule:     "Suspiciously Uniform Sentence Length (possible bot or template)",
				Severity: SeverityMedium,
			})
			score += uniformIncrement
		}
	}

	if flesch := FleschReadingEase(text); flesch < lowReadability {
		findings = append(findings, Finding{
			Rule:     fmt.Sprintf("Very Low Readability (Flesch=%.0f), obfuscated language", flesch),
			Severity: SeverityLow,
		})
		score += lowReadabilityIncrement
	}

	if urls := urlRe.FindAllString(text, -1); len(urls) > maxURLs {
		findings = append(findings, Finding{
			Rule:     fmt.Sprintf("Multiple URLs detected (%d)", len(urls)),
			Severity: SeverityMedium,
			Excerpt:  strings.Join(urls[:maxURLsShown], " "),
		})
		score += urlIncrement
	}

	if tags := hashtagRe.FindAllString(text, -1); len(tags) > maxHashtags {
		findings = append(findings, Finding{
			Rule:     fmt.Sprintf("Hashtag Stuffing (%d hashtags)", len(tags)),
			Severity: SeverityMedium,
		})
		score += tagsIncrement
	}

	return min(score, 1.0), findings
}

// typeTokenRatio is unique lower-cased words over total words.
func typeTokenRatio(words []string) float64 {
	seen := make(map[string]struct{}, len(words))
	for _, w := range words {
		seen[strings.ToLower(w)] = struct{}{}
	}
	return float64(len(seen)) / float64(len(words))
}

// sentences splits on terminal punctuation and keeps trimmed pieces longer
// than minSentenceRunes.
func sentences(text string) []string {
	var out []string
	for _, s := range sentenceBreakRe.Split(text, -1) {
		s = strings.TrimSpace(s)
		if utf8.RuneCountInString(s) > minSentenceRunes {
			out = append(out, s)
		}
	}
	return out
}

// sentenceLengthVariance is the population variance of words per sentence.
func sentenceLengthVariance(sents []string) float64 {
	if len(sents) == 0 {
		return 0
	}
	lengths := make([]float64, len(sents))
	var sum float64
	for i, s := range sents {
		lengths[i] = float64(len(strings.Fields(s)))
		sum += lengths[i]
	}
	mean := sum / float64(len(lengths))
	var sq float64
	for _, l := range lengths {
		sq += (l - mean) * (l - mean)
	}
	return sq / float64(len(lengths))
}

// FleschReadingEase estimates readability:
// 206.835 − 1.015·(words/sentences) − 84.6·(syllables/words).
func FleschReadingEase(text string) float64 {
	sents := max(len(sentenceBreakRe.FindAllStringIndex(text, -1)), 1)
	words := wordRe.FindAllString(text, -1)
	n := max(len(words), 1)

	var syl int
	for _, w := range words {
		syl += syllables(w)
	}
	return 206.835 - 1.015*(float64(n)/float64(sents)) - 84.6*(float64(syl)/float64(n))
}

// syllables approximates syllables as vowel groups, discounting a trailing
// silent "e". Every word has at least one.
func syllables(word string) int {
	lower := strings.ToLower(word)
	count := len(vowelGroupRe.FindAllStringIndex(lower, -1))
	if strings.HasSuffix(lower, "e") && count > 1 {
		count--
	}
	return max(count, 1)
}
