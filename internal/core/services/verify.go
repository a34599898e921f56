package services

import (
	"strings"

	"github.com/custodia-labs/ansa/internal/core/domain"
	"github.com/custodia-labs/ansa/internal/logger"
)

// unsupportedCaveat is appended at most once per answer.
const unsupportedCaveat = "Note: some statements in this answer could not be verified against the retrieved sources."

// factualMarkers pick out sentences that assert something checkable.
// Hedged or interrogative sentences are not claims.
var factualMarkers = []string{
	" is ", " are ", " was ", " were ", " has ", " have ",
	" consists ", " contains ", " includes ", " means ",
	" uses ", " provides ", " requires ", " supports ",
}

// Verifier grades an assembled answer against its sources. Each factual
// claim is checked for term overlap with at least one source chunk; the
// supported fraction scales the response confidence.
type Verifier struct {
	settings domain.VerificationSettings
}

// NewVerifier creates a verifier.
func NewVerifier(settings domain.VerificationSettings) *Verifier {
	return &Verifier{settings: settings}
}

// Verify scores resp.Answer against resp.Sources and returns the
// adjusted response. Verification only ever lowers confidence, and
// running it twice on its own output changes nothing: the caveat is
// not itself a claim and is never appended twice.
func (v *Verifier) Verify(resp domain.Response) domain.Response {
	answer := strings.TrimSuffix(strings.TrimSpace(resp.Answer), unsupportedCaveat)
	answer = strings.TrimSpace(answer)

	claims := extractClaims(answer)
	if len(claims) == 0 || len(resp.Sources) == 0 {
		// Nothing checkable, or nothing to check against. Leave the
		// answer alone; confidence already reflects missing context.
		return resp
	}

	supported := 0
	for _, claim := range claims {
		if v.claimSupported(claim, resp.Sources) {
			supported++
		}
	}

	fraction := float64(supported) / float64(len(claims))
	resp.Confidence *= fraction
	logger.Debug("Verification: %d/%d claims supported, confidence=%.2f", supported, len(claims), resp.Confidence)

	if supported < len(claims) && v.settings.AppendCaveat {
		resp.Answer = answer + "\n\n" + unsupportedCaveat
	} else {
		resp.Answer = answer
	}
	return resp
}

// claimSupported reports whether any single source covers enough of the
// claim's terms. Support is per-source, not pooled across sources.
func (v *Verifier) claimSupported(claim string, sources []domain.RetrievedChunk) bool {
	claimTerms := tokenise(claim)
	if len(claimTerms) == 0 {
		return true
	}
	for _, src := range sources {
		if termCoverage(claimTerms, tokenise(src.Text)) >= v.settings.OverlapThreshold {
			return true
		}
	}
	return false
}

// termCoverage is the fraction of claim terms present in the source.
func termCoverage(claim, source []string) float64 {
	if len(claim) == 0 {
		return 0
	}
	have := make(map[string]bool, len(source))
	for _, t := range source {
		have[t] = true
	}
	hit := 0
	for _, t := range claim {
		if have[t] {
			hit++
		}
	}
	return float64(hit) / float64(len(claim))
}

// extractClaims splits the answer into sentences and keeps the ones
// that read as factual assertions.
func extractClaims(answer string) []string {
	var claims []string
	for _, sentence := range splitSentences(answer) {
		if isFactualClaim(sentence) {
			claims = append(claims, sentence)
		}
	}
	return claims
}

// isFactualClaim filters out questions, hedges, and fragments.
func isFactualClaim(sentence string) bool {
	trimmed := strings.TrimSpace(sentence)
	if len(trimmed) < 10 || strings.HasSuffix(trimmed, "?") {
		return false
	}
	lower := " " + strings.ToLower(trimmed) + " "
	for _, hedge := range []string{" might ", " may ", " perhaps ", " possibly ", " unclear "} {
		if strings.Contains(lower, hedge) {
			return false
		}
	}
	for _, marker := range factualMarkers {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}

// splitSentences breaks text on terminal punctuation. Decimal points
// inside numbers do not end a sentence.
func splitSentences(text string) []string {
	var sentences []string
	var current strings.Builder
	runes := []rune(text)
	for i, r := range runes {
		current.WriteRune(r)
		if r == '.' || r == '!' || r == '?' {
			if r == '.' && i > 0 && i+1 < len(runes) &&
				runes[i-1] >= '0' && runes[i-1] <= '9' &&
				runes[i+1] >= '0' && runes[i+1] <= '9' {
				continue
			}
			if s := strings.TrimSpace(current.String()); s != "" {
				sentences = append(sentences, s)
			}
			current.Reset()
		}
	}
	if s := strings.TrimSpace(current.String()); s != "" {
		sentences = append(sentences, s)
	}
	return sentences
}
