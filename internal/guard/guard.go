// Package guard post-checks generated chat replies against the club
// inventory that was fed to the model. It is a best-effort hallucination
// filter, not a parser: it catches archetypal invented club names and
// reference links pointing outside the inventory, and substitutes a safe
// canned reply on violation. Arbitrary invented names outside the fixed
// denylist pass through.
package guard

import (
	"fmt"
	"strings"

	"github.com/clubnavi/go-club-backend/internal/domain"
	"github.com/clubnavi/go-club-backend/internal/prompt"
)

// genericClubNames are archetypal club names a model tends to invent when
// the real inventory lacks an obvious match. A reply may only use one of
// these if a real club with that name (or containing it) exists.
var genericClubNames = []string{
	"テニスサークル",
	"サッカー部",
	"野球部",
	"バスケットボール部",
	"軽音楽部",
	"テニス部",
	"フットサルサークル",
	"音楽サークル",
}

// Result reports what Validate did with a reply.
type Result struct {
	Text     string
	Replaced bool
	// Violations lists what triggered the replacement, for logging.
	Violations []string
}

// Validate scans reply against the allowed club set. Two checks run:
//
//  1. every well-formed reference link must point at an allowed club id,
//     with a name that matches the club it links to;
//  2. no denylisted generic club name may appear unless an allowed club's
//     name contains it.
//
// On any violation the whole reply is discarded and replaced with a fixed
// fallback that mentions at most one real club.
func Validate(reply string, clubs []domain.Club, universityName string) Result {
	byID := make(map[uint]string, len(clubs))
	for _, c := range clubs {
		byID[c.ID] = c.Name
	}

	var violations []string

	for _, ref := range prompt.ParseRefs(reply) {
		name, ok := byID[ref.ID]
		if !ok {
			violations = append(violations, fmt.Sprintf("link to unknown club id %d (%q)", ref.ID, ref.Name))
			continue
		}
		if !strings.Contains(ref.Name, name) && !strings.Contains(name, ref.Name) {
			violations = append(violations, fmt.Sprintf("link name %q does not match club %d (%q)", ref.Name, ref.ID, name))
		}
	}

	for _, generic := range genericClubNames {
		if !strings.Contains(reply, generic) {
			continue
		}
		if !backedByInventory(generic, clubs) {
			violations = append(violations, fmt.Sprintf("generic club name %q not in inventory", generic))
		}
	}

	if len(violations) == 0 {
		return Result{Text: reply}
	}
	return Result{
		Text:       Fallback(clubs, universityName),
		Replaced:   true,
		Violations: violations,
	}
}

// backedByInventory reports whether some allowed club name contains the
// generic term. Substring both ways: "テニス部" backs "大学テニス部" and
// vice versa.
func backedByInventory(generic string, clubs []domain.Club) bool {
	for _, c := range clubs {
		if strings.Contains(c.Name, generic) || strings.Contains(generic, c.Name) {
			return true
		}
	}
	return false
}

// Fallback is the canned replacement reply. It names one real club with its
// reference link when the inventory is non-empty.
func Fallback(clubs []domain.Club, universityName string) string {
	if len(clubs) == 0 {
		return fmt.Sprintf("申し訳ありません。%sに現在登録されているサークル情報をご案内できる状態ではありません。どのような活動に興味がありますか？", universityName)
	}
	c := clubs[0]
	return fmt.Sprintf("申し訳ありません、正確な情報をお伝えします。%sには%s(%d人)などのサークルがあります。気になるサークルはありますか？",
		universityName, prompt.RefLink(c.Name, c.ID), c.MemberCount)
}
