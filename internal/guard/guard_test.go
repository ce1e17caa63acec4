package guard

import (
	"strings"
	"testing"

	"github.com/clubnavi/go-club-backend/internal/domain"
	"github.com/clubnavi/go-club-backend/internal/prompt"
)

var inventory = []domain.Club{
	{ID: 1, Name: "バスケットボール部", MemberCount: 26},
	{ID: 2, Name: "落語研究会", MemberCount: 12},
}

func TestValidate_CleanReplyPassesThrough(t *testing.T) {
	reply := "おすすめは" + prompt.RefLink("バスケットボール部", 1) + "です！興味ありますか？"
	res := Validate(reply, inventory, "東京大学")
	if res.Replaced {
		t.Fatalf("clean reply replaced: %+v", res.Violations)
	}
	if res.Text != reply {
		t.Fatalf("clean reply altered: %q", res.Text)
	}
}

func TestValidate_UnknownLinkIDRejected(t *testing.T) {
	reply := "おすすめは" + prompt.RefLink("謎の部", 99) + "です"
	res := Validate(reply, inventory, "東京大学")
	if !res.Replaced {
		t.Fatal("link to unknown club id must trigger replacement")
	}
	if len(res.Violations) == 0 {
		t.Fatal("expected recorded violations")
	}
}

func TestValidate_LinkNameMismatchRejected(t *testing.T) {
	// Valid id but a name unrelated to the club it points at.
	reply := prompt.RefLink("テニス同好会", 1)
	res := Validate(reply, inventory, "東京大学")
	if !res.Replaced {
		t.Fatal("mismatched link name must trigger replacement")
	}
}

func TestValidate_LinkNameSubstringAccepted(t *testing.T) {
	// A shortened form of the real name is fine.
	reply := prompt.RefLink("バスケットボール", 1)
	res := Validate(reply, inventory, "東京大学")
	if res.Replaced {
		t.Fatalf("substring link name rejected: %+v", res.Violations)
	}
}

func TestValidate_GenericNameWithoutBackingRejected(t *testing.T) {
	res := Validate("テニスサークルがおすすめです！", inventory, "東京大学")
	if !res.Replaced {
		t.Fatal("denylisted name without inventory backing must trigger replacement")
	}
	// Replacement names one real club with its link.
	if !strings.Contains(res.Text, prompt.RefLink("バスケットボール部", 1)) {
		t.Fatalf("fallback must mention a real club: %q", res.Text)
	}
	if !strings.Contains(res.Text, "東京大学") {
		t.Fatalf("fallback must mention the university: %q", res.Text)
	}
}

func TestValidate_GenericNameBackedByInventoryAccepted(t *testing.T) {
	clubs := []domain.Club{{ID: 5, Name: "大学テニスサークル", MemberCount: 10}}
	res := Validate("テニスサークルはどうですか？", clubs, "東京大学")
	if res.Replaced {
		t.Fatalf("backed generic name rejected: %+v", res.Violations)
	}
}

func TestFallback_EmptyInventory(t *testing.T) {
	got := Fallback(nil, "京都大学")
	if !strings.Contains(got, "京都大学") {
		t.Fatalf("fallback must mention the university: %q", got)
	}
	if strings.Contains(got, prompt.RefLinkPath) {
		t.Fatalf("empty-inventory fallback must not contain a club link: %q", got)
	}
}

func TestFallback_NamesFirstClub(t *testing.T) {
	got := Fallback(inventory, "東京大学")
	if !strings.Contains(got, prompt.RefLink("バスケットボール部", 1)) {
		t.Fatalf("fallback must link the first club: %q", got)
	}
	if !strings.Contains(got, "26人") {
		t.Fatalf("fallback must carry the member count: %q", got)
	}
}
