package prompt

import (
	"strings"
	"testing"

	"github.com/clubnavi/go-club-backend/internal/classify"
	"github.com/clubnavi/go-club-backend/internal/domain"
)

func TestRefLink_Format(t *testing.T) {
	got := RefLink("テニス部", 42)
	want := "[テニス部|club-info-view?id=42]"
	if got != want {
		t.Fatalf("RefLink = %q; want %q", got, want)
	}
}

func TestParseRefs(t *testing.T) {
	text := "おすすめは" + RefLink("テニス部", 3) + "と" + RefLink("美術部", 7) + "です。"
	refs := ParseRefs(text)
	if len(refs) != 2 {
		t.Fatalf("ParseRefs returned %d refs; want 2", len(refs))
	}
	if refs[0].Name != "テニス部" || refs[0].ID != 3 {
		t.Errorf("refs[0] = %+v", refs[0])
	}
	if refs[1].Name != "美術部" || refs[1].ID != 7 {
		t.Errorf("refs[1] = %+v", refs[1])
	}
}

func TestParseRefs_IgnoresMalformed(t *testing.T) {
	cases := []string{
		"",
		"リンクなしの文章です",
		"[テニス部|club-info-view?id=abc]", // non-numeric id
		"[|club-info-view?id=3]",       // empty name
		"[テニス部|other-view?id=3]",       // wrong path
		"[テニス部|club-info-view?id=3",    // unclosed
	}
	for _, in := range cases {
		if refs := ParseRefs(in); refs != nil {
			t.Errorf("ParseRefs(%q) = %+v; want nil", in, refs)
		}
	}
}

func inventoryContext() Context {
	clubs := []domain.Club{
		{ID: 1, Name: "バスケットボール部", MemberCount: 26},
		{ID: 2, Name: "落語研究会", MemberCount: 12},
	}
	return Context{
		UniversityName: "東京大学",
		Stats:          Stats{ActiveClubs: 2, RegisteredUsers: 100},
		Buckets:        classify.Categorize(clubs),
		HasInventory:   true,
	}
}

func TestCompose_FullDocument(t *testing.T) {
	doc := Compose(inventoryContext())

	wantFragments := []string{
		"あなたは東京大学のフレンドリーなサークル相談アドバイザーです",
		"【絶対に守るべき重要ルール】",
		"【回答ルール】",
		"【大学情報】",
		"- 大学名: 東京大学",
		"- アクティブなサークル数: 2個",
		"- 登録ユーザー数: 100人",
		"【東京大学で利用可能なサークル（これ以外のサークルは存在しません）】",
		"バスケットボール部[ID:1](26人)",
		"落語研究会[ID:2](12人)",
		"【サークルのリンク表記ルール】",
		"【問いかけ例】",
		"【正しい回答例】",
		"【絶対にダメな回答例】",
	}
	for _, frag := range wantFragments {
		if !strings.Contains(doc, frag) {
			t.Errorf("document missing %q", frag)
		}
	}
	if strings.Contains(doc, "現在データを準備中です") {
		t.Error("full document must not contain the degraded inventory line")
	}
}

func TestCompose_BucketLines(t *testing.T) {
	doc := Compose(inventoryContext())

	// バスケ is sports, 落語研究会 is culture; the other buckets are empty.
	if !strings.Contains(doc, "✅ スポーツ系(1個):") {
		t.Error("missing sports inventory line")
	}
	if !strings.Contains(doc, "✅ 文化系(1個):") {
		t.Error("missing culture inventory line")
	}
	if !strings.Contains(doc, "❌ ボランティア系: なし") {
		t.Error("empty volunteer bucket must render an explicit なし line")
	}
	if !strings.Contains(doc, "❌ その他: なし") {
		t.Error("empty other bucket must render an explicit なし line")
	}
}

func TestCompose_DegradedWithoutInventory(t *testing.T) {
	doc := Compose(Context{UniversityName: "早稲田大学", HasInventory: false})

	if !strings.Contains(doc, "【サークル情報】現在データを準備中です。") {
		t.Error("degraded document must carry the data-not-ready line")
	}
	if strings.Contains(doc, "これ以外のサークルは存在しません") {
		t.Error("degraded document must not render an inventory section")
	}
	// Persona and rules survive degradation.
	if !strings.Contains(doc, "早稲田大学のフレンドリーなサークル相談アドバイザー") {
		t.Error("degraded document must keep the persona line")
	}
}

func TestCompose_OmitsZeroUserCount(t *testing.T) {
	ctx := inventoryContext()
	ctx.Stats.RegisteredUsers = 0
	doc := Compose(ctx)
	if strings.Contains(doc, "登録ユーザー数") {
		t.Error("zero registered users must omit the user-count line")
	}
}
