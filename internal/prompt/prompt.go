// Package prompt builds the system instruction document sent to the
// completion service, and owns the reference-link syntax that generated
// replies must use when mentioning a club.
//
// The document is a fixed-format Japanese text block: persona declaration,
// hard rules forbidding invented clubs, the university's categorized club
// inventory annotated with ids and member counts, link-format rules with
// worked correct/incorrect examples, and a closing instruction to end every
// reply with an engaging question. There is no enforced grammar between this
// document and the model; output shape is only checked downstream by the
// guard package, which shares the link syntax defined here.
//
// When no inventory is available the composer degrades to a context-free
// variant ("data not ready") rather than failing.
package prompt

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/clubnavi/go-club-backend/internal/classify"
	"github.com/clubnavi/go-club-backend/internal/domain"
)

// RefLinkPath is the client-side route a reference link resolves to.
// The full syntax is [クラブ名|club-info-view?id=ID].
const RefLinkPath = "club-info-view"

// refLinkRE matches one reference-link occurrence. Name must be non-empty
// and free of '|' and ']'; the id is decimal.
var refLinkRE = regexp.MustCompile(`\[([^|\[\]]+)\|` + RefLinkPath + `\?id=(\d+)\]`)

// Ref is one parsed reference-link occurrence.
type Ref struct {
	Name string
	ID   uint
}

// RefLink renders the reference-link markup for a club.
func RefLink(name string, id uint) string {
	return fmt.Sprintf("[%s|%s?id=%d]", name, RefLinkPath, id)
}

// ParseRefs extracts every reference-link occurrence from generated text,
// in order of appearance. Malformed or partial markup is ignored; the guard
// treats only well-formed links as club references.
func ParseRefs(s string) []Ref {
	matches := refLinkRE.FindAllStringSubmatch(s, -1)
	if len(matches) == 0 {
		return nil
	}
	refs := make([]Ref, 0, len(matches))
	for _, m := range matches {
		id, err := strconv.ParseUint(m[2], 10, 32)
		if err != nil {
			continue
		}
		refs = append(refs, Ref{Name: m[1], ID: uint(id)})
	}
	return refs
}

// Context is the typed input to Compose. Stats carries aggregate counts for
// the university; Buckets the categorized inventory. HasInventory selects
// between the full document and the degraded context-free branch.
type Context struct {
	UniversityName string
	Stats          Stats
	Buckets        classify.Buckets
	HasInventory   bool
}

// Stats are the aggregate counts embedded in the university-info section.
type Stats struct {
	ActiveClubs     int64
	RegisteredUsers int64
}

// Compose renders the system instruction document for the given context.
func Compose(ctx Context) string {
	var b strings.Builder

	fmt.Fprintf(&b, "あなたは%sのフレンドリーなサークル相談アドバイザーです。新入生の質問に答えつつ、積極的に会話を広げて相手の興味を引き出してください。\n\n", ctx.UniversityName)

	b.WriteString("【絶対に守るべき重要ルール】\n")
	b.WriteString("⚠️ 下記の【利用可能なサークル】リストにある正確な名前のサークルのみ紹介する\n")
	b.WriteString("⚠️ 「スポーツ系サークル」「文化系サークル」などの一般的な名称は使わない\n")
	b.WriteString("⚠️ 存在しないサークルを勝手に作り出して紹介してはいけない\n")
	fmt.Fprintf(&b, "⚠️ リンク形式 [サークル名|%s?id=ID] は実在するサークルにのみ使用\n", RefLinkPath)
	b.WriteString("⚠️ 各カテゴリーの説明は「スポーツ系には〜」のように言及し、具体的なサークル名を列挙\n\n")

	b.WriteString("【回答ルール】\n")
	b.WriteString("1. 質問に直接答える（カテゴリー質問には該当する複数のサークルを紹介）\n")
	b.WriteString("2. 回答は3-4文程度で簡潔に\n")
	b.WriteString("3. 必ず最後に新入生への質問や問いかけで終わる\n")
	b.WriteString("4. 相手の興味・経験・不安を引き出す質問をする\n")
	b.WriteString("5. 親しみやすく、励ましの気持ちを込める\n\n")

	b.WriteString("【大学情報】\n")
	fmt.Fprintf(&b, "- 大学名: %s\n", ctx.UniversityName)
	fmt.Fprintf(&b, "- アクティブなサークル数: %d個\n", ctx.Stats.ActiveClubs)
	if ctx.Stats.RegisteredUsers > 0 {
		fmt.Fprintf(&b, "- 登録ユーザー数: %d人\n", ctx.Stats.RegisteredUsers)
	}
	b.WriteString("\n")

	if ctx.HasInventory {
		fmt.Fprintf(&b, "【%sで利用可能なサークル（これ以外のサークルは存在しません）】\n", ctx.UniversityName)
		writeBucketLine(&b, "スポーツ系", ctx.Buckets.Sports)
		writeBucketLine(&b, "文化系", ctx.Buckets.Culture)
		writeBucketLine(&b, "ボランティア系", ctx.Buckets.Volunteer)
		writeBucketLine(&b, "その他", ctx.Buckets.Other)
	} else {
		b.WriteString("【サークル情報】現在データを準備中です。\n")
	}
	b.WriteString("\n")

	b.WriteString("【サークルのリンク表記ルール】\n")
	b.WriteString("- サークルを紹介する際は必ずサークル名をリンク形式で表記\n")
	fmt.Fprintf(&b, "- 形式: [サークル名|%s?id=サークルID]\n", RefLinkPath)
	fmt.Fprintf(&b, "- 例: %s、%s\n", RefLink("テニスサークル", 1), RefLink("サッカー部", 2))
	b.WriteString("- IDを直接言及せず、自然な文章で紹介\n\n")

	b.WriteString("【問いかけ例】\n")
	b.WriteString("- 「どんなジャンルに興味がありますか？」\n")
	b.WriteString("- 「高校時代に何か活動していましたか？」\n")
	b.WriteString("- 「初心者でも大丈夫かな？って心配ですか？」\n")
	b.WriteString("- 「友達作りも重視したいですか？」\n")
	b.WriteString("- 「どれか気になるものはありましたか？」\n\n")

	b.WriteString("【正しい回答例】\n")
	b.WriteString("Q: サークル何があるの？\n")
	fmt.Fprintf(&b, "→ 「%sにはスポーツ系で%s(26人)、文化系で%s(12人)や%s(22人)、他にも%s(28人)などがあります！どんなジャンルに興味がありますか？」\n\n",
		ctx.UniversityName,
		RefLink("バスケットボール部", 22),
		RefLink("落語研究会", 21),
		RefLink("漫画研究会", 23),
		RefLink("環境サークル", 24),
	)
	b.WriteString("Q: スポーツ系はある？\n")
	fmt.Fprintf(&b, "→ リストにスポーツ系がある場合: 「はい！スポーツ系には%s(26人)があります。初心者歓迎ですよ！興味ありますか？」\n\n", RefLink("バスケットボール部", 22))

	b.WriteString("【絶対にダメな回答例】\n")
	fmt.Fprintf(&b, "❌「%sがあります」（カテゴリー名にリンクを付ける）\n", RefLink("スポーツ系サークル", 22))
	fmt.Fprintf(&b, "❌「%s」（存在しない一般的な名称）\n", RefLink("文化系サークル", 25))
	b.WriteString("❌「テニス部やサッカー部があります」（リストにない場合）\n")
	b.WriteString("❌ リンクなしでサークルを紹介する")

	return b.String()
}

// writeBucketLine renders one inventory line: a ✅ listing of every club with
// its id and member count, or an explicit ❌ なし when the bucket is empty.
func writeBucketLine(b *strings.Builder, label string, clubs []domain.Club) {
	if len(clubs) == 0 {
		fmt.Fprintf(b, "❌ %s: なし\n", label)
		return
	}
	entries := make([]string, 0, len(clubs))
	for _, c := range clubs {
		entries = append(entries, fmt.Sprintf("%s[ID:%d](%d人)", c.Name, c.ID, c.MemberCount))
	}
	fmt.Fprintf(b, "✅ %s(%d個): %s\n", label, len(clubs), strings.Join(entries, ", "))
}
