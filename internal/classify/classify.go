// Package classify provides a deterministic keyword classifier that partitions
// a club list into display buckets: sports, culture, volunteer, and other.
// It is intentionally small and dependency-free:
//
//   - Matching is plain substring containment over the lowercased club name
//     and description, against fixed keyword tables.
//   - Declaration order is the tie-break: sports is checked before culture
//     before volunteer before the default bucket; the first match wins and a
//     club lands in exactly one bucket.
//   - The result is a pure function of (name, description) and the tables;
//     it is recomputed per request and never persisted or cached.
//
// The heuristic is a display convenience, not a taxonomy: a club whose name
// carries both a sports and a culture keyword is filed under sports by
// ordering alone.
package classify

import (
	"strings"

	"github.com/clubnavi/go-club-backend/internal/domain"
)

// Buckets holds the partition result. Every input club appears in exactly
// one field, in input order.
type Buckets struct {
	Sports    []domain.Club
	Culture   []domain.Club
	Volunteer []domain.Club
	Other     []domain.Club
}

// Total returns the number of clubs across all buckets.
func (b Buckets) Total() int {
	return len(b.Sports) + len(b.Culture) + len(b.Volunteer) + len(b.Other)
}

// sportsKeywords routes a club to the sports bucket. Checked first.
var sportsKeywords = []string{
	"野球", "サッカー", "テニス", "バスケ", "バレー", "陸上", "水泳",
	"スポーツ", "ラグビー", "アメフト", "ハンドボール", "卓球",
	"バドミントン", "ゴルフ", "剣道", "柔道", "空手", "合気道",
	"弓道", "なぎなた", "相撲", "レスリング", "ボクシング",
	"スキー", "スノボ", "スノーボード", "スケート", "ホッケー",
	"サーフィン", "ダイビング", "ヨガ", "フィットネス", "ジム",
	"ランニング", "マラソン", "トライアスロン", "自転車", "競技",
}

// cultureKeywords routes a club to the culture bucket. Checked after sports.
var cultureKeywords = []string{
	"音楽", "美術", "演劇", "写真", "文芸", "映画", "書道",
	"茶道", "華道", "花道", "囲碁", "将棋", "チェス", "競技かるた",
	"研究会", "研究部", "学会", "勉強会", "ディベート", "模擬国連",
	"漫画", "アニメ", "イラスト", "文学", "小説", "詩", "俳句",
	"放送", "広報", "新聞", "雑誌", "出版", "映像", "メディア",
	"プログラミング", "コンピュータ", "ロボット", "科学", "実験",
}

// volunteerKeywords routes a club to the volunteer bucket. Checked last
// before the default. 環境 and 国際 match the name only, as does 社会貢献's
// name-side check; ボランティア and 社会貢献 also match the description.
var (
	volunteerNameKeywords = []string{"ボランティア", "環境", "国際", "社会貢献"}
	volunteerDescKeywords = []string{"ボランティア", "社会貢献"}
)

// Categorize partitions clubs into buckets. Dance gets a special route:
// competitive dance (競技 in name or description) is sports, any other
// dance club is culture.
func Categorize(clubs []domain.Club) Buckets {
	var b Buckets
	for _, club := range clubs {
		switch bucketFor(club) {
		case bucketSports:
			b.Sports = append(b.Sports, club)
		case bucketCulture:
			b.Culture = append(b.Culture, club)
		case bucketVolunteer:
			b.Volunteer = append(b.Volunteer, club)
		default:
			b.Other = append(b.Other, club)
		}
	}
	return b
}

type bucket int

const (
	bucketSports bucket = iota
	bucketCulture
	bucketVolunteer
	bucketOther
)

func bucketFor(club domain.Club) bucket {
	name := strings.ToLower(club.Name)
	desc := strings.ToLower(club.Description)

	isDance := strings.Contains(name, "ダンス") || strings.Contains(name, "dance")
	isCompetitiveDance := isDance && (strings.Contains(name, "競技") || strings.Contains(desc, "競技"))

	if containsAny(name, desc, sportsKeywords) || isCompetitiveDance {
		return bucketSports
	}
	if containsAny(name, desc, cultureKeywords) || (isDance && !isCompetitiveDance) {
		return bucketCulture
	}
	for _, kw := range volunteerNameKeywords {
		if strings.Contains(name, kw) {
			return bucketVolunteer
		}
	}
	for _, kw := range volunteerDescKeywords {
		if strings.Contains(desc, kw) {
			return bucketVolunteer
		}
	}
	return bucketOther
}

func containsAny(name, desc string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(name, kw) || strings.Contains(desc, kw) {
			return true
		}
	}
	return false
}
