package recipe

import (
	"regexp"
	"strings"

	"github.com/mozillazg/go-unidecode"
)

// nonSlugChars はスラッグに使用できない文字の連続にマッチする。
var nonSlugChars = regexp.MustCompile(`[^a-z0-9]+`)

// Slugify はタイトルをURLフレンドリーなスラッグに変換する。
// ラテン文字への翻字（š→s, č/ć→c, đ→d, ž→z 等）を行った後、
// 小文字化し、英数字以外の連続をハイフン1つに置き換える。
func Slugify(title string) string {
	s := unidecode.Unidecode(title)
	s = strings.ToLower(s)
	s = nonSlugChars.ReplaceAllString(s, "-")
	return strings.Trim(s, "-")
}
