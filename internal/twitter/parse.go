package twitter

import (
	"fmt"
	"net/url"
	"strings"
)

// tweetHosts はツイートURLとして受け付けるホスト名。
var tweetHosts = map[string]bool{
	"twitter.com":        true,
	"www.twitter.com":    true,
	"mobile.twitter.com": true,
	"x.com":              true,
	"www.x.com":          true,
}

// ParseTweetID は生の入力文字列からツイートIDを取り出す。
// 受け付ける形式:
//   - ツイートIDそのもの（数字のみの文字列）
//   - ツイートURL（https://twitter.com/<user>/status/<id> または https://x.com/...）
//
// クエリパラメータやフラグメント、/photo/1 のような末尾セグメントは無視する。
// どの形式にも該当しない場合はエラーを返す。
func ParseTweetID(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", fmt.Errorf("入力が空です")
	}

	// 数字のみの場合はIDとしてそのまま受け付ける
	if isAllDigits(raw) {
		return raw, nil
	}

	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("URLとして解釈できません: %s", raw)
	}

	if !tweetHosts[strings.ToLower(u.Host)] {
		return "", fmt.Errorf("ツイートURLのホストではありません: %s", u.Host)
	}

	// パスから /status/<id> または /statuses/<id> を探す
	segments := strings.Split(strings.Trim(u.Path, "/"), "/")
	for i, seg := range segments {
		if seg != "status" && seg != "statuses" {
			continue
		}
		if i+1 >= len(segments) {
			break
		}
		id := segments[i+1]
		if isAllDigits(id) && id != "" {
			return id, nil
		}
	}

	return "", fmt.Errorf("URLからツイートIDを取り出せません: %s", raw)
}

// isAllDigits は文字列が1文字以上のASCII数字のみで構成されるかを返す。
func isAllDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
