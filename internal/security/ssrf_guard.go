// Package security はアプリケーションのセキュリティ機能を提供する。
package security

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/doyensec/safeurl"
)

// SSRFGuardService はSSRF防止機能のインターフェースを定義する。
// レシピ画像URLを登録する際の事前検証と、到達性確認のフェッチの両方で使う。
type SSRFGuardService interface {
	// NewSafeClient はSSRF防止機能付きのHTTPクライアントを生成する。
	// プライベートIP・ループバック・リンクローカル・メタデータIP宛の
	// リクエストはsafeurlがDialerレベルで遮断する。
	NewSafeClient(timeout time.Duration, maxResponseSize int64) *http.Client

	// ValidateURL はリクエスト送信前にURLの安全性を静的に検証する。
	// スキーム・ホスト・IPアドレスを確認し、危険なURLにはエラーを返す。
	ValidateURL(rawURL string) error

	// CheckReachable は制限付きクライアントでURLの到達性を確認する。
	// ValidateURLを通過したURLに対して呼ぶこと。
	CheckReachable(ctx context.Context, rawURL string) error
}

// maxImageResponseBytes は画像URL到達性確認で許容するレスポンスサイズ上限。
const maxImageResponseBytes = 5 * 1024 * 1024

// allowedSchemes は画像URLとして受け付けるスキーム。
var allowedSchemes = []string{"http", "https"}

// blockedNetworks はValidateURLが拒否するネットワーク範囲。
// safeurl側はDNS解決後のIPもDialerで検証するため、ここでの静的チェックを
// すり抜けてもDNS再バインディング攻撃は成立しない。
var blockedNetworks = mustParseCIDRs(
	"10.0.0.0/8",     // RFC 1918 プライベート
	"172.16.0.0/12",  // RFC 1918 プライベート
	"192.168.0.0/16", // RFC 1918 プライベート
	"127.0.0.0/8",    // ループバック
	"169.254.0.0/16", // リンクローカル。クラウドメタデータIP 169.254.169.254 を含む
	"0.0.0.0/8",      // カレントネットワーク
	"::1/128",        // IPv6 ループバック
	"fe80::/10",      // IPv6 リンクローカル
	"fc00::/7",       // IPv6 ユニークローカル
)

// blockedHostnames はIPリテラルでない場合に拒否するホスト名。
var blockedHostnames = map[string]struct{}{
	"localhost": {},
}

func mustParseCIDRs(cidrs ...string) []net.IPNet {
	networks := make([]net.IPNet, 0, len(cidrs))
	for _, cidr := range cidrs {
		_, network, err := net.ParseCIDR(cidr)
		if err != nil {
			panic(fmt.Sprintf("invalid CIDR %s: %v", cidr, err))
		}
		networks = append(networks, *network)
	}
	return networks
}

// ssrfGuard はSSRFGuardServiceの実装。
type ssrfGuard struct {
	// client は到達性確認に使うSSRF防止付きクライアント。
	client *http.Client
}

// NewSSRFGuard はSSRFGuardServiceの新しいインスタンスを生成する。
// fetchTimeoutは到達性確認リクエストのタイムアウト。
func NewSSRFGuard(fetchTimeout time.Duration) *ssrfGuard {
	g := &ssrfGuard{}
	g.client = g.NewSafeClient(fetchTimeout, maxImageResponseBytes)
	return g
}

// NewSafeClient はSSRF防止機能付きのHTTPクライアントを生成する。
// safeurlはnet.DialerのControlフックで接続先IPを検証するため、
// DNS解決後にプライベートIPへ向くURLもブロックされる。
// 許可ポートは80と443に限定する。
func (g *ssrfGuard) NewSafeClient(timeout time.Duration, maxResponseSize int64) *http.Client {
	config := safeurl.GetConfigBuilder().
		SetTimeout(timeout).
		SetAllowedSchemes(allowedSchemes...).
		SetAllowedPorts(80, 443).
		Build()

	return safeurl.Client(config).Client
}

// CheckReachable は制限付きクライアントでHEADリクエストを送り、URLの到達性を確認する。
// HEADを受け付けないサーバーのために405の場合のみGETで再試行する。
// ボディは読まずに破棄する。
func (g *ssrfGuard) CheckReachable(ctx context.Context, rawURL string) error {
	resp, err := g.doRequest(ctx, http.MethodHead, rawURL)
	if err != nil {
		return err
	}

	if resp.StatusCode == http.StatusMethodNotAllowed {
		resp, err = g.doRequest(ctx, http.MethodGet, rawURL)
		if err != nil {
			return err
		}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}
	return nil
}

func (g *ssrfGuard) doRequest(ctx context.Context, method, rawURL string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("invalid URL: %w", err)
	}
	resp, err := g.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to reach URL: %w", err)
	}
	resp.Body.Close()
	return resp, nil
}

// ValidateURL はリクエスト送信前にURLの安全性を静的に検証する。
// DNS解決は行わない。解決後のIP検証はNewSafeClientのクライアント側が担う。
func (g *ssrfGuard) ValidateURL(rawURL string) error {
	if rawURL == "" {
		return fmt.Errorf("empty URL")
	}

	parsed, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("invalid URL: %w", err)
	}

	if !isAllowedScheme(parsed.Scheme) {
		return fmt.Errorf("disallowed scheme: %s (allowed: %v)", strings.ToLower(parsed.Scheme), allowedSchemes)
	}

	host := parsed.Hostname()
	if host == "" {
		return fmt.Errorf("empty host in URL: %s", rawURL)
	}

	if ip := net.ParseIP(host); ip != nil {
		if isBlockedIP(ip) {
			return fmt.Errorf("blocked IP address: %s", ip.String())
		}
		return nil
	}

	if _, blocked := blockedHostnames[strings.ToLower(host)]; blocked {
		return fmt.Errorf("blocked host: %s", host)
	}

	return nil
}

func isAllowedScheme(scheme string) bool {
	for _, allowed := range allowedSchemes {
		if strings.EqualFold(scheme, allowed) {
			return true
		}
	}
	return false
}

func isBlockedIP(ip net.IP) bool {
	for _, network := range blockedNetworks {
		if network.Contains(ip) {
			return true
		}
	}
	return false
}
