package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Configはアプリ全体の設定
type Config struct {
	Port string // サーバーポート（8080）

	JWTSecret string // JWT署名シークレット

	StripeSecretKey string        // 決済プロバイダのAPIキー
	StripeCurrency  string        // 通貨（usd）
	GatewayTimeout  time.Duration // プロバイダ呼び出しの上限時間

	ReceiptDir string // 帳票の書き出し先

	GoEnv string // dev/prod
	FEURL string // フロントURL（CORSで使う）
}

// Loadは環境変数
func Load() (Config, error) {
	cfg := Config{
		Port: getenv("PORT", "8080"),

		JWTSecret: os.Getenv("JWT_SECRET"),

		StripeSecretKey: os.Getenv("STRIPE_SECRET_KEY"),
		StripeCurrency:  getenv("STRIPE_CURRENCY", "usd"),

		ReceiptDir: getenv("RECEIPT_DIR", "./receipts"),

		GoEnv: getenv("GO_ENV", "dev"),
		FEURL: getenv("FE_URL", "http://localhost:3000"),
	}

	//プロバイダ呼び出しは必ず打ち切る（デフォルト10秒）
	ms, err := atoiDefault("GATEWAY_TIMEOUT_MS", 10_000)
	if err != nil {
		return Config{}, err
	}
	cfg.GatewayTimeout = time.Duration(ms) * time.Millisecond

	//必須チェック
	if cfg.JWTSecret == "" {
		return Config{}, fmt.Errorf("JWT_SECRET is required")
	}
	if cfg.StripeSecretKey == "" {
		return Config{}, fmt.Errorf("STRIPE_SECRET_KEY is required")
	}

	return cfg, nil
}

func getenv(key string, def string) string {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	return v
}

func atoiDefault(key string, def int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s must be number: %w", key, err)
	}
	return i, nil
}
