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

	PostgresUser     string // DBユーザー
	PostgresPassword string // DBパスワード
	PostgresDB       string // DB名
	PostgresHost     string // DBホスト（localhost）
	PostgresPort     int    // DBポート
	PostgresSSLMode  string

	JWTSecret string // JWT署名シークレット

	//決済ゲートウェイ
	GatewayAPIKey         string        // セッション作成用のAPIキー
	GatewayEndpointSecret string        // webhook署名検証の共有シークレット
	GatewayURL            string        // ゲートウェイAPIのベースURL
	GatewayTimeout        time.Duration // セッション作成呼び出しの上限時間
	Currency              string        // 決済通貨（eur等）

	ClientURL string // 決済後に戻すフロントURL
}

// Loadは環境変数から設定を読む
func Load() (Config, error) {
	pgPort, err := mustAtoi("POSTGRES_PORT")
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		Port: getenv("PORT", "8080"),

		PostgresUser:     os.Getenv("POSTGRES_USER"),
		PostgresPassword: os.Getenv("POSTGRES_PASSWORD"),
		PostgresDB:       os.Getenv("POSTGRES_DB"),
		PostgresHost:     getenv("POSTGRES_HOST", "localhost"),
		PostgresPort:     pgPort,
		PostgresSSLMode:  getenv("POSTGRES_SSLMODE", "disable"),

		JWTSecret: os.Getenv("JWT_SECRET"),

		GatewayAPIKey:         os.Getenv("GATEWAY_API_KEY"),
		GatewayEndpointSecret: os.Getenv("GATEWAY_ENDPOINT_SECRET"),
		GatewayURL:            os.Getenv("GATEWAY_URL"),
		GatewayTimeout:        10 * time.Second,
		Currency:              getenv("GATEWAY_CURRENCY", "eur"),

		ClientURL: os.Getenv("CLIENT_URL"),
	}

	if v := os.Getenv("GATEWAY_TIMEOUT_SECONDS"); v != "" {
		secs, err := strconv.Atoi(v)
		if err != nil || secs <= 0 {
			return Config{}, fmt.Errorf("GATEWAY_TIMEOUT_SECONDS must be a positive number")
		}
		cfg.GatewayTimeout = time.Duration(secs) * time.Second
	}

	//必須チェック
	if cfg.PostgresUser == "" {
		return Config{}, fmt.Errorf("POSTGRES_USER is required")
	}
	if cfg.PostgresPassword == "" {
		return Config{}, fmt.Errorf("POSTGRES_PASSWORD is required")
	}
	if cfg.PostgresDB == "" {
		return Config{}, fmt.Errorf("POSTGRES_DB is required")
	}
	if cfg.JWTSecret == "" {
		return Config{}, fmt.Errorf("JWT_SECRET is required")
	}
	if cfg.GatewayAPIKey == "" {
		return Config{}, fmt.Errorf("GATEWAY_API_KEY is required")
	}
	if cfg.GatewayEndpointSecret == "" {
		return Config{}, fmt.Errorf("GATEWAY_ENDPOINT_SECRET is required")
	}
	if cfg.GatewayURL == "" {
		return Config{}, fmt.Errorf("GATEWAY_URL is required")
	}
	if cfg.ClientURL == "" {
		return Config{}, fmt.Errorf("CLIENT_URL is required")
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

func mustAtoi(key string) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return 0, fmt.Errorf("%s is required", key)
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s must be number: %w", key, err)
	}
	return i, nil
}
