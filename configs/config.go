package config

import "os"

type R2 struct {
	AccountID  string
	AccessKey  string
	SecretKey  string
	BucketName string
	PublicURL  string
}

type Config struct {
	TiktokClientKey    string
	TiktokClientSecret string
	TiktokRedirectURI  string
	TiktokAPIBaseURL   string
	TiktokAuthorizeURL string
	PostgresURI        string
	RedisURI           string
	FrontendURL        string
	PublicMediaDir     string
	PublicMediaBaseURL string
	MetricsAddr        string
	R2                 R2
	SecretKey          string
	CookieName         string
	AdminPassword      string
}

func LoadConfig() *Config {
	return &Config{
		TiktokClientKey:    getEnv("TIKTOK_CLIENT_KEY", ""),
		TiktokClientSecret: getEnv("TIKTOK_CLIENT_SECRET", ""),
		TiktokRedirectURI:  getEnv("TIKTOK_REDIRECT_URI", ""),
		TiktokAPIBaseURL:   getEnv("TIKTOK_API_BASE_URL", "https://open.tiktokapis.com/v2/"),
		TiktokAuthorizeURL: getEnv("TIKTOK_AUTHORIZE_URL", "https://www.tiktok.com/v2/auth/authorize/"),
		PostgresURI:        getEnv("POSTGRES_URI", ""),
		RedisURI:           getEnv("REDIS_URI", ""),
		FrontendURL:        getEnv("FRONTEND_URL", "http://localhost:5173"),
		PublicMediaDir:     getEnv("PUBLIC_MEDIA_DIR", ""),
		PublicMediaBaseURL: getEnv("PUBLIC_MEDIA_BASE_URL", ""),
		MetricsAddr:        getEnv("METRICS_ADDR", ":9090"),
		R2: R2{
			AccountID:  getEnv("R2_ACCOUNT_ID", ""),
			AccessKey:  getEnv("R2_ACCESS_KEY", ""),
			SecretKey:  getEnv("R2_SECRET_KEY", ""),
			BucketName: getEnv("R2_BUCKET_NAME", ""),
			PublicURL:  getEnv("R2_PUBLIC_URL", ""),
		},
		SecretKey:     getEnv("SECRET_KEY", ""),
		CookieName:    getEnv("COOKIE_NAME", "tiktok_poster_session"),
		AdminPassword: getEnv("ADMIN_PASSWORD", ""),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
