package config

import (
	"sync"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

var once sync.Once

func InitConfig() {
	once.Do(func() {
		// A missing .env file is fine, the environment is used as is
		_ = godotenv.Load()

		viper.AutomaticEnv()

		viper.BindEnv("metrics_port", "METRICS_PORT")
		viper.BindEnv("telegram_bot_token", "TELEGRAM_BOT_TOKEN")
		viper.BindEnv("api_pro_key", "API_PRO_KEY")
		viper.BindEnv("debug", "DEBUG")
		viper.BindEnv("lang", "LANG")
		viper.BindEnv("locales_path", "LOCALES_PATH")
		viper.BindEnv("db_path", "DB_PATH")
		viper.BindEnv("check_interval", "CHECK_INTERVAL")
		viper.BindEnv("check_delay", "CHECK_DELAY")
		viper.BindEnv("fetch_timeout", "FETCH_TIMEOUT")
		viper.BindEnv("delivery_policy", "DELIVERY_POLICY")
		viper.BindEnv("price_cache_ttl", "PRICE_CACHE_TTL")
		viper.BindEnv("send_timeout", "SEND_TIMEOUT")

		viper.SetDefault("metrics_port", 9090)
		viper.SetDefault("debug", false)
		viper.SetDefault("lang", "en")
		viper.SetDefault("locales_path", "locales")
		viper.SetDefault("db_path", "/app/data/bot.db")
		viper.SetDefault("check_interval", 60*time.Second)
		viper.SetDefault("check_delay", 10*time.Second)
		viper.SetDefault("fetch_timeout", 10*time.Second)
		viper.SetDefault("delivery_policy", "drop")
		viper.SetDefault("price_cache_ttl", 15*time.Second)
		viper.SetDefault("send_timeout", 10*time.Second)
	})
}

func GetString(key string) string {
	InitConfig()
	return viper.GetString(key)
}

func GetInt(key string) int {
	InitConfig()
	return viper.GetInt(key)
}

func GetBool(key string) bool {
	InitConfig()
	return viper.GetBool(key)
}

// GetDuration accepts Go duration strings ("90s", "2m") or plain nanoseconds
func GetDuration(key string) time.Duration {
	InitConfig()
	return viper.GetDuration(key)
}
