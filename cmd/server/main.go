package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/moveefy/server/internal/app"
)

type configVar[T any] struct {
	envKey       string
	flagKey      string
	defaultValue T
}

var (
	port = configVar[int]{
		envKey:       "SERVER_PORT",
		flagKey:      "port",
		defaultValue: 8080,
	}
	host = configVar[string]{
		envKey:       "SERVER_HOST",
		flagKey:      "host",
		defaultValue: "0.0.0.0",
	}
	logLevel = configVar[string]{
		envKey:       "SERVER_LOG_LEVEL",
		flagKey:      "log-level",
		defaultValue: "INFO",
	}
	sendBuffer = configVar[int]{
		envKey:       "SERVER_SEND_BUFFER",
		flagKey:      "send-buffer",
		defaultValue: 256,
	}
	readLimit = configVar[int64]{
		envKey:       "SERVER_READ_LIMIT",
		flagKey:      "read-limit",
		defaultValue: 4096,
	}
	pongWait = configVar[time.Duration]{
		envKey:       "SERVER_PONG_WAIT",
		flagKey:      "pong-wait",
		defaultValue: 60 * time.Second,
	}
	redisPort = configVar[int]{
		envKey:       "REDIS_PORT",
		flagKey:      "redis-port",
		defaultValue: 6379,
	}
	redisHost = configVar[string]{
		envKey:       "REDIS_HOST",
		flagKey:      "redis-host",
		defaultValue: "",
	}
	redisPassword = configVar[string]{
		envKey:       "REDIS_PASSWORD",
		flagKey:      "redis-password",
		defaultValue: "",
	}
	presenceTTL = configVar[time.Duration]{
		envKey:       "PRESENCE_TTL",
		flagKey:      "presence-ttl",
		defaultValue: 24 * time.Hour,
	}
)

func loadAppConfig() *app.AppConfig {
	pflag.Int(port.flagKey, port.defaultValue, "Server port")
	pflag.String(host.flagKey, host.defaultValue, "Server host")
	pflag.String(logLevel.flagKey, logLevel.defaultValue, "Logging level")
	pflag.Int(sendBuffer.flagKey, sendBuffer.defaultValue, "Outbound messages queued per connection")
	pflag.Int64(readLimit.flagKey, readLimit.defaultValue, "Maximum inbound message size in bytes")
	pflag.Duration(pongWait.flagKey, pongWait.defaultValue, "Time allowed to read the next pong")
	pflag.Int(redisPort.flagKey, redisPort.defaultValue, "Redis port")
	pflag.String(redisHost.flagKey, redisHost.defaultValue, "Redis host, empty disables the presence mirror")
	pflag.String(redisPassword.flagKey, redisPassword.defaultValue, "Redis password")
	pflag.Duration(presenceTTL.flagKey, presenceTTL.defaultValue, "Expiration of mirrored room presence")
	pflag.Parse()

	viper.BindPFlags(pflag.CommandLine)

	viper.BindEnv(port.flagKey, port.envKey)
	viper.BindEnv(host.flagKey, host.envKey)
	viper.BindEnv(logLevel.flagKey, logLevel.envKey)
	viper.BindEnv(sendBuffer.flagKey, sendBuffer.envKey)
	viper.BindEnv(readLimit.flagKey, readLimit.envKey)
	viper.BindEnv(pongWait.flagKey, pongWait.envKey)
	viper.BindEnv(redisPort.flagKey, redisPort.envKey)
	viper.BindEnv(redisHost.flagKey, redisHost.envKey)
	viper.BindEnv(redisPassword.flagKey, redisPassword.envKey)
	viper.BindEnv(presenceTTL.flagKey, presenceTTL.envKey)

	viper.SetDefault(port.flagKey, port.defaultValue)
	viper.SetDefault(host.flagKey, host.defaultValue)
	viper.SetDefault(logLevel.flagKey, logLevel.defaultValue)
	viper.SetDefault(sendBuffer.flagKey, sendBuffer.defaultValue)
	viper.SetDefault(readLimit.flagKey, readLimit.defaultValue)
	viper.SetDefault(pongWait.flagKey, pongWait.defaultValue)
	viper.SetDefault(redisPort.flagKey, redisPort.defaultValue)
	viper.SetDefault(redisHost.flagKey, redisHost.defaultValue)
	viper.SetDefault(redisPassword.flagKey, redisPassword.defaultValue)
	viper.SetDefault(presenceTTL.flagKey, presenceTTL.defaultValue)

	return &app.AppConfig{
		Host:          viper.GetString(host.flagKey),
		Port:          viper.GetInt(port.flagKey),
		LogLevel:      viper.GetString(logLevel.flagKey),
		SendBuffer:    viper.GetInt(sendBuffer.flagKey),
		ReadLimit:     viper.GetInt64(readLimit.flagKey),
		PongWait:      viper.GetDuration(pongWait.flagKey),
		RedisPort:     viper.GetInt(redisPort.flagKey),
		RedisHost:     viper.GetString(redisHost.flagKey),
		RedisPassword: viper.GetString(redisPassword.flagKey),
		PresenceTTL:   viper.GetDuration(presenceTTL.flagKey),
	}
}

func main() {
	ctx := context.Background()

	if err := godotenv.Load(); err != nil {
		log.Println("no .env file found, using environment variables")
	}

	appConfig := loadAppConfig()

	jsonConfig, _ := json.MarshalIndent(appConfig, "", "  ")
	fmt.Printf("starting app with config: %s\n", jsonConfig)

	if err := app.Run(ctx, appConfig); err != nil {
		log.Fatal(err)
	}
}
