package common

import (
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// InitClientConfig initializes configuration from environment variables
func InitClientConfig() {
	// load env files
	_ = godotenv.Load(".env")
	_ = godotenv.Load(".env.local")

	// initialize viper
	viper.SetEnvPrefix("wirecall")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv() // read in environment variables that match
}

// GetClientConfig reads client configuration from viper. Unset values fall
// back to their defaults.
func GetClientConfig() ClientConfig {
	conf := ClientConfig{
		ConnectTimeout:    time.Duration(viper.GetInt("connect-timeout-ms")) * time.Millisecond,
		IOTimeout:         time.Duration(viper.GetInt("io-timeout-ms")) * time.Millisecond,
		MaxFrameSize:      viper.GetInt("max-frame-size"),
		MaxSectionEntries: viper.GetInt("max-section-entries"),
		Socket: SocketConf{
			WriteBufferSize: viper.GetInt("socket-write-buffer") * 1024,
			ReadBufferSize:  viper.GetInt("socket-read-buffer") * 1024,
		},
		TCP: TCPConf{
			TCPNoDelay:      !viper.IsSet("tcp-nodelay") || viper.GetBool("tcp-nodelay"),
			TCPKeepAliveSec: viper.GetInt("tcp-keepalive"),
			TCPLingerSec:    viper.GetInt("tcp-linger"),
		},
	}

	return conf.WithDefaults()
}
