package config

import (
	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Room     RoomConfig     `mapstructure:"room"`
	Database DatabaseConfig `mapstructure:"database"`
}

type ServerConfig struct {
	HTTPAddress    string `mapstructure:"http_address"`
	RPCAddress     string `mapstructure:"rpc_address"`
	MetricsAddress string `mapstructure:"metrics_address"`
}

type RoomConfig struct {
	CodeAlphabet  string `mapstructure:"code_alphabet"`
	CodeLength    int    `mapstructure:"code_length"`
	SweepInterval int    `mapstructure:"sweep_interval_seconds"`
	IdleTTL       int    `mapstructure:"idle_ttl_seconds"`
}

type DatabaseConfig struct {
	Enabled  bool           `mapstructure:"enabled"`
	Postgres PostgresConfig `mapstructure:"postgres"`
}

type PostgresConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
}

func LoadConfig(path string) (config *Config, err error) {
	viper.AddConfigPath(path)
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")

	viper.SetDefault("room.code_alphabet", "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789")
	viper.SetDefault("room.code_length", 6)
	viper.SetDefault("room.sweep_interval_seconds", 60)
	viper.SetDefault("room.idle_ttl_seconds", 600)

	viper.AutomaticEnv()

	err = viper.ReadInConfig()
	if err != nil {
		return
	}

	err = viper.Unmarshal(&config)
	return
}
