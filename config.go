package greenmq

import (
	"log"
	"os"
	"strings"

	"github.com/pelletier/go-toml"
	"gopkg.in/yaml.v3"
)

type Global struct {
	LogLevel string `yaml:"log_level" toml:"log_level"`
}

type LoopConfig struct {
	Name            string `yaml:"name" toml:"name"`
	EventBufferSize int    `yaml:"event_buffer_size" toml:"event_buffer_size"`
	LockOsThread    bool   `yaml:"lock_os_thread" toml:"lock_os_thread"`
}

type SocketConfig struct {
	SpinThreshold  int `yaml:"spin_threshold" toml:"spin_threshold"`
	MaxMessageSize int `yaml:"max_message_size" toml:"max_message_size"`
	SendBufferSize int `yaml:"send_buffer_size" toml:"send_buffer_size"`
	RecvBufferSize int `yaml:"recv_buffer_size" toml:"recv_buffer_size"`
}

type EventsConfig struct {
	KafkaBrokers string `yaml:"kafka_brokers" toml:"kafka_brokers"`
	KafkaTopic   string `yaml:"kafka_topic" toml:"kafka_topic"`
}

type Config struct {
	Global Global       `yaml:"global" toml:"global"`
	Loop   LoopConfig   `yaml:"loop" toml:"loop"`
	Socket SocketConfig `yaml:"socket" toml:"socket"`
	Events EventsConfig `yaml:"events" toml:"events"`
}

func LoadConfig(filePath string) *Config {
	file, err := os.ReadFile(filePath)
	if err != nil {
		log.Fatalf("%+v", err)
	}
	config := &Config{}
	if strings.HasSuffix(filePath, ".toml") {
		err = toml.Unmarshal(file, config)
	} else if strings.HasSuffix(filePath, ".yaml") {
		err = yaml.Unmarshal(file, config)
	}
	if err != nil {
		log.Fatalf("%+v", err)
	}
	validateConfig(config)
	return config
}

func validateConfig(config *Config) {
	if config.Socket.SpinThreshold < 0 {
		log.Fatalf("spin_threshold must not be negative: %d", config.Socket.SpinThreshold)
	}
	if config.Socket.MaxMessageSize < 0 {
		log.Fatalf("max_message_size must not be negative: %d", config.Socket.MaxMessageSize)
	}
}
