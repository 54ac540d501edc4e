package config

import (
	"os"

	"github.com/go-yaml/yaml"
)

type Config struct {
	Server   Server   `yaml:"server"`
	Chain    Chain    `yaml:"chain"`
	Services Services `yaml:"services"`
}

type Server struct {
	Listen        string `yaml:"listen"`
	PostgresDsn   string `yaml:"postgresDsn"`
	RedisAddr     string `yaml:"redisAddr"`
	RedisDB       int    `yaml:"redisDB"`
	MemcachedAddr string `yaml:"memcachedAddr"`
	EnableTrace   bool   `yaml:"enableTrace"`
	TraceEndpoint string `yaml:"traceEndpoint"`
	LinkSecret    string `yaml:"linkSecret"`
}

type Chain struct {
	RpcEndpoint           string `yaml:"rpcEndpoint"`
	ChainID               int64  `yaml:"chainId"`
	ContractAddress       string `yaml:"contractAddress"`
	PrivateKey            string `yaml:"privatekey"`
	ConfirmTimeoutSeconds int    `yaml:"confirmTimeoutSeconds"`
}

type Services struct {
	IndexerEndpoint   string `yaml:"indexerEndpoint"`
	CollectionAddress string `yaml:"collectionAddress"`
	AnchorEndpoint    string `yaml:"anchorEndpoint"`
	AnchorToken       string `yaml:"anchorToken"`
	AIEndpoint        string `yaml:"aiEndpoint"`
	AIKey             string `yaml:"aiKey"`
	AIModel           string `yaml:"aiModel"`
	QuoteEndpoint     string `yaml:"quoteEndpoint"`
}

func Load(path string) (Config, error) {

	file, err := os.Open(path)
	if err != nil {
		return Config{}, err
	}
	defer file.Close()

	var config Config
	err = yaml.NewDecoder(file).Decode(&config)
	if err != nil {
		return Config{}, err
	}

	if config.Server.Listen == "" {
		config.Server.Listen = ":8000"
	}

	return config, nil
}
