package config

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"github.com/spf13/viper"
)

type Config struct {
	Server    ServerConfig     `mapstructure:"server"`
	Database  DatabaseConfig   `mapstructure:"database"`
	Customers []CustomerConfig `mapstructure:"customers"`
}

type ServerConfig struct {
	Port        int    `mapstructure:"port"`
	Environment string `mapstructure:"environment"`
}

type DatabaseConfig struct {
	Host        string `mapstructure:"host"`
	Port        int    `mapstructure:"port"`
	User        string `mapstructure:"user"`
	Password    string `mapstructure:"password"`
	DBName      string `mapstructure:"dbname"`
	SSLMode     string `mapstructure:"sslmode"`
	UseInMemory bool   `mapstructure:"use_in_memory"`
}

// CustomerConfig is one tenant's credential bundle. Every field is
// required; a partial record aborts startup.
type CustomerConfig struct {
	ID                string `mapstructure:"id" json:"x-customer-id"`
	APIKey            string `mapstructure:"api_key" json:"x-api-key"`
	OpenAIAPIKey      string `mapstructure:"openai_api_key" json:"OPENAI_API_KEY"`
	OpenAIOrg         string `mapstructure:"openai_org" json:"OPENAI_ORG"`
	OpenAIAssistantID string `mapstructure:"openai_assistant_id" json:"OPENAI_ASSISTANT_ID"`
}

var environments = map[string]struct{}{
	"development": {},
	"staging":     {},
	"testing":     {},
	"production":  {},
	"test":        {},
}

func parseDatabaseURL(dbURL string) (DatabaseConfig, error) {
	u, err := url.Parse(dbURL)
	if err != nil {
		return DatabaseConfig{}, err
	}

	password, _ := u.User.Password()
	port := 5432 // default PostgreSQL port
	if u.Port() != "" {
		fmt.Sscanf(u.Port(), "%d", &port)
	}

	// Remove leading slash from path to get database name
	dbName := strings.TrimPrefix(u.Path, "/")

	return DatabaseConfig{
		Host:     u.Hostname(),
		Port:     port,
		User:     u.User.Username(),
		Password: password,
		DBName:   dbName,
		SSLMode:  "disable",
	}, nil
}

func validateCustomers(customers []CustomerConfig) error {
	for i, c := range customers {
		if c.ID == "" || c.APIKey == "" || c.OpenAIAPIKey == "" || c.OpenAIOrg == "" || c.OpenAIAssistantID == "" {
			return fmt.Errorf("customer config %d is missing a required field "+
				"(id, api_key, openai_api_key, openai_org, openai_assistant_id are all required)", i)
		}
	}
	return nil
}

func LoadConfig(path string) (*Config, error) {
	v := viper.New()

	// Set default values
	v.SetDefault("server.port", 3000)
	v.SetDefault("server.environment", "development")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.use_in_memory", false)

	// Enable environment variable support
	v.AutomaticEnv()

	// Read the config file
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, err
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, err
	}

	// Check for DATABASE_URL environment variable
	if dbURL := v.GetString("DATABASE_URL"); dbURL != "" {
		dbConfig, err := parseDatabaseURL(dbURL)
		if err != nil {
			return nil, fmt.Errorf("failed to parse DATABASE_URL: %v", err)
		}
		config.Database = dbConfig
	}

	// CUSTOMER_CONFIGS is a JSON array of credential bundles and takes
	// precedence over the customers list in the config file.
	if customersJSON := v.GetString("CUSTOMER_CONFIGS"); customersJSON != "" {
		var customers []CustomerConfig
		if err := json.Unmarshal([]byte(customersJSON), &customers); err != nil {
			return nil, fmt.Errorf("failed to parse CUSTOMER_CONFIGS: %v", err)
		}
		config.Customers = customers
	}

	if _, ok := environments[config.Server.Environment]; !ok {
		return nil, fmt.Errorf("unknown environment %q", config.Server.Environment)
	}

	if err := validateCustomers(config.Customers); err != nil {
		return nil, err
	}

	return &config, nil
}
