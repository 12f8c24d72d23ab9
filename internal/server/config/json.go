package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/dmitrijs2005/identity/internal/timex"
)

// JsonConfig is the shape of the JSON configuration file. Every field is a
// pointer so that only keys present in the file overlay the defaults.
type JsonConfig struct {
	AccessTokenTTL        *timex.Duration `json:"access_ttl"`
	RefreshTokenTTL       *timex.Duration `json:"refresh_ttl"`
	PublicAccessKeyPath   *string         `json:"public_access_key_path"`
	PrivateAccessKeyPath  *string         `json:"private_access_key_path"`
	PublicRefreshKeyPath  *string         `json:"public_refresh_key_path"`
	PrivateRefreshKeyPath *string         `json:"private_refresh_key_path"`
	KeyPassphrase         *string         `json:"key_passphrase"`
	KeyBits               *int            `json:"key_bits"`
	KeyStorage            *string         `json:"key_storage"`
	S3RootUser            *string         `json:"s3_root_user"`
	S3RootPassword        *string         `json:"s3_root_password"`
	S3Bucket              *string         `json:"s3_bucket"`
	S3Region              *string         `json:"s3_region"`
	S3BaseEndpoint        *string         `json:"s3_base_endpoint"`
	PasswordCost          *int            `json:"password_cost"`
	InitAdmin             *bool           `json:"init_admin"`
	AdminPassword         *string         `json:"admin_password"`
	StoreDriver           *string         `json:"store_driver"`
	DatabaseDSN           *string         `json:"database_dsn"`
	MongoURI              *string         `json:"mongo_uri"`
	MongoDatabase         *string         `json:"mongo_database"`
}

// parseJSON overlays config with the keys present in the file at path.
// An empty path is a no-op.
func parseJSON(config *Config, path string) error {
	if path == "" {
		return nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}

	c := &JsonConfig{}
	if err := json.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}

	if c.AccessTokenTTL != nil {
		config.AccessTokenTTL = c.AccessTokenTTL.Duration
	}
	if c.RefreshTokenTTL != nil {
		config.RefreshTokenTTL = c.RefreshTokenTTL.Duration
	}
	setString(&config.PublicAccessKeyPath, c.PublicAccessKeyPath)
	setString(&config.PrivateAccessKeyPath, c.PrivateAccessKeyPath)
	setString(&config.PublicRefreshKeyPath, c.PublicRefreshKeyPath)
	setString(&config.PrivateRefreshKeyPath, c.PrivateRefreshKeyPath)
	setString(&config.KeyPassphrase, c.KeyPassphrase)
	if c.KeyBits != nil {
		config.KeyBits = *c.KeyBits
	}
	setString(&config.KeyStorage, c.KeyStorage)
	setString(&config.S3RootUser, c.S3RootUser)
	setString(&config.S3RootPassword, c.S3RootPassword)
	setString(&config.S3Bucket, c.S3Bucket)
	setString(&config.S3Region, c.S3Region)
	setString(&config.S3BaseEndpoint, c.S3BaseEndpoint)
	if c.PasswordCost != nil {
		config.PasswordCost = *c.PasswordCost
	}
	if c.InitAdmin != nil {
		config.InitAdmin = *c.InitAdmin
	}
	setString(&config.AdminPassword, c.AdminPassword)
	setString(&config.StoreDriver, c.StoreDriver)
	setString(&config.DatabaseDSN, c.DatabaseDSN)
	setString(&config.MongoURI, c.MongoURI)
	setString(&config.MongoDatabase, c.MongoDatabase)

	return nil
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}
