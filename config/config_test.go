package config

import (
	"os"
	"testing"
)

func TestLoad(t *testing.T) {
	configContent := `
server:
  port: 9007
database:
  host: "localhost"
  port: 3307
  user: "pd"
  password: "pdpass"
  name: "pd_contracts"
minio:
  endpoint: "localhost:9000"
  access_key: "minioadmin"
  secret_key: "minioadmin"
  bucket: "contract-images"
  use_ssl: false
  expire_days: 14
ocr:
  languages: ["chi_sim", "eng"]
auth:
  jwt_secret: "test-secret"
  token_expire_hours: 48
scheduler:
  expire_cron: "30 1 * * *"
  grace_days: 3
log:
  level: "debug"
  format: "json"
users:
  - username: "admin"
    password_hash: "$2a$10$abcdefghijklmnopqrstuv"
    role: "admin"
`
	tmpFile, err := os.CreateTemp("", "config-*.yaml")
	if err != nil {
		t.Fatalf("Failed to create temp file: %v", err)
	}
	defer os.Remove(tmpFile.Name())

	if _, err := tmpFile.WriteString(configContent); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}
	tmpFile.Close()

	cfg, err := Load(tmpFile.Name())
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	if cfg.Server.Port != 9007 {
		t.Errorf("Expected port 9007, got %d", cfg.Server.Port)
	}
	if cfg.Database.Host != "localhost" || cfg.Database.Port != 3307 {
		t.Errorf("Unexpected database config: %+v", cfg.Database)
	}
	if cfg.Database.Charset != "utf8mb4" {
		t.Errorf("Expected default charset utf8mb4, got %s", cfg.Database.Charset)
	}
	if cfg.Minio.Bucket != "contract-images" {
		t.Errorf("Expected bucket contract-images, got %s", cfg.Minio.Bucket)
	}
	if len(cfg.OCR.Languages) != 2 || cfg.OCR.Languages[0] != "chi_sim" {
		t.Errorf("Unexpected OCR languages: %v", cfg.OCR.Languages)
	}
	if cfg.Scheduler.ExpireCron != "30 1 * * *" || cfg.Scheduler.GraceDays != 3 {
		t.Errorf("Unexpected scheduler config: %+v", cfg.Scheduler)
	}
}

func TestLoadDefaults(t *testing.T) {
	configContent := `
database:
  host: "localhost"
  user: "pd"
  password: "pdpass"
  name: "pd_contracts"
auth:
  jwt_secret: "secret"
`
	tmpFile, err := os.CreateTemp("", "config-*.yaml")
	if err != nil {
		t.Fatalf("Failed to create temp file: %v", err)
	}
	defer os.Remove(tmpFile.Name())

	if _, err := tmpFile.WriteString(configContent); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}
	tmpFile.Close()

	cfg, err := Load(tmpFile.Name())
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	if cfg.Server.Port != 8007 {
		t.Errorf("Expected default port 8007, got %d", cfg.Server.Port)
	}
	if cfg.Database.Port != 3306 {
		t.Errorf("Expected default database port 3306, got %d", cfg.Database.Port)
	}
	if cfg.Minio.ExpireDays != 7 {
		t.Errorf("Expected default expire days 7, got %d", cfg.Minio.ExpireDays)
	}
	if len(cfg.OCR.Languages) != 1 || cfg.OCR.Languages[0] != "chi_sim" {
		t.Errorf("Expected default language chi_sim, got %v", cfg.OCR.Languages)
	}
	if cfg.Auth.TokenExpireHours != 24 {
		t.Errorf("Expected default token expiry 24h, got %d", cfg.Auth.TokenExpireHours)
	}
	if cfg.Scheduler.ExpireCron != "10 0 * * *" {
		t.Errorf("Expected default expire cron, got %s", cfg.Scheduler.ExpireCron)
	}
	if cfg.Scheduler.GraceDays != 5 {
		t.Errorf("Expected default grace days 5, got %d", cfg.Scheduler.GraceDays)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load("/nonexistent/config.yaml"); err == nil {
		t.Error("Expected error for missing config file")
	}
}

func TestDatabaseDSN(t *testing.T) {
	d := DatabaseConfig{
		Host: "db.internal", Port: 3306,
		User: "pd", Password: "secret", Name: "pd_contracts", Charset: "utf8mb4",
	}

	dsn := d.DSN()
	expected := "pd:secret@tcp(db.internal:3306)/pd_contracts?charset=utf8mb4&parseTime=True&loc=Local"
	if dsn != expected {
		t.Errorf("Expected DSN %q, got %q", expected, dsn)
	}
}

func TestFindUser(t *testing.T) {
	cfg := &Config{Users: []User{
		{Username: "admin", Role: "admin"},
		{Username: "clerk", Role: "operator"},
	}}

	if u := cfg.FindUser("clerk"); u == nil || u.Role != "operator" {
		t.Errorf("Expected clerk with role operator, got %+v", u)
	}
	if u := cfg.FindUser("ghost"); u != nil {
		t.Errorf("Expected nil for unknown user, got %+v", u)
	}
}
