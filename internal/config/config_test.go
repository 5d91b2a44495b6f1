package config

import "testing"

func validBase() Config {
	cfg := Config{
		HTTP:    HTTPConfig{Port: 8080},
		Storage: StorageConfig{Driver: "sqlite"},
	}
	cfg.ApplyDefaults()
	return cfg
}

func TestValidate_InvalidPort(t *testing.T) {
	cfg := validBase()
	cfg.HTTP.Port = 0

	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for invalid port")
	}
}

func TestValidate_UnknownStorageDriver(t *testing.T) {
	cfg := validBase()
	cfg.Storage.Driver = "postgres"

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected error for unknown storage driver")
	}

	expected := `storage.driver must be "sqlite" or "redis", got "postgres"`
	if err.Error() != expected {
		t.Errorf("unexpected error message:\ngot:  %q\nwant: %q", err.Error(), expected)
	}
}

func TestValidate_RedisRequiresAddrs(t *testing.T) {
	cfg := validBase()
	cfg.Storage.Driver = "redis"
	cfg.Storage.Addrs = nil

	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for redis driver without addrs")
	}

	cfg.Storage.Addrs = []string{"localhost:6379"}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("unexpected error with addrs set: %v", err)
	}
}

func TestValidate_RuleWeightAboveModelWeight(t *testing.T) {
	cfg := validBase()
	cfg.Classifier.ModelWeight = 0.3
	cfg.Classifier.RuleWeight = 0.7

	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error when rule weight exceeds model weight")
	}
}

func TestApplyDefaults(t *testing.T) {
	cfg := Config{HTTP: HTTPConfig{Port: 8080}}
	cfg.ApplyDefaults()

	if cfg.Storage.Driver != "sqlite" {
		t.Errorf("default storage driver = %q, want sqlite", cfg.Storage.Driver)
	}
	if cfg.Storage.KeyPrefix != "docdex:" {
		t.Errorf("default key prefix = %q, want docdex:", cfg.Storage.KeyPrefix)
	}
	if cfg.Classifier.ModelWeight != 0.7 || cfg.Classifier.RuleWeight != 0.3 {
		t.Errorf("default fusion weights = %v/%v, want 0.7/0.3",
			cfg.Classifier.ModelWeight, cfg.Classifier.RuleWeight)
	}
	if cfg.Classifier.ConfidenceFloor != 0.35 {
		t.Errorf("default confidence floor = %v, want 0.35", cfg.Classifier.ConfidenceFloor)
	}
	if cfg.Search.DefaultTopK != 5 || cfg.Search.MaxTopK != 20 {
		t.Errorf("default top_k limits = %d/%d, want 5/20",
			cfg.Search.DefaultTopK, cfg.Search.MaxTopK)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("defaults should validate: %v", err)
	}
}

func TestExpandEnvVars(t *testing.T) {
	t.Setenv("DOCDEX_TEST_KEY", "secret")

	in := []byte("api_key: ${DOCDEX_TEST_KEY}\nmodel: ${DOCDEX_TEST_MODEL:-gpt-4o-mini}\n")
	out := string(expandEnvVars(in))

	want := "api_key: secret\nmodel: gpt-4o-mini\n"
	if out != want {
		t.Errorf("expandEnvVars:\ngot:  %q\nwant: %q", out, want)
	}
}
