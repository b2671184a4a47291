// Copyright (c) 2025 Jeremy Hahn
// Copyright (c) 2025 Automate The Things, LLC
//
// This file is part of go-imagepipe.
//
// go-imagepipe is dual-licensed:
//
// 1. GNU Affero General Public License v3.0 (AGPL-3.0)
//    See LICENSE file or visit https://www.gnu.org/licenses/agpl-3.0.html
//
// 2. Commercial License
//    Contact licensing@automatethethings.com for commercial licensing options.

package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaults(t *testing.T) {
	v, err := Init("")
	if err != nil {
		t.Fatalf("Init() returned error: %v", err)
	}
	cfg := Get(v)

	if cfg.StoreBackend != "memory" {
		t.Fatalf("StoreBackend = %q, want memory", cfg.StoreBackend)
	}
	if cfg.FetcherBackend != "memory" {
		t.Fatalf("FetcherBackend = %q, want memory", cfg.FetcherBackend)
	}
	if cfg.NotifierBackend != "log" {
		t.Fatalf("NotifierBackend = %q, want log", cfg.NotifierBackend)
	}
	if cfg.OpsListen != ":9090" {
		t.Fatalf("OpsListen = %q, want :9090", cfg.OpsListen)
	}
	if cfg.LogLevel != "info" {
		t.Fatalf("LogLevel = %q, want info", cfg.LogLevel)
	}
}

func TestConfigFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "imagepipe.yaml")
	content := "store-backend: dynamodb\ntable: images\nrecipient: ops@example.com\n"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write config file: %v", err)
	}

	v, err := Init(path)
	if err != nil {
		t.Fatalf("Init() returned error: %v", err)
	}
	cfg := Get(v)

	if cfg.StoreBackend != "dynamodb" {
		t.Fatalf("StoreBackend = %q, want dynamodb", cfg.StoreBackend)
	}
	if cfg.Table != "images" {
		t.Fatalf("Table = %q, want images", cfg.Table)
	}
	if cfg.Recipient != "ops@example.com" {
		t.Fatalf("Recipient = %q, want ops@example.com", cfg.Recipient)
	}
	// Unset keys fall back to defaults.
	if cfg.NotifierBackend != "log" {
		t.Fatalf("NotifierBackend = %q, want log", cfg.NotifierBackend)
	}
}

func TestEnvOverride(t *testing.T) {
	t.Setenv("IMAGEPIPE_LOG-LEVEL", "debug")

	v, err := Init("")
	if err != nil {
		t.Fatalf("Init() returned error: %v", err)
	}
	if got := Get(v).LogLevel; got != "debug" {
		t.Fatalf("LogLevel = %q, want debug", got)
	}
}

func TestSettings(t *testing.T) {
	cfg := &Config{
		Region:          "us-east-1",
		AccessKeyID:     "AKIA...",
		SecretAccessKey: "secret",
		Table:           "images",
		Sender:          "noreply@example.com",
	}
	settings := cfg.Settings()

	if settings["region"] != "us-east-1" {
		t.Fatalf("region = %q", settings["region"])
	}
	if settings["table"] != "images" {
		t.Fatalf("table = %q", settings["table"])
	}
	if settings["sender"] != "noreply@example.com" {
		t.Fatalf("sender = %q", settings["sender"])
	}
	if _, ok := settings["endpoint"]; ok {
		t.Fatal("empty endpoint must not appear in settings")
	}
}
