// Package config loads service configuration from a YAML file with .env and
// environment variable overrides.
//
// When ENV_FILE is set, only that file is loaded; otherwise .env.local and
// then .env are loaded, the earlier file taking priority. Environment
// variables are applied last and always win. Struct
// fields opt in to overrides with the `env` tag:
//
//	type ServiceConfig struct {
//	    Port   int    `yaml:"port" env:"PORT"`
//	    Secret string `yaml:"api_secret" env:"API_SECRET"`
//	}
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// loadEnvFiles loads .env files. Missing files are not an error.
func loadEnvFiles() error {
	if envFile := os.Getenv("ENV_FILE"); envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("load env file %s: %w", envFile, err)
		}
		return nil
	}

	if err := godotenv.Load(".env.local"); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("load .env.local: %w", err)
	}
	if err := godotenv.Load(".env"); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("load .env: %w", err)
	}
	return nil
}

// load reads an optional YAML file into cfg and applies env overrides.
// A missing config file is not an error; env-only deployments are supported.
func load(path string, cfg any) error {
	if err := loadEnvFiles(); err != nil {
		return fmt.Errorf("load environment files: %w", err)
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err == nil {
			if unmarshalErr := yaml.Unmarshal(data, cfg); unmarshalErr != nil {
				return fmt.Errorf("parse config: %w", unmarshalErr)
			}
		} else if !os.IsNotExist(err) {
			return fmt.Errorf("read config file %s: %w", path, err)
		}
	}

	applyEnv(cfg)
	return nil
}

// applyEnv applies env-tagged overrides to a pointer-to-struct.
func applyEnv(cfg any) {
	applyEnvOverrides(reflect.ValueOf(cfg).Elem())
}

// parseTokensJSON decodes an ordered JSON array of credential strings.
// Malformed input yields nil.
func parseTokensJSON(raw string) []string {
	var tokens []string
	if err := json.Unmarshal([]byte(raw), &tokens); err != nil {
		return nil
	}
	out := tokens[:0]
	for _, t := range tokens {
		if strings.TrimSpace(t) != "" {
			out = append(out, t)
		}
	}
	return out
}

// applyEnvOverrides walks the struct and applies `env`-tagged overrides to
// string, bool, int, float and duration fields, recursing into nested structs.
func applyEnvOverrides(v reflect.Value) {
	t := v.Type()
	for i := 0; i < t.NumField(); i++ {
		field := v.Field(i)
		if !field.CanSet() {
			continue
		}

		if field.Kind() == reflect.Struct && field.Type() != reflect.TypeOf(time.Duration(0)) {
			applyEnvOverrides(field)
			continue
		}

		envKey := t.Field(i).Tag.Get("env")
		if envKey == "" {
			continue
		}
		raw, ok := os.LookupEnv(envKey)
		if !ok || raw == "" {
			continue
		}

		setField(field, raw)
	}
}

func setField(field reflect.Value, raw string) {
	switch field.Kind() {
	case reflect.String:
		field.SetString(raw)
	case reflect.Bool:
		if b, err := strconv.ParseBool(raw); err == nil {
			field.SetBool(b)
		}
	case reflect.Int, reflect.Int64:
		if field.Type() == reflect.TypeOf(time.Duration(0)) {
			if d, err := time.ParseDuration(raw); err == nil {
				field.SetInt(int64(d))
			}
			return
		}
		if n, err := strconv.ParseInt(raw, 10, 64); err == nil {
			field.SetInt(n)
		}
	case reflect.Float64:
		if f, err := strconv.ParseFloat(raw, 64); err == nil {
			field.SetFloat(f)
		}
	}
}
