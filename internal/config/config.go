package config

import (
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
	log "github.com/sirupsen/logrus"
)

const envPrefix = "FAMLEDGER_"

type Application struct {
	Http     Http     `koanf:"http"`
	Database Database `koanf:"db"`
	Ledger   Ledger   `koanf:"ledger"`
	Gemini   Gemini   `koanf:"gemini"`
}

type Http struct {
	Port int `koanf:"port"`
}

type Database struct {
	Host   string `koanf:"host"`
	Port   int    `koanf:"port"`
	User   string `koanf:"user"`
	Pass   string `koanf:"pass"`
	Name   string `koanf:"name"`
	Schema string `koanf:"schema"`
}

// Ledger holds the values a new ledger session starts with until the stored
// settings of the user are loaded.
type Ledger struct {
	BudgetLimit         string   `koanf:"budgetlimit"`
	LedgerName          string   `koanf:"ledgername"`
	FamilyMembers       []string `koanf:"familymembers"`
	CounterpartyDefault string   `koanf:"counterpartydefault"`
}

type Gemini struct {
	ApiKey string `koanf:"apikey"`
	Model  string `koanf:"model"`
}

func defaults() Application {
	return Application{
		Http: Http{Port: 8181},
		Database: Database{
			Host:   "localhost",
			Port:   5432,
			User:   "famledger",
			Pass:   "",
			Name:   "famledger",
			Schema: "famledger",
		},
		Ledger: Ledger{
			BudgetLimit:         "2000",
			LedgerName:          "Dad",
			FamilyMembers:       []string{"Alex", "Sarah", "Mom", "Dad"},
			CounterpartyDefault: "first_member",
		},
		Gemini: Gemini{Model: "gemini-2.0-flash"},
	}
}

func Load(path string) (Application, error) {
	var k = koanf.New(".")

	err := k.Load(structs.Provider(defaults(), "koanf"), nil)
	if err != nil {
		log.Errorf("error loading config from structs: %v", err)
		return Application{}, err
	}

	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		if os.IsNotExist(err) {
			log.Infof("Config file not found at %s, using defaults and environment variables", path)
		} else {
			log.Errorf("error loading config from YAML: %v", err)
			return Application{}, err
		}
	} else {
		log.Infof("Loaded configuration from file: %s", path)
	}

	err = k.Load(env.Provider(".", env.Opt{
		Prefix: envPrefix,
		TransformFunc: func(k, v string) (string, any) {
			k = strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(k, envPrefix)), "_", ".")
			if k == "ledger.familymembers" {
				return k, strings.Split(v, ",")
			}
			return k, v
		},
	}), nil)
	if err != nil {
		log.Errorf("error loading config from envs: %v", err)
		return Application{}, err
	}

	var app Application
	if err := k.Unmarshal("", &app); err != nil {
		return Application{}, err
	}

	return app, nil
}
