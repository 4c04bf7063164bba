package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/kairos-app/kairos-api/internal/availability"
	"github.com/kairos-app/kairos-api/internal/models"
	"github.com/kairos-app/kairos-api/internal/repository"
	"github.com/kairos-app/kairos-api/pkg/config"
	"github.com/kairos-app/kairos-api/pkg/database"
)

// legacyRule is one record from the legacy system's export: wall-clock times
// in the participant's own timezone, exactly as they were entered.
type legacyRule struct {
	ParticipantID string          `json:"participant_id"`
	RuleType      models.RuleType `json:"rule_type"`
	DayOfWeek     *int            `json:"day_of_week,omitempty"`
	SpecificDate  *string         `json:"specific_date,omitempty"`
	StartTime     string          `json:"start_time"`
	EndTime       string          `json:"end_time"`
	Timezone      string          `json:"timezone"`
	Reason        *string         `json:"reason,omitempty"`
}

func main() {
	var (
		inputPath string
		dryRun    bool
		replace   bool
		timeout   time.Duration
	)

	flag.StringVar(&inputPath, "input", "legacy_rules.json", "Path to the legacy rules JSON export")
	flag.BoolVar(&dryRun, "dry-run", false, "Normalize and report without writing to the database")
	flag.BoolVar(&replace, "replace", false, "Delete each participant's existing rules before importing")
	flag.DurationVar(&timeout, "timeout", 5*time.Minute, "Overall import timeout")
	flag.Parse()

	rules, err := loadRules(inputPath)
	if err != nil {
		log.Fatalf("failed to load legacy rules: %v", err)
	}
	log.Printf("loaded %d legacy rules from %s", len(rules), inputPath)

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	var repo *repository.AvailabilityRuleRepository
	if !dryRun {
		cfg, err := config.Load()
		if err != nil {
			log.Fatalf("failed to load config: %v", err)
		}
		db, err := database.NewPostgres(cfg.Database)
		if err != nil {
			log.Fatalf("failed to connect to postgres: %v", err)
		}
		defer db.Close()
		repo = repository.NewAvailabilityRuleRepository(db)
	}

	cleared := map[string]bool{}
	var imported, failed int

	for i, legacy := range rules {
		stored, err := normalize(legacy)
		if err != nil {
			failed++
			log.Printf("record %d (participant %s): %v", i, legacy.ParticipantID, err)
			continue
		}

		if dryRun {
			imported++
			continue
		}

		if replace && !cleared[legacy.ParticipantID] {
			if _, err := repo.DeleteByParticipant(ctx, legacy.ParticipantID); err != nil {
				log.Fatalf("failed to clear rules for participant %s: %v", legacy.ParticipantID, err)
			}
			cleared[legacy.ParticipantID] = true
		}

		if err := repo.Create(ctx, stored); err != nil {
			failed++
			log.Printf("record %d (participant %s): insert failed: %v", i, legacy.ParticipantID, err)
			continue
		}
		imported++
	}

	mode := "imported"
	if dryRun {
		mode = "validated"
	}
	log.Printf("%s %d rules, %d failed", mode, imported, failed)
	if failed > 0 {
		os.Exit(1)
	}
}

func loadRules(path string) ([]legacyRule, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var rules []legacyRule
	if err := json.Unmarshal(data, &rules); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return rules, nil
}

// normalize converts a legacy wall-clock record into the UTC storage form
// using the same conversion path the API uses, so imported and manually
// entered rules are indistinguishable downstream.
func normalize(legacy legacyRule) (*models.AvailabilityRule, error) {
	if legacy.ParticipantID == "" {
		return nil, fmt.Errorf("missing participant id")
	}
	input := availability.RuleInput{
		RuleType:     legacy.RuleType,
		DayOfWeek:    legacy.DayOfWeek,
		SpecificDate: legacy.SpecificDate,
		StartTime:    legacy.StartTime,
		EndTime:      legacy.EndTime,
		Reason:       legacy.Reason,
		Source:       models.RuleSourceImport,
	}
	stored, err := availability.PrepareRuleForStorage(input, legacy.Timezone)
	if err != nil {
		return nil, err
	}
	stored.ParticipantID = legacy.ParticipantID
	return stored, nil
}
