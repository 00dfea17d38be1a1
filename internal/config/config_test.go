package config

import (
	"os"
	"path/filepath"
	"testing"

	"cafe-calorie/internal/planner"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewFromEnv(t *testing.T) {
	t.Run("Defaults", func(t *testing.T) {
		for _, key := range []string{
			"DATABASE_PATH", "PORT", "SEARCH_MAX_EVALUATIONS", "DEFAULT_MAX_CALORIES",
			"DEFAULT_MIN_PROTEIN", "DEFAULT_MAX_CARBS", "DEFAULT_MAX_FAT", "DEFAULT_DIETARY_PREFERENCE",
		} {
			t.Setenv(key, "")
		}

		cfg, err := NewFromEnv()
		require.NoError(t, err)

		assert.Equal(t, "data/cafe-calorie.db", cfg.DatabasePath)
		assert.Equal(t, "8080", cfg.Port)
		assert.Equal(t, 250000, cfg.SearchMaxEvaluations)
		assert.Equal(t, planner.Goals{
			MaxCalories:       700,
			MinProtein:        30,
			MaxCarbs:          90,
			MaxFat:            30,
			DietaryPreference: planner.PreferenceAny,
		}, cfg.DefaultGoals)
	})

	t.Run("Overrides", func(t *testing.T) {
		t.Setenv("DATABASE_PATH", "/tmp/x.db")
		t.Setenv("DEFAULT_MAX_CALORIES", "550.5")
		t.Setenv("DEFAULT_DIETARY_PREFERENCE", "Vegan")
		t.Setenv("SEARCH_MAX_EVALUATIONS", "0")
		t.Setenv("TELEGRAM_ALLOW_USER_IDS", "12, 34")
		t.Setenv("ADMIN_TELEGRAM_ID", "12")

		cfg, err := NewFromEnv()
		require.NoError(t, err)

		assert.Equal(t, "/tmp/x.db", cfg.DatabasePath)
		assert.Equal(t, 550.5, cfg.DefaultGoals.MaxCalories)
		assert.Equal(t, planner.PreferenceVegan, cfg.DefaultGoals.DietaryPreference)
		assert.Equal(t, 0, cfg.SearchMaxEvaluations)
		assert.Equal(t, []int64{12, 34}, cfg.TelegramAllowedUserIDs)
		assert.Equal(t, int64(12), cfg.AdminTelegramID)
	})

	t.Run("InvalidNumber", func(t *testing.T) {
		t.Setenv("DEFAULT_MIN_PROTEIN", "lots")

		_, err := NewFromEnv()
		require.Error(t, err)
		assert.Equal(t, "DEFAULT_MIN_PROTEIN must be a number", err.Error())
	})

	t.Run("InvalidDefaultGoals", func(t *testing.T) {
		t.Setenv("DEFAULT_DIETARY_PREFERENCE", "Carnivore")

		_, err := NewFromEnv()
		require.Error(t, err)
		assert.ErrorIs(t, err, planner.ErrInvalidInput)
	})
}

func TestRequire(t *testing.T) {
	cfg := &Config{LLMProvider: "gemini"}

	err := cfg.RequireTelegram()
	require.Error(t, err)
	assert.Equal(t, "TELEGRAM_BOT_TOKEN environment variable not set", err.Error())

	cfg.TelegramBotToken = "token"
	err = cfg.RequireTelegram()
	require.Error(t, err)
	assert.Equal(t, "TELEGRAM_WEBHOOK_URL environment variable not set", err.Error())

	err = cfg.RequireLLM()
	require.Error(t, err)
	assert.Equal(t, "GEMINI_API_KEY environment variable not set", err.Error())

	cfg.LLMProvider = "groq"
	err = cfg.RequireLLM()
	require.Error(t, err)
	assert.Equal(t, "GROQ_API_KEY environment variable not set", err.Error())

	cfg.GroqAPIKey = "key"
	assert.NoError(t, cfg.RequireLLM())
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(path, []byte("CAFE_TEST_PORT=9999\n"), 0644))
	t.Cleanup(func() { os.Unsetenv("CAFE_TEST_PORT") })

	require.NoError(t, LoadDotEnv(path, filepath.Join(dir, "missing.env")))
	assert.Equal(t, "9999", os.Getenv("CAFE_TEST_PORT"))
}
