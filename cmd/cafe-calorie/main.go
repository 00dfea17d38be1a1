package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"cafe-calorie/internal/api"
	"cafe-calorie/internal/app"
	"cafe-calorie/internal/catalog"
	"cafe-calorie/internal/config"
	"cafe-calorie/internal/database"
	"cafe-calorie/internal/llm"
	"cafe-calorie/internal/logging"
	"cafe-calorie/internal/metrics"
	"cafe-calorie/internal/planner"
	"cafe-calorie/internal/telegram"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	if err := config.LoadDotEnv(); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load .env: %v\n", err)
		os.Exit(1)
	}
	cfg, err := config.NewFromEnv()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	logging.Init(logging.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.NewDB(cfg.DatabasePath)
	if err != nil {
		logging.Fatal().Err(err).Msg("failed to initialize database")
	}
	defer db.Close()

	switch os.Args[1] {
	case "recommend":
		err = runRecommend(ctx, cfg, db, os.Args[2:])
	case "seed":
		err = runSeed(ctx, db, os.Args[2:])
	case "import-menu":
		err = runImportMenu(ctx, db, os.Args[2:])
	case "serve":
		err = runServe(ctx, cfg, db)
	case "token":
		err = runToken(cfg, os.Args[2:])
	case "metrics-cleanup":
		err = runMetricsCleanup(ctx, db, os.Args[2:])
	default:
		fmt.Printf("Unknown command: %s\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
	if err != nil {
		logging.Fatal().Err(err).Str("command", os.Args[1]).Msg("command failed")
	}
}

func printUsage() {
	fmt.Println("Usage: cafe-calorie <command> [arguments]")
	fmt.Println("\nCommands:")
	fmt.Println("  recommend          Print a meal plan for the given goals")
	fmt.Println("  seed               Load the embedded or a file catalog into the database")
	fmt.Println("  import-menu <url>  Scrape a cafe menu page into the database")
	fmt.Println("  serve              Run the HTTP API")
	fmt.Println("  token              Issue an API bearer token")
	fmt.Println("  metrics-cleanup    Remove old run records and expired sessions")
}

func runRecommend(ctx context.Context, cfg *config.Config, db *database.DB, args []string) error {
	d := cfg.DefaultGoals
	fs := flag.NewFlagSet("recommend", flag.ExitOnError)
	maxCal := fs.Float64("max-calories", d.MaxCalories, "Calorie ceiling (kcal)")
	minProtein := fs.Float64("min-protein", d.MinProtein, "Protein floor (g)")
	maxCarbs := fs.Float64("max-carbs", d.MaxCarbs, "Carbohydrate ceiling (g)")
	maxFat := fs.Float64("max-fat", d.MaxFat, "Fat ceiling (g)")
	diet := fs.String("diet", string(d.DietaryPreference), "Any, Vegan, Vegetarian or Non-Vegetarian")
	exclude := fs.String("exclude", "", "Comma separated dish names to leave out")
	text := fs.String("text", "", "Free-text request parsed by the LLM instead of the goal flags")
	asJSON := fs.Bool("json", false, "Print the plan as JSON")
	fs.Parse(args)

	goals := planner.Goals{
		MaxCalories:       *maxCal,
		MinProtein:        *minProtein,
		MaxCarbs:          *maxCarbs,
		MaxFat:            *maxFat,
		DietaryPreference: planner.DietaryPreference(*diet),
	}
	excluded := splitList(*exclude)

	provider, closeCatalog, err := app.OpenCatalog(ctx, cfg.CatalogPath, catalog.NewRepository(db.SQL))
	if err != nil {
		return err
	}
	defer closeCatalog()

	metricsStore := metrics.NewStore(db.SQL)
	application := app.NewApp(provider, newEngine(cfg), metricsStore, nil)

	if *text != "" {
		textGen, err := llm.NewTextGenerator(ctx, cfg)
		if err != nil {
			return err
		}
		if c, ok := textGen.(llm.Closer); ok {
			defer c.Close()
		}
		dishes, err := application.Dishes(ctx)
		if err != nil {
			return err
		}
		parsed, err := llm.NewGoalParser(textGen, cfg.DefaultGoals).Parse(ctx, *text, names(dishes))
		if err != nil {
			return err
		}
		if err := metricsStore.RecordTokens(ctx, metrics.TokenMetric{
			Source:           "cli",
			Model:            parsed.Usage.Model,
			PromptTokens:     parsed.Usage.PromptTokens,
			CompletionTokens: parsed.Usage.CompletionTokens,
		}); err != nil {
			logging.Warn().Err(err).Msg("failed to record token usage")
		}
		goals = parsed.Goals
		excluded = app.MergeExclusions(excluded, parsed.Excluded)
	}

	rec, err := application.Recommend(ctx, "cli", goals, excluded)
	if err != nil {
		return err
	}

	if *asJSON {
		out, err := json.MarshalIndent(rec.Plan, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal plan: %w", err)
		}
		fmt.Println(string(out))
		return nil
	}
	printPlan(rec.Plan)
	return nil
}

func printPlan(plan planner.MealPlan) {
	if plan.IsEmpty() {
		fmt.Println("No dish fits these goals.")
		return
	}
	fmt.Printf("\n=== MEAL PLAN (%s) ===\n", plan.Tier)
	for _, it := range plan.Items {
		n := it.Scaled()
		fmt.Printf("%-32s x%-4g %6.1f kcal %6.1f g protein\n", it.Dish.Name, it.Quantity, n.Calories, n.Protein)
	}
	t := plan.Nutrients
	fmt.Printf("\nTotal: %.1f kcal, %.1f g protein, %.1f g carbs, %.1f g fat\n", t.Calories, t.Protein, t.Carbs, t.Fat)
}

func runSeed(ctx context.Context, db *database.DB, args []string) error {
	fs := flag.NewFlagSet("seed", flag.ExitOnError)
	file := fs.String("file", "", "JSON or YAML catalog file (default: embedded demo catalog)")
	export := fs.String("export", "", "Write the catalog to this JSON or YAML file instead of the database")
	fs.Parse(args)

	var cafes []catalog.Cafe
	if *file != "" {
		var err error
		if cafes, err = catalog.LoadFile(*file); err != nil {
			return err
		}
	}

	if *export != "" {
		if len(cafes) == 0 {
			var err error
			if cafes, err = catalog.Default(); err != nil {
				return err
			}
		}
		if err := catalog.SaveFile(*export, cafes); err != nil {
			return err
		}
		fmt.Printf("Wrote %d cafes to %s.\n", len(cafes), *export)
		return nil
	}

	n, err := app.SeedCatalog(ctx, catalog.NewRepository(db.SQL), cafes)
	if err != nil {
		return err
	}
	fmt.Printf("Successfully saved %d dishes.\n", n)
	return nil
}

func runImportMenu(ctx context.Context, db *database.DB, args []string) error {
	if len(args) < 1 {
		return errors.New("usage: cafe-calorie import-menu <url>")
	}
	cafe, err := app.ImportMenu(ctx, catalog.NewMenuImporter(), catalog.NewRepository(db.SQL), args[0])
	if err != nil {
		return err
	}
	fmt.Printf("Imported %d dishes from %s.\n", len(catalog.Flatten([]catalog.Cafe{cafe})), cafe.Name)
	return nil
}

func runServe(ctx context.Context, cfg *config.Config, db *database.DB) error {
	provider, closeCatalog, err := app.OpenCatalog(ctx, cfg.CatalogPath, catalog.NewRepository(db.SQL))
	if err != nil {
		return err
	}
	defer closeCatalog()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	application := app.NewApp(provider, newEngine(cfg), metrics.NewStore(db.SQL), metrics.NewCollectors(reg))

	router := api.NewRouter(application, api.Options{
		JWTSecret: cfg.APIJWTSecret,
		DataDir:   filepath.Dir(cfg.DatabasePath),
		Gatherer:  reg,
	})
	if cfg.APIJWTSecret == "" {
		logging.Warn().Msg("API_JWT_SECRET not set, plan endpoints are unauthenticated")
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return serveUntilDone(ctx, srv)
}

func serveUntilDone(ctx context.Context, srv *http.Server) error {
	errCh := make(chan error, 1)
	go func() {
		logging.Info().Str("addr", srv.Addr).Msg("API server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logging.Info().Msg("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func runToken(cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("token", flag.ExitOnError)
	subject := fs.String("subject", "cli", "Token subject")
	ttl := fs.Duration("ttl", 24*time.Hour, "Token lifetime")
	fs.Parse(args)

	if cfg.APIJWTSecret == "" {
		return errors.New("API_JWT_SECRET environment variable not set")
	}
	token, err := api.IssueToken([]byte(cfg.APIJWTSecret), *subject, *ttl)
	if err != nil {
		return err
	}
	fmt.Println(token)
	return nil
}

func runMetricsCleanup(ctx context.Context, db *database.DB, args []string) error {
	fs := flag.NewFlagSet("metrics-cleanup", flag.ExitOnError)
	days := fs.Int("days", 30, "Keep records for the last N days")
	fs.Parse(args)

	affected, err := metrics.NewStore(db.SQL).Cleanup(ctx, *days)
	if err != nil {
		return err
	}
	sessions, err := telegram.NewSessionRepository(db.SQL).CleanupExpired(ctx, time.Now())
	if err != nil {
		return err
	}
	fmt.Printf("Successfully removed %d old run records and %d expired sessions.\n", affected, sessions)
	return nil
}

func newEngine(cfg *config.Config) *planner.Engine {
	return planner.NewEngine(planner.Options{MaxEvaluations: cfg.SearchMaxEvaluations})
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func names(dishes []planner.Dish) []string {
	out := make([]string, len(dishes))
	for i, d := range dishes {
		out[i] = d.Name
	}
	return out
}
