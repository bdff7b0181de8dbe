package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/abgdnv/fridgekeeper/internal/app"
	"github.com/abgdnv/fridgekeeper/internal/config"
	"github.com/abgdnv/fridgekeeper/internal/foodapi"
	"github.com/abgdnv/fridgekeeper/internal/inventory"
	"github.com/abgdnv/fridgekeeper/internal/notification"
	"github.com/abgdnv/fridgekeeper/internal/recipe"
	"github.com/abgdnv/fridgekeeper/internal/service"
	"github.com/abgdnv/fridgekeeper/internal/store"
	"github.com/abgdnv/fridgekeeper/pkg/bootstrap"
	"github.com/abgdnv/fridgekeeper/pkg/config/configloader"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

type options struct {
	configPath string
	logLevel   string

	product     string
	days        int
	preferences []string

	owner     string
	threshold int
	asOf      string

	stopwords []string
}

func newRootCmd() *cobra.Command {
	opts := &options{}
	rootCmd := &cobra.Command{
		Use:          "fridgectl",
		Short:        "Operate the fridge inventory service",
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().StringVar(&opts.configPath, "config", "config.yaml", "path to the service configuration")
	rootCmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "warn", "log level (debug, info, warn, error)")

	lookupCmd := &cobra.Command{
		Use:   "lookup [barcode]",
		Short: "Looks a barcode up in the food safety database",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLookup(cmd, opts, args[0])
		},
	}

	recipesCmd := &cobra.Command{
		Use:   "recipes [ingredients...]",
		Short: "Asks the recipe model for dishes or a meal plan",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRecipes(cmd, opts, args)
		},
	}
	recipesCmd.Flags().StringVar(&opts.product, "product", "", "suggest recipes for this product instead of a plan")
	recipesCmd.Flags().IntVar(&opts.days, "days", recipe.DefaultPlanDays, "number of days to plan")
	recipesCmd.Flags().StringArrayVar(&opts.preferences, "pref", nil, "preference as key=value, repeatable")

	expiringCmd := &cobra.Command{
		Use:   "expiring",
		Short: "Lists an owner's products that expire soon",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runExpiring(cmd, opts)
		},
	}
	expiringCmd.Flags().StringVar(&opts.owner, "owner", "", "owner id (UUID)")
	expiringCmd.Flags().IntVar(&opts.threshold, "days", inventory.DefaultExpiringDays, "maximum remaining days")
	expiringCmd.Flags().StringVar(&opts.asOf, "as-of", "", "evaluation date (YYYYMMDD), defaults to today")
	_ = expiringCmd.MarkFlagRequired("owner")

	receiptCmd := &cobra.Command{
		Use:   "receipt [file]",
		Short: "Extracts product names from receipt text (stdin when no file is given)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReceipt(cmd, opts, args)
		},
	}
	receiptCmd.Flags().StringArrayVar(&opts.stopwords, "stopword", nil, "drop lines containing this word, repeatable")

	rootCmd.AddCommand(lookupCmd, recipesCmd, expiringCmd, receiptCmd)
	return rootCmd
}

func loadConfig(opts *options) (*config.Config, *slog.Logger, error) {
	cfg, err := configloader.LoadFrom[*config.Config](app.ServiceName, opts.configPath)
	if err != nil {
		return nil, nil, err
	}
	return cfg, bootstrap.NewLoggerTo(os.Stderr, opts.logLevel), nil
}

func runLookup(cmd *cobra.Command, opts *options, barcode string) error {
	cfg, logger, err := loadConfig(opts)
	if err != nil {
		return err
	}
	var lookup foodapi.Lookuper = foodapi.NewClient(cfg.FoodAPI, logger)
	if cfg.Cache.Enabled {
		rdb, err := bootstrap.NewRedisClient(cmd.Context(), cfg.Cache.Addr, cfg.Cache.Password, cfg.Cache.DB, cfg.Cache.Timeout)
		if err != nil {
			return err
		}
		defer func() {
			_ = rdb.Close()
		}()
		lookup = foodapi.NewCachedLookup(lookup, rdb, cfg.Cache.TTL, logger)
	}
	record, err := lookup.Lookup(cmd.Context(), barcode)
	if err != nil {
		return err
	}
	return printJSON(cmd.OutOrStdout(), record, foodapi.ClassifyStorage(record.Category))
}

func printJSON(w io.Writer, record *foodapi.Record, storage foodapi.Storage) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(struct {
		*foodapi.Record
		Storage foodapi.Storage `json:"storage"`
	}{record, storage})
}

func runRecipes(cmd *cobra.Command, opts *options, ingredients []string) error {
	prefs, err := parsePreferences(opts.preferences)
	if err != nil {
		return err
	}
	cfg, logger, err := loadConfig(opts)
	if err != nil {
		return err
	}
	if !cfg.Recipe.Enabled {
		return fmt.Errorf("recipes are disabled in %s", opts.configPath)
	}
	recommender := recipe.NewOpenAIRecommender(cfg.Recipe, logger)
	var text string
	if opts.product != "" {
		text, err = recommender.ForProduct(cmd.Context(), opts.product, ingredients)
	} else {
		text, err = recommender.Plan(cmd.Context(), ingredients, prefs, opts.days)
	}
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(cmd.OutOrStdout(), text)
	return err
}

// parsePreferences turns key=value pairs into a map.
func parsePreferences(pairs []string) (map[string]string, error) {
	prefs := make(map[string]string, len(pairs))
	for _, pair := range pairs {
		key, value, ok := strings.Cut(pair, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid preference %q, expected key=value", pair)
		}
		prefs[key] = strings.TrimSpace(value)
	}
	return prefs, nil
}

func runExpiring(cmd *cobra.Command, opts *options) error {
	owner, err := uuid.Parse(opts.owner)
	if err != nil {
		return fmt.Errorf("invalid owner %q: %w", opts.owner, err)
	}
	cfg, _, err := loadConfig(opts)
	if err != nil {
		return err
	}
	location, err := cfg.Location()
	if err != nil {
		return err
	}
	asOf, err := resolveAsOf(opts.asOf, time.Now().In(location))
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), cfg.Database.Timeout)
	defer cancel()
	dbPool, err := bootstrap.NewDbPool(ctx, cfg.Database.URL, cfg.Database.Timeout)
	if err != nil {
		return err
	}
	defer dbPool.Close()

	products, err := store.NewPgStore(dbPool).FindAll(ctx, owner)
	if err != nil {
		return err
	}
	return printExpiring(cmd.OutOrStdout(), products, opts.threshold, asOf)
}

func resolveAsOf(value string, now time.Time) (time.Time, error) {
	if value == "" {
		return inventory.Truncate(now), nil
	}
	return inventory.ParseDate(value)
}

// printExpiring writes one notification line per expiring product.
func printExpiring(w io.Writer, products []*inventory.Product, days int, asOf time.Time) error {
	tracker := inventory.NewTracker()
	for _, p := range products {
		if err := tracker.Add(p); err != nil {
			return err
		}
	}
	expiring := tracker.Expiring(days, asOf)
	if len(expiring) == 0 {
		_, err := fmt.Fprintln(w, "No products expire within", days, "days.")
		return err
	}
	for _, p := range expiring {
		line := notification.Text(p.Name(), p.ExpirationDate(), p.RemainingDays(asOf))
		if _, err := fmt.Fprintf(w, "%s\t%s\n", p.Barcode(), line); err != nil {
			return err
		}
	}
	return nil
}

func runReceipt(cmd *cobra.Command, opts *options, args []string) error {
	var in io.Reader = cmd.InOrStdin()
	if len(args) == 1 {
		f, err := os.Open(args[0])
		if err != nil {
			return err
		}
		defer func() {
			_ = f.Close()
		}()
		in = f
	}
	text, err := io.ReadAll(bufio.NewReader(in))
	if err != nil {
		return err
	}
	for _, name := range service.ExtractProductNames(string(text), opts.stopwords) {
		if _, err := fmt.Fprintln(cmd.OutOrStdout(), name); err != nil {
			return err
		}
	}
	return nil
}
