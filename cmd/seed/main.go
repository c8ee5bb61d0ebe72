package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"os"
	"path/filepath"
	"time"

	"github.com/chystahata/site/api/internal/account"
	"github.com/chystahata/site/api/internal/config"
	"github.com/chystahata/site/api/internal/content/application"
	"github.com/chystahata/site/api/internal/content/domain"
	"github.com/chystahata/site/api/internal/infrastructure/backend"
	"github.com/chystahata/site/api/internal/kv"
	"github.com/chystahata/site/api/internal/logging"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

type seedOptions struct {
	envName       string
	defaults      bool
	force         bool
	samples       int
	randomSeed    int64
	importPath    string
	importMode    string
	exportPath    string
	resetPassword bool
}

const defaultSeed = 20240601

func main() {
	opts := parseFlags()

	if err := loadEnvFiles(opts.envName); err != nil {
		log.Fatalf("env: %v", err)
	}
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logger, err := logging.New(cfg.Environment, cfg.LogLevel)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	if err := run(ctx, cfg, opts, logger); err != nil {
		logger.Fatal("seed failed", zap.Error(err))
	}
}

func run(ctx context.Context, cfg config.Config, opts seedOptions, logger *zap.Logger) error {
	opened, err := backend.Open(ctx, cfg, logger.Named("kv"))
	if err != nil {
		return err
	}
	defer func() {
		if err := opened.Close(context.Background()); err != nil {
			logger.Warn("close store", zap.Error(err))
		}
	}()
	store := opened.Store
	if err := store.Ping(ctx); err != nil {
		return fmt.Errorf("store unreachable: %w", err)
	}

	settings := application.NewSiteSettings(store, nil, logger)
	transfer := application.NewTransferService(store, settings, nil, logger)

	if opts.exportPath != "" {
		if err := exportTo(ctx, transfer, opts.exportPath); err != nil {
			return err
		}
		logger.Info("content exported", zap.String("path", opts.exportPath))
	}
	if opts.importPath != "" {
		result, err := importFrom(ctx, transfer, opts.importPath, opts.importMode)
		if err != nil {
			return err
		}
		logger.Info("content imported", zap.Any("imported", result.Imported), zap.Int("removed", result.Removed))
	}
	if opts.defaults {
		written, err := seedDefaults(ctx, store, opts.force)
		if err != nil {
			return err
		}
		logger.Info("default content written", zap.Strings("keys", written))
	}
	if opts.samples > 0 {
		rng := rand.New(rand.NewSource(opts.randomSeed))
		if err := seedSamples(ctx, store, rng, opts.samples); err != nil {
			return err
		}
		logger.Info("sample content written", zap.Int("count", opts.samples), zap.Int64("seed", opts.randomSeed))
	}
	if opts.resetPassword {
		accounts, err := account.NewService(account.Config{
			Store:           store,
			Logger:          logger,
			DefaultPassword: cfg.AdminDefaultPassword,
			SessionSecret:   []byte(cfg.SessionSecret),
			SessionIssuer:   cfg.SessionIssuer,
			SessionTTL:      cfg.SessionTTL,
		})
		if err != nil {
			return err
		}
		if err := accounts.ResetPassword(ctx); err != nil {
			return err
		}
		logger.Info("admin password reset to the configured default")
	}
	return nil
}

func parseFlags() seedOptions {
	var opts seedOptions
	flag.StringVar(&opts.envName, "env", "", "env file name under env/ to load before the process environment (e.g. local)")
	flag.BoolVar(&opts.defaults, "defaults", false, "write the built-in services, pricing and site settings")
	flag.BoolVar(&opts.force, "force", false, "with -defaults, overwrite documents that already exist")
	flag.IntVar(&opts.samples, "samples", 0, "number of sample reviews and orders to generate")
	flag.Int64Var(&opts.randomSeed, "seed", defaultSeed, "random seed for -samples")
	flag.StringVar(&opts.importPath, "import", "", "import a snapshot JSON file")
	flag.StringVar(&opts.importMode, "mode", string(application.ImportOverwrite), "import mode: overwrite or merge")
	flag.StringVar(&opts.exportPath, "export", "", "write a snapshot JSON file")
	flag.BoolVar(&opts.resetPassword, "reset-password", false, "restore the default admin password and invalidate every session")
	flag.Parse()
	return opts
}

func loadEnvFiles(envName string) error {
	if envName == "" {
		return nil
	}
	base := filepath.Clean("env")
	files := []string{filepath.Join(base, "shared.env"), filepath.Join(base, envName+".env")}
	for _, file := range files {
		if _, err := os.Stat(file); errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err := godotenv.Load(file); err != nil {
			return fmt.Errorf("load %s: %w", file, err)
		}
	}
	return nil
}

func exportTo(ctx context.Context, transfer application.TransferService, path string) error {
	snapshot, err := transfer.Export(ctx)
	if err != nil {
		return err
	}
	data, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func importFrom(ctx context.Context, transfer application.TransferService, path, rawMode string) (*application.ImportResult, error) {
	mode, err := application.ParseImportMode(rawMode)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var snapshot application.Snapshot
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return transfer.Import(ctx, mode, snapshot)
}

// seedDefaults stores the built-in documents. Existing keys are kept unless force is set.
func seedDefaults(ctx context.Context, store kv.Store, force bool) ([]string, error) {
	documents := map[string]any{
		kv.KeyServices:    domain.DefaultServices(),
		kv.KeyPricing:     domain.DefaultPricing(),
		kv.KeyContacts:    domain.DefaultContacts(),
		kv.KeyBranding:    domain.DefaultBranding(),
		kv.KeySocialMedia: domain.DefaultSocialMedia(),
		kv.KeyHeroImages:  domain.DefaultHeroImages(),
		kv.KeyBenefits:    domain.DefaultBenefits(),
		kv.KeyDiscount:    domain.DefaultDiscount(),
	}

	written := make([]string, 0, len(documents))
	for key, value := range documents {
		if !force {
			_, err := store.Get(ctx, key)
			if err == nil {
				continue
			}
			if !errors.Is(err, kv.ErrNotFound) {
				return written, fmt.Errorf("read %s: %w", key, err)
			}
		}
		if err := kv.SetJSON(ctx, store, key, value); err != nil {
			return written, fmt.Errorf("write %s: %w", key, err)
		}
		written = append(written, key)
	}
	return written, nil
}

var (
	sampleNames = []string{"Олена", "Андрій", "Марія", "Ігор", "Наталія", "Сергій", "Тетяна", "Дмитро"}
	sampleTexts = []string{
		"Швидко і якісно прибрали квартиру після ремонту.",
		"Дуже задоволена генеральним прибиранням, все блищить.",
		"Приїхали вчасно, ввічлива команда, рекомендую.",
		"Чистота в офісі на високому рівні, співпрацюємо постійно.",
	}
	sampleMessages = []string{"Квартира 2 кімнати", "Потрібне миття вікон", "Офіс 120 м²", ""}
)

// seedSamples goes through the application services so generated data passes the same
// validation as real submissions.
func seedSamples(ctx context.Context, store kv.Store, rng *rand.Rand, count int) error {
	reviews := application.NewReviewService(store, nil, nil)
	orders := application.NewOrderService(store, nil, nil)
	services := domain.DefaultServices()

	for i := 0; i < count; i++ {
		name := sampleNames[rng.Intn(len(sampleNames))]
		review, err := reviews.Submit(ctx, application.SubmitReviewCommand{
			Name:   name,
			Text:   sampleTexts[rng.Intn(len(sampleTexts))],
			Rating: 3 + rng.Intn(3),
		})
		if err != nil {
			return fmt.Errorf("sample review: %w", err)
		}
		if rng.Intn(4) > 0 {
			if _, err := reviews.SetApproved(ctx, review.ID, true); err != nil {
				return fmt.Errorf("approve sample review: %w", err)
			}
		}

		if _, err := orders.Create(ctx, application.CreateOrderCommand{
			Name:    name,
			Phone:   fmt.Sprintf("09%08d", rng.Intn(100000000)),
			Email:   fmt.Sprintf("client%d@example.com", i+1),
			Service: services[rng.Intn(len(services))].Title,
			Message: sampleMessages[rng.Intn(len(sampleMessages))],
		}); err != nil {
			return fmt.Errorf("sample order: %w", err)
		}
	}
	return nil
}
