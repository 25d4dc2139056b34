// Command crm-import loads the ERP spreadsheet exports into the CRM database
// without going through the HTTP API.
//
//	crm-import -quotes Todos.xlsx -map Presupuestos_Clientes.xlsx
//	crm-import -customers Clientes.xlsx
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/cesarmartin1/crm-david/internal/customers"
	"github.com/cesarmartin1/crm-david/internal/importer"
	"github.com/cesarmartin1/crm-david/internal/quotes"
	"github.com/cesarmartin1/crm-david/migrations"
	"github.com/cesarmartin1/crm-david/pkg/cache"
	"github.com/cesarmartin1/crm-david/pkg/config"
	"github.com/cesarmartin1/crm-david/pkg/database"
	"github.com/cesarmartin1/crm-david/pkg/logger"
	"github.com/cesarmartin1/crm-david/pkg/redis"
	"github.com/cesarmartin1/crm-david/pkg/secrets"
	"github.com/cesarmartin1/crm-david/pkg/storage"
	"go.uber.org/zap"
)

// namespace must match the API server so cached reads are invalidated
const namespace = "crm"

func main() {
	quotesPath := flag.String("quotes", "", "quote lines workbook (Todos.xlsx)")
	mapPath := flag.String("map", "", "optional quote to customer map workbook")
	customersPath := flag.String("customers", "", "customer master workbook (Clientes.xlsx)")
	timeout := flag.Duration("timeout", 5*time.Minute, "overall import timeout")
	flag.Parse()

	if *quotesPath == "" && *customersPath == "" {
		fmt.Fprintln(os.Stderr, "nothing to import: pass -quotes and/or -customers")
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := config.Load(namespace)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}
	if err := logger.Init(cfg.Server.Environment); err != nil {
		panic("failed to init logger: " + err.Error())
	}
	defer logger.Sync()

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	if cfg.Secrets.Provider != "" {
		secretsManager, err := secrets.NewManager(ctx, cfg.Secrets)
		if err != nil {
			logger.Fatal("Failed to init secrets provider", zap.Error(err))
		}
		if err := secrets.Apply(ctx, secretsManager, cfg); err != nil {
			logger.Fatal("Failed to resolve secrets", zap.Error(err))
		}
	}

	if cfg.Database.RunMigrations {
		if err := database.RunMigrations(&cfg.Database, migrations.FS); err != nil {
			logger.Fatal("Failed to run migrations", zap.Error(err))
		}
	}

	db, err := database.NewPostgresPool(&cfg.Database)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer database.Close(db)

	// Without a shared redis cache the server picks the new data up once its TTL expires.
	var store cache.Store = cache.NewMemoryStore()
	if cfg.Cache.Backend == "redis" {
		redisClient, err := redis.NewRedisClient(&cfg.Redis)
		if err != nil {
			logger.Fatal("Failed to connect to Redis", zap.Error(err))
		}
		defer redisClient.Close()
		store = cache.NewRedisStore(redisClient.Client, namespace)
	}

	var archive storage.Storage
	if cfg.Storage.Enabled() {
		s3Store, err := storage.NewS3Storage(ctx, storage.S3Config{
			Bucket:    cfg.Storage.Bucket,
			Region:    cfg.Storage.Region,
			Endpoint:  cfg.Storage.Endpoint,
			AccessKey: cfg.Storage.AccessKey,
			SecretKey: cfg.Storage.SecretKey,
		})
		if err != nil {
			logger.Warn("Import archive disabled", zap.Error(err))
		} else {
			archive = s3Store
		}
	}

	svc := importer.NewService(
		quotes.NewRepository(db, store, cfg.Cache.TTL),
		customers.NewRepository(db, store, cfg.Cache.TTL),
		archive,
		cfg.Storage.Prefix,
	)

	// Customers first so the quote import can resolve freshly added codes.
	if *customersPath != "" {
		file, err := readUpload(*customersPath)
		if err != nil {
			logger.Fatal("Failed to read customers workbook", zap.Error(err))
		}
		res, err := svc.ImportCustomers(ctx, *file)
		if err != nil {
			logger.Fatal("Customer import failed", zap.Error(err))
		}
		report(res)
	}

	if *quotesPath != "" {
		file, err := readUpload(*quotesPath)
		if err != nil {
			logger.Fatal("Failed to read quotes workbook", zap.Error(err))
		}
		var customerMap *importer.Upload
		if *mapPath != "" {
			if customerMap, err = readUpload(*mapPath); err != nil {
				logger.Fatal("Failed to read customer map workbook", zap.Error(err))
			}
		}
		res, err := svc.ImportQuotes(ctx, *file, customerMap)
		if err != nil {
			logger.Fatal("Quote import failed", zap.Error(err))
		}
		report(res)
	}
}

func readUpload(path string) (*importer.Upload, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return &importer.Upload{Name: filepath.Base(path), Data: data}, nil
}

func report(res *importer.Result) {
	fmt.Printf("%s: %d rows read, %d imported, %d skipped", res.Kind, res.Rows, res.Imported, len(res.Skipped))
	if res.CustomerCodesFilled > 0 {
		fmt.Printf(", %d customer codes filled", res.CustomerCodesFilled)
	}
	if res.ArchiveKey != "" {
		fmt.Printf(", archived as %s", res.ArchiveKey)
	}
	fmt.Println()
	for _, s := range res.Skipped {
		fmt.Printf("  row %d: %s\n", s.Row, s.Reason)
	}
}
