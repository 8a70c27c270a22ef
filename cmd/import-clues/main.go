package main

import (
	"flag"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/yourusername/jtrainer-api/internal/config"
	pgRepo "github.com/yourusername/jtrainer-api/internal/repository/postgres"
	"github.com/yourusername/jtrainer-api/internal/service"
	"github.com/yourusername/jtrainer-api/pkg/database"
)

// Импорт архива клю из CSV/TSV в базу без запуска API.
// Разделитель определяется по расширению файла (.tsv — табуляция).
func main() {
	var (
		file       = flag.String("file", "", "путь к CSV/TSV файлу с клю (обязателен)")
		configPath = flag.String("config", "config/config.yaml", "путь к конфигурации")
	)
	flag.Parse()

	if *file == "" {
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	db, err := database.NewPostgresDB(cfg.Database.PostgresConnectionString())
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	if err := database.MigrateDB(db); err != nil {
		log.Fatalf("Failed to migrate database: %v", err)
	}

	f, err := os.Open(*file)
	if err != nil {
		log.Fatalf("Failed to open %s: %v", *file, err)
	}
	defer f.Close()

	comma := ','
	if strings.EqualFold(filepath.Ext(*file), ".tsv") {
		comma = '\t'
	}

	clueService := service.NewClueService(pgRepo.NewClueRepo(db))
	result, err := clueService.ImportClues(f, comma)
	if err != nil {
		log.Fatalf("Import failed: %v", err)
	}

	log.Printf("Импорт завершен: добавлено %d, пропущено %d", result.Imported, result.Skipped)
}
