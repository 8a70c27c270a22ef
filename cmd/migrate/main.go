package main

import (
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"log"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	_ "github.com/lib/pq"
)

// Утилита обслуживания миграций: применение, откат и починка dirty-состояния
// без запуска самого API.
func main() {
	var (
		dsn   = flag.String("dsn", "host=localhost port=5432 user=postgres password=postgres dbname=jtrainer_db sslmode=disable", "строка подключения к PostgreSQL")
		path  = flag.String("path", "file://migrations", "источник миграций")
		force = flag.Int("force", -1, "принудительно выставить версию (чинит dirty-состояние)")
		down  = flag.Bool("down", false, "откатить одну миграцию вместо применения всех")
	)
	flag.Parse()

	db, err := sql.Open("postgres", *dsn)
	if err != nil {
		log.Fatal(err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		log.Fatal(err)
	}

	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		log.Fatal(err)
	}

	m, err := migrate.NewWithDatabaseInstance(*path, "postgres", driver)
	if err != nil {
		log.Fatal(err)
	}

	switch {
	case *force >= 0:
		fmt.Printf("Принудительно выставляем версию %d...\n", *force)
		if err := m.Force(*force); err != nil {
			log.Fatalf("Failed to force version: %v", err)
		}
		fmt.Println("Готово. Dirty-состояние снято.")
	case *down:
		fmt.Println("Откатываем одну миграцию...")
		if err := m.Steps(-1); err != nil {
			log.Fatalf("Failed to roll back: %v", err)
		}
		fmt.Println("Готово.")
	default:
		fmt.Println("Применяем миграции...")
		if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
			log.Fatalf("Failed to apply migrations: %v", err)
		}
		fmt.Println("Готово.")
	}
}
