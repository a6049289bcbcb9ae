package main

import (
	"bufio"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/lib/pq"
	"github.com/sikayetim/backend/internal/config"
	"github.com/sikayetim/backend/internal/database"
	"github.com/sikayetim/backend/internal/importer"
	"github.com/sikayetim/backend/internal/logger"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var reader = bufio.NewReader(os.Stdin)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if _, err := logger.Init(cfg); err != nil {
		log.Fatalf("Failed to init logger: %v", err)
	}

	// non-interactive: dbcli migrate | seed-admin | seed-sectors | import <file>
	if len(os.Args) > 1 {
		if err := runCommand(cfg, os.Args[1], os.Args[2:]); err != nil {
			zap.L().Fatal("command failed", zap.String("command", os.Args[1]), zap.Error(err))
		}
		return
	}

	for {
		printMenu()
		fmt.Print("Seçiminiz: ")
		input := readLine()

		switch input {
		case "1":
			createDatabase(cfg)
		case "2":
			report(migrateSchema(cfg))
		case "3":
			report(seedAdmin(cfg))
		case "4":
			report(seedSectors(cfg))
		case "5":
			fmt.Print("Dosya yolu (.csv / .xlsx): ")
			report(importCompanies(cfg, readLine(), confirm("Önce deneme (dry run) yapılsın mı?")))
		case "6":
			truncateTables(cfg)
		case "7":
			deleteDatabase(cfg)
		case "0":
			fmt.Println("Çıkılıyor...")
			os.Exit(0)
		default:
			fmt.Println("Geçersiz seçim")
		}

		fmt.Println()
		fmt.Print("Devam etmek için Enter'a basın...")
		readLine()
	}
}

func runCommand(cfg *config.Config, name string, args []string) error {
	switch name {
	case "create":
		if err := ensureDatabase(cfg); err != nil {
			return err
		}
		return migrateSchema(cfg)
	case "migrate":
		return migrateSchema(cfg)
	case "seed-admin":
		return seedAdmin(cfg)
	case "seed-sectors":
		return seedSectors(cfg)
	case "import":
		if len(args) == 0 {
			return errors.New("usage: dbcli import <file> [--dry-run]")
		}
		dryRun := len(args) > 1 && args[1] == "--dry-run"
		return importCompanies(cfg, args[0], dryRun)
	default:
		return fmt.Errorf("unknown command %q", name)
	}
}

func printMenu() {
	fmt.Println()
	fmt.Println("========================================")
	fmt.Println("      ŞİKAYETİM VERİTABANI ARACI")
	fmt.Println("========================================")
	fmt.Println()
	fmt.Println("1. Veritabanı Oluştur (yoksa) + Şema Migrasyonu")
	fmt.Println("2. Şema Migrasyonu")
	fmt.Println("3. Yönetici Hesabı Oluştur (ADMIN_* ortam değişkenleri)")
	fmt.Println("4. Varsayılan Sektörleri Ekle")
	fmt.Println("5. Firma İçe Aktar (CSV / XLSX)")
	fmt.Println("6. Tabloları Boşalt (sektör ve firmalar hariç)")
	fmt.Println("7. Veritabanını Sil")
	fmt.Println("0. Çıkış")
	fmt.Println()
	fmt.Println("----------------------------------------")
}

func readLine() string {
	input, _ := reader.ReadString('\n')
	return strings.TrimSpace(input)
}

func confirm(question string) bool {
	fmt.Printf("%s (e/h): ", question)
	return strings.ToLower(readLine()) == "e"
}

func report(err error) {
	if err != nil {
		fmt.Printf("Hata: %v\n", err)
	}
}

func getPostgresConn(cfg *config.Config) (*sql.DB, error) {
	return sql.Open("postgres", database.DSN(cfg.Database, "postgres"))
}

func withGorm(cfg *config.Config, fn func(db *gorm.DB) error) error {
	db, err := database.Connect(cfg)
	if err != nil {
		return fmt.Errorf("bağlantı kurulamadı: %w", err)
	}
	defer database.Close(db)
	return fn(db)
}

func databaseExists(db *sql.DB, name string) (bool, error) {
	var exists bool
	err := db.QueryRow("SELECT EXISTS(SELECT 1 FROM pg_database WHERE datname = $1)", name).Scan(&exists)
	return exists, err
}

func ensureDatabase(cfg *config.Config) error {
	db, err := getPostgresConn(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	exists, err := databaseExists(db, cfg.Database.Name)
	if err != nil || exists {
		return err
	}
	if _, err := db.Exec("CREATE DATABASE " + pq.QuoteIdentifier(cfg.Database.Name)); err != nil {
		return err
	}
	fmt.Printf("'%s' veritabanı oluşturuldu.\n", cfg.Database.Name)
	return nil
}

func createDatabase(cfg *config.Config) {
	fmt.Println()
	fmt.Println("--- Veritabanı Oluştur + Migrasyon ---")

	db, err := getPostgresConn(cfg)
	if err != nil {
		report(err)
		return
	}
	exists, err := databaseExists(db, cfg.Database.Name)
	db.Close()
	if err != nil {
		report(err)
		return
	}
	if exists {
		fmt.Printf("'%s' veritabanı zaten var.\n", cfg.Database.Name)
		if !confirm("Şema migrasyonuna devam edilsin mi?") {
			fmt.Println("İptal edildi.")
			return
		}
	} else if err := ensureDatabase(cfg); err != nil {
		report(err)
		return
	}

	report(migrateSchema(cfg))
}

func migrateSchema(cfg *config.Config) error {
	return withGorm(cfg, func(db *gorm.DB) error {
		if err := database.Migrate(db); err != nil {
			return err
		}
		fmt.Println("Migrasyon tamamlandı.")
		return nil
	})
}

func seedAdmin(cfg *config.Config) error {
	return withGorm(cfg, func(db *gorm.DB) error {
		created, err := database.SeedAdmin(db, cfg.Admin)
		if err != nil {
			return err
		}
		if created {
			fmt.Printf("Yönetici oluşturuldu: %s\n", cfg.Admin.Email)
		} else {
			fmt.Printf("%s zaten vardı, ADMIN rolü verildi.\n", cfg.Admin.Email)
		}
		return nil
	})
}

func seedSectors(cfg *config.Config) error {
	return withGorm(cfg, func(db *gorm.DB) error {
		added, err := database.SeedSectors(db, database.DefaultSectors)
		if err != nil {
			return err
		}
		fmt.Printf("%d sektör eklendi.\n", added)
		return nil
	})
}

func importCompanies(cfg *config.Config, path string, dryRun bool) error {
	format, err := importer.DetectFormat(path)
	if err != nil {
		return err
	}
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	rows, parseErrors := importer.Parse(f, format)
	return withGorm(cfg, func(db *gorm.DB) error {
		resp, err := importer.New(db).Run(rows, parseErrors, dryRun)
		if err != nil {
			return err
		}
		if resp.DryRun {
			fmt.Println("Deneme modu: hiçbir kayıt yazılmadı.")
		}
		fmt.Printf("Toplam satır: %d\n", resp.TotalRows)
		fmt.Printf("Firma: %d, yeni sektör: %d, atlanan: %d\n", resp.CreatedCompanies, resp.CreatedSectors, resp.Skipped)
		if len(resp.SectorsToCreate) > 0 {
			fmt.Printf("Oluşturulacak sektörler: %s\n", strings.Join(resp.SectorsToCreate, ", "))
		}
		for _, e := range resp.Errors {
			fmt.Printf("  satır %d (%s): %s\n", e.Row, e.Name, e.Error)
		}
		return nil
	})
}

func truncateTables(cfg *config.Config) {
	fmt.Println()
	fmt.Println("--- Tabloları Boşalt ---")
	fmt.Println("Şu tablolar SİLİNECEK:")
	fmt.Printf("- %s\n", strings.Join(database.DataTables, ", "))
	fmt.Println()
	fmt.Println("Şunlar KORUNACAK:")
	fmt.Println("- sectors, companies, app_settings")
	fmt.Println()
	fmt.Print("Onaylamak için 'TRUNCATE' yazın: ")
	if readLine() != "TRUNCATE" {
		fmt.Println("İptal edildi.")
		return
	}

	report(withGorm(cfg, func(db *gorm.DB) error {
		for _, table := range database.DataTables {
			fmt.Printf("%s boşaltılıyor...\n", table)
			if err := db.Exec("TRUNCATE TABLE " + pq.QuoteIdentifier(table) + " CASCADE").Error; err != nil {
				fmt.Printf("%s boşaltılamadı: %v\n", table, err)
			}
		}
		fmt.Println("Tamamlandı.")
		return nil
	}))
}

func deleteDatabase(cfg *config.Config) {
	fmt.Println()
	fmt.Println("--- Veritabanını Sil ---")
	fmt.Printf("UYARI: '%s' veritabanı kalıcı olarak silinecek!\n", cfg.Database.Name)
	fmt.Print("Onaylamak için veritabanı adını yazın: ")
	if readLine() != cfg.Database.Name {
		fmt.Println("Ad eşleşmedi. İptal edildi.")
		return
	}

	db, err := getPostgresConn(cfg)
	if err != nil {
		report(err)
		return
	}
	defer db.Close()

	_, _ = db.Exec(`
		SELECT pg_terminate_backend(pg_stat_activity.pid)
		FROM pg_stat_activity
		WHERE pg_stat_activity.datname = $1
		AND pid <> pg_backend_pid()
	`, cfg.Database.Name)

	if _, err := db.Exec("DROP DATABASE IF EXISTS " + pq.QuoteIdentifier(cfg.Database.Name)); err != nil {
		report(err)
		return
	}
	fmt.Printf("'%s' veritabanı silindi.\n", cfg.Database.Name)
}
