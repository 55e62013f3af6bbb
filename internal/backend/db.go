// internal/backend/db.go
package backend

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"helper-admin.kz/internal/config"

	_ "github.com/go-sql-driver/mysql"
	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/mysql"
	_ "github.com/golang-migrate/migrate/v4/source/file"
)

// BuildDSN формирует DSN для MariaDB из конфигурации. DATABASE_DSN имеет приоритет.
func BuildDSN(dbCfg config.DatabaseConfig) (string, error) {
	if dbCfg.DSN != "" {
		dsn := dbCfg.DSN
		for _, opt := range []string{"parseTime=true", "multiStatements=true"} {
			if strings.Contains(dsn, opt) {
				continue
			}
			if strings.Contains(dsn, "?") {
				dsn += "&" + opt
			} else {
				dsn += "?" + opt
			}
		}
		return dsn, nil
	}
	if dbCfg.Host == "" || dbCfg.User == "" || dbCfg.DBName == "" {
		return "", ErrNotConfigured
	}
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?parseTime=true&charset=utf8mb4&multiStatements=true",
		dbCfg.User,
		dbCfg.Password,
		dbCfg.Host,
		dbCfg.Port,
		dbCfg.DBName,
	), nil
}

// Open открывает пул соединений и проверяет его пингом.
func Open(dbCfg config.DatabaseConfig) (*sql.DB, error) {
	dsn, err := BuildDSN(dbCfg)
	if err != nil {
		return nil, err
	}

	safeDSN := dsn
	if dbCfg.Password != "" {
		safeDSN = strings.Replace(dsn, dbCfg.Password, "****", 1)
	}
	slog.Info("Подключение к MariaDB", "dsn_for_connection", safeDSN)

	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("ошибка открытия соединения с MariaDB: %w", err)
	}
	db.SetConnMaxLifetime(3 * time.Minute)
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(10)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ошибка подключения к MariaDB (ping failed): %w. DSN: %s", err, safeDSN)
	}
	slog.Info("Успешное подключение к MariaDB.")
	return db, nil
}

// RunMigrations применяет миграции из каталога migrationsPath.
func RunMigrations(db *sql.DB, dbName, migrationsPath string) error {
	driverInstance, err := mysql.WithInstance(db, &mysql.Config{
		DatabaseName: dbName,
	})
	if err != nil {
		return fmt.Errorf("не удалось создать драйвер миграций mysql: %w", err)
	}

	absPath, err := filepath.Abs(migrationsPath)
	if err != nil {
		return fmt.Errorf("некорректный путь миграций '%s': %w", migrationsPath, err)
	}
	migrationsURL := "file://" + filepath.ToSlash(absPath)

	m, err := migrate.NewWithDatabaseInstance(migrationsURL, "mysql", driverInstance)
	if err != nil {
		slog.Error("Ошибка создания экземпляра migrate", "url", migrationsURL, "dbName", dbName, "error", err)
		return fmt.Errorf("ошибка создания экземпляра migrate (проверьте путь '%s'): %w", migrationsURL, err)
	}

	slog.Info("Применение миграций MariaDB...", "path", migrationsURL)
	err = m.Up()
	if err != nil && !errors.Is(err, migrate.ErrNoChange) {
		version, dirty, verr := m.Version()
		if verr != nil {
			slog.Error("Ошибка получения статуса миграции после неудачного Up", "migration_error", err, "status_error", verr)
		} else {
			slog.Error("Ошибка применения миграций. Проверьте логи и файлы миграций.", "current_version", version, "dirty_state", dirty, "error_up", err)
		}
		return fmt.Errorf("ошибка применения миграций MariaDB: %w", err)
	}

	if errors.Is(err, migrate.ErrNoChange) {
		slog.Info("Миграции MariaDB: нет изменений.")
	} else {
		slog.Info("Миграции MariaDB успешно применены.")
	}
	return nil
}
