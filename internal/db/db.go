package db

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/lib/pq"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// DB is the process-wide database handle.
var DB *gorm.DB

// Options selects the driver and location of the database.
type Options struct {
	Driver string
	Path   string
	URL    string
	Logger *zap.Logger
	Debug  bool
}

// Init opens the database described by opts, migrates every model and
// stores the handle in DB. An empty sqlite path falls back to refex.db.
func Init(opts Options) error {
	gdb, err := Open(opts)
	if err != nil {
		return err
	}
	if err := Migrate(gdb); err != nil {
		return err
	}
	DB = gdb
	return nil
}

// Open connects without migrating.
func Open(opts Options) (*gorm.DB, error) {
	cfg := &gorm.Config{Logger: gormLogger(opts)}

	var (
		gdb *gorm.DB
		err error
	)
	switch strings.ToLower(strings.TrimSpace(opts.Driver)) {
	case "", "sqlite":
		path := strings.TrimSpace(opts.Path)
		if path == "" {
			path = "refex.db"
		}
		if err := ensureParentDir(path); err != nil {
			return nil, err
		}
		gdb, err = gorm.Open(sqlite.Open(path), cfg)
	case "postgres":
		gdb, err = gorm.Open(postgres.New(postgres.Config{
			DriverName: "postgres",
			DSN:        opts.URL,
		}), cfg)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", opts.Driver)
	}
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	sqlDB, err := gdb.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxIdleConns(5)
	sqlDB.SetMaxOpenConns(20)
	sqlDB.SetConnMaxLifetime(30 * time.Minute)

	return gdb, nil
}

// Models lists every table the site owns, in migration order.
func Models() []interface{} {
	return []interface{}{
		&User{},
		&SystemSetting{},
		&Page{},
		&StockPrice{},
		&HomeHero{},
		&WhoWeAre{},
		&Feature{},
		&Impact{},
		&Business{},
		&Client{},
		&Award{},
		&HeaderContent{},
		&NavigationItem{},
		&FooterContent{},
		&FooterLink{},
		&AboutPage{},
		&Leader{},
		&AshUtilizationPage{},
		&GreenMobilityPage{},
		&EsgPage{},
		&EsgPolicy{},
		&InvestorsPageContent{},
		&InvestorDocument{},
		&PressRelease{},
	}
}

// Migrate creates or updates the schema for all models.
func Migrate(gdb *gorm.DB) error {
	if err := gdb.AutoMigrate(Models()...); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	return nil
}

func gormLogger(opts Options) logger.Interface {
	if opts.Logger == nil {
		return logger.Default.LogMode(logger.Silent)
	}
	level := logger.Warn
	if opts.Debug {
		level = logger.Info
	}
	return logger.New(zap.NewStdLog(opts.Logger.Named("gorm")), logger.Config{
		SlowThreshold:             500 * time.Millisecond,
		LogLevel:                  level,
		IgnoreRecordNotFoundError: true,
	})
}

func ensureParentDir(path string) error {
	if strings.HasPrefix(path, "file:") {
		return nil
	}
	dir := filepath.Dir(path)
	if dir == "." || dir == "" {
		return nil
	}

	info, err := os.Stat(dir)
	if err == nil {
		if !info.IsDir() {
			return errors.New("database path parent is not a directory")
		}
		return nil
	}

	if os.IsNotExist(err) {
		return os.MkdirAll(dir, 0o755)
	}

	return err
}
