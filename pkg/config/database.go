package config

import (
	"fmt"
	"os"
	"time"

	"communityprojects/internal/models"

	"github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

var DB *gorm.DB

// DatabaseConfigured reports whether DB_HOST is set
func DatabaseConfigured() bool {
	return os.Getenv("DB_HOST") != ""
}

// InitDB initializes the database connection and migrates the read model
func InitDB() {
	dsn := fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=disable TimeZone=UTC",
		os.Getenv("DB_HOST"),
		os.Getenv("DB_USER"),
		os.Getenv("DB_PASSWORD"),
		os.Getenv("DB_NAME"),
		os.Getenv("DB_PORT"),
	)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		logrus.Fatal("Failed to connect to database: ", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		logrus.Fatal("Failed to get database instance: ", err)
	}

	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(50)
	sqlDB.SetConnMaxLifetime(time.Hour)

	DB = db

	err = DB.AutoMigrate(
		&models.ProjectRecord{},
		&models.ProjectEvent{},
		&models.SystemLog{},
	)
	if err != nil {
		logrus.Fatal("Failed to migrate database: ", err)
	}
}
