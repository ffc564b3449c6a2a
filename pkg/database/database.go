package database

import (
	"fmt"
	"log"

	"eduforge_backend/internal/config"
	"eduforge_backend/internal/model"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func InitDB(cfg *config.DatabaseConfig) (*gorm.DB, error) {
	dsn := fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=%s&parseTime=%t&loc=Local",
		cfg.User,
		cfg.Password,
		cfg.Host,
		cfg.Port,
		cfg.DBName,
		cfg.Charset,
		cfg.ParseTime,
	)

	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, err
	}

	log.Println("Database connection established")

	return db, nil
}

// Migrate runs AutoMigrate for every persisted model. Invoked at startup
// when migration is enabled.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&model.Course{},
		&model.Topic{},
		&model.Skill{},
		&model.Lesson{},
		&model.LessonSection{},
		&model.Exercise{},
		&model.ExerciseTestCase{},
		&model.Test{},
		&model.TestQuestion{},
		&model.TestSession{},
		&model.UserAssessment{},
		&model.ReferenceDocument{},
		&model.CourseDraftRecord{},
	)
}
