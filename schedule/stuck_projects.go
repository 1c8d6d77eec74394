package main

import (
	"os"

	"communityprojects/internal/models"
	"communityprojects/pkg/config"

	"github.com/robfig/cron/v3"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// failureAlertThreshold is the number of failed tick steps after which a
// project is reported at error level
const failureAlertThreshold = 3

// ReportStuckProjects logs every project whose tick steps keep failing
func ReportStuckProjects(db *gorm.DB) error {
	var stuck []models.StuckProject
	if err := db.Order("failures DESC").Find(&stuck).Error; err != nil {
		return err
	}
	report(log.StandardLogger(), stuck)
	return nil
}

func report(logger log.FieldLogger, stuck []models.StuckProject) {
	if len(stuck) == 0 {
		logger.Info("> no stuck projects")
		return
	}
	for _, p := range stuck {
		entry := logger.WithFields(log.Fields{
			"project_id":   p.ProjectID,
			"failures":     p.Failures,
			"last_step":    p.LastStep,
			"last_error":   p.LastError,
			"last_failure": p.LastFailure,
		})
		if p.Failures >= failureAlertThreshold {
			entry.Error("> project is stuck")
		} else {
			entry.Warn("> project step failed")
		}
	}
}

func main() {
	os.MkdirAll("logs", 0755)
	file, err := os.OpenFile("logs/stuck_projects.log", os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
	if err == nil {
		log.SetOutput(file)
	} else {
		log.Warn("cannot open log file, logging to stdout")
	}
	log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	log.SetLevel(log.InfoLevel)

	config.InitDB()
	log.Info("> database connection initialized")

	c := cron.New(cron.WithSeconds())

	// every 5 minutes
	_, err = c.AddFunc("0 */5 * * * *", func() {
		if err := ReportStuckProjects(config.DB); err != nil {
			log.Errorf("> failed to query stuck projects: %v", err)
		}
	})
	if err != nil {
		log.Fatalf("> failed to add cron job: %v", err)
	}

	log.Info("> stuck project report scheduled every 5 minutes")
	c.Start()

	select {}
}
