package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"habit-tracker/internal/bot"
	"habit-tracker/internal/config"
	"habit-tracker/internal/logger"
	"habit-tracker/internal/repository"
	"habit-tracker/internal/service"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load("")
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logger.Init(cfg.Log)

	db, err := repository.NewDB(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	sqlDB, err := db.DB()
	if err == nil {
		defer sqlDB.Close()
	}

	subscriberRepo := repository.NewSubscriberRepository(db)
	taskRepo := repository.NewTaskRepository(db)
	moodRepo := repository.NewMoodRepository(db)
	kvRepo := repository.NewKVRepository(db)

	moodHour, moodMinute, err := cfg.MoodReminderClock()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	taskSvc := service.NewTaskService(taskRepo, time.Now)
	if err := taskSvc.Refresh(ctx); err != nil {
		log.Fatalf("load tasks: %v", err)
	}
	moodSvc := service.NewMoodService(moodRepo, time.Now)
	streakSvc := service.NewStreakService(kvRepo, time.Now)
	insightsSvc := service.NewInsightsService(cfg.InsightsDays, time.Now)
	reminderSvc := service.NewReminderService(cfg.Location, cfg.ReminderLead(), moodHour, moodMinute)

	telegramBot, err := bot.New(&cfg, subscriberRepo, taskSvc, insightsSvc, moodSvc, streakSvc)
	if err != nil {
		log.Fatalf("bot: %v", err)
	}

	notificationSvc := service.NewNotificationService(taskSvc, moodSvc, reminderSvc, subscriberRepo, telegramBot, time.Now)

	scheduler := service.NewSchedulerService(cfg.Location, 30*time.Second)
	if _, err := scheduler.ScheduleInterval(cfg.DispatchEvery(), "dispatch", func(ctx context.Context) error {
		sent, err := notificationSvc.Dispatch(ctx)
		if sent > 0 {
			logger.Info("reminders sent", "count", sent)
		}
		return err
	}); err != nil {
		log.Fatalf("schedule dispatch: %v", err)
	}
	if _, err := scheduler.ScheduleDaily(0, 0, "refresh", taskSvc.Refresh); err != nil {
		log.Fatalf("schedule refresh: %v", err)
	}
	scheduler.Start()
	defer scheduler.Stop()

	logger.Info("habit tracker started", "timezone", cfg.Location.String(), "dispatch_every", cfg.DispatchEvery().String(), "jobs", scheduler.Entries())
	if err := telegramBot.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
		log.Fatalf("bot stopped with error: %v", err)
	}
	logger.Info("shutdown complete")
}
