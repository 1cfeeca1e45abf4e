package bot

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"gorm.io/gorm"

	"habit-tracker/internal/config"
	"habit-tracker/internal/logger"
	"habit-tracker/internal/model"
	"habit-tracker/internal/repository"
	"habit-tracker/internal/schedule"
	"habit-tracker/internal/service"
)

type conversationStage int

const (
	stageNone conversationStage = iota
	stageTitle
	stageKind
	stageInterval
	stageWeekday
	stageDate
	stageDueTime
)

type conversationState struct {
	stage conversationStage
	input service.TaskInput
}

// Bot aggregates Telegram API with services.
type Bot struct {
	api           *tgbotapi.BotAPI
	subscribers   *repository.SubscriberRepository
	taskSvc       *service.TaskService
	insightsSvc   *service.InsightsService
	moodSvc       *service.MoodService
	streakSvc     *service.StreakService
	loc           *time.Location
	now           func() time.Time
	conversations map[int64]*conversationState
	mu            sync.Mutex
}

func New(cfg *config.Config, subscribers *repository.SubscriberRepository, taskSvc *service.TaskService, insightsSvc *service.InsightsService, moodSvc *service.MoodService, streakSvc *service.StreakService) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(cfg.TelegramToken)
	if err != nil {
		return nil, fmt.Errorf("create bot api: %w", err)
	}

	logger.Info("bot authorized", "account", api.Self.UserName)

	loc := cfg.Location
	if loc == nil {
		loc = time.Local
	}
	return &Bot{
		api:           api,
		subscribers:   subscribers,
		taskSvc:       taskSvc,
		insightsSvc:   insightsSvc,
		moodSvc:       moodSvc,
		streakSvc:     streakSvc,
		loc:           loc,
		now:           time.Now,
		conversations: make(map[int64]*conversationState),
	}, nil
}

// Start begins polling updates until ctx is cancelled.
func (b *Bot) Start(ctx context.Context) error {
	updateConfig := tgbotapi.NewUpdate(0)
	updateConfig.Timeout = 60
	updates := b.api.GetUpdatesChan(updateConfig)

	logger.Info("start polling updates")

	go func() {
		<-ctx.Done()
		b.api.StopReceivingUpdates()
	}()

	for update := range updates {
		switch {
		case update.CallbackQuery != nil:
			if err := b.handleCallback(ctx, update.CallbackQuery); err != nil {
				logger.Error("handle callback", "err", err)
			}
		case update.Message != nil:
			if update.Message.Chat == nil || !update.Message.Chat.IsPrivate() {
				continue
			}
			if err := b.handleMessage(ctx, update.Message); err != nil {
				logger.Error("handle message", "err", err)
			}
		}
	}

	return nil
}

// Notify implements service.Notifier.
func (b *Bot) Notify(ctx context.Context, chatID int64, reminder service.Reminder) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	msg := tgbotapi.NewMessage(chatID, formatReminder(reminder, b.loc))
	msg.ParseMode = tgbotapi.ModeHTML
	switch reminder.Kind {
	case service.ReminderMood:
		msg.ReplyMarkup = moodKeyboard()
	case service.ReminderLead, service.ReminderDue:
		if kb, ok := reminderKeyboard(reminder); ok {
			msg.ReplyMarkup = kb
		}
	}
	_, err := b.api.Send(msg)
	return err
}

func (b *Bot) handleMessage(ctx context.Context, msg *tgbotapi.Message) error {
	if msg.From == nil {
		return nil
	}

	if !msg.IsCommand() && isCancelDialogInput(msg.Text) {
		b.clearConversation(msg.From.ID)
		return b.sendText(msg.Chat.ID, "⏪ Ввод отменён.")
	}

	if !msg.IsCommand() {
		if handled, err := b.handleMenuAlias(ctx, msg); handled {
			return err
		}
	}

	if msg.IsCommand() {
		logger.Info("command", "user", msg.From.ID, "command", msg.Command(), "args", msg.CommandArguments())
		return b.handleCommand(ctx, msg)
	}

	if b.hasConversation(msg.From.ID) {
		return b.handleConversation(ctx, msg)
	}

	return b.sendText(msg.Chat.ID, "Я пока не понял сообщение. Набери /newtask, чтобы добавить запись, или /help для списка команд.")
}

func (b *Bot) handleCommand(ctx context.Context, msg *tgbotapi.Message) error {
	switch msg.Command() {
	case "start":
		return b.handleStart(ctx, msg)
	case "help":
		return b.handleHelp(msg)
	case "today":
		return b.handleToday(ctx, msg.Chat.ID, msg.CommandArguments())
	case "newtask":
		return b.startNewTaskConversation(msg)
	case "done":
		return b.handleSetStatus(ctx, msg, model.StatusDone)
	case "undo":
		return b.handleSetStatus(ctx, msg, model.StatusTodo)
	case "insights":
		return b.handleInsights(msg.Chat.ID, msg.CommandArguments())
	case "mood":
		return b.handleMood(ctx, msg)
	case "streak":
		return b.handleStreak(ctx, msg)
	case "cancel":
		b.clearConversation(msg.From.ID)
		return b.sendText(msg.Chat.ID, "⏪ Ввод отменён.")
	default:
		return b.sendText(msg.Chat.ID, "Команда не поддерживается. Загляни в /help.")
	}
}

func (b *Bot) handleMenuAlias(ctx context.Context, msg *tgbotapi.Message) (bool, error) {
	text := strings.TrimSpace(strings.ToLower(msg.Text))
	switch text {
	case strings.ToLower(menuLabelNew):
		return true, b.startNewTaskConversation(msg)
	case strings.ToLower(menuLabelToday):
		return true, b.handleToday(ctx, msg.Chat.ID, "")
	case strings.ToLower(menuLabelStats):
		return true, b.handleInsights(msg.Chat.ID, "")
	case strings.ToLower(menuLabelHelp):
		return true, b.handleHelp(msg)
	default:
		return false, nil
	}
}

func (b *Bot) handleStart(ctx context.Context, msg *tgbotapi.Message) error {
	if _, err := b.subscribers.UpsertFromTelegram(ctx, msg.From.ID, msg.Chat.ID, msg.From.FirstName, msg.From.UserName); err != nil {
		return err
	}
	streak, err := b.streakSvc.RecordVisit(ctx)
	if err != nil {
		logger.Warn("record visit failed", "user", msg.From.ID, "err", err)
	}

	name := strings.TrimSpace(msg.From.FirstName)
	if name == "" {
		name = "друг"
	}

	text := fmt.Sprintf(
		"👋 Привет, %s!\n<b>Я трекер привычек и задач.</b> Буду напоминать о делах и считать статистику.\n\n"+
			"🔥 Серия: %d дн.\n\nНачни с /newtask или посмотри /help.",
		escape(name), streak.CurrentStreak,
	)
	return b.sendText(msg.Chat.ID, text)
}

func (b *Bot) handleHelp(msg *tgbotapi.Message) error {
	text := "ℹ️ <b>Подсказки</b>\n" +
		"• /newtask — добавить задачу или привычку пошагово\n" +
		"• /today [ГГГГ-ММ-ДД] — что запланировано на день, отметка по кнопке\n" +
		"• /done &lt;id&gt; [ГГГГ-ММ-ДД] — отметить выполненным\n" +
		"• /undo &lt;id&gt; [ГГГГ-ММ-ДД] — снять отметку\n" +
		"• /insights [ГГГГ-ММ] — статистика за месяц\n" +
		"• /mood [настроение] — записать настроение дня\n" +
		"• /streak — серия дней подряд\n" +
		"• /cancel — отменить текущий ввод\n\n" +
		"ID можно указывать первыми символами, как в списке /today."
	return b.sendText(msg.Chat.ID, text)
}

func (b *Bot) handleToday(ctx context.Context, chatID int64, args string) error {
	date, err := parseDateArg(args, b.now())
	if err != nil {
		return b.sendText(chatID, "Дата должна быть в формате <code>2025-11-30</code>.")
	}
	if _, err := b.streakSvc.RecordVisit(ctx); err != nil {
		logger.Warn("record visit failed", "err", err)
	}

	occurrences := b.taskSvc.OccurrencesOn(date)
	msg := tgbotapi.NewMessage(chatID, formatOccurrences(date, occurrences, b.loc))
	msg.ParseMode = tgbotapi.ModeHTML
	if len(occurrences) > 0 {
		msg.ReplyMarkup = occurrenceKeyboard(occurrences)
	}
	_, err = b.api.Send(msg)
	return err
}

func (b *Bot) handleSetStatus(ctx context.Context, msg *tgbotapi.Message, status model.TaskStatus) error {
	ref, date, err := parseRefArgs(msg.CommandArguments())
	if err != nil {
		if errors.Is(err, service.ErrInvalidDateKey) {
			return b.sendText(msg.Chat.ID, "Дата должна быть в формате <code>2025-11-30</code>.")
		}
		return b.sendText(msg.Chat.ID, fmt.Sprintf("Укажи ID записи: /%s 1a2b3c4d [2025-11-30]", msg.Command()))
	}

	task, err := findTask(b.taskSvc.Tasks(), ref)
	if err != nil {
		return b.sendText(msg.Chat.ID, refErrorText(err))
	}

	if date == "" && !task.IsHabit() {
		err = b.taskSvc.UpdateTaskStatus(ctx, task.ID, status)
	} else {
		if date == "" {
			date = schedule.DateKey(b.now())
		}
		if !schedule.IsScheduledOnDate(task, date) {
			return b.sendText(msg.Chat.ID, fmt.Sprintf("«%s» не запланирована на %s.", escape(normalizeTitle(task.Title)), date))
		}
		err = b.taskSvc.SetCompletion(ctx, task.ID, date, status)
	}
	if err != nil {
		return b.sendText(msg.Chat.ID, fmt.Sprintf("Ошибка: %s", escape(err.Error())))
	}

	logger.Info("status changed", "task", task.ID, "date", date, "status", status)
	if status == model.StatusDone {
		return b.sendText(msg.Chat.ID, fmt.Sprintf("✅ «%s» выполнено.", escape(normalizeTitle(task.Title))))
	}
	return b.sendText(msg.Chat.ID, fmt.Sprintf("↩️ Отметка с «%s» снята.", escape(normalizeTitle(task.Title))))
}

func (b *Bot) handleInsights(chatID int64, args string) error {
	year, month, err := parseMonthArg(args, b.now())
	if err != nil {
		return b.sendText(chatID, "Месяц должен быть в формате <code>2025-11</code>.")
	}
	report := b.insightsSvc.MonthReport(b.taskSvc.Snapshot(), year, month)
	return b.sendText(chatID, formatInsights(report))
}

func (b *Bot) handleMood(ctx context.Context, msg *tgbotapi.Message) error {
	args := strings.TrimSpace(msg.CommandArguments())
	if args == "" {
		current, err := b.moodSvc.Today(ctx)
		if err != nil {
			return err
		}
		text := "🙂 Как настроение сегодня?"
		if current != nil {
			text = fmt.Sprintf("Сегодня уже отмечено: %s. Можно изменить:", moodLabel(current.Mood))
		}
		return b.sendWithReplyMarkup(msg.Chat.ID, text, moodKeyboard())
	}

	mood, err := service.ParseMood(args)
	if err != nil {
		return b.sendText(msg.Chat.ID, "Не знаю такого настроения. Варианты: Productive, Relaxed, Stressed, Anxious.")
	}
	return b.saveMood(ctx, msg.Chat.ID, mood)
}

func (b *Bot) saveMood(ctx context.Context, chatID int64, mood model.MoodType) error {
	saved, err := b.moodSvc.Save(ctx, mood, "")
	if err != nil {
		return b.sendText(chatID, fmt.Sprintf("Не удалось сохранить настроение: %s", escape(err.Error())))
	}
	logger.Info("mood saved", "date", saved.Date, "mood", saved.Mood)
	return b.sendText(chatID, fmt.Sprintf("%s\n%s", moodLabel(saved.Mood), escape(b.moodSvc.Message(saved.Mood))))
}

func (b *Bot) handleStreak(ctx context.Context, msg *tgbotapi.Message) error {
	streak, err := b.streakSvc.Current(ctx)
	if err != nil {
		return b.sendText(msg.Chat.ID, fmt.Sprintf("Не удалось получить серию: %s", escape(err.Error())))
	}
	return b.sendText(msg.Chat.ID, formatStreak(streak))
}

func (b *Bot) startNewTaskConversation(msg *tgbotapi.Message) error {
	logger.Info("start new task conversation", "user", msg.From.ID)
	b.setConversation(msg.From.ID, &conversationState{stage: stageTitle})
	return b.sendWithReplyMarkup(msg.Chat.ID, "🆕 Новая запись.\n<b>Шаг 1:</b> как её назвать?", cancelKeyboard())
}

func (b *Bot) handleConversation(ctx context.Context, msg *tgbotapi.Message) error {
	state := b.getConversation(msg.From.ID)
	if state == nil {
		return nil
	}

	text := strings.TrimSpace(msg.Text)
	switch state.stage {
	case stageTitle:
		if text == "" {
			return b.sendWithReplyMarkup(msg.Chat.ID, "Название не может быть пустым.", cancelKeyboard())
		}
		state.input.Title = text
		state.stage = stageKind
		return b.sendWithReplyMarkup(msg.Chat.ID, "<b>Шаг 2:</b> это разовая задача или привычка?", kindKeyboard())
	case stageKind:
		kind, ok := parseKind(text)
		if !ok {
			return b.sendWithReplyMarkup(msg.Chat.ID, "Выбери «Задача» или «Привычка».", kindKeyboard())
		}
		state.input.EntryType = kind
		if kind == model.EntryHabit {
			state.stage = stageInterval
			return b.sendWithReplyMarkup(msg.Chat.ID, "🔁 Как часто повторять?", intervalKeyboard())
		}
		state.stage = stageDate
		return b.sendWithReplyMarkup(msg.Chat.ID, "📆 На какую дату? Формат <code>2025-11-30</code> (или «Пропустить» — сегодня).", skipKeyboard())
	case stageInterval:
		interval, ok := parseInterval(text)
		if !ok {
			return b.sendWithReplyMarkup(msg.Chat.ID, "Выбери «Каждый день» или «Раз в неделю».", intervalKeyboard())
		}
		state.input.RepeatInterval = &interval
		if interval == model.RepeatWeekly {
			state.stage = stageWeekday
			return b.sendWithReplyMarkup(msg.Chat.ID, "📆 В какой день недели?", weekdayKeyboard())
		}
		state.stage = stageDate
		return b.sendWithReplyMarkup(msg.Chat.ID, "📆 С какой даты начать? Формат <code>2025-11-30</code> (или «Пропустить» — с сегодня).", skipKeyboard())
	case stageWeekday:
		day, ok := parseWeekday(text)
		if !ok {
			return b.sendWithReplyMarkup(msg.Chat.ID, "Выбери день недели кнопкой.", weekdayKeyboard())
		}
		state.input.RepeatWeekday = &day
		state.stage = stageDate
		return b.sendWithReplyMarkup(msg.Chat.ID, "📆 С какой даты начать? Формат <code>2025-11-30</code> (или «Пропустить» — с сегодня).", skipKeyboard())
	case stageDate:
		date := schedule.DateKey(b.now())
		if !isSkipInput(text) {
			parsed, err := parseDateKey(text)
			if err != nil {
				return b.sendWithReplyMarkup(msg.Chat.ID, "Не могу распознать дату. Используй формат <code>2025-11-30</code> или «Пропустить».", skipKeyboard())
			}
			date = parsed
		}
		state.input.Date = date
		state.stage = stageDueTime
		return b.sendWithReplyMarkup(msg.Chat.ID, "⏰ Во сколько напомнить? Формат <code>09:30</code> (или «Пропустить»).", skipKeyboard())
	case stageDueTime:
		if !isSkipInput(text) {
			hour, minute, err := config.ParseClock(text)
			if err != nil {
				return b.sendWithReplyMarkup(msg.Chat.ID, "Время должно быть в формате <code>09:30</code>.", skipKeyboard())
			}
			due, err := dueAtOn(state.input.Date, hour, minute, b.loc)
			if err != nil {
				return err
			}
			state.input.DueAt = &due
		}
		err := b.finishTaskCreation(ctx, msg.Chat.ID, state.input)
		b.clearConversation(msg.From.ID)
		return err
	default:
		b.clearConversation(msg.From.ID)
		return b.sendText(msg.Chat.ID, "Диалог сброшен. Попробуй ещё раз через /newtask.")
	}
}

func (b *Bot) finishTaskCreation(ctx context.Context, chatID int64, input service.TaskInput) error {
	task, err := b.taskSvc.CreateTask(ctx, input)
	if err != nil && task == nil {
		return b.sendText(chatID, fmt.Sprintf("Не удалось сохранить запись: %s", escape(err.Error())))
	}
	if err != nil {
		logger.Warn("task saved but reload failed", "task", task.ID, "err", err)
		return b.sendText(chatID, formatCreated(task, b.loc)+"\n\n⚠️ Запись сохранена, но список не обновился. Попробуй /today чуть позже.")
	}

	logger.Info("task created", "task", task.ID, "entry_type", task.EntryType, "date", task.Date)
	return b.sendText(chatID, formatCreated(task, b.loc))
}

func (b *Bot) handleCallback(ctx context.Context, cb *tgbotapi.CallbackQuery) error {
	if cb == nil || cb.From == nil || cb.Message == nil {
		return nil
	}

	data := cb.Data
	switch {
	case strings.HasPrefix(data, cbTogglePrefix), strings.HasPrefix(data, cbDonePrefix):
		return b.handleToggle(ctx, cb)
	case strings.HasPrefix(data, cbMoodPrefix):
		b.ackCallback(cb.ID, "")
		mood, err := service.ParseMood(strings.TrimPrefix(data, cbMoodPrefix))
		if err != nil {
			return nil
		}
		return b.saveMood(ctx, cb.Message.Chat.ID, mood)
	default:
		b.ackCallback(cb.ID, "")
		return nil
	}
}

// handleToggle changes the status of one occurrence and redraws the day list.
func (b *Bot) handleToggle(ctx context.Context, cb *tgbotapi.CallbackQuery) error {
	task, date, next, err := resolveToggle(b.taskSvc.Tasks(), b.taskSvc.Completions(), cb.Data)
	switch {
	case errors.Is(err, errNotScheduled):
		b.ackCallback(cb.ID, "На эту дату запись не запланирована")
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		b.ackCallback(cb.ID, "Запись не найдена")
		return nil
	case err != nil:
		b.ackCallback(cb.ID, "")
		return nil
	}

	if err := b.taskSvc.SetCompletion(ctx, task.ID, date, next); err != nil {
		b.ackCallback(cb.ID, "Не удалось сохранить")
		return err
	}
	logger.Info("occurrence toggled", "user", cb.From.ID, "task", task.ID, "date", date, "status", next)

	if next == model.StatusDone {
		b.ackCallback(cb.ID, "Выполнено")
	} else {
		b.ackCallback(cb.ID, "Отметка снята")
	}

	occurrences := b.taskSvc.OccurrencesOn(date)
	if len(occurrences) == 0 {
		return nil
	}
	edit := tgbotapi.NewEditMessageTextAndMarkup(cb.Message.Chat.ID, cb.Message.MessageID, formatOccurrences(date, occurrences, b.loc), occurrenceKeyboard(occurrences))
	edit.ParseMode = tgbotapi.ModeHTML
	if _, err := b.api.Send(edit); err != nil {
		logger.Warn("redraw day list failed", "err", err)
	}
	return nil
}

func (b *Bot) ackCallback(id, text string) {
	if _, err := b.api.Request(tgbotapi.NewCallback(id, text)); err != nil {
		logger.Warn("callback ack", "err", err)
	}
}

func refErrorText(err error) string {
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return "Запись не найдена."
	case errors.Is(err, errAmbiguousRef):
		return "Под этот ID подходит несколько записей, укажи больше символов."
	default:
		return "Укажи ID записи из списка /today."
	}
}

func (b *Bot) sendText(chatID int64, text string) error {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	msg.ReplyMarkup = mainMenuKeyboard()
	_, err := b.api.Send(msg)
	return err
}

func (b *Bot) sendWithReplyMarkup(chatID int64, text string, markup interface{}) error {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	msg.ReplyMarkup = markup
	_, err := b.api.Send(msg)
	return err
}

func (b *Bot) setConversation(userID int64, state *conversationState) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.conversations[userID] = state
}

func (b *Bot) getConversation(userID int64) *conversationState {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.conversations[userID]
}

func (b *Bot) hasConversation(userID int64) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	_, ok := b.conversations[userID]
	return ok
}

func (b *Bot) clearConversation(userID int64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.conversations, userID)
}
