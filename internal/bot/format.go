package bot

import (
	"errors"
	"fmt"
	"html"
	"math"
	"strconv"
	"strings"
	"time"
	"unicode"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"gorm.io/gorm"

	"habit-tracker/internal/model"
	"habit-tracker/internal/schedule"
	"habit-tracker/internal/service"
)

const (
	cbTogglePrefix = "toggle:"
	cbDonePrefix   = "done:"
	cbMoodPrefix   = "mood:"
)

const (
	btnSkip         = "⏭️ Пропустить"
	btnCancelDialog = "⏪ Отменить ввод"
	btnKindTask     = "📌 Задача"
	btnKindHabit    = "🔁 Привычка"
	btnDaily        = "Каждый день"
	btnWeekly       = "Раз в неделю"
	iconDone        = "✅"
	iconTodo        = "⬜"
	iconHabit       = "🔁"
	menuLabelNew    = "➕ Новая запись"
	menuLabelToday  = "📅 Сегодня"
	menuLabelStats  = "📊 Статистика"
	menuLabelHelp   = "ℹ️ Помощь"
	shortIDLen      = 8
	barWidth        = 10
)

var (
	errMissingRef   = errors.New("task id is required")
	errTooManyArgs  = errors.New("too many arguments")
	errAmbiguousRef = errors.New("several tasks match this id")
	errNotScheduled = errors.New("task is not scheduled on this date")
	errBadCallback  = errors.New("malformed callback data")
)

// Indexed by time.Weekday.
var weekdayLabels = [7]string{"Вс", "Пн", "Вт", "Ср", "Чт", "Пт", "Сб"}

var weekdayAliases = map[string]int{
	"вс": 0, "воскресенье": 0, "sun": 0, "sunday": 0,
	"пн": 1, "понедельник": 1, "mon": 1, "monday": 1,
	"вт": 2, "вторник": 2, "tue": 2, "tuesday": 2,
	"ср": 3, "среда": 3, "wed": 3, "wednesday": 3,
	"чт": 4, "четверг": 4, "thu": 4, "thursday": 4,
	"пт": 5, "пятница": 5, "fri": 5, "friday": 5,
	"сб": 6, "суббота": 6, "sat": 6, "saturday": 6,
}

var monthNames = [12]string{
	"январь", "февраль", "март", "апрель", "май", "июнь",
	"июль", "август", "сентябрь", "октябрь", "ноябрь", "декабрь",
}

var moodLabels = map[model.MoodType]string{
	model.MoodProductive: "💪 Продуктивно",
	model.MoodRelaxed:    "😌 Спокойно",
	model.MoodStressed:   "😣 Стресс",
	model.MoodAnxious:    "😟 Тревожно",
}

func escape(s string) string {
	return html.EscapeString(s)
}

func normalizeTitle(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return value
	}
	runes := []rune(value)
	runes[0] = unicode.ToUpper(runes[0])
	return string(runes)
}

func shortTitle(title string, maxLen int) string {
	clean := normalizeTitle(strings.ReplaceAll(title, "\n", " "))
	runes := []rune(clean)
	if len(runes) <= maxLen {
		return clean
	}
	if maxLen <= 1 {
		return string(runes[:maxLen])
	}
	return string(runes[:maxLen-1]) + "…"
}

func shortID(id string) string {
	if len(id) <= shortIDLen {
		return id
	}
	return id[:shortIDLen]
}

func toggleData(taskID, date string) string {
	return cbTogglePrefix + taskID + ":" + date
}

func doneData(taskID, date string) string {
	return cbDonePrefix + taskID + ":" + date
}

// parseToggleData accepts both toggle and done callbacks.
func parseToggleData(data string) (string, string, bool) {
	var raw string
	switch {
	case strings.HasPrefix(data, cbTogglePrefix):
		raw = strings.TrimPrefix(data, cbTogglePrefix)
	case strings.HasPrefix(data, cbDonePrefix):
		raw = strings.TrimPrefix(data, cbDonePrefix)
	default:
		return "", "", false
	}
	i := strings.LastIndex(raw, ":")
	if i <= 0 || i == len(raw)-1 {
		return "", "", false
	}
	taskID, date := raw[:i], raw[i+1:]
	if _, err := schedule.ParseDateKey(date); err != nil {
		return "", "", false
	}
	return taskID, date, true
}

// resolveToggle decides which occurrence a callback targets and its new
// status. Toggle callbacks flip the current status, done callbacks always
// mark done. Dates the task is not scheduled on are rejected.
func resolveToggle(tasks []model.Task, completions schedule.CompletionMap, data string) (model.Task, string, model.TaskStatus, error) {
	taskID, date, ok := parseToggleData(data)
	if !ok {
		return model.Task{}, "", "", errBadCallback
	}
	task, err := findTask(tasks, taskID)
	if err != nil {
		return model.Task{}, "", "", err
	}
	if task.ID != taskID {
		return model.Task{}, "", "", gorm.ErrRecordNotFound
	}
	if !schedule.IsScheduledOnDate(task, date) {
		return model.Task{}, "", "", errNotScheduled
	}

	next := model.StatusDone
	if strings.HasPrefix(data, cbTogglePrefix) && schedule.StatusOnDate(task, date, completions) == model.StatusDone {
		next = model.StatusTodo
	}
	return task, date, next, nil
}

// reminderKeyboard offers a done button for the occurrence a reminder is about.
func reminderKeyboard(r service.Reminder) (tgbotapi.InlineKeyboardMarkup, bool) {
	if r.TaskID == "" || r.Date == "" {
		return tgbotapi.InlineKeyboardMarkup{}, false
	}
	return tgbotapi.NewInlineKeyboardMarkup(tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData(iconDone+" Выполнено", doneData(r.TaskID, r.Date)),
	)), true
}

// findTask resolves a full id or an unambiguous id prefix.
func findTask(tasks []model.Task, ref string) (model.Task, error) {
	ref = strings.TrimPrefix(strings.TrimSpace(ref), "#")
	if ref == "" {
		return model.Task{}, errMissingRef
	}
	var (
		match model.Task
		found int
	)
	for _, task := range tasks {
		if task.ID == ref {
			return task, nil
		}
		if strings.HasPrefix(task.ID, ref) {
			match = task
			found++
		}
	}
	switch found {
	case 0:
		return model.Task{}, gorm.ErrRecordNotFound
	case 1:
		return match, nil
	default:
		return model.Task{}, errAmbiguousRef
	}
}

// parseRefArgs splits "<id> [YYYY-MM-DD]".
func parseRefArgs(args string) (string, string, error) {
	fields := strings.Fields(args)
	switch len(fields) {
	case 0:
		return "", "", errMissingRef
	case 1:
		return fields[0], "", nil
	case 2:
		date, err := parseDateKey(fields[1])
		if err != nil {
			return "", "", err
		}
		return fields[0], date, nil
	default:
		return "", "", errTooManyArgs
	}
}

func parseDateKey(text string) (string, error) {
	date := schedule.NormalizeDateKey(strings.TrimSpace(text))
	if _, err := schedule.ParseDateKey(date); err != nil {
		return "", fmt.Errorf("%w: %q", service.ErrInvalidDateKey, text)
	}
	return date, nil
}

// parseDateArg returns today's key when args is empty.
func parseDateArg(args string, now time.Time) (string, error) {
	if strings.TrimSpace(args) == "" {
		return schedule.DateKey(now), nil
	}
	return parseDateKey(args)
}

func parseMonthArg(args string, now time.Time) (int, time.Month, error) {
	args = strings.TrimSpace(args)
	if args == "" {
		now = now.UTC()
		return now.Year(), now.Month(), nil
	}
	t, err := time.Parse("2006-01", args)
	if err != nil {
		return 0, 0, fmt.Errorf("month must be YYYY-MM: %q", args)
	}
	return t.Year(), t.Month(), nil
}

func parseWeekday(text string) (int, bool) {
	value := strings.TrimSpace(strings.ToLower(text))
	if day, ok := weekdayAliases[value]; ok {
		return day, true
	}
	day, err := strconv.Atoi(value)
	if err != nil || day < 0 || day > 6 {
		return 0, false
	}
	return day, true
}

// dueAtOn places hour:minute on dateKey in loc.
func dueAtOn(dateKey string, hour, minute int, loc *time.Location) (time.Time, error) {
	day, err := time.ParseInLocation(schedule.DateKeyLayout, dateKey, loc)
	if err != nil {
		return time.Time{}, err
	}
	return time.Date(day.Year(), day.Month(), day.Day(), hour, minute, 0, 0, loc), nil
}

func describeRepeat(task model.Task) string {
	if !task.IsHabit() || task.RepeatInterval == nil {
		return ""
	}
	switch *task.RepeatInterval {
	case model.RepeatDaily:
		return "каждый день"
	case model.RepeatWeekly:
		if task.RepeatWeekday != nil && *task.RepeatWeekday >= 0 && *task.RepeatWeekday <= 6 {
			return "по " + weekdayLabels[*task.RepeatWeekday]
		}
		return "раз в неделю"
	default:
		return ""
	}
}

func formatOccurrences(date string, occurrences []service.Occurrence, loc *time.Location) string {
	if len(occurrences) == 0 {
		return fmt.Sprintf("📅 На <b>%s</b> ничего не запланировано. Добавь запись через /newtask.", date)
	}

	var b strings.Builder
	done := 0
	b.WriteString(fmt.Sprintf("📅 <b>%s</b>\n\n", date))
	for _, occ := range occurrences {
		icon := iconTodo
		if occ.Status == model.StatusDone {
			icon = iconDone
			done++
		}
		b.WriteString(fmt.Sprintf("%s <code>#%s</code> %s", icon, shortID(occ.Task.ID), escape(normalizeTitle(occ.Task.Title))))
		if repeat := describeRepeat(occ.Task); repeat != "" {
			b.WriteString(fmt.Sprintf(" · %s %s", iconHabit, repeat))
		}
		if occ.Task.DueAt != nil {
			b.WriteString(fmt.Sprintf(" · ⏰ %s", occ.Task.DueAt.In(loc).Format("15:04")))
		}
		b.WriteByte('\n')
	}
	b.WriteString(fmt.Sprintf("\nВыполнено %d из %d. Нажми на кнопку, чтобы отметить.", done, len(occurrences)))
	return b.String()
}

func occurrenceKeyboard(occurrences []service.Occurrence) tgbotapi.InlineKeyboardMarkup {
	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(occurrences))
	for _, occ := range occurrences {
		icon := iconTodo
		if occ.Status == model.StatusDone {
			icon = iconDone
		}
		label := fmt.Sprintf("%s %s", icon, shortTitle(occ.Task.Title, 28))
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(label, toggleData(occ.Task.ID, occ.Date)),
		))
	}
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

func progressBar(rate float64) string {
	filled := int(math.Round(rate * barWidth))
	if filled < 0 {
		filled = 0
	}
	if filled > barWidth {
		filled = barWidth
	}
	return strings.Repeat("▓", filled) + strings.Repeat("░", barWidth-filled)
}

func formatDayStat(stat service.DayStat) string {
	return fmt.Sprintf("%s (%d/%d)", stat.Date, stat.Completed, stat.Total)
}

func formatInsights(report service.MonthReport) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("📊 <b>Статистика: %s %d</b>\n\n", monthNames[report.Month-1], report.Year))

	b.WriteString("Продуктивность по дням:\n<code>")
	for _, stat := range report.Window {
		b.WriteString(fmt.Sprintf("%s %s %3d%% %d/%d\n", stat.Date[5:], progressBar(stat.Rate), int(math.Round(stat.Rate*100)), stat.Completed, stat.Total))
	}
	b.WriteString("</code>\n")

	if report.Highlights.NoData {
		b.WriteString("За этот месяц ещё нет данных.")
		return b.String()
	}
	b.WriteString(fmt.Sprintf("🏆 Лучший день: %s\n", formatDayStat(report.Highlights.Best)))
	b.WriteString(fmt.Sprintf("🐢 Худший день: %s", formatDayStat(report.Highlights.Worst)))
	return b.String()
}

func formatReminder(r service.Reminder, loc *time.Location) string {
	label := "Задача"
	if r.Habit {
		label = "Привычка"
	}
	switch r.Kind {
	case service.ReminderLead:
		minutes := int(r.DueAt.Sub(r.At).Round(time.Minute).Minutes())
		return fmt.Sprintf("⏰ Через %d мин.: %s «%s» (в %s)", minutes, strings.ToLower(label), escape(normalizeTitle(r.Title)), r.DueAt.In(loc).Format("15:04"))
	case service.ReminderDue:
		return fmt.Sprintf("🔔 %s «%s»: пора!", label, escape(normalizeTitle(r.Title)))
	case service.ReminderMood:
		return "🙂 Как настроение сегодня? Выбери вариант ниже или отправь /mood."
	default:
		return escape(r.Title)
	}
}

func formatStreak(streak model.Streak) string {
	if streak.CurrentStreak == 0 {
		return "🔥 Серия ещё не началась. Загляни через /start."
	}
	return fmt.Sprintf("🔥 Текущая серия: <b>%d</b> дн.\n🏅 Рекорд: <b>%d</b> дн.\nПоследний визит: %s",
		streak.CurrentStreak, streak.LongestStreak, streak.LastVisitDate)
}

func formatCreated(task *model.Task, loc *time.Location) string {
	var b strings.Builder
	b.WriteString("✅ <b>Запись сохранена</b>\n")
	b.WriteString(fmt.Sprintf("• <b>ID:</b> <code>%s</code>\n", shortID(task.ID)))
	b.WriteString(fmt.Sprintf("• <b>Название:</b> %s\n", escape(normalizeTitle(task.Title))))
	if task.IsHabit() {
		b.WriteString(fmt.Sprintf("• <b>Повтор:</b> %s с %s\n", describeRepeat(*task), task.Date))
	} else {
		b.WriteString(fmt.Sprintf("• <b>Дата:</b> %s\n", task.Date))
	}
	if task.DueAt != nil {
		b.WriteString(fmt.Sprintf("• <b>Напоминание:</b> %s\n", task.DueAt.In(loc).Format("15:04")))
	}
	return strings.TrimSpace(b.String())
}

func moodLabel(mood model.MoodType) string {
	if label, ok := moodLabels[mood]; ok {
		return label
	}
	return string(mood)
}

func moodKeyboard() tgbotapi.InlineKeyboardMarkup {
	var rows [][]tgbotapi.InlineKeyboardButton
	for i := 0; i < len(model.Moods); i += 2 {
		row := []tgbotapi.InlineKeyboardButton{
			tgbotapi.NewInlineKeyboardButtonData(moodLabel(model.Moods[i]), cbMoodPrefix+string(model.Moods[i])),
		}
		if i+1 < len(model.Moods) {
			row = append(row, tgbotapi.NewInlineKeyboardButtonData(moodLabel(model.Moods[i+1]), cbMoodPrefix+string(model.Moods[i+1])))
		}
		rows = append(rows, row)
	}
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

func mainMenuKeyboard() tgbotapi.ReplyKeyboardMarkup {
	kb := tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(menuLabelNew),
			tgbotapi.NewKeyboardButton(menuLabelToday),
		),
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(menuLabelStats),
			tgbotapi.NewKeyboardButton(menuLabelHelp),
		),
	)
	kb.ResizeKeyboard = true
	return kb
}

func cancelKeyboard() tgbotapi.ReplyKeyboardMarkup {
	kb := tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(btnCancelDialog),
		),
	)
	kb.ResizeKeyboard = true
	kb.OneTimeKeyboard = true
	return kb
}

func skipKeyboard() tgbotapi.ReplyKeyboardMarkup {
	kb := tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(btnSkip),
		),
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(btnCancelDialog),
		),
	)
	kb.ResizeKeyboard = true
	kb.OneTimeKeyboard = true
	return kb
}

func kindKeyboard() tgbotapi.ReplyKeyboardMarkup {
	kb := tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(btnKindTask),
			tgbotapi.NewKeyboardButton(btnKindHabit),
		),
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(btnCancelDialog),
		),
	)
	kb.ResizeKeyboard = true
	kb.OneTimeKeyboard = true
	return kb
}

func intervalKeyboard() tgbotapi.ReplyKeyboardMarkup {
	kb := tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(btnDaily),
			tgbotapi.NewKeyboardButton(btnWeekly),
		),
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(btnCancelDialog),
		),
	)
	kb.ResizeKeyboard = true
	kb.OneTimeKeyboard = true
	return kb
}

func weekdayKeyboard() tgbotapi.ReplyKeyboardMarkup {
	week := []int{1, 2, 3, 4, 5, 6, 0}
	first := make([]tgbotapi.KeyboardButton, 0, 4)
	second := make([]tgbotapi.KeyboardButton, 0, 3)
	for i, day := range week {
		btn := tgbotapi.NewKeyboardButton(weekdayLabels[day])
		if i < 4 {
			first = append(first, btn)
		} else {
			second = append(second, btn)
		}
	}
	kb := tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(first...),
		tgbotapi.NewKeyboardButtonRow(second...),
		tgbotapi.NewKeyboardButtonRow(tgbotapi.NewKeyboardButton(btnCancelDialog)),
	)
	kb.ResizeKeyboard = true
	kb.OneTimeKeyboard = true
	return kb
}

func isSkipInput(text string) bool {
	value := strings.TrimSpace(strings.ToLower(text))
	return value == "-" || value == strings.ToLower(btnSkip) || value == "пропустить" || value == "skip"
}

func isCancelDialogInput(text string) bool {
	value := strings.TrimSpace(strings.ToLower(text))
	return value == strings.ToLower(btnCancelDialog) || value == "отменить ввод" || value == "отмена"
}

func parseKind(text string) (model.EntryType, bool) {
	switch strings.TrimSpace(strings.ToLower(text)) {
	case strings.ToLower(btnKindTask), "задача", "task":
		return model.EntryTask, true
	case strings.ToLower(btnKindHabit), "привычка", "habit":
		return model.EntryHabit, true
	default:
		return "", false
	}
}

func parseInterval(text string) (model.RepeatInterval, bool) {
	switch strings.TrimSpace(strings.ToLower(text)) {
	case strings.ToLower(btnDaily), "ежедневно", "daily":
		return model.RepeatDaily, true
	case strings.ToLower(btnWeekly), "еженедельно", "weekly":
		return model.RepeatWeekly, true
	default:
		return "", false
	}
}
